package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Clark-Hu/moviestore/internal/domain"
)

const maxRequestBody = 1 << 20 // 1 MiB

const nonFieldErrors = "non_field_errors"

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// fieldErrors is the body of every 400/409: field name -> messages.
type fieldErrors map[string][]string

type fieldReporter interface {
	Fields() map[string][]string
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// decodeAndValidate reads the body into dst and runs its validate tags. It
// writes the 400 response itself and reports whether the handler may go on.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSONBody(w, r, dst); err != nil {
		s.respondDecodeError(w, err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondValidationError(w, err)
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondNotFound(w http.ResponseWriter) {
	s.respondJSON(w, http.StatusNotFound, detailResponse{Detail: "Not found."})
}

func (s *Server) respondUnauthorized(w http.ResponseWriter) {
	w.WriteHeader(http.StatusUnauthorized)
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondJSON(w, http.StatusBadRequest, fieldErrors{nonFieldErrors: {"Malformed JSON payload."}})
	case errors.As(err, &typeError):
		s.respondJSON(w, http.StatusBadRequest, fieldErrors{typeError.Field: {"Invalid value."}})
	case errors.Is(err, io.EOF):
		s.respondJSON(w, http.StatusBadRequest, fieldErrors{nonFieldErrors: {"Request body cannot be empty."}})
	case errors.As(err, &maxBytesError):
		s.respondJSON(w, http.StatusRequestEntityTooLarge, fieldErrors{nonFieldErrors: {"Request body is too large."}})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		s.respondJSON(w, http.StatusBadRequest, fieldErrors{field: {"Unknown field."}})
	default:
		s.respondJSON(w, http.StatusBadRequest, fieldErrors{nonFieldErrors: {"Unable to parse request body."}})
	}
}

func (s *Server) respondValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.logger.Printf("validate request: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to validate request")
		return
	}
	out := fieldErrors{}
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], validationMessage(fe))
	}
	s.respondJSON(w, http.StatusBadRequest, out)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	default:
		return "Invalid value."
	}
}

// respondServiceError maps the domain error taxonomy onto HTTP.
func (s *Server) respondServiceError(w http.ResponseWriter, op string, err error) {
	var fields fieldReporter
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		s.respondUnauthorized(w)
	case errors.Is(err, domain.ErrNotFound):
		s.respondNotFound(w)
	case errors.Is(err, domain.ErrInvariantViolation):
		s.logger.Printf("%s: %v", op, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Request aborted")
	case errors.Is(err, domain.ErrAlreadySettled) && errors.As(err, &fields):
		s.respondJSON(w, http.StatusConflict, fieldErrors(fields.Fields()))
	case errors.As(err, &fields):
		s.respondJSON(w, http.StatusBadRequest, fieldErrors(fields.Fields()))
	default:
		s.logger.Printf("%s: %v", op, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op)
	}
}

// pathID parses the {id} route parameter. Malformed ids become 0, which no
// row carries, so lookups report not found after the usual auth checks.
func pathID(r *http.Request) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
