package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/moviestore/internal/authz"
	"github.com/Clark-Hu/moviestore/internal/domain"
)

type paymentCreateRequest struct {
	Rental int64    `json:"rental" validate:"required,gt=0"`
	Amount *float64 `json:"amount" validate:"required"`
}

type paymentResponse struct {
	ID        int64          `json:"id"`
	Rental    rentalResponse `json:"rental"`
	Amount    float64        `json:"amount"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func toPaymentResponse(p domain.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID,
		Rental:    toRentalResponse(p.Rental),
		Amount:    p.Amount,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func toPaymentResponses(items []domain.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPaymentResponse(p))
	}
	return out
}

// GET /payments/?user=&movie=
func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.PaymentFilter{
		UserName:   strings.TrimSpace(query.Get("user")),
		MovieTitle: strings.TrimSpace(query.Get("movie")),
	}
	items, err := s.settlement.ListPayments(r.Context(), identityFrom(r.Context()), filter)
	if err != nil {
		s.respondServiceError(w, "list payments", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toPaymentResponses(items))
}

func (s *Server) handleListMoviePayments(w http.ResponseWriter, r *http.Request) {
	items, err := s.settlement.ListPaymentsByMovie(r.Context(), identityFrom(r.Context()), pathID(r))
	if err != nil {
		s.respondServiceError(w, "list movie payments", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toPaymentResponses(items))
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	caller := identityFrom(r.Context())
	if !authz.IsAuthenticated(caller) {
		s.respondUnauthorized(w)
		return
	}

	var req paymentCreateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	payment, err := s.settlement.CreatePayment(r.Context(), caller, req.Rental, *req.Amount)
	if err != nil {
		s.respondServiceError(w, "create payment", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toPaymentResponse(payment))
}
