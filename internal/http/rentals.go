package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/moviestore/internal/domain"
)

type rentalResponse struct {
	ID        int64     `json:"id"`
	RentedAt  time.Time `json:"rented_at"`
	Activated bool      `json:"activated"`
	Price     float64   `json:"price"`
}

func toRentalResponse(r domain.Rental) rentalResponse {
	return rentalResponse{
		ID:        r.ID,
		RentedAt:  r.RentedAt.UTC(),
		Activated: r.Activated,
		Price:     r.Price,
	}
}

func toRentalResponses(items []domain.Rental) []rentalResponse {
	out := make([]rentalResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toRentalResponse(r))
	}
	return out
}

// GET /rentals/?user=&movie=
func (s *Server) handleListRentals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.RentalFilter{
		UserName:   strings.TrimSpace(query.Get("user")),
		MovieTitle: strings.TrimSpace(query.Get("movie")),
	}
	items, err := s.lifecycle.List(r.Context(), identityFrom(r.Context()), filter)
	if err != nil {
		s.respondServiceError(w, "list rentals", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toRentalResponses(items))
}

func (s *Server) handleGetRental(w http.ResponseWriter, r *http.Request) {
	rental, err := s.lifecycle.Get(r.Context(), identityFrom(r.Context()), pathID(r))
	if err != nil {
		s.respondServiceError(w, "get rental", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toRentalResponse(rental))
}

func (s *Server) handleDeleteRental(w http.ResponseWriter, r *http.Request) {
	if err := s.lifecycle.Delete(r.Context(), identityFrom(r.Context()), pathID(r)); err != nil {
		s.respondServiceError(w, "delete rental", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMovieRentals(w http.ResponseWriter, r *http.Request) {
	items, err := s.lifecycle.ListByMovie(r.Context(), identityFrom(r.Context()), pathID(r))
	if err != nil {
		s.respondServiceError(w, "list movie rentals", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toRentalResponses(items))
}

func (s *Server) handleCreateRental(w http.ResponseWriter, r *http.Request) {
	rental, err := s.lifecycle.Create(r.Context(), identityFrom(r.Context()), pathID(r))
	if err != nil {
		s.respondServiceError(w, "create rental", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toRentalResponse(rental))
}
