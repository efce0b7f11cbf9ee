package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Clark-Hu/moviestore/internal/authz"
	"github.com/Clark-Hu/moviestore/internal/domain"
	"github.com/Clark-Hu/moviestore/internal/repository"
)

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toCategoryResponse(c domain.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.Categories.List(r.Context())
	if err != nil {
		s.logger.Printf("list categories error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list categories")
		return
	}
	out := make([]categoryResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toCategoryResponse(c))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageCatalog(identityFrom(r.Context())) {
		s.respondUnauthorized(w)
		return
	}
	var req categoryRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	category, err := s.repo.Categories.Create(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		s.logger.Printf("create category error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create category")
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/categories/%d/", category.ID))
	s.respondJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.repo.Categories.GetByID(r.Context(), pathID(r))
	if err != nil {
		s.respondCategoryError(w, "fetch category", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageCatalog(identityFrom(r.Context())) {
		s.respondUnauthorized(w)
		return
	}
	var req categoryRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	category, err := s.repo.Categories.Rename(r.Context(), pathID(r), strings.TrimSpace(req.Name))
	if err != nil {
		s.respondCategoryError(w, "update category", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageCatalog(identityFrom(r.Context())) {
		s.respondUnauthorized(w)
		return
	}
	if err := s.repo.Categories.Delete(r.Context(), pathID(r)); err != nil {
		s.respondCategoryError(w, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategoryMovies(w http.ResponseWriter, r *http.Request) {
	items, err := s.moviesInCategory(r.Context(), pathID(r))
	if err != nil {
		s.respondCategoryError(w, "list category movies", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponses(items))
}

func (s *Server) respondCategoryError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		s.respondNotFound(w)
		return
	}
	s.logger.Printf("%s error: %v", op, err)
	s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op)
}
