package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/moviestore/internal/authz"
	"github.com/Clark-Hu/moviestore/internal/domain"
	"github.com/Clark-Hu/moviestore/internal/repository"
)

var errMovieNotFound = errors.New("movie not found")

type movieRequest struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description string  `json:"description"`
	Year        int     `json:"year" validate:"required,gte=1800,lte=3000"`
	IMDBRating  float64 `json:"imdb_rating" validate:"gte=0,lte=10"`
	Category    []int64 `json:"category" validate:"dive,gt=0"`
}

type movieResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Year        int     `json:"year"`
	IMDBRating  float64 `json:"imdb_rating"`
	Category    []int64 `json:"category"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	filters, err := buildMovieFilters(r.URL.Query())
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, fieldErrors{"year": {err.Error()}})
		return
	}

	items, err := s.repo.Movies.List(r.Context(), filters)
	if err != nil {
		s.logger.Printf("list movies error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list movies")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponses(items))
}

func buildMovieFilters(query url.Values) (repository.MovieListFilters, error) {
	var filters repository.MovieListFilters

	if val := strings.TrimSpace(query.Get("title")); val != "" {
		filters.Title = &val
	}
	if val := strings.TrimSpace(query.Get("description")); val != "" {
		filters.Description = &val
	}
	if val := strings.TrimSpace(query.Get("category")); val != "" {
		filters.Category = &val
	}
	if val := strings.TrimSpace(query.Get("year")); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid year value")
		}
		filters.Year = &year
	}
	return filters, nil
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageCatalog(identityFrom(r.Context())) {
		s.respondUnauthorized(w)
		return
	}

	var req movieRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	var movie domain.Movie
	err := s.repo.WithTx(r.Context(), func(tx *repository.Repository) error {
		var err error
		movie, err = tx.Movies.Create(r.Context(), req.params())
		return err
	})
	if err != nil {
		s.respondMovieWriteError(w, "create movie", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/movies/%d/", movie.ID))
	s.respondJSON(w, http.StatusCreated, toMovieResponse(movie))
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	movie, err := s.repo.Movies.GetByID(r.Context(), pathID(r))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondNotFound(w)
			return
		}
		s.logger.Printf("get movie error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch movie")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageCatalog(identityFrom(r.Context())) {
		s.respondUnauthorized(w)
		return
	}
	id := pathID(r)

	var req movieRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	var movie domain.Movie
	err := s.repo.WithTx(r.Context(), func(tx *repository.Repository) error {
		if _, err := tx.Movies.GetByID(r.Context(), id); err != nil {
			return s.movieLookupError(err)
		}
		var err error
		movie, err = tx.Movies.Update(r.Context(), id, req.params())
		return err
	})
	if err != nil {
		s.respondMovieWriteError(w, "update movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	if !authz.CanManageCatalog(identityFrom(r.Context())) {
		s.respondUnauthorized(w)
		return
	}
	if err := s.repo.Movies.Delete(r.Context(), pathID(r)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondNotFound(w)
			return
		}
		s.logger.Printf("delete movie error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete movie")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) movieLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errMovieNotFound
	}
	return err
}

// respondMovieWriteError distinguishes a missing movie (404) from a dangling
// category id, which the foreign key reports as repository.ErrNotFound (400).
func (s *Server) respondMovieWriteError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, errMovieNotFound):
		s.respondNotFound(w)
	case errors.Is(err, repository.ErrNotFound):
		s.respondJSON(w, http.StatusBadRequest, fieldErrors{"category": {"Invalid pk - object does not exist."}})
	default:
		s.logger.Printf("%s error: %v", op, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op)
	}
}

func (req movieRequest) params() repository.MovieParams {
	return repository.MovieParams{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Year:        req.Year,
		IMDBRating:  req.IMDBRating,
		CategoryIDs: req.Category,
	}
}

func toMovieResponse(movie domain.Movie) movieResponse {
	categories := movie.CategoryIDs
	if categories == nil {
		categories = []int64{}
	}
	return movieResponse{
		ID:          movie.ID,
		Title:       movie.Title,
		Description: movie.Description,
		Year:        movie.Year,
		IMDBRating:  movie.IMDBRating,
		Category:    categories,
	}
}

func toMovieResponses(items []domain.Movie) []movieResponse {
	out := make([]movieResponse, 0, len(items))
	for _, movie := range items {
		out = append(out, toMovieResponse(movie))
	}
	return out
}

// moviesInCategory lists movies linked to an existing category.
func (s *Server) moviesInCategory(ctx context.Context, categoryID int64) ([]domain.Movie, error) {
	if _, err := s.repo.Categories.GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.repo.Movies.List(ctx, repository.MovieListFilters{CategoryID: &categoryID})
}
