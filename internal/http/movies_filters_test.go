package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/moviestore/internal/domain"
)

func TestBuildMovieFilters(t *testing.T) {
	values, _ := url.ParseQuery("title= Heat &description= crime &category=Drama&year=1995")

	filters, err := buildMovieFilters(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.Title == nil || *filters.Title != "Heat" {
		t.Fatalf("title not trimmed: %+v", filters.Title)
	}
	if filters.Description == nil || *filters.Description != "crime" {
		t.Fatalf("description parse failed: %+v", filters.Description)
	}
	if filters.Category == nil || *filters.Category != "Drama" {
		t.Fatalf("category parse failed: %+v", filters.Category)
	}
	if filters.Year == nil || *filters.Year != 1995 {
		t.Fatalf("year parse failed: %+v", filters.Year)
	}
}

func TestBuildMovieFilters_InvalidYear(t *testing.T) {
	values, _ := url.ParseQuery("year=abc")
	if _, err := buildMovieFilters(values); err == nil {
		t.Fatalf("expected error for invalid year")
	}
}

func TestPathID(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"42", 42},
		{"0", 0},
		{"-3", 0},
		{"abc", 0},
		{"", 0},
		{"99999999999999999999", 0},
	}
	for _, c := range cases {
		req := attachIDParam(httptest.NewRequest(http.MethodGet, "/", nil), c.raw)
		if got := pathID(req); got != c.want {
			t.Fatalf("pathID(%q) = %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestIdentityFrom_DefaultsToAnonymous(t *testing.T) {
	if got := identityFrom(context.Background()); got != domain.Anonymous() {
		t.Fatalf("identityFrom(empty) = %+v", got)
	}
	ctx := withIdentity(context.Background(), domain.UserIdentity(5))
	if got := identityFrom(ctx); got != domain.UserIdentity(5) {
		t.Fatalf("identityFrom = %+v", got)
	}
}

func attachIDParam(req *http.Request, id string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}
