package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/Clark-Hu/moviestore/internal/auth"
	"github.com/Clark-Hu/moviestore/internal/domain"
)

type identityKey struct{}

// identify resolves the bearer token into a domain.Identity. A request
// without an Authorization header proceeds as anonymous; a header that does
// not carry a valid token is rejected outright.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if strings.TrimSpace(header) == "" {
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), domain.Anonymous())))
			return
		}

		raw, ok := auth.BearerToken(header)
		if !ok || s.tokens == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		caller, err := s.tokens.Parse(raw)
		if err != nil {
			s.logger.Printf("rejecting bearer token: %v", err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), caller)))
	})
}

func withIdentity(ctx context.Context, caller domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, caller)
}

// identityFrom returns the caller stored by identify, or anonymous.
func identityFrom(ctx context.Context) domain.Identity {
	if caller, ok := ctx.Value(identityKey{}).(domain.Identity); ok {
		return caller
	}
	return domain.Anonymous()
}
