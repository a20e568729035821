package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"marketplace/internal/models"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, ident models.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, ident)
}

func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	ident, ok := ctx.Value(ctxKey{}).(models.Identity)
	return ident, ok
}

// Authenticate attaches the session identity to the request context when the
// cookie is valid. Requests without a valid session pass through anonymous.
func (s *Sessions) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := s.Resolve(r)
		if err == nil {
			r = r.WithContext(WithIdentity(r.Context(), ident))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects anonymous requests, and when roles are given, requests
// whose identity holds none of them.
func Require(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFrom(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "login required")
				return
			}
			if len(roles) > 0 && !hasRole(ident.Role, roles) {
				deny(w, http.StatusForbidden, "action is not available for role "+ident.Role.String())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasRole(role models.Role, roles []models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func deny(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Reason: reason})
}
