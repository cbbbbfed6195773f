package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/handlers/render"
	"github.com/nkiryanov/linkstash/internal/handlers/userctx"
	"github.com/nkiryanov/linkstash/internal/models"
)

type authService interface {
	// Extract bearer credential from the request, false if none present
	GetBearerString(r *http.Request) (string, bool)

	// Verify bearer string and load its user
	Authenticate(ctx context.Context, tokenString string) (models.User, models.TokenClaims, error)
}

// Authenticate attaches the verified identity to the request context.
// A request without any credential passes through unauthenticated: whether
// that is acceptable is the route's decision (see RequireAuth). A request
// with a bad credential is rejected outright, never downgraded to
// anonymous.
func Authenticate(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, present := as.GetBearerString(r)
			if !present {
				next.ServeHTTP(w, r)
				return
			}

			user, claims, err := as.Authenticate(r.Context(), tokenString)
			if err != nil {
				render.ServiceError(w, authErrorMessage(err), http.StatusUnauthorized)
				return
			}

			ctx := userctx.NewContext(r.Context(), userctx.Identity{User: user, Claims: claims})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that carry no authenticated identity.
// Every route not explicitly registered as public goes behind it.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userctx.FromContext(r.Context()); !ok {
			render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, apperrors.ErrRevokedToken):
		return "Token revoked"
	default:
		return "Invalid token"
	}
}
