package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/handlers/userctx"
	"github.com/nkiryanov/linkstash/internal/models"
)

// Auth service stub with programmable verification result
type authStub struct {
	user models.User
	err  error
}

func (s authStub) GetBearerString(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	return header, true
}

func (s authStub) Authenticate(_ context.Context, _ string) (models.User, models.TokenClaims, error) {
	return s.user, models.TokenClaims{UserID: s.user.ID}, s.err
}

// Handler that writes the username if identity attached, 'anonymous' otherwise
var echoHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(identity.User.Username))
})

func Test_Authenticate(t *testing.T) {
	t.Run("no credential passes through unauthenticated", func(t *testing.T) {
		middleware := Authenticate(authStub{})
		srv := httptest.NewServer(middleware(echoHandler))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "anonymous", string(body))
	})

	t.Run("valid credential attaches identity", func(t *testing.T) {
		middleware := Authenticate(authStub{user: models.User{Username: "test-user"}})
		srv := httptest.NewServer(middleware(echoHandler))
		defer srv.Close()

		req, err := http.NewRequest("GET", srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer some-token")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "test-user", string(body))
	})

	tests := []struct {
		name        string
		err         error
		wantMessage string
	}{
		{name: "invalid token", err: apperrors.ErrInvalidToken, wantMessage: "Invalid token"},
		{name: "expired token", err: apperrors.ErrExpiredToken, wantMessage: "Token expired"},
		{name: "revoked token", err: apperrors.ErrRevokedToken, wantMessage: "Token revoked"},
	}

	for _, tt := range tests {
		t.Run(tt.name+" rejected, not downgraded", func(t *testing.T) {
			middleware := Authenticate(authStub{err: tt.err})
			srv := httptest.NewServer(middleware(echoHandler))
			defer srv.Close()

			req, err := http.NewRequest("GET", srv.URL+"/test", nil)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer some-token")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.JSONEq(t,
				`{
					"error": "service_error",
					"message": "`+tt.wantMessage+`"
				}`,
				string(body),
			)
		})
	}
}

func Test_RequireAuth(t *testing.T) {
	t.Run("no identity rejected", func(t *testing.T) {
		srv := httptest.NewServer(RequireAuth(echoHandler))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Authentication required"
			}`,
			string(body),
		)
	})

	t.Run("identity passes", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := userctx.NewContext(r.Context(), userctx.Identity{User: models.User{Username: "test-user"}})
			RequireAuth(echoHandler).ServeHTTP(w, r.WithContext(ctx))
		})
		srv := httptest.NewServer(handler)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "test-user", string(body))
	})
}
