package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/logger"
	"github.com/nkiryanov/linkstash/internal/models"
	"github.com/nkiryanov/linkstash/internal/service/auth"
	"github.com/nkiryanov/linkstash/internal/testutil"
)

// Auth service stub with canned results
type authServiceStub struct {
	registerErr error
	loginToken  models.IssuedToken
	loginErr    error
	gotLogin    auth.LoginInput
}

func (s *authServiceStub) Register(_ context.Context, username string, _ string) (models.User, error) {
	return models.User{ID: uuid.New(), Username: username}, s.registerErr
}

func (s *authServiceStub) Login(_ context.Context, in auth.LoginInput) (models.IssuedToken, error) {
	s.gotLogin = in
	return s.loginToken, s.loginErr
}

func (s *authServiceStub) Refresh(_ context.Context, claims models.TokenClaims) (models.IssuedToken, error) {
	return s.loginToken, s.loginErr
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *http.Response {
	t.Helper()

	r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	r.RemoteAddr = "203.0.113.5:54321"
	w := httptest.NewRecorder()

	handler(w, r)

	return w.Result()
}

func Test_LoginHandler(t *testing.T) {
	clk := testutil.NewFixedClock("2024-06-01T12:00:00Z")

	t.Run("ok", func(t *testing.T) {
		stub := &authServiceStub{
			loginToken: models.IssuedToken{
				Value: "signed-token",
				Claims: models.TokenClaims{
					Class:     models.ClassSession,
					ExpiresAt: clk.Now().Add(2 * time.Hour),
				},
			},
		}
		h := NewAuth(stub, logger.NewNoOp(), clk, false)

		resp := postJSON(t, h.Login, `{"username": "nk", "password": "StrongEnoughPassword"}`)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, string(body), "signed-token")
		require.Equal(t, "203.0.113.5", stub.gotLogin.IP, "client ip should be resolved and passed on")
		require.Equal(t, models.ClassSession, stub.gotLogin.Class)
	})

	t.Run("remember flag issues remember-me class", func(t *testing.T) {
		stub := &authServiceStub{loginToken: models.IssuedToken{Value: "signed-token"}}
		h := NewAuth(stub, logger.NewNoOp(), clk, false)

		resp := postJSON(t, h.Login, `{"username": "nk", "password": "pwd", "remember": true}`)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, models.ClassRememberMe, stub.gotLogin.Class)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		stub := &authServiceStub{loginErr: apperrors.ErrInvalidCredentials}
		h := NewAuth(stub, logger.NewNoOp(), clk, false)

		resp := postJSON(t, h.Login, `{"username": "nk", "password": "wrong"}`)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Invalid credentials"
			}`,
			string(body),
		)
	})

	t.Run("rate limited sets retry-after", func(t *testing.T) {
		stub := &authServiceStub{loginErr: &apperrors.RateLimitError{
			Username:  "nk",
			ExpiresAt: clk.Now().Add(10 * time.Minute),
		}}
		h := NewAuth(stub, logger.NewNoOp(), clk, false)

		resp := postJSON(t, h.Login, `{"username": "nk", "password": "whatever"}`)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		require.Equal(t, "600", resp.Header.Get("Retry-After"))
	})

	t.Run("retry-after is never negative", func(t *testing.T) {
		stub := &authServiceStub{loginErr: &apperrors.RateLimitError{
			Username:  "nk",
			ExpiresAt: clk.Now().Add(-time.Minute),
		}}
		h := NewAuth(stub, logger.NewNoOp(), clk, false)

		resp := postJSON(t, h.Login, `{"username": "nk", "password": "whatever"}`)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		require.Equal(t, "0", resp.Header.Get("Retry-After"))
	})

	t.Run("validation failure", func(t *testing.T) {
		h := NewAuth(&authServiceStub{}, logger.NewNoOp(), clk, false)

		resp := postJSON(t, h.Login, `{"username": "nk"}`)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func Test_RegisterHandler(t *testing.T) {
	clk := testutil.NewFixedClock("2024-06-01T12:00:00Z")

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "created", serviceErr: nil, wantStatus: http.StatusCreated},
		{name: "conflict", serviceErr: apperrors.ErrUserAlreadyExists, wantStatus: http.StatusConflict},
		{name: "weak password", serviceErr: apperrors.ErrPasswordTooWeak, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuth(&authServiceStub{registerErr: tt.serviceErr}, logger.NewNoOp(), clk, false)

			r := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(`{"username": "nk", "password": "StrongEnoughPassword"}`))
			w := httptest.NewRecorder()
			h.Register(w, r)

			require.Equal(t, tt.wantStatus, w.Result().StatusCode)
		})
	}
}
