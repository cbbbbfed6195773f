package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/clock"
	"github.com/nkiryanov/linkstash/internal/handlers/realip"
	"github.com/nkiryanov/linkstash/internal/handlers/render"
	"github.com/nkiryanov/linkstash/internal/handlers/userctx"
	"github.com/nkiryanov/linkstash/internal/logger"
	"github.com/nkiryanov/linkstash/internal/models"
	"github.com/nkiryanov/linkstash/internal/service/auth"
)

type authService interface {
	Register(ctx context.Context, username string, password string) (models.User, error)
	Login(ctx context.Context, in auth.LoginInput) (models.IssuedToken, error)
	Refresh(ctx context.Context, claims models.TokenClaims) (models.IssuedToken, error)
}

type AuthHandler struct {
	authService authService
	logger      logger.Logger
	clock       clock.Clock

	// Whether X-Forwarded-For may be trusted for client ip resolution
	trustProxy bool
}

func NewAuth(as authService, l logger.Logger, clk clock.Clock, trustProxy bool) *AuthHandler {
	if clk == nil {
		clk = clock.System()
	}
	return &AuthHandler{authService: as, logger: l, clock: clk, trustProxy: trustProxy}
}

// TokenResponse is the issued token as returned to the client.
// ExpiresAt is omitted for non expiring (cli) tokens.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

func tokenResponse(token models.IssuedToken) TokenResponse {
	resp := TokenResponse{Token: token.Value}
	if !token.Claims.ExpiresAt.IsZero() {
		resp.ExpiresAt = token.Claims.ExpiresAt.Unix()
	}
	return resp
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required"`
	}
	type RegisterSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	_, err = h.authService.Register(r.Context(), data.Username, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		case errors.Is(err, apperrors.ErrPasswordTooWeak):
			render.ServiceError(w, "Password is too weak", http.StatusBadRequest)
		default:
			h.logger.Error("register failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSONWithStatus(w, RegisterSuccessResponse{Message: "User registered successfully"}, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
		TotpCode string `json:"totp_code"`
		Remember bool   `json:"remember"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	class := models.ClassSession
	if data.Remember {
		class = models.ClassRememberMe
	}

	token, err := h.authService.Login(r.Context(), auth.LoginInput{
		Username: data.Username,
		Password: data.Password,
		TotpCode: data.TotpCode,
		Class:    class,
		IP:       realip.Resolve(r, h.trustProxy),
	})
	if err != nil {
		var limited *apperrors.RateLimitError
		switch {
		case errors.As(err, &limited):
			w.Header().Set("Retry-After", strconv.Itoa(limited.RetryAfter(h.clock.Now())))
			render.ServiceError(w, "Too many login attempts", http.StatusTooManyRequests)
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
		default:
			h.logger.Error("login failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, tokenResponse(token))
}

// Refresh issues a new token of the same class. The presented token was
// already verified by the auth middleware; it stays valid until its own
// expiry or revoke.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.Refresh(r.Context(), identity.Claims)
	if err != nil {
		h.logger.Error("token refresh failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, tokenResponse(token))
}
