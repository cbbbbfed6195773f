package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/models"
	"github.com/nkiryanov/linkstash/internal/repository"
	"github.com/nkiryanov/linkstash/internal/service/auth/tokenmanager"
)

const (
	authHeaderName = "Authorization"
	authScheme     = "Bearer"
)

type Config struct {
	// Minimum password length enforced before hashing
	// If not set DefaultMinPasswordLength is used
	MinPasswordLength int

	// Hasher to use during registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher
}

// Auth service: ties the rate limiter, hasher, TOTP verifier and token
// manager into the login flow
type AuthService struct {
	token    *tokenmanager.TokenManager
	hasher   StrengthHasher
	totp     *TotpVerifier
	limiter  *RateLimiter
	userRepo repository.UserRepo
}

func NewService(cfg Config, token *tokenmanager.TokenManager, totp *TotpVerifier, limiter *RateLimiter, userRepo repository.UserRepo) (*AuthService, error) {
	if token == nil || totp == nil || limiter == nil || userRepo == nil {
		return nil, fmt.Errorf("token manager, totp verifier, rate limiter and user repo must not be nil: %w", apperrors.ErrConfigIncomplete)
	}

	minLength := cfg.MinPasswordLength
	if minLength == 0 {
		minLength = DefaultMinPasswordLength
	}
	hasher, err := NewStrengthHasher(minLength, cfg.Hasher)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		token:    token,
		hasher:   hasher,
		totp:     totp,
		limiter:  limiter,
		userRepo: userRepo,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, username string, password string) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, err
	}

	return s.userRepo.CreateUser(ctx, username, hash)
}

type LoginInput struct {
	Username string
	Password string

	// TOTP code, required when the user has the second factor enabled
	TotpCode string

	// Class of the token to issue on success
	Class models.TokenClass

	// Resolved client ip, used as a rate limit key
	IP string
}

// Login runs the full login flow: rate limit admission first, then
// password, then TOTP when enabled. Every credential failure is appended
// to the attempt log; a successful login deliberately does not clear
// earlier failures.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (models.IssuedToken, error) {
	var token models.IssuedToken

	if err := s.limiter.Admit(ctx, in.Username, in.IP); err != nil {
		return token, err
	}

	user, err := s.userRepo.GetUserByUsername(ctx, in.Username)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		return token, s.fail(ctx, in)
	default:
		return token, err
	}

	if err := s.hasher.Compare(user.HashedPassword, in.Password); err != nil {
		return token, s.fail(ctx, in)
	}

	if user.TotpEnabled() && !s.totp.Verify(in.TotpCode, user.TotpSecret) {
		return token, s.fail(ctx, in)
	}

	return s.token.Generate(ctx, user.ID, in.Class)
}

// fail records the failed attempt and returns ErrInvalidCredentials.
// A recording error wins over the credentials error: the caller must know
// the deterrent is broken.
func (s *AuthService) fail(ctx context.Context, in LoginInput) error {
	if err := s.limiter.RecordFailure(ctx, in.Username, in.IP); err != nil {
		return err
	}
	return apperrors.ErrInvalidCredentials
}

// Refresh issues a fresh token of the same class for already verified
// claims. The token the claims came from stays valid until its own expiry
// or revoke.
func (s *AuthService) Refresh(ctx context.Context, claims models.TokenClaims) (models.IssuedToken, error) {
	return s.token.Refresh(ctx, claims)
}

// RevokeToken drops a CLI token id from the allow-list.
// Returns whether the id was present. Idempotent.
func (s *AuthService) RevokeToken(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	return s.token.Revoke(ctx, tokenID)
}

// GetBearerString extracts the bearer credential from the request.
// Second value is false when no credential is present at all.
func (s *AuthService) GetBearerString(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get(authHeaderName))
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, authScheme) {
		return "", false
	}

	return strings.TrimSpace(token), true
}

// Authenticate verifies a bearer string and loads its user
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (models.User, models.TokenClaims, error) {
	claims, err := s.token.Verify(ctx, tokenString)
	if err != nil {
		return models.User{}, claims, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return user, claims, fmt.Errorf("%w: token user not found", apperrors.ErrInvalidToken)
	}

	return user, claims, nil
}

// ChangePassword replaces the stored hash, enforcing the strength policy
func (s *AuthService) ChangePassword(ctx context.Context, username string, newPassword string) error {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(ctx, user.ID, hash)
}

// EnableTotp assigns a fresh shared secret and returns it so the caller
// can show it to the user exactly once
func (s *AuthService) EnableTotp(ctx context.Context, username string) (string, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	secret, err := GenerateTotpSecret(username)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdateTotpSecret(ctx, user.ID, secret); err != nil {
		return "", err
	}

	return secret, nil
}

func (s *AuthService) DisableTotp(ctx context.Context, username string) error {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	return s.userRepo.UpdateTotpSecret(ctx, user.ID, "")
}

// CleanupAttempts prunes attempt log rows older than the rate limit window
func (s *AuthService) CleanupAttempts(ctx context.Context) (int64, error) {
	return s.limiter.Cleanup(ctx)
}
