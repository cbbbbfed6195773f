package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/clock"
	"github.com/nkiryanov/linkstash/internal/models"
	"github.com/nkiryanov/linkstash/internal/repository"
)

const (
	defaultSessionTTL    = 2 * time.Hour
	defaultRememberMeTTL = 30 * 24 * time.Hour
	defaultSigningMethod = "HS256"

	// Symmetric HMAC key shorter than this is refused at construction
	MinSecretKeyLen = 32
)

type signedClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Class  string    `json:"cls"`
}

// Token manager with sensible defaults
type Config struct {
	// Secret key to sign tokens, at least MinSecretKeyLen bytes
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Per class token lifetimes
	// If not set than default is used
	SessionTTL    time.Duration
	RememberMeTTL time.Duration
}

// TokenManager issues, verifies, refreshes and revokes bearer tokens.
// Session and remember-me tokens are validated by signature and expiry
// alone. CLI tokens never expire and are valid only while their id sits
// in the allow-list, which makes them individually revocable.
type TokenManager struct {
	key         string
	alg         jwt.SigningMethod
	sessionTTL  time.Duration
	rememberTTL time.Duration

	allowlist repository.TokenAllowlistRepo
	clock     clock.Clock
}

func New(cfg Config, allowlist repository.TokenAllowlistRepo, clk clock.Clock) (*TokenManager, error) {
	if len(cfg.SecretKey) < MinSecretKeyLen {
		return nil, fmt.Errorf("secret key must be at least %d bytes: %w", MinSecretKeyLen, apperrors.ErrConfigIncomplete)
	}
	if allowlist == nil {
		return nil, fmt.Errorf("allowlist repo must not be nil: %w", apperrors.ErrConfigIncomplete)
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.SessionTTL, defaultSessionTTL)
	setDefaultDuration(&cfg.RememberMeTTL, defaultRememberMeTTL)

	if clk == nil {
		clk = clock.System()
	}

	return &TokenManager{
		key:         cfg.SecretKey,
		alg:         jwt.GetSigningMethod(cfg.Alg),
		sessionTTL:  cfg.SessionTTL,
		rememberTTL: cfg.RememberMeTTL,
		allowlist:   allowlist,
		clock:       clk,
	}, nil
}

// Generate mints a signed token for the user.
// For CLI class the allow-list row is written first: if the write fails no
// token string exists, so a crash can never leave a signed-but-unlisted
// CLI token in someone's hands.
func (m *TokenManager) Generate(ctx context.Context, userID uuid.UUID, class models.TokenClass) (models.IssuedToken, error) {
	var token models.IssuedToken

	now := m.clock.Now().Truncate(time.Second)
	claims := models.TokenClaims{
		UserID:   userID,
		Class:    class,
		TokenID:  uuid.New(),
		IssuedAt: now,
	}

	switch class {
	case models.ClassSession:
		claims.ExpiresAt = now.Add(m.sessionTTL)
	case models.ClassRememberMe:
		claims.ExpiresAt = now.Add(m.rememberTTL)
	case models.ClassCli:
		err := m.allowlist.Save(ctx, models.AllowlistEntry{
			TokenID:  claims.TokenID,
			UserID:   userID,
			IssuedAt: now,
		})
		if err != nil {
			return token, fmt.Errorf("error while allow-listing cli token. Err: %w", err)
		}
	default:
		return token, fmt.Errorf("unknown token class %q: %w", class, apperrors.ErrInvalidToken)
	}

	signed := signedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       claims.TokenID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID,
		Class:  string(class),
	}
	if class.Expires() {
		signed.ExpiresAt = jwt.NewNumericDate(claims.ExpiresAt)
	}

	value, err := jwt.NewWithClaims(m.alg, signed).SignedString([]byte(m.key))
	if err != nil {
		return token, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, Claims: claims}, nil
}

// Verify parses and validates a bearer string and returns its claims.
// Fails with apperrors.ErrInvalidToken, ErrExpiredToken or ErrRevokedToken.
// Only CLI tokens hit the allow-list, other classes cost no store read.
func (m *TokenManager) Verify(ctx context.Context, tokenString string) (models.TokenClaims, error) {
	var none models.TokenClaims

	parsed := &signedClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		parsed,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return none, apperrors.ErrExpiredToken
	default:
		return none, fmt.Errorf("%w: %s", apperrors.ErrInvalidToken, err)
	}

	class := models.TokenClass(parsed.Class)
	if !class.Valid() {
		return none, fmt.Errorf("%w: unknown token class", apperrors.ErrInvalidToken)
	}

	tokenID, err := uuid.Parse(parsed.ID)
	if err != nil {
		return none, fmt.Errorf("%w: malformed token id", apperrors.ErrInvalidToken)
	}

	// An expiring class without exp (or cli with one) means the token was
	// not minted by us even though the signature checks out
	if class.Expires() != (parsed.ExpiresAt != nil) {
		return none, fmt.Errorf("%w: expiry does not match token class", apperrors.ErrInvalidToken)
	}
	if parsed.IssuedAt == nil {
		return none, fmt.Errorf("%w: missing issued at", apperrors.ErrInvalidToken)
	}

	if class == models.ClassCli {
		listed, err := m.allowlist.Exists(ctx, tokenID)
		if err != nil {
			return none, fmt.Errorf("error while checking allow-list. Err: %w", err)
		}
		if !listed {
			return none, apperrors.ErrRevokedToken
		}
	}

	claims := models.TokenClaims{
		UserID:   parsed.UserID,
		Class:    class,
		TokenID:  tokenID,
		IssuedAt: parsed.IssuedAt.Time,
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}

	return claims, nil
}

// Refresh issues a new token of the same class for the same user with a
// fresh issued-at, expiry and token id. The prior token stays valid until
// it expires or is revoked on its own.
func (m *TokenManager) Refresh(ctx context.Context, claims models.TokenClaims) (models.IssuedToken, error) {
	return m.Generate(ctx, claims.UserID, claims.Class)
}

// Revoke removes the token id from the allow-list.
// Returns whether anything was removed: revoking an already revoked or
// never issued id is a safe no-op.
func (m *TokenManager) Revoke(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	deleted, err := m.allowlist.Delete(ctx, tokenID)
	if err != nil {
		return false, fmt.Errorf("error while revoking token. Err: %w", err)
	}
	return deleted, nil
}
