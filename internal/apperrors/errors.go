package apperrors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// Construction time failures: the app must refuse to start
	ErrConfigIncomplete = errors.New("config incomplete")

	// Token verification failures
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token is expired")
	ErrRevokedToken = errors.New("token is revoked")

	// Login failures
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooWeak    = errors.New("password is too weak")
	ErrAuthRequired       = errors.New("authentication required")
	ErrRateLimited        = errors.New("too many login attempts")

	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrLinkNotFound = errors.New("link not found")
)

// RateLimitError reports which keys tripped the login limiter and when the
// sliding window that produced the block closes.
// Matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	Username  string // empty if the per-username counter did not trip
	IP        string // empty if the per-ip counter did not trip
	ExpiresAt time.Time
}

func (e *RateLimitError) Error() string {
	keys := make([]string, 0, 2)
	if e.Username != "" {
		keys = append(keys, fmt.Sprintf("username %q", e.Username))
	}
	if e.IP != "" {
		keys = append(keys, fmt.Sprintf("ip %q", e.IP))
	}
	return fmt.Sprintf("too many login attempts for %s", strings.Join(keys, " and "))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfter returns whole seconds until the block expires, never negative.
func (e *RateLimitError) RetryAfter(now time.Time) int {
	seconds := int(e.ExpiresAt.Sub(now).Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}
