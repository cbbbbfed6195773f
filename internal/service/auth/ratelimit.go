package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/clock"
	"github.com/nkiryanov/linkstash/internal/models"
	"github.com/nkiryanov/linkstash/internal/repository"
)

type RateLimiterConfig struct {
	// Failures per username before logins for it are blocked
	UsernameThreshold int

	// Failures per client ip before logins from it are blocked
	IPThreshold int

	// Sliding window length. Failures older than this never count
	Window time.Duration
}

// RateLimiter computes sliding-window login admission from the failed
// attempt log. Counts tolerate small races between concurrent handlers:
// this is an abuse deterrent, not a hard security boundary.
type RateLimiter struct {
	cfg      RateLimiterConfig
	attempts repository.LoginAttemptRepo
	clock    clock.Clock
}

func NewRateLimiter(cfg RateLimiterConfig, attempts repository.LoginAttemptRepo, clk clock.Clock) (*RateLimiter, error) {
	if cfg.UsernameThreshold < 1 || cfg.IPThreshold < 1 {
		return nil, fmt.Errorf("rate limit thresholds must be at least 1: %w", apperrors.ErrConfigIncomplete)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive: %w", apperrors.ErrConfigIncomplete)
	}
	if attempts == nil {
		return nil, fmt.Errorf("login attempt repo must not be nil: %w", apperrors.ErrConfigIncomplete)
	}
	if clk == nil {
		clk = clock.System()
	}

	return &RateLimiter{cfg: cfg, attempts: attempts, clock: clk}, nil
}

// Admit decides whether a login attempt may proceed.
// Both counters are always evaluated so the returned error names every
// key that tripped, not just the first one.
func (l *RateLimiter) Admit(ctx context.Context, username string, ip string) error {
	now := l.clock.Now()
	since := now.Add(-l.cfg.Window)
	blocked := &apperrors.RateLimitError{ExpiresAt: now.Add(l.cfg.Window)}

	if username != "" {
		count, err := l.attempts.CountByUsername(ctx, username, since)
		if err != nil {
			return fmt.Errorf("error while counting username failures. Err: %w", err)
		}
		if count >= l.cfg.UsernameThreshold {
			blocked.Username = username
		}
	}

	count, err := l.attempts.CountByIP(ctx, ip, since)
	if err != nil {
		return fmt.Errorf("error while counting ip failures. Err: %w", err)
	}
	if count >= l.cfg.IPThreshold {
		blocked.IP = ip
	}

	if blocked.Username != "" || blocked.IP != "" {
		return blocked
	}
	return nil
}

// RecordFailure appends a failed attempt at the current time
func (l *RateLimiter) RecordFailure(ctx context.Context, username string, ip string) error {
	attempt := models.LoginAttempt{
		CreatedAt: l.clock.Now(),
		IP:        ip,
	}
	if username != "" {
		attempt.Username = &username
	}

	_, err := l.attempts.Record(ctx, attempt)
	if err != nil {
		return fmt.Errorf("error while recording login failure. Err: %w", err)
	}
	return nil
}

// Cleanup deletes attempts that slid out of the window.
// Meant for periodic maintenance, never called on the request path.
func (l *RateLimiter) Cleanup(ctx context.Context) (int64, error) {
	return l.attempts.DeleteBefore(ctx, l.clock.Now().Add(-l.cfg.Window))
}
