package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nkiryanov/linkstash/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// Replace the stored password hash
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Set or clear (empty string) the TOTP shared secret
	UpdateTotpSecret(ctx context.Context, userID uuid.UUID, secret string) error
}

// Allow-list of currently valid CLI token ids.
// Presence of a token id means the token is valid, absence means revoked.
type TokenAllowlistRepo interface {
	// Save entry for a freshly issued CLI token
	Save(ctx context.Context, entry models.AllowlistEntry) error

	// Report whether token id is present (still valid)
	Exists(ctx context.Context, tokenID uuid.UUID) (bool, error)

	// Delete entry. Returns whether anything was deleted, so revoking an
	// already revoked id is a no-op and not an error
	Delete(ctx context.Context, tokenID uuid.UUID) (bool, error)
}

// Append-only log of failed login attempts
type LoginAttemptRepo interface {
	Record(ctx context.Context, attempt models.LoginAttempt) (models.LoginAttempt, error)

	// Count failures strictly after 'since' for the given key
	CountByUsername(ctx context.Context, username string, since time.Time) (int, error)
	CountByIP(ctx context.Context, ip string, since time.Time) (int, error)

	// Delete rows recorded at or before 'cutoff', returns deleted count
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Bookmark repository interface
type LinkRepo interface {
	CreateLink(ctx context.Context, link models.Link) (models.Link, error)

	// If link not found (or owned by other user) must return apperrors.ErrLinkNotFound
	GetLink(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) (models.Link, error)
	ListLinks(ctx context.Context, userID uuid.UUID) ([]models.Link, error)
	UpdateLink(ctx context.Context, link models.Link) (models.Link, error)
	DeleteLink(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) error
}

// Storage aggregates every repository over a single connection or tx
type Storage interface {
	User() UserRepo
	TokenAllowlist() TokenAllowlistRepo
	LoginAttempt() LoginAttemptRepo
	Link() LinkRepo

	// Run fn inside a db transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
