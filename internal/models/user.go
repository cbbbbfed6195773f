package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	HashedPassword string

	// Base32 shared secret for the TOTP second factor
	// Empty string means the second factor is disabled
	TotpSecret string
}

// TotpEnabled reports whether login requires a TOTP code
func (u User) TotpEnabled() bool {
	return u.TotpSecret != ""
}
