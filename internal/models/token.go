package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenClass determines the expiry policy of an issued token and whether it
// is individually revocable through the allow-list.
type TokenClass string

const (
	// Short lived browser session token
	ClassSession TokenClass = "session"

	// Long lived "remember me" token
	ClassRememberMe TokenClass = "remember"

	// Non expiring token for the command line client
	// The only class tracked (and revocable) by the allow-list
	ClassCli TokenClass = "cli"
)

// Valid reports whether the class is one of the known token classes
func (c TokenClass) Valid() bool {
	switch c {
	case ClassSession, ClassRememberMe, ClassCli:
		return true
	}
	return false
}

// Expires reports whether tokens of this class carry an expiry
func (c TokenClass) Expires() bool {
	return c != ClassCli
}

// TokenClaims is the verified payload of a bearer token.
// Created only by the token manager and never mutated.
type TokenClaims struct {
	UserID   uuid.UUID
	Class    TokenClass
	TokenID  uuid.UUID
	IssuedAt time.Time

	// Zero for ClassCli tokens
	ExpiresAt time.Time
}

// IssuedToken is a freshly signed bearer string with its claims
type IssuedToken struct {
	Value  string
	Claims TokenClaims
}

// AllowlistEntry marks a CLI token id as currently valid.
// Presence means valid, absence means revoked or never issued.
type AllowlistEntry struct {
	TokenID  uuid.UUID
	UserID   uuid.UUID
	IssuedAt time.Time
}
