package auth

import (
	"crypto/sha256"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/linkstash/internal/apperrors"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Bcrypt password hasher
// Passwords are pre-hashed with sha256 to dodge the bcrypt 72 byte limit
type BcryptHasher struct{}

func (h BcryptHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], bcrypt.DefaultCost)
	return string(hash), err
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}

const DefaultMinPasswordLength = 12

// StrengthHasher rejects under-length passwords before handing them to the
// wrapped hasher. Compare is plain delegation: existing hashes stay usable
// even if the policy tightens later.
type StrengthHasher struct {
	minLength int
	inner     PasswordHasher
}

func NewStrengthHasher(minLength int, inner PasswordHasher) (StrengthHasher, error) {
	if minLength < 1 {
		return StrengthHasher{}, fmt.Errorf("min password length must be at least 1: %w", apperrors.ErrConfigIncomplete)
	}
	if inner == nil {
		inner = BcryptHasher{}
	}

	return StrengthHasher{minLength: minLength, inner: inner}, nil
}

func (h StrengthHasher) Hash(password string) (string, error) {
	if utf8.RuneCountInString(password) < h.minLength {
		return "", fmt.Errorf("password must be at least %d characters: %w", h.minLength, apperrors.ErrPasswordTooWeak)
	}
	return h.inner.Hash(password)
}

func (h StrengthHasher) Compare(hashedPassword string, password string) error {
	return h.inner.Compare(hashedPassword, password)
}
