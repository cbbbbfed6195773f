// Package userctx carries the authenticated identity through the request
// context.
package userctx

import (
	"context"

	"github.com/nkiryanov/linkstash/internal/models"
)

type ctxKey int

const identityKey ctxKey = 0

// Identity bundles the authenticated user with the verified token claims
type Identity struct {
	User   models.User
	Claims models.TokenClaims
}

func NewContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
