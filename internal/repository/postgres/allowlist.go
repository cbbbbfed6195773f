package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/linkstash/internal/models"
)

type TokenAllowlistRepo struct {
	DB DBTX
}

const saveAllowlistEntry = `-- name: SaveAllowlistEntry
INSERT INTO token_allowlist (token_id, user_id, issued_at)
VALUES ($1, $2, $3)
RETURNING token_id
`

func (r *TokenAllowlistRepo) Save(ctx context.Context, entry models.AllowlistEntry) error {
	rows, _ := r.DB.Query(ctx, saveAllowlistEntry, entry.TokenID, entry.UserID, entry.IssuedAt)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const allowlistEntryExists = `-- name: AllowlistEntryExists
SELECT EXISTS (SELECT 1 FROM token_allowlist WHERE token_id = $1)
`

func (r *TokenAllowlistRepo) Exists(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	rows, _ := r.DB.Query(ctx, allowlistEntryExists, tokenID)
	exists, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

const deleteAllowlistEntry = `-- name: DeleteAllowlistEntry
DELETE FROM token_allowlist
WHERE token_id = $1
`

// Delete entry and report whether anything was deleted
// Deleting an absent id is not an error
func (r *TokenAllowlistRepo) Delete(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	tag, err := r.DB.Exec(ctx, deleteAllowlistEntry, tokenID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
