package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/linkstash/internal/models"
)

type LoginAttemptRepo struct {
	DB DBTX
}

const recordAttempt = `-- name: RecordAttempt
INSERT INTO login_attempts (created_at, username, ip)
VALUES ($1, $2, $3)
RETURNING id, created_at, username, ip
`

func (r *LoginAttemptRepo) Record(ctx context.Context, attempt models.LoginAttempt) (models.LoginAttempt, error) {
	rows, _ := r.DB.Query(ctx, recordAttempt, attempt.CreatedAt, attempt.Username, attempt.IP)
	saved, err := pgx.CollectOneRow(rows, rowToAttempt)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const countByUsername = `-- name: CountByUsername
SELECT count(*) FROM login_attempts
WHERE username = $1 AND created_at > $2
`

func (r *LoginAttemptRepo) CountByUsername(ctx context.Context, username string, since time.Time) (int, error) {
	rows, _ := r.DB.Query(ctx, countByUsername, username, since)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

const countByIP = `-- name: CountByIP
SELECT count(*) FROM login_attempts
WHERE ip = $1 AND created_at > $2
`

func (r *LoginAttemptRepo) CountByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	rows, _ := r.DB.Query(ctx, countByIP, ip, since)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

const deleteAttemptsBefore = `-- name: DeleteAttemptsBefore
DELETE FROM login_attempts
WHERE created_at <= $1
`

func (r *LoginAttemptRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteAttemptsBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func rowToAttempt(row pgx.CollectableRow) (models.LoginAttempt, error) {
	var a models.LoginAttempt
	err := row.Scan(&a.ID, &a.CreatedAt, &a.Username, &a.IP)
	return a, err
}
