package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, password_hash, totp_secret)
VALUES ($1, $2, $3, '')
RETURNING id, created_at, username, password_hash, totp_secret
`

func (r *UserRepo) CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), username, hashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, apperrors.ErrUserAlreadyExists
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: getUserByID
SELECT id, created_at, username, password_hash, totp_secret FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return user, apperrors.ErrUserNotFound
	}

	return user, err
}

const getUserByUsername = `-- name: getUserByUsername
SELECT id, created_at, username, password_hash, totp_secret FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return user, apperrors.ErrUserNotFound
	}

	return user, err
}

const updatePassword = `-- name: updatePassword
UPDATE users
SET password_hash = $2
WHERE id = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, updatePassword, userID, hashedPassword)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

const updateTotpSecret = `-- name: updateTotpSecret
UPDATE users
SET totp_secret = $2
WHERE id = $1
`

func (r *UserRepo) UpdateTotpSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	tag, err := r.DB.Exec(ctx, updateTotpSecret, userID, secret)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.HashedPassword, &u.TotpSecret)
	return u, err
}
