package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/models"
)

type LinkRepo struct {
	DB DBTX
}

const createLink = `-- name: CreateLink
INSERT INTO links (id, user_id, url, title, description, favourite, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, created_at, url, title, description, favourite, tags
`

func (r *LinkRepo) CreateLink(ctx context.Context, link models.Link) (models.Link, error) {
	id := link.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createLink, id, link.UserID, link.URL, link.Title, link.Description, link.Favourite, link.Tags)
	saved, err := pgx.CollectOneRow(rows, rowToLink)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getLink = `-- name: GetLink
SELECT id, user_id, created_at, url, title, description, favourite, tags
FROM links
WHERE id = $2 AND user_id = $1
`

func (r *LinkRepo) GetLink(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) (models.Link, error) {
	rows, _ := r.DB.Query(ctx, getLink, userID, linkID)
	link, err := pgx.CollectOneRow(rows, rowToLink)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return link, apperrors.ErrLinkNotFound
	}

	return link, err
}

const listLinks = `-- name: ListLinks
SELECT id, user_id, created_at, url, title, description, favourite, tags
FROM links
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *LinkRepo) ListLinks(ctx context.Context, userID uuid.UUID) ([]models.Link, error) {
	rows, _ := r.DB.Query(ctx, listLinks, userID)
	links, err := pgx.CollectRows(rows, rowToLink)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return links, nil
}

const updateLink = `-- name: UpdateLink
UPDATE links
SET url = $3, title = $4, description = $5, favourite = $6, tags = $7
WHERE id = $2 AND user_id = $1
RETURNING id, user_id, created_at, url, title, description, favourite, tags
`

func (r *LinkRepo) UpdateLink(ctx context.Context, link models.Link) (models.Link, error) {
	rows, _ := r.DB.Query(ctx, updateLink, link.UserID, link.ID, link.URL, link.Title, link.Description, link.Favourite, link.Tags)
	updated, err := pgx.CollectOneRow(rows, rowToLink)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return updated, apperrors.ErrLinkNotFound
	}

	return updated, err
}

const deleteLink = `-- name: DeleteLink
DELETE FROM links
WHERE id = $2 AND user_id = $1
`

func (r *LinkRepo) DeleteLink(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteLink, userID, linkID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrLinkNotFound
	}
	return nil
}

func rowToLink(row pgx.CollectableRow) (models.Link, error) {
	var l models.Link
	err := row.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.URL, &l.Title, &l.Description, &l.Favourite, &l.Tags)
	return l, err
}
