package models

import (
	"time"

	"github.com/google/uuid"
)

type Link struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CreatedAt   time.Time
	URL         string
	Title       string
	Description string
	Favourite   bool
	Tags        []string
}
