package link

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/linkstash/internal/models"
	"github.com/nkiryanov/linkstash/internal/repository"
)

// Bookmark service
// Thin on purpose: linkstash logic lives in the repos and the auth core
type Service struct {
	linkRepo repository.LinkRepo
}

func NewService(linkRepo repository.LinkRepo) *Service {
	return &Service{linkRepo: linkRepo}
}

type CreateInput struct {
	URL         string
	Title       string
	Description string
	Favourite   bool
	Tags        []string
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (models.Link, error) {
	link := models.Link{
		UserID:      userID,
		URL:         in.URL,
		Title:       in.Title,
		Description: in.Description,
		Favourite:   in.Favourite,
		Tags:        in.Tags,
	}
	if link.Tags == nil {
		link.Tags = []string{}
	}

	return s.linkRepo.CreateLink(ctx, link)
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) (models.Link, error) {
	return s.linkRepo.GetLink(ctx, userID, linkID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.Link, error) {
	return s.linkRepo.ListLinks(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID uuid.UUID, linkID uuid.UUID, in CreateInput) (models.Link, error) {
	link := models.Link{
		ID:          linkID,
		UserID:      userID,
		URL:         in.URL,
		Title:       in.Title,
		Description: in.Description,
		Favourite:   in.Favourite,
		Tags:        in.Tags,
	}
	if link.Tags == nil {
		link.Tags = []string{}
	}

	updated, err := s.linkRepo.UpdateLink(ctx, link)
	if err != nil {
		return updated, fmt.Errorf("error while updating link. Err: %w", err)
	}
	return updated, nil
}

// ToggleFavourite flips the favourite flag and returns the updated link
func (s *Service) ToggleFavourite(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) (models.Link, error) {
	link, err := s.linkRepo.GetLink(ctx, userID, linkID)
	if err != nil {
		return link, err
	}

	link.Favourite = !link.Favourite
	return s.linkRepo.UpdateLink(ctx, link)
}

func (s *Service) Delete(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) error {
	return s.linkRepo.DeleteLink(ctx, userID, linkID)
}
