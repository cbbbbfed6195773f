package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/handlers/render"
	"github.com/nkiryanov/linkstash/internal/handlers/userctx"
	"github.com/nkiryanov/linkstash/internal/logger"
	"github.com/nkiryanov/linkstash/internal/models"
	"github.com/nkiryanov/linkstash/internal/service/link"
)

type linkService interface {
	Create(ctx context.Context, userID uuid.UUID, in link.CreateInput) (models.Link, error)
	Get(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) (models.Link, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Link, error)
	Update(ctx context.Context, userID uuid.UUID, linkID uuid.UUID, in link.CreateInput) (models.Link, error)
	ToggleFavourite(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) (models.Link, error)
	Delete(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) error
}

type LinkHandler struct {
	linkService linkService
	logger      logger.Logger
}

func NewLink(ls linkService, l logger.Logger) *LinkHandler {
	return &LinkHandler{linkService: ls, logger: l}
}

type LinkRequest struct {
	URL         string   `json:"url" validate:"required,url"`
	Title       string   `json:"title" validate:"max=250"`
	Description string   `json:"description" validate:"max=2000"`
	Favourite   bool     `json:"favourite"`
	Tags        []string `json:"tags" validate:"max=50,dive,min=1,max=50"`
}

type LinkResponse struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   int64     `json:"created_at"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Favourite   bool      `json:"favourite"`
	Tags        []string  `json:"tags"`
}

func linkResponse(l models.Link) LinkResponse {
	return LinkResponse{
		ID:          l.ID,
		CreatedAt:   l.CreatedAt.Unix(),
		URL:         l.URL,
		Title:       l.Title,
		Description: l.Description,
		Favourite:   l.Favourite,
		Tags:        l.Tags,
	}
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	data, err := render.BindAndValidate[LinkRequest](w, r)
	if err != nil {
		return
	}

	created, err := h.linkService.Create(r.Context(), identity.User.ID, link.CreateInput{
		URL:         data.URL,
		Title:       data.Title,
		Description: data.Description,
		Favourite:   data.Favourite,
		Tags:        data.Tags,
	})
	if err != nil {
		h.logger.Error("link create failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSONWithStatus(w, linkResponse(created), http.StatusCreated)
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	links, err := h.linkService.List(r.Context(), identity.User.ID)
	if err != nil {
		h.logger.Error("link list failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		response = append(response, linkResponse(l))
	}

	render.JSON(w, response)
}

func (h *LinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withLink(w, r, func(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) (models.Link, error) {
		return h.linkService.Get(ctx, userID, linkID)
	})
}

func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	linkID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Link not found", http.StatusNotFound)
		return
	}

	data, err := render.BindAndValidate[LinkRequest](w, r)
	if err != nil {
		return
	}

	updated, err := h.linkService.Update(r.Context(), identity.User.ID, linkID, link.CreateInput{
		URL:         data.URL,
		Title:       data.Title,
		Description: data.Description,
		Favourite:   data.Favourite,
		Tags:        data.Tags,
	})
	if err != nil {
		h.writeLinkError(w, err)
		return
	}

	render.JSON(w, linkResponse(updated))
}

func (h *LinkHandler) ToggleFavourite(w http.ResponseWriter, r *http.Request) {
	h.withLink(w, r, func(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) (models.Link, error) {
		return h.linkService.ToggleFavourite(ctx, userID, linkID)
	})
}

func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	linkID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Link not found", http.StatusNotFound)
		return
	}

	if err := h.linkService.Delete(r.Context(), identity.User.ID, linkID); err != nil {
		h.writeLinkError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// withLink handles the shared identity + path parsing + render dance for
// single link operations
func (h *LinkHandler) withLink(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, uuid.UUID) (models.Link, error)) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	linkID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Link not found", http.StatusNotFound)
		return
	}

	found, err := fn(r.Context(), identity.User.ID, linkID)
	if err != nil {
		h.writeLinkError(w, err)
		return
	}

	render.JSON(w, linkResponse(found))
}

func (h *LinkHandler) writeLinkError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperrors.ErrLinkNotFound) {
		render.ServiceError(w, "Link not found", http.StatusNotFound)
		return
	}

	h.logger.Error("link operation failed", "error", err.Error())
	render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
}
