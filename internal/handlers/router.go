package handlers

import (
	"net/http"

	"github.com/nkiryanov/linkstash/internal/handlers/middleware"
	"github.com/nkiryanov/linkstash/internal/logger"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter builds the full route table.
// Register and login are the only public routes; everything else sits
// behind RequireAuth and answers 401 without an authenticated identity.
func NewRouter(
	authHandler *AuthHandler,
	linkHandler *LinkHandler,
	authenticate func(http.Handler) http.Handler,
	l logger.Logger,
) http.Handler {
	withAuth := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}

	api := http.NewServeMux()

	api.Handle("POST /auth/register", http.HandlerFunc(authHandler.Register))
	api.Handle("POST /auth/login", http.HandlerFunc(authHandler.Login))
	api.Handle("POST /auth/refresh", withAuth(authHandler.Refresh))

	api.Handle("GET /links", withAuth(linkHandler.List))
	api.Handle("POST /links", withAuth(linkHandler.Create))
	api.Handle("GET /links/{id}", withAuth(linkHandler.Get))
	api.Handle("PUT /links/{id}", withAuth(linkHandler.Update))
	api.Handle("POST /links/{id}/favourite", withAuth(linkHandler.ToggleFavourite))
	api.Handle("DELETE /links/{id}", withAuth(linkHandler.Delete))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return chain(root,
		middleware.Logger(l),
		authenticate,
	)
}
