package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/perchsync/internal/perch"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *perch.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/today", h.Today)
	r.Get("/keyboards", h.Keyboards)

	r.Route("/clients/{clientID}", func(r chi.Router) {
		r.Get("/state", h.ClientState)
		r.Post("/signals", h.Signal)
		r.Post("/reset", h.HardReset)
		r.Post("/premium", h.Premium)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
