package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/perchsync/internal/perch"
)

// Handler holds API route handlers.
type Handler struct {
	svc *perch.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *perch.Service) *Handler {
	return &Handler{svc: svc}
}

func clientID(r *http.Request) string {
	return chi.URLParam(r, "clientID")
}

// Today handles GET /api/today.
//
//	@Summary		Current day key, index and keyboard set
//	@Tags			day
//	@Produce		json
//	@Param			tz	query		string	false	"IANA timezone"
//	@Success		200	{object}	TodayResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/today [get]
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	today, err := h.svc.Today(r.Context(), r.URL.Query().Get("tz"))
	if err != nil {
		writeServiceError(w, "today", err)
		return
	}
	writeJSON(w, http.StatusOK, today)
}

// Keyboards handles GET /api/keyboards.
//
//	@Summary		List the keyboard set rotation
//	@Tags			keyboards
//	@Produce		json
//	@Success		200	{object}	KeyboardListResponse
//	@Security		BearerAuth
//	@Router			/keyboards [get]
func (h *Handler) Keyboards(w http.ResponseWriter, r *http.Request) {
	sets := h.svc.KeyboardSets()
	writeJSON(w, http.StatusOK, KeyboardListResponse{Sets: sets, Total: len(sets)})
}

// ClientState handles GET /api/clients/{clientID}/state.
//
//	@Summary		Stored state for a client
//	@Tags			clients
//	@Produce		json
//	@Param			clientID	path		string	true	"Client ID"
//	@Success		200			{object}	perch.ClientState
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{clientID}/state [get]
func (h *Handler) ClientState(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.State(r.Context(), clientID(r))
	if err != nil {
		writeServiceError(w, "client state", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Signal handles POST /api/clients/{clientID}/signals.
//
//	@Summary		Report a page lifecycle signal and run the day check
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			clientID	path		string			true	"Client ID"
//	@Param			body		body		SignalRequest	true	"Signal"
//	@Success		200			{object}	SignalResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{clientID}/signals [post]
func (h *Handler) Signal(w http.ResponseWriter, r *http.Request) {
	var req SignalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return
	}
	resp, err := h.svc.Signal(r.Context(), clientID(r), req)
	if err != nil {
		writeServiceError(w, "signal", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HardReset handles POST /api/clients/{clientID}/reset.
//
//	@Summary		Clear cached game state and request a reload
//	@Tags			clients
//	@Produce		json
//	@Param			clientID	path		string	true	"Client ID"
//	@Success		200			{object}	ResetResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{clientID}/reset [post]
func (h *Handler) HardReset(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.HardReset(r.Context(), clientID(r))
	if err != nil {
		writeServiceError(w, "hard reset", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Premium handles POST /api/clients/{clientID}/premium.
//
//	@Summary		Intercept a premium button activation
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			clientID	path		string			true	"Client ID"
//	@Param			body		body		PremiumRequest	true	"DOM event"
//	@Success		200			{object}	PremiumResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{clientID}/premium [post]
func (h *Handler) Premium(w http.ResponseWriter, r *http.Request) {
	var req PremiumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return
	}
	resp, err := h.svc.Premium(r.Context(), clientID(r), req)
	if err != nil {
		writeServiceError(w, "premium", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
