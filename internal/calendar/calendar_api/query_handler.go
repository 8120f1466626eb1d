package calendar_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListByCreator(w http.ResponseWriter, r *http.Request) {
	list, err := h.EventService.ListByCreator(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.sendError(w, "ListByCreator", err)
		return
	}
	h.sendJSON(w, http.StatusOK, list)
}

// Search serves both the global and the per-user title search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	list, err := h.EventService.Search(r.Context(), chi.URLParam(r, "query"), chi.URLParam(r, "username"))
	if err != nil {
		h.sendError(w, "Search", err)
		return
	}
	h.sendJSON(w, http.StatusOK, list)
}

func (h *Handler) ListInRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.EventService.ListInRange(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		h.sendError(w, "ListInRange", err)
		return
	}
	h.sendJSON(w, http.StatusOK, list)
}

func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	list, err := h.EventService.ListUpcoming(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.sendError(w, "ListUpcoming", err)
		return
	}
	h.sendJSON(w, http.StatusOK, list)
}

func (h *Handler) ListCreators(w http.ResponseWriter, r *http.Request) {
	creators, err := h.EventService.ListCreators(r.Context())
	if err != nil {
		h.sendError(w, "ListCreators", err)
		return
	}
	h.sendJSON(w, http.StatusOK, creators)
}

func (h *Handler) CountPerCreator(w http.ResponseWriter, r *http.Request) {
	counts, err := h.EventService.CountPerCreator(r.Context())
	if err != nil {
		h.sendError(w, "CountPerCreator", err)
		return
	}
	h.sendJSON(w, http.StatusOK, counts)
}
