package calendar_api

import (
	"net/http"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.EventService.ListEvents(r.Context())
	if err != nil {
		h.sendError(w, "ListEvents", err)
		return
	}
	h.sendJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in models.EventInput
	if err := decode(r, &in); err != nil {
		h.sendError(w, "CreateEvent", err)
		return
	}

	event, err := h.EventService.CreateEvent(r.Context(), actor(r), in)
	if err != nil {
		h.sendError(w, "CreateEvent", err)
		return
	}
	h.sendJSON(w, http.StatusCreated, event)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, "GetEvent", err)
		return
	}
	h.sendJSON(w, http.StatusOK, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(r)
	if err != nil {
		h.sendError(w, "UpdateEvent", err)
		return
	}

	event, err := h.EventService.UpdateEvent(r.Context(), actor(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.sendError(w, "UpdateEvent", err)
		return
	}
	h.sendJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.DeleteEvent(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, "DeleteEvent", err)
		return
	}
	h.sendJSON(w, http.StatusOK, utils.DeleteResponse{
		Message:      "Event deleted successfully",
		DeletedEvent: event,
	})
}

func decodePatch(r *http.Request) (models.EventPatch, error) {
	var patch models.EventPatch
	if err := decode(r, &patch); err != nil {
		return patch, err
	}
	if patch.IsEmpty() {
		return patch, calendar.Invalid("body", "no fields to update")
	}
	return patch, nil
}
