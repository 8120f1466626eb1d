package calendar_api

import (
	"net/http"

	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) MirrorBug(w http.ResponseWriter, r *http.Request) {
	h.mirror(w, r, models.EventTypeBug)
}

func (h *Handler) MirrorCodeReview(w http.ResponseWriter, r *http.Request) {
	h.mirror(w, r, models.EventTypeCodeReview)
}

func (h *Handler) MirrorForumTopic(w http.ResponseWriter, r *http.Request) {
	h.mirror(w, r, models.EventTypeForumTopic)
}

// mirror answers 201 for a new event and 200 when the reference was
// already mirrored.
func (h *Handler) mirror(w http.ResponseWriter, r *http.Request, kind models.EventType) {
	var payload models.MirrorPayload
	if err := decode(r, &payload); err != nil {
		h.sendError(w, "Mirror", err)
		return
	}

	event, created, err := h.Gateway.Mirror(r.Context(), actor(r), kind, payload)
	if err != nil {
		h.sendError(w, "Mirror", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.sendJSON(w, status, event)
}

func (h *Handler) ListBugs(w http.ResponseWriter, r *http.Request) {
	h.listByType(w, r, models.EventTypeBug)
}

func (h *Handler) ListCodeReviews(w http.ResponseWriter, r *http.Request) {
	h.listByType(w, r, models.EventTypeCodeReview)
}

func (h *Handler) ListForumTopics(w http.ResponseWriter, r *http.Request) {
	h.listByType(w, r, models.EventTypeForumTopic)
}

func (h *Handler) listByType(w http.ResponseWriter, r *http.Request, kind models.EventType) {
	list, err := h.Gateway.ListByType(r.Context(), kind)
	if err != nil {
		h.sendError(w, "ListByType", err)
		return
	}
	h.sendJSON(w, http.StatusOK, list)
}

func (h *Handler) GetByReference(w http.ResponseWriter, r *http.Request) {
	event, err := h.Gateway.FindByReference(r.Context(), chi.URLParam(r, "referenceId"))
	if err != nil {
		h.sendError(w, "GetByReference", err)
		return
	}
	h.sendJSON(w, http.StatusOK, event)
}

func (h *Handler) UpdateByReference(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(r)
	if err != nil {
		h.sendError(w, "UpdateByReference", err)
		return
	}

	event, err := h.Gateway.UpdateByReference(r.Context(), actor(r), chi.URLParam(r, "referenceId"), patch)
	if err != nil {
		h.sendError(w, "UpdateByReference", err)
		return
	}
	h.sendJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteByReference(w http.ResponseWriter, r *http.Request) {
	event, err := h.Gateway.DeleteByReference(r.Context(), actor(r), chi.URLParam(r, "referenceId"))
	if err != nil {
		h.sendError(w, "DeleteByReference", err)
		return
	}
	h.sendJSON(w, http.StatusOK, utils.DeleteResponse{
		Message:      "Event deleted successfully",
		DeletedEvent: event,
	})
}
