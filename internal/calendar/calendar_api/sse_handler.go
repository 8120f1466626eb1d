package calendar_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StreamChanges streams event changes as Server-Sent Events, for one
// creator when {username} is set and for the whole calendar otherwise.
func (h *Handler) StreamChanges(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.sendMessage(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	username := chi.URLParam(r, "username")
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	changes := h.Emitter.Subscribe(ctx, username)

	hello, _ := json.Marshal(map[string]string{"status": "connected", "createdBy": username})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", hello)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to change stream (createdBy=%q)", username))

	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			data, err := json.Marshal(change)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize change: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", change.Action, data)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from change stream (createdBy=%q)", username))
			return
		}
	}
}
