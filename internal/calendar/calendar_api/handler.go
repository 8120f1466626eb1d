package calendar_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-calendar/internal/auth"
	"ms-calendar/internal/calendar"
	"ms-calendar/internal/calendar/mirror"
	events "ms-calendar/internal/calendar/service"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/sse"
	"ms-calendar/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	EventService *events.EventService
	Gateway      *mirror.Gateway
	Emitter      *sse.ChangeEventEmitter
	Logger       *logger.Logger
	ICSProductID string
}

func NewHandler(eventService *events.EventService, gateway *mirror.Gateway, emitter *sse.ChangeEventEmitter, log *logger.Logger) *Handler {
	return &Handler{
		EventService: eventService,
		Gateway:      gateway,
		Emitter:      emitter,
		Logger:       log,
		ICSProductID: "-//team-calendar//EN",
	}
}

// RegisterRoutes registers the /api routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.Index)
		r.Get("/users", h.ListCreators)
		r.Get("/stats/events-per-user", h.CountPerCreator)
		r.Get("/calendar.ics", h.CalendarFeed)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)

			r.Get("/createdBy/{user}", h.ListByCreator)
			r.Get("/search/{query}", h.Search)
			r.Get("/search/{username}/{query}", h.Search)
			r.Get("/range", h.ListInRange)
			r.Get("/upcoming", h.ListUpcoming)
			r.Get("/upcoming/{username}", h.ListUpcoming)

			r.Post("/bug", h.MirrorBug)
			r.Post("/code-review", h.MirrorCodeReview)
			r.Post("/forum-topic", h.MirrorForumTopic)
			r.Get("/bugs", h.ListBugs)
			r.Get("/code-reviews", h.ListCodeReviews)
			r.Get("/forum-topics", h.ListForumTopics)

			r.Route("/by-reference/{referenceId}", func(r chi.Router) {
				r.Get("/", h.GetByReference)
				r.Put("/", h.UpdateByReference)
				r.Delete("/", h.DeleteByReference)
			})

			r.Get("/stream", h.StreamChanges)
			r.Get("/stream/{username}", h.StreamChanges)

			r.Get("/{id}", h.GetEvent)
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
		})
	})
}

// Index lists the available endpoints.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]any{
		"message": "Team calendar API",
		"endpoints": []string{
			"GET /api/events",
			"POST /api/events",
			"GET|PUT|DELETE /api/events/{id}",
			"GET /api/events/createdBy/{user}",
			"GET /api/events/search/{query}",
			"GET /api/events/search/{username}/{query}",
			"GET /api/events/range?start=&end=",
			"GET /api/events/upcoming[/{username}]",
			"GET /api/users",
			"GET /api/stats/events-per-user",
			"POST /api/events/bug | /code-review | /forum-topic",
			"GET /api/events/bugs | /code-reviews | /forum-topics",
			"GET|PUT|DELETE /api/events/by-reference/{referenceId}",
			"GET /api/events/stream[/{username}]",
			"GET /api/calendar.ics[?createdBy=]",
		},
	})
}

// sendJSON writes data with the given status
func (h *Handler) sendJSON(w http.ResponseWriter, status int, data any) {
	if err := utils.WriteJSON(w, status, data); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

// sendError maps a service error to its status: validation 400, not found
// 404, anything else 500 with the detail kept in the log.
func (h *Handler) sendError(w http.ResponseWriter, op string, err error) {
	var verr *calendar.ValidationError
	switch {
	case errors.As(err, &verr):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		h.sendMessage(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, calendar.ErrNotFound):
		h.Logger.Debug("API", fmt.Sprintf("%s: %v", op, err))
		h.sendMessage(w, http.StatusNotFound, notFoundMessage(op))
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		h.sendMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) sendMessage(w http.ResponseWriter, status int, message string) {
	if err := utils.WriteMessage(w, status, message); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func notFoundMessage(op string) string {
	switch op {
	case "ListByCreator":
		return "No events found for this user"
	case "GetByReference", "UpdateByReference", "DeleteByReference":
		return "No event found with this reference ID"
	}
	return "Event not found"
}

// decode reads a JSON body; a malformed body is a validation error.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return calendar.Invalid("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

func actor(r *http.Request) string {
	return auth.Actor(r.Context())
}
