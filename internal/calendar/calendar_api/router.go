package calendar_api

import (
	"fmt"
	"net/http"
	"time"

	"ms-calendar/internal/auth"
	"ms-calendar/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the full HTTP surface: middleware, /api, the root
// redirect and /health.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.Logger))
	r.Use(auth.ActorMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api", http.StatusFound)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h.RegisterRoutes(r)
	return r
}

// RequestLogger logs one API line per request.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", status), time.Since(start).String())
		})
	}
}
