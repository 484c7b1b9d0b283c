package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// NewRouter wires the API routes and, if ws is non-nil, the websocket endpoint.
func NewRouter(h *Handler, ws http.Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(logging(h.logger))

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/history", h.History).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/games/{id}", h.Game).Methods(http.MethodGet, http.MethodOptions)

	if ws != nil {
		r.Handle("/ws", ws)
	}
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logging logs every request except websocket upgrades, which are long-lived.
func logging(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/ws" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
		})
	}
}
