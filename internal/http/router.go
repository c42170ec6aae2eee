package router

import (
	"log/slog"
	"net/http"
	"task-tracker/internal/http/handlers"
	"task-tracker/internal/http/middleware"

	"github.com/gorilla/mux"
)

func New(handler *handlers.TaskHandler, health *handlers.HealthHandler, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	r.HandleFunc("/tasks", handler.Create).Methods(http.MethodPost)
	r.HandleFunc("/tasks", handler.Scoped(handler.List)).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", handler.Get).Methods(http.MethodGet)
	r.HandleFunc("/healthz", health.Check).Methods(http.MethodGet)

	// request id -> access log -> recover -> cors -> routes
	var h http.Handler = r
	h = middleware.CORS(middleware.AllowAll())(h)
	h = middleware.Recover(logger)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID(h)

	return h
}
