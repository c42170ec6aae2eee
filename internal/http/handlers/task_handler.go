package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"task-tracker/internal/domain"
	"task-tracker/internal/http/dto"
	"task-tracker/internal/http/middleware"
	"task-tracker/internal/service"
	"task-tracker/internal/store"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

var errUnsupportedMediaType = errors.New("unsupported media type")

type TaskService interface {
	CreateTask(ctx context.Context, title string, completed bool) (domain.Task, error)
	GetTask(ctx context.Context, id int64) (domain.Task, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
}

// SessionOpener hands out one store session per request. Tests swap it to
// point the handlers at an isolated store.
type SessionOpener interface {
	OpenSession(ctx context.Context) (store.Session, error)
}

// ScopedFunc is a handler that runs with a service bound to the request's
// store session.
type ScopedFunc func(w http.ResponseWriter, r *http.Request, svc TaskService)

type TaskHandler struct {
	sessions SessionOpener
	logger   *slog.Logger
}

func New(sessions SessionOpener, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{sessions: sessions, logger: logger}
}

// Scoped opens a store session when the request starts and releases it on
// every way out of next, panics included.
func (h *TaskHandler) Scoped(next ScopedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.OpenSession(r.Context())
		if err != nil {
			h.internalError(w, r, "open session", err)
			return
		}
		defer func() {
			if err := sess.Close(); err != nil {
				h.logger.WarnContext(r.Context(), "closing store session",
					slog.Any("error", err),
					slog.String("request_id", middleware.RequestIDFrom(r.Context())),
				)
			}
		}()

		svc, err := service.New(sess)
		if err != nil {
			h.internalError(w, r, "build service", err)
			return
		}

		next(w, r, svc)
	}
}

// POST /tasks
//
// The body is validated before a store session is opened, so a bad request
// never touches storage.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreate(w, r)
	if err != nil {
		var verr *dto.ValidationError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, verr)
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, errUnsupportedMediaType):
			writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json or application/x-www-form-urlencoded")
		default:
			writeError(w, http.StatusBadRequest, "failed reading request body")
		}
		return
	}

	h.Scoped(func(w http.ResponseWriter, r *http.Request, svc TaskService) {
		h.create(w, r, svc, req)
	})(w, r)
}

func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request, svc TaskService, req dto.CreateTaskRequest) {
	task, err := svc.CreateTask(r.Context(), req.Title, req.Completed)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			writeValidationError(w, &dto.ValidationError{
				Fields: []dto.FieldError{{Field: "title", Message: "must not be blank"}},
			})
		default:
			h.internalError(w, r, "create task", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.ToView(task))
}

// GET /tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, service.ErrInvalidID.Error())

		return
	}

	h.Scoped(func(w http.ResponseWriter, r *http.Request, svc TaskService) {
		h.get(w, r, svc, id)
	})(w, r)
}

func (h *TaskHandler) get(w http.ResponseWriter, r *http.Request, svc TaskService, id int64) {
	task, err := svc.GetTask(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidID):
			writeError(w, http.StatusBadRequest, service.ErrInvalidID.Error())
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, service.ErrNotFound.Error())
		default:
			h.internalError(w, r, "get task", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.ToView(task))
}

// GET /tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request, svc TaskService) {
	tasks, err := svc.ListTasks(r.Context())
	if err != nil {
		h.internalError(w, r, "list tasks", err)

		return
	}

	writeJSON(w, http.StatusOK, dto.ToViews(tasks))
}

// internalError logs the cause and answers with a generic 500.
func (h *TaskHandler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op+" failed",
		slog.Any("error", err),
		slog.String("request_id", middleware.RequestIDFrom(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeCreate(w http.ResponseWriter, r *http.Request) (dto.CreateTaskRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return dto.CreateTaskRequest{}, errUnsupportedMediaType
		}
		mediaType = parsed
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return dto.CreateTaskRequest{}, err
		}
		return dto.ValidateCreate(raw)
	case mediaType == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return dto.CreateTaskRequest{}, err
		}
		return dto.ValidateCreateForm(r.PostForm)
	default:
		return dto.CreateTaskRequest{}, errUnsupportedMediaType
	}
}
