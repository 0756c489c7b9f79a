// Package api exposes HTTP handlers for the exercise tracker.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/frossokourou/exercise-tracker/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service      *domain.Service
	storeTimeout time.Duration
	logger       *log.Logger
}

// Option customises a Handler.
type Option func(*Handler)

// WithStoreTimeout bounds the store work done for a single request.
func WithStoreTimeout(d time.Duration) Option {
	return func(h *Handler) { h.storeTimeout = d }
}

// WithLogger sets the logger that receives internal failure detail.
func WithLogger(l *log.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, opts ...Option) *Handler {
	h := &Handler{service: service, logger: log.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/exercise/new-user", h.newUser)
	mux.HandleFunc("GET /api/exercise/users", h.listUsers)
	mux.HandleFunc("POST /api/exercise/add", h.addExercise)
	mux.HandleFunc("GET /api/exercise/log/{id}", h.userLog)
	mux.HandleFunc("GET /api/exercise/log", h.queryLog)
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("/", notFound)
}

// notFound answers every unmatched route.
func notFound(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusNotFound, "not found")
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.storeTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.storeTimeout)
}

func (h *Handler) newUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	reg, err := h.service.Register(ctx, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if reg.Taken {
		writeText(w, http.StatusOK, reg.User.Username+" already taken")
		return
	}
	writeJSON(w, http.StatusOK, toUserView(reg.User))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	users, err := h.service.ListUsers(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(users) == 0 {
		writeText(w, http.StatusOK, "no users yet")
		return
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) addExercise(w http.ResponseWriter, r *http.Request) {
	var req AddExerciseRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	// Field validation lives in the service so an unknown user is reported
	// before a missing description or duration.
	logged, err := h.service.LogExercise(ctx, domain.LogExerciseInput{
		UserID:      req.UserID,
		Description: req.Description,
		Duration:    string(req.Duration),
		Date:        req.Date,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AddExerciseResponse{
		Username: logged.User.Username,
		ID:       logged.User.ID,
		Exercise: toExerciseView(logged.Exercise),
	})
}

func (h *Handler) userLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	userLog, err := h.service.UserLog(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserLogResponse{
		Username:      userLog.User.Username,
		Exercises:     toExerciseViews(userLog.Exercises),
		ExerciseCount: userLog.Count(),
	})
}

func (h *Handler) queryLog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := domain.NewLogQuery(query.Get("id"), query.Get("from"), query.Get("to"), query.Get("limit"))

	ctx, cancel := h.requestContext(r)
	defer cancel()

	userLog, err := h.service.QueryLog(ctx, q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, QueryLogResponse{
		Username:      userLog.User.Username,
		ID:            userLog.User.ID,
		Exercises:     toExerciseViews(userLog.Exercises),
		ExerciseCount: userLog.Count(),
	})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
