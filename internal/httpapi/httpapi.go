// Package httpapi exposes the close workflow engine over HTTP. It owns
// routing, JSON encoding, actor attribution, and the mapping from engine
// error types to status codes; all graph semantics live in the engine
// packages it delegates to.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vk/closegraph/internal/audit"
	"github.com/vk/closegraph/internal/ctxlog"
	"github.com/vk/closegraph/internal/cycle"
	"github.com/vk/closegraph/internal/depedit"
	"github.com/vk/closegraph/internal/graphstore"
	"github.com/vk/closegraph/internal/notify"
	"github.com/vk/closegraph/internal/rollforward"
)

// Handler bundles the engine components behind the HTTP surface.
type Handler struct {
	store        graphstore.Store
	editor       *depedit.Editor
	instantiator *rollforward.Instantiator
	notifier     notify.Notifier
	sink         audit.Sink
	logger       *slog.Logger
}

// New wires a Handler.
func New(store graphstore.Store, editor *depedit.Editor, instantiator *rollforward.Instantiator, notifier notify.Notifier, sink audit.Sink, logger *slog.Logger) *Handler {
	return &Handler{
		store:        store,
		editor:       editor,
		instantiator: instantiator,
		notifier:     notifier,
		sink:         sink,
		logger:       logger,
	}
}

// Router builds the chi router with all routes mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.listPeriods)
			r.Post("/", h.createPeriod)
			r.Get("/{id}", h.getPeriod)
			r.Get("/{id}/progress", h.periodProgress)
			r.Post("/{id}/roll-forward", h.rollForward)
			r.Get("/{id}/workflow", h.periodWorkflow)
		})
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.listTasks)
			r.Post("/", h.createTask)
			r.Get("/{id}", h.getTask)
			r.Patch("/{id}", h.updateTask)
			r.Delete("/{id}", h.deleteTask)
			r.Put("/{id}/dependencies", h.setTaskDependencies)
		})
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.listTemplates)
			r.Post("/", h.createTemplate)
			r.Get("/{id}", h.getTemplate)
			r.Patch("/{id}", h.updateTemplate)
			r.Put("/{id}/dependencies", h.setTemplateDependencies)
		})
		r.Get("/workflow", h.templateWorkflow)
		r.Get("/dashboard/stats", h.dashboardStats)
	})

	return r
}

// requestLogger attaches a request-scoped logger to the context.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := h.logger.With("method", r.Method, "path", r.URL.Path)
		ctx := ctxlog.WithLogger(r.Context(), logger)
		logger.Debug("request received")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorID extracts the acting identity supplied by the caller's auth
// layer. Role gating happens there too; this service only attributes.
func actorID(r *http.Request) string {
	if actor := r.Header.Get("X-Actor-Id"); actor != "" {
		return actor
	}
	return "anonymous"
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type errorBody struct {
	Error       string `json:"error"`
	Detail      string `json:"detail,omitempty"`
	OffendingID *int64 `json:"offending_id,omitempty"`
}

// writeError maps engine error types onto status codes. Anything unmapped
// is logged and surfaces as an opaque 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var cycleErr *cycle.Error
	var dupErr *rollforward.DuplicatePeriodError
	var existsErr *graphstore.PeriodExistsError

	switch {
	case errors.As(err, &cycleErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:       "cycle_detected",
			Detail:      cycleErr.Error(),
			OffendingID: &cycleErr.OffendingID,
		})
	case graphstore.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Detail: err.Error()})
	case errors.As(err, &dupErr):
		writeJSON(w, http.StatusConflict, errorBody{Error: "duplicate_period_instantiation", Detail: dupErr.Error()})
	case errors.As(err, &existsErr):
		writeJSON(w, http.StatusConflict, errorBody{Error: "period_exists", Detail: existsErr.Error()})
	default:
		ctxlog.FromContext(r.Context()).Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal"})
	}
}

func badRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Detail: detail})
}
