package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minutier-app/minutier/internal/audit"
	"github.com/minutier-app/minutier/internal/platform/httpx"
	"github.com/minutier-app/minutier/internal/rbac"
)

// Trail is the read contract over the audit log.
type Trail interface {
	Query(ctx context.Context, filters audit.Filters) (audit.Result, error)
	All(ctx context.Context, filters audit.Filters) ([]audit.Entry, error)
}

// Handler serves the audit trail to the admin surface.
type Handler struct {
	logger *slog.Logger
	trail  Trail
	guard  rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, trail Trail, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, trail: trail, guard: guard}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleAdmin, rbac.PermRead))
		r.Get("/", h.query)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleAdmin, rbac.PermExport))
		r.Get("/export", h.exportCSV)
	})
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	result, err := h.trail.Query(r.Context(), parseFilters(r))
	if err != nil {
		h.logger.Error("audit query", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	entries, err := h.trail.All(r.Context(), parseFilters(r))
	if err != nil {
		h.logger.Error("audit export", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	payload, err := audit.WriteCSV(entries)
	if err != nil {
		h.logger.Error("audit csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-trail.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func parseFilters(r *http.Request) audit.Filters {
	q := r.URL.Query()
	filters := audit.Filters{
		ActorID: q.Get("actor"),
		Module:  q.Get("module"),
		Action:  q.Get("action"),
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.To = t
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filters.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil {
		filters.PageSize = size
	}
	return filters
}
