package rbachttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/minutier-app/minutier/internal/platform/httpx"
	"github.com/minutier-app/minutier/internal/rbac"
	"github.com/minutier-app/minutier/internal/shared"
)

// ActorDirectory resolves user ids to display names for the audit trail.
type ActorDirectory interface {
	DisplayName(ctx context.Context, id string) string
}

// Handler exposes role administration and assignment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *rbac.Service
	directory ActorDirectory
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *rbac.Service, directory ActorDirectory, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		directory: directory,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoleRoutes registers role catalog routes.
func (h *Handler) MountRoleRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleAdmin, rbac.PermRead))
		r.Get("/", h.listRoles)
		r.Get("/{roleID}", h.getRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleAdmin, rbac.PermCreate))
		r.Post("/", h.createRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleAdmin, rbac.PermUpdate))
		r.Patch("/{roleID}", h.updateRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleAdmin, rbac.PermDelete))
		r.Delete("/{roleID}", h.deleteRole)
	})
}

// MountAssignmentRoutes registers per-user assignment routes.
func (h *Handler) MountAssignmentRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleAdmin, rbac.PermRead))
		r.Get("/{userID}/roles", h.rolesOfUser)
		r.Get("/{userID}/permissions", h.permissionsOfUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleAdmin, rbac.PermUpdate))
		r.Post("/{userID}/roles", h.assignRole)
		r.Delete("/{userID}/roles/{roleID}", h.removeRole)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": h.service.ListRoles()})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRole(chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

type createRoleRequest struct {
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description"`
	Level       int          `json:"level" validate:"gte=0"`
	Grants      []rbac.Grant `json:"grants"`
	Color       string       `json:"color"`
	Icon        string       `json:"icon"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), h.actor(r), rbac.RoleInput{
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
		Grants:      req.Grants,
		Color:       req.Color,
		Icon:        req.Icon,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var patch rbac.RolePatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	role, err := h.service.UpdateRole(r.Context(), h.actor(r), chi.URLParam(r, "roleID"), patch)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), h.actor(r), chi.URLParam(r, "roleID")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rolesOfUser(w http.ResponseWriter, r *http.Request) {
	roles := h.service.RolesOf(chi.URLParam(r, "userID"))
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) permissionsOfUser(w http.ResponseWriter, r *http.Request) {
	module := rbac.Module(r.URL.Query().Get("module"))
	if !module.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown module")
		return
	}
	perms := h.service.PermissionsOf(chi.URLParam(r, "userID"), module)
	httpx.JSON(w, http.StatusOK, map[string]any{"module": module, "permissions": perms})
}

type assignRoleRequest struct {
	RoleID string `json:"roleId" validate:"required"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	changed, err := h.service.AssignRole(r.Context(), h.actor(r), chi.URLParam(r, "userID"), req.RoleID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"changed": changed})
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	changed, err := h.service.RemoveRole(r.Context(), h.actor(r), chi.URLParam(r, "userID"), chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"changed": changed})
}

// actor builds the audit actor from the request session.
func (h *Handler) actor(r *http.Request) rbac.Actor {
	userID := shared.CurrentUserID(r.Context())
	name := userID
	if h.directory != nil && userID != "" {
		name = h.directory.DisplayName(r.Context(), userID)
	}
	return rbac.Actor{
		ID:        userID,
		Name:      name,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}

// respondError keeps the wire response generic: a system-role rejection and
// an unknown id both surface as "operation not permitted" shapes, while the
// log retains the distinction.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rbac.ErrRoleNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "operation not permitted")
	case errors.Is(err, rbac.ErrSystemRole):
		h.logger.Info("rejected mutation of system role")
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "operation not permitted")
	case errors.Is(err, rbac.ErrDuplicateModule), errors.Is(err, rbac.ErrInvalidGrant):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("role operation", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
