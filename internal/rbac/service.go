package rbac

import (
	"context"
	"log/slog"

	"github.com/minutier-app/minutier/internal/audit"
)

// Recorder receives audit entries for administrative mutations. *audit.Log
// satisfies it.
type Recorder interface {
	Append(ctx context.Context, entry audit.Entry) error
}

// Service is the single boundary the rest of the application calls into:
// permission checks, role administration and assignment management.
// Mutations emit audit entries; checks never do. Audit writes are
// best-effort and never fail or block the primary operation.
type Service struct {
	store  *Store
	eval   *Evaluator
	trail  Recorder
	logger *slog.Logger
}

// NewService constructs the Service. A nil logger falls back to
// slog.Default.
func NewService(store *Store, trail Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		eval:   NewEvaluator(store),
		trail:  trail,
		logger: logger,
	}
}

// Can is the gate every protected action calls before proceeding.
func (s *Service) Can(userID string, module Module, perm Permission) bool {
	return s.eval.Can(userID, module, perm)
}

// CanAll reports whether every permission is granted.
func (s *Service) CanAll(userID string, module Module, perms ...Permission) bool {
	return s.eval.CanAll(userID, module, perms...)
}

// CanAny reports whether at least one permission is granted.
func (s *Service) CanAny(userID string, module Module, perms ...Permission) bool {
	return s.eval.CanAny(userID, module, perms...)
}

// PermissionsOf returns the union of the user's grants for the module.
func (s *Service) PermissionsOf(userID string, module Module) []Permission {
	return s.eval.PermissionsOf(userID, module)
}

// ListRoles returns the full catalog.
func (s *Service) ListRoles() []Role {
	return s.store.ListRoles()
}

// GetRole fetches a role by id.
func (s *Service) GetRole(id string) (Role, error) {
	role, ok := s.store.GetRole(id)
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

// RolesOf returns the user's resolved roles.
func (s *Service) RolesOf(userID string) []Role {
	return s.store.RolesOf(userID)
}

// CreateRole stores a new custom role and records the mutation.
func (s *Service) CreateRole(ctx context.Context, actor Actor, input RoleInput) (Role, error) {
	role, err := s.store.CreateRole(input)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actor, audit.Entry{
		Action:       audit.ActionCreate,
		Module:       string(ModuleAdmin),
		ResourceType: "role",
		ResourceID:   role.ID,
		Details:      map[string]any{"name": role.Name},
	})
	return role, nil
}

// UpdateRole merges the patch into a custom role and records the mutation.
// A rejected update (unknown id, system role) records nothing.
func (s *Service) UpdateRole(ctx context.Context, actor Actor, id string, patch RolePatch) (Role, error) {
	role, err := s.store.UpdateRole(id, patch)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actor, audit.Entry{
		Action:       audit.ActionUpdate,
		Module:       string(ModuleAdmin),
		ResourceType: "role",
		ResourceID:   role.ID,
		Details:      map[string]any{"name": role.Name},
	})
	return role, nil
}

// DeleteRole removes a custom role, cascades its assignments and records
// the mutation.
func (s *Service) DeleteRole(ctx context.Context, actor Actor, id string) error {
	role, err := s.store.DeleteRole(id)
	if err != nil {
		return err
	}
	s.record(ctx, actor, audit.Entry{
		Action:       audit.ActionDelete,
		Module:       string(ModuleAdmin),
		ResourceType: "role",
		ResourceID:   role.ID,
		Details:      map[string]any{"name": role.Name},
	})
	return nil
}

// AssignRole adds a role to a user. The no-op case (role already held)
// succeeds without an audit entry; only an actual change is recorded.
func (s *Service) AssignRole(ctx context.Context, actor Actor, userID, roleID string) (bool, error) {
	changed, err := s.store.Assign(userID, roleID)
	if err != nil || !changed {
		return false, err
	}
	role, _ := s.store.GetRole(roleID)
	s.record(ctx, actor, audit.Entry{
		Action:       audit.ActionAssignRole,
		Module:       string(ModuleAdmin),
		ResourceType: "user",
		ResourceID:   userID,
		Details:      map[string]any{"roleId": roleID, "roleName": role.Name},
	})
	return true, nil
}

// RemoveRole drops a role from a user, recording only actual changes.
func (s *Service) RemoveRole(ctx context.Context, actor Actor, userID, roleID string) (bool, error) {
	role, _ := s.store.GetRole(roleID)
	if !s.store.Remove(userID, roleID) {
		return false, nil
	}
	s.record(ctx, actor, audit.Entry{
		Action:       audit.ActionRemoveRole,
		Module:       string(ModuleAdmin),
		ResourceType: "user",
		ResourceID:   userID,
		Details:      map[string]any{"roleId": roleID, "roleName": role.Name},
	})
	return true, nil
}

func (s *Service) record(ctx context.Context, actor Actor, entry audit.Entry) {
	if s.trail == nil {
		return
	}
	entry.ActorID = actor.ID
	entry.ActorName = actor.Name
	entry.IPAddress = actor.IPAddress
	entry.UserAgent = actor.UserAgent
	if err := s.trail.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed",
			slog.String("action", entry.Action),
			slog.String("resource_id", entry.ResourceID),
			slog.Any("error", err))
	}
}
