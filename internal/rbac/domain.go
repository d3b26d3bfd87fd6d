package rbac

import (
	"errors"
	"time"
)

// Sentinel errors returned by registry and assignment operations.
var (
	// ErrRoleNotFound indicates the requested role does not exist.
	ErrRoleNotFound = errors.New("rbac: role not found")
	// ErrSystemRole indicates an update or delete on a seeded system role.
	ErrSystemRole = errors.New("rbac: system role is immutable")
	// ErrDuplicateModule indicates a role carries two grants for one module.
	ErrDuplicateModule = errors.New("rbac: duplicate module grant")
	// ErrInvalidGrant indicates an unknown module or permission in a grant.
	ErrInvalidGrant = errors.New("rbac: invalid grant")
)

// Permission is an atomic capability scoped to a module.
type Permission string

const (
	PermRead    Permission = "read"
	PermCreate  Permission = "create"
	PermUpdate  Permission = "update"
	PermDelete  Permission = "delete"
	PermExport  Permission = "export"
	PermImport  Permission = "import"
	PermApprove Permission = "approve"
	PermSign    Permission = "sign"
)

// AllPermissions lists every recognised permission.
var AllPermissions = []Permission{
	PermRead, PermCreate, PermUpdate, PermDelete,
	PermExport, PermImport, PermApprove, PermSign,
}

// Valid reports whether p is a recognised permission.
func (p Permission) Valid() bool {
	switch p {
	case PermRead, PermCreate, PermUpdate, PermDelete, PermExport, PermImport, PermApprove, PermSign:
		return true
	}
	return false
}

// Module is a functional area of the office application.
type Module string

const (
	ModuleDashboard    Module = "dashboard"
	ModuleClients      Module = "clients"
	ModuleDossiers     Module = "dossiers"
	ModuleActes        Module = "actes"
	ModuleComptabilite Module = "comptabilite"
	ModuleFacturation  Module = "facturation"
	ModuleCRM          Module = "crm"
	ModuleArchives     Module = "archives"
	ModuleAgenda       Module = "agenda"
	ModuleDocuments    Module = "documents"
	ModuleRapports     Module = "rapports"
	ModuleAdmin        Module = "admin"
	ModuleSettings     Module = "settings"
)

// AllModules lists every recognised module. The set is closed; extending it
// means redeploying the registry.
var AllModules = []Module{
	ModuleDashboard, ModuleClients, ModuleDossiers, ModuleActes,
	ModuleComptabilite, ModuleFacturation, ModuleCRM, ModuleArchives,
	ModuleAgenda, ModuleDocuments, ModuleRapports, ModuleAdmin,
	ModuleSettings,
}

// Valid reports whether m is a recognised module.
func (m Module) Valid() bool {
	for _, known := range AllModules {
		if m == known {
			return true
		}
	}
	return false
}

// GrantConditions narrows a grant. The fields are stored and surfaced to
// callers but are not consulted by the evaluator; enforcing them requires a
// resource context (owner, team, amount) that the check interface does not
// carry yet.
type GrantConditions struct {
	OwnOnly         bool    `json:"ownOnly,omitempty"`
	TeamOnly        bool    `json:"teamOnly,omitempty"`
	MaxAmount       float64 `json:"maxAmount,omitempty"`
	RequireApproval bool    `json:"requireApproval,omitempty"`
}

// Grant scopes a set of permissions to a single module.
type Grant struct {
	Module      Module           `json:"module"`
	Permissions []Permission     `json:"permissions"`
	Conditions  *GrantConditions `json:"conditions,omitempty"`
}

// Allows reports whether the grant contains the permission.
func (g Grant) Allows(p Permission) bool {
	for _, held := range g.Permissions {
		if held == p {
			return true
		}
	}
	return false
}

// Role is a named, reusable bundle of module grants assignable to users.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Level       int       `json:"level"`
	Grants      []Grant   `json:"grants"`
	IsSystem    bool      `json:"isSystem"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GrantFor returns the grant matching the module, if any.
func (r Role) GrantFor(m Module) (Grant, bool) {
	for _, g := range r.Grants {
		if g.Module == m {
			return g, true
		}
	}
	return Grant{}, false
}

func (r Role) clone() Role {
	out := r
	out.Grants = cloneGrants(r.Grants)
	return out
}

func cloneGrants(grants []Grant) []Grant {
	if grants == nil {
		return nil
	}
	out := make([]Grant, len(grants))
	for i, g := range grants {
		out[i] = g
		out[i].Permissions = append([]Permission(nil), g.Permissions...)
		if g.Conditions != nil {
			cond := *g.Conditions
			out[i].Conditions = &cond
		}
	}
	return out
}

// validateGrants rejects unknown modules or permissions and duplicate
// module entries. The evaluator looks grants up by module, so a role with
// two grants for one module would be ambiguous.
func validateGrants(grants []Grant) error {
	seen := make(map[Module]struct{}, len(grants))
	for _, g := range grants {
		if !g.Module.Valid() {
			return ErrInvalidGrant
		}
		if _, dup := seen[g.Module]; dup {
			return ErrDuplicateModule
		}
		seen[g.Module] = struct{}{}
		for _, p := range g.Permissions {
			if !p.Valid() {
				return ErrInvalidGrant
			}
		}
	}
	return nil
}

// RolePatch carries a partial update for a custom role. Nil fields are left
// untouched. ID and IsSystem are never patchable.
type RolePatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Level       *int     `json:"level,omitempty"`
	Grants      *[]Grant `json:"grants,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Icon        *string  `json:"icon,omitempty"`
}

// RoleInput is the payload for creating a custom role.
type RoleInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Level       int     `json:"level"`
	Grants      []Grant `json:"grants"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon"`
}

// Actor identifies who performs an administrative mutation, for the audit
// trail.
type Actor struct {
	ID        string
	Name      string
	IPAddress string
	UserAgent string
}
