package rbac

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Store holds the role catalog and the user-role relation in memory. A
// single RWMutex guards both maps so permission checks observe a consistent
// snapshot: a role delete and its assignment cascade are never visible
// half-applied.
type Store struct {
	mu          sync.RWMutex
	roles       map[string]Role
	assignments map[string]map[string]struct{}
	now         func() time.Time
}

// NewStore builds a Store seeded with the system role catalog.
func NewStore() *Store {
	s := &Store{
		roles:       make(map[string]Role),
		assignments: make(map[string]map[string]struct{}),
		now:         time.Now,
	}
	seededAt := s.now().UTC()
	for _, role := range systemRoles() {
		role.CreatedAt = seededAt
		role.UpdatedAt = seededAt
		s.roles[role.ID] = role
	}
	return s
}

// GetRole returns a copy of the role.
func (s *Store) GetRole(id string) (Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[id]
	if !ok {
		return Role{}, false
	}
	return role.clone(), true
}

// ListRoles returns every role: system roles first by level, then custom
// roles ordered by French collation of their name.
func (s *Store) ListRoles() []Role {
	s.mu.RLock()
	out := make([]Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role.clone())
	}
	s.mu.RUnlock()

	coll := collate.New(language.French)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsSystem != b.IsSystem {
			return a.IsSystem
		}
		if a.IsSystem {
			if a.Level != b.Level {
				return a.Level < b.Level
			}
		}
		if cmp := coll.CompareString(a.Name, b.Name); cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})
	return out
}

// CreateRole validates the input, assigns id and timestamps and stores the
// role. The returned role is the stored copy.
func (s *Store) CreateRole(input RoleInput) (Role, error) {
	if err := validateGrants(input.Grants); err != nil {
		return Role{}, err
	}
	now := s.now().UTC()
	role := Role{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Level:       input.Level,
		Grants:      cloneGrants(input.Grants),
		Color:       input.Color,
		Icon:        input.Icon,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.roles[role.ID] = role
	s.mu.Unlock()
	return role.clone(), nil
}

// UpdateRole merges the patch into a custom role. System roles and unknown
// ids are rejected with distinct errors; id and isSystem are never touched.
func (s *Store) UpdateRole(id string, patch RolePatch) (Role, error) {
	if patch.Grants != nil {
		if err := validateGrants(*patch.Grants); err != nil {
			return Role{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	if role.IsSystem {
		return Role{}, ErrSystemRole
	}
	if patch.Name != nil {
		role.Name = *patch.Name
	}
	if patch.Description != nil {
		role.Description = *patch.Description
	}
	if patch.Level != nil {
		role.Level = *patch.Level
	}
	if patch.Grants != nil {
		role.Grants = cloneGrants(*patch.Grants)
	}
	if patch.Color != nil {
		role.Color = *patch.Color
	}
	if patch.Icon != nil {
		role.Icon = *patch.Icon
	}
	role.UpdatedAt = s.now().UTC()
	s.roles[id] = role
	return role.clone(), nil
}

// DeleteRole removes a custom role and cascades the removal into every
// user's assignment set.
func (s *Store) DeleteRole(id string) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	if role.IsSystem {
		return Role{}, ErrSystemRole
	}
	delete(s.roles, id)
	for userID, set := range s.assignments {
		delete(set, id)
		if len(set) == 0 {
			delete(s.assignments, userID)
		}
	}
	return role.clone(), nil
}

// Assign adds a role to the user's set. It reports whether the set changed;
// assigning an already-held role is a no-op, not an error.
func (s *Store) Assign(userID, roleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return false, ErrRoleNotFound
	}
	set, ok := s.assignments[userID]
	if !ok {
		set = make(map[string]struct{})
		s.assignments[userID] = set
	}
	if _, held := set[roleID]; held {
		return false, nil
	}
	set[roleID] = struct{}{}
	return true, nil
}

// Remove drops a role from the user's set and reports whether it changed.
func (s *Store) Remove(userID, roleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.assignments[userID]
	if !ok {
		return false
	}
	if _, held := set[roleID]; !held {
		return false
	}
	delete(set, roleID)
	if len(set) == 0 {
		delete(s.assignments, userID)
	}
	return true
}

// RolesOf resolves the user's current roles. Ids that no longer resolve are
// silently dropped. The resolution happens under one lock acquisition, so
// the result is a consistent snapshot.
func (s *Store) RolesOf(userID string) []Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.assignments[userID]
	if !ok || len(set) == 0 {
		return nil
	}
	out := make([]Role, 0, len(set))
	for roleID := range set {
		if role, exists := s.roles[roleID]; exists {
			out = append(out, role.clone())
		}
	}
	return out
}
