package rbac

import "sort"

// Evaluator decides allow/deny for capability checks. It is a pure reader
// of the store: no caching, no side effects, no audit writes. Conditions on
// a matching grant are carried in the data model but not evaluated here.
type Evaluator struct {
	store *Store
}

// NewEvaluator builds an Evaluator over the store.
func NewEvaluator(store *Store) *Evaluator {
	return &Evaluator{store: store}
}

// Can reports whether any of the user's roles grants the permission on the
// module. A user without roles is always denied; unknown modules or
// permissions simply evaluate to false.
func (e *Evaluator) Can(userID string, module Module, perm Permission) bool {
	roles := e.store.RolesOf(userID)
	if len(roles) == 0 {
		return false
	}
	for _, role := range roles {
		grant, ok := role.GrantFor(module)
		if !ok {
			continue
		}
		if grant.Allows(perm) {
			return true
		}
	}
	return false
}

// CanAll reports whether every permission passes Can.
func (e *Evaluator) CanAll(userID string, module Module, perms ...Permission) bool {
	for _, p := range perms {
		if !e.Can(userID, module, p) {
			return false
		}
	}
	return true
}

// CanAny reports whether at least one permission passes Can.
func (e *Evaluator) CanAny(userID string, module Module, perms ...Permission) bool {
	for _, p := range perms {
		if e.Can(userID, module, p) {
			return true
		}
	}
	return false
}

// PermissionsOf returns the union of the user's grants for the module,
// sorted for stable output.
func (e *Evaluator) PermissionsOf(userID string, module Module) []Permission {
	union := make(map[Permission]struct{})
	for _, role := range e.store.RolesOf(userID) {
		grant, ok := role.GrantFor(module)
		if !ok {
			continue
		}
		for _, p := range grant.Permissions {
			union[p] = struct{}{}
		}
	}
	out := make([]Permission, 0, len(union))
	for p := range union {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
