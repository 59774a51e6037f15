// Package authz evaluates whether an actor may perform an action on a
// module. Decisions are pure lookups over a permission snapshot derived from
// the actor's roles when the session is validated; nothing in this package
// or its callers may special-case individual accounts.
package authz

// Module names an administrable area of the system.
type Module string

const (
	ModuleUsers    Module = "users"
	ModuleVenues   Module = "venues"
	ModuleTerms    Module = "terms"
	ModuleMeetings Module = "meetings"
	ModuleRoles    Module = "roles"
)

// Action names an operation on a module.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionAssign Action = "assign"
)

// Permission is one (module, action) grant.
type Permission struct {
	Module Module
	Action Action
}

// PermissionSet is a snapshot of grants held by a principal.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from explicit grants.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, perm := range perms {
		set[perm] = struct{}{}
	}
	return set
}

// Authorize reports whether the snapshot grants the action on the module.
func (s PermissionSet) Authorize(module Module, action Action) bool {
	if s == nil {
		return false
	}
	_, ok := s[Permission{Module: module, Action: action}]
	return ok
}

// Role is a named bundle of permissions assigned to a user.
type Role string

const (
	// RoleAdmin holds every grant, including role assignment.
	RoleAdmin Role = "admin"
	// RoleRegistrar manages venues, terms, and meetings, and can read users.
	RoleRegistrar Role = "registrar"
	// RoleInstructor reads scheduling data and proposes meetings.
	RoleInstructor Role = "instructor"
	// RoleViewer reads everything, mutates nothing.
	RoleViewer Role = "viewer"
)

var allModules = []Module{ModuleUsers, ModuleVenues, ModuleTerms, ModuleMeetings, ModuleRoles}

var rolePermissions = map[Role][]Permission{
	RoleAdmin: allGrants(),
	RoleRegistrar: {
		{ModuleUsers, ActionRead},
		{ModuleVenues, ActionRead}, {ModuleVenues, ActionWrite}, {ModuleVenues, ActionDelete},
		{ModuleTerms, ActionRead}, {ModuleTerms, ActionWrite}, {ModuleTerms, ActionDelete},
		{ModuleMeetings, ActionRead}, {ModuleMeetings, ActionWrite}, {ModuleMeetings, ActionDelete},
	},
	RoleInstructor: {
		{ModuleUsers, ActionRead},
		{ModuleVenues, ActionRead},
		{ModuleTerms, ActionRead},
		{ModuleMeetings, ActionRead}, {ModuleMeetings, ActionWrite},
	},
	RoleViewer: {
		{ModuleUsers, ActionRead},
		{ModuleVenues, ActionRead},
		{ModuleTerms, ActionRead},
		{ModuleMeetings, ActionRead},
	},
}

func allGrants() []Permission {
	perms := make([]Permission, 0, len(allModules)*4)
	for _, module := range allModules {
		for _, action := range []Action{ActionRead, ActionWrite, ActionDelete, ActionAssign} {
			perms = append(perms, Permission{Module: module, Action: action})
		}
	}
	return perms
}

// PermissionsForRoles folds the grants of every known role in the list into
// one snapshot. Unknown role names contribute nothing.
func PermissionsForRoles(roles []Role) PermissionSet {
	set := make(PermissionSet)
	for _, role := range roles {
		for _, perm := range rolePermissions[role] {
			set[perm] = struct{}{}
		}
	}
	return set
}

// ValidRole reports whether the role name is one the system knows.
func ValidRole(role Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

// Roles lists every role the system knows, for validation and docs.
func Roles() []Role {
	return []Role{RoleAdmin, RoleRegistrar, RoleInstructor, RoleViewer}
}
