package domain

import (
	"slices"
	"sort"
)

type Role string

const (
	RoleOwner     Role = "owner"
	RoleManager   Role = "manager"
	RoleAppraiser Role = "appraiser"
)

type Permission string

const (
	PermOrganizationView   Permission = "organization:view"
	PermOrganizationUpdate Permission = "organization:update"
	PermOrganizationDelete Permission = "organization:delete"
	PermMembersView        Permission = "members:view"
	PermMembersInvite      Permission = "members:invite"
	PermMembersUpdate      Permission = "members:update"
	PermMembersRemove      Permission = "members:remove"
	PermInvitationsView    Permission = "invitations:view"
	PermClientsView        Permission = "clients:view"
	PermClientsCreate      Permission = "clients:create"
	PermClientsUpdate      Permission = "clients:update"
	PermOrdersView         Permission = "orders:view"
	PermOrdersCreate       Permission = "orders:create"
	PermOrdersUpdate       Permission = "orders:update"
)

// rolePermissions is the static grant table. It is the only place roles are
// mapped to capabilities.
var rolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermOrganizationView, PermOrganizationUpdate, PermOrganizationDelete,
		PermMembersView, PermMembersInvite, PermMembersUpdate, PermMembersRemove,
		PermInvitationsView,
		PermClientsView, PermClientsCreate, PermClientsUpdate,
		PermOrdersView, PermOrdersCreate, PermOrdersUpdate,
	},
	RoleManager: {
		PermOrganizationView, PermOrganizationUpdate, PermOrganizationDelete,
		PermMembersView, PermMembersInvite, PermMembersRemove,
		PermInvitationsView,
		PermClientsView, PermClientsCreate, PermClientsUpdate,
		PermOrdersView, PermOrdersCreate, PermOrdersUpdate,
	},
	RoleAppraiser: {
		PermOrganizationView,
		PermMembersView,
		PermClientsView,
		PermOrdersView, PermOrdersUpdate,
	},
}

func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Invitable reports whether an invitation may grant r. Ownership only
// changes hands through a transfer.
func (r Role) Invitable() bool {
	return r == RoleManager || r == RoleAppraiser
}

func (r Role) Can(p Permission) bool {
	return slices.Contains(rolePermissions[r], p)
}

// Permissions returns the sorted permission set for r. Unknown roles get none.
func (r Role) Permissions() []Permission {
	perms := slices.Clone(rolePermissions[r])
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}
