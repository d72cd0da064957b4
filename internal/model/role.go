package model

// Role identifies the single role assigned to a user. The set is closed;
// the role determines the default permission set.
type Role string

const (
	RolePlatformAdmin Role = "platform_admin"
	RoleTenantAdmin   Role = "tenant_admin"
	RoleTenantManager Role = "tenant_manager"
	RoleTenantStaff   Role = "tenant_staff"
	RoleClientAdmin   Role = "client_admin"
	RoleClientUser    Role = "client_user"
	RoleClientViewer  Role = "client_viewer"
)

// Capability categories. Tenant-side categories cover warehouse operations;
// client-side categories cover the client business portal.
const (
	CategoryWarehouses = "warehouses"
	CategoryInventory  = "inventory"
	CategoryOrders     = "orders"
	CategoryShipments  = "shipments"
	CategoryClients    = "clients"
	CategoryUsers      = "users"
	CategoryBilling    = "billing"
	CategoryReports    = "reports"

	CategoryClientOrders    = "client_orders"
	CategoryClientInventory = "client_inventory"
	CategoryClientReports   = "client_reports"
)

// Capability actions within a category.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
)

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RolePlatformAdmin, RoleTenantAdmin, RoleTenantManager, RoleTenantStaff,
		RoleClientAdmin, RoleClientUser, RoleClientViewer:
		return true
	}
	return false
}

// IsClientCategory reports whether the capability category belongs to the
// client portal rather than tenant warehouse operations.
func IsClientCategory(category string) bool {
	switch category {
	case CategoryClientOrders, CategoryClientInventory, CategoryClientReports:
		return true
	}
	return false
}

// PermissionSet maps capability category to action to allowance.
type PermissionSet map[string]map[string]bool

// Allows reports whether the set grants the given action in the category.
func (p PermissionSet) Allows(category, action string) bool {
	actions, ok := p[category]
	if !ok {
		return false
	}
	return actions[action]
}

// Clone returns a deep copy of the set.
func (p PermissionSet) Clone() PermissionSet {
	if p == nil {
		return nil
	}
	out := make(PermissionSet, len(p))
	for category, actions := range p {
		copied := make(map[string]bool, len(actions))
		for action, allowed := range actions {
			copied[action] = allowed
		}
		out[category] = copied
	}
	return out
}

// Merge layers overrides on top of p and returns the result. Neither input
// is modified; override entries win, including explicit denials.
func (p PermissionSet) Merge(overrides PermissionSet) PermissionSet {
	merged := p.Clone()
	if merged == nil {
		merged = PermissionSet{}
	}
	for category, actions := range overrides {
		if merged[category] == nil {
			merged[category] = make(map[string]bool, len(actions))
		}
		for action, allowed := range actions {
			merged[category][action] = allowed
		}
	}
	return merged
}

func grant(actions ...string) map[string]bool {
	out := make(map[string]bool, len(actions))
	for _, a := range actions {
		out[a] = true
	}
	return out
}

var allActions = []string{ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionExport}

// roleDefaults is the immutable default-permission lookup table. Callers
// must go through DefaultPermissions, which returns a copy.
var roleDefaults = map[Role]PermissionSet{
	RolePlatformAdmin: {
		CategoryWarehouses:      grant(allActions...),
		CategoryInventory:       grant(allActions...),
		CategoryOrders:          grant(allActions...),
		CategoryShipments:       grant(allActions...),
		CategoryClients:         grant(allActions...),
		CategoryUsers:           grant(allActions...),
		CategoryBilling:         grant(allActions...),
		CategoryReports:         grant(allActions...),
		CategoryClientOrders:    grant(allActions...),
		CategoryClientInventory: grant(allActions...),
		CategoryClientReports:   grant(allActions...),
	},
	RoleTenantAdmin: {
		CategoryWarehouses: grant(allActions...),
		CategoryInventory:  grant(allActions...),
		CategoryOrders:     grant(allActions...),
		CategoryShipments:  grant(allActions...),
		CategoryClients:    grant(allActions...),
		CategoryUsers:      grant(allActions...),
		CategoryBilling:    grant(allActions...),
		CategoryReports:    grant(allActions...),
	},
	RoleTenantManager: {
		CategoryWarehouses: grant(ActionView, ActionUpdate),
		CategoryInventory:  grant(ActionView, ActionCreate, ActionUpdate, ActionDelete),
		CategoryOrders:     grant(ActionView, ActionCreate, ActionUpdate, ActionDelete),
		CategoryShipments:  grant(ActionView, ActionCreate, ActionUpdate),
		CategoryClients:    grant(ActionView),
		CategoryUsers:      grant(ActionView),
		CategoryBilling:    grant(ActionView),
		CategoryReports:    grant(ActionView, ActionExport),
	},
	RoleTenantStaff: {
		CategoryInventory: grant(ActionView, ActionUpdate),
		CategoryOrders:    grant(ActionView, ActionUpdate),
		CategoryShipments: grant(ActionView, ActionUpdate),
		CategoryReports:   grant(ActionView),
	},
	RoleClientAdmin: {
		CategoryClientOrders:    grant(ActionView, ActionCreate, ActionUpdate, ActionDelete),
		CategoryClientInventory: grant(ActionView),
		CategoryClientReports:   grant(ActionView, ActionExport),
	},
	RoleClientUser: {
		CategoryClientOrders:    grant(ActionView, ActionCreate),
		CategoryClientInventory: grant(ActionView),
		CategoryClientReports:   grant(ActionView),
	},
	RoleClientViewer: {
		CategoryClientOrders:    grant(ActionView),
		CategoryClientInventory: grant(ActionView),
		CategoryClientReports:   grant(ActionView),
	},
}

// DefaultPermissions returns a copy of the default permission set for the
// role. Unknown roles get an empty set.
func DefaultPermissions(role Role) PermissionSet {
	return roleDefaults[role].Clone()
}
