package rbac

import "github.com/elmeel/warehouse/internal/store"

// Permissions are named after the screens they unlock.
const (
	PermDashboard    = "dashboard"
	PermItems        = "items"
	PermProjects     = "projects"
	PermTransactions = "transactions"
	PermClients      = "clients"
	PermInvoices     = "invoices"
	PermUsers        = "users"
	PermSettings     = "settings"
)

// AllPermissions lists every known permission in menu order.
var AllPermissions = []string{
	PermDashboard,
	PermItems,
	PermProjects,
	PermTransactions,
	PermClients,
	PermInvoices,
	PermUsers,
	PermSettings,
}

// RoleGrant describes what a role may reach.
type RoleGrant struct {
	Role        store.Role `json:"role"`
	Permissions []string   `json:"permissions"`
}

var defaultGrants = map[store.Role][]string{
	store.RoleAdmin:             AllPermissions,
	store.RoleWarehouseManager:  {PermDashboard, PermItems, PermProjects, PermTransactions},
	store.RoleAccountant:        {PermDashboard, PermClients, PermInvoices},
	store.RoleProjectSupervisor: {PermDashboard, PermProjects},
	store.RoleViewer:            {PermDashboard},
}

// ValidRole reports whether r is a known role.
func ValidRole(r store.Role) bool {
	_, ok := defaultGrants[r]
	return ok
}
