package rbac

// Role constants
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleField   = "field"
)

// Roles in display order.
var Roles = []string{RoleAdmin, RoleManager, RoleField}

// Permission constants
const (
	PermViewRecords       = "view_records"
	PermManageCustomers   = "manage_customers"
	PermManageProjects    = "manage_projects"
	PermChangeStatus      = "change_status"
	PermLogTime           = "log_time"
	PermDeleteTime        = "delete_time"
	PermRecordMaterials   = "record_materials"
	PermRecordSubInvoices = "record_sub_invoices"
	PermManageEstimates   = "manage_estimates"
	PermViewActivity      = "view_activity"
	PermExportReports     = "export_reports"
	PermManageUsers       = "manage_users"
	PermManagePeople      = "manage_people"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleAdmin: {
		PermViewRecords, PermManageCustomers, PermManageProjects, PermChangeStatus,
		PermLogTime, PermDeleteTime, PermRecordMaterials, PermRecordSubInvoices,
		PermManageEstimates, PermViewActivity, PermExportReports, PermManageUsers,
		PermManagePeople,
	},
	RoleManager: {
		PermViewRecords, PermManageCustomers, PermManageProjects, PermChangeStatus,
		PermLogTime, PermDeleteTime, PermRecordMaterials, PermRecordSubInvoices,
		PermManageEstimates, PermViewActivity, PermExportReports, PermManagePeople,
	},
	RoleField: {
		PermViewRecords, PermLogTime, PermRecordMaterials,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

func IsValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// Permissions returns a copy of role's permission list.
func Permissions(role string) []string {
	perms := RolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
