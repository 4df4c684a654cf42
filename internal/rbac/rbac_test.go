package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role string
		perm string
		want bool
	}{
		{RoleAdmin, PermChangeStatus, true},
		{RoleManager, PermExportReports, true},
		{RoleAdmin, PermManageUsers, true},
		{RoleManager, PermManageUsers, false},
		{RoleManager, PermManagePeople, true},
		{RoleField, PermManagePeople, false},
		{RoleField, PermLogTime, true},
		{RoleField, PermRecordMaterials, true},
		{RoleField, PermChangeStatus, false},
		{RoleField, PermManageCustomers, false},
		{RoleField, PermDeleteTime, false},
		{"contractor", PermViewRecords, false},
		{"", PermViewRecords, false},
	}
	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range []string{RoleAdmin, RoleManager, RoleField} {
		if !IsValidRole(r) {
			t.Errorf("%q should be valid", r)
		}
	}
	if IsValidRole("owner") {
		t.Error("owner is not a CRM role")
	}
}

func TestPermissionsReturnsCopy(t *testing.T) {
	got := Permissions(RoleField)
	if len(got) != 3 {
		t.Fatalf("field permissions = %v", got)
	}
	got[0] = PermManageUsers
	if HasPermission(RoleField, PermManageUsers) {
		t.Fatal("Permissions leaked the role slice")
	}
	if len(Permissions("nobody")) != 0 {
		t.Error("unknown role should have no permissions")
	}
	for _, r := range Roles {
		if !IsValidRole(r) {
			t.Errorf("Roles lists unknown role %q", r)
		}
	}
}
