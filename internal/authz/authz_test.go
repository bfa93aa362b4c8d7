package authz

import (
	"testing"

	"loudim/internal/domain"
)

func TestGrants(t *testing.T) {
	cases := []struct {
		role   string
		action Action
		want   bool
	}{
		{domain.RoleSuperAdmin, ManageUsers, true},
		{domain.RoleSuperAdmin, SetDeliveryStatus, true},
		{domain.RoleAdmin, ViewStats, true},
		{domain.RoleAdmin, ViewOrders, false},
		{domain.RoleAdmin, ManageUsers, false},
		{domain.RoleCallAgent, SetSalesStatus, true},
		{domain.RoleCallAgent, SetPaymentStatus, true},
		{domain.RoleCallAgent, SetDeliveryStatus, false},
		{domain.RoleCallAgent, ManageCatalog, false},
		{domain.RoleDeliveryAgent, ViewOrders, true},
		{domain.RoleDeliveryAgent, SetDeliveryStatus, true},
		{domain.RoleDeliveryAgent, SetSalesStatus, false},
		{domain.RoleDeliveryAgent, ViewStats, false},
		{"", ViewOrders, false},
		{"customer", ViewOrders, false},
	}
	for _, tc := range cases {
		if got := Allowed(tc.role, tc.action); got != tc.want {
			t.Errorf("Allowed(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}
