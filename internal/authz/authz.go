// Package authz maps admin roles onto the actions they may perform. Every
// back-office boundary does exactly one Allowed check instead of comparing
// role strings inline.
package authz

import "loudim/internal/domain"

type Action string

const (
	ManageCatalog     Action = "catalog.manage"
	ManageCoupons     Action = "coupons.manage"
	ManageDelivery    Action = "delivery.manage"
	ManageUsers       Action = "users.manage"
	ViewOrders        Action = "orders.view"
	SetSalesStatus    Action = "orders.sales_status"
	SetDeliveryStatus Action = "orders.delivery_status"
	SetPaymentStatus  Action = "orders.payment_status"
	ViewStats         Action = "stats.view"
)

var grants = map[string]map[Action]bool{
	domain.RoleSuperAdmin: {
		ManageCatalog: true, ManageCoupons: true, ManageDelivery: true,
		ManageUsers: true, ViewOrders: true, SetSalesStatus: true,
		SetDeliveryStatus: true, SetPaymentStatus: true, ViewStats: true,
	},
	// A plain admin may sign in and watch the dashboard; every privileged
	// back-office area stays super_admin only.
	domain.RoleAdmin: {
		ViewStats: true,
	},
	domain.RoleCallAgent: {
		ViewOrders: true, SetSalesStatus: true, SetPaymentStatus: true, ViewStats: true,
	},
	domain.RoleDeliveryAgent: {
		ViewOrders: true, SetDeliveryStatus: true,
	},
}

func Allowed(role string, action Action) bool {
	return grants[role][action]
}
