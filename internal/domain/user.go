package domain

const (
	RoleSuperAdmin    = "super_admin"
	RoleAdmin         = "admin"
	RoleCallAgent     = "call_agent"
	RoleDeliveryAgent = "delivery_agent"
	RoleCustomer      = "customer"
)

type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
	Hash     string `db:"password_hash"`
	Role     string `db:"role"`
	FullName string `db:"full_name"`
	Email    string `db:"email"`
	Phone    string `db:"phone"`
}
