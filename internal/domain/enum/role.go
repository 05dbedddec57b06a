package enum

// Role is an operator's permission level
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCashier
}
