package entity

import "time"

// Roles de usuario. El core del ledger no decide permisos, solo registra quién
// ejecutó cada transacción; el RBAC vive en el middleware HTTP.
const (
	RoleAdmin       = "Admin"
	RoleStorekeeper = "Storekeeper"
	RoleStaff       = "Staff"
)

// User cuenta de usuario de la aplicación.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
