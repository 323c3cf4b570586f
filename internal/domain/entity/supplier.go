package entity

import "time"

// Supplier proveedor asociado a productos del catálogo.
type Supplier struct {
	ID            string
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
