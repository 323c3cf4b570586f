package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo. El stock no vive aquí:
// se mantiene en la fila Stock y solo cambia vía transacciones del ledger.
type Product struct {
	ID           string
	SKU          string // código único
	Name         string
	Description  string
	CategoryID   string
	SupplierID   string
	UnitCost     decimal.Decimal
	SellingPrice decimal.Decimal
	ReorderLevel int64 // umbral de stock bajo
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
