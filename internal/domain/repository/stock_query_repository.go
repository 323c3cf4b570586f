package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// SummaryRow fila del resumen de inventario: producto + saldos + estado.
type SummaryRow struct {
	ProductID         string
	SKU               string
	Name              string
	CategoryName      string
	UnitCost          decimal.Decimal
	SellingPrice      decimal.Decimal
	ReorderLevel      int64
	QuantityOnHand    int64
	QuantityReserved  int64
	QuantityAvailable int64
	Status            string // "Low" | "OK"
}

// LowStockRow producto activo en o bajo su punto de reorden.
type LowStockRow struct {
	ProductID      string
	SKU            string
	Name           string
	CategoryName   string
	ReorderLevel   int64
	QuantityOnHand int64
}

// StockQueryRepository consultas de solo lectura sobre saldos + catálogo.
// Nunca abre una unidad mutante; solo ve estado confirmado.
type StockQueryRepository interface {
	// Summary lista todos los productos activos con sus saldos, ordenados por nombre.
	Summary(ctx context.Context) ([]SummaryRow, error)
	// LowStock lista productos con on_hand <= reorder_level, ascendente por on_hand.
	LowStock(ctx context.Context) ([]LowStockRow, error)
}
