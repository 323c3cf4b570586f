package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// HistoryRow transacción enriquecida con datos del producto y del usuario
// para los listados de historial.
type HistoryRow struct {
	Tx            entity.StockTransaction
	SKU           string
	ProductName   string
	CreatedByName string
}

// StockTransactionRepository define el puerto de persistencia del ledger.
// Solo hay Create y lecturas: las transacciones nunca se actualizan ni borran.
type StockTransactionRepository interface {
	Create(ctx context.Context, tx *entity.StockTransaction) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]HistoryRow, error)
	ListAll(ctx context.Context, from, to *time.Time, limit, offset int) ([]HistoryRow, error)
}
