package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// StockRepository define el puerto para leer/escribir saldos de stock.
// Las escrituras solo ocurren dentro de una transacción (vía TxRunner) y
// siempre acompañadas de un StockTransaction en la misma unidad atómica.
type StockRepository interface {
	Get(ctx context.Context, productID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila del producto (SELECT ... FOR UPDATE) para
	// serializar lecturas-escrituras concurrentes sobre el mismo producto.
	GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error)
	// CreateZero crea la fila de saldo en cero al crear el producto.
	CreateZero(ctx context.Context, productID, actor string) error
	// UpdateBalance persiste el saldo; el disponible ya viene recalculado.
	UpdateBalance(ctx context.Context, stock *entity.Stock) error
}
