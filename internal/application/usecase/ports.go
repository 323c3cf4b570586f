package usecase

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// CatalogTxRunner ejecuta una función dentro de una transacción de BD con los
// repos de catálogo y stock, para crear producto + fila de saldo en cero de
// forma atómica.
type CatalogTxRunner interface {
	RunCatalog(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		stockRepo repository.StockRepository,
	) error) error
}
