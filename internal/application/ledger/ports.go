package ledger

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es la única vía para mutar saldos: garantiza
// que el StockTransaction y el update de Stock se confirman o abortan juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		txRepo repository.StockTransactionRepository,
	) error) error
}
