package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// StockQueryUseCase vistas de solo lectura sobre el ledger. Nunca abre una
// unidad mutante y solo refleja estado confirmado.
type StockQueryUseCase struct {
	stockRepo repository.StockRepository
	txRepo    repository.StockTransactionRepository
	queryRepo repository.StockQueryRepository
}

// NewStockQueryUseCase construye el caso de uso de consultas.
func NewStockQueryUseCase(
	stockRepo repository.StockRepository,
	txRepo repository.StockTransactionRepository,
	queryRepo repository.StockQueryRepository,
) *StockQueryUseCase {
	return &StockQueryUseCase{
		stockRepo: stockRepo,
		txRepo:    txRepo,
		queryRepo: queryRepo,
	}
}

// GetBalance devuelve el saldo actual de un producto.
func (uc *StockQueryUseCase) GetBalance(ctx context.Context, productID string) (*entity.Stock, error) {
	stock, err := uc.stockRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, domain.ErrProductNotFound
	}
	return stock, nil
}

// GetSummary lista todos los productos activos con saldos y estado Low/OK,
// ordenados por nombre de producto.
func (uc *StockQueryUseCase) GetSummary(ctx context.Context) ([]repository.SummaryRow, error) {
	return uc.queryRepo.Summary(ctx)
}

// GetLowStock lista productos en o bajo su punto de reorden, ascendente por
// on-hand (los más críticos primero).
func (uc *StockQueryUseCase) GetLowStock(ctx context.Context) ([]repository.LowStockRow, error) {
	return uc.queryRepo.LowStock(ctx)
}

// GetHistory historial de transacciones de un producto, más reciente primero.
func (uc *StockQueryUseCase) GetHistory(ctx context.Context, productID string, limit, offset int) ([]repository.HistoryRow, error) {
	return uc.txRepo.ListByProduct(ctx, productID, limit, offset)
}

// GetAllHistory historial global, opcionalmente filtrado por fechas.
func (uc *StockQueryUseCase) GetAllHistory(ctx context.Context, from, to *time.Time, limit, offset int) ([]repository.HistoryRow, error) {
	return uc.txRepo.ListAll(ctx, from, to, limit, offset)
}
