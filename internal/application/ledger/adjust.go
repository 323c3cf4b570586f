package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/application/audit"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// SetAbsolute traduce "fijar on-hand en N" a una transacción Adjustment con
// dirección explícita, preservando el ledger append-only: ni las correcciones
// escriben el saldo directamente. La lectura del saldo actual, el cálculo de
// la diferencia y la escritura ocurren sobre la misma fila bloqueada, así dos
// set-absolutos concurrentes no se pisan.
//
// difference == 0 es un no-op idempotente: no se agrega transacción alguna.
func (uc *RecordTransactionUseCase) SetAbsolute(ctx context.Context, productID string, newQuantity int64, notes, actor string) (*entity.Stock, error) {
	if newQuantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, domain.ErrProductNotFound
	}
	if notes == "" {
		notes = "Stock adjustment"
	}

	now := time.Now()
	var result, before, after entity.Stock
	adjusted := false

	err = uc.runWithRetry(ctx, func(
		stockRepo repository.StockRepository,
		txRepo repository.StockTransactionRepository,
	) error {
		stock, err := stockRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.ErrProductNotFound
		}

		difference := newQuantity - stock.QuantityOnHand
		if difference == 0 {
			result = *stock
			adjusted = false
			return nil
		}

		// La dirección la decide el caller aquí y viaja explícita hasta la
		// fila persistida; nunca se re-deriva después.
		direction := entity.DirectionIncrease
		quantity := difference
		if difference < 0 {
			direction = entity.DirectionDecrease
			quantity = -difference
		}
		tx := &entity.StockTransaction{
			ID:        uuid.New().String(),
			ProductID: productID,
			Type:      entity.TxTypeAdjustment,
			Direction: direction,
			Quantity:  quantity,
			Notes:     notes,
			CreatedBy: actor,
			CreatedAt: now,
		}

		// Misma fila, mismo lock: applyInTx relee el saldo ya bloqueado.
		before, after, err = uc.applyInTx(ctx, stockRepo, txRepo, tx, now)
		if err != nil {
			return err
		}
		result = after
		adjusted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if adjusted {
		uc.emitter.Emit(audit.Fact{
			Actor:      actor,
			Action:     "ADJUST_STOCK",
			EntityType: "Stock",
			EntityID:   productID,
			Before:     before,
			After:      after,
		})
	}
	return &result, nil
}
