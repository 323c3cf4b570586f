package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/application/audit"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// Reintentos acotados ante fallos transitorios del store. Los errores de
// negocio nunca se reintentan.
const maxStoreRetries = 3

// RecordTransactionUseCase es el único punto por el que pasan todos los
// cambios de saldo: valida, calcula el delta con signo, verifica suficiencia
// dentro de la misma unidad atómica (fila bloqueada con SELECT FOR UPDATE) y
// persiste transacción + saldo juntos. Tras el commit emite el hecho de
// auditoría fuera de todo lock.
type RecordTransactionUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	emitter     *audit.Emitter
	log         *logger.Logger
}

// NewRecordTransactionUseCase construye el caso de uso.
func NewRecordTransactionUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	emitter *audit.Emitter,
	log *logger.Logger,
) *RecordTransactionUseCase {
	return &RecordTransactionUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		emitter:     emitter,
		log:         log,
	}
}

// RecordInput entrada para registrar una transacción de stock.
// Quantity siempre es magnitud positiva. Direction solo aplica a Adjustment.
type RecordInput struct {
	ProductID       string
	Type            string
	Direction       string
	Quantity        int64
	ReferenceNumber string
	Notes           string
	Actor           string
}

// RecordStockIn registra una entrada de stock.
func (uc *RecordTransactionUseCase) RecordStockIn(ctx context.Context, productID string, quantity int64, referenceNumber, notes, actor string) (*entity.StockTransaction, error) {
	return uc.Record(ctx, RecordInput{
		ProductID:       productID,
		Type:            entity.TxTypeStockIn,
		Quantity:        quantity,
		ReferenceNumber: referenceNumber,
		Notes:           notes,
		Actor:           actor,
	})
}

// RecordStockOut registra una salida de stock.
func (uc *RecordTransactionUseCase) RecordStockOut(ctx context.Context, productID string, quantity int64, referenceNumber, notes, actor string) (*entity.StockTransaction, error) {
	return uc.Record(ctx, RecordInput{
		ProductID:       productID,
		Type:            entity.TxTypeStockOut,
		Quantity:        quantity,
		ReferenceNumber: referenceNumber,
		Notes:           notes,
		Actor:           actor,
	})
}

// RecordReturn registra una devolución al proveedor (resta stock, como salida).
func (uc *RecordTransactionUseCase) RecordReturn(ctx context.Context, productID string, quantity int64, referenceNumber, notes, actor string) (*entity.StockTransaction, error) {
	return uc.Record(ctx, RecordInput{
		ProductID:       productID,
		Type:            entity.TxTypeReturn,
		Quantity:        quantity,
		ReferenceNumber: referenceNumber,
		Notes:           notes,
		Actor:           actor,
	})
}

// Record valida la entrada, ejecuta la mutación en una unidad atómica y emite
// el hecho de auditoría tras el commit. Devuelve la transacción persistida.
func (uc *RecordTransactionUseCase) Record(ctx context.Context, in RecordInput) (*entity.StockTransaction, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if !entity.KnownTxType(in.Type) {
		return nil, domain.ErrInvalidInput
	}
	if in.Type == entity.TxTypeAdjustment &&
		in.Direction != entity.DirectionIncrease && in.Direction != entity.DirectionDecrease {
		return nil, domain.ErrInvalidInput
	}

	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, domain.ErrProductNotFound
	}

	now := time.Now()
	tx := &entity.StockTransaction{
		ID:              uuid.New().String(),
		ProductID:       in.ProductID,
		Type:            in.Type,
		Direction:       in.Direction,
		Quantity:        in.Quantity,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
		CreatedBy:       in.Actor,
		CreatedAt:       now,
	}

	var before, after entity.Stock
	err = uc.runWithRetry(ctx, func(
		stockRepo repository.StockRepository,
		txRepo repository.StockTransactionRepository,
	) error {
		var applyErr error
		before, after, applyErr = uc.applyInTx(ctx, stockRepo, txRepo, tx, now)
		return applyErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvariantViolation) {
			// Defensivo: inalcanzable si la verificación de suficiencia funcionó.
			// Señala un bug interno, no un error del usuario.
			uc.log.Error().Err(err).
				Str("product_id", in.ProductID).
				Str("type", in.Type).
				Int64("quantity", in.Quantity).
				Msg("invariante de stock violado en el recorder")
		}
		return nil, err
	}

	uc.emitter.Emit(audit.Fact{
		Actor:      in.Actor,
		Action:     auditAction(in.Type),
		EntityType: "Stock",
		EntityID:   in.ProductID,
		Before:     before,
		After:      after,
	})
	return tx, nil
}

// applyInTx ejecuta lectura-validación-escritura sobre la fila bloqueada.
// Reutilizado por SetAbsolute dentro de su propia transacción.
func (uc *RecordTransactionUseCase) applyInTx(
	ctx context.Context,
	stockRepo repository.StockRepository,
	txRepo repository.StockTransactionRepository,
	tx *entity.StockTransaction,
	now time.Time,
) (before, after entity.Stock, err error) {
	stock, err := stockRepo.GetForUpdate(ctx, tx.ProductID)
	if err != nil {
		return before, after, err
	}
	if stock == nil {
		return before, after, domain.ErrProductNotFound
	}
	before = *stock

	delta := tx.SignedDelta()
	if delta < 0 {
		available := stock.QuantityOnHand - stock.QuantityReserved
		if available < tx.Quantity {
			return before, after, &domain.InsufficientStockError{
				Available: available,
				Requested: tx.Quantity,
			}
		}
	}

	stock.QuantityOnHand += delta
	stock.Recompute()
	if !stock.Valid() {
		return before, after, fmt.Errorf("%w: on_hand=%d reserved=%d tras %s de %d",
			domain.ErrInvariantViolation, stock.QuantityOnHand, stock.QuantityReserved, tx.Type, tx.Quantity)
	}
	stock.LastUpdated = now
	stock.LastUpdatedBy = tx.CreatedBy

	if err := stockRepo.UpdateBalance(ctx, stock); err != nil {
		return before, after, err
	}
	if err := txRepo.Create(ctx, tx); err != nil {
		return before, after, err
	}
	after = *stock
	return before, after, nil
}

// runWithRetry reintenta la unidad completa solo ante indisponibilidad
// transitoria del store; los errores de negocio se devuelven tal cual.
func (uc *RecordTransactionUseCase) runWithRetry(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	txRepo repository.StockTransactionRepository,
) error) error {
	var err error
	for attempt := 1; attempt <= maxStoreRetries; attempt++ {
		err = uc.txRunner.Run(ctx, fn)
		if err == nil || !errors.Is(err, domain.ErrStoreUnavailable) {
			return err
		}
		uc.log.Warn().Err(err).Int("attempt", attempt).Msg("store no disponible, reintentando unidad")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return err
}

// auditAction mapea el tipo de transacción a la acción de auditoría.
func auditAction(txType string) string {
	switch txType {
	case entity.TxTypeStockIn:
		return "STOCK_IN"
	case entity.TxTypeStockOut:
		return "STOCK_OUT"
	case entity.TxTypeAdjustment:
		return "ADJUST_STOCK"
	case entity.TxTypeReturn:
		return "STOCK_RETURN"
	}
	return txType
}
