package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/audit"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testProductID = "00000000-0000-0000-0000-0000000000aa"
	testActor     = "00000000-0000-0000-0000-000000000001"
)

type fixture struct {
	store    *memory.Store
	audit    *memory.AuditRepo
	emitter  *audit.Emitter
	recorder *ledger.RecordTransactionUseCase
}

// newFixture monta el recorder sobre el store en memoria con un producto
// activo ya sembrado (saldo en cero).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SeedProduct(entity.Product{
		ID:           testProductID,
		SKU:          "SKU-001",
		Name:         "Tornillo 3/8",
		ReorderLevel: 5,
		IsActive:     true,
	})
	auditRepo := memory.NewAuditRepo()
	emitter := audit.NewEmitter(auditRepo, logger.Nop())
	recorder := ledger.NewRecordTransactionUseCase(store, store.Products(), emitter, logger.Nop())
	return &fixture{store: store, audit: auditRepo, emitter: emitter, recorder: recorder}
}

// onHand lee el saldo confirmado del producto de prueba.
func (f *fixture) onHand(t *testing.T) int64 {
	t.Helper()
	stock, err := f.store.Stocks().Get(context.Background(), testProductID)
	require.NoError(t, err)
	require.NotNil(t, stock)
	return stock.QuantityOnHand
}

// seedBalance fija el saldo confirmado directamente (setup de escenarios).
func (f *fixture) seedBalance(t *testing.T, onHand, reserved int64) {
	t.Helper()
	stock := &entity.Stock{
		ProductID:        testProductID,
		QuantityOnHand:   onHand,
		QuantityReserved: reserved,
	}
	stock.Recompute()
	require.NoError(t, f.store.Stocks().UpdateBalance(context.Background(), stock))
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos básicos
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordStockIn_IncrementaOnHandYDisponible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.recorder.RecordStockIn(ctx, testProductID, 10, "PO-123", "compra inicial", testActor)
	require.NoError(t, err)
	assert.Equal(t, entity.TxTypeStockIn, tx.Type)
	assert.Equal(t, int64(10), tx.Quantity)
	assert.Equal(t, testActor, tx.CreatedBy)

	stock, err := f.store.Stocks().Get(ctx, testProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stock.QuantityOnHand)
	assert.Equal(t, int64(0), stock.QuantityReserved)
	assert.Equal(t, int64(10), stock.QuantityAvailable,
		"disponible = on_hand - reservado, recalculado en cada escritura")
	assert.Equal(t, testActor, stock.LastUpdatedBy)

	require.Len(t, f.store.Ledger(), 1, "cada mutación agrega exactamente una transacción")
}

func TestRecordStockOut_DescuentaDelSaldo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, 10, 0)

	tx, err := f.recorder.RecordStockOut(ctx, testProductID, 4, "SO-9", "", testActor)
	require.NoError(t, err)
	assert.Equal(t, int64(-4), tx.SignedDelta())
	assert.Equal(t, int64(6), f.onHand(t))
}

func TestRecordReturn_RestaComoSalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, 8, 0)

	tx, err := f.recorder.RecordReturn(ctx, testProductID, 3, "RMA-1", "lote defectuoso", testActor)
	require.NoError(t, err)
	assert.Equal(t, entity.TxTypeReturn, tx.Type)
	assert.Equal(t, int64(5), f.onHand(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación de entrada
// ──────────────────────────────────────────────────────────────────────────────

func TestRecord_CantidadNoPositiva_EsRechazada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, quantity := range []int64{0, -5} {
		_, err := f.recorder.RecordStockIn(ctx, testProductID, quantity, "", "", testActor)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "cantidad %d debe rechazarse", quantity)
	}
	assert.Empty(t, f.store.Ledger(), "una entrada rechazada no toca el ledger")
}

func TestRecord_TipoDesconocido_EsRechazado(t *testing.T) {
	f := newFixture(t)

	_, err := f.recorder.Record(context.Background(), ledger.RecordInput{
		ProductID: testProductID,
		Type:      "Transfer",
		Quantity:  1,
		Actor:     testActor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecord_AdjustmentSinDireccion_EsRechazado(t *testing.T) {
	f := newFixture(t)

	_, err := f.recorder.Record(context.Background(), ledger.RecordInput{
		ProductID: testProductID,
		Type:      entity.TxTypeAdjustment,
		Quantity:  3,
		Actor:     testActor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput,
		"un Adjustment sin dirección explícita no tiene signo definido")
}

func TestRecord_ProductoInexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.recorder.RecordStockIn(context.Background(), "no-existe", 5, "", "", testActor)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestRecord_ProductoInactivo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Products().Deactivate(ctx, testProductID))

	_, err := f.recorder.RecordStockIn(ctx, testProductID, 5, "", "", testActor)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Suficiencia y no-negatividad
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordStockOut_InsuficienteLlevaDisponibleYSolicitado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, 6, 0)

	_, err := f.recorder.RecordStockOut(ctx, testProductID, 100, "", "", testActor)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(6), insufficient.Available)
	assert.Equal(t, int64(100), insufficient.Requested)

	assert.Equal(t, int64(6), f.onHand(t), "un rechazo no cambia el saldo")
	assert.Empty(t, f.store.Ledger(), "un rechazo no agrega transacción")
}

func TestRecordStockOut_RespetaElReservado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// 10 en mano pero 4 comprometidos: solo 6 disponibles.
	f.seedBalance(t, 10, 4)

	_, err := f.recorder.RecordStockOut(ctx, testProductID, 7, "", "", testActor)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(6), insufficient.Available)

	_, err = f.recorder.RecordStockOut(ctx, testProductID, 6, "", "", testActor)
	require.NoError(t, err, "consumir exactamente el disponible debe pasar")
	assert.Equal(t, int64(4), f.onHand(t), "queda solo lo reservado")
}

// ──────────────────────────────────────────────────────────────────────────────
// Ley de conciliación: el saldo es la suma con signo del ledger
// ──────────────────────────────────────────────────────────────────────────────

func TestReconciliacion_ReplayDelLedgerReproduceElSaldo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.recorder.RecordStockIn(ctx, testProductID, 50, "PO-1", "", testActor)
	require.NoError(t, err)
	_, err = f.recorder.RecordStockOut(ctx, testProductID, 12, "SO-1", "", testActor)
	require.NoError(t, err)
	_, err = f.recorder.RecordReturn(ctx, testProductID, 3, "RMA-1", "", testActor)
	require.NoError(t, err)
	_, err = f.recorder.SetAbsolute(ctx, testProductID, 40, "conteo físico", testActor)
	require.NoError(t, err)
	_, err = f.recorder.RecordStockOut(ctx, testProductID, 5, "SO-2", "", testActor)
	require.NoError(t, err)

	var replayed int64
	for _, tx := range f.store.Ledger() {
		replayed += tx.SignedDelta()
	}
	assert.Equal(t, f.onHand(t), replayed,
		"reproducir las transacciones en orden debe dar exactamente el saldo actual")
	assert.Equal(t, int64(35), replayed)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad: transacción y saldo comparten destino
// ──────────────────────────────────────────────────────────────────────────────

func TestAtomicidad_FalloAlAppendNoDejaSaldoParcial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, 10, 0)

	f.store.FailAppend = errors.New("disco lleno")
	_, err := f.recorder.RecordStockOut(ctx, testProductID, 4, "", "", testActor)
	require.Error(t, err)

	assert.Equal(t, int64(10), f.onHand(t),
		"si la transacción no se persiste, el saldo tampoco debe cambiar")
	assert.Empty(t, f.store.Ledger())
}

func TestAtomicidad_FalloAlEscribirSaldoNoDejaTransaccionHuerfana(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, 10, 0)

	f.store.FailUpdateBalance = errors.New("conexión perdida")
	_, err := f.recorder.RecordStockIn(ctx, testProductID, 4, "", "", testActor)
	require.Error(t, err)

	assert.Equal(t, int64(10), f.onHand(t))
	assert.Empty(t, f.store.Ledger(),
		"sin saldo actualizado no puede quedar transacción registrada")
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia: la fila bloqueada serializa los retiros
// ──────────────────────────────────────────────────────────────────────────────

func TestConcurrencia_SalidasCompitiendoConsumenExactoElStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, 10, 0)

	const workers = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	var okCount, insufficientCount int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.recorder.RecordStockOut(ctx, testProductID, 1, "", "", testActor)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficientCount++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, okCount, "deben pasar exactamente tantas salidas como unidades había")
	assert.Equal(t, workers-10, insufficientCount)
	assert.Equal(t, int64(0), f.onHand(t))
	assert.Len(t, f.store.Ledger(), 10)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reintentos ante indisponibilidad transitoria del store
// ──────────────────────────────────────────────────────────────────────────────

// flakyRunner falla las primeras n ejecuciones con ErrStoreUnavailable y luego
// delega en el runner real.
type flakyRunner struct {
	inner    ledger.TxRunner
	failures int
	calls    int
}

func (r *flakyRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	txRepo repository.StockTransactionRepository,
) error) error {
	r.calls++
	if r.failures > 0 {
		r.failures--
		return fmt.Errorf("%w: conexión rechazada", domain.ErrStoreUnavailable)
	}
	return r.inner.Run(ctx, fn)
}

func TestReintentos_TransitoriosSeRecuperan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	runner := &flakyRunner{inner: f.store, failures: 2}
	recorder := ledger.NewRecordTransactionUseCase(runner, f.store.Products(), f.emitter, logger.Nop())

	_, err := recorder.RecordStockIn(ctx, testProductID, 5, "", "", testActor)
	require.NoError(t, err, "dos fallos transitorios caben dentro del presupuesto de reintentos")
	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, int64(5), f.onHand(t))
}

func TestReintentos_PresupuestoAgotadoDevuelveElError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	runner := &flakyRunner{inner: f.store, failures: 10}
	recorder := ledger.NewRecordTransactionUseCase(runner, f.store.Products(), f.emitter, logger.Nop())

	_, err := recorder.RecordStockIn(ctx, testProductID, 5, "", "", testActor)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 3, runner.calls, "los reintentos están acotados")
}

func TestReintentos_ErroresDeNegocioNoSeReintentan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, 2, 0)

	runner := &flakyRunner{inner: f.store}
	recorder := ledger.NewRecordTransactionUseCase(runner, f.store.Products(), f.emitter, logger.Nop())

	_, err := recorder.RecordStockOut(ctx, testProductID, 99, "", "", testActor)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, runner.calls, "stock insuficiente no es transitorio")
}

// ──────────────────────────────────────────────────────────────────────────────
// Auditoría post-commit
// ──────────────────────────────────────────────────────────────────────────────

func TestAuditoria_MutacionConfirmadaEmiteHecho(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.recorder.RecordStockIn(ctx, testProductID, 7, "PO-5", "", testActor)
	require.NoError(t, err)
	f.emitter.Close()

	logs := f.audit.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "STOCK_IN", logs[0].Action)
	assert.Equal(t, "Stock", logs[0].EntityType)
	assert.Equal(t, testProductID, logs[0].EntityID)
	assert.Equal(t, testActor, logs[0].UserID)
	assert.Contains(t, string(logs[0].NewValues), `"QuantityOnHand":7`)
}

func TestAuditoria_MutacionRechazadaNoEmiteNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.recorder.RecordStockOut(ctx, testProductID, 3, "", "", testActor)
	require.Error(t, err)
	f.emitter.Close()

	assert.Empty(t, f.audit.Logs(), "solo las mutaciones confirmadas generan auditoría")
}
