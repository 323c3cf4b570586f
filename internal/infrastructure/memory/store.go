// Package memory implementa los puertos del ledger sobre estructuras en
// memoria, con la misma semántica de unidad atómica que el adaptador
// PostgreSQL: lock por producto, escrituras staged y commit todo-o-nada.
// Respaldado por los tests de propiedades (concurrencia, atomicidad, replay)
// y utilizable como store de desarrollo.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*Store)(nil)
var _ usecase.CatalogTxRunner = (*Store)(nil)

// Store estado compartido. Los maps solo se tocan con mu tomado; las unidades
// de trabajo serializan por producto con locks dedicados, igual que el
// SELECT FOR UPDATE de PostgreSQL serializa por fila.
type Store struct {
	mu       sync.Mutex
	rowLocks map[string]*sync.Mutex
	products map[string]entity.Product
	stocks   map[string]entity.Stock
	ledger   []entity.StockTransaction

	// Hooks de inyección de fallos para los tests de atomicidad.
	FailAppend        error // falla el Create de la transacción dentro de la unidad
	FailUpdateBalance error // falla el UpdateBalance dentro de la unidad
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		rowLocks: make(map[string]*sync.Mutex),
		products: make(map[string]entity.Product),
		stocks:   make(map[string]entity.Stock),
	}
}

// rowLock devuelve (creando si hace falta) el lock de fila del producto.
func (s *Store) rowLock(productID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[productID]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[productID] = l
	}
	return l
}

// ─────────────────────────────────────────────────────────────────────────────
// Unidad de trabajo
// ─────────────────────────────────────────────────────────────────────────────

// unit acumula escrituras staged; nada es visible hasta commit. Un error del
// callback descarta todo y suelta los locks: abort limpio sin efecto parcial.
type unit struct {
	store          *Store
	held           map[string]*sync.Mutex
	stagedStocks   map[string]entity.Stock
	stagedProducts map[string]entity.Product
	stagedTxs      []entity.StockTransaction
}

func (s *Store) newUnit() *unit {
	return &unit{
		store:          s,
		held:           make(map[string]*sync.Mutex),
		stagedStocks:   make(map[string]entity.Stock),
		stagedProducts: make(map[string]entity.Product),
	}
}

// lockRow toma el lock de fila si la unidad no lo tiene ya (re-entrante por unidad).
func (u *unit) lockRow(productID string) {
	if _, ok := u.held[productID]; ok {
		return
	}
	l := u.store.rowLock(productID)
	l.Lock()
	u.held[productID] = l
}

func (u *unit) release() {
	for _, l := range u.held {
		l.Unlock()
	}
	u.held = make(map[string]*sync.Mutex)
}

// commit aplica todas las escrituras staged de una vez.
func (u *unit) commit() {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for id, p := range u.stagedProducts {
		u.store.products[id] = p
	}
	for id, st := range u.stagedStocks {
		u.store.stocks[id] = st
	}
	u.store.ledger = append(u.store.ledger, u.stagedTxs...)
}

// Run ejecuta fn dentro de una unidad atómica con repos de stock y ledger.
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	txRepo repository.StockTransactionRepository,
) error) error {
	u := s.newUnit()
	defer u.release()
	if err := fn(&unitStockRepo{u}, &unitTxRepo{u}); err != nil {
		return err
	}
	u.commit()
	return nil
}

// RunCatalog ejecuta fn con repos de catálogo y stock en una unidad atómica.
func (s *Store) RunCatalog(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
) error) error {
	u := s.newUnit()
	defer u.release()
	if err := fn(&unitProductRepo{u}, &unitStockRepo{u}); err != nil {
		return err
	}
	u.commit()
	return nil
}

// readStock devuelve la vista de la unidad (staged sobre confirmado).
func (u *unit) readStock(productID string) (entity.Stock, bool) {
	if st, ok := u.stagedStocks[productID]; ok {
		return st, true
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	st, ok := u.store.stocks[productID]
	return st, ok
}

// ─────────────────────────────────────────────────────────────────────────────
// Repos atados a la unidad
// ─────────────────────────────────────────────────────────────────────────────

type unitStockRepo struct{ u *unit }

var _ repository.StockRepository = (*unitStockRepo)(nil)

func (r *unitStockRepo) Get(_ context.Context, productID string) (*entity.Stock, error) {
	st, ok := r.u.readStock(productID)
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r *unitStockRepo) GetForUpdate(_ context.Context, productID string) (*entity.Stock, error) {
	r.u.lockRow(productID)
	st, ok := r.u.readStock(productID)
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r *unitStockRepo) CreateZero(_ context.Context, productID, actor string) error {
	r.u.lockRow(productID)
	r.u.stagedStocks[productID] = entity.Stock{ProductID: productID, LastUpdatedBy: actor}
	return nil
}

func (r *unitStockRepo) UpdateBalance(_ context.Context, stock *entity.Stock) error {
	if err := r.u.store.FailUpdateBalance; err != nil {
		return err
	}
	r.u.stagedStocks[stock.ProductID] = *stock
	return nil
}

type unitTxRepo struct{ u *unit }

var _ repository.StockTransactionRepository = (*unitTxRepo)(nil)

func (r *unitTxRepo) Create(_ context.Context, tx *entity.StockTransaction) error {
	if err := r.u.store.FailAppend; err != nil {
		return err
	}
	r.u.stagedTxs = append(r.u.stagedTxs, *tx)
	return nil
}

func (r *unitTxRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]repository.HistoryRow, error) {
	return r.u.store.Transactions().ListByProduct(ctx, productID, limit, offset)
}

func (r *unitTxRepo) ListAll(ctx context.Context, from, to *time.Time, limit, offset int) ([]repository.HistoryRow, error) {
	return r.u.store.Transactions().ListAll(ctx, from, to, limit, offset)
}

type unitProductRepo struct{ u *unit }

func (r *unitProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.u.stagedProducts[p.ID] = *p
	return nil
}

func (r *unitProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.u.store.Products().GetByID(ctx, id)
}

func (r *unitProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.u.store.Products().GetBySKU(ctx, sku)
}

func (r *unitProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	return r.u.store.Products().List(ctx, limit, offset)
}

func (r *unitProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.u.stagedProducts[p.ID] = *p
	return nil
}

func (r *unitProductRepo) Deactivate(ctx context.Context, id string) error {
	return r.u.store.Products().Deactivate(ctx, id)
}
