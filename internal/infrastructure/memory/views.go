package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// Vistas de solo-estado-confirmado, equivalentes a los repos atados al pool
// en el adaptador PostgreSQL. Nunca ven escrituras staged de unidades abiertas.

// Stocks devuelve el repo de saldos sobre estado confirmado.
func (s *Store) Stocks() repository.StockRepository { return &stockView{s} }

// Products devuelve el repo de catálogo sobre estado confirmado.
func (s *Store) Products() repository.ProductRepository { return &productView{s} }

// Transactions devuelve el repo de historial sobre estado confirmado.
func (s *Store) Transactions() repository.StockTransactionRepository { return &txView{s} }

// Queries devuelve el repo de consultas de resumen y stock bajo.
func (s *Store) Queries() repository.StockQueryRepository { return &queryView{s} }

type stockView struct{ s *Store }

func (v *stockView) Get(_ context.Context, productID string) (*entity.Stock, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	st, ok := v.s.stocks[productID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// GetForUpdate fuera de una unidad no bloquea nada: las escrituras solo pasan
// por Run, así que aquí equivale a Get.
func (v *stockView) GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error) {
	return v.Get(ctx, productID)
}

func (v *stockView) CreateZero(_ context.Context, productID, actor string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.stocks[productID] = entity.Stock{ProductID: productID, LastUpdatedBy: actor}
	return nil
}

func (v *stockView) UpdateBalance(_ context.Context, stock *entity.Stock) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.stocks[stock.ProductID] = *stock
	return nil
}

type productView struct{ s *Store }

func (v *productView) Create(_ context.Context, p *entity.Product) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, existing := range v.s.products {
		if existing.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	v.s.products[p.ID] = *p
	return nil
}

func (v *productView) GetByID(_ context.Context, id string) (*entity.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (v *productView) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, p := range v.s.products {
		if p.SKU == sku {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (v *productView) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	all := make([]*entity.Product, 0, len(v.s.products))
	for _, p := range v.s.products {
		cp := p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), nil
}

func (v *productView) Update(_ context.Context, p *entity.Product) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	v.s.products[p.ID] = *p
	return nil
}

func (v *productView) Deactivate(_ context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.IsActive = false
	p.UpdatedAt = time.Now()
	v.s.products[id] = p
	return nil
}

type txView struct{ s *Store }

func (v *txView) Create(_ context.Context, tx *entity.StockTransaction) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.ledger = append(v.s.ledger, *tx)
	return nil
}

func (v *txView) ListByProduct(_ context.Context, productID string, limit, offset int) ([]repository.HistoryRow, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	rows := v.historyRows(func(tx *entity.StockTransaction) bool {
		return tx.ProductID == productID
	})
	return page(rows, limit, offset), nil
}

func (v *txView) ListAll(_ context.Context, from, to *time.Time, limit, offset int) ([]repository.HistoryRow, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	rows := v.historyRows(func(tx *entity.StockTransaction) bool {
		if from != nil && tx.CreatedAt.Before(*from) {
			return false
		}
		if to != nil && tx.CreatedAt.After(*to) {
			return false
		}
		return true
	})
	return page(rows, limit, offset), nil
}

// historyRows filtra el ledger y lo devuelve del más reciente al más antiguo.
// Llamar con mu tomado.
func (v *txView) historyRows(keep func(*entity.StockTransaction) bool) []repository.HistoryRow {
	var rows []repository.HistoryRow
	for i := len(v.s.ledger) - 1; i >= 0; i-- {
		tx := v.s.ledger[i]
		if !keep(&tx) {
			continue
		}
		row := repository.HistoryRow{Tx: tx, CreatedByName: tx.CreatedBy}
		if p, ok := v.s.products[tx.ProductID]; ok {
			row.SKU = p.SKU
			row.ProductName = p.Name
		}
		rows = append(rows, row)
	}
	return rows
}

type queryView struct{ s *Store }

func (v *queryView) Summary(_ context.Context) ([]repository.SummaryRow, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var rows []repository.SummaryRow
	for _, p := range v.s.products {
		if !p.IsActive {
			continue
		}
		st := v.s.stocks[p.ID]
		status := "OK"
		if st.QuantityOnHand <= p.ReorderLevel {
			status = "Low"
		}
		rows = append(rows, repository.SummaryRow{
			ProductID:         p.ID,
			SKU:               p.SKU,
			Name:              p.Name,
			UnitCost:          p.UnitCost,
			SellingPrice:      p.SellingPrice,
			ReorderLevel:      p.ReorderLevel,
			QuantityOnHand:    st.QuantityOnHand,
			QuantityReserved:  st.QuantityReserved,
			QuantityAvailable: st.QuantityAvailable,
			Status:            status,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (v *queryView) LowStock(_ context.Context) ([]repository.LowStockRow, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var rows []repository.LowStockRow
	for _, p := range v.s.products {
		if !p.IsActive {
			continue
		}
		st := v.s.stocks[p.ID]
		if st.QuantityOnHand > p.ReorderLevel {
			continue
		}
		rows = append(rows, repository.LowStockRow{
			ProductID:      p.ID,
			SKU:            p.SKU,
			Name:           p.Name,
			ReorderLevel:   p.ReorderLevel,
			QuantityOnHand: st.QuantityOnHand,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].QuantityOnHand != rows[j].QuantityOnHand {
			return rows[i].QuantityOnHand < rows[j].QuantityOnHand
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

// page aplica limit/offset sobre un slice ya ordenado.
func page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// SeedProduct registra un producto con su fila de saldo en cero. Helper de tests.
func (s *Store) SeedProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	s.stocks[p.ID] = entity.Stock{ProductID: p.ID}
}

// Ledger devuelve una copia del ledger completo en orden de inserción.
func (s *Store) Ledger() []entity.StockTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.StockTransaction, len(s.ledger))
	copy(out, s.ledger)
	return out
}
