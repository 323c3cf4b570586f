package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `product_id, quantity_on_hand, quantity_reserved, quantity_available, last_updated, last_updated_by`

// Get obtiene el saldo actual de un producto. Devuelve nil si no existe fila.
func (r *StockRepo) Get(ctx context.Context, productID string) (*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE product_id = $1`
	return r.scanOne(ctx, query, productID)
}

// GetForUpdate obtiene el saldo y bloquea la fila (SELECT ... FOR UPDATE).
// Serializa la secuencia leer-validar-escribir por producto; productos
// distintos no se bloquean entre sí.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE product_id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, productID)
}

func (r *StockRepo) scanOne(ctx context.Context, query, productID string) (*entity.Stock, error) {
	var s entity.Stock
	var lastUpdatedBy *string
	err := r.q.QueryRow(ctx, query, productID).Scan(
		&s.ProductID, &s.QuantityOnHand, &s.QuantityReserved, &s.QuantityAvailable,
		&s.LastUpdated, &lastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	if lastUpdatedBy != nil {
		s.LastUpdatedBy = *lastUpdatedBy
	}
	return &s, nil
}

// CreateZero crea la fila de saldo en cero para un producto recién creado.
func (r *StockRepo) CreateZero(ctx context.Context, productID, actor string) error {
	query := `
		INSERT INTO stock (product_id, quantity_on_hand, quantity_reserved, quantity_available, last_updated, last_updated_by)
		VALUES ($1, 0, 0, 0, now(), $2)`
	if _, err := r.q.Exec(ctx, query, productID, actor); err != nil {
		return fmt.Errorf("create zero stock: %w", err)
	}
	return nil
}

// UpdateBalance persiste el saldo completo del producto. El CHECK de la tabla
// respalda el invariante on_hand >= reserved >= 0 como última línea de defensa.
func (r *StockRepo) UpdateBalance(ctx context.Context, stock *entity.Stock) error {
	query := `
		UPDATE stock
		SET quantity_on_hand = $2,
		    quantity_reserved = $3,
		    quantity_available = $2 - $3,
		    last_updated = $4,
		    last_updated_by = $5
		WHERE product_id = $1`
	tag, err := r.q.Exec(ctx, query,
		stock.ProductID, stock.QuantityOnHand, stock.QuantityReserved,
		stock.LastUpdated, stock.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("update stock balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock balance: fila inexistente para producto %s", stock.ProductID)
	}
	return nil
}
