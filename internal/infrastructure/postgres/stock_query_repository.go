package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StockQueryRepository = (*StockQueryRepo)(nil)

// StockQueryRepo consultas de solo lectura sobre saldos + catálogo.
// Siempre va contra el pool: nunca participa de una transacción mutante.
type StockQueryRepo struct {
	pool *pgxpool.Pool
}

// NewStockQueryRepository construye el adaptador de consultas.
func NewStockQueryRepository(pool *pgxpool.Pool) *StockQueryRepo {
	return &StockQueryRepo{pool: pool}
}

// Summary productos activos con saldos y estado Low/OK, ordenados por nombre.
func (r *StockQueryRepo) Summary(ctx context.Context) ([]repository.SummaryRow, error) {
	const query = `
	SELECT
	    p.id,
	    p.sku,
	    p.name,
	    COALESCE(c.name, '')                    AS category_name,
	    p.unit_cost,
	    p.selling_price,
	    p.reorder_level,
	    COALESCE(s.quantity_on_hand, 0)         AS quantity_on_hand,
	    COALESCE(s.quantity_reserved, 0)        AS quantity_reserved,
	    COALESCE(s.quantity_available, 0)       AS quantity_available,
	    CASE
	        WHEN COALESCE(s.quantity_on_hand, 0) <= p.reorder_level THEN 'Low'
	        ELSE 'OK'
	    END                                     AS status
	FROM products p
	LEFT JOIN stock s      ON s.product_id = p.id
	LEFT JOIN categories c ON c.id = p.category_id
	WHERE p.is_active = true
	ORDER BY p.name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stock summary: %w", err)
	}
	defer rows.Close()

	var results []repository.SummaryRow
	for rows.Next() {
		var row repository.SummaryRow
		if err := rows.Scan(
			&row.ProductID, &row.SKU, &row.Name, &row.CategoryName,
			&row.UnitCost, &row.SellingPrice, &row.ReorderLevel,
			&row.QuantityOnHand, &row.QuantityReserved, &row.QuantityAvailable,
			&row.Status,
		); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// LowStock productos activos con on_hand <= reorder_level, los más críticos primero.
func (r *StockQueryRepo) LowStock(ctx context.Context) ([]repository.LowStockRow, error) {
	const query = `
	SELECT
	    p.id,
	    p.sku,
	    p.name,
	    COALESCE(c.name, '')              AS category_name,
	    p.reorder_level,
	    COALESCE(s.quantity_on_hand, 0)   AS quantity_on_hand
	FROM products p
	LEFT JOIN stock s      ON s.product_id = p.id
	LEFT JOIN categories c ON c.id = p.category_id
	WHERE p.is_active = true
	  AND COALESCE(s.quantity_on_hand, 0) <= p.reorder_level
	ORDER BY quantity_on_hand ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	defer rows.Close()

	var results []repository.LowStockRow
	for rows.Next() {
		var row repository.LowStockRow
		if err := rows.Scan(
			&row.ProductID, &row.SKU, &row.Name, &row.CategoryName,
			&row.ReorderLevel, &row.QuantityOnHand,
		); err != nil {
			return nil, fmt.Errorf("scan low stock row: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
