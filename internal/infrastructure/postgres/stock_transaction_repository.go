package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StockTransactionRepository = (*StockTransactionRepo)(nil)

// StockTransactionRepo persistencia del ledger sobre PostgreSQL (pool o tx).
// Solo INSERT y SELECT: el ledger es append-only.
type StockTransactionRepo struct {
	q Querier
}

// NewStockTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransactionRepository(q Querier) *StockTransactionRepo {
	return &StockTransactionRepo{q: q}
}

// Create persiste una transacción de stock.
func (r *StockTransactionRepo) Create(ctx context.Context, tx *entity.StockTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_transactions (id, product_id, transaction_type, direction, quantity, reference_number, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	direction := (*string)(nil)
	if tx.Direction != "" {
		direction = &tx.Direction
	}
	_, err := r.q.Exec(ctx, query,
		tx.ID, tx.ProductID, tx.Type, direction, tx.Quantity,
		tx.ReferenceNumber, tx.Notes, tx.CreatedBy, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock transaction: %w", err)
	}
	return nil
}

const historySelect = `
	SELECT st.id, st.product_id, st.transaction_type, st.direction, st.quantity,
	       st.reference_number, st.notes, st.created_by, st.created_at,
	       p.sku, p.name, COALESCE(u.username, '')
	FROM stock_transactions st
	JOIN products p ON p.id = st.product_id
	LEFT JOIN users u ON u.id = st.created_by`

// ListByProduct lista las transacciones de un producto, más reciente primero.
func (r *StockTransactionRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]repository.HistoryRow, error) {
	query := historySelect + `
	WHERE st.product_id = $1
	ORDER BY st.created_at DESC
	LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions by product: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

// ListAll lista transacciones de todos los productos en un rango opcional de fechas.
func (r *StockTransactionRepo) ListAll(ctx context.Context, from, to *time.Time, limit, offset int) ([]repository.HistoryRow, error) {
	query := historySelect + ` WHERE 1=1`
	args := []any{}
	pos := 1
	if from != nil {
		query += fmt.Sprintf(" AND st.created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND st.created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY st.created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

func scanHistory(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]repository.HistoryRow, error) {
	var list []repository.HistoryRow
	for rows.Next() {
		var h repository.HistoryRow
		var direction, reference, notes *string
		if err := rows.Scan(
			&h.Tx.ID, &h.Tx.ProductID, &h.Tx.Type, &direction, &h.Tx.Quantity,
			&reference, &notes, &h.Tx.CreatedBy, &h.Tx.CreatedAt,
			&h.SKU, &h.ProductName, &h.CreatedByName,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if direction != nil {
			h.Tx.Direction = *direction
		}
		if reference != nil {
			h.Tx.ReferenceNumber = *reference
		}
		if notes != nil {
			h.Tx.Notes = *notes
		}
		list = append(list, h)
	}
	return list, rows.Err()
}
