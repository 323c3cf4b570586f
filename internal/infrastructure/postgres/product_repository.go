package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación de ProductRepository sobre PostgreSQL (pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, name, description, category_id, supplier_id, unit_cost, selling_price, reorder_level, is_active, created_at, updated_at`

// Create persiste un producto nuevo.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.Description, nullable(p.CategoryID), nullable(p.SupplierID),
		p.UnitCost, p.SellingPrice, p.ReorderLevel, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID. Devuelve nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetBySKU obtiene un producto por SKU. Devuelve nil si no existe.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	return r.scanOne(ctx, query, sku)
}

func (r *ProductRepo) scanOne(ctx context.Context, query string, arg any) (*entity.Product, error) {
	var p entity.Product
	var categoryID, supplierID *string
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &categoryID, &supplierID,
		&p.UnitCost, &p.SellingPrice, &p.ReorderLevel, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if categoryID != nil {
		p.CategoryID = *categoryID
	}
	if supplierID != nil {
		p.SupplierID = *supplierID
	}
	return &p, nil
}

// List lista productos activos paginados, ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = true ORDER BY name ASC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		var categoryID, supplierID *string
		if err := rows.Scan(
			&p.ID, &p.SKU, &p.Name, &p.Description, &categoryID, &supplierID,
			&p.UnitCost, &p.SellingPrice, &p.ReorderLevel, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if categoryID != nil {
			p.CategoryID = *categoryID
		}
		if supplierID != nil {
			p.SupplierID = *supplierID
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// Update actualiza los campos editables del producto (no toca el stock).
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, category_id = $4, supplier_id = $5,
		    unit_cost = $6, selling_price = $7, reorder_level = $8, updated_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Description, nullable(p.CategoryID), nullable(p.SupplierID),
		p.UnitCost, p.SellingPrice, p.ReorderLevel, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Deactivate desactiva un producto. Su fila de stock queda intacta para
// consultas históricas.
func (r *ProductRepo) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE products SET is_active = false, updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	return nil
}

// nullable convierte "" en NULL para columnas FK opcionales.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
