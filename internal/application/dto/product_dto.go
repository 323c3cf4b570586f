package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	CategoryID   string          `json:"category_id,omitempty"`
	SupplierID   string          `json:"supplier_id,omitempty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	ReorderLevel int64           `json:"reorder_level"`
}

// UpdateProductRequest body para PUT /api/products/:id. Campos opcionales.
type UpdateProductRequest struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	CategoryID   *string          `json:"category_id,omitempty"`
	SupplierID   *string          `json:"supplier_id,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	ReorderLevel *int64           `json:"reorder_level,omitempty"`
}

// ProductResponse representación HTTP de un producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	CategoryID   string          `json:"category_id,omitempty"`
	SupplierID   string          `json:"supplier_id,omitempty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	ReorderLevel int64           `json:"reorder_level"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToProductResponse mapea la entidad al DTO.
func ToProductResponse(p *entity.Product) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		CategoryID:   p.CategoryID,
		SupplierID:   p.SupplierID,
		UnitCost:     p.UnitCost,
		SellingPrice: p.SellingPrice,
		ReorderLevel: p.ReorderLevel,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
