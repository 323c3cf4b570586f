package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// StockMovementRequest body para POST /api/stock/in, /out y /return.
type StockMovementRequest struct {
	ProductID       string `json:"product_id"`
	Quantity        int64  `json:"quantity"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// AdjustStockRequest body para POST /api/stock/adjust (fijar on-hand absoluto).
type AdjustStockRequest struct {
	ProductID   string `json:"product_id"`
	NewQuantity int64  `json:"new_quantity"`
	Notes       string `json:"notes,omitempty"`
}

// StockResponse saldo actual de un producto.
type StockResponse struct {
	ProductID         string    `json:"product_id"`
	QuantityOnHand    int64     `json:"quantity_on_hand"`
	QuantityReserved  int64     `json:"quantity_reserved"`
	QuantityAvailable int64     `json:"quantity_available"`
	LastUpdated       time.Time `json:"last_updated"`
	LastUpdatedBy     string    `json:"last_updated_by,omitempty"`
}

// ToStockResponse mapea la entidad al DTO.
func ToStockResponse(s *entity.Stock) StockResponse {
	return StockResponse{
		ProductID:         s.ProductID,
		QuantityOnHand:    s.QuantityOnHand,
		QuantityReserved:  s.QuantityReserved,
		QuantityAvailable: s.QuantityAvailable,
		LastUpdated:       s.LastUpdated,
		LastUpdatedBy:     s.LastUpdatedBy,
	}
}

// StockTransactionResponse una entrada del ledger.
type StockTransactionResponse struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	TransactionType string    `json:"transaction_type"`
	Direction       string    `json:"direction,omitempty"`
	Quantity        int64     `json:"quantity"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToStockTransactionResponse mapea la entidad al DTO.
func ToStockTransactionResponse(t *entity.StockTransaction) StockTransactionResponse {
	return StockTransactionResponse{
		ID:              t.ID,
		ProductID:       t.ProductID,
		TransactionType: t.Type,
		Direction:       t.Direction,
		Quantity:        t.Quantity,
		ReferenceNumber: t.ReferenceNumber,
		Notes:           t.Notes,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
	}
}

// HistoryRowResponse transacción enriquecida para los listados de historial.
type HistoryRowResponse struct {
	StockTransactionResponse
	SKU           string `json:"sku"`
	ProductName   string `json:"product_name"`
	CreatedByName string `json:"created_by_name,omitempty"`
}

// ToHistoryResponse mapea las filas de historial al DTO.
func ToHistoryResponse(rows []repository.HistoryRow) []HistoryRowResponse {
	out := make([]HistoryRowResponse, 0, len(rows))
	for i := range rows {
		out = append(out, HistoryRowResponse{
			StockTransactionResponse: ToStockTransactionResponse(&rows[i].Tx),
			SKU:                      rows[i].SKU,
			ProductName:              rows[i].ProductName,
			CreatedByName:            rows[i].CreatedByName,
		})
	}
	return out
}

// SummaryRowResponse fila del resumen de inventario.
type SummaryRowResponse struct {
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	CategoryName      string          `json:"category_name,omitempty"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	ReorderLevel      int64           `json:"reorder_level"`
	QuantityOnHand    int64           `json:"quantity_on_hand"`
	QuantityReserved  int64           `json:"quantity_reserved"`
	QuantityAvailable int64           `json:"quantity_available"`
	Status            string          `json:"status"`
}

// LowStockRowResponse producto bajo su punto de reorden.
type LowStockRowResponse struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	CategoryName   string `json:"category_name,omitempty"`
	ReorderLevel   int64  `json:"reorder_level"`
	QuantityOnHand int64  `json:"quantity_on_hand"`
}
