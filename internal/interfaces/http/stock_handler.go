package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP del ledger de stock (protegido).
type StockHandler struct {
	recorder *ledger.RecordTransactionUseCase
	query    *ledger.StockQueryUseCase
	metrics  *Metrics
}

// NewStockHandler construye el handler. metrics puede ser nil en tests.
func NewStockHandler(recorder *ledger.RecordTransactionUseCase, query *ledger.StockQueryUseCase, metrics *Metrics) *StockHandler {
	return &StockHandler{recorder: recorder, query: query, metrics: metrics}
}

func (h *StockHandler) countTx(txType string) {
	if h.metrics != nil {
		h.metrics.CountTransaction(txType)
	}
}

// stockError mapea errores de dominio del ledger a respuestas HTTP.
func stockError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "la cantidad debe ser un entero positivo"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "PRODUCT_NOT_FOUND", Message: "producto no encontrado o inactivo"})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:      "INSUFFICIENT_STOCK",
			Message:   "stock insuficiente",
			Available: &insufficient.Available,
			Requested: &insufficient.Requested,
		})
	case errors.Is(err, domain.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "almacenamiento no disponible, reintente"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// StockIn godoc
// @Summary      Registrar entrada de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockMovementRequest  true  "product_id, quantity, reference_number, notes"
// @Success      201   {object}  dto.StockTransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/in [post]
func (h *StockHandler) StockIn(c *fiber.Ctx) error {
	var in dto.StockMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	tx, err := h.recorder.RecordStockIn(c.Context(), in.ProductID, in.Quantity, in.ReferenceNumber, in.Notes, GetUserID(c))
	if err != nil {
		return stockError(c, err)
	}
	h.countTx(tx.Type)
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockTransactionResponse(tx))
}

// StockOut godoc
// @Summary      Registrar salida de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockMovementRequest  true  "product_id, quantity, reference_number, notes"
// @Success      201   {object}  dto.StockTransactionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/out [post]
func (h *StockHandler) StockOut(c *fiber.Ctx) error {
	var in dto.StockMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	tx, err := h.recorder.RecordStockOut(c.Context(), in.ProductID, in.Quantity, in.ReferenceNumber, in.Notes, GetUserID(c))
	if err != nil {
		return stockError(c, err)
	}
	h.countTx(tx.Type)
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockTransactionResponse(tx))
}

// Return godoc
// @Summary      Registrar devolución al proveedor
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockMovementRequest  true  "product_id, quantity, reference_number, notes"
// @Success      201   {object}  dto.StockTransactionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/return [post]
func (h *StockHandler) Return(c *fiber.Ctx) error {
	var in dto.StockMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	tx, err := h.recorder.RecordReturn(c.Context(), in.ProductID, in.Quantity, in.ReferenceNumber, in.Notes, GetUserID(c))
	if err != nil {
		return stockError(c, err)
	}
	h.countTx(tx.Type)
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockTransactionResponse(tx))
}

// Adjust godoc
// @Summary      Fijar on-hand absoluto (ajuste administrativo)
// @Description  Calcula la diferencia contra el saldo actual dentro de la misma
//               unidad atómica y registra una transacción Adjustment con su
//               dirección explícita. Si no hay diferencia, no registra nada.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, new_quantity, notes"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	stock, err := h.recorder.SetAbsolute(c.Context(), in.ProductID, in.NewQuantity, in.Notes, GetUserID(c))
	if err != nil {
		return stockError(c, err)
	}
	h.countTx(entity.TxTypeAdjustment)
	return c.JSON(dto.ToStockResponse(stock))
}

// GetBalance godoc
// @Summary      Saldo actual de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/product/{productId} [get]
func (h *StockHandler) GetBalance(c *fiber.Ctx) error {
	stock, err := h.query.GetBalance(c.Context(), c.Params("productId"))
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(dto.ToStockResponse(stock))
}

// GetHistory godoc
// @Summary      Historial de transacciones de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        limit      query  int     false  "Máximo de filas (default 50)"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.HistoryRowResponse
// @Router       /api/stock/product/{productId}/history [get]
func (h *StockHandler) GetHistory(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage(50)
	rows, err := h.query.GetHistory(c.Context(), c.Params("productId"), page.Limit, page.Offset)
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(dto.ToHistoryResponse(rows))
}

// GetAllHistory godoc
// @Summary      Historial global de transacciones
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        from    query  string  false  "Fecha inicial (RFC 3339)"
// @Param        to      query  string  false  "Fecha final (RFC 3339)"
// @Param        limit   query  int     false  "Máximo de filas (default 100)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.HistoryRowResponse
// @Router       /api/stock/transactions/all [get]
func (h *StockHandler) GetAllHistory(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage(100)

	from, err := parseTimeQuery(c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido, se espera RFC 3339"})
	}
	to, err := parseTimeQuery(c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido, se espera RFC 3339"})
	}

	rows, err := h.query.GetAllHistory(c.Context(), from, to, page.Limit, page.Offset)
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(dto.ToHistoryResponse(rows))
}

// GetSummary godoc
// @Summary      Resumen de inventario
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SummaryRowResponse
// @Router       /api/stock/summary [get]
func (h *StockHandler) GetSummary(c *fiber.Ctx) error {
	rows, err := h.query.GetSummary(c.Context())
	if err != nil {
		return stockError(c, err)
	}
	out := make([]dto.SummaryRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.SummaryRowResponse{
			ProductID:         r.ProductID,
			SKU:               r.SKU,
			Name:              r.Name,
			CategoryName:      r.CategoryName,
			UnitCost:          r.UnitCost,
			SellingPrice:      r.SellingPrice,
			ReorderLevel:      r.ReorderLevel,
			QuantityOnHand:    r.QuantityOnHand,
			QuantityReserved:  r.QuantityReserved,
			QuantityAvailable: r.QuantityAvailable,
			Status:            r.Status,
		})
	}
	return c.JSON(out)
}

// GetLowStock godoc
// @Summary      Productos en o bajo su punto de reorden
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.LowStockRowResponse
// @Router       /api/products/low-stock [get]
func (h *StockHandler) GetLowStock(c *fiber.Ctx) error {
	rows, err := h.query.GetLowStock(c.Context())
	if err != nil {
		return stockError(c, err)
	}
	out := make([]dto.LowStockRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.LowStockRowResponse{
			ProductID:      r.ProductID,
			SKU:            r.SKU,
			Name:           r.Name,
			CategoryName:   r.CategoryName,
			ReorderLevel:   r.ReorderLevel,
			QuantityOnHand: r.QuantityOnHand,
		})
	}
	return c.JSON(out)
}

// parseTimeQuery parsea un query param de fecha opcional en RFC 3339.
func parseTimeQuery(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
