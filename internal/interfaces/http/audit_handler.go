package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/audit"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// AuditHandler consulta del rastro de auditoría.
type AuditHandler struct {
	trail *audit.TrailUseCase
}

func NewAuditHandler(trail *audit.TrailUseCase) *AuditHandler {
	return &AuditHandler{trail: trail}
}

// GetTrail godoc
// @Summary      Rastro de auditoría de una entidad
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        entityId     path   string  true   "ID de la entidad (product_id para Stock)"
// @Param        entity_type  query  string  false  "Tipo de entidad (default Stock)"
// @Param        limit        query  int     false  "Máximo de filas (default 50)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.AuditLogResponse
// @Router       /api/audit/{entityId} [get]
func (h *AuditHandler) GetTrail(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage(50)

	logs, err := h.trail.GetTrail(c.Context(), c.Query("entity_type"), c.Params("entityId"), page.Limit, page.Offset)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
	return c.JSON(dto.ToAuditResponse(logs))
}
