package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// AuditLogResponse hecho de auditoría para el rastro de una entidad.
type AuditLogResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	OldValues  json.RawMessage `json:"old_values,omitempty"`
	NewValues  json.RawMessage `json:"new_values,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ToAuditResponse mapea hechos de auditoría al DTO.
func ToAuditResponse(logs []*entity.AuditLog) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, AuditLogResponse{
			ID:         l.ID,
			UserID:     l.UserID,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			OldValues:  l.OldValues,
			NewValues:  l.NewValues,
			CreatedAt:  l.CreatedAt,
		})
	}
	return out
}
