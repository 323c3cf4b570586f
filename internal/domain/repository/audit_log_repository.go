package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// AuditLogRepository define el puerto del colaborador de auditoría.
// Una sola operación de escritura; el core no depende de su resultado.
type AuditLogRepository interface {
	Record(ctx context.Context, log *entity.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]*entity.AuditLog, error)
}
