package audit

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TrailUseCase lectura del rastro de auditoría de una entidad.
type TrailUseCase struct {
	repo repository.AuditLogRepository
}

func NewTrailUseCase(repo repository.AuditLogRepository) *TrailUseCase {
	return &TrailUseCase{repo: repo}
}

// GetTrail devuelve los hechos de auditoría de una entidad, más reciente
// primero. entityType vacío se interpreta como "Stock".
func (uc *TrailUseCase) GetTrail(ctx context.Context, entityType, entityID string, limit, offset int) ([]*entity.AuditLog, error) {
	if entityID == "" {
		return nil, domain.ErrInvalidInput
	}
	if entityType == "" {
		entityType = "Stock"
	}
	return uc.repo.ListByEntity(ctx, entityType, entityID, limit, offset)
}
