package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// AuditRepo sink de auditoría en memoria. Concurrente: el Emitter escribe
// desde goroutines propias.
type AuditRepo struct {
	mu   sync.Mutex
	logs []entity.AuditLog

	FailRecord error // inyección de fallos para el test de best-effort
}

var _ repository.AuditLogRepository = (*AuditRepo)(nil)

func NewAuditRepo() *AuditRepo { return &AuditRepo{} }

func (r *AuditRepo) Record(_ context.Context, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailRecord != nil {
		return r.FailRecord
	}
	r.logs = append(r.logs, *log)
	return nil
}

func (r *AuditRepo) ListByEntity(_ context.Context, entityType, entityID string, limit, offset int) ([]*entity.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []*entity.AuditLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if l.EntityType != entityType || l.EntityID != entityID {
			continue
		}
		rows = append(rows, &l)
	}
	return page(rows, limit, offset), nil
}

// Logs devuelve una copia de todos los hechos registrados, en orden de llegada.
func (r *AuditRepo) Logs() []entity.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.AuditLog, len(r.logs))
	copy(out, r.logs)
	return out
}
