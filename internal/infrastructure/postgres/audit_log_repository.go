package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo sink de auditoría sobre PostgreSQL. Escribe siempre contra el
// pool, nunca dentro de la transacción del ledger: la durabilidad de la
// auditoría está desacoplada de la del ledger por diseño.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador. Pasar el pool.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Record persiste un hecho de auditoría.
func (r *AuditLogRepo) Record(ctx context.Context, log *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, old_values, new_values, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		log.ID, log.UserID, log.Action, log.EntityType, log.EntityID,
		log.OldValues, log.NewValues, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record audit log: %w", err)
	}
	return nil
}

// ListByEntity lista hechos de auditoría de una entidad, más reciente primero.
func (r *AuditLogRepo) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]*entity.AuditLog, error) {
	query := `
		SELECT id, user_id, action, entity_type, entity_id, old_values, new_values, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, entityType, entityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var list []*entity.AuditLog
	for rows.Next() {
		var l entity.AuditLog
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Action, &l.EntityType, &l.EntityID,
			&l.OldValues, &l.NewValues, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
