package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// Fact hecho de auditoría: quién hizo qué sobre qué saldo, con el antes y el después.
type Fact struct {
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Before     any
	After      any
}

// Emitter envía hechos de auditoría al sink de forma asíncrona y best-effort.
// Se invoca estrictamente después del commit del ledger y fuera de todo lock:
// un fallo aquí se loguea y jamás revierte la mutación ya confirmada.
type Emitter struct {
	sink    repository.AuditLogRepository
	log     *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewEmitter construye el emisor. timeout acota cada emisión en background.
func NewEmitter(sink repository.AuditLogRepository, log *logger.Logger) *Emitter {
	return &Emitter{sink: sink, log: log, timeout: 5 * time.Second}
}

// Emit registra el hecho en background. No devuelve error: el ledger ya
// confirmó y la auditoría no puede bloquearlo ni revertirlo.
func (e *Emitter) Emit(fact Fact) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		before, _ := json.Marshal(fact.Before)
		after, _ := json.Marshal(fact.After)
		log := &entity.AuditLog{
			ID:         uuid.New().String(),
			UserID:     fact.Actor,
			Action:     fact.Action,
			EntityType: fact.EntityType,
			EntityID:   fact.EntityID,
			OldValues:  before,
			NewValues:  after,
			CreatedAt:  time.Now(),
		}
		if err := e.sink.Record(ctx, log); err != nil {
			e.log.Error().Err(err).
				Str("action", fact.Action).
				Str("entity_id", fact.EntityID).
				Str("actor", fact.Actor).
				Msg("emisión de auditoría falló; la mutación del ledger ya está confirmada")
		}
	}()
}

// Close espera a que terminen las emisiones pendientes (apagado ordenado).
func (e *Emitter) Close() {
	e.wg.Wait()
}
