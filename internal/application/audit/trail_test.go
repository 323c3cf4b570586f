package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/audit"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

func TestGetTrail_DevuelveSoloLaEntidadMasRecientePrimero(t *testing.T) {
	sink := memory.NewAuditRepo()
	emitter := audit.NewEmitter(sink, logger.Nop())

	emitter.Emit(audit.Fact{Actor: "user-1", Action: "STOCK_IN", EntityType: "Stock", EntityID: "prod-1"})
	emitter.Close()
	emitter.Emit(audit.Fact{Actor: "user-1", Action: "STOCK_OUT", EntityType: "Stock", EntityID: "prod-1"})
	emitter.Close()
	emitter.Emit(audit.Fact{Actor: "user-2", Action: "STOCK_IN", EntityType: "Stock", EntityID: "prod-2"})
	emitter.Close()

	trail := audit.NewTrailUseCase(sink)
	logs, err := trail.GetTrail(context.Background(), "", "prod-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "STOCK_OUT", logs[0].Action, "el rastro sale del más reciente al más antiguo")
	assert.Equal(t, "STOCK_IN", logs[1].Action)
}

func TestGetTrail_EntidadVaciaEsInvalida(t *testing.T) {
	trail := audit.NewTrailUseCase(memory.NewAuditRepo())

	_, err := trail.GetTrail(context.Background(), "Stock", "", 50, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
