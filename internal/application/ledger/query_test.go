package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

func newQueryFixture(t *testing.T) (*fixture, *ledger.StockQueryUseCase) {
	t.Helper()
	f := newFixture(t)
	q := ledger.NewStockQueryUseCase(f.store.Stocks(), f.store.Transactions(), f.store.Queries())
	return f, q
}

func TestGetBalance_ProductoSinSaldoDevuelveNotFound(t *testing.T) {
	_, q := newQueryFixture(t)

	_, err := q.GetBalance(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetBalance_DevuelveElSaldoConfirmado(t *testing.T) {
	f, q := newQueryFixture(t)
	ctx := context.Background()
	f.seedBalance(t, 14, 3)

	stock, err := q.GetBalance(ctx, testProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(14), stock.QuantityOnHand)
	assert.Equal(t, int64(11), stock.QuantityAvailable)
}

func TestGetHistory_MasRecientePrimero(t *testing.T) {
	f, q := newQueryFixture(t)
	ctx := context.Background()

	_, err := f.recorder.RecordStockIn(ctx, testProductID, 10, "PO-1", "", testActor)
	require.NoError(t, err)
	_, err = f.recorder.RecordStockOut(ctx, testProductID, 2, "SO-1", "", testActor)
	require.NoError(t, err)

	rows, err := q.GetHistory(ctx, testProductID, 50, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, entity.TxTypeStockOut, rows[0].Tx.Type, "el historial sale del más reciente al más antiguo")
	assert.Equal(t, entity.TxTypeStockIn, rows[1].Tx.Type)
	assert.Equal(t, "SKU-001", rows[0].SKU, "cada fila viene enriquecida con datos del producto")
}

func TestGetSummary_MarcaLowBajoElPuntoDeReorden(t *testing.T) {
	f, q := newQueryFixture(t)
	ctx := context.Background()
	// El producto sembrado tiene reorder_level 5.
	f.seedBalance(t, 4, 0)

	f.store.SeedProduct(entity.Product{
		ID:           "p-ok",
		SKU:          "SKU-002",
		Name:         "Arandela",
		UnitCost:     decimal.NewFromInt(2),
		SellingPrice: decimal.NewFromInt(5),
		ReorderLevel: 1,
		IsActive:     true,
	})
	require.NoError(t, f.store.Stocks().UpdateBalance(ctx, &entity.Stock{
		ProductID: "p-ok", QuantityOnHand: 30, QuantityAvailable: 30,
	}))

	rows, err := q.GetSummary(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[string]string{}
	for _, r := range rows {
		byID[r.ProductID] = r.Status
	}
	assert.Equal(t, "Low", byID[testProductID])
	assert.Equal(t, "OK", byID["p-ok"])
}

func TestGetLowStock_OrdenAscendentePorOnHand(t *testing.T) {
	f, q := newQueryFixture(t)
	ctx := context.Background()
	f.seedBalance(t, 4, 0)

	f.store.SeedProduct(entity.Product{
		ID: "p-cero", SKU: "SKU-003", Name: "Tuerca", ReorderLevel: 5, IsActive: true,
	})
	f.store.SeedProduct(entity.Product{
		ID: "p-lleno", SKU: "SKU-004", Name: "Clavo", ReorderLevel: 5, IsActive: true,
	})
	require.NoError(t, f.store.Stocks().UpdateBalance(ctx, &entity.Stock{
		ProductID: "p-lleno", QuantityOnHand: 100, QuantityAvailable: 100,
	}))

	rows, err := q.GetLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2, "solo entran los que están en o bajo su punto de reorden")
	assert.Equal(t, "p-cero", rows[0].ProductID, "el más crítico (menos unidades) va primero")
	assert.Equal(t, testProductID, rows[1].ProductID)
}

func TestGetLowStock_SaleDeLaListaAlReponer(t *testing.T) {
	f, q := newQueryFixture(t)
	ctx := context.Background()
	f.seedBalance(t, 4, 0)

	rows, err := q.GetLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(4), rows[0].QuantityOnHand)

	_, err = f.recorder.RecordStockIn(ctx, testProductID, 10, "PO-9", "", testActor)
	require.NoError(t, err)

	rows, err = q.GetLowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows, "al superar el punto de reorden deja de ser crítico")
}
