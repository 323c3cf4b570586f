package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/audit"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

const handlerTestProductID = "00000000-0000-0000-0000-0000000000bb"

// buildAPI monta la API completa sobre el store en memoria, con un producto
// activo sembrado. Devuelve la app y el store para inspeccionar estado.
func buildAPI(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedProduct(entity.Product{
		ID:           handlerTestProductID,
		SKU:          "SKU-100",
		Name:         "Cinta métrica",
		ReorderLevel: 3,
		IsActive:     true,
	})

	emitter := audit.NewEmitter(memory.NewAuditRepo(), logger.Nop())
	recorder := ledger.NewRecordTransactionUseCase(store, store.Products(), emitter, logger.Nop())
	query := ledger.NewStockQueryUseCase(store.Stocks(), store.Transactions(), store.Queries())
	productUC := usecase.NewProductUseCase(store.Products(), store)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Recorder:   recorder,
		StockQuery: query,
		ProductUC:  productUC,
		JWTSecret:  testJWTSecret,
	})
	return app, store
}

// doJSON lanza una petición con body JSON y token del rol dado.
func doJSON(t *testing.T, app *fiber.App, method, path, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestStockIn_Como_Storekeeper_Retorna201(t *testing.T) {
	app, store := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/in", entity.RoleStorekeeper, fiber.Map{
		"product_id":       handlerTestProductID,
		"quantity":         10,
		"reference_number": "PO-77",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, entity.TxTypeStockIn, body["transaction_type"])
	assert.Equal(t, float64(10), body["quantity"])
	assert.Equal(t, testUserID, body["created_by"], "el actor sale del token, no del body")

	require.Len(t, store.Ledger(), 1)
}

func TestStockIn_Como_Staff_Retorna403(t *testing.T) {
	app, store := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/in", entity.RoleStaff, fiber.Map{
		"product_id": handlerTestProductID,
		"quantity":   10,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, store.Ledger())
}

func TestStockOut_Insuficiente_Retorna409ConDetalle(t *testing.T) {
	app, _ := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/in", entity.RoleAdmin, fiber.Map{
		"product_id": handlerTestProductID,
		"quantity":   6,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/stock/out", entity.RoleAdmin, fiber.Map{
		"product_id": handlerTestProductID,
		"quantity":   100,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Equal(t, float64(6), body["available"])
	assert.Equal(t, float64(100), body["requested"])
}

func TestStockOut_CantidadInvalida_Retorna400(t *testing.T) {
	app, _ := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/out", entity.RoleAdmin, fiber.Map{
		"product_id": handlerTestProductID,
		"quantity":   0,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStockIn_ProductoInexistente_Retorna404(t *testing.T) {
	app, _ := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/in", entity.RoleAdmin, fiber.Map{
		"product_id": "no-existe",
		"quantity":   1,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdjust_SoloAdmin(t *testing.T) {
	app, store := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/adjust", entity.RoleStorekeeper, fiber.Map{
		"product_id":   handlerTestProductID,
		"new_quantity": 30,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "ajustes absolutos son solo de Admin")

	resp = doJSON(t, app, http.MethodPost, "/api/stock/adjust", entity.RoleAdmin, fiber.Map{
		"product_id":   handlerTestProductID,
		"new_quantity": 30,
		"notes":        "conteo físico",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(30), body["quantity_on_hand"])

	txs := store.Ledger()
	require.Len(t, txs, 1)
	assert.Equal(t, entity.TxTypeAdjustment, txs[0].Type)
	assert.Equal(t, entity.DirectionIncrease, txs[0].Direction)
}

func TestGetBalance_YSummary_AccesiblesParaStaff(t *testing.T) {
	app, _ := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/in", entity.RoleAdmin, fiber.Map{
		"product_id": handlerTestProductID,
		"quantity":   2,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	path := fmt.Sprintf("/api/stock/product/%s", handlerTestProductID)
	resp = doJSON(t, app, http.MethodGet, path, entity.RoleStaff, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["quantity_on_hand"])

	resp = doJSON(t, app, http.MethodGet, "/api/stock/summary", entity.RoleStaff, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Low", rows[0]["status"], "2 unidades con reorden en 3 debe marcar Low")
}

func TestHistory_DevuelveLasTransaccionesDelProducto(t *testing.T) {
	app, _ := buildAPI(t)

	for _, q := range []int{5, 7} {
		resp := doJSON(t, app, http.MethodPost, "/api/stock/in", entity.RoleAdmin, fiber.Map{
			"product_id": handlerTestProductID,
			"quantity":   q,
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	path := fmt.Sprintf("/api/stock/product/%s/history", handlerTestProductID)
	resp := doJSON(t, app, http.MethodGet, path, entity.RoleStaff, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 2)
	assert.Equal(t, float64(7), rows[0]["quantity"], "más reciente primero")
	assert.Equal(t, "SKU-100", rows[0]["sku"])
}

func TestSinToken_Retorna401(t *testing.T) {
	app, _ := buildAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stock/summary", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
