package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/audit"
	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Recorder   *ledger.RecordTransactionUseCase
	StockQuery *ledger.StockQueryUseCase
	ProductUC  *usecase.ProductUseCase
	CategoryUC *usecase.CategoryUseCase
	SupplierUC *usecase.SupplierUseCase
	AuthUC     *auth.AuthUseCase
	AuditTrail *audit.TrailUseCase
	Metrics    *Metrics
	JWTSecret  string
}

// Router registra las rutas de la API.
//
// RBAC: entradas, salidas y devoluciones requieren Admin o Storekeeper; los
// ajustes absolutos solo Admin; la gestión de usuarios solo Admin. Las
// lecturas las puede hacer cualquier usuario autenticado.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", MetricsHandler())
	}

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	mutateStock := RequireRole(entity.RoleAdmin, entity.RoleStorekeeper)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Ledger de stock (protegido)
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.Recorder, deps.StockQuery, deps.Metrics)
	stock.Post("/in", mutateStock, stockHandler.StockIn)
	stock.Post("/out", mutateStock, stockHandler.StockOut)
	stock.Post("/return", mutateStock, stockHandler.Return)
	stock.Post("/adjust", adminOnly, stockHandler.Adjust)
	stock.Get("/summary", stockHandler.GetSummary)
	stock.Get("/product/:productId", stockHandler.GetBalance)
	stock.Get("/product/:productId/history", stockHandler.GetHistory)
	stock.Get("/transactions/all", stockHandler.GetAllHistory)

	// Catálogo (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/low-stock", stockHandler.GetLowStock)
	products.Post("/", mutateStock, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", mutateStock, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Deactivate)

	// Categorías (protegido)
	categories := protected.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories.Post("/", mutateStock, categoryHandler.Create)
	categories.Get("/", categoryHandler.List)
	categories.Put("/:id", mutateStock, categoryHandler.Update)
	categories.Delete("/:id", adminOnly, categoryHandler.Delete)

	// Proveedores (protegido)
	suppliers := protected.Group("/suppliers")
	supplierHandler := NewSupplierHandler(deps.SupplierUC)
	suppliers.Post("/", mutateStock, supplierHandler.Create)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Put("/:id", mutateStock, supplierHandler.Update)
	suppliers.Delete("/:id", adminOnly, supplierHandler.Deactivate)

	// Auditoría (solo Admin)
	auditHandler := NewAuditHandler(deps.AuditTrail)
	protected.Get("/audit/:entityId", adminOnly, auditHandler.GetTrail)

	// Usuarios (solo Admin)
	users := protected.Group("/users", adminOnly)
	users.Post("/", authHandler.CreateUser)
	users.Get("/", authHandler.ListUsers)
	users.Delete("/:id", authHandler.DeactivateUser)
}
