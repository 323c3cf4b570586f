package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-ledger-api/internal/application/audit"
	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repos atados al pool (lecturas y CRUD fuera de unidades atómicas).
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	stockTxRepo := postgres.NewStockTransactionRepository(pool)
	stockQueryRepo := postgres.NewStockQueryRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Auditoría post-commit, best-effort.
	emitter := audit.NewEmitter(auditRepo, log)

	recorderUC := ledger.NewRecordTransactionUseCase(txRunner, productRepo, emitter, log)
	stockQueryUC := ledger.NewStockQueryUseCase(stockRepo, stockTxRepo, stockQueryRepo)
	productUC := usecase.NewProductUseCase(productRepo, txRunner)
	categoryUC := usecase.NewCategoryUseCase(categoryRepo)
	supplierUC := usecase.NewSupplierUseCase(supplierRepo)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	app.Use(recover.New())

	if cfg.App.Env != "production" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Recorder:   recorderUC,
		StockQuery: stockQueryUC,
		ProductUC:  productUC,
		CategoryUC: categoryUC,
		SupplierUC: supplierUC,
		AuthUC:     authUC,
		AuditTrail: audit.NewTrailUseCase(auditRepo),
		Metrics:    httpRouter.NewMetrics(),
		JWTSecret:  cfg.JWT.Secret,
	})

	// Apagado ordenado: deja de aceptar peticiones, drena las emisiones de
	// auditoría pendientes y recién entonces cierra el pool.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("apagando servidor")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("apagado del servidor HTTP")
		}
		emitter.Close()
	}()

	addr := cfg.HTTP.Addr()
	log.Info().Str("addr", addr).Msg("servidor HTTP escuchando")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("servidor HTTP")
	}
}
