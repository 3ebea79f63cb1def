package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	_ "github.com/jhoicas/inventario-ledger/docs"
	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/application/auth"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	infracache "github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/inventario-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/spreadsheet"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// storage repositorios y runner de transacciones del driver elegido.
type storage struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	receipts   repository.StockReceiptRepository
	sales      repository.SaleRecordRepository
	txRunner   inventory.TxRunner
	ping       func(context.Context) error
	close      func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.App.StorageDriver == "memory" {
		log.Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
		store := memory.New()
		return &storage{
			categories: store.Categories(),
			products:   store.Products(),
			receipts:   store.StockReceipts(),
			sales:      store.Sales(),
			txRunner:   memory.NewTxRunner(store),
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &storage{
		categories: postgres.NewCategoryRepository(pool),
		products:   postgres.NewProductRepository(pool),
		receipts:   postgres.NewStockReceiptRepository(pool),
		sales:      postgres.NewSaleRecordRepository(pool),
		txRunner:   postgres.NewTxRunner(pool),
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}

// @title                       Inventario Ledger API
// @version                     1.0
// @description                 Categorías, productos, recepciones de stock, ventas y dashboard del inventario.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
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
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión al almacenamiento")
	}
	defer store.close()

	// Caché del dashboard: opcional, solo con REDIS_ADDR.
	var dashboardCache ports.DashboardCache = ports.NoopDashboardCache{}
	cacheTTL := time.Duration(0)
	if cfg.Redis.Addr != "" {
		rdb := infracache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible; el dashboard se recalcula en cada petición")
		}
		dashboardCache = infracache.NewRedisDashboardCache(rdb)
		cacheTTL = cfg.Redis.TTL
	}

	promMetrics := metrics.NewDefault()

	ledgerUC := inventory.NewLedgerUseCase(store.txRunner, store.receipts, store.sales, inventory.LedgerConfig{
		ReversalCost: inventory.ReversalCostPolicy(cfg.Inventory.ReversalCost),
		Cache:        dashboardCache,
		Metrics:      promMetrics,
		Logger:       log.Component("ledger"),
	})
	catalogDeps := usecase.CatalogDeps{Cache: dashboardCache, Logger: log.Component("catalog")}
	categoryUC := usecase.NewCategoryUseCase(store.categories, store.products, catalogDeps)
	productUC := usecase.NewProductUseCase(store.products, store.categories, catalogDeps)
	dashboardUC := appanalytics.NewDashboardUseCase(store.products, store.categories, store.sales, appanalytics.DashboardConfig{
		LowStockThreshold: decimal.NewNullDecimal(decimal.NewFromInt(int64(cfg.Inventory.LowStockThreshold))),
		CacheTTL:          cacheTTL,
		Cache:             dashboardCache,
		Renderers: []ports.DashboardRenderer{
			infrapdf.NewDashboardPDF(cfg.App.Name),
			spreadsheet.NewDashboardXLSX(),
		},
		Logger: log.Component("dashboard"),
	})
	authUC := auth.NewAuthUseCase(
		auth.AdminCredentials{Email: cfg.Auth.AdminEmail, PasswordHash: cfg.Auth.AdminPasswordHash},
		auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		},
	)
	if cfg.Auth.AdminPasswordHash == "" {
		log.Warn().Msg("ADMIN_PASSWORD_HASH vacío: el login siempre responde 401")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(promMetrics.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := store.ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promMetrics.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		CategoryUC:  categoryUC,
		ProductUC:   productUC,
		LedgerUC:    ledgerUC,
		DashboardUC: dashboardUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
