package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/application/auth"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	CategoryUC  *usecase.CategoryUseCase
	ProductUC   *usecase.ProductUseCase
	LedgerUC    *inventory.LedgerUseCase
	DashboardUC *appanalytics.DashboardUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token de administrador)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireRole(auth.RoleAdmin))

	categories := protected.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories.Get("/", categoryHandler.List)
	categories.Post("/", categoryHandler.Create)
	categories.Get("/:id", categoryHandler.GetByID)
	categories.Put("/:id", categoryHandler.Update)
	categories.Delete("/:id", categoryHandler.Delete)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	ledgerHandler := NewLedgerHandler(deps.LedgerUC)

	receipts := protected.Group("/stock-receipts")
	receipts.Get("/", ledgerHandler.ListStockReceipts)
	receipts.Post("/", ledgerHandler.RecordStockReceipt)
	receipts.Get("/:id", ledgerHandler.GetStockReceipt)
	receipts.Delete("/:id", ledgerHandler.ReverseStockReceipt)

	sales := protected.Group("/sales")
	sales.Get("/", ledgerHandler.ListSales)
	sales.Post("/", ledgerHandler.RecordSale)
	sales.Get("/:id", ledgerHandler.GetSale)
	sales.Delete("/:id", ledgerHandler.ReverseSale)

	dashboard := protected.Group("/dashboard")
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	dashboard.Get("/", dashboardHandler.GetSummary)
	dashboard.Get("/report.:format", dashboardHandler.GetReport)
}
