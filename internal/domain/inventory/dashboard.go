package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold stock en o por debajo del cual un producto se marca para reposición.
var DefaultLowStockThreshold = decimal.NewFromInt(5)

// DefaultRecentSales número de ventas recientes en el dashboard.
const DefaultRecentSales = 5

// BuildDashboard calcula el resumen del inventario. Función pura: no falla ni modifica la entrada.
// LowStockProducts conserva el orden de products; RecentSales va de la más nueva a la más antigua.
func BuildDashboard(
	products []entity.Product,
	categoryCount int,
	sales []entity.SaleRecord,
	threshold decimal.Decimal,
	recentLimit int,
	now time.Time,
) entity.DashboardSnapshot {
	snap := entity.DashboardSnapshot{
		TotalProducts:     len(products),
		TotalCategories:   categoryCount,
		TotalStock:        decimal.Zero,
		TotalSales:        len(sales),
		TotalRevenue:      decimal.Zero,
		TotalProfit:       decimal.Zero,
		LowStockThreshold: threshold,
		LowStockProducts:  []entity.Product{},
		RecentSales:       []entity.SaleRecord{},
		GeneratedAt:       now,
	}
	for i := range products {
		snap.TotalStock = snap.TotalStock.Add(products[i].QuantityOnHand)
		if products[i].IsLowStock(threshold) {
			snap.LowStockProducts = append(snap.LowStockProducts, products[i])
		}
	}
	for i := range sales {
		snap.TotalRevenue = snap.TotalRevenue.Add(sales[i].TotalRevenue)
		snap.TotalProfit = snap.TotalProfit.Add(sales[i].Profit)
	}

	if recentLimit > 0 && len(sales) > 0 {
		recent := make([]entity.SaleRecord, len(sales))
		copy(recent, sales)
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		})
		if len(recent) > recentLimit {
			recent = recent[:recentLimit]
		}
		snap.RecentSales = recent
	}
	return snap
}
