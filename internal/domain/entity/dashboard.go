package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSnapshot agregados del inventario; se recalcula bajo demanda, no se persiste.
type DashboardSnapshot struct {
	TotalProducts     int
	TotalCategories   int
	TotalStock        decimal.Decimal
	TotalSales        int
	TotalRevenue      decimal.Decimal
	TotalProfit       decimal.Decimal
	LowStockThreshold decimal.Decimal
	LowStockProducts  []Product
	RecentSales       []SaleRecord
	GeneratedAt       time.Time
}
