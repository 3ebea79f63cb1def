package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardResponse respuesta de GET /api/dashboard.
type DashboardResponse struct {
	TotalProducts     int               `json:"total_products"`
	TotalCategories   int               `json:"total_categories"`
	TotalStock        decimal.Decimal   `json:"total_stock"`
	TotalSales        int               `json:"total_sales"`
	TotalRevenue      decimal.Decimal   `json:"total_revenue"`
	TotalProfit       decimal.Decimal   `json:"total_profit"`
	LowStockThreshold decimal.Decimal   `json:"low_stock_threshold"`
	LowStockProducts  []ProductResponse `json:"low_stock_products"`
	RecentSales       []SaleResponse    `json:"recent_sales"`
	GeneratedAt       time.Time         `json:"generated_at"`
}
