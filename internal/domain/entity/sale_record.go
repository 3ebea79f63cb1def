package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRecord es una venta registrada. Revenue y Profit quedan congelados al crearla.
type SaleRecord struct {
	ID               string
	ProductID        string
	ProductName      string          // solo lectura (join con products)
	Quantity         decimal.Decimal // > 0
	UnitSellingPrice decimal.Decimal // >= 0
	UnitCost         decimal.Decimal // costo promedio vigente al momento de la venta
	TotalRevenue     decimal.Decimal // Quantity * UnitSellingPrice
	Profit           decimal.Decimal // Quantity * (UnitSellingPrice - UnitCost)
	CreatedAt        time.Time
}
