package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario.
// QuantityOnHand y AverageCost solo cambian a través del motor de inventario (recepciones y ventas).
type Product struct {
	ID             string
	Name           string
	CategoryID     string
	CategoryName   string          // solo lectura (join con categories)
	Unit           string          // unidad de presentación: pcs, kg, etc.
	SellingPrice   decimal.Decimal // precio de lista, editable
	QuantityOnHand decimal.Decimal // stock disponible (>= 0)
	AverageCost    decimal.Decimal // costo promedio ponderado (inicia en 0)
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLowStock indica si el stock está en o por debajo del umbral.
func (p *Product) IsLowStock(threshold decimal.Decimal) bool {
	return p.QuantityOnHand.LessThanOrEqual(threshold)
}
