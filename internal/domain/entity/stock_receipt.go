package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockReceipt es una entrada de mercancía. Inmutable: solo se crea o se elimina (reverso).
type StockReceipt struct {
	ID                string
	ProductID         string
	Quantity          decimal.Decimal // > 0
	UnitPurchasePrice decimal.Decimal // >= 0
	TotalCost         decimal.Decimal // Quantity * UnitPurchasePrice
	CreatedAt         time.Time
}
