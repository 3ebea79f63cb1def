package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStockReceiptRequest entrada de POST /api/stock-receipts.
type CreateStockReceiptRequest struct {
	ProductID         string          `json:"product_id" validate:"required,uuid"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPurchasePrice decimal.Decimal `json:"unit_purchase_price"`
}

// EventFilter filtro de GET /api/stock-receipts y GET /api/sales.
type EventFilter struct {
	ProductID string `query:"product_id" validate:"omitempty,uuid"`
}

// StockReceiptResponse salida de una recepción.
type StockReceiptResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPurchasePrice decimal.Decimal `json:"unit_purchase_price"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	CreatedAt         time.Time       `json:"created_at"`
}

// CreateSaleRequest entrada de POST /api/sales.
type CreateSaleRequest struct {
	ProductID        string          `json:"product_id" validate:"required,uuid"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitSellingPrice decimal.Decimal `json:"unit_selling_price"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitSellingPrice decimal.Decimal `json:"unit_selling_price"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	Profit           decimal.Decimal `json:"profit"`
	CreatedAt        time.Time       `json:"created_at"`
}

// StockReceiptResult respuesta de registrar o reversar una recepción: el evento y el producto actualizado.
type StockReceiptResult struct {
	StockReceipt StockReceiptResponse `json:"stock_receipt"`
	Product      ProductResponse      `json:"product"`
}

// SaleResult respuesta de registrar o reversar una venta.
type SaleResult struct {
	Sale    SaleResponse    `json:"sale"`
	Product ProductResponse `json:"product"`
}
