package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. Stock y costo arrancan en 0.
type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	CategoryID   string          `json:"category_id" validate:"required,uuid"`
	Unit         string          `json:"unit"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock ni costo).
type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	CategoryID   *string          `json:"category_id" validate:"omitempty,uuid"`
	Unit         *string          `json:"unit"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
}

// ProductFilter filtros de GET /api/products.
type ProductFilter struct {
	CategoryID string `query:"category_id" validate:"omitempty,uuid"`
	Search     string `query:"search"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CategoryID     string          `json:"category_id"`
	CategoryName   string          `json:"category_name"`
	Unit           string          `json:"unit"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	AverageCost    decimal.Decimal `json:"average_purchase_cost"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
