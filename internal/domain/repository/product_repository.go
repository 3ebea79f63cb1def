package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductFilter filtros opcionales para listar productos.
type ProductFilter struct {
	CategoryID string
	Search     string // coincidencia parcial sin distinguir mayúsculas sobre el nombre
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID y GetForUpdate devuelven domain.ErrNotFound si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate lee el último valor confirmado y bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// Update actualiza los campos de catálogo. No toca stock ni costo.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateLedger fija stock y costo promedio (solo el motor de inventario).
	UpdateLedger(ctx context.Context, id string, quantity, averageCost decimal.Decimal) error
	// DecrementStock resta quantity solo si el resultado es >= 0; si no, domain.ErrInsufficientStock.
	DecrementStock(ctx context.Context, id string, quantity decimal.Decimal) (decimal.Decimal, error)
	// List devuelve los productos ordenados por nombre.
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	CountByCategory(ctx context.Context, categoryID string) (int, error)
	Delete(ctx context.Context, id string) error
}
