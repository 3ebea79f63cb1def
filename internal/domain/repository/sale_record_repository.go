package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// SaleRecordRepository define el puerto de persistencia para ventas.
type SaleRecordRepository interface {
	Create(ctx context.Context, sale *entity.SaleRecord) error
	GetByID(ctx context.Context, id string) (*entity.SaleRecord, error)
	// List devuelve ventas de la más reciente a la más antigua.
	List(ctx context.Context) ([]*entity.SaleRecord, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.SaleRecord, error)
	Delete(ctx context.Context, id string) error
}
