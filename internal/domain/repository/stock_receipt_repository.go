package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockReceiptRepository define el puerto de persistencia para recepciones de mercancía.
// Las recepciones no se editan: solo Create y Delete.
type StockReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.StockReceipt) error
	GetByID(ctx context.Context, id string) (*entity.StockReceipt, error)
	// List devuelve recepciones de la más reciente a la más antigua.
	List(ctx context.Context) ([]*entity.StockReceipt, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockReceipt, error)
	Delete(ctx context.Context, id string) error
}
