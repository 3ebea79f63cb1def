package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error o el contexto se cancela antes del commit, no queda ninguna escritura aplicada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		receiptRepo repository.StockReceiptRepository,
		saleRepo repository.SaleRecordRepository,
	) error) error
}
