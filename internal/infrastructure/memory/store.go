// Package memory implementa los repositorios en memoria, usados en desarrollo (STORAGE_DRIVER=memory)
// y en los tests del motor de inventario. Mismas reglas que el adaptador PostgreSQL:
// unicidad de nombre de categoría, borrado en cascada de recepciones/ventas al borrar un producto,
// y transacciones todo-o-nada a través de TxRunner.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Puntos de inyección de fallos (ver Store.FailNext).
const (
	FailProductUpdateLedger   = "products.update_ledger"
	FailProductDecrementStock = "products.decrement_stock"
	FailReceiptCreate         = "stock_receipts.create"
	FailReceiptDelete         = "stock_receipts.delete"
	FailSaleCreate            = "sales.create"
	FailSaleDelete            = "sales.delete"
)

// Store guarda las cuatro colecciones indexadas por ID.
// txMu serializa transacciones y escrituras; mu protege los mapas.
// Dentro de Run los repos trabajan sobre un store preparado (staged) que solo
// se publica en el commit, así las lecturas de fuera nunca ven filas sin confirmar.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	categories map[string]entity.Category
	products   map[string]entity.Product
	receipts   map[string]entity.StockReceipt
	sales      map[string]entity.SaleRecord

	// root es el store publicado; nil en el propio root.
	root     *Store
	failMu   sync.Mutex
	failures map[string]error
}

// New construye un store vacío.
func New() *Store {
	return &Store{
		categories: make(map[string]entity.Category),
		products:   make(map[string]entity.Product),
		receipts:   make(map[string]entity.StockReceipt),
		sales:      make(map[string]entity.SaleRecord),
		failures:   make(map[string]error),
	}
}

// FailNext hace que la próxima llamada al punto indicado devuelva err (una sola vez).
func (s *Store) FailNext(point string, err error) {
	s.failMu.Lock()
	s.failures[point] = err
	s.failMu.Unlock()
}

// takeFailureLocked consume el fallo inyectado en el store publicado.
func (s *Store) takeFailureLocked(point string) error {
	root := s
	if s.root != nil {
		root = s.root
	}
	root.failMu.Lock()
	defer root.failMu.Unlock()
	err, ok := root.failures[point]
	if !ok {
		return nil
	}
	delete(root.failures, point)
	return err
}

// Categories, Products, StockReceipts y Sales devuelven repositorios fuera de transacción.
func (s *Store) Categories() *CategoryRepo        { return &CategoryRepo{s: s} }
func (s *Store) Products() *ProductRepo           { return &ProductRepo{s: s} }
func (s *Store) StockReceipts() *StockReceiptRepo { return &StockReceiptRepo{s: s} }
func (s *Store) Sales() *SaleRepo                 { return &SaleRepo{s: s} }

// writeLock toma txMu para escrituras fuera de transacción; dentro de Run ya está tomado.
func (s *Store) writeLock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

// staged copia el estado publicado; las escrituras de la transacción van a la copia.
func (s *Store) staged() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Store{
		categories: cloneMap(s.categories),
		products:   cloneMap(s.products),
		receipts:   cloneMap(s.receipts),
		sales:      cloneMap(s.sales),
		root:       s,
	}
}

// publish reemplaza el estado publicado por el de la transacción confirmada.
func (s *Store) publish(tx *Store) {
	s.mu.Lock()
	s.categories = tx.categories
	s.products = tx.products
	s.receipts = tx.receipts
	s.sales = tx.sales
	s.mu.Unlock()
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta fn con repos sobre una copia del store. Si fn falla o ctx se cancela, la copia se descarta.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run serializa la transacción con cualquier otra escritura del store.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	receiptRepo repository.StockReceiptRepository,
	saleRepo repository.SaleRecordRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	tx := r.s.staged()
	err := fn(
		&ProductRepo{s: tx, inTx: true},
		&StockReceiptRepo{s: tx, inTx: true},
		&SaleRepo{s: tx, inTx: true},
	)
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("commit transaction: %w", ctx.Err())
	}
	if err != nil {
		return err
	}
	r.s.publish(tx)
	return nil
}
