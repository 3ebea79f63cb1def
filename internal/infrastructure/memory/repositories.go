package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.CategoryRepository     = (*CategoryRepo)(nil)
	_ repository.ProductRepository      = (*ProductRepo)(nil)
	_ repository.StockReceiptRepository = (*StockReceiptRepo)(nil)
	_ repository.SaleRecordRepository   = (*SaleRepo)(nil)
)

// ── Categories ───────────────────────────────────────────────────────────────

// CategoryRepo implementación en memoria de CategoryRepository.
type CategoryRepo struct {
	s    *Store
	inTx bool
}

func (r *CategoryRepo) Create(_ context.Context, c *entity.Category) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTakenLocked(c.Name, "") {
		return domain.ErrDuplicate
	}
	r.s.categories[c.ID] = *c
	return nil
}

func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *CategoryRepo) GetByName(_ context.Context, name string) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.categories {
		if strings.EqualFold(c.Name, name) {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *CategoryRepo) Update(_ context.Context, c *entity.Category) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.categories[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.nameTakenLocked(c.Name, c.ID) {
		return domain.ErrDuplicate
	}
	cur.Name = c.Name
	cur.Description = c.Description
	cur.UpdatedAt = c.UpdatedAt
	r.s.categories[c.ID] = cur
	return nil
}

func (r *CategoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return byName(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return out, nil
}

func (r *CategoryRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.categories), nil
}

// Delete falla con ErrConflict si algún producto referencia la categoría (igual que la FK en PostgreSQL).
func (r *CategoryRepo) Delete(_ context.Context, id string) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return domain.ErrNotFound
	}
	for _, p := range r.s.products {
		if p.CategoryID == id {
			return domain.ErrConflict
		}
	}
	delete(r.s.categories, id)
	return nil
}

func (r *CategoryRepo) nameTakenLocked(name, exceptID string) bool {
	for _, c := range r.s.categories {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// ── Products ─────────────────────────────────────────────────────────────────

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	s    *Store
	inTx bool
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[p.CategoryID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.s.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	stored := *p
	stored.CategoryName = ""
	r.s.products[p.ID] = stored
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.getLocked(id)
}

// GetForUpdate no necesita bloqueo adicional: dentro de Run la transacción ya es exclusiva.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) getLocked(id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.CategoryName = r.s.categories[p.CategoryID].Name
	return &p, nil
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.s.categories[p.CategoryID]; !ok {
		return domain.ErrNotFound
	}
	cur.Name = p.Name
	cur.CategoryID = p.CategoryID
	cur.Unit = p.Unit
	cur.SellingPrice = p.SellingPrice
	cur.UpdatedAt = p.UpdatedAt
	r.s.products[p.ID] = cur
	return nil
}

func (r *ProductRepo) UpdateLedger(_ context.Context, id string, quantity, averageCost decimal.Decimal) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailureLocked(FailProductUpdateLedger); err != nil {
		return err
	}
	cur, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if quantity.LessThan(decimal.Zero) {
		return domain.ErrInsufficientStock
	}
	cur.QuantityOnHand = quantity
	cur.AverageCost = averageCost
	r.s.products[id] = cur
	return nil
}

func (r *ProductRepo) DecrementStock(_ context.Context, id string, quantity decimal.Decimal) (decimal.Decimal, error) {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailureLocked(FailProductDecrementStock); err != nil {
		return decimal.Zero, err
	}
	cur, ok := r.s.products[id]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	next := cur.QuantityOnHand.Sub(quantity)
	if next.LessThan(decimal.Zero) {
		return decimal.Zero, domain.ErrInsufficientStock
	}
	cur.QuantityOnHand = next
	r.s.products[id] = cur
	return next, nil
}

func (r *ProductRepo) List(_ context.Context, filter repository.ProductFilter) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]*entity.Product, 0, len(r.s.products))
	for id := range r.s.products {
		p, _ := r.getLocked(id)
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return byName(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return out, nil
}

func (r *ProductRepo) CountByCategory(_ context.Context, categoryID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, p := range r.s.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// Delete borra el producto y en cascada sus recepciones y ventas.
func (r *ProductRepo) Delete(_ context.Context, id string) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.products, id)
	for rid, rc := range r.s.receipts {
		if rc.ProductID == id {
			delete(r.s.receipts, rid)
		}
	}
	for sid, sl := range r.s.sales {
		if sl.ProductID == id {
			delete(r.s.sales, sid)
		}
	}
	return nil
}

// ── Stock receipts ───────────────────────────────────────────────────────────

// StockReceiptRepo implementación en memoria de StockReceiptRepository.
type StockReceiptRepo struct {
	s    *Store
	inTx bool
}

func (r *StockReceiptRepo) Create(_ context.Context, rc *entity.StockReceipt) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailureLocked(FailReceiptCreate); err != nil {
		return err
	}
	if _, ok := r.s.products[rc.ProductID]; !ok {
		return domain.ErrNotFound
	}
	r.s.receipts[rc.ID] = *rc
	return nil
}

func (r *StockReceiptRepo) GetByID(_ context.Context, id string) (*entity.StockReceipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rc, ok := r.s.receipts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rc, nil
}

func (r *StockReceiptRepo) List(_ context.Context) ([]*entity.StockReceipt, error) {
	return r.list(func(*entity.StockReceipt) bool { return true }), nil
}

func (r *StockReceiptRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockReceipt, error) {
	return r.list(func(rc *entity.StockReceipt) bool { return rc.ProductID == productID }), nil
}

func (r *StockReceiptRepo) list(keep func(*entity.StockReceipt) bool) []*entity.StockReceipt {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.StockReceipt, 0)
	for _, rc := range r.s.receipts {
		rc := rc
		if keep(&rc) {
			out = append(out, &rc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *StockReceiptRepo) Delete(_ context.Context, id string) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailureLocked(FailReceiptDelete); err != nil {
		return err
	}
	if _, ok := r.s.receipts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.receipts, id)
	return nil
}

// ── Sales ────────────────────────────────────────────────────────────────────

// SaleRepo implementación en memoria de SaleRecordRepository.
type SaleRepo struct {
	s    *Store
	inTx bool
}

func (r *SaleRepo) Create(_ context.Context, sl *entity.SaleRecord) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailureLocked(FailSaleCreate); err != nil {
		return err
	}
	if _, ok := r.s.products[sl.ProductID]; !ok {
		return domain.ErrNotFound
	}
	stored := *sl
	stored.ProductName = ""
	r.s.sales[sl.ID] = stored
	return nil
}

func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.SaleRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sl, ok := r.s.sales[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sl.ProductName = r.s.products[sl.ProductID].Name
	return &sl, nil
}

func (r *SaleRepo) List(_ context.Context) ([]*entity.SaleRecord, error) {
	return r.list(func(*entity.SaleRecord) bool { return true }), nil
}

func (r *SaleRepo) ListByProduct(_ context.Context, productID string) ([]*entity.SaleRecord, error) {
	return r.list(func(sl *entity.SaleRecord) bool { return sl.ProductID == productID }), nil
}

func (r *SaleRepo) list(keep func(*entity.SaleRecord) bool) []*entity.SaleRecord {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.SaleRecord, 0)
	for _, sl := range r.s.sales {
		sl := sl
		sl.ProductName = r.s.products[sl.ProductID].Name
		if keep(&sl) {
			out = append(out, &sl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *SaleRepo) Delete(_ context.Context, id string) error {
	defer r.s.writeLock(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailureLocked(FailSaleDelete); err != nil {
		return err
	}
	if _, ok := r.s.sales[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.sales, id)
	return nil
}

func byName(nameA, idA, nameB, idB string) bool {
	a, b := strings.ToLower(nameA), strings.ToLower(nameB)
	if a != b {
		return a < b
	}
	return idA < idB
}
