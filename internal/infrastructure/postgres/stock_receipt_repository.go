package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockReceiptRepository = (*StockReceiptRepo)(nil)

// StockReceiptRepo recepciones de mercancía sobre PostgreSQL.
type StockReceiptRepo struct {
	q Querier
}

// NewStockReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockReceiptRepository(q Querier) *StockReceiptRepo {
	return &StockReceiptRepo{q: q}
}

const receiptColumns = `id, product_id, quantity, unit_purchase_price, total_cost, created_at`

func scanReceipt(row pgx.Row) (*entity.StockReceipt, error) {
	var rc entity.StockReceipt
	if err := row.Scan(&rc.ID, &rc.ProductID, &rc.Quantity, &rc.UnitPurchasePrice, &rc.TotalCost, &rc.CreatedAt); err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *StockReceiptRepo) Create(ctx context.Context, rc *entity.StockReceipt) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO stock_receipts (`+receiptColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		rc.ID, rc.ProductID, rc.Quantity, rc.UnitPurchasePrice, rc.TotalCost, rc.CreatedAt,
	)
	if err != nil {
		return wrapf(err, "insert stock receipt")
	}
	return nil
}

func (r *StockReceiptRepo) GetByID(ctx context.Context, id string) (*entity.StockReceipt, error) {
	rc, err := scanReceipt(r.q.QueryRow(ctx, `SELECT `+receiptColumns+` FROM stock_receipts WHERE id = $1`, id))
	if err != nil {
		return nil, wrapf(err, "get stock receipt")
	}
	return rc, nil
}

func (r *StockReceiptRepo) List(ctx context.Context) ([]*entity.StockReceipt, error) {
	return r.list(ctx, `SELECT `+receiptColumns+` FROM stock_receipts ORDER BY created_at DESC, id DESC`)
}

func (r *StockReceiptRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockReceipt, error) {
	return r.list(ctx,
		`SELECT `+receiptColumns+` FROM stock_receipts WHERE product_id = $1 ORDER BY created_at DESC, id DESC`,
		productID)
}

func (r *StockReceiptRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockReceipt, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapf(err, "list stock receipts")
	}
	defer rows.Close()
	list := make([]*entity.StockReceipt, 0)
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, wrapf(err, "scan stock receipt")
		}
		list = append(list, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapf(err, "list stock receipts")
	}
	return list, nil
}

func (r *StockReceiptRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM stock_receipts WHERE id = $1`, id)
	if err != nil {
		return wrapf(err, "delete stock receipt")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
