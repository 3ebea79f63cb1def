package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.SaleRecordRepository = (*SaleRecordRepo)(nil)

// SaleRecordRepo ventas sobre PostgreSQL. unit_cost guarda el costo promedio congelado al vender.
type SaleRecordRepo struct {
	q Querier
}

// NewSaleRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRecordRepository(q Querier) *SaleRecordRepo {
	return &SaleRecordRepo{q: q}
}

const saleColumns = `id, product_id, quantity, unit_selling_price, unit_cost, total_revenue, profit, created_at`

const saleSelect = `
	SELECT s.id, s.product_id, p.name, s.quantity, s.unit_selling_price, s.unit_cost,
	       s.total_revenue, s.profit, s.created_at
	FROM sales s
	JOIN products p ON p.id = s.product_id`

func scanSale(row pgx.Row) (*entity.SaleRecord, error) {
	var s entity.SaleRecord
	err := row.Scan(&s.ID, &s.ProductID, &s.ProductName, &s.Quantity, &s.UnitSellingPrice, &s.UnitCost,
		&s.TotalRevenue, &s.Profit, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SaleRecordRepo) Create(ctx context.Context, s *entity.SaleRecord) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO sales (`+saleColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.ProductID, s.Quantity, s.UnitSellingPrice, s.UnitCost, s.TotalRevenue, s.Profit, s.CreatedAt,
	)
	if err != nil {
		return wrapf(err, "insert sale")
	}
	return nil
}

func (r *SaleRecordRepo) GetByID(ctx context.Context, id string) (*entity.SaleRecord, error) {
	s, err := scanSale(r.q.QueryRow(ctx, saleSelect+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, wrapf(err, "get sale")
	}
	return s, nil
}

func (r *SaleRecordRepo) List(ctx context.Context) ([]*entity.SaleRecord, error) {
	rows, err := r.q.Query(ctx, saleSelect+` ORDER BY s.created_at DESC, s.id DESC`)
	if err != nil {
		return nil, wrapf(err, "list sales")
	}
	return collectSales(rows)
}

func (r *SaleRecordRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.SaleRecord, error) {
	rows, err := r.q.Query(ctx,
		saleSelect+` WHERE s.product_id = $1 ORDER BY s.created_at DESC, s.id DESC`, productID)
	if err != nil {
		return nil, wrapf(err, "list sales by product")
	}
	return collectSales(rows)
}

func collectSales(rows pgx.Rows) ([]*entity.SaleRecord, error) {
	defer rows.Close()
	list := make([]*entity.SaleRecord, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, wrapf(err, "scan sale")
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapf(err, "list sales")
	}
	return list, nil
}

func (r *SaleRecordRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return wrapf(err, "delete sale")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
