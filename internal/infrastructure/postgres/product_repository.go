package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productSelect = `
	SELECT p.id, p.name, p.category_id, c.name, p.unit, p.selling_price,
	       p.quantity_on_hand, p.average_cost, p.created_at, p.updated_at
	FROM products p
	JOIN categories c ON c.id = p.category_id`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName, &p.Unit, &p.SellingPrice,
		&p.QuantityOnHand, &p.AverageCost, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un producto nuevo. Stock y costo arrancan en lo que traiga la entidad (0 desde el caso de uso).
// Si la categoría no existe devuelve domain.ErrNotFound.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, name, category_id, unit, selling_price, quantity_on_hand, average_cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.CategoryID, p.Unit, p.SellingPrice, p.QuantityOnHand, p.AverageCost, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return categoryRefError(err, "insert product")
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, wrapf(err, "get product")
	}
	return p, nil
}

// GetForUpdate bloquea la fila del producto (SELECT ... FOR UPDATE); solo tiene efecto dentro de una tx.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, productSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id))
	if err != nil {
		return nil, wrapf(err, "get product for update")
	}
	return p, nil
}

// Update actualiza los campos de catálogo. Stock y costo solo cambian vía UpdateLedger/DecrementStock.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET name = $2, category_id = $3, unit = $4, selling_price = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, p.Name, p.CategoryID, p.Unit, p.SellingPrice, p.UpdatedAt,
	)
	if err != nil {
		return categoryRefError(err, "update product")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) UpdateLedger(ctx context.Context, id string, quantity, averageCost decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET quantity_on_hand = $2, average_cost = $3, updated_at = now() WHERE id = $1`,
		id, quantity, averageCost,
	)
	if err != nil {
		return wrapf(err, "update product ledger")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DecrementStock resta de forma condicional: si la fila no cumple quantity_on_hand >= quantity no se actualiza.
func (r *ProductRepo) DecrementStock(ctx context.Context, id string, quantity decimal.Decimal) (decimal.Decimal, error) {
	var remaining decimal.Decimal
	err := r.q.QueryRow(ctx, `
		UPDATE products SET quantity_on_hand = quantity_on_hand - $2, updated_at = now()
		WHERE id = $1 AND quantity_on_hand >= $2
		RETURNING quantity_on_hand`,
		id, quantity,
	).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	mapped := mapError(err)
	if !errors.Is(mapped, domain.ErrNotFound) {
		return decimal.Zero, wrapf(err, "decrement stock")
	}
	// Sin filas: distinguir producto inexistente de stock insuficiente.
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return decimal.Zero, wrapf(err, "decrement stock")
	}
	if !exists {
		return decimal.Zero, domain.ErrNotFound
	}
	return decimal.Zero, domain.ErrInsufficientStock
}

func (r *ProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*entity.Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where = append(where, "p.category_id = $"+strconv.Itoa(len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where = append(where, "p.name ILIKE $"+strconv.Itoa(len(args)))
	}
	query := productSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY lower(p.name), p.id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapf(err, "list products")
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrapf(err, "scan product")
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapf(err, "list products")
	}
	return list, nil
}

func (r *ProductRepo) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM products WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		return 0, wrapf(err, "count products")
	}
	return n, nil
}

// Delete elimina el producto; recepciones y ventas se borran por ON DELETE CASCADE.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapf(err, "delete product")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// categoryRefError convierte la violación de FK sobre category_id en ErrNotFound (la categoría no existe).
func categoryRefError(err error, op string) error {
	mapped := mapError(err)
	if errors.Is(mapped, domain.ErrConflict) {
		return domain.ErrNotFound
	}
	return wrapf(err, op)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
