package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

func seed(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Categories().Create(ctx, &entity.Category{ID: "c1", Name: "Bebidas"}))
	require.NoError(t, s.Categories().Create(ctx, &entity.Category{ID: "c2", Name: "abarrotes"}))
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p1", Name: "Jugo de naranja", CategoryID: "c1"}))
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p2", Name: "Arroz", CategoryID: "c2"}))
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p3", Name: "agua", CategoryID: "c1"}))
	return s
}

func TestCategoryRepo_NombreUnicoSinMayusculas(t *testing.T) {
	s := seed(t)
	err := s.Categories().Create(context.Background(), &entity.Category{ID: "c3", Name: "BEBIDAS"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	err = s.Categories().Update(context.Background(), &entity.Category{ID: "c2", Name: "bebidas"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	c, err := s.Categories().GetByName(context.Background(), "ABARROTES")
	require.NoError(t, err)
	assert.Equal(t, "c2", c.ID)
}

func TestCategoryRepo_ListOrdenadoPorNombre(t *testing.T) {
	s := seed(t)
	list, err := s.Categories().List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "abarrotes", list[0].Name)
	assert.Equal(t, "Bebidas", list[1].Name)

	n, err := s.Categories().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCategoryRepo_DeleteConProductos(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	assert.ErrorIs(t, s.Categories().Delete(ctx, "c1"), domain.ErrConflict)
	assert.ErrorIs(t, s.Categories().Delete(ctx, "zz"), domain.ErrNotFound)

	require.NoError(t, s.Products().Delete(ctx, "p2"))
	require.NoError(t, s.Categories().Delete(ctx, "c2"))
}

func TestProductRepo_CategoriaInexistente(t *testing.T) {
	s := seed(t)
	err := s.Products().Create(context.Background(), &entity.Product{ID: "p9", Name: "X", CategoryID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepo_ListConFiltros(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	all, err := s.Products().List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"agua", "Arroz", "Jugo de naranja"}, []string{all[0].Name, all[1].Name, all[2].Name})
	assert.Equal(t, "Bebidas", all[0].CategoryName)

	byCat, err := s.Products().List(ctx, repository.ProductFilter{CategoryID: "c1"})
	require.NoError(t, err)
	assert.Len(t, byCat, 2)

	search, err := s.Products().List(ctx, repository.ProductFilter{Search: "NARAN"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "p1", search[0].ID)
}

func TestProductRepo_UpdateNoTocaLedger(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Products().UpdateLedger(ctx, "p1", decimal.NewFromInt(7), decimal.NewFromInt(3)))

	require.NoError(t, s.Products().Update(ctx, &entity.Product{
		ID: "p1", Name: "Jugo", CategoryID: "c1", SellingPrice: decimal.NewFromInt(9),
		QuantityOnHand: decimal.NewFromInt(999), AverageCost: decimal.NewFromInt(999),
	}))
	p, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Jugo", p.Name)
	assert.True(t, decimal.NewFromInt(7).Equal(p.QuantityOnHand))
	assert.True(t, decimal.NewFromInt(3).Equal(p.AverageCost))
}

func TestProductRepo_DecrementStockCondicional(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Products().UpdateLedger(ctx, "p1", decimal.NewFromInt(5), decimal.Zero))

	left, err := s.Products().DecrementStock(ctx, "p1", decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, left.IsZero())

	_, err = s.Products().DecrementStock(ctx, "p1", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = s.Products().DecrementStock(ctx, "nope", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepo_DeleteEnCascada(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.StockReceipts().Create(ctx, &entity.StockReceipt{ID: "r1", ProductID: "p1", CreatedAt: now}))
	require.NoError(t, s.StockReceipts().Create(ctx, &entity.StockReceipt{ID: "r2", ProductID: "p2", CreatedAt: now}))
	require.NoError(t, s.Sales().Create(ctx, &entity.SaleRecord{ID: "s1", ProductID: "p1", CreatedAt: now}))

	require.NoError(t, s.Products().Delete(ctx, "p1"))

	_, err := s.StockReceipts().GetByID(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Sales().GetByID(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.StockReceipts().GetByID(ctx, "r2")
	assert.NoError(t, err)
}

func TestSaleRepo_ProductName(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Sales().Create(ctx, &entity.SaleRecord{ID: "s1", ProductID: "p2", CreatedAt: time.Now()}))
	sale, err := s.Sales().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Arroz", sale.ProductName)
}

func TestTxRunner_RollbackRestauraTodo(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := NewTxRunner(s).Run(ctx, func(
		products repository.ProductRepository,
		receipts repository.StockReceiptRepository,
		_ repository.SaleRecordRepository,
	) error {
		require.NoError(t, receipts.Create(ctx, &entity.StockReceipt{ID: "r1", ProductID: "p1", CreatedAt: time.Now()}))
		require.NoError(t, products.UpdateLedger(ctx, "p1", decimal.NewFromInt(10), decimal.NewFromInt(4)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.StockReceipts().GetByID(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	p, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.QuantityOnHand.IsZero())
}

func TestFailNext_SeConsumeUnaVez(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")
	s.FailNext(FailSaleCreate, boom)

	assert.ErrorIs(t, s.Sales().Create(ctx, &entity.SaleRecord{ID: "s1", ProductID: "p1"}), boom)
	assert.NoError(t, s.Sales().Create(ctx, &entity.SaleRecord{ID: "s1", ProductID: "p1"}))
}

func TestTxRunner_LecturasExternasNoVenFilasSinConfirmar(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := NewTxRunner(s).Run(ctx, func(
		products repository.ProductRepository,
		_ repository.StockReceiptRepository,
		sales repository.SaleRecordRepository,
	) error {
		require.NoError(t, sales.Create(ctx, &entity.SaleRecord{ID: "s1", ProductID: "p1", CreatedAt: time.Now()}))
		require.NoError(t, products.UpdateLedger(ctx, "p1", decimal.NewFromInt(7), decimal.NewFromInt(2)))

		// La transacción ve sus propias escrituras; el resto del sistema todavía no.
		_, err := sales.GetByID(ctx, "s1")
		require.NoError(t, err)
		_, err = s.Sales().GetByID(ctx, "s1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		p, err := s.Products().GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, p.QuantityOnHand.IsZero())
		return nil
	})
	require.NoError(t, err)

	_, err = s.Sales().GetByID(ctx, "s1")
	require.NoError(t, err)
	p, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.QuantityOnHand.Equal(decimal.NewFromInt(7)))
}

func TestTxRunner_RollbackConcurrenteInvisible(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	runner := NewTxRunner(s)
	boom := errors.New("boom")

	var (
		wg       sync.WaitGroup
		done     atomic.Bool
		observed atomic.Int64
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for !done.Load() {
			list, err := s.Sales().List(ctx)
			if err == nil && len(list) > 0 {
				observed.Add(1)
			}
		}
	}()

	for i := 0; i < 500; i++ {
		err := runner.Run(ctx, func(
			_ repository.ProductRepository,
			_ repository.StockReceiptRepository,
			sales repository.SaleRecordRepository,
		) error {
			if err := sales.Create(ctx, &entity.SaleRecord{ID: "s1", ProductID: "p1", CreatedAt: time.Now()}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
	}
	done.Store(true)
	wg.Wait()

	assert.Zero(t, observed.Load())
	list, err := s.Sales().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
