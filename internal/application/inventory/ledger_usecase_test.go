package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// stepClock avanza un segundo en cada llamada para que el orden cronológico sea determinista.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type spyCache struct {
	mu          sync.Mutex
	invalidated int
}

func (s *spyCache) Get(context.Context) (*entity.DashboardSnapshot, bool, error) { return nil, false, nil }
func (s *spyCache) Generation(context.Context) (int64, error) { return 0, nil }
func (s *spyCache) Set(context.Context, *entity.DashboardSnapshot, int64, time.Duration) error {
	return nil
}
func (s *spyCache) Invalidate(context.Context) error {
	s.mu.Lock()
	s.invalidated++
	s.mu.Unlock()
	return nil
}

type spyMetrics struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (s *spyMetrics) ObserveOperation(op, outcome string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcomes == nil {
		s.outcomes = map[string][]string{}
	}
	s.outcomes[op] = append(s.outcomes[op], outcome)
}

type fixture struct {
	store   *memory.Store
	uc      *inventory.LedgerUseCase
	cache   *spyCache
	metrics *spyMetrics
	product string
}

func newFixture(t *testing.T, policy inventory.ReversalCostPolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	clock := &stepClock{t: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}

	require.NoError(t, store.Categories().Create(ctx, &entity.Category{ID: "cat-1", Name: "Herramientas"}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: "prod-1", Name: "Martillo", CategoryID: "cat-1", Unit: "pcs", SellingPrice: d("120"),
	}))

	cache := &spyCache{}
	metrics := &spyMetrics{}
	uc := inventory.NewLedgerUseCase(memory.NewTxRunner(store), store.StockReceipts(), store.Sales(), inventory.LedgerConfig{
		ReversalCost: policy,
		Cache:        cache,
		Metrics:      metrics,
		Now:          clock.Now,
	})
	return &fixture{store: store, uc: uc, cache: cache, metrics: metrics, product: "prod-1"}
}

func (f *fixture) receive(t *testing.T, qty, cost string) *entity.StockReceipt {
	t.Helper()
	r, _, err := f.uc.RecordStockReceipt(context.Background(), inventory.StockReceiptInput{
		ProductID: f.product, Quantity: d(qty), UnitPurchasePrice: d(cost),
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) sell(t *testing.T, qty, price string) *entity.SaleRecord {
	t.Helper()
	s, _, err := f.uc.RecordSale(context.Background(), inventory.SaleInput{
		ProductID: f.product, Quantity: d(qty), UnitSellingPrice: d(price),
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) productState(t *testing.T) *entity.Product {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), f.product)
	require.NoError(t, err)
	return p
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario completo: dos recepciones, una venta, reversa de la venta y una
// venta que excede el stock.
// ──────────────────────────────────────────────────────────────────────────────
func TestLedger_EscenarioCompleto(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	ctx := context.Background()

	r1, p, err := f.uc.RecordStockReceipt(ctx, inventory.StockReceiptInput{ProductID: f.product, Quantity: d("10"), UnitPurchasePrice: d("80")})
	require.NoError(t, err)
	assertDec(t, "800", r1.TotalCost, "total_cost")
	assertDec(t, "10", p.QuantityOnHand, "stock tras r1")
	assertDec(t, "80", p.AverageCost, "costo tras r1")

	_, p, err = f.uc.RecordStockReceipt(ctx, inventory.StockReceiptInput{ProductID: f.product, Quantity: d("10"), UnitPurchasePrice: d("100")})
	require.NoError(t, err)
	assertDec(t, "20", p.QuantityOnHand, "stock tras r2")
	assertDec(t, "90", p.AverageCost, "costo tras r2")

	sale, p, err := f.uc.RecordSale(ctx, inventory.SaleInput{ProductID: f.product, Quantity: d("5"), UnitSellingPrice: d("120")})
	require.NoError(t, err)
	assertDec(t, "15", p.QuantityOnHand, "stock tras venta")
	assertDec(t, "600", sale.TotalRevenue, "ingreso")
	assertDec(t, "150", sale.Profit, "utilidad")
	assertDec(t, "90", sale.UnitCost, "costo congelado")
	assert.Equal(t, "Martillo", sale.ProductName)

	reversed, p, err := f.uc.ReverseSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, reversed.ID)
	assertDec(t, "20", p.QuantityOnHand, "stock tras reversa")
	assertDec(t, "90", p.AverageCost, "costo tras reversa")

	sales, err := f.uc.ListSales(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sales)

	_, _, err = f.uc.RecordSale(ctx, inventory.SaleInput{ProductID: f.product, Quantity: d("25"), UnitSellingPrice: d("120")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var opErr *domain.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, inventory.OpRecordSale, opErr.Op)
	assert.Equal(t, f.product, opErr.ID)

	state := f.productState(t)
	assertDec(t, "20", state.QuantityOnHand, "stock tras rechazo")
	sales, err = f.uc.ListSales(ctx, f.product)
	require.NoError(t, err)
	assert.Empty(t, sales)

	assert.Equal(t, 4, f.cache.invalidated, "una invalidación por mutación confirmada")
	assert.Equal(t, []string{"ok", "insufficient_stock"}, f.metrics.outcomes[inventory.OpRecordSale])
}

func TestLedger_PromedioPonderadoDeVariasRecepciones(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	entries := [][2]string{{"3", "10"}, {"7", "12.5"}, {"2.5", "8"}, {"10", "11"}}
	num, den := decimal.Zero, decimal.Zero
	for _, e := range entries {
		f.receive(t, e[0], e[1])
		num = num.Add(d(e[0]).Mul(d(e[1])))
		den = den.Add(d(e[0]))
	}
	p := f.productState(t)
	want := num.Div(den)
	assert.True(t, p.AverageCost.Sub(want).Abs().LessThan(d("0.00001")), "want %s got %s", want, p.AverageCost)
	assertDec(t, den.String(), p.QuantityOnHand, "stock")
}

func TestLedger_ValidacionDeEntrada(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	ctx := context.Background()

	cases := []inventory.StockReceiptInput{
		{ProductID: f.product, Quantity: d("0"), UnitPurchasePrice: d("1")},
		{ProductID: f.product, Quantity: d("-1"), UnitPurchasePrice: d("1")},
		{ProductID: f.product, Quantity: d("1"), UnitPurchasePrice: d("-0.01")},
		{ProductID: "", Quantity: d("1"), UnitPurchasePrice: d("1")},
		{ProductID: f.product, Quantity: d("1.00005"), UnitPurchasePrice: d("1")},
		{ProductID: f.product, Quantity: d("1"), UnitPurchasePrice: d("0.12345")},
	}
	for _, in := range cases {
		_, _, err := f.uc.RecordStockReceipt(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}

	_, _, err := f.uc.RecordSale(ctx, inventory.SaleInput{ProductID: f.product, Quantity: d("0"), UnitSellingPrice: d("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = f.uc.RecordSale(ctx, inventory.SaleInput{ProductID: f.product, Quantity: d("1"), UnitSellingPrice: d("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = f.uc.RecordSale(ctx, inventory.SaleInput{ProductID: f.product, Quantity: d("1.00005"), UnitSellingPrice: d("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = f.uc.RecordSale(ctx, inventory.SaleInput{ProductID: f.product, Quantity: d("1"), UnitSellingPrice: d("9.99999")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.uc.RecordStockReceipt(ctx, inventory.StockReceiptInput{ProductID: "nope", Quantity: d("1"), UnitPurchasePrice: d("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = f.uc.ReverseSale(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = f.uc.ReverseStockReceipt(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Zero(t, f.cache.invalidated)
	assertDec(t, "0", f.productState(t).QuantityOnHand, "stock")
}

func TestLedger_CuatroDecimalesCuadranConLosEventos(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	// Ceros a la derecha no cuentan como decimales extra.
	r := f.receive(t, "1.00010", "3.3333")
	assertDec(t, "3.333633", r.TotalCost, "costo total redondeado a 6 decimales")
	f.sell(t, "1.0001", "5")
	assertDec(t, "0", f.productState(t).QuantityOnHand, "stock")
}

func TestLedger_VentaConPrecioCero(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	f.receive(t, "4", "10")
	s := f.sell(t, "4", "0")
	assertDec(t, "0", s.TotalRevenue, "ingreso")
	assertDec(t, "-40", s.Profit, "utilidad")
	assertDec(t, "0", f.productState(t).QuantityOnHand, "stock")
}

func TestLedger_UtilidadCongelada(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	f.receive(t, "10", "80")
	sale := f.sell(t, "5", "120")
	assertDec(t, "200", sale.Profit, "utilidad inicial")

	f.receive(t, "5", "200")
	assertDec(t, "140", f.productState(t).AverageCost, "nuevo costo")

	stored, err := f.uc.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	assertDec(t, "200", stored.Profit, "utilidad sin cambios")
	assertDec(t, "80", stored.UnitCost, "costo congelado")
}

func TestLedger_ReversaDeRecepcionRestauraEstado(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	f.receive(t, "10", "80")
	f.sell(t, "3", "100")
	before := f.productState(t)

	r := f.receive(t, "6", "150")
	mid := f.productState(t)
	assert.False(t, mid.AverageCost.Equal(before.AverageCost))

	_, p, err := f.uc.ReverseStockReceipt(context.Background(), r.ID)
	require.NoError(t, err)
	assertDec(t, before.QuantityOnHand.String(), p.QuantityOnHand, "stock")
	assertDec(t, before.AverageCost.String(), p.AverageCost, "costo")

	_, err = f.uc.GetStockReceipt(context.Background(), r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_ReversaConPoliticaKeep(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostKeep)
	f.receive(t, "10", "80")
	r := f.receive(t, "10", "100")

	_, p, err := f.uc.ReverseStockReceipt(context.Background(), r.ID)
	require.NoError(t, err)
	assertDec(t, "10", p.QuantityOnHand, "stock")
	assertDec(t, "90", p.AverageCost, "costo sin recalcular")
}

func TestLedger_ReversaDeRecepcionYaVendidaNoDejaStockNegativo(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	r := f.receive(t, "10", "80")
	f.sell(t, "8", "100")

	_, p, err := f.uc.ReverseStockReceipt(context.Background(), r.ID)
	require.NoError(t, err)
	assertDec(t, "0", p.QuantityOnHand, "stock acotado en 0")
	assertDec(t, "0", p.AverageCost, "sin recepciones vigentes")
}

func TestLedger_RollbackCuandoFallaLaEscrituraDelProducto(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	ctx := context.Background()
	f.receive(t, "10", "80")
	invalidations := f.cache.invalidated

	boom := errors.New("disk full")
	f.store.FailNext(memory.FailProductUpdateLedger, boom)
	_, p, err := f.uc.RecordStockReceipt(ctx, inventory.StockReceiptInput{ProductID: f.product, Quantity: d("5"), UnitPurchasePrice: d("200")})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, p)

	receipts, err := f.uc.ListStockReceipts(ctx, f.product)
	require.NoError(t, err)
	assert.Len(t, receipts, 1, "la recepción no debe quedar registrada")
	state := f.productState(t)
	assertDec(t, "10", state.QuantityOnHand, "stock")
	assertDec(t, "80", state.AverageCost, "costo")
	assert.Equal(t, invalidations, f.cache.invalidated)

	f.store.FailNext(memory.FailProductDecrementStock, boom)
	_, _, err = f.uc.RecordSale(ctx, inventory.SaleInput{ProductID: f.product, Quantity: d("1"), UnitSellingPrice: d("1")})
	require.ErrorIs(t, err, boom)
	sales, err := f.uc.ListSales(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sales, "la venta no debe quedar registrada")
}

func TestLedger_ContextoCanceladoNoEscribe(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := f.uc.RecordStockReceipt(ctx, inventory.StockReceiptInput{ProductID: f.product, Quantity: d("1"), UnitPurchasePrice: d("1")})
	require.ErrorIs(t, err, context.Canceled)
	assertDec(t, "0", f.productState(t).QuantityOnHand, "stock")
}

func TestLedger_VentasConcurrentesNoSobrevenden(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	f.receive(t, "10", "50")

	const workers = 25
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.uc.RecordSale(context.Background(), inventory.SaleInput{
				ProductID: f.product, Quantity: d("1"), UnitSellingPrice: d("60"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, workers-10, rejected)
	assertDec(t, "0", f.productState(t).QuantityOnHand, "stock")
	sales, err := f.uc.ListSales(context.Background(), f.product)
	require.NoError(t, err)
	assert.Len(t, sales, 10)
}

func TestLedger_ListadosMasRecientesPrimero(t *testing.T) {
	f := newFixture(t, inventory.ReversalCostRecompute)
	first := f.receive(t, "1", "1")
	second := f.receive(t, "1", "1")

	list, err := f.uc.ListStockReceipts(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
