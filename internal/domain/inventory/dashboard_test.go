package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

func TestBuildDashboard_Vacio(t *testing.T) {
	now := time.Now().UTC()
	snap := inventory.BuildDashboard(nil, 0, nil, inventory.DefaultLowStockThreshold, inventory.DefaultRecentSales, now)

	assert.Zero(t, snap.TotalProducts)
	assert.Zero(t, snap.TotalCategories)
	assert.Zero(t, snap.TotalSales)
	assert.True(t, snap.TotalStock.IsZero())
	assert.True(t, snap.TotalRevenue.IsZero())
	assert.True(t, snap.TotalProfit.IsZero())
	assert.NotNil(t, snap.LowStockProducts)
	assert.Empty(t, snap.LowStockProducts)
	assert.NotNil(t, snap.RecentSales)
	assert.Equal(t, now, snap.GeneratedAt)
}

func TestBuildDashboard_Totales(t *testing.T) {
	t0 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	products := []entity.Product{
		{ID: "a", Name: "A", QuantityOnHand: d("20")},
		{ID: "b", Name: "B", QuantityOnHand: d("5")},
		{ID: "c", Name: "C", QuantityOnHand: d("0")},
		{ID: "e", Name: "E", QuantityOnHand: d("5.5")},
	}
	var sales []entity.SaleRecord
	for i := 0; i < 7; i++ {
		sales = append(sales, entity.SaleRecord{
			ID:           string(rune('a' + i)),
			TotalRevenue: d("100"),
			Profit:       d("10"),
			CreatedAt:    t0.Add(time.Duration(i) * time.Minute),
		})
	}

	snap := inventory.BuildDashboard(products, 3, sales, decimal.NewFromInt(5), 5, t0)

	assert.Equal(t, 4, snap.TotalProducts)
	assert.Equal(t, 3, snap.TotalCategories)
	assert.True(t, d("30.5").Equal(snap.TotalStock), "stock %s", snap.TotalStock)
	assert.Equal(t, 7, snap.TotalSales)
	assert.True(t, d("700").Equal(snap.TotalRevenue))
	assert.True(t, d("70").Equal(snap.TotalProfit))

	// Umbral inclusivo: 5 entra, 5.5 no.
	require.Len(t, snap.LowStockProducts, 2)
	assert.Equal(t, "b", snap.LowStockProducts[0].ID)
	assert.Equal(t, "c", snap.LowStockProducts[1].ID)

	require.Len(t, snap.RecentSales, 5)
	assert.Equal(t, "g", snap.RecentSales[0].ID)
	assert.Equal(t, "c", snap.RecentSales[4].ID)
	// La entrada no se reordena.
	assert.Equal(t, "a", sales[0].ID)
}

func TestBuildDashboard_UmbralConfigurable(t *testing.T) {
	products := []entity.Product{{ID: "a", QuantityOnHand: d("8")}}
	snap := inventory.BuildDashboard(products, 1, nil, decimal.NewFromInt(10), 5, time.Now())
	assert.Len(t, snap.LowStockProducts, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(snap.LowStockThreshold))
}
