package inventory

import (
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CostScale decimales con que se guarda el costo promedio.
const CostScale = 6

// QuantityScale decimales admitidos en cantidades y precios unitarios (NUMERIC(18,4)).
const QuantityScale = 4

// FitsScale indica si d se guarda sin redondeo con QuantityScale decimales.
// Un valor más fino se rechaza: la base lo redondearía y el stock dejaría de cuadrar con los eventos.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(QuantityScale))
}

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Si la suma no es positiva se toma el costo de la entrada.
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return costoEntrada.Round(CostScale)
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum).Round(CostScale)
}

// SaleFigures calcula ingreso y utilidad de una venta contra el costo promedio vigente.
func SaleFigures(quantity, unitSellingPrice, unitCost decimal.Decimal) (revenue, profit decimal.Decimal) {
	revenue = quantity.Mul(unitSellingPrice).Round(CostScale)
	profit = quantity.Mul(unitSellingPrice.Sub(unitCost)).Round(CostScale)
	return revenue, profit
}

// ReplayAverageCost recalcula el costo promedio reproduciendo en orden cronológico las
// recepciones y ventas vigentes, como si las eliminadas nunca hubieran existido.
// Las ventas solo reducen la cantidad (nunca por debajo de 0); no cambian el costo.
func ReplayAverageCost(receipts []entity.StockReceipt, sales []entity.SaleRecord) decimal.Decimal {
	type event struct {
		receipt *entity.StockReceipt
		sale    *entity.SaleRecord
	}
	events := make([]event, 0, len(receipts)+len(sales))
	for i := range receipts {
		events = append(events, event{receipt: &receipts[i]})
	}
	for i := range sales {
		events = append(events, event{sale: &sales[i]})
	}
	at := func(e event) (t int64, isSale int, id string) {
		if e.receipt != nil {
			return e.receipt.CreatedAt.UnixNano(), 0, e.receipt.ID
		}
		return e.sale.CreatedAt.UnixNano(), 1, e.sale.ID
	}
	// Empates: recepciones antes que ventas, luego por ID para un orden estable.
	sort.SliceStable(events, func(i, j int) bool {
		ti, si, idi := at(events[i])
		tj, sj, idj := at(events[j])
		if ti != tj {
			return ti < tj
		}
		if si != sj {
			return si < sj
		}
		return idi < idj
	})

	qty, cost := decimal.Zero, decimal.Zero
	for _, e := range events {
		if e.receipt != nil {
			cost = CostCalculator(qty, cost, e.receipt.Quantity, e.receipt.UnitPurchasePrice)
			qty = qty.Add(e.receipt.Quantity)
			continue
		}
		qty = decimal.Max(decimal.Zero, qty.Sub(e.sale.Quantity))
	}
	return cost
}
