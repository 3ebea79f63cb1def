// Package spreadsheet exporta el dashboard de inventario a XLSX (excelize).
package spreadsheet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Hojas del libro.
const (
	SheetSummary  = "Resumen"
	SheetLowStock = "Stock bajo"
	SheetSales    = "Ultimas ventas"
)

var _ ports.DashboardRenderer = (*DashboardXLSX)(nil)

// DashboardXLSX implementa ports.DashboardRenderer: una hoja por sección del dashboard.
type DashboardXLSX struct{}

func NewDashboardXLSX() *DashboardXLSX { return &DashboardXLSX{} }

func (DashboardXLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (DashboardXLSX) Extension() string { return "xlsx" }

func (DashboardXLSX) Render(_ context.Context, snap *entity.DashboardSnapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("xlsx: snapshot nil")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("xlsx: hoja resumen: %w", err)
	}
	summary := [][]any{
		{"Indicador", "Valor"},
		{"Productos", snap.TotalProducts},
		{"Categorías", snap.TotalCategories},
		{"Stock total", snap.TotalStock.InexactFloat64()},
		{"Ventas", snap.TotalSales},
		{"Ingresos", snap.TotalRevenue.InexactFloat64()},
		{"Utilidad", snap.TotalProfit.InexactFloat64()},
		{"Umbral stock bajo", snap.LowStockThreshold.InexactFloat64()},
		{"Generado (UTC)", snap.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return nil, err
	}

	low := [][]any{{"ID", "Producto", "Categoría", "Unidad", "Stock", "Costo promedio", "Precio venta"}}
	for _, p := range snap.LowStockProducts {
		low = append(low, []any{
			p.ID, p.Name, p.CategoryName, p.Unit,
			p.QuantityOnHand.InexactFloat64(), p.AverageCost.InexactFloat64(), p.SellingPrice.InexactFloat64(),
		})
	}
	if _, err := f.NewSheet(SheetLowStock); err != nil {
		return nil, fmt.Errorf("xlsx: hoja stock bajo: %w", err)
	}
	if err := writeRows(f, SheetLowStock, low); err != nil {
		return nil, err
	}

	sales := [][]any{{"Fecha", "Producto", "Cantidad", "Precio unitario", "Costo unitario", "Ingreso", "Utilidad"}}
	for _, s := range snap.RecentSales {
		sales = append(sales, []any{
			s.CreatedAt.UTC().Format("2006-01-02 15:04:05"), s.ProductName,
			s.Quantity.InexactFloat64(), s.UnitSellingPrice.InexactFloat64(), s.UnitCost.InexactFloat64(),
			s.TotalRevenue.InexactFloat64(), s.Profit.InexactFloat64(),
		})
	}
	if _, err := f.NewSheet(SheetSales); err != nil {
		return nil, fmt.Errorf("xlsx: hoja ventas: %w", err)
	}
	if err := writeRows(f, SheetSales, sales); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("xlsx: fila %d de %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
