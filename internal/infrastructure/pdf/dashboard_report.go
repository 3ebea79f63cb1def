// Package pdf genera el reporte del dashboard de inventario en PDF (A4).
//
// Layout:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: nombre de la app         │  Fecha de generación    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: productos / categorías / stock / ventas           │
//	│           ingresos / utilidad                               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  STOCK BAJO: Producto | Categoría | Stock | Costo prom.     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ÚLTIMAS VENTAS: Fecha | Producto | Cant | Ingreso | Util.  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var _ ports.DashboardRenderer = (*DashboardPDF)(nil)

// DashboardPDF implementa ports.DashboardRenderer con Maroto v2.
type DashboardPDF struct {
	title   string
	printer *message.Printer
}

// NewDashboardPDF construye el generador. title va en el encabezado (ej. APP_NAME).
func NewDashboardPDF(title string) *DashboardPDF {
	return &DashboardPDF{title: title, printer: message.NewPrinter(language.Spanish)}
}

func (g *DashboardPDF) ContentType() string { return "application/pdf" }
func (g *DashboardPDF) Extension() string   { return "pdf" }

// Render genera el PDF y devuelve sus bytes.
func (g *DashboardPDF) Render(_ context.Context, snap *entity.DashboardSnapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("pdf: snapshot nil")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Dashboard de inventario", true).
		WithAuthor(g.title, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(g.headerRow(snap))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(g.totalsRows(snap)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.lowStockRows(snap)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.recentSalesRows(snap)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *DashboardPDF) headerRow(snap *entity.DashboardSnapshot) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(g.title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Resumen de inventario", props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Generado: "+snap.GeneratedAt.Format("02/01/2006 15:04")+" UTC", props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

func (g *DashboardPDF) totalsRows(snap *entity.DashboardSnapshot) []core.Row {
	cell := func(label, value string) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Size: 8, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 12, Top: 5}),
		)
	}
	return []core.Row{
		row.New(14).Add(
			cell("Productos", g.printer.Sprintf("%d", snap.TotalProducts)),
			cell("Categorías", g.printer.Sprintf("%d", snap.TotalCategories)),
			cell("Stock total", g.number(snap.TotalStock)),
		),
		row.New(14).Add(
			cell("Ventas", g.printer.Sprintf("%d", snap.TotalSales)),
			cell("Ingresos", "$"+g.money(snap.TotalRevenue)),
			cell("Utilidad", "$"+g.money(snap.TotalProfit)),
		),
	}
}

func (g *DashboardPDF) lowStockRows(snap *entity.DashboardSnapshot) []core.Row {
	rows := []core.Row{
		sectionTitle(fmt.Sprintf("STOCK BAJO (≤ %s)", snap.LowStockThreshold.String())),
		tableHeader([]string{"Producto", "Categoría", "Stock", "Costo prom."}, []int{5, 3, 2, 2}),
	}
	if len(snap.LowStockProducts) == 0 {
		return append(rows, emptyRow("Ningún producto por debajo del umbral."))
	}
	for _, p := range snap.LowStockProducts {
		rows = append(rows, row.New(6).Add(
			col.New(5).Add(text.New(p.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(p.CategoryName, props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(g.number(p.QuantityOnHand)+" "+p.Unit, props.Text{
				Size: 8, Top: 1, Align: align.Right, Color: colorAlert,
			})),
			col.New(2).Add(text.New("$"+g.money(p.AverageCost), props.Text{Size: 8, Top: 1, Align: align.Right, Right: 1})),
		))
	}
	return rows
}

func (g *DashboardPDF) recentSalesRows(snap *entity.DashboardSnapshot) []core.Row {
	rows := []core.Row{
		sectionTitle("ÚLTIMAS VENTAS"),
		tableHeader([]string{"Fecha", "Producto", "Cant.", "Ingreso", "Utilidad"}, []int{2, 4, 2, 2, 2}),
	}
	if len(snap.RecentSales) == 0 {
		return append(rows, emptyRow("Sin ventas registradas."))
	}
	for _, s := range snap.RecentSales {
		name := s.ProductName
		if name == "" {
			name = s.ProductID
		}
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(text.New(s.CreatedAt.Format("02/01/2006"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(name, props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(g.number(s.Quantity), props.Text{Size: 8, Top: 1, Align: align.Right})),
			col.New(2).Add(text.New("$"+g.money(s.TotalRevenue), props.Text{Size: 8, Top: 1, Align: align.Right})),
			col.New(2).Add(text.New("$"+g.money(s.Profit), props.Text{Size: 8, Top: 1, Align: align.Right, Right: 1})),
		))
	}
	return rows
}

func sectionTitle(s string) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2}),
	))
}

func tableHeader(labels []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		a := align.Right
		if i < 2 {
			a = align.Left
		}
		cols = append(cols, col.New(sizes[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorGray, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

func emptyRow(msg string) core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 8, Top: 1, Color: colorGray, Left: 1}),
	))
}

// money formatea con separadores de miles del locale y 2 decimales.
func (g *DashboardPDF) money(d decimal.Decimal) string {
	return g.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// number omite decimales cuando la cantidad es entera.
func (g *DashboardPDF) number(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return g.printer.Sprintf("%d", d.IntPart())
	}
	return g.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}
