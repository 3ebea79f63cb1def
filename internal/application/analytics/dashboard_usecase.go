// Package analytics contiene el dashboard del inventario y sus reportes descargables.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// DashboardConfig parámetros del dashboard. Los campos vacíos toman el valor por defecto.
type DashboardConfig struct {
	LowStockThreshold decimal.NullDecimal // Valid=false usa inventory.DefaultLowStockThreshold
	RecentSales       int
	CacheTTL          time.Duration
	Cache             ports.DashboardCache
	Renderers         []ports.DashboardRenderer
	Logger            *logger.Logger
	Now               func() time.Time
}

// DashboardUseCase calcula el DashboardSnapshot a partir de las colecciones actuales.
// Es de solo lectura: nunca modifica productos ni eventos.
type DashboardUseCase struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	saleRepo     repository.SaleRecordRepository

	threshold decimal.Decimal
	recent    int
	ttl       time.Duration
	cache     ports.DashboardCache
	renderers map[string]ports.DashboardRenderer
	log       *logger.Logger
	now       func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	saleRepo repository.SaleRecordRepository,
	cfg DashboardConfig,
) *DashboardUseCase {
	uc := &DashboardUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		saleRepo:     saleRepo,
		threshold:    inventory.DefaultLowStockThreshold,
		recent:       cfg.RecentSales,
		ttl:          cfg.CacheTTL,
		cache:        cfg.Cache,
		renderers:    make(map[string]ports.DashboardRenderer, len(cfg.Renderers)),
		log:          cfg.Logger,
		now:          cfg.Now,
	}
	if cfg.LowStockThreshold.Valid {
		uc.threshold = cfg.LowStockThreshold.Decimal
	}
	if uc.recent <= 0 {
		uc.recent = inventory.DefaultRecentSales
	}
	if uc.cache == nil {
		uc.cache = ports.NoopDashboardCache{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	for _, r := range cfg.Renderers {
		uc.renderers[r.Extension()] = r
	}
	return uc
}

// GetSnapshot devuelve el snapshot cacheado o lo recalcula.
// Tres lecturas en paralelo: productos, cantidad de categorías y ventas.
func (uc *DashboardUseCase) GetSnapshot(ctx context.Context) (*entity.DashboardSnapshot, error) {
	if snap, ok, err := uc.cache.Get(ctx); err != nil {
		uc.log.Warn().Err(err).Msg("leer caché del dashboard")
	} else if ok {
		return snap, nil
	}
	// La generación se lee antes de cargar: una mutación que confirme durante la carga
	// la avanza y el snapshot calculado no se guarda.
	cacheable := uc.ttl > 0
	gen, err := uc.cache.Generation(ctx)
	if err != nil {
		uc.log.Warn().Err(err).Msg("leer generación del dashboard")
		cacheable = false
	}

	type productsResult struct {
		list []*entity.Product
		err  error
	}
	type countResult struct {
		n   int
		err error
	}
	type salesResult struct {
		list []*entity.SaleRecord
		err  error
	}

	productsCh := make(chan productsResult, 1)
	countCh := make(chan countResult, 1)
	salesCh := make(chan salesResult, 1)

	go func() {
		list, err := uc.productRepo.List(ctx, repository.ProductFilter{})
		productsCh <- productsResult{list, err}
	}()
	go func() {
		n, err := uc.categoryRepo.Count(ctx)
		countCh <- countResult{n, err}
	}()
	go func() {
		list, err := uc.saleRepo.List(ctx)
		salesCh <- salesResult{list, err}
	}()

	products := <-productsCh
	categories := <-countCh
	sales := <-salesCh

	if products.err != nil {
		return nil, fmt.Errorf("dashboard: productos: %w", products.err)
	}
	if categories.err != nil {
		return nil, fmt.Errorf("dashboard: categorías: %w", categories.err)
	}
	if sales.err != nil {
		return nil, fmt.Errorf("dashboard: ventas: %w", sales.err)
	}

	ps := make([]entity.Product, 0, len(products.list))
	for _, p := range products.list {
		ps = append(ps, *p)
	}
	ss := make([]entity.SaleRecord, 0, len(sales.list))
	for _, s := range sales.list {
		ss = append(ss, *s)
	}
	snap := inventory.BuildDashboard(ps, categories.n, ss, uc.threshold, uc.recent, uc.now().UTC())

	if cacheable {
		if err := uc.cache.Set(ctx, &snap, gen, uc.ttl); err != nil {
			uc.log.Warn().Err(err).Msg("guardar dashboard en caché")
		}
	}
	return &snap, nil
}

// GetSummary devuelve el snapshot listo para serializar.
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardResponse, error) {
	snap, err := uc.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := dto.DashboardFromEntity(snap)
	return &out, nil
}

// Report documento generado por ExportReport.
type Report struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportReport genera el dashboard en el formato pedido ("pdf", "xlsx").
// Formato no registrado: domain.ErrInvalidInput.
func (uc *DashboardUseCase) ExportReport(ctx context.Context, format string) (*Report, error) {
	r, ok := uc.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: formato de reporte %q", domain.ErrInvalidInput, format)
	}
	snap, err := uc.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	content, err := r.Render(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("dashboard: generar %s: %w", format, err)
	}
	return &Report{
		Content:     content,
		ContentType: r.ContentType(),
		Filename:    fmt.Sprintf("dashboard-%s.%s", snap.GeneratedAt.Format("20060102-1504"), r.Extension()),
	}, nil
}
