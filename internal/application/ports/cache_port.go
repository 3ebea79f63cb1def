package ports

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// DashboardCache guarda el último DashboardSnapshot calculado.
// Invalidate se llama después de cada mutación confirmada del inventario o del catálogo
// y avanza la generación. Set recibe la generación leída antes de cargar los datos:
// si cambió mientras se calculaba, el snapshot ya es viejo y no se guarda ni se sirve.
type DashboardCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context) (*entity.DashboardSnapshot, bool, error)
	Set(ctx context.Context, snap *entity.DashboardSnapshot, generation int64, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// NoopDashboardCache no guarda nada (sin Redis configurado, tests).
type NoopDashboardCache struct{}

func (NoopDashboardCache) Generation(_ context.Context) (int64, error) { return 0, nil }

func (NoopDashboardCache) Get(_ context.Context) (*entity.DashboardSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) Set(_ context.Context, _ *entity.DashboardSnapshot, _ int64, _ time.Duration) error {
	return nil
}

func (NoopDashboardCache) Invalidate(_ context.Context) error { return nil }
