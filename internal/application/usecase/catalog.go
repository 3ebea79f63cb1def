package usecase

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// CatalogDeps dependencias compartidas por los casos de uso de catálogo.
// Los campos nil toman un valor no-op.
type CatalogDeps struct {
	Cache  ports.DashboardCache
	Logger *logger.Logger
	Now    func() time.Time
}

func (d CatalogDeps) withDefaults() CatalogDeps {
	if d.Cache == nil {
		d.Cache = ports.NoopDashboardCache{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// invalidate descarta el dashboard cacheado; un fallo de la caché no revierte la mutación.
func (d CatalogDeps) invalidate(ctx context.Context, op string) {
	if err := d.Cache.Invalidate(ctx); err != nil {
		d.Logger.Warn().Err(err).Str("op", op).Msg("invalidar caché del dashboard")
	}
}
