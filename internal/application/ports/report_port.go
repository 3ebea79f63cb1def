package ports

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// DashboardRenderer convierte un snapshot del dashboard en un documento descargable.
type DashboardRenderer interface {
	Render(ctx context.Context, snap *entity.DashboardSnapshot) ([]byte, error)
	ContentType() string
	// Extension sin punto: "pdf", "xlsx".
	Extension() string
}
