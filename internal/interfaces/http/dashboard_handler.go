package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
)

// DashboardHandler maneja los endpoints del dashboard.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary godoc
// @Summary      Dashboard del inventario
// @Description  Totales de productos, categorías, stock, ventas, ingresos y ganancia; productos con stock bajo y últimas ventas.
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DashboardResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/dashboard [get]
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}

// GetReport godoc
// @Summary      Descargar el dashboard
// @Tags         dashboard
// @Security     Bearer
// @Produce      application/pdf
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        format  path  string  true  "pdf | xlsx"
// @Success      200  {file}  binary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/dashboard/report.{format} [get]
func (h *DashboardHandler) GetReport(c *fiber.Ctx) error {
	rep, err := h.uc.ExportReport(c.UserContext(), c.Params("format"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, rep.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, rep.Filename))
	return c.Send(rep.Content)
}
