package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

func TestObserveOperation_CountsByOpAndOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("record_sale", ports.OutcomeOK, 3*time.Millisecond)
	m.ObserveOperation("record_sale", ports.OutcomeOK, 2*time.Millisecond)
	m.ObserveOperation("record_sale", ports.OutcomeInsufficientStock, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerOps.WithLabelValues("record_sale", ports.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerOps.WithLabelValues("record_sale", ports.OutcomeInsufficientStock)))
}

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	m := New(prometheus.NewRegistry())
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/api/products/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/products/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/products/:id", "204")))
}

func TestHandler_ExposesLedgerMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveOperation("reverse_sale", ports.OutcomeNotFound, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `inventario_ledger_operations_total{op="reverse_sale",outcome="not_found"} 1`)
}
