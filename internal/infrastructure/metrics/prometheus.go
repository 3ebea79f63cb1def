package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

const namespace = "inventario"

var _ ports.LedgerMetrics = (*Prometheus)(nil)

// Prometheus agrupa los colectores del servicio: operaciones del motor de inventario y peticiones HTTP.
type Prometheus struct {
	gatherer prometheus.Gatherer

	ledgerOps      *prometheus.CounterVec
	ledgerDuration *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registra los colectores en reg. Con un *prometheus.Registry propio los tests no chocan con el global.
func New(reg *prometheus.Registry) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		gatherer: reg,
		ledgerOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_operations_total",
				Help:      "Operaciones del motor de inventario por tipo y resultado",
			},
			[]string{"op", "outcome"},
		),
		ledgerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ledger_operation_duration_seconds",
				Help:      "Duración de las operaciones del motor de inventario",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total de peticiones HTTP",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duración de las peticiones HTTP en segundos",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// NewDefault usa un registro nuevo con los colectores de proceso y runtime de Go.
func NewDefault() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return New(reg)
}

// ObserveOperation implementa ports.LedgerMetrics.
func (m *Prometheus) ObserveOperation(op, outcome string, elapsed time.Duration) {
	m.ledgerOps.WithLabelValues(op, outcome).Inc()
	m.ledgerDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Handler expone el registro en formato de texto de Prometheus.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware cuenta peticiones por ruta registrada (no por path crudo, para acotar la cardinalidad).
func (m *Prometheus) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		m.httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
