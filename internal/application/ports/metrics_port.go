package ports

import "time"

// Resultados de una operación del motor de inventario (etiqueta de métricas).
const (
	OutcomeOK                = "ok"
	OutcomeInvalid           = "invalid"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeError             = "error"
)

// LedgerMetrics registra cada operación del motor de inventario.
type LedgerMetrics interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
}

// NoopLedgerMetrics descarta las observaciones.
type NoopLedgerMetrics struct{}

func (NoopLedgerMetrics) ObserveOperation(string, string, time.Duration) {}
