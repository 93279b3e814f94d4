// Package metrics, bilet kontrol (validate/use) sonuçlarının Prometheus
// metrikleri.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation adları.
const (
	OperationValidate = "validate"
	OperationUse      = "use"
)

// Result etiketleri.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultUsed     = "used"
	ResultNotOwned = "not_owned"
	ResultError    = "error"
)

// TicketMetrics, validate/use çağrılarını sayar ve süresini ölçer.
// Nil bir *TicketMetrics üzerinde çağrılar hiçbir şey yapmaz.
type TicketMetrics struct {
	checks   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewTicketMetrics, metrikleri reg'e kaydeder. reg nil ise
// prometheus.DefaultRegisterer kullanılır.
func NewTicketMetrics(reg prometheus.Registerer) *TicketMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &TicketMetrics{
		checks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_checks_total",
				Help: "Total ticket validate/use checks by outcome",
			},
			[]string{"operation", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticket_check_duration_seconds",
				Help:    "Duration of ticket validate/use checks",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// ObserveCheck, bir kontrolün sonucunu ve süresini kaydeder.
func (m *TicketMetrics) ObserveCheck(operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}
