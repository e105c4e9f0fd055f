package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "escrow"
	subsystem = "ledger"
)

// Metrics holds the prometheus collectors of the escrow ledger. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Operations           *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
	ReentrancyRejections prometheus.Counter
	JournalFailures      prometheus.Counter
	SwapReceived         prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves them
// unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operations_total",
				Help:      "Total number of ledger operations by outcome",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operation_duration_seconds",
				Help:      "Ledger operation latency in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
		ReentrancyRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reentrancy_rejections_total",
			Help:      "Calls rejected because another ledger operation was in progress",
		}),
		JournalFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "journal_failures_total",
			Help:      "Completed operations that could not be written to the journal",
		}),
		SwapReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "swap_received_total",
			Help:      "Asset B units credited by swaps",
		}),
	}
}

func (m *Metrics) ObserveOperation(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) ReentrancyRejected() {
	if m == nil {
		return
	}
	m.ReentrancyRejections.Inc()
}

func (m *Metrics) JournalFailed() {
	if m == nil {
		return
	}
	m.JournalFailures.Inc()
}

func (m *Metrics) SwapCredited(amount float64) {
	if m == nil {
		return
	}
	m.SwapReceived.Add(amount)
}
