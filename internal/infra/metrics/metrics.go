// backend/internal/infra/metrics/metrics.go
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sc "solusd/internal/domain/stablecoin"
)

// Metrics owns a private registry so tests can build as many as they need.
type Metrics struct {
	Registry *prometheus.Registry

	operations      *prometheus.CounterVec
	operationTime   *prometheus.HistogramVec
	mintsCreated    prometheus.Counter
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solusd",
			Subsystem: "issuance",
			Name:      "operations_total",
			Help:      "Mint and burn operations by outcome.",
		}, []string{"op", "outcome"}),
		operationTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "solusd",
			Subsystem: "issuance",
			Name:      "operation_duration_seconds",
			Help:      "Mint and burn latency including confirmation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"op"}),
		mintsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "solusd",
			Subsystem: "issuance",
			Name:      "mints_created_total",
			Help:      "Mint accounts created by this process (at most 1).",
		}),
		requestCounter: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solusd",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "solusd",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route"}),
	}
}

// Outcome label for an operation error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, sc.ErrInvalidAmount), errors.Is(err, sc.ErrInvalidWallet):
		return "invalid"
	case errors.Is(err, sc.ErrMintNotInitialized):
		return "not_initialized"
	case errors.Is(err, sc.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, sc.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, sc.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, sc.ErrLedgerUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func (m *Metrics) ObserveOperation(op sc.OperationType, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(op), Outcome(err)).Inc()
	m.operationTime.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

func (m *Metrics) MintCreated() {
	if m == nil {
		return
	}
	m.mintsCreated.Inc()
}

// ObserveRequest records one HTTP request. route is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
