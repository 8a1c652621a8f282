package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for the campaign lab
type Metrics struct {
	// Variant lifecycle
	VariantsGeneratedTotal  *prometheus.CounterVec
	GenerationsDeniedTotal  *prometheus.CounterVec
	WinnersDeclaredTotal    prometheus.Counter
	VariantTransitionsTotal *prometheus.CounterVec

	// Optimizer
	OptimizerActionsTotal *prometheus.CounterVec
	OptimizerPassesTotal  *prometheus.CounterVec
	OptimizerPassSeconds  prometheus.Histogram
	UnderperformerAlerts  *prometheus.CounterVec

	// Side effects
	OutboxJobsTotal *prometheus.CounterVec

	// API
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		VariantsGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_lab_variants_generated_total",
				Help: "Total number of variants persisted from generation",
			},
			[]string{"angle"},
		),
		GenerationsDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_lab_generations_denied_total",
				Help: "Total number of generation requests denied by the rate limiter",
			},
			[]string{"reason"},
		),
		WinnersDeclaredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campaign_lab_winners_declared_total",
				Help: "Total number of winner determinations that produced a winner",
			},
		),
		VariantTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_lab_variant_transitions_total",
				Help: "Total number of approval and deployment transitions",
			},
			[]string{"action"},
		),
		OptimizerActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_lab_optimizer_actions_total",
				Help: "Total number of optimizer decisions by action",
			},
			[]string{"action"},
		),
		OptimizerPassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_lab_optimizer_passes_total",
				Help: "Total number of optimizer passes by outcome",
			},
			[]string{"outcome"},
		),
		OptimizerPassSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "campaign_lab_optimizer_pass_duration_seconds",
				Help:    "Duration of a single campaign optimization pass",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		UnderperformerAlerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_lab_underperformer_alerts_total",
				Help: "Total number of underperformer alerts by delivery result",
			},
			[]string{"result"},
		),
		OutboxJobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_lab_outbox_jobs_total",
				Help: "Total number of best-effort side effects by kind and status",
			},
			[]string{"kind", "status"},
		),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_lab_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campaign_lab_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.VariantsGeneratedTotal,
		m.GenerationsDeniedTotal,
		m.WinnersDeclaredTotal,
		m.VariantTransitionsTotal,
		m.OptimizerActionsTotal,
		m.OptimizerPassesTotal,
		m.OptimizerPassSeconds,
		m.UnderperformerAlerts,
		m.OutboxJobsTotal,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncVariantsGenerated counts one persisted variant
func IncVariantsGenerated(angle string) {
	if m := Global(); m != nil {
		m.VariantsGeneratedTotal.WithLabelValues(angle).Inc()
	}
}

// IncGenerationDenied counts a rate-limited generation request
func IncGenerationDenied(reason string) {
	if m := Global(); m != nil {
		m.GenerationsDeniedTotal.WithLabelValues(reason).Inc()
	}
}

// IncWinnerDeclared counts a winner determination that found a winner
func IncWinnerDeclared() {
	if m := Global(); m != nil {
		m.WinnersDeclaredTotal.Inc()
	}
}

// IncTransition counts an approval or deployment transition
func IncTransition(action string) {
	if m := Global(); m != nil {
		m.VariantTransitionsTotal.WithLabelValues(action).Inc()
	}
}

// IncOptimizerAction counts an optimizer decision
func IncOptimizerAction(action string) {
	if m := Global(); m != nil {
		m.OptimizerActionsTotal.WithLabelValues(action).Inc()
	}
}

// ObserveOptimizerPass records the outcome and duration of one pass
func ObserveOptimizerPass(outcome string, seconds float64) {
	if m := Global(); m != nil {
		m.OptimizerPassesTotal.WithLabelValues(outcome).Inc()
		m.OptimizerPassSeconds.Observe(seconds)
	}
}

// IncUnderperformerAlert counts an alert by delivery result
func IncUnderperformerAlert(result string) {
	if m := Global(); m != nil {
		m.UnderperformerAlerts.WithLabelValues(result).Inc()
	}
}

// ObserveOutboxJob counts a finished side effect; it matches the outbox result hook signature
func ObserveOutboxJob(kind string, err error) {
	m := Global()
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.OutboxJobsTotal.WithLabelValues(kind, status).Inc()
}
