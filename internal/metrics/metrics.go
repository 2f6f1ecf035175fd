package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Pipeline metrics
	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	signalsTotal     *prometheus.CounterVec
	signalsNotified  *prometheus.CounterVec
	busyRejections   prometheus.Counter
	cycleBusy        prometheus.Gauge
	historySize      prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.analysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantsafe_analysis_total",
			Help: "Total number of model analysis calls by outcome",
		},
		[]string{"provider", "outcome"},
	)
	r.analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quantsafe_analysis_duration_seconds",
			Help:    "Model analysis call duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)
	r.signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantsafe_signals_total",
			Help: "Total number of signals stored, by signal and risk level",
		},
		[]string{"signal", "risk"},
	)
	r.signalsNotified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantsafe_signals_notified_total",
			Help: "Total number of signals delivered to notifiers",
		},
		[]string{"notifier", "status"},
	)
	r.busyRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quantsafe_busy_rejections_total",
			Help: "Signal requests rejected because a cycle was in flight",
		},
	)
	r.cycleBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quantsafe_cycle_busy",
			Help: "1 while a signal request cycle is in flight",
		},
	)
	r.historySize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quantsafe_history_size",
			Help: "Number of signals held in history",
		},
	)

	reg.MustRegister(r.analysisTotal)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.signalsTotal)
	reg.MustRegister(r.signalsNotified)
	reg.MustRegister(r.busyRejections)
	reg.MustRegister(r.cycleBusy)
	reg.MustRegister(r.historySize)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordAnalysis records one model call and how it ended.
func (r *Registry) RecordAnalysis(provider, outcome string, duration float64) {
	r.analysisTotal.WithLabelValues(provider, outcome).Inc()
	r.analysisDuration.WithLabelValues(provider).Observe(duration)
}

// RecordSignal records a stored signal.
func (r *Registry) RecordSignal(signal, risk string) {
	r.signalsTotal.WithLabelValues(signal, risk).Inc()
}

// RecordSignalNotified records a notifier delivery.
func (r *Registry) RecordSignalNotified(notifier, status string) {
	r.signalsNotified.WithLabelValues(notifier, status).Inc()
}

// RecordBusyRejection records a trigger refused while a cycle was running.
func (r *Registry) RecordBusyRejection() {
	r.busyRejections.Inc()
}

// SetBusy sets the busy gauge.
func (r *Registry) SetBusy(busy bool) {
	if busy {
		r.cycleBusy.Set(1)
		return
	}
	r.cycleBusy.Set(0)
}

// SetHistorySize sets the history size gauge.
func (r *Registry) SetHistorySize(size int) {
	r.historySize.Set(float64(size))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
