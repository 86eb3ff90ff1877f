package metrics

import "github.com/prometheus/client_golang/prometheus"

// DashboardMetrics exposes counters/histograms for clinic dashboard flows.
type DashboardMetrics struct {
	mutationsTotal *prometheus.CounterVec
	bootstrapTotal *prometheus.CounterVec
	chatTotal      *prometheus.CounterVec
	storeLatency   *prometheus.HistogramVec
	corruptRecords *prometheus.CounterVec
	modelCalls     *prometheus.CounterVec
}

func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	m := &DashboardMetrics{
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicpro",
			Subsystem: "dashboard",
			Name:      "mutations_total",
			Help:      "Record mutations by kind and outcome",
		}, []string{"kind", "outcome"}),
		bootstrapTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicpro",
			Subsystem: "dashboard",
			Name:      "bootstrap_total",
			Help:      "Clinic setups by stats source (ai or fallback)",
		}, []string{"source"}),
		chatTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicpro",
			Subsystem: "assistant",
			Name:      "chat_replies_total",
			Help:      "Assistant replies by outcome",
		}, []string{"outcome"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medicpro",
			Subsystem: "store",
			Name:      "operation_seconds",
			Help:      "Latency of record store operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation", "status"}),
		corruptRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicpro",
			Subsystem: "store",
			Name:      "corrupt_records_total",
			Help:      "Persisted records that could not be decoded",
		}, []string{"backend"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicpro",
			Subsystem: "assistant",
			Name:      "model_calls_total",
			Help:      "Language model calls by provider role (primary or fallback) and outcome",
		}, []string{"role", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.mutationsTotal, m.bootstrapTotal, m.chatTotal, m.storeLatency, m.corruptRecords, m.modelCalls)
	return m
}

func (m *DashboardMetrics) ObserveMutation(kind, outcome string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *DashboardMetrics) ObserveBootstrap(source string) {
	if m == nil {
		return
	}
	m.bootstrapTotal.WithLabelValues(source).Inc()
}

func (m *DashboardMetrics) ObserveChat(outcome string) {
	if m == nil {
		return
	}
	m.chatTotal.WithLabelValues(outcome).Inc()
}

func (m *DashboardMetrics) ObserveStoreOp(backend, operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.storeLatency.WithLabelValues(backend, operation, status).Observe(seconds)
}

func (m *DashboardMetrics) IncCorruptRecord(backend string) {
	if m == nil {
		return
	}
	m.corruptRecords.WithLabelValues(backend).Inc()
}

func (m *DashboardMetrics) ObserveModelCall(role string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.modelCalls.WithLabelValues(role, outcome).Inc()
}
