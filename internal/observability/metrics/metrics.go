package metrics

import "github.com/prometheus/client_golang/prometheus"

// CallMetrics exposes counters/histograms for call flows.
type CallMetrics struct {
	turnsTotal      *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	duplicatesTotal *prometheus.CounterVec
	llmFailures     *prometheus.CounterVec
	sinkFailures    *prometheus.CounterVec
	llmLatency      *prometheus.HistogramVec
	activeCalls     prometheus.Gauge
}

func NewCallMetrics(reg prometheus.Registerer) *CallMetrics {
	m := &CallMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "calls",
			Name:      "turns_total",
			Help:      "Turns folded into call histories",
		}, []string{"mode", "speaker"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "calls",
			Name:      "bookings_committed_total",
			Help:      "Bookings committed by the dialogue engine",
		}, []string{"service"}),
		duplicatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "calls",
			Name:      "duplicates_suppressed_total",
			Help:      "Redelivered utterances and repeated bookings that were dropped",
		}, []string{"kind"}),
		llmFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "llm",
			Name:      "failures_total",
			Help:      "Completion requests answered with the fallback utterance",
		}, []string{"reason"}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "booking",
			Name:      "sink_failures_total",
			Help:      "Failed writes to appointment sinks and the transcript archive",
		}, []string{"sink"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voicebooking",
			Subsystem: "llm",
			Name:      "completion_latency_seconds",
			Help:      "Latency of completion requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		activeCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicebooking",
			Subsystem: "calls",
			Name:      "active",
			Help:      "Calls currently holding a session",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.duplicatesTotal, m.llmFailures, m.sinkFailures, m.llmLatency, m.activeCalls)
	return m
}

func (m *CallMetrics) ObserveTurn(mode, speaker string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(mode, speaker).Inc()
}

func (m *CallMetrics) ObserveBooking(service string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(service).Inc()
}

// ObserveDuplicate counts a suppressed redelivery; kind is "utterance" or "booking".
func (m *CallMetrics) ObserveDuplicate(kind string) {
	if m == nil {
		return
	}
	m.duplicatesTotal.WithLabelValues(kind).Inc()
}

func (m *CallMetrics) ObserveLLMFailure(reason string) {
	if m == nil {
		return
	}
	m.llmFailures.WithLabelValues(reason).Inc()
}

func (m *CallMetrics) ObserveSinkFailure(sink string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(sink).Inc()
}

func (m *CallMetrics) ObserveLLMLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(status).Observe(seconds)
}

func (m *CallMetrics) CallStarted() {
	if m == nil {
		return
	}
	m.activeCalls.Inc()
}

func (m *CallMetrics) CallEnded() {
	if m == nil {
		return
	}
	m.activeCalls.Dec()
}
