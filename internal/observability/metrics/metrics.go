package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics exposes counters/histograms for the webhook relay flow.
type RelayMetrics struct {
	inboundTotal     *prometheus.CounterVec
	completionTotal  *prometheus.CounterVec
	runPollsTotal    prometheus.Counter
	outboundSegments *prometheus.CounterVec
	webhookLatency   prometheus.Histogram
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "webhook",
			Name:      "inbound_events_total",
			Help:      "Inbound WhatsApp webhook events by disposition",
		}, []string{"disposition"}),
		completionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "assistant",
			Name:      "completions_total",
			Help:      "Assistant completion attempts by outcome",
		}, []string{"outcome"}),
		runPollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "assistant",
			Name:      "run_polls_total",
			Help:      "Run status checks issued against the assistant backend",
		}),
		outboundSegments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "messaging",
			Name:      "outbound_segments_total",
			Help:      "Outbound WhatsApp message segments by status",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of webhook delivery processing",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.completionTotal, m.runPollsTotal, m.outboundSegments, m.webhookLatency)
	return m
}

// ObserveInbound counts an inbound event. Disposition is one of
// processed, duplicate, ignored, invalid, failed.
func (m *RelayMetrics) ObserveInbound(disposition string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(disposition).Inc()
}

// ObserveCompletion counts a completion attempt by outcome.
func (m *RelayMetrics) ObserveCompletion(outcome string) {
	if m == nil {
		return
	}
	m.completionTotal.WithLabelValues(outcome).Inc()
}

// ObserveRunPoll counts one run status check.
func (m *RelayMetrics) ObserveRunPoll() {
	if m == nil {
		return
	}
	m.runPollsTotal.Inc()
}

// ObserveOutboundSegment counts one outbound segment send.
func (m *RelayMetrics) ObserveOutboundSegment(status string) {
	if m == nil {
		return
	}
	m.outboundSegments.WithLabelValues(status).Inc()
}

// ObserveWebhookLatency records processing latency for one delivery.
func (m *RelayMetrics) ObserveWebhookLatency(seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.Observe(seconds)
}
