package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the routing engine.
type ConversationMetrics struct {
	inboundTotal    *prometheus.CounterVec
	intentTotal     *prometheus.CounterVec
	outboundTotal   *prometheus.CounterVec
	suppressedTotal prometheus.Counter
	gatewayLatency  *prometheus.HistogramVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "conversation",
			Name:      "inbound_total",
			Help:      "Total inbound messages accepted for routing",
		}, []string{"step"}),
		intentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "conversation",
			Name:      "intent_total",
			Help:      "Total classified intents, including llm_fallback and none",
		}, []string{"intent"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "conversation",
			Name:      "outbound_total",
			Help:      "Total outbound sends",
		}, []string{"kind", "status"}),
		suppressedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "conversation",
			Name:      "suppressed_total",
			Help:      "Messages dropped by the cooldown guard",
		}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "conversation",
			Name:      "gateway_latency_seconds",
			Help:      "Latency of external gateway calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"gateway", "operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.intentTotal, m.outboundTotal, m.suppressedTotal, m.gatewayLatency)
	return m
}

func (m *ConversationMetrics) ObserveInbound(step string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(step).Inc()
}

func (m *ConversationMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	if intent == "" {
		intent = "none"
	}
	m.intentTotal.WithLabelValues(intent).Inc()
}

func (m *ConversationMetrics) ObserveOutbound(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.outboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *ConversationMetrics) ObserveSuppressed() {
	if m == nil {
		return
	}
	m.suppressedTotal.Inc()
}

func (m *ConversationMetrics) ObserveGatewayLatency(gateway, operation string, seconds float64) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(gateway, operation).Observe(seconds)
}
