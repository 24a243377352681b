package metrics

import (
	"time"

	"heritage-archive-be/pkg/rag"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the prometheus-backed rag.Observer.
type Metrics struct {
	Turns          *prometheus.CounterVec
	ToolCalls      *prometheus.CounterVec
	ToolAttempts   *prometheus.HistogramVec
	Retries        *prometheus.CounterVec
	AcceptedTotal  prometheus.Histogram
	StreamEvents   *prometheus.CounterVec
	IngestDuration *prometheus.HistogramVec
}

var _ rag.Observer = (*Metrics)(nil)

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heritage",
			Name:      "search_turns_total",
			Help:      "Search turns by classified intent and outcome.",
		}, []string{"intent", "outcome"}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heritage",
			Name:      "tool_calls_total",
			Help:      "Retrieval tool invocations by tool and final status.",
		}, []string{"tool", "status"}),
		ToolAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "heritage",
			Name:      "tool_attempts",
			Help:      "Attempts used per tool invocation.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}, []string{"tool"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heritage",
			Name:      "tool_retries_total",
			Help:      "Retried tool attempts.",
		}, []string{"tool"}),
		AcceptedTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heritage",
			Name:      "accepted_records",
			Help:      "Accepted archive records per search turn.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		StreamEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heritage",
			Name:      "stream_events_total",
			Help:      "Events written to search streams by type.",
		}, []string{"type"}),
		IngestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "heritage",
			Name:      "ingest_duration_seconds",
			Help:      "Archive ingest pipeline duration by outcome.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.Turns, m.ToolCalls, m.ToolAttempts, m.Retries, m.AcceptedTotal, m.StreamEvents, m.IngestDuration)
	return m
}

func (m *Metrics) ToolCall(tool, status string, attempts int) {
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolAttempts.WithLabelValues(tool).Observe(float64(attempts))
}

func (m *Metrics) Retry(tool string) {
	m.Retries.WithLabelValues(tool).Inc()
}

func (m *Metrics) Turn(intent rag.IntentKind, outcome string, accepted int) {
	label := string(intent)
	if label == "" {
		label = "unknown"
	}
	m.Turns.WithLabelValues(label, outcome).Inc()
	if intent == rag.IntentSearch {
		m.AcceptedTotal.Observe(float64(accepted))
	}
}

func (m *Metrics) StreamEvent(eventType string) {
	m.StreamEvents.WithLabelValues(eventType).Inc()
}

// ObserveIngest records one ingest run started at start.
func (m *Metrics) ObserveIngest(start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.IngestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
