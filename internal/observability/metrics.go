package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the agent service.
type Metrics struct {
	Conversations  prometheus.Gauge
	TurnsTotal     *prometheus.CounterVec
	StageFallbacks *prometheus.CounterVec
	ToolCalls      *prometheus.CounterVec
	TurnLatency    prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Conversations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conversations",
			Help:      "Number of conversations held in the session store.",
		}),
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed turns by outcome.",
		}, []string{"outcome"}),
		StageFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_fallbacks_total",
			Help:      "Pipeline stage fallbacks by stage.",
		}, []string{"stage"}),
		ToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and status.",
		}, []string{"tool", "status"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end turn latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
	}
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	m.TurnLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
