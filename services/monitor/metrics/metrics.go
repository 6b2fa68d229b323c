package metrics

import (
	"net/http"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alerts_monitor"

// Incident states reported by the incidents gauge
const (
	IncidentStateActive   = "active"
	IncidentStateInactive = "inactive"
)

type pollMetrics struct {
	registry   *prometheus.Registry
	pollCycles *prometheus.CounterVec
	incidents  *prometheus.GaugeVec
	activeLoop prometheus.Gauge
}

// NewPollMetrics creates the metrics on a dedicated registry
func NewPollMetrics() *pollMetrics {
	m := &pollMetrics{
		registry: prometheus.NewRegistry(),
		pollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Published poll states by key and status",
		}, []string{"key", "status"}),
		incidents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "incidents",
			Help:      "Incidents of the last classification by perspective and state",
		}, []string{"perspective", "state"}),
		activeLoop: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_poll_loops",
			Help:      "Number of running poll loops",
		}),
	}

	m.registry.MustRegister(m.pollCycles, m.incidents, m.activeLoop)

	return m
}

// ObservePollState counts a published poll state
func (m *pollMetrics) ObservePollState(key string, status common.PollStatus) {
	m.pollCycles.WithLabelValues(key, string(status)).Inc()
}

// SetIncidents records the active and inactive incidents of the perspective
func (m *pollMetrics) SetIncidents(perspective string, incidents []common.Incident) {
	active := 0
	for _, incident := range incidents {
		if !incident.Inactive {
			active++
		}
	}

	m.incidents.WithLabelValues(perspective, IncidentStateActive).Set(float64(active))
	m.incidents.WithLabelValues(perspective, IncidentStateInactive).Set(float64(len(incidents) - active))
}

// SetActiveLoops records the number of running poll loops
func (m *pollMetrics) SetActiveLoops(num int) {
	m.activeLoop.Set(float64(num))
}

// Handler returns the HTTP handler exposing the metrics
func (m *pollMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IsInterfaceNil returns true if the value under the interface is nil
func (m *pollMetrics) IsInterfaceNil() bool {
	return m == nil
}
