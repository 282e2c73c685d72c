package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "watchtower"

// Prometheus records measurements as Prometheus collectors.
type Prometheus struct {
	generationDuration *prometheus.HistogramVec
	generations        *prometheus.CounterVec
	unresolvedSlots    *prometheus.CounterVec
	publishes          *prometheus.CounterVec
	complianceChecks   *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus registers the roster collectors with reg.
//
// Parameters:
//   - reg: registerer to use (prometheus.DefaultRegisterer if nil)
//   - namespace: metric namespace (DefaultNamespace if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Prometheus{
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Roster generation duration in seconds by station.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"station"}),
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "total",
			Help:      "Roster generation attempts by station and outcome.",
		}, []string{"station", "outcome"}),
		unresolvedSlots: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "unresolved_slots_total",
			Help:      "Coverage slots left below minimum by station.",
		}, []string{"station"}),
		publishes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "publish_total",
			Help:      "Roster publish requests by outcome.",
		}, []string{"outcome"}),
		complianceChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compliance",
			Name:      "evaluations_total",
			Help:      "Member compliance evaluations by status.",
		}, []string{"status"}),
	}
}

func (p *Prometheus) ObserveGeneration(station, outcome string, duration time.Duration, unresolved int) {
	p.generations.WithLabelValues(station, outcome).Inc()
	p.generationDuration.WithLabelValues(station).Observe(duration.Seconds())
	if unresolved > 0 {
		p.unresolvedSlots.WithLabelValues(station).Add(float64(unresolved))
	}
}

func (p *Prometheus) ObservePublish(outcome string) {
	p.publishes.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ObserveCompliance(status string) {
	p.complianceChecks.WithLabelValues(status).Inc()
}
