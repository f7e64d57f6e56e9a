package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Phases of an analysis, used as the label of the duration histogram
const (
	PhaseExplore = "explore"
	PhaseBuild   = "build"
	PhaseCheck   = "check"
)

// Collects the metrics of the analyses run by one process.
//
// All methods are safe to call on a nil *Metrics, in which case nothing is recorded.
type Metrics struct {
	states      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	paths       prometheus.Counter
	exceptions  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	stateCount  *prometheus.HistogramVec
}

// Register the metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		states: f.NewCounterVec(prometheus.CounterOpts{
			Name: "safemc_states_discovered_total",
			Help: "Total distinct states discovered by model",
		}, []string{"model"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "safemc_transitions_total",
			Help: "Total transitions explored by model",
		}, []string{"model"}),
		paths: f.NewCounter(prometheus.CounterOpts{
			Name: "safemc_choice_paths_total",
			Help: "Total paths enumerated by the choice resolvers",
		}),
		exceptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "safemc_model_exceptions_total",
			Help: "Total panics raised by models during exploration",
		}, []string{"model"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "safemc_phase_duration_seconds",
			Help:    "Duration of the analysis phases in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		}, []string{"phase"}),
		stateCount: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "safemc_state_space_size",
			Help:    "Number of states of the explored state spaces",
			Buckets: prometheus.ExponentialBuckets(1, 10, 9),
		}, []string{"model"}),
	}
}

func (m *Metrics) StateDiscovered(model string) {
	if m == nil {
		return
	}
	m.states.WithLabelValues(model).Inc()
}

func (m *Metrics) TransitionsExplored(model string, n int) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(model).Add(float64(n))
	m.paths.Add(float64(n))
}

func (m *Metrics) Exception(model string) {
	if m == nil {
		return
	}
	m.exceptions.WithLabelValues(model).Inc()
}

func (m *Metrics) ObserveDuration(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(phase).Observe(d.Seconds())
}

func (m *Metrics) ObserveStateSpace(model string, states int) {
	if m == nil {
		return
	}
	m.stateCount.WithLabelValues(model).Observe(float64(states))
}
