package config

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Configures how many workers explore the state space concurrently

// Default value is runtime.GOMAXPROCS(0)
type WorkersOption struct {
	N int
}

func (wo WorkersOption) AnalysisOpt() {}

// Configures the maximum number of distinct states.

// Exploring more states aborts the analysis with a capacity error.
// Default value is DefaultStateCapacity
type StateCapacityOption struct {
	Capacity int
}

func (sco StateCapacityOption) AnalysisOpt() {}

// Configures the maximum number of entries of the transition matrix.

// Default value is derived from the explored state space
type TransitionCapacityOption struct {
	Capacity int
}

func (tco TransitionCapacityOption) AnalysisOpt() {}

// Stop the exploration as soon as a hazard state has been found.

// The hazard probability is not computed when the exploration is stopped early.
type StopOnHazardOption struct{}

func (soh StopOnHazardOption) AnalysisOpt() {}

// Configures the stopping criteria of the probability computations

// Zero values use the defaults of the checking package
type IterationOption struct {
	Epsilon       float64
	MaxIterations int
}

func (ito IterationOption) AnalysisOpt() {}

// Configures the logger used during the analysis

// Default value is the logger carried by the context, or slog.Default()
type LoggerOption struct {
	Logger *slog.Logger
}

func (lo LoggerOption) AnalysisOpt() {}

// Registers the exploration metrics with the registerer.

// Default value is no metrics.
type MetricsOption struct {
	Registerer prometheus.Registerer
}

func (mo MetricsOption) AnalysisOpt() {}

// Configures the session id of the analysis

// Default value is a new random id for every check
type SessionOption struct {
	Id uuid.UUID
}

func (so SessionOption) AnalysisOpt() {}

// Configures the provider of the tracer recording the phases of every check

// Default value is the global provider, otel.GetTracerProvider()
type TracerOption struct {
	Provider trace.TracerProvider
}

func (to TracerOption) AnalysisOpt() {}
