package safemc

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"safemc/config"
	"safemc/counterExample"
	"safemc/model"
)

// Explore the state space with n concurrent workers.
//
// Default value is runtime.GOMAXPROCS(0)
func WithWorkers(n int) config.WorkersOption {
	return config.WorkersOption{N: n}
}

// Limit the number of distinct states.
//
// Default value is config.DefaultStateCapacity
func WithStateCapacity(capacity int) config.StateCapacityOption {
	return config.StateCapacityOption{Capacity: capacity}
}

// Limit the number of entries of the transition matrix.
//
// Default value is the number of explored transitions
func WithTransitionCapacity(capacity int) config.TransitionCapacityOption {
	return config.TransitionCapacityOption{Capacity: capacity}
}

// Stop the exploration when the first hazard state has been found.
// The probability of the hazard is not computed.
func StopOnHazard() config.StopOnHazardOption {
	return config.StopOnHazardOption{}
}

func WithIteration(epsilon float64, maxIterations int) config.IterationOption {
	return config.IterationOption{Epsilon: epsilon, MaxIterations: maxIterations}
}

// Use the logger for the analysis instead of the logger carried by the context
func UseLogger(logger *slog.Logger) config.LoggerOption {
	return config.LoggerOption{Logger: logger}
}

// Register the exploration metrics with reg
func WithMetrics(reg prometheus.Registerer) config.MetricsOption {
	return config.MetricsOption{Registerer: reg}
}

// Record a span for every check and its phases with tracers of tp
func WithTracerProvider(tp trace.TracerProvider) config.TracerOption {
	return config.TracerOption{Provider: tp}
}

// Use the same session id for all checks of the analysis
func WithSession(id uuid.UUID) config.SessionOption {
	return config.SessionOption{Id: id}
}

// Never activate the fault
func Suppress(fault string) config.FaultActivationOption {
	return config.FaultActivationOption{Fault: fault, Activation: model.Suppressed}
}

// Activate the fault whenever it is reached
func Force(fault string) config.FaultActivationOption {
	return config.FaultActivationOption{Fault: fault, Activation: model.Forced}
}

// Export the Markov model of the state space to w in the Graphviz DOT format
func ExportGraphviz(w io.Writer) config.ExportOption {
	return config.ExportOption{W: w, Format: config.Graphviz}
}

// Export the Markov model of the state space to w in the explicit PRISM format
func ExportPrism(w io.Writer) config.ExportOption {
	return config.ExportOption{W: w, Format: config.Prism}
}

// Save the counterexample of a reachable hazard to the file at path
func SaveCounterExample(path string) config.CounterExampleFileOption {
	return config.CounterExampleFileOption{Path: path}
}

// Store the counterexample of a reachable hazard in store
func StoreCounterExample(store *counterExample.Store) config.CounterExampleStoreOption {
	return config.CounterExampleStoreOption{Store: store}
}
