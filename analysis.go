package safemc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"safemc/arena"
	"safemc/checking"
	"safemc/config"
	"safemc/counterExample"
	"safemc/exploration"
	"safemc/export"
	"safemc/markov"
	"safemc/metrics"
	"safemc/model"
)

// Prepare the analysis of a model with initial configuration.
//
// See the config.AnalysisOption types for a full overview of possible options.
// Default values will be used if no value is provided.
func PrepareAnalysis(src model.Source, opts ...config.AnalysisOption) *Analysis {
	a := &Analysis{
		src: src,
		// Will not change GOMAXPROCS but only return the current value
		workers:       runtime.GOMAXPROCS(0),
		stateCapacity: config.DefaultStateCapacity,
	}
	for _, opt := range opts {
		switch t := opt.(type) {
		case config.WorkersOption:
			a.workers = t.N
		case config.StateCapacityOption:
			a.stateCapacity = t.Capacity
		case config.TransitionCapacityOption:
			a.transitionCapacity = t.Capacity
		case config.StopOnHazardOption:
			a.stopOnHazard = true
		case config.IterationOption:
			a.iteration = checking.IterationConfig{Epsilon: t.Epsilon, MaxIterations: t.MaxIterations}
		case config.LoggerOption:
			a.logger = t.Logger
		case config.MetricsOption:
			a.metrics = metrics.New(t.Registerer)
		case sharedMetricsOption:
			a.metrics = t.m
		case config.SessionOption:
			a.session = t.Id
		case config.TracerOption:
			a.tracerProvider = t.Provider
		}
	}
	return a
}

// Metrics already registered, shared by several analyses
type sharedMetricsOption struct {
	m *metrics.Metrics
}

func (smo sharedMetricsOption) AnalysisOpt() {}

// Stores the configured analysis.
//
// Can be used to check multiple hazards. Checks are independent and may run concurrently.
type Analysis struct {
	src model.Source

	workers            int
	stateCapacity      int
	transitionCapacity int
	stopOnHazard       bool
	iteration          checking.IterationConfig

	logger         *slog.Logger
	metrics        *metrics.Metrics
	session        uuid.UUID
	tracerProvider trace.TracerProvider
}

const tracerName = "safemc"

func (a *Analysis) tracer() trace.Tracer {
	if a.tracerProvider == nil {
		return otel.GetTracerProvider().Tracer(tracerName)
	}
	return a.tracerProvider.Tracer(tracerName)
}

// End span, recording err if it is not nil
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// The parameters of a single check. Should be read only.
type checkParameters struct {
	activations map[string]model.Activation
	exports     []config.ExportOption
	file        string
	store       *counterExample.Store
}

func newCheckParameters(opts []config.CheckOption) checkParameters {
	p := checkParameters{activations: map[string]model.Activation{}}
	for _, opt := range opts {
		switch t := opt.(type) {
		case config.FaultActivationOption:
			p.activations[t.Fault] = t.Activation
		case config.ExportOption:
			p.exports = append(p.exports, t)
		case config.CounterExampleFileOption:
			p.file = t.Path
		case config.CounterExampleStoreOption:
			p.store = t.Store
		}
	}
	return p
}

// Check whether a state in which the hazard proposition holds can be reached.
//
// Explores the full state space of the model and, if the exploration is complete, computes the probability of reaching the hazard.
// If the hazard is reachable, or the model panics, the verdict contains a counterexample leading to it.
// Returns an error if the exploration or the probability computation fails for another reason.
func (a *Analysis) CheckHazard(ctx context.Context, hazard string, opts ...config.CheckOption) (v *checking.Verdict, err error) {
	params := newCheckParameters(opts)
	log := a.logger
	if log == nil {
		log = LoggerFrom(ctx)
	}
	session := a.session
	if session == uuid.Nil {
		session = uuid.New()
	}
	log = log.With("session", session.String())

	tracer := a.tracer()
	ctx, span := tracer.Start(ctx, "safemc.CheckHazard", trace.WithAttributes(
		attribute.String("hazard", hazard),
		attribute.String("session", session.String()),
	))
	defer func() { endSpan(span, err) }()

	factory := a.src.Factory(params.activations)
	exploreCtx, exploreSpan := tracer.Start(ctx, "safemc.Explore", trace.WithAttributes(attribute.Int("workers", a.workers)))
	space, err := exploration.New(factory, exploration.Config{
		Workers:       a.workers,
		StateCapacity: a.stateCapacity,
		Hazard:        hazard,
		StopOnHazard:  a.stopOnHazard,
		SessionId:     session,
		Logger:        log,
		Metrics:       a.metrics,
	}).Explore(exploreCtx)
	if space != nil {
		exploreSpan.SetAttributes(attribute.Int("states", space.StateCount()), attribute.Bool("complete", space.Complete))
	}
	endSpan(exploreSpan, err)
	var mp *exploration.ModelPanicError
	if err != nil && (space == nil || !errors.As(err, &mp)) {
		return nil, err
	}

	_, checkSpan := tracer.Start(ctx, "safemc.Check")
	start := time.Now()
	checker := &checking.HazardChecker{
		Build:     markov.BuildConfig{EntryCapacity: a.transitionCapacity, Logger: log},
		Iteration: a.iteration,
		Logger:    log,
	}
	verdict, err := checker.Check(space)
	if err == nil {
		checkSpan.SetAttributes(
			attribute.Bool("reachable", verdict.Reachable),
			attribute.Bool("nondeterministic", verdict.Nondeterministic),
			attribute.Float64("probability", verdict.Probability),
		)
	}
	endSpan(checkSpan, err)
	if err != nil {
		return nil, err
	}
	a.metrics.ObserveDuration(metrics.PhaseCheck, time.Since(start))

	_, exportSpan := tracer.Start(ctx, "safemc.Export", trace.WithAttributes(attribute.Int("formats", len(params.exports))))
	err = a.exportModel(space, params.exports, log)
	endSpan(exportSpan, err)
	if err != nil {
		return nil, err
	}
	if verdict.Reachable {
		_, ceSpan := tracer.Start(ctx, "safemc.CounterExample")
		err = a.attachCounterExample(verdict, space, factory, hazard, params, log)
		endSpan(ceSpan, err)
		if err != nil {
			return nil, err
		}
	}

	ok, _ := verdict.Response()
	span.SetAttributes(attribute.String("model", verdict.Model), attribute.Bool("holds", ok))
	log.Info("Checked hazard",
		slog.String("model", verdict.Model),
		slog.String("hazard", hazard),
		slog.Bool("holds", ok),
		slog.Int("states", verdict.States),
		slog.Float64("probability", verdict.Probability),
	)
	return verdict, nil
}

// Reconstruct the path to the hazard or exception, and save it where configured
func (a *Analysis) attachCounterExample(v *checking.Verdict, space *exploration.StateSpace, factory model.Factory, hazard string, params checkParameters, log *slog.Logger) error {
	var (
		path      [][]byte
		exception = space.Exception != nil
	)
	switch {
	case exception && space.Exception.State >= 0:
		path = space.PathTo(space.Exception.State)
	case !exception:
		path = space.PathTo(space.Hazard)
	}

	m := factory()
	ce, err := counterExample.Create(m, path, exception)
	if err != nil {
		return fmt.Errorf("safemc: failed to create a counterexample for %v: %w", hazard, err)
	}
	v.CounterExample = ce

	buf := arena.New(m.StateVectorSize())
	for _, state := range ce.States[1:] {
		buf.CopyFrom(0, state)
		v.Trace = append(v.Trace, m.Describe(buf))
	}

	if params.file != "" {
		path, err := ce.SaveFile(params.file)
		if err != nil {
			return err
		}
		log.Info("Saved counterexample", slog.String("path", path), slog.Int("steps", ce.StepCount()))
	}
	if params.store != nil {
		if err := params.store.Put(hazard, ce); err != nil {
			return err
		}
	}
	return nil
}

// Write the Markov model of a complete state space to all configured writers
func (a *Analysis) exportModel(space *exploration.StateSpace, exports []config.ExportOption, log *slog.Logger) error {
	if len(exports) == 0 {
		return nil
	}
	if !space.Complete {
		log.Warn("Skipping export of an incomplete state space", slog.String("model", space.Model))
		return nil
	}
	start := time.Now()
	cfg := markov.BuildConfig{EntryCapacity: a.transitionCapacity, Logger: log}
	var (
		m   markov.Model
		err error
	)
	if markov.IsNondeterministic(space) {
		m, err = markov.BuildMDP(space, cfg)
	} else {
		m, err = markov.BuildDTMC(space, cfg)
	}
	if err != nil {
		return err
	}
	a.metrics.ObserveDuration(metrics.PhaseBuild, time.Since(start))

	for _, e := range exports {
		switch e.Format {
		case config.Graphviz:
			err = export.WriteGraphviz(e.W, m)
		case config.Prism:
			err = export.WritePrism(e.W, m)
		}
		if err != nil {
			return fmt.Errorf("safemc: failed to export %v: %w", space.Model, err)
		}
	}
	return nil
}
