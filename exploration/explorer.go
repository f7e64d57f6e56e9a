package exploration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"safemc/arena"
	"safemc/metrics"
	"safemc/model"
	"safemc/scheduler"
	"safemc/stateManager"
)

// Configures an Explorer
type Config struct {
	// Number of workers exploring the state space concurrently
	Workers int
	// Maximum number of distinct states. Exceeding it aborts the exploration with a capacity error.
	StateCapacity int
	// Name of the hazard proposition. Empty if the exploration does not search for a hazard.
	Hazard string
	// Stop exploring as soon as a state satisfying the hazard has been found
	StopOnHazard bool

	SessionId uuid.UUID
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Explores the full reachable state space of a model.
//
// Every worker owns a model instance created by the factory, together with its resolver and a scratch state buffer.
// The workers only share the state storage and the stack of unexplored states.
type Explorer struct {
	factory model.Factory
	cfg     Config
	log     *slog.Logger

	stack   *scheduler.Stack
	storage *stateManager.Storage
	space   *StateSpace
	// Index of the hazard proposition, -1 if none
	hazard int

	// Protects the hazard and exception of the state space and stopped
	sync.Mutex
	// True if the exploration was stopped after finding the hazard
	stopped bool
}

func New(factory model.Factory, cfg Config) *Explorer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.SessionId == uuid.Nil {
		cfg.SessionId = uuid.New()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Explorer{
		factory: factory,
		cfg:     cfg,
		log:     log.With("session", cfg.SessionId.String()),
	}
}

// Explore the state space of the model.
//
// Returns the explored state space. If the model panics the exploration is aborted, and the returned state space
// records the panic as its Exception in addition to the returned error.
// Capacity errors and context cancellation abort the exploration and are returned.
func (e *Explorer) Explore(ctx context.Context) (*StateSpace, error) {
	start := time.Now()
	if e.cfg.StateCapacity < 1 {
		return nil, fmt.Errorf("Exploration: the state capacity must be positive. Got: %v", e.cfg.StateCapacity)
	}
	models := make([]model.ExecutableModel, e.cfg.Workers)
	for i := range models {
		models[i] = e.factory()
	}
	first := models[0]
	e.hazard = -1
	if e.cfg.Hazard != "" {
		e.hazard = model.PropositionIndex(first, e.cfg.Hazard)
		if e.hazard < 0 {
			return nil, fmt.Errorf("Exploration: model %v has no proposition %q: %w", first.Name(), e.cfg.Hazard, ErrUnknownProposition)
		}
	}

	e.storage = stateManager.NewStorage(first.StateVectorSize(), first.HeaderBytes(), e.cfg.StateCapacity)
	e.stack = scheduler.NewStack()
	e.space = &StateSpace{
		SessionId:    e.cfg.SessionId,
		Model:        first.Name(),
		Propositions: first.Propositions(),
		Storage:      e.storage,
		Labels:       make([]uint64, e.cfg.StateCapacity),
		Transitions:  make([][]Transition, e.cfg.StateCapacity),
		Hazard:       -1,

		HazardProposition: e.cfg.Hazard,
	}
	e.log.Info("Starting exploration",
		slog.String("model", first.Name()),
		slog.Int("workers", e.cfg.Workers),
		slog.Int("stateVectorSize", first.StateVectorSize()),
		slog.Int("stateCapacity", e.cfg.StateCapacity),
	)

	w := newWorker(e, 0, first)
	if err := w.exploreInitial(); err != nil {
		return e.finish(start, []error{err})
	}

	// Used by the workers to signal that they have stopped exploring. Errors are also returned
	closing := make(chan error)
	for i, m := range models {
		go newWorker(e, i, m).run(ctx, closing)
	}
	return e.mainLoop(ctx, start, closing)
}

// Wait until all workers have stopped, then collect their errors.
func (e *Explorer) mainLoop(ctx context.Context, start time.Time, closing chan error) (*StateSpace, error) {
	errorSlice := []error{}
	for ongoing := e.cfg.Workers; ongoing > 0; {
		select {
		case err := <-closing:
			ongoing--
			if err != nil {
				errorSlice = append(errorSlice, err)
				// Stop the other workers
				e.stack.Abort()
			}
		case <-ctx.Done():
			e.stack.Abort()
			// Keep receiving until all workers have stopped
			ctx = context.Background()
		}
	}
	return e.finish(start, errorSlice)
}

func (e *Explorer) finish(start time.Time, errorSlice []error) (*StateSpace, error) {
	space := e.space
	count := e.storage.Count()
	space.Labels = space.Labels[:count]
	space.Transitions = space.Transitions[:count]
	space.Complete = len(errorSlice) == 0 && !e.stopped

	elapsed := time.Since(start)
	e.cfg.Metrics.ObserveDuration(metrics.PhaseExplore, elapsed)
	e.cfg.Metrics.ObserveStateSpace(space.Model, count)

	if err := e.storage.CheckGuards(); err != nil {
		// Serialization wrote past a state vector, none of the results can be trusted
		panic(err)
	}

	e.log.Info("Finished exploration",
		slog.String("model", space.Model),
		slog.Int("states", count),
		slog.Int("transitions", space.TransitionCount()),
		slog.Bool("complete", space.Complete),
		slog.Int("hazard", space.Hazard),
		slog.Duration("duration", elapsed),
	)

	switch len(errorSlice) {
	case 0:
		return space, nil
	case 1:
		return space, errorSlice[0]
	}
	// Report the model panic first if there is one
	for i, err := range errorSlice {
		var mp *ModelPanicError
		if errors.As(err, &mp) {
			errorSlice[0], errorSlice[i] = errorSlice[i], errorSlice[0]
			break
		}
	}
	return space, explorationError{errorSlice: errorSlice}
}

// Record a newly discovered state. Returns true if the exploration must stop because the hazard was found.
func (e *Explorer) discovered(index int, labels uint64) bool {
	e.space.Labels[index] = labels
	e.cfg.Metrics.StateDiscovered(e.space.Model)
	if e.hazard < 0 || labels&(1<<uint(e.hazard)) == 0 {
		return false
	}
	e.Lock()
	defer e.Unlock()
	if e.space.Hazard == -1 {
		e.space.Hazard = index
		e.log.Info("Found hazard", slog.Int("state", index))
	}
	if e.cfg.StopOnHazard {
		e.stopped = true
	}
	return e.cfg.StopOnHazard
}

func (e *Explorer) exception(mp *ModelPanicError) {
	e.cfg.Metrics.Exception(e.space.Model)
	e.Lock()
	defer e.Unlock()
	if e.space.Exception == nil {
		e.space.Exception = mp
	}
}

// Explore the state space of the model using the default configuration with a single worker
func Explore(ctx context.Context, factory model.Factory, stateCapacity int) (*StateSpace, error) {
	return New(factory, Config{Workers: 1, StateCapacity: stateCapacity}).Explore(ctx)
}

func newBuffer(m model.ExecutableModel) *arena.Buffer {
	return arena.New(m.StateVectorSize())
}
