package safemc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"safemc/checking"
	"safemc/config"
	"safemc/metrics"
	"safemc/model"
)

var (
	ErrUnknownModel   = errors.New("safemc: unknown model")
	ErrDuplicateModel = errors.New("safemc: model already registered")
)

// A set of named models sharing the same analysis configuration.
type Registry struct {
	sync.RWMutex
	models map[string]model.Source
	opts   []config.AnalysisOption
}

// Create a registry. The options apply to every analysis started from the registry.
func NewRegistry(opts ...config.AnalysisOption) *Registry {
	shared := make([]config.AnalysisOption, 0, len(opts))
	for _, opt := range opts {
		if mo, ok := opt.(config.MetricsOption); ok {
			// Register the collectors once for all analyses
			opt = sharedMetricsOption{m: metrics.New(mo.Registerer)}
		}
		shared = append(shared, opt)
	}
	return &Registry{
		models: map[string]model.Source{},
		opts:   shared,
	}
}

func (r *Registry) Register(name string, src model.Source) error {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.models[name]; ok {
		return fmt.Errorf("safemc: %q: %w", name, ErrDuplicateModel)
	}
	r.models[name] = src
	return nil
}

// Like Register but panics if the name is taken
func (r *Registry) MustRegister(name string, src model.Source) {
	if err := r.Register(name, src); err != nil {
		panic(err)
	}
}

// The names of all registered models, sorted
func (r *Registry) Names() []string {
	r.RLock()
	defer r.RUnlock()
	names := maps.Keys(r.models)
	slices.Sort(names)
	return names
}

// Prepare an analysis of the named model. opts are applied after the options of the registry.
func (r *Registry) Prepare(name string, opts ...config.AnalysisOption) (*Analysis, error) {
	r.RLock()
	src, ok := r.models[name]
	r.RUnlock()
	if !ok {
		return nil, fmt.Errorf("safemc: %q: %w", name, ErrUnknownModel)
	}
	all := append(slices.Clone(r.opts), opts...)
	return PrepareAnalysis(src, all...), nil
}

// Run all analyses declared in an analysis file, in order.
//
// Stops at the first analysis that fails and returns the verdicts of the previous ones.
func (r *Registry) RunFile(ctx context.Context, f *config.File) ([]*checking.Verdict, error) {
	verdicts := []*checking.Verdict{}
	for _, a := range f.Analyses {
		analysis, err := r.Prepare(a.Model, a.AnalysisOptions()...)
		if err != nil {
			return verdicts, fmt.Errorf("safemc: analysis %q: %w", a.Name, err)
		}
		v, err := analysis.CheckHazard(ctx, a.Hazard, a.CheckOptions()...)
		if err != nil {
			return verdicts, fmt.Errorf("safemc: analysis %q: %w", a.Name, err)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}
