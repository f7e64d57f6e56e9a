package model

import (
	"errors"
	"fmt"

	"safemc/arena"
	"safemc/choice"
	"safemc/stateVector"
)

// Maximum number of atomic propositions of a model. Labels are stored in a 64-bit set.
const MaxPropositions = 64

var ErrInvalidDefinition = errors.New("model: invalid definition")

// An atomic proposition evaluated on every explored state
type Proposition[M any] struct {
	Name  string
	Holds func(m *M) bool
}

// The context passed to the step functions of a Definition
type Context[M any] struct {
	Model    *M
	Resolver *choice.Resolver

	faults map[string]*Fault
}

// Returns the named fault. Panics if the model declares no such fault.
func (c *Context[M]) Fault(name string) *Fault {
	f, ok := c.faults[name]
	if !ok {
		panic(fmt.Errorf("model: unknown fault %q: %w", name, ErrInvalidDefinition))
	}
	return f
}

// Describes a model as plain Go code operating on a state struct M.
//
// New creates the construction state. Initial is executed once from the construction state to determine the initial states,
// if it is nil every initial step leaves the construction state unchanged.
// Step computes the successors of a state.
type Definition[M any] struct {
	Name         string
	New          func() *M
	Layout       *stateVector.Layout[M]
	Initial      func(ctx *Context[M])
	Step         func(ctx *Context[M])
	Faults       []FaultSpec
	Propositions []Proposition[M]
	// Called once for every new instance, e.g. to register fault observers
	Setup func(ctx *Context[M])
}

func (d *Definition[M]) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("model: definition has no name: %w", ErrInvalidDefinition)
	case d.New == nil:
		return fmt.Errorf("model: %v has no constructor: %w", d.Name, ErrInvalidDefinition)
	case d.Layout == nil:
		return fmt.Errorf("model: %v has no state layout: %w", d.Name, ErrInvalidDefinition)
	case d.Step == nil:
		return fmt.Errorf("model: %v has no step function: %w", d.Name, ErrInvalidDefinition)
	case len(d.Propositions) > MaxPropositions:
		return fmt.Errorf("model: %v declares %v propositions, at most %v are supported: %w", d.Name, len(d.Propositions), MaxPropositions, ErrInvalidDefinition)
	}
	seen := map[string]bool{}
	for _, f := range d.Faults {
		if f.Name == "" || seen[f.Name] {
			return fmt.Errorf("model: %v has a duplicate or empty fault name %q: %w", d.Name, f.Name, ErrInvalidDefinition)
		}
		if f.Probability < 0 || f.Probability > 1 {
			return fmt.Errorf("model: fault %v has probability %v: %w", f.Name, f.Probability, ErrInvalidDefinition)
		}
		seen[f.Name] = true
	}
	for _, p := range d.Propositions {
		if p.Holds == nil {
			return fmt.Errorf("model: proposition %q has no predicate: %w", p.Name, ErrInvalidDefinition)
		}
	}
	return nil
}

// Create a new instance of the model in its construction state.
// activations overrides the activation mode of the named faults.
func (d *Definition[M]) Instantiate(activations map[string]Activation) *Instance[M] {
	if err := d.Validate(); err != nil {
		panic(err)
	}
	i := &Instance[M]{
		def:      d,
		resolver: choice.NewResolver(),
		faults:   make([]*Fault, len(d.Faults)),
	}
	byName := make(map[string]*Fault, len(d.Faults))
	for id, spec := range d.Faults {
		f := newFault(spec, id)
		if a, ok := activations[spec.Name]; ok {
			f.Activation = a
		}
		i.faults[id] = f
		byName[spec.Name] = f
	}
	i.ctx = Context[M]{Resolver: i.resolver, faults: byName}
	i.Reset()
	if d.Setup != nil {
		d.Setup(&i.ctx)
	}
	return i
}

// Returns a Factory creating instances with the given fault activations.
func (d *Definition[M]) Factory(activations map[string]Activation) Factory {
	if err := d.Validate(); err != nil {
		panic(err)
	}
	return func() ExecutableModel {
		return d.Instantiate(activations)
	}
}

// An executable instance of a Definition
type Instance[M any] struct {
	def      *Definition[M]
	model    *M
	resolver *choice.Resolver
	faults   []*Fault
	ctx      Context[M]
}

// The current state of the instance
func (i *Instance[M]) Model() *M {
	return i.model
}

func (i *Instance[M]) Name() string {
	return i.def.Name
}

func (i *Instance[M]) StateVectorSize() int {
	return i.def.Layout.Size()
}

func (i *Instance[M]) HeaderBytes() int {
	return i.def.Layout.HeaderBytes()
}

func (i *Instance[M]) Serialize(buf *arena.Buffer) {
	i.def.Layout.Serialize(i.model, buf)
}

func (i *Instance[M]) Deserialize(buf *arena.Buffer) {
	i.def.Layout.Deserialize(i.model, buf)
}

func (i *Instance[M]) Describe(buf *arena.Buffer) string {
	return i.def.Layout.Describe(buf)
}

func (i *Instance[M]) ExecuteInitialStep() {
	i.beginStep()
	if i.def.Initial != nil {
		i.def.Initial(&i.ctx)
	}
}

func (i *Instance[M]) ExecuteStep() {
	i.beginStep()
	i.def.Step(&i.ctx)
}

func (i *Instance[M]) beginStep() {
	for _, f := range i.faults {
		f.beginStep()
	}
}

func (i *Instance[M]) Reset() {
	i.model = i.def.New()
	i.ctx.Model = i.model
	i.beginStep()
}

func (i *Instance[M]) Resolver() *choice.Resolver {
	return i.resolver
}

func (i *Instance[M]) Faults() []*Fault {
	return i.faults
}

func (i *Instance[M]) NondeterministicFaults() []*Fault {
	out := []*Fault{}
	for _, f := range i.faults {
		if f.Activation == Nondeterministic {
			out = append(out, f)
		}
	}
	return out
}

func (i *Instance[M]) NotifyFaultActivations() bool {
	fired := false
	for _, f := range i.faults {
		if f.notify() {
			fired = true
		}
	}
	return fired
}

func (i *Instance[M]) Propositions() []string {
	out := make([]string, len(i.def.Propositions))
	for j, p := range i.def.Propositions {
		out[j] = p.Name
	}
	return out
}

func (i *Instance[M]) EvaluatePropositions() uint64 {
	var labels uint64
	for j, p := range i.def.Propositions {
		if p.Holds(i.model) {
			labels |= 1 << uint(j)
		}
	}
	return labels
}
