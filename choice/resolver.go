package choice

import (
	"fmt"
	"math"
)

// Returned by HandleChoice when a decision has no alternatives.
// The transition being explored is inapplicable and must be treated as "no outgoing edge".
const Inapplicable = -1

// Tolerance used when validating probabilities
const probabilityEpsilon = 1e-9

type Status int

const (
	Idle Status = iota
	ExploringState
	ExploringPath
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ExploringState:
		return "ExploringState"
	case ExploringPath:
		return "ExploringPath"
	case Exhausted:
		return "Exhausted"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// One decision point reached on the current path
type frame struct {
	chosen        int
	count         int
	probabilistic bool

	// Probability of the chosen alternative. Always 1 for nondeterministic decisions.
	probability    float64
	probabilitySet bool
	// Probability mass of the alternatives before chosen that have already been enumerated
	explored float64

	forwarded bool
}

// Resolves the decision points reached while executing one step of a model.
//
// The Resolver explores all combinations of choices depth first, in the same way as a counter:
// the last decision varies fastest and a decision is only added to the stack the first time it is reached on a path.
// Each worker owns its own Resolver, it is not safe for concurrent use.
type Resolver struct {
	frames []frame
	// Index of the next decision on the current path
	index  int
	status Status

	// True if the choices were injected with SetChoices
	replaying bool
	// True if a decision without alternatives was reached on the current path
	inapplicable bool
}

func NewResolver() *Resolver {
	return &Resolver{
		frames: make([]frame, 0, 16),
		status: Idle,
	}
}

func (r *Resolver) Status() Status {
	return r.status
}

// Clear the choice stack. Must be called once before exploring all outgoing transitions of a state.
func (r *Resolver) PrepareNextState() {
	r.frames = r.frames[:0]
	r.index = 0
	r.replaying = false
	r.inapplicable = false
	r.status = ExploringState
}

// Advance to the next combination of choices that has not been tried yet.
//
// The first call after PrepareNextState starts the first path.
// Returns false when all combinations have been enumerated.
func (r *Resolver) PrepareNextPath() bool {
	switch r.status {
	case ExploringState:
		r.index = 0
		r.inapplicable = false
		r.status = ExploringPath
		return true
	case Exhausted, Idle:
		return false
	}

	if r.replaying {
		r.status = Exhausted
		return false
	}

	r.verifyPath()

	for len(r.frames) > 0 {
		top := &r.frames[len(r.frames)-1]
		if !top.forwarded && top.chosen+1 < top.count {
			if top.probabilistic {
				top.explored += top.probability
			}
			top.chosen++
			top.probabilitySet = !top.probabilistic
			top.probability = 1
			r.index = 0
			r.inapplicable = false
			return true
		}
		r.frames = r.frames[:len(r.frames)-1]
	}
	r.status = Exhausted
	return false
}

func (r *Resolver) verifyPath() {
	if err := r.CheckPath(); err != nil {
		panic(err)
	}
}

// Check that the current path reached every recorded decision and provided all probabilities.
//
// A replayed path only has to provide the probabilities of the decisions it reached.
func (r *Resolver) CheckPath() error {
	if !r.replaying && r.index != len(r.frames) {
		return fmt.Errorf("choice: path ended after %v of %v recorded decisions: %w", r.index, len(r.frames), ErrNondeterministicModel)
	}
	for i, f := range r.frames[:r.index] {
		if !f.probabilitySet {
			return fmt.Errorf("choice: no probability set for probabilistic decision %v: %w", i, ErrProbabilityMissing)
		}
	}
	return nil
}

// Resolve a nondeterministic decision between n alternatives.
//
// Returns the index of the alternative taken on the current path, or Inapplicable if n is 0.
func (r *Resolver) HandleChoice(n int) int {
	return r.handle(n, false)
}

// Resolve a probabilistic decision between n alternatives.
//
// SetProbabilityOfLastChoice must be called with the probability of the returned alternative before the next decision, unless n is 1.
func (r *Resolver) HandleProbabilisticChoice(n int) int {
	return r.handle(n, true)
}

func (r *Resolver) handle(n int, probabilistic bool) int {
	if r.status != ExploringPath {
		panic(fmt.Errorf("choice: decision reached while %v: %w", r.status, ErrNotExploring))
	}
	if n < 0 {
		panic(fmt.Errorf("choice: negative number of alternatives %v: %w", n, ErrInvalidChoice))
	}
	if n == 0 {
		r.inapplicable = true
		return Inapplicable
	}

	if r.index < len(r.frames) {
		f := &r.frames[r.index]
		if r.replaying {
			if f.chosen >= n {
				panic(fmt.Errorf("choice: recorded choice %v at decision %v but only %v alternatives: %w", f.chosen, r.index, n, ErrReplayDivergence))
			}
			f.count = n
			f.probabilistic = probabilistic
			f.probabilitySet = !probabilistic || n == 1
		} else if f.count != n || f.probabilistic != probabilistic {
			panic(fmt.Errorf("choice: decision %v changed from %v to %v alternatives: %w", r.index, f.count, n, ErrNondeterministicModel))
		}
		r.index++
		return f.chosen
	}

	if r.replaying {
		panic(fmt.Errorf("choice: reached decision %v but the trace has %v choices: %w", r.index, len(r.frames), ErrReplayDivergence))
	}
	r.frames = append(r.frames, frame{
		count:          n,
		probabilistic:  probabilistic,
		probability:    1,
		probabilitySet: !probabilistic || n == 1,
	})
	r.index++
	return 0
}

// Attach the probability of the alternative selected by the last probabilistic decision.
func (r *Resolver) SetProbabilityOfLastChoice(p float64) {
	if r.index == 0 {
		panic(fmt.Errorf("choice: no decision has been made on this path: %w", ErrInvalidChoice))
	}
	f := &r.frames[r.index-1]
	if !f.probabilistic {
		panic(fmt.Errorf("choice: decision %v is not probabilistic: %w", r.index-1, ErrInvalidChoice))
	}
	if math.IsNaN(p) || p < -probabilityEpsilon || p > 1+probabilityEpsilon {
		panic(fmt.Errorf("choice: probability %v outside of [0, 1]: %w", p, ErrInvalidProbability))
	}
	if f.forwarded {
		// The forwarded alternative already carries the remaining mass of the decision
		f.probabilitySet = true
		return
	}
	f.probability = p
	f.probabilitySet = true
}

// Collapse the decision at choiceIndex to deterministic.
//
// The untaken alternatives of the decision are never enumerated.
// For a probabilistic decision the taken alternative absorbs their probability mass,
// i.e. it carries 1 minus the mass of the alternatives that have already been enumerated.
func (r *Resolver) ForwardUntakenChoicesAtIndex(choiceIndex int) {
	if choiceIndex < 0 || choiceIndex >= r.index {
		panic(fmt.Errorf("choice: cannot forward decision %v, %v decisions reached: %w", choiceIndex, r.index, ErrInvalidChoice))
	}
	f := &r.frames[choiceIndex]
	f.forwarded = true
	if f.probabilistic {
		f.probability = math.Max(0, 1-f.explored)
		f.probabilitySet = true
	}
}

// Index of the last decision made on the current path, -1 if none has been made.
func (r *Resolver) LastChoiceIndex() int {
	return r.index - 1
}

// Number of decisions made on the current path
func (r *Resolver) Depth() int {
	return r.index
}

// Product of the probabilities of all decisions made on the current path.
func (r *Resolver) PathProbability() float64 {
	p := 1.0
	for _, f := range r.frames[:r.index] {
		p *= f.probability
	}
	return p
}

// Reports whether a nondeterministic decision with more than one alternative has been made on the current path.
func (r *Resolver) HasNondeterminism() bool {
	for _, f := range r.frames[:r.index] {
		if !f.probabilistic && f.count > 1 {
			return true
		}
	}
	return false
}

// The alternatives taken at the nondeterministic decisions of the current path.
//
// Paths with equal signatures belong to the same resolution of nondeterminism.
// Decisions with a single alternative, and decisions forwarded before any other alternative was tried, do not distinguish resolutions and are left out.
func (r *Resolver) NondeterministicSignature() []int {
	var out []int
	for _, f := range r.frames[:r.index] {
		if f.probabilistic || f.count <= 1 || (f.forwarded && f.chosen == 0) {
			continue
		}
		out = append(out, f.chosen)
	}
	return out
}

// A decision taken on a path
type Decision struct {
	Chosen        int
	Probabilistic bool
}

// The decisions taken on the current path, in the order they were reached.
func (r *Resolver) Decisions() []Decision {
	out := make([]Decision, r.index)
	for i, f := range r.frames[:r.index] {
		out[i] = Decision{Chosen: f.chosen, Probabilistic: f.probabilistic}
	}
	return out
}

// Inject a choice trace. The next path reproduces exactly these choices, after which the resolver is exhausted.
func (r *Resolver) SetChoices(choices []int) {
	r.frames = r.frames[:0]
	for _, c := range choices {
		if c < 0 {
			panic(fmt.Errorf("choice: negative choice %v in trace: %w", c, ErrInvalidChoice))
		}
		r.frames = append(r.frames, frame{chosen: c, probability: 1, probabilitySet: true})
	}
	r.index = 0
	r.replaying = true
	r.inapplicable = false
	r.status = ExploringPath
}

// Reports whether a decision without alternatives was reached on the current path.
// Such a path is not a transition of the state being explored.
func (r *Resolver) PathInapplicable() bool {
	return r.inapplicable
}

// Reports whether every choice injected with SetChoices has been consumed by the model.
func (r *Resolver) ReplayCompleted() bool {
	return r.replaying && r.index == len(r.frames)
}

// The choice trace of the current path.
func (r *Resolver) GetChoices() []int {
	out := make([]int, r.index)
	for i, f := range r.frames[:r.index] {
		out[i] = f.chosen
	}
	return out
}
