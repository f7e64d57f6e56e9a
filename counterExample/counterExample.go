package counterExample

import (
	"errors"
	"fmt"
	"runtime/debug"

	"safemc/arena"
	"safemc/choice"
	"safemc/model"
	"safemc/stateVector"
)

var ErrModelMismatch = errors.New("counterExample: counterexample was recorded for a different model")

// Raised when a stored choice trace does not reproduce the stored target state.
// It indicates that the model changed since the counterexample was recorded, or that the exploration and the model disagree.
type ReplayDivergenceError struct {
	Step   int
	Reason string
}

func (rd *ReplayDivergenceError) Error() string {
	return fmt.Sprintf("counterExample: replay diverged at step %v: %v", rd.Step, rd.Reason)
}

func (rd *ReplayDivergenceError) Unwrap() error {
	return choice.ErrReplayDivergence
}

// A path of the model leading to a hazard.
//
// States[0] is the construction state and Traces[i] is the choice trace taking States[i] to States[i+1].
// If the path ends with an exception, the last transition panics and the last state repeats its source state.
type CounterExample struct {
	ModelName         string
	HeaderBytes       int
	StateVectorSize   int
	States            [][]byte
	Traces            [][]int
	EndsWithException bool
	// Faults of the model that were nondeterministic when the counterexample was recorded
	Faults []string
}

// Number of transitions of the counterexample
func (ce *CounterExample) StepCount() int {
	return len(ce.Traces)
}

func (ce *CounterExample) validate() error {
	if len(ce.States) == 0 || len(ce.Traces) != len(ce.States)-1 {
		return fmt.Errorf("counterExample: %v states and %v traces: %w", len(ce.States), len(ce.Traces), ErrMalformed)
	}
	for i, s := range ce.States {
		if len(s) != ce.StateVectorSize {
			return fmt.Errorf("counterExample: state %v has %v bytes, expected %v: %w", i, len(s), ce.StateVectorSize, ErrMalformed)
		}
	}
	return nil
}

// Reconstruct the choice traces of a path found during the exploration.
//
// path holds the serialized states reached by the initial step and all subsequent steps.
// If endsWithException is true the last state of path is the source of a transition that panics.
// A nil path describes a dead end in the initial step: only the first initial transition matters.
func Create(m model.ExecutableModel, path [][]byte, endsWithException bool) (*CounterExample, error) {
	size := m.StateVectorSize()
	ce := &CounterExample{
		ModelName:         m.Name(),
		HeaderBytes:       m.HeaderBytes(),
		StateVectorSize:   size,
		EndsWithException: endsWithException,
	}
	for _, f := range m.NondeterministicFaults() {
		ce.Faults = append(ce.Faults, f.Name)
	}

	m.Reset()
	buf := arena.New(size)
	m.Serialize(buf)
	construction := clone(buf.Bytes())
	ce.States = append(ce.States, construction)

	if path == nil {
		trace, state, err := findTrace(m, nil, nil, endsWithException, 0)
		if err != nil {
			return nil, err
		}
		ce.Traces = append(ce.Traces, trace)
		ce.States = append(ce.States, state)
		return ce, nil
	}

	var source []byte
	for i, target := range path {
		if len(target) != size {
			return nil, fmt.Errorf("counterExample: state %v of the path has %v bytes, expected %v: %w", i, len(target), size, ErrMalformed)
		}
		trace, _, err := findTrace(m, source, target, false, i)
		if err != nil {
			return nil, err
		}
		ce.Traces = append(ce.Traces, trace)
		ce.States = append(ce.States, clone(target))
		source = target
	}
	if endsWithException {
		trace, state, err := findTrace(m, source, nil, true, len(path))
		if err != nil {
			return nil, err
		}
		ce.Traces = append(ce.Traces, trace)
		ce.States = append(ce.States, state)
	}
	return ce, nil
}

// Enumerate all transitions of source, the initial step if source is nil, and return the trace of the first one
// reaching target, or the first one that panics if expectPanic is true.
// A nil target accepts any successor. Inapplicable paths are not transitions and never match.
func findTrace(m model.ExecutableModel, source, target []byte, expectPanic bool, step int) (trace []int, state []byte, err error) {
	r := m.Resolver()
	defer func() {
		if p := recover(); p != nil {
			trace, state = nil, nil
			err = &ReplayDivergenceError{Step: step, Reason: fmt.Sprintf("enumerating the transitions panicked: %v", p)}
		}
	}()
	buf := arena.New(m.StateVectorSize())
	r.PrepareNextState()
	for r.PrepareNextPath() {
		p := execute(m, buf, source)
		if expectPanic {
			if p != nil {
				// The exception has no successor, the transition is recorded as a self loop
				return r.GetChoices(), stateOrConstruction(m, source), nil
			}
			continue
		}
		if p != nil || r.PathInapplicable() {
			continue
		}
		m.Serialize(buf)
		if target == nil || stateVector.Equal(buf.Bytes(), target, m.HeaderBytes()) {
			return r.GetChoices(), clone(buf.Bytes()), nil
		}
	}
	reason := "no transition reaches the target state"
	if expectPanic {
		reason = "no transition raises the expected exception"
	}
	return nil, nil, &ReplayDivergenceError{Step: step, Reason: reason}
}

// Run one step from source, or the initial step if source is nil. Returns the recovered panic, if any.
// A step that leaves its path incomplete, e.g. without the probability of a decision, panics as well.
func execute(m model.ExecutableModel, buf *arena.Buffer, source []byte) (p *model.PanicError) {
	defer func() {
		if r := recover(); r != nil {
			p = &model.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	if source == nil {
		m.Reset()
		model.InitialStep(m)
	} else {
		buf.CopyFrom(0, source)
		m.Deserialize(buf)
		model.Step(m)
	}
	if err := m.Resolver().CheckPath(); err != nil {
		panic(err)
	}
	return nil
}

func stateOrConstruction(m model.ExecutableModel, source []byte) []byte {
	if source != nil {
		return clone(source)
	}
	buf := arena.New(m.StateVectorSize())
	m.Reset()
	m.Serialize(buf)
	return clone(buf.Bytes())
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
