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

// Replays a counterexample step by step on a model instance.
type Replayer struct {
	ce   *CounterExample
	m    model.ExecutableModel
	buf  *arena.Buffer
	step int
}

func NewReplayer(ce *CounterExample, m model.ExecutableModel) (*Replayer, error) {
	if err := ce.validate(); err != nil {
		return nil, err
	}
	if m.Name() != ce.ModelName || m.StateVectorSize() != ce.StateVectorSize || m.HeaderBytes() != ce.HeaderBytes {
		return nil, fmt.Errorf("counterExample: recorded for %v (%v bytes), got %v (%v bytes): %w",
			ce.ModelName, ce.StateVectorSize, m.Name(), m.StateVectorSize(), ErrModelMismatch)
	}
	rp := &Replayer{
		ce:  ce,
		m:   m,
		buf: arena.New(ce.StateVectorSize),
	}
	m.Reset()
	m.Serialize(rp.buf)
	if !stateVector.Equal(rp.buf.Bytes(), ce.States[0], ce.HeaderBytes) {
		return nil, &ReplayDivergenceError{Step: 0, Reason: "the construction state differs"}
	}
	return rp, nil
}

// Reports whether all steps have been replayed
func (rp *Replayer) Done() bool {
	return rp.step >= len(rp.ce.Traces)
}

// Number of steps replayed so far
func (rp *Replayer) Position() int {
	return rp.step
}

// The model, in the state reached by the last replayed step
func (rp *Replayer) Model() model.ExecutableModel {
	return rp.m
}

// Replay the next step and check that it reaches the next stored state.
//
// The last step of a counterexample ending with an exception must panic, the recovered panic is returned as a *model.PanicError.
func (rp *Replayer) Step() error {
	if rp.Done() {
		return fmt.Errorf("counterExample: all %v steps have been replayed", len(rp.ce.Traces))
	}
	i := rp.step
	rp.step++
	expectPanic := rp.ce.EndsWithException && rp.Done()

	r := rp.m.Resolver()
	r.SetChoices(rp.ce.Traces[i])
	var source []byte
	if i > 0 {
		source = rp.ce.States[i]
	}
	p := execute(rp.m, rp.buf, source)
	if p != nil {
		if err, ok := p.Value.(error); ok && errors.Is(err, choice.ErrReplayDivergence) {
			return &ReplayDivergenceError{Step: i, Reason: err.Error()}
		}
		if expectPanic {
			return p
		}
		return &ReplayDivergenceError{Step: i, Reason: fmt.Sprintf("unexpected panic: %v", p.Value)}
	}
	if expectPanic {
		return &ReplayDivergenceError{Step: i, Reason: "expected the step to panic"}
	}
	if r.PathInapplicable() {
		return &ReplayDivergenceError{Step: i, Reason: "the transition is inapplicable"}
	}
	if !r.ReplayCompleted() {
		return &ReplayDivergenceError{Step: i, Reason: fmt.Sprintf("only %v of %v choices were made", r.Depth(), len(rp.ce.Traces[i]))}
	}
	rp.m.Serialize(rp.buf)
	if !stateVector.Equal(rp.buf.Bytes(), rp.ce.States[i+1], rp.ce.HeaderBytes) {
		return &ReplayDivergenceError{Step: i, Reason: fmt.Sprintf("reached %v instead of %v",
			rp.m.Describe(rp.buf), rp.m.Describe(stateBuffer(rp.ce.States[i+1])))}
	}
	return nil
}

// Replay the whole counterexample on m.
// Returns nil if every step reaches the stored state and, if the counterexample ends with an exception, the last step panics.
func (ce *CounterExample) Replay(m model.ExecutableModel) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ReplayDivergenceError{Step: -1, Reason: fmt.Sprintf("replay panicked: %v\n%s", r, debug.Stack())}
		}
	}()
	rp, err := NewReplayer(ce, m)
	if err != nil {
		return err
	}
	for !rp.Done() {
		err := rp.Step()
		var p *model.PanicError
		if errors.As(err, &p) && rp.Done() && ce.EndsWithException {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func stateBuffer(state []byte) *arena.Buffer {
	buf := arena.New(len(state))
	buf.CopyFrom(0, state)
	return buf
}
