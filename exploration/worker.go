package exploration

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"

	"safemc/arena"
	"safemc/model"
	"safemc/scheduler"
)

// Explores states popped from the shared stack using its own model instance
type worker struct {
	e   *Explorer
	id  int
	m   model.ExecutableModel
	buf *arena.Buffer
}

func newWorker(e *Explorer, id int, m model.ExecutableModel) *worker {
	return &worker{
		e:   e,
		id:  id,
		m:   m,
		buf: newBuffer(m),
	}
}

// Main loop of the worker.
// Explores states until the stack reports that no work is left or the exploration is aborted.
// When it stops it sends its error, or nil, on the closing channel.
func (w *worker) run(ctx context.Context, closing chan error) {
	explored := 0
	err := func() error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			state, err := w.e.stack.Pop()
			if errors.Is(err, scheduler.NoWorkError) || errors.Is(err, scheduler.AbortedError) {
				return nil
			}
			if err != nil {
				return err
			}
			err = w.exploreState(state)
			w.e.stack.Done()
			if err != nil {
				return err
			}
			explored++
		}
	}()
	w.e.log.Debug("Worker stopped", slog.Int("worker", w.id), slog.Int("explored", explored))
	closing <- err
}

// Enumerate the initial transitions from the construction state
func (w *worker) exploreInitial() error {
	initial, err := w.enumerate(-1)
	w.e.space.Initial = initial
	return err
}

// Enumerate all transitions of state and record them in the state space
func (w *worker) exploreState(state int) error {
	transitions, err := w.enumerate(state)
	w.e.space.Transitions[state] = transitions
	return err
}

// Enumerate all paths of the resolver from source, or of the initial step if source is -1.
// New states are added to the storage and pushed to the stack. Inapplicable paths are skipped.
func (w *worker) enumerate(source int) (transitions []Transition, err error) {
	r := w.m.Resolver()
	defer func() {
		if p := recover(); p != nil {
			mp := &ModelPanicError{
				State:   source,
				Choices: r.GetChoices(),
				Panic:   &model.PanicError{Value: p, Stack: debug.Stack()},
			}
			w.e.exception(mp)
			err = mp
		}
	}()

	var vector []byte
	if source >= 0 {
		vector = w.e.storage.Get(source)
	}
	pushed := []int{}
	nondeterministic := false
	r.PrepareNextState()
	for r.PrepareNextPath() {
		if source < 0 {
			w.m.Reset()
			model.InitialStep(w.m)
		} else {
			w.buf.CopyFrom(0, vector)
			w.m.Deserialize(w.buf)
			model.Step(w.m)
		}
		if err := r.CheckPath(); err != nil {
			panic(err)
		}
		if r.PathInapplicable() {
			continue
		}
		w.m.Serialize(w.buf)
		target, isNew, err := w.e.storage.AddState(w.buf.Bytes(), source)
		if err != nil {
			return transitions, err
		}
		if isNew {
			pushed = append(pushed, target)
			if w.e.discovered(target, w.m.EvaluatePropositions()) {
				w.e.stack.Abort()
			}
		}
		t := Transition{
			Target:      target,
			Probability: r.PathProbability(),
			Signature:   r.NondeterministicSignature(),
			Decisions:   r.Decisions(),
		}
		nondeterministic = nondeterministic || len(t.Signature) > 0
		transitions = append(transitions, t)
	}
	if !nondeterministic {
		for i := range transitions {
			transitions[i].Decisions = nil
		}
	}
	w.e.stack.Push(pushed...)
	w.e.cfg.Metrics.TransitionsExplored(w.e.space.Model, len(transitions))
	return transitions, nil
}
