package scheduler

import (
	"sync"
)

// Distributes unexplored states among the exploration workers.
//
// States are explored depth first: the latest discovered state is popped first.
// Exploration is done when the stack is empty and no worker is exploring a state, since only workers exploring a state can push new states.
type Stack struct {
	// unexplored states
	items []int

	// Used to wait for a change in s.ongoing or s.items. The condition is len(s.items) == 0 and s.ongoing > 0
	cond *sync.Cond

	// Number of workers currently exploring a state, i.e. workers that have popped a state and not yet called Done
	ongoing int

	aborted bool
}

func NewStack(initial ...int) *Stack {
	items := make([]int, len(initial), max(len(initial), 64))
	copy(items, initial)
	return &Stack{
		items: items,
		cond:  sync.NewCond(new(sync.Mutex)),
	}
}

// Add states to the stack. Wakes up waiting workers.
func (s *Stack) Push(states ...int) {
	if len(states) == 0 {
		return
	}
	s.cond.L.Lock()
	defer s.cond.L.Unlock()

	wasEmpty := len(s.items) == 0
	s.items = append(s.items, states...)
	if wasEmpty {
		s.cond.Broadcast()
	}
}

// Pop the latest unexplored state.
//
// Blocks until a state is available.
// Returns NoWorkError if the stack is empty and no worker can add new states, and AbortedError if the exploration was aborted.
// Every successful Pop must be followed by a call to Done.
func (s *Stack) Pop() (int, error) {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()

	// If no states are available wait until there are.
	// If at the same time no worker is exploring a state, no new states will ever be added and the exploration is complete.
	for len(s.items) == 0 && s.ongoing > 0 && !s.aborted {
		s.cond.Wait()
	}
	if s.aborted {
		return 0, AbortedError
	}
	if len(s.items) == 0 {
		return 0, NoWorkError
	}

	state := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]

	s.ongoing++
	return state, nil
}

// Mark the state returned by the last Pop of a worker as explored
func (s *Stack) Done() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()

	s.ongoing--
	s.cond.Broadcast()
}

// Stop the exploration. All current and future calls to Pop return AbortedError.
func (s *Stack) Abort() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()

	s.aborted = true
	s.cond.Broadcast()
}

// Number of unexplored states
func (s *Stack) Len() int {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	return len(s.items)
}
