package scheduler

import (
	"errors"
	"sync"
	"testing"

	"golang.org/x/exp/slices"
)

func TestStackOrder(t *testing.T) {
	s := NewStack(0)
	got := []int{}
	for {
		state, err := s.Pop()
		if errors.Is(err, NoWorkError) {
			break
		}
		if err != nil {
			t.Fatalf("Expected no error. Got: %v", err)
		}
		got = append(got, state)
		// 0 -> 1, 2. 2 -> 3
		switch state {
		case 0:
			s.Push(1, 2)
		case 2:
			s.Push(3)
		}
		s.Done()
	}
	expected := []int{0, 2, 3, 1}
	if !slices.Equal(got, expected) {
		t.Errorf("Unexpected exploration order. Got: %v. Expected: %v", got, expected)
	}
}

func TestStackEmpty(t *testing.T) {
	s := NewStack()
	if _, err := s.Pop(); !errors.Is(err, NoWorkError) {
		t.Errorf("Expected %v. Got: %v", NoWorkError, err)
	}
}

func TestStackAbort(t *testing.T) {
	s := NewStack(0)
	if _, err := s.Pop(); err != nil {
		t.Fatalf("Expected no error. Got: %v", err)
	}
	errChan := make(chan error)
	go func() {
		// Blocks since the first worker is still exploring
		_, err := s.Pop()
		errChan <- err
	}()
	s.Abort()
	if err := <-errChan; !errors.Is(err, AbortedError) {
		t.Errorf("Expected %v. Got: %v", AbortedError, err)
	}
}

func TestStackConcurrentQuiescence(t *testing.T) {
	// Explore a binary tree of depth 10 with several workers
	const depth = 10
	s := NewStack(1)
	var mu sync.Mutex
	explored := map[int]bool{}
	wg := sync.WaitGroup{}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				state, err := s.Pop()
				if errors.Is(err, NoWorkError) {
					return
				}
				if err != nil {
					t.Errorf("Expected no error. Got: %v", err)
					return
				}
				mu.Lock()
				if explored[state] {
					t.Errorf("State %v explored twice", state)
				}
				explored[state] = true
				mu.Unlock()
				if state < 1<<(depth-1) {
					s.Push(2*state, 2*state+1)
				}
				s.Done()
			}
		}()
	}
	wg.Wait()
	if len(explored) != 1<<depth-1 {
		t.Errorf("Expected all %v states to be explored. Got: %v", 1<<depth-1, len(explored))
	}
	if s.Len() != 0 {
		t.Errorf("Expected an empty stack. Got: %v", s.Len())
	}
}
