package stateManager

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"safemc/arena"
	"safemc/stateVector"
)

// Seed of the state hash. Fixed so that state ids are reproducible across runs with a single worker.
const Seed uint32 = 0x9747b28c

const (
	emptyBucket = 0
	// Published in place of an index when the state could not be stored
	overflowIndex = -1
	// Added to an index before it is published, so that neither 0 nor overflowIndex is stored as 0
	publishOffset = 2
)

var (
	ErrCapacityExceeded = errors.New("stateManager: capacity exceeded")
	ErrVectorSize       = errors.New("stateManager: state vector has the wrong size")
)

// Returned when more distinct states are discovered than the storage can hold
type CapacityExceededError struct {
	Capacity int
}

func (ce *CapacityExceededError) Error() string {
	return fmt.Sprintf("stateManager: state capacity of %v exceeded", ce.Capacity)
}

func (ce *CapacityExceededError) Unwrap() error {
	return ErrCapacityExceeded
}

// Stores the discovered states and assigns each distinct state a canonical index.
//
// The states are kept in an open addressing hash table with twice as many buckets as the state capacity.
// Adding a state is a lock free compare-and-insert: the worker that claims the bucket of a new state stores it,
// every other worker discovering the same state concurrently waits until it is published and agrees on its index.
//
// Is safe to call from multiple goroutines.
type Storage struct {
	vectorSize  int
	headerBytes int
	capacity    int

	states *arena.Slots
	// Hash of the state stored in each bucket. 0 marks an empty bucket.
	hashes []atomic.Uint32
	// Index+publishOffset of the state stored in each bucket. 0 until the state is published.
	indices []atomic.Int64
	// First discovered predecessor of each state. -1 for initial states.
	parents []int64
	count   atomic.Int64
}

func NewStorage(vectorSize, headerBytes, capacity int) *Storage {
	if capacity <= 0 {
		panic(fmt.Errorf("stateManager: capacity must be positive. Got: %v", capacity))
	}
	buckets := 2 * capacity
	return &Storage{
		vectorSize:  vectorSize,
		headerBytes: headerBytes,
		capacity:    capacity,
		states:      arena.NewSlots(vectorSize, capacity),
		hashes:      make([]atomic.Uint32, buckets),
		indices:     make([]atomic.Int64, buckets),
		parents:     make([]int64, capacity),
	}
}

// Add the state to the storage unless an equal state has already been added.
//
// Returns the index of the state and whether it was added by this call.
// parent is recorded as the predecessor of a new state, use -1 for initial states.
func (s *Storage) AddState(vector []byte, parent int) (int, bool, error) {
	if len(vector) != s.vectorSize {
		return 0, false, fmt.Errorf("stateManager: got %v bytes, expected %v: %w", len(vector), s.vectorSize, ErrVectorSize)
	}
	h := stateVector.HashState(vector, s.headerBytes, Seed)
	if h == emptyBucket {
		h = 1
	}

	buckets := uint64(len(s.hashes))
	for i := uint64(0); i < buckets; i++ {
		b := (uint64(h) + i) % buckets
		current := s.hashes[b].Load()
		if current == emptyBucket {
			if s.hashes[b].CompareAndSwap(emptyBucket, h) {
				return s.insert(b, vector, parent)
			}
			// Another worker claimed the bucket first
			current = s.hashes[b].Load()
		}
		if current != h {
			continue
		}
		index := s.awaitPublished(b)
		if index == overflowIndex {
			return 0, false, &CapacityExceededError{Capacity: s.capacity}
		}
		if stateVector.Equal(s.states.Slot(int(index)), vector, s.headerBytes) {
			return int(index), false, nil
		}
	}
	return 0, false, &CapacityExceededError{Capacity: s.capacity}
}

func (s *Storage) insert(bucket uint64, vector []byte, parent int) (int, bool, error) {
	index := s.count.Add(1) - 1
	if index >= int64(s.capacity) {
		s.indices[bucket].Store(overflowIndex + publishOffset)
		return 0, false, &CapacityExceededError{Capacity: s.capacity}
	}
	copy(s.states.Slot(int(index)), vector)
	s.parents[index] = int64(parent)
	// Publishing the index makes the stored bytes visible to the other workers
	s.indices[bucket].Store(index + publishOffset)
	return int(index), true, nil
}

// Wait until the winner of the bucket has stored its state
func (s *Storage) awaitPublished(bucket uint64) int64 {
	for {
		if v := s.indices[bucket].Load(); v != 0 {
			return v - publishOffset
		}
		runtime.Gosched()
	}
}

// The stored state vector with the given index. Must not be modified.
func (s *Storage) Get(index int) []byte {
	return s.states.Slot(index)
}

// The predecessor through which the state was first discovered, -1 for initial states
func (s *Storage) Parent(index int) int {
	return int(s.parents[index])
}

// Number of distinct states stored
func (s *Storage) Count() int {
	n := int(s.count.Load())
	return min(n, s.capacity)
}

func (s *Storage) Capacity() int {
	return s.capacity
}

func (s *Storage) VectorSize() int {
	return s.vectorSize
}

func (s *Storage) HeaderBytes() int {
	return s.headerBytes
}

// Check the guard regions of the state memory
func (s *Storage) CheckGuards() error {
	return s.states.CheckGuards()
}
