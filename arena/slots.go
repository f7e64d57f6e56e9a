package arena

// A block of fixed-size slots allocated up front in one guarded buffer.
//
// Used to store state vectors without allocating per state.
// Distinct slots may be written from different goroutines as long as every slot has a single writer.
type Slots struct {
	buf      *Buffer
	slotSize int
	capacity int
}

func NewSlots(slotSize, capacity int) *Slots {
	requires(slotSize > 0, "arena.NewSlots: slot size must be positive, got %v", slotSize)
	requires(capacity >= 0, "arena.NewSlots: capacity must be non-negative, got %v", capacity)
	return &Slots{
		buf:      New(slotSize * capacity),
		slotSize: slotSize,
		capacity: capacity,
	}
}

// Returns the checked memory of slot i
func (s *Slots) Slot(i int) []byte {
	requires(i >= 0 && i < s.capacity, "arena.Slot: slot %v outside of capacity %v", i, s.capacity)
	return s.buf.Window(i*s.slotSize, s.slotSize)
}

func (s *Slots) SlotSize() int {
	return s.slotSize
}

func (s *Slots) Capacity() int {
	return s.capacity
}

func (s *Slots) CheckGuards() error {
	return s.buf.CheckGuards()
}
