package arena

import (
	"encoding/binary"
	"fmt"
)

const (
	// Number of guard bytes placed before and after every payload.
	GuardSize = 16

	guardByte = 0xCD
)

// A guarded byte buffer of a fixed, declared size.
//
// The payload is surrounded by two guard regions that are filled with a known pattern.
// Code that writes through the raw payload slice can be verified with CheckGuards, while the typed accessors refuse to touch anything past the payload.
// A Buffer is not safe for concurrent use.
type Buffer struct {
	data []byte
	size int
}

// Create a new Buffer with a payload of size bytes.
func New(size int) *Buffer {
	requires(size >= 0, "arena.New: size must be non-negative, got %v", size)
	b := &Buffer{}
	b.allocate(size)
	return b
}

func (b *Buffer) allocate(size int) {
	b.data = make([]byte, size+2*GuardSize)
	b.size = size
	b.fillGuards()
}

func (b *Buffer) fillGuards() {
	for i := 0; i < GuardSize; i++ {
		b.data[i] = guardByte
		b.data[GuardSize+b.size+i] = guardByte
	}
}

// Returns the size of the payload in bytes
func (b *Buffer) Len() int {
	return b.size
}

// Returns the payload. The returned slice has its capacity limited to the payload, so appending to it will never reach the guards.
func (b *Buffer) Bytes() []byte {
	return b.data[GuardSize : GuardSize+b.size : GuardSize+b.size]
}

// Returns a checked view of length bytes starting at offset.
func (b *Buffer) Window(offset, length int) []byte {
	requires(offset >= 0 && length >= 0, "arena.Window: invalid range [%v, %v)", offset, offset+length)
	b.checkAccess(offset, length)
	start := GuardSize + offset
	return b.data[start : start+length : start+length]
}

// Zero the payload. The guards are left untouched.
func (b *Buffer) Clear() {
	clear(b.Bytes())
}

// Copy src into the payload starting at offset.
func (b *Buffer) CopyFrom(offset int, src []byte) {
	copy(b.Window(offset, len(src)), src)
}

// Grow the payload to size bytes.
//
// The live payload is copied into a new, larger block and the guards are re-established around it.
// Shrinking is a contract violation.
func (b *Buffer) Resize(size int) {
	requires(size >= b.size, "arena.Resize: cannot shrink buffer from %v to %v bytes", b.size, size)
	if size == b.size {
		return
	}
	if err := b.CheckGuards(); err != nil {
		panic(err)
	}
	old := b.Bytes()
	b.allocate(size)
	copy(b.Bytes(), old)
}

// Verify that nothing has written into the guard regions.
//
// Returns a *BoundsError describing the first overwritten guard byte, or nil if both guards are intact.
func (b *Buffer) CheckGuards() error {
	for i := 0; i < GuardSize; i++ {
		if b.data[i] != guardByte {
			return &BoundsError{Offset: i - GuardSize, Size: b.size, Guard: "leading"}
		}
		if b.data[GuardSize+b.size+i] != guardByte {
			return &BoundsError{Offset: b.size + i, Size: b.size, Guard: "trailing"}
		}
	}
	return nil
}

func (b *Buffer) checkAccess(offset, width int) {
	if offset < 0 || offset+width > b.size {
		panic(&BoundsError{Offset: offset, Width: width, Size: b.size})
	}
}

func (b *Buffer) PutUint8(offset int, v uint8) {
	b.checkAccess(offset, 1)
	b.data[GuardSize+offset] = v
}

func (b *Buffer) PutUint16(offset int, v uint16) {
	b.checkAccess(offset, 2)
	binary.LittleEndian.PutUint16(b.data[GuardSize+offset:], v)
}

func (b *Buffer) PutUint32(offset int, v uint32) {
	b.checkAccess(offset, 4)
	binary.LittleEndian.PutUint32(b.data[GuardSize+offset:], v)
}

func (b *Buffer) PutUint64(offset int, v uint64) {
	b.checkAccess(offset, 8)
	binary.LittleEndian.PutUint64(b.data[GuardSize+offset:], v)
}

func (b *Buffer) Uint8(offset int) uint8 {
	b.checkAccess(offset, 1)
	return b.data[GuardSize+offset]
}

func (b *Buffer) Uint16(offset int) uint16 {
	b.checkAccess(offset, 2)
	return binary.LittleEndian.Uint16(b.data[GuardSize+offset:])
}

func (b *Buffer) Uint32(offset int) uint32 {
	b.checkAccess(offset, 4)
	return binary.LittleEndian.Uint32(b.data[GuardSize+offset:])
}

func (b *Buffer) Uint64(offset int) uint64 {
	b.checkAccess(offset, 8)
	return binary.LittleEndian.Uint64(b.data[GuardSize+offset:])
}

func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer(%v bytes)", b.size)
}
