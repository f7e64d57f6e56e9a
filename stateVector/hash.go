package stateVector

import (
	"bytes"

	"github.com/spaolacci/murmur3"
)

// Compute a 32-bit Murmur3 hash of data.
//
// The hash is a pure function of the bytes and the seed and is therefore stable across runs.
func Hash(data []byte, seed uint32) uint32 {
	return murmur3.Sum32WithSeed(data, seed)
}

// Hash of a state vector, excluding its header.
func HashState(vector []byte, headerBytes int, seed uint32) uint32 {
	return Hash(vector[headerBytes:], seed)
}

// Reports whether two state vectors describe the same state, i.e. their bytes after the header are identical.
func Equal(a, b []byte, headerBytes int) bool {
	if len(a) != len(b) {
		return false
	}
	return bytes.Equal(a[headerBytes:], b[headerBytes:])
}
