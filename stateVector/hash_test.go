package stateVector

import "testing"

func TestHashKnownValues(t *testing.T) {
	for i, test := range hashTest {
		if got := Hash(test.data, test.seed); got != test.expected {
			t.Errorf("Test %v: Unexpected hash of %q with seed %#x. Got: %#x. Expected: %#x", i, test.data, test.seed, got, test.expected)
		}
	}
}

func TestHashIgnoresHeader(t *testing.T) {
	a := []byte{1, 2, 3, 4, 9, 9, 9, 9}
	b := []byte{5, 6, 7, 8, 9, 9, 9, 9}
	if HashState(a, 4, 7) != HashState(b, 4, 7) {
		t.Errorf("States differing only in the header must hash equally")
	}
	if !Equal(a, b, 4) {
		t.Errorf("States differing only in the header must be equal")
	}
	if Equal(a, b, 0) {
		t.Errorf("States differing in the payload must not be equal")
	}
	if HashState(a, 0, 7) == HashState(b, 0, 7) {
		t.Errorf("Expected different hashes for different payloads")
	}
}

var hashTest = []struct {
	data     []byte
	seed     uint32
	expected uint32
}{
	{[]byte{}, 0, 0},
	{[]byte{}, 1, 0x514E28B7},
	{[]byte{}, 0xffffffff, 0x81F16F39},
	{[]byte{0, 0, 0, 0}, 0, 0x2362F9DE},
	{[]byte("aaaa"), 0x9747b28c, 0x5A97808A},
}
