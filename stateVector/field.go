package stateVector

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

type Kind int

const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
)

// Returns the number of bytes occupied by a field of the kind.
// Booleans are packed as single bits and report a width of 0.
func (k Kind) Width() int {
	switch k {
	case KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64:
		return 8
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// The position of a field in the state vector.
//
// Offset is absolute, i.e. it already includes the header bytes.
// For booleans Offset is the 32-bit word holding the field and Bit the bit within that word.
type Field struct {
	Name   string
	Kind   Kind
	Offset int
	Bit    int
}

// Declares a field of the model type M together with the accessors used to read and write it.
//
// The raw value is always transported as the field's bit pattern in a uint64.
type FieldSpec[M any] struct {
	name string
	kind Kind
	get  func(*M) uint64
	set  func(*M, uint64)
}

func Bool[M any](name string, get func(*M) bool, set func(*M, bool)) FieldSpec[M] {
	return FieldSpec[M]{
		name: name,
		kind: KindBool,
		get: func(m *M) uint64 {
			if get(m) {
				return 1
			}
			return 0
		},
		set: func(m *M, raw uint64) { set(m, raw != 0) },
	}
}

func Int8[M any, T ~int8](name string, get func(*M) T, set func(*M, T)) FieldSpec[M] {
	return signed(name, KindInt8, get, set)
}

func Int16[M any, T ~int16](name string, get func(*M) T, set func(*M, T)) FieldSpec[M] {
	return signed(name, KindInt16, get, set)
}

func Int32[M any, T ~int32](name string, get func(*M) T, set func(*M, T)) FieldSpec[M] {
	return signed(name, KindInt32, get, set)
}

func Int64[M any, T ~int64](name string, get func(*M) T, set func(*M, T)) FieldSpec[M] {
	return signed(name, KindInt64, get, set)
}

func Uint8[M any, T ~uint8](name string, get func(*M) T, set func(*M, T)) FieldSpec[M] {
	return unsigned(name, KindUint8, get, set)
}

func Uint16[M any, T ~uint16](name string, get func(*M) T, set func(*M, T)) FieldSpec[M] {
	return unsigned(name, KindUint16, get, set)
}

func Uint32[M any, T ~uint32](name string, get func(*M) T, set func(*M, T)) FieldSpec[M] {
	return unsigned(name, KindUint32, get, set)
}

func Uint64[M any, T ~uint64](name string, get func(*M) T, set func(*M, T)) FieldSpec[M] {
	return unsigned(name, KindUint64, get, set)
}

func Float32[M any](name string, get func(*M) float32, set func(*M, float32)) FieldSpec[M] {
	return FieldSpec[M]{
		name: name,
		kind: KindFloat32,
		get:  func(m *M) uint64 { return uint64(math.Float32bits(get(m))) },
		set:  func(m *M, raw uint64) { set(m, math.Float32frombits(uint32(raw))) },
	}
}

func Float64[M any](name string, get func(*M) float64, set func(*M, float64)) FieldSpec[M] {
	return FieldSpec[M]{
		name: name,
		kind: KindFloat64,
		get:  func(m *M) uint64 { return math.Float64bits(get(m)) },
		set:  func(m *M, raw uint64) { set(m, math.Float64frombits(raw)) },
	}
}

func signed[M any, T constraints.Signed](name string, kind Kind, get func(*M) T, set func(*M, T)) FieldSpec[M] {
	bits := uint(8 * kind.Width())
	return FieldSpec[M]{
		name: name,
		kind: kind,
		get:  func(m *M) uint64 { return uint64(int64(get(m))) & mask(bits) },
		// Shift up and back down to sign extend the stored bit pattern
		set: func(m *M, raw uint64) { set(m, T(int64(raw<<(64-bits))>>(64-bits))) },
	}
}

func unsigned[M any, T constraints.Unsigned](name string, kind Kind, get func(*M) T, set func(*M, T)) FieldSpec[M] {
	bits := uint(8 * kind.Width())
	return FieldSpec[M]{
		name: name,
		kind: kind,
		get:  func(m *M) uint64 { return uint64(get(m)) & mask(bits) },
		set:  func(m *M, raw uint64) { set(m, T(raw)) },
	}
}

func mask(bits uint) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	return 1<<bits - 1
}
