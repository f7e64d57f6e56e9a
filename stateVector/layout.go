package stateVector

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"

	"safemc/arena"
)

// The serialization layout of a model type.
//
// A Layout is computed once per model type from the declared fields and is read only afterwards, so it can be shared between goroutines.
// Fields are grouped by width, widest first, so that every field is naturally aligned.
// Booleans are packed into 32-bit words after all other fields.
// The size of the state vector, header included, is always a multiple of 4.
type Layout[M any] struct {
	headerBytes int
	size        int

	specs  []FieldSpec[M]
	fields []Field
	// Number of non-boolean fields. They precede the booleans in fields and specs
	scalars int
	// Start of the alignment padding between the scalars and the booleans
	padding int
	// Number of 32-bit words holding packed booleans, located at boolOffset
	boolWords  int
	boolOffset int
}

// Create a Layout for the fields of M.
//
// headerBytes is reserved at the start of the vector for the caller and is never touched by serialization.
// It must be a non-negative multiple of 4. Field names must be unique.
func NewLayout[M any](headerBytes int, specs ...FieldSpec[M]) *Layout[M] {
	if headerBytes < 0 || headerBytes%4 != 0 {
		panic(&ContractError{Msg: fmt.Sprintf("stateVector: header size must be a non-negative multiple of 4, got %v", headerBytes)})
	}
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if seen[s.name] {
			panic(&ContractError{Msg: fmt.Sprintf("stateVector: duplicate field %q", s.name)})
		}
		seen[s.name] = true
	}

	l := &Layout[M]{headerBytes: headerBytes}

	ordered := make([]FieldSpec[M], len(specs))
	copy(ordered, specs)
	// Stable sort keeps the declaration order within one width class, which keeps the layout deterministic
	slices.SortStableFunc(ordered, func(a, b FieldSpec[M]) bool {
		return a.kind.Width() > b.kind.Width()
	})

	offset := headerBytes
	bools := 0
	for _, s := range ordered {
		if s.kind == KindBool {
			bools++
			continue
		}
		l.specs = append(l.specs, s)
		l.fields = append(l.fields, Field{Name: s.name, Kind: s.kind, Offset: offset})
		offset += s.kind.Width()
	}
	l.scalars = len(l.fields)
	l.padding = offset
	offset = align4(offset)

	l.boolOffset = offset
	l.boolWords = (bools + 31) / 32
	bit := 0
	for _, s := range ordered {
		if s.kind != KindBool {
			continue
		}
		l.specs = append(l.specs, s)
		l.fields = append(l.fields, Field{Name: s.name, Kind: KindBool, Offset: offset + 4*(bit/32), Bit: bit % 32})
		bit++
	}
	l.size = offset + 4*l.boolWords
	return l
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// Total size of the state vector in bytes, including the header.
func (l *Layout[M]) Size() int {
	return l.size
}

func (l *Layout[M]) HeaderBytes() int {
	return l.headerBytes
}

// Returns the computed field positions in layout order.
func (l *Layout[M]) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Write all fields of m into buf.
//
// The header region of buf is left untouched.
// A buffer smaller than the layout, or a guard violation detected after writing, is a fatal bounds violation and panics.
func (l *Layout[M]) Serialize(m *M, buf *arena.Buffer) {
	if buf.Len() < l.size {
		panic(&arena.BoundsError{Offset: 0, Width: l.size, Size: buf.Len()})
	}
	for i, f := range l.fields[:l.scalars] {
		raw := l.specs[i].get(m)
		switch f.Kind.Width() {
		case 1:
			buf.PutUint8(f.Offset, uint8(raw))
		case 2:
			buf.PutUint16(f.Offset, uint16(raw))
		case 4:
			buf.PutUint32(f.Offset, uint32(raw))
		case 8:
			buf.PutUint64(f.Offset, raw)
		}
	}
	// Zero the alignment padding so that equal states always have equal bytes
	for off := l.padding; off < l.boolOffset; off++ {
		buf.PutUint8(off, 0)
	}
	for w := 0; w < l.boolWords; w++ {
		var word uint32
		end := min(l.scalars+32*(w+1), len(l.fields))
		for i := l.scalars + 32*w; i < end; i++ {
			word |= uint32(l.specs[i].get(m)) << l.fields[i].Bit
		}
		buf.PutUint32(l.boolOffset+4*w, word)
	}
	if err := buf.CheckGuards(); err != nil {
		panic(err)
	}
}

// Restore all fields of m from buf. Exact inverse of Serialize.
func (l *Layout[M]) Deserialize(m *M, buf *arena.Buffer) {
	if buf.Len() < l.size {
		panic(&arena.BoundsError{Offset: 0, Width: l.size, Size: buf.Len()})
	}
	for i, f := range l.fields {
		var raw uint64
		switch f.Kind.Width() {
		case 0:
			raw = uint64(buf.Uint32(f.Offset)>>f.Bit) & 1
		case 1:
			raw = uint64(buf.Uint8(f.Offset))
		case 2:
			raw = uint64(buf.Uint16(f.Offset))
		case 4:
			raw = uint64(buf.Uint32(f.Offset))
		case 8:
			raw = buf.Uint64(f.Offset)
		}
		l.specs[i].set(m, raw)
	}
}

// Render the field values stored in buf, in layout order.
func (l *Layout[M]) Describe(buf *arena.Buffer) string {
	out := strings.Builder{}
	for i, f := range l.fields {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(f.Name)
		out.WriteString("=")
		out.WriteString(describeValue(f, buf))
	}
	return out.String()
}

func describeValue(f Field, buf *arena.Buffer) string {
	switch f.Kind {
	case KindBool:
		return fmt.Sprint((buf.Uint32(f.Offset)>>f.Bit)&1 == 1)
	case KindInt8:
		return fmt.Sprint(int8(buf.Uint8(f.Offset)))
	case KindInt16:
		return fmt.Sprint(int16(buf.Uint16(f.Offset)))
	case KindInt32:
		return fmt.Sprint(int32(buf.Uint32(f.Offset)))
	case KindInt64:
		return fmt.Sprint(int64(buf.Uint64(f.Offset)))
	case KindUint8:
		return fmt.Sprint(buf.Uint8(f.Offset))
	case KindUint16:
		return fmt.Sprint(buf.Uint16(f.Offset))
	case KindUint32:
		return fmt.Sprint(buf.Uint32(f.Offset))
	case KindUint64:
		return fmt.Sprint(buf.Uint64(f.Offset))
	case KindFloat32:
		return fmt.Sprint(math.Float32frombits(buf.Uint32(f.Offset)))
	case KindFloat64:
		return fmt.Sprint(math.Float64frombits(buf.Uint64(f.Offset)))
	}
	return "?"
}
