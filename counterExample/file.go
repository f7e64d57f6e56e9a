package counterExample

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// Magic number at the start of every counterexample file
	FileHeader uint32 = 0x3FE0DD04
	FileExtension     = ".ssharp"
)

var (
	ErrInvalidHeader = errors.New("counterExample: invalid file header")
	ErrMalformed     = errors.New("counterExample: malformed counterexample")
)

// Field numbers of the file body
const (
	fieldModelName         protowire.Number = 1
	fieldHeaderBytes       protowire.Number = 2
	fieldStateVectorSize   protowire.Number = 3
	fieldState             protowire.Number = 4
	fieldTrace             protowire.Number = 5
	fieldEndsWithException protowire.Number = 6
	fieldFault             protowire.Number = 7
)

// Encode the counterexample body, without the file header
func (ce *CounterExample) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldModelName, protowire.BytesType)
	b = protowire.AppendString(b, ce.ModelName)
	b = protowire.AppendTag(b, fieldHeaderBytes, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(ce.HeaderBytes))
	b = protowire.AppendTag(b, fieldStateVectorSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(ce.StateVectorSize))
	for _, s := range ce.States {
		b = protowire.AppendTag(b, fieldState, protowire.BytesType)
		b = protowire.AppendBytes(b, s)
	}
	for _, trace := range ce.Traces {
		var packed []byte
		for _, c := range trace {
			packed = protowire.AppendVarint(packed, uint64(c))
		}
		b = protowire.AppendTag(b, fieldTrace, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	b = protowire.AppendTag(b, fieldEndsWithException, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(ce.EndsWithException))
	for _, f := range ce.Faults {
		b = protowire.AppendTag(b, fieldFault, protowire.BytesType)
		b = protowire.AppendString(b, f)
	}
	return b
}

// Decode a counterexample body produced by Marshal
func Unmarshal(b []byte) (*CounterExample, error) {
	ce := &CounterExample{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(n)
		}
		b = b[n:]
		switch {
		case num == fieldModelName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, malformed(n)
			}
			ce.ModelName = v
			b = b[n:]
		case num == fieldHeaderBytes && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, malformed(n)
			}
			ce.HeaderBytes = int(v)
			b = b[n:]
		case num == fieldStateVectorSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, malformed(n)
			}
			ce.StateVectorSize = int(v)
			b = b[n:]
		case num == fieldState && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, malformed(n)
			}
			ce.States = append(ce.States, bytes.Clone(v))
			b = b[n:]
		case num == fieldTrace && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, malformed(n)
			}
			trace := []int{}
			for len(v) > 0 {
				c, m := protowire.ConsumeVarint(v)
				if m < 0 {
					return nil, malformed(m)
				}
				trace = append(trace, int(c))
				v = v[m:]
			}
			ce.Traces = append(ce.Traces, trace)
			b = b[n:]
		case num == fieldEndsWithException && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, malformed(n)
			}
			ce.EndsWithException = protowire.DecodeBool(v)
			b = b[n:]
		case num == fieldFault && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, malformed(n)
			}
			ce.Faults = append(ce.Faults, v)
			b = b[n:]
		default:
			// Skip fields written by newer versions
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, malformed(n)
			}
			b = b[n:]
		}
	}
	if err := ce.validate(); err != nil {
		return nil, err
	}
	return ce, nil
}

func malformed(n int) error {
	return fmt.Errorf("counterExample: %v: %w", protowire.ParseError(n), ErrMalformed)
}

// Write the counterexample file: the magic header followed by the encoded body
func (ce *CounterExample) Save(w io.Writer) error {
	if err := ce.validate(); err != nil {
		return err
	}
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, FileHeader)
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(ce.Marshal())
	return err
}

func Load(r io.Reader) (*CounterExample, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("counterExample: reading header: %v: %w", err, ErrInvalidHeader)
	}
	if h := binary.LittleEndian.Uint32(header); h != FileHeader {
		return nil, fmt.Errorf("counterExample: got header %#x, expected %#x: %w", h, FileHeader, ErrInvalidHeader)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(body)
}

// Save the counterexample to path, adding the file extension if it is missing.
// Returns the path of the written file.
func (ce *CounterExample) SaveFile(path string) (string, error) {
	if !strings.HasSuffix(path, FileExtension) {
		path += FileExtension
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := ce.Save(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func LoadFile(path string) (*CounterExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
