package abi

import (
	"github.com/holiman/uint256"

	"contractir/internal/errors"
	"contractir/internal/types"
	"contractir/internal/value"
)

// Encode returns the encoding of v as the only element of an argument list
func Encode(r value.Reader, v value.Value, t types.Type) ([]byte, error) {
	return EncodeArgs(r, []value.Value{v}, []types.Type{t})
}

// EncodeArgs encodes a top-level head/tail sequence. Slice contents are read
// through r.
func EncodeArgs(r value.Reader, values []value.Value, ts []types.Type) ([]byte, error) {
	if len(values) != len(ts) {
		return nil, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Detail("%d values for %d types", len(values), len(ts)).
			Build()
	}
	paths := make([][]string, len(ts))
	for i := range ts {
		paths[i] = argPath(i)
	}
	enc := &encoder{r: r}
	out, err := enc.sequence(values, ts, paths)
	if err != nil {
		return nil, err
	}
	log.Debug("encoded arguments", "values", len(values), "bytes", len(out))
	return out, nil
}

type encoder struct {
	r value.Reader
}

// sequence lays out heads then tails; offsets are relative to the start of
// the sequence
func (e *encoder) sequence(values []value.Value, ts []types.Type, paths [][]string) ([]byte, error) {
	headLen := 0
	for _, t := range ts {
		headLen += HeadSize(t)
	}

	head := make([]byte, 0, headLen)
	var tail []byte
	for i, t := range ts {
		enc, err := e.value(values[i], t, paths[i])
		if err != nil {
			return nil, err
		}
		if !t.IsDynamic() {
			head = append(head, enc...)
			continue
		}
		head = appendUint(head, uint64(headLen+len(tail)))
		tail = append(tail, enc...)
	}
	return append(head, tail...), nil
}

// value returns the full encoding of v: the inline bytes of a static value or
// the tail entry of a dynamic one
func (e *encoder) value(v value.Value, t types.Type, path []string) ([]byte, error) {
	switch tt := t.(type) {
	case *types.BytesType, *types.StringType:
		s, ok := v.(value.Slice)
		if !ok {
			return nil, mismatch(errors.PhaseEncode, path, t, v)
		}
		data, err := e.r.Bytes(s)
		if err != nil {
			return nil, err
		}
		return appendBytes(nil, data), nil

	case *types.FixedBytesType:
		// a bytes slice may stand in for bytesN when it fits
		if s, ok := v.(value.Slice); ok {
			data, err := e.r.Bytes(s)
			if err != nil {
				return nil, err
			}
			if len(data) > tt.Size {
				return nil, errors.CapacityExceeded(path, t, len(data), tt.Size)
			}
			word := make([]byte, WordSize)
			copy(word, data)
			return word, nil
		}

	case *types.ArrayType:
		elems, err := e.elements(v, t, path)
		if err != nil {
			return nil, err
		}
		if tt.Length != types.DynamicLength {
			if len(elems) > tt.Length {
				return nil, errors.CapacityExceeded(path, t, len(elems), tt.Length)
			}
			if len(elems) < tt.Length {
				return nil, errors.Mismatch(errors.PhaseEncode, path, t, itoa(len(elems))+" elements")
			}
		}
		ts := make([]types.Type, len(elems))
		paths := make([][]string, len(elems))
		for i := range elems {
			ts[i] = tt.Elem
			paths[i] = index(path, i)
		}
		body, err := e.sequence(elems, ts, paths)
		if err != nil {
			return nil, err
		}
		if tt.Length == types.DynamicLength {
			return append(appendUint(nil, uint64(len(elems))), body...), nil
		}
		return body, nil

	case *types.TupleType:
		group, ok := v.(value.Tuple)
		if !ok || len(group) != len(tt.Elements) {
			return nil, mismatch(errors.PhaseEncode, path, t, v)
		}
		paths := make([][]string, len(group))
		for i := range group {
			paths[i] = child(path, itoa(i))
		}
		return e.sequence(group, tt.Elements, paths)
	}

	s, ok := v.(value.Scalar)
	if !ok || !types.IsScalar(t) || s.Width != types.Width(t) {
		return nil, mismatch(errors.PhaseEncode, path, t, v)
	}
	word := scalarWord(t, s)
	return word[:], nil
}

// elements returns the components of an array value given either as a group
// or as a heap slice of cells
func (e *encoder) elements(v value.Value, t types.Type, path []string) ([]value.Value, error) {
	switch vv := v.(type) {
	case value.Tuple:
		return vv, nil
	case value.Slice:
		return value.Elements(e.r, types.DynArray(t.(*types.ArrayType).Elem), vv)
	}
	return nil, mismatch(errors.PhaseEncode, path, t, v)
}

// scalarWord widens a scalar to its 32-byte slot: signed integers are sign
// extended, bytesN are left-aligned, everything else is zero-extended
func scalarWord(t types.Type, s value.Scalar) [32]byte {
	w := s.Bits
	switch {
	case signed(t) && s.Width < 256:
		w.ExtendSign(&w, uint256.NewInt(uint64(s.Width/8-1)))
	case isFixedBytes(t):
		w.Lsh(&w, uint(256-s.Width))
	}
	return w.Bytes32()
}

func isFixedBytes(t types.Type) bool {
	_, ok := t.(*types.FixedBytesType)
	return ok
}

func appendUint(dst []byte, n uint64) []byte {
	word := uint256.NewInt(n).Bytes32()
	return append(dst, word[:]...)
}

// appendBytes writes a length prefix and data zero-padded to a word boundary
func appendBytes(dst []byte, data []byte) []byte {
	dst = appendUint(dst, uint64(len(data)))
	dst = append(dst, data...)
	return append(dst, make([]byte, padded(len(data))-len(data))...)
}
