package value

import (
	"encoding/binary"

	"contractir/internal/errors"
	"contractir/internal/types"
)

// Heap cells: the in-buffer representation of one element of a dynamic array.
// Scalars take a 32-byte big-endian word, slices a 24-byte handle of buffer,
// offset and length, groups the concatenation of their components.

const handleSize = 24

// PackCell appends the cell form of v to dst
func PackCell(dst []byte, t types.Type, v Value) ([]byte, error) {
	switch vv := v.(type) {
	case Scalar:
		if !types.IsScalar(t) {
			break
		}
		word := vv.Word()
		return append(dst, word[:]...), nil
	case Slice:
		if !types.IsSlice(t) {
			break
		}
		var handle [handleSize]byte
		binary.BigEndian.PutUint64(handle[0:8], uint64(int64(vv.Buffer)))
		binary.BigEndian.PutUint64(handle[8:16], uint64(vv.Offset))
		binary.BigEndian.PutUint64(handle[16:24], uint64(vv.Length))
		return append(dst, handle[:]...), nil
	case Tuple:
		comps := types.Components(t)
		if !types.IsGroup(t) || len(comps) != len(vv) {
			break
		}
		var err error
		for i, c := range comps {
			if dst, err = PackCell(dst, c, vv[i]); err != nil {
				return nil, err
			}
		}
		return dst, nil
	}
	return nil, errors.Mismatch(errors.PhaseExec, nil, t, valueKind(v))
}

// UnpackCell decodes one cell of type t from the front of cell
func UnpackCell(t types.Type, cell []byte) (Value, error) {
	size := types.CellSize(t)
	if len(cell) < size {
		return nil, errors.New(errors.PhaseExec, errors.KindBrokenInvariant).
			Type(t).
			Detail("cell needs %d bytes, have %d", size, len(cell)).
			Build()
	}

	switch {
	case types.IsScalar(t):
		s := Scalar{Width: types.Width(t)}
		s.Bits.SetBytes(cell[:32])
		return s, nil
	case types.IsSlice(t):
		return Slice{
			Buffer: int(int64(binary.BigEndian.Uint64(cell[0:8]))),
			Offset: int(binary.BigEndian.Uint64(cell[8:16])),
			Length: int(binary.BigEndian.Uint64(cell[16:24])),
		}, nil
	case types.IsGroup(t):
		comps := types.Components(t)
		group := make(Tuple, len(comps))
		off := 0
		for i, c := range comps {
			v, err := UnpackCell(c, cell[off:])
			if err != nil {
				return nil, err
			}
			group[i] = v
			off += types.CellSize(c)
		}
		return group, nil
	}
	return nil, errors.New(errors.PhaseExec, errors.KindUnsupported).Type(t).Build()
}

// Elements unpacks every cell of a dynamic array slice
func Elements(r Reader, t types.Type, s Slice) ([]Value, error) {
	data, err := r.Bytes(s)
	if err != nil {
		return nil, err
	}

	elem, _ := types.ElemType(t)
	if _, isBytes := t.(*types.BytesType); isBytes {
		out := make([]Value, len(data))
		for i, b := range data {
			out[i] = Uint(8, uint64(b))
		}
		return out, nil
	}
	if _, isString := t.(*types.StringType); isString {
		return nil, errors.Mismatch(errors.PhaseExec, nil, t, "element access")
	}

	size := types.CellSize(elem)
	out := make([]Value, 0, len(data)/size)
	for off := 0; off+size <= len(data); off += size {
		v, err := UnpackCell(elem, data[off:off+size])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func valueKind(v Value) string {
	switch v.(type) {
	case Scalar:
		return "scalar"
	case Slice:
		return "slice"
	case Tuple:
		return "tuple"
	case nil:
		return "nothing"
	}
	return "unknown value"
}
