package abi

import (
	"github.com/holiman/uint256"

	"contractir/internal/errors"
	"contractir/internal/types"
	"contractir/internal/value"
)

// Decode reads the value of type t whose head slot starts at cursor in a
// sequence beginning at offset 0 of data. It returns the value and the cursor
// of the next head slot. Dynamic values are copied into fresh slices from
// alloc; data is never modified.
func Decode(data []byte, t types.Type, cursor int, alloc Storer) (value.Value, int, error) {
	d := &decoder{data: data, alloc: alloc}
	v, err := d.slot(0, cursor, t, argPath(0))
	if err != nil {
		return nil, cursor, err
	}
	return v, cursor + HeadSize(t), nil
}

// DecodeArgs decodes a top-level argument sequence
func DecodeArgs(data []byte, ts []types.Type, alloc Storer) ([]value.Value, error) {
	d := &decoder{data: data, alloc: alloc}
	paths := make([][]string, len(ts))
	for i := range ts {
		paths[i] = argPath(i)
	}
	values, err := d.sequence(0, ts, paths)
	if err != nil {
		return nil, err
	}
	log.Debug("decoded arguments", "values", len(values), "bytes", len(data))
	return values, nil
}

type decoder struct {
	data  []byte
	alloc Storer
}

func (d *decoder) sequence(base int, ts []types.Type, paths [][]string) ([]value.Value, error) {
	values := make([]value.Value, len(ts))
	cursor := base
	for i, t := range ts {
		v, err := d.slot(base, cursor, t, paths[i])
		if err != nil {
			return nil, err
		}
		values[i] = v
		cursor += HeadSize(t)
	}
	return values, nil
}

// slot decodes the head slot at cursor, following the offset of a dynamic
// value relative to base
func (d *decoder) slot(base, cursor int, t types.Type, path []string) (value.Value, error) {
	if !t.IsDynamic() {
		return d.content(cursor, t, path)
	}
	w, err := d.word(cursor, path)
	if err != nil {
		return nil, err
	}
	if !w.IsUint64() || w.Uint64() > uint64(len(d.data)-base) {
		off := uint64(^uint64(0))
		if w.IsUint64() {
			off = w.Uint64()
		}
		return nil, errors.OutOfRange(path, off, len(d.data))
	}
	return d.content(base+int(w.Uint64()), t, path)
}

// content decodes the encoding of a value starting at at
func (d *decoder) content(at int, t types.Type, path []string) (value.Value, error) {
	switch tt := t.(type) {
	case *types.BytesType, *types.StringType:
		n, err := d.length(at, 1, path)
		if err != nil {
			return nil, err
		}
		start := at + WordSize
		if err := d.need(start, padded(n), path); err != nil {
			return nil, err
		}
		return d.alloc.Store(d.data[start : start+n])

	case *types.ArrayType:
		if tt.Length != types.DynamicLength {
			return d.group(at, types.Components(t), path)
		}
		n, err := d.length(at, HeadSize(tt.Elem), path)
		if err != nil {
			return nil, err
		}
		ts := make([]types.Type, n)
		paths := make([][]string, n)
		for i := range ts {
			ts[i] = tt.Elem
			paths[i] = index(path, i)
		}
		elems, err := d.sequence(at+WordSize, ts, paths)
		if err != nil {
			return nil, err
		}
		var cells []byte
		for _, e := range elems {
			if cells, err = value.PackCell(cells, tt.Elem, e); err != nil {
				return nil, err
			}
		}
		return d.alloc.Store(cells)

	case *types.TupleType:
		return d.group(at, tt.Elements, path)
	}

	if !types.IsScalar(t) {
		return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).Path(path...).Type(t).Build()
	}
	w, err := d.word(at, path)
	if err != nil {
		return nil, err
	}
	return scalarFromWord(t, w, path)
}

func (d *decoder) group(at int, comps []types.Type, path []string) (value.Value, error) {
	paths := make([][]string, len(comps))
	for i := range comps {
		paths[i] = child(path, itoa(i))
	}
	values, err := d.sequence(at, comps, paths)
	if err != nil {
		return nil, err
	}
	return value.Tuple(values), nil
}

// length reads a length prefix at at and checks that the input can hold n
// units of unit bytes after it, so a hostile length never drives allocation
func (d *decoder) length(at, unit int, path []string) (int, error) {
	w, err := d.word(at, path)
	if err != nil {
		return 0, err
	}
	remaining := len(d.data) - at - WordSize
	if !w.IsUint64() || w.Uint64() > uint64(remaining/unit) {
		need := remaining + 1
		if w.IsUint64() && w.Uint64() <= uint64(len(d.data)) {
			need = int(w.Uint64()) * unit
		}
		return 0, errors.Truncated(path, at+WordSize, need, len(d.data))
	}
	return int(w.Uint64()), nil
}

func (d *decoder) need(at, n int, path []string) error {
	if at < 0 || n < 0 || at > len(d.data) || n > len(d.data)-at {
		return errors.Truncated(path, at, n, len(d.data))
	}
	return nil
}

func (d *decoder) word(at int, path []string) (*uint256.Int, error) {
	if err := d.need(at, WordSize, path); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(d.data[at : at+WordSize]), nil
}

// scalarFromWord narrows a 32-byte slot, rejecting dirty padding bits
func scalarFromWord(t types.Type, w *uint256.Int, path []string) (value.Value, error) {
	width := types.Width(t)
	bits := new(uint256.Int)

	clean := true
	switch tt := t.(type) {
	case *types.BoolType:
		clean = w.LtUint64(2)
		bits.Set(w)
	case *types.FixedBytesType:
		shift := uint(256 - width)
		bits.Rsh(w, shift)
		clean = new(uint256.Int).Lsh(bits, shift).Eq(w)
	case *types.IntType:
		bits.And(w, lowMask(width))
		if tt.Signed && width < 256 {
			ext := new(uint256.Int).ExtendSign(bits, uint256.NewInt(uint64(width/8-1)))
			clean = ext.Eq(w)
		} else {
			clean = bits.Eq(w)
		}
	default:
		bits.And(w, lowMask(width))
		clean = bits.Eq(w)
	}

	if !clean {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(path...).
			Type(t).
			Detail("dirty high-order bits in 0x%x", w.Bytes32()).
			Build()
	}
	return value.Scalar{Width: width, Bits: *bits}, nil
}
