package heap

import (
	"contractir/internal/errors"
	"contractir/internal/value"
)

// Slice-level operations. None of them writes to bytes an existing slice
// addresses: results either live in a fresh buffer or in bytes appended past
// the end of the most recent one.

// Store copies data into a fresh buffer
func (a *Allocator) Store(data []byte) (value.Slice, error) {
	if len(data) == 0 {
		return value.Slice{Buffer: value.NoBuffer}, nil
	}
	id, err := a.Allocate(len(data))
	if err != nil {
		return value.Slice{}, err
	}
	off, n, err := a.Append(id, data)
	if err != nil {
		return value.Slice{}, err
	}
	return value.Slice{Buffer: id, Offset: off, Length: n}, nil
}

// Concat copies both inputs in full into a fresh buffer
func (a *Allocator) Concat(x, y value.Slice) (value.Slice, error) {
	left, err := a.Bytes(x)
	if err != nil {
		return value.Slice{}, err
	}
	right, err := a.Bytes(y)
	if err != nil {
		return value.Slice{}, err
	}

	if len(left)+len(right) == 0 {
		return value.Slice{Buffer: value.NoBuffer}, nil
	}
	id, err := a.Allocate(len(left) + len(right))
	if err != nil {
		return value.Slice{}, err
	}
	off, _, err := a.Append(id, left)
	if err != nil {
		return value.Slice{}, err
	}
	if _, _, err := a.Append(id, right); err != nil {
		return value.Slice{}, err
	}
	return value.Slice{Buffer: id, Offset: off, Length: len(left) + len(right)}, nil
}

// Extend returns s followed by data. The bytes are appended in place when s
// ends exactly at the end of the most recently appended-to buffer; otherwise
// s is copied into a fresh buffer first.
func (a *Allocator) Extend(s value.Slice, data []byte) (value.Slice, error) {
	if len(data) == 0 {
		return s, nil
	}

	if s.Length > 0 && s.Buffer == a.last && s.End() == len(a.buffers[s.Buffer].data) {
		if _, _, err := a.Append(s.Buffer, data); err != nil {
			return value.Slice{}, err
		}
		log.Debug("extend in place", "buffer", s.Buffer, "length", s.Length+len(data))
		return value.Slice{Buffer: s.Buffer, Offset: s.Offset, Length: s.Length + len(data)}, nil
	}

	old, err := a.Bytes(s)
	if err != nil {
		return value.Slice{}, err
	}
	id, err := a.Allocate(len(old) + len(data))
	if err != nil {
		return value.Slice{}, err
	}
	off, _, err := a.Append(id, old)
	if err != nil {
		return value.Slice{}, err
	}
	if _, _, err := a.Append(id, data); err != nil {
		return value.Slice{}, err
	}
	return value.Slice{Buffer: id, Offset: off, Length: len(old) + len(data)}, nil
}

// Substring copies bytes [start, end) of s into a fresh buffer
func (a *Allocator) Substring(s value.Slice, start, end int) (value.Slice, error) {
	if start < 0 || end < start || end > s.Length {
		return value.Slice{}, errors.New(errors.PhaseExec, errors.KindOffsetOutOfRange).
			Detail("range [%d:%d] of slice with length %d", start, end, s.Length).
			Build()
	}
	data, err := a.Bytes(s)
	if err != nil {
		return value.Slice{}, err
	}
	return a.Store(data[start:end])
}
