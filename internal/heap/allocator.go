// Package heap provides the bump allocator backing slice values. Buffers are
// append-only and live until the allocator is dropped.
package heap

import (
	"github.com/tliron/commonlog"

	"contractir/internal/errors"
	"contractir/internal/value"
)

var log = commonlog.GetLogger("contractir.heap")

// DefaultLimit caps the bytes a single function may reserve
const DefaultLimit = 1 << 20

type buffer struct {
	data     []byte
	reserved int
}

// Allocator owns every buffer of one function. It is not safe for concurrent
// use; each function gets its own.
type Allocator struct {
	buffers []*buffer
	limit   int
	used    int
	last    int // most recently appended-to buffer, -1 before the first write
}

// Stats summarizes allocator usage
type Stats struct {
	Buffers int
	Used    int
	Limit   int
}

// New creates an allocator that fails once more than limit bytes are
// reserved. A non-positive limit selects DefaultLimit.
func New(limit int) *Allocator {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Allocator{limit: limit, last: -1}
}

// Allocate creates an empty buffer reserving initialCapacity bytes
func (a *Allocator) Allocate(initialCapacity int) (int, error) {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	if err := a.reserve(initialCapacity); err != nil {
		return value.NoBuffer, err
	}

	id := len(a.buffers)
	a.buffers = append(a.buffers, &buffer{
		data:     make([]byte, 0, initialCapacity),
		reserved: initialCapacity,
	})
	log.Debug("allocate", "buffer", id, "capacity", initialCapacity)
	return id, nil
}

// Append adds bytes to the end of a buffer and returns where they landed
func (a *Allocator) Append(id int, data []byte) (offset, length int, err error) {
	buf, err := a.buffer(id)
	if err != nil {
		return 0, 0, err
	}

	offset = len(buf.data)
	if grow := offset + len(data) - buf.reserved; grow > 0 {
		if err := a.reserve(grow); err != nil {
			return 0, 0, err
		}
		buf.reserved += grow
	}

	buf.data = append(buf.data, data...)
	a.last = id
	return offset, len(data), nil
}

// GrowInPlace extends a buffer by extra zero bytes. It refuses, returning
// false, unless id is the most recently appended-to buffer.
func (a *Allocator) GrowInPlace(id int, extra int) (bool, error) {
	if _, err := a.buffer(id); err != nil {
		return false, err
	}
	if id != a.last {
		return false, nil
	}
	if _, _, err := a.Append(id, make([]byte, extra)); err != nil {
		return false, err
	}
	return true, nil
}

// Bytes returns the bytes addressed by s. The result must not be modified.
func (a *Allocator) Bytes(s value.Slice) ([]byte, error) {
	if s.Length == 0 {
		return nil, nil
	}
	buf, err := a.buffer(s.Buffer)
	if err != nil {
		return nil, err
	}
	if s.Offset < 0 || s.End() > len(buf.data) {
		return nil, errors.New(errors.PhaseAlloc, errors.KindBrokenInvariant).
			Detail("%s outside buffer of %d bytes", s, len(buf.data)).
			Build()
	}
	return buf.data[s.Offset:s.End():s.End()], nil
}

// Stats reports current usage
func (a *Allocator) Stats() Stats {
	return Stats{Buffers: len(a.buffers), Used: a.used, Limit: a.limit}
}

// Clone copies every buffer into a new allocator with the given limit.
// Slices valid in a stay valid in the clone.
func (a *Allocator) Clone(limit int) (*Allocator, error) {
	c := New(limit)
	for _, buf := range a.buffers {
		if err := c.reserve(buf.reserved); err != nil {
			return nil, err
		}
		data := make([]byte, len(buf.data), buf.reserved)
		copy(data, buf.data)
		c.buffers = append(c.buffers, &buffer{data: data, reserved: buf.reserved})
	}
	c.last = a.last
	return c, nil
}

func (a *Allocator) reserve(n int) error {
	if a.used+n > a.limit {
		log.Warning("allocation exhausted", "requested", n, "used", a.used, "limit", a.limit)
		return errors.Exhausted(n, a.used, a.limit)
	}
	a.used += n
	return nil
}

func (a *Allocator) buffer(id int) (*buffer, error) {
	if id < 0 || id >= len(a.buffers) {
		return nil, errors.New(errors.PhaseAlloc, errors.KindBrokenInvariant).
			Detail("unknown buffer %d", id).
			Build()
	}
	return a.buffers[id], nil
}
