// Package value holds the runtime representation of IR values: fixed-width
// scalars, heap slices and groups of component values.
package value

import (
	"fmt"
	"strings"

	"contractir/internal/types"
)

// Value is one of Scalar, Slice or Tuple
type Value interface {
	isValue()
	String() string
}

// NoBuffer is the buffer id of an empty slice that was never allocated
const NoBuffer = -1

// Slice is a view into a heap buffer. Length is in bytes.
type Slice struct {
	Buffer int
	Offset int
	Length int
}

// Tuple groups the component values of a tuple or fixed-length array
type Tuple []Value

func (Scalar) isValue() {}
func (Slice) isValue()  {}
func (Tuple) isValue()  {}

func (s Slice) String() string {
	return fmt.Sprintf("slice(buf%d+%d:%d)", s.Buffer, s.Offset, s.Length)
}

// End returns the offset one past the slice's last byte
func (s Slice) End() int {
	return s.Offset + s.Length
}

func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Reader resolves slices to their bytes. The heap allocator implements it.
type Reader interface {
	Bytes(s Slice) ([]byte, error)
}

// Zero returns the default value of a declared type
func Zero(t types.Type) Value {
	switch {
	case types.IsScalar(t):
		return Scalar{Width: types.Width(t)}
	case types.IsSlice(t):
		return Slice{Buffer: NoBuffer}
	case types.IsGroup(t):
		comps := types.Components(t)
		group := make(Tuple, len(comps))
		for i, c := range comps {
			group[i] = Zero(c)
		}
		return group
	}
	return nil
}

// Conforms reports whether v has the shape required by t. Slice contents are
// not inspected.
func Conforms(t types.Type, v Value) bool {
	switch vv := v.(type) {
	case Scalar:
		return types.IsScalar(t) && vv.Width == types.Width(t)
	case Slice:
		return types.IsSlice(t)
	case Tuple:
		if !types.IsGroup(t) {
			return false
		}
		comps := types.Components(t)
		if len(comps) != len(vv) {
			return false
		}
		for i, c := range comps {
			if !Conforms(c, vv[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Len returns the element count of a slice of type t
func Len(t types.Type, s Slice) int {
	stride := types.Stride(t)
	if stride == 0 {
		return 0
	}
	return s.Length / stride
}
