package types

import (
	"fmt"
	"strings"
)

// Declared types as handed over by the type checker. The set is closed:
// every consumer dispatches with a type switch over the concrete types below.

// Type is a declared type. String returns the canonical ABI spelling.
type Type interface {
	String() string
	// IsDynamic reports whether values of the type are encoded in the tail
	IsDynamic() bool
}

// DynamicLength marks an ArrayType without a fixed length
const DynamicLength = -1

type BoolType struct{}

// IntType covers intN and uintN. Wrapping opts out of overflow checks.
type IntType struct {
	Bits     int
	Signed   bool
	Wrapping bool
}

type AddressType struct{}

// FixedBytesType is bytesN, 1 <= Size <= 32
type FixedBytesType struct {
	Size int
}

type BytesType struct{}

type StringType struct{}

// ArrayType is T[k] (Length >= 0) or T[] (Length == DynamicLength)
type ArrayType struct {
	Elem   Type
	Length int
}

type TupleType struct {
	Elements []Type
}

func (*BoolType) String() string    { return "bool" }
func (*AddressType) String() string { return "address" }
func (*BytesType) String() string   { return "bytes" }
func (*StringType) String() string  { return "string" }
func (f *FixedBytesType) String() string {
	return fmt.Sprintf("bytes%d", f.Size)
}
func (i *IntType) String() string {
	if i.Signed {
		return fmt.Sprintf("int%d", i.Bits)
	}
	return fmt.Sprintf("uint%d", i.Bits)
}
func (a *ArrayType) String() string {
	if a.Length == DynamicLength {
		return a.Elem.String() + "[]"
	}
	return fmt.Sprintf("%s[%d]", a.Elem.String(), a.Length)
}
func (t *TupleType) String() string {
	parts := make([]string, len(t.Elements))
	for i, elem := range t.Elements {
		parts[i] = elem.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (*BoolType) IsDynamic() bool       { return false }
func (*IntType) IsDynamic() bool        { return false }
func (*AddressType) IsDynamic() bool    { return false }
func (*FixedBytesType) IsDynamic() bool { return false }
func (*BytesType) IsDynamic() bool      { return true }
func (*StringType) IsDynamic() bool     { return true }
func (a *ArrayType) IsDynamic() bool {
	return a.Length == DynamicLength || a.Elem.IsDynamic()
}
func (t *TupleType) IsDynamic() bool {
	for _, elem := range t.Elements {
		if elem.IsDynamic() {
			return true
		}
	}
	return false
}

// Convenience constructors

func Bool() Type                  { return &BoolType{} }
func Address() Type               { return &AddressType{} }
func String() Type                { return &StringType{} }
func Bytes() Type                 { return &BytesType{} }
func Uint(bits int) *IntType      { return &IntType{Bits: bits} }
func Int(bits int) *IntType       { return &IntType{Bits: bits, Signed: true} }
func FixedBytes(size int) Type    { return &FixedBytesType{Size: size} }
func Array(elem Type, n int) Type { return &ArrayType{Elem: elem, Length: n} }
func DynArray(elem Type) Type     { return &ArrayType{Elem: elem, Length: DynamicLength} }
func Tuple(elems ...Type) Type    { return &TupleType{Elements: elems} }

// IsScalar reports whether values of t are a single fixed-width word
func IsScalar(t Type) bool {
	switch t.(type) {
	case *BoolType, *IntType, *AddressType, *FixedBytesType:
		return true
	}
	return false
}

// IsSlice reports whether values of t are represented as heap slices
func IsSlice(t Type) bool {
	switch tt := t.(type) {
	case *BytesType, *StringType:
		return true
	case *ArrayType:
		return tt.Length == DynamicLength
	}
	return false
}

// IsGroup reports whether values of t are a group of component values
// (tuples and fixed-length arrays)
func IsGroup(t Type) bool {
	switch tt := t.(type) {
	case *TupleType:
		return true
	case *ArrayType:
		return tt.Length != DynamicLength
	}
	return false
}

// Width returns the bit width of a scalar type, 0 for non-scalars
func Width(t Type) int {
	switch tt := t.(type) {
	case *BoolType:
		return 8
	case *IntType:
		return tt.Bits
	case *AddressType:
		return 160
	case *FixedBytesType:
		return tt.Size * 8
	}
	return 0
}

// Components returns the component types of a group type
func Components(t Type) []Type {
	switch tt := t.(type) {
	case *TupleType:
		return tt.Elements
	case *ArrayType:
		if tt.Length == DynamicLength {
			return nil
		}
		elems := make([]Type, tt.Length)
		for i := range elems {
			elems[i] = tt.Elem
		}
		return elems
	}
	return nil
}

// ElemType returns the element type of an indexable type: bytes1 for
// bytes/bytesN, the element type for arrays
func ElemType(t Type) (Type, bool) {
	switch tt := t.(type) {
	case *BytesType, *FixedBytesType:
		return FixedBytes(1), true
	case *ArrayType:
		return tt.Elem, true
	}
	return nil, false
}

// CellSize is the number of heap bytes one element of type t occupies when
// stored inside a dynamic array slice. Scalars take one 32-byte word, slices a
// 24-byte handle, groups the sum of their components.
func CellSize(t Type) int {
	switch {
	case IsScalar(t):
		return 32
	case IsSlice(t):
		return 24
	case IsGroup(t):
		size := 0
		for _, c := range Components(t) {
			size += CellSize(c)
		}
		return size
	}
	return 0
}

// Equal reports structural type equality, ignoring the Wrapping flag
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// Stride is the number of heap bytes per element of a slice-typed container:
// one for bytes and string, CellSize of the element for dynamic arrays
func Stride(t Type) int {
	switch tt := t.(type) {
	case *BytesType, *StringType:
		return 1
	case *ArrayType:
		return CellSize(tt.Elem)
	}
	return 0
}
