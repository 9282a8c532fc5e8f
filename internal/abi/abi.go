// Package abi converts values of declared types to and from the head/tail
// layout used at call boundaries. Every word is 32 bytes, big-endian. Static
// values sit in the head; dynamic values leave an offset in the head and put
// their bytes in the tail, in head-slot order.
package abi

import (
	"strconv"

	"github.com/holiman/uint256"
	"github.com/tliron/commonlog"

	"contractir/internal/errors"
	"contractir/internal/types"
	"contractir/internal/value"
)

var log = commonlog.GetLogger("contractir.abi")

// WordSize is the size of one head slot or length prefix
const WordSize = 32

// Storer allocates fresh slices for decoded dynamic values. The heap
// allocator implements it.
type Storer interface {
	value.Reader
	Store(data []byte) (value.Slice, error)
}

// HeadSize is the number of head bytes a value of type t occupies in its
// enclosing sequence
func HeadSize(t types.Type) int {
	if t.IsDynamic() {
		return WordSize
	}
	if types.IsGroup(t) {
		size := 0
		for _, c := range types.Components(t) {
			size += HeadSize(c)
		}
		return size
	}
	return WordSize
}

func padded(n int) int {
	return (n + WordSize - 1) / WordSize * WordSize
}

// lowMask has the low width bits set
func lowMask(width int) *uint256.Int {
	if width >= 256 {
		return new(uint256.Int).SetAllOne()
	}
	m := new(uint256.Int).Lsh(uint256.NewInt(1), uint(width))
	return m.Sub(m, uint256.NewInt(1))
}

func signed(t types.Type) bool {
	it, ok := t.(*types.IntType)
	return ok && it.Signed
}

// argPath names the i-th element of a top-level sequence
func argPath(i int) []string {
	return []string{"arg" + itoa(i)}
}

func child(path []string, step string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, step)
}

func index(path []string, i int) []string {
	return child(path, "["+itoa(i)+"]")
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func mismatch(phase errors.Phase, path []string, t types.Type, v value.Value) error {
	got := "nothing"
	switch v.(type) {
	case value.Scalar:
		got = "scalar"
	case value.Slice:
		got = "slice"
	case value.Tuple:
		got = "tuple"
	}
	return errors.Mismatch(phase, path, t, got)
}
