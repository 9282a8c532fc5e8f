package value

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"contractir/internal/errors"
	"contractir/internal/types"
)

// Scalar is a fixed-width word. Bits holds the two's-complement bit pattern
// truncated to Width; bytesN values occupy the low Width bits, big-endian.
type Scalar struct {
	Width int
	Bits  uint256.Int
}

// Uint builds an unsigned scalar
func Uint(width int, v uint64) Scalar {
	s := Scalar{Width: width}
	s.Bits.SetUint64(v)
	s.truncate()
	return s
}

// Int builds a signed scalar from a machine integer
func Int(width int, v int64) Scalar {
	s := Scalar{Width: width}
	s.Bits.SetUint64(uint64(v))
	if v < 0 {
		// sign-extend into the upper limbs before truncating
		for i := 1; i < len(s.Bits); i++ {
			s.Bits[i] = ^uint64(0)
		}
	}
	s.truncate()
	return s
}

// Bool builds a bool scalar (width 8)
func Bool(b bool) Scalar {
	if b {
		return Uint(8, 1)
	}
	return Uint(8, 0)
}

// Address builds an address scalar
func Address(addr [20]byte) Scalar {
	s := Scalar{Width: 160}
	s.Bits.SetBytes(addr[:])
	return s
}

// FixedBytes builds a bytesN scalar from exactly n bytes
func FixedBytes(n int, b []byte) (Scalar, error) {
	if n < 1 || n > 32 || len(b) != n {
		return Scalar{}, errors.New(errors.PhaseExec, errors.KindTypeMismatch).
			Detail("bytes%d built from %d bytes", n, len(b)).
			Build()
	}
	s := Scalar{Width: n * 8}
	s.Bits.SetBytes(b)
	return s, nil
}

// FromBig builds a scalar of type t from an arbitrary-precision integer. The
// value must be representable in t.
func FromBig(t types.Type, x *big.Int) (Scalar, error) {
	width := types.Width(t)
	if width == 0 {
		return Scalar{}, errors.Mismatch(errors.PhaseBuild, nil, t, "integer literal")
	}
	if !fitsBig(t, x) {
		return Scalar{}, errors.New(errors.PhaseBuild, errors.KindOverflow).
			Type(t).
			Detail("literal %s out of range", x.String()).
			Build()
	}
	return fromBigTruncated(width, x), nil
}

func fromBigTruncated(width int, x *big.Int) Scalar {
	pattern := new(big.Int).And(x, bigMask(width))
	bits, _ := uint256.FromBig(pattern)
	return Scalar{Width: width, Bits: *bits}
}

// IsTrue reports whether the scalar is non-zero
func (s Scalar) IsTrue() bool {
	return !s.Bits.IsZero()
}

// Uint64 returns the low 64 bits and whether the value fits
func (s Scalar) Uint64() (uint64, bool) {
	return s.Bits.Uint64(), s.Bits.IsUint64()
}

// Big returns the integer value, sign-extended when signed is set
func (s Scalar) Big(signed bool) *big.Int {
	x := s.Bits.ToBig()
	if signed && s.Width > 0 && x.Bit(s.Width-1) == 1 {
		x.Sub(x, new(big.Int).Lsh(big.NewInt(1), uint(s.Width)))
	}
	return x
}

// Word returns the 32-byte big-endian form of the bit pattern
func (s Scalar) Word() [32]byte {
	return s.Bits.Bytes32()
}

// Equal compares width and bit pattern
func (s Scalar) Equal(o Scalar) bool {
	return s.Width == o.Width && s.Bits.Eq(&o.Bits)
}

func (s Scalar) String() string {
	return fmt.Sprintf("%s:w%d", s.Bits.ToBig().String(), s.Width)
}

// Format renders the scalar according to its declared type
func Format(t types.Type, s Scalar) string {
	switch tt := t.(type) {
	case *types.BoolType:
		return fmt.Sprintf("%t", s.IsTrue())
	case *types.IntType:
		return s.Big(tt.Signed).String()
	case *types.AddressType, *types.FixedBytesType:
		word := s.Word()
		return fmt.Sprintf("0x%x", word[32-s.Width/8:])
	}
	return s.String()
}

func (s *Scalar) truncate() {
	if s.Width >= 256 {
		return
	}
	s.Bits.And(&s.Bits, mask(s.Width))
}

// signExtend returns the 256-bit two's-complement form of a signed pattern
func (s Scalar) signExtend() *uint256.Int {
	out := new(uint256.Int).Set(&s.Bits)
	if s.Width < 256 {
		out.ExtendSign(out, uint256.NewInt(uint64(s.Width/8-1)))
	}
	return out
}

func mask(width int) *uint256.Int {
	if width >= 256 {
		return new(uint256.Int).SetAllOne()
	}
	m := new(uint256.Int).Lsh(uint256.NewInt(1), uint(width))
	return m.SubUint64(m, 1)
}

func bigMask(width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return m.Sub(m, big.NewInt(1))
}

// fitsBig reports whether x is representable in scalar type t
func fitsBig(t types.Type, x *big.Int) bool {
	width := types.Width(t)
	if it, ok := t.(*types.IntType); ok && it.Signed {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
		return x.Cmp(new(big.Int).Neg(limit)) >= 0 && x.Cmp(limit) < 0
	}
	return x.Sign() >= 0 && x.BitLen() <= width
}
