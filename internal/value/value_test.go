package value

import (
	stderrors "errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractir/internal/errors"
	"contractir/internal/types"
)

// bufReader serves slices out of an in-memory buffer table
type bufReader map[int][]byte

func (r bufReader) Bytes(s Slice) ([]byte, error) {
	if s.Length == 0 {
		return nil, nil
	}
	return r[s.Buffer][s.Offset:s.End()], nil
}

func TestScalarConstructors(t *testing.T) {
	assert.Equal(t, "255", Format(types.Uint(8), Uint(8, 255)))
	assert.Equal(t, "0", Format(types.Uint(8), Uint(8, 256)), "constructor truncates to width")
	assert.Equal(t, "-1", Format(types.Int(8), Int(8, -1)))
	assert.Equal(t, "-128", Format(types.Int(8), Int(8, -128)))
	assert.Equal(t, "true", Format(types.Bool(), Bool(true)))

	neg := Int(16, -2)
	assert.Equal(t, "65534", neg.Bits.ToBig().String(), "negative values are stored as two's complement")

	fb, err := FixedBytes(2, []byte{0xab, 0xcd})
	require.NoError(t, err)
	assert.Equal(t, "0xabcd", Format(types.FixedBytes(2), fb))

	_, err = FixedBytes(2, []byte{1})
	assert.Error(t, err)
}

func TestFromBig(t *testing.T) {
	s, err := FromBig(types.Int(8), big.NewInt(-128))
	require.NoError(t, err)
	assert.Equal(t, int64(-128), s.Big(true).Int64())

	_, err = FromBig(types.Int(8), big.NewInt(128))
	assert.True(t, stderrors.Is(err, errors.Overflow))

	_, err = FromBig(types.Uint(8), big.NewInt(-1))
	assert.True(t, stderrors.Is(err, errors.Overflow))

	_, err = FromBig(types.String(), big.NewInt(1))
	assert.True(t, stderrors.Is(err, errors.TypeMismatch))
}

func TestCheckedArithmetic(t *testing.T) {
	u8 := types.Uint(8)
	i8 := types.Int(8)

	tests := []struct {
		name     string
		op       Op
		typ      *types.IntType
		a, b     Scalar
		expected string
		err      *errors.Error
	}{
		{"add", OpAdd, u8, Uint(8, 200), Uint(8, 55), "255", nil},
		{"add overflow", OpAdd, u8, Uint(8, 200), Uint(8, 56), "", errors.Overflow},
		{"sub underflow", OpSub, u8, Uint(8, 1), Uint(8, 2), "", errors.Overflow},
		{"signed sub", OpSub, i8, Int(8, -100), Int(8, 28), "-128", nil},
		{"signed sub overflow", OpSub, i8, Int(8, -100), Int(8, 29), "", errors.Overflow},
		{"mul", OpMul, i8, Int(8, -8), Int(8, 16), "-128", nil},
		{"signed div truncates", OpDiv, i8, Int(8, -7), Int(8, 2), "-3", nil},
		{"min div minus one", OpDiv, i8, Int(8, -128), Int(8, -1), "", errors.Overflow},
		{"signed mod", OpMod, i8, Int(8, -7), Int(8, 2), "-1", nil},
		{"div by zero", OpDiv, u8, Uint(8, 1), Uint(8, 0), "", errors.DivisionByZero},
		{"exp", OpExp, u8, Uint(8, 2), Uint(8, 7), "128", nil},
		{"exp overflow", OpExp, u8, Uint(8, 2), Uint(8, 8), "", errors.Overflow},
		{"exp zero base", OpExp, u8, Uint(8, 0), Uint(8, 200), "0", nil},
		{"exp zero exponent", OpExp, u8, Uint(8, 0), Uint(8, 0), "1", nil},
		{"exp minus one", OpExp, i8, Int(8, -1), Int(8, 101), "-1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Arith(tt.op, tt.typ, tt.a, tt.b)
			if tt.err != nil {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, tt.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Format(tt.typ, got))
		})
	}
}

func TestWrappingArithmetic(t *testing.T) {
	u8 := &types.IntType{Bits: 8, Wrapping: true}
	i8 := &types.IntType{Bits: 8, Signed: true, Wrapping: true}

	got, err := Arith(OpAdd, u8, Uint(8, 255), Uint(8, 1))
	require.NoError(t, err)
	assert.Equal(t, "0", Format(u8, got))

	got, err = Arith(OpSub, i8, Int(8, -128), Int(8, 1))
	require.NoError(t, err)
	assert.Equal(t, "127", Format(i8, got))

	got, err = Arith(OpMul, u8, Uint(8, 16), Uint(8, 17))
	require.NoError(t, err)
	assert.Equal(t, "16", Format(u8, got))

	got, err = Arith(OpExp, u8, Uint(8, 3), Uint(8, 5))
	require.NoError(t, err)
	assert.Equal(t, "243", Format(u8, got))

	got, err = Arith(OpDiv, i8, Int(8, -6), Int(8, 4))
	require.NoError(t, err)
	assert.Equal(t, "-1", Format(i8, got))

	_, err = Arith(OpMod, u8, Uint(8, 1), Uint(8, 0))
	assert.True(t, stderrors.Is(err, errors.DivisionByZero), "division by zero is never wrapped")
}

func TestBitwiseAndShift(t *testing.T) {
	u8 := types.Uint(8)
	i8 := types.Int(8)

	got, err := Arith(OpShl, u8, Uint(8, 0x81), Uint(8, 1))
	require.NoError(t, err)
	assert.Equal(t, "2", Format(u8, got))

	got, err = Arith(OpShr, i8, Int(8, -8), Uint(8, 2))
	require.NoError(t, err)
	assert.Equal(t, "-2", Format(i8, got))

	got, err = Arith(OpShr, i8, Int(8, -8), Uint(8, 200))
	require.NoError(t, err)
	assert.Equal(t, "-1", Format(i8, got))

	got, err = Arith(OpXor, u8, Uint(8, 0xf0), Uint(8, 0xff))
	require.NoError(t, err)
	assert.Equal(t, "15", Format(u8, got))

	got, err = Unary(OpNot, u8, Uint(8, 0x0f))
	require.NoError(t, err)
	assert.Equal(t, "240", Format(u8, got))

	got, err = Unary(OpNeg, i8, Int(8, 5))
	require.NoError(t, err)
	assert.Equal(t, "-5", Format(i8, got))

	_, err = Unary(OpNeg, i8, Int(8, -128))
	assert.True(t, stderrors.Is(err, errors.Overflow))
}

func TestCompare(t *testing.T) {
	i8 := types.Int(8)
	u8 := types.Uint(8)

	lt, err := Compare(OpLt, i8, Int(8, -1), Int(8, 1))
	require.NoError(t, err)
	assert.True(t, lt.IsTrue())

	lt, err = Compare(OpLt, u8, Uint(8, 255), Uint(8, 1))
	require.NoError(t, err)
	assert.False(t, lt.IsTrue())

	ge, err := Compare(OpGe, u8, Uint(8, 3), Uint(8, 3))
	require.NoError(t, err)
	assert.True(t, ge.IsTrue())
}

func TestTruncate(t *testing.T) {
	got := Truncate(types.Int(8), types.Int(16), Int(8, -1))
	assert.Equal(t, "-1", Format(types.Int(16), got))

	got = Truncate(types.Uint(16), types.Uint(8), Uint(16, 0x1234))
	assert.Equal(t, "52", Format(types.Uint(8), got))
}

func TestSliceEqualityIgnoresIdentity(t *testing.T) {
	r := bufReader{
		0: []byte("xxHello!"),
		1: []byte("Hello!"),
		2: []byte("from Solang"),
	}

	a := Slice{Buffer: 0, Offset: 2, Length: 6}
	b := Slice{Buffer: 1, Offset: 0, Length: 6}
	c := Slice{Buffer: 2, Offset: 0, Length: 11}

	eq, err := Equal(r, types.String(), a, b)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equal(r, types.String(), a, c)
	require.NoError(t, err)
	assert.False(t, eq)

	empty := Slice{Buffer: NoBuffer}
	eq, err = Equal(r, types.String(), empty, Slice{Buffer: 1, Offset: 3, Length: 0})
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestCellsRoundTrip(t *testing.T) {
	elem := types.Tuple(types.Uint(64), types.String())
	v := Tuple{Uint(64, 42), Slice{Buffer: 3, Offset: 7, Length: 5}}

	cell, err := PackCell(nil, elem, v)
	require.NoError(t, err)
	assert.Len(t, cell, types.CellSize(elem))

	back, err := UnpackCell(elem, cell)
	require.NoError(t, err)
	assert.Equal(t, v, back)

	_, err = PackCell(nil, types.Uint(8), Slice{})
	assert.True(t, stderrors.Is(err, errors.TypeMismatch))
}

func TestNestedSliceEquality(t *testing.T) {
	arr := types.DynArray(types.String())

	var cellsA, cellsB []byte
	cellsA, _ = PackCell(cellsA, types.String(), Slice{Buffer: 1, Offset: 0, Length: 3})
	cellsB, _ = PackCell(cellsB, types.String(), Slice{Buffer: 2, Offset: 1, Length: 3})

	r := bufReader{
		1:  []byte("abc"),
		2:  []byte("_abc"),
		10: cellsA,
		11: cellsB,
	}

	eq, err := Equal(r, arr, Slice{Buffer: 10, Length: 24}, Slice{Buffer: 11, Length: 24})
	require.NoError(t, err)
	assert.True(t, eq, "arrays of strings compare referenced bytes")
}

func TestZeroAndConforms(t *testing.T) {
	typ := types.MustParseType("(bool,string,uint8[2])")
	z := Zero(typ)
	assert.True(t, Conforms(typ, z))
	assert.False(t, Conforms(types.Tuple(types.Bool()), z))
	assert.Equal(t, 0, Len(types.String(), z.(Tuple)[1].(Slice)))
}
