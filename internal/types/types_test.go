package types

import (
	"encoding/hex"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractir/internal/errors"
)

func TestParseTypeCanonical(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		dynamic  bool
	}{
		{"bool", "bool", false},
		{"uint", "uint256", false},
		{"int8", "int8", false},
		{"uint64", "uint64", false},
		{"address", "address", false},
		{"bytes32", "bytes32", false},
		{"byte", "bytes1", false},
		{"bytes", "bytes", true},
		{"string", "string", true},
		{"uint256[]", "uint256[]", true},
		{"uint8[3]", "uint8[3]", false},
		{"string[2]", "string[2]", true},
		{"(bool,string)", "(bool,string)", true},
		{"tuple(uint8, bytes4)", "(uint8,bytes4)", false},
		{"(uint8,(bool,bytes))[]", "(uint8,(bool,bytes))[]", true},
		{"uint8[2][]", "uint8[2][]", true},
		{"()", "()", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			typ, err := ParseType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, typ.String())
			assert.Equal(t, tt.dynamic, typ.IsDynamic())
		})
	}
}

func TestParseTypeWrapping(t *testing.T) {
	typ, err := ParseType("uint8 wrapping")
	require.NoError(t, err)

	it, ok := typ.(*IntType)
	require.True(t, ok)
	assert.True(t, it.Wrapping)
	assert.Equal(t, "uint8", it.String(), "wrapping is not part of the ABI name")

	_, err = ParseType("string wrapping")
	assert.Error(t, err)
}

func TestParseTypeErrors(t *testing.T) {
	inputs := []string{"uint7", "uint512", "bytes0", "bytes33", "int", "float", "uint8[", "(bool", "uint08"}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if input == "int" {
				// alias for int256
				_, err := ParseType(input)
				assert.NoError(t, err)
				return
			}
			_, err := ParseType(input)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidSignature}))
		})
	}
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature("transfer(address, uint256) returns (bool)")
	require.NoError(t, err)

	assert.Equal(t, "transfer", sig.Name)
	require.Len(t, sig.Params, 2)
	require.Len(t, sig.Returns, 1)
	assert.Equal(t, "transfer(address,uint256)", sig.Canonical())
	assert.Equal(t, "bool", sig.Returns[0].String())

	sig, err = ParseSignature("test()")
	require.NoError(t, err)
	assert.Empty(t, sig.Params)
	assert.Empty(t, sig.Returns)
}

func TestSelector(t *testing.T) {
	tests := []struct {
		signature string
		selector  string
	}{
		{"transfer(address,uint256)", "a9059cbb"},
		{"balanceOf(address)", "70a08231"},
		{"approve(address,uint256)", "095ea7b3"},
	}

	for _, tt := range tests {
		t.Run(tt.signature, func(t *testing.T) {
			sel := Selector(tt.signature)
			assert.Equal(t, tt.selector, hex.EncodeToString(sel[:]))
		})
	}
}

func TestTypeClassification(t *testing.T) {
	assert.True(t, IsScalar(Uint(8)))
	assert.True(t, IsScalar(FixedBytes(4)))
	assert.False(t, IsScalar(String()))

	assert.True(t, IsSlice(String()))
	assert.True(t, IsSlice(Bytes()))
	assert.True(t, IsSlice(DynArray(Bool())))
	assert.False(t, IsSlice(Array(Bool(), 2)))

	assert.True(t, IsGroup(Array(Bool(), 2)))
	assert.True(t, IsGroup(Tuple(Bool())))
	assert.False(t, IsGroup(DynArray(Bool())))

	assert.Equal(t, 160, Width(Address()))
	assert.Equal(t, 32, Width(FixedBytes(4)))
	assert.Len(t, Components(Array(Uint(8), 3)), 3)
}

func TestCellSizeAndStride(t *testing.T) {
	assert.Equal(t, 32, CellSize(Uint(256)))
	assert.Equal(t, 24, CellSize(String()))
	assert.Equal(t, 56, CellSize(Tuple(Bool(), Bytes())))
	assert.Equal(t, 96, CellSize(Array(Address(), 3)))

	assert.Equal(t, 1, Stride(Bytes()))
	assert.Equal(t, 1, Stride(String()))
	assert.Equal(t, 32, Stride(DynArray(Uint(64))))
	assert.Equal(t, 24, Stride(DynArray(String())))
}

func TestElementaryNames(t *testing.T) {
	assert.True(t, IsElementaryType("uint128"))
	assert.True(t, IsElementaryType("bytes16"))
	assert.False(t, IsElementaryType("U256"))
	assert.True(t, IsIntegerType("int32"))
	assert.False(t, IsIntegerType("address"))
}

func TestTypeEqual(t *testing.T) {
	assert.True(t, Equal(Uint(8), &IntType{Bits: 8, Wrapping: true}))
	assert.False(t, Equal(Uint(8), Int(8)))
	assert.True(t, Equal(DynArray(String()), MustParseType("string[]")))
}
