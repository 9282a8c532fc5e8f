package abi

import (
	"encoding/hex"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractir/internal/errors"
	"contractir/internal/heap"
	"contractir/internal/types"
	"contractir/internal/value"
)

func words(t *testing.T, ws ...string) []byte {
	t.Helper()
	out, err := hex.DecodeString(strings.Join(ws, ""))
	require.NoError(t, err)
	return out
}

func store(t *testing.T, h *heap.Allocator, data string) value.Slice {
	t.Helper()
	s, err := h.Store([]byte(data))
	require.NoError(t, err)
	return s
}

func TestEncodeBytesSoleReturn(t *testing.T) {
	h := heap.New(1024)
	b, err := h.Store([]byte{1, 2, 3})
	require.NoError(t, err)

	out, err := Encode(h, b, types.Bytes())
	require.NoError(t, err)
	assert.Equal(t, words(t,
		"0000000000000000000000000000000000000000000000000000000000000020",
		"0000000000000000000000000000000000000000000000000000000000000003",
		"0102030000000000000000000000000000000000000000000000000000000000",
	), out)
}

func TestEncodeHello(t *testing.T) {
	h := heap.New(1024)
	out, err := Encode(h, store(t, h, "Hello!"), types.String())
	require.NoError(t, err)
	assert.Equal(t, words(t,
		"0000000000000000000000000000000000000000000000000000000000000020",
		"0000000000000000000000000000000000000000000000000000000000000006",
		"48656c6c6f210000000000000000000000000000000000000000000000000000",
	), out)
}

// f(uint256,uint32[],bytes10,bytes) with (0x123, [0x456, 0x789], "1234567890", "Hello, world!")
func TestEncodeCallMatchesReferenceEncoding(t *testing.T) {
	sig, err := types.ParseSignature("f(uint256,uint32[],bytes10,bytes)")
	require.NoError(t, err)

	h := heap.New(4096)
	fixed, err := value.FixedBytes(10, []byte("1234567890"))
	require.NoError(t, err)
	args := []value.Value{
		value.Uint(256, 0x123),
		value.Tuple{value.Uint(32, 0x456), value.Uint(32, 0x789)},
		fixed,
		store(t, h, "Hello, world!"),
	}

	out, err := EncodeCall(sig, h, args)
	require.NoError(t, err)
	assert.Equal(t, words(t,
		"8be65246",
		"0000000000000000000000000000000000000000000000000000000000000123",
		"0000000000000000000000000000000000000000000000000000000000000080",
		"3132333435363738393000000000000000000000000000000000000000000000",
		"00000000000000000000000000000000000000000000000000000000000000e0",
		"0000000000000000000000000000000000000000000000000000000000000002",
		"0000000000000000000000000000000000000000000000000000000000000456",
		"0000000000000000000000000000000000000000000000000000000000000789",
		"000000000000000000000000000000000000000000000000000000000000000d",
		"48656c6c6f2c20776f726c642100000000000000000000000000000000000000",
	), out)

	decoded, err := DecodeCall(sig, out, h)
	require.NoError(t, err)
	require.Len(t, decoded, 4)
	assert.Equal(t, args[0], decoded[0])
	assert.Equal(t, args[2], decoded[2])

	elems, err := value.Elements(h, sig.Params[1], decoded[1].(value.Slice))
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Uint(32, 0x456), value.Uint(32, 0x789)}, elems)

	text, err := h.Bytes(decoded[3].(value.Slice))
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", string(text))
}

func TestSignedAndFixedBytesSlots(t *testing.T) {
	h := heap.New(64)
	minusOne, err := Encode(h, value.Int(8, -1), types.Int(8))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ff", 32), hex.EncodeToString(minusOne))

	b2, err := value.FixedBytes(2, []byte{0xab, 0xcd})
	require.NoError(t, err)
	out, err := Encode(h, b2, types.FixedBytes(2))
	require.NoError(t, err)
	assert.Equal(t, "abcd"+strings.Repeat("00", 30), hex.EncodeToString(out))

	v, next, err := Decode(minusOne, types.Int(8), 0, h)
	require.NoError(t, err)
	assert.Equal(t, 32, next)
	assert.Equal(t, value.Int(8, -1), v)
}

func TestRoundTrip(t *testing.T) {
	h := heap.New(1 << 16)

	strs, err := value.PackCell(nil, types.String(), store(t, h, "alpha"))
	require.NoError(t, err)
	strs, err = value.PackCell(strs, types.String(), store(t, h, ""))
	require.NoError(t, err)
	strs, err = value.PackCell(strs, types.String(), store(t, h, strings.Repeat("x", 40)))
	require.NoError(t, err)
	strArray, err := h.Store(strs)
	require.NoError(t, err)

	cases := []struct {
		name string
		typ  string
		v    value.Value
	}{
		{"bool", "bool", value.Bool(true)},
		{"uint8", "uint8", value.Uint(8, 200)},
		{"int256", "int256", value.Int(256, -12345)},
		{"int24", "int24", value.Int(24, -70000)},
		{"address", "address", value.Address([20]byte{0xde, 0xad, 19: 0x01})},
		{"empty bytes", "bytes", value.Slice{Buffer: value.NoBuffer}},
		{"string", "string", store(t, h, "Hello!")},
		{"long string", "string", store(t, h, strings.Repeat("abc", 30))},
		{"fixed array", "uint16[3]", value.Tuple{value.Uint(16, 1), value.Uint(16, 2), value.Uint(16, 3)}},
		{"string array", "string[]", strArray},
		{"tuple", "(uint8,string,bool)", value.Tuple{value.Uint(8, 7), store(t, h, "mid"), value.Bool(false)}},
		{"fixed array of dynamic", "string[2]", value.Tuple{store(t, h, "a"), store(t, h, "bc")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			typ := types.MustParseType(tc.typ)
			enc, err := Encode(h, tc.v, typ)
			require.NoError(t, err)
			assert.Zero(t, len(enc)%WordSize)

			input := append([]byte(nil), enc...)
			dec, next, err := Decode(enc, typ, 0, h)
			require.NoError(t, err)
			assert.Equal(t, HeadSize(typ), next)
			assert.Equal(t, input, enc, "decoding never modifies its input")

			equal, err := value.Equal(h, typ, tc.v, dec)
			require.NoError(t, err)
			assert.True(t, equal, "round trip of %s", tc.typ)

			again, err := Encode(h, dec, typ)
			require.NoError(t, err)
			assert.Equal(t, enc, again, "encoding is idempotent")
		})
	}
}

func TestDecodeAllocatesFreshBuffers(t *testing.T) {
	h := heap.New(1024)
	enc, err := Encode(h, store(t, h, "shared"), types.String())
	require.NoError(t, err)

	a, _, err := Decode(enc, types.String(), 0, h)
	require.NoError(t, err)
	b, _, err := Decode(enc, types.String(), 0, h)
	require.NoError(t, err)
	assert.NotEqual(t, a.(value.Slice).Buffer, b.(value.Slice).Buffer)
}

func TestDecodeTruncated(t *testing.T) {
	h := heap.New(4096)
	enc, err := Encode(h, store(t, h, "Hello!"), types.String())
	require.NoError(t, err)

	_, _, err = Decode(enc[:len(enc)-1], types.String(), 0, h)
	assert.True(t, stderrors.Is(err, errors.TruncatedEncoding), "got %v", err)

	for n := 0; n < len(enc); n++ {
		_, _, err := Decode(enc[:n], types.String(), 0, h)
		assert.True(t, stderrors.Is(err, errors.TruncatedEncoding), "prefix of %d bytes: %v", n, err)
	}
}

func TestDecodeTailPadding(t *testing.T) {
	h := heap.New(4096)
	enc, err := Encode(h, store(t, h, "Hello!"), types.String())
	require.NoError(t, err)

	// payload complete, padding cut short
	_, _, err = Decode(enc[:len(enc)-WordSize+len("Hello!")], types.String(), 0, h)
	assert.True(t, stderrors.Is(err, errors.TruncatedEncoding), "got %v", err)

	dirty := append([]byte(nil), enc...)
	dirty[len(dirty)-1] = 0xff
	v, _, err := Decode(dirty, types.String(), 0, h)
	require.NoError(t, err)
	text, err := h.Bytes(v.(value.Slice))
	require.NoError(t, err)
	assert.Equal(t, "Hello!", string(text))
}

func TestDecodeHugeLength(t *testing.T) {
	h := heap.New(1024)
	data := words(t,
		"0000000000000000000000000000000000000000000000000000000000000020",
		"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
	)
	_, _, err := Decode(data, types.DynArray(types.Uint(256)), 0, h)
	assert.True(t, stderrors.Is(err, errors.TruncatedEncoding), "got %v", err)
	assert.Zero(t, h.Stats().Used)
}

func TestDecodeOffsetOutOfRange(t *testing.T) {
	h := heap.New(1024)
	data := words(t,
		"0000000000000000000000000000000000000000000000000000000000001000",
		"0000000000000000000000000000000000000000000000000000000000000000",
	)
	_, _, err := Decode(data, types.Bytes(), 0, h)
	assert.True(t, stderrors.Is(err, errors.OffsetOutOfRange), "got %v", err)

	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, []string{"arg0"}, e.Path)
}

func TestDecodeDirtyPadding(t *testing.T) {
	h := heap.New(64)
	cases := []struct {
		typ  types.Type
		word string
	}{
		{types.Uint(8), "0000000000000000000000000000000000000000000000000000000000000100"},
		{types.Bool(), "0000000000000000000000000000000000000000000000000000000000000002"},
		{types.Int(8), "00000000000000000000000000000000000000000000000000000000000000ff"},
		{types.Address(), "0000000000000000000000010000000000000000000000000000000000000000"},
		{types.FixedBytes(1), "ab00000000000000000000000000000000000000000000000000000000000001"},
	}
	for _, tc := range cases {
		_, _, err := Decode(words(t, tc.word), tc.typ, 0, h)
		assert.True(t, stderrors.Is(err, errors.InvalidData), "%s: %v", tc.typ, err)
	}
}

func TestEncodeFixedCapacityExceeded(t *testing.T) {
	h := heap.New(1024)
	_, err := Encode(h, value.Tuple{value.Uint(8, 1), value.Uint(8, 2), value.Uint(8, 3)}, types.Array(types.Uint(8), 2))
	assert.True(t, stderrors.Is(err, errors.FixedCapacityExceeded), "got %v", err)

	_, err = Encode(h, store(t, h, "too long"), types.FixedBytes(4))
	assert.True(t, stderrors.Is(err, errors.FixedCapacityExceeded), "got %v", err)
}

func TestEncodeTypeMismatch(t *testing.T) {
	h := heap.New(64)
	_, err := Encode(h, value.Uint(16, 1), types.Uint(8))
	assert.True(t, stderrors.Is(err, errors.TypeMismatch))

	_, err = EncodeArgs(h, []value.Value{value.Bool(true)}, nil)
	assert.True(t, stderrors.Is(err, errors.TypeMismatch))
}

func TestCallSelector(t *testing.T) {
	sig, err := types.ParseSignature("transfer(address,uint256)")
	require.NoError(t, err)

	h := heap.New(64)
	out, err := EncodeCall(sig, h, []value.Value{value.Address([20]byte{}), value.Uint(256, 1)})
	require.NoError(t, err)
	assert.Equal(t, "a9059cbb", hex.EncodeToString(out[:4]))

	out[0] ^= 0xff
	_, err = DecodeCall(sig, out, h)
	assert.True(t, stderrors.Is(err, errors.InvalidData))

	_, err = DecodeCall(sig, out[:2], h)
	assert.True(t, stderrors.Is(err, errors.TruncatedEncoding))
}
