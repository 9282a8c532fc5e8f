package abi

import (
	"bytes"

	"contractir/internal/errors"
	"contractir/internal/types"
	"contractir/internal/value"
)

// SelectorSize is the length of the function selector prefixing call data
const SelectorSize = 4

// EncodeCall prefixes the encoded arguments with the selector of sig
func EncodeCall(sig *types.Signature, r value.Reader, args []value.Value) ([]byte, error) {
	sel := sig.Selector()
	body, err := EncodeArgs(r, args, sig.Params)
	if err != nil {
		return nil, errors.WithFunction(err, sig.Name)
	}
	return append(sel[:], body...), nil
}

// DecodeCall checks the selector of data against sig and decodes the
// arguments that follow it
func DecodeCall(sig *types.Signature, data []byte, alloc Storer) ([]value.Value, error) {
	if len(data) < SelectorSize {
		return nil, errors.WithFunction(errors.Truncated([]string{"selector"}, 0, SelectorSize, len(data)), sig.Name)
	}
	sel := sig.Selector()
	if !bytes.Equal(data[:SelectorSize], sel[:]) {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Function(sig.Name).
			Path("selector").
			Detail("got 0x%x, %s has 0x%x", data[:SelectorSize], sig.Canonical(), sel).
			Build()
	}
	args, err := DecodeArgs(data[SelectorSize:], sig.Params, alloc)
	if err != nil {
		return nil, errors.WithFunction(err, sig.Name)
	}
	return args, nil
}
