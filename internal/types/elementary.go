package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ElementaryType is the spelling of a built-in, non-composite type
type ElementaryType string

const (
	BoolName    ElementaryType = "bool"
	AddressName ElementaryType = "address"
	StringName  ElementaryType = "string"
	BytesName   ElementaryType = "bytes"
	UintName    ElementaryType = "uint"
	IntName     ElementaryType = "int"
)

// Aliases that resolve to a canonical spelling
var elementaryAliases = map[string]string{
	"uint": "uint256",
	"int":  "int256",
	"byte": "bytes1",
}

// IsElementaryType checks if a name denotes a built-in type
func IsElementaryType(name string) bool {
	_, err := Elementary(name)
	return err == nil
}

// IsIntegerType checks if a name denotes an intN or uintN type
func IsIntegerType(name string) bool {
	t, err := Elementary(name)
	if err != nil {
		return false
	}
	_, ok := t.(*IntType)
	return ok
}

// Elementary resolves a built-in type name such as "uint64" or "bytes4"
func Elementary(name string) (Type, error) {
	if alias, ok := elementaryAliases[name]; ok {
		name = alias
	}

	switch ElementaryType(name) {
	case BoolName:
		return &BoolType{}, nil
	case AddressName:
		return &AddressType{}, nil
	case StringName:
		return &StringType{}, nil
	case BytesName:
		return &BytesType{}, nil
	}

	switch {
	case strings.HasPrefix(name, string(UintName)):
		bits, err := sizeSuffix(name, string(UintName))
		if err != nil || bits%8 != 0 || bits < 8 || bits > 256 {
			return nil, fmt.Errorf("invalid integer width in %q", name)
		}
		return &IntType{Bits: bits}, nil
	case strings.HasPrefix(name, string(IntName)):
		bits, err := sizeSuffix(name, string(IntName))
		if err != nil || bits%8 != 0 || bits < 8 || bits > 256 {
			return nil, fmt.Errorf("invalid integer width in %q", name)
		}
		return &IntType{Bits: bits, Signed: true}, nil
	case strings.HasPrefix(name, string(BytesName)):
		size, err := sizeSuffix(name, string(BytesName))
		if err != nil || size < 1 || size > 32 {
			return nil, fmt.Errorf("invalid fixed bytes size in %q", name)
		}
		return &FixedBytesType{Size: size}, nil
	}

	return nil, fmt.Errorf("unknown type %q", name)
}

func sizeSuffix(name, prefix string) (int, error) {
	suffix := strings.TrimPrefix(name, prefix)
	if suffix == "" || suffix[0] == '0' {
		return 0, fmt.Errorf("missing size")
	}
	return strconv.Atoi(suffix)
}
