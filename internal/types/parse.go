package types

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"contractir/internal/errors"
)

// Grammar for ABI type strings and function signatures:
//
//	uint256  bytes32[]  (bool,string)[2]  tuple(uint8,bytes)  int8 wrapping
//	transfer(address,uint256) returns (bool)

var signatureLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[()\[\],]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

type typeExpr struct {
	Pos      lexer.Position
	Tuple    *tupleExpr `parser:"(  @@"`
	Name     string     `parser:" | @Ident )"`
	Dims     []*dimExpr `parser:"@@*"`
	Wrapping bool       `parser:"@\"wrapping\"?"`
}

type tupleExpr struct {
	Elements []*typeExpr `parser:"\"tuple\"? \"(\" ( @@ ( \",\" @@ )* )? \")\""`
}

type dimExpr struct {
	Size string `parser:"\"[\" @Int? \"]\""`
}

type signatureExpr struct {
	Name    string      `parser:"@Ident"`
	Params  []*typeExpr `parser:"\"(\" ( @@ ( \",\" @@ )* )? \")\""`
	Returns []*typeExpr `parser:"( \"returns\" \"(\" ( @@ ( \",\" @@ )* )? \")\" )?"`
}

var (
	typeParser = participle.MustBuild[typeExpr](
		participle.Lexer(signatureLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
	signatureParser = participle.MustBuild[signatureExpr](
		participle.Lexer(signatureLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
)

// Signature is a parsed function signature
type Signature struct {
	Name    string
	Params  []Type
	Returns []Type
}

// ParseType parses an ABI type string such as "uint256[]" or "(bool,string)"
func ParseType(src string) (Type, error) {
	expr, err := typeParser.ParseString("", src)
	if err != nil {
		return nil, signatureError(src, err)
	}
	t, err := expr.resolve()
	if err != nil {
		return nil, signatureError(src, err)
	}
	return t, nil
}

// MustParseType is ParseType for literals known to be valid
func MustParseType(src string) Type {
	t, err := ParseType(src)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseSignature parses "name(T1,T2) returns (R1)"
func ParseSignature(src string) (*Signature, error) {
	expr, err := signatureParser.ParseString("", src)
	if err != nil {
		return nil, signatureError(src, err)
	}

	sig := &Signature{Name: expr.Name}
	if sig.Params, err = resolveAll(expr.Params); err != nil {
		return nil, signatureError(src, err)
	}
	if sig.Returns, err = resolveAll(expr.Returns); err != nil {
		return nil, signatureError(src, err)
	}
	return sig, nil
}

func resolveAll(exprs []*typeExpr) ([]Type, error) {
	result := make([]Type, 0, len(exprs))
	for _, e := range exprs {
		t, err := e.resolve()
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

func (e *typeExpr) resolve() (Type, error) {
	var base Type
	if e.Tuple != nil {
		elems, err := resolveAll(e.Tuple.Elements)
		if err != nil {
			return nil, err
		}
		base = &TupleType{Elements: elems}
	} else {
		t, err := Elementary(e.Name)
		if err != nil {
			return nil, err
		}
		base = t
	}

	if e.Wrapping {
		it, ok := base.(*IntType)
		if !ok || len(e.Dims) > 0 {
			return nil, fmt.Errorf("wrapping applies to integer types only")
		}
		it.Wrapping = true
	}

	for _, dim := range e.Dims {
		if dim.Size == "" {
			base = &ArrayType{Elem: base, Length: DynamicLength}
			continue
		}
		n, err := strconv.Atoi(dim.Size)
		if err != nil {
			return nil, fmt.Errorf("invalid array length %q", dim.Size)
		}
		base = &ArrayType{Elem: base, Length: n}
	}
	return base, nil
}

func signatureError(src string, cause error) error {
	return errors.New(errors.PhaseType, errors.KindInvalidSignature).
		Detail("cannot parse %q", src).
		Cause(cause).
		Build()
}
