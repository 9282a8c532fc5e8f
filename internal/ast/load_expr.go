package ast

import (
	"math/big"

	"gopkg.in/yaml.v3"

	"contractir/internal/errors"
	"contractir/internal/types"
)

var exprKinds = []string{
	"number", "string", "hex", "address", "ref", "unary", "binary", "concat",
	"len", "index", "substring", "tuple", "array", "cond", "cast",
}

var (
	arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true, "**": true}
	bitwiseOps    = map[string]bool{"&": true, "|": true, "^": true}
	shiftOps      = map[string]bool{"<<": true, ">>": true}
	comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}
	logicalOps    = map[string]bool{"&&": true, "||": true}
)

// expr resolves an expression. want types untyped literals and may be nil.
func (l *loader) expr(n *yaml.Node, want types.Type) (Expr, error) {
	if n == nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidUnit).
			Function(l.function).
			Detail("missing expression").
			Build()
	}
	pos := l.pos(n)

	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!int":
			return l.number(n, n.Value, want)
		case "!!bool":
			return &BoolLit{Pos: pos, Value: n.Value == "true"}, nil
		case "!!str":
			v, err := l.lookup(n, n)
			if err != nil {
				return nil, err
			}
			return &RefExpr{Pos: pos, Var: v}, nil
		}
		return nil, l.fail(n, errors.KindInvalidUnit, "unexpected scalar %q", n.Value)
	case yaml.SequenceNode:
		return l.tuple(n, n.Content, want)
	case yaml.MappingNode:
	default:
		return nil, l.fail(n, errors.KindInvalidUnit, "expected an expression")
	}

	f, err := l.mapping(n)
	if err != nil {
		return nil, err
	}

	kind := ""
	for _, k := range exprKinds {
		if _, ok := f[k]; ok {
			kind = k
			break
		}
	}

	switch kind {
	case "number":
		if t, ok := f["type"]; ok {
			if want, err = l.typeOf(t, n); err != nil {
				return nil, err
			}
		}
		return l.number(n, f["number"].Value, want)

	case "string":
		return &StringLit{Pos: pos, Type: types.String(), Value: []byte(f["string"].Value)}, nil

	case "hex":
		data, err := parseHex(f["hex"].Value)
		if err != nil {
			return nil, l.fail(n, errors.KindInvalidUnit, "invalid hex literal %q", f["hex"].Value)
		}
		if fb, ok := want.(*types.FixedBytesType); ok && fb.Size == len(data) {
			return &NumberLit{Pos: pos, Type: fb, Value: new(big.Int).SetBytes(data)}, nil
		}
		return &StringLit{Pos: pos, Type: types.Bytes(), Value: data}, nil

	case "address":
		data, err := parseHex(f["address"].Value)
		if err != nil || len(data) != 20 {
			return nil, l.fail(n, errors.KindInvalidUnit, "invalid address %q", f["address"].Value)
		}
		lit := &AddressLit{Pos: pos}
		copy(lit.Value[:], data)
		return lit, nil

	case "ref":
		v, err := l.lookup(f["ref"], n)
		if err != nil {
			return nil, err
		}
		return &RefExpr{Pos: pos, Var: v}, nil

	case "unary":
		return l.unary(n, f, want)

	case "binary":
		return l.binary(n, f, want)

	case "concat":
		parts := f["concat"]
		if parts.Kind != yaml.SequenceNode || len(parts.Content) < 2 {
			return nil, l.fail(n, errors.KindInvalidUnit, "concat needs at least two operands")
		}
		return l.concat(n, parts.Content, want)

	case "len":
		v, err := l.expr(f["len"], nil)
		if err != nil {
			return nil, err
		}
		t := v.ExprType()
		if !types.IsSlice(t) && !types.IsGroup(t) {
			if _, ok := t.(*types.FixedBytesType); !ok {
				return nil, l.fail(n, errors.KindTypeMismatch, "length of %s", t)
			}
		}
		return &LenExpr{Pos: pos, Value: v}, nil

	case "index":
		target, err := l.expr(f["index"], nil)
		if err != nil {
			return nil, err
		}
		elem, ok := types.ElemType(target.ExprType())
		if !ok {
			return nil, l.fail(n, errors.KindTypeMismatch, "cannot index %s", target.ExprType())
		}
		idx, err := l.expr(f["at"], types.Uint(256))
		if err != nil {
			return nil, err
		}
		if _, ok := idx.ExprType().(*types.IntType); !ok {
			return nil, l.fail(n, errors.KindTypeMismatch, "index of type %s", idx.ExprType())
		}
		return &IndexExpr{Pos: pos, Type: elem, Target: target, Index: idx}, nil

	case "substring":
		target, err := l.expr(f["substring"], want)
		if err != nil {
			return nil, err
		}
		switch target.ExprType().(type) {
		case *types.StringType, *types.BytesType:
		default:
			return nil, l.fail(n, errors.KindTypeMismatch, "substring of %s", target.ExprType())
		}
		start, err := l.typed(f["start"], types.Uint(256))
		if err != nil {
			return nil, err
		}
		end, err := l.typed(f["end"], types.Uint(256))
		if err != nil {
			return nil, err
		}
		return &SubstringExpr{Pos: pos, Type: target.ExprType(), Target: target, Start: start, End: end}, nil

	case "tuple":
		return l.tuple(n, f["tuple"].Content, want)

	case "array":
		return l.array(n, f["array"].Content, want)

	case "cond":
		c, err := l.typed(f["cond"], types.Bool())
		if err != nil {
			return nil, err
		}
		then, err := l.expr(f["then"], want)
		if err != nil {
			return nil, err
		}
		els, err := l.typed(f["else"], then.ExprType())
		if err != nil {
			return nil, err
		}
		return &CondExpr{Pos: pos, Type: then.ExprType(), Cond: c, Then: then, Else: els}, nil

	case "cast":
		to, err := l.typeOf(f["type"], n)
		if err != nil {
			return nil, err
		}
		v, err := l.expr(f["cast"], to)
		if err != nil {
			return nil, err
		}
		_, fromInt := v.ExprType().(*types.IntType)
		_, toInt := to.(*types.IntType)
		if !fromInt || !toInt {
			return nil, l.fail(n, errors.KindTypeMismatch, "cannot convert %s to %s", v.ExprType(), to)
		}
		return &CastExpr{Pos: pos, Type: to, Value: v}, nil
	}

	return nil, l.fail(n, errors.KindInvalidUnit, "unknown expression")
}

func (l *loader) number(n *yaml.Node, text string, want types.Type) (Expr, error) {
	x, err := parseNumber(text)
	if err != nil {
		return nil, l.fail(n, errors.KindInvalidUnit, "%v", err)
	}
	if want == nil || !types.IsScalar(want) {
		want = types.Uint(256)
		if x.Sign() < 0 {
			want = types.Int(256)
		}
	}
	if _, isBool := want.(*types.BoolType); isBool {
		return nil, l.fail(n, errors.KindTypeMismatch, "number used as bool")
	}
	return &NumberLit{Pos: l.pos(n), Type: want, Value: x}, nil
}

func (l *loader) unary(n *yaml.Node, f map[string]*yaml.Node, want types.Type) (Expr, error) {
	op := f["unary"].Value
	if op == "-" {
		op = "neg"
	}

	switch op {
	case "!":
		v, err := l.typed(f["value"], types.Bool())
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: l.pos(n), Type: types.Bool(), Op: op, Value: v}, nil
	case "neg", "~":
		v, err := l.expr(f["value"], want)
		if err != nil {
			return nil, err
		}
		if op == "neg" {
			if _, ok := v.ExprType().(*types.IntType); !ok {
				return nil, l.fail(n, errors.KindTypeMismatch, "negation of %s", v.ExprType())
			}
		} else if !types.IsScalar(v.ExprType()) {
			return nil, l.fail(n, errors.KindTypeMismatch, "bitwise not of %s", v.ExprType())
		}
		return &UnaryExpr{Pos: l.pos(n), Type: v.ExprType(), Op: op, Value: v}, nil
	}
	return nil, l.fail(n, errors.KindInvalidUnit, "unknown unary operator %q", op)
}

func (l *loader) binary(n *yaml.Node, f map[string]*yaml.Node, want types.Type) (Expr, error) {
	op := f["binary"].Value
	pos := l.pos(n)

	switch {
	case logicalOps[op]:
		left, err := l.typed(f["left"], types.Bool())
		if err != nil {
			return nil, err
		}
		right, err := l.typed(f["right"], types.Bool())
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Pos: pos, Type: types.Bool(), Op: op, Left: left, Right: right}, nil

	case shiftOps[op]:
		left, err := l.expr(f["left"], want)
		if err != nil {
			return nil, err
		}
		right, err := l.expr(f["right"], nil)
		if err != nil {
			return nil, err
		}
		if !types.IsScalar(left.ExprType()) {
			return nil, l.fail(n, errors.KindTypeMismatch, "shift of %s", left.ExprType())
		}
		if _, ok := right.ExprType().(*types.IntType); !ok {
			return nil, l.fail(n, errors.KindTypeMismatch, "shift amount of type %s", right.ExprType())
		}
		return &BinaryExpr{Pos: pos, Type: left.ExprType(), Op: op, Left: left, Right: right}, nil

	case arithmeticOps[op], bitwiseOps[op], comparisonOps[op]:
	default:
		return nil, l.fail(n, errors.KindInvalidUnit, "unknown binary operator %q", op)
	}

	hint := want
	if comparisonOps[op] {
		hint = nil
	}
	left, right, err := l.operands(f["left"], f["right"], hint)
	if err != nil {
		return nil, err
	}
	t := left.ExprType()

	if comparisonOps[op] {
		if types.IsSlice(t) || types.IsGroup(t) {
			if op != "==" && op != "!=" {
				return nil, l.fail(n, errors.KindTypeMismatch, "operator %s on %s", op, t)
			}
		}
		return &BinaryExpr{Pos: pos, Type: types.Bool(), Op: op, Left: left, Right: right}, nil
	}

	if op == "+" {
		switch t.(type) {
		case *types.StringType, *types.BytesType:
			return &ConcatExpr{Pos: pos, Type: t, Left: left, Right: right}, nil
		}
	}
	if arithmeticOps[op] {
		if _, ok := t.(*types.IntType); !ok {
			return nil, l.fail(n, errors.KindTypeMismatch, "operator %s on %s", op, t)
		}
	} else if !types.IsScalar(t) {
		return nil, l.fail(n, errors.KindTypeMismatch, "operator %s on %s", op, t)
	}
	return &BinaryExpr{Pos: pos, Type: t, Op: op, Left: left, Right: right}, nil
}

// operands resolves both sides of a symmetric operator. A side that is an
// untyped literal takes the type of the other side.
func (l *loader) operands(ln, rn *yaml.Node, hint types.Type) (Expr, Expr, error) {
	var left, right Expr
	var err error

	if isUntypedLiteral(ln) && !isUntypedLiteral(rn) {
		if right, err = l.expr(rn, hint); err != nil {
			return nil, nil, err
		}
		if left, err = l.expr(ln, right.ExprType()); err != nil {
			return nil, nil, err
		}
	} else {
		if left, err = l.expr(ln, hint); err != nil {
			return nil, nil, err
		}
		if right, err = l.expr(rn, left.ExprType()); err != nil {
			return nil, nil, err
		}
	}

	if !types.Equal(left.ExprType(), right.ExprType()) {
		return nil, nil, l.fail(rn, errors.KindTypeMismatch, "operands %s and %s", left.ExprType(), right.ExprType())
	}
	return left, right, nil
}

func isUntypedLiteral(n *yaml.Node) bool {
	if n == nil {
		return false
	}
	if n.Kind == yaml.ScalarNode {
		return n.Tag == "!!int"
	}
	if n.Kind != yaml.MappingNode {
		return false
	}
	hasNumber, hasType := false, false
	for i := 0; i+1 < len(n.Content); i += 2 {
		switch n.Content[i].Value {
		case "number", "hex":
			hasNumber = true
		case "type":
			hasType = true
		}
	}
	return hasNumber && !hasType
}

func (l *loader) concat(n *yaml.Node, parts []*yaml.Node, want types.Type) (Expr, error) {
	left, err := l.expr(parts[0], want)
	if err != nil {
		return nil, err
	}
	t := left.ExprType()
	switch t.(type) {
	case *types.StringType, *types.BytesType:
	default:
		return nil, l.fail(n, errors.KindTypeMismatch, "concat of %s", t)
	}

	for _, p := range parts[1:] {
		right, err := l.typed(p, t)
		if err != nil {
			return nil, err
		}
		left = &ConcatExpr{Pos: l.pos(n), Type: t, Left: left, Right: right}
	}
	return left, nil
}

func (l *loader) tuple(n *yaml.Node, elems []*yaml.Node, want types.Type) (Expr, error) {
	var hints []types.Type
	if tt, ok := want.(*types.TupleType); ok && len(tt.Elements) == len(elems) {
		hints = tt.Elements
	}

	expr := &TupleExpr{Pos: l.pos(n)}
	elemTypes := make([]types.Type, len(elems))
	for i, en := range elems {
		var hint types.Type
		if hints != nil {
			hint = hints[i]
		}
		e, err := l.expr(en, hint)
		if err != nil {
			return nil, err
		}
		expr.Elements = append(expr.Elements, e)
		elemTypes[i] = e.ExprType()
	}
	expr.Type = types.Tuple(elemTypes...)
	return expr, nil
}

func (l *loader) array(n *yaml.Node, elems []*yaml.Node, want types.Type) (Expr, error) {
	if len(elems) == 0 {
		return nil, l.fail(n, errors.KindInvalidUnit, "empty array literal")
	}

	var elemType types.Type
	if at, ok := want.(*types.ArrayType); ok && at.Length == len(elems) {
		elemType = at.Elem
	}

	expr := &TupleExpr{Pos: l.pos(n)}
	for _, en := range elems {
		e, err := l.expr(en, elemType)
		if err != nil {
			return nil, err
		}
		if elemType == nil {
			elemType = e.ExprType()
		} else if !types.Equal(elemType, e.ExprType()) {
			return nil, l.fail(en, errors.KindTypeMismatch, "array element %s, expected %s", e.ExprType(), elemType)
		}
		expr.Elements = append(expr.Elements, e)
	}
	expr.Type = types.Array(elemType, len(elems))
	return expr, nil
}
