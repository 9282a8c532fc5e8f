package value

import (
	"math/big"

	"github.com/holiman/uint256"

	"contractir/internal/errors"
	"contractir/internal/types"
)

// Op is a binary or unary operator
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpMod Op = "%"
	OpExp Op = "**"
	OpAnd Op = "&"
	OpOr  Op = "|"
	OpXor Op = "^"
	OpShl Op = "<<"
	OpShr Op = ">>"

	OpEq Op = "=="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="

	OpNeg    Op = "neg"
	OpNot    Op = "~"
	OpLogNot Op = "!"
)

// IsComparison reports whether op produces a bool
func (op Op) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// IsChecked reports whether op can overflow on integer operands
func (op Op) IsChecked() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpExp, OpNeg:
		return true
	}
	return false
}

// Arith evaluates a binary operator on two scalars of type t. Integer
// arithmetic is checked unless t is a wrapping integer type.
func Arith(op Op, t types.Type, a, b Scalar) (Scalar, error) {
	width := types.Width(t)

	switch op {
	case OpAnd, OpOr, OpXor:
		out := Scalar{Width: width}
		switch op {
		case OpAnd:
			out.Bits.And(&a.Bits, &b.Bits)
		case OpOr:
			out.Bits.Or(&a.Bits, &b.Bits)
		case OpXor:
			out.Bits.Xor(&a.Bits, &b.Bits)
		}
		return out, nil
	case OpShl, OpShr:
		return shift(op, t, a, b), nil
	}

	it, ok := t.(*types.IntType)
	if !ok {
		return Scalar{}, errors.New(errors.PhaseExec, errors.KindUnsupported).
			Type(t).
			Detail("operator %s", op).
			Build()
	}

	if (op == OpDiv || op == OpMod) && b.Bits.IsZero() {
		return Scalar{}, errors.New(errors.PhaseExec, errors.KindDivisionByZero).
			Type(t).
			Build()
	}

	if it.Wrapping {
		return wrapping(op, it, a, b)
	}
	return checked(op, it, a, b)
}

func wrapping(op Op, it *types.IntType, a, b Scalar) (Scalar, error) {
	x, y := &a.Bits, &b.Bits
	if it.Signed {
		x, y = a.signExtend(), b.signExtend()
	}

	out := Scalar{Width: it.Bits}
	switch op {
	case OpAdd:
		out.Bits.Add(x, y)
	case OpSub:
		out.Bits.Sub(x, y)
	case OpMul:
		out.Bits.Mul(x, y)
	case OpDiv:
		if it.Signed {
			out.Bits.SDiv(x, y)
		} else {
			out.Bits.Div(x, y)
		}
	case OpMod:
		if it.Signed {
			out.Bits.SMod(x, y)
		} else {
			out.Bits.Mod(x, y)
		}
	case OpExp:
		out.Bits.Exp(x, &b.Bits)
	default:
		return Scalar{}, errors.New(errors.PhaseExec, errors.KindUnsupported).
			Detail("operator %s", op).
			Build()
	}
	out.truncate()
	return out, nil
}

func checked(op Op, it *types.IntType, a, b Scalar) (Scalar, error) {
	x, y := a.Big(it.Signed), b.Big(it.Signed)

	var z *big.Int
	switch op {
	case OpAdd:
		z = new(big.Int).Add(x, y)
	case OpSub:
		z = new(big.Int).Sub(x, y)
	case OpMul:
		z = new(big.Int).Mul(x, y)
	case OpDiv:
		// Quo truncates toward zero
		z = new(big.Int).Quo(x, y)
	case OpMod:
		z = new(big.Int).Rem(x, y)
	case OpExp:
		var err error
		if z, err = checkedExp(it, x, y); err != nil {
			return Scalar{}, err
		}
	default:
		return Scalar{}, errors.New(errors.PhaseExec, errors.KindUnsupported).
			Detail("operator %s", op).
			Build()
	}

	if !fitsBig(it, z) {
		return Scalar{}, overflow(op, it)
	}
	return fromBigTruncated(it.Bits, z), nil
}

// checkedExp bounds the exponent before computing so that huge exponents do
// not allocate huge intermediates
func checkedExp(it *types.IntType, x, y *big.Int) (*big.Int, error) {
	if y.Sign() < 0 {
		return nil, overflow(OpExp, it)
	}
	switch {
	case y.Sign() == 0:
		return big.NewInt(1), nil
	case x.Sign() == 0:
		return big.NewInt(0), nil
	case new(big.Int).Abs(x).Cmp(big.NewInt(1)) == 0:
		// 1 or -1: the sign depends on the parity of y
		return new(big.Int).Exp(x, new(big.Int).And(y, big.NewInt(1)), nil), nil
	}
	if y.Cmp(big.NewInt(int64(it.Bits))) >= 0 {
		return nil, overflow(OpExp, it)
	}
	return new(big.Int).Exp(x, y, nil), nil
}

func shift(op Op, t types.Type, a, b Scalar) Scalar {
	width := types.Width(t)
	out := Scalar{Width: width}

	n, fits := b.Uint64()
	if !fits || n >= uint64(width) {
		if op == OpShr && isSigned(t) && a.Big(true).Sign() < 0 {
			out.Bits.Set(mask(width))
		}
		return out
	}

	switch {
	case op == OpShl:
		out.Bits.Lsh(&a.Bits, uint(n))
		out.truncate()
	case isSigned(t):
		out.Bits.SRsh(a.signExtend(), uint(n))
		out.truncate()
	default:
		out.Bits.Rsh(&a.Bits, uint(n))
	}
	return out
}

// Unary evaluates neg, bitwise not and logical not
func Unary(op Op, t types.Type, a Scalar) (Scalar, error) {
	width := types.Width(t)
	switch op {
	case OpLogNot:
		return Bool(!a.IsTrue()), nil
	case OpNot:
		out := Scalar{Width: width}
		out.Bits.Not(&a.Bits)
		out.truncate()
		return out, nil
	case OpNeg:
		return Arith(OpSub, t, Scalar{Width: width}, a)
	}
	return Scalar{}, errors.New(errors.PhaseExec, errors.KindUnsupported).
		Detail("unary operator %s", op).
		Build()
}

// Compare evaluates a comparison operator and returns a bool scalar
func Compare(op Op, t types.Type, a, b Scalar) (Scalar, error) {
	var c int
	if isSigned(t) {
		c = a.Big(true).Cmp(b.Big(true))
	} else {
		c = a.Bits.Cmp(&b.Bits)
	}

	switch op {
	case OpEq:
		return Bool(c == 0), nil
	case OpNe:
		return Bool(c != 0), nil
	case OpLt:
		return Bool(c < 0), nil
	case OpLe:
		return Bool(c <= 0), nil
	case OpGt:
		return Bool(c > 0), nil
	case OpGe:
		return Bool(c >= 0), nil
	}
	return Scalar{}, errors.New(errors.PhaseExec, errors.KindUnsupported).
		Detail("comparison %s", op).
		Build()
}

func isSigned(t types.Type) bool {
	it, ok := t.(*types.IntType)
	return ok && it.Signed
}

func overflow(op Op, it *types.IntType) error {
	return errors.New(errors.PhaseExec, errors.KindOverflow).
		Type(it).
		Detail("checked %s", op).
		Build()
}

// Truncate converts between integer widths the way an explicit conversion does
func Truncate(from, to types.Type, s Scalar) Scalar {
	src := &s.Bits
	if isSigned(from) {
		src = s.signExtend()
	}
	out := Scalar{Width: types.Width(to), Bits: *new(uint256.Int).Set(src)}
	out.truncate()
	return out
}
