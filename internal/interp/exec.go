package interp

import (
	"contractir/internal/errors"
	"contractir/internal/heap"
	"contractir/internal/ir"
	"contractir/internal/types"
	"contractir/internal/value"
)

// machine holds the state of one run. Values are indexed by SSA value ID.
type machine struct {
	fn     *ir.Function
	heap   *heap.Allocator
	values []value.Value
	steps  int
	limit  int
	tracer func(block *ir.BasicBlock, inst ir.Instruction)
}

func (m *machine) run() (*Result, error) {
	var prev *ir.BasicBlock
	block := m.fn.Entry

	for {
		if err := m.enter(prev, block); err != nil {
			return nil, err
		}

		for _, inst := range block.Instructions {
			if err := m.step(block, inst); err != nil {
				return nil, err
			}
			err := m.exec(inst)
			if reason, ok := asRevert(err); ok {
				log.Debug("runtime revert", "function", m.fn.Name, "block", block.Label, "reason", reason)
				return &Result{Reverted: true, Reason: reason, Steps: m.steps}, nil
			}
			if err != nil {
				return nil, err
			}
		}

		if err := m.step(block, block.Terminator); err != nil {
			return nil, err
		}
		switch term := block.Terminator.(type) {
		case *ir.ReturnTerminator:
			out := make([]value.Value, len(term.Values))
			for i, v := range term.Values {
				out[i] = m.get(v)
			}
			return &Result{Values: out, Steps: m.steps}, nil
		case *ir.RevertTerminator:
			return &Result{Reverted: true, Reason: term.Reason, Steps: m.steps}, nil
		case *ir.JumpTerminator:
			prev, block = block, term.Target
		case *ir.BranchTerminator:
			cond, err := m.scalar(term.Condition)
			if err != nil {
				return nil, err
			}
			prev = block
			if cond.IsTrue() {
				block = term.TrueBlock
			} else {
				block = term.FalseBlock
			}
		default:
			return nil, m.broken("block %s has no terminator", block.Label)
		}
	}
}

// enter evaluates the phis of block for the edge from prev. All inputs are
// read before any result is written, so phis that feed each other swap
// correctly.
func (m *machine) enter(prev, block *ir.BasicBlock) error {
	if len(block.Phis) == 0 {
		return nil
	}
	idx := block.PredIndex(prev)
	if idx < 0 {
		return m.broken("entered %s from a block that is not a predecessor", block.Label)
	}
	incoming := make([]value.Value, len(block.Phis))
	for i, phi := range block.Phis {
		incoming[i] = m.get(phi.Inputs[idx])
	}
	for i, phi := range block.Phis {
		m.set(phi.Result, incoming[i])
	}
	return nil
}

func (m *machine) step(block *ir.BasicBlock, inst ir.Instruction) error {
	m.steps++
	if m.steps > m.limit {
		return errors.New(errors.PhaseExec, errors.KindStepLimit).
			Function(m.fn.Name).
			Detail("exceeded %d steps in %s", m.limit, block.Label).
			Build()
	}
	if m.tracer != nil {
		m.tracer(block, inst)
	}
	return nil
}

func (m *machine) exec(inst ir.Instruction) error {
	switch i := inst.(type) {
	case *ir.ConstantInstruction:
		m.set(i.Result, i.Value)

	case *ir.BinaryInstruction:
		a, b, err := m.scalars(i.Left, i.Right)
		if err != nil {
			return err
		}
		var r value.Scalar
		if i.Op.IsComparison() {
			r, err = value.Compare(i.Op, i.Left.Type, a, b)
		} else {
			r, err = value.Arith(i.Op, i.Result.Type, a, b)
		}
		if err != nil {
			return err
		}
		m.set(i.Result, r)

	case *ir.CheckedArithInstruction:
		a, b, err := m.scalars(i.Left, i.Right)
		if err != nil {
			return err
		}
		r, err := value.Arith(i.Op, i.Result.Type, a, b)
		if err != nil {
			return err
		}
		m.set(i.Result, r)

	case *ir.UnaryInstruction:
		a, err := m.scalar(i.Operand)
		if err != nil {
			return err
		}
		r, err := value.Unary(i.Op, i.Operand.Type, a)
		if err != nil {
			return err
		}
		m.set(i.Result, r)

	case *ir.CastInstruction:
		a, err := m.scalar(i.Operand)
		if err != nil {
			return err
		}
		m.set(i.Result, value.Truncate(i.Operand.Type, i.Result.Type, a))

	case *ir.ConcatInstruction:
		a, b, err := m.slices(i.Left, i.Right)
		if err != nil {
			return err
		}
		r, err := m.heap.Concat(a, b)
		if err != nil {
			return err
		}
		m.set(i.Result, r)

	case *ir.SliceEqInstruction:
		eq, err := value.Equal(m.heap, i.Left.Type, m.get(i.Left), m.get(i.Right))
		if err != nil {
			return err
		}
		m.set(i.Result, value.Bool(eq != i.Negate))

	case *ir.LenInstruction:
		s, err := m.slice(i.Operand)
		if err != nil {
			return err
		}
		m.set(i.Result, value.Uint(256, uint64(value.Len(i.Operand.Type, s))))

	case *ir.IndexInstruction:
		r, err := m.index(i)
		if err != nil {
			return err
		}
		m.set(i.Result, r)

	case *ir.PushInstruction:
		r, err := m.push(i)
		if err != nil {
			return err
		}
		m.set(i.Result, r)

	case *ir.SubstringInstruction:
		s, err := m.slice(i.Target)
		if err != nil {
			return err
		}
		start, end, err := m.scalars(i.Start, i.End)
		if err != nil {
			return err
		}
		r, err := m.heap.Substring(s, clampInt(start), clampInt(end))
		if err != nil {
			return err
		}
		m.set(i.Result, r)

	case *ir.TupleInstruction:
		group := make(value.Tuple, len(i.Elements))
		for j, e := range i.Elements {
			group[j] = m.get(e)
		}
		m.set(i.Result, group)

	case *ir.AssumeInstruction:
		p, err := m.scalar(i.Predicate)
		if err != nil {
			return err
		}
		if !p.IsTrue() {
			return m.broken("assumption %s does not hold", i.Predicate.Name)
		}

	default:
		return errors.New(errors.PhaseExec, errors.KindUnsupported).
			Function(m.fn.Name).
			Detail("instruction %s", inst.String()).
			Build()
	}
	return nil
}

// index reads one element; an index past the end reverts
func (m *machine) index(i *ir.IndexInstruction) (value.Value, error) {
	idx, err := m.scalar(i.Index)
	if err != nil {
		return nil, err
	}
	n := clampInt(idx)
	target := m.get(i.Target)

	switch t := i.Target.Type.(type) {
	case *types.BytesType:
		data, err := m.heap.Bytes(target.(value.Slice))
		if err != nil {
			return nil, err
		}
		if n >= len(data) {
			return nil, outOfBounds(n, len(data))
		}
		return value.FixedBytes(1, data[n:n+1])

	case *types.FixedBytesType:
		if n >= t.Size {
			return nil, outOfBounds(n, t.Size)
		}
		word := target.(value.Scalar).Word()
		return value.FixedBytes(1, word[32-t.Size+n:32-t.Size+n+1])

	case *types.ArrayType:
		if group, ok := target.(value.Tuple); ok {
			if n >= len(group) {
				return nil, outOfBounds(n, len(group))
			}
			return group[n], nil
		}
		data, err := m.heap.Bytes(target.(value.Slice))
		if err != nil {
			return nil, err
		}
		size := types.CellSize(t.Elem)
		if n >= len(data)/size {
			return nil, outOfBounds(n, len(data)/size)
		}
		return value.UnpackCell(t.Elem, data[n*size:(n+1)*size])
	}
	return nil, m.broken("index into %s", i.Target.Type)
}

// push appends one element: a single byte for bytes, a cell for arrays
func (m *machine) push(i *ir.PushInstruction) (value.Value, error) {
	target, err := m.slice(i.Target)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch t := i.Target.Type.(type) {
	case *types.BytesType:
		b, err := m.scalar(i.Element)
		if err != nil {
			return nil, err
		}
		data = []byte{byte(b.Bits.Uint64())}
	case *types.ArrayType:
		if data, err = value.PackCell(nil, t.Elem, m.get(i.Element)); err != nil {
			return nil, err
		}
	default:
		return nil, m.broken("push onto %s", i.Target.Type)
	}
	return m.heap.Extend(target, data)
}

func (m *machine) get(v *ir.Value) value.Value {
	return m.values[v.ID]
}

func (m *machine) set(v *ir.Value, val value.Value) {
	m.values[v.ID] = val
}

func (m *machine) scalar(v *ir.Value) (value.Scalar, error) {
	s, ok := m.get(v).(value.Scalar)
	if !ok {
		return value.Scalar{}, m.broken("%s is not a scalar", v.Name)
	}
	return s, nil
}

func (m *machine) scalars(a, b *ir.Value) (value.Scalar, value.Scalar, error) {
	x, err := m.scalar(a)
	if err != nil {
		return x, x, err
	}
	y, err := m.scalar(b)
	return x, y, err
}

func (m *machine) slice(v *ir.Value) (value.Slice, error) {
	s, ok := m.get(v).(value.Slice)
	if !ok {
		return value.Slice{}, m.broken("%s is not a slice", v.Name)
	}
	return s, nil
}

func (m *machine) slices(a, b *ir.Value) (value.Slice, value.Slice, error) {
	x, err := m.slice(a)
	if err != nil {
		return x, x, err
	}
	y, err := m.slice(b)
	return x, y, err
}

func (m *machine) broken(format string, args ...any) error {
	return errors.New(errors.PhaseExec, errors.KindBrokenInvariant).
		Function(m.fn.Name).
		Detail(format, args...).
		Build()
}

func outOfBounds(index, length int) error {
	return errors.New(errors.PhaseExec, errors.KindOffsetOutOfRange).
		Detail("index %d of %d elements", index, length).
		Build()
}

// clampInt converts an index scalar; anything beyond int range saturates and
// fails the bounds check that follows
func clampInt(s value.Scalar) int {
	const maxIndex = int(^uint(0) >> 1)
	n, ok := s.Uint64()
	if !ok || n > uint64(maxIndex) {
		return maxIndex
	}
	return int(n)
}
