package ir

import (
	"fmt"
	"strings"

	"contractir/internal/types"
	"contractir/internal/value"
)

// Printer provides pretty-printing for IR
type Printer struct {
	indent int
	output strings.Builder
	fn     *Function
}

// NewPrinter creates a new IR printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the string representation of an IR function
func Print(fn *Function) string {
	p := NewPrinter()
	p.printFunction(fn)
	return p.output.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

// printFunction prints an SSA function
func (p *Printer) printFunction(fn *Function) {
	p.fn = fn

	sig := fmt.Sprintf("FUNCTION %s(", fn.Name)
	for i, param := range fn.Params {
		if i > 0 {
			sig += ", "
		}
		sig += fmt.Sprintf("%s: %s", p.valueString(param.Value), param.Type.String())
	}
	sig += ")"
	if len(fn.Returns) > 0 {
		rets := make([]string, len(fn.Returns))
		for i, r := range fn.Returns {
			rets[i] = r.String()
		}
		sig += " -> (" + strings.Join(rets, ", ") + ")"
	}

	p.writeLine("%s", sig)
	p.writeLine("{")
	for _, block := range fn.Blocks {
		p.printBasicBlock(block)
	}
	p.writeLine("}")

	if len(fn.SuccessExits) > 0 {
		p.writeLine("; success exits: %s", p.blockLabels(fn.SuccessExits))
	}
	if len(fn.FailureExits) > 0 {
		p.writeLine("; failure exits: %s", p.blockLabels(fn.FailureExits))
	}
}

// printBasicBlock prints a basic block in IR form
func (p *Printer) printBasicBlock(block *BasicBlock) {
	if len(block.Predecessors) > 0 {
		p.writeLine("%s:  ; preds: %s", block.Label, p.blockLabels(block.Predecessors))
	} else {
		p.writeLine("%s:", block.Label)
	}

	p.indent++
	for _, phi := range block.Phis {
		p.printInstruction(phi)
	}
	for _, inst := range block.Instructions {
		p.printInstruction(inst)
	}
	if block.Terminator != nil {
		p.printInstruction(block.Terminator)
	}
	p.indent--
}

// printInstruction prints an IR instruction with its effects
func (p *Printer) printInstruction(inst Instruction) {
	text := p.instructionString(inst)
	if effects := formatInstructionEffects(inst.GetEffects()); effects != "" {
		text += "  ; " + effects
	}
	p.writeLine("%s", text)
}

func (p *Printer) instructionString(inst Instruction) string {
	switch i := inst.(type) {
	case *PhiInstruction:
		inputs := make([]string, len(i.Inputs))
		for j, in := range i.Inputs {
			label := "?"
			if j < len(i.Block.Predecessors) {
				label = i.Block.Predecessors[j].Label
			}
			inputs[j] = fmt.Sprintf("[%s: %s]", label, p.valueString(in))
		}
		op := "PHI"
		if i.Placeholder {
			op = "PHI?"
		}
		return fmt.Sprintf("%s = %s %s", p.valueString(i.Result), op, strings.Join(inputs, ", "))
	case *ConstantInstruction:
		return fmt.Sprintf("%s = CONST %s:%s", p.valueString(i.Result), p.constantString(i.Value, i.Type), i.Type.String())
	case *BinaryInstruction:
		return fmt.Sprintf("%s = %s %s, %s",
			p.valueString(i.Result), mnemonic(i.Op), p.valueString(i.Left), p.valueString(i.Right))
	case *CheckedArithInstruction:
		return fmt.Sprintf("%s = %s_CHK %s, %s",
			p.valueString(i.Result), mnemonic(i.Op), p.valueString(i.Left), p.valueString(i.Right))
	case *UnaryInstruction:
		return fmt.Sprintf("%s = %s %s", p.valueString(i.Result), mnemonic(i.Op), p.valueString(i.Operand))
	case *CastInstruction:
		return fmt.Sprintf("%s = CAST %s to %s", p.valueString(i.Result), p.valueString(i.Operand), i.Result.Type.String())
	case *ConcatInstruction:
		return fmt.Sprintf("%s = CONCAT %s, %s", p.valueString(i.Result), p.valueString(i.Left), p.valueString(i.Right))
	case *SliceEqInstruction:
		op := "SLICE_EQ"
		if i.Negate {
			op = "SLICE_NE"
		}
		return fmt.Sprintf("%s = %s %s, %s", p.valueString(i.Result), op, p.valueString(i.Left), p.valueString(i.Right))
	case *LenInstruction:
		return fmt.Sprintf("%s = LEN %s", p.valueString(i.Result), p.valueString(i.Operand))
	case *IndexInstruction:
		return fmt.Sprintf("%s = INDEX %s[%s]", p.valueString(i.Result), p.valueString(i.Target), p.valueString(i.Index))
	case *PushInstruction:
		return fmt.Sprintf("%s = PUSH %s, %s", p.valueString(i.Result), p.valueString(i.Target), p.valueString(i.Element))
	case *SubstringInstruction:
		return fmt.Sprintf("%s = SUBSTR %s[%s:%s]", p.valueString(i.Result),
			p.valueString(i.Target), p.valueString(i.Start), p.valueString(i.End))
	case *TupleInstruction:
		return fmt.Sprintf("%s = TUPLE (%s)", p.valueString(i.Result), p.argsString(i.Elements))
	case *AssumeInstruction:
		return fmt.Sprintf("assume(%s)", p.valueString(i.Predicate))
	case *ReturnTerminator:
		if len(i.Values) == 0 {
			return "RETURN"
		}
		return "RETURN " + p.argsString(i.Values)
	case *RevertTerminator:
		if i.Reason == "" {
			return "REVERT"
		}
		return fmt.Sprintf("REVERT %q", i.Reason)
	case *BranchTerminator:
		return fmt.Sprintf("BRANCH %s ? %s : %s", p.valueString(i.Condition), i.TrueBlock.Label, i.FalseBlock.Label)
	case *JumpTerminator:
		return "JUMP " + i.Target.Label
	}
	return fmt.Sprintf("UNKNOWN_INST<%T> %d", inst, inst.GetID())
}

// constantString renders a constant; slices are read from the function heap
func (p *Printer) constantString(v value.Value, t types.Type) string {
	switch vv := v.(type) {
	case value.Scalar:
		return value.Format(t, vv)
	case value.Slice:
		if p.fn == nil || p.fn.Heap == nil {
			return vv.String()
		}
		data, err := p.fn.Heap.Bytes(vv)
		if err != nil {
			return vv.String()
		}
		switch t.(type) {
		case *types.StringType:
			return fmt.Sprintf("%q", string(data))
		case *types.BytesType:
			return fmt.Sprintf("hex\"%x\"", data)
		}
		return vv.String()
	case value.Tuple:
		comps := types.Components(t)
		parts := make([]string, len(vv))
		for i, c := range vv {
			if i < len(comps) {
				parts[i] = p.constantString(c, comps[i])
			} else {
				parts[i] = c.String()
			}
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprintf("%v", v)
}

// valueString formats a value reference
func (p *Printer) valueString(value *Value) string {
	if value == nil {
		return "%<nil>"
	}
	return "%" + value.Name
}

// argsString formats an operand list
func (p *Printer) argsString(args []*Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = p.valueString(arg)
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) blockLabels(blocks []*BasicBlock) string {
	labels := make([]string, len(blocks))
	for i, b := range blocks {
		labels[i] = b.Label
	}
	return strings.Join(labels, ", ")
}

// formatInstructionEffects lists non-pure effects, e.g. "reads(heap), may_revert"
func formatInstructionEffects(effects []Effect) string {
	var parts []string
	for _, e := range effects {
		switch eff := e.(type) {
		case *MemoryEffect:
			switch eff.Type {
			case MemoryEffectRead:
				parts = append(parts, "reads(heap)")
			case MemoryEffectWrite:
				parts = append(parts, "writes(heap)")
			case MemoryEffectAllocate:
				parts = append(parts, "allocates(heap)")
			}
		case *RevertEffect:
			if eff.Conditional {
				parts = append(parts, "may_revert")
			}
		}
	}
	return strings.Join(parts, ", ")
}

var mnemonics = map[value.Op]string{
	value.OpAdd: "ADD", value.OpSub: "SUB", value.OpMul: "MUL", value.OpDiv: "DIV",
	value.OpMod: "MOD", value.OpExp: "EXP", value.OpAnd: "AND", value.OpOr: "OR",
	value.OpXor: "XOR", value.OpShl: "SHL", value.OpShr: "SHR",
	value.OpEq: "EQ", value.OpNe: "NE", value.OpLt: "LT", value.OpLe: "LE",
	value.OpGt: "GT", value.OpGe: "GE",
	value.OpNeg: "NEG", value.OpNot: "NOT", value.OpLogNot: "ISZERO",
}

func mnemonic(op value.Op) string {
	if m, ok := mnemonics[op]; ok {
		return m
	}
	return strings.ToUpper(string(op))
}

// String methods for debugging

func (f *Function) String() string   { return Print(f) }
func (b *BasicBlock) String() string { return "BasicBlock: " + b.Label }
func (v *Value) String() string      { return fmt.Sprintf("%%%s:%s", v.Name, v.Type.String()) }

func (p *PhiInstruction) String() string          { return fmt.Sprintf("PHI %d", p.ID) }
func (c *ConstantInstruction) String() string     { return fmt.Sprintf("CONST %d", c.ID) }
func (b *BinaryInstruction) String() string       { return fmt.Sprintf("%s %d", mnemonic(b.Op), b.ID) }
func (c *CheckedArithInstruction) String() string { return fmt.Sprintf("%s_CHK %d", mnemonic(c.Op), c.ID) }
func (u *UnaryInstruction) String() string        { return fmt.Sprintf("%s %d", mnemonic(u.Op), u.ID) }
func (c *CastInstruction) String() string         { return fmt.Sprintf("CAST %d", c.ID) }
func (c *ConcatInstruction) String() string       { return fmt.Sprintf("CONCAT %d", c.ID) }
func (s *SliceEqInstruction) String() string      { return fmt.Sprintf("SLICE_EQ %d", s.ID) }
func (l *LenInstruction) String() string          { return fmt.Sprintf("LEN %d", l.ID) }
func (i *IndexInstruction) String() string        { return fmt.Sprintf("INDEX %d", i.ID) }
func (p *PushInstruction) String() string         { return fmt.Sprintf("PUSH %d", p.ID) }
func (s *SubstringInstruction) String() string    { return fmt.Sprintf("SUBSTR %d", s.ID) }
func (t *TupleInstruction) String() string        { return fmt.Sprintf("TUPLE %d", t.ID) }
func (a *AssumeInstruction) String() string       { return fmt.Sprintf("ASSUME %d", a.ID) }

func (r *ReturnTerminator) String() string { return fmt.Sprintf("RETURN %d", r.ID) }
func (r *RevertTerminator) String() string { return fmt.Sprintf("REVERT %d", r.ID) }
func (b *BranchTerminator) String() string { return fmt.Sprintf("BRANCH %d", b.ID) }
func (j *JumpTerminator) String() string   { return fmt.Sprintf("JUMP %d", j.ID) }
