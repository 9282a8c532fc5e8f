package ir

import (
	"contractir/internal/ast"
	"contractir/internal/heap"
	"contractir/internal/types"
	"contractir/internal/value"
)

// IR types and structures for the contract middle layer.
// Functions are in Static Single Assignment (SSA) form: basic blocks, explicit
// edges, and phi nodes at every join where incoming values differ.

// Function represents a function in IR form
type Function struct {
	Name         string
	Params       []*Parameter
	Returns      []types.Type
	Entry        *BasicBlock
	Blocks       []*BasicBlock
	SuccessExits []*BasicBlock // blocks ending with RETURN
	FailureExits []*BasicBlock // blocks ending with REVERT

	// Heap holds the function's constant data. String and bytes literals are
	// materialized here at build time; evaluation works on a clone.
	Heap *heap.Allocator

	NumValues int
}

// BasicBlock represents a sequence of instructions ending in one terminator.
// Phis run in parallel on entry, one input per predecessor in predecessor
// order.
type BasicBlock struct {
	Index        int
	Label        string
	Phis         []*PhiInstruction
	Instructions []Instruction
	Terminator   Terminator
	Predecessors []*BasicBlock
	Successors   []*BasicBlock

	// Variable binding tables at block entry and exit
	In  Bindings
	Out Bindings
}

// Bindings maps each live variable to its current SSA value
type Bindings map[*ast.Variable]*Value

func (b Bindings) clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Value represents a value in SSA form - each value has exactly one definition
type Value struct {
	ID       int
	Name     string
	Type     types.Type
	DefBlock *BasicBlock
	DefInst  Instruction // nil for parameters
}

// Parameter represents a function parameter
type Parameter struct {
	Name  string
	Type  types.Type
	Value *Value
}

// PredIndex returns the position of pred among b's predecessors, or -1
func (b *BasicBlock) PredIndex(pred *BasicBlock) int {
	for i, p := range b.Predecessors {
		if p == pred {
			return i
		}
	}
	return -1
}

// Instructions in SSA form

type Instruction interface {
	GetID() int
	GetResult() *Value
	GetOperands() []*Value
	GetBlock() *BasicBlock
	IsTerminator() bool
	String() string
	GetEffects() []Effect

	// operandRefs exposes operand slots for use rewriting
	operandRefs() []**Value
}

// Terminators end basic blocks
type Terminator interface {
	Instruction
	GetSuccessors() []*BasicBlock
}

// Core SSA Instructions

// PhiInstruction selects Inputs[i] when control arrives from
// Block.Predecessors[i]. Placeholder phis sit on loop headers until the
// back edges are known.
type PhiInstruction struct {
	ID          int
	Result      *Value
	Block       *BasicBlock
	Variable    *ast.Variable // nil for expression merges (&&, ||, ?:)
	Inputs      []*Value
	Placeholder bool
}

type ConstantInstruction struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Value  value.Value
	Type   types.Type
}

// BinaryInstruction covers wrapping arithmetic, bitwise operators, shifts and
// scalar comparisons
type BinaryInstruction struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Op     value.Op
	Left   *Value
	Right  *Value
}

// CheckedArithInstruction reverts instead of producing an out-of-range value
type CheckedArithInstruction struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Op     value.Op
	Left   *Value
	Right  *Value
}

type UnaryInstruction struct {
	ID      int
	Result  *Value
	Block   *BasicBlock
	Op      value.Op
	Operand *Value
}

type CastInstruction struct {
	ID      int
	Result  *Value
	Block   *BasicBlock
	Operand *Value
}

// Slice instructions

// ConcatInstruction copies both operands into a fresh buffer
type ConcatInstruction struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Left   *Value
	Right  *Value
}

// SliceEqInstruction compares contents, never identity
type SliceEqInstruction struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Negate bool
	Left   *Value
	Right  *Value
}

type LenInstruction struct {
	ID      int
	Result  *Value
	Block   *BasicBlock
	Operand *Value
}

type IndexInstruction struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Target *Value
	Index  *Value
}

// PushInstruction yields Target with Element appended. Target itself is
// unchanged; the builder rebinds the variable to the result.
type PushInstruction struct {
	ID      int
	Result  *Value
	Block   *BasicBlock
	Target  *Value
	Element *Value
}

type SubstringInstruction struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Target *Value
	Start  *Value
	End    *Value
}

type TupleInstruction struct {
	ID       int
	Result   *Value
	Block    *BasicBlock
	Elements []*Value
}

// AssumeInstruction records a predicate known to hold on this path
type AssumeInstruction struct {
	ID        int
	Block     *BasicBlock
	Predicate *Value
}

// Terminators

type ReturnTerminator struct {
	ID     int
	Block  *BasicBlock
	Values []*Value
}

type RevertTerminator struct {
	ID     int
	Block  *BasicBlock
	Reason string
}

type BranchTerminator struct {
	ID         int
	Block      *BasicBlock
	Condition  *Value
	TrueBlock  *BasicBlock
	FalseBlock *BasicBlock
}

type JumpTerminator struct {
	ID     int
	Block  *BasicBlock
	Target *BasicBlock
}

// Implementation of interfaces

func (p *PhiInstruction) GetID() int            { return p.ID }
func (p *PhiInstruction) GetResult() *Value     { return p.Result }
func (p *PhiInstruction) GetOperands() []*Value { return p.Inputs }
func (p *PhiInstruction) GetBlock() *BasicBlock { return p.Block }
func (p *PhiInstruction) IsTerminator() bool    { return false }
func (p *PhiInstruction) operandRefs() []**Value {
	refs := make([]**Value, len(p.Inputs))
	for i := range p.Inputs {
		refs[i] = &p.Inputs[i]
	}
	return refs
}

func (c *ConstantInstruction) GetID() int             { return c.ID }
func (c *ConstantInstruction) GetResult() *Value      { return c.Result }
func (c *ConstantInstruction) GetOperands() []*Value  { return []*Value{} }
func (c *ConstantInstruction) GetBlock() *BasicBlock  { return c.Block }
func (c *ConstantInstruction) IsTerminator() bool     { return false }
func (c *ConstantInstruction) operandRefs() []**Value { return nil }

func (b *BinaryInstruction) GetID() int             { return b.ID }
func (b *BinaryInstruction) GetResult() *Value      { return b.Result }
func (b *BinaryInstruction) GetOperands() []*Value  { return []*Value{b.Left, b.Right} }
func (b *BinaryInstruction) GetBlock() *BasicBlock  { return b.Block }
func (b *BinaryInstruction) IsTerminator() bool     { return false }
func (b *BinaryInstruction) operandRefs() []**Value { return []**Value{&b.Left, &b.Right} }

func (c *CheckedArithInstruction) GetID() int             { return c.ID }
func (c *CheckedArithInstruction) GetResult() *Value      { return c.Result }
func (c *CheckedArithInstruction) GetOperands() []*Value  { return []*Value{c.Left, c.Right} }
func (c *CheckedArithInstruction) GetBlock() *BasicBlock  { return c.Block }
func (c *CheckedArithInstruction) IsTerminator() bool     { return false }
func (c *CheckedArithInstruction) operandRefs() []**Value { return []**Value{&c.Left, &c.Right} }

func (u *UnaryInstruction) GetID() int             { return u.ID }
func (u *UnaryInstruction) GetResult() *Value      { return u.Result }
func (u *UnaryInstruction) GetOperands() []*Value  { return []*Value{u.Operand} }
func (u *UnaryInstruction) GetBlock() *BasicBlock  { return u.Block }
func (u *UnaryInstruction) IsTerminator() bool     { return false }
func (u *UnaryInstruction) operandRefs() []**Value { return []**Value{&u.Operand} }

func (c *CastInstruction) GetID() int             { return c.ID }
func (c *CastInstruction) GetResult() *Value      { return c.Result }
func (c *CastInstruction) GetOperands() []*Value  { return []*Value{c.Operand} }
func (c *CastInstruction) GetBlock() *BasicBlock  { return c.Block }
func (c *CastInstruction) IsTerminator() bool     { return false }
func (c *CastInstruction) operandRefs() []**Value { return []**Value{&c.Operand} }

func (c *ConcatInstruction) GetID() int             { return c.ID }
func (c *ConcatInstruction) GetResult() *Value      { return c.Result }
func (c *ConcatInstruction) GetOperands() []*Value  { return []*Value{c.Left, c.Right} }
func (c *ConcatInstruction) GetBlock() *BasicBlock  { return c.Block }
func (c *ConcatInstruction) IsTerminator() bool     { return false }
func (c *ConcatInstruction) operandRefs() []**Value { return []**Value{&c.Left, &c.Right} }

func (s *SliceEqInstruction) GetID() int             { return s.ID }
func (s *SliceEqInstruction) GetResult() *Value      { return s.Result }
func (s *SliceEqInstruction) GetOperands() []*Value  { return []*Value{s.Left, s.Right} }
func (s *SliceEqInstruction) GetBlock() *BasicBlock  { return s.Block }
func (s *SliceEqInstruction) IsTerminator() bool     { return false }
func (s *SliceEqInstruction) operandRefs() []**Value { return []**Value{&s.Left, &s.Right} }

func (l *LenInstruction) GetID() int             { return l.ID }
func (l *LenInstruction) GetResult() *Value      { return l.Result }
func (l *LenInstruction) GetOperands() []*Value  { return []*Value{l.Operand} }
func (l *LenInstruction) GetBlock() *BasicBlock  { return l.Block }
func (l *LenInstruction) IsTerminator() bool     { return false }
func (l *LenInstruction) operandRefs() []**Value { return []**Value{&l.Operand} }

func (i *IndexInstruction) GetID() int             { return i.ID }
func (i *IndexInstruction) GetResult() *Value      { return i.Result }
func (i *IndexInstruction) GetOperands() []*Value  { return []*Value{i.Target, i.Index} }
func (i *IndexInstruction) GetBlock() *BasicBlock  { return i.Block }
func (i *IndexInstruction) IsTerminator() bool     { return false }
func (i *IndexInstruction) operandRefs() []**Value { return []**Value{&i.Target, &i.Index} }

func (p *PushInstruction) GetID() int             { return p.ID }
func (p *PushInstruction) GetResult() *Value      { return p.Result }
func (p *PushInstruction) GetOperands() []*Value  { return []*Value{p.Target, p.Element} }
func (p *PushInstruction) GetBlock() *BasicBlock  { return p.Block }
func (p *PushInstruction) IsTerminator() bool     { return false }
func (p *PushInstruction) operandRefs() []**Value { return []**Value{&p.Target, &p.Element} }

func (s *SubstringInstruction) GetID() int            { return s.ID }
func (s *SubstringInstruction) GetResult() *Value     { return s.Result }
func (s *SubstringInstruction) GetOperands() []*Value { return []*Value{s.Target, s.Start, s.End} }
func (s *SubstringInstruction) GetBlock() *BasicBlock { return s.Block }
func (s *SubstringInstruction) IsTerminator() bool    { return false }
func (s *SubstringInstruction) operandRefs() []**Value {
	return []**Value{&s.Target, &s.Start, &s.End}
}

func (t *TupleInstruction) GetID() int            { return t.ID }
func (t *TupleInstruction) GetResult() *Value     { return t.Result }
func (t *TupleInstruction) GetOperands() []*Value { return t.Elements }
func (t *TupleInstruction) GetBlock() *BasicBlock { return t.Block }
func (t *TupleInstruction) IsTerminator() bool    { return false }
func (t *TupleInstruction) operandRefs() []**Value {
	refs := make([]**Value, len(t.Elements))
	for i := range t.Elements {
		refs[i] = &t.Elements[i]
	}
	return refs
}

func (a *AssumeInstruction) GetID() int             { return a.ID }
func (a *AssumeInstruction) GetResult() *Value      { return nil }
func (a *AssumeInstruction) GetOperands() []*Value  { return []*Value{a.Predicate} }
func (a *AssumeInstruction) GetBlock() *BasicBlock  { return a.Block }
func (a *AssumeInstruction) IsTerminator() bool     { return false }
func (a *AssumeInstruction) operandRefs() []**Value { return []**Value{&a.Predicate} }

// Terminator implementations

func (r *ReturnTerminator) GetID() int                   { return r.ID }
func (r *ReturnTerminator) GetResult() *Value            { return nil }
func (r *ReturnTerminator) GetOperands() []*Value        { return r.Values }
func (r *ReturnTerminator) GetBlock() *BasicBlock        { return r.Block }
func (r *ReturnTerminator) IsTerminator() bool           { return true }
func (r *ReturnTerminator) GetSuccessors() []*BasicBlock { return []*BasicBlock{} }
func (r *ReturnTerminator) operandRefs() []**Value {
	refs := make([]**Value, len(r.Values))
	for i := range r.Values {
		refs[i] = &r.Values[i]
	}
	return refs
}

func (r *RevertTerminator) GetID() int                   { return r.ID }
func (r *RevertTerminator) GetResult() *Value            { return nil }
func (r *RevertTerminator) GetOperands() []*Value        { return []*Value{} }
func (r *RevertTerminator) GetBlock() *BasicBlock        { return r.Block }
func (r *RevertTerminator) IsTerminator() bool           { return true }
func (r *RevertTerminator) GetSuccessors() []*BasicBlock { return []*BasicBlock{} }
func (r *RevertTerminator) operandRefs() []**Value       { return nil }

func (b *BranchTerminator) GetID() int             { return b.ID }
func (b *BranchTerminator) GetResult() *Value      { return nil }
func (b *BranchTerminator) GetOperands() []*Value  { return []*Value{b.Condition} }
func (b *BranchTerminator) GetBlock() *BasicBlock  { return b.Block }
func (b *BranchTerminator) IsTerminator() bool     { return true }
func (b *BranchTerminator) operandRefs() []**Value { return []**Value{&b.Condition} }
func (b *BranchTerminator) GetSuccessors() []*BasicBlock {
	return []*BasicBlock{b.TrueBlock, b.FalseBlock}
}

func (j *JumpTerminator) GetID() int                   { return j.ID }
func (j *JumpTerminator) GetResult() *Value            { return nil }
func (j *JumpTerminator) GetOperands() []*Value        { return []*Value{} }
func (j *JumpTerminator) GetBlock() *BasicBlock        { return j.Block }
func (j *JumpTerminator) IsTerminator() bool           { return true }
func (j *JumpTerminator) GetSuccessors() []*BasicBlock { return []*BasicBlock{j.Target} }
func (j *JumpTerminator) operandRefs() []**Value       { return nil }
