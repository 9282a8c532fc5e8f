package ir

import (
	"contractir/internal/types"
	"contractir/internal/value"
)

// Effects describe what an instruction does besides producing its result:
// heap traffic on slice buffers, and whether it can end the call in a revert.

// Effect represents one side effect of an instruction
type Effect interface {
	EffectKind() string
}

// MemoryEffectType categorizes heap access patterns
type MemoryEffectType string

const (
	MemoryEffectRead     MemoryEffectType = "read"     // reads slice bytes
	MemoryEffectWrite    MemoryEffectType = "write"    // appends to an existing buffer
	MemoryEffectAllocate MemoryEffectType = "allocate" // creates a fresh buffer
)

// MemoryEffect represents an effect on the slice heap
type MemoryEffect struct {
	Type MemoryEffectType
}

func (m *MemoryEffect) EffectKind() string { return "memory" }

// RevertEffect marks instructions that can abort the call. Conditional is
// false only for an unconditional revert.
type RevertEffect struct {
	Conditional bool
}

func (r *RevertEffect) EffectKind() string { return "revert" }

// PureEffect indicates no side effects
type PureEffect struct{}

func (p *PureEffect) EffectKind() string { return "pure" }

var (
	pure      = []Effect{&PureEffect{}}
	mayRevert = &RevertEffect{Conditional: true}
	readHeap  = &MemoryEffect{Type: MemoryEffectRead}
	allocHeap = &MemoryEffect{Type: MemoryEffectAllocate}
)

func (i *PhiInstruction) GetEffects() []Effect      { return pure }
func (i *ConstantInstruction) GetEffects() []Effect { return pure }
func (i *CastInstruction) GetEffects() []Effect     { return pure }
func (i *LenInstruction) GetEffects() []Effect      { return pure }
func (i *TupleInstruction) GetEffects() []Effect    { return pure }
func (i *AssumeInstruction) GetEffects() []Effect   { return pure }

// BinaryInstruction effects: division by zero reverts even when wrapping
func (i *BinaryInstruction) GetEffects() []Effect {
	if i.Op == value.OpDiv || i.Op == value.OpMod {
		return []Effect{mayRevert}
	}
	return pure
}

func (i *CheckedArithInstruction) GetEffects() []Effect {
	return []Effect{mayRevert}
}

// UnaryInstruction effects: negation is checked on non-wrapping integers
func (i *UnaryInstruction) GetEffects() []Effect {
	if i.Op != value.OpNeg {
		return pure
	}
	if it, ok := i.Result.Type.(*types.IntType); ok && it.Wrapping {
		return pure
	}
	return []Effect{mayRevert}
}

func (i *ConcatInstruction) GetEffects() []Effect {
	return []Effect{readHeap, allocHeap}
}

func (i *SliceEqInstruction) GetEffects() []Effect {
	return []Effect{readHeap}
}

func (i *IndexInstruction) GetEffects() []Effect {
	if types.IsSlice(i.Target.Type) {
		return []Effect{readHeap, mayRevert}
	}
	return []Effect{mayRevert}
}

// PushInstruction effects: appends in place when the target is the most
// recent allocation, copies otherwise
func (i *PushInstruction) GetEffects() []Effect {
	return []Effect{readHeap, &MemoryEffect{Type: MemoryEffectWrite}, allocHeap}
}

func (i *SubstringInstruction) GetEffects() []Effect {
	return []Effect{readHeap, allocHeap, mayRevert}
}

// Terminator effects

func (t *ReturnTerminator) GetEffects() []Effect { return pure }
func (t *BranchTerminator) GetEffects() []Effect { return pure }
func (t *JumpTerminator) GetEffects() []Effect   { return pure }

func (t *RevertTerminator) GetEffects() []Effect {
	return []Effect{&RevertEffect{Conditional: false}}
}

// Allocates reports whether inst may create heap buffers
func Allocates(inst Instruction) bool {
	for _, e := range inst.GetEffects() {
		if m, ok := e.(*MemoryEffect); ok && m.Type == MemoryEffectAllocate {
			return true
		}
	}
	return false
}

// MayRevert reports whether inst can abort the call
func MayRevert(inst Instruction) bool {
	for _, e := range inst.GetEffects() {
		if _, ok := e.(*RevertEffect); ok {
			return true
		}
	}
	return false
}
