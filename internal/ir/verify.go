package ir

// Passes that run over a built function before it is handed out. Pruning is
// the only transformation: it drops blocks dead code left without
// predecessors. The remaining passes check the graph invariants consumers rely
// on and change nothing.

import (
	"contractir/internal/errors"
)

// Pass represents a single transformation or check over one function
type Pass interface {
	Name() string
	Description() string
	Apply(fn *Function) (bool, error) // reports whether fn changed
}

// Pipeline manages the sequence of passes
type Pipeline struct {
	passes []Pass
}

// NewVerifyPipeline creates a pipeline with the default passes
func NewVerifyPipeline() *Pipeline {
	pipeline := &Pipeline{}

	pipeline.AddPass(&PruneUnreachable{}) // must run first
	pipeline.AddPass(&CheckStructure{})
	pipeline.AddPass(&CheckPhis{})
	pipeline.AddPass(&CheckDefinitions{})

	return pipeline
}

// AddPass adds a pass to the pipeline
func (p *Pipeline) AddPass(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Passes returns the passes in the order they run
func (p *Pipeline) Passes() []Pass {
	return append([]Pass(nil), p.passes...)
}

// Run executes all passes on fn, stopping at the first failure
func (p *Pipeline) Run(fn *Function) error {
	for _, pass := range p.passes {
		changed, err := pass.Apply(fn)
		if err != nil {
			log.Debug("pass failed", "function", fn.Name, "pass", pass.Name(), "error", err.Error())
			return err
		}
		log.Debug("pass done", "function", fn.Name, "pass", pass.Name(), "checks", pass.Description(), "changed", changed)
	}
	return nil
}

// Verify runs the default pipeline
func Verify(fn *Function) error {
	return NewVerifyPipeline().Run(fn)
}

func broken(fn *Function, format string, args ...any) error {
	return errors.New(errors.PhaseVerify, errors.KindBrokenInvariant).
		Function(fn.Name).
		Detail(format, args...).
		Build()
}

// PruneUnreachable removes blocks that cannot be reached from the entry
type PruneUnreachable struct{}

func (pu *PruneUnreachable) Name() string {
	return "Prune Unreachable"
}

func (pu *PruneUnreachable) Description() string {
	return "Removes blocks unreachable from the entry block"
}

func (pu *PruneUnreachable) Apply(fn *Function) (bool, error) {
	if fn.Entry == nil {
		return false, broken(fn, "function has no entry block")
	}

	// Mark reachable blocks starting from entry block
	reachable := make(map[*BasicBlock]bool)
	markReachable(fn.Entry, reachable)

	newBlocks := make([]*BasicBlock, 0, len(fn.Blocks))
	for _, block := range fn.Blocks {
		if reachable[block] {
			newBlocks = append(newBlocks, block)
		} else {
			log.Debug("pruned unreachable block", "function", fn.Name, "block", block.Label)
		}
	}
	changed := len(newBlocks) != len(fn.Blocks)

	if changed {
		for _, block := range newBlocks {
			pu.dropDeadPredecessors(fn, block, reachable)
		}
		fn.Blocks = newBlocks
		fn.SuccessExits = filterBlocks(fn.SuccessExits, reachable)
		fn.FailureExits = filterBlocks(fn.FailureExits, reachable)
	}

	for i, block := range fn.Blocks {
		block.Index = i
	}
	return changed, nil
}

// dropDeadPredecessors removes edges from pruned blocks together with the
// matching phi inputs. A phi left with a single distinct input is replaced by
// that input, and phis using it are re-examined.
func (pu *PruneUnreachable) dropDeadPredecessors(fn *Function, block *BasicBlock, reachable map[*BasicBlock]bool) {
	var keep []int
	for i, pred := range block.Predecessors {
		if reachable[pred] {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(block.Predecessors) {
		return
	}

	preds := make([]*BasicBlock, len(keep))
	for j, i := range keep {
		preds[j] = block.Predecessors[i]
	}
	block.Predecessors = preds

	phis := append([]*PhiInstruction(nil), block.Phis...)
	for _, phi := range phis {
		inputs := make([]*Value, len(keep))
		for j, i := range keep {
			inputs[j] = phi.Inputs[i]
		}
		phi.Inputs = inputs
	}
	// every phi of block has its trimmed arity before any removal cascades
	for _, phi := range phis {
		if block.hasPhi(phi) {
			fn.removeTrivialPhi(phi)
		}
	}
}

// markReachable recursively marks all blocks reachable from the given block
func markReachable(block *BasicBlock, reachable map[*BasicBlock]bool) {
	if reachable[block] {
		return // Already visited
	}

	reachable[block] = true

	// Visit successors based on terminator type
	if block.Terminator != nil {
		switch term := block.Terminator.(type) {
		case *JumpTerminator:
			if term.Target != nil {
				markReachable(term.Target, reachable)
			}
		case *BranchTerminator:
			if term.TrueBlock != nil {
				markReachable(term.TrueBlock, reachable)
			}
			if term.FalseBlock != nil {
				markReachable(term.FalseBlock, reachable)
			}
			// ReturnTerminator and RevertTerminator have no successors
		}
	}
}

func filterBlocks(blocks []*BasicBlock, keep map[*BasicBlock]bool) []*BasicBlock {
	out := blocks[:0]
	for _, b := range blocks {
		if keep[b] {
			out = append(out, b)
		}
	}
	return out
}

// CheckStructure verifies entry, terminators and edge symmetry
type CheckStructure struct{}

func (cs *CheckStructure) Name() string {
	return "Check Structure"
}

func (cs *CheckStructure) Description() string {
	return "Single entry, one terminator per block, consistent edges, full reachability"
}

func (cs *CheckStructure) Apply(fn *Function) (bool, error) {
	if len(fn.Blocks) == 0 || fn.Blocks[0] != fn.Entry {
		return false, broken(fn, "entry block must be the first block")
	}
	if len(fn.Entry.Predecessors) != 0 {
		return false, broken(fn, "entry block %s has predecessors", fn.Entry.Label)
	}

	reachable := make(map[*BasicBlock]bool)
	markReachable(fn.Entry, reachable)
	inFunction := make(map[*BasicBlock]bool, len(fn.Blocks))
	for _, block := range fn.Blocks {
		inFunction[block] = true
	}

	for i, block := range fn.Blocks {
		if block.Index != i {
			return false, broken(fn, "block %s has index %d at position %d", block.Label, block.Index, i)
		}
		if block.Terminator == nil {
			return false, broken(fn, "block %s has no terminator", block.Label)
		}
		if block.Terminator.GetBlock() != block {
			return false, broken(fn, "terminator of %s belongs to another block", block.Label)
		}
		if !reachable[block] {
			return false, broken(fn, "block %s is unreachable", block.Label)
		}

		succs := block.Terminator.GetSuccessors()
		if len(succs) != len(block.Successors) {
			return false, broken(fn, "block %s lists %d successors, terminator has %d",
				block.Label, len(block.Successors), len(succs))
		}
		for j, succ := range succs {
			if block.Successors[j] != succ || !inFunction[succ] {
				return false, broken(fn, "block %s has a dangling edge", block.Label)
			}
			if succ.PredIndex(block) < 0 {
				return false, broken(fn, "edge %s -> %s missing from predecessors", block.Label, succ.Label)
			}
		}
		for _, pred := range block.Predecessors {
			if !inFunction[pred] || !containsBlock(pred.Successors, block) {
				return false, broken(fn, "predecessor %s of %s does not branch to it", pred.Label, block.Label)
			}
		}
		for _, inst := range block.Instructions {
			if inst.IsTerminator() || inst.GetBlock() != block {
				return false, broken(fn, "misplaced instruction %d in %s", inst.GetID(), block.Label)
			}
		}
	}
	return false, nil
}

func containsBlock(blocks []*BasicBlock, b *BasicBlock) bool {
	for _, x := range blocks {
		if x == b {
			return true
		}
	}
	return false
}

// CheckPhis verifies that every phi is resolved and necessary
type CheckPhis struct{}

func (cp *CheckPhis) Name() string {
	return "Check Phis"
}

func (cp *CheckPhis) Description() string {
	return "No placeholders, one input per predecessor, no trivial phis"
}

func (cp *CheckPhis) Apply(fn *Function) (bool, error) {
	for _, block := range fn.Blocks {
		seen := make(map[any]bool)
		for _, phi := range block.Phis {
			if phi.Placeholder {
				return false, broken(fn, "placeholder %s survived in %s", phi.Result.Name, block.Label)
			}
			if phi.Block != block {
				return false, broken(fn, "phi %s belongs to another block", phi.Result.Name)
			}
			if len(phi.Inputs) != len(block.Predecessors) {
				return false, broken(fn, "phi %s has %d inputs for %d predecessors",
					phi.Result.Name, len(phi.Inputs), len(block.Predecessors))
			}
			for _, in := range phi.Inputs {
				if in == nil {
					return false, broken(fn, "phi %s has a missing input", phi.Result.Name)
				}
			}
			if trivialInput(phi) != nil {
				return false, broken(fn, "phi %s merges identical values", phi.Result.Name)
			}
			if phi.Variable != nil {
				if seen[phi.Variable] {
					return false, broken(fn, "two phis for %s in %s", phi.Variable.Name, block.Label)
				}
				seen[phi.Variable] = true
			}
		}
	}
	return false, nil
}

// CheckDefinitions verifies that every operand refers to a live definition
type CheckDefinitions struct{}

func (cd *CheckDefinitions) Name() string {
	return "Check Definitions"
}

func (cd *CheckDefinitions) Description() string {
	return "Every value defined once and every operand defined in this function"
}

func (cd *CheckDefinitions) Apply(fn *Function) (bool, error) {
	defined := make(map[*Value]bool)
	define := func(v *Value) error {
		if defined[v] {
			return broken(fn, "value %s defined twice", v.Name)
		}
		defined[v] = true
		return nil
	}

	for _, param := range fn.Params {
		if err := define(param.Value); err != nil {
			return false, err
		}
	}
	for _, block := range fn.Blocks {
		for _, phi := range block.Phis {
			if err := define(phi.Result); err != nil {
				return false, err
			}
		}
		for _, inst := range block.Instructions {
			if r := inst.GetResult(); r != nil {
				if err := define(r); err != nil {
					return false, err
				}
			}
		}
	}

	check := func(block *BasicBlock, inst Instruction) error {
		for _, op := range inst.GetOperands() {
			if op == nil || !defined[op] {
				return broken(fn, "instruction %d in %s uses an undefined value", inst.GetID(), block.Label)
			}
		}
		return nil
	}
	for _, block := range fn.Blocks {
		for _, phi := range block.Phis {
			if err := check(block, phi); err != nil {
				return false, err
			}
		}
		for _, inst := range block.Instructions {
			if err := check(block, inst); err != nil {
				return false, err
			}
		}
		if err := check(block, block.Terminator); err != nil {
			return false, err
		}
	}
	return false, nil
}

// trivialInput returns the single value phi merges besides itself, or nil
// when it merges two or more different values
func trivialInput(phi *PhiInstruction) *Value {
	var same *Value
	for _, in := range phi.Inputs {
		if in == same || in == phi.Result {
			continue
		}
		if same != nil {
			return nil
		}
		same = in
	}
	return same
}
