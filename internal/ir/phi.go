package ir

import (
	"sort"

	"contractir/internal/ast"
	"contractir/internal/errors"
	"contractir/internal/types"
)

// Merge computes block's entry bindings from the exit tables of its
// predecessors. A variable bound on every predecessor to the same value keeps
// that value; differing values get a phi with one input per predecessor in
// predecessor order. Variables missing on some predecessor went out of scope
// and are dropped.
func (b *Builder) Merge(block *BasicBlock) {
	block.In = Bindings{}
	preds := block.Predecessors
	if len(preds) == 0 {
		block.Out = Bindings{}
		return
	}

	for _, v := range sortedVariables(preds[0].Out) {
		inputs := make([]*Value, len(preds))
		same, bound := true, true
		for i, p := range preds {
			val, ok := p.Out[v]
			if !ok {
				bound = false
				break
			}
			inputs[i] = val
			if val != inputs[0] {
				same = false
			}
		}
		if !bound {
			continue
		}
		if same {
			block.In[v] = inputs[0]
			continue
		}
		phi := b.newPhi(block, v, v.Name, v.Type, inputs)
		block.In[v] = phi.Result
	}
	block.Out = block.In.clone()
}

// mergeValue joins one expression value per predecessor of block
func (b *Builder) mergeValue(block *BasicBlock, inputs []*Value, typ types.Type, name string) *Value {
	for _, in := range inputs[1:] {
		if in != inputs[0] {
			return b.newPhi(block, nil, name, typ, inputs).Result
		}
	}
	return inputs[0]
}

// OpenLoop binds every variable live into header to a placeholder phi whose
// only input so far is the pre-header value. Each variable gets its own
// placeholder even when two variables share a value.
func (b *Builder) OpenLoop(header *BasicBlock) {
	header.In = Bindings{}
	if len(header.Predecessors) == 0 {
		header.Out = Bindings{}
		return
	}
	pre := header.Predecessors[0]
	for _, v := range sortedVariables(pre.Out) {
		phi := b.newPhi(header, v, v.Name, v.Type, []*Value{pre.Out[v]})
		phi.Placeholder = true
		header.In[v] = phi.Result
	}
	header.Out = header.In.clone()
	log.Debug("opened loop", "function", b.fn.Name, "header", header.Label, "placeholders", len(header.Phis))
}

// CloseLoop completes header's placeholders once all back edges exist. Each
// back-edge predecessor contributes the variable's value at its exit; trivial
// placeholders are removed and the rest become ordinary phis.
func (b *Builder) CloseLoop(header *BasicBlock) error {
	var placeholders []*PhiInstruction
	for _, phi := range header.Phis {
		if phi.Placeholder {
			placeholders = append(placeholders, phi)
		}
	}

	for _, phi := range placeholders {
		for _, pred := range header.Predecessors[len(phi.Inputs):] {
			val, ok := pred.Out[phi.Variable]
			if !ok {
				return errors.New(errors.PhaseResolve, errors.KindBrokenInvariant).
					Function(b.fn.Name).
					Detail("variable %q unbound on back edge from %s", phi.Variable.Name, pred.Label).
					Build()
			}
			phi.Inputs = append(phi.Inputs, val)
		}
		phi.Placeholder = false
	}

	kept := 0
	for _, phi := range placeholders {
		if !phi.Block.hasPhi(phi) {
			continue
		}
		if b.tryRemoveTrivialPhi(phi) == phi.Result {
			kept++
		}
	}
	log.Debug("closed loop", "function", b.fn.Name, "header", header.Label,
		"back_edges", len(header.Predecessors)-1, "phis", kept)
	return nil
}

// tryRemoveTrivialPhi removes phi when its inputs are all itself or one other
// value. It returns the value now standing for phi.
func (b *Builder) tryRemoveTrivialPhi(phi *PhiInstruction) *Value {
	return b.fn.removeTrivialPhi(phi)
}

// removeTrivialPhi rewrites every use of a trivial phi to its single input.
// Complete phis that used it are re-examined, since they may have become
// trivial in turn.
func (fn *Function) removeTrivialPhi(phi *PhiInstruction) *Value {
	same := trivialInput(phi)
	if same == nil {
		return phi.Result
	}

	var users []*PhiInstruction
	for _, block := range fn.Blocks {
		for _, other := range block.Phis {
			if other != phi && usesValue(other, phi.Result) {
				users = append(users, other)
			}
		}
	}

	phi.Block.removePhi(phi)
	fn.replaceAllUses(phi.Result, same)
	log.Debug("removed trivial phi", "function", fn.Name, "block", phi.Block.Label,
		"phi", phi.Result.Name, "replacement", same.Name)

	for _, u := range users {
		if !u.Placeholder && u.Block.hasPhi(u) {
			fn.removeTrivialPhi(u)
		}
	}
	return same
}

// replaceAllUses rewrites every reference to old: instruction operands,
// terminators, phi inputs and binding tables
func (fn *Function) replaceAllUses(old, replacement *Value) {
	for _, block := range fn.Blocks {
		for _, phi := range block.Phis {
			replaceOperands(phi, old, replacement)
		}
		for _, inst := range block.Instructions {
			replaceOperands(inst, old, replacement)
		}
		if block.Terminator != nil {
			replaceOperands(block.Terminator, old, replacement)
		}
		for _, table := range []Bindings{block.In, block.Out} {
			for v, val := range table {
				if val == old {
					table[v] = replacement
				}
			}
		}
	}
}

func replaceOperands(inst Instruction, old, replacement *Value) {
	for _, ref := range inst.operandRefs() {
		if *ref == old {
			*ref = replacement
		}
	}
}

func usesValue(inst Instruction, v *Value) bool {
	for _, op := range inst.GetOperands() {
		if op == v {
			return true
		}
	}
	return false
}

func (b *Builder) newPhi(block *BasicBlock, v *ast.Variable, name string, typ types.Type, inputs []*Value) *PhiInstruction {
	phi := &PhiInstruction{
		ID:       b.nextInstID(),
		Result:   b.createValueIn(block, name, typ),
		Block:    block,
		Variable: v,
		Inputs:   inputs,
	}
	phi.Result.DefInst = phi
	block.Phis = append(block.Phis, phi)
	return phi
}

func (bb *BasicBlock) hasPhi(phi *PhiInstruction) bool {
	for _, p := range bb.Phis {
		if p == phi {
			return true
		}
	}
	return false
}

func (bb *BasicBlock) removePhi(phi *PhiInstruction) {
	for i, p := range bb.Phis {
		if p == phi {
			bb.Phis = append(bb.Phis[:i], bb.Phis[i+1:]...)
			return
		}
	}
}

// sortedVariables orders a table's variables by declaration so that phi
// placement is deterministic
func sortedVariables(table Bindings) []*ast.Variable {
	vars := make([]*ast.Variable, 0, len(table))
	for v := range table {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].ID < vars[j].ID })
	return vars
}
