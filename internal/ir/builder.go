package ir

import (
	"fmt"

	"contractir/internal/ast"
	"contractir/internal/errors"
	"contractir/internal/heap"
	"contractir/internal/types"
	"contractir/internal/value"
)

// Builder converts typed functions to IR
type Builder struct {
	heapLimit int

	fn           *Function
	currentBlock *BasicBlock // nil while the statements being walked are unreachable
	loops        []*loopFrame
	valueCounter int
	blockCounter int
	instCounter  int
}

// loopFrame holds the forward targets of the innermost enclosing loop
type loopFrame struct {
	continueTarget *BasicBlock
	exit           *BasicBlock
}

// NewBuilder creates a new IR builder
func NewBuilder(heapLimit int) *Builder {
	return &Builder{heapLimit: heapLimit}
}

// Build converts one typed function to SSA form. Blocks left without
// predecessors by dead code are pruned before the function is returned.
func (b *Builder) Build(src *ast.Function) (*Function, error) {
	b.fn = &Function{
		Name:    src.Name,
		Returns: src.Returns,
		Heap:    heap.New(b.heapLimit),
	}
	b.loops = nil
	b.valueCounter = 0
	b.blockCounter = 0
	b.instCounter = 0

	entry := b.createBlock("entry")
	entry.In = Bindings{}
	entry.Out = Bindings{}
	b.fn.Entry = entry
	b.currentBlock = entry

	for _, param := range src.Params {
		paramValue := b.createValue(param.Var.Name, param.Var.Type)
		b.fn.Params = append(b.fn.Params, &Parameter{
			Name:  param.Var.Name,
			Type:  param.Var.Type,
			Value: paramValue,
		})
		entry.In[param.Var] = paramValue
		entry.Out[param.Var] = paramValue
	}

	if err := b.buildBlock(src.Body); err != nil {
		return nil, errors.WithFunction(err, src.Name)
	}

	// falling off the end returns the zero values of the declared results
	if b.currentBlock != nil {
		values := make([]*Value, len(src.Returns))
		for i, t := range src.Returns {
			values[i] = b.buildConstant(value.Zero(t), t)
		}
		b.terminateReturn(values)
	}

	if _, err := (&PruneUnreachable{}).Apply(b.fn); err != nil {
		return nil, errors.WithFunction(err, src.Name)
	}
	b.fn.NumValues = b.valueCounter

	stats := b.fn.Heap.Stats()
	log.Debug("built function", "function", b.fn.Name, "blocks", len(b.fn.Blocks),
		"values", b.fn.NumValues, "constant_bytes", stats.Used)
	return b.fn, nil
}

// buildBlock processes a block of statements. Statements after a return,
// revert, break or continue are unreachable and not lowered.
func (b *Builder) buildBlock(block *ast.Block) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Stmts {
		if b.currentBlock == nil {
			log.Debug("skipping unreachable statements", "function", b.fn.Name, "line", stmt.NodePos().Line)
			return nil
		}
		if err := b.buildStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// buildStatement processes individual statements
func (b *Builder) buildStatement(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return b.buildVarDecl(s)
	case *ast.AssignStmt:
		return b.buildAssignStatement(s)
	case *ast.PushStmt:
		return b.buildPushStatement(s)
	case *ast.IfStmt:
		return b.buildIfStatement(s)
	case *ast.WhileStmt:
		return b.buildWhileStatement(s)
	case *ast.ForStmt:
		return b.buildForStatement(s)
	case *ast.DoWhileStmt:
		return b.buildDoWhileStatement(s)
	case *ast.BreakStmt:
		return b.buildBreak(s.Pos, false)
	case *ast.ContinueStmt:
		return b.buildBreak(s.Pos, true)
	case *ast.ReturnStmt:
		return b.buildReturnStatement(s)
	case *ast.RevertStmt:
		b.terminateRevert(s.Reason)
		return nil
	case *ast.RequireStmt:
		return b.buildRequireStatement(s)
	case *ast.ExprStmt:
		_, err := b.buildExpression(s.Expr)
		return err
	case *ast.Block:
		return b.buildBlock(s)
	}
	return errors.New(errors.PhaseBuild, errors.KindUnsupported).
		At(stmt.NodePos()).
		Detail("statement %s", stmt.NodeType()).
		Build()
}

// buildVarDecl binds the variable to its initializer, or to the zero value
func (b *Builder) buildVarDecl(decl *ast.VarDecl) error {
	var initValue *Value
	if decl.Value == nil {
		initValue = b.buildConstant(value.Zero(decl.Var.Type), decl.Var.Type)
	} else {
		var err error
		if initValue, err = b.buildExpression(decl.Value); err != nil {
			return err
		}
	}
	b.writeVariable(decl.Var, initValue)
	return nil
}

// buildAssignStatement binds a fresh value to the target; earlier values are
// never mutated
func (b *Builder) buildAssignStatement(assign *ast.AssignStmt) error {
	rightValue, err := b.buildExpression(assign.Value)
	if err != nil {
		return err
	}

	if assign.Operator != ast.ASSIGN {
		currentValue, err := b.readVariable(assign.Target, assign.Pos)
		if err != nil {
			return err
		}
		if types.IsSlice(assign.Target.Type) {
			rightValue = b.emitConcat(currentValue, rightValue)
		} else {
			op := value.Op(assign.Operator.BinaryOp())
			rightValue = b.emitArith(op, assign.Target.Type, currentValue, rightValue, assign.Target.Name)
		}
	}

	b.writeVariable(assign.Target, rightValue)
	return nil
}

// buildPushStatement appends one element and rebinds the target
func (b *Builder) buildPushStatement(push *ast.PushStmt) error {
	target, err := b.readVariable(push.Target, push.Pos)
	if err != nil {
		return err
	}
	element, err := b.buildExpression(push.Value)
	if err != nil {
		return err
	}
	result := b.createValue(push.Target.Name, push.Target.Type)
	b.addInstruction(&PushInstruction{
		ID:      b.nextInstID(),
		Result:  result,
		Block:   b.currentBlock,
		Target:  target,
		Element: element,
	})
	b.writeVariable(push.Target, result)
	return nil
}

// buildIfStatement lowers if/else; both branch exits feed the merge block
func (b *Builder) buildIfStatement(stmt *ast.IfStmt) error {
	condition, err := b.buildExpression(stmt.Cond)
	if err != nil {
		return err
	}

	thenBlock := b.createBlock("if_then")
	mergeBlock := b.createBlock("if_merge")
	elseBlock := mergeBlock
	if stmt.Else != nil {
		elseBlock = b.createBlock("if_else")
	}
	b.terminateBranch(condition, thenBlock, elseBlock)

	b.startBlock(thenBlock)
	if err := b.buildBlock(stmt.Then); err != nil {
		return err
	}
	b.terminateJump(mergeBlock)

	if stmt.Else != nil {
		b.startBlock(elseBlock)
		if err := b.buildBlock(stmt.Else); err != nil {
			return err
		}
		b.terminateJump(mergeBlock)
	}

	b.startBlock(mergeBlock)
	return nil
}

// buildWhileStatement lowers header (condition), body and exit blocks
func (b *Builder) buildWhileStatement(stmt *ast.WhileStmt) error {
	header := b.createBlock("while_header")
	b.terminateJump(header)
	b.OpenLoop(header)
	b.enterBlock(header)

	condition, err := b.buildExpression(stmt.Cond)
	if err != nil {
		return err
	}
	body := b.createBlock("while_body")
	exit := b.createBlock("while_exit")
	b.terminateBranch(condition, body, exit)

	b.startBlock(body)
	if err := b.buildLoopBody(stmt.Body, header, exit); err != nil {
		return err
	}
	b.terminateJump(header)

	if err := b.CloseLoop(header); err != nil {
		return err
	}
	b.startBlock(exit)
	return nil
}

// buildForStatement lowers init, header (condition), body, post and exit.
// continue jumps to the post block.
func (b *Builder) buildForStatement(stmt *ast.ForStmt) error {
	for _, init := range stmt.Init {
		if err := b.buildStatement(init); err != nil {
			return err
		}
	}

	header := b.createBlock("for_header")
	b.terminateJump(header)
	b.OpenLoop(header)
	b.enterBlock(header)

	body := b.createBlock("for_body")
	exit := b.createBlock("for_exit")
	post := b.createBlock("for_post")
	if stmt.Cond != nil {
		condition, err := b.buildExpression(stmt.Cond)
		if err != nil {
			return err
		}
		b.terminateBranch(condition, body, exit)
	} else {
		b.terminateJump(body)
	}

	b.startBlock(body)
	if err := b.buildLoopBody(stmt.Body, post, exit); err != nil {
		return err
	}
	b.terminateJump(post)

	b.startBlock(post)
	for _, s := range stmt.Post {
		if b.currentBlock == nil {
			break
		}
		if err := b.buildStatement(s); err != nil {
			return err
		}
	}
	b.terminateJump(header)

	if err := b.CloseLoop(header); err != nil {
		return err
	}
	b.startBlock(exit)
	return nil
}

// buildDoWhileStatement lowers a body-first loop whose header is the body
func (b *Builder) buildDoWhileStatement(stmt *ast.DoWhileStmt) error {
	header := b.createBlock("do_body")
	b.terminateJump(header)
	b.OpenLoop(header)
	b.enterBlock(header)

	cond := b.createBlock("do_cond")
	exit := b.createBlock("do_exit")
	if err := b.buildLoopBody(stmt.Body, cond, exit); err != nil {
		return err
	}
	b.terminateJump(cond)

	b.startBlock(cond)
	if b.currentBlock != nil {
		condition, err := b.buildExpression(stmt.Cond)
		if err != nil {
			return err
		}
		b.terminateBranch(condition, header, exit)
	}

	if err := b.CloseLoop(header); err != nil {
		return err
	}
	b.startBlock(exit)
	return nil
}

func (b *Builder) buildLoopBody(body *ast.Block, continueTarget, exit *BasicBlock) error {
	b.loops = append(b.loops, &loopFrame{continueTarget: continueTarget, exit: exit})
	defer func() { b.loops = b.loops[:len(b.loops)-1] }()
	return b.buildBlock(body)
}

// buildBreak jumps to the innermost loop's exit, or to its continue target
func (b *Builder) buildBreak(pos ast.Position, isContinue bool) error {
	if len(b.loops) == 0 {
		what := "break"
		if isContinue {
			what = "continue"
		}
		return errors.New(errors.PhaseBuild, errors.KindBrokenInvariant).
			Code(errors.ErrorBrokenInvariant).
			At(pos).
			Detail("%s outside of a loop", what).
			Build()
	}
	frame := b.loops[len(b.loops)-1]
	if isContinue {
		b.terminateJump(frame.continueTarget)
	} else {
		b.terminateJump(frame.exit)
	}
	return nil
}

// buildRequireStatement creates the branch + revert pattern
func (b *Builder) buildRequireStatement(stmt *ast.RequireStmt) error {
	condition, err := b.buildExpression(stmt.Cond)
	if err != nil {
		return err
	}

	successBlock := b.createBlock("require_ok")
	revertBlock := b.createBlock("require_fail")
	b.terminateBranch(condition, successBlock, revertBlock)

	b.startBlock(revertBlock)
	b.terminateRevert(stmt.Reason)

	// path fact for later passes
	b.startBlock(successBlock)
	b.addInstruction(&AssumeInstruction{
		ID:        b.nextInstID(),
		Block:     b.currentBlock,
		Predicate: condition,
	})
	return nil
}

// buildReturnStatement creates return terminators
func (b *Builder) buildReturnStatement(stmt *ast.ReturnStmt) error {
	values := make([]*Value, len(stmt.Values))
	for i, e := range stmt.Values {
		v, err := b.buildExpression(e)
		if err != nil {
			return err
		}
		values[i] = v
	}
	b.terminateReturn(values)
	return nil
}

// buildExpression converts expressions to SSA form
func (b *Builder) buildExpression(expr ast.Expr) (*Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		s, err := value.FromBig(e.Type, e.Value)
		if err != nil {
			return nil, annotate(err, e.Pos)
		}
		return b.buildConstant(s, e.Type), nil

	case *ast.BoolLit:
		return b.buildConstant(value.Bool(e.Value), types.Bool()), nil

	case *ast.AddressLit:
		return b.buildConstant(value.Address(e.Value), types.Address()), nil

	case *ast.StringLit:
		slice, err := b.fn.Heap.Store(e.Value)
		if err != nil {
			return nil, annotate(err, e.Pos)
		}
		return b.buildConstant(slice, e.Type), nil

	case *ast.RefExpr:
		return b.readVariable(e.Var, e.Pos)

	case *ast.UnaryExpr:
		operand, err := b.buildExpression(e.Value)
		if err != nil {
			return nil, err
		}
		result := b.createValue(opName(value.Op(e.Op)), e.Type)
		b.addInstruction(&UnaryInstruction{
			ID:      b.nextInstID(),
			Result:  result,
			Block:   b.currentBlock,
			Op:      value.Op(e.Op),
			Operand: operand,
		})
		return result, nil

	case *ast.BinaryExpr:
		return b.buildBinaryOp(e)

	case *ast.ConcatExpr:
		left, right, err := b.buildOperands(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return b.emitConcat(left, right), nil

	case *ast.LenExpr:
		return b.buildLength(e)

	case *ast.IndexExpr:
		target, index, err := b.buildOperands(e.Target, e.Index)
		if err != nil {
			return nil, err
		}
		result := b.createValue("elem", e.Type)
		b.addInstruction(&IndexInstruction{
			ID:     b.nextInstID(),
			Result: result,
			Block:  b.currentBlock,
			Target: target,
			Index:  index,
		})
		return result, nil

	case *ast.SubstringExpr:
		target, start, err := b.buildOperands(e.Target, e.Start)
		if err != nil {
			return nil, err
		}
		end, err := b.buildExpression(e.End)
		if err != nil {
			return nil, err
		}
		result := b.createValue("substr", e.Type)
		b.addInstruction(&SubstringInstruction{
			ID:     b.nextInstID(),
			Result: result,
			Block:  b.currentBlock,
			Target: target,
			Start:  start,
			End:    end,
		})
		return result, nil

	case *ast.TupleExpr:
		return b.buildTuple(e)

	case *ast.CondExpr:
		return b.buildConditional(e)

	case *ast.CastExpr:
		operand, err := b.buildExpression(e.Value)
		if err != nil {
			return nil, err
		}
		result := b.createValue("cast", e.Type)
		b.addInstruction(&CastInstruction{
			ID:      b.nextInstID(),
			Result:  result,
			Block:   b.currentBlock,
			Operand: operand,
		})
		return result, nil
	}

	return nil, errors.New(errors.PhaseBuild, errors.KindUnsupported).
		At(expr.NodePos()).
		Detail("expression %s", expr.NodeType()).
		Build()
}

// buildBinaryOp lowers arithmetic, comparisons and short-circuit logic
func (b *Builder) buildBinaryOp(e *ast.BinaryExpr) (*Value, error) {
	if e.Op == "&&" || e.Op == "||" {
		return b.buildLogical(e)
	}

	left, right, err := b.buildOperands(e.Left, e.Right)
	if err != nil {
		return nil, err
	}
	op := value.Op(e.Op)

	if op.IsComparison() && !types.IsScalar(left.Type) {
		result := b.createValue(opName(op), types.Bool())
		b.addInstruction(&SliceEqInstruction{
			ID:     b.nextInstID(),
			Result: result,
			Block:  b.currentBlock,
			Negate: op == value.OpNe,
			Left:   left,
			Right:  right,
		})
		return result, nil
	}
	return b.emitArith(op, e.Type, left, right, opName(op)), nil
}

// emitArith uses checked arithmetic unless the type wraps
func (b *Builder) emitArith(op value.Op, typ types.Type, left, right *Value, name string) *Value {
	result := b.createValue(name, typ)
	if it, ok := typ.(*types.IntType); ok && !it.Wrapping && op.IsChecked() {
		b.addInstruction(&CheckedArithInstruction{
			ID:     b.nextInstID(),
			Result: result,
			Block:  b.currentBlock,
			Op:     op,
			Left:   left,
			Right:  right,
		})
		return result
	}
	b.addInstruction(&BinaryInstruction{
		ID:     b.nextInstID(),
		Result: result,
		Block:  b.currentBlock,
		Op:     op,
		Left:   left,
		Right:  right,
	})
	return result
}

func (b *Builder) emitConcat(left, right *Value) *Value {
	result := b.createValue("concat", left.Type)
	b.addInstruction(&ConcatInstruction{
		ID:     b.nextInstID(),
		Result: result,
		Block:  b.currentBlock,
		Left:   left,
		Right:  right,
	})
	return result
}

// buildLogical evaluates the right operand only when the left one does not
// decide the result
func (b *Builder) buildLogical(e *ast.BinaryExpr) (*Value, error) {
	left, err := b.buildExpression(e.Left)
	if err != nil {
		return nil, err
	}

	rhs := b.createBlock("logic_rhs")
	merge := b.createBlock("logic_merge")
	if e.Op == "&&" {
		b.terminateBranch(left, rhs, merge)
	} else {
		b.terminateBranch(left, merge, rhs)
	}

	b.startBlock(rhs)
	right, err := b.buildExpression(e.Right)
	if err != nil {
		return nil, err
	}
	b.terminateJump(merge)

	b.startBlock(merge)
	return b.mergeValue(merge, []*Value{left, right}, types.Bool(), "logic"), nil
}

// buildConditional lowers cond ? then : else to a diamond and a phi
func (b *Builder) buildConditional(e *ast.CondExpr) (*Value, error) {
	condition, err := b.buildExpression(e.Cond)
	if err != nil {
		return nil, err
	}

	thenBlock := b.createBlock("cond_then")
	elseBlock := b.createBlock("cond_else")
	merge := b.createBlock("cond_merge")
	b.terminateBranch(condition, thenBlock, elseBlock)

	b.startBlock(thenBlock)
	thenValue, err := b.buildExpression(e.Then)
	if err != nil {
		return nil, err
	}
	b.terminateJump(merge)

	b.startBlock(elseBlock)
	elseValue, err := b.buildExpression(e.Else)
	if err != nil {
		return nil, err
	}
	b.terminateJump(merge)

	b.startBlock(merge)
	return b.mergeValue(merge, []*Value{thenValue, elseValue}, e.Type, "select"), nil
}

// buildLength counts elements; the length of a fixed-size type is a constant
func (b *Builder) buildLength(e *ast.LenExpr) (*Value, error) {
	operand, err := b.buildExpression(e.Value)
	if err != nil {
		return nil, err
	}

	switch t := operand.Type.(type) {
	case *types.FixedBytesType:
		return b.buildConstant(value.Uint(256, uint64(t.Size)), types.Uint(256)), nil
	case *types.TupleType:
		return b.buildConstant(value.Uint(256, uint64(len(t.Elements))), types.Uint(256)), nil
	case *types.ArrayType:
		if t.Length != types.DynamicLength {
			return b.buildConstant(value.Uint(256, uint64(t.Length)), types.Uint(256)), nil
		}
	}

	result := b.createValue("len", types.Uint(256))
	b.addInstruction(&LenInstruction{
		ID:      b.nextInstID(),
		Result:  result,
		Block:   b.currentBlock,
		Operand: operand,
	})
	return result, nil
}

func (b *Builder) buildTuple(e *ast.TupleExpr) (*Value, error) {
	elements := make([]*Value, len(e.Elements))
	for i, elem := range e.Elements {
		v, err := b.buildExpression(elem)
		if err != nil {
			return nil, err
		}
		elements[i] = v
	}
	result := b.createValue("tuple", e.Type)
	b.addInstruction(&TupleInstruction{
		ID:       b.nextInstID(),
		Result:   result,
		Block:    b.currentBlock,
		Elements: elements,
	})
	return result, nil
}

func (b *Builder) buildOperands(left, right ast.Expr) (*Value, *Value, error) {
	l, err := b.buildExpression(left)
	if err != nil {
		return nil, nil, err
	}
	r, err := b.buildExpression(right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// buildConstant creates constant instructions
func (b *Builder) buildConstant(v value.Value, typ types.Type) *Value {
	result := b.createValue("const", typ)
	b.addInstruction(&ConstantInstruction{
		ID:     b.nextInstID(),
		Result: result,
		Block:  b.currentBlock,
		Value:  v,
		Type:   typ,
	})
	return result
}

// Terminators

func (b *Builder) terminateJump(target *BasicBlock) {
	if b.currentBlock == nil {
		return
	}
	b.currentBlock.Terminator = &JumpTerminator{
		ID:     b.nextInstID(),
		Block:  b.currentBlock,
		Target: target,
	}
	b.addEdge(b.currentBlock, target)
	b.currentBlock = nil
}

func (b *Builder) terminateBranch(condition *Value, trueBlock, falseBlock *BasicBlock) {
	b.currentBlock.Terminator = &BranchTerminator{
		ID:         b.nextInstID(),
		Block:      b.currentBlock,
		Condition:  condition,
		TrueBlock:  trueBlock,
		FalseBlock: falseBlock,
	}
	b.addEdge(b.currentBlock, trueBlock)
	b.addEdge(b.currentBlock, falseBlock)
	b.currentBlock = nil
}

func (b *Builder) terminateReturn(values []*Value) {
	b.currentBlock.Terminator = &ReturnTerminator{
		ID:     b.nextInstID(),
		Block:  b.currentBlock,
		Values: values,
	}
	b.fn.SuccessExits = append(b.fn.SuccessExits, b.currentBlock)
	b.currentBlock = nil
}

func (b *Builder) terminateRevert(reason string) {
	b.currentBlock.Terminator = &RevertTerminator{
		ID:     b.nextInstID(),
		Block:  b.currentBlock,
		Reason: reason,
	}
	b.fn.FailureExits = append(b.fn.FailureExits, b.currentBlock)
	b.currentBlock = nil
}

// SSA construction helpers

// startBlock merges the predecessors' tables into block and makes it current.
// A block nobody jumps to leaves the builder in unreachable mode.
func (b *Builder) startBlock(block *BasicBlock) {
	b.Merge(block)
	if len(block.Predecessors) == 0 {
		b.currentBlock = nil
		return
	}
	b.enterBlock(block)
}

// enterBlock makes block current and moves it to the end of the layout
func (b *Builder) enterBlock(block *BasicBlock) {
	blocks := b.fn.Blocks
	for i, bb := range blocks {
		if bb == block {
			b.fn.Blocks = append(append(blocks[:i:i], blocks[i+1:]...), block)
			break
		}
	}
	b.currentBlock = block
}

// createValue creates a new SSA value in the current block
func (b *Builder) createValue(name string, typ types.Type) *Value {
	return b.createValueIn(b.currentBlock, name, typ)
}

func (b *Builder) createValueIn(block *BasicBlock, name string, typ types.Type) *Value {
	// Ensure SSA form by making each value name unique with a counter
	v := &Value{
		ID:       b.valueCounter,
		Name:     fmt.Sprintf("%s_%d", name, b.valueCounter),
		Type:     typ,
		DefBlock: block,
	}
	b.valueCounter++
	return v
}

// createBlock creates a new basic block
func (b *Builder) createBlock(label string) *BasicBlock {
	block := &BasicBlock{
		Index:        len(b.fn.Blocks),
		Label:        fmt.Sprintf("%s_%d", label, b.blockCounter),
		Instructions: []Instruction{},
		Predecessors: []*BasicBlock{},
		Successors:   []*BasicBlock{},
	}
	b.blockCounter++
	b.fn.Blocks = append(b.fn.Blocks, block)
	return block
}

func (b *Builder) addEdge(from, to *BasicBlock) {
	from.Successors = append(from.Successors, to)
	to.Predecessors = append(to.Predecessors, from)
}

// addInstruction adds an instruction to the current block
func (b *Builder) addInstruction(inst Instruction) {
	if r := inst.GetResult(); r != nil {
		r.DefInst = inst
	}
	b.currentBlock.Instructions = append(b.currentBlock.Instructions, inst)
}

// writeVariable binds a variable in the current block's table
func (b *Builder) writeVariable(variable *ast.Variable, v *Value) {
	b.currentBlock.Out[variable] = v
}

// readVariable returns the value bound to a variable on entry to the current
// point. A read with no reaching definition is fatal for the function.
func (b *Builder) readVariable(variable *ast.Variable, pos ast.Position) (*Value, error) {
	if v, ok := b.currentBlock.Out[variable]; ok {
		return v, nil
	}
	return nil, errors.Unbound(b.fn.Name, variable.Name, pos)
}

func (b *Builder) nextInstID() int {
	id := b.instCounter
	b.instCounter++
	return id
}

// annotate attaches a source position to structured errors lacking one
func annotate(err error, pos ast.Position) error {
	e, ok := err.(*errors.Error)
	if !ok || e.Position.Line != 0 {
		return err
	}
	annotated := *e
	annotated.Position = pos
	return &annotated
}

var opNames = map[value.Op]string{
	value.OpAdd: "add", value.OpSub: "sub", value.OpMul: "mul", value.OpDiv: "div",
	value.OpMod: "mod", value.OpExp: "exp", value.OpAnd: "and", value.OpOr: "or",
	value.OpXor: "xor", value.OpShl: "shl", value.OpShr: "shr",
	value.OpEq: "eq", value.OpNe: "ne", value.OpLt: "lt", value.OpLe: "le",
	value.OpGt: "gt", value.OpGe: "ge",
	value.OpNeg: "neg", value.OpNot: "not", value.OpLogNot: "lnot",
}

func opName(op value.Op) string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "op"
}
