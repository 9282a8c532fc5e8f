package ir

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractir/internal/ast"
	"contractir/internal/errors"
	"contractir/internal/types"
)

// buildFromYAML loads a unit and builds its first function
func buildFromYAML(t *testing.T, src string) *Function {
	t.Helper()
	unit, err := ast.Load("test.yaml", []byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, unit.Functions)

	fn, err := BuildFunction(unit.Functions[0], 4096)
	require.NoError(t, err)
	require.NoError(t, Verify(fn), "built function must verify:\n%s", Print(fn))
	return fn
}

func blockByPrefix(t *testing.T, fn *Function, prefix string) *BasicBlock {
	t.Helper()
	for _, b := range fn.Blocks {
		if strings.HasPrefix(b.Label, prefix) {
			return b
		}
	}
	t.Fatalf("no block labelled %s* in\n%s", prefix, Print(fn))
	return nil
}

func hasBlockPrefix(fn *Function, prefix string) bool {
	for _, b := range fn.Blocks {
		if strings.HasPrefix(b.Label, prefix) {
			return true
		}
	}
	return false
}

func countInstructions[T Instruction](fn *Function) int {
	n := 0
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if _, ok := inst.(T); ok {
				n++
			}
		}
	}
	return n
}

const helloSource = `
functions:
  - name: test
    returns: [string]
    body:
      - let: {name: s, type: string, value: {string: "Hello!"}}
      - let: {name: t, type: string, value: {string: "from Solang"}}
      - while:
          cond: {binary: "==", left: s, right: t}
          body:
            - assign: {target: s, value: {concat: [s, {string: "a"}]}}
      - return: s
`

func TestBuildLoopPhiForReassignedSlice(t *testing.T) {
	fn := buildFromYAML(t, helloSource)

	header := blockByPrefix(t, fn, "while_header")
	require.Len(t, header.Predecessors, 2)
	require.Len(t, header.Phis, 1, "only s changes in the loop")

	phi := header.Phis[0]
	require.NotNil(t, phi.Variable)
	assert.Equal(t, "s", phi.Variable.Name)
	require.Len(t, phi.Inputs, 2)
	assert.Same(t, fn.Entry, header.Predecessors[0])

	entryConst, ok := phi.Inputs[0].DefInst.(*ConstantInstruction)
	require.True(t, ok, "first input is the initial string")
	assert.Equal(t, types.String(), entryConst.Type)

	concat, ok := phi.Inputs[1].DefInst.(*ConcatInstruction)
	require.True(t, ok, "back-edge input is the concatenation")
	assert.Same(t, phi.Result, concat.Left, "the body reads the phi, not the initial value")

	eq, ok := header.Instructions[0].(*SliceEqInstruction)
	require.True(t, ok)
	assert.Same(t, phi.Result, eq.Left)
	assert.NotSame(t, phi.Result, eq.Right, "t stays bound to its constant")

	exit := blockByPrefix(t, fn, "while_exit")
	ret, ok := exit.Terminator.(*ReturnTerminator)
	require.True(t, ok)
	require.Len(t, ret.Values, 1)
	assert.Same(t, phi.Result, ret.Values[0])

	assert.Equal(t, []*BasicBlock{exit}, fn.SuccessExits)
	assert.Empty(t, fn.FailureExits)
}

func TestBuildIfWithoutChangesHasNoPhi(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: f
    params: [{name: a, type: uint8}]
    returns: [uint8]
    body:
      - let: {name: x, type: uint8, value: 1}
      - if:
          cond: {binary: "<", left: a, right: 10}
          then:
            - let: {name: y, type: uint8, value: 2}
          else:
            - let: {name: z, type: uint8, value: 3}
      - return: x
`)

	merge := blockByPrefix(t, fn, "if_merge")
	assert.Empty(t, merge.Phis, "x is the same on both paths and y, z are out of scope")
	assert.Len(t, merge.Predecessors, 2)
}

func TestBuildIfOneBranchAssigns(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: f
    params: [{name: a, type: uint8}]
    returns: [uint8]
    body:
      - let: {name: x, type: uint8, value: 1}
      - if:
          cond: {binary: "<", left: a, right: 10}
          then:
            - assign: {target: x, value: 2}
      - return: x
`)

	merge := blockByPrefix(t, fn, "if_merge")
	require.Len(t, merge.Phis, 1)
	phi := merge.Phis[0]
	assert.Equal(t, "x", phi.Variable.Name)
	require.Len(t, phi.Inputs, 2)
	assert.Same(t, fn.Entry, merge.Predecessors[0], "the false edge is added first")
	assert.NotSame(t, phi.Inputs[0], phi.Inputs[1])

	ret := merge.Terminator.(*ReturnTerminator)
	assert.Same(t, phi.Result, ret.Values[0])
}

func TestBuildForWithBreakAndContinue(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: sum
    returns: [uint256]
    body:
      - let: {name: total, type: uint256, value: 0}
      - for:
          init:
            - let: {name: i, type: uint256, value: 0}
          cond: {binary: "<", left: i, right: 10}
          post:
            - assign: {target: i, op: "+=", value: 1}
          body:
            - if:
                cond: {binary: "==", left: i, right: 5}
                then: [break]
            - if:
                cond: {binary: "==", left: i, right: 2}
                then: [continue]
            - assign: {target: total, op: "+=", value: i}
      - return: total
`)

	header := blockByPrefix(t, fn, "for_header")
	assert.Len(t, header.Phis, 2, "both i and total change in the loop")
	for _, phi := range header.Phis {
		assert.Len(t, phi.Inputs, len(header.Predecessors))
	}

	post := blockByPrefix(t, fn, "for_post")
	require.Len(t, post.Predecessors, 2, "continue and the end of the body")
	require.Len(t, post.Phis, 1)
	assert.Equal(t, "total", post.Phis[0].Variable.Name)

	exit := blockByPrefix(t, fn, "for_exit")
	assert.Len(t, exit.Predecessors, 2, "loop condition and break")
	assert.Empty(t, exit.Phis, "break leaves with the header values")

	assert.Equal(t, 2, countInstructions[*CheckedArithInstruction](fn), "i += 1 and total += i are checked")
}

func TestBuildNestedLoopsWithInnerBreak(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: nested
    returns: [string]
    body:
      - let: {name: s, type: string, value: {string: ""}}
      - let: {name: i, type: uint8, value: 0}
      - while:
          cond: {binary: "<", left: i, right: 3}
          body:
            - let: {name: j, type: uint8, value: 0}
            - while:
                cond: {binary: "<", left: j, right: 4}
                body:
                  - if:
                      cond: {binary: "==", left: j, right: 1}
                      then: [break]
                  - assign: {target: j, op: "+=", value: 1}
            - assign: {target: s, value: {concat: [s, {string: "x"}]}}
            - assign: {target: i, op: "+=", value: 1}
      - return: s
`)

	outer := fn.Entry.Terminator.(*JumpTerminator).Target
	outerBody := outer.Terminator.(*BranchTerminator).TrueBlock
	inner := outerBody.Terminator.(*JumpTerminator).Target
	innerExit := inner.Terminator.(*BranchTerminator).FalseBlock

	names := func(b *BasicBlock) []string {
		var out []string
		for _, phi := range b.Phis {
			out = append(out, phi.Variable.Name)
		}
		return out
	}
	assert.ElementsMatch(t, []string{"s", "i"}, names(outer), "j is scoped to the outer body")
	assert.Equal(t, []string{"j"}, names(inner), "s and i are not written by the inner loop")
	assert.Len(t, inner.Predecessors, 2)

	require.Len(t, innerExit.Predecessors, 2, "inner condition and break")
	assert.Empty(t, innerExit.Phis, "both edges carry the inner header values")

	require.Len(t, outer.Predecessors, 2)
	assert.Same(t, fn.Entry, outer.Predecessors[0])
	assert.Same(t, innerExit, outer.Predecessors[1], "the outer back edge leaves from the inner exit")

	var sPhi *PhiInstruction
	for _, phi := range outer.Phis {
		if phi.Variable.Name == "s" {
			sPhi = phi
		}
	}
	require.NotNil(t, sPhi)
	require.Len(t, sPhi.Inputs, 2)
	require.Equal(t, 1, countInstructions[*ConcatInstruction](fn))
	for _, inst := range innerExit.Instructions {
		if concat, ok := inst.(*ConcatInstruction); ok {
			assert.Same(t, sPhi.Result, concat.Left,
				"s read after the inner loop is the outer header value:\n%s", Print(fn))
		}
	}

	for _, b := range fn.Blocks {
		for _, phi := range b.Phis {
			assert.False(t, phi.Placeholder, "%s in %s", phi.Variable.Name, b.Label)
		}
	}
}

func TestBuildAliasedLoopVariableCascade(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: alias
    returns: [string]
    body:
      - let: {name: x, type: string, value: {string: "v"}}
      - let: {name: y, type: string, value: x}
      - let: {name: i, type: uint8, value: 0}
      - while:
          cond: {binary: "<", left: i, right: 2}
          body:
            - assign: {target: i, op: "+=", value: 1}
            - if:
                cond: {binary: "==", left: i, right: 1}
                then:
                  - assign: {target: x, value: y}
                else:
                  - assign: {target: x, value: {concat: [x, {string: "z"}]}}
      - return: x
`)

	header := blockByPrefix(t, fn, "while_header")
	var names []string
	for _, phi := range header.Phis {
		names = append(names, phi.Variable.Name)
	}
	assert.ElementsMatch(t, []string{"x", "i"}, names, "y is never written in the loop")

	merge := blockByPrefix(t, fn, "if_merge")
	require.Len(t, merge.Phis, 1)
	phi := merge.Phis[0]
	assert.Equal(t, "x", phi.Variable.Name)
	require.Len(t, phi.Inputs, 2)
	_, ok := phi.Inputs[0].DefInst.(*ConstantInstruction)
	assert.True(t, ok, "the then branch reads y as the initial constant:\n%s", Print(fn))
	_, ok = phi.Inputs[1].DefInst.(*ConcatInstruction)
	assert.True(t, ok)
}

func TestBuildDoWhile(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: f
    returns: [uint8]
    body:
      - let: {name: n, type: uint8, value: 0}
      - do:
          body:
            - assign: {target: n, op: "+=", value: 1}
          cond: {binary: "<", left: n, right: 3}
      - return: n
`)

	body := blockByPrefix(t, fn, "do_body")
	require.Len(t, body.Predecessors, 2)
	require.Len(t, body.Phis, 1)
	cond := blockByPrefix(t, fn, "do_cond")
	assert.Same(t, cond, body.Predecessors[1])

	exit := blockByPrefix(t, fn, "do_exit")
	ret := exit.Terminator.(*ReturnTerminator)
	_, ok := ret.Values[0].DefInst.(*CheckedArithInstruction)
	assert.True(t, ok, "the exit sees the incremented value")
}

func TestBuildWrappingArithmeticIsUnchecked(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: f
    params: [{name: a, type: uint8 wrapping}]
    returns: [uint8 wrapping]
    body:
      - return: {binary: "+", left: a, right: 255}
`)
	assert.Equal(t, 0, countInstructions[*CheckedArithInstruction](fn))
	assert.Equal(t, 1, countInstructions[*BinaryInstruction](fn))
}

func TestBuildShortCircuit(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: inRange
    params: [{name: a, type: uint8}]
    returns: [bool, bool]
    body:
      - return:
          - {binary: "&&", left: {binary: ">", left: a, right: 2}, right: {binary: "<", left: a, right: 10}}
          - {binary: "||", left: {binary: "<", left: a, right: 2}, right: {binary: ">", left: a, right: 10}}
`)

	merges := 0
	for _, b := range fn.Blocks {
		if !strings.HasPrefix(b.Label, "logic_merge") {
			continue
		}
		merges++
		require.Len(t, b.Phis, 1)
		phi := b.Phis[0]
		assert.Nil(t, phi.Variable, "expression phis have no variable")
		assert.Len(t, phi.Inputs, 2)
		assert.Equal(t, types.Bool(), phi.Result.Type)
		assert.True(t, hasBlockPrefix(fn, "logic_rhs"))
	}
	assert.Equal(t, 2, merges)
}

func TestBuildConditionalExpression(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: pick
    params: [{name: c, type: bool}]
    returns: [string]
    body:
      - return: {cond: c, then: {string: "yes"}, else: {string: "no"}}
`)

	merge := blockByPrefix(t, fn, "cond_merge")
	require.Len(t, merge.Phis, 1)
	assert.True(t, strings.HasPrefix(merge.Phis[0].Result.Name, "select_"))
	assert.Equal(t, types.String(), merge.Phis[0].Result.Type)
}

func TestBuildPrunesDeadCode(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: f
    params: [{name: a, type: bool}]
    returns: [uint8]
    body:
      - if:
          cond: a
          then:
            - return: 1
          else:
            - revert: "no"
      - let: {name: dead, type: uint8, value: 7}
      - return: dead
`)

	assert.False(t, hasBlockPrefix(fn, "if_merge"), "a merge nobody reaches is pruned")
	assert.Len(t, fn.SuccessExits, 1)
	assert.Len(t, fn.FailureExits, 1)
	for i, b := range fn.Blocks {
		assert.Equal(t, i, b.Index)
	}
}

func TestBuildRequire(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: f
    params: [{name: a, type: uint8}]
    returns: [uint8]
    body:
      - require: {cond: {binary: ">", left: a, right: 0}, reason: "zero"}
      - return: a
`)

	fail := blockByPrefix(t, fn, "require_fail")
	revert, ok := fail.Terminator.(*RevertTerminator)
	require.True(t, ok)
	assert.Equal(t, "zero", revert.Reason)

	ok2 := blockByPrefix(t, fn, "require_ok")
	_, isAssume := ok2.Instructions[0].(*AssumeInstruction)
	assert.True(t, isAssume)
}

func TestBuildImplicitReturnOfZeroValues(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: f
    returns: [uint8, string]
    body: []
`)
	ret, ok := fn.Entry.Terminator.(*ReturnTerminator)
	require.True(t, ok)
	assert.Len(t, ret.Values, 2)
}

func TestBuildUnboundVariable(t *testing.T) {
	ghost := &ast.Variable{ID: 99, Name: "ghost", Type: types.Uint(8)}
	fn := &ast.Function{
		Name:    "broken",
		Returns: []types.Type{types.Uint(8)},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Values: []ast.Expr{&ast.RefExpr{Var: ghost}}},
		}},
	}

	_, err := BuildFunction(fn, 1024)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.UnreachableBindingState))

	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, "broken", e.Function)
	assert.Contains(t, e.Detail, "ghost")
}

func TestBuildBreakOutsideLoop(t *testing.T) {
	fn := &ast.Function{
		Name: "f",
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.BreakStmt{}}},
	}

	_, err := BuildFunction(fn, 1024)
	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, errors.KindBrokenInvariant, e.Kind)
	assert.Equal(t, errors.PhaseBuild, e.Phase)
}

func TestBuildHeapLimitForConstants(t *testing.T) {
	unit, err := ast.Load("big.yaml", []byte(`
functions:
  - name: f
    returns: [string]
    body:
      - return: {string: "this literal does not fit"}
`))
	require.NoError(t, err)

	_, err = BuildFunction(unit.Functions[0], 8)
	assert.True(t, stderrors.Is(err, errors.AllocationExhausted))
}
