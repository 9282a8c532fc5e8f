package ir

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractir/internal/errors"
	"contractir/internal/types"
	"contractir/internal/value"
)

func requireBroken(t *testing.T, err error, detail string) {
	t.Helper()
	var e *errors.Error
	require.True(t, stderrors.As(err, &e), "expected a structured error, got %v", err)
	assert.Equal(t, errors.KindBrokenInvariant, e.Kind)
	assert.Equal(t, errors.PhaseVerify, e.Phase)
	assert.Contains(t, e.Detail, detail)
}

func TestVerifyMissingTerminator(t *testing.T) {
	fn := buildFromYAML(t, helloSource)
	exit := blockByPrefix(t, fn, "while_exit")
	exit.Terminator = nil

	_, err := (&CheckStructure{}).Apply(fn)
	requireBroken(t, err, "no terminator")
}

func TestVerifyAsymmetricEdge(t *testing.T) {
	fn := buildFromYAML(t, helloSource)
	header := blockByPrefix(t, fn, "while_header")
	header.Predecessors = header.Predecessors[:1]
	header.Phis[0].Inputs = header.Phis[0].Inputs[:1]

	_, err := (&CheckStructure{}).Apply(fn)
	requireBroken(t, err, "missing from predecessors")
}

func TestVerifyPlaceholderSurvives(t *testing.T) {
	fn := buildFromYAML(t, helloSource)
	header := blockByPrefix(t, fn, "while_header")
	header.Phis[0].Placeholder = true

	err := Verify(fn)
	requireBroken(t, err, "placeholder")
}

func TestVerifyPhiArity(t *testing.T) {
	fn := buildFromYAML(t, helloSource)
	phi := blockByPrefix(t, fn, "while_header").Phis[0]
	phi.Inputs = append(phi.Inputs, phi.Inputs[0])

	_, err := (&CheckPhis{}).Apply(fn)
	requireBroken(t, err, "3 inputs for 2 predecessors")
}

func TestVerifyTrivialPhi(t *testing.T) {
	fn := buildFromYAML(t, helloSource)
	phi := blockByPrefix(t, fn, "while_header").Phis[0]
	phi.Inputs[1] = phi.Inputs[0]

	_, err := (&CheckPhis{}).Apply(fn)
	requireBroken(t, err, "merges identical values")
}

func TestVerifyUndefinedOperand(t *testing.T) {
	fn := buildFromYAML(t, helloSource)
	exit := blockByPrefix(t, fn, "while_exit")
	stray := &Value{ID: 1000, Name: "stray", Type: types.String()}
	exit.Terminator.(*ReturnTerminator).Values[0] = stray

	_, err := (&CheckDefinitions{}).Apply(fn)
	requireBroken(t, err, "undefined value")
}

func TestPruneUnreachableDropsOrphans(t *testing.T) {
	fn := buildFromYAML(t, helloSource)
	before := len(fn.Blocks)

	orphan := &BasicBlock{Label: "orphan", Index: before}
	orphan.Terminator = &JumpTerminator{Block: orphan, Target: fn.Entry}
	fn.Blocks = append(fn.Blocks, orphan)

	_, err := (&CheckStructure{}).Apply(fn)
	require.Error(t, err)

	changed, err := (&PruneUnreachable{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, fn.Blocks, before)
	assert.NoError(t, Verify(fn))
}

func TestPruneReplacesPhiLeftWithOneInput(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: f
    params: [{name: a, type: bool}]
    returns: [uint8]
    body:
      - let: {name: x, type: uint8, value: 1}
      - if:
          cond: a
          then:
            - assign: {target: x, value: 2}
      - return: x
`)
	merge := blockByPrefix(t, fn, "if_merge")
	then := blockByPrefix(t, fn, "if_then")
	require.Len(t, merge.Phis, 1)

	// cut the then branch loose: entry now jumps straight to the merge
	fn.Entry.Terminator = &JumpTerminator{ID: 500, Block: fn.Entry, Target: merge}
	fn.Entry.Successors = []*BasicBlock{merge}
	then.Predecessors = nil

	changed, err := (&PruneUnreachable{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, merge.Phis)

	ret := merge.Terminator.(*ReturnTerminator)
	c, ok := ret.Values[0].DefInst.(*ConstantInstruction)
	require.True(t, ok)
	assert.Equal(t, value.Uint(8, 1), c.Value)
	assert.NoError(t, Verify(fn))
}

func TestPruneCascadesToLoopHeaderPhi(t *testing.T) {
	fn := buildFromYAML(t, `
functions:
  - name: f
    params: [{name: a, type: bool}]
    returns: [uint8]
    body:
      - let: {name: x, type: uint8, value: 1}
      - let: {name: i, type: uint8, value: 0}
      - while:
          cond: {binary: "<", left: i, right: 3}
          body:
            - if:
                cond: a
                then:
                  - assign: {target: x, value: 2}
            - assign: {target: i, op: "+=", value: 1}
      - return: x
`)
	header := blockByPrefix(t, fn, "while_header")
	body := blockByPrefix(t, fn, "while_body")
	merge := blockByPrefix(t, fn, "if_merge")
	then := blockByPrefix(t, fn, "if_then")
	require.Len(t, header.Phis, 2)
	require.Len(t, merge.Phis, 1)

	// without the then branch x never changes: the merge phi collapses to the
	// header phi, which is then left with only itself and the initial value
	body.Terminator = &JumpTerminator{ID: 500, Block: body, Target: merge}
	body.Successors = []*BasicBlock{merge}
	then.Predecessors = nil

	changed, err := (&PruneUnreachable{}).Apply(fn)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, merge.Phis)
	require.Len(t, header.Phis, 1)
	assert.Equal(t, "i", header.Phis[0].Variable.Name)

	exit := header.Terminator.(*BranchTerminator).FalseBlock
	ret := exit.Terminator.(*ReturnTerminator)
	c, ok := ret.Values[0].DefInst.(*ConstantInstruction)
	require.True(t, ok, "x resolves to its initial value:\n%s", Print(fn))
	assert.Equal(t, value.Uint(8, 1), c.Value)
	assert.NoError(t, Verify(fn))
}

func TestVerifyPipelinePasses(t *testing.T) {
	var names []string
	for _, pass := range NewVerifyPipeline().Passes() {
		names = append(names, pass.Name())
		assert.NotEmpty(t, pass.Description(), pass.Name())
	}
	assert.Equal(t, []string{"Prune Unreachable", "Check Structure", "Check Phis", "Check Definitions"}, names)
}

func TestEffects(t *testing.T) {
	u8 := types.Uint(8)
	v := &Value{Name: "v", Type: u8}
	s := &Value{Name: "s", Type: types.String()}

	assert.False(t, MayRevert(&BinaryInstruction{Op: value.OpAdd, Left: v, Right: v}))
	assert.True(t, MayRevert(&BinaryInstruction{Op: value.OpDiv, Left: v, Right: v}), "division by zero")
	assert.True(t, MayRevert(&CheckedArithInstruction{Op: value.OpAdd, Left: v, Right: v}))
	assert.True(t, Allocates(&ConcatInstruction{Left: s, Right: s}))
	assert.False(t, Allocates(&SliceEqInstruction{Left: s, Right: s}))
	assert.True(t, Allocates(&PushInstruction{Target: s, Element: v}))
	assert.True(t, MayRevert(&RevertTerminator{}))
	assert.False(t, MayRevert(&ReturnTerminator{}))
	assert.True(t, MayRevert(&IndexInstruction{Target: s, Index: v}), "out of bounds")
}
