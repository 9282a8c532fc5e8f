// Package interp evaluates built IR functions on runtime values. It exists to
// check lowering end to end: arguments come in as call data, phis select the
// input of the edge actually taken, and return values go out ABI-encoded.
package interp

import (
	stderrors "errors"
	"fmt"

	"github.com/tliron/commonlog"

	"contractir/internal/abi"
	"contractir/internal/errors"
	"contractir/internal/heap"
	"contractir/internal/ir"
	"contractir/internal/types"
	"contractir/internal/value"
)

var log = commonlog.GetLogger("contractir.interp")

// DefaultStepLimit bounds the instructions one call may execute
const DefaultStepLimit = 1_000_000

// Result is the outcome of one call
type Result struct {
	Reverted   bool
	Reason     string
	Values     []value.Value // return values, slices live in Heap
	ReturnData []byte        // ABI encoding of Values, set by Call
	Heap       *heap.Allocator
	Steps      int
}

// Interpreter runs one function. Each run works on its own copy of the
// function's constant heap, so runs never observe each other.
type Interpreter struct {
	fn        *ir.Function
	heapLimit int
	stepLimit int
	tracer    func(block *ir.BasicBlock, inst ir.Instruction)
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithStepLimit caps executed instructions; exceeding it is an error
func WithStepLimit(n int) Option {
	return func(it *Interpreter) {
		if n > 0 {
			it.stepLimit = n
		}
	}
}

// WithHeapLimit caps the bytes a run may allocate, constants included
func WithHeapLimit(n int) Option {
	return func(it *Interpreter) { it.heapLimit = n }
}

// WithTracer is invoked before every executed instruction and terminator
func WithTracer(cb func(block *ir.BasicBlock, inst ir.Instruction)) Option {
	return func(it *Interpreter) { it.tracer = cb }
}

// New creates an interpreter for fn
func New(fn *ir.Function, opts ...Option) *Interpreter {
	it := &Interpreter{fn: fn, stepLimit: DefaultStepLimit, heapLimit: heap.DefaultLimit}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Call decodes calldata against the parameter types, runs the function and
// encodes its return values. A revert is reported in the result, not as an
// error.
func Call(fn *ir.Function, calldata []byte, opts ...Option) (*Result, error) {
	return New(fn, opts...).Call(calldata)
}

// Call is the method form of the package-level Call
func (it *Interpreter) Call(calldata []byte) (*Result, error) {
	h, err := it.NewHeap()
	if err != nil {
		return nil, err
	}

	paramTypes := make([]types.Type, len(it.fn.Params))
	for i, p := range it.fn.Params {
		paramTypes[i] = p.Type
	}
	args, err := abi.DecodeArgs(calldata, paramTypes, h)
	if err != nil {
		return nil, errors.WithFunction(err, it.fn.Name)
	}

	res, err := it.Run(h, args)
	if err != nil || res.Reverted {
		return res, err
	}
	if res.ReturnData, err = abi.EncodeArgs(h, res.Values, it.fn.Returns); err != nil {
		return nil, errors.WithFunction(err, it.fn.Name)
	}
	return res, nil
}

// NewHeap returns a fresh copy of the function's constant heap for one run
func (it *Interpreter) NewHeap() (*heap.Allocator, error) {
	return it.fn.Heap.Clone(it.heapLimit)
}

// Run executes the function on args, whose slices must live in h
func (it *Interpreter) Run(h *heap.Allocator, args []value.Value) (*Result, error) {
	if len(args) != len(it.fn.Params) {
		return nil, errors.New(errors.PhaseExec, errors.KindTypeMismatch).
			Function(it.fn.Name).
			Detail("%d arguments for %d parameters", len(args), len(it.fn.Params)).
			Build()
	}

	m := &machine{
		fn:     it.fn,
		heap:   h,
		values: make([]value.Value, it.fn.NumValues),
		limit:  it.stepLimit,
		tracer: it.tracer,
	}
	for i, p := range it.fn.Params {
		if !value.Conforms(p.Type, args[i]) {
			err := errors.Mismatch(errors.PhaseExec, []string{p.Name}, p.Type, fmt.Sprintf("%v", args[i]))
			return nil, errors.WithFunction(err, it.fn.Name)
		}
		m.set(p.Value, args[i])
	}

	res, err := m.run()
	if err != nil {
		return nil, errors.WithFunction(err, it.fn.Name)
	}
	res.Heap = h
	log.Debug("call finished", "function", it.fn.Name, "reverted", res.Reverted, "steps", res.Steps,
		"heap_bytes", h.Stats().Used)
	return res, nil
}

// revertKinds are runtime failures that abort the call like an explicit
// revert instead of failing the evaluation
var revertKinds = []*errors.Error{errors.Overflow, errors.DivisionByZero, errors.OffsetOutOfRange}

func asRevert(err error) (string, bool) {
	for _, k := range revertKinds {
		if stderrors.Is(err, k) {
			return string(k.Kind), true
		}
	}
	return "", false
}
