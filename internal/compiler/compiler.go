// Package compiler drives a whole unit through the CFG builder. Functions are
// independent: each is built on its own allocator by a bounded pool of
// workers, and a failure in one never discards the others.
package compiler

import (
	"context"
	"time"

	"github.com/tliron/commonlog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"contractir/internal/ast"
	"contractir/internal/errors"
	"contractir/internal/heap"
	"contractir/internal/ir"
)

var log = commonlog.GetLogger("contractir.compiler")

// FunctionResult is the outcome for one function. Function is nil when Err
// is set.
type FunctionResult struct {
	Name     string
	Function *ir.Function
	Err      error
	Heap     heap.Stats
	Duration time.Duration
}

// Result holds one entry per unit function, in declaration order
type Result struct {
	Unit      string
	Functions []*FunctionResult
}

// Err combines the errors of every failed function, nil when all succeeded
func (r *Result) Err() error {
	var err error
	for _, fr := range r.Functions {
		err = multierr.Append(err, fr.Err)
	}
	return err
}

// Failed lists the functions that did not build
func (r *Result) Failed() []*FunctionResult {
	var out []*FunctionResult
	for _, fr := range r.Functions {
		if fr.Err != nil {
			out = append(out, fr)
		}
	}
	return out
}

// Lookup finds a successfully built function by name
func (r *Result) Lookup(name string) (*ir.Function, error) {
	for _, fr := range r.Functions {
		if fr.Name != name {
			continue
		}
		if fr.Err != nil {
			return nil, fr.Err
		}
		return fr.Function, nil
	}
	return nil, errors.New(errors.PhaseBuild, errors.KindNotFound).
		Function(name).
		Detail("no function %q in unit %q", name, r.Unit).
		Build()
}

// Compile builds every function of unit. The context only gates scheduling:
// once cancelled, functions not yet started are reported with the context
// error while running ones finish.
func Compile(ctx context.Context, unit *ast.Unit, opts Options) *Result {
	res := &Result{Unit: unit.Name, Functions: make([]*FunctionResult, len(unit.Functions))}

	var g errgroup.Group
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}

	start := time.Now()
	for i, fn := range unit.Functions {
		if err := ctx.Err(); err != nil {
			res.Functions[i] = &FunctionResult{Name: fn.Name, Err: errors.WithFunction(cancelled(err), fn.Name)}
			continue
		}
		i, fn := i, fn
		g.Go(func() error {
			res.Functions[i] = compileFunction(fn, opts)
			return nil
		})
	}
	_ = g.Wait()

	log.Debug("unit compiled", "unit", unit.Name, "functions", len(unit.Functions),
		"failed", len(res.Failed()), "duration", time.Since(start))
	return res
}

func compileFunction(src *ast.Function, opts Options) *FunctionResult {
	start := time.Now()
	out := &FunctionResult{Name: src.Name}

	fn, err := ir.BuildFunction(src, opts.HeapLimit)
	if err == nil && opts.Verify {
		err = ir.Verify(fn)
	}
	out.Duration = time.Since(start)
	if err != nil {
		log.Debug("function failed", "function", src.Name, "error", err)
		out.Err = errors.WithFunction(err, src.Name)
		return out
	}

	out.Function = fn
	out.Heap = fn.Heap.Stats()
	log.Debug("function built", "function", src.Name, "blocks", len(fn.Blocks),
		"values", fn.NumValues, "heap_bytes", out.Heap.Used)
	return out
}

func cancelled(err error) error {
	return errors.New(errors.PhaseBuild, errors.KindUnsupported).
		Detail("not started").
		Cause(err).
		Build()
}
