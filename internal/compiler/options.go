package compiler

import (
	"os"
	"runtime"
	"strconv"

	"contractir/internal/ast"
	"contractir/internal/errors"
	"contractir/internal/heap"
	"contractir/internal/interp"
)

// Environment variables that override unit and default settings
const (
	EnvWorkers   = "CONTRACTIR_WORKERS"
	EnvHeapLimit = "CONTRACTIR_HEAP_LIMIT"
	EnvStepLimit = "CONTRACTIR_STEP_LIMIT"
	EnvVerify    = "CONTRACTIR_VERIFY"
)

// Options controls how a unit is compiled and evaluated
type Options struct {
	Workers   int  // functions compiled at once
	HeapLimit int  // bytes per function allocator
	StepLimit int  // instructions per evaluated call
	Verify    bool // run the verifier on every built function
}

// DefaultOptions uses one worker per CPU and the package defaults for limits
func DefaultOptions() Options {
	return Options{
		Workers:   runtime.GOMAXPROCS(0),
		HeapLimit: heap.DefaultLimit,
		StepLimit: interp.DefaultStepLimit,
		Verify:    true,
	}
}

// WithUnit applies the non-zero settings a unit declares for itself
func (o Options) WithUnit(u ast.Options) Options {
	if u.Workers > 0 {
		o.Workers = u.Workers
	}
	if u.HeapLimit > 0 {
		o.HeapLimit = u.HeapLimit
	}
	if u.StepLimit > 0 {
		o.StepLimit = u.StepLimit
	}
	if u.Verify != nil {
		o.Verify = *u.Verify
	}
	return o
}

// WithEnv applies CONTRACTIR_* variables from the process environment
func (o Options) WithEnv() (Options, error) {
	return o.withLookup(os.LookupEnv)
}

func (o Options) withLookup(lookup func(string) (string, bool)) (Options, error) {
	for _, setting := range []struct {
		name string
		dst  *int
	}{
		{EnvWorkers, &o.Workers},
		{EnvHeapLimit, &o.HeapLimit},
		{EnvStepLimit, &o.StepLimit},
	} {
		raw, ok := lookup(setting.name)
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return o, invalidSetting(setting.name, raw, err)
		}
		*setting.dst = n
	}

	if raw, ok := lookup(EnvVerify); ok && raw != "" {
		verify, err := strconv.ParseBool(raw)
		if err != nil {
			return o, invalidSetting(EnvVerify, raw, err)
		}
		o.Verify = verify
	}
	return o, nil
}

// InterpOptions carries the limits over to an evaluation of a built function
func (o Options) InterpOptions() []interp.Option {
	return []interp.Option{interp.WithHeapLimit(o.HeapLimit), interp.WithStepLimit(o.StepLimit)}
}

func invalidSetting(name, raw string, cause error) error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidUnit).
		Path(name).
		Detail("invalid value %q", raw).
		Cause(cause).
		Build()
}
