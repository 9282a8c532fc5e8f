package errors

import (
	"fmt"
	"strings"
)

// Position tracks location information for error reporting and tooling
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // unit decoding
	PhaseType    Phase = "type"    // type signature parsing
	PhaseBuild   Phase = "build"   // CFG construction
	PhaseResolve Phase = "resolve" // phi resolution
	PhaseVerify  Phase = "verify"  // graph invariant checks
	PhaseAlloc   Phase = "alloc"   // buffer allocation
	PhaseEncode  Phase = "encode"  // value to wire bytes
	PhaseDecode  Phase = "decode"  // wire bytes to value
	PhaseExec    Phase = "exec"    // CFG evaluation
)

// Kind categorizes the error
type Kind string

const (
	KindAllocationExhausted     Kind = "allocation_exhausted"
	KindUnreachableBindingState Kind = "unreachable_binding_state"
	KindTruncatedEncoding       Kind = "truncated_encoding"
	KindOffsetOutOfRange        Kind = "offset_out_of_range"
	KindFixedCapacityExceeded   Kind = "fixed_capacity_exceeded"
	KindInvalidData             Kind = "invalid_data"
	KindTypeMismatch            Kind = "type_mismatch"
	KindUnsupported             Kind = "unsupported"
	KindInvalidSignature        Kind = "invalid_signature"
	KindBrokenInvariant         Kind = "broken_invariant"
	KindOverflow                Kind = "overflow"
	KindDivisionByZero          Kind = "division_by_zero"
	KindStepLimit               Kind = "step_limit"
	KindInvalidUnit             Kind = "invalid_unit"
	KindNotFound                Kind = "not_found"
)

// Sentinels for errors.Is matching on kind alone
var (
	AllocationExhausted     = &Error{Kind: KindAllocationExhausted}
	UnreachableBindingState = &Error{Kind: KindUnreachableBindingState}
	TruncatedEncoding       = &Error{Kind: KindTruncatedEncoding}
	OffsetOutOfRange        = &Error{Kind: KindOffsetOutOfRange}
	FixedCapacityExceeded   = &Error{Kind: KindFixedCapacityExceeded}
	InvalidData             = &Error{Kind: KindInvalidData}
	TypeMismatch            = &Error{Kind: KindTypeMismatch}
	Overflow                = &Error{Kind: KindOverflow}
	DivisionByZero          = &Error{Kind: KindDivisionByZero}
	BrokenInvariant         = &Error{Kind: KindBrokenInvariant}
	StepLimit               = &Error{Kind: KindStepLimit}
	NotFound                = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout the toolchain
type Error struct {
	Phase    Phase
	Kind     Kind
	Code     string   // E0xxx, defaults from Kind
	Function string   // function being compiled, if any
	Type     string   // declared type involved, if any
	Path     []string // value path, e.g. ["arg1", "[2]"]
	Detail   string   // human-readable detail
	Position Position // source position when known
	Cause    error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Function != "" {
		b.WriteString(" in ")
		b.WriteString(e.Function)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Phase == "" || t.Phase == e.Phase
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
			Code:  codeForKind(kind),
		},
	}
}

// Code overrides the default error code
func (b *Builder) Code(code string) *Builder {
	b.err.Code = code
	return b
}

// Function sets the function name
func (b *Builder) Function(name string) *Builder {
	b.err.Function = name
	return b
}

// Type sets the declared type name
func (b *Builder) Type(t fmt.Stringer) *Builder {
	if t != nil {
		b.err.Type = t.String()
	}
	return b
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// At sets the source position
func (b *Builder) At(pos Position) *Builder {
	b.err.Position = pos
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	err := b.err
	return &err
}

// Convenience constructors for common error patterns

// Truncated reports input that ends before `need` bytes at `offset`
func Truncated(path []string, offset, need, have int) *Error {
	return New(PhaseDecode, KindTruncatedEncoding).
		Path(path...).
		Detail("need %d bytes at offset %d, input has %d", need, offset, have).
		Build()
}

// OutOfRange reports a head offset that points outside the input
func OutOfRange(path []string, offset uint64, have int) *Error {
	return New(PhaseDecode, KindOffsetOutOfRange).
		Path(path...).
		Detail("offset %d outside input of %d bytes", offset, have).
		Build()
}

// CapacityExceeded reports a value longer than its fixed declared capacity
func CapacityExceeded(path []string, typ fmt.Stringer, length, capacity int) *Error {
	return New(PhaseEncode, KindFixedCapacityExceeded).
		Path(path...).
		Type(typ).
		Detail("length %d exceeds capacity %d", length, capacity).
		Build()
}

// Mismatch reports a value whose shape does not match its declared type
func Mismatch(phase Phase, path []string, typ fmt.Stringer, got string) *Error {
	return New(phase, KindTypeMismatch).
		Path(path...).
		Type(typ).
		Detail("got %s", got).
		Build()
}

// Unbound reports a variable read with no reaching definition
func Unbound(function, variable string, pos Position) *Error {
	return New(PhaseBuild, KindUnreachableBindingState).
		Function(function).
		At(pos).
		Detail("variable %q has no reaching definition", variable).
		Build()
}

// Exhausted reports allocator capacity exhaustion
func Exhausted(requested, used, limit int) *Error {
	return New(PhaseAlloc, KindAllocationExhausted).
		Detail("requested %d bytes with %d of %d in use", requested, used, limit).
		Build()
}

// WithFunction returns err annotated with the function name when it is a
// structured error without one. Other errors are returned unchanged.
func WithFunction(err error, function string) error {
	e, ok := err.(*Error)
	if !ok || e.Function != "" {
		return err
	}
	annotated := *e
	annotated.Function = function
	return &annotated
}
