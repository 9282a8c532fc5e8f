package errors

// Error codes for the contract IR toolchain
// These codes are used in error messages and documentation
// to provide consistent error identification across the toolchain.
//
// Error code ranges:
// E0001-E0099: Unit loading errors
// E0200-E0299: Type system errors
// E0600-E0699: Flow control / CFG construction errors
// E0700-E0709: Heap model errors
// E0710-E0719: ABI codec errors
// E0720-E0799: Evaluation errors
// E0900-E0999: Reserved for tooling errors

const (
	// E0001: Unit file could not be read or decoded
	ErrorInvalidUnit = "E0001"

	// E0002: Function referenced by name does not exist in the unit
	ErrorUndefinedFunction = "E0002"

	// E0201: Value shape does not match the declared type
	ErrorTypeMismatch = "E0201"

	// E0202: Declared type or operation not supported
	ErrorUnsupported = "E0202"

	// E0203: Type signature could not be parsed
	ErrorInvalidSignature = "E0203"

	// E0610: Variable read with no reaching definition on some path
	ErrorUnreachableBindingState = "E0610"

	// E0611: Graph invariant broken (placeholder left, dangling edge, ...)
	ErrorBrokenInvariant = "E0611"

	// E0700: Buffer allocator capacity exhausted
	ErrorAllocationExhausted = "E0700"

	// E0710: Input ends before the data it declares
	ErrorTruncatedEncoding = "E0710"

	// E0711: Head offset points outside the input
	ErrorOffsetOutOfRange = "E0711"

	// E0712: Runtime length exceeds a fixed declared capacity
	ErrorFixedCapacityExceeded = "E0712"

	// E0713: Word carries dirty padding or an invalid boolean
	ErrorInvalidData = "E0713"

	// E0720: Checked arithmetic overflowed
	ErrorArithmeticOverflow = "E0720"

	// E0721: Division or modulo by zero
	ErrorDivisionByZero = "E0721"

	// E0722: Evaluation exceeded its step budget
	ErrorStepLimit = "E0722"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorInvalidUnit:
		return "Unit file could not be read or decoded"
	case ErrorUndefinedFunction:
		return "Function is not defined in the unit"
	case ErrorTypeMismatch:
		return "Value does not match its declared type"
	case ErrorUnsupported:
		return "Type or operation is not supported"
	case ErrorInvalidSignature:
		return "Type signature could not be parsed"
	case ErrorUnreachableBindingState:
		return "Variable is read on a path where it has no definition"
	case ErrorBrokenInvariant:
		return "Control-flow graph invariant does not hold"
	case ErrorAllocationExhausted:
		return "Buffer allocator ran out of capacity"
	case ErrorTruncatedEncoding:
		return "Encoded input is shorter than the data it declares"
	case ErrorOffsetOutOfRange:
		return "Encoded offset points past the end of the input"
	case ErrorFixedCapacityExceeded:
		return "Value is longer than its fixed declared capacity"
	case ErrorInvalidData:
		return "Encoded word is not a canonical encoding"
	case ErrorArithmeticOverflow:
		return "Checked arithmetic overflowed"
	case ErrorDivisionByZero:
		return "Division or modulo by zero"
	case ErrorStepLimit:
		return "Evaluation step budget exceeded"
	default:
		return "Unknown error code"
	}
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0001" && code < "E0100":
		return "Unit"
	case code >= "E0200" && code < "E0300":
		return "Type System"
	case code >= "E0600" && code < "E0700":
		return "Flow Control"
	case code >= "E0700" && code < "E0710":
		return "Heap"
	case code >= "E0710" && code < "E0720":
		return "ABI"
	case code >= "E0720" && code < "E0800":
		return "Evaluation"
	default:
		return "Unknown"
	}
}

// codeForKind maps an error kind to its default code
func codeForKind(kind Kind) string {
	switch kind {
	case KindAllocationExhausted:
		return ErrorAllocationExhausted
	case KindUnreachableBindingState:
		return ErrorUnreachableBindingState
	case KindTruncatedEncoding:
		return ErrorTruncatedEncoding
	case KindOffsetOutOfRange:
		return ErrorOffsetOutOfRange
	case KindFixedCapacityExceeded:
		return ErrorFixedCapacityExceeded
	case KindInvalidData:
		return ErrorInvalidData
	case KindTypeMismatch:
		return ErrorTypeMismatch
	case KindUnsupported:
		return ErrorUnsupported
	case KindInvalidSignature:
		return ErrorInvalidSignature
	case KindBrokenInvariant:
		return ErrorBrokenInvariant
	case KindOverflow:
		return ErrorArithmeticOverflow
	case KindDivisionByZero:
		return ErrorDivisionByZero
	case KindStepLimit:
		return ErrorStepLimit
	case KindInvalidUnit:
		return ErrorInvalidUnit
	case KindNotFound:
		return ErrorUndefinedFunction
	default:
		return ""
	}
}
