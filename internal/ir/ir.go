// Package ir lowers typed functions to control-flow graphs in SSA form.
// Variable values are merged at every join point with phi nodes, including
// heap-backed slice values, and loop headers are resolved once their back
// edges are known.
package ir

import (
	"github.com/tliron/commonlog"

	"contractir/internal/ast"
)

var log = commonlog.GetLogger("contractir.ir")

// BuildFunction is the main entry point for converting a typed function to IR.
// Constant data is allocated under heapLimit bytes.
func BuildFunction(fn *ast.Function, heapLimit int) (*Function, error) {
	return NewBuilder(heapLimit).Build(fn)
}

// PrintFunction returns a pretty-printed representation of the IR
func PrintFunction(fn *Function) string {
	return Print(fn)
}
