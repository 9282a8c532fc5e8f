// Package ast defines the typed statement tree handed to the CFG builder.
// Every expression carries its declared type and every name is already
// resolved to a unique Variable.
package ast

import (
	"math/big"

	"contractir/internal/errors"
	"contractir/internal/types"
)

// Position tracks location information for error reporting and tooling
type Position = errors.Position

// Unit is a compilation unit: a set of independent functions
// Example: a YAML file with an options section and a functions list
type Unit struct {
	Pos       Position
	Name      string
	Options   Options
	Functions []*Function
}

// Options carries compiler settings declared by the unit itself. Zero
// fields mean "use the compiler default".
type Options struct {
	Workers   int   `yaml:"workers"`
	HeapLimit int   `yaml:"heap_limit"`
	StepLimit int   `yaml:"step_limit"`
	Verify    *bool `yaml:"verify"`
}

// Variable is a resolved variable identity. Two variables with the same name
// in different scopes are different Variables.
type Variable struct {
	ID   int
	Name string
	Type types.Type
}

// Function represents a function declaration
// Example: "function test(uint8 a) returns (string) { ... }"
type Function struct {
	Pos     Position
	EndPos  Position
	Name    string
	Params  []*Param
	Returns []types.Type
	Body    *Block
}

// Param represents a function parameter
// Example: "uint8 a"
type Param struct {
	Pos Position
	Var *Variable
}

// Block represents a braced statement list
type Block struct {
	Pos    Position
	EndPos Position
	Stmts  []Stmt
}

// VarDecl declares a variable, zero-initialised when Value is nil
// Example: "string s = \"Hello!\";"
type VarDecl struct {
	Pos   Position
	Var   *Variable
	Value Expr
}

// AssignStmt rebinds a variable, optionally through a compound operator
// Example: "s = s + \"a\";", "total += amount;"
type AssignStmt struct {
	Pos      Position
	Target   *Variable
	Operator AssignType
	Value    Expr
}

// PushStmt appends an element to a bytes or dynamic array variable
// Example: "b.push(0x41);"
type PushStmt struct {
	Pos    Position
	Target *Variable
	Value  Expr
}

// IfStmt represents if statements with optional else
type IfStmt struct {
	Pos  Position
	Cond Expr
	Then *Block
	Else *Block
}

// WhileStmt represents while loops
// Example: "while (s == t) { s = s + \"a\"; }"
type WhileStmt struct {
	Pos  Position
	Cond Expr
	Body *Block
}

// ForStmt represents C-style for loops; every part is optional
// Example: "for (uint8 i = 0; i < 3; i += 1) { ... }"
type ForStmt struct {
	Pos  Position
	Init []Stmt
	Cond Expr
	Post []Stmt
	Body *Block
}

// DoWhileStmt runs its body once before testing the condition
type DoWhileStmt struct {
	Pos  Position
	Body *Block
	Cond Expr
}

type BreakStmt struct {
	Pos Position
}

type ContinueStmt struct {
	Pos Position
}

// ReturnStmt returns zero or more values
// Example: "return s;", "return (a, b);"
type ReturnStmt struct {
	Pos    Position
	Values []Expr
}

// RevertStmt aborts execution with an optional reason
// Example: "revert(\"insufficient balance\");"
type RevertStmt struct {
	Pos    Position
	Reason string
}

// RequireStmt reverts when its condition is false
// Example: "require(amount > 0, \"zero amount\");"
type RequireStmt struct {
	Pos    Position
	Cond   Expr
	Reason string
}

// ExprStmt evaluates an expression for its checks only
type ExprStmt struct {
	Pos  Position
	Expr Expr
}

// NumberLit is an integer literal of a scalar type
// Example: "100", "-1", "0xff"
type NumberLit struct {
	Pos   Position
	Type  types.Type
	Value *big.Int
}

// BoolLit represents "true" and "false"
type BoolLit struct {
	Pos   Position
	Value bool
}

// StringLit is a string or bytes literal
// Example: "\"Hello!\"", "hex\"010203\""
type StringLit struct {
	Pos   Position
	Type  types.Type
	Value []byte
}

// AddressLit is a 20-byte address literal
type AddressLit struct {
	Pos   Position
	Value [20]byte
}

// RefExpr reads a variable
type RefExpr struct {
	Pos Position
	Var *Variable
}

// UnaryExpr represents unary operations
// Example: "-amount", "!done", "~mask"
type UnaryExpr struct {
	Pos   Position
	Type  types.Type
	Op    string
	Value Expr
}

// BinaryExpr represents arithmetic, bitwise, comparison and logical
// operations. Type is the result type; comparisons yield bool.
// Example: "amount + fee", "s == t", "a && b"
type BinaryExpr struct {
	Pos   Position
	Type  types.Type
	Op    string
	Left  Expr
	Right Expr
}

// ConcatExpr joins two strings or two bytes values
// Example: "s + \"a\"", "string.concat(a, b)"
type ConcatExpr struct {
	Pos   Position
	Type  types.Type
	Left  Expr
	Right Expr
}

// LenExpr is the element count of a slice or fixed array
// Example: "b.length"
type LenExpr struct {
	Pos   Position
	Value Expr
}

// IndexExpr reads one element of bytes, bytesN or an array
// Example: "b[2]"
type IndexExpr struct {
	Pos    Position
	Type   types.Type
	Target Expr
	Index  Expr
}

// SubstringExpr copies a byte range out of a string or bytes value
// Example: "s[1:4]"
type SubstringExpr struct {
	Pos    Position
	Type   types.Type
	Target Expr
	Start  Expr
	End    Expr
}

// TupleExpr represents tuple and fixed array construction
// Example: "(42, true, \"test\")", "[1, 2, 3]"
type TupleExpr struct {
	Pos      Position
	Type     types.Type
	Elements []Expr
}

// CondExpr is the ternary operator
// Example: "a > b ? a : b"
type CondExpr struct {
	Pos  Position
	Type types.Type
	Cond Expr
	Then Expr
	Else Expr
}

// CastExpr converts between integer widths
// Example: "uint16(x)"
type CastExpr struct {
	Pos   Position
	Type  types.Type
	Value Expr
}
