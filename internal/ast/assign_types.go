package ast

type AssignType int

const (
	// Special / error
	ILLEGAL_ASSIGN AssignType = iota
	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN
	STAR_ASSIGN
	SLASH_ASSIGN
	PERCENT_ASSIGN
	AND_ASSIGN
	OR_ASSIGN
	XOR_ASSIGN
	SHL_ASSIGN
	SHR_ASSIGN
)

var assignOperators = map[AssignType]string{
	ASSIGN:         "=",
	PLUS_ASSIGN:    "+=",
	MINUS_ASSIGN:   "-=",
	STAR_ASSIGN:    "*=",
	SLASH_ASSIGN:   "/=",
	PERCENT_ASSIGN: "%=",
	AND_ASSIGN:     "&=",
	OR_ASSIGN:      "|=",
	XOR_ASSIGN:     "^=",
	SHL_ASSIGN:     "<<=",
	SHR_ASSIGN:     ">>=",
}

func (a AssignType) String() string {
	if op, ok := assignOperators[a]; ok {
		return op
	}
	return "?="
}

// BinaryOp returns the operator a compound assignment applies, "" for plain
// assignment
func (a AssignType) BinaryOp() string {
	if a == ASSIGN || a == ILLEGAL_ASSIGN {
		return ""
	}
	op := assignOperators[a]
	return op[:len(op)-1]
}

// ParseAssignType maps "=", "+=", ... to an AssignType
func ParseAssignType(op string) AssignType {
	for t, s := range assignOperators {
		if s == op {
			return t
		}
	}
	return ILLEGAL_ASSIGN
}
