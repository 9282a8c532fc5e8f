package ast

type NodeType int

const (
	// Special / error
	ILLEGAL NodeType = iota

	// High-level constructs
	UNIT
	FUNCTION
	PARAM
	BLOCK

	// Statements
	VAR_DECL
	ASSIGN_STMT
	PUSH_STMT
	IF_STMT
	WHILE_STMT
	FOR_STMT
	DO_WHILE_STMT
	BREAK_STMT
	CONTINUE_STMT
	RETURN_STMT
	REVERT_STMT
	REQUIRE_STMT
	EXPR_STMT

	// Expressions
	NUMBER_LIT
	BOOL_LIT
	STRING_LIT
	ADDRESS_LIT
	REF_EXPR
	UNARY_EXPR
	BINARY_EXPR
	CONCAT_EXPR
	LEN_EXPR
	INDEX_EXPR
	SUBSTRING_EXPR
	TUPLE_EXPR
	COND_EXPR
	CAST_EXPR
)

var nodeTypeNames = [...]string{
	ILLEGAL:        "ILLEGAL",
	UNIT:           "UNIT",
	FUNCTION:       "FUNCTION",
	PARAM:          "PARAM",
	BLOCK:          "BLOCK",
	VAR_DECL:       "VAR_DECL",
	ASSIGN_STMT:    "ASSIGN_STMT",
	PUSH_STMT:      "PUSH_STMT",
	IF_STMT:        "IF_STMT",
	WHILE_STMT:     "WHILE_STMT",
	FOR_STMT:       "FOR_STMT",
	DO_WHILE_STMT:  "DO_WHILE_STMT",
	BREAK_STMT:     "BREAK_STMT",
	CONTINUE_STMT:  "CONTINUE_STMT",
	RETURN_STMT:    "RETURN_STMT",
	REVERT_STMT:    "REVERT_STMT",
	REQUIRE_STMT:   "REQUIRE_STMT",
	EXPR_STMT:      "EXPR_STMT",
	NUMBER_LIT:     "NUMBER_LIT",
	BOOL_LIT:       "BOOL_LIT",
	STRING_LIT:     "STRING_LIT",
	ADDRESS_LIT:    "ADDRESS_LIT",
	REF_EXPR:       "REF_EXPR",
	UNARY_EXPR:     "UNARY_EXPR",
	BINARY_EXPR:    "BINARY_EXPR",
	CONCAT_EXPR:    "CONCAT_EXPR",
	LEN_EXPR:       "LEN_EXPR",
	INDEX_EXPR:     "INDEX_EXPR",
	SUBSTRING_EXPR: "SUBSTRING_EXPR",
	TUPLE_EXPR:     "TUPLE_EXPR",
	COND_EXPR:      "COND_EXPR",
	CAST_EXPR:      "CAST_EXPR",
}

func (t NodeType) String() string {
	if t >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "ILLEGAL"
}
