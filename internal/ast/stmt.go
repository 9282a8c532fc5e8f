package ast

type Stmt interface {
	Node
	isStmt()
}

func (*Block) isStmt()        {}
func (*VarDecl) isStmt()      {}
func (*AssignStmt) isStmt()   {}
func (*PushStmt) isStmt()     {}
func (*IfStmt) isStmt()       {}
func (*WhileStmt) isStmt()    {}
func (*ForStmt) isStmt()      {}
func (*DoWhileStmt) isStmt()  {}
func (*BreakStmt) isStmt()    {}
func (*ContinueStmt) isStmt() {}
func (*ReturnStmt) isStmt()   {}
func (*RevertStmt) isStmt()   {}
func (*RequireStmt) isStmt()  {}
func (*ExprStmt) isStmt()     {}
