package ast

type Node interface {
	NodePos() Position
	NodeType() NodeType
	String() string
}

func (u *Unit) NodePos() Position { return u.Pos }
func (*Unit) NodeType() NodeType  { return UNIT }

func (f *Function) NodePos() Position { return f.Pos }
func (*Function) NodeType() NodeType  { return FUNCTION }

func (p *Param) NodePos() Position { return p.Pos }
func (*Param) NodeType() NodeType  { return PARAM }

func (b *Block) NodePos() Position { return b.Pos }
func (*Block) NodeType() NodeType  { return BLOCK }

func (v *VarDecl) NodePos() Position { return v.Pos }
func (*VarDecl) NodeType() NodeType  { return VAR_DECL }

func (a *AssignStmt) NodePos() Position { return a.Pos }
func (*AssignStmt) NodeType() NodeType  { return ASSIGN_STMT }

func (p *PushStmt) NodePos() Position { return p.Pos }
func (*PushStmt) NodeType() NodeType  { return PUSH_STMT }

func (i *IfStmt) NodePos() Position { return i.Pos }
func (*IfStmt) NodeType() NodeType  { return IF_STMT }

func (w *WhileStmt) NodePos() Position { return w.Pos }
func (*WhileStmt) NodeType() NodeType  { return WHILE_STMT }

func (f *ForStmt) NodePos() Position { return f.Pos }
func (*ForStmt) NodeType() NodeType  { return FOR_STMT }

func (d *DoWhileStmt) NodePos() Position { return d.Pos }
func (*DoWhileStmt) NodeType() NodeType  { return DO_WHILE_STMT }

func (b *BreakStmt) NodePos() Position { return b.Pos }
func (*BreakStmt) NodeType() NodeType  { return BREAK_STMT }

func (c *ContinueStmt) NodePos() Position { return c.Pos }
func (*ContinueStmt) NodeType() NodeType  { return CONTINUE_STMT }

func (r *ReturnStmt) NodePos() Position { return r.Pos }
func (*ReturnStmt) NodeType() NodeType  { return RETURN_STMT }

func (r *RevertStmt) NodePos() Position { return r.Pos }
func (*RevertStmt) NodeType() NodeType  { return REVERT_STMT }

func (r *RequireStmt) NodePos() Position { return r.Pos }
func (*RequireStmt) NodeType() NodeType  { return REQUIRE_STMT }

func (e *ExprStmt) NodePos() Position { return e.Pos }
func (*ExprStmt) NodeType() NodeType  { return EXPR_STMT }

func (n *NumberLit) NodePos() Position { return n.Pos }
func (*NumberLit) NodeType() NodeType  { return NUMBER_LIT }

func (b *BoolLit) NodePos() Position { return b.Pos }
func (*BoolLit) NodeType() NodeType  { return BOOL_LIT }

func (s *StringLit) NodePos() Position { return s.Pos }
func (*StringLit) NodeType() NodeType  { return STRING_LIT }

func (a *AddressLit) NodePos() Position { return a.Pos }
func (*AddressLit) NodeType() NodeType  { return ADDRESS_LIT }

func (r *RefExpr) NodePos() Position { return r.Pos }
func (*RefExpr) NodeType() NodeType  { return REF_EXPR }

func (u *UnaryExpr) NodePos() Position { return u.Pos }
func (*UnaryExpr) NodeType() NodeType  { return UNARY_EXPR }

func (b *BinaryExpr) NodePos() Position { return b.Pos }
func (*BinaryExpr) NodeType() NodeType  { return BINARY_EXPR }

func (c *ConcatExpr) NodePos() Position { return c.Pos }
func (*ConcatExpr) NodeType() NodeType  { return CONCAT_EXPR }

func (l *LenExpr) NodePos() Position { return l.Pos }
func (*LenExpr) NodeType() NodeType  { return LEN_EXPR }

func (i *IndexExpr) NodePos() Position { return i.Pos }
func (*IndexExpr) NodeType() NodeType  { return INDEX_EXPR }

func (s *SubstringExpr) NodePos() Position { return s.Pos }
func (*SubstringExpr) NodeType() NodeType  { return SUBSTRING_EXPR }

func (t *TupleExpr) NodePos() Position { return t.Pos }
func (*TupleExpr) NodeType() NodeType  { return TUPLE_EXPR }

func (c *CondExpr) NodePos() Position { return c.Pos }
func (*CondExpr) NodeType() NodeType  { return COND_EXPR }

func (c *CastExpr) NodePos() Position { return c.Pos }
func (*CastExpr) NodeType() NodeType  { return CAST_EXPR }
