package ast

import "contractir/internal/types"

type Expr interface {
	Node
	isExpr()
	// ExprType is the declared type resolved by the type checker
	ExprType() types.Type
}

func (*NumberLit) isExpr()     {}
func (*BoolLit) isExpr()       {}
func (*StringLit) isExpr()     {}
func (*AddressLit) isExpr()    {}
func (*RefExpr) isExpr()       {}
func (*UnaryExpr) isExpr()     {}
func (*BinaryExpr) isExpr()    {}
func (*ConcatExpr) isExpr()    {}
func (*LenExpr) isExpr()       {}
func (*IndexExpr) isExpr()     {}
func (*SubstringExpr) isExpr() {}
func (*TupleExpr) isExpr()     {}
func (*CondExpr) isExpr()      {}
func (*CastExpr) isExpr()      {}

func (n *NumberLit) ExprType() types.Type     { return n.Type }
func (*BoolLit) ExprType() types.Type         { return types.Bool() }
func (s *StringLit) ExprType() types.Type     { return s.Type }
func (*AddressLit) ExprType() types.Type      { return types.Address() }
func (r *RefExpr) ExprType() types.Type       { return r.Var.Type }
func (u *UnaryExpr) ExprType() types.Type     { return u.Type }
func (b *BinaryExpr) ExprType() types.Type    { return b.Type }
func (c *ConcatExpr) ExprType() types.Type    { return c.Type }
func (*LenExpr) ExprType() types.Type         { return types.Uint(256) }
func (i *IndexExpr) ExprType() types.Type     { return i.Type }
func (s *SubstringExpr) ExprType() types.Type { return s.Type }
func (t *TupleExpr) ExprType() types.Type     { return t.Type }
func (c *CondExpr) ExprType() types.Type      { return c.Type }
func (c *CastExpr) ExprType() types.Type      { return c.Type }
