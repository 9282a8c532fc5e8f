package ast

import (
	"fmt"
	"strings"

	"contractir/internal/types"
)

func (u *Unit) String() string {
	var b strings.Builder
	for i, fn := range u.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fn.String())
	}
	return b.String()
}

func (f *Function) String() string {
	var b strings.Builder

	b.WriteString("function ")
	b.WriteString(f.Name)
	b.WriteString("(")
	for i, param := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(param.String())
	}
	b.WriteString(")")

	if len(f.Returns) > 0 {
		rets := make([]string, len(f.Returns))
		for i, r := range f.Returns {
			rets[i] = r.String()
		}
		b.WriteString(" returns (")
		b.WriteString(strings.Join(rets, ", "))
		b.WriteString(")")
	}

	b.WriteString(" ")
	b.WriteString(f.Body.String())
	b.WriteString("\n")
	return b.String()
}

func (p *Param) String() string {
	return fmt.Sprintf("%s %s", p.Var.Type.String(), p.Var.Name)
}

func (b *Block) String() string {
	if b == nil || len(b.Stmts) == 0 {
		return "{}"
	}
	return "{\n" + b.StringIndented("  ") + "}"
}

func (b *Block) StringIndented(indent string) string {
	var out strings.Builder
	for _, stmt := range b.Stmts {
		out.WriteString(indent)
		out.WriteString(strings.ReplaceAll(stmt.String(), "\n", "\n"+indent))
		out.WriteByte('\n')
	}
	return out.String()
}

func (v *VarDecl) String() string {
	if v.Value == nil {
		return fmt.Sprintf("%s %s;", v.Var.Type.String(), v.Var.Name)
	}
	return fmt.Sprintf("%s %s = %s;", v.Var.Type.String(), v.Var.Name, v.Value.String())
}

func (a *AssignStmt) String() string {
	return fmt.Sprintf("%s %s %s;", a.Target.Name, a.Operator.String(), a.Value.String())
}

func (p *PushStmt) String() string {
	return fmt.Sprintf("%s.push(%s);", p.Target.Name, p.Value.String())
}

func (i *IfStmt) String() string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("if (%s) %s", i.Cond.String(), i.Then.String()))
	if i.Else != nil {
		result.WriteString(" else ")
		result.WriteString(i.Else.String())
	}

	return result.String()
}

func (w *WhileStmt) String() string {
	return fmt.Sprintf("while (%s) %s", w.Cond.String(), w.Body.String())
}

func (f *ForStmt) String() string {
	init := make([]string, len(f.Init))
	for i, s := range f.Init {
		init[i] = strings.TrimSuffix(s.String(), ";")
	}
	post := make([]string, len(f.Post))
	for i, s := range f.Post {
		post[i] = strings.TrimSuffix(s.String(), ";")
	}
	cond := ""
	if f.Cond != nil {
		cond = f.Cond.String()
	}
	return fmt.Sprintf("for (%s; %s; %s) %s",
		strings.Join(init, ", "), cond, strings.Join(post, ", "), f.Body.String())
}

func (d *DoWhileStmt) String() string {
	return fmt.Sprintf("do %s while (%s);", d.Body.String(), d.Cond.String())
}

func (*BreakStmt) String() string    { return "break;" }
func (*ContinueStmt) String() string { return "continue;" }

func (r *ReturnStmt) String() string {
	switch len(r.Values) {
	case 0:
		return "return;"
	case 1:
		return fmt.Sprintf("return %s;", r.Values[0].String())
	}
	return fmt.Sprintf("return (%s);", joinExprs(r.Values))
}

func (r *RevertStmt) String() string {
	if r.Reason == "" {
		return "revert();"
	}
	return fmt.Sprintf("revert(%q);", r.Reason)
}

func (r *RequireStmt) String() string {
	if r.Reason == "" {
		return fmt.Sprintf("require(%s);", r.Cond.String())
	}
	return fmt.Sprintf("require(%s, %q);", r.Cond.String(), r.Reason)
}

func (e *ExprStmt) String() string {
	return e.Expr.String() + ";"
}

func (n *NumberLit) String() string {
	return n.Value.String()
}

func (b *BoolLit) String() string {
	return fmt.Sprintf("%t", b.Value)
}

func (s *StringLit) String() string {
	if _, ok := s.Type.(*types.StringType); ok {
		return fmt.Sprintf("%q", string(s.Value))
	}
	return fmt.Sprintf("hex\"%x\"", s.Value)
}

func (a *AddressLit) String() string {
	return fmt.Sprintf("address(0x%x)", a.Value)
}

func (r *RefExpr) String() string {
	return r.Var.Name
}

func (u *UnaryExpr) String() string {
	if u.Op == "neg" {
		return fmt.Sprintf("(-%s)", u.Value.String())
	}
	return fmt.Sprintf("(%s%s)", u.Op, u.Value.String())
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left.String(), b.Op, b.Right.String())
}

func (c *ConcatExpr) String() string {
	return fmt.Sprintf("%s.concat(%s, %s)", c.Type.String(), c.Left.String(), c.Right.String())
}

func (l *LenExpr) String() string {
	return l.Value.String() + ".length"
}

func (i *IndexExpr) String() string {
	return fmt.Sprintf("%s[%s]", i.Target.String(), i.Index.String())
}

func (s *SubstringExpr) String() string {
	return fmt.Sprintf("%s[%s:%s]", s.Target.String(), s.Start.String(), s.End.String())
}

func (t *TupleExpr) String() string {
	return "(" + joinExprs(t.Elements) + ")"
}

func (c *CondExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", c.Cond.String(), c.Then.String(), c.Else.String())
}

func (c *CastExpr) String() string {
	return fmt.Sprintf("%s(%s)", c.Type.String(), c.Value.String())
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
