package ast

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"contractir/internal/errors"
	"contractir/internal/types"
)

// A unit file lists functions whose bodies are statement lists. Each statement
// is a single-key mapping naming its kind; expressions are mappings keyed by
// their kind, YAML integers and booleans are literals and bare strings are
// variable references:
//
//	functions:
//	  - name: test
//	    returns: [string]
//	    body:
//	      - let: {name: s, type: string, value: {string: "Hello!"}}
//	      - while:
//	          cond: {binary: "==", left: s, right: t}
//	          body:
//	            - assign: {target: s, value: {concat: [s, {string: "a"}]}}
//	      - return: s

// LoadFile reads and resolves a unit file
func LoadFile(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidUnit).
			Detail("cannot read %s", path).
			Cause(err).
			Build()
	}
	return Load(path, data)
}

// Load parses unit source and resolves names and types
func Load(filename string, data []byte) (*Unit, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidUnit).
			At(Position{Filename: filename}).
			Detail("malformed unit").
			Cause(err).
			Build()
	}

	l := &loader{filename: filename}
	if len(doc.Content) == 0 {
		return &Unit{Pos: Position{Filename: filename}}, nil
	}
	return l.unit(doc.Content[0])
}

type loader struct {
	filename string
	function string
	nextVar  int
	scopes   []map[string]*Variable
	returns  []types.Type
}

func (l *loader) pos(n *yaml.Node) Position {
	return Position{Filename: l.filename, Line: n.Line, Column: n.Column}
}

func (l *loader) fail(n *yaml.Node, kind errors.Kind, format string, args ...any) error {
	return errors.New(errors.PhaseLoad, kind).
		Function(l.function).
		At(l.pos(n)).
		Detail(format, args...).
		Build()
}

func (l *loader) unit(n *yaml.Node) (*Unit, error) {
	fields, err := l.mapping(n)
	if err != nil {
		return nil, err
	}

	unit := &Unit{Pos: l.pos(n)}
	if name, ok := fields["name"]; ok {
		unit.Name = name.Value
	}
	if opts, ok := fields["options"]; ok {
		if err := opts.Decode(&unit.Options); err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidUnit).
				At(l.pos(opts)).
				Detail("invalid options").
				Cause(err).
				Build()
		}
	}

	fns, ok := fields["functions"]
	if !ok {
		return unit, nil
	}
	if fns.Kind != yaml.SequenceNode {
		return nil, l.fail(fns, errors.KindInvalidUnit, "functions must be a list")
	}

	seen := make(map[string]bool)
	for _, fnNode := range fns.Content {
		fn, err := l.functionDecl(fnNode)
		if err != nil {
			return nil, err
		}
		if seen[fn.Name] {
			return nil, l.fail(fnNode, errors.KindInvalidUnit, "duplicate function %q", fn.Name)
		}
		seen[fn.Name] = true
		unit.Functions = append(unit.Functions, fn)
	}
	return unit, nil
}

func (l *loader) functionDecl(n *yaml.Node) (*Function, error) {
	fields, err := l.mapping(n)
	if err != nil {
		return nil, err
	}

	nameNode, ok := fields["name"]
	if !ok {
		return nil, l.fail(n, errors.KindInvalidUnit, "function without name")
	}

	fn := &Function{Pos: l.pos(n), Name: nameNode.Value}
	l.function = fn.Name
	l.nextVar = 0
	l.scopes = nil
	l.openScope()
	defer l.closeScope()

	if params, ok := fields["params"]; ok {
		for _, p := range params.Content {
			pf, err := l.mapping(p)
			if err != nil {
				return nil, err
			}
			typ, err := l.typeOf(pf["type"], p)
			if err != nil {
				return nil, err
			}
			v, err := l.declare(pf["name"], p, typ)
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, &Param{Pos: l.pos(p), Var: v})
		}
	}

	if rets, ok := fields["returns"]; ok {
		for _, r := range rets.Content {
			typ, err := l.typeOf(r, r)
			if err != nil {
				return nil, err
			}
			fn.Returns = append(fn.Returns, typ)
		}
	}
	l.returns = fn.Returns

	body, err := l.block(fields["body"], n)
	if err != nil {
		return nil, err
	}
	fn.Body = body
	fn.EndPos = body.EndPos
	return fn, nil
}

func (l *loader) block(n *yaml.Node, parent *yaml.Node) (*Block, error) {
	if n == nil {
		return &Block{Pos: l.pos(parent)}, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, l.fail(n, errors.KindInvalidUnit, "expected a statement list")
	}

	l.openScope()
	defer l.closeScope()

	block := &Block{Pos: l.pos(n), EndPos: l.pos(n)}
	for _, s := range n.Content {
		stmt, err := l.stmt(s)
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
		block.EndPos = l.pos(s)
	}
	return block, nil
}

func (l *loader) stmts(n *yaml.Node) ([]Stmt, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, l.fail(n, errors.KindInvalidUnit, "expected a statement list")
	}
	var out []Stmt
	for _, s := range n.Content {
		stmt, err := l.stmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func (l *loader) stmt(n *yaml.Node) (Stmt, error) {
	pos := l.pos(n)

	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "break":
			return &BreakStmt{Pos: pos}, nil
		case "continue":
			return &ContinueStmt{Pos: pos}, nil
		case "return":
			return l.returnStmt(n, nil)
		case "revert":
			return &RevertStmt{Pos: pos}, nil
		}
		return nil, l.fail(n, errors.KindInvalidUnit, "unknown statement %q", n.Value)
	}

	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return nil, l.fail(n, errors.KindInvalidUnit, "a statement is a single-key mapping")
	}
	kind, arg := n.Content[0].Value, n.Content[1]

	switch kind {
	case "let":
		return l.varDecl(arg)
	case "assign":
		return l.assign(arg)
	case "push":
		return l.pushStmt(arg)
	case "if":
		f, err := l.mapping(arg)
		if err != nil {
			return nil, err
		}
		cond, err := l.cond(f["cond"], arg)
		if err != nil {
			return nil, err
		}
		then, err := l.block(f["then"], arg)
		if err != nil {
			return nil, err
		}
		stmt := &IfStmt{Pos: pos, Cond: cond, Then: then}
		if elseNode, ok := f["else"]; ok {
			if stmt.Else, err = l.block(elseNode, arg); err != nil {
				return nil, err
			}
		}
		return stmt, nil
	case "while":
		f, err := l.mapping(arg)
		if err != nil {
			return nil, err
		}
		cond, err := l.cond(f["cond"], arg)
		if err != nil {
			return nil, err
		}
		body, err := l.block(f["body"], arg)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Pos: pos, Cond: cond, Body: body}, nil
	case "for":
		return l.forStmt(arg)
	case "do":
		f, err := l.mapping(arg)
		if err != nil {
			return nil, err
		}
		body, err := l.block(f["body"], arg)
		if err != nil {
			return nil, err
		}
		cond, err := l.cond(f["cond"], arg)
		if err != nil {
			return nil, err
		}
		return &DoWhileStmt{Pos: pos, Body: body, Cond: cond}, nil
	case "break":
		return &BreakStmt{Pos: pos}, nil
	case "continue":
		return &ContinueStmt{Pos: pos}, nil
	case "return":
		return l.returnStmt(n, arg)
	case "revert":
		return &RevertStmt{Pos: pos, Reason: arg.Value}, nil
	case "require":
		f, err := l.mapping(arg)
		if err != nil {
			return nil, err
		}
		cond, err := l.cond(f["cond"], arg)
		if err != nil {
			return nil, err
		}
		stmt := &RequireStmt{Pos: pos, Cond: cond}
		if reason, ok := f["reason"]; ok {
			stmt.Reason = reason.Value
		}
		return stmt, nil
	case "expr":
		e, err := l.expr(arg, nil)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Pos: pos, Expr: e}, nil
	case "block":
		return l.block(arg, n)
	}
	return nil, l.fail(n, errors.KindInvalidUnit, "unknown statement %q", kind)
}

func (l *loader) varDecl(n *yaml.Node) (Stmt, error) {
	f, err := l.mapping(n)
	if err != nil {
		return nil, err
	}
	typ, err := l.typeOf(f["type"], n)
	if err != nil {
		return nil, err
	}

	// the initializer cannot see the variable it declares
	var value Expr
	if v, ok := f["value"]; ok {
		if value, err = l.typed(v, typ); err != nil {
			return nil, err
		}
	}

	variable, err := l.declare(f["name"], n, typ)
	if err != nil {
		return nil, err
	}
	return &VarDecl{Pos: l.pos(n), Var: variable, Value: value}, nil
}

func (l *loader) assign(n *yaml.Node) (Stmt, error) {
	f, err := l.mapping(n)
	if err != nil {
		return nil, err
	}
	target, err := l.lookup(f["target"], n)
	if err != nil {
		return nil, err
	}

	op := ASSIGN
	if opNode, ok := f["op"]; ok {
		if op = ParseAssignType(opNode.Value); op == ILLEGAL_ASSIGN {
			return nil, l.fail(opNode, errors.KindInvalidUnit, "unknown assignment operator %q", opNode.Value)
		}
	}

	var value Expr
	switch bin := op.BinaryOp(); {
	case bin == "<<" || bin == ">>":
		value, err = l.expr(f["value"], nil)
	default:
		value, err = l.typed(f["value"], target.Type)
	}
	if err != nil {
		return nil, err
	}

	if op != ASSIGN && types.IsSlice(target.Type) && op != PLUS_ASSIGN {
		return nil, l.fail(n, errors.KindTypeMismatch, "operator %s on %s", op, target.Type)
	}
	return &AssignStmt{Pos: l.pos(n), Target: target, Operator: op, Value: value}, nil
}

func (l *loader) pushStmt(n *yaml.Node) (Stmt, error) {
	f, err := l.mapping(n)
	if err != nil {
		return nil, err
	}
	target, err := l.lookup(f["target"], n)
	if err != nil {
		return nil, err
	}

	elem, ok := types.ElemType(target.Type)
	if !ok || !types.IsSlice(target.Type) {
		return nil, l.fail(n, errors.KindTypeMismatch, "push on %s", target.Type)
	}
	value, err := l.typed(f["value"], elem)
	if err != nil {
		return nil, err
	}
	return &PushStmt{Pos: l.pos(n), Target: target, Value: value}, nil
}

func (l *loader) forStmt(n *yaml.Node) (Stmt, error) {
	f, err := l.mapping(n)
	if err != nil {
		return nil, err
	}

	// init variables are scoped to the loop
	l.openScope()
	defer l.closeScope()

	stmt := &ForStmt{Pos: l.pos(n)}
	if stmt.Init, err = l.stmts(f["init"]); err != nil {
		return nil, err
	}
	if c, ok := f["cond"]; ok {
		if stmt.Cond, err = l.cond(c, n); err != nil {
			return nil, err
		}
	}
	if stmt.Body, err = l.block(f["body"], n); err != nil {
		return nil, err
	}
	if stmt.Post, err = l.stmts(f["post"]); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (l *loader) returnStmt(n *yaml.Node, arg *yaml.Node) (Stmt, error) {
	stmt := &ReturnStmt{Pos: l.pos(n)}

	var nodes []*yaml.Node
	switch {
	case arg == nil || (arg.Kind == yaml.ScalarNode && arg.Tag == "!!null"):
	case arg.Kind == yaml.SequenceNode:
		nodes = arg.Content
	default:
		nodes = []*yaml.Node{arg}
	}

	if len(nodes) != len(l.returns) {
		return nil, l.fail(n, errors.KindTypeMismatch, "returns %d values, function declares %d", len(nodes), len(l.returns))
	}
	for i, vn := range nodes {
		v, err := l.typed(vn, l.returns[i])
		if err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, v)
	}
	return stmt, nil
}

func (l *loader) cond(n *yaml.Node, parent *yaml.Node) (Expr, error) {
	if n == nil {
		return nil, l.fail(parent, errors.KindInvalidUnit, "missing condition")
	}
	return l.typed(n, types.Bool())
}

// typed resolves n and checks that it has type want
func (l *loader) typed(n *yaml.Node, want types.Type) (Expr, error) {
	e, err := l.expr(n, want)
	if err != nil {
		return nil, err
	}
	if !types.Equal(e.ExprType(), want) {
		return nil, l.fail(n, errors.KindTypeMismatch, "expected %s, got %s", want, e.ExprType())
	}
	return e, nil
}

func (l *loader) typeOf(n *yaml.Node, parent *yaml.Node) (types.Type, error) {
	if n == nil {
		return nil, l.fail(parent, errors.KindInvalidUnit, "missing type")
	}
	t, err := types.ParseType(n.Value)
	if err != nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidSignature).
			Function(l.function).
			At(l.pos(n)).
			Detail("invalid type %q", n.Value).
			Cause(err).
			Build()
	}
	return t, nil
}

func (l *loader) mapping(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		if n == nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidUnit).
				Function(l.function).
				Detail("expected a mapping").
				Build()
		}
		return nil, l.fail(n, errors.KindInvalidUnit, "expected a mapping")
	}
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		fields[n.Content[i].Value] = n.Content[i+1]
	}
	return fields, nil
}

func (l *loader) openScope() {
	l.scopes = append(l.scopes, make(map[string]*Variable))
}

func (l *loader) closeScope() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

func (l *loader) declare(name *yaml.Node, parent *yaml.Node, typ types.Type) (*Variable, error) {
	if name == nil || name.Value == "" {
		return nil, l.fail(parent, errors.KindInvalidUnit, "missing variable name")
	}
	scope := l.scopes[len(l.scopes)-1]
	if _, exists := scope[name.Value]; exists {
		return nil, l.fail(name, errors.KindInvalidUnit, "variable %q redeclared in the same scope", name.Value)
	}
	l.nextVar++
	v := &Variable{ID: l.nextVar, Name: name.Value, Type: typ}
	scope[name.Value] = v
	return v, nil
}

func (l *loader) lookup(name *yaml.Node, parent *yaml.Node) (*Variable, error) {
	if name == nil {
		return nil, l.fail(parent, errors.KindInvalidUnit, "missing variable name")
	}
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if v, ok := l.scopes[i][name.Value]; ok {
			return v, nil
		}
	}
	return nil, l.fail(name, errors.KindNotFound, "undefined variable %q", name.Value)
}

func parseHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
}

func parseNumber(s string) (*big.Int, error) {
	x, ok := new(big.Int).SetString(strings.ReplaceAll(s, "_", ""), 0)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return x, nil
}
