package lower

import (
	"sort"
	"strconv"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/scope"
)

// Specificity ranks of case arms; arms are tried in ascending rank order.
const (
	rankNone   = -1
	rankNormal = 0
	rankSome   = 4
	rankAny    = 5
)

var (
	tagClass = jsir.NewLit("_tag")
	headFn   = jsir.NewLit("head")
	tailFn   = jsir.NewLit("tail")
)

// guard is a compiled pattern. A nil test always succeeds. total is set
// when the pattern matches every value, even if the test binds names.
type guard struct {
	test  jsir.Expr
	total bool
}

type compiledArm struct {
	arm   *ast.CaseArm
	guard guard
	rank  int
	sc    scope.Scope
}

// matcher compiles the patterns of one case expression. Variables bound
// by patterns are declared in block ahead of the conditional.
type matcher struct {
	l     *lowerer
	block *jsir.Block
	names map[string]bool
}

// rank returns the specificity rank of a top-level pattern.
func rank(p ast.Pattern) int {
	switch p := p.(type) {
	case *ast.WildcardPattern, *ast.UnitPattern:
		return rankAny
	case *ast.VariantPattern:
		switch p.Name {
		case "None":
			return rankNone
		case "Some":
			return rankSome
		}
	}
	return rankNormal
}

// caseOf evaluates the subject once into a temporary, compiles every arm
// into a guard on it and chains the arms by ascending rank.
func (l *lowerer) caseOf(n *ast.CaseExpression, sc scope.Scope) jsir.Code {
	block := jsir.NewBlock("case")
	val := l.temp()
	block.Bind(val, l.lower(n.Subject, sc))

	m := &matcher{l: l, block: block}
	arms := make([]*compiledArm, len(n.Arms))
	for i, a := range n.Arms {
		m.names = map[string]bool{}
		armScope := sc
		g := m.pattern(a.Pattern, val, &armScope)
		arms[i] = &compiledArm{arm: a, guard: g, rank: rank(a.Pattern), sc: armScope}
	}
	sort.SliceStable(arms, func(i, j int) bool { return arms[i].rank < arms[j].rank })

	ifs := jsir.NewIf(l.temp())
	for _, a := range arms {
		if ifs.HasElse() {
			l.warn(diagnostics.WarnW003, a.arm.Token, "unreachable pattern")
			continue
		}
		var body jsir.Code = jsir.Undefined
		if w, ok := a.arm.Pattern.(*ast.WildcardPattern); !ok || !w.Ellipsis {
			body = l.lower(a.arm.Body, a.sc)
		}
		if !a.guard.total {
			ifs.Add(a.guard.test, body)
			continue
		}
		// A total arm ends the chain; its bindings run at the top of the
		// branch.
		arm := jsir.NewBlock("arm")
		if a.guard.test != nil {
			arm.Add(&jsir.ExprStmt{X: a.guard.test})
		}
		ifs.Add(nil, arm.Add(body))
	}
	block.Add(ifs.Block())
	return block
}

// bind declares a pattern variable and returns the test assigning it.
func (m *matcher) bind(name string, tok ast.Node, value jsir.Expr, sc *scope.Scope) jsir.Expr {
	if m.names[name] {
		m.l.fail(tok.GetToken(), diagnostics.ErrL002, "Duplicate binding %s in pattern", name)
	}
	m.names[name] = true
	*sc = sc.BindAt(name, tok.GetToken())
	decl := sc.Decl()
	m.block.Add(&jsir.Bind{Sym: decl})
	return &jsir.Seq{Items: []jsir.Expr{&jsir.Assign{Target: decl, Value: value}, jsir.True}}
}

// hold returns val itself when it is a variable, otherwise a fresh
// variable together with the test that assigns val to it.
func (m *matcher) hold(val jsir.Expr) (*jsir.Sym, jsir.Expr) {
	if s, ok := val.(*jsir.Sym); ok {
		return s, nil
	}
	tv := m.l.temp()
	m.block.Add(&jsir.Bind{Sym: tv})
	return tv, &jsir.Seq{Items: []jsir.Expr{&jsir.Assign{Target: tv, Value: val}, jsir.True}}
}

// then sequences a binding test before the test of a nested pattern:
// `(t = v, P)`.
func then(assign jsir.Expr, inner jsir.Expr) jsir.Expr {
	s := assign.(*jsir.Seq)
	if inner == nil {
		return s
	}
	return &jsir.Seq{Items: []jsir.Expr{s.Items[0], inner}}
}

func (m *matcher) pattern(p ast.Pattern, val jsir.Expr, sc *scope.Scope) guard {
	switch p := p.(type) {
	case *ast.WildcardPattern, *ast.UnitPattern:
		return guard{total: true}

	case *ast.IdentifierPattern:
		if p.Value == "_" {
			return guard{total: true}
		}
		return guard{test: m.bind(p.Value, p, val, sc), total: true}

	case *ast.LiteralPattern:
		lit := m.l.expr(p.Value, *sc)
		return guard{test: &jsir.BinOp{Op: "===", Left: lit, Right: val}}

	case *ast.ListPattern:
		parts := []jsir.Expr{&jsir.BinOp{Op: "===", Left: &jsir.Field{Obj: val, Name: "length"}, Right: jsir.NewLit(strconv.Itoa(len(p.Elements)))}}
		for i, e := range p.Elements {
			parts = append(parts, m.pattern(e, &jsir.Index{Obj: val, Key: jsir.NewLit(strconv.Itoa(i))}, sc).test)
		}
		return guard{test: jsir.And(parts...)}

	case *ast.ConsPattern:
		hd, hdAssign := m.hold(jsir.NewApply(headFn, val))
		tl, tlAssign := m.hold(jsir.NewApply(tailFn, val))
		head := m.pattern(p.Head, hd, sc)
		tail := m.pattern(p.Tail, tl, sc)
		nonEmpty := &jsir.BinOp{Op: ">", Left: &jsir.Field{Obj: val, Name: "length"}, Right: jsir.NewLit("0")}
		return guard{test: jsir.And(nonEmpty, then(hdAssign, head.test), then(tlAssign, tail.test))}

	case *ast.StructPattern:
		tv, assign := m.hold(val)
		total := true
		parts := []jsir.Expr{assign}
		seen := map[string]bool{}
		for _, f := range p.Fields {
			if seen[f.Name] {
				m.l.fail(f.Token, diagnostics.ErrL002, "Duplicate field %s in pattern", f.Name)
			}
			seen[f.Name] = true
			g := m.pattern(f.Pattern, &jsir.Field{Obj: tv, Name: f.Name}, sc)
			total = total && g.total
			parts = append(parts, g.test)
		}
		if assign == nil && len(parts) == 1 {
			return guard{total: total}
		}
		return guard{test: jsir.And(parts...), total: total}

	case *ast.VariantPattern:
		return m.variant(p, val, sc)
	}
	m.l.fail(p.GetToken(), diagnostics.ErrL003, "Unsupported pattern %T", p)
	return guard{}
}

// variant tests the runtime tag. None also matches null; Some also
// matches an untagged value, which is then the payload itself.
func (m *matcher) variant(p *ast.VariantPattern, val jsir.Expr, sc *scope.Scope) guard {
	tagged := &jsir.BinOp{Op: "instanceof", Left: val, Right: tagClass}
	named := &jsir.BinOp{Op: "===", Left: jsir.NewStr(p.Name), Right: &jsir.Field{Obj: val, Name: "tag"}}

	if p.Name == "Some" {
		pv := m.l.temp()
		m.block.Add(&jsir.Bind{Sym: pv})
		fromTag := &jsir.Seq{Items: []jsir.Expr{&jsir.Assign{Target: pv, Value: &jsir.Field{Obj: val, Name: "value"}}, jsir.True}}
		bare := &jsir.Seq{Items: []jsir.Expr{&jsir.Assign{Target: pv, Value: val}, jsir.True}}
		either := &jsir.BinOp{Op: "||",
			Left:  jsir.And(tagged, named, fromTag),
			Right: jsir.And(&jsir.BinOp{Op: "!==", Left: val, Right: jsir.Null}, &jsir.BinOp{Op: "!", Right: tagged}, bare),
		}
		return guard{test: jsir.And(either, m.pattern(p.Payload, pv, sc).test)}
	}

	payload := m.pattern(p.Payload, &jsir.Field{Obj: val, Name: "value"}, sc)
	test := jsir.Expr(&jsir.BinOp{Op: "&&", Left: tagged, Right: jsir.And(named, payload.test)})
	if p.Name == "None" {
		test = &jsir.BinOp{Op: "||", Left: &jsir.BinOp{Op: "===", Left: val, Right: jsir.Null}, Right: test}
	}
	return guard{test: test}
}
