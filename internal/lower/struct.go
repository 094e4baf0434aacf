package lower

import (
	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/scope"
)

func isMethod(f *ast.StructField) bool {
	_, ok := f.Value.(*ast.Lambda)
	return ok && !f.NoRec
}

// structLiteral lowers a structure. Data fields form an object literal.
// When function fields are present the object is materialised first and
// the functions are lowered in a scope where every field is a local name,
// then patched into the object.
func (l *lowerer) structLiteral(n *ast.StructLiteral, sc scope.Scope) jsir.Code {
	if len(n.Fields) == 0 {
		l.fail(n.Token, diagnostics.ErrL004, "No sense in empty struct")
	}
	seen := map[string]bool{}
	obj := &jsir.Object{}
	methods := 0
	for _, f := range n.Fields {
		if seen[f.Name] {
			l.fail(f.Token, diagnostics.ErrL002, "Duplicate field %s in the structure", f.Name)
		}
		seen[f.Name] = true
		if isMethod(f) {
			methods++
			continue
		}
		obj.Fields = append(obj.Fields, &jsir.ObjectField{Key: f.Name, Value: l.expr(f.Value, sc)})
	}
	if methods == 0 {
		return obj
	}

	block := jsir.NewBlock("struct")
	tv := l.temp()
	block.Add(&jsir.Bind{Sym: tv, Value: obj})
	inner := sc
	syms := make(map[string]*jsir.Sym, methods)
	for _, f := range n.Fields {
		inner = inner.BindAt(f.Name, f.Token)
		if isMethod(f) {
			syms[f.Name] = inner.Decl()
			continue
		}
		block.Add(&jsir.Bind{Sym: inner.Decl(), Value: &jsir.Field{Obj: tv, Name: f.Name}})
	}
	for _, f := range n.Fields {
		if !isMethod(f) {
			continue
		}
		sym := syms[f.Name]
		block.Add(&jsir.Bind{Sym: sym, Value: l.lambda(f.Value.(*ast.Lambda), inner, f.Var, sym, "")})
		block.Add(&jsir.ExprStmt{X: &jsir.Assign{Target: &jsir.Field{Obj: tv, Name: f.Name}, Value: sym}})
	}
	block.Add(tv)
	return block
}

// with builds a new object holding the own fields of both operands, the
// right one winning.
func (l *lowerer) with(n *ast.WithExpression, sc scope.Scope) jsir.Code {
	left := l.expr(n.Left, sc)
	right := l.expr(n.Right, sc)
	block := jsir.NewBlock("with")
	res, a, b, k := l.temp(), l.temp(), l.temp(), l.temp()
	block.Add(&jsir.Bind{Sym: a, Value: left})
	block.Add(&jsir.Bind{Sym: b, Value: right})
	block.Add(&jsir.Bind{Sym: res, Value: &jsir.Object{}})
	block.Add(&jsir.Merge{Target: res, Source: a, Key: k})
	block.Add(&jsir.Merge{Target: res, Source: b, Key: k})
	block.Add(res)
	return block
}

func (l *lowerer) mapLiteral(n *ast.MapLiteral, sc scope.Scope) jsir.Code {
	if len(n.Entries) == 0 {
		return &jsir.Object{}
	}
	block := jsir.NewBlock("map")
	tv := l.temp()
	block.Add(&jsir.Bind{Sym: tv, Value: &jsir.Object{}})
	for _, e := range n.Entries {
		key := l.expr(e.Key, sc)
		block.Add(&jsir.ExprStmt{X: &jsir.Assign{Target: &jsir.Index{Obj: tv, Key: key}, Value: l.expr(e.Value, sc)}})
	}
	block.Add(tv)
	return block
}

// list lowers a list literal into array segments; each range becomes its
// own segment.
func (l *lowerer) list(n *ast.ListLiteral, sc scope.Scope) jsir.Expr {
	var (
		segments []jsir.Expr
		cur      *jsir.Array
	)
	for _, e := range n.Elements {
		if r, ok := e.(*ast.RangeExpression); ok {
			segments = append(segments, l.rangeCall(r, sc))
			cur = nil
			continue
		}
		if cur == nil {
			cur = &jsir.Array{}
			segments = append(segments, cur)
		}
		cur.Items = append(cur.Items, l.expr(e, sc))
	}
	if len(segments) == 0 {
		return &jsir.Array{}
	}
	return &jsir.ListConcat{Segments: segments}
}

func (l *lowerer) rangeCall(r *ast.RangeExpression, sc scope.Scope) jsir.Expr {
	return jsir.NewApply(jsir.NewLit("range"), l.expr(r.From, sc), l.expr(r.To, sc))
}
