package lower

import (
	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/scope"
)

// conditional lowers an if chain into branches that store their value in
// one result temporary.
func (l *lowerer) conditional(n *ast.IfExpression, sc scope.Scope) jsir.Code {
	ifs := jsir.NewIf(l.temp())
	for _, c := range n.Clauses {
		cond := l.expr(c.Condition, sc)
		ifs.Add(cond, l.lower(c.Body, sc))
	}
	if n.Else != nil {
		ifs.Add(nil, l.lower(n.Else, sc))
	}
	return ifs.Block()
}

func (l *lowerer) loop(n *ast.LoopExpression, sc scope.Scope) jsir.Code {
	var cond jsir.Expr = jsir.True
	if n.Condition != nil {
		cond = l.expr(n.Condition, sc)
	}
	body := jsir.NewBlock("")
	if n.Body != nil {
		body.Add(l.lower(n.Body, sc))
		body.ToStatements()
	}
	block := jsir.NewBlock("loop")
	block.Add(&jsir.While{Cond: cond, Body: body})
	block.Add(jsir.Undefined)
	return block
}

func (l *lowerer) tryCatch(n *ast.TryExpression, sc scope.Scope) jsir.Code {
	if len(n.Catches) > 1 {
		l.fail(n.Catches[1].Token, diagnostics.ErrL005, "Only one catch clause allowed")
	}
	if len(n.Catches) == 0 && n.Finally == nil {
		return l.lower(n.Body, sc)
	}
	t := jsir.NewTry(l.temp(), l.lower(n.Body, sc))
	if len(n.Catches) == 1 {
		c := n.Catches[0]
		csc := sc.BindAt(c.Variable, c.Token)
		t.SetCatch(csc.Decl(), l.lower(c.Body, csc))
	}
	if n.Finally != nil {
		t.SetFinally(l.lower(n.Finally, sc))
	}
	return t.Block()
}
