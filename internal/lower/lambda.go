package lower

import (
	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/scope"
)

// lambda lowers a function literal together with the literals directly
// nested in its body, which form one curried chain sharing one function
// scope.
//
// self is the variable the function is bound to, if any. When self is nil
// and name is set, the name is bound inside the function so the body can
// call itself. A function bound to a var is never turned into a loop since
// the variable may be reassigned.
func (l *lowerer) lambda(fn *ast.Lambda, sc scope.Scope, bindToVar bool, self *jsir.Sym, name string) *jsir.Fun {
	fnScope := sc.NewFunction()
	if name == "" {
		name = fn.Name
	}
	named := !bindToVar
	if self == nil && name != "" {
		fnScope = fnScope.BindAt(name, fn.Token)
		self = fnScope.Decl()
		named = true
	}

	var (
		first, last *jsir.Fun
		params      []*jsir.Sym
		body        ast.Expression = fn
	)
	prelude := jsir.NewBlock("")
	inner := fnScope
	for {
		lam, ok := body.(*ast.Lambda)
		if !ok || (first != nil && lam.Name != "") {
			break
		}
		var arg *jsir.Sym
		inner, arg = l.param(lam, inner, prelude)
		f := jsir.NewFun(nil, arg, nil)
		if first == nil {
			first = f
		} else {
			last.Body.Add(f)
			last.Close()
		}
		last = f
		params = append(params, arg)
		body = lam.Body
	}

	last.Body.AddFlat(prelude)
	last.Body.AddFlat(l.lower(body, inner))
	if named && self != nil {
		first.Name = self
	}
	if !bindToVar && self != nil {
		if jsir.OptimizeTailCalls(last.Body, self.Name, params, l.temp) {
			fnScope.Boundary().MarkLooping(params...)
		}
	}
	last.Close()

	parent, own := sc.Boundary(), fnScope.Boundary()
	first.Capture = func() []*jsir.Sym {
		if !parent.Looping() {
			return nil
		}
		var caps []*jsir.Sym
		for _, ref := range own.FreeVariables() {
			if ref.Boundary.Same(parent) && parent.LoopParam(ref.Target) {
				caps = append(caps, ref.Sym())
			}
		}
		return caps
	}
	return first
}

// param binds the parameter of lam. Patterns other than a plain name bind
// a temporary argument and add the bindings they need to prelude.
func (l *lowerer) param(lam *ast.Lambda, sc scope.Scope, prelude *jsir.Block) (scope.Scope, *jsir.Sym) {
	switch p := lam.Param.(type) {
	case nil, *ast.UnitLiteral, *ast.UnitPattern, *ast.WildcardPattern:
		return sc, jsir.NoArg
	case *ast.Identifier:
		if p.Value == "_" {
			return sc, jsir.NoArg
		}
		sc = sc.BindAt(p.Value, p.Token)
		return sc, sc.Decl()
	case *ast.IdentifierPattern:
		sc = sc.BindAt(p.Value, p.Token)
		return sc, sc.Decl()
	case *ast.StructPattern:
		arg := l.temp()
		return l.bindStruct(p.Fields, arg, sc, prelude), arg
	}
	l.fail(lam.Param.GetToken(), diagnostics.ErrL006, "Bad argument: %s", lam.Param.TokenLiteral())
	return sc, nil
}
