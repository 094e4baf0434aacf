package jsir

// OptimizeTailCalls rewrites a function body whose tail positions call the
// function itself (named name, with the given parameters across its
// curried chain) into a loop: the call reassigns the parameters and
// continues, any other exit stores the result and breaks.
//
// It reports whether the body was rewritten. A body without such calls,
// including an already rewritten one, is left untouched.
func OptimizeTailCalls(body *Block, name string, params []*Sym, temp func() *Sym) bool {
	if name == "" || len(params) == 0 || !hasTailCall(body, name, len(params)) {
		return false
	}
	result := temp()
	rewriteTail(body, name, params, result, temp)
	loop := &While{Cond: True, Body: &Block{Stats: body.Stats}}
	body.Stats = []Code{&Bind{Sym: result}, loop, result}
	return true
}

// trailingIf returns the conditional whose result the block yields.
func trailingIf(b *Block) *If {
	n := len(b.Stats)
	if n < 2 {
		return nil
	}
	v, ok := b.Stats[n-1].(*Sym)
	if !ok {
		return nil
	}
	ifs, ok := b.Stats[n-2].(*If)
	if !ok || ifs.Var != v || ifs.Bound {
		return nil
	}
	return ifs
}

// selfCallArgs returns the arguments of c when it applies the function
// named name to exactly arity arguments.
func selfCallArgs(c Code, name string, arity int) ([]Expr, bool) {
	app, ok := c.(*Apply)
	if !ok {
		return nil, false
	}
	args := make([]Expr, arity)
	i := arity - 1
	for {
		if i < 0 {
			return nil, false
		}
		args[i] = app.Arg
		i--
		next, ok := app.Fun.(*Apply)
		if !ok {
			break
		}
		app = next
	}
	fn, ok := app.Fun.(*Sym)
	if !ok || fn.Name != name || i != -1 {
		return nil, false
	}
	return args, true
}

func hasTailCall(b *Block, name string, arity int) bool {
	if ifs := trailingIf(b); ifs != nil {
		for _, c := range ifs.Clauses {
			if hasTailCall(c.Body, name, arity) {
				return true
			}
		}
		return false
	}
	_, ok := selfCallArgs(b.Last(), name, arity)
	return ok
}

func rewriteTail(b *Block, name string, params []*Sym, result *Sym, temp func() *Sym) {
	if ifs := trailingIf(b); ifs != nil {
		for _, c := range ifs.Clauses {
			rewriteTail(c.Body, name, params, result, temp)
		}
		if !ifs.HasElse() {
			ifs.Clauses = append(ifs.Clauses, &IfClause{Body: &Block{Stats: []Code{Break}}})
		}
		ifs.Bound = true
		b.Stats = b.Stats[:len(b.Stats)-1]
		return
	}

	args, ok := selfCallArgs(b.Last(), name, len(params))
	if !ok {
		b.BindLast(result, false)
		b.Add(Break)
		return
	}

	b.Stats = b.Stats[:len(b.Stats)-1]
	temps := make([]*Sym, len(params))
	for i, p := range params {
		if p.IsNoArg() {
			if !IsUndefined(args[i]) {
				b.Add(&ExprStmt{X: args[i]})
			}
			continue
		}
		temps[i] = temp()
		b.Add(&Bind{Sym: temps[i], Value: args[i]})
	}
	for i, p := range params {
		if temps[i] != nil {
			b.Add(&ExprStmt{X: &Assign{Target: p, Value: temps[i]}})
		}
	}
	b.Add(Continue)
}
