// Package jsir is the intermediate representation produced by lowering:
// target expressions and statements that know how to print themselves.
package jsir

// Binding strength of expressions, lowest value binds tightest.
const (
	PrecLit   = -1
	PrecGroup = 0
	PrecField = 1
	PrecApply = 1
	PrecNot   = 2
	PrecBin   = 5
	PrecFun   = 10
	// PrecRL marks code that must always be parenthesised when nested.
	PrecRL = 15
)

// Code is a lowered IR element.
type Code interface {
	Render(p *Printer)
}

// Expr is code that produces a value.
type Expr interface {
	Code
	Precedence() int
}

// Stmt is code executed for effect.
type Stmt interface {
	Code
	stmtNode()
}

// ToExpr converts code to an expression. Statements that cannot be used as
// values are wrapped in an immediately invoked function.
func ToExpr(c Code) Expr {
	switch c := c.(type) {
	case Expr:
		return c
	case *ExprStmt:
		return c.X
	case *Bind:
		if fn, ok := c.Value.(*Fun); ok {
			return fn
		}
	case *Block:
		if len(c.Stats) == 1 {
			return ToExpr(c.Stats[0])
		}
		body := &Block{Stats: append([]Code(nil), c.Stats...)}
		return NewIIFE(&Fun{Body: body}, nil)
	}
	return NewIIFE(&Fun{Body: &Block{Stats: []Code{c}}}, nil)
}

// ToStmt converts code to a statement.
func ToStmt(c Code) Stmt {
	if s, ok := c.(Stmt); ok {
		return s
	}
	return &ExprStmt{X: c.(Expr)}
}
