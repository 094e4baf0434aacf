package lower

import (
	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/scope"
	"github.com/funvibe/yjs/internal/typesystem"
)

// nativeOps maps source operators that have a direct target counterpart.
var nativeOps = map[string]string{
	"<":     "<",
	">":     ">",
	"<=":    "<=",
	">=":    ">=",
	"+":     "+",
	"-":     "-",
	"*":     "*",
	"/":     "/",
	"%":     "%",
	"shl":   "<<",
	"shr":   ">>",
	"b_and": "&",
	"b_or":  "|",
	"xor":   "^",
	"and":   "&&",
	"or":    "||",
}

// Names of the root builtins that raise an exception when applied.
var throwTargets = map[string]bool{"failWith": true, jsir.Mangle("throw"): true}

func (l *lowerer) binary(n *ast.BinaryExpression, sc scope.Scope) jsir.Code {
	if n.Left == nil {
		right := l.expr(n.Right, sc)
		switch n.Operator {
		case "-":
			return &jsir.BinOp{Op: "-", Right: right}
		case "not":
			return &jsir.BinOp{Op: "!", Right: right}
		}
		return jsir.NewApply(l.ref(n.Operator, n.Token, sc), right)
	}

	switch n.Operator {
	case "^":
		return &jsir.Concat{Parts: []jsir.Expr{l.expr(n.Left, sc), l.expr(n.Right, sc)}}
	case "|>":
		left := l.expr(n.Left, sc)
		return jsir.NewApply(l.expr(n.Right, sc), left)
	case "==", "!=":
		if typesystem.IsPrimitive(n.Left.GetType()) && typesystem.IsPrimitive(n.Right.GetType()) {
			op := "==="
			if n.Operator == "!=" {
				op = "!=="
			}
			left := l.expr(n.Left, sc)
			return &jsir.BinOp{Op: op, Left: left, Right: l.expr(n.Right, sc)}
		}
	default:
		if op, ok := nativeOps[n.Operator]; ok {
			left := l.expr(n.Left, sc)
			return &jsir.BinOp{Op: op, Left: left, Right: l.expr(n.Right, sc)}
		}
	}
	fn := l.ref(n.Operator, n.Token, sc)
	left := l.expr(n.Left, sc)
	return jsir.NewApply(fn, left, l.expr(n.Right, sc))
}

func (l *lowerer) apply(n *ast.ApplyExpression, sc scope.Scope) jsir.Code {
	if id, ok := n.Function.(*ast.Identifier); ok {
		switch {
		case isConstructor(id.Value):
			return l.variant(id.Value, n.Argument, sc)
		case id.Value == "throw" || id.Value == "failWith":
			if fn := l.ref(id.Value, id.Token, sc); throwTargets[fn.Name] {
				return &jsir.Throw{X: l.expr(n.Argument, sc)}
			}
		}
	}
	fn := l.expr(n.Function, sc)
	return jsir.NewApply(fn, l.expr(n.Argument, sc))
}

// variant constructs a tagged value. None is null and Some is its payload
// unless the payload type could itself be confused with a tagged value.
func (l *lowerer) variant(name string, payload ast.Expression, sc scope.Scope) jsir.Expr {
	if name == "None" {
		return jsir.Null
	}
	var v jsir.Expr = jsir.Undefined
	if payload != nil {
		v = l.expr(payload, sc)
	}
	if name == "Some" {
		if payload != nil {
			if t := payload.GetType(); t != nil && !typesystem.IsOpaque(t) {
				return v
			}
		}
		return jsir.NewApply(jsir.NewLit("_tagS"), v)
	}
	return &jsir.New{Class: "_tag", Args: []jsir.Expr{jsir.NewStr(name), v}}
}

// section lowers `(op arg)` to a function of the left operand. A
// non-constant argument is evaluated once, when the section is created.
func (l *lowerer) section(n *ast.OperatorSection, sc scope.Scope) jsir.Expr {
	arg := l.expr(n.Argument, sc)
	var op jsir.Expr
	if _, native := nativeOps[n.Operator]; !native {
		op = l.ref(n.Operator, n.Token, sc)
	}

	var bound *jsir.Sym
	if _, constant := arg.(*jsir.Lit); !constant {
		bound = l.temp()
	}
	tv := l.temp()
	operand := arg
	if bound != nil {
		operand = bound
	}
	var body jsir.Expr
	if op == nil {
		body = &jsir.BinOp{Op: nativeOps[n.Operator], Left: tv, Right: operand}
	} else {
		body = jsir.NewApply(op, tv, operand)
	}
	fn := jsir.NewFun(nil, tv, jsir.NewBlock("").Add(body))
	fn.Close()
	if bound == nil {
		return fn
	}
	outer := jsir.NewFun(nil, bound, jsir.NewBlock("").Add(fn))
	outer.Close()
	return jsir.NewApply(outer, arg)
}

// selector lowers `(.a.b)` to a function reading the path.
func (l *lowerer) selector(n *ast.FieldSection) jsir.Expr {
	tv := l.temp()
	var e jsir.Expr = tv
	for _, name := range n.Path {
		e = &jsir.Field{Obj: e, Name: name}
	}
	fn := jsir.NewFun(nil, tv, jsir.NewBlock("").Add(e))
	fn.Close()
	return fn
}

func (l *lowerer) methodCall(n *ast.MethodCall, sc scope.Scope) jsir.Expr {
	var recv jsir.Expr
	if id, ok := n.Receiver.(*ast.Identifier); ok && l.host[id.Value] {
		recv = jsir.NewLit(id.Value)
	} else {
		recv = l.expr(n.Receiver, sc)
	}
	sel := &jsir.Field{Obj: recv, Name: n.Method}
	if !n.Call {
		return sel
	}
	return &jsir.Call{Fun: sel, Args: l.exprs(n.Arguments, sc)}
}
