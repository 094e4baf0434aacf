// Package lower turns a typed AST into target IR.
package lower

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/scope"
	"github.com/funvibe/yjs/internal/token"
	"github.com/funvibe/yjs/internal/typesystem"
)

// Module describes a module that has already been lowered.
type Module struct {
	Name string
	// Var holds the module's exported value in the assembled output.
	Var  *jsir.Sym
	Type typesystem.Type
}

// ModuleVar returns the target variable holding the module called name.
func ModuleVar(name string) *jsir.Sym {
	return jsir.NewSym(jsir.TempPrefix+"m_"+jsir.Mangle(name), "")
}

// Resolver gives the lowering access to other compilation units.
type Resolver interface {
	// ResolveModule makes sure the named module is lowered and returns its
	// descriptor.
	ResolveModule(name string, tok token.Token) (*Module, error)
	// ReadScript returns the source of an imported script file.
	ReadScript(name string) (string, error)
}

// Options configure a lowering run.
type Options struct {
	Resolver Resolver
	// Preload modules have their fields bound in the root scope.
	Preload []*Module
	// Warnings receives non-fatal diagnostics. May be nil.
	Warnings *diagnostics.Sink
	// HostObjects are global objects of the target whose members are
	// accessed directly by `Obj#member`.
	HostObjects []string
}

// DefaultHostObjects are the globals available to `#` references.
var DefaultHostObjects = []string{"Math", "JSON", "Object", "Array", "String", "Number", "Date", "console", "window", "document"}

type lowerer struct {
	opts  Options
	arena *scope.Arena
	host  map[string]bool
	file  string
}

type bailout struct {
	err error
}

// Unit lowers a compilation unit and returns its statements. The block of
// a module unit yields the module's value as its last statement.
func Unit(unit *ast.Unit, opts Options) (block *jsir.Block, err error) {
	l := &lowerer{opts: opts, arena: scope.NewArena(), file: unit.File, host: map[string]bool{}}
	hosts := opts.HostObjects
	if hosts == nil {
		hosts = DefaultHostObjects
	}
	for _, h := range hosts {
		l.host[h] = true
	}

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			block, err = nil, b.err
			var de *diagnostics.DiagnosticError
			if errors.As(err, &de) && de.File == "" {
				de.File = unit.File
			}
		}
	}()

	sc := Root(l.arena, opts.Preload, nil)
	if unit.Body == nil {
		return jsir.NewBlock(""), nil
	}
	block = jsir.NewBlock("")
	block.Add(l.lower(unit.Body, sc))
	return block, nil
}

// Root returns the root scope of a unit: builtins, then the fields of the
// preloaded modules. When code is not nil the bindings of the preloaded
// fields are added to it.
func Root(arena *scope.Arena, preload []*Module, code *jsir.Block) scope.Scope {
	sc := arena.Root().NewFunction()
	for _, m := range preload {
		rec, ok := typesystem.Record(m.Type)
		if !ok {
			continue
		}
		for _, name := range rec.FieldNames() {
			sc = sc.Bind(name)
			if code != nil {
				code.Bind(sc.Decl(), &jsir.Field{Obj: m.Var, Name: name})
			}
		}
	}
	return sc
}

// Preamble returns the code binding the fields of preloaded modules at top
// level, matching the names Unit assumes.
func Preamble(preload []*Module) *jsir.Block {
	code := jsir.NewBlock("")
	Root(scope.NewArena(), preload, code)
	return code
}

func (l *lowerer) fail(tok token.Token, code diagnostics.ErrorCode, format string, args ...any) {
	err := diagnostics.Errorf(code, tok, format, args...)
	err.File = l.file
	panic(bailout{err: err})
}

// check aborts the lowering with err, anchoring it at tok when it has no
// position of its own.
func (l *lowerer) check(err error, tok token.Token) {
	if err == nil {
		return
	}
	var de *diagnostics.DiagnosticError
	if errors.As(err, &de) {
		de.Anchor(tok, l.file)
		panic(bailout{err: de})
	}
	panic(bailout{err: fmt.Errorf("%s: %s: %w", l.file, tok, err)})
}

func (l *lowerer) warn(code diagnostics.ErrorCode, tok token.Token, format string, args ...any) {
	if l.opts.Warnings == nil {
		return
	}
	w := diagnostics.Errorf(code, tok, format, args...)
	w.File = l.file
	l.opts.Warnings.Warnings = append(l.opts.Warnings.Warnings, w)
}

func (l *lowerer) ref(name string, tok token.Token, sc scope.Scope) *jsir.Sym {
	r, err := sc.Reference(name, tok)
	l.check(err, tok)
	return r.Sym()
}

func (l *lowerer) temp() *jsir.Sym {
	return l.arena.Temp()
}

// expr lowers node and converts the result to an expression.
func (l *lowerer) expr(node ast.Expression, sc scope.Scope) jsir.Expr {
	return jsir.ToExpr(l.lower(node, sc))
}

func (l *lowerer) exprs(nodes []ast.Expression, sc scope.Scope) []jsir.Expr {
	out := make([]jsir.Expr, len(nodes))
	for i, n := range nodes {
		out[i] = l.expr(n, sc)
	}
	return out
}

func isConstructor(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func (l *lowerer) lower(node ast.Expression, sc scope.Scope) jsir.Code {
	switch n := node.(type) {
	case *ast.Identifier:
		return l.identifier(n, sc)
	case *ast.NumberLiteral:
		return jsir.NewLit(n.Value)
	case *ast.StringLiteral:
		return jsir.NewStr(n.Value)
	case *ast.BooleanLiteral:
		if n.Value {
			return jsir.True
		}
		return jsir.False
	case *ast.UnitLiteral:
		return jsir.Undefined
	case *ast.Sequence:
		return l.sequence(n, sc)
	case *ast.Binding:
		fn, ok := n.Value.(*ast.Lambda)
		if !ok {
			l.fail(n.Token, diagnostics.ErrL004, "Closed binding must be a function binding")
		}
		return l.lambda(fn, sc, n.Var, nil, n.Name)
	case *ast.StructBinding:
		l.fail(n.Token, diagnostics.ErrL004, "Structure binding must be followed by an expression")
	case *ast.Lambda:
		return l.lambda(n, sc, false, nil, "")
	case *ast.StructLiteral:
		return l.structLiteral(n, sc)
	case *ast.IfExpression:
		return l.conditional(n, sc)
	case *ast.LoopExpression:
		return l.loop(n, sc)
	case *ast.TryExpression:
		return l.tryCatch(n, sc)
	case *ast.ApplyExpression:
		return l.apply(n, sc)
	case *ast.BinaryExpression:
		return l.binary(n, sc)
	case *ast.FieldAccess:
		return &jsir.Field{Obj: l.expr(n.Object, sc), Name: n.Field}
	case *ast.IndexExpression:
		return &jsir.Index{Obj: l.expr(n.Object, sc), Key: l.expr(n.Index, sc)}
	case *ast.ListLiteral:
		return l.list(n, sc)
	case *ast.RangeExpression:
		return l.rangeCall(n, sc)
	case *ast.MapLiteral:
		return l.mapLiteral(n, sc)
	case *ast.CaseExpression:
		return l.caseOf(n, sc)
	case *ast.VariantConstructor:
		return l.variant(n.Name, n.Payload, sc)
	case *ast.LoadModule:
		return l.module(n).Var
	case *ast.ScriptExpression:
		return l.script(n)
	case *ast.ConcatExpression:
		return &jsir.Concat{Parts: l.exprs(n.Parts, sc)}
	case *ast.MethodCall:
		return l.methodCall(n, sc)
	case *ast.OperatorSection:
		return l.section(n, sc)
	case *ast.FieldSection:
		return l.selector(n)
	case *ast.WithExpression:
		return l.with(n, sc)
	case *ast.AssignExpression:
		return &jsir.Assign{Target: l.expr(n.Target, sc), Value: l.expr(n.Value, sc)}
	case *ast.NewExpression:
		return &jsir.New{Class: n.Class, Args: l.exprs(n.Arguments, sc)}
	case *ast.CastExpression:
		return l.lower(n.Value, sc)
	case *ast.TypeDefinition:
		return jsir.Undefined
	case *ast.ClassDefinition:
		l.fail(n.Token, diagnostics.ErrL004, "No class can be defined")
	case *ast.ImportStatement:
		l.fail(n.Token, diagnostics.ErrL004, "import is not supported")
	case *ast.ClassOf:
		l.fail(n.Token, diagnostics.ErrL004, "classOf is not supported")
	case *ast.InstanceOf:
		l.fail(n.Token, diagnostics.ErrL004, "instanceof operator is not supported")
	case nil:
		return jsir.Undefined
	default:
		l.fail(node.GetToken(), diagnostics.ErrL004, "Unsupported construct %T", node)
	}
	return nil
}

func (l *lowerer) identifier(n *ast.Identifier, sc scope.Scope) jsir.Expr {
	switch {
	case n.Value == "none":
		return jsir.Null
	case n.Value == "throw":
		return l.ref("failWith", n.Token, sc)
	case isConstructor(n.Value):
		return jsir.NewApply(jsir.NewLit("_tagCon"), jsir.NewStr(n.Value))
	}
	return l.ref(n.Value, n.Token, sc)
}

func (l *lowerer) module(n *ast.LoadModule) *Module {
	if l.opts.Resolver == nil {
		l.fail(n.Token, diagnostics.ErrM001, "Module %s not found", n.Module)
	}
	m, err := l.opts.Resolver.ResolveModule(n.Module, n.Token)
	l.check(err, n.Token)
	return m
}

func (l *lowerer) script(n *ast.ScriptExpression) jsir.Expr {
	if n.Import == "" {
		return jsir.NewRaw(stripCR(n.Source))
	}
	if l.opts.Resolver == nil {
		l.fail(n.Token, diagnostics.ErrM001, "Script %s not found", n.Import)
	}
	src, err := l.opts.Resolver.ReadScript(n.Import)
	l.check(err, n.Token)
	return &jsir.Lit{Text: stripCR(src), Prec: jsir.PrecLit}
}

func stripCR(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
