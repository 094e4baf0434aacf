package lower

import (
	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/scope"
	"github.com/funvibe/yjs/internal/typesystem"
)

// sequence lowers statements that scope over the rest of the sequence.
// The resulting block is spliced into whatever it is added to.
func (l *lowerer) sequence(n *ast.Sequence, sc scope.Scope) *jsir.Block {
	block := jsir.NewBlock("seq")
	start := sc
	for i, st := range n.Statements {
		last := i == len(n.Statements)-1
		switch s := st.(type) {
		case *ast.Binding:
			sc = l.binding(s, sc, block)
			if last {
				block.Add(sc.Decl())
			}
		case *ast.StructBinding:
			sc = l.structBinding(s, sc, block)
			if last {
				block.Add(jsir.Undefined)
			}
		case *ast.LoadModule:
			if last {
				block.Add(l.module(s).Var)
				break
			}
			sc = l.explode(s, sc, block)
		case *ast.TypeDefinition:
			if last {
				block.Add(jsir.Undefined)
			}
		default:
			code := jsir.NewBlock("")
			code.Add(l.lower(s, sc))
			if !last {
				code.ToStatements()
			}
			block.AddFlat(code)
		}
	}

	unused := sc.Unused(start)
	for i := len(unused) - 1; i >= 0; i-- {
		l.warn(diagnostics.WarnW001, unused[i].Token, "Unused binding: %s", unused[i].Name)
	}
	return block
}

func (l *lowerer) binding(b *ast.Binding, sc scope.Scope, block *jsir.Block) scope.Scope {
	if fn, ok := b.Value.(*ast.Lambda); ok && !b.NoRec {
		sc = sc.BindAt(b.Name, b.Token)
		decl := sc.Decl()
		block.Bind(decl, l.lambda(fn, sc, b.Var, decl, ""))
		return sc
	}
	code := l.lower(b.Value, sc)
	sc = sc.BindAt(b.Name, b.Token)
	block.Bind(sc.Decl(), code)
	return sc
}

// structBinding evaluates the value once into a helper and binds the
// selected fields from it.
func (l *lowerer) structBinding(b *ast.StructBinding, sc scope.Scope, block *jsir.Block) scope.Scope {
	code := l.lower(b.Value, sc)
	tv := l.temp()
	block.Bind(tv, code)
	return l.bindStruct(b.Fields, tv, sc, block)
}

// bindStruct binds each field pattern to the matching field of value.
func (l *lowerer) bindStruct(fields []*ast.FieldPattern, value *jsir.Sym, sc scope.Scope, block *jsir.Block) scope.Scope {
	seen := map[string]bool{}
	for _, f := range fields {
		p, ok := f.Pattern.(*ast.IdentifierPattern)
		if !ok || p.Value == "_" {
			l.fail(f.Token, diagnostics.ErrL003, "Binding name expected")
		}
		if seen[p.Value] {
			l.fail(p.Token, diagnostics.ErrL002, "Duplicate binding %s", p.Value)
		}
		seen[p.Value] = true
		sc = sc.BindAt(p.Value, p.Token)
		block.Bind(sc.Decl(), &jsir.Field{Obj: value, Name: f.Name})
	}
	return sc
}

// explode binds every field of a loaded module as a local name.
func (l *lowerer) explode(n *ast.LoadModule, sc scope.Scope, block *jsir.Block) scope.Scope {
	m := l.module(n)
	t := m.Type
	if t == nil {
		t = n.Type
	}
	if typesystem.IsUnit(t) {
		return sc
	}
	rec, ok := typesystem.Record(t)
	if !ok {
		l.fail(n.Token, diagnostics.ErrM003, "Expected module with struct or unit type here")
	}
	for _, name := range rec.FieldNames() {
		sc = sc.BindAt(name, n.Token)
		sc.Touch()
		block.Bind(sc.Decl(), &jsir.Field{Obj: m.Var, Name: name})
	}
	return sc
}
