// Package scope resolves source names to target names. Scopes are
// persistent: binding a name returns a new Scope and never changes the
// Scope it was called on, so branches of the lowering can share a prefix
// of the chain.
package scope

import (
	"fmt"
	"strconv"

	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/token"
)

// Builtins are bound in every root scope.
var Builtins = []string{"undef_str", "naN", "failWith", "true", "false", "throw"}

const none = -1

type node struct {
	parent int
	source string
	target string
	// boundary is the function boundary the node belongs to; for a node
	// that opens a boundary it is that boundary.
	boundary int
	uses     int
	tok      token.Token
}

type boundary struct {
	node    int
	parent  int
	names   map[string]bool
	free    []string
	freeSet map[string]bool
	looping bool
	// loopParams are the targets reassigned on each iteration of a
	// looping function.
	loopParams map[string]bool
}

// Arena owns the nodes of every scope created for one compilation unit.
// It is not safe for concurrent use.
type Arena struct {
	nodes      []node
	boundaries []*boundary
	temps      int
}

// Scope is a position in a scope chain.
type Scope struct {
	a  *Arena
	id int
}

// Ref is a resolved reference.
type Ref struct {
	Source string
	Target string
	// Boundary is the function boundary that owns the binding.
	Boundary Boundary
	node     int
}

// Sym returns the target symbol of the reference.
func (r Ref) Sym() *jsir.Sym { return jsir.NewSym(r.Target, r.Source) }

// Boundary identifies a function scope.
type Boundary struct {
	a  *Arena
	id int
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Root returns a fresh function boundary with the builtins bound.
func (a *Arena) Root() Scope {
	s := Scope{a: a, id: none}.NewFunction()
	for _, name := range Builtins {
		s = s.Bind(name)
	}
	return s
}

// Temp returns a fresh temporary symbol.
func (a *Arena) Temp() *jsir.Sym {
	name := jsir.TempPrefix + "v" + strconv.Itoa(a.temps)
	a.temps++
	return jsir.NewSym(name, "")
}

func (a *Arena) push(n node) int {
	a.nodes = append(a.nodes, n)
	return len(a.nodes) - 1
}

// NewFunction opens a function boundary below s.
func (s Scope) NewFunction() Scope {
	b := &boundary{parent: s.boundaryID(), names: map[string]bool{}, freeSet: map[string]bool{}}
	s.a.boundaries = append(s.a.boundaries, b)
	bid := len(s.a.boundaries) - 1
	id := s.a.push(node{parent: s.id, boundary: bid})
	b.node = id
	return Scope{a: s.a, id: id}
}

func (s Scope) boundaryID() int {
	if s.id == none {
		return none
	}
	return s.a.nodes[s.id].boundary
}

// Boundary returns the nearest enclosing function boundary.
func (s Scope) Boundary() Boundary {
	return Boundary{a: s.a, id: s.boundaryID()}
}

// Arena returns the arena s lives in.
func (s Scope) Arena() *Arena { return s.a }

// taken reports whether target is declared in any boundary from b outward.
// Checking enclosing boundaries keeps a shadowing binding distinct from
// the binding it shadows.
func (a *Arena) taken(b int, target string) bool {
	for ; b != none; b = a.boundaries[b].parent {
		if a.boundaries[b].names[target] {
			return true
		}
	}
	return false
}

// Bind brings name into scope. The target name is the mangled name, with
// an increasing numeric suffix when it is already declared. An empty name
// binds a fresh temporary.
func (s Scope) Bind(name string) Scope {
	return s.BindAt(name, token.Token{})
}

// BindAt is Bind recording the position of the binding.
func (s Scope) BindAt(name string, tok token.Token) Scope {
	b := s.boundaryID()
	var target string
	if name == "" {
		target = s.a.Temp().Name
	} else {
		base := jsir.Mangle(name)
		target = base
		for i := 1; s.a.taken(b, target); i++ {
			target = base + strconv.Itoa(i)
		}
	}
	if b != none {
		s.a.boundaries[b].names[target] = true
	}
	id := s.a.push(node{parent: s.id, source: name, target: target, boundary: b, tok: tok})
	return Scope{a: s.a, id: id}
}

// Decl returns the symbol declared by the innermost binding of s.
func (s Scope) Decl() *jsir.Sym {
	n := s.a.nodes[s.id]
	return jsir.NewSym(n.target, n.source)
}

// Name returns the source name of the innermost binding of s.
func (s Scope) Name() string {
	if s.id == none {
		return ""
	}
	return s.a.nodes[s.id].source
}

// Reference resolves name, recording it as free in every function
// boundary crossed on the way.
func (s Scope) Reference(name string, tok token.Token) (Ref, error) {
	id := s.id
	for id != none {
		n := &s.a.nodes[id]
		if n.source == name && name != "" {
			n.uses++
			return Ref{Source: name, Target: n.target, Boundary: Boundary{a: s.a, id: n.boundary}, node: id}, nil
		}
		if n.source == "" && n.boundary != none && s.a.boundaries[n.boundary].node == id {
			bd := s.a.boundaries[n.boundary]
			if !bd.freeSet[name] {
				bd.freeSet[name] = true
				bd.free = append(bd.free, name)
			}
		}
		id = n.parent
	}
	return Ref{}, diagnostics.Errorf(diagnostics.ErrL001, tok, "Symbol %s not declared", name)
}

// Touch counts a use of the innermost binding of s, keeping it out of
// Unused.
func (s Scope) Touch() {
	if s.id != none {
		s.a.nodes[s.id].uses++
	}
}

// Unused returns the source names bound between s (inclusive) and stop
// (exclusive) that were never referenced, innermost first. Temporaries and
// names starting with an underscore are skipped.
func (s Scope) Unused(stop Scope) []Binding {
	var out []Binding
	for id := s.id; id != none && id != stop.id; id = s.a.nodes[id].parent {
		n := s.a.nodes[id]
		if n.source == "" || n.source[0] == '_' || n.uses > 0 {
			continue
		}
		out = append(out, Binding{Name: n.source, Token: n.tok})
	}
	return out
}

// Binding is a named binding reported by Unused.
type Binding struct {
	Name  string
	Token token.Token
}

// FreeVariables resolves the names referenced inside the boundary but
// bound outside it, in first-use order.
func (b Boundary) FreeVariables() []Ref {
	if b.id == none {
		return nil
	}
	bd := b.a.boundaries[b.id]
	outer := Scope{a: b.a, id: b.a.nodes[bd.node].parent}
	var refs []Ref
	for _, name := range bd.free {
		if ref, ok := outer.lookup(name); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// lookup resolves name without recording free variables or uses.
func (s Scope) lookup(name string) (Ref, bool) {
	for id := s.id; id != none; id = s.a.nodes[id].parent {
		n := s.a.nodes[id]
		if n.source == name {
			return Ref{Source: name, Target: n.target, Boundary: Boundary{a: s.a, id: n.boundary}, node: id}, true
		}
	}
	return Ref{}, false
}

// MarkLooping records that the function body was turned into a loop
// reassigning params on each iteration, so closures created inside it must
// capture their per-iteration values.
func (b Boundary) MarkLooping(params ...*jsir.Sym) {
	if b.id == none {
		return
	}
	bd := b.a.boundaries[b.id]
	bd.looping = true
	if bd.loopParams == nil {
		bd.loopParams = map[string]bool{}
	}
	for _, p := range params {
		if p != nil && p.Name != "" {
			bd.loopParams[p.Name] = true
		}
	}
}

// LoopParam reports whether target is reassigned by the loop of b.
func (b Boundary) LoopParam(target string) bool {
	return b.id != none && b.a.boundaries[b.id].loopParams[target]
}

// Looping reports whether MarkLooping was called.
func (b Boundary) Looping() bool {
	return b.id != none && b.a.boundaries[b.id].looping
}

// Same reports whether b and other are the same boundary.
func (b Boundary) Same(other Boundary) bool {
	return b.a == other.a && b.id == other.id
}

func (s Scope) String() string {
	var names []string
	for id := s.id; id != none; id = s.a.nodes[id].parent {
		if n := s.a.nodes[id]; n.source != "" {
			names = append(names, n.source)
		}
	}
	return fmt.Sprint(names)
}
