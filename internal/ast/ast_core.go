package ast

import (
	"github.com/funvibe/yjs/internal/token"
	"github.com/funvibe/yjs/internal/typesystem"
)

// TokenProvider is an interface for any AST node that can provide its primary token.
// This is useful for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
	Accept(v Visitor)
}

// Expression is a Node that produces a value. Declarations that may only
// appear inside a Sequence are expressions too; the lowering decides where
// each kind is legal.
type Expression interface {
	Node
	expressionNode()
	GetType() typesystem.Type
}

// Pattern is a Node that can appear on the left of a case arm.
type Pattern interface {
	Node
	patternNode()
}

// Typed carries the type inferred by the checker. It is nil when the
// checker left the node untyped.
type Typed struct {
	Type typesystem.Type
}

func (t *Typed) GetType() typesystem.Type { return t.Type }

// Unit is one compilation unit handed over by the front end.
type Unit struct {
	Name     string
	File     string
	IsModule bool
	// Type is the exported type of a module unit.
	Type typesystem.Type
	// CompilerVersion is the version of the compiler that checked the unit.
	CompilerVersion string
	Body            Expression
}

func (u *Unit) Accept(v Visitor) { v.VisitUnit(u) }
func (u *Unit) TokenLiteral() string {
	if u.Body == nil {
		return ""
	}
	return u.Body.TokenLiteral()
}
func (u *Unit) GetToken() token.Token {
	if u == nil || u.Body == nil {
		return token.Token{}
	}
	return u.Body.GetToken()
}
