package ast

import (
	"github.com/funvibe/yjs/internal/token"
)

// WildcardPattern is `_`. With Ellipsis set it is `...`, which matches
// anything and yields undefined.
type WildcardPattern struct {
	Token    token.Token
	Ellipsis bool
}

func (wp *WildcardPattern) Accept(v Visitor)     { v.VisitWildcardPattern(wp) }
func (wp *WildcardPattern) patternNode()         {}
func (wp *WildcardPattern) TokenLiteral() string { return wp.Token.Lexeme }
func (wp *WildcardPattern) GetToken() token.Token {
	if wp == nil {
		return token.Token{}
	}
	return wp.Token
}

// UnitPattern is `()`.
type UnitPattern struct {
	Token token.Token
}

func (up *UnitPattern) Accept(v Visitor)     { v.VisitUnitPattern(up) }
func (up *UnitPattern) patternNode()         {}
func (up *UnitPattern) TokenLiteral() string { return up.Token.Lexeme }
func (up *UnitPattern) GetToken() token.Token {
	if up == nil {
		return token.Token{}
	}
	return up.Token
}

// IdentifierPattern binds the matched value to Value.
type IdentifierPattern struct {
	Token token.Token
	Value string
}

func (ip *IdentifierPattern) Accept(v Visitor)     { v.VisitIdentifierPattern(ip) }
func (ip *IdentifierPattern) patternNode()         {}
func (ip *IdentifierPattern) TokenLiteral() string { return ip.Token.Lexeme }
func (ip *IdentifierPattern) GetToken() token.Token {
	if ip == nil {
		return token.Token{}
	}
	return ip.Token
}

// LiteralPattern matches a number, string or host constant.
type LiteralPattern struct {
	Token token.Token
	Value Expression
}

func (lp *LiteralPattern) Accept(v Visitor)     { v.VisitLiteralPattern(lp) }
func (lp *LiteralPattern) patternNode()         {}
func (lp *LiteralPattern) TokenLiteral() string { return lp.Token.Lexeme }
func (lp *LiteralPattern) GetToken() token.Token {
	if lp == nil {
		return token.Token{}
	}
	return lp.Token
}

// ListPattern is `[p1, p2]` and matches lists of exactly that length.
type ListPattern struct {
	Token    token.Token
	Elements []Pattern
}

func (lp *ListPattern) Accept(v Visitor)     { v.VisitListPattern(lp) }
func (lp *ListPattern) patternNode()         {}
func (lp *ListPattern) TokenLiteral() string { return lp.Token.Lexeme }
func (lp *ListPattern) GetToken() token.Token {
	if lp == nil {
		return token.Token{}
	}
	return lp.Token
}

// ConsPattern is `head :: tail`.
type ConsPattern struct {
	Token token.Token
	Head  Pattern
	Tail  Pattern
}

func (cp *ConsPattern) Accept(v Visitor)     { v.VisitConsPattern(cp) }
func (cp *ConsPattern) patternNode()         {}
func (cp *ConsPattern) TokenLiteral() string { return cp.Token.Lexeme }
func (cp *ConsPattern) GetToken() token.Token {
	if cp == nil {
		return token.Token{}
	}
	return cp.Token
}

type FieldPattern struct {
	Token   token.Token
	Name    string
	Pattern Pattern
}

func (fp *FieldPattern) Accept(v Visitor)     { v.VisitFieldPattern(fp) }
func (fp *FieldPattern) TokenLiteral() string { return fp.Token.Lexeme }
func (fp *FieldPattern) GetToken() token.Token {
	if fp == nil {
		return token.Token{}
	}
	return fp.Token
}

// StructPattern is `{a, b = p}`.
type StructPattern struct {
	Token  token.Token
	Fields []*FieldPattern
}

func (sp *StructPattern) Accept(v Visitor)     { v.VisitStructPattern(sp) }
func (sp *StructPattern) patternNode()         {}
func (sp *StructPattern) TokenLiteral() string { return sp.Token.Lexeme }
func (sp *StructPattern) GetToken() token.Token {
	if sp == nil {
		return token.Token{}
	}
	return sp.Token
}

// VariantPattern is `Name payload`.
type VariantPattern struct {
	Token   token.Token
	Name    string
	Payload Pattern
}

func (vp *VariantPattern) Accept(v Visitor)     { v.VisitVariantPattern(vp) }
func (vp *VariantPattern) patternNode()         {}
func (vp *VariantPattern) TokenLiteral() string { return vp.Token.Lexeme }
func (vp *VariantPattern) GetToken() token.Token {
	if vp == nil {
		return token.Token{}
	}
	return vp.Token
}
