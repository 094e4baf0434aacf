package ast

import (
	"github.com/funvibe/yjs/internal/token"
)

// Identifier is a reference to a bound name, a builtin, or (when
// capitalised) a variant constructor used as a function.
type Identifier struct {
	Token token.Token
	Typed
	Value string
}

func (i *Identifier) Accept(v Visitor)     { v.VisitIdentifier(i) }
func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token {
	if i == nil {
		return token.Token{}
	}
	return i.Token
}

// NumberLiteral keeps the source spelling of the number.
type NumberLiteral struct {
	Token token.Token
	Typed
	Value string
}

func (nl *NumberLiteral) Accept(v Visitor)     { v.VisitNumberLiteral(nl) }
func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Lexeme }
func (nl *NumberLiteral) GetToken() token.Token {
	if nl == nil {
		return token.Token{}
	}
	return nl.Token
}

type StringLiteral struct {
	Token token.Token
	Typed
	Value string
}

func (sl *StringLiteral) Accept(v Visitor)     { v.VisitStringLiteral(sl) }
func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token {
	if sl == nil {
		return token.Token{}
	}
	return sl.Token
}

type BooleanLiteral struct {
	Token token.Token
	Typed
	Value bool
}

func (bl *BooleanLiteral) Accept(v Visitor)     { v.VisitBooleanLiteral(bl) }
func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Lexeme }
func (bl *BooleanLiteral) GetToken() token.Token {
	if bl == nil {
		return token.Token{}
	}
	return bl.Token
}

// UnitLiteral is ().
type UnitLiteral struct {
	Token token.Token
	Typed
}

func (ul *UnitLiteral) Accept(v Visitor)     { v.VisitUnitLiteral(ul) }
func (ul *UnitLiteral) expressionNode()      {}
func (ul *UnitLiteral) TokenLiteral() string { return ul.Token.Lexeme }
func (ul *UnitLiteral) GetToken() token.Token {
	if ul == nil {
		return token.Token{}
	}
	return ul.Token
}

// Sequence is `a; b; c`. Bindings inside it scope over the statements that
// follow them; its value is the value of the last statement.
type Sequence struct {
	Token token.Token
	Typed
	Statements []Expression
}

func (s *Sequence) Accept(v Visitor)     { v.VisitSequence(s) }
func (s *Sequence) expressionNode()      {}
func (s *Sequence) TokenLiteral() string { return s.Token.Lexeme }
func (s *Sequence) GetToken() token.Token {
	if s == nil {
		return token.Token{}
	}
	return s.Token
}

// Binding is `name = value` (or `var name = value`).
// Outside a Sequence only function bindings are allowed.
type Binding struct {
	Token token.Token
	Typed
	Name  string
	Value Expression
	Var   bool
	// NoRec marks bindings whose value must not see the bound name.
	NoRec bool
}

func (b *Binding) Accept(v Visitor)     { v.VisitBinding(b) }
func (b *Binding) expressionNode()      {}
func (b *Binding) TokenLiteral() string { return b.Token.Lexeme }
func (b *Binding) GetToken() token.Token {
	if b == nil {
		return token.Token{}
	}
	return b.Token
}

// StructBinding is `{a, b = c} = value`.
type StructBinding struct {
	Token token.Token
	Typed
	Fields []*FieldPattern
	Value  Expression
}

func (sb *StructBinding) Accept(v Visitor)     { v.VisitStructBinding(sb) }
func (sb *StructBinding) expressionNode()      {}
func (sb *StructBinding) TokenLiteral() string { return sb.Token.Lexeme }
func (sb *StructBinding) GetToken() token.Token {
	if sb == nil {
		return token.Token{}
	}
	return sb.Token
}

// Lambda is a one-parameter function. Param is an *Identifier, a
// *UnitLiteral or a *StructPattern. Name is set for named function
// definitions and lets the body refer to the function itself.
type Lambda struct {
	Token token.Token
	Typed
	Name  string
	Param Node
	Body  Expression
}

func (l *Lambda) Accept(v Visitor)     { v.VisitLambda(l) }
func (l *Lambda) expressionNode()      {}
func (l *Lambda) TokenLiteral() string { return l.Token.Lexeme }
func (l *Lambda) GetToken() token.Token {
	if l == nil {
		return token.Token{}
	}
	return l.Token
}

// StructField is one `name = value` member of a StructLiteral.
type StructField struct {
	Token token.Token
	Name  string
	Value Expression
	Var   bool
	NoRec bool
}

type StructLiteral struct {
	Token token.Token
	Typed
	Fields []*StructField
}

func (sl *StructLiteral) Accept(v Visitor)     { v.VisitStructLiteral(sl) }
func (sl *StructLiteral) expressionNode()      {}
func (sl *StructLiteral) TokenLiteral() string { return sl.Token.Lexeme }
func (sl *StructLiteral) GetToken() token.Token {
	if sl == nil {
		return token.Token{}
	}
	return sl.Token
}

type IfClause struct {
	Condition Expression
	Body      Expression
}

// IfExpression is `if c1 then a elif c2 then b else d fi`.
// Else is nil when the source has no else branch.
type IfExpression struct {
	Token token.Token
	Typed
	Clauses []*IfClause
	Else    Expression
}

func (iex *IfExpression) Accept(v Visitor)     { v.VisitIfExpression(iex) }
func (iex *IfExpression) expressionNode()      {}
func (iex *IfExpression) TokenLiteral() string { return iex.Token.Lexeme }
func (iex *IfExpression) GetToken() token.Token {
	if iex == nil {
		return token.Token{}
	}
	return iex.Token
}

// LoopExpression is `cond loop body`. A nil Condition loops forever;
// a nil Body evaluates Condition until it becomes false.
type LoopExpression struct {
	Token token.Token
	Typed
	Condition Expression
	Body      Expression
}

func (le *LoopExpression) Accept(v Visitor)     { v.VisitLoopExpression(le) }
func (le *LoopExpression) expressionNode()      {}
func (le *LoopExpression) TokenLiteral() string { return le.Token.Lexeme }
func (le *LoopExpression) GetToken() token.Token {
	if le == nil {
		return token.Token{}
	}
	return le.Token
}

type CatchClause struct {
	Token    token.Token
	Variable string
	Body     Expression
}

type TryExpression struct {
	Token token.Token
	Typed
	Body    Expression
	Catches []*CatchClause
	Finally Expression
}

func (te *TryExpression) Accept(v Visitor)     { v.VisitTryExpression(te) }
func (te *TryExpression) expressionNode()      {}
func (te *TryExpression) TokenLiteral() string { return te.Token.Lexeme }
func (te *TryExpression) GetToken() token.Token {
	if te == nil {
		return token.Token{}
	}
	return te.Token
}

// ApplyExpression is single-argument application `f x`.
type ApplyExpression struct {
	Token token.Token
	Typed
	Function Expression
	Argument Expression
}

func (ae *ApplyExpression) Accept(v Visitor)     { v.VisitApplyExpression(ae) }
func (ae *ApplyExpression) expressionNode()      {}
func (ae *ApplyExpression) TokenLiteral() string { return ae.Token.Lexeme }
func (ae *ApplyExpression) GetToken() token.Token {
	if ae == nil {
		return token.Token{}
	}
	return ae.Token
}

// BinaryExpression is an infix operator. Left is nil for prefix operators
// (`-x`, `not x`).
type BinaryExpression struct {
	Token token.Token
	Typed
	Operator string
	Left     Expression
	Right    Expression
}

func (be *BinaryExpression) Accept(v Visitor)     { v.VisitBinaryExpression(be) }
func (be *BinaryExpression) expressionNode()      {}
func (be *BinaryExpression) TokenLiteral() string { return be.Token.Lexeme }
func (be *BinaryExpression) GetToken() token.Token {
	if be == nil {
		return token.Token{}
	}
	return be.Token
}

// FieldAccess is `object.field`.
type FieldAccess struct {
	Token token.Token
	Typed
	Object Expression
	Field  string
}

func (fa *FieldAccess) Accept(v Visitor)     { v.VisitFieldAccess(fa) }
func (fa *FieldAccess) expressionNode()      {}
func (fa *FieldAccess) TokenLiteral() string { return fa.Token.Lexeme }
func (fa *FieldAccess) GetToken() token.Token {
	if fa == nil {
		return token.Token{}
	}
	return fa.Token
}

// IndexExpression is `object[index]`.
type IndexExpression struct {
	Token token.Token
	Typed
	Object Expression
	Index  Expression
}

func (iex *IndexExpression) Accept(v Visitor)     { v.VisitIndexExpression(iex) }
func (iex *IndexExpression) expressionNode()      {}
func (iex *IndexExpression) TokenLiteral() string { return iex.Token.Lexeme }
func (iex *IndexExpression) GetToken() token.Token {
	if iex == nil {
		return token.Token{}
	}
	return iex.Token
}

// ListLiteral elements may be RangeExpressions.
type ListLiteral struct {
	Token token.Token
	Typed
	Elements []Expression
}

func (ll *ListLiteral) Accept(v Visitor)     { v.VisitListLiteral(ll) }
func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Lexeme }
func (ll *ListLiteral) GetToken() token.Token {
	if ll == nil {
		return token.Token{}
	}
	return ll.Token
}

// RangeExpression is `from..to` inside a list literal.
type RangeExpression struct {
	Token token.Token
	Typed
	From Expression
	To   Expression
}

func (re *RangeExpression) Accept(v Visitor)     { v.VisitRangeExpression(re) }
func (re *RangeExpression) expressionNode()      {}
func (re *RangeExpression) TokenLiteral() string { return re.Token.Lexeme }
func (re *RangeExpression) GetToken() token.Token {
	if re == nil {
		return token.Token{}
	}
	return re.Token
}

type MapEntry struct {
	Key   Expression
	Value Expression
}

type MapLiteral struct {
	Token token.Token
	Typed
	Entries []*MapEntry
}

func (ml *MapLiteral) Accept(v Visitor)     { v.VisitMapLiteral(ml) }
func (ml *MapLiteral) expressionNode()      {}
func (ml *MapLiteral) TokenLiteral() string { return ml.Token.Lexeme }
func (ml *MapLiteral) GetToken() token.Token {
	if ml == nil {
		return token.Token{}
	}
	return ml.Token
}

type CaseArm struct {
	Token   token.Token
	Pattern Pattern
	Body    Expression
}

type CaseExpression struct {
	Token token.Token
	Typed
	Subject Expression
	Arms    []*CaseArm
}

func (ce *CaseExpression) Accept(v Visitor)     { v.VisitCaseExpression(ce) }
func (ce *CaseExpression) expressionNode()      {}
func (ce *CaseExpression) TokenLiteral() string { return ce.Token.Lexeme }
func (ce *CaseExpression) GetToken() token.Token {
	if ce == nil {
		return token.Token{}
	}
	return ce.Token
}

// VariantConstructor is `Name payload`.
type VariantConstructor struct {
	Token token.Token
	Typed
	Name    string
	Payload Expression
}

func (vc *VariantConstructor) Accept(v Visitor)     { v.VisitVariantConstructor(vc) }
func (vc *VariantConstructor) expressionNode()      {}
func (vc *VariantConstructor) TokenLiteral() string { return vc.Token.Lexeme }
func (vc *VariantConstructor) GetToken() token.Token {
	if vc == nil {
		return token.Token{}
	}
	return vc.Token
}

// LoadModule is `load name`. Its type is the module's exported type.
type LoadModule struct {
	Token token.Token
	Typed
	Module string
}

func (lm *LoadModule) Accept(v Visitor)     { v.VisitLoadModule(lm) }
func (lm *LoadModule) expressionNode()      {}
func (lm *LoadModule) TokenLiteral() string { return lm.Token.Lexeme }
func (lm *LoadModule) GetToken() token.Token {
	if lm == nil {
		return token.Token{}
	}
	return lm.Token
}

// ScriptExpression is inline target code. When Import is set the code is
// read from the named script file instead of Source.
type ScriptExpression struct {
	Token token.Token
	Typed
	Source string
	Import string
}

func (se *ScriptExpression) Accept(v Visitor)     { v.VisitScriptExpression(se) }
func (se *ScriptExpression) expressionNode()      {}
func (se *ScriptExpression) TokenLiteral() string { return se.Token.Lexeme }
func (se *ScriptExpression) GetToken() token.Token {
	if se == nil {
		return token.Token{}
	}
	return se.Token
}

// ConcatExpression is string concatenation (`a ^ b`, interpolation).
type ConcatExpression struct {
	Token token.Token
	Typed
	Parts []Expression
}

func (ce *ConcatExpression) Accept(v Visitor)     { v.VisitConcatExpression(ce) }
func (ce *ConcatExpression) expressionNode()      {}
func (ce *ConcatExpression) TokenLiteral() string { return ce.Token.Lexeme }
func (ce *ConcatExpression) GetToken() token.Token {
	if ce == nil {
		return token.Token{}
	}
	return ce.Token
}

// MethodCall is `receiver#method` or `receiver#method(args)`.
type MethodCall struct {
	Token token.Token
	Typed
	Receiver  Expression
	Method    string
	Arguments []Expression
	Call      bool
}

func (mc *MethodCall) Accept(v Visitor)     { v.VisitMethodCall(mc) }
func (mc *MethodCall) expressionNode()      {}
func (mc *MethodCall) TokenLiteral() string { return mc.Token.Lexeme }
func (mc *MethodCall) GetToken() token.Token {
	if mc == nil {
		return token.Token{}
	}
	return mc.Token
}

// OperatorSection is a right section `(op argument)`.
type OperatorSection struct {
	Token token.Token
	Typed
	Operator string
	Argument Expression
}

func (os *OperatorSection) Accept(v Visitor)     { v.VisitOperatorSection(os) }
func (os *OperatorSection) expressionNode()      {}
func (os *OperatorSection) TokenLiteral() string { return os.Token.Lexeme }
func (os *OperatorSection) GetToken() token.Token {
	if os == nil {
		return token.Token{}
	}
	return os.Token
}

// FieldSection is a selector function `(.a.b)`.
type FieldSection struct {
	Token token.Token
	Typed
	Path []string
}

func (fs *FieldSection) Accept(v Visitor)     { v.VisitFieldSection(fs) }
func (fs *FieldSection) expressionNode()      {}
func (fs *FieldSection) TokenLiteral() string { return fs.Token.Lexeme }
func (fs *FieldSection) GetToken() token.Token {
	if fs == nil {
		return token.Token{}
	}
	return fs.Token
}

// WithExpression is `left with right`.
type WithExpression struct {
	Token token.Token
	Typed
	Left  Expression
	Right Expression
}

func (we *WithExpression) Accept(v Visitor)     { v.VisitWithExpression(we) }
func (we *WithExpression) expressionNode()      {}
func (we *WithExpression) TokenLiteral() string { return we.Token.Lexeme }
func (we *WithExpression) GetToken() token.Token {
	if we == nil {
		return token.Token{}
	}
	return we.Token
}

// AssignExpression is `target := value`.
type AssignExpression struct {
	Token token.Token
	Typed
	Target Expression
	Value  Expression
}

func (ae *AssignExpression) Accept(v Visitor)     { v.VisitAssignExpression(ae) }
func (ae *AssignExpression) expressionNode()      {}
func (ae *AssignExpression) TokenLiteral() string { return ae.Token.Lexeme }
func (ae *AssignExpression) GetToken() token.Token {
	if ae == nil {
		return token.Token{}
	}
	return ae.Token
}

// NewExpression is `new Class(args)`.
type NewExpression struct {
	Token token.Token
	Typed
	Class     string
	Arguments []Expression
}

func (ne *NewExpression) Accept(v Visitor)     { v.VisitNewExpression(ne) }
func (ne *NewExpression) expressionNode()      {}
func (ne *NewExpression) TokenLiteral() string { return ne.Token.Lexeme }
func (ne *NewExpression) GetToken() token.Token {
	if ne == nil {
		return token.Token{}
	}
	return ne.Token
}

// CastExpression is `value is t`, `value as t` or `value unsafely_as t`.
type CastExpression struct {
	Token token.Token
	Typed
	Operator string
	Value    Expression
}

func (ce *CastExpression) Accept(v Visitor)     { v.VisitCastExpression(ce) }
func (ce *CastExpression) expressionNode()      {}
func (ce *CastExpression) TokenLiteral() string { return ce.Token.Lexeme }
func (ce *CastExpression) GetToken() token.Token {
	if ce == nil {
		return token.Token{}
	}
	return ce.Token
}

// TypeDefinition is `typedef name = ...`; it has no runtime effect.
type TypeDefinition struct {
	Token token.Token
	Typed
	Name string
}

func (td *TypeDefinition) Accept(v Visitor)     { v.VisitTypeDefinition(td) }
func (td *TypeDefinition) expressionNode()      {}
func (td *TypeDefinition) TokenLiteral() string { return td.Token.Lexeme }
func (td *TypeDefinition) GetToken() token.Token {
	if td == nil {
		return token.Token{}
	}
	return td.Token
}

type ClassDefinition struct {
	Token token.Token
	Typed
	Name string
}

func (cd *ClassDefinition) Accept(v Visitor)     { v.VisitClassDefinition(cd) }
func (cd *ClassDefinition) expressionNode()      {}
func (cd *ClassDefinition) TokenLiteral() string { return cd.Token.Lexeme }
func (cd *ClassDefinition) GetToken() token.Token {
	if cd == nil {
		return token.Token{}
	}
	return cd.Token
}

type ImportStatement struct {
	Token token.Token
	Typed
	Path string
}

func (is *ImportStatement) Accept(v Visitor)     { v.VisitImportStatement(is) }
func (is *ImportStatement) expressionNode()      {}
func (is *ImportStatement) TokenLiteral() string { return is.Token.Lexeme }
func (is *ImportStatement) GetToken() token.Token {
	if is == nil {
		return token.Token{}
	}
	return is.Token
}

type ClassOf struct {
	Token token.Token
	Typed
	Class string
}

func (co *ClassOf) Accept(v Visitor)     { v.VisitClassOf(co) }
func (co *ClassOf) expressionNode()      {}
func (co *ClassOf) TokenLiteral() string { return co.Token.Lexeme }
func (co *ClassOf) GetToken() token.Token {
	if co == nil {
		return token.Token{}
	}
	return co.Token
}

type InstanceOf struct {
	Token token.Token
	Typed
	Value Expression
	Class string
}

func (io *InstanceOf) Accept(v Visitor)     { v.VisitInstanceOf(io) }
func (io *InstanceOf) expressionNode()      {}
func (io *InstanceOf) TokenLiteral() string { return io.Token.Lexeme }
func (io *InstanceOf) GetToken() token.Token {
	if io == nil {
		return token.Token{}
	}
	return io.Token
}
