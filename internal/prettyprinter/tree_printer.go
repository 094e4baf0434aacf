// Package prettyprinter renders typed trees for inspection.
package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/typesystem"
)

// TreePrinter prints one node per line, children indented below their
// parent. Typed nodes are followed by their type.
type TreePrinter struct {
	buf    bytes.Buffer
	indent int
	// Positions adds the line and column of each node.
	Positions bool
}

func NewTreePrinter() *TreePrinter {
	return &TreePrinter{}
}

// Print renders node and returns the text.
func Print(node ast.Node) string {
	p := NewTreePrinter()
	node.Accept(p)
	return p.String()
}

func (p *TreePrinter) String() string {
	return p.buf.String()
}

func (p *TreePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("  ")
	}
}

func (p *TreePrinter) line(node ast.Node, t typesystem.Type, parts ...string) {
	p.writeIndent()
	first := true
	for _, part := range parts {
		if part == "" {
			continue
		}
		if !first {
			p.buf.WriteByte(' ')
		}
		p.buf.WriteString(part)
		first = false
	}
	if t != nil {
		p.buf.WriteString(" : ")
		p.buf.WriteString(t.String())
	}
	if p.Positions && node != nil {
		if tok := node.GetToken(); !tok.IsZero() {
			p.buf.WriteString(" @" + strconv.Itoa(tok.Line) + ":" + strconv.Itoa(tok.Column))
		}
	}
	p.buf.WriteByte('\n')
}

// label prints a line without a node of its own.
func (p *TreePrinter) label(parts ...string) {
	p.line(nil, nil, parts...)
}

func (p *TreePrinter) child(n ast.Node) {
	p.indent++
	if n == nil {
		p.writeIndent()
		p.buf.WriteString("<nil>\n")
	} else {
		n.Accept(p)
	}
	p.indent--
}

func (p *TreePrinter) children(label string, nodes ...ast.Node) {
	p.indent++
	p.label(label)
	for _, n := range nodes {
		p.child(n)
	}
	p.indent--
}

func exprNodes(exprs []ast.Expression) []ast.Node {
	out := make([]ast.Node, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}

func flags(pairs ...any) string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1].(bool) {
			out = append(out, pairs[i].(string))
		}
	}
	if len(out) == 0 {
		return ""
	}
	return "(" + strings.Join(out, ", ") + ")"
}

func (p *TreePrinter) VisitUnit(node *ast.Unit) {
	kind := "Program"
	if node.IsModule {
		kind = "Module"
	}
	parts := []string{kind, node.Name}
	if node.CompilerVersion != "" {
		parts = append(parts, "[compiler "+node.CompilerVersion+"]")
	}
	p.line(nil, node.Type, parts...)
	if node.Body != nil {
		p.child(node.Body)
	}
}

func (p *TreePrinter) VisitIdentifier(node *ast.Identifier) {
	p.line(node, node.Type, "Identifier", node.Value)
}

func (p *TreePrinter) VisitNumberLiteral(node *ast.NumberLiteral) {
	p.line(node, node.Type, "Number", node.Value)
}

func (p *TreePrinter) VisitStringLiteral(node *ast.StringLiteral) {
	p.line(node, node.Type, "String", strconv.Quote(node.Value))
}

func (p *TreePrinter) VisitBooleanLiteral(node *ast.BooleanLiteral) {
	p.line(node, node.Type, "Boolean", strconv.FormatBool(node.Value))
}

func (p *TreePrinter) VisitUnitLiteral(node *ast.UnitLiteral) {
	p.line(node, node.Type, "()")
}

func (p *TreePrinter) VisitSequence(node *ast.Sequence) {
	p.line(node, node.Type, "Sequence")
	for _, s := range node.Statements {
		p.child(s)
	}
}

func (p *TreePrinter) VisitBinding(node *ast.Binding) {
	p.line(node, node.Type, "Binding", node.Name, flags("var", node.Var, "norec", node.NoRec))
	p.child(node.Value)
}

func (p *TreePrinter) VisitStructBinding(node *ast.StructBinding) {
	p.line(node, node.Type, "StructBinding")
	for _, f := range node.Fields {
		p.child(f)
	}
	p.child(node.Value)
}

func (p *TreePrinter) VisitLambda(node *ast.Lambda) {
	p.line(node, node.Type, "Lambda", node.Name)
	if node.Param != nil {
		p.children("param", node.Param)
	}
	p.child(node.Body)
}

func (p *TreePrinter) VisitStructLiteral(node *ast.StructLiteral) {
	p.line(node, node.Type, "Struct")
	for _, f := range node.Fields {
		p.children("field "+f.Name+" "+flags("var", f.Var, "norec", f.NoRec), f.Value)
	}
}

func (p *TreePrinter) VisitIfExpression(node *ast.IfExpression) {
	p.line(node, node.Type, "If")
	for _, c := range node.Clauses {
		p.children("when", c.Condition, c.Body)
	}
	if node.Else != nil {
		p.children("else", node.Else)
	}
}

func (p *TreePrinter) VisitLoopExpression(node *ast.LoopExpression) {
	p.line(node, node.Type, "Loop")
	if node.Condition != nil {
		p.children("while", node.Condition)
	}
	if node.Body != nil {
		p.children("do", node.Body)
	}
}

func (p *TreePrinter) VisitTryExpression(node *ast.TryExpression) {
	p.line(node, node.Type, "Try")
	p.child(node.Body)
	for _, c := range node.Catches {
		p.children("catch "+c.Variable, c.Body)
	}
	if node.Finally != nil {
		p.children("finally", node.Finally)
	}
}

func (p *TreePrinter) VisitApplyExpression(node *ast.ApplyExpression) {
	p.line(node, node.Type, "Apply")
	p.child(node.Function)
	p.child(node.Argument)
}

func (p *TreePrinter) VisitBinaryExpression(node *ast.BinaryExpression) {
	p.line(node, node.Type, "Operator", node.Operator)
	if node.Left != nil {
		p.child(node.Left)
	}
	p.child(node.Right)
}

func (p *TreePrinter) VisitFieldAccess(node *ast.FieldAccess) {
	p.line(node, node.Type, "Field", node.Field)
	p.child(node.Object)
}

func (p *TreePrinter) VisitIndexExpression(node *ast.IndexExpression) {
	p.line(node, node.Type, "Index")
	p.child(node.Object)
	p.child(node.Index)
}

func (p *TreePrinter) VisitListLiteral(node *ast.ListLiteral) {
	p.line(node, node.Type, "List")
	for _, e := range node.Elements {
		p.child(e)
	}
}

func (p *TreePrinter) VisitRangeExpression(node *ast.RangeExpression) {
	p.line(node, node.Type, "Range")
	p.child(node.From)
	p.child(node.To)
}

func (p *TreePrinter) VisitMapLiteral(node *ast.MapLiteral) {
	p.line(node, node.Type, "Map")
	for _, e := range node.Entries {
		p.children("entry", e.Key, e.Value)
	}
}

func (p *TreePrinter) VisitCaseExpression(node *ast.CaseExpression) {
	p.line(node, node.Type, "Case")
	p.child(node.Subject)
	for _, a := range node.Arms {
		p.children("arm", a.Pattern, a.Body)
	}
}

func (p *TreePrinter) VisitVariantConstructor(node *ast.VariantConstructor) {
	p.line(node, node.Type, "Variant", node.Name)
	if node.Payload != nil {
		p.child(node.Payload)
	}
}

func (p *TreePrinter) VisitLoadModule(node *ast.LoadModule) {
	p.line(node, node.Type, "Load", node.Module)
}

func (p *TreePrinter) VisitScriptExpression(node *ast.ScriptExpression) {
	if node.Import != "" {
		p.line(node, node.Type, "ScriptImport", node.Import)
		return
	}
	p.line(node, node.Type, "Script", strconv.Quote(node.Source))
}

func (p *TreePrinter) VisitConcatExpression(node *ast.ConcatExpression) {
	p.line(node, node.Type, "Concat")
	for _, e := range node.Parts {
		p.child(e)
	}
}

func (p *TreePrinter) VisitMethodCall(node *ast.MethodCall) {
	name := node.Method
	if node.Call {
		name += "()"
	}
	p.line(node, node.Type, "Send", name)
	p.child(node.Receiver)
	if len(node.Arguments) > 0 {
		p.children("args", exprNodes(node.Arguments)...)
	}
}

func (p *TreePrinter) VisitOperatorSection(node *ast.OperatorSection) {
	p.line(node, node.Type, "Section", node.Operator)
	p.child(node.Argument)
}

func (p *TreePrinter) VisitFieldSection(node *ast.FieldSection) {
	p.line(node, node.Type, "Selector", "."+strings.Join(node.Path, "."))
}

func (p *TreePrinter) VisitWithExpression(node *ast.WithExpression) {
	p.line(node, node.Type, "With")
	p.child(node.Left)
	p.child(node.Right)
}

func (p *TreePrinter) VisitAssignExpression(node *ast.AssignExpression) {
	p.line(node, node.Type, "Assign")
	p.child(node.Target)
	p.child(node.Value)
}

func (p *TreePrinter) VisitNewExpression(node *ast.NewExpression) {
	p.line(node, node.Type, "New", node.Class)
	for _, a := range node.Arguments {
		p.child(a)
	}
}

func (p *TreePrinter) VisitCastExpression(node *ast.CastExpression) {
	p.line(node, node.Type, "Cast", node.Operator)
	p.child(node.Value)
}

func (p *TreePrinter) VisitTypeDefinition(node *ast.TypeDefinition) {
	p.line(node, node.Type, "TypeDef", node.Name)
}

func (p *TreePrinter) VisitClassDefinition(node *ast.ClassDefinition) {
	p.line(node, node.Type, "Class", node.Name)
}

func (p *TreePrinter) VisitImportStatement(node *ast.ImportStatement) {
	p.line(node, node.Type, "Import", node.Path)
}

func (p *TreePrinter) VisitClassOf(node *ast.ClassOf) {
	p.line(node, node.Type, "ClassOf", node.Class)
}

func (p *TreePrinter) VisitInstanceOf(node *ast.InstanceOf) {
	p.line(node, node.Type, "InstanceOf", node.Class)
	p.child(node.Value)
}

func (p *TreePrinter) VisitWildcardPattern(node *ast.WildcardPattern) {
	if node.Ellipsis {
		p.line(node, nil, "...")
		return
	}
	p.line(node, nil, "_")
}

func (p *TreePrinter) VisitUnitPattern(node *ast.UnitPattern) {
	p.line(node, nil, "()")
}

func (p *TreePrinter) VisitIdentifierPattern(node *ast.IdentifierPattern) {
	p.line(node, nil, "Bind", node.Value)
}

func (p *TreePrinter) VisitLiteralPattern(node *ast.LiteralPattern) {
	p.line(node, nil, "Literal")
	p.child(node.Value)
}

func (p *TreePrinter) VisitListPattern(node *ast.ListPattern) {
	p.line(node, nil, "ListPattern")
	for _, e := range node.Elements {
		p.child(e)
	}
}

func (p *TreePrinter) VisitConsPattern(node *ast.ConsPattern) {
	p.line(node, nil, "Cons")
	p.child(node.Head)
	p.child(node.Tail)
}

func (p *TreePrinter) VisitFieldPattern(node *ast.FieldPattern) {
	p.line(node, nil, "FieldPattern", node.Name)
	p.child(node.Pattern)
}

func (p *TreePrinter) VisitStructPattern(node *ast.StructPattern) {
	p.line(node, nil, "StructPattern")
	for _, f := range node.Fields {
		p.child(f)
	}
}

func (p *TreePrinter) VisitVariantPattern(node *ast.VariantPattern) {
	p.line(node, nil, "VariantPattern", node.Name)
	if node.Payload != nil {
		p.child(node.Payload)
	}
}
