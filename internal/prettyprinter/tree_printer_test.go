package prettyprinter

import (
	"testing"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/token"
	"github.com/funvibe/yjs/internal/typesystem"
)

func TestPrint(t *testing.T) {
	num := typesystem.TCon{Name: typesystem.Number}
	unit := &ast.Unit{
		Name:     "util",
		IsModule: true,
		Type:     typesystem.TRecord{Fields: map[string]typesystem.Type{"sq": typesystem.TFunc{Param: num, Result: num}}},
		Body: &ast.StructLiteral{Fields: []*ast.StructField{{
			Name: "sq",
			Value: &ast.Lambda{
				Param: &ast.Identifier{Value: "x"},
				Body: &ast.BinaryExpression{
					Operator: "*",
					Left:     &ast.Identifier{Value: "x", Typed: ast.Typed{Type: num}},
					Right:    &ast.Identifier{Value: "x", Typed: ast.Typed{Type: num}},
				},
			},
		}}},
	}
	want := `Module util : {sq is number -> number}
  Struct
    field sq
      Lambda
        param
          Identifier x
        Operator *
          Identifier x : number
          Identifier x : number
`
	if got := Print(unit); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintPatternsWithPositions(t *testing.T) {
	node := &ast.CaseExpression{
		Token:   token.New("case", 3, 5),
		Subject: &ast.Identifier{Token: token.New("xs", 3, 10), Value: "xs"},
		Arms: []*ast.CaseArm{
			{Pattern: &ast.ConsPattern{Head: &ast.IdentifierPattern{Value: "h"}, Tail: &ast.WildcardPattern{}}, Body: &ast.Identifier{Value: "h"}},
			{Pattern: &ast.VariantPattern{Name: "None"}, Body: &ast.UnitLiteral{}},
		},
	}
	p := NewTreePrinter()
	p.Positions = true
	node.Accept(p)
	want := `Case @3:5
  Identifier xs @3:10
  arm
    Cons
      Bind h
      _
    Identifier h
  arm
    VariantPattern None
    ()
`
	if got := p.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
