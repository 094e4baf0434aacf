package lower

import (
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/jsir"
	"github.com/funvibe/yjs/internal/token"
	"github.com/funvibe/yjs/internal/typesystem"
)

var number = typesystem.TCon{Name: typesystem.Number}

func id(name string) *ast.Identifier { return &ast.Identifier{Value: name} }

func numID(name string) *ast.Identifier {
	return &ast.Identifier{Value: name, Typed: ast.Typed{Type: number}}
}

func num(v string) *ast.NumberLiteral {
	return &ast.NumberLiteral{Value: v, Typed: ast.Typed{Type: number}}
}

func str(v string) *ast.StringLiteral { return &ast.StringLiteral{Value: v} }

func op(operator string, left, right ast.Expression) *ast.BinaryExpression {
	return &ast.BinaryExpression{Operator: operator, Left: left, Right: right}
}

func apply(fn ast.Expression, args ...ast.Expression) ast.Expression {
	e := fn
	for _, a := range args {
		e = &ast.ApplyExpression{Function: e, Argument: a}
	}
	return e
}

func lambda(params []string, body ast.Expression) *ast.Lambda {
	for i := len(params) - 1; i > 0; i-- {
		body = &ast.Lambda{Param: id(params[i]), Body: body}
	}
	return &ast.Lambda{Param: id(params[0]), Body: body}
}

func bind(name string, value ast.Expression) *ast.Binding {
	return &ast.Binding{Name: name, Value: value, Token: token.New(name, 1, 1)}
}

func seq(stmts ...ast.Expression) *ast.Sequence { return &ast.Sequence{Statements: stmts} }

func lowerText(t *testing.T, body ast.Expression, opts Options) string {
	t.Helper()
	block, err := Unit(&ast.Unit{Name: "test", File: "test.yjs", Body: body}, opts)
	if err != nil {
		t.Fatalf("Unit: %v", err)
	}
	return jsir.RenderStatements(block)
}

func TestLowerProgram(t *testing.T) {
	tests := []struct {
		name     string
		body     ast.Expression
		expected string
	}{
		{
			name:     "binding then use",
			body:     seq(bind("x", num("1")), op("+", id("x"), num("2"))),
			expected: "var x = 1;\nx + 2;\n",
		},
		{
			name: "non tail recursion keeps the call",
			body: seq(
				bind("f", lambda([]string{"x"}, &ast.IfExpression{
					Clauses: []*ast.IfClause{{Condition: op("==", numID("x"), num("0")), Body: num("1")}},
					Else:    op("*", id("x"), apply(id("f"), op("-", id("x"), num("1")))),
				})),
				apply(id("f"), num("5")),
			),
			expected: `var f = function f(x) {
    var _$v0 = undefined;
    if (x === 0) {
        _$v0 = 1;
    } else {
        _$v0 = x * f(x - 1);
    }
    return _$v0;
};
f(5);
`,
		},
		{
			name: "struct with a method sees its fields",
			body: &ast.StructLiteral{Fields: []*ast.StructField{
				{Name: "a", Value: num("1")},
				{Name: "f", Value: lambda([]string{"x"}, op("+", id("a"), id("x")))},
			}},
			expected: `var _$v0 = {
    "a": 1
};
var a = _$v0.a;
var f = function f(x) {
    return a + x;
};
_$v0.f = f;
_$v0;
`,
		},
		{
			name:     "data only struct",
			body:     &ast.StructLiteral{Fields: []*ast.StructField{{Name: "b", Value: str("s")}, {Name: "a", Value: num("1")}}},
			expected: "({\n    \"b\": \"s\",\n    \"a\": 1\n});\n",
		},
		{
			name:     "loop without condition",
			body:     &ast.LoopExpression{Body: apply(id("undef_str"), &ast.UnitLiteral{})},
			expected: "while (true) {\n    undef_str();\n}\nundefined;\n",
		},
		{
			name:     "list with range",
			body:     &ast.ListLiteral{Elements: []ast.Expression{num("1"), &ast.RangeExpression{From: num("2"), To: num("4")}, num("9")}},
			expected: "[1].concat(range(2)(4)).concat([9]);\n",
		},
		{
			name:     "none and constructors",
			body:     &ast.ListLiteral{Elements: []ast.Expression{id("none"), apply(id("Some"), num("1")), &ast.VariantConstructor{Name: "Some", Payload: &ast.NumberLiteral{Value: "2"}}, &ast.VariantConstructor{Name: "Red", Payload: num("3")}, id("Blue")}},
			expected: "[null, 1, _tagS(2), new _tag(\"Red\", 3), _tagCon(\"Blue\")];\n",
		},
		{
			name:     "native operators",
			body:     &ast.ListLiteral{Elements: []ast.Expression{op("and", id("true"), id("false")), op("!=", num("1"), num("2")), op("shl", num("1"), num("3")), &ast.BinaryExpression{Operator: "-", Right: num("1")}, &ast.BinaryExpression{Operator: "not", Right: id("true")}}},
			expected: "[true && false, 1 !== 2, 1 << 3, - 1, ! true];\n",
		},
		{
			name:     "concat and pipe",
			body:     &ast.ListLiteral{Elements: []ast.Expression{op("^", str("a"), num("1")), op("|>", num("1"), id("undef_str"))}},
			expected: "[\"\" + (\"a\") + (1), undef_str(1)];\n",
		},
		{
			name:     "throw is a statement",
			body:     apply(id("throw"), str("boom")),
			expected: "throw \"boom\";\n",
		},
		{
			name:     "field section",
			body:     &ast.FieldSection{Path: []string{"a", "b"}},
			expected: "(function(_$v0) {\n    return _$v0.a.b;\n});\n",
		},
		{
			name:     "operator section with constant",
			body:     &ast.OperatorSection{Operator: "+", Argument: num("1")},
			expected: "(function(_$v0) {\n    return _$v0 + 1;\n});\n",
		},
		{
			name:     "host method call",
			body:     &ast.MethodCall{Receiver: id("Math"), Method: "max", Arguments: []ast.Expression{num("1"), num("2")}, Call: true},
			expected: "Math.max(1, 2);\n",
		},
		{
			name:     "map literal",
			body:     &ast.MapLiteral{Entries: []*ast.MapEntry{{Key: str("k"), Value: num("1")}}},
			expected: "var _$v0 = {};\n_$v0[\"k\"] = 1;\n_$v0;\n",
		},
		{
			name:     "assignment to var",
			body:     seq(&ast.Binding{Name: "v", Value: num("1"), Var: true}, &ast.AssignExpression{Target: id("v"), Value: num("2")}),
			expected: "var v = 1;\nv = 2;\n",
		},
		{
			name:     "inline script",
			body:     &ast.ScriptExpression{Source: "alert(1)\r\n"},
			expected: "alert(1)\n;\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lowerText(t, tt.body, Options{}); got != tt.expected {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.expected)
			}
		})
	}
}

func TestTailRecursionBecomesLoop(t *testing.T) {
	body := seq(
		bind("count", lambda([]string{"n", "acc"}, &ast.IfExpression{
			Clauses: []*ast.IfClause{{Condition: op("==", numID("n"), num("0")), Body: id("acc")}},
			Else:    apply(id("count"), op("-", id("n"), num("1")), op("+", id("acc"), num("1"))),
		})),
		apply(id("count"), num("10"), num("0")),
	)
	got := lowerText(t, body, Options{})

	for _, want := range []string{"while (true)", "continue;", "break;", "n = _$v", "acc = _$v"} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	fn := got[:strings.Index(got, "count(10)")]
	if n := strings.Count(fn, "count("); n != 1 {
		t.Errorf("function applies itself %d times after the rewrite:\n%s", n-1, got)
	}
}

func TestVarBoundFunctionIsNotRewritten(t *testing.T) {
	b := bind("f", lambda([]string{"x"}, apply(id("f"), id("x"))))
	b.Var = true
	got := lowerText(t, seq(b, apply(id("f"), num("1"))), Options{})
	if strings.Contains(got, "while") {
		t.Errorf("var bound function was turned into a loop:\n%s", got)
	}
	if !strings.Contains(got, "var f = function(x) {\n    return f(x);\n};") {
		t.Errorf("unexpected output:\n%s", got)
	}
}

func TestPartialSelfApplicationIsNotATailCall(t *testing.T) {
	body := seq(
		bind("f", lambda([]string{"a", "b"}, apply(id("f"), id("a")))),
		apply(id("f"), num("1"), num("2")),
	)
	if got := lowerText(t, body, Options{}); strings.Contains(got, "while") {
		t.Errorf("partial application was rewritten:\n%s", got)
	}
}

func TestClosureInLoopCapturesIteration(t *testing.T) {
	body := seq(
		bind("walk", lambda([]string{"n"}, &ast.IfExpression{
			Clauses: []*ast.IfClause{{Condition: op("==", numID("n"), num("0")), Body: lambda([]string{"u"}, id("n"))}},
			Else:    apply(id("walk"), op("-", id("n"), num("1"))),
		})),
		apply(id("walk"), num("3")),
	)
	got := lowerText(t, body, Options{})
	if !strings.Contains(got, "(function(n) {\n") || !strings.Contains(got, "}(n))") {
		t.Errorf("closure does not capture n:\n%s", got)
	}
}

func TestShadowingGetsDistinctNames(t *testing.T) {
	body := seq(
		bind("x", num("1")),
		bind("g", lambda([]string{"y"}, seq(bind("x", num("2")), op("+", id("x"), id("y"))))),
		apply(id("g"), id("x")),
	)
	got := lowerText(t, body, Options{})
	for _, want := range []string{"var x = 1;", "var x1 = 2;", "return x1 + y;", "g(x);"} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestStructArgument(t *testing.T) {
	fn := &ast.Lambda{
		Param: &ast.StructPattern{Fields: []*ast.FieldPattern{{Name: "a", Pattern: &ast.IdentifierPattern{Value: "a"}}}},
		Body:  id("a"),
	}
	got := lowerText(t, seq(bind("f", fn), apply(id("f"), id("none"))), Options{})
	want := "var f = function f(_$v0) {\n    var a = _$v0.a;\n    return a;\n};\nf(null);\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestOptionMatch(t *testing.T) {
	arms := []*ast.CaseArm{
		{Pattern: &ast.VariantPattern{Name: "Some", Payload: &ast.IdentifierPattern{Value: "x"}}, Body: str("A")},
		{Pattern: &ast.WildcardPattern{}, Body: str("C")},
		{Pattern: &ast.VariantPattern{Name: "None", Payload: &ast.WildcardPattern{}}, Body: str("B")},
	}
	body := seq(
		bind("f", lambda([]string{"v"}, &ast.CaseExpression{Subject: id("v"), Arms: arms})),
		apply(id("f"), id("none")),
	)
	got := lowerText(t, body, Options{})

	a, b, c := strings.Index(got, `"A"`), strings.Index(got, `"B"`), strings.Index(got, `"C"`)
	if !(b < a && a < c) {
		t.Errorf("arms are not ordered None, Some, wildcard:\n%s", got)
	}
	for _, want := range []string{
		"var _$v0 = v;",
		"_$v0 === null",
		`"None" === _$v0.tag`,
		"_$v0 !== null",
		"! (_$v0 instanceof _tag)",
		"x = _$v1",
		"} else {",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestListPatterns(t *testing.T) {
	arms := []*ast.CaseArm{
		{Pattern: &ast.ListPattern{}, Body: num("0")},
		{Pattern: &ast.ConsPattern{Head: &ast.IdentifierPattern{Value: "h"}, Tail: &ast.WildcardPattern{}}, Body: id("h")},
		{Pattern: &ast.StructPattern{Fields: []*ast.FieldPattern{{Name: "a", Pattern: &ast.LiteralPattern{Value: num("1")}}}}, Body: num("2")},
	}
	body := seq(
		bind("f", lambda([]string{"v"}, &ast.CaseExpression{Subject: id("v"), Arms: arms})),
		apply(id("f"), id("none")),
	)
	got := lowerText(t, body, Options{})
	for _, want := range []string{
		"if (_$v0.length === 0) {",
		"((_$v0.length > 0) && (_$v1 = head(_$v0), (h = _$v1, true))) && (_$v2 = tail(_$v0), true)",
		"1 === _$v0.a",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestModuleExplosion(t *testing.T) {
	res := &fakeResolver{modules: map[string]*Module{
		"m": {Name: "m", Var: ModuleVar("m"), Type: typesystem.TRecord{Fields: map[string]typesystem.Type{"b": number, "a": number}}},
	}}
	got := lowerText(t, seq(&ast.LoadModule{Module: "m"}, id("a")), Options{Resolver: res})
	want := "var a = _$m_m.a;\nvar b = _$m_m.b;\na;\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
	if got := lowerText(t, &ast.LoadModule{Module: "m"}, Options{Resolver: res}); got != "_$m_m;\n" {
		t.Errorf("module value = %q", got)
	}
}

func TestPreload(t *testing.T) {
	std := &Module{Name: "std", Var: ModuleVar("std"), Type: typesystem.TRecord{Fields: map[string]typesystem.Type{"print": number}}}
	got := lowerText(t, apply(id("print"), num("1")), Options{Preload: []*Module{std}})
	if got != "print(1);\n" {
		t.Errorf("got %q", got)
	}
	if pre := jsir.RenderStatements(Preamble([]*Module{std})); pre != "var print = _$m_std.print;\n" {
		t.Errorf("preamble = %q", pre)
	}
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name string
		body ast.Expression
		code diagnostics.ErrorCode
		msg  string
	}{
		{"unused binding", seq(bind("x", num("1")), num("2")), diagnostics.WarnW001, "Unused binding: x"},
		{"unreachable arm", &ast.CaseExpression{Subject: num("1"), Arms: []*ast.CaseArm{
			{Pattern: &ast.WildcardPattern{}, Body: num("1")},
			{Pattern: &ast.IdentifierPattern{Value: "y"}, Body: id("y")},
		}}, diagnostics.WarnW003, "unreachable pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &diagnostics.Sink{}
			lowerText(t, tt.body, Options{Warnings: sink})
			if len(sink.Warnings) != 1 {
				t.Fatalf("got %d warnings, want 1: %v", len(sink.Warnings), sink.Warnings)
			}
			w := sink.Warnings[0]
			if w.Code != tt.code || w.Message != tt.msg || w.File != "test.yjs" {
				t.Errorf("warning = %+v", w)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		body ast.Expression
		code diagnostics.ErrorCode
	}{
		{"unbound symbol", id("nope"), diagnostics.ErrL001},
		{"duplicate field", &ast.StructLiteral{Fields: []*ast.StructField{{Name: "a", Value: num("1")}, {Name: "a", Value: num("2")}}}, diagnostics.ErrL002},
		{"duplicate pattern binding", &ast.CaseExpression{Subject: num("1"), Arms: []*ast.CaseArm{
			{Pattern: &ast.ListPattern{Elements: []ast.Pattern{&ast.IdentifierPattern{Value: "x"}, &ast.IdentifierPattern{Value: "x"}}}, Body: num("1")},
		}}, diagnostics.ErrL002},
		{"destructuring needs names", seq(&ast.StructBinding{Fields: []*ast.FieldPattern{{Name: "a", Pattern: &ast.WildcardPattern{}}}, Value: num("1")}, num("1")), diagnostics.ErrL003},
		{"empty struct", &ast.StructLiteral{}, diagnostics.ErrL004},
		{"closed binding", bind("x", num("1")), diagnostics.ErrL004},
		{"class", &ast.ClassDefinition{Name: "C"}, diagnostics.ErrL004},
		{"instanceof", &ast.InstanceOf{Value: num("1"), Class: "C"}, diagnostics.ErrL004},
		{"two catches", &ast.TryExpression{Body: num("1"), Catches: []*ast.CatchClause{{Variable: "e", Body: num("2")}, {Variable: "f", Body: num("3")}}}, diagnostics.ErrL005},
		{"bad argument", &ast.Lambda{Param: &ast.ListPattern{}, Body: num("1")}, diagnostics.ErrL006},
		{"module without resolver", seq(&ast.LoadModule{Module: "m"}, num("1")), diagnostics.ErrM001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unit(&ast.Unit{Name: "test", File: "test.yjs", Body: tt.body}, Options{})
			var de *diagnostics.DiagnosticError
			if !errors.As(err, &de) {
				t.Fatalf("error = %v, want a diagnostic", err)
			}
			if de.Code != tt.code {
				t.Errorf("code = %s, want %s (%v)", de.Code, tt.code, err)
			}
			if de.File != "test.yjs" {
				t.Errorf("file = %q", de.File)
			}
		})
	}
}

func TestModuleShapeError(t *testing.T) {
	res := &fakeResolver{modules: map[string]*Module{"m": {Name: "m", Var: ModuleVar("m"), Type: number}}}
	_, err := Unit(&ast.Unit{Name: "test", Body: seq(&ast.LoadModule{Module: "m"}, num("1"))}, Options{Resolver: res})
	var de *diagnostics.DiagnosticError
	if !errors.As(err, &de) || de.Code != diagnostics.ErrM003 {
		t.Errorf("error = %v, want M003", err)
	}
}

func TestTryCatchFinally(t *testing.T) {
	body := &ast.TryExpression{
		Body:    apply(id("undef_str"), num("1")),
		Catches: []*ast.CatchClause{{Variable: "e", Body: id("e")}},
		Finally: apply(id("undef_str"), num("2")),
	}
	want := `var _$v0 = undefined;
try {
    _$v0 = undef_str(1);
} catch (e) {
    _$v0 = e;
} finally {
    undef_str(2);
}
_$v0;
`
	if got := lowerText(t, body, Options{}); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

type fakeResolver struct {
	modules map[string]*Module
}

func (r *fakeResolver) ResolveModule(name string, tok token.Token) (*Module, error) {
	m, ok := r.modules[name]
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.ErrM001, tok, "Module %s not found", name)
	}
	return m, nil
}

func (r *fakeResolver) ReadScript(name string) (string, error) {
	return "", errors.New("no scripts")
}

func loopWith(stop ast.Expression, prefix ...ast.Expression) ast.Expression {
	loop := &ast.IfExpression{
		Clauses: []*ast.IfClause{{Condition: op("==", numID("n"), num("0")), Body: stop}},
		Else:    apply(id("walk"), op("-", id("n"), num("1"))),
	}
	body := ast.Expression(loop)
	if len(prefix) > 0 {
		body = seq(append(prefix, loop)...)
	}
	return seq(bind("walk", lambda([]string{"n"}, body)), apply(id("walk"), num("3")))
}

func TestLoopCapturesOnlyParams(t *testing.T) {
	methods := &ast.StructLiteral{Fields: []*ast.StructField{
		{Name: "a", Value: lambda([]string{"u"}, apply(id("b"), id("u")))},
		{Name: "b", Value: lambda([]string{"u"}, id("n"))},
	}}
	got := lowerText(t, loopWith(methods), Options{})
	if !strings.Contains(got, "while (true)") {
		t.Fatalf("walk was not turned into a loop:\n%s", got)
	}
	if strings.Contains(got, "}(b))") {
		t.Errorf("method a copies its sibling b before b is assigned:\n%s", got)
	}
	if !strings.Contains(got, "}(n))") {
		t.Errorf("method b does not capture n:\n%s", got)
	}
}

func TestLoopDoesNotCopyVars(t *testing.T) {
	counter := bind("c", num("0"))
	counter.Var = true
	inc := bind("inc", lambda([]string{"u"}, &ast.AssignExpression{Target: id("c"), Value: op("+", id("c"), num("1"))}))
	got := lowerText(t, loopWith(id("inc"), counter, inc), Options{})
	if !strings.Contains(got, "while (true)") {
		t.Fatalf("walk was not turned into a loop:\n%s", got)
	}
	if strings.Contains(got, "}(c))") {
		t.Errorf("closure assigns a private copy of c:\n%s", got)
	}
	if !strings.Contains(got, "c = c + 1") {
		t.Errorf("assignment to c is missing:\n%s", got)
	}
}

func TestUserNamesDoNotHideHelpers(t *testing.T) {
	arms := []*ast.CaseArm{
		{Pattern: &ast.ConsPattern{Head: &ast.IdentifierPattern{Value: "h"}, Tail: &ast.WildcardPattern{}}, Body: id("h")},
		{Pattern: &ast.WildcardPattern{}, Body: id("head")},
	}
	body := seq(
		bind("head", num("1")),
		bind("range", num("2")),
		bind("f", lambda([]string{"v"}, &ast.CaseExpression{Subject: id("v"), Arms: arms})),
		apply(id("f"), &ast.ListLiteral{Elements: []ast.Expression{&ast.RangeExpression{From: id("head"), To: id("range")}}}),
	)
	got := lowerText(t, body, Options{})
	for _, want := range []string{"var _$head = 1;", "var _$range = 2;", "head(_$v", "range(_$head)(_$range)"} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "var head") || strings.Contains(got, "var range") {
		t.Errorf("user binding shadows a helper:\n%s", got)
	}
}

func TestLoweringIsDeterministic(t *testing.T) {
	res := &fakeResolver{modules: map[string]*Module{
		"m": {Name: "m", Var: ModuleVar("m"), Type: typesystem.TRecord{Fields: map[string]typesystem.Type{
			"z": number, "y": number, "x": number, "w": number,
		}}},
	}}
	methods := &ast.StructLiteral{Fields: []*ast.StructField{
		{Name: "k", Value: num("1")},
		{Name: "a", Value: lambda([]string{"u"}, apply(id("b"), id("u")))},
		{Name: "b", Value: lambda([]string{"u"}, op("+", id("n"), id("k")))},
	}}
	body := seq(&ast.LoadModule{Module: "m"}, loopWith(methods), op("+", id("x"), id("z")))
	unit := func() *jsir.Block {
		block, err := Unit(&ast.Unit{Name: "test", File: "test.yjs", Body: body}, Options{Resolver: res})
		if err != nil {
			t.Fatalf("Unit: %v", err)
		}
		return block
	}
	block := unit()
	first := jsir.RenderStatements(block)
	if again := jsir.RenderStatements(block); again != first {
		t.Errorf("rendering the same unit twice differs:\n%s\n---\n%s", first, again)
	}
	for i := 0; i < 5; i++ {
		if again := jsir.RenderStatements(unit()); again != first {
			t.Fatalf("lowering run %d differs:\n%s\n---\n%s", i, first, again)
		}
	}
}
