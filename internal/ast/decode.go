package ast

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/token"
	"github.com/funvibe/yjs/internal/typesystem"
)

// Format is the encoding of an interchange document.
type Format int

const (
	FormatYAML Format = iota // also accepts JSON
	FormatCBOR
)

// The front end hands typed trees over as documents of the form
//
//	unit: name
//	module: true
//	compiler: 0.9.8
//	type: {struct: {x: number}}
//	body: {seq: [...]}
//
// where every node is a single-key map {kind: payload} that may also carry
// `pos: [line, column]` and `type: <type>`.

var cborDecMode cbor.DecMode

func init() {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: failed to create decode mode: %v", err))
	}
	cborDecMode = dm
}

// Decode parses an interchange document into a compilation unit.
func Decode(data []byte, format Format, file string) (*Unit, error) {
	var doc any
	switch format {
	case FormatCBOR:
		if err := cborDecMode.Unmarshal(data, &doc); err != nil {
			return nil, docError(file, token.Token{}, "invalid CBOR document: %v", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, docError(file, token.Token{}, "invalid document: %v", err)
		}
	}
	return decodeUnit(doc, file)
}

// EncodeCBOR re-encodes a YAML/JSON document as CBOR.
func EncodeCBOR(yamlData []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(yamlData, &doc); err != nil {
		return nil, err
	}
	return cbor.Marshal(doc)
}

func docError(file string, tok token.Token, format string, args ...any) *diagnostics.DiagnosticError {
	err := diagnostics.Errorf(diagnostics.ErrD001, tok, format, args...)
	err.File = file
	return err
}

type decoder struct {
	file string
	pos  token.Token
}

type decodeBailout struct{ err error }

func (d *decoder) fail(format string, args ...any) {
	panic(decodeBailout{docError(d.file, d.pos, format, args...)})
}

func decodeUnit(doc any, file string) (unit *Unit, err error) {
	d := &decoder{file: file}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(decodeBailout)
			if !ok {
				panic(r)
			}
			unit, err = nil, b.err
		}
	}()

	m := d.mapping(doc, "document")
	unit = &Unit{
		Name:            d.str(m["unit"], "unit"),
		File:            file,
		CompilerVersion: d.optStr(m["compiler"]),
	}
	if unit.Name == "" {
		d.fail("document has no unit name")
	}
	if mod, ok := m["module"].(bool); ok {
		unit.IsModule = mod
	}
	if t, ok := m["type"]; ok {
		unit.Type = d.typ(t)
	}
	body, ok := m["body"]
	if !ok {
		d.fail("document has no body")
	}
	unit.Body = d.expr(body)
	return unit, nil
}

func (d *decoder) mapping(v any, what string) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		d.fail("%s: expected a mapping, got %T", what, v)
	}
	return m
}

func (d *decoder) list(v any, what string) []any {
	if v == nil {
		return nil
	}
	l, ok := v.([]any)
	if !ok {
		d.fail("%s: expected a list, got %T", what, v)
	}
	return l
}

func (d *decoder) str(v any, what string) string {
	switch s := v.(type) {
	case string:
		return s
	case int, int64, uint64, float64:
		return fmt.Sprint(s)
	}
	d.fail("%s: expected a string, got %T", what, v)
	return ""
}

func (d *decoder) optStr(v any) string {
	if v == nil {
		return ""
	}
	return d.str(v, "string")
}

func (d *decoder) flag(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// node splits a {kind: payload} map and updates the current position.
func (d *decoder) node(v any, what string) (string, any, map[string]any) {
	m := d.mapping(v, what)
	if p, ok := m["pos"].([]any); ok && len(p) == 2 {
		line, _ := toInt(p[0])
		col, _ := toInt(p[1])
		d.pos = token.New(d.pos.Lexeme, line, col)
	}
	var kinds []string
	for k := range m {
		if k != "pos" && k != "type" {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) != 1 {
		sort.Strings(kinds)
		d.fail("%s: expected exactly one node kind, got %v", what, kinds)
	}
	d.pos.Lexeme = kinds[0]
	return kinds[0], m[kinds[0]], m
}

func (d *decoder) exprs(v any, what string) []Expression {
	var out []Expression
	for _, item := range d.list(v, what) {
		out = append(out, d.expr(item))
	}
	return out
}

func (d *decoder) optExpr(v any) Expression {
	if v == nil {
		return nil
	}
	return d.expr(v)
}

func (d *decoder) expr(v any) Expression {
	kind, p, m := d.node(v, "expression")
	tok := d.pos
	typed := Typed{}
	if t, ok := m["type"]; ok {
		typed.Type = d.typ(t)
	}

	switch kind {
	case "sym":
		return &Identifier{Token: tok, Typed: typed, Value: d.str(p, kind)}
	case "num":
		return &NumberLiteral{Token: tok, Typed: typed, Value: d.str(p, kind)}
	case "str":
		return &StringLiteral{Token: tok, Typed: typed, Value: d.str(p, kind)}
	case "bool":
		b, ok := p.(bool)
		if !ok {
			d.fail("bool: expected true or false")
		}
		return &BooleanLiteral{Token: tok, Typed: typed, Value: b}
	case "unit":
		return &UnitLiteral{Token: tok, Typed: typed}
	case "seq":
		return &Sequence{Token: tok, Typed: typed, Statements: d.exprs(p, kind)}
	case "bind":
		b := d.mapping(p, kind)
		return &Binding{Token: tok, Typed: typed, Name: d.str(b["name"], "bind.name"),
			Value: d.expr(b["value"]), Var: d.flag(b, "var"), NoRec: d.flag(b, "norec")}
	case "structbind":
		b := d.mapping(p, kind)
		return &StructBinding{Token: tok, Typed: typed, Fields: d.fieldPatterns(b["fields"]), Value: d.expr(b["value"])}
	case "lambda":
		l := d.mapping(p, kind)
		return &Lambda{Token: tok, Typed: typed, Name: d.optStr(l["name"]), Param: d.param(l["param"]), Body: d.expr(l["body"])}
	case "struct":
		lit := &StructLiteral{Token: tok, Typed: typed}
		for _, item := range d.list(p, kind) {
			f := d.mapping(item, "struct field")
			lit.Fields = append(lit.Fields, &StructField{Token: d.pos, Name: d.str(f["name"], "field name"),
				Value: d.expr(f["value"]), Var: d.flag(f, "var"), NoRec: d.flag(f, "norec")})
		}
		return lit
	case "if":
		c := d.mapping(p, kind)
		ie := &IfExpression{Token: tok, Typed: typed, Else: d.optExpr(c["else"])}
		for _, item := range d.list(c["clauses"], "if clauses") {
			cl := d.mapping(item, "if clause")
			ie.Clauses = append(ie.Clauses, &IfClause{Condition: d.expr(cl["cond"]), Body: d.expr(cl["body"])})
		}
		return ie
	case "loop":
		l := d.mapping(p, kind)
		return &LoopExpression{Token: tok, Typed: typed, Condition: d.optExpr(l["cond"]), Body: d.optExpr(l["body"])}
	case "try":
		t := d.mapping(p, kind)
		te := &TryExpression{Token: tok, Typed: typed, Body: d.expr(t["body"]), Finally: d.optExpr(t["finally"])}
		for _, item := range d.list(t["catch"], "catch clauses") {
			c := d.mapping(item, "catch clause")
			te.Catches = append(te.Catches, &CatchClause{Token: d.pos, Variable: d.str(c["var"], "catch var"), Body: d.expr(c["body"])})
		}
		return te
	case "apply":
		a := d.mapping(p, kind)
		return &ApplyExpression{Token: tok, Typed: typed, Function: d.expr(a["fn"]), Argument: d.expr(a["arg"])}
	case "op":
		o := d.mapping(p, kind)
		return &BinaryExpression{Token: tok, Typed: typed, Operator: d.str(o["op"], "operator"),
			Left: d.optExpr(o["left"]), Right: d.expr(o["right"])}
	case "field":
		f := d.mapping(p, kind)
		return &FieldAccess{Token: tok, Typed: typed, Object: d.expr(f["object"]), Field: d.str(f["name"], "field name")}
	case "index":
		i := d.mapping(p, kind)
		return &IndexExpression{Token: tok, Typed: typed, Object: d.expr(i["object"]), Index: d.expr(i["key"])}
	case "list":
		return &ListLiteral{Token: tok, Typed: typed, Elements: d.exprs(p, kind)}
	case "range":
		r := d.mapping(p, kind)
		return &RangeExpression{Token: tok, Typed: typed, From: d.expr(r["from"]), To: d.expr(r["to"])}
	case "map":
		ml := &MapLiteral{Token: tok, Typed: typed}
		for _, item := range d.list(p, kind) {
			e := d.mapping(item, "map entry")
			ml.Entries = append(ml.Entries, &MapEntry{Key: d.expr(e["key"]), Value: d.expr(e["value"])})
		}
		return ml
	case "case":
		c := d.mapping(p, kind)
		ce := &CaseExpression{Token: tok, Typed: typed, Subject: d.expr(c["subject"])}
		for _, item := range d.list(c["arms"], "case arms") {
			a := d.mapping(item, "case arm")
			arm := &CaseArm{Token: d.pos, Pattern: d.pattern(a["pattern"])}
			arm.Body = d.expr(a["body"])
			ce.Arms = append(ce.Arms, arm)
		}
		return ce
	case "variant":
		vc := d.mapping(p, kind)
		return &VariantConstructor{Token: tok, Typed: typed, Name: d.str(vc["name"], "variant name"), Payload: d.expr(vc["payload"])}
	case "load":
		return &LoadModule{Token: tok, Typed: typed, Module: d.str(p, kind)}
	case "script":
		return &ScriptExpression{Token: tok, Typed: typed, Source: d.str(p, kind)}
	case "scriptimport":
		return &ScriptExpression{Token: tok, Typed: typed, Import: d.str(p, kind)}
	case "concat":
		return &ConcatExpression{Token: tok, Typed: typed, Parts: d.exprs(p, kind)}
	case "send":
		s := d.mapping(p, kind)
		mc := &MethodCall{Token: tok, Typed: typed, Receiver: d.expr(s["receiver"]), Method: d.str(s["method"], "method")}
		if args, ok := s["args"]; ok {
			mc.Call = true
			mc.Arguments = d.exprs(args, "method arguments")
		}
		return mc
	case "section":
		s := d.mapping(p, kind)
		return &OperatorSection{Token: tok, Typed: typed, Operator: d.str(s["op"], "operator"), Argument: d.expr(s["arg"])}
	case "selector":
		fs := &FieldSection{Token: tok, Typed: typed}
		for _, item := range d.list(p, kind) {
			fs.Path = append(fs.Path, d.str(item, "selector field"))
		}
		return fs
	case "with":
		w := d.mapping(p, kind)
		return &WithExpression{Token: tok, Typed: typed, Left: d.expr(w["left"]), Right: d.expr(w["right"])}
	case "assign":
		a := d.mapping(p, kind)
		return &AssignExpression{Token: tok, Typed: typed, Target: d.expr(a["target"]), Value: d.expr(a["value"])}
	case "new":
		n := d.mapping(p, kind)
		return &NewExpression{Token: tok, Typed: typed, Class: d.str(n["class"], "class"), Arguments: d.exprs(n["args"], "arguments")}
	case "cast":
		c := d.mapping(p, kind)
		return &CastExpression{Token: tok, Typed: typed, Operator: d.str(c["op"], "cast operator"), Value: d.expr(c["value"])}
	case "typedef":
		return &TypeDefinition{Token: tok, Typed: typed, Name: d.str(p, kind)}
	case "class":
		return &ClassDefinition{Token: tok, Typed: typed, Name: d.str(p, kind)}
	case "import":
		return &ImportStatement{Token: tok, Typed: typed, Path: d.str(p, kind)}
	case "classof":
		return &ClassOf{Token: tok, Typed: typed, Class: d.str(p, kind)}
	case "instanceof":
		i := d.mapping(p, kind)
		return &InstanceOf{Token: tok, Typed: typed, Value: d.expr(i["value"]), Class: d.str(i["class"], "class")}
	}
	d.fail("unknown expression kind %q", kind)
	return nil
}

// param decodes a lambda parameter: a name, unit or a struct pattern.
func (d *decoder) param(v any) Node {
	kind, p, _ := d.node(v, "lambda parameter")
	tok := d.pos
	switch kind {
	case "sym":
		return &Identifier{Token: tok, Value: d.str(p, kind)}
	case "unit":
		return &UnitLiteral{Token: tok}
	case "struct":
		return &StructPattern{Token: tok, Fields: d.fieldPatterns(p)}
	}
	return d.pattern(v)
}

func (d *decoder) fieldPatterns(v any) []*FieldPattern {
	var out []*FieldPattern
	for _, item := range d.list(v, "field patterns") {
		f := d.mapping(item, "field pattern")
		fp := &FieldPattern{Token: d.pos, Name: d.str(f["name"], "field name")}
		if pat, ok := f["pattern"]; ok {
			fp.Pattern = d.pattern(pat)
		} else {
			fp.Pattern = &IdentifierPattern{Token: d.pos, Value: fp.Name}
		}
		out = append(out, fp)
	}
	return out
}

func (d *decoder) pattern(v any) Pattern {
	kind, p, _ := d.node(v, "pattern")
	tok := d.pos
	switch kind {
	case "sym":
		switch name := d.str(p, kind); name {
		case "_":
			return &WildcardPattern{Token: tok}
		case "...":
			return &WildcardPattern{Token: tok, Ellipsis: true}
		default:
			return &IdentifierPattern{Token: tok, Value: name}
		}
	case "unit":
		return &UnitPattern{Token: tok}
	case "num", "str", "send":
		return &LiteralPattern{Token: tok, Value: d.expr(v)}
	case "list":
		lp := &ListPattern{Token: tok}
		for _, item := range d.list(p, kind) {
			lp.Elements = append(lp.Elements, d.pattern(item))
		}
		return lp
	case "cons":
		c := d.mapping(p, kind)
		return &ConsPattern{Token: tok, Head: d.pattern(c["head"]), Tail: d.pattern(c["tail"])}
	case "struct":
		return &StructPattern{Token: tok, Fields: d.fieldPatterns(p)}
	case "variant":
		vp := d.mapping(p, kind)
		pat := &VariantPattern{Token: tok, Name: d.str(vp["name"], "variant name")}
		if payload, ok := vp["payload"]; ok {
			pat.Payload = d.pattern(payload)
		} else {
			pat.Payload = &WildcardPattern{Token: tok}
		}
		return pat
	}
	d.fail("unknown pattern kind %q", kind)
	return nil
}

func (d *decoder) typ(v any) typesystem.Type {
	if s, ok := v.(string); ok {
		if len(s) > 1 && s[0] == '\'' {
			return typesystem.TVar{Name: s[1:]}
		}
		return typesystem.TCon{Name: s}
	}
	m := d.mapping(v, "type")
	if len(m) != 1 {
		d.fail("type: expected exactly one constructor")
	}
	for kind, p := range m {
		switch kind {
		case "var":
			return typesystem.TVar{Name: d.str(p, kind)}
		case "fn":
			parts := d.list(p, kind)
			if len(parts) != 2 {
				d.fail("fn type: expected [param, result]")
			}
			return typesystem.TFunc{Param: d.typ(parts[0]), Result: d.typ(parts[1])}
		case "list":
			return typesystem.TList{Element: d.typ(p)}
		case "map":
			parts := d.list(p, kind)
			if len(parts) != 2 {
				d.fail("map type: expected [key, value]")
			}
			return typesystem.TMap{Key: d.typ(parts[0]), Value: d.typ(parts[1])}
		case "struct":
			fields := map[string]typesystem.Type{}
			for name, ft := range d.mapping(p, kind) {
				fields[name] = d.typ(ft)
			}
			return typesystem.TRecord{Fields: fields}
		case "variant":
			cases := map[string]typesystem.Type{}
			for name, ct := range d.mapping(p, kind) {
				cases[name] = d.typ(ct)
			}
			return typesystem.TVariant{Cases: cases}
		default:
			d.fail("unknown type constructor %q", kind)
		}
	}
	return nil
}

// DecodeType reads a type in the document notation.
func DecodeType(v any) (t typesystem.Type, err error) {
	d := &decoder{}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(decodeBailout)
			if !ok {
				panic(r)
			}
			t, err = nil, b.err
		}
	}()
	if v == nil {
		return nil, nil
	}
	return d.typ(v), nil
}

// EncodeType is the inverse of DecodeType.
func EncodeType(t typesystem.Type) any {
	switch t := t.(type) {
	case nil:
		return nil
	case typesystem.TVar:
		return "'" + t.Name
	case typesystem.TCon:
		return t.Name
	case typesystem.TFunc:
		return map[string]any{"fn": []any{EncodeType(t.Param), EncodeType(t.Result)}}
	case typesystem.TList:
		return map[string]any{"list": EncodeType(t.Element)}
	case typesystem.TMap:
		return map[string]any{"map": []any{EncodeType(t.Key), EncodeType(t.Value)}}
	case typesystem.TRecord:
		fields := make(map[string]any, len(t.Fields))
		for name, ft := range t.Fields {
			fields[name] = EncodeType(ft)
		}
		return map[string]any{"struct": fields}
	case typesystem.TVariant:
		cases := make(map[string]any, len(t.Cases))
		for name, ct := range t.Cases {
			cases[name] = EncodeType(ct)
		}
		return map[string]any{"variant": cases}
	}
	return t.String()
}
