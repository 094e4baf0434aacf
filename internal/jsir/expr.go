package jsir

// Sym is a reference to a target variable.
type Sym struct {
	// Name is the mangled target name.
	Name string
	// Source is the name in the source program, empty for temporaries.
	Source string
}

// NoArg is the parameter of functions taking unit or an ignored argument.
var NoArg = &Sym{}

func NewSym(name, source string) *Sym { return &Sym{Name: name, Source: source} }

func (s *Sym) Precedence() int   { return PrecLit }
func (s *Sym) Render(p *Printer) { p.Write(s.Name) }
func (s *Sym) IsNoArg() bool     { return s == nil || s.Name == "" }
func (s *Sym) String() string    { return s.Name }

// Lit is literal target text.
type Lit struct {
	Text string
	Prec int
}

var (
	Undefined = &Lit{Text: "undefined", Prec: PrecLit}
	Null      = &Lit{Text: "null", Prec: PrecLit}
	True      = &Lit{Text: "true", Prec: PrecLit}
	False     = &Lit{Text: "false", Prec: PrecLit}
)

func NewLit(text string) *Lit { return &Lit{Text: text, Prec: PrecLit} }

// NewRaw returns verbatim code that is parenthesised whenever it is nested.
func NewRaw(text string) *Lit { return &Lit{Text: text, Prec: PrecRL} }

// NewStr returns a string literal.
func NewStr(s string) *Lit { return &Lit{Text: Quote(s), Prec: PrecLit} }

func (l *Lit) Precedence() int   { return l.Prec }
func (l *Lit) Render(p *Printer) { p.Write(l.Text) }

// IsUndefined reports whether e is the undefined literal.
func IsUndefined(e Expr) bool {
	l, ok := e.(*Lit)
	return ok && l.Text == Undefined.Text
}

// Apply is curried application `fun(arg)`.
type Apply struct {
	Fun Expr
	Arg Expr
}

func NewApply(fun Expr, args ...Expr) Expr {
	var e Expr = fun
	for _, a := range args {
		e = &Apply{Fun: e, Arg: a}
	}
	return e
}

func (a *Apply) Precedence() int { return PrecApply }
func (a *Apply) Render(p *Printer) {
	p.Group(a.Fun, PrecApply)
	p.Write("(")
	if a.Arg != nil && !IsUndefined(a.Arg) {
		p.Expr(a.Arg)
	}
	p.Write(")")
}

// Call is an uncurried call `fun(a, b)`.
type Call struct {
	Fun  Expr
	Args []Expr
}

func (c *Call) Precedence() int { return PrecApply }
func (c *Call) Render(p *Printer) {
	p.Group(c.Fun, PrecApply)
	p.Write("(")
	p.List(c.Args)
	p.Write(")")
}

// New is `new Class(args)`.
type New struct {
	Class string
	Args  []Expr
}

func (n *New) Precedence() int { return PrecApply }
func (n *New) Render(p *Printer) {
	p.Write("new " + n.Class + "(")
	p.List(n.Args)
	p.Write(")")
}

// Field is property selection by a constant name.
type Field struct {
	Obj  Expr
	Name string
}

func (f *Field) Precedence() int { return PrecField }
func (f *Field) Render(p *Printer) {
	p.Group(f.Obj, PrecField)
	if IsIdentifier(f.Name) {
		p.Write("." + f.Name)
	} else {
		p.Write("[" + Quote(f.Name) + "]")
	}
}

// Index is computed property selection `obj[key]`.
type Index struct {
	Obj Expr
	Key Expr
}

func (i *Index) Precedence() int { return PrecField }
func (i *Index) Render(p *Printer) {
	p.Group(i.Obj, PrecField)
	p.Write("[")
	p.Expr(i.Key)
	p.Write("]")
}

// BinOp is a native operator. Left is nil for prefix operators.
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinOp) Precedence() int { return PrecBin }
func (b *BinOp) Render(p *Printer) {
	if b.Left == nil {
		p.Write(b.Op + " ")
		p.GroupBin(b.Right, PrecBin)
		return
	}
	p.GroupBin(b.Left, PrecBin)
	p.Write(" " + b.Op + " ")
	p.GroupBin(b.Right, PrecBin)
}

// And conjoins the operands left to right, skipping nil ones.
func And(operands ...Expr) Expr {
	var out Expr
	for _, e := range operands {
		switch {
		case e == nil:
		case out == nil:
			out = e
		default:
			out = &BinOp{Op: "&&", Left: out, Right: e}
		}
	}
	if out == nil {
		return True
	}
	return out
}

// Assign is `target = value`.
type Assign struct {
	Target Expr
	Value  Expr
}

func (a *Assign) Precedence() int { return PrecRL }
func (a *Assign) Render(p *Printer) {
	p.Expr(a.Target)
	p.Write(" = ")
	p.Expr(a.Value)
}

// Seq is the comma expression `(a, b, c)`.
type Seq struct {
	Items []Expr
}

func (s *Seq) Precedence() int { return PrecGroup }
func (s *Seq) Render(p *Printer) {
	p.Write("(")
	p.List(s.Items)
	p.Write(")")
}

// Concat is string concatenation that forces string conversion.
type Concat struct {
	Parts []Expr
}

func (c *Concat) Precedence() int { return PrecBin }
func (c *Concat) Render(p *Printer) {
	p.Write(`""`)
	for _, part := range c.Parts {
		p.Write(" + (")
		p.Expr(part)
		p.Write(")")
	}
}

// Array is an array literal.
type Array struct {
	Items []Expr
}

func (a *Array) Precedence() int { return PrecLit }
func (a *Array) Render(p *Printer) {
	p.Write("[")
	p.List(a.Items)
	p.Write("]")
}

// ListConcat joins array segments with `.concat`.
type ListConcat struct {
	Segments []Expr
}

func (l *ListConcat) Precedence() int {
	if len(l.Segments) == 1 {
		return l.Segments[0].Precedence()
	}
	return PrecApply
}

func (l *ListConcat) Render(p *Printer) {
	if len(l.Segments) == 0 {
		p.Write("[]")
		return
	}
	p.Group(l.Segments[0], PrecField)
	for _, seg := range l.Segments[1:] {
		p.Write(".concat(")
		p.Expr(seg)
		p.Write(")")
	}
}

// ObjectField is one member of an object literal.
type ObjectField struct {
	Key   string
	Value Expr
}

// Object is an object literal.
type Object struct {
	Fields []*ObjectField
}

func (o *Object) Precedence() int { return PrecLit }
func (o *Object) Render(p *Printer) {
	if len(o.Fields) == 0 {
		p.Write("{}")
		return
	}
	p.Write("{")
	p.Indent()
	for i, f := range o.Fields {
		if i > 0 {
			p.Write(",")
		}
		p.Newline()
		p.Write(Quote(f.Key) + ": ")
		p.Expr(f.Value)
	}
	p.Dedent()
	p.Newline()
	p.Write("}")
}

// Fun is a one-parameter function literal.
type Fun struct {
	Name *Sym
	Arg  *Sym
	Body *Block
	// Capture, when set, returns variables whose current values the
	// function must capture instead of sharing the variable.
	Capture func() []*Sym
}

func NewFun(name, arg *Sym, body *Block) *Fun {
	if body == nil {
		body = NewBlock("")
	}
	return &Fun{Name: name, Arg: arg, Body: body}
}

// Close turns a trailing expression of the body into a return.
func (f *Fun) Close() { f.Body.Close() }

func (f *Fun) captures() []*Sym {
	if f.Capture == nil {
		return nil
	}
	return f.Capture()
}

func (f *Fun) Precedence() int {
	if len(f.captures()) > 0 {
		return PrecGroup
	}
	return PrecFun
}

func (f *Fun) Render(p *Printer) {
	caps := f.captures()
	if len(caps) == 0 {
		f.renderFunction(p)
		return
	}
	vars := make([]Expr, len(caps))
	for i, c := range caps {
		vars[i] = c
	}
	p.Write("(function(")
	p.List(vars)
	p.Write(") {")
	p.Indent()
	p.Newline()
	p.Write("return ")
	f.renderFunction(p)
	p.Write(";")
	p.Dedent()
	p.Newline()
	p.Write("}(")
	p.List(vars)
	p.Write("))")
}

func (f *Fun) renderFunction(p *Printer) {
	p.Write("function")
	if !f.Name.IsNoArg() {
		p.Write(" " + f.Name.Name)
	}
	p.Write("(")
	if !f.Arg.IsNoArg() {
		p.Write(f.Arg.Name)
	}
	p.Write(") ")
	f.Body.Render(p)
}

// IIFE is an immediately invoked function `(function(arg){...}(arg))`.
type IIFE struct {
	Fun *Fun
	Arg Expr
}

// NewIIFE closes fun and wraps it in an invocation.
func NewIIFE(fun *Fun, arg Expr) *IIFE {
	fun.Close()
	return &IIFE{Fun: fun, Arg: arg}
}

func (i *IIFE) Precedence() int { return PrecGroup }
func (i *IIFE) Render(p *Printer) {
	p.Write("(")
	i.Fun.Render(p)
	p.Write("(")
	if i.Arg != nil {
		p.Expr(i.Arg)
	}
	p.Write("))")
}
