package jsir

// ExprStmt evaluates an expression for effect.
type ExprStmt struct {
	X Expr
}

func (s *ExprStmt) stmtNode() {}
func (s *ExprStmt) Render(p *Printer) {
	switch s.X.(type) {
	case *Object, *Fun:
		// A leading brace or function keyword would start a declaration.
		p.Write("(")
		p.Expr(s.X)
		p.Write(")")
	default:
		p.Expr(s.X)
	}
	p.Write(";")
}

// Bind declares a variable. A nil Value declares it without initialiser.
type Bind struct {
	Sym   *Sym
	Value Expr
}

func (b *Bind) stmtNode() {}
func (b *Bind) Render(p *Printer) {
	p.Write("var " + b.Sym.Name)
	if b.Value != nil {
		p.Write(" = ")
		p.Expr(b.Value)
	}
	p.Write(";")
}

type Return struct {
	X Expr
}

func (r *Return) stmtNode() {}
func (r *Return) Render(p *Printer) {
	p.Write("return ")
	p.Expr(r.X)
	p.Write(";")
}

type Throw struct {
	X Expr
}

func (t *Throw) stmtNode() {}
func (t *Throw) Render(p *Printer) {
	p.Write("throw ")
	p.Expr(t.X)
	p.Write(";")
}

// Jump is break or continue.
type Jump struct {
	Word string
}

var (
	Break    = &Jump{Word: "break"}
	Continue = &Jump{Word: "continue"}
)

func (j *Jump) stmtNode()         {}
func (j *Jump) Render(p *Printer) { p.Write(j.Word + ";") }

// While is a native loop.
type While struct {
	Cond Expr
	Body *Block
}

func (w *While) stmtNode() {}
func (w *While) Render(p *Printer) {
	p.Write("while (")
	p.Expr(w.Cond)
	p.Write(") ")
	w.Body.Render(p)
}

// IfClause is one guarded branch. A nil Cond is the else branch.
type IfClause struct {
	Cond Expr
	Body *Block
}

// If is a conditional whose branches store their value in Var.
type If struct {
	Var     *Sym
	Clauses []*IfClause
	// Bound is set once every branch ends in its own exit and must not
	// assign Var.
	Bound bool
}

// NewIf starts a conditional that stores its result in temp.
func NewIf(temp *Sym) *If {
	return &If{Var: temp}
}

// Add appends a branch. A nil cond adds the else branch.
func (i *If) Add(cond Expr, body Code) {
	b := NewBlock("")
	b.Add(body)
	i.Clauses = append(i.Clauses, &IfClause{Cond: cond, Body: b})
}

// HasElse reports whether the last branch is unconditional.
func (i *If) HasElse() bool {
	return len(i.Clauses) > 0 && i.Clauses[len(i.Clauses)-1].Cond == nil
}

// Block returns the flattenable block declaring the result, running the
// conditional and yielding the result.
func (i *If) Block() *Block {
	return &Block{Kind: "if", Stats: []Code{&Bind{Sym: i.Var, Value: Undefined}, i, i.Var}}
}

func (i *If) stmtNode() {}
func (i *If) Render(p *Printer) {
	for n, c := range i.Clauses {
		if n > 0 {
			p.Write(" else ")
		}
		if c.Cond != nil {
			p.Write("if (")
			p.Expr(c.Cond)
			p.Write(") ")
		}
		body := c.Body.Copy()
		if !i.Bound {
			body.BindLast(i.Var, false)
		}
		body.Render(p)
	}
}

// Try is try/catch/finally storing its value in Var. The finally block
// runs for effect only.
type Try struct {
	Var      *Sym
	Body     *Block
	CatchVar *Sym
	Catch    *Block
	Finally  *Block
}

// NewTry starts a try statement around body that stores its result in temp.
func NewTry(temp *Sym, body Code) *Try {
	b := NewBlock("")
	b.Add(body)
	return &Try{Var: temp, Body: b}
}

func (t *Try) SetCatch(v *Sym, body Code) {
	t.CatchVar = v
	t.Catch = NewBlock("")
	t.Catch.Add(body)
}

func (t *Try) SetFinally(body Code) {
	t.Finally = NewBlock("")
	t.Finally.Add(body)
}

func (t *Try) Block() *Block {
	return &Block{Kind: "try", Stats: []Code{&Bind{Sym: t.Var, Value: Undefined}, t, t.Var}}
}

func (t *Try) stmtNode() {}
func (t *Try) Render(p *Printer) {
	p.Write("try ")
	body := t.Body.Copy()
	body.BindLast(t.Var, false)
	body.Render(p)
	if t.Catch != nil {
		p.Write(" catch (" + t.CatchVar.Name + ") ")
		c := t.Catch.Copy()
		c.BindLast(t.Var, false)
		c.Render(p)
	}
	if t.Finally != nil {
		p.Write(" finally ")
		f := t.Finally.Copy()
		f.ToStatements()
		f.Render(p)
	}
}

// Merge copies the own properties of Source into Target.
type Merge struct {
	Target *Sym
	Source *Sym
	Key    *Sym
}

func (m *Merge) stmtNode() {}
func (m *Merge) Render(p *Printer) {
	k, s, t := m.Key.Name, m.Source.Name, m.Target.Name
	p.Write("for (var " + k + " in " + s + ") " + t + "[" + k + "] = " + s + "[" + k + "];")
}

// Comment is a line comment.
type Comment struct {
	Text string
}

func (c *Comment) stmtNode()         {}
func (c *Comment) Render(p *Printer) { p.Write("// " + c.Text) }
