package jsir

// Block is a statement list. A block with a non-empty Kind is a builder
// product (conditional, case, struct, ...) that is spliced into the block
// it is added to instead of being nested.
type Block struct {
	Kind  string
	Stats []Code
}

func NewBlock(kind string) *Block {
	return &Block{Kind: kind}
}

// Add appends c, splicing kinded blocks.
func (b *Block) Add(c Code) *Block {
	if inner, ok := c.(*Block); ok && inner.Kind != "" {
		b.Stats = append(b.Stats, inner.Stats...)
		return b
	}
	b.Stats = append(b.Stats, c)
	return b
}

// AddFlat appends c, splicing any block.
func (b *Block) AddFlat(c Code) *Block {
	if inner, ok := c.(*Block); ok {
		b.Stats = append(b.Stats, inner.Stats...)
		return b
	}
	b.Stats = append(b.Stats, c)
	return b
}

// Bind declares s with the value of c.
func (b *Block) Bind(s *Sym, c Code) *Block {
	if inner, ok := c.(*Block); ok && inner.Kind != "" {
		b.Stats = append(b.Stats, inner.Stats...)
		b.BindLast(s, true)
		return b
	}
	b.Stats = append(b.Stats, &Bind{Sym: s, Value: ToExpr(c)})
	return b
}

// BindLast stores the value of the block in s: the trailing expression is
// turned into a declaration (decl) or an assignment. A block that does not
// end with an expression yields undefined.
func (b *Block) BindLast(s *Sym, decl bool) {
	var value Expr = Undefined
	if n := len(b.Stats); n > 0 {
		if e, ok := b.Stats[n-1].(Expr); ok {
			value = e
			b.Stats = b.Stats[:n-1]
		}
	}
	if decl {
		b.Stats = append(b.Stats, &Bind{Sym: s, Value: value})
	} else {
		b.Stats = append(b.Stats, &ExprStmt{X: &Assign{Target: s, Value: value}})
	}
}

// Close turns a trailing expression into a return statement.
func (b *Block) Close() {
	if n := len(b.Stats); n > 0 {
		if e, ok := b.Stats[n-1].(Expr); ok {
			b.Stats[n-1] = &Return{X: e}
		}
	}
}

// ToStatements drops trailing values that would only be evaluated for
// their result.
func (b *Block) ToStatements() {
	if n := len(b.Stats); n > 0 {
		switch b.Stats[n-1].(type) {
		case *Sym, *Lit:
			b.Stats = b.Stats[:n-1]
		}
	}
}

func (b *Block) Last() Code {
	if len(b.Stats) == 0 {
		return nil
	}
	return b.Stats[len(b.Stats)-1]
}

// Copy returns a block sharing the statements but not the slice.
func (b *Block) Copy() *Block {
	return &Block{Kind: b.Kind, Stats: append([]Code(nil), b.Stats...)}
}

func (b *Block) stmtNode() {}
func (b *Block) Render(p *Printer) {
	if len(b.Stats) == 0 {
		p.Write("{}")
		return
	}
	p.Write("{")
	p.Indent()
	for _, s := range b.Stats {
		p.Newline()
		ToStmt(s).Render(p)
	}
	p.Dedent()
	p.Newline()
	p.Write("}")
}
