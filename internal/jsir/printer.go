package jsir

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// Printer renders IR to target source text.
type Printer struct {
	buf    bytes.Buffer
	indent int
}

func NewPrinter() *Printer {
	return &Printer{}
}

func (p *Printer) Write(s string) {
	p.buf.WriteString(s)
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

// Newline starts a new line at the current indentation.
func (p *Printer) Newline() {
	p.buf.WriteByte('\n')
	p.writeIndent()
}

func (p *Printer) Indent() { p.indent++ }
func (p *Printer) Dedent() { p.indent-- }

// Expr renders e without grouping.
func (p *Printer) Expr(e Expr) {
	e.Render(p)
}

// Group renders e inside a parent of precedence parent, adding parentheses
// unless e binds at least as tightly.
func (p *Printer) Group(e Expr, parent int) {
	prec := e.Precedence()
	if prec != PrecRL && prec <= parent {
		e.Render(p)
		return
	}
	p.Write("(")
	e.Render(p)
	p.Write(")")
}

// GroupBin is Group for operands of binary operators: operands of equal
// precedence are parenthesised too, so operator chains never rely on
// associativity.
func (p *Printer) GroupBin(e Expr, parent int) {
	prec := e.Precedence()
	if prec != PrecRL && prec < parent {
		e.Render(p)
		return
	}
	p.Write("(")
	e.Render(p)
	p.Write(")")
}

// List renders comma separated expressions.
func (p *Printer) List(items []Expr) {
	for i, e := range items {
		if i > 0 {
			p.Write(", ")
		}
		p.Expr(e)
	}
}

func (p *Printer) String() string {
	return p.buf.String()
}

// Render prints a single piece of code.
func Render(c Code) string {
	p := NewPrinter()
	c.Render(p)
	return p.String()
}

// RenderStatements prints the statements of a block at top level, one per
// line, without enclosing braces.
func RenderStatements(b *Block) string {
	p := NewPrinter()
	for i, s := range b.Stats {
		if i > 0 {
			p.Newline()
		}
		ToStmt(s).Render(p)
	}
	if len(b.Stats) > 0 {
		p.buf.WriteByte('\n')
	}
	return p.String()
}

// Quote returns s as a double-quoted target string literal.
func Quote(s string) string {
	var b bytes.Buffer
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		case utf8.RuneError:
			b.WriteString(`\ufffd`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
