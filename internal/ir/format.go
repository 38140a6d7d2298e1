package ir

import (
	"fmt"
	"io"
	"strings"
)

// Format writes a listing of p: one instruction per line, grouped by block.
func Format(w io.Writer, p *Program) error {
	var sb strings.Builder

	fns := append([]*Function{p.Init}, p.Funcs...)

	for i, fn := range fns {
		if fn == nil {
			continue
		}

		if i > 0 {
			sb.WriteByte('\n')
		}

		sb.WriteString(fn.String())
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

func (p *Program) String() string {
	var sb strings.Builder

	_ = Format(&sb, p)

	return sb.String()
}

func (f *Function) String() string {
	var sb strings.Builder

	sb.WriteString("func ")
	sb.WriteString(f.Name)
	sb.WriteByte('(')

	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}

		fmt.Fprintf(&sb, "%s %s", p.Name, p.Type)
	}

	sb.WriteByte(')')

	if f.Result != nil {
		fmt.Fprintf(&sb, " %s", f.Result)
	}

	sb.WriteByte('\n')

	Walk(f.Entry, &printer{sb: &sb})

	return sb.String()
}

type printer struct {
	sb *strings.Builder
}

func (p *printer) body(b *BasicBlock) {
	fmt.Fprintf(p.sb, "%s:\n", b.Label())

	for _, instr := range b.Instructions {
		fmt.Fprintf(p.sb, "\t%s\n", instr)
	}
}

func (p *printer) VisitBasic(_ *Walker, b *BasicBlock) {
	p.body(b)

	if b.Next != nil {
		fmt.Fprintf(p.sb, "\tgoto %s\n", b.Next.Base().Label())
	}
}

func (p *printer) VisitIf(w *Walker, b *IfBlock) {
	p.body(&b.BasicBlock)

	fmt.Fprintf(p.sb, "\tif %s then %s else %s join %s\n",
		b.CondVar, label(b.True), label(b.False), label(b.Next))

	w.Walk(b.True)
	w.Walk(b.False)
}

func (p *printer) VisitWhile(w *Walker, b *WhileBlock) {
	p.body(&b.BasicBlock)

	fmt.Fprintf(p.sb, "\twhile %s do %s exit %s\n",
		b.CondVar, label(b.Body), label(b.Next))

	w.Walk(b.Body)
}

func label(b Block) string {
	if b == nil {
		return "-"
	}

	return b.Base().Label()
}
