package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders nodes as s-expressions.

func (p *Program) String() string {
	return fmt.Sprintf("(program %s)", p.Body)
}

func (s *Statements) String() string {
	parts := make([]string, 0, len(s.List)+1)
	parts = append(parts, "stmts")

	for _, st := range s.List {
		parts = append(parts, st.String())
	}

	return "(" + strings.Join(parts, " ") + ")"
}

func (d *ConstDecl) String() string {
	return fmt.Sprintf("(const %s %s)", d.Name, d.Value)
}

func (d *VarDecl) String() string {
	if d.Value == nil {
		return fmt.Sprintf("(var %s %s)", d.Name, d.Typename)
	}

	return fmt.Sprintf("(var %s %s %s)", d.Name, d.Typename, d.Value)
}

func (d *FuncDecl) String() string {
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.String()
	}

	if d.Result == nil {
		return fmt.Sprintf("(func %s (%s) %s)", d.Name, strings.Join(params, " "), d.Body)
	}

	return fmt.Sprintf("(func %s (%s) %s %s)", d.Name, strings.Join(params, " "), d.Result, d.Body)
}

func (d *ParamDecl) String() string {
	return fmt.Sprintf("(param %s %s)", d.Name, d.Typename)
}

func (d *TypeDecl) String() string {
	return fmt.Sprintf("(type %s)", d.Type.Name)
}

func (a *Assign) String() string {
	return fmt.Sprintf("(assign %s %s)", a.Target, a.Value)
}

func (i *If) String() string {
	if i.Else == nil {
		return fmt.Sprintf("(if %s %s)", i.Cond, i.Then)
	}

	return fmt.Sprintf("(if %s %s %s)", i.Cond, i.Then, i.Else)
}

func (w *While) String() string {
	return fmt.Sprintf("(while %s %s)", w.Cond, w.Body)
}

func (r *Return) String() string {
	if r.Value == nil {
		return "(return)"
	}

	return fmt.Sprintf("(return %s)", r.Value)
}

func (p *Print) String() string {
	return fmt.Sprintf("(print %s)", p.Value)
}

func (c *Call) String() string {
	parts := []string{"call", c.Name}

	for _, a := range c.Args {
		parts = append(parts, a.String())
	}

	return "(" + strings.Join(parts, " ") + ")"
}

func (u *Unary) String() string {
	return fmt.Sprintf("(%s %s)", u.Op, u.Operand)
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Op, b.Left, b.Right)
}

func (r *Relational) String() string {
	return fmt.Sprintf("(%s %s %s)", r.Op, r.Left, r.Right)
}

func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case string:
		return strconv.Quote(v)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}

		return s
	default:
		return fmt.Sprint(v)
	}
}

func (l *Load) String() string { return l.Target.String() }

func (l *Location) String() string { return l.Name }

func (t *Typename) String() string { return t.Name }
