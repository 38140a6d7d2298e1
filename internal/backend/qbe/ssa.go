package qbe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corani/exprc/internal/diag"
)

// SSAGen implements Visitor and renders QBE IL text.
type SSAGen struct{}

func NewSSAVisitor() *SSAGen {
	return &SSAGen{}
}

func (v *SSAGen) VisitCompilationUnit(cu *CompilationUnit) string {
	var parts []string

	if cu.Source != "" {
		parts = append(parts, "# "+cu.Source)
	}

	for i := range cu.FuncDefs {
		parts = append(parts, cu.FuncDefs[i].Accept(v))
	}

	if len(cu.DataDefs) > 0 {
		defs := make([]string, len(cu.DataDefs))
		for i := range cu.DataDefs {
			defs[i] = cu.DataDefs[i].Accept(v)
		}

		parts = append(parts, strings.Join(defs, "\n"))
	}

	return strings.Join(parts, "\n\n") + "\n"
}

func (v *SSAGen) VisitDataDef(dd *DataDef) string {
	var linkage, align string

	if dd.Linkage != "" {
		linkage = string(dd.Linkage) + " "
	}

	if dd.Align > 0 {
		align = fmt.Sprintf("align %d ", dd.Align)
	}

	initializer := make([]string, len(dd.Initializer))
	for i, init := range dd.Initializer {
		initializer[i] = v.VisitDataInit(init)
	}

	return fmt.Sprintf("%sdata $%s = %s{ %s }", linkage, dd.Ident, align, strings.Join(initializer, ", "))
}

func (v *SSAGen) VisitFuncDef(fd *FuncDef) string {
	var linkage, retTy string

	if fd.Linkage != "" {
		linkage = string(fd.Linkage) + " "
	}

	if fd.RetTy != "" {
		retTy = string(fd.RetTy) + " "
	}

	params := make([]string, len(fd.Params))
	for i, param := range fd.Params {
		params[i] = fmt.Sprintf("%s %%%s", param.BaseTy, param.Ident)
	}

	blocks := make([]string, len(fd.Blocks))
	for i, block := range fd.Blocks {
		blocks[i] = v.VisitBlock(block)
	}

	return fmt.Sprintf("%sfunction %s$%s(%s) {\n%s}",
		linkage, retTy, fd.Ident,
		strings.Join(params, ", "),
		strings.Join(blocks, "\n"))
}

func (v *SSAGen) VisitBlock(b *Block) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "@%s\n", b.Label)

	for _, instr := range b.Instructions {
		fmt.Fprintf(&sb, "\t%s\n", instr.Accept(v))
	}

	return sb.String()
}

func (v *SSAGen) VisitDataInit(di DataInit) string {
	switch di.Type {
	case DataInitExt:
		items := make([]string, len(di.Items))

		for i, item := range di.Items {
			items[i] = v.VisitDataItem(item)
		}

		return fmt.Sprintf("%s %s", di.ExtTy, strings.Join(items, " "))
	case DataInitZero:
		return fmt.Sprintf("z %d", di.Size)
	default:
		panic(diag.Internal("unknown data initialization type: %s", di.Type))
	}
}

func (v *SSAGen) VisitDataItem(di DataItem) string {
	switch di.Type {
	case DataItemString:
		return quote(di.StringVal)
	case DataItemConst:
		return v.VisitConst(di.Const)
	default:
		panic(diag.Internal("unknown data item type: %s", di.Type))
	}
}

func (v *SSAGen) VisitConst(c Const) string {
	switch c.Type {
	case ConstInteger:
		return strconv.FormatInt(c.I64, 10)
	case ConstDouble:
		return "d_" + strconv.FormatFloat(c.F64, 'g', -1, 64)
	case ConstIdent:
		return fmt.Sprintf("$%s", c.Ident)
	default:
		panic(diag.Internal("unknown constant type: %s", c.Type))
	}
}

func (v *SSAGen) VisitVal(val *Val) string {
	switch val.Type {
	case ValConst:
		return v.VisitConst(val.Const)
	case ValIdent:
		return fmt.Sprintf("%%%s", val.Ident)
	default:
		panic(diag.Internal("unknown value type: %s", val.Type))
	}
}

func (v *SSAGen) VisitRet(r *Ret) string {
	if r.Val == nil {
		return "ret"
	}

	return fmt.Sprintf("ret %s", v.VisitVal(r.Val))
}

func (v *SSAGen) VisitCall(c *Call) string {
	var lhs string

	if c.LHS != nil {
		lhs = fmt.Sprintf("%s =%s ", v.VisitVal(c.LHS), c.LHS.BaseTy)
	}

	args := make([]string, 0, len(c.Args)+1)

	for i, arg := range c.Args {
		if i == c.Variadic {
			args = append(args, "...")
		}

		args = append(args, fmt.Sprintf("%s %s", arg.BaseTy, v.VisitVal(arg)))
	}

	if c.Variadic == len(c.Args) {
		args = append(args, "...")
	}

	return fmt.Sprintf("%scall %s(%s)", lhs, v.VisitVal(c.Val), strings.Join(args, ", "))
}

func (v *SSAGen) VisitBinop(b *Binop) string {
	return fmt.Sprintf("%s =%s %s %s, %s",
		v.VisitVal(b.Ret), b.Ret.BaseTy, b.Op, v.VisitVal(b.Lhs), v.VisitVal(b.Rhs))
}

func (v *SSAGen) VisitUnop(u *Unop) string {
	return fmt.Sprintf("%s =%s %s %s", v.VisitVal(u.Ret), u.Ret.BaseTy, u.Op, v.VisitVal(u.Val))
}

func (v *SSAGen) VisitJmp(j *Jmp) string {
	return fmt.Sprintf("jmp @%s", j.Label)
}

func (v *SSAGen) VisitJnz(j *Jnz) string {
	return fmt.Sprintf("jnz %s, @%s, @%s", v.VisitVal(j.Cond), j.True, j.False)
}

func (v *SSAGen) VisitLoad(l *Load) string {
	return fmt.Sprintf("%s =%s load%s %s", v.VisitVal(l.Ret), l.Ret.BaseTy, l.Ret.BaseTy, v.VisitVal(l.Addr))
}

func (v *SSAGen) VisitStore(s *Store) string {
	return fmt.Sprintf("store%s %s, %s", s.Val.BaseTy, v.VisitVal(s.Val), v.VisitVal(s.Addr))
}

func (v *SSAGen) VisitAlloc(a *Alloc) string {
	return fmt.Sprintf("%s =l alloc8 %d", v.VisitVal(a.Ret), a.Size)
}

// quote renders s as a QBE string literal. Bytes outside printable ASCII
// are written as octal escapes, which the assembler understands.
func quote(s string) string {
	var sb strings.Builder

	sb.WriteByte('"')

	for i := range len(s) {
		c := s[i]

		switch {
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, `\%03o`, c)
		default:
			sb.WriteByte(c)
		}
	}

	sb.WriteByte('"')

	return sb.String()
}
