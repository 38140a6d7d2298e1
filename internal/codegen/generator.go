// Package codegen lowers a checked AST into a control flow graph of
// three-address instructions.
package codegen

import (
	"fmt"

	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/diag"
	"github.com/corani/exprc/internal/ir"
	"github.com/corani/exprc/internal/types"
)

// Generator holds the state of one generation run. Temporaries and block
// IDs are numbered per run, across all functions.
type Generator struct {
	temps  int
	blocks int
}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the code of a program that checked without errors. The
// result is also stored on prog.Code, and each function's graph on its
// FuncDecl. Nodes the generator doesn't know panic with a *diag.InternalError.
func Generate(prog *ast.Program) *ir.Program {
	return NewGenerator().Program(prog)
}

func (g *Generator) Program(prog *ast.Program) *ir.Program {
	out := &ir.Program{}

	entry := g.newBlock()
	out.Init = &ir.Function{
		Name:  ir.InitFunc,
		Entry: entry,
	}

	cur := entry

	for _, stmt := range prog.Body.List {
		switch s := stmt.(type) {
		case *ast.FuncDecl:
			out.Funcs = append(out.Funcs, g.Function(s))
			continue
		case *ast.VarDecl:
			out.Globals = append(out.Globals, ir.Variable{Name: s.Name, Type: s.CheckType})
		case *ast.ConstDecl:
			out.Globals = append(out.Globals, ir.Variable{Name: s.Name, Type: s.CheckType})
		}

		cur = g.stmt(cur, stmt)
	}

	prog.Code = out

	return out
}

func (g *Generator) Function(d *ast.FuncDecl) *ir.Function {
	fn := &ir.Function{
		Name:   d.Name,
		Result: d.CheckType,
	}

	for _, p := range d.Params {
		fn.Params = append(fn.Params, ir.Param{Name: p.Name, Type: p.CheckType})
	}

	entry := g.newBlock()
	fn.Entry = entry

	g.stmts(entry, d.Body)

	d.Code = fn

	return fn
}

func (g *Generator) newBlock() *ir.BasicBlock {
	return ir.NewBasicBlock(g.nextID())
}

func (g *Generator) nextID() int {
	id := g.blocks
	g.blocks++

	return id
}

func (g *Generator) temp(t *types.Type) string {
	name := fmt.Sprintf("%s_%d", t.Name, g.temps)
	g.temps++

	return name
}

func scopeOf(level int) ir.Scope {
	if level == ast.GlobalLevel {
		return ir.Global
	}

	return ir.Local
}

// stmts generates s starting in cur and returns the block control leaves
// through.
func (g *Generator) stmts(cur *ir.BasicBlock, s *ast.Statements) *ir.BasicBlock {
	for _, stmt := range s.List {
		cur = g.stmt(cur, stmt)
	}

	return cur
}

func (g *Generator) stmt(cur *ir.BasicBlock, stmt ast.Statement) *ir.BasicBlock {
	switch s := stmt.(type) {
	case *ast.ConstDecl:
		src := g.expr(cur, s.Value)
		cur.Append(&ir.Declare{Scope: scopeOf(s.ScopeLevel), Type: s.CheckType, Src: src, Name: s.Name})
	case *ast.VarDecl:
		src := g.expr(cur, s.Value)
		cur.Append(&ir.Declare{Scope: scopeOf(s.ScopeLevel), Type: s.CheckType, Src: src, Name: s.Name})
	case *ast.Assign:
		src := g.expr(cur, s.Value)
		level := s.Target.Decl.Decl().ScopeLevel
		cur.Append(&ir.Store{Scope: scopeOf(level), Type: s.Target.CheckType, Src: src, Name: s.Target.Name})
	case *ast.Print:
		src := g.expr(cur, s.Value)
		cur.Append(&ir.Print{Type: s.Value.Info().CheckType, Src: src})
	case *ast.Return:
		if s.Value == nil {
			cur.Append(&ir.Return{})
			break
		}

		src := g.expr(cur, s.Value)
		cur.Append(&ir.Return{Type: s.Value.Info().CheckType, Src: src})
	case *ast.Call:
		g.call(cur, s, false)
	case *ast.If:
		return g.ifStmt(cur, s)
	case *ast.While:
		return g.whileStmt(cur, s)
	default:
		panic(diag.Internal("unexpected statement %T at %v", stmt, stmt.Location()))
	}

	return cur
}

// ifStmt links cur to a new IfBlock and returns the join block. The branch
// chains end with a nil Next; control reaches the join through the IfBlock.
func (g *Generator) ifStmt(cur *ir.BasicBlock, s *ast.If) *ir.BasicBlock {
	ifb := ir.NewIfBlock(g.nextID())
	cur.Next = ifb

	ifb.CondVar = g.expr(&ifb.BasicBlock, s.Cond)

	then := g.newBlock()
	ifb.True = then
	g.stmts(then, s.Then)

	if s.Else != nil {
		els := g.newBlock()
		ifb.False = els
		g.stmts(els, s.Else)
	}

	join := g.newBlock()
	ifb.Next = join

	return join
}

// whileStmt links cur to a new WhileBlock, links the end of the body back to
// it, and returns the exit block.
func (g *Generator) whileStmt(cur *ir.BasicBlock, s *ast.While) *ir.BasicBlock {
	loop := ir.NewWhileBlock(g.nextID())
	cur.Next = loop

	loop.CondVar = g.expr(&loop.BasicBlock, s.Cond)

	body := g.newBlock()
	loop.Body = body

	last := g.stmts(body, s.Body)
	last.Next = loop

	exit := g.newBlock()
	loop.Next = exit

	return exit
}

// call emits the call sequence of c. A call used as a value gets a
// destination temporary, which is returned.
func (g *Generator) call(cur *ir.BasicBlock, c *ast.Call, asValue bool) string {
	cur.Append(&ir.NewFrame{})

	for i, arg := range c.Args {
		src := g.expr(cur, arg)
		param := c.Func.Params[i]

		cur.Append(&ir.StoreFrame{Type: param.CheckType, Src: src, Param: param.Name})
	}

	var dst string
	if asValue {
		dst = g.temp(c.CheckType)
	}

	cur.Append(&ir.Call{Func: c.Name, Type: c.CheckType, Dst: dst}, &ir.DelFrame{})

	c.GenLocation = dst

	return dst
}

// expr appends the code for e to cur and returns the temporary holding its
// value.
func (g *Generator) expr(cur *ir.BasicBlock, e ast.Expression) string {
	var dst string

	switch e := e.(type) {
	case *ast.Literal:
		dst = g.temp(e.CheckType)
		cur.Append(&ir.LoadImm{Value: ir.Const{Type: e.CheckType, Value: e.Value}, Dst: dst})
	case *ast.Load:
		dst = g.temp(e.CheckType)
		cur.Append(&ir.Load{Type: e.CheckType, Name: e.Target.Name, Dst: dst})
	case *ast.Unary:
		src := g.expr(cur, e.Operand)
		ot := e.Operand.Info().CheckType
		dst = g.temp(e.CheckType)
		cur.Append(&ir.Unary{Opcode: opcode(ot.UnaryOps, e.Op, ot), Type: ot, Src: src, Dst: dst})
	case *ast.Binary:
		left := g.expr(cur, e.Left)
		right := g.expr(cur, e.Right)
		ot := e.Left.Info().CheckType
		dst = g.temp(e.CheckType)
		cur.Append(&ir.Binary{Opcode: opcode(ot.BinaryOps, e.Op, ot), Type: ot, Left: left, Right: right, Dst: dst})
	case *ast.Relational:
		left := g.expr(cur, e.Left)
		right := g.expr(cur, e.Right)
		ot := e.Left.Info().CheckType
		dst = g.temp(types.Bool)
		cur.Append(&ir.Binary{Opcode: opcode(ot.RelOps, e.Op, ot), Type: ot, Left: left, Right: right, Dst: dst})
	case *ast.Call:
		return g.call(cur, e, true)
	default:
		panic(diag.Internal("unexpected expression %T at %v", e, e.Location()))
	}

	e.Info().GenLocation = dst

	return dst
}

func opcode(table map[string]types.Opcode, op string, t *types.Type) types.Opcode {
	code, ok := table[op]
	if !ok {
		panic(diag.Internal("no opcode for %s %s", t, op))
	}

	return code
}
