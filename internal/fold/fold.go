// Package fold evaluates constant expressions of a checked program at
// compile time.
package fold

import (
	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/diag"
	"github.com/corani/exprc/internal/types"
)

// Program rewrites prog in place and returns the number of rewrites:
//
//   - operator nodes whose operands are all literals become a literal,
//     using the operand type's fold table;
//   - loads of a constant whose initializer is a literal become a copy of
//     that literal;
//   - those constant declarations are dropped.
//
// Operators without a fold, or whose fold refuses the operands (integer
// division by zero), are left alone. prog must have checked without errors.
func Program(prog *ast.Program) int {
	f := &folder{}
	f.stmts(prog.Body)

	return f.folded
}

type folder struct {
	folded int
}

func (f *folder) stmts(s *ast.Statements) {
	if s == nil {
		return
	}

	kept := s.List[:0]

	for _, stmt := range s.List {
		if f.stmt(stmt) {
			kept = append(kept, stmt)
		}
	}

	s.List = kept
}

// stmt folds the expressions of stmt and reports whether it is kept.
func (f *folder) stmt(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.ConstDecl:
		s.Value = f.expr(s.Value)

		if _, ok := s.Value.(*ast.Literal); ok {
			f.folded++
			return false
		}
	case *ast.VarDecl:
		s.Value = f.expr(s.Value)
	case *ast.FuncDecl:
		f.stmts(s.Body)
	case *ast.Assign:
		s.Value = f.expr(s.Value)
	case *ast.Print:
		s.Value = f.expr(s.Value)
	case *ast.Return:
		if s.Value != nil {
			s.Value = f.expr(s.Value)
		}
	case *ast.Call:
		f.args(s)
	case *ast.If:
		s.Cond = f.expr(s.Cond)
		f.stmts(s.Then)
		f.stmts(s.Else)
	case *ast.While:
		s.Cond = f.expr(s.Cond)
		f.stmts(s.Body)
	default:
		panic(diag.Internal("unexpected statement %T at %v", stmt, stmt.Location()))
	}

	return true
}

func (f *folder) args(c *ast.Call) {
	for i, arg := range c.Args {
		c.Args[i] = f.expr(arg)
	}
}

func (f *folder) expr(e ast.Expression) ast.Expression {
	switch e := e.(type) {
	case *ast.Literal:
		return e
	case *ast.Load:
		c, ok := e.Target.Decl.(*ast.ConstDecl)
		if !ok {
			return e
		}

		if lit, ok := c.Value.(*ast.Literal); ok {
			return f.literal(lit.Value, c.CheckType, e)
		}

		return e
	case *ast.Unary:
		e.Operand = f.expr(e.Operand)

		x, ok := e.Operand.(*ast.Literal)
		if !ok {
			return e
		}

		if fn, ok := x.CheckType.UnaryFolds[e.Op]; ok {
			if v, ok := fn(x.Value); ok {
				return f.literal(v, e.CheckType, e)
			}
		}

		return e
	case *ast.Binary:
		e.Left, e.Right = f.expr(e.Left), f.expr(e.Right)

		return f.binary(e, e.Left, e.Right, e.Op, e.CheckType, func(t *types.Type) map[string]types.BinaryFold {
			return t.BinaryFolds
		})
	case *ast.Relational:
		e.Left, e.Right = f.expr(e.Left), f.expr(e.Right)

		return f.binary(e, e.Left, e.Right, e.Op, e.CheckType, func(t *types.Type) map[string]types.BinaryFold {
			return t.RelFolds
		})
	case *ast.Call:
		f.args(e)
		return e
	default:
		panic(diag.Internal("unexpected expression %T at %v", e, e.Location()))
	}
}

func (f *folder) binary(
	e ast.Expression, left, right ast.Expression, op string, result *types.Type,
	table func(*types.Type) map[string]types.BinaryFold,
) ast.Expression {
	x, ok1 := left.(*ast.Literal)
	y, ok2 := right.(*ast.Literal)

	if !ok1 || !ok2 {
		return e
	}

	fn, ok := table(x.CheckType)[op]
	if !ok {
		return e
	}

	v, ok := fn(x.Value, y.Value)
	if !ok {
		return e
	}

	return f.literal(v, result, e)
}

// literal replaces node with a literal of type t at the same location.
func (f *folder) literal(v any, t *types.Type, node ast.Node) *ast.Literal {
	f.folded++

	lit := ast.NewLiteral(v, node.Location())
	lit.CheckType = t

	return lit
}
