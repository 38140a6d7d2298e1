package analyzer

import (
	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/diag"
	"github.com/corani/exprc/internal/types"
)

// Result describes one checking run.
type Result struct {
	Errors int    // errors reported by this run
	Scope  *Scope // final root scope
}

// Checker implements ast.Visitor. It resolves names, annotates expressions
// and declarations with their types, and reports every semantic error to
// its sink without stopping.
type Checker struct {
	env    *Environment
	sink   diag.Sink
	errors int
}

func NewChecker(sink diag.Sink) *Checker {
	return &Checker{
		sink: sink,
	}
}

// Check runs the checker over prog. Unknown node kinds panic with a
// *diag.InternalError.
func Check(prog *ast.Program, sink diag.Sink) Result {
	c := NewChecker(sink)

	prog.Accept(c)

	return Result{
		Errors: c.errors,
		Scope:  c.env.Root(),
	}
}

func (c *Checker) errorf(node ast.Node, format string, args ...any) {
	c.errors++
	c.sink.Reportf(node.Location(), format, args...)
}

func (c *Checker) visit(node ast.Node) {
	if node != nil {
		node.Accept(c)
	}
}

func typeOf(e ast.Expression) *types.Type {
	if e == nil {
		return nil
	}

	return e.Info().CheckType
}

// enclosingFunc returns the function whose body is being checked.
func (c *Checker) enclosingFunc() *ast.FuncDecl {
	fn, _ := c.env.Current().Owner.(*ast.FuncDecl)
	return fn
}

func (c *Checker) requireFunction(node ast.Node, what string) {
	if c.enclosingFunc() == nil {
		c.errorf(node, "%s outside of function body", what)
	}
}

// declare reports a redefinition if name is already visible, otherwise adds
// decl to the innermost scope.
func (c *Checker) declare(name string, decl ast.Decl) {
	if _, ok := c.env.Lookup(name); ok {
		c.errorf(decl, "attempted to redefine '%s'", name)
		return
	}

	c.env.AddLocal(name, decl)
	decl.Decl().ScopeLevel = c.env.ScopeLevel()
}

func (c *Checker) VisitProgram(p *ast.Program) {
	c.env = NewEnvironment(p)

	c.visit(p.Body)

	p.Scope = c.env.Root()
}

func (c *Checker) VisitStatements(s *ast.Statements) {
	for _, stmt := range s.List {
		if call, ok := stmt.(*ast.Call); ok {
			c.checkCall(call, false)
			continue
		}

		c.visit(stmt)
	}
}

func (c *Checker) VisitConstDecl(d *ast.ConstDecl) {
	c.visit(d.Value)
	d.CheckType = typeOf(d.Value)

	c.declare(d.Name, d)
}

func (c *Checker) VisitVarDecl(d *ast.VarDecl) {
	c.visit(d.Typename)
	d.CheckType = d.Typename.Type

	if d.Value == nil && d.CheckType != nil {
		d.Value = ast.NewLiteral(d.CheckType.Default, d.Loc)
	}

	c.visit(d.Value)

	if vt := typeOf(d.Value); vt != nil && d.CheckType != nil && vt != d.CheckType {
		c.errorf(d.Value, "cannot assign %s to %s", vt, d.CheckType)
	}

	c.declare(d.Name, d)
}

func (c *Checker) VisitFuncDecl(d *ast.FuncDecl) {
	if c.env.ScopeLevel() > ast.GlobalLevel {
		c.errorf(d, "nested function declarations are not supported")
		return
	}

	if d.Result != nil {
		c.visit(d.Result)
		d.CheckType = d.Result.Type
	}

	// The function is visible inside its own body, so it can recurse.
	c.declare(d.Name, d)

	c.env.WithScope(d, func() {
		for _, p := range d.Params {
			c.visit(p)
		}

		c.visit(d.Body)
	})
}

func (c *Checker) VisitParamDecl(d *ast.ParamDecl) {
	c.visit(d.Typename)
	d.CheckType = d.Typename.Type

	c.declare(d.Name, d)
}

func (c *Checker) VisitAssign(a *ast.Assign) {
	c.requireFunction(a, "assignment")

	c.visit(a.Target)
	c.visit(a.Value)

	switch decl := a.Target.Decl.(type) {
	case nil:
		return
	case *ast.ConstDecl:
		c.errorf(a.Target, "cannot assign to constant '%s'", a.Target.Name)
		return
	case *ast.VarDecl, *ast.ParamDecl:
	default:
		c.errorf(a.Target, "cannot assign to %s '%s'", kindOf(decl), a.Target.Name)
		return
	}

	tt, vt := a.Target.CheckType, typeOf(a.Value)
	if tt != nil && vt != nil && tt != vt {
		c.errorf(a.Value, "cannot assign %s to %s", vt, tt)
	}
}

func (c *Checker) VisitIf(i *ast.If) {
	c.requireFunction(i, "if statement")

	c.visit(i.Cond)
	c.checkCondition(i.Cond, "if")

	c.visit(i.Then)

	if i.Else != nil {
		c.visit(i.Else)
	}
}

func (c *Checker) VisitWhile(w *ast.While) {
	c.requireFunction(w, "while statement")

	c.visit(w.Cond)
	c.checkCondition(w.Cond, "while")

	c.visit(w.Body)
}

func (c *Checker) checkCondition(cond ast.Expression, what string) {
	if ct := typeOf(cond); ct != nil && ct != types.Bool {
		c.errorf(cond, "%s condition must be bool, got %s", what, ct)
	}
}

func (c *Checker) VisitReturn(r *ast.Return) {
	fn := c.enclosingFunc()
	if fn == nil {
		c.errorf(r, "return outside of function body")
		c.visit(r.Value)

		return
	}

	r.Func = fn

	c.visit(r.Value)

	switch {
	case r.Value == nil && fn.Result != nil:
		c.errorf(r, "missing return value in '%s'", fn.Name)
	case r.Value != nil && fn.Result == nil:
		c.errorf(r.Value, "function '%s' has no result, cannot return a value", fn.Name)
	case r.Value != nil:
		if vt := typeOf(r.Value); vt != nil && fn.CheckType != nil && vt != fn.CheckType {
			c.errorf(r.Value, "cannot return %s from '%s', want %s", vt, fn.Name, fn.CheckType)
		}
	}
}

func (c *Checker) VisitPrint(p *ast.Print) {
	c.visit(p.Value)
}

// VisitCall handles a call used as a value; calls in statement position are
// routed to checkCall by VisitStatements.
func (c *Checker) VisitCall(call *ast.Call) {
	c.checkCall(call, true)
}

func (c *Checker) checkCall(call *ast.Call, asValue bool) {
	c.requireFunction(call, "function call")

	for _, arg := range call.Args {
		c.visit(arg)
	}

	decl, ok := c.env.Lookup(call.Name)
	if !ok {
		c.errorf(call, "function '%s' not defined", call.Name)
		return
	}

	fn, ok := decl.(*ast.FuncDecl)
	if !ok {
		c.errorf(call, "'%s' is not a function", call.Name)
		return
	}

	call.Func = fn
	call.CheckType = fn.CheckType

	if asValue && fn.Result == nil {
		c.errorf(call, "function '%s' does not return a value", fn.Name)
	}

	if len(call.Args) != len(fn.Params) {
		c.errorf(call, "function '%s' expects %d arguments, got %d", fn.Name, len(fn.Params), len(call.Args))
	}

	for i := range min(len(call.Args), len(fn.Params)) {
		at, pt := typeOf(call.Args[i]), fn.Params[i].CheckType
		if at != nil && pt != nil && at != pt {
			c.errorf(call.Args[i], "argument %d of '%s': cannot use %s as %s", i+1, fn.Name, at, pt)
		}
	}
}

func (c *Checker) VisitUnary(u *ast.Unary) {
	c.visit(u.Operand)

	ot := typeOf(u.Operand)
	u.CheckType = ot

	if ot != nil && !ot.SupportsUnary(u.Op) {
		c.errorf(u, "unsupported operator '%s' for type %s", u.Op, ot)
	}
}

func (c *Checker) VisitBinary(b *ast.Binary) {
	c.visit(b.Left)
	c.visit(b.Right)

	lt, rt := typeOf(b.Left), typeOf(b.Right)

	// The left type is propagated even on error so later checks see a type.
	b.CheckType = lt

	c.checkOperands(b, b.Op, lt, rt, (*types.Type).SupportsBinary)
}

func (c *Checker) VisitRelational(r *ast.Relational) {
	c.visit(r.Left)
	c.visit(r.Right)

	r.CheckType = types.Bool

	c.checkOperands(r, r.Op, typeOf(r.Left), typeOf(r.Right), (*types.Type).SupportsRel)
}

func (c *Checker) checkOperands(node ast.Node, op string, lt, rt *types.Type, supports func(*types.Type, string) bool) {
	if lt == nil || rt == nil {
		return
	}

	if lt == rt {
		if !supports(lt, op) {
			c.errorf(node, "unsupported operator '%s' for type %s", op, lt)
		}

		return
	}

	c.errorf(node, "mismatched types %s %s %s", lt, op, rt)

	if !supports(lt, op) {
		c.errorf(node, "left operand of '%s' has unsupported type %s", op, lt)
	}

	if !supports(rt, op) {
		c.errorf(node, "right operand of '%s' has unsupported type %s", op, rt)
	}
}

func (c *Checker) VisitLiteral(l *ast.Literal) {
	t, ok := types.Of(l.Value)
	if !ok {
		panic(diag.Internal("unsupported literal kind %T at %v", l.Value, l.Loc))
	}

	l.CheckType = t
}

// VisitLoad resolves an identifier used as a value.
func (c *Checker) VisitLoad(l *ast.Load) {
	loc := l.Target

	decl, ok := c.env.Lookup(loc.Name)
	if !ok {
		c.errorf(loc, "name '%s' not found", loc.Name)
		return
	}

	switch decl.(type) {
	case *ast.ConstDecl, *ast.VarDecl, *ast.ParamDecl:
	default:
		c.errorf(loc, "%s '%s' used as a value", kindOf(decl), loc.Name)
		return
	}

	loc.Decl = decl
	loc.CheckType = decl.Decl().CheckType
	l.CheckType = loc.CheckType
}

// VisitLocation resolves an assignment target.
func (c *Checker) VisitLocation(l *ast.Location) {
	decl, ok := c.env.Lookup(l.Name)
	if !ok {
		c.errorf(l, "name '%s' not defined", l.Name)
		return
	}

	l.Decl = decl
	l.CheckType = decl.Decl().CheckType
}

func (c *Checker) VisitTypename(t *ast.Typename) {
	decl, ok := c.env.Lookup(t.Name)
	if td, isType := decl.(*ast.TypeDecl); ok && isType {
		t.Type = td.Type
		return
	}

	c.errorf(t, "'%s' is not a valid type", t.Name)
}

func kindOf(decl ast.Decl) string {
	switch decl.(type) {
	case *ast.TypeDecl:
		return "type"
	case *ast.FuncDecl:
		return "function"
	case *ast.ConstDecl:
		return "constant"
	case *ast.ParamDecl:
		return "parameter"
	case *ast.VarDecl:
		return "variable"
	default:
		panic(diag.Internal("unknown declaration kind %T", decl))
	}
}
