package ast

import (
	"github.com/corani/exprc/internal/ir"
	"github.com/corani/exprc/internal/lexer"
	"github.com/corani/exprc/internal/types"
)

// Visitor interface for double-dispatch on AST nodes.
type Visitor interface {
	VisitProgram(*Program)
	VisitStatements(*Statements)
	VisitConstDecl(*ConstDecl)
	VisitVarDecl(*VarDecl)
	VisitFuncDecl(*FuncDecl)
	VisitParamDecl(*ParamDecl)
	VisitAssign(*Assign)
	VisitIf(*If)
	VisitWhile(*While)
	VisitReturn(*Return)
	VisitPrint(*Print)
	VisitCall(*Call)
	VisitUnary(*Unary)
	VisitBinary(*Binary)
	VisitRelational(*Relational)
	VisitLiteral(*Literal)
	VisitLoad(*Load)
	VisitLocation(*Location)
	VisitTypename(*Typename)
}

type Node interface {
	Location() lexer.Location
	Accept(v Visitor)
	String() string
}

type Statement interface {
	Node
	isStatement()
}

type Expression interface {
	Node
	Info() *ExprInfo
	isExpression()
}

// Decl is anything a name can resolve to.
type Decl interface {
	Node
	DeclName() string
	Decl() *DeclInfo
}

// SymbolTable resolves names after checking.
type SymbolTable interface {
	Lookup(name string) (Decl, bool)
}

// ExprInfo holds what the passes learn about an expression: its checked type
// (nil if it could not be determined) and the temporary holding its value.
type ExprInfo struct {
	CheckType   *types.Type
	GenLocation string
}

func (e *ExprInfo) Info() *ExprInfo { return e }

// DeclInfo holds the checked type of a declaration and the depth of the
// scope it was added to (1 is global).
type DeclInfo struct {
	CheckType  *types.Type
	ScopeLevel int
}

func (d *DeclInfo) Decl() *DeclInfo { return d }

const GlobalLevel = 1

var (
	_ []Statement = []Statement{
		(*ConstDecl)(nil),
		(*VarDecl)(nil),
		(*FuncDecl)(nil),
		(*Assign)(nil),
		(*If)(nil),
		(*While)(nil),
		(*Return)(nil),
		(*Print)(nil),
		(*Call)(nil),
	}

	_ []Expression = []Expression{
		(*Call)(nil),
		(*Unary)(nil),
		(*Binary)(nil),
		(*Relational)(nil),
		(*Literal)(nil),
		(*Load)(nil),
	}

	_ []Decl = []Decl{
		(*ConstDecl)(nil),
		(*VarDecl)(nil),
		(*FuncDecl)(nil),
		(*ParamDecl)(nil),
		(*TypeDecl)(nil),
	}
)

type Program struct {
	Body  *Statements
	Scope SymbolTable // root scope, set by the checker
	Code  *ir.Program // set by the code generator
	Loc   lexer.Location
}

func NewProgram(body *Statements, location lexer.Location) *Program {
	return &Program{
		Body: body,
		Loc:  location,
	}
}

func (p *Program) Location() lexer.Location { return p.Loc }
func (p *Program) Accept(v Visitor)         { v.VisitProgram(p) }

type Statements struct {
	List []Statement
	Loc  lexer.Location
}

func NewStatements(list []Statement, location lexer.Location) *Statements {
	return &Statements{
		List: list,
		Loc:  location,
	}
}

func (s *Statements) Location() lexer.Location { return s.Loc }
func (s *Statements) Accept(v Visitor)         { v.VisitStatements(s) }

type ConstDecl struct {
	Name  string
	Value Expression
	DeclInfo
	Loc lexer.Location
}

func NewConstDecl(name string, value Expression, location lexer.Location) *ConstDecl {
	return &ConstDecl{
		Name:  name,
		Value: value,
		Loc:   location,
	}
}

func (d *ConstDecl) Location() lexer.Location { return d.Loc }
func (d *ConstDecl) Accept(v Visitor)         { v.VisitConstDecl(d) }
func (d *ConstDecl) DeclName() string         { return d.Name }
func (*ConstDecl) isStatement()               {}

type VarDecl struct {
	Name     string
	Typename *Typename
	Value    Expression // nil until the checker supplies the default
	DeclInfo
	Loc lexer.Location
}

func NewVarDecl(name string, typename *Typename, value Expression, location lexer.Location) *VarDecl {
	return &VarDecl{
		Name:     name,
		Typename: typename,
		Value:    value,
		Loc:      location,
	}
}

func (d *VarDecl) Location() lexer.Location { return d.Loc }
func (d *VarDecl) Accept(v Visitor)         { v.VisitVarDecl(d) }
func (d *VarDecl) DeclName() string         { return d.Name }
func (*VarDecl) isStatement()               {}

type FuncDecl struct {
	Name   string
	Params []*ParamDecl
	Result *Typename // nil when the function returns nothing
	Body   *Statements
	DeclInfo
	Code *ir.Function // set by the code generator
	Loc  lexer.Location
}

func NewFuncDecl(name string, params []*ParamDecl, result *Typename, body *Statements, location lexer.Location) *FuncDecl {
	return &FuncDecl{
		Name:   name,
		Params: params,
		Result: result,
		Body:   body,
		Loc:    location,
	}
}

func (d *FuncDecl) Location() lexer.Location { return d.Loc }
func (d *FuncDecl) Accept(v Visitor)         { v.VisitFuncDecl(d) }
func (d *FuncDecl) DeclName() string         { return d.Name }
func (*FuncDecl) isStatement()               {}

type ParamDecl struct {
	Name     string
	Typename *Typename
	DeclInfo
	Loc lexer.Location
}

func NewParamDecl(name string, typename *Typename, location lexer.Location) *ParamDecl {
	return &ParamDecl{
		Name:     name,
		Typename: typename,
		Loc:      location,
	}
}

func (d *ParamDecl) Location() lexer.Location { return d.Loc }
func (d *ParamDecl) Accept(v Visitor)         { v.VisitParamDecl(d) }
func (d *ParamDecl) DeclName() string         { return d.Name }

// TypeDecl registers a builtin type in the root scope. It never appears in
// the tree, so visitors never see it.
type TypeDecl struct {
	Type *types.Type
	DeclInfo
}

func NewTypeDecl(ty *types.Type) *TypeDecl {
	return &TypeDecl{
		Type:     ty,
		DeclInfo: DeclInfo{CheckType: ty, ScopeLevel: GlobalLevel},
	}
}

func (d *TypeDecl) Location() lexer.Location { return lexer.Location{} }
func (d *TypeDecl) Accept(Visitor)           {}
func (d *TypeDecl) DeclName() string         { return d.Type.Name }

type Assign struct {
	Target *Location
	Value  Expression
	Loc    lexer.Location
}

func NewAssign(target *Location, value Expression, location lexer.Location) *Assign {
	return &Assign{
		Target: target,
		Value:  value,
		Loc:    location,
	}
}

func (a *Assign) Location() lexer.Location { return a.Loc }
func (a *Assign) Accept(v Visitor)         { v.VisitAssign(a) }
func (*Assign) isStatement()               {}

type If struct {
	Cond Expression
	Then *Statements
	Else *Statements // optional
	Loc  lexer.Location
}

func NewIf(cond Expression, then, els *Statements, location lexer.Location) *If {
	return &If{
		Cond: cond,
		Then: then,
		Else: els,
		Loc:  location,
	}
}

func (i *If) Location() lexer.Location { return i.Loc }
func (i *If) Accept(v Visitor)         { v.VisitIf(i) }
func (*If) isStatement()               {}

type While struct {
	Cond Expression
	Body *Statements
	Loc  lexer.Location
}

func NewWhile(cond Expression, body *Statements, location lexer.Location) *While {
	return &While{
		Cond: cond,
		Body: body,
		Loc:  location,
	}
}

func (w *While) Location() lexer.Location { return w.Loc }
func (w *While) Accept(v Visitor)         { v.VisitWhile(w) }
func (*While) isStatement()               {}

type Return struct {
	Value Expression // optional
	Func  *FuncDecl  // enclosing function, set by the checker
	Loc   lexer.Location
}

func NewReturn(value Expression, location lexer.Location) *Return {
	return &Return{
		Value: value,
		Loc:   location,
	}
}

func (r *Return) Location() lexer.Location { return r.Loc }
func (r *Return) Accept(v Visitor)         { v.VisitReturn(r) }
func (*Return) isStatement()               {}

type Print struct {
	Value Expression
	Loc   lexer.Location
}

func NewPrint(value Expression, location lexer.Location) *Print {
	return &Print{
		Value: value,
		Loc:   location,
	}
}

func (p *Print) Location() lexer.Location { return p.Loc }
func (p *Print) Accept(v Visitor)         { v.VisitPrint(p) }
func (*Print) isStatement()               {}

// Call is both a statement and an expression.
type Call struct {
	Name string
	Args []Expression
	Func *FuncDecl // resolved callee, set by the checker
	ExprInfo
	Loc lexer.Location
}

func NewCall(name string, args []Expression, location lexer.Location) *Call {
	return &Call{
		Name: name,
		Args: args,
		Loc:  location,
	}
}

func (c *Call) Location() lexer.Location { return c.Loc }
func (c *Call) Accept(v Visitor)         { v.VisitCall(c) }
func (*Call) isStatement()               {}
func (*Call) isExpression()              {}

type Unary struct {
	Op      string
	Operand Expression
	ExprInfo
	Loc lexer.Location
}

func NewUnary(op string, operand Expression, location lexer.Location) *Unary {
	return &Unary{
		Op:      op,
		Operand: operand,
		Loc:     location,
	}
}

func (u *Unary) Location() lexer.Location { return u.Loc }
func (u *Unary) Accept(v Visitor)         { v.VisitUnary(u) }
func (*Unary) isExpression()              {}

// Binary is an arithmetic operator: + - * /.
type Binary struct {
	Op          string
	Left, Right Expression
	ExprInfo
	Loc lexer.Location
}

func NewBinary(op string, left, right Expression, location lexer.Location) *Binary {
	return &Binary{
		Op:    op,
		Left:  left,
		Right: right,
		Loc:   location,
	}
}

func (b *Binary) Location() lexer.Location { return b.Loc }
func (b *Binary) Accept(v Visitor)         { v.VisitBinary(b) }
func (*Binary) isExpression()              {}

// Relational is a comparison or logical operator; its value is a bool.
type Relational struct {
	Op          string
	Left, Right Expression
	ExprInfo
	Loc lexer.Location
}

func NewRelational(op string, left, right Expression, location lexer.Location) *Relational {
	return &Relational{
		Op:    op,
		Left:  left,
		Right: right,
		Loc:   location,
	}
}

func (r *Relational) Location() lexer.Location { return r.Loc }
func (r *Relational) Accept(v Visitor)         { v.VisitRelational(r) }
func (*Relational) isExpression()              {}

// Literal holds an int64, float64, string or bool.
type Literal struct {
	Value any
	ExprInfo
	Loc lexer.Location
}

func NewLiteral(value any, location lexer.Location) *Literal {
	return &Literal{
		Value: value,
		Loc:   location,
	}
}

func (l *Literal) Location() lexer.Location { return l.Loc }
func (l *Literal) Accept(v Visitor)         { v.VisitLiteral(l) }
func (*Literal) isExpression()              {}

// Load reads the value stored at a location.
type Load struct {
	Target *Location
	ExprInfo
	Loc lexer.Location
}

func NewLoad(target *Location, location lexer.Location) *Load {
	return &Load{
		Target: target,
		Loc:    location,
	}
}

func (l *Load) Location() lexer.Location { return l.Loc }
func (l *Load) Accept(v Visitor)         { v.VisitLoad(l) }
func (*Load) isExpression()              {}

// Location names a storage location: a variable, constant or parameter.
type Location struct {
	Name string
	Decl Decl // resolved declaration, set by the checker
	ExprInfo
	Loc lexer.Location
}

func NewLocation(name string, location lexer.Location) *Location {
	return &Location{
		Name: name,
		Loc:  location,
	}
}

func (l *Location) Location() lexer.Location { return l.Loc }
func (l *Location) Accept(v Visitor)         { v.VisitLocation(l) }

type Typename struct {
	Name string
	Type *types.Type // set by the checker
	Loc  lexer.Location
}

func NewTypename(name string, location lexer.Location) *Typename {
	return &Typename{
		Name: name,
		Loc:  location,
	}
}

func (t *Typename) Location() lexer.Location { return t.Loc }
func (t *Typename) Accept(v Visitor)         { v.VisitTypename(t) }
