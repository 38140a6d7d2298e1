// Package qbe lowers the three-address code of an ir.Program into QBE
// intermediate language and drives libqbe to produce assembly.
package qbe

// Visitor renders the nodes of a compilation unit.
type Visitor interface {
	VisitCompilationUnit(*CompilationUnit) string
	VisitDataDef(*DataDef) string
	VisitFuncDef(*FuncDef) string
	VisitRet(*Ret) string
	VisitCall(*Call) string
	VisitBinop(*Binop) string
	VisitUnop(*Unop) string
	VisitJmp(*Jmp) string
	VisitJnz(*Jnz) string
	VisitLoad(*Load) string
	VisitStore(*Store) string
	VisitAlloc(*Alloc) string
}

type CompilationUnit struct {
	Source   string
	DataDefs []DataDef
	FuncDefs []FuncDef
}

func (cu *CompilationUnit) Accept(visitor Visitor) string {
	return visitor.VisitCompilationUnit(cu)
}

func NewCompilationUnit(source string) *CompilationUnit {
	return &CompilationUnit{Source: source}
}

func (cu *CompilationUnit) WithDataDefs(dataDefs ...DataDef) *CompilationUnit {
	cu.DataDefs = append(cu.DataDefs, dataDefs...)

	return cu
}

func (cu *CompilationUnit) WithFuncDefs(funcDefs ...FuncDef) *CompilationUnit {
	cu.FuncDefs = append(cu.FuncDefs, funcDefs...)

	return cu
}

type (
	Ident  string
	BaseTy string
)

const (
	BaseWord   BaseTy = "w"
	BaseLong   BaseTy = "l"
	BaseSingle BaseTy = "s"
	BaseDouble BaseTy = "d"
)

type ExtTy string

const (
	ExtByte   = ExtTy("b")
	ExtHalf   = ExtTy("h")
	ExtWord   = ExtTy(BaseWord)
	ExtLong   = ExtTy(BaseLong)
	ExtSingle = ExtTy(BaseSingle)
	ExtDouble = ExtTy(BaseDouble)
)

type Const struct {
	Type  ConstType
	F64   float64
	I64   int64
	Ident Ident
}

func NewConstInteger(i int64) Const {
	return Const{Type: ConstInteger, I64: i}
}

func NewConstDouble(f float64) Const {
	return Const{Type: ConstDouble, F64: f}
}

func NewConstIdent(ident Ident) Const {
	return Const{Type: ConstIdent, Ident: ident}
}

type ConstType string

const (
	ConstInteger ConstType = "integer"
	ConstDouble  ConstType = "double"
	ConstIdent   ConstType = "ident"
)

type ValType string

const (
	ValConst ValType = "const"
	ValIdent ValType = "ident"
)

// Val is an operand: a constant, a global symbol or a temporary.
type Val struct {
	Type   ValType
	Const  Const
	Ident  Ident
	BaseTy BaseTy
}

func NewValConst(c Const, baseTy BaseTy) *Val {
	return &Val{Type: ValConst, Const: c, BaseTy: baseTy}
}

func NewValGlobal(ident Ident) *Val {
	v := NewValConst(NewConstIdent(ident), BaseLong)
	v.Ident = ident

	return v
}

func NewValInteger(i int64, baseTy BaseTy) *Val {
	return NewValConst(NewConstInteger(i), baseTy)
}

func NewValDouble(f float64) *Val {
	return NewValConst(NewConstDouble(f), BaseDouble)
}

func NewValIdent(ident Ident, baseTy BaseTy) *Val {
	return &Val{Type: ValIdent, Ident: ident, BaseTy: baseTy}
}

type Linkage string

const LinkageExport Linkage = "export"

type DataDef struct {
	Linkage     Linkage
	Ident       Ident
	Align       int
	Initializer []DataInit
}

func (dd *DataDef) Accept(visitor Visitor) string {
	return visitor.VisitDataDef(dd)
}

func NewDataDef(ident Ident, initializer ...DataInit) DataDef {
	return DataDef{Ident: ident, Initializer: initializer}
}

func NewDataDefStringZ(ident Ident, val string) DataDef {
	return NewDataDef(ident,
		NewDataInitString(val),
		NewDataInitExt(ExtByte, NewDataItemInteger(0)),
	)
}

func (dd DataDef) WithAlign(align int) DataDef {
	dd.Align = align

	return dd
}

type DataInit struct {
	Type  DataInitType
	ExtTy ExtTy
	Items []DataItem
	Size  int
}

func NewDataInitExt(extTy ExtTy, items ...DataItem) DataInit {
	return DataInit{Type: DataInitExt, ExtTy: extTy, Items: items}
}

func NewDataInitString(val string) DataInit {
	return DataInit{
		Type:  DataInitExt,
		ExtTy: ExtByte,
		Items: []DataItem{NewDataItemString(val)},
	}
}

func NewDataInitZero(size int) DataInit {
	return DataInit{Type: DataInitZero, Size: size}
}

type DataInitType string

const (
	DataInitExt  DataInitType = "ext"
	DataInitZero DataInitType = "zero"
)

type DataItem struct {
	Type      DataItemType
	StringVal string
	Const     Const
}

func NewDataItemConst(c Const) DataItem {
	return DataItem{Type: DataItemConst, Const: c}
}

func NewDataItemString(val string) DataItem {
	return DataItem{Type: DataItemString, StringVal: val}
}

func NewDataItemInteger(i int64) DataItem {
	return NewDataItemConst(NewConstInteger(i))
}

type DataItemType string

const (
	DataItemString DataItemType = "string"
	DataItemConst  DataItemType = "const"
)

type FuncDef struct {
	Linkage Linkage
	RetTy   BaseTy // empty for no result
	Ident   Ident
	Params  []*Param
	Blocks  []*Block
}

func NewFuncDef(ident Ident, params ...*Param) FuncDef {
	return FuncDef{Ident: ident, Params: params}
}

func (fd *FuncDef) Accept(visitor Visitor) string {
	return visitor.VisitFuncDef(fd)
}

func (fd FuncDef) WithLinkage(linkage Linkage) FuncDef {
	fd.Linkage = linkage
	return fd
}

func (fd FuncDef) WithRetTy(retTy BaseTy) FuncDef {
	fd.RetTy = retTy
	return fd
}

func (fd FuncDef) WithBlocks(blocks ...*Block) FuncDef {
	fd.Blocks = append(fd.Blocks, blocks...)
	return fd
}

type Param struct {
	BaseTy BaseTy
	Ident  Ident
}

func NewParam(baseTy BaseTy, ident Ident) *Param {
	return &Param{BaseTy: baseTy, Ident: ident}
}

type Block struct {
	Label        string
	Instructions []Instruction
}

func NewBlock(label string, instructions ...Instruction) *Block {
	return &Block{
		Label:        label,
		Instructions: instructions,
	}
}

// Terminated reports whether the block already ends with a jump.
func (b *Block) Terminated() bool {
	if len(b.Instructions) == 0 {
		return false
	}

	switch b.Instructions[len(b.Instructions)-1].(type) {
	case *Ret, *Jmp, *Jnz:
		return true
	default:
		return false
	}
}

type Instruction interface {
	isInstruction()
	Accept(visitor Visitor) string
}

var _ = []Instruction{
	(*Ret)(nil),
	(*Call)(nil),
	(*Binop)(nil),
	(*Unop)(nil),
	(*Jmp)(nil),
	(*Jnz)(nil),
	(*Load)(nil),
	(*Store)(nil),
	(*Alloc)(nil),
}

type Ret struct {
	Val *Val
}

func NewRet(val ...*Val) *Ret {
	if len(val) > 1 {
		panic("NewRet accepts at most one value")
	}

	if len(val) == 0 {
		return &Ret{}
	}

	return &Ret{Val: val[0]}
}

func (*Ret) isInstruction() {}

func (r *Ret) Accept(visitor Visitor) string {
	return visitor.VisitRet(r)
}

// Call calls Val. Variadic is the index of the first variadic argument, or
// -1.
type Call struct {
	LHS      *Val
	Val      *Val
	Args     []*Val
	Variadic int
}

func NewCall(val *Val, args ...*Val) *Call {
	return &Call{Val: val, Args: args, Variadic: -1}
}

func (c *Call) WithRet(lhs *Val) *Call {
	c.LHS = lhs

	return c
}

// WithVariadic marks the arguments from index i on as variadic.
func (c *Call) WithVariadic(i int) *Call {
	c.Variadic = i

	return c
}

func (*Call) isInstruction() {}

func (c *Call) Accept(visitor Visitor) string {
	return visitor.VisitCall(c)
}

// BinOpKind is a QBE arithmetic or comparison operation. Comparisons are
// spelled out with their operand type, e.g. "csltl".
type BinOpKind string

const (
	BinOpAdd BinOpKind = "add"
	BinOpSub BinOpKind = "sub"
	BinOpMul BinOpKind = "mul"
	BinOpDiv BinOpKind = "div"
	BinOpAnd BinOpKind = "and"
	BinOpOr  BinOpKind = "or"
	BinOpXor BinOpKind = "xor"
)

// Binop computes Ret = Lhs op Rhs; the result type is Ret's.
type Binop struct {
	Op       BinOpKind
	Lhs, Rhs *Val
	Ret      *Val
}

func NewBinop(op BinOpKind, ret, lhs, rhs *Val) *Binop {
	return &Binop{Op: op, Lhs: lhs, Rhs: rhs, Ret: ret}
}

func (*Binop) isInstruction() {}

func (b *Binop) Accept(visitor Visitor) string {
	return visitor.VisitBinop(b)
}

type UnOpKind string

const (
	UnOpCopy  UnOpKind = "copy"
	UnOpNeg   UnOpKind = "neg"
	UnOpExtUW UnOpKind = "extuw"
)

type Unop struct {
	Op  UnOpKind
	Ret *Val
	Val *Val
}

func NewUnop(op UnOpKind, ret, val *Val) *Unop {
	return &Unop{Op: op, Ret: ret, Val: val}
}

func (*Unop) isInstruction() {}

func (u *Unop) Accept(visitor Visitor) string {
	return visitor.VisitUnop(u)
}

type Jmp struct {
	Label string
}

func NewJmp(label string) *Jmp {
	return &Jmp{Label: label}
}

func (*Jmp) isInstruction() {}

func (j *Jmp) Accept(visitor Visitor) string {
	return visitor.VisitJmp(j)
}

type Jnz struct {
	Cond  *Val
	True  string
	False string
}

func NewJnz(cond *Val, trueLabel, falseLabel string) *Jnz {
	return &Jnz{Cond: cond, True: trueLabel, False: falseLabel}
}

func (*Jnz) isInstruction() {}

func (j *Jnz) Accept(visitor Visitor) string {
	return visitor.VisitJnz(j)
}

// Load reads a value of Ret's type from Addr.
type Load struct {
	Ret  *Val
	Addr *Val
}

func NewLoad(ret, addr *Val) *Load {
	return &Load{Ret: ret, Addr: addr}
}

func (*Load) isInstruction() {}

func (l *Load) Accept(visitor Visitor) string {
	return visitor.VisitLoad(l)
}

// Store writes a value of Val's type to Addr.
type Store struct {
	Addr *Val
	Val  *Val
}

func NewStore(addr, val *Val) *Store {
	return &Store{Addr: addr, Val: val}
}

func (*Store) isInstruction() {}

func (s *Store) Accept(visitor Visitor) string {
	return visitor.VisitStore(s)
}

// Alloc reserves Size bytes of 8 byte aligned stack.
type Alloc struct {
	Ret  *Val
	Size int
}

func NewAlloc(ret *Val, size int) *Alloc {
	return &Alloc{Ret: ret, Size: size}
}

func (*Alloc) isInstruction() {}

func (a *Alloc) Accept(visitor Visitor) string {
	return visitor.VisitAlloc(a)
}
