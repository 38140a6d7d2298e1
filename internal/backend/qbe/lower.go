package qbe

import (
	"fmt"

	"github.com/corani/exprc/internal/diag"
	"github.com/corani/exprc/internal/ir"
	"github.com/corani/exprc/internal/types"
)

// Symbols of the lowered program. Source names are prefixed so they can't
// collide with each other or with libc.
const (
	InitSymbol = "exprc_init"
	funcPrefix = "fn_"
	globPrefix = "glob_"
)

func funcSymbol(name string) Ident {
	return Ident(funcPrefix + name)
}

func baseTy(t *types.Type) BaseTy {
	switch t {
	case types.Int, types.String:
		return BaseLong
	case types.Float:
		return BaseDouble
	case types.Bool:
		return BaseWord
	default:
		panic(diag.Internal("no QBE type for %v", t))
	}
}

// Lower translates p into a QBE compilation unit. The unit exports a main
// that runs the global code, then the program's main function if it has
// one without parameters.
func Lower(p *ir.Program, source string) *CompilationUnit {
	l := &lowerer{
		prog: p,
		strs: newStringPool(),
	}

	unit := NewCompilationUnit(source)

	if p.Init != nil {
		unit.WithFuncDefs(l.function(p.Init))
	}

	for _, fn := range p.Funcs {
		unit.WithFuncDefs(l.function(fn))
	}

	unit.WithFuncDefs(l.main())

	for _, g := range p.Globals {
		unit.WithDataDefs(globalDef(Ident(globPrefix + g.Name)))
	}

	unit.WithDataDefs(l.strs.defs...)

	if l.usesBools {
		unit.WithDataDefs(boolNamesDef())
	}

	return unit
}

type lowerer struct {
	prog      *ir.Program
	strs      *stringPool
	usesBools bool
}

func (l *lowerer) main() FuncDef {
	start := NewBlock("start")

	if l.prog.Init != nil {
		start.Instructions = append(start.Instructions, NewCall(NewValGlobal(InitSymbol)))
	}

	if fn, ok := l.prog.Func("main"); ok && len(fn.Params) == 0 {
		start.Instructions = append(start.Instructions, NewCall(NewValGlobal(funcSymbol("main"))))
	}

	start.Instructions = append(start.Instructions, NewRet(NewValInteger(0, BaseWord)))

	return NewFuncDef("main").
		WithLinkage(LinkageExport).
		WithRetTy(BaseWord).
		WithBlocks(start)
}

type frameArg struct {
	param string
	val   *Val
}

// funcLowerer lowers one function. It implements the ir block visitors.
type funcLowerer struct {
	*lowerer

	fn     *ir.Function
	blocks []*Block
	cur    *Block
	slots  map[string]bool
	conts  []string
	frames [][]frameArg
	aux    int
	dead   int
}

func (l *lowerer) function(fn *ir.Function) FuncDef {
	f := &funcLowerer{
		lowerer: l,
		fn:      fn,
		slots:   make(map[string]bool),
	}

	sym := funcSymbol(fn.Name)
	if fn == l.prog.Init {
		sym = InitSymbol
	}

	def := NewFuncDef(sym)

	if fn.Result != nil {
		def = def.WithRetTy(baseTy(fn.Result))
	}

	f.begin("start")

	for _, p := range fn.Params {
		def.Params = append(def.Params, NewParam(baseTy(p.Type), Ident("p_"+p.Name)))

		f.slot(p.Name)
		f.emit(NewStore(f.addr(p.Name), NewValIdent(Ident("p_"+p.Name), baseTy(p.Type))))
	}

	for _, b := range ir.Blocks(fn.Entry) {
		for _, instr := range b.Base().Instructions {
			if d, ok := instr.(*ir.Declare); ok && d.Scope == ir.Local {
				f.slot(d.Name)
			}
		}
	}

	if fn.Entry == nil {
		f.epilogue()
	} else {
		f.emit(NewJmp(fn.Entry.Base().Label()))
		ir.Walk(fn.Entry, f)
	}

	return def.WithBlocks(f.blocks...)
}

// slot allocates the stack slot of a local variable in the start block.
func (f *funcLowerer) slot(name string) {
	if f.slots[name] {
		return
	}

	f.slots[name] = true
	f.emit(NewAlloc(NewValIdent(Ident("v_"+name), BaseLong), 8))
}

// addr returns the address of a variable: its stack slot if it is local to
// the function, its data definition otherwise.
func (f *funcLowerer) addr(name string) *Val {
	if f.slots[name] {
		return NewValIdent(Ident("v_"+name), BaseLong)
	}

	return NewValGlobal(Ident(globPrefix + name))
}

func (f *funcLowerer) begin(label string) {
	f.cur = NewBlock(label)
	f.blocks = append(f.blocks, f.cur)
}

// emit appends instr to the current block. Code following a return gets a
// block of its own, since a QBE block ends at its first jump.
func (f *funcLowerer) emit(instr Instruction) {
	if f.cur.Terminated() {
		f.dead++
		f.begin(fmt.Sprintf("%s_dead%d", f.cur.Label, f.dead))
	}

	f.cur.Instructions = append(f.cur.Instructions, instr)
}

func (f *funcLowerer) temp(name string, t *types.Type) *Val {
	return NewValIdent(Ident(name), baseTy(t))
}

func (f *funcLowerer) auxTemp(bt BaseTy) *Val {
	f.aux++

	return NewValIdent(Ident(fmt.Sprintf("x_%d", f.aux)), bt)
}

// leave ends the current block with a jump to next. Without a successor,
// control continues at the join of the innermost enclosing if, or leaves the
// function.
func (f *funcLowerer) leave(next ir.Block) {
	if f.cur.Terminated() {
		return
	}

	switch {
	case next != nil:
		f.emit(NewJmp(next.Base().Label()))
	case len(f.conts) > 0:
		f.emit(NewJmp(f.conts[len(f.conts)-1]))
	default:
		f.epilogue()
	}
}

// epilogue returns the zero value of the result type when control falls off
// the end of the function.
func (f *funcLowerer) epilogue() {
	switch f.fn.Result {
	case nil:
		f.emit(NewRet())
	case types.Float:
		f.emit(NewRet(NewValDouble(0)))
	case types.String:
		f.emit(NewRet(f.strs.get("")))
	default:
		f.emit(NewRet(NewValInteger(0, baseTy(f.fn.Result))))
	}
}

func (f *funcLowerer) VisitBasic(_ *ir.Walker, b *ir.BasicBlock) {
	f.begin(b.Label())
	f.instructions(b)
	f.leave(b.Next)
}

func (f *funcLowerer) VisitIf(w *ir.Walker, b *ir.IfBlock) {
	if b.Next == nil {
		panic(diag.Internal("if block %s has no join", b.Label()))
	}

	f.begin(b.Label())
	f.instructions(&b.BasicBlock)

	join := b.Next.Base().Label()

	els := join
	if b.False != nil {
		els = b.False.Base().Label()
	}

	f.emit(NewJnz(f.temp(b.CondVar, types.Bool), b.True.Base().Label(), els))

	f.conts = append(f.conts, join)
	w.Walk(b.True)
	w.Walk(b.False)
	f.conts = f.conts[:len(f.conts)-1]
}

func (f *funcLowerer) VisitWhile(w *ir.Walker, b *ir.WhileBlock) {
	if b.Next == nil {
		panic(diag.Internal("while block %s has no exit", b.Label()))
	}

	f.begin(b.Label())
	f.instructions(&b.BasicBlock)
	f.emit(NewJnz(f.temp(b.CondVar, types.Bool), b.Body.Base().Label(), b.Next.Base().Label()))

	w.Walk(b.Body)
}

func (f *funcLowerer) instructions(b *ir.BasicBlock) {
	for _, instr := range b.Instructions {
		f.instruction(instr)
	}
}

func (f *funcLowerer) instruction(instr ir.Instruction) {
	switch i := instr.(type) {
	case *ir.LoadImm:
		f.emit(NewUnop(UnOpCopy, f.temp(i.Dst, i.Value.Type), f.constant(i.Value)))
	case *ir.Load:
		f.emit(NewLoad(f.temp(i.Dst, i.Type), f.addr(i.Name)))
	case *ir.Declare:
		f.emit(NewStore(f.addr(i.Name), f.temp(i.Src, i.Type)))
	case *ir.Store:
		f.emit(NewStore(f.addr(i.Name), f.temp(i.Src, i.Type)))
	case *ir.Binary:
		f.binary(i)
	case *ir.Unary:
		f.unary(i)
	case *ir.Print:
		f.print(i)
	case *ir.NewFrame:
		f.frames = append(f.frames, nil)
	case *ir.StoreFrame:
		top := len(f.frames) - 1
		f.frames[top] = append(f.frames[top], frameArg{param: i.Param, val: f.temp(i.Src, i.Type)})
	case *ir.Call:
		f.call(i)
	case *ir.DelFrame:
		f.frames = f.frames[:len(f.frames)-1]
	case *ir.Return:
		if i.Src == "" {
			f.emit(NewRet())
		} else {
			f.emit(NewRet(f.temp(i.Src, i.Type)))
		}
	default:
		panic(diag.Internal("unexpected instruction %T", instr))
	}
}

func (f *funcLowerer) constant(c ir.Const) *Val {
	switch v := c.Value.(type) {
	case int64:
		return NewValInteger(v, BaseLong)
	case float64:
		return NewValDouble(v)
	case bool:
		if v {
			return NewValInteger(1, BaseWord)
		}

		return NewValInteger(0, BaseWord)
	case string:
		return f.strs.get(v)
	default:
		panic(diag.Internal("unexpected constant %T", c.Value))
	}
}

var compares = map[types.Opcode]map[BaseTy]BinOpKind{
	types.OpEq:  {BaseLong: "ceql", BaseDouble: "ceqd", BaseWord: "ceqw"},
	types.OpNeq: {BaseLong: "cnel", BaseDouble: "cned", BaseWord: "cnew"},
	types.OpLt:  {BaseLong: "csltl", BaseDouble: "cltd"},
	types.OpLte: {BaseLong: "cslel", BaseDouble: "cled"},
	types.OpGt:  {BaseLong: "csgtl", BaseDouble: "cgtd"},
	types.OpGte: {BaseLong: "csgel", BaseDouble: "cged"},
}

var arith = map[types.Opcode]BinOpKind{
	types.OpAdd:  BinOpAdd,
	types.OpSub:  BinOpSub,
	types.OpMul:  BinOpMul,
	types.OpIDiv: BinOpDiv,
	types.OpFDiv: BinOpDiv,
	types.OpAnd:  BinOpAnd,
	types.OpOr:   BinOpOr,
}

func (f *funcLowerer) binary(i *ir.Binary) {
	lhs, rhs := f.temp(i.Left, i.Type), f.temp(i.Right, i.Type)

	if i.Type == types.String {
		f.stringBinary(i, lhs, rhs)
		return
	}

	if op, ok := arith[i.Opcode]; ok {
		f.emit(NewBinop(op, f.temp(i.Dst, i.Type), lhs, rhs))
		return
	}

	op, ok := compares[i.Opcode][baseTy(i.Type)]
	if !ok {
		panic(diag.Internal("no QBE operation for %s %s", i.Type, i.Opcode))
	}

	f.emit(NewBinop(op, f.temp(i.Dst, types.Bool), lhs, rhs))
}

// stringBinary lowers string concatenation and comparison onto libc.
func (f *funcLowerer) stringBinary(i *ir.Binary, lhs, rhs *Val) {
	switch i.Opcode {
	case types.OpAdd:
		dst := f.temp(i.Dst, types.String)
		llen, rlen := f.auxTemp(BaseLong), f.auxTemp(BaseLong)
		sum, size := f.auxTemp(BaseLong), f.auxTemp(BaseLong)

		f.emit(NewCall(NewValGlobal("strlen"), lhs).WithRet(llen))
		f.emit(NewCall(NewValGlobal("strlen"), rhs).WithRet(rlen))
		f.emit(NewBinop(BinOpAdd, sum, llen, rlen))
		f.emit(NewBinop(BinOpAdd, size, sum, NewValInteger(1, BaseLong)))
		f.emit(NewCall(NewValGlobal("malloc"), size).WithRet(dst))
		f.emit(NewCall(NewValGlobal("strcpy"), dst, lhs))
		f.emit(NewCall(NewValGlobal("strcat"), dst, rhs))
	case types.OpEq, types.OpNeq:
		cmp := f.auxTemp(BaseWord)
		f.emit(NewCall(NewValGlobal("strcmp"), lhs, rhs).WithRet(cmp))

		op := BinOpKind("ceqw")
		if i.Opcode == types.OpNeq {
			op = "cnew"
		}

		f.emit(NewBinop(op, f.temp(i.Dst, types.Bool), cmp, NewValInteger(0, BaseWord)))
	default:
		panic(diag.Internal("no QBE operation for string %s", i.Opcode))
	}
}

func (f *funcLowerer) unary(i *ir.Unary) {
	src, dst := f.temp(i.Src, i.Type), f.temp(i.Dst, i.Type)

	switch i.Opcode {
	case types.OpUPlus:
		f.emit(NewUnop(UnOpCopy, dst, src))
	case types.OpUNeg:
		f.emit(NewUnop(UnOpNeg, dst, src))
	case types.OpNot:
		f.emit(NewBinop(BinOpXor, dst, src, NewValInteger(1, BaseWord)))
	default:
		panic(diag.Internal("no QBE operation for %s %s", i.Type, i.Opcode))
	}
}

func (f *funcLowerer) print(i *ir.Print) {
	src := f.temp(i.Src, i.Type)

	var format string

	switch i.Type {
	case types.Int:
		format = "%lld\n"
	case types.Float:
		format = "%g\n"
	case types.String:
		format = "%s\n"
	case types.Bool:
		format = "%s\n"
		src = f.boolName(src)
	default:
		panic(diag.Internal("can't print %v", i.Type))
	}

	f.emit(NewCall(NewValGlobal("printf"), f.strs.get(format), src).WithVariadic(1))
}

// boolName returns the address of "true" or "false" for the bool in src.
func (f *funcLowerer) boolName(src *Val) *Val {
	f.usesBools = true

	ext, off, addr := f.auxTemp(BaseLong), f.auxTemp(BaseLong), f.auxTemp(BaseLong)

	f.emit(NewUnop(UnOpExtUW, ext, src))
	f.emit(NewBinop(BinOpMul, off, ext, NewValInteger(boolStride, BaseLong)))
	f.emit(NewBinop(BinOpAdd, addr, NewValGlobal(boolNames), off))

	return addr
}

// call passes the arguments of the innermost frame in the callee's
// parameter order.
func (f *funcLowerer) call(i *ir.Call) {
	callee, ok := f.prog.Func(i.Func)
	if !ok {
		panic(diag.Internal("call of unknown function %s", i.Func))
	}

	frame := f.frames[len(f.frames)-1]
	args := make([]*Val, 0, len(callee.Params))

	for _, p := range callee.Params {
		for _, a := range frame {
			if a.param == p.Name {
				args = append(args, a.val)
				break
			}
		}
	}

	c := NewCall(NewValGlobal(funcSymbol(i.Func)), args...)
	if i.Dst != "" {
		c = c.WithRet(f.temp(i.Dst, i.Type))
	}

	f.emit(c)
}
