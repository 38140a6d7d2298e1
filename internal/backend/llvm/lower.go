// Package llvm lowers the three-address code of a program onto LLVM IR.
package llvm

import (
	"fmt"
	"io"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"tlog.app/go/errors"

	"github.com/corani/exprc/internal/diag"
	"github.com/corani/exprc/internal/ir"
	"github.com/corani/exprc/internal/types"
)

// Symbols of the lowered module; they match the QBE backend so both
// produce binaries with the same symbol table.
const (
	InitSymbol = "exprc_init"
	funcPrefix = "fn_"
	globPrefix = "glob_"
)

func funcSymbol(name string) string {
	return funcPrefix + name
}

func llType(t *types.Type) lltypes.Type {
	switch t {
	case nil:
		return lltypes.Void
	case types.Int:
		return lltypes.I64
	case types.Float:
		return lltypes.Double
	case types.Bool:
		return lltypes.I1
	case types.String:
		return lltypes.I8Ptr
	default:
		panic(diag.Internal("no LLVM type for %v", t))
	}
}

// Lower builds an LLVM module from p. Like the QBE backend, the module
// defines a main that runs the global code, then the program's main
// function if it has one without parameters.
func Lower(p *ir.Program, source string) *llir.Module {
	l := &lowerer{
		prog:    p,
		mod:     llir.NewModule(),
		funcs:   make(map[*ir.Function]*llir.Func),
		globals: make(map[string]*llir.Global),
		strs:    make(map[string]*llir.Global),
		libc:    make(map[string]*llir.Func),
	}

	l.mod.SourceFilename = source

	for _, g := range p.Globals {
		l.globals[g.Name] = l.mod.NewGlobalDef(globPrefix+g.Name, zero(g.Type))
	}

	var fns []*ir.Function

	if p.Init != nil {
		fns = append(fns, p.Init)
	}

	fns = append(fns, p.Funcs...)

	// Declare every function first, so calls can refer to functions defined
	// further down.
	for _, fn := range fns {
		var params []*llir.Param
		for _, param := range fn.Params {
			params = append(params, llir.NewParam("p_"+param.Name, llType(param.Type)))
		}

		sym := funcSymbol(fn.Name)
		if fn == p.Init {
			sym = InitSymbol
		}

		l.funcs[fn] = l.mod.NewFunc(sym, llType(fn.Result), params...)
	}

	for _, fn := range fns {
		l.function(fn)
	}

	l.main()

	return l.mod
}

// Write renders m as LLVM assembly.
func Write(w io.Writer, m *llir.Module) error {
	if _, err := io.WriteString(w, m.String()); err != nil {
		return errors.Wrap(err, "write llvm module")
	}

	return nil
}

// zero returns the value a global of type t starts out with.
func zero(t *types.Type) constant.Constant {
	switch t {
	case types.Int:
		return constant.NewInt(lltypes.I64, 0)
	case types.Float:
		return constant.NewFloat(lltypes.Double, 0)
	case types.Bool:
		return constant.False
	case types.String:
		return constant.NewNull(lltypes.I8Ptr)
	default:
		panic(diag.Internal("no zero value for %v", t))
	}
}

type lowerer struct {
	prog    *ir.Program
	mod     *llir.Module
	funcs   map[*ir.Function]*llir.Func
	globals map[string]*llir.Global
	strs    map[string]*llir.Global
	libc    map[string]*llir.Func
}

func (l *lowerer) main() {
	fn := l.mod.NewFunc("main", lltypes.I32)
	start := fn.NewBlock("start")

	if l.prog.Init != nil {
		start.NewCall(l.funcs[l.prog.Init])
	}

	if main, ok := l.prog.Func("main"); ok && len(main.Params) == 0 {
		start.NewCall(l.funcs[main])
	}

	start.NewRet(constant.NewInt(lltypes.I32, 0))
}

// str returns a pointer to the first byte of a zero terminated copy of s.
// Each distinct string is defined once per module.
func (l *lowerer) str(s string) constant.Constant {
	g, ok := l.strs[s]
	if !ok {
		g = l.mod.NewGlobalDef(fmt.Sprintf("str_%d", len(l.strs)), constant.NewCharArrayFromString(s+"\x00"))
		g.Immutable = true
		l.strs[s] = g
	}

	idx := constant.NewInt(lltypes.I64, 0)
	ptr := constant.NewGetElementPtr(g.ContentType, g, idx, idx)
	ptr.InBounds = true

	return ptr
}

// builtin returns the declaration of a libc function, adding it to the
// module on first use.
func (l *lowerer) builtin(name string) *llir.Func {
	if fn, ok := l.libc[name]; ok {
		return fn
	}

	var fn *llir.Func

	switch name {
	case "printf":
		fn = l.mod.NewFunc(name, lltypes.I32, llir.NewParam("", lltypes.I8Ptr))
		fn.Sig.Variadic = true
	case "strlen":
		fn = l.mod.NewFunc(name, lltypes.I64, llir.NewParam("", lltypes.I8Ptr))
	case "malloc":
		fn = l.mod.NewFunc(name, lltypes.I8Ptr, llir.NewParam("", lltypes.I64))
	case "strcpy", "strcat":
		fn = l.mod.NewFunc(name, lltypes.I8Ptr, llir.NewParam("", lltypes.I8Ptr), llir.NewParam("", lltypes.I8Ptr))
	case "strcmp":
		fn = l.mod.NewFunc(name, lltypes.I32, llir.NewParam("", lltypes.I8Ptr), llir.NewParam("", lltypes.I8Ptr))
	default:
		panic(diag.Internal("unknown builtin %s", name))
	}

	l.libc[name] = fn

	return fn
}

type frameArg struct {
	param string
	val   value.Value
}

// funcLowerer lowers one function. It implements the ir block visitors.
type funcLowerer struct {
	*lowerer

	src    *ir.Function
	fn     *llir.Func
	start  *llir.Block
	cur    *llir.Block
	blocks map[*ir.BasicBlock]*llir.Block
	slots  map[string]*llir.InstAlloca
	temps  map[string]value.Value
	conts  []*llir.Block
	frames [][]frameArg
	dead   int
}

func (l *lowerer) function(src *ir.Function) {
	fn := l.funcs[src]

	f := &funcLowerer{
		lowerer: l,
		src:     src,
		fn:      fn,
		blocks:  make(map[*ir.BasicBlock]*llir.Block),
		slots:   make(map[string]*llir.InstAlloca),
		temps:   make(map[string]value.Value),
	}

	f.start = fn.NewBlock("start")
	f.cur = f.start

	for i, p := range src.Params {
		slot := f.slot(p.Name, p.Type)
		f.start.NewStore(fn.Params[i], slot)
	}

	graph := ir.Blocks(src.Entry)

	for _, b := range graph {
		for _, instr := range b.Base().Instructions {
			if d, ok := instr.(*ir.Declare); ok && d.Scope == ir.Local {
				f.slot(d.Name, d.Type)
			}
		}
	}

	if len(graph) == 0 {
		f.epilogue()
		return
	}

	for _, b := range graph {
		f.blocks[b.Base()] = fn.NewBlock(b.Base().Label())
	}

	f.start.NewBr(f.block(src.Entry))
	ir.Walk(src.Entry, f)
}

func (f *funcLowerer) slot(name string, t *types.Type) *llir.InstAlloca {
	if s, ok := f.slots[name]; ok {
		return s
	}

	s := f.start.NewAlloca(llType(t))
	s.SetName("v_" + name)
	f.slots[name] = s

	return s
}

// addr returns the address of a variable: its stack slot if it is local to
// the function, its global otherwise.
func (f *funcLowerer) addr(name string) value.Value {
	if s, ok := f.slots[name]; ok {
		return s
	}

	if g, ok := f.globals[name]; ok {
		return g
	}

	panic(diag.Internal("no storage for %s in %s", name, f.src.Name))
}

func (f *funcLowerer) block(b ir.Block) *llir.Block {
	lb, ok := f.blocks[b.Base()]
	if !ok {
		panic(diag.Internal("block %s is not part of %s", b.Base().Label(), f.src.Name))
	}

	return lb
}

// at returns the block to append to. Code following a terminator gets a
// block of its own.
func (f *funcLowerer) at() *llir.Block {
	if f.cur.Term != nil {
		f.dead++
		f.cur = f.fn.NewBlock(fmt.Sprintf("%s_dead%d", f.cur.LocalName, f.dead))
	}

	return f.cur
}

func (f *funcLowerer) temp(name string) value.Value {
	v, ok := f.temps[name]
	if !ok {
		panic(diag.Internal("temporary %s used before it was set in %s", name, f.src.Name))
	}

	return v
}

// set binds the temporary name to v, naming the instruction after it.
func (f *funcLowerer) set(name string, v value.Value) {
	if n, ok := v.(value.Named); ok && !isConstant(v) {
		n.SetName(name)
	}

	f.temps[name] = v
}

func isConstant(v value.Value) bool {
	_, ok := v.(constant.Constant)

	return ok
}

// leave ends the current block with a branch to next. Without a successor,
// control continues at the join of the innermost enclosing if, or leaves
// the function.
func (f *funcLowerer) leave(next ir.Block) {
	if f.cur.Term != nil {
		return
	}

	switch {
	case next != nil:
		f.cur.NewBr(f.block(next))
	case len(f.conts) > 0:
		f.cur.NewBr(f.conts[len(f.conts)-1])
	default:
		f.epilogue()
	}
}

// epilogue returns the zero value of the result type when control falls
// off the end of the function.
func (f *funcLowerer) epilogue() {
	switch f.src.Result {
	case nil:
		f.at().NewRet(nil)
	case types.String:
		f.at().NewRet(f.str(""))
	default:
		f.at().NewRet(zero(f.src.Result))
	}
}

func (f *funcLowerer) VisitBasic(_ *ir.Walker, b *ir.BasicBlock) {
	f.cur = f.block(b)
	f.instructions(b)
	f.leave(b.Next)
}

func (f *funcLowerer) VisitIf(w *ir.Walker, b *ir.IfBlock) {
	if b.Next == nil {
		panic(diag.Internal("if block %s has no join", b.Label()))
	}

	f.cur = f.block(b)
	f.instructions(&b.BasicBlock)

	join := f.block(b.Next)

	els := join
	if b.False != nil {
		els = f.block(b.False)
	}

	f.at().NewCondBr(f.temp(b.CondVar), f.block(b.True), els)

	f.conts = append(f.conts, join)
	w.Walk(b.True)
	w.Walk(b.False)
	f.conts = f.conts[:len(f.conts)-1]
}

func (f *funcLowerer) VisitWhile(w *ir.Walker, b *ir.WhileBlock) {
	if b.Next == nil {
		panic(diag.Internal("while block %s has no exit", b.Label()))
	}

	f.cur = f.block(b)
	f.instructions(&b.BasicBlock)
	f.at().NewCondBr(f.temp(b.CondVar), f.block(b.Body), f.block(b.Next))

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
		f.set(i.Dst, f.constant(i.Value))
	case *ir.Load:
		f.set(i.Dst, f.at().NewLoad(llType(i.Type), f.addr(i.Name)))
	case *ir.Declare:
		f.at().NewStore(f.temp(i.Src), f.addr(i.Name))
	case *ir.Store:
		f.at().NewStore(f.temp(i.Src), f.addr(i.Name))
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
		f.frames[top] = append(f.frames[top], frameArg{param: i.Param, val: f.temp(i.Src)})
	case *ir.Call:
		f.call(i)
	case *ir.DelFrame:
		f.frames = f.frames[:len(f.frames)-1]
	case *ir.Return:
		if i.Src == "" {
			f.at().NewRet(nil)
		} else {
			f.at().NewRet(f.temp(i.Src))
		}
	default:
		panic(diag.Internal("unexpected instruction %T", instr))
	}
}

func (f *funcLowerer) constant(c ir.Const) value.Value {
	switch v := c.Value.(type) {
	case int64:
		return constant.NewInt(lltypes.I64, v)
	case float64:
		return constant.NewFloat(lltypes.Double, v)
	case bool:
		return constant.NewBool(v)
	case string:
		return f.str(v)
	default:
		panic(diag.Internal("unexpected constant %T", c.Value))
	}
}

var (
	intPreds = map[types.Opcode]enum.IPred{
		types.OpEq:  enum.IPredEQ,
		types.OpNeq: enum.IPredNE,
		types.OpLt:  enum.IPredSLT,
		types.OpLte: enum.IPredSLE,
		types.OpGt:  enum.IPredSGT,
		types.OpGte: enum.IPredSGE,
	}

	floatPreds = map[types.Opcode]enum.FPred{
		types.OpEq:  enum.FPredOEQ,
		types.OpNeq: enum.FPredONE,
		types.OpLt:  enum.FPredOLT,
		types.OpLte: enum.FPredOLE,
		types.OpGt:  enum.FPredOGT,
		types.OpGte: enum.FPredOGE,
	}
)

func (f *funcLowerer) binary(i *ir.Binary) {
	lhs, rhs := f.temp(i.Left), f.temp(i.Right)

	if i.Type == types.String {
		f.stringBinary(i, lhs, rhs)
		return
	}

	b := f.at()

	var v value.Value

	switch i.Type {
	case types.Int, types.Bool:
		switch i.Opcode {
		case types.OpAdd:
			v = b.NewAdd(lhs, rhs)
		case types.OpSub:
			v = b.NewSub(lhs, rhs)
		case types.OpMul:
			v = b.NewMul(lhs, rhs)
		case types.OpIDiv:
			v = b.NewSDiv(lhs, rhs)
		case types.OpAnd:
			v = b.NewAnd(lhs, rhs)
		case types.OpOr:
			v = b.NewOr(lhs, rhs)
		default:
			if pred, ok := intPreds[i.Opcode]; ok {
				v = b.NewICmp(pred, lhs, rhs)
			}
		}
	case types.Float:
		switch i.Opcode {
		case types.OpAdd:
			v = b.NewFAdd(lhs, rhs)
		case types.OpSub:
			v = b.NewFSub(lhs, rhs)
		case types.OpMul:
			v = b.NewFMul(lhs, rhs)
		case types.OpFDiv:
			v = b.NewFDiv(lhs, rhs)
		default:
			if pred, ok := floatPreds[i.Opcode]; ok {
				v = b.NewFCmp(pred, lhs, rhs)
			}
		}
	}

	if v == nil {
		panic(diag.Internal("no LLVM operation for %s %s", i.Type, i.Opcode))
	}

	f.set(i.Dst, v)
}

// stringBinary lowers string concatenation and comparison onto libc.
func (f *funcLowerer) stringBinary(i *ir.Binary, lhs, rhs value.Value) {
	b := f.at()

	switch i.Opcode {
	case types.OpAdd:
		llen := b.NewCall(f.builtin("strlen"), lhs)
		rlen := b.NewCall(f.builtin("strlen"), rhs)
		size := b.NewAdd(b.NewAdd(llen, rlen), constant.NewInt(lltypes.I64, 1))
		dst := b.NewCall(f.builtin("malloc"), size)

		b.NewCall(f.builtin("strcpy"), dst, lhs)
		b.NewCall(f.builtin("strcat"), dst, rhs)

		f.set(i.Dst, dst)
	case types.OpEq, types.OpNeq:
		cmp := b.NewCall(f.builtin("strcmp"), lhs, rhs)

		f.set(i.Dst, b.NewICmp(intPreds[i.Opcode], cmp, constant.NewInt(lltypes.I32, 0)))
	default:
		panic(diag.Internal("no LLVM operation for string %s", i.Opcode))
	}
}

func (f *funcLowerer) unary(i *ir.Unary) {
	src := f.temp(i.Src)
	b := f.at()

	switch {
	case i.Opcode == types.OpUPlus:
		f.temps[i.Dst] = src
	case i.Opcode == types.OpUNeg && i.Type == types.Int:
		f.set(i.Dst, b.NewSub(constant.NewInt(lltypes.I64, 0), src))
	case i.Opcode == types.OpUNeg && i.Type == types.Float:
		f.set(i.Dst, b.NewFNeg(src))
	case i.Opcode == types.OpNot:
		f.set(i.Dst, b.NewXor(src, constant.True))
	default:
		panic(diag.Internal("no LLVM operation for %s %s", i.Type, i.Opcode))
	}
}

func (f *funcLowerer) print(i *ir.Print) {
	src := f.temp(i.Src)
	b := f.at()

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
		src = b.NewSelect(src, f.str("true"), f.str("false"))
	default:
		panic(diag.Internal("can't print %v", i.Type))
	}

	b.NewCall(f.builtin("printf"), f.str(format), src)
}

// call passes the arguments of the innermost frame in the callee's
// parameter order.
func (f *funcLowerer) call(i *ir.Call) {
	callee, ok := f.prog.Func(i.Func)
	if !ok {
		panic(diag.Internal("call of unknown function %s", i.Func))
	}

	frame := f.frames[len(f.frames)-1]
	args := make([]value.Value, 0, len(callee.Params))

	for _, p := range callee.Params {
		for _, a := range frame {
			if a.param == p.Name {
				args = append(args, a.val)
				break
			}
		}
	}

	c := f.at().NewCall(f.funcs[callee], args...)
	if i.Dst != "" {
		f.set(i.Dst, c)
	}
}
