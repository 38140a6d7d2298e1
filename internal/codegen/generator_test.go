package codegen

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corani/exprc/internal/analyzer"
	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/diag"
	"github.com/corani/exprc/internal/ir"
	"github.com/corani/exprc/internal/lexer"
	"github.com/corani/exprc/internal/parser"
	"github.com/corani/exprc/internal/types"
)

func generate(t *testing.T, src string) (*ast.Program, *ir.Program) {
	t.Helper()

	s, err := lexer.NewScanner("test.expr", bytes.NewReader([]byte(src)))
	require.NoError(t, err)

	toks, err := lexer.NewLexer(s).Tokens()
	require.NoError(t, err)

	prog, err := parser.New(toks).Parse()
	require.NoError(t, err)

	var msgs diag.Collector

	res := analyzer.Check(prog, diag.NewReporter(msgs.Add))
	require.Zero(t, res.Errors, msgs.Messages())

	return prog, Generate(prog)
}

func lines(b ir.Block) []string {
	var out []string

	for _, instr := range b.Base().Instructions {
		out = append(out, instr.String())
	}

	return out
}

func function(t *testing.T, p *ir.Program, name string) *ir.Function {
	t.Helper()

	fn, ok := p.Func(name)
	require.True(t, ok, name)

	return fn
}

func TestGenerateAssignment(t *testing.T) {
	t.Parallel()

	_, p := generate(t, "func f() { var a int; a = 2 + 3; }")

	entry := function(t, p, "f").Entry
	require.Equal(t, []string{
		"loadi 0, int_0",
		"newvar_local int_0, a",
		"loadi 2, int_1",
		"loadi 3, int_2",
		"add int_1, int_2, int_3",
		"store_local int_3, a",
	}, lines(entry))
	require.Nil(t, entry.Base().Next)
}

func TestGenerateGlobals(t *testing.T) {
	t.Parallel()

	prog, p := generate(t, `
var g float = 1.5;
const s = "hi";
func f() {
	g = g * 2.0;
	print s;
}
print g;
`)
	require.Same(t, p, prog.Code)
	require.Equal(t, ir.InitFunc, p.Init.Name)
	require.Equal(t, []ir.Variable{
		{Name: "g", Type: types.Float},
		{Name: "s", Type: types.String},
	}, p.Globals)

	require.Equal(t, []string{
		"loadi 1.5, float_0",
		"newvar_global float_0, g",
		`loadi "hi", string_1`,
		"newvar_global string_1, s",
		"load g, float_6",
		"print float_6",
	}, lines(p.Init.Entry))

	f := function(t, p, "f")
	require.Same(t, f, prog.Body.List[2].(*ast.FuncDecl).Code)
	require.Equal(t, []string{
		"load g, float_2",
		"loadi 2.0, float_3",
		"mul float_2, float_3, float_4",
		"store_global float_4, g",
		"load s, string_5",
		"print string_5",
	}, lines(f.Entry))
}

func TestGenerateUnary(t *testing.T) {
	t.Parallel()

	_, p := generate(t, "func f() { var b bool = !true; var n int = -1; var x float = +2.5; }")

	require.Equal(t, []string{
		"loadi true, bool_0",
		"not bool_0, bool_1",
		"newvar_local bool_1, b",
		"loadi 1, int_2",
		"uneg int_2, int_3",
		"newvar_local int_3, n",
		"loadi 2.5, float_4",
		"uadd float_4, float_5",
		"newvar_local float_5, x",
	}, lines(function(t, p, "f").Entry))
}

func TestGenerateOperatorOpcodes(t *testing.T) {
	t.Parallel()

	tt := []struct {
		expr string
		want string
	}{
		{expr: "7 / 2", want: "idiv int_0, int_1, int_2"},
		{expr: "7.0 / 2.0", want: "fdiv float_0, float_1, float_2"},
		{expr: "1 - 2", want: "sub int_0, int_1, int_2"},
		{expr: `"a" + "b"`, want: "add string_0, string_1, string_2"},
		{expr: "1 <= 2", want: "lte int_0, int_1, bool_2"},
		{expr: "1.0 >= 2.0", want: "gte float_0, float_1, bool_2"},
		{expr: `"a" != "b"`, want: "neq string_0, string_1, bool_2"},
		{expr: "true && false", want: "and bool_0, bool_1, bool_2"},
		{expr: "true || false", want: "or bool_0, bool_1, bool_2"},
		{expr: "true == false", want: "eq bool_0, bool_1, bool_2"},
	}

	for _, tc := range tt {
		t.Run(tc.expr, func(t *testing.T) {
			t.Parallel()

			_, p := generate(t, "func f() { print "+tc.expr+"; }")

			got := lines(function(t, p, "f").Entry)
			require.Len(t, got, 4)
			require.Equal(t, tc.want, got[2])
		})
	}
}

func TestGenerateIfElse(t *testing.T) {
	t.Parallel()

	prog, p := generate(t, "func f(x int) { if x > 0 { print 1; } else { print 2; } print 3; }")

	entry := function(t, p, "f").Entry
	require.Empty(t, lines(entry))

	ifb, ok := entry.Base().Next.(*ir.IfBlock)
	require.True(t, ok)
	require.Equal(t, []string{
		"load x, int_0",
		"loadi 0, int_1",
		"gt int_0, int_1, bool_2",
	}, lines(ifb))
	require.Equal(t, "bool_2", ifb.CondVar)

	cond := prog.Body.List[0].(*ast.FuncDecl).Body.List[0].(*ast.If).Cond
	require.Equal(t, ifb.CondVar, cond.Info().GenLocation)

	require.Equal(t, []string{"loadi 1, int_3", "print int_3"}, lines(ifb.True))
	require.Nil(t, ifb.True.Base().Next)
	require.Equal(t, []string{"loadi 2, int_4", "print int_4"}, lines(ifb.False))
	require.Nil(t, ifb.False.Base().Next)

	join := ifb.Next
	require.Equal(t, []string{"loadi 3, int_5", "print int_5"}, lines(join))
	require.Nil(t, join.Base().Next)

	require.Len(t, ir.Blocks(entry), 5)
}

func TestGenerateIfWithoutElse(t *testing.T) {
	t.Parallel()

	_, p := generate(t, "func f() { if true { print 1; } }")

	ifb, ok := function(t, p, "f").Entry.Base().Next.(*ir.IfBlock)
	require.True(t, ok)
	require.Nil(t, ifb.False)
	require.NotNil(t, ifb.True)

	join, ok := ifb.Next.(*ir.BasicBlock)
	require.True(t, ok)
	require.Empty(t, join.Instructions)
}

func TestGenerateWhile(t *testing.T) {
	t.Parallel()

	_, p := generate(t, "func f() { var i int; while i < 3 { i = i + 1; } }")

	entry := function(t, p, "f").Entry
	require.Equal(t, []string{"loadi 0, int_0", "newvar_local int_0, i"}, lines(entry))

	loop, ok := entry.Base().Next.(*ir.WhileBlock)
	require.True(t, ok)
	require.Equal(t, []string{
		"load i, int_1",
		"loadi 3, int_2",
		"lt int_1, int_2, bool_3",
	}, lines(loop))
	require.Equal(t, "bool_3", loop.CondVar)

	require.Equal(t, []string{
		"load i, int_4",
		"loadi 1, int_5",
		"add int_4, int_5, int_6",
		"store_local int_6, i",
	}, lines(loop.Body))
	require.Same(t, loop, loop.Body.Base().Next, "body links back to the loop")

	exit := loop.Next
	require.Empty(t, lines(exit))
	require.Nil(t, exit.Base().Next)

	require.Len(t, ir.Blocks(entry), 4)
}

func TestGenerateWhileTrue(t *testing.T) {
	t.Parallel()

	_, p := generate(t, "func f() { while true { print 1; } }")

	loop, ok := function(t, p, "f").Entry.Base().Next.(*ir.WhileBlock)
	require.True(t, ok)
	require.Equal(t, []string{"loadi true, bool_0"}, lines(loop))
	require.Equal(t, "bool_0", loop.CondVar)
	require.Equal(t, []string{"loadi 1, int_1", "print int_1"}, lines(loop.Body))
	require.Empty(t, lines(loop.Next))
}

func TestGenerateNestedLoopBackEdge(t *testing.T) {
	t.Parallel()

	_, p := generate(t, `
func f() {
	var i int;
	while i < 3 {
		if i == 1 {
			print i;
		}
		i = i + 1;
	}
}
`)

	loop := function(t, p, "f").Entry.Base().Next.(*ir.WhileBlock)

	ifb, ok := loop.Body.(*ir.BasicBlock).Next.(*ir.IfBlock)
	require.True(t, ok)

	// The join of the if is the last block of the body.
	join := ifb.Next.(*ir.BasicBlock)
	require.Equal(t, []string{
		"load i, int_8",
		"loadi 1, int_9",
		"add int_8, int_9, int_10",
		"store_local int_10, i",
	}, lines(join))
	require.Same(t, loop, join.Next)
}

func TestGenerateCalls(t *testing.T) {
	t.Parallel()

	prog, p := generate(t, `
func add(a int, b int) int {
	return a + b;
}
func main() {
	print add(1, 2);
	add(3, 4);
	return;
}
`)

	add := function(t, p, "add")
	require.Equal(t, []ir.Param{{Name: "a", Type: types.Int}, {Name: "b", Type: types.Int}}, add.Params)
	require.Same(t, types.Int, add.Result)
	require.Equal(t, []string{
		"load a, int_0",
		"load b, int_1",
		"add int_0, int_1, int_2",
		"ret int_2",
	}, lines(add.Entry))

	main := function(t, p, "main")
	require.Nil(t, main.Result)
	require.Equal(t, []string{
		"new_frame",
		"loadi 1, int_3",
		"store_frame int_3, a",
		"loadi 2, int_4",
		"store_frame int_4, b",
		"call add, int_5",
		"del_frame",
		"print int_5",
		"new_frame",
		"loadi 3, int_6",
		"store_frame int_6, a",
		"loadi 4, int_7",
		"store_frame int_7, b",
		"call add",
		"del_frame",
		"ret",
	}, lines(main.Entry))

	call := prog.Body.List[1].(*ast.FuncDecl).Body.List[0].(*ast.Print).Value.(*ast.Call)
	require.Equal(t, "int_5", call.GenLocation)
}

func TestGenerateNestedCallFrames(t *testing.T) {
	t.Parallel()

	_, p := generate(t, `
func inc(n int) int { return n + 1; }
func f() { print inc(inc(1)); }
`)

	require.Equal(t, []string{
		"new_frame",
		"new_frame",
		"loadi 1, int_3",
		"store_frame int_3, n",
		"call inc, int_4",
		"del_frame",
		"store_frame int_4, n",
		"call inc, int_5",
		"del_frame",
		"print int_5",
	}, lines(function(t, p, "f").Entry))
}

// Every value-producing instruction defines a temporary of its own.
func TestGenerateUniqueTemporaries(t *testing.T) {
	t.Parallel()

	_, p := generate(t, `
var total int;
func sq(x int) int { return x * x; }
func main() {
	var i int = 0;
	while i < 10 {
		if i / 2 * 2 == i {
			total = total + sq(i);
		} else {
			total = total - 1;
		}
		i = i + 1;
	}
	print total > 100 && !false;
}
`)

	seen := make(map[string]bool)
	produced := 0

	fns := append([]*ir.Function{p.Init}, p.Funcs...)
	for _, fn := range fns {
		// Temporaries don't cross function boundaries, and every use must
		// follow its definition in walk order.
		defined := make(map[string]bool)

		use := func(srcs ...string) {
			for _, src := range srcs {
				require.True(t, defined[src], "%s: temporary %q used before it is defined", fn.Name, src)
			}
		}

		for _, b := range ir.Blocks(fn.Entry) {
			for _, instr := range b.Base().Instructions {
				var dst string

				switch i := instr.(type) {
				case *ir.LoadImm:
					dst = i.Dst
				case *ir.Load:
					dst = i.Dst
				case *ir.Binary:
					use(i.Left, i.Right)
					dst = i.Dst
				case *ir.Unary:
					use(i.Src)
					dst = i.Dst
				case *ir.Call:
					dst = i.Dst
				case *ir.Declare:
					use(i.Src)
				case *ir.Store:
					use(i.Src)
				case *ir.Print:
					use(i.Src)
				case *ir.StoreFrame:
					use(i.Src)
				case *ir.Return:
					if i.Src != "" {
						use(i.Src)
					}
				}

				if dst == "" {
					continue
				}

				produced++

				require.False(t, seen[dst], "temporary %s defined twice", dst)
				seen[dst] = true
				defined[dst] = true
			}

			switch b := b.(type) {
			case *ir.IfBlock:
				use(b.CondVar)
			case *ir.WhileBlock:
				use(b.CondVar)
			}
		}
	}

	require.Len(t, seen, produced)
	require.Positive(t, produced)
}

func TestGenerateBlockIDsAreUnique(t *testing.T) {
	t.Parallel()

	_, p := generate(t, `
func f() { if true { print 1; } else { print 2; } }
func g() { while false { print 3; } }
`)

	ids := make(map[int]bool)

	for _, fn := range append([]*ir.Function{p.Init}, p.Funcs...) {
		for _, b := range ir.Blocks(fn.Entry) {
			require.False(t, ids[b.Base().ID], b.Base().Label())
			ids[b.Base().ID] = true
		}
	}

	require.Len(t, ids, 1+5+4)
}

func TestGenerateUnknownStatementPanics(t *testing.T) {
	t.Parallel()

	var loc lexer.Location

	outer := ast.NewFuncDecl("f", nil, nil, ast.NewStatements([]ast.Statement{
		ast.NewFuncDecl("g", nil, nil, ast.NewStatements(nil, loc), loc),
	}, loc), loc)

	require.Panics(t, func() { NewGenerator().Function(outer) })
}
