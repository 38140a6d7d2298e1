package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corani/exprc/internal/types"
)

func TestInstructionString(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name  string
		instr Instruction
		want  string
	}{
		{"loadi int", &LoadImm{Value: Const{types.Int, int64(2)}, Dst: "int_0"}, "loadi 2, int_0"},
		{"loadi float", &LoadImm{Value: Const{types.Float, 2.5}, Dst: "float_1"}, "loadi 2.5, float_1"},
		{"loadi whole float", &LoadImm{Value: Const{types.Float, 1.0}, Dst: "float_1"}, "loadi 1.0, float_1"},
		{"loadi negative whole float", &LoadImm{Value: Const{types.Float, -3.0}, Dst: "float_1"}, "loadi -3.0, float_1"},
		{"loadi large float", &LoadImm{Value: Const{types.Float, 1e21}, Dst: "float_1"}, "loadi 1e+21, float_1"},
		{"loadi string", &LoadImm{Value: Const{types.String, "hi\n"}, Dst: "string_2"}, `loadi "hi\n", string_2`},
		{"load", &Load{Type: types.Int, Name: "a", Dst: "int_3"}, "load a, int_3"},
		{"newvar local", &Declare{Scope: Local, Type: types.Int, Src: "int_0", Name: "a"}, "newvar_local int_0, a"},
		{"newvar global", &Declare{Scope: Global, Type: types.Int, Src: "int_0", Name: "a"}, "newvar_global int_0, a"},
		{"store global", &Store{Scope: Global, Type: types.Int, Src: "int_2", Name: "a"}, "store_global int_2, a"},
		{"binary", &Binary{Opcode: types.OpAdd, Type: types.Int, Left: "int_0", Right: "int_1", Dst: "int_2"}, "add int_0, int_1, int_2"},
		{"unary", &Unary{Opcode: types.OpNot, Type: types.Bool, Src: "bool_0", Dst: "bool_1"}, "not bool_0, bool_1"},
		{"print", &Print{Type: types.Int, Src: "int_0"}, "print int_0"},
		{"frame", &NewFrame{}, "new_frame"},
		{"store frame", &StoreFrame{Type: types.Int, Src: "int_0", Param: "x"}, "store_frame int_0, x"},
		{"call", &Call{Func: "f"}, "call f"},
		{"call with result", &Call{Func: "f", Type: types.Int, Dst: "int_4"}, "call f, int_4"},
		{"del frame", &DelFrame{}, "del_frame"},
		{"ret", &Return{}, "ret"},
		{"ret value", &Return{Type: types.Int, Src: "int_5"}, "ret int_5"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, tc.instr.String())
		})
	}
}

// loopGraph builds
//
//	b0 -> b1 while { b2 -> b3 if { b4 } -> b5 -> back to b1 } -> b6
func loopGraph() *BasicBlock {
	b0 := NewBasicBlock(0)
	b1 := NewWhileBlock(1)
	b2 := NewBasicBlock(2)
	b3 := NewIfBlock(3)
	b4 := NewBasicBlock(4)
	b5 := NewBasicBlock(5)
	b6 := NewBasicBlock(6)

	b0.Next = b1
	b1.Body = b2
	b1.CondVar = "bool_0"
	b1.Next = b6
	b2.Next = b3
	b3.CondVar = "bool_1"
	b3.True = b4
	b3.Next = b5
	b5.Next = b1

	return b0
}

func ids(blocks []Block) []int {
	var out []int

	for _, b := range blocks {
		out = append(out, b.Base().ID)
	}

	return out
}

func TestBlocksControlOrder(t *testing.T) {
	t.Parallel()

	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, ids(Blocks(loopGraph())))
}

func TestWalkSelfLoop(t *testing.T) {
	t.Parallel()

	loop := NewWhileBlock(0)
	loop.Body = loop

	require.Equal(t, []int{0}, ids(Blocks(loop)))
}

type countingVisitor struct {
	visits map[int]int
}

func (c *countingVisitor) VisitBasic(_ *Walker, b *BasicBlock) {
	c.visits[b.ID]++
}

func TestWalkDefaultDescends(t *testing.T) {
	t.Parallel()

	// Only BasicVisitor is implemented: if/while blocks are skipped by the
	// visitor, but the walker still descends into them.
	v := &countingVisitor{visits: make(map[int]int)}
	w := NewWalker(v)
	w.Walk(loopGraph())

	require.Equal(t, map[int]int{0: 1, 2: 1, 4: 1, 5: 1, 6: 1}, v.visits)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	entry := NewBasicBlock(0)
	entry.Append(
		&LoadImm{Value: Const{types.Int, int64(1)}, Dst: "int_0"},
		&Declare{Scope: Local, Type: types.Int, Src: "int_0", Name: "i"},
	)

	loop := NewWhileBlock(1)
	loop.Append(
		&Load{Type: types.Int, Name: "i", Dst: "int_1"},
		&LoadImm{Value: Const{types.Int, int64(3)}, Dst: "int_2"},
		&Binary{Opcode: types.OpLt, Type: types.Int, Left: "int_1", Right: "int_2", Dst: "bool_3"},
	)
	loop.CondVar = "bool_3"

	body := NewBasicBlock(2)
	body.Append(&Load{Type: types.Int, Name: "i", Dst: "int_4"}, &Print{Type: types.Int, Src: "int_4"})
	body.Next = loop

	exit := NewBasicBlock(3)
	exit.Append(&Return{})

	entry.Next = loop
	loop.Body = body
	loop.Next = exit

	fn := &Function{Name: "main", Params: []Param{{Name: "n", Type: types.Int}}, Result: types.Int, Entry: entry}

	want := strings.Join([]string{
		"func main(n int) int",
		"b0:",
		"\tloadi 1, int_0",
		"\tnewvar_local int_0, i",
		"\tgoto b1",
		"b1:",
		"\tload i, int_1",
		"\tloadi 3, int_2",
		"\tlt int_1, int_2, bool_3",
		"\twhile bool_3 do b2 exit b3",
		"b2:",
		"\tload i, int_4",
		"\tprint int_4",
		"\tgoto b1",
		"b3:",
		"\tret",
		"",
	}, "\n")

	require.Equal(t, want, fn.String())

	p := &Program{Init: &Function{Name: InitFunc, Entry: NewBasicBlock(4)}, Funcs: []*Function{fn}}
	require.Equal(t, "func init()\nb4:\n\n"+want, p.String())

	got, ok := p.Func("main")
	require.True(t, ok)
	require.Same(t, fn, got)
}
