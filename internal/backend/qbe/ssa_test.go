package qbe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSSA_CompilationUnit(t *testing.T) {
	t.Parallel()

	unit := NewCompilationUnit("test.expr")

	unit.WithDataDefs(NewDataDefStringZ("data_hello0", "Hello from test-%d!\n"))

	unit.WithFuncDefs(
		NewFuncDef("hello", NewParam(BaseWord, "arg")).
			WithBlocks(NewBlock("start",
				NewCall(NewValGlobal("printf"),
					NewValGlobal("data_hello0"),
					NewValIdent("arg", BaseWord)).WithVariadic(1),
				NewRet(),
			)),
		NewFuncDef("main").
			WithLinkage(LinkageExport).
			WithRetTy(BaseWord).
			WithBlocks(NewBlock("start",
				NewCall(NewValGlobal("hello"), NewValInteger(33, BaseWord)),
				NewRet(NewValInteger(0, BaseWord)),
			)),
	)

	expected := `# test.expr

function $hello(w %arg) {
@start
	call $printf(l $data_hello0, ..., w %arg)
	ret
}

export function w $main() {
@start
	call $hello(w 33)
	ret 0
}

data $data_hello0 = { b "Hello from test-%d!\n", b 0 }
`

	require.Equal(t, expected, SSA(unit))
}

func TestSSA_DataDef(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name     string
		input    DataDef
		expected string
	}{
		{
			name: "three words and a byte",
			input: NewDataDef("a",
				NewDataInitExt(ExtWord,
					NewDataItemInteger(1),
					NewDataItemInteger(2),
					NewDataItemInteger(3)),
				NewDataInitExt(ExtByte,
					NewDataItemInteger(0)),
			),
			expected: "data $a = { w 1 2 3, b 0 }",
		},
		{
			name:     "a thousand zero initialized bytes",
			input:    NewDataDef("b", NewDataInitZero(1000)),
			expected: "data $b = { z 1000 }",
		},
		{
			name:     "global slot",
			input:    globalDef("glob_x"),
			expected: "data $glob_x = align 8 { z 8 }",
		},
		{
			name:     "bool names",
			input:    boolNamesDef(),
			expected: `data $bool_names = { b "false", b 0, b "true", b 0 }`,
		},
		{
			name:     "escaped string",
			input:    NewDataDefStringZ("s", "tab\there \"q\" \\ \x01"),
			expected: `data $s = { b "tab\there \"q\" \\ \001", b 0 }`,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			actual := tc.input.Accept(NewSSAVisitor())

			require.Equal(t, tc.expected, actual)
		})
	}
}

func TestSSA_Instructions(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name     string
		input    Instruction
		expected string
	}{
		{
			name:     "double constant",
			input:    NewUnop(UnOpCopy, NewValIdent("f", BaseDouble), NewValDouble(-0.25)),
			expected: "%f =d copy d_-0.25",
		},
		{
			name:     "comparison",
			input:    NewBinop("csltl", NewValIdent("c", BaseWord), NewValIdent("a", BaseLong), NewValInteger(3, BaseLong)),
			expected: "%c =w csltl %a, 3",
		},
		{
			name:     "load",
			input:    NewLoad(NewValIdent("x", BaseLong), NewValGlobal("glob_x")),
			expected: "%x =l loadl $glob_x",
		},
		{
			name:     "store",
			input:    NewStore(NewValIdent("v_b", BaseLong), NewValIdent("b", BaseWord)),
			expected: "storew %b, %v_b",
		},
		{
			name:     "alloc",
			input:    NewAlloc(NewValIdent("v_a", BaseLong), 8),
			expected: "%v_a =l alloc8 8",
		},
		{
			name:     "jnz",
			input:    NewJnz(NewValIdent("c", BaseWord), "b1", "b2"),
			expected: "jnz %c, @b1, @b2",
		},
		{
			name:     "call with result",
			input:    NewCall(NewValGlobal("fn_f"), NewValDouble(1)).WithRet(NewValIdent("r", BaseDouble)),
			expected: "%r =d call $fn_f(d d_1)",
		},
		{
			name:     "variadic without extra arguments",
			input:    NewCall(NewValGlobal("printf"), NewValGlobal("str_0")).WithVariadic(1),
			expected: "call $printf(l $str_0, ...)",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, tc.input.Accept(NewSSAVisitor()))
		})
	}
}

func TestBlockTerminated(t *testing.T) {
	t.Parallel()

	require.False(t, NewBlock("a").Terminated())
	require.False(t, NewBlock("a", NewAlloc(NewValIdent("x", BaseLong), 8)).Terminated())
	require.True(t, NewBlock("a", NewRet()).Terminated())
	require.True(t, NewBlock("a", NewJmp("b")).Terminated())
}
