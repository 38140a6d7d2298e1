package analyzer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/diag"
	"github.com/corani/exprc/internal/lexer"
	"github.com/corani/exprc/internal/parser"
	"github.com/corani/exprc/internal/types"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()

	s, err := lexer.NewScanner("test.expr", bytes.NewReader([]byte(src)))
	require.NoError(t, err)

	toks, err := lexer.NewLexer(s).Tokens()
	require.NoError(t, err)

	prog, err := parser.New(toks).Parse()
	require.NoError(t, err)

	return prog
}

func check(t *testing.T, src string) (*ast.Program, Result, []string) {
	t.Helper()

	prog := parse(t, src)

	var msgs diag.Collector

	res := Check(prog, diag.NewReporter(msgs.Add))

	return prog, res, msgs.Messages()
}

func TestCheckErrors(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "initializer type mismatch",
			src:  "var a int = 2.5;",
			want: []string{"cannot assign float to int"},
		},
		{
			name: "mismatched operands propagate the left type",
			src:  `func f() { var a string; a = 1 + "x"; }`,
			want: []string{"mismatched types int + string", "cannot assign int to string"},
		},
		{
			name: "local shadowing a global function",
			src:  "func f() int { return 1; } func g() { var f int; }",
			want: []string{"attempted to redefine 'f'"},
		},
		{
			name: "redeclared global",
			src:  "var x int; var x float;",
			want: []string{"attempted to redefine 'x'"},
		},
		{
			name: "type name as variable",
			src:  "func f() { var int int; }",
			want: []string{"attempted to redefine 'int'"},
		},
		{
			name: "duplicate parameter",
			src:  "func f(a int, a int) { }",
			want: []string{"attempted to redefine 'a'"},
		},
		{
			name: "assignment at global scope",
			src:  "x = 1;",
			want: []string{"assignment outside of function body", "name 'x' not defined"},
		},
		{
			name: "undefined load",
			src:  "print y;",
			want: []string{"name 'y' not found"},
		},
		{
			name: "absent types do not cascade",
			src:  "func f() { print q + 1; }",
			want: []string{"name 'q' not found"},
		},
		{
			name: "invalid type",
			src:  "var a foo;",
			want: []string{"'foo' is not a valid type"},
		},
		{
			name: "assignment to constant",
			src:  "const c = 1; func f() { c = 2; }",
			want: []string{"cannot assign to constant 'c'"},
		},
		{
			name: "assignment to function",
			src:  "func f() { } func g() { f = 1; }",
			want: []string{"cannot assign to function 'f'"},
		},
		{
			name: "type used as value",
			src:  "print int;",
			want: []string{"type 'int' used as a value"},
		},
		{
			name: "unsupported unary operator",
			src:  `func f() { print -"s"; }`,
			want: []string{"unsupported operator '-' for type string"},
		},
		{
			name: "unsupported binary operator",
			src:  "func f() { print true + false; }",
			want: []string{"unsupported operator '+' for type bool"},
		},
		{
			name: "unsupported relational operator",
			src:  "func f() { print 1 && 2; }",
			want: []string{"unsupported operator '&&' for type int"},
		},
		{
			name: "mismatched relational operands",
			src:  `func f() { print 1 < "a"; }`,
			want: []string{"mismatched types int < string", "right operand of '<' has unsupported type string"},
		},
		{
			name: "non-bool conditions",
			src:  "func f() { if 1 { } while 2.0 { } }",
			want: []string{"if condition must be bool, got int", "while condition must be bool, got float"},
		},
		{
			name: "control flow at global scope",
			src:  "if true { } while false { }",
			want: []string{"if statement outside of function body", "while statement outside of function body"},
		},
		{
			name: "call arity and argument types",
			src:  `func f(a int) int { return a; } func g() { f(1, 2); f("x"); }`,
			want: []string{"function 'f' expects 1 arguments, got 2", "argument 1 of 'f': cannot use string as int"},
		},
		{
			name: "call at global scope",
			src:  "func f() { } f();",
			want: []string{"function call outside of function body"},
		},
		{
			name: "undefined function",
			src:  "func g() { h(); }",
			want: []string{"function 'h' not defined"},
		},
		{
			name: "calling a variable",
			src:  "var v int; func g() { v(); }",
			want: []string{"'v' is not a function"},
		},
		{
			name: "void call used as value",
			src:  "func p() { } func g() { print p(); }",
			want: []string{"function 'p' does not return a value"},
		},
		{
			name: "return checks",
			src:  `func a() int { return; } func b() { return 1; } func c() int { return "s"; }`,
			want: []string{
				"missing return value in 'a'",
				"function 'b' has no result, cannot return a value",
				"cannot return string from 'c', want int",
			},
		},
		{
			name: "return at global scope",
			src:  "return 1;",
			want: []string{"return outside of function body"},
		},
		{
			name: "nested function",
			src:  "func f() { func g() { } }",
			want: []string{"nested function declarations are not supported"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, res, msgs := check(t, tc.src)

			require.Equal(t, tc.want, msgs)
			require.Equal(t, len(tc.want), res.Errors)
		})
	}
}

func TestCheckAnnotations(t *testing.T) {
	t.Parallel()

	prog, res, msgs := check(t, `
const k = 2;
var g float;
func f(a int) int {
	var b int = a + k;
	if b > 3 && true {
		b = f(b - 1);
	}
	return b;
}
`)
	require.Empty(t, msgs)
	require.Zero(t, res.Errors)
	require.Same(t, res.Scope, prog.Scope)
	require.Equal(t, []string{"bool", "f", "float", "g", "int", "k", "string"}, res.Scope.Names())

	stmts := prog.Body.List

	k := stmts[0].(*ast.ConstDecl)
	require.Same(t, types.Int, k.CheckType)
	require.Equal(t, ast.GlobalLevel, k.ScopeLevel)

	g := stmts[1].(*ast.VarDecl)
	require.Same(t, types.Float, g.CheckType)

	def, ok := g.Value.(*ast.Literal)
	require.True(t, ok, "missing initializer is synthesized")
	require.Equal(t, float64(0), def.Value)
	require.Same(t, types.Float, def.CheckType)

	f := stmts[2].(*ast.FuncDecl)
	require.Same(t, types.Int, f.CheckType)
	require.Equal(t, ast.GlobalLevel, f.ScopeLevel)
	require.Equal(t, 2, f.Params[0].ScopeLevel)

	decl, ok := prog.Scope.Lookup("f")
	require.True(t, ok)
	require.Same(t, f, decl)

	b := f.Body.List[0].(*ast.VarDecl)
	require.Equal(t, 2, b.ScopeLevel)

	sum := b.Value.(*ast.Binary)
	require.Same(t, types.Int, sum.CheckType)
	require.Same(t, f.Params[0], sum.Left.(*ast.Load).Target.Decl)
	require.Same(t, k, sum.Right.(*ast.Load).Target.Decl)

	cond := f.Body.List[1].(*ast.If).Cond.(*ast.Relational)
	require.Same(t, types.Bool, cond.CheckType)

	assign := f.Body.List[1].(*ast.If).Then.List[0].(*ast.Assign)
	require.Same(t, b, assign.Target.Decl)

	call := assign.Value.(*ast.Call)
	require.Same(t, f, call.Func)
	require.Same(t, types.Int, call.CheckType)

	ret := f.Body.List[2].(*ast.Return)
	require.Same(t, f, ret.Func)
}

func TestCheckRunsAreIndependent(t *testing.T) {
	t.Parallel()

	sink := diag.NewReporter()

	first := Check(parse(t, "print a;"), sink)
	second := Check(parse(t, "print a; print b;"), sink)
	clean := Check(parse(t, "print 1;"), sink)

	require.Equal(t, 1, first.Errors)
	require.Equal(t, 2, second.Errors)
	require.Zero(t, clean.Errors)
	require.Equal(t, 3, sink.Count())
}

func TestCheckReportsLocations(t *testing.T) {
	t.Parallel()

	var msgs diag.Collector

	Check(parse(t, "func f() {\n  print 1 + \"a\";\n}"), diag.NewReporter(msgs.Add))

	list := msgs.List()
	require.Len(t, list, 1)
	require.Equal(t, lexer.Location{Filename: "test.expr", Line: 2, Column: 11}, list[0].Loc)
}

func TestCheckUnknownLiteralPanics(t *testing.T) {
	t.Parallel()

	var loc lexer.Location

	prog := ast.NewProgram(ast.NewStatements([]ast.Statement{
		ast.NewPrint(ast.NewLiteral(3, loc), loc),
	}, loc), loc)

	defer func() {
		r := recover()
		_, ok := r.(*diag.InternalError)
		require.True(t, ok, "expected an internal error, got %v", r)
	}()

	Check(prog, diag.NewReporter())
}

func TestCheckRedefinitionKeepsFirstDeclaration(t *testing.T) {
	t.Parallel()

	prog, res, msgs := check(t, "var a int = 1; var a float = 2.0; func f() { a = 3; } func g() { a = 4.0; }")

	require.Equal(t, []string{"attempted to redefine 'a'", "cannot assign float to int"}, msgs)

	first, ok := prog.Body.List[0].(*ast.VarDecl)
	require.True(t, ok)

	decl, ok := res.Scope.Lookup("a")
	require.True(t, ok)
	require.Same(t, first, decl)
	require.Same(t, types.Int, decl.Decl().CheckType)

	f, ok := prog.Body.List[2].(*ast.FuncDecl)
	require.True(t, ok)

	assign, ok := f.Body.List[0].(*ast.Assign)
	require.True(t, ok)
	require.Same(t, first, assign.Target.Decl)
	require.Same(t, types.Int, assign.Target.CheckType)
}
