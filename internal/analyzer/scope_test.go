package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/lexer"
	"github.com/corani/exprc/internal/types"
)

func TestEnvironmentBuiltins(t *testing.T) {
	t.Parallel()

	prog := ast.NewProgram(ast.NewStatements(nil, lexer.Location{}), lexer.Location{})
	env := NewEnvironment(prog)

	require.Equal(t, 1, env.ScopeLevel())
	require.Same(t, prog, env.Root().Owner)

	for _, ty := range types.Builtins {
		decl, ok := env.Lookup(ty.Name)
		require.True(t, ok, ty.Name)

		td, ok := decl.(*ast.TypeDecl)
		require.True(t, ok)
		require.Same(t, ty, td.Type)
	}
}

func TestEnvironmentScopes(t *testing.T) {
	t.Parallel()

	var loc lexer.Location

	prog := ast.NewProgram(ast.NewStatements(nil, loc), loc)
	fn := ast.NewFuncDecl("f", nil, nil, ast.NewStatements(nil, loc), loc)
	global := ast.NewVarDecl("x", ast.NewTypename("int", loc), nil, loc)
	local := ast.NewVarDecl("x", ast.NewTypename("float", loc), nil, loc)
	hoisted := ast.NewVarDecl("y", ast.NewTypename("int", loc), nil, loc)

	env := NewEnvironment(prog)
	env.AddLocal("x", global)

	env.WithScope(fn, func() {
		require.Equal(t, 2, env.ScopeLevel())
		require.Same(t, fn, env.Current().Owner)

		env.AddLocal("x", local)
		env.AddRoot("y", hoisted)

		got, ok := env.Lookup("x")
		require.True(t, ok)
		require.Same(t, local, got, "innermost scope wins")

		_, ok = env.Current().Lookup("y")
		require.False(t, ok, "AddRoot bypasses the current scope")
	})

	require.Equal(t, 1, env.ScopeLevel())

	got, ok := env.Lookup("x")
	require.True(t, ok)
	require.Same(t, global, got)

	got, ok = env.Lookup("y")
	require.True(t, ok)
	require.Same(t, hoisted, got)

	_, ok = env.Lookup("missing")
	require.False(t, ok)

	require.Equal(t, []string{"bool", "float", "int", "string", "x", "y"}, env.Root().Names())
}

func TestEnvironmentPopRootPanics(t *testing.T) {
	t.Parallel()

	env := NewEnvironment(ast.NewProgram(nil, lexer.Location{}))

	require.Panics(t, func() { env.Pop() })
}
