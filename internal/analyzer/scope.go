package analyzer

import (
	"slices"

	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/diag"
	"github.com/corani/exprc/internal/types"
)

// Scope maps names to declarations. Owner is the node that introduced the
// scope: the *ast.Program for the root scope, an *ast.FuncDecl otherwise.
type Scope struct {
	Owner   ast.Node
	symbols map[string]ast.Decl
}

var _ ast.SymbolTable = (*Scope)(nil)

func NewScope(owner ast.Node) *Scope {
	return &Scope{
		Owner:   owner,
		symbols: make(map[string]ast.Decl),
	}
}

// Lookup only searches this scope.
func (s *Scope) Lookup(name string) (ast.Decl, bool) {
	decl, ok := s.symbols[name]
	return decl, ok
}

// Names returns the names declared in this scope, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Environment is the stack of scopes visible at a point of the program.
// The bottom scope is the root scope, which holds the builtin types and the
// global declarations.
type Environment struct {
	scopes []*Scope
}

// NewEnvironment returns an environment whose root scope is owned by prog
// and already holds the builtin types.
func NewEnvironment(prog *ast.Program) *Environment {
	e := &Environment{}
	e.Push(prog)

	for _, t := range types.Builtins {
		e.AddRoot(t.Name, ast.NewTypeDecl(t))
	}

	return e
}

func (e *Environment) Push(owner ast.Node) {
	e.scopes = append(e.scopes, NewScope(owner))
}

// Pop removes and returns the innermost scope. The root scope can't be
// popped.
func (e *Environment) Pop() *Scope {
	if len(e.scopes) <= 1 {
		panic(diag.Internal("pop of the root scope"))
	}

	top := e.scopes[len(e.scopes)-1]
	e.scopes = e.scopes[:len(e.scopes)-1]

	return top
}

// WithScope runs fn with a fresh scope owned by owner pushed.
func (e *Environment) WithScope(owner ast.Node, fn func()) {
	e.Push(owner)
	defer e.Pop()

	fn()
}

// AddLocal declares name in the innermost scope.
func (e *Environment) AddLocal(name string, decl ast.Decl) {
	e.Current().symbols[name] = decl
}

// AddRoot declares name in the root scope.
func (e *Environment) AddRoot(name string, decl ast.Decl) {
	e.Root().symbols[name] = decl
}

// Lookup searches from the innermost scope outwards.
func (e *Environment) Lookup(name string) (ast.Decl, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if decl, ok := e.scopes[i].symbols[name]; ok {
			return decl, true
		}
	}

	return nil, false
}

// ScopeLevel is the number of scopes on the stack; 1 means global.
func (e *Environment) ScopeLevel() int {
	return len(e.scopes)
}

func (e *Environment) Root() *Scope {
	return e.scopes[0]
}

func (e *Environment) Current() *Scope {
	return e.scopes[len(e.scopes)-1]
}
