// Package loader reads source files into tokens and syntax trees.
package loader

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"tlog.app/go/errors"

	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/lexer"
	"github.com/corani/exprc/internal/parser"
)

// Source is a loaded file. Program is nil when the file has a syntax error.
type Source struct {
	Path    string
	Text    []byte
	Tokens  []lexer.Token
	Program *ast.Program
}

type Loader struct {
	visited map[string]*Source
}

func NewLoader() *Loader {
	return &Loader{
		visited: make(map[string]*Source),
	}
}

// Load lexes and parses the given file. A file is read once; later loads of
// the same path return the cached source.
func (l *Loader) Load(filename string) (*Source, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, errors.Wrap(err, "resolve %v", filename)
	}

	if src, ok := l.visited[absPath]; ok {
		return src, nil // already parsed
	}

	text, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	src, err := Parse(filename, bytes.NewReader(text))
	if src != nil {
		src.Path = absPath
		src.Text = text
		l.visited[absPath] = src
	}

	return src, err
}

// Lex reads r into tokens. Locations report name as the file.
func Lex(name string, r io.Reader) ([]lexer.Token, error) {
	scanner, err := lexer.NewScanner(name, r)
	if err != nil {
		return nil, errors.Wrap(err, "scan %v", name)
	}

	tokens, err := lexer.NewLexer(scanner).Tokens()
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}

	return tokens, nil
}

// Parse lexes and parses r. When only parsing fails, the returned source
// still carries the tokens.
func Parse(name string, r io.Reader) (*Source, error) {
	tokens, err := Lex(name, r)
	if err != nil {
		return nil, err
	}

	src := &Source{
		Path:   name,
		Tokens: tokens,
	}

	src.Program, err = parser.New(tokens).Parse()
	if err != nil {
		return src, errors.Wrap(err, "parse")
	}

	return src, nil
}
