// Package compiler runs the passes of the middle end in order: check,
// optionally fold, then generate code.
package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/corani/exprc/internal/analyzer"
	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/backend/llvm"
	"github.com/corani/exprc/internal/backend/qbe"
	"github.com/corani/exprc/internal/codegen"
	"github.com/corani/exprc/internal/diag"
	"github.com/corani/exprc/internal/fold"
	"github.com/corani/exprc/internal/ir"
	"github.com/corani/exprc/internal/loader"
)

// ErrCheck is returned when the program has semantic errors. The errors
// themselves are in Result.Diagnostics.
var ErrCheck = errors.New("program has errors")

type Options struct {
	Fold bool // fold constant expressions before generating code
}

type Result struct {
	Name        string
	Program     *ast.Program
	Diagnostics []diag.Diagnostic // in source order
	Folded      int               // rewrites made by the folder
	Code        *ir.Program       // nil unless the program checked
}

// CompileFile loads filename and compiles it.
func CompileFile(ctx context.Context, filename string, opts Options) (*Result, error) {
	src, err := loader.NewLoader().Load(filename)
	if err != nil {
		return nil, errors.Wrap(err, "load %v", filename)
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(src.Text), "name", filename)

	return Compile(ctx, filename, src.Program, opts)
}

// Compile checks prog and generates its code. Code generation only runs
// when checking found no errors; otherwise the error wraps ErrCheck.
// Internal compiler errors are returned, not panicked.
func Compile(ctx context.Context, name string, prog *ast.Program, opts Options) (res *Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name, "fold", opts.Fold)
	defer tr.Finish("err", &err)

	defer diag.Recover(&err)

	res = &Result{
		Name:    name,
		Program: prog,
	}

	buf := diag.NewBuffer()

	checked := analyzer.Check(prog, diag.NewReporter(buf.Add, diag.Log(ctx)))
	res.Diagnostics = buf.Drain()

	if checked.Errors != 0 {
		return res, errors.Wrap(ErrCheck, "%d errors", checked.Errors)
	}

	if tr.If("dump_ast") {
		tr.Printw("checked", "ast", prog.String())
	}

	if opts.Fold {
		res.Folded = fold.Program(prog)

		tr.Printw("folded", "rewrites", res.Folded)
	}

	res.Code = codegen.Generate(prog)

	if tr.If("dump_ir") {
		tr.Printw("code", "ir", res.Code.String())
	}

	return res, nil
}

// SSA lowers the generated code to QBE IL.
func (r *Result) SSA() string {
	return qbe.SSA(qbe.Lower(r.Code, r.Name))
}

// LLVM lowers the generated code to LLVM assembly.
func (r *Result) LLVM() (string, error) {
	var sb strings.Builder

	if err := llvm.Write(&sb, llvm.Lower(r.Code, r.Name)); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// Build turns the generated code into the executable bin, going through
// QBE and the system C compiler. The assembly is kept next to bin.
func (r *Result) Build(ctx context.Context, bin string) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "build", "bin", bin)
	defer tr.Finish("err", &err)

	if dir := filepath.Dir(bin); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}

	asm := bin + ".s"

	if err := qbe.GenerateAssembly(ctx, qbe.Lower(r.Code, r.Name), asm); err != nil {
		return errors.Wrap(err, "generate assembly")
	}

	if err := qbe.Compile(ctx, asm, bin); err != nil {
		return errors.Wrap(err, "link")
	}

	return nil
}
