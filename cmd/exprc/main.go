package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/corani/exprc/internal/compiler"
	"github.com/corani/exprc/internal/loader"
)

func withExt(filename, ext string) string {
	// replace the existing extension with the new one
	current := filepath.Ext(filename)

	if current != "" {
		return filename[:len(filename)-len(current)] + ext
	}

	return filename + ext
}

func main() {
	tokensCmd := &cli.Command{
		Name:        "tokens",
		Description: "print the tokens of a source file",
		Action:      tokensAct,
		Args:        cli.Args{},
	}

	astCmd := &cli.Command{
		Name:        "ast",
		Description: "print the syntax tree of a source file",
		Action:      astAct,
		Args:        cli.Args{},
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "report semantic errors",
		Action:      checkAct,
		Args:        cli.Args{},
	}

	irCmd := &cli.Command{
		Name:        "ir",
		Description: "print the three-address code",
		Action:      irAct,
		Args:        cli.Args{},
	}

	ssaCmd := &cli.Command{
		Name:        "ssa",
		Description: "print QBE IL",
		Action:      ssaAct,
		Args:        cli.Args{},
	}

	llvmCmd := &cli.Command{
		Name:        "llvm",
		Description: "print LLVM IR",
		Action:      llvmAct,
		Args:        cli.Args{},
	}

	buildCmd := &cli.Command{
		Name:        "build",
		Description: "compile to an executable through QBE and cc",
		Action:      buildAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", "", "executable path, defaults to out/<name> next to the source"),
			cli.NewFlag("run", false, "run the executable after building it"),
		},
	}

	app := &cli.Command{
		Name:        "exprc",
		Description: "exprc compiles programs in a small expression language",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("O", false, "fold constant expressions"),
			cli.NewFlag("verbosity,v", "", "tlog verbosity topics, e.g. dump_ir,dump_ssa"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			tokensCmd,
			astCmd,
			checkCmd,
			irCmd,
			ssaCmd,
			llvmCmd,
			buildCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func rootContext() context.Context {
	return tlog.ContextWithSpan(context.Background(), tlog.Root())
}

func options(c *cli.Command) compiler.Options {
	return compiler.Options{
		Fold: c.Bool("O"),
	}
}

// compileAll compiles every argument and hands the results to fn.
func compileAll(c *cli.Command, fn func(res *compiler.Result) error) error {
	ctx := rootContext()

	if len(c.Args) == 0 {
		return errors.New("no source files")
	}

	for _, a := range c.Args {
		res, err := compiler.CompileFile(ctx, a, options(c))
		if res != nil {
			for _, d := range res.Diagnostics {
				fmt.Fprintln(os.Stderr, d)
			}
		}

		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		if err := fn(res); err != nil {
			return errors.Wrap(err, "%v", a)
		}
	}

	return nil
}

func tokensAct(c *cli.Command) error {
	for _, a := range c.Args {
		f, err := os.Open(a)
		if err != nil {
			return errors.Wrap(err, "open")
		}

		tokens, err := loader.Lex(a, f)
		f.Close()

		if err != nil {
			return errors.Wrap(err, "%v", a)
		}

		for _, tok := range tokens {
			fmt.Printf("%v: %v\n", tok.Location, tok)
		}
	}

	return nil
}

func astAct(c *cli.Command) error {
	ldr := loader.NewLoader()

	for _, a := range c.Args {
		src, err := ldr.Load(a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		fmt.Println(src.Program)
	}

	return nil
}

func checkAct(c *cli.Command) error {
	return compileAll(c, func(res *compiler.Result) error {
		fmt.Printf("%s: ok\n", res.Name)

		return nil
	})
}

func irAct(c *cli.Command) error {
	return compileAll(c, func(res *compiler.Result) error {
		fmt.Print(res.Code)

		return nil
	})
}

func ssaAct(c *cli.Command) error {
	return compileAll(c, func(res *compiler.Result) error {
		fmt.Print(res.SSA())

		return nil
	})
}

func llvmAct(c *cli.Command) error {
	return compileAll(c, func(res *compiler.Result) error {
		out, err := res.LLVM()
		if err != nil {
			return err
		}

		fmt.Print(out)

		return nil
	})
}

func buildAct(c *cli.Command) error {
	ctx := rootContext()

	return compileAll(c, func(res *compiler.Result) error {
		bin := c.String("output")
		if bin == "" {
			// output directory is relative to the source file
			bin = filepath.Join(filepath.Dir(res.Name), "out", withExt(filepath.Base(res.Name), ""))
		}

		if err := res.Build(ctx, bin); err != nil {
			return err
		}

		if !c.Bool("run") {
			return nil
		}

		if !filepath.IsAbs(bin) && filepath.Dir(bin) == "." {
			bin = "./" + bin
		}

		// run and check the exit code
		cmd := exec.CommandContext(ctx, bin)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				fmt.Printf("Program exited with code %d\n", exitErr.ExitCode())

				os.Exit(exitErr.ExitCode())
			}

			return errors.Wrap(err, "run %v", bin)
		}

		return nil
	})
}
