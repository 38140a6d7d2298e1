package qbe

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"modernc.org/libqbe"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// SSA renders the unit as QBE IL text.
func SSA(unit *CompilationUnit) string {
	return unit.Accept(NewSSAVisitor())
}

// WriteSSA writes the QBE IL of unit to w.
func WriteSSA(w io.Writer, unit *CompilationUnit) error {
	_, err := io.WriteString(w, SSA(unit))

	return err
}

// GenerateAssembly runs the QBE IL of unit through libqbe for the host
// target and writes the assembly to asmfile.
func GenerateAssembly(ctx context.Context, unit *CompilationUnit, asmfile string) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "qbe: generate assembly", "asm", asmfile)
	defer tr.Finish("err", &err)

	ssa := SSA(unit)

	if tr.If("dump_ssa") {
		tr.Printw("ssa", "text", ssa)
	}

	// The assembly always targets the host, since Compile links with the
	// host's cc.
	goos := runtime.GOOS
	if goos == "android" {
		goos = "linux" // For Termux support on Android
	}

	var w bytes.Buffer

	if err := libqbe.Main(
		libqbe.DefaultTarget(goos, runtime.GOARCH),
		unit.Source, strings.NewReader(ssa), &w, nil,
	); err != nil {
		return errors.Wrap(err, "libqbe")
	}

	if err := os.WriteFile(asmfile, w.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "write assembly")
	}

	return nil
}

// Compile assembles and links asm into bin with the system C compiler.
func Compile(ctx context.Context, asm, bin string, flags ...string) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "qbe: compile", "asm", asm, "bin", bin)
	defer tr.Finish("err", &err)

	args := append([]string{"-o", bin, asm}, flags...)

	tr.Printw("cc", "args", args)

	if out, err := exec.CommandContext(ctx, "cc", args...).CombinedOutput(); err != nil {
		return errors.Wrap(err, "cc failed: %s", out)
	}

	return nil
}
