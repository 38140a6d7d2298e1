package lexer

import (
	"fmt"

	"tlog.app/go/errors"
)

type Location struct {
	Filename     string
	Line, Column int
}

func (l Location) String() string {
	if l.Filename == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}

	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
}

// Errorf returns an error prefixed with the location.
func (l Location) Errorf(format string, args ...any) error {
	return errors.New("%v: "+format, append([]any{l}, args...)...)
}
