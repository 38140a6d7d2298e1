package diag

import (
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
)

// InternalError is a compiler bug, not a problem with the input program.
type InternalError struct {
	Msg string
	PC  loc.PC
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error: %s (raised at %v)", e.Msg, e.PC)
}

// Internal builds an InternalError that remembers its caller. Passes panic
// with it; Recover turns it back into an error at the pipeline boundary.
func Internal(format string, args ...any) *InternalError {
	return &InternalError{
		Msg: fmt.Sprintf(format, args...),
		PC:  loc.Caller(1),
	}
}

// Recover converts a panicking *InternalError into *errp. Other panics are
// propagated.
func Recover(errp *error) {
	p := recover()
	if p == nil {
		return
	}

	ie, ok := p.(*InternalError)
	if !ok {
		panic(p)
	}

	*errp = errors.Wrap(ie, "compile")
}
