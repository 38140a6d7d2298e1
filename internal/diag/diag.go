// Package diag carries user-facing diagnostics from the compiler passes to
// whoever is listening.
package diag

import (
	"context"
	"fmt"
	"sync"

	"tlog.app/go/tlog"

	"github.com/corani/exprc/internal/lexer"
)

type Diagnostic struct {
	Loc lexer.Location
	Msg string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%v: %s", d.Loc, d.Msg)
}

// Sink receives the errors of a single run.
type Sink interface {
	Report(loc lexer.Location, msg string)
	Reportf(loc lexer.Location, format string, args ...any)
	Count() int
}

// Reporter is a Sink that publishes every diagnostic to its subscribers.
type Reporter struct {
	mu     sync.Mutex
	count  int
	nextID int
	subs   map[int]func(Diagnostic)
}

var _ Sink = (*Reporter)(nil)

func NewReporter(subs ...func(Diagnostic)) *Reporter {
	r := &Reporter{
		subs: make(map[int]func(Diagnostic)),
	}

	for _, fn := range subs {
		r.Subscribe(fn)
	}

	return r
}

// Subscribe registers fn and returns a function that removes it again.
func (r *Reporter) Subscribe(fn func(Diagnostic)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.subs[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		delete(r.subs, id)
	}
}

func (r *Reporter) Report(loc lexer.Location, msg string) {
	d := Diagnostic{Loc: loc, Msg: msg}

	r.mu.Lock()
	r.count++

	subs := make([]func(Diagnostic), 0, len(r.subs))
	for id := range r.nextID {
		if fn, ok := r.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(d)
	}
}

func (r *Reporter) Reportf(loc lexer.Location, format string, args ...any) {
	r.Report(loc, fmt.Sprintf(format, args...))
}

func (r *Reporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.count
}

// Reset clears the error count. Subscribers stay registered.
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.count = 0
}

// Collector keeps every diagnostic it is handed, in arrival order.
type Collector struct {
	mu   sync.Mutex
	list []Diagnostic
}

func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.list = append(c.list, d)
}

func (c *Collector) List() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Diagnostic(nil), c.list...)
}

// Messages returns just the message text of each diagnostic.
func (c *Collector) Messages() []string {
	var out []string

	for _, d := range c.List() {
		out = append(out, d.Msg)
	}

	return out
}

// Log returns a subscriber that records diagnostics on the span in ctx.
func Log(ctx context.Context) func(Diagnostic) {
	tr := tlog.SpanFromContext(ctx)

	return func(d Diagnostic) {
		tr.Printw("diagnostic", "loc", d.Loc.String(), "msg", d.Msg)
	}
}
