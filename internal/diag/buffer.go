package diag

import (
	"fmt"
	"io"

	"nikand.dev/go/heap"
)

// Buffer holds diagnostics until Flush, then writes them in source order.
// Diagnostics at the same position keep their arrival order.
type Buffer struct {
	q   heap.Heap[queued]
	seq int
}

type queued struct {
	d   Diagnostic
	seq int
}

func NewBuffer() *Buffer {
	return &Buffer{
		q: heap.Heap[queued]{Less: queuedLess},
	}
}

func (b *Buffer) Add(d Diagnostic) {
	b.q.Push(queued{d: d, seq: b.seq})
	b.seq++
}

func (b *Buffer) Len() int {
	return b.q.Len()
}

// Drain empties the buffer and returns its contents in order.
func (b *Buffer) Drain() []Diagnostic {
	out := make([]Diagnostic, 0, b.q.Len())

	for b.q.Len() != 0 {
		out = append(out, b.q.Pop().d)
	}

	return out
}

func (b *Buffer) Flush(w io.Writer) error {
	for _, d := range b.Drain() {
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
	}

	return nil
}

func queuedLess(d []queued, i, j int) bool {
	a, b := d[i].d.Loc, d[j].d.Loc

	switch {
	case a.Filename != b.Filename:
		return a.Filename < b.Filename
	case a.Line != b.Line:
		return a.Line < b.Line
	case a.Column != b.Column:
		return a.Column < b.Column
	default:
		return d[i].seq < d[j].seq
	}
}
