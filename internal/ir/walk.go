package ir

import "github.com/corani/exprc/internal/diag"

// Each visitor interface is optional; a Walker calls whichever of them its
// visitor implements.
type (
	BasicVisitor interface {
		VisitBasic(w *Walker, b *BasicBlock)
	}

	// IfVisitor must walk the branches itself, true before false.
	IfVisitor interface {
		VisitIf(w *Walker, b *IfBlock)
	}

	// WhileVisitor must walk the body itself.
	WhileVisitor interface {
		VisitWhile(w *Walker, b *WhileBlock)
	}
)

// Walker visits each reachable block once, in control order: a block, then
// its branches or loop body, then its Next.
type Walker struct {
	v    any
	seen map[*BasicBlock]bool
}

func NewWalker(v any) *Walker {
	return &Walker{
		v:    v,
		seen: make(map[*BasicBlock]bool),
	}
}

// Walk visits the chain starting at b. It stops at nil or at a block that
// was already visited, which is how loop back-edges terminate.
func (w *Walker) Walk(b Block) {
	for b != nil {
		base := b.Base()
		if w.seen[base] {
			return
		}

		w.seen[base] = true

		switch b := b.(type) {
		case *BasicBlock:
			if h, ok := w.v.(BasicVisitor); ok {
				h.VisitBasic(w, b)
			}
		case *IfBlock:
			if h, ok := w.v.(IfVisitor); ok {
				h.VisitIf(w, b)
			} else {
				w.Walk(b.True)
				w.Walk(b.False)
			}
		case *WhileBlock:
			if h, ok := w.v.(WhileVisitor); ok {
				h.VisitWhile(w, b)
			} else {
				w.Walk(b.Body)
			}
		default:
			panic(diag.Internal("unknown block kind %T", b))
		}

		b = base.Next
	}
}

// Walk visits every block reachable from entry with v.
func Walk(entry Block, v any) {
	NewWalker(v).Walk(entry)
}

type collector struct {
	blocks []Block
}

func (c *collector) VisitBasic(_ *Walker, b *BasicBlock) {
	c.blocks = append(c.blocks, b)
}

func (c *collector) VisitIf(w *Walker, b *IfBlock) {
	c.blocks = append(c.blocks, b)
	w.Walk(b.True)
	w.Walk(b.False)
}

func (c *collector) VisitWhile(w *Walker, b *WhileBlock) {
	c.blocks = append(c.blocks, b)
	w.Walk(b.Body)
}

// Blocks returns the blocks reachable from entry in walk order.
func Blocks(entry Block) []Block {
	var c collector

	Walk(entry, &c)

	return c.blocks
}
