package ir

import (
	"fmt"

	"github.com/corani/exprc/internal/types"
)

// Block is one node of a control flow graph. All kinds share a BasicBlock,
// reached through Base.
type Block interface {
	Base() *BasicBlock
}

var _ = []Block{
	(*BasicBlock)(nil),
	(*IfBlock)(nil),
	(*WhileBlock)(nil),
}

// BasicBlock is a straight-line run of instructions followed by Next.
type BasicBlock struct {
	ID           int
	Instructions []Instruction
	Next         Block
}

func NewBasicBlock(id int) *BasicBlock {
	return &BasicBlock{ID: id}
}

func (b *BasicBlock) Base() *BasicBlock { return b }

func (b *BasicBlock) Append(instrs ...Instruction) {
	b.Instructions = append(b.Instructions, instrs...)
}

func (b *BasicBlock) Label() string {
	return fmt.Sprintf("b%d", b.ID)
}

// IfBlock holds the instructions computing CondVar. Control continues at True
// or False (False is nil without an else); both branches rejoin at Next.
type IfBlock struct {
	BasicBlock
	CondVar string
	True    Block
	False   Block
}

func NewIfBlock(id int) *IfBlock {
	return &IfBlock{BasicBlock: BasicBlock{ID: id}}
}

// WhileBlock holds the instructions computing CondVar and runs on every
// iteration. The last block of Body links back to the WhileBlock through its
// Next; control leaves the loop at Next.
type WhileBlock struct {
	BasicBlock
	CondVar string
	Body    Block
}

func NewWhileBlock(id int) *WhileBlock {
	return &WhileBlock{BasicBlock: BasicBlock{ID: id}}
}

type Param struct {
	Name string
	Type *types.Type
}

// Function is the graph of one source function, or of the global code.
type Function struct {
	Name   string
	Params []Param
	Result *types.Type // nil when the function returns nothing
	Entry  Block
}

// Variable is a global declared by the program.
type Variable struct {
	Name string
	Type *types.Type
}

// InitFunc is the name of the function holding the global code.
const InitFunc = "init"

// Program is the result of one generation run.
type Program struct {
	Init    *Function
	Funcs   []*Function
	Globals []Variable
}

func (p *Program) Func(name string) (*Function, bool) {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f, true
		}
	}

	return nil, false
}

func (p *Program) Global(name string) (Variable, bool) {
	for _, g := range p.Globals {
		if g.Name == name {
			return g, true
		}
	}

	return Variable{}, false
}
