package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corani/exprc/internal/types"
)

// Opcode names an instruction. Operator opcodes come from the type registry.
type Opcode = types.Opcode

const (
	OpLoadImm     Opcode = "loadi"
	OpLoad        Opcode = "load"
	OpNewVarLocal Opcode = "newvar_local"
	OpNewVarGlob  Opcode = "newvar_global"
	OpStoreLocal  Opcode = "store_local"
	OpStoreGlobal Opcode = "store_global"
	OpPrint       Opcode = "print"
	OpNewFrame    Opcode = "new_frame"
	OpStoreFrame  Opcode = "store_frame"
	OpCall        Opcode = "call"
	OpDelFrame    Opcode = "del_frame"
	OpReturn      Opcode = "ret"
)

// Scope says where a named variable lives.
type Scope int

const (
	Local Scope = iota
	Global
)

func (s Scope) String() string {
	if s == Global {
		return "global"
	}

	return "local"
}

type Instruction interface {
	Op() Opcode
	String() string
}

var _ = []Instruction{
	(*LoadImm)(nil),
	(*Load)(nil),
	(*Declare)(nil),
	(*Store)(nil),
	(*Binary)(nil),
	(*Unary)(nil),
	(*Print)(nil),
	(*NewFrame)(nil),
	(*StoreFrame)(nil),
	(*Call)(nil),
	(*DelFrame)(nil),
	(*Return)(nil),
}

// Const is a literal value. Value is int64, float64, string or bool.
type Const struct {
	Type  *types.Type
	Value any
}

func (c Const) String() string {
	switch v := c.Value.(type) {
	case string:
		return strconv.Quote(v)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}

		return s
	default:
		return fmt.Sprint(v)
	}
}

// LoadImm puts a constant into a temporary.
type LoadImm struct {
	Value Const
	Dst   string
}

func (*LoadImm) Op() Opcode { return OpLoadImm }

func (i *LoadImm) String() string {
	return fmt.Sprintf("%s %v, %s", i.Op(), i.Value, i.Dst)
}

// Load reads a named variable or parameter into a temporary.
type Load struct {
	Type *types.Type
	Name string
	Dst  string
}

func (*Load) Op() Opcode { return OpLoad }

func (i *Load) String() string {
	return fmt.Sprintf("%s %s, %s", i.Op(), i.Name, i.Dst)
}

// Declare introduces a variable and initializes it from Src.
type Declare struct {
	Scope Scope
	Type  *types.Type
	Src   string
	Name  string
}

func (i *Declare) Op() Opcode {
	if i.Scope == Global {
		return OpNewVarGlob
	}

	return OpNewVarLocal
}

func (i *Declare) String() string {
	return fmt.Sprintf("%s %s, %s", i.Op(), i.Src, i.Name)
}

type Store struct {
	Scope Scope
	Type  *types.Type
	Src   string
	Name  string
}

func (i *Store) Op() Opcode {
	if i.Scope == Global {
		return OpStoreGlobal
	}

	return OpStoreLocal
}

func (i *Store) String() string {
	return fmt.Sprintf("%s %s, %s", i.Op(), i.Src, i.Name)
}

// Binary covers both arithmetic and relational operators. Type is the
// operand type; the result of a relational operator is always bool.
type Binary struct {
	Opcode Opcode
	Type   *types.Type
	Left   string
	Right  string
	Dst    string
}

func (i *Binary) Op() Opcode { return i.Opcode }

func (i *Binary) String() string {
	return fmt.Sprintf("%s %s, %s, %s", i.Op(), i.Left, i.Right, i.Dst)
}

type Unary struct {
	Opcode Opcode
	Type   *types.Type
	Src    string
	Dst    string
}

func (i *Unary) Op() Opcode { return i.Opcode }

func (i *Unary) String() string {
	return fmt.Sprintf("%s %s, %s", i.Op(), i.Src, i.Dst)
}

type Print struct {
	Type *types.Type
	Src  string
}

func (*Print) Op() Opcode { return OpPrint }

func (i *Print) String() string {
	return fmt.Sprintf("%s %s", i.Op(), i.Src)
}

// NewFrame opens the argument frame of the next call.
type NewFrame struct{}

func (*NewFrame) Op() Opcode { return OpNewFrame }

func (i *NewFrame) String() string { return string(i.Op()) }

// StoreFrame binds Src to the parameter Param of the innermost open frame.
type StoreFrame struct {
	Type  *types.Type
	Src   string
	Param string
}

func (*StoreFrame) Op() Opcode { return OpStoreFrame }

func (i *StoreFrame) String() string {
	return fmt.Sprintf("%s %s, %s", i.Op(), i.Src, i.Param)
}

// Call invokes Func with the innermost open frame. Dst is empty when the
// result is not used.
type Call struct {
	Func string
	Type *types.Type
	Dst  string
}

func (*Call) Op() Opcode { return OpCall }

func (i *Call) String() string {
	if i.Dst == "" {
		return fmt.Sprintf("%s %s", i.Op(), i.Func)
	}

	return fmt.Sprintf("%s %s, %s", i.Op(), i.Func, i.Dst)
}

type DelFrame struct{}

func (*DelFrame) Op() Opcode { return OpDelFrame }

func (i *DelFrame) String() string { return string(i.Op()) }

// Return leaves the current function. Src is empty for a bare return.
type Return struct {
	Type *types.Type
	Src  string
}

func (*Return) Op() Opcode { return OpReturn }

func (i *Return) String() string {
	if i.Src == "" {
		return string(i.Op())
	}

	return fmt.Sprintf("%s %s", i.Op(), i.Src)
}
