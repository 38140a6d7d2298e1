package qbe

import "fmt"

// stringPool interns string constants as zero terminated data definitions,
// so each distinct string is emitted once per compilation unit.
type stringPool struct {
	idents map[string]Ident
	defs   []DataDef
}

func newStringPool() *stringPool {
	return &stringPool{
		idents: make(map[string]Ident),
	}
}

// get returns the address of val, creating its data definition on first use.
func (p *stringPool) get(val string) *Val {
	if ident, ok := p.idents[val]; ok {
		return NewValGlobal(ident)
	}

	ident := Ident(fmt.Sprintf("str_%d", len(p.defs)))

	p.idents[val] = ident
	p.defs = append(p.defs, NewDataDefStringZ(ident, val))

	return NewValGlobal(ident)
}

// boolNames is "false\0true\0": the name of b starts at offset b*boolStride.
const (
	boolNames  Ident = "bool_names"
	boolStride       = 6
)

func boolNamesDef() DataDef {
	return NewDataDef(boolNames,
		NewDataInitString("false"),
		NewDataInitExt(ExtByte, NewDataItemInteger(0)),
		NewDataInitString("true"),
		NewDataInitExt(ExtByte, NewDataItemInteger(0)),
	)
}

// globalDef reserves an 8 byte zeroed slot for a program global.
func globalDef(ident Ident) DataDef {
	return NewDataDef(ident, NewDataInitZero(8)).WithAlign(8)
}
