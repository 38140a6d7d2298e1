// Package types holds the builtin type registry. Each builtin type is a
// singleton; types are compared by identity.
package types

import "math"

// Opcode names the instruction an operator lowers to.
type Opcode string

const (
	OpAdd   Opcode = "add"
	OpSub   Opcode = "sub"
	OpMul   Opcode = "mul"
	OpIDiv  Opcode = "idiv"
	OpFDiv  Opcode = "fdiv"
	OpEq    Opcode = "eq"
	OpNeq   Opcode = "neq"
	OpLt    Opcode = "lt"
	OpLte   Opcode = "lte"
	OpGt    Opcode = "gt"
	OpGte   Opcode = "gte"
	OpAnd   Opcode = "and"
	OpOr    Opcode = "or"
	OpUPlus Opcode = "uadd"
	OpUNeg  Opcode = "uneg"
	OpNot   Opcode = "not"
)

// BinaryFold computes the constant result of a binary or relational
// operator. ok is false when the operands can't be folded (e.g. integer
// division by zero).
type BinaryFold func(a, b any) (result any, ok bool)

// UnaryFold computes the constant result of a unary operator.
type UnaryFold func(a any) (result any, ok bool)

type Type struct {
	Name    string
	Default any

	BinaryOps map[string]Opcode
	UnaryOps  map[string]Opcode
	RelOps    map[string]Opcode

	BinaryFolds map[string]BinaryFold
	UnaryFolds  map[string]UnaryFold
	RelFolds    map[string]BinaryFold
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	return t.Name
}

// SupportsBinary reports whether op is an arithmetic operator of t.
func (t *Type) SupportsBinary(op string) bool {
	_, ok := t.BinaryOps[op]
	return ok
}

func (t *Type) SupportsUnary(op string) bool {
	_, ok := t.UnaryOps[op]
	return ok
}

func (t *Type) SupportsRel(op string) bool {
	_, ok := t.RelOps[op]
	return ok
}

var (
	Int = &Type{
		Name:    "int",
		Default: int64(0),
		BinaryOps: map[string]Opcode{
			"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpIDiv,
		},
		UnaryOps: map[string]Opcode{
			"+": OpUPlus, "-": OpUNeg,
		},
		RelOps: map[string]Opcode{
			"==": OpEq, "!=": OpNeq, "<": OpLt, "<=": OpLte, ">": OpGt, ">=": OpGte,
		},
		BinaryFolds: map[string]BinaryFold{
			"+": ints(func(a, b int64) (any, bool) { return a + b, true }),
			"-": ints(func(a, b int64) (any, bool) { return a - b, true }),
			"*": ints(func(a, b int64) (any, bool) { return a * b, true }),
			"/": ints(func(a, b int64) (any, bool) {
				if b == 0 || (a == math.MinInt64 && b == -1) {
					return nil, false
				}

				return a / b, true
			}),
		},
		UnaryFolds: map[string]UnaryFold{
			"+": func(a any) (any, bool) { v, ok := a.(int64); return v, ok },
			"-": func(a any) (any, bool) { v, ok := a.(int64); return -v, ok },
		},
		RelFolds: map[string]BinaryFold{
			"==": ints(func(a, b int64) (any, bool) { return a == b, true }),
			"!=": ints(func(a, b int64) (any, bool) { return a != b, true }),
			"<":  ints(func(a, b int64) (any, bool) { return a < b, true }),
			"<=": ints(func(a, b int64) (any, bool) { return a <= b, true }),
			">":  ints(func(a, b int64) (any, bool) { return a > b, true }),
			">=": ints(func(a, b int64) (any, bool) { return a >= b, true }),
		},
	}

	Float = &Type{
		Name:    "float",
		Default: float64(0),
		BinaryOps: map[string]Opcode{
			"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpFDiv,
		},
		UnaryOps: map[string]Opcode{
			"+": OpUPlus, "-": OpUNeg,
		},
		RelOps: map[string]Opcode{
			"==": OpEq, "!=": OpNeq, "<": OpLt, "<=": OpLte, ">": OpGt, ">=": OpGte,
		},
		BinaryFolds: map[string]BinaryFold{
			"+": floats(func(a, b float64) (any, bool) { return a + b, true }),
			"-": floats(func(a, b float64) (any, bool) { return a - b, true }),
			"*": floats(func(a, b float64) (any, bool) { return a * b, true }),
			"/": floats(func(a, b float64) (any, bool) { return a / b, b != 0 }),
		},
		UnaryFolds: map[string]UnaryFold{
			"+": func(a any) (any, bool) { v, ok := a.(float64); return v, ok },
			"-": func(a any) (any, bool) { v, ok := a.(float64); return -v, ok },
		},
		RelFolds: map[string]BinaryFold{
			"==": floats(func(a, b float64) (any, bool) { return a == b, true }),
			"!=": floats(func(a, b float64) (any, bool) { return a != b, true }),
			"<":  floats(func(a, b float64) (any, bool) { return a < b, true }),
			"<=": floats(func(a, b float64) (any, bool) { return a <= b, true }),
			">":  floats(func(a, b float64) (any, bool) { return a > b, true }),
			">=": floats(func(a, b float64) (any, bool) { return a >= b, true }),
		},
	}

	String = &Type{
		Name:    "string",
		Default: "",
		BinaryOps: map[string]Opcode{
			"+": OpAdd,
		},
		UnaryOps: map[string]Opcode{},
		RelOps: map[string]Opcode{
			"==": OpEq, "!=": OpNeq,
		},
		BinaryFolds: map[string]BinaryFold{
			"+": strs(func(a, b string) (any, bool) { return a + b, true }),
		},
		UnaryFolds: map[string]UnaryFold{},
		RelFolds: map[string]BinaryFold{
			"==": strs(func(a, b string) (any, bool) { return a == b, true }),
			"!=": strs(func(a, b string) (any, bool) { return a != b, true }),
		},
	}

	Bool = &Type{
		Name:      "bool",
		Default:   false,
		BinaryOps: map[string]Opcode{},
		UnaryOps: map[string]Opcode{
			"!": OpNot,
		},
		RelOps: map[string]Opcode{
			"==": OpEq, "!=": OpNeq, "&&": OpAnd, "||": OpOr,
		},
		BinaryFolds: map[string]BinaryFold{},
		UnaryFolds: map[string]UnaryFold{
			"!": func(a any) (any, bool) { v, ok := a.(bool); return !v, ok },
		},
		RelFolds: map[string]BinaryFold{
			"==": bools(func(a, b bool) (any, bool) { return a == b, true }),
			"!=": bools(func(a, b bool) (any, bool) { return a != b, true }),
			"&&": bools(func(a, b bool) (any, bool) { return a && b, true }),
			"||": bools(func(a, b bool) (any, bool) { return a || b, true }),
		},
	}
)

// Builtins lists the registered types in registration order.
var Builtins = []*Type{Int, Float, String, Bool}

// Lookup returns the builtin type with the given name.
func Lookup(name string) (*Type, bool) {
	for _, t := range Builtins {
		if t.Name == name {
			return t, true
		}
	}

	return nil, false
}

// Of returns the builtin type of a Go constant value.
func Of(v any) (*Type, bool) {
	switch v.(type) {
	case int64:
		return Int, true
	case float64:
		return Float, true
	case string:
		return String, true
	case bool:
		return Bool, true
	default:
		return nil, false
	}
}

func ints(fn func(a, b int64) (any, bool)) BinaryFold {
	return func(a, b any) (any, bool) {
		x, ok1 := a.(int64)
		y, ok2 := b.(int64)

		if !ok1 || !ok2 {
			return nil, false
		}

		return fn(x, y)
	}
}

func floats(fn func(a, b float64) (any, bool)) BinaryFold {
	return func(a, b any) (any, bool) {
		x, ok1 := a.(float64)
		y, ok2 := b.(float64)

		if !ok1 || !ok2 {
			return nil, false
		}

		return fn(x, y)
	}
}

func strs(fn func(a, b string) (any, bool)) BinaryFold {
	return func(a, b any) (any, bool) {
		x, ok1 := a.(string)
		y, ok2 := b.(string)

		if !ok1 || !ok2 {
			return nil, false
		}

		return fn(x, y)
	}
}

func bools(fn func(a, b bool) (any, bool)) BinaryFold {
	return func(a, b any) (any, bool) {
		x, ok1 := a.(bool)
		y, ok2 := b.(bool)

		if !ok1 || !ok2 {
			return nil, false
		}

		return fn(x, y)
	}
}
