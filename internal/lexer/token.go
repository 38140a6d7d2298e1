package lexer

import (
	"fmt"
	"strconv"
	"strings"
)

type TokenType string

const (
	TypeEOF       TokenType = "EOF"
	TypeIdent     TokenType = "Identifier"
	TypeKeyword   TokenType = "Keyword"
	TypeInteger   TokenType = "Integer"
	TypeFloat     TokenType = "Float"
	TypeBool      TokenType = "Bool"       // "true" / "false"
	TypeString    TokenType = "String"     // Double-quoted string
	TypeLparen    TokenType = "LeftParen"  // "("
	TypeRparen    TokenType = "RightParen" // ")"
	TypeLbrace    TokenType = "LeftBrace"  // "{"
	TypeRbrace    TokenType = "RightBrace" // "}"
	TypeComma     TokenType = "Comma"      // ","
	TypeSemicolon TokenType = "Semicolon"  // ";"
	TypeAssign    TokenType = "Assign"     // "="
	TypePlus      TokenType = "Plus"       // "+"
	TypeMinus     TokenType = "Minus"      // "-"
	TypeStar      TokenType = "Star"       // "*"
	TypeSlash     TokenType = "Slash"      // "/"
	TypeNot       TokenType = "Not"        // "!"
	TypeEq        TokenType = "Eq"         // "=="
	TypeNe        TokenType = "Ne"         // "!="
	TypeLt        TokenType = "Lt"         // "<"
	TypeLe        TokenType = "Le"         // "<="
	TypeGt        TokenType = "Gt"         // ">"
	TypeGe        TokenType = "Ge"         // ">="
	TypeLogAnd    TokenType = "LogicalAnd" // "&&"
	TypeLogOr     TokenType = "LogicalOr"  // "||"
)

// symbols is a map of string to TokenType for maximal munch.
var symbols = map[string]TokenType{
	"(":  TypeLparen,
	")":  TypeRparen,
	"{":  TypeLbrace,
	"}":  TypeRbrace,
	",":  TypeComma,
	";":  TypeSemicolon,
	"=":  TypeAssign,
	"+":  TypePlus,
	"-":  TypeMinus,
	"*":  TypeStar,
	"/":  TypeSlash,
	"!":  TypeNot,
	"==": TypeEq,
	"!=": TypeNe,
	"<":  TypeLt,
	"<=": TypeLe,
	">":  TypeGt,
	">=": TypeGe,
	"&&": TypeLogAnd,
	"||": TypeLogOr,
}

type Token struct {
	Type      TokenType
	Keyword   Keyword
	StringVal string
	IntVal    int64
	FloatVal  float64
	BoolVal   bool
	Location  Location
}

func (t Token) String() string {
	switch t.Type {
	case TypeEOF:
		return "EOF"
	case TypeString:
		return strconv.Quote(t.StringVal)
	default:
		return fmt.Sprintf("%s(%s)", t.Type, t.StringVal)
	}
}

func NewStringToken(val string, location Location) Token {
	return Token{
		Type:      TypeString,
		StringVal: val,
		Location:  location,
	}
}

func NewNumberToken(val string, location Location) (Token, error) {
	if !strings.ContainsAny(val, ".eE") {
		num, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return Token{}, location.Errorf("invalid integer literal %q", val)
		}

		return Token{
			Type:      TypeInteger,
			IntVal:    num,
			StringVal: val,
			Location:  location,
		}, nil
	}

	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return Token{}, location.Errorf("invalid number literal %q", val)
	}

	return Token{
		Type:      TypeFloat,
		FloatVal:  num,
		StringVal: val,
		Location:  location,
	}, nil
}

func NewIdentOrKeywordToken(val string, location Location) Token {
	kw, ok := checkKeyword(val)
	if !ok {
		return Token{
			Type:      TypeIdent,
			StringVal: val,
			Location:  location,
		}
	}

	switch kw {
	case KeywordFalse, KeywordTrue:
		// Turn keywords `true` and `false` into boolean literal tokens.
		return Token{
			Type:      TypeBool,
			Keyword:   kw,
			BoolVal:   kw == KeywordTrue,
			StringVal: val,
			Location:  location,
		}
	default:
		return Token{
			Type:      TypeKeyword,
			Keyword:   kw,
			StringVal: val,
			Location:  location,
		}
	}
}
