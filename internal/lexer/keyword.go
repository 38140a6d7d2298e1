package lexer

import "slices"

type Keyword string

const (
	KeywordConst  Keyword = "const"
	KeywordVar    Keyword = "var"
	KeywordFunc   Keyword = "func"
	KeywordReturn Keyword = "return"
	KeywordPrint  Keyword = "print"
	KeywordIf     Keyword = "if"
	KeywordElse   Keyword = "else"
	KeywordWhile  Keyword = "while"
	KeywordTrue   Keyword = "true"
	KeywordFalse  Keyword = "false"
)

var keywords = []Keyword{
	KeywordConst,
	KeywordVar,
	KeywordFunc,
	KeywordReturn,
	KeywordPrint,
	KeywordIf,
	KeywordElse,
	KeywordWhile,
	KeywordTrue,
	KeywordFalse,
}

func checkKeyword(ident string) (Keyword, bool) {
	if slices.Contains(keywords, Keyword(ident)) {
		return Keyword(ident), true
	}

	return "", false
}
