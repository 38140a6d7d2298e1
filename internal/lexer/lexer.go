package lexer

import (
	"errors"
	"io"
)

type Lexer struct {
	Scan *Scanner
}

func NewLexer(scan *Scanner) *Lexer {
	return &Lexer{
		Scan: scan,
	}
}

// Tokens reads the whole input. The returned slice always ends with a single
// EOF token so the parser can report its location.
func (t *Lexer) Tokens() ([]Token, error) {
	var tokens []Token

	for {
		token, err := t.Next()
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, token)

		if token.Type == TypeEOF {
			return tokens, nil
		}
	}
}

func (t *Lexer) Next() (Token, error) {
	for {
		c, err := t.Scan.Next()
		if errors.Is(err, io.EOF) {
			loc := t.Scan.Location()
			loc.Column++

			return Token{Type: TypeEOF, Location: loc}, nil
		}

		start := t.Scan.Location()

		switch {
		case isWhitespace(c):
			continue
		case c == '/' && t.Scan.Peek() == '/':
			t.skipLineComment()
			continue
		case c == '/' && t.Scan.Peek() == '*':
			if err := t.skipBlockComment(start); err != nil {
				return Token{}, err
			}
			continue
		case c == '"':
			return t.lexString(start)
		case isNumeric(c):
			return t.lexNumber(c, start)
		case isAlpha(c):
			buf := []byte{c}

			for {
				c, err = t.Scan.Next()
				if err != nil {
					break // EOF, we still want to return the token
				}

				if !isAlphanumeric(c) {
					t.Scan.Unread(1)
					break
				}

				buf = append(buf, c)
			}

			return NewIdentOrKeywordToken(string(buf), start), nil
		default:
			return t.lexSymbol(c, start)
		}
	}
}

func (t *Lexer) skipLineComment() {
	for {
		c, err := t.Scan.Next()
		if err != nil || c == '\n' {
			return
		}
	}
}

func (t *Lexer) skipBlockComment(start Location) error {
	_, _ = t.Scan.Next() // the '*' was peeked

	for {
		c, err := t.Scan.Next()
		if err != nil {
			return start.Errorf("unterminated block comment")
		}

		if c == '*' && t.Scan.Peek() == '/' {
			_, _ = t.Scan.Next()

			return nil
		}
	}
}

func (t *Lexer) lexString(start Location) (Token, error) {
	var buf []byte

	for {
		c, err := t.Scan.Next()
		if err != nil || c == '\n' {
			return Token{}, start.Errorf("unterminated string literal")
		}

		switch c {
		case '"':
			return NewStringToken(string(buf), start), nil
		case '\\':
			c, err = t.Scan.Next()
			if err != nil {
				return Token{}, start.Errorf("unterminated string literal")
			}

			switch c {
			case 'n':
				buf = append(buf, '\n')
			case 't':
				buf = append(buf, '\t')
			case '"', '\\':
				buf = append(buf, c)
			default:
				return Token{}, t.Scan.Location().Errorf("unknown escape sequence \\%c", c)
			}
		default:
			buf = append(buf, c)
		}
	}
}

func (t *Lexer) lexNumber(first byte, start Location) (Token, error) {
	buf := []byte{first}
	seenDot := false

	for {
		c, err := t.Scan.Next()
		if err != nil {
			break // EOF, we still want to return the token
		}

		if c == '_' {
			// Skip underscores in numeric literals
			continue
		}

		if c == '.' && !seenDot && isNumeric(t.Scan.Peek()) {
			seenDot = true
			buf = append(buf, c)

			continue
		}

		if !isNumeric(c) {
			t.Scan.Unread(1)
			break
		}

		buf = append(buf, c)
	}

	return NewNumberToken(string(buf), start)
}

func (t *Lexer) lexSymbol(c byte, start Location) (Token, error) {
	// Maximal munch for symbolic tokens
	mmType := TypeEOF
	mmToken := ""
	prefix := []byte{c}

	for {
		foundPrefix := false

		for k, v := range symbols {
			if len(k) >= len(prefix) && k[:len(prefix)] == string(prefix) {
				foundPrefix = true

				if k == string(prefix) {
					mmToken = k
					mmType = v
				}
			}
		}

		if !foundPrefix {
			break
		}

		c2, err := t.Scan.Next()
		if err != nil {
			break
		}

		prefix = append(prefix, c2)
	}

	if mmToken == "" {
		return Token{}, start.Errorf("unexpected character %q", c)
	}

	if count := len(prefix) - len(mmToken); count > 0 {
		t.Scan.Unread(count)
	}

	return Token{Type: mmType, StringVal: mmToken, Location: start}, nil
}

func isAlphanumeric(a byte) bool { return isAlpha(a) || isNumeric(a) }
func isAlpha(a byte) bool        { return (a >= 'a' && a <= 'z') || (a >= 'A' && a <= 'Z') || a == '_' }
func isNumeric(d byte) bool      { return d >= '0' && d <= '9' }
func isWhitespace(c byte) bool   { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
