package parser

import (
	"strings"

	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/lexer"
)

type Parser struct {
	tok   []lexer.Token
	index int
}

// New returns a parser over tok, which should end with an EOF token as
// produced by lexer.Lexer.Tokens.
func New(tok []lexer.Token) *Parser {
	if len(tok) == 0 || tok[len(tok)-1].Type != lexer.TypeEOF {
		tok = append(tok, lexer.Token{Type: lexer.TypeEOF})
	}

	return &Parser{
		tok:   tok,
		index: 0,
	}
}

// Parse reads the whole token stream as a program. It stops at the first
// syntax error.
func (p *Parser) Parse() (*ast.Program, error) {
	start := p.peek()

	list, err := p.parseStatements(lexer.TypeEOF)
	if err != nil {
		return nil, err
	}

	return ast.NewProgram(ast.NewStatements(list, start.Location), start.Location), nil
}

// parseStatements parses statements until the closing token, which is left
// in the stream.
func (p *Parser) parseStatements(closing lexer.TokenType) ([]ast.Statement, error) {
	var list []ast.Statement

	for p.peek().Type != closing {
		if p.peek().Type == lexer.TypeEOF {
			return nil, p.peek().Location.Errorf("unexpected end of file")
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		list = append(list, stmt)
	}

	return list, nil
}

func (p *Parser) parseBlock() (*ast.Statements, error) {
	lbrace, err := p.expectType(lexer.TypeLbrace)
	if err != nil {
		return nil, err
	}

	list, err := p.parseStatements(lexer.TypeRbrace)
	if err != nil {
		return nil, err
	}

	if _, err := p.expectType(lexer.TypeRbrace); err != nil {
		return nil, err
	}

	return ast.NewStatements(list, lbrace.Location), nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	first := p.nextToken()

	switch first.Type {
	case lexer.TypeKeyword:
		switch first.Keyword {
		case lexer.KeywordConst:
			return p.parseConst(first)
		case lexer.KeywordVar:
			return p.parseVar(first)
		case lexer.KeywordFunc:
			return p.parseFunc(first)
		case lexer.KeywordPrint:
			return p.parsePrint(first)
		case lexer.KeywordReturn:
			return p.parseReturn(first)
		case lexer.KeywordIf:
			return p.parseIf(first)
		case lexer.KeywordWhile:
			return p.parseWhile(first)
		default:
			return nil, first.Location.Errorf("unexpected keyword %s", first.Keyword)
		}
	case lexer.TypeIdent:
		next, err := p.expectType(lexer.TypeAssign, lexer.TypeLparen)
		if err != nil {
			return nil, err
		}

		if next.Type == lexer.TypeLparen {
			call, err := p.parseCall(first)
			if err != nil {
				return nil, err
			}

			return call, p.expectSemicolon()
		}

		return p.parseAssign(first)
	default:
		return nil, first.Location.Errorf("expected statement, got %s", first)
	}
}

func (p *Parser) expectKeyword(kws ...lexer.Keyword) (lexer.Token, error) {
	token, err := p.expectType(lexer.TypeKeyword)
	if err != nil {
		return token, err
	}

	var kwnames []string

	for _, kw := range kws {
		kwnames = append(kwnames, string(kw))

		if token.Keyword == kw {
			return token, nil
		}
	}

	return token, token.Location.Errorf("expected %s, got %s", strings.Join(kwnames, " or "), token.Keyword)
}

// acceptType consumes the next token if it has one of the given types.
func (p *Parser) acceptType(tts ...lexer.TokenType) (lexer.Token, bool) {
	token := p.peek()

	for _, tt := range tts {
		if token.Type == tt {
			return p.nextToken(), true
		}
	}

	return token, false
}

// acceptKeyword consumes the next token if it is the keyword kw.
func (p *Parser) acceptKeyword(kw lexer.Keyword) bool {
	token := p.peek()
	if token.Type == lexer.TypeKeyword && token.Keyword == kw {
		p.nextToken()

		return true
	}

	return false
}

func (p *Parser) expectType(tts ...lexer.TokenType) (lexer.Token, error) {
	token := p.nextToken()

	var ttnames []string

	for _, tt := range tts {
		ttnames = append(ttnames, string(tt))

		if token.Type == tt {
			return token, nil
		}
	}

	return token, token.Location.Errorf("expected %s, got %s", strings.Join(ttnames, " or "), token)
}

func (p *Parser) expectSemicolon() error {
	_, err := p.expectType(lexer.TypeSemicolon)

	return err
}

func (p *Parser) peek() lexer.Token {
	return p.tok[p.index]
}

// nextToken returns the next token. The final EOF token is returned forever.
func (p *Parser) nextToken() lexer.Token {
	token := p.tok[p.index]

	if p.index < len(p.tok)-1 {
		p.index++
	}

	return token
}
