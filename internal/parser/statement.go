package parser

import (
	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/lexer"
)

// parseConst parses `const <ident> = <expr> ;`. The keyword has been consumed.
func (p *Parser) parseConst(first lexer.Token) (ast.Statement, error) {
	name, err := p.expectType(lexer.TypeIdent)
	if err != nil {
		return nil, err
	}

	if _, err := p.expectType(lexer.TypeAssign); err != nil {
		return nil, err
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return ast.NewConstDecl(name.StringVal, value, first.Location), p.expectSemicolon()
}

// parseVar parses `var <ident> <type> [= <expr>] ;`.
func (p *Parser) parseVar(first lexer.Token) (ast.Statement, error) {
	name, err := p.expectType(lexer.TypeIdent)
	if err != nil {
		return nil, err
	}

	typename, err := p.parseTypename()
	if err != nil {
		return nil, err
	}

	var value ast.Expression

	if _, ok := p.acceptType(lexer.TypeAssign); ok {
		value, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	return ast.NewVarDecl(name.StringVal, typename, value, first.Location), p.expectSemicolon()
}

func (p *Parser) parseTypename() (*ast.Typename, error) {
	tok, err := p.expectType(lexer.TypeIdent)
	if err != nil {
		return nil, err
	}

	return ast.NewTypename(tok.StringVal, tok.Location), nil
}

// parseFunc parses `func <ident> ( [<ident> <type> {, <ident> <type>}] ) [<type>] { ... }`.
func (p *Parser) parseFunc(first lexer.Token) (ast.Statement, error) {
	name, err := p.expectType(lexer.TypeIdent)
	if err != nil {
		return nil, err
	}

	if _, err := p.expectType(lexer.TypeLparen); err != nil {
		return nil, err
	}

	var params []*ast.ParamDecl

	if _, ok := p.acceptType(lexer.TypeRparen); !ok {
		for {
			pname, err := p.expectType(lexer.TypeIdent)
			if err != nil {
				return nil, err
			}

			ptype, err := p.parseTypename()
			if err != nil {
				return nil, err
			}

			params = append(params, ast.NewParamDecl(pname.StringVal, ptype, pname.Location))

			next, err := p.expectType(lexer.TypeComma, lexer.TypeRparen)
			if err != nil {
				return nil, err
			}

			if next.Type == lexer.TypeRparen {
				break
			}
		}
	}

	var result *ast.Typename

	if p.peek().Type == lexer.TypeIdent {
		result, err = p.parseTypename()
		if err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return ast.NewFuncDecl(name.StringVal, params, result, body, first.Location), nil
}

func (p *Parser) parsePrint(first lexer.Token) (ast.Statement, error) {
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return ast.NewPrint(value, first.Location), p.expectSemicolon()
}

func (p *Parser) parseReturn(first lexer.Token) (ast.Statement, error) {
	if _, ok := p.acceptType(lexer.TypeSemicolon); ok {
		return ast.NewReturn(nil, first.Location), nil
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return ast.NewReturn(value, first.Location), p.expectSemicolon()
}

// parseIf parses an if statement with optional `else { ... }` or `else if`.
func (p *Parser) parseIf(first lexer.Token) (ast.Statement, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	if !p.acceptKeyword(lexer.KeywordElse) {
		return ast.NewIf(cond, then, nil, first.Location), nil
	}

	var els *ast.Statements

	if next := p.peek(); next.Type == lexer.TypeKeyword && next.Keyword == lexer.KeywordIf {
		p.nextToken()

		nested, err := p.parseIf(next)
		if err != nil {
			return nil, err
		}

		els = ast.NewStatements([]ast.Statement{nested}, next.Location)
	} else {
		els, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	return ast.NewIf(cond, then, els, first.Location), nil
}

func (p *Parser) parseWhile(first lexer.Token) (ast.Statement, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return ast.NewWhile(cond, body, first.Location), nil
}

// parseAssign parses the rest of `<ident> = <expr> ;`; the identifier and
// the `=` have been consumed.
func (p *Parser) parseAssign(target lexer.Token) (ast.Statement, error) {
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	loc := ast.NewLocation(target.StringVal, target.Location)

	return ast.NewAssign(loc, value, target.Location), p.expectSemicolon()
}

// parseCall parses the argument list of a call. The identifier and the `(`
// have been consumed.
func (p *Parser) parseCall(name lexer.Token) (*ast.Call, error) {
	var args []ast.Expression

	if _, ok := p.acceptType(lexer.TypeRparen); ok {
		return ast.NewCall(name.StringVal, args, name.Location), nil
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		next, err := p.expectType(lexer.TypeComma, lexer.TypeRparen)
		if err != nil {
			return nil, err
		}

		if next.Type == lexer.TypeRparen {
			return ast.NewCall(name.StringVal, args, name.Location), nil
		}
	}
}
