package parser

import (
	"github.com/corani/exprc/internal/ast"
	"github.com/corani/exprc/internal/lexer"
)

// Pratt parser operator info
type opInfo struct {
	precedence int
	relational bool // produces an ast.Relational instead of an ast.Binary
	nonAssoc   bool
	symbol     string
}

var opPrecedence = map[lexer.TokenType]opInfo{
	lexer.TypeLogOr:  {precedence: 1, relational: true, symbol: "||"},
	lexer.TypeLogAnd: {precedence: 2, relational: true, symbol: "&&"},
	lexer.TypeEq:     {precedence: 3, relational: true, nonAssoc: true, symbol: "=="},
	lexer.TypeNe:     {precedence: 3, relational: true, nonAssoc: true, symbol: "!="},
	lexer.TypeLt:     {precedence: 3, relational: true, nonAssoc: true, symbol: "<"},
	lexer.TypeLe:     {precedence: 3, relational: true, nonAssoc: true, symbol: "<="},
	lexer.TypeGt:     {precedence: 3, relational: true, nonAssoc: true, symbol: ">"},
	lexer.TypeGe:     {precedence: 3, relational: true, nonAssoc: true, symbol: ">="},
	lexer.TypePlus:   {precedence: 4, symbol: "+"},
	lexer.TypeMinus:  {precedence: 4, symbol: "-"},
	lexer.TypeStar:   {precedence: 5, symbol: "*"},
	lexer.TypeSlash:  {precedence: 5, symbol: "/"},
}

var unaryOps = map[lexer.TokenType]string{
	lexer.TypePlus:  "+",
	lexer.TypeMinus: "-",
	lexer.TypeNot:   "!",
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseExpressionPratt(0)
}

func (p *Parser) parseExpressionPratt(minPrec int) (ast.Expression, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	lastNonAssoc := -1

	for {
		peek := p.peek()

		info, ok := opPrecedence[peek.Type]
		if !ok || info.precedence < minPrec {
			return lhs, nil
		}

		if info.nonAssoc && info.precedence == lastNonAssoc {
			return nil, peek.Location.Errorf("comparison operator %s cannot be chained", info.symbol)
		}

		p.nextToken()

		// All operators are left-associative, so the right-hand side binds
		// tighter by one level.
		rhs, err := p.parseExpressionPratt(info.precedence + 1)
		if err != nil {
			return nil, err
		}

		if info.relational {
			lhs = ast.NewRelational(info.symbol, lhs, rhs, peek.Location)
		} else {
			lhs = ast.NewBinary(info.symbol, lhs, rhs, peek.Location)
		}

		if info.nonAssoc {
			lastNonAssoc = info.precedence
		} else {
			lastNonAssoc = -1
		}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	start := p.peek()

	op, ok := unaryOps[start.Type]
	if !ok {
		return p.parsePrimary()
	}

	p.nextToken()

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return ast.NewUnary(op, operand, start.Location), nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	start := p.nextToken()

	switch start.Type {
	case lexer.TypeInteger:
		return ast.NewLiteral(start.IntVal, start.Location), nil
	case lexer.TypeFloat:
		return ast.NewLiteral(start.FloatVal, start.Location), nil
	case lexer.TypeString:
		return ast.NewLiteral(start.StringVal, start.Location), nil
	case lexer.TypeBool:
		return ast.NewLiteral(start.BoolVal, start.Location), nil
	case lexer.TypeIdent:
		if _, ok := p.acceptType(lexer.TypeLparen); ok {
			return p.parseCall(start)
		}

		return ast.NewLoad(ast.NewLocation(start.StringVal, start.Location), start.Location), nil
	case lexer.TypeLparen:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		if _, err := p.expectType(lexer.TypeRparen); err != nil {
			return nil, err
		}

		return expr, nil
	default:
		return nil, start.Location.Errorf("expected start of expression, got %s", start)
	}
}
