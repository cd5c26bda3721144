package filter

import (
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

// parser implements a recursive descent parser for text query expressions.
//
// Grammar:
//
//	expr      → and_expr (('or' | '|') and_expr)*
//	and_expr  → primary (('and' | '&') primary)*
//	primary   → '(' expr ')' | predicate
//	predicate → field operator value
//	value     → word | quoted
type parser struct {
	tokens []Token
	pos    int
	ids    IDSource
}

// ParseExpression parses a text expression such as
//
//	genre = Horror and (author : King or title ~ "^It")
//
// into a query tree. An empty expression yields a nil tree.
func ParseExpression(input string, ids IDSource) (models.QueryNode, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	tokens, lexErr := newLexer(input).tokenize()
	if lexErr != nil {
		return nil, lexErr
	}

	p := &parser{tokens: tokens, ids: ids}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, &ParseError{Message: "unexpected " + quoteToken(tok), Position: tok.Position, Length: tok.Length}
	}
	return node, nil
}

func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *parser) parseOr() (models.QueryNode, *ParseError) {
	return p.parseJoined(models.CombinatorOr, TokenOr, p.parseAnd)
}

func (p *parser) parseAnd() (models.QueryNode, *ParseError) {
	return p.parseJoined(models.CombinatorAnd, TokenAnd, p.parsePrimary)
}

// parseJoined collects operands separated by sep into one flat boolean node
func (p *parser) parseJoined(comb models.Combinator, sep TokenType, operand func() (models.QueryNode, *ParseError)) (models.QueryNode, *ParseError) {
	first, err := operand()
	if err != nil {
		return nil, err
	}
	children := []models.QueryNode{first}
	for p.current().Type == sep {
		p.advance()
		next, err := operand()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return &models.BooleanFilter{ID: p.ids.NextID(), Combinator: comb, Children: children}, nil
}

func (p *parser) parsePrimary() (models.QueryNode, *ParseError) {
	tok := p.current()
	switch tok.Type {
	case TokenLParen:
		p.advance()
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing := p.current()
		if closing.Type != TokenRParen {
			return nil, &ParseError{Message: "expected ) but found " + quoteToken(closing), Position: closing.Position, Length: max(closing.Length, 1)}
		}
		p.advance()
		return node, nil
	case TokenWord:
		return p.parsePredicate()
	}
	return nil, &ParseError{Message: "expected a field name but found " + quoteToken(tok), Position: tok.Position, Length: max(tok.Length, 1)}
}

func (p *parser) parsePredicate() (models.QueryNode, *ParseError) {
	fieldTok := p.advance()
	key := models.FieldKey(strings.ToLower(fieldTok.Value))
	if _, ok := LookupField(key); !ok {
		return nil, &ParseError{Message: "unknown field " + strconv.Quote(fieldTok.Value), Position: fieldTok.Position, Length: fieldTok.Length}
	}

	opTok := p.current()
	if opTok.Type != TokenOperator {
		return nil, &ParseError{Message: "expected an operator after " + fieldTok.Value, Position: opTok.Position, Length: max(opTok.Length, 1)}
	}
	p.advance()
	op, _ := OperatorFromSymbol(opTok.Value)
	if !AllowsOperator(key, op) {
		return nil, &ParseError{Message: "operator " + opTok.Value + " is not allowed for " + string(key), Position: opTok.Position, Length: opTok.Length}
	}

	valueTok := p.current()
	if valueTok.Type != TokenWord && valueTok.Type != TokenString {
		return nil, &ParseError{Message: "expected a value after " + opTok.Value, Position: valueTok.Position, Length: max(valueTok.Length, 1)}
	}
	p.advance()

	return &models.ValueFilter{ID: p.ids.NextID(), Key: key, Op: op, Value: valueTok.Value}, nil
}

func quoteToken(tok Token) string {
	if tok.Type == TokenEOF {
		return "end of input"
	}
	return strconv.Quote(tok.Value)
}

// Format renders tree in the syntax accepted by ParseExpression. Nested
// boolean nodes are parenthesized.
func Format(tree models.QueryNode) string {
	var sb strings.Builder
	format(&sb, tree, true)
	return sb.String()
}

func format(sb *strings.Builder, node models.QueryNode, root bool) {
	switch n := node.(type) {
	case *models.ValueFilter:
		sb.WriteString(string(n.Key))
		sb.WriteString(" ")
		sb.WriteString(Symbol(n.Op))
		sb.WriteString(" ")
		sb.WriteString(formatValue(n.Value))
	case *models.BooleanFilter:
		if len(n.Children) == 1 {
			format(sb, n.Children[0], root)
			return
		}
		if !root {
			sb.WriteString("(")
		}
		for i, child := range n.Children {
			if i > 0 {
				sb.WriteString(" ")
				sb.WriteString(string(n.Combinator))
				sb.WriteString(" ")
			}
			format(sb, child, false)
		}
		if !root {
			sb.WriteString(")")
		}
	}
}

func formatValue(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\n()\"&|\\") {
		return strconv.Quote(v)
	}
	switch strings.ToLower(v) {
	case "and", "or":
		return strconv.Quote(v)
	}
	return v
}
