package filter

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLParen
	TokenRParen
	TokenAnd
	TokenOr
	TokenOperator
	TokenWord
	TokenString
)

// Token represents a lexical token
type Token struct {
	Type     TokenType
	Value    string
	Position int // byte offset in the input
	Length   int
}

// ParseError represents a syntax error with position information
type ParseError struct {
	Message  string
	Position int
	Length   int
}

func (e *ParseError) Error() string {
	return e.Message + " at position " + strconv.Itoa(e.Position)
}

// operator spellings, longest first so ">=" wins over ">"
var operatorSpellings = []string{"!=", ">=", "<=", "≠", "≥", "≤", "=", ":", "~", ">", "<"}

type lexer struct {
	input string
	pos   int
	// afterOperator makes the next token a raw value, so values may contain
	// operator characters (e.g. a regex or "Fiction:Horror").
	afterOperator bool
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) tokenize() ([]Token, *ParseError) {
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) next() (Token, *ParseError) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Position: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		l.afterOperator = false
		return Token{Type: TokenLParen, Value: "(", Position: start, Length: 1}, nil
	case ')':
		l.pos++
		l.afterOperator = false
		return Token{Type: TokenRParen, Value: ")", Position: start, Length: 1}, nil
	case '"':
		l.afterOperator = false
		return l.quoted()
	case '&':
		l.pos++
		l.afterOperator = false
		return Token{Type: TokenAnd, Value: "&", Position: start, Length: 1}, nil
	case '|':
		l.pos++
		l.afterOperator = false
		return Token{Type: TokenOr, Value: "|", Position: start, Length: 1}, nil
	}

	if l.afterOperator {
		l.afterOperator = false
		return l.word(true), nil
	}

	for _, op := range operatorSpellings {
		if strings.HasPrefix(l.input[l.pos:], op) {
			l.pos += len(op)
			l.afterOperator = true
			return Token{Type: TokenOperator, Value: op, Position: start, Length: len(op)}, nil
		}
	}

	tok := l.word(false)
	switch strings.ToLower(tok.Value) {
	case "and":
		tok.Type = TokenAnd
	case "or":
		tok.Type = TokenOr
	}
	return tok, nil
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

// word reads a bare word. Values stop at whitespace, parentheses and the
// & and | joiners; field names also stop at operator characters.
func (l *lexer) word(value bool) Token {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsSpace(r) || strings.ContainsRune(`()"&|`, r) {
			break
		}
		if !value && l.atOperator() {
			break
		}
		l.pos += size
	}
	return Token{Type: TokenWord, Value: l.input[start:l.pos], Position: start, Length: l.pos - start}
}

func (l *lexer) atOperator() bool {
	rest := l.input[l.pos:]
	for _, op := range operatorSpellings {
		if strings.HasPrefix(rest, op) {
			return true
		}
	}
	return false
}

func (l *lexer) quoted() (Token, *ParseError) {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '"':
			l.pos++
			raw := l.input[start:l.pos]
			value, err := strconv.Unquote(raw)
			if err != nil {
				return Token{}, &ParseError{Message: "invalid quoted string", Position: start, Length: l.pos - start}
			}
			return Token{Type: TokenString, Value: value, Position: start, Length: l.pos - start}, nil
		}
		l.pos++
	}
	return Token{}, &ParseError{Message: "unterminated quoted string", Position: start, Length: len(l.input) - start}
}
