package dsl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ============================================================
// Tokens
// ============================================================

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal
	TokenIdent
	TokenNumber
	TokenString
	TokenColor
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenColon
	TokenSemicolon
	TokenComma
	TokenMinus
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "end of input",
	TokenIllegal:   "illegal",
	TokenIdent:     "identifier",
	TokenNumber:    "number",
	TokenString:    "string",
	TokenColor:     "color",
	TokenLBrace:    "'{'",
	TokenRBrace:    "'}'",
	TokenLBracket:  "'['",
	TokenRBracket:  "']'",
	TokenColon:     "':'",
	TokenSemicolon: "';'",
	TokenComma:     "','",
	TokenMinus:     "'-'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Col     int
}

// ============================================================
// Lexer
// ============================================================

type Lexer struct {
	src  []rune
	pos  int
	line int
	col  int

	errors []error
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

func (l *Lexer) Errors() []error { return l.errors }

func (l *Lexer) peek(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() rune {
	ch := l.peek(0)
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		ch := l.peek(0)
		switch {
		case unicode.IsSpace(ch):
			l.advance()
		case ch == '/' && l.peek(1) == '/':
			for l.pos < len(l.src) && l.peek(0) != '\n' {
				l.advance()
			}
		case ch == '/' && l.peek(1) == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			for l.pos < len(l.src) && !(l.peek(0) == '*' && l.peek(1) == '/') {
				l.advance()
			}
			if l.pos >= len(l.src) {
				l.errors = append(l.errors, &SyntaxError{Line: line, Col: col, Msg: "unterminated comment"})
				return
			}
			l.advance()
			l.advance()
		default:
			return
		}
	}
}

// Next возвращает следующий токен; в конце ввода - TokenEOF.
func (l *Lexer) Next() Token {
	l.skipTrivia()
	tok := Token{Line: l.line, Col: l.col}

	if l.pos >= len(l.src) {
		tok.Type = TokenEOF
		return tok
	}

	ch := l.peek(0)
	single := map[rune]TokenType{
		'{': TokenLBrace, '}': TokenRBrace,
		'[': TokenLBracket, ']': TokenRBracket,
		':': TokenColon, ';': TokenSemicolon,
		',': TokenComma, '-': TokenMinus,
	}

	switch {
	case single[ch] != 0:
		tok.Type = single[ch]
		tok.Literal = string(l.advance())
	case ch == '"':
		tok.Type, tok.Literal = l.readString()
	case ch == '#':
		tok.Type = TokenColor
		tok.Literal = l.readWhile(func(r rune) bool { return r == '#' || isHex(r) })
	case unicode.IsDigit(ch) || (ch == '.' && unicode.IsDigit(l.peek(1))):
		tok.Type = TokenNumber
		tok.Literal = l.readNumber()
	case unicode.IsLetter(ch) || ch == '_':
		tok.Type = TokenIdent
		tok.Literal = l.readWhile(func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' })
	default:
		tok.Type = TokenIllegal
		tok.Literal = string(l.advance())
		l.errors = append(l.errors, &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf("unexpected character %q", tok.Literal)})
	}
	return tok
}

func (l *Lexer) readWhile(ok func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) && ok(l.peek(0)) {
		l.advance()
	}
	return string(l.src[start:l.pos])
}

func (l *Lexer) readNumber() string {
	var b strings.Builder
	b.WriteString(l.readWhile(unicode.IsDigit))
	if l.peek(0) == '.' && unicode.IsDigit(l.peek(1)) {
		b.WriteRune(l.advance())
		b.WriteString(l.readWhile(unicode.IsDigit))
	}
	if (l.peek(0) == 'e' || l.peek(0) == 'E') && (unicode.IsDigit(l.peek(1)) || ((l.peek(1) == '-' || l.peek(1) == '+') && unicode.IsDigit(l.peek(2)))) {
		b.WriteRune(l.advance())
		if l.peek(0) == '-' || l.peek(0) == '+' {
			b.WriteRune(l.advance())
		}
		b.WriteString(l.readWhile(unicode.IsDigit))
	}
	return b.String()
}

// readString читает строку в двойных кавычках; escape-последовательности как в Go.
func (l *Lexer) readString() (TokenType, string) {
	line, col := l.line, l.col
	start := l.pos
	l.advance() // открывающая кавычка

	for l.pos < len(l.src) {
		switch l.advance() {
		case '"':
			raw := string(l.src[start:l.pos])
			if s, err := strconv.Unquote(raw); err == nil {
				return TokenString, s
			}
			return TokenString, raw[1 : len(raw)-1]
		case '\\':
			if l.pos < len(l.src) {
				l.advance()
			}
		}
	}

	l.errors = append(l.errors, &SyntaxError{Line: line, Col: col, Msg: "unterminated string literal"})
	return TokenIllegal, string(l.src[start:l.pos])
}

func isHex(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
