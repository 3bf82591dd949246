package dsl

import (
	"errors"
	"fmt"
	"strconv"
)

// ============================================================
// AST
// ============================================================

type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueString
	ValueIdent
	ValueList
)

// Value - значение свойства. Числа уже приведены к метрам.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	List []Value
	Line int
	Col  int
}

type Property struct {
	Name  string
	Value Value
	Line  int
	Col   int
}

// Block - структура вида `Room { id: "a"; size: [5, 4]; }`.
type Block struct {
	Kind       string
	Properties []Property
	Line       int
	Col        int
}

// Get возвращает последнее значение свойства name.
func (b Block) Get(name string) (Value, bool) {
	for i := len(b.Properties) - 1; i >= 0; i-- {
		if b.Properties[i].Name == name {
			return b.Properties[i].Value, true
		}
	}
	return Value{}, false
}

type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

// unitScale - множители единиц измерения к метрам.
var unitScale = map[string]float64{
	"mm": 0.001,
	"cm": 0.01,
	"dm": 0.1,
	"m":  1,
	"km": 1000,
}

// ============================================================
// Parser
// ============================================================

type Parser struct {
	lex  *Lexer
	cur  Token
	peek Token

	errors []error
}

func NewParser(src string) *Parser {
	p := &Parser{lex: NewLexer(src)}
	p.next()
	p.next()
	return p
}

// Parse разбирает исходный текст целиком. Ошибки накапливаются,
// разбор продолжается со следующего блока.
func Parse(src string) ([]Block, error) {
	p := NewParser(src)
	blocks := p.ParseProgram()
	if errs := append(p.lex.Errors(), p.errors...); len(errs) > 0 {
		return blocks, errors.Join(errs...)
	}
	return blocks, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) errorf(tok Token, format string, args ...any) {
	p.errors = append(p.errors, &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(t TokenType) bool {
	if p.cur.Type != t {
		p.errorf(p.cur, "expected %s, got %s %q", t, p.cur.Type, p.cur.Literal)
		return false
	}
	p.next()
	return true
}

func (p *Parser) ParseProgram() []Block {
	var blocks []Block
	for p.cur.Type != TokenEOF {
		if p.cur.Type != TokenIdent {
			p.errorf(p.cur, "expected structure name, got %s %q", p.cur.Type, p.cur.Literal)
			p.next()
			continue
		}
		if b, ok := p.parseBlock(); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func (p *Parser) parseBlock() (Block, bool) {
	b := Block{Kind: p.cur.Literal, Line: p.cur.Line, Col: p.cur.Col}
	p.next()
	if !p.expect(TokenLBrace) {
		p.skipBlock()
		return Block{}, false
	}

	for p.cur.Type != TokenRBrace && p.cur.Type != TokenEOF {
		prop, ok := p.parseProperty()
		if !ok {
			p.skipProperty()
			continue
		}
		b.Properties = append(b.Properties, prop)
	}

	if !p.expect(TokenRBrace) {
		return b, false
	}
	return b, true
}

func (p *Parser) parseProperty() (Property, bool) {
	if p.cur.Type != TokenIdent {
		p.errorf(p.cur, "expected property name, got %s %q", p.cur.Type, p.cur.Literal)
		return Property{}, false
	}
	prop := Property{Name: p.cur.Literal, Line: p.cur.Line, Col: p.cur.Col}
	p.next()
	if !p.expect(TokenColon) {
		return Property{}, false
	}

	v, ok := p.parseValue()
	if !ok {
		return Property{}, false
	}
	prop.Value = v

	if p.cur.Type == TokenSemicolon {
		p.next()
	}
	return prop, true
}

func (p *Parser) parseValue() (Value, bool) {
	tok := p.cur
	v := Value{Line: tok.Line, Col: tok.Col}

	switch tok.Type {
	case TokenString, TokenColor:
		v.Kind, v.Str = ValueString, tok.Literal
		p.next()
		return v, true

	case TokenIdent:
		v.Kind, v.Str = ValueIdent, tok.Literal
		p.next()
		return v, true

	case TokenMinus:
		p.next()
		if p.cur.Type != TokenNumber {
			p.errorf(p.cur, "expected number after '-'")
			return Value{}, false
		}
		n, ok := p.parseNumber()
		if !ok {
			return Value{}, false
		}
		n.Num = -n.Num
		n.Line, n.Col = tok.Line, tok.Col
		return n, true

	case TokenNumber:
		return p.parseNumber()

	case TokenLBracket, TokenLBrace:
		closing := TokenRBracket
		if tok.Type == TokenLBrace {
			closing = TokenRBrace
		}
		p.next()
		v.Kind = ValueList
		for p.cur.Type != closing {
			item, ok := p.parseValue()
			if !ok {
				return Value{}, false
			}
			v.List = append(v.List, item)
			if p.cur.Type != TokenComma {
				break
			}
			p.next()
		}
		if !p.expect(closing) {
			return Value{}, false
		}
		return v, true
	}

	p.errorf(tok, "unexpected %s %q in value", tok.Type, tok.Literal)
	return Value{}, false
}

// parseNumber читает число с необязательной единицей измерения (2.5m, 30cm).
func (p *Parser) parseNumber() (Value, bool) {
	tok := p.cur
	n, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf(tok, "invalid number %q", tok.Literal)
		return Value{}, false
	}
	p.next()

	if p.cur.Type == TokenIdent {
		if scale, ok := unitScale[p.cur.Literal]; ok && p.cur.Line == tok.Line {
			n *= scale
			p.next()
		}
	}
	return Value{Kind: ValueNumber, Num: n, Line: tok.Line, Col: tok.Col}, true
}

// skipProperty пропускает токены до ';' или '}' текущего блока.
func (p *Parser) skipProperty() {
	depth := 0
	for p.cur.Type != TokenEOF {
		switch p.cur.Type {
		case TokenLBracket, TokenLBrace:
			depth++
		case TokenRBracket:
			depth--
		case TokenRBrace:
			if depth == 0 {
				return
			}
			depth--
		case TokenSemicolon:
			if depth <= 0 {
				p.next()
				return
			}
		}
		p.next()
	}
}

// skipBlock пропускает поврежденный блок до закрывающей скобки.
func (p *Parser) skipBlock() {
	for p.cur.Type != TokenEOF && p.cur.Type != TokenRBrace {
		p.next()
	}
	if p.cur.Type == TokenRBrace {
		p.next()
	}
}
