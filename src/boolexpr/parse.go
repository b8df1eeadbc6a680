package boolexpr

import (
	"fmt"
)

type tokenKind int

const (
	tokName tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	n := len(s)
	isWordByte := func(c byte) bool {
		return c == '_' || c == '>' || c == '=' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case isWordByte(c):
			j := i
			for j < n && isWordByte(s[j]) {
				j++
			}
			word := s[i:j]
			switch word {
			case "and":
				toks = append(toks, token{tokAnd, word})
			case "or":
				toks = append(toks, token{tokOr, word})
			case "not":
				toks = append(toks, token{tokNot, word})
			default:
				toks = append(toks, token{tokName, word})
			}
			i = j
		default:
			return nil, fmt.Errorf("boolexpr: unexpected character %q at offset %d", c, i)
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

// Parser parses expressions with precedence not > and > or, mirroring
// the infixNotation table in original_source/boolparse.py.
type Parser struct{}

// NewParser constructs a Parser. It holds no state; one instance can
// parse any number of independent expression strings.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses a boolean expression string into an Expr tree.
func (p *Parser) Parse(s string) (Expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	ps := &parseState{toks: toks}
	e, err := ps.parseOr()
	if err != nil {
		return nil, err
	}
	if ps.peek().kind != tokEOF {
		return nil, fmt.Errorf("boolexpr: unexpected trailing token %q", ps.peek().text)
	}
	return e, nil
}

type parseState struct {
	toks []token
	pos  int
}

func (s *parseState) peek() token { return s.toks[s.pos] }

func (s *parseState) next() token {
	t := s.toks[s.pos]
	if t.kind != tokEOF {
		s.pos++
	}
	return t
}

// parseOr := parseAnd ("or" parseAnd)*
func (s *parseState) parseOr() (Expr, error) {
	first, err := s.parseAnd()
	if err != nil {
		return nil, err
	}
	args := []Expr{first}
	for s.peek().kind == tokOr {
		s.next()
		next, err := s.parseAnd()
		if err != nil {
			return nil, err
		}
		args = append(args, next)
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return Or{Args: args}, nil
}

// parseAnd := parseNot ("and" parseNot)*
func (s *parseState) parseAnd() (Expr, error) {
	first, err := s.parseNot()
	if err != nil {
		return nil, err
	}
	args := []Expr{first}
	for s.peek().kind == tokAnd {
		s.next()
		next, err := s.parseNot()
		if err != nil {
			return nil, err
		}
		args = append(args, next)
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return And{Args: args}, nil
}

// parseNot := "not" parseNot | atom
func (s *parseState) parseNot() (Expr, error) {
	if s.peek().kind == tokNot {
		s.next()
		x, err := s.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	}
	return s.parseAtom()
}

// atom := "(" parseOr ")" | NAME
func (s *parseState) parseAtom() (Expr, error) {
	t := s.next()
	switch t.kind {
	case tokLParen:
		e, err := s.parseOr()
		if err != nil {
			return nil, err
		}
		if s.peek().kind != tokRParen {
			return nil, fmt.Errorf("boolexpr: expected ')', got %q", s.peek().text)
		}
		s.next()
		return e, nil
	case tokName:
		return Name{Value: t.text}, nil
	case tokEOF:
		return nil, fmt.Errorf("boolexpr: unexpected end of expression")
	default:
		return nil, fmt.Errorf("boolexpr: unexpected token %q", t.text)
	}
}

// Eval parses and immediately evaluates s against o; a convenience for
// one-shot use_if predicates.
func Eval(s string, o Oracle) (bool, error) {
	e, err := NewParser().Parse(s)
	if err != nil {
		return false, err
	}
	return e.Eval(o), nil
}
