// Package calc evaluates plain arithmetic expressions: the four basic
// operators, parentheses and numeric literals. It replaces the generic
// expression evaluator the calculate tool used to shell out to.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Eval parses and evaluates the expression with a recursive-descent parser.
// Supported: + - * /, unary minus, parentheses, integer and decimal literals.
func Eval(expression string) (float64, error) {
	p := &parser{input: expression}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("expression result is not a finite number")
	}
	return v, nil
}

type parser struct {
	input string
	pos   int
}

// expr := term (('+'|'-') term)*
func (p *parser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

// term := factor (('*'|'/') factor)*
func (p *parser) parseTerm() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

// factor := ('-'|'+')* (number | '(' expr ')')
func (p *parser) parseFactor() (float64, error) {
	p.skipSpaces()
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.parseFactor()
		return -v, err
	case '+':
		p.pos++
		return p.parseFactor()
	case '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		p.pos++
		return v, nil
	default:
		return p.parseNumber()
	}
}

func (p *parser) parseNumber() (float64, error) {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.input) {
		c := rune(p.input[p.pos])
		if unicode.IsDigit(c) || c == '.' {
			p.pos++
			continue
		}
		break
	}
	if start == p.pos {
		if p.pos >= len(p.input) {
			return 0, fmt.Errorf("unexpected end of expression")
		}
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	lit := p.input[start:p.pos]
	if strings.Count(lit, ".") > 1 {
		return 0, fmt.Errorf("malformed number %q", lit)
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed number %q", lit)
	}
	return v, nil
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

// Format renders an evaluation result the way the calculate tool reports it:
// integers without a trailing fraction, everything else in compact form.
func Format(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
