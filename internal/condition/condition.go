// Package condition parses and evaluates the boolean filter expressions
// attached to validation rules, e.g. "NRDUCELL.CellRadius>=4000 and (a=1 or b!=2)".
//
// Operands are compared numerically when both sides are integer or decimal
// literals and as strings otherwise. A missing parameter compares as "".
package condition

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/viant/parsly"
)

// operators are tried in this order; the first one found in an atom splits it.
var operators = []string{"!=", ">=", "<=", "=", ">", "<"}

// Expression is a parsed filter. The zero value and a nil *Expression are
// the empty filter, which matches every row.
type Expression struct {
	source string
	root   node
	fields []string
}

// Parse compiles expr. An empty or blank expression always evaluates true.
//
// A structural error (unbalanced parentheses, dangling keyword) yields an
// expression that always evaluates false. Atoms without a recognised
// operator evaluate false while the rest of the expression still applies.
// In both cases the returned error wraps ErrMalformedCondition.
func Parse(expr string) (*Expression, error) {
	result := &Expression{source: expr}
	if strings.TrimSpace(expr) == "" {
		return result, nil
	}
	p := &parser{source: expr, fields: map[string]bool{}}
	root, err := p.parse(parsly.NewCursor("", []byte(expr), 0))
	if err != nil {
		result.root = constant(false)
		return result, err
	}
	result.root = root
	for name := range p.fields {
		result.fields = append(result.fields, name)
	}
	sort.Strings(result.fields)
	return result, errors.Join(p.errs...)
}

// Evaluate parses expr and evaluates it against row in one step.
func Evaluate(expr string, row map[string]string) (bool, error) {
	parsed, err := Parse(expr)
	return parsed.Evaluate(row), err
}

// Evaluate reports whether row satisfies the expression.
func (e *Expression) Evaluate(row map[string]string) bool {
	if e == nil || e.root == nil {
		return true
	}
	return e.root.eval(row)
}

// IsEmpty reports whether the expression matches every row unconditionally.
func (e *Expression) IsEmpty() bool {
	return e == nil || e.root == nil
}

// Fields returns the sorted parameter names referenced by comparisons.
func (e *Expression) Fields() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.fields...)
}

func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	return e.source
}

type node interface {
	eval(row map[string]string) bool
}

type orNode []node

func (n orNode) eval(row map[string]string) bool {
	for _, term := range n {
		if term.eval(row) {
			return true
		}
	}
	return false
}

type andNode []node

func (n andNode) eval(row map[string]string) bool {
	for _, term := range n {
		if !term.eval(row) {
			return false
		}
	}
	return true
}

type constant bool

func (c constant) eval(map[string]string) bool { return bool(c) }

type comparison struct {
	param   string
	op      string
	value   string
	number  float64
	numeric bool
}

func (c *comparison) eval(row map[string]string) bool {
	current := strings.TrimSpace(row[c.param])
	var cmp int
	if n, ok := parseNumber(current); ok && c.numeric {
		switch {
		case n < c.number:
			cmp = -1
		case n > c.number:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(current, c.value)
	}
	switch c.op {
	case "=":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	}
	return false
}

// parseNumber accepts an optional sign, digits and at most one decimal point.
func parseNumber(text string) (float64, bool) {
	digits, dots := 0, 0
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		case (c == '-' || c == '+') && i == 0:
		default:
			return 0, false
		}
	}
	if digits == 0 || dots > 1 {
		return 0, false
	}
	n, err := strconv.ParseFloat(text, 64)
	return n, err == nil
}

type parser struct {
	source string
	fields map[string]bool
	errs   []error
}

func (p *parser) parse(cursor *parsly.Cursor) (node, error) {
	root, err := p.parseOr(cursor)
	if err != nil {
		return nil, err
	}
	cursor.MatchOne(whitespaceMatcher)
	if cursor.Pos < cursor.InputSize {
		return nil, p.syntaxError("unexpected " + strconv.Quote(string(cursor.Input[cursor.Pos:])))
	}
	return root, nil
}

func (p *parser) parseOr(cursor *parsly.Cursor) (node, error) {
	var terms orNode
	for {
		term, err := p.parseAnd(cursor)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
		if cursor.MatchAfterOptional(whitespaceMatcher, orMatcher).Code != orToken {
			break
		}
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return terms, nil
}

func (p *parser) parseAnd(cursor *parsly.Cursor) (node, error) {
	var terms andNode
	for {
		term, err := p.parsePrimary(cursor)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
		matched := cursor.MatchAfterOptional(whitespaceMatcher, andMatcher, commaMatcher)
		if matched.Code != andToken && matched.Code != commaToken {
			break
		}
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return terms, nil
}

func (p *parser) parsePrimary(cursor *parsly.Cursor) (node, error) {
	matched := cursor.MatchAfterOptional(whitespaceMatcher, parenthesesMatcher, atomMatcher)
	switch matched.Code {
	case parenthesesToken:
		text := matched.Text(cursor)
		inner := text[1 : len(text)-1]
		if strings.TrimSpace(inner) == "" {
			return nil, p.syntaxError("empty parentheses")
		}
		return p.parse(parsly.NewCursor("", []byte(inner), 0))
	case atomToken:
		return p.compileAtom(matched.Text(cursor)), nil
	}
	if cursor.Pos >= cursor.InputSize {
		return nil, p.syntaxError("unexpected end of expression")
	}
	return nil, p.syntaxError("unexpected " + strconv.Quote(string(cursor.Input[cursor.Pos:])))
}

func (p *parser) compileAtom(text string) node {
	text = strings.TrimSpace(text)
	for _, op := range operators {
		idx := strings.Index(text, op)
		if idx == -1 {
			continue
		}
		param := strings.TrimSpace(text[:idx])
		if param == "" {
			break
		}
		value := strings.TrimSpace(text[idx+len(op):])
		result := &comparison{param: param, op: op, value: value}
		result.number, result.numeric = parseNumber(value)
		p.fields[param] = true
		return result
	}
	p.errs = append(p.errs, &MalformedConditionError{Expression: p.source, Fragment: text, Reason: "no comparison operator"})
	return constant(false)
}

func (p *parser) syntaxError(reason string) error {
	return &MalformedConditionError{Expression: p.source, Reason: reason}
}
