package condition

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Condition is a parsed if guard.
type Condition struct {
	src  string
	root node
}

// Parse parses a condition. Errors are *SyntaxError, or wrap ErrUnknownAttribute.
func Parse(src string) (*Condition, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	if p.peek().kind == tokEOF {
		return nil, newSyntaxError(0, "empty condition")
	}

	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokEOF {
		return nil, newSyntaxError(tok.offset, "unexpected "+quote(tok))
	}

	return &Condition{src: src, root: root}, nil
}

// Eval evaluates the condition. A nil condition is always true.
func (c *Condition) Eval(v Vars) bool {
	if c == nil {
		return true
	}

	return c.root.eval(v)
}

// String returns the source of the condition.
func (c *Condition) String() string {
	return c.src
}

// Literals returns the sorted values compared to attr with =, == or IN, outside any negation.
func (c *Condition) Literals(attr string) []string {
	seen := map[string]struct{}{}
	collectLiterals(c.root, attr, false, seen)

	res := make([]string, 0, len(seen))
	for value := range seen {
		res = append(res, value)
	}
	sort.Strings(res)

	return res
}

func collectLiterals(n node, attr string, negated bool, seen map[string]struct{}) {
	switch n := n.(type) {
	case *andNode:
		collectLiterals(n.left, attr, negated, seen)
		collectLiterals(n.right, attr, negated, seen)
	case *orNode:
		collectLiterals(n.left, attr, negated, seen)
		collectLiterals(n.right, attr, negated, seen)
	case *notNode:
		collectLiterals(n.inner, attr, !negated, seen)
	case *compareNode:
		if !negated && n.attr == attr && (n.op == "=" || n.op == "==") {
			seen[n.value] = struct{}{}
		}
	case *inNode:
		if !negated && !n.negate && n.attr == attr {
			for _, value := range n.values {
				seen[value] = struct{}{}
			}
		}
	}
}

// References returns the sorted attributes the condition refers to.
func (c *Condition) References() []string {
	seen := map[string]struct{}{}
	c.root.walk(func(n node) {
		switch n := n.(type) {
		case *compareNode:
			seen[n.attr] = struct{}{}
		case *inNode:
			seen[n.attr] = struct{}{}
		case *isNode:
			seen[n.attr] = struct{}{}
		}
	})

	res := make([]string, 0, len(seen))
	for attr := range seen {
		res = append(res, attr)
	}
	sort.Strings(res)

	return res
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}

	return tok
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for tok := p.peek(); tok.kind == tokOr || tok.keyword("OR"); tok = p.peek() {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orNode{left: left, right: right}
	}

	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for tok := p.peek(); tok.kind == tokAnd || tok.keyword("AND"); tok = p.peek() {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &andNode{left: left, right: right}
	}

	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if tok := p.peek(); tok.kind == tokBang || tok.keyword("NOT") {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		return &notNode{inner: inner}, nil
	}

	return p.parseTerm()
}

func (p *parser) parseTerm() (node, error) {
	tok := p.next()
	if tok.kind == tokLParen {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, newSyntaxError(closing.offset, "expected ) got "+quote(closing))
		}

		return inner, nil
	}

	if tok.kind != tokWord || isReserved(tok) {
		return nil, newSyntaxError(tok.offset, "expected an attribute got "+quote(tok))
	}

	attr := strings.ToLower(tok.text)
	if !knownAttribute(attr) {
		return nil, errors.Wrapf(ErrUnknownAttribute, "offset %d: %s", tok.offset, tok.text)
	}

	op := p.next()
	switch {
	case op.kind == tokOp:
		return p.parseCompare(attr, op)
	case op.keyword("IN"):
		return p.parseIn(attr, false)
	case op.keyword("NOT"):
		if in := p.next(); !in.keyword("IN") {
			return nil, newSyntaxError(in.offset, "expected IN after NOT got "+quote(in))
		}

		return p.parseIn(attr, true)
	case op.keyword("IS"):
		return p.parseIs(attr)
	default:
		return nil, newSyntaxError(op.offset, "expected an operator after "+attr+" got "+quote(op))
	}
}

func (p *parser) parseCompare(attr string, op token) (node, error) {
	value := p.next()
	if !isValue(value) {
		return nil, newSyntaxError(value.offset, "expected a value after "+op.text+" got "+quote(value))
	}

	cmp := &compareNode{attr: attr, op: op.text, value: value.text}
	if op.text == "=~" || op.text == "!~" {
		re, err := regexp.Compile(value.text)
		if err != nil {
			return nil, newSyntaxError(value.offset, "invalid regular expression: "+err.Error())
		}
		cmp.re = re
	} else if value.kind == tokRegex {
		return nil, newSyntaxError(value.offset, "regular expression used with "+op.text)
	}

	return cmp, nil
}

func (p *parser) parseIn(attr string, negate bool) (node, error) {
	if open := p.next(); open.kind != tokLParen {
		return nil, newSyntaxError(open.offset, "expected ( after IN got "+quote(open))
	}

	n := &inNode{attr: attr, negate: negate}
	for {
		value := p.next()
		if !isValue(value) || value.kind == tokRegex {
			return nil, newSyntaxError(value.offset, "expected a value in list got "+quote(value))
		}
		n.values = append(n.values, value.text)

		sep := p.next()
		if sep.kind == tokRParen {
			return n, nil
		}
		if sep.kind != tokComma {
			return nil, newSyntaxError(sep.offset, "expected , or ) got "+quote(sep))
		}
	}
}

func (p *parser) parseIs(attr string) (node, error) {
	present := true
	tok := p.next()
	if tok.keyword("NOT") {
		present = false
		tok = p.next()
	}

	switch {
	case tok.keyword("present"):
		return &isNode{attr: attr, present: present}, nil
	case tok.keyword("blank"):
		return &isNode{attr: attr, present: !present}, nil
	default:
		return nil, newSyntaxError(tok.offset, "expected present or blank got "+quote(tok))
	}
}

func isValue(tok token) bool {
	return tok.kind == tokWord || tok.kind == tokString || tok.kind == tokRegex
}

func isReserved(tok token) bool {
	for _, kw := range []string{"AND", "OR", "NOT", "IN", "IS"} {
		if tok.keyword(kw) {
			return true
		}
	}

	return false
}

func quote(tok token) string {
	if tok.kind == tokEOF {
		return "end of condition"
	}

	return "\"" + tok.text + "\""
}
