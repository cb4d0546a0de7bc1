package condition

import "regexp"

type node interface {
	eval(v Vars) bool
	walk(fn func(node))
}

type andNode struct{ left, right node }

func (n *andNode) eval(v Vars) bool { return n.left.eval(v) && n.right.eval(v) }

func (n *andNode) walk(fn func(node)) {
	fn(n)
	n.left.walk(fn)
	n.right.walk(fn)
}

type orNode struct{ left, right node }

func (n *orNode) eval(v Vars) bool { return n.left.eval(v) || n.right.eval(v) }

func (n *orNode) walk(fn func(node)) {
	fn(n)
	n.left.walk(fn)
	n.right.walk(fn)
}

type notNode struct{ inner node }

func (n *notNode) eval(v Vars) bool { return !n.inner.eval(v) }

func (n *notNode) walk(fn func(node)) {
	fn(n)
	n.inner.walk(fn)
}

type compareNode struct {
	attr  string
	op    string
	value string
	re    *regexp.Regexp
}

func (n *compareNode) eval(v Vars) bool {
	actual := v.get(n.attr)
	switch n.op {
	case "=", "==":
		return actual == n.value
	case "!=":
		return actual != n.value
	case "=~":
		return n.re.MatchString(actual)
	case "!~":
		return !n.re.MatchString(actual)
	default:
		return false
	}
}

func (n *compareNode) walk(fn func(node)) { fn(n) }

type inNode struct {
	attr   string
	values []string
	negate bool
}

func (n *inNode) eval(v Vars) bool {
	actual := v.get(n.attr)
	for _, value := range n.values {
		if value == actual {
			return !n.negate
		}
	}

	return n.negate
}

func (n *inNode) walk(fn func(node)) { fn(n) }

type isNode struct {
	attr    string
	present bool
}

func (n *isNode) eval(v Vars) bool {
	return (v.get(n.attr) != "") == n.present
}

func (n *isNode) walk(fn func(node)) { fn(n) }
