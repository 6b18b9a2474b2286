// Package expr implements the pattern-tree Expression Evaluator:
// FILTER/HAVING/BIND expression trees evaluated against a single
// variable binding, with SPARQL's three-valued-logic error semantics
// (unbound or type-error turns into an effective false in FILTER/HAVING
// and into an unbound result in BIND — the caller, not this package,
// applies that policy around the error this package returns).
//
// Modeled on pkg/sparql/evaluator: same recursive-descent
// Evaluate-by-type-switch shape, generalized from rdf.Term-typed
// operands to pkg/tuple.Element-typed ones since this module's values
// are not RDF terms.
package expr

import (
	"errors"
	"fmt"

	"github.com/kvgraph/engine/pkg/tuple"
)

// ErrUnbound is returned when evaluation needs a variable the Binding
// does not carry.
var ErrUnbound = errors.New("expr: unbound variable")

// ErrType is returned when an operator is applied to operand kinds it
// cannot act on.
var ErrType = errors.New("expr: type error")

// Binding maps variable names (without the leading '?') to their bound
// values for one candidate solution.
type Binding map[string]tuple.Element

// Lookup returns the value bound to name, and whether it is bound.
func (b Binding) Lookup(name string) (tuple.Element, bool) {
	v, ok := b[name]
	return v, ok
}

// With returns a copy of b with name bound to v.
func (b Binding) With(name string, v tuple.Element) Binding {
	out := make(Binding, len(b)+1)
	for k, val := range b {
		out[k] = val
	}
	out[name] = v
	return out
}

// Expr is a node in an expression tree.
type Expr interface {
	// Eval evaluates the expression against b. An error result means
	// the expression is unbound or type-mismatched at this node; the
	// caller applies SPARQL's three-valued-logic policy around it.
	Eval(b Binding) (tuple.Element, error)
}

// Literal is a constant value.
type Literal struct {
	Value tuple.Element
}

func (e *Literal) Eval(Binding) (tuple.Element, error) { return e.Value, nil }

// VarRef resolves a variable from the binding.
type VarRef struct {
	Name string
}

func (e *VarRef) Eval(b Binding) (tuple.Element, error) {
	v, ok := b.Lookup(e.Name)
	if !ok {
		return tuple.Element{}, fmt.Errorf("%w: ?%s", ErrUnbound, e.Name)
	}
	return v, nil
}

// Bound implements the BOUND(?x) test: it never errors, since testing
// boundedness is defined for every variable, bound or not.
type Bound struct {
	Name string
}

func (e *Bound) Eval(b Binding) (tuple.Element, error) {
	_, ok := b.Lookup(e.Name)
	return tuple.Bool(ok), nil
}

// UnaryOp is a prefix operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
	OpPlus
)

// Unary applies a prefix operator to one operand.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func (e *Unary) Eval(b Binding) (tuple.Element, error) {
	v, err := e.Operand.Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	switch e.Op {
	case OpNot:
		ebv, err := EffectiveBooleanValue(v)
		if err != nil {
			return tuple.Element{}, err
		}
		return tuple.Bool(!ebv), nil
	case OpNeg:
		return negateNumeric(v)
	case OpPlus:
		if !isNumeric(v) {
			return tuple.Element{}, fmt.Errorf("%w: unary + on non-numeric value", ErrType)
		}
		return v, nil
	default:
		return tuple.Element{}, fmt.Errorf("%w: unknown unary operator", ErrType)
	}
}

// BinaryOp is an infix operator.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpOr
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
)

// Binary applies an infix operator to two operands.
type Binary struct {
	Op          BinaryOp
	Left, Right Expr
}

func (e *Binary) Eval(b Binding) (tuple.Element, error) {
	switch e.Op {
	case OpAnd:
		return evalAnd(e.Left, e.Right, b)
	case OpOr:
		return evalOr(e.Left, e.Right, b)
	}

	left, err := e.Left.Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	right, err := e.Right.Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}

	switch e.Op {
	case OpEq:
		return compareOp(left, right, func(c int) bool { return c == 0 })
	case OpNeq:
		v, err := compareOp(left, right, func(c int) bool { return c == 0 })
		if err != nil {
			return tuple.Element{}, err
		}
		return tuple.Bool(!v.Bool), nil
	case OpLt:
		return compareOp(left, right, func(c int) bool { return c < 0 })
	case OpLe:
		return compareOp(left, right, func(c int) bool { return c <= 0 })
	case OpGt:
		return compareOp(left, right, func(c int) bool { return c > 0 })
	case OpGe:
		return compareOp(left, right, func(c int) bool { return c >= 0 })
	case OpAdd:
		return arith(left, right, func(a, b float64) float64 { return a + b })
	case OpSub:
		return arith(left, right, func(a, b float64) float64 { return a - b })
	case OpMul:
		return arith(left, right, func(a, b float64) float64 { return a * b })
	case OpDiv:
		return divide(left, right)
	default:
		return tuple.Element{}, fmt.Errorf("%w: unknown binary operator", ErrType)
	}
}

// FuncCall applies a named built-in function (see functions.go) to its
// evaluated arguments.
type FuncCall struct {
	Name string
	Args []Expr
}

func (e *FuncCall) Eval(b Binding) (tuple.Element, error) {
	return callFunction(e.Name, e.Args, b)
}

// InTest implements `x IN (e1, e2, ...)` / `x NOT IN (...)`: per SPARQL
// semantics a value-equality error against one candidate is skipped
// rather than propagated, unless no candidate matches and at least one
// comparison errored, in which case the whole test is an error.
type InTest struct {
	Operand Expr
	Values  []Expr
	Not     bool
}

func (e *InTest) Eval(b Binding) (tuple.Element, error) {
	left, err := e.Operand.Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}

	found := false
	sawErr := false
	for _, ve := range e.Values {
		right, err := ve.Eval(b)
		if err != nil {
			sawErr = true
			continue
		}
		eq, err := compareOp(left, right, func(c int) bool { return c == 0 })
		if err != nil {
			sawErr = true
			continue
		}
		if eq.Bool {
			found = true
			break
		}
	}
	if !found && sawErr {
		return tuple.Element{}, fmt.Errorf("%w: IN comparison against an incomparable value", ErrType)
	}
	if e.Not {
		found = !found
	}
	return tuple.Bool(found), nil
}

// QuotedTripleCtor builds an RDF-star quoted-triple value from three
// evaluated sub-expressions.
type QuotedTripleCtor struct {
	Subject, Predicate, Object Expr
}

func (e *QuotedTripleCtor) Eval(b Binding) (tuple.Element, error) {
	s, err := e.Subject.Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	p, err := e.Predicate.Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	o, err := e.Object.Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	return tuple.QuotedTriple(s, p, o), nil
}
