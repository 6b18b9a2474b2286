package engine

import (
	"github.com/kvgraph/engine/pkg/expr"
	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
)

// createBindIterator extends every Input solution with Variable bound
// to Expr's value; if Expr errors (unbound/type error) the variable is
// simply left unbound on that solution, per SPARQL BIND semantics —
// unlike FILTER, a BIND evaluation error never drops the solution.
func (e *Engine) createBindIterator(n *pattern.Bind, txn kv.Transaction) (BindingIterator, error) {
	input, err := e.Execute(n.Input, txn)
	if err != nil {
		return nil, err
	}
	return &bindIterator{input: input, expr: n.Expr, variable: n.Variable}, nil
}

type bindIterator struct {
	input    BindingIterator
	expr     expr.Expr
	variable string
	result   pattern.Binding
}

func (it *bindIterator) Next() bool {
	if !it.input.Next() {
		return false
	}
	b := it.input.Binding()
	v, err := it.expr.Eval(b)
	if err != nil {
		it.result = b
		return true
	}
	it.result = b.With(it.variable, v)
	return true
}

func (it *bindIterator) Binding() pattern.Binding { return it.result }
func (it *bindIterator) Err() error               { return it.input.Err() }
func (it *bindIterator) Close() error              { return it.input.Close() }
