package engine

import (
	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/expr"
	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
)

// createFilterIterator keeps only Input solutions whose Expr evaluates
// to an effective true; an error (unbound variable, type mismatch) is
// treated as false, per SPARQL's three-valued-logic FILTER semantics.
//
// When Input is a single Basic pattern and Expr is a simple comparison
// against one of that pattern's stored property fields, the comparison
// is pushed into the Scanner as a Comparator instead of being applied
// after the fact (property-field pushdown). Anything the Scanner
// rejects as not pushable is retained as a residual post-filter.
func (e *Engine) createFilterIterator(n *pattern.Filter, txn kv.Transaction) (BindingIterator, error) {
	if basic, ok := n.Input.(*pattern.Basic); ok {
		if cmp, ok := asComparator(n.Expr); ok {
			it, err := e.createBasicIterator(basic, txn, []edgeindex.Comparator{cmp})
			if err == nil {
				return it, nil
			}
			// Not pushable (or some other Scan error): fall through to
			// evaluating the filter generically over an unfiltered scan.
		}
	}

	input, err := e.Execute(n.Input, txn)
	if err != nil {
		return nil, err
	}
	return &filterIterator{input: input, expr: n.Expr}, nil
}

// asComparator recognizes `?var OP literal` / `literal OP ?var` shaped
// expressions and translates them into a pushdown Comparator.
func asComparator(e expr.Expr) (edgeindex.Comparator, bool) {
	bin, ok := e.(*expr.Binary)
	if !ok {
		return edgeindex.Comparator{}, false
	}
	op, ok := compareOpOf(bin.Op)
	if !ok {
		return edgeindex.Comparator{}, false
	}

	if v, ok := bin.Left.(*expr.VarRef); ok {
		if lit, ok := bin.Right.(*expr.Literal); ok {
			return edgeindex.Comparator{Field: v.Name, Op: op, Value: lit.Value}, true
		}
	}
	if v, ok := bin.Right.(*expr.VarRef); ok {
		if lit, ok := bin.Left.(*expr.Literal); ok {
			return edgeindex.Comparator{Field: v.Name, Op: flip(op), Value: lit.Value}, true
		}
	}
	return edgeindex.Comparator{}, false
}

func compareOpOf(op expr.BinaryOp) (edgeindex.CompareOp, bool) {
	switch op {
	case expr.OpEq:
		return edgeindex.OpEq, true
	case expr.OpLt:
		return edgeindex.OpLt, true
	case expr.OpLe:
		return edgeindex.OpLe, true
	case expr.OpGt:
		return edgeindex.OpGt, true
	case expr.OpGe:
		return edgeindex.OpGe, true
	default:
		return 0, false
	}
}

func flip(op edgeindex.CompareOp) edgeindex.CompareOp {
	switch op {
	case edgeindex.OpLt:
		return edgeindex.OpGt
	case edgeindex.OpLe:
		return edgeindex.OpGe
	case edgeindex.OpGt:
		return edgeindex.OpLt
	case edgeindex.OpGe:
		return edgeindex.OpLe
	default:
		return op
	}
}

type filterIterator struct {
	input  BindingIterator
	expr   expr.Expr
	result pattern.Binding
	err    error
}

func (it *filterIterator) Next() bool {
	for it.input.Next() {
		b := it.input.Binding()
		v, err := it.expr.Eval(b)
		if err != nil {
			continue // 3VL: unbound/type error is effectively false
		}
		ebv, err := expr.EffectiveBooleanValue(v)
		if err != nil || !ebv {
			continue
		}
		it.result = b
		return true
	}
	if err := it.input.Err(); err != nil {
		it.err = err
	}
	return false
}

func (it *filterIterator) Binding() pattern.Binding { return it.result }
func (it *filterIterator) Err() error               { return it.err }
func (it *filterIterator) Close() error              { return it.input.Close() }
