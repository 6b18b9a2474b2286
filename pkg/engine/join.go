package engine

import (
	"fmt"

	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
	"github.com/kvgraph/engine/pkg/tuple"
)

// createJoinIterator picks between an index nested-loop join and a hash
// join. When Right is a single
// Basic pattern sharing a variable with Left, substituting Left's
// bindings into Right before each rescan lets that rescan exploit the
// edge index's bound-prefix selection (see substitute.go) — cheaper
// than materializing Right once per probe, so that case always takes
// the nested-loop path. When Left and Right share no variables at all
// (a cartesian product) the nested-loop path is used as well, since
// hashing on an empty key gains nothing. Otherwise the join falls back
// to a hash join, which touches each side exactly once regardless of
// how expensive re-executing Right would be.
func (e *Engine) createJoinIterator(n *pattern.Join, txn kv.Transaction) (BindingIterator, error) {
	left, err := e.Execute(n.Left, txn)
	if err != nil {
		return nil, err
	}

	shared := sharedVariables(n.Left, n.Right)
	if _, isBasic := n.Right.(*pattern.Basic); isBasic && len(shared) > 0 {
		return &nestedLoopJoinIterator{engine: e, left: left, rightPlan: n.Right, txn: txn}, nil
	}
	if len(shared) == 0 {
		return &nestedLoopJoinIterator{engine: e, left: left, rightPlan: n.Right, txn: txn}, nil
	}
	return e.createHashJoinIterator(left, n.Right, shared, txn)
}

// nestedLoopJoinIterator recreates the right subtree's iterator for
// every left solution, substituting that solution's bindings into it
// first. Modeled on pkg/sparql/executor.go's nestedLoopJoinIterator.
type nestedLoopJoinIterator struct {
	engine    *Engine
	left      BindingIterator
	rightPlan pattern.Node
	txn       kv.Transaction

	currentLeft  pattern.Binding
	currentRight BindingIterator
	result       pattern.Binding
	err          error
}

func (it *nestedLoopJoinIterator) Next() bool {
	for {
		if it.currentRight != nil {
			if it.currentRight.Next() {
				merged, ok := mergeBindings(it.currentLeft, it.currentRight.Binding())
				if ok {
					it.result = merged
					return true
				}
				continue
			}
			if err := it.currentRight.Err(); err != nil {
				it.err = err
				it.currentRight.Close()
				return false
			}
			it.currentRight.Close()
			it.currentRight = nil
		}

		if !it.left.Next() {
			if err := it.left.Err(); err != nil {
				it.err = err
			}
			return false
		}
		it.currentLeft = it.left.Binding()

		substituted := substitute(it.rightPlan, it.currentLeft)
		rightIter, err := it.engine.Execute(substituted, it.txn)
		if err != nil {
			it.err = fmt.Errorf("engine: join: %w", err)
			return false
		}
		it.currentRight = rightIter
	}
}

func (it *nestedLoopJoinIterator) Binding() pattern.Binding { return it.result }
func (it *nestedLoopJoinIterator) Err() error               { return it.err }

func (it *nestedLoopJoinIterator) Close() error {
	if it.currentRight != nil {
		it.currentRight.Close()
	}
	return it.left.Close()
}

// mergeBindings merges right onto a copy of left; it reports false if
// any shared variable holds incompatible values.
func mergeBindings(left, right pattern.Binding) (pattern.Binding, bool) {
	merged := make(pattern.Binding, len(left)+len(right))
	for k, v := range left {
		merged[k] = v
	}
	for k, v := range right {
		if existing, ok := merged[k]; ok {
			if !sameValue(existing, v) {
				return nil, false
			}
			continue
		}
		merged[k] = v
	}
	return merged, true
}

// sameValue tests whether two tuple.Element values represent the same
// bound term, for join-compatibility checks.
func sameValue(a, b tuple.Element) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case tuple.KindString:
		return a.Str == b.Str
	case tuple.KindInt:
		return a.Int == b.Int
	case tuple.KindDouble:
		return a.Double == b.Double
	case tuple.KindBool:
		return a.Bool == b.Bool
	case tuple.KindBytes:
		return string(a.Bytes) == string(b.Bytes)
	case tuple.KindNull:
		return true
	default:
		return false
	}
}
