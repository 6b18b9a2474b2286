package engine

import (
	"fmt"

	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
)

// createOptionalIterator implements SPARQL OPTIONAL as a left outer
// join: every left solution is emitted, extended with Right's bindings
// when at least one compatible Right solution exists, or unchanged
// otherwise.
func (e *Engine) createOptionalIterator(n *pattern.Optional, txn kv.Transaction) (BindingIterator, error) {
	left, err := e.Execute(n.Left, txn)
	if err != nil {
		return nil, err
	}
	return &optionalIterator{engine: e, left: left, rightPlan: n.Right, txn: txn}, nil
}

type optionalIterator struct {
	engine    *Engine
	left      BindingIterator
	rightPlan pattern.Node
	txn       kv.Transaction

	currentLeft  pattern.Binding
	currentRight BindingIterator
	matchedAny   bool
	result       pattern.Binding
	err          error
}

func (it *optionalIterator) Next() bool {
	for {
		if it.currentRight != nil {
			if it.currentRight.Next() {
				merged, ok := mergeBindings(it.currentLeft, it.currentRight.Binding())
				if ok {
					it.matchedAny = true
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
			if !it.matchedAny {
				it.result = it.currentLeft
				return true
			}
		}

		if !it.left.Next() {
			if err := it.left.Err(); err != nil {
				it.err = err
			}
			return false
		}
		it.currentLeft = it.left.Binding()
		it.matchedAny = false

		substituted := substitute(it.rightPlan, it.currentLeft)
		rightIter, err := it.engine.Execute(substituted, it.txn)
		if err != nil {
			it.err = fmt.Errorf("engine: optional: %w", err)
			return false
		}
		it.currentRight = rightIter
	}
}

func (it *optionalIterator) Binding() pattern.Binding { return it.result }
func (it *optionalIterator) Err() error               { return it.err }

func (it *optionalIterator) Close() error {
	if it.currentRight != nil {
		it.currentRight.Close()
	}
	return it.left.Close()
}
