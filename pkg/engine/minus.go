package engine

import (
	"fmt"

	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
)

// createMinusIterator implements SPARQL MINUS: a Left solution is
// dropped only if some Right solution shares at least one variable with
// it and is compatible on every shared variable. A Right solution with
// a disjoint variable domain never removes anything, per SPARQL 1.1
// MINUS semantics.
func (e *Engine) createMinusIterator(n *pattern.Minus, txn kv.Transaction) (BindingIterator, error) {
	left, err := e.Execute(n.Left, txn)
	if err != nil {
		return nil, err
	}
	rightIter, err := e.Execute(n.Right, txn)
	if err != nil {
		left.Close()
		return nil, err
	}
	defer rightIter.Close()

	var rightSolutions []pattern.Binding
	for rightIter.Next() {
		rightSolutions = append(rightSolutions, cloneBinding(rightIter.Binding()))
	}
	if err := rightIter.Err(); err != nil {
		left.Close()
		return nil, fmt.Errorf("engine: minus: building right side: %w", err)
	}

	return &minusIterator{left: left, right: rightSolutions}, nil
}

type minusIterator struct {
	left   BindingIterator
	right  []pattern.Binding
	result pattern.Binding
	err    error
}

func (it *minusIterator) Next() bool {
	for it.left.Next() {
		candidate := it.left.Binding()
		if !subtracted(candidate, it.right) {
			it.result = candidate
			return true
		}
	}
	if err := it.left.Err(); err != nil {
		it.err = err
	}
	return false
}

func subtracted(left pattern.Binding, rights []pattern.Binding) bool {
	for _, right := range rights {
		overlap := false
		compatible := true
		for k, v := range right {
			if lv, ok := left[k]; ok {
				overlap = true
				if !sameValue(lv, v) {
					compatible = false
					break
				}
			}
		}
		if overlap && compatible {
			return true
		}
	}
	return false
}

func (it *minusIterator) Binding() pattern.Binding { return it.result }
func (it *minusIterator) Err() error               { return it.err }
func (it *minusIterator) Close() error              { return it.left.Close() }
