package engine

import (
	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
)

// createUnionIterator concatenates Left's solutions with Right's.
func (e *Engine) createUnionIterator(n *pattern.Union, txn kv.Transaction) (BindingIterator, error) {
	left, err := e.Execute(n.Left, txn)
	if err != nil {
		return nil, err
	}
	right, err := e.Execute(n.Right, txn)
	if err != nil {
		left.Close()
		return nil, err
	}
	return &unionIterator{left: left, right: right}, nil
}

type unionIterator struct {
	left, right BindingIterator
	onRight     bool
	result      pattern.Binding
	err         error
}

func (it *unionIterator) Next() bool {
	if !it.onRight {
		if it.left.Next() {
			it.result = it.left.Binding()
			return true
		}
		if err := it.left.Err(); err != nil {
			it.err = err
			return false
		}
		it.onRight = true
	}
	if it.right.Next() {
		it.result = it.right.Binding()
		return true
	}
	if err := it.right.Err(); err != nil {
		it.err = err
	}
	return false
}

func (it *unionIterator) Binding() pattern.Binding { return it.result }
func (it *unionIterator) Err() error               { return it.err }

func (it *unionIterator) Close() error {
	err1 := it.left.Close()
	err2 := it.right.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
