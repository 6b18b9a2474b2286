package engine

import (
	"fmt"

	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
	"github.com/kvgraph/engine/pkg/tuple"
)

// createHashJoinIterator materializes right once into buckets keyed by
// the shared variables' values, then streams left probing that table.
// Used when Right is not a single indexable Basic pattern, so there is
// no pushdown benefit to re-executing it once per left tuple.
func (e *Engine) createHashJoinIterator(left BindingIterator, right pattern.Node, shared []string, txn kv.Transaction) (BindingIterator, error) {
	rightIter, err := e.Execute(right, txn)
	if err != nil {
		left.Close()
		return nil, err
	}
	defer rightIter.Close()

	buckets := make(map[string][]pattern.Binding)
	for rightIter.Next() {
		b := rightIter.Binding()
		key, ok := hashKey(b, shared)
		if !ok {
			continue
		}
		buckets[key] = append(buckets[key], cloneBinding(b))
	}
	if err := rightIter.Err(); err != nil {
		left.Close()
		return nil, fmt.Errorf("engine: hash join: building right side: %w", err)
	}

	return &hashJoinIterator{left: left, buckets: buckets, shared: shared}, nil
}

func hashKey(b pattern.Binding, shared []string) (string, bool) {
	var buf []byte
	for _, name := range shared {
		v, ok := b.Lookup(name)
		if !ok {
			return "", false
		}
		buf = append(buf, tuple.Pack(v)...)
		buf = append(buf, 0x1F)
	}
	return string(buf), true
}

func cloneBinding(b pattern.Binding) pattern.Binding {
	out := make(pattern.Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

type hashJoinIterator struct {
	left    BindingIterator
	buckets map[string][]pattern.Binding
	shared  []string

	candidates []pattern.Binding
	leftCur    pattern.Binding
	result     pattern.Binding
	err        error
}

func (it *hashJoinIterator) Next() bool {
	for {
		for len(it.candidates) > 0 {
			cand := it.candidates[0]
			it.candidates = it.candidates[1:]
			merged, ok := mergeBindings(it.leftCur, cand)
			if ok {
				it.result = merged
				return true
			}
		}

		if !it.left.Next() {
			if err := it.left.Err(); err != nil {
				it.err = err
			}
			return false
		}
		it.leftCur = it.left.Binding()
		key, ok := hashKey(it.leftCur, it.shared)
		if !ok {
			continue
		}
		it.candidates = it.buckets[key]
	}
}

func (it *hashJoinIterator) Binding() pattern.Binding { return it.result }
func (it *hashJoinIterator) Err() error                { return it.err }
func (it *hashJoinIterator) Close() error              { return it.left.Close() }
