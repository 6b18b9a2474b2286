package engine

import (
	"sort"

	"github.com/kvgraph/engine/pkg/pattern"
	"github.com/kvgraph/engine/pkg/tuple"
)

// ORDER BY, LIMIT/OFFSET, projection and DISTINCT are SPARQL solution
// modifiers rather than pattern-tree nodes: unlike GroupBy, none of them
// change which variables are bound or how, only the order and set of
// solutions surfaced to the caller. They are applied after Execute
// returns, the way pkg/sparql/executor.go's executeSelect post-processes
// a QueryResult rather than threading them through the plan tree.

// SortKey names one ORDER BY term: sort by Variable, Descending reverses
// the comparison for that term.
type SortKey struct {
	Variable   string
	Descending bool
}

// ApplyOrderBy drains it and returns a BindingIterator over its
// solutions sorted by keys, stable so ties preserve the original order.
// Draining is unavoidable: a sort needs every row before it can emit
// the first one.
func (e *Engine) ApplyOrderBy(it BindingIterator, keys []SortKey) (BindingIterator, error) {
	all, err := drain(it)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return lessBindings(all[i], all[j], keys)
	})
	return &sliceIterator{values: all}, nil
}

func lessBindings(a, b pattern.Binding, keys []SortKey) bool {
	for _, k := range keys {
		av, aok := a.Lookup(k.Variable)
		bv, bok := b.Lookup(k.Variable)
		switch {
		case !aok && !bok:
			continue
		case !aok:
			return !k.Descending
		case !bok:
			return k.Descending
		}
		if sameValue(av, bv) {
			continue
		}
		lt := less(av, bv)
		if k.Descending {
			return !lt
		}
		return lt
	}
	return false
}

// ApplyLimit caps it to at most n solutions.
func ApplyLimit(it BindingIterator, n int) BindingIterator {
	return &limitIterator{input: it, remaining: n}
}

type limitIterator struct {
	input     BindingIterator
	remaining int
}

func (it *limitIterator) Next() bool {
	if it.remaining <= 0 {
		return false
	}
	if !it.input.Next() {
		return false
	}
	it.remaining--
	return true
}

func (it *limitIterator) Binding() pattern.Binding { return it.input.Binding() }
func (it *limitIterator) Err() error               { return it.input.Err() }
func (it *limitIterator) Close() error              { return it.input.Close() }

// ApplyOffset skips the first n solutions.
func ApplyOffset(it BindingIterator, n int) BindingIterator {
	return &offsetIterator{input: it, skip: n}
}

type offsetIterator struct {
	input   BindingIterator
	skip    int
	skipped bool
}

func (it *offsetIterator) Next() bool {
	if !it.skipped {
		for it.skip > 0 {
			if !it.input.Next() {
				it.skipped = true
				return false
			}
			it.skip--
		}
		it.skipped = true
	}
	return it.input.Next()
}

func (it *offsetIterator) Binding() pattern.Binding { return it.input.Binding() }
func (it *offsetIterator) Err() error               { return it.input.Err() }
func (it *offsetIterator) Close() error              { return it.input.Close() }

// ApplyProjection restricts each solution to vars, dropping every other
// bound variable.
func ApplyProjection(it BindingIterator, vars []string) BindingIterator {
	return &projectIterator{input: it, vars: vars}
}

type projectIterator struct {
	input  BindingIterator
	vars   []string
	result pattern.Binding
}

func (it *projectIterator) Next() bool {
	if !it.input.Next() {
		return false
	}
	src := it.input.Binding()
	out := make(pattern.Binding, len(it.vars))
	for _, v := range it.vars {
		if val, ok := src.Lookup(v); ok {
			out[v] = val
		}
	}
	it.result = out
	return true
}

func (it *projectIterator) Binding() pattern.Binding { return it.result }
func (it *projectIterator) Err() error               { return it.input.Err() }
func (it *projectIterator) Close() error              { return it.input.Close() }

// ApplyDistinct drains it and removes duplicate solutions, comparing by
// packed byte representation over the solutions' sorted variable names
// so two bindings with the same key/value pairs in different insertion
// order still compare equal.
func ApplyDistinct(it BindingIterator) (BindingIterator, error) {
	all, err := drain(it)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(all))
	out := make([]pattern.Binding, 0, len(all))
	for _, b := range all {
		key := distinctKey(b)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, b)
	}
	return &sliceIterator{values: out}, nil
}

func distinctKey(b pattern.Binding) string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	var buf []byte
	for _, name := range names {
		buf = append(buf, name...)
		buf = append(buf, 0x1F)
		buf = append(buf, tuple.Pack(b[name])...)
		buf = append(buf, 0x1F)
	}
	return string(buf)
}

func drain(it BindingIterator) ([]pattern.Binding, error) {
	defer it.Close()
	var out []pattern.Binding
	for it.Next() {
		out = append(out, it.Binding())
	}
	return out, it.Err()
}
