// Package engine implements the Pattern Execution Engine: it walks a
// pkg/pattern tree with a Volcano-style pull iterator, joining basic
// patterns against the configured edge indexes, applying
// OPTIONAL/UNION/MINUS/FILTER/BIND/GROUP BY, and exposing ORDER BY,
// LIMIT/OFFSET, projection and DISTINCT as post-execution solution
// modifiers.
//
// Modeled on pkg/sparql/executor.Executor: the same createIterator
// dispatch-by-node-type shape, the same recreate-right-iterator-per-
// left-tuple nested loop join, the same merge-bindings compatibility
// check. Where that executor rescans the right subtree unchanged for
// every left tuple, this engine first substitutes the left tuple's
// bound variables into the right subtree (substitute.go) so the rescan
// can push those values into the Scanner's bound prefix instead of
// filtering them out afterward.
package engine

import (
	"fmt"

	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
	"github.com/kvgraph/engine/pkg/tuple"
)

// BindingIterator is the Volcano-style pull interface every execution
// node implements.
type BindingIterator interface {
	// Next advances to the next solution, returning false at end of
	// stream or on error (check Err).
	Next() bool

	// Binding returns the current solution. Valid only after Next
	// returned true. Callers that need to retain a binding past the
	// next Next() call must copy it.
	Binding() pattern.Binding

	// Err returns any error encountered during iteration.
	Err() error

	// Close releases resources held by this iterator and its inputs.
	Close() error
}

// Engine executes pattern trees against a fixed set of configured edge
// indexes, named by pattern.Basic.Index.
type Engine struct {
	scanners map[string]*edgeindex.Scanner
}

// New builds an Engine over the given named edge-index descriptors.
func New(descriptors map[string]*edgeindex.Descriptor) (*Engine, error) {
	scanners := make(map[string]*edgeindex.Scanner, len(descriptors))
	for name, desc := range descriptors {
		sc, err := edgeindex.NewScanner(desc)
		if err != nil {
			return nil, fmt.Errorf("engine: index %q: %w", name, err)
		}
		scanners[name] = sc
	}
	return &Engine{scanners: scanners}, nil
}

// Execute returns a streaming iterator over node's solutions within txn.
func (e *Engine) Execute(node pattern.Node, txn kv.Transaction) (BindingIterator, error) {
	switch n := node.(type) {
	case *pattern.Basic:
		return e.createBasicIterator(n, txn, nil)
	case *pattern.Join:
		return e.createJoinIterator(n, txn)
	case *pattern.Optional:
		return e.createOptionalIterator(n, txn)
	case *pattern.Union:
		return e.createUnionIterator(n, txn)
	case *pattern.Minus:
		return e.createMinusIterator(n, txn)
	case *pattern.Filter:
		return e.createFilterIterator(n, txn)
	case *pattern.Bind:
		return e.createBindIterator(n, txn)
	case *pattern.GroupBy:
		return e.createGroupByIterator(n, txn)
	case *pattern.PropertyPath:
		return e.createPropertyPathIterator(n, txn)
	case *pattern.Graph:
		return e.createGraphIterator(n, txn)
	default:
		return nil, fmt.Errorf("engine: unsupported pattern node %T", node)
	}
}

func (e *Engine) scanner(index string) (*edgeindex.Scanner, error) {
	sc, ok := e.scanners[index]
	if !ok {
		return nil, fmt.Errorf("engine: no edge index configured with name %q", index)
	}
	return sc, nil
}

// createBasicIterator scans the index named by n, optionally with
// extra (not nil) pushdown comparators supplied by a wrapping Filter.
func (e *Engine) createBasicIterator(n *pattern.Basic, txn kv.Transaction, extra []edgeindex.Comparator) (BindingIterator, error) {
	sc, err := e.scanner(n.Index)
	if err != nil {
		return nil, err
	}

	scanPattern := edgeindex.ScanPattern{
		Subject:   termPtr(n.Subject),
		Predicate: termPtr(n.Predicate),
		Object:    termPtr(n.Object),
		Graph:     termPtr(n.Graph),
	}

	it, err := sc.Scan(txn, scanPattern, extra)
	if err != nil {
		return nil, err
	}
	return &basicIterator{node: n, it: it}, nil
}

// termPtr converts a structural Term into a Scanner bound-prefix value:
// nil for a variable or for a zero-value Term (meaning "no constraint
// at all" — e.g. a graph-less pattern's Graph term), a pointer to the
// bound literal's string form otherwise.
func termPtr(t pattern.Term) *string {
	if t.IsVariable() || t.Value.Kind == 0 {
		return nil
	}
	s := t.Value.Str
	return &s
}

type basicIterator struct {
	node    *pattern.Basic
	it      *edgeindex.ResultIterator
	current pattern.Binding
}

func (it *basicIterator) Next() bool {
	for it.it.Next() {
		b, ok := bindBasic(it.node, it.it.Record())
		if ok {
			it.current = b
			return true
		}
	}
	return false
}

func (it *basicIterator) Binding() pattern.Binding { return it.current }
func (it *basicIterator) Err() error               { return it.it.Err() }
func (it *basicIterator) Close() error              { return it.it.Close() }

// bindBasic derives a solution from a matched record, double-checking
// any bound (non-variable) term even though some of them may already
// be covered by the Scanner's bound prefix — components trailing the
// prefix within the chosen permutation are not otherwise re-verified.
func bindBasic(n *pattern.Basic, rec *edgeindex.EdgeRecord) (pattern.Binding, bool) {
	b := make(pattern.Binding, 4+len(rec.Fields))
	if !assign(b, n.Subject, rec.From) {
		return nil, false
	}
	if !assign(b, n.Predicate, rec.Edge) {
		return nil, false
	}
	if !assign(b, n.Object, rec.To) {
		return nil, false
	}
	if !assign(b, n.Graph, rec.Graph) {
		return nil, false
	}
	for _, f := range rec.Fields {
		b[f.Name] = f.Value
	}
	return b, true
}

func assign(b pattern.Binding, t pattern.Term, val string) bool {
	if !t.IsVariable() {
		if t.Value.Kind == 0 {
			// zero-value Term: this structural slot has no constraint
			// at all (e.g. a graph-less pattern's Graph term).
			return true
		}
		return t.Value.Str == val
	}
	if existing, ok := b[t.Name]; ok {
		return existing.Str == val
	}
	b[t.Name] = tuple.String(val)
	return true
}
