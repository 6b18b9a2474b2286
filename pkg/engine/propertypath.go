package engine

import (
	"fmt"

	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
	"github.com/kvgraph/engine/pkg/tuple"
)

// createPropertyPathIterator evaluates a SPARQL 1.1 property path.
// At least one of Subject/Object must be bound: this engine
// computes paths by breadth-first traversal outward from a known
// endpoint, not by enumerating every edge of every index the path might
// touch.
func (e *Engine) createPropertyPathIterator(n *pattern.PropertyPath, txn kv.Transaction) (BindingIterator, error) {
	switch {
	case !n.Subject.IsVariable() && n.Subject.Value.Kind != 0:
		reached, err := e.walkPath(n.Path, stringSet(n.Subject.Value.Str), false, txn)
		if err != nil {
			return nil, err
		}
		return &propertyPathIterator{boundVar: n.Object, values: reached}, nil
	case !n.Object.IsVariable() && n.Object.Value.Kind != 0:
		reached, err := e.walkPath(n.Path, stringSet(n.Object.Value.Str), true, txn)
		if err != nil {
			return nil, err
		}
		return &propertyPathIterator{boundVar: n.Subject, values: reached}, nil
	default:
		return nil, fmt.Errorf("engine: property path requires a bound subject or object")
	}
}

func stringSet(v string) map[string]struct{} {
	return map[string]struct{}{v: {}}
}

// walkPath evaluates path starting from frontier, returning the set of
// endpoints reached. reverse walks the path right-to-left (used when
// Object is the bound endpoint).
func (e *Engine) walkPath(path pattern.Path, frontier map[string]struct{}, reverse bool, txn kv.Transaction) (map[string]struct{}, error) {
	switch path.Op {
	case pattern.PathLink:
		return e.stepLink(path.Index, frontier, reverse, txn)
	case pattern.PathInverse:
		return e.walkPath(*path.Sub, frontier, !reverse, txn)
	case pattern.PathSequence:
		seq := path.Sequence
		if reverse {
			seq = reversed(seq)
		}
		cur := frontier
		for _, step := range seq {
			next, err := e.walkPath(step, cur, reverse, txn)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		return cur, nil
	case pattern.PathAlternative:
		result := make(map[string]struct{})
		for _, alt := range path.Sequence {
			r, err := e.walkPath(alt, frontier, reverse, txn)
			if err != nil {
				return nil, err
			}
			union(result, r)
		}
		return result, nil
	case pattern.PathZeroOrOne:
		result := make(map[string]struct{})
		union(result, frontier)
		r, err := e.walkPath(*path.Sub, frontier, reverse, txn)
		if err != nil {
			return nil, err
		}
		union(result, r)
		return result, nil
	case pattern.PathZeroOrMore:
		return e.closure(*path.Sub, frontier, reverse, true, txn)
	case pattern.PathOneOrMore:
		return e.closure(*path.Sub, frontier, reverse, false, txn)
	case pattern.PathNegatedSet:
		return e.stepNegated(path.Index, frontier, reverse, txn)
	default:
		return nil, fmt.Errorf("engine: unsupported property path operator %v", path.Op)
	}
}

// closure computes the reflexive (includeZero=true) or non-reflexive
// transitive closure of sub over frontier by repeated BFS expansion
// until a fixpoint, guarding against cycles via the visited set.
func (e *Engine) closure(sub pattern.Path, frontier map[string]struct{}, reverse, includeZero bool, txn kv.Transaction) (map[string]struct{}, error) {
	visited := make(map[string]struct{})
	if includeZero {
		union(visited, frontier)
	}

	current := frontier
	for len(current) > 0 {
		next, err := e.walkPath(sub, current, reverse, txn)
		if err != nil {
			return nil, err
		}
		fresh := make(map[string]struct{})
		for v := range next {
			if _, seen := visited[v]; !seen {
				fresh[v] = struct{}{}
				visited[v] = struct{}{}
			}
		}
		current = fresh
	}
	return visited, nil
}

func (e *Engine) stepLink(index string, frontier map[string]struct{}, reverse bool, txn kv.Transaction) (map[string]struct{}, error) {
	sc, err := e.scanner(index)
	if err != nil {
		return nil, err
	}
	result := make(map[string]struct{})
	for node := range frontier {
		n := node
		var scanPattern edgeindex.ScanPattern
		if reverse {
			scanPattern.Object = &n
		} else {
			scanPattern.Subject = &n
		}
		it, err := sc.Scan(txn, scanPattern, nil)
		if err != nil {
			return nil, err
		}
		for it.Next() {
			rec := it.Record()
			if reverse {
				result[rec.From] = struct{}{}
			} else {
				result[rec.To] = struct{}{}
			}
		}
		if err := it.Err(); err != nil {
			it.Close()
			return nil, err
		}
		it.Close()
	}
	return result, nil
}

// stepNegated follows every configured edge index except excludeIndex —
// the property-path negated-set `!(:p)` construct.
func (e *Engine) stepNegated(excludeIndex string, frontier map[string]struct{}, reverse bool, txn kv.Transaction) (map[string]struct{}, error) {
	result := make(map[string]struct{})
	for name := range e.scanners {
		if name == excludeIndex {
			continue
		}
		r, err := e.stepLink(name, frontier, reverse, txn)
		if err != nil {
			return nil, err
		}
		union(result, r)
	}
	return result, nil
}

func union(dst, src map[string]struct{}) {
	for k := range src {
		dst[k] = struct{}{}
	}
}

func reversed(paths []pattern.Path) []pattern.Path {
	out := make([]pattern.Path, len(paths))
	for i, p := range paths {
		out[len(paths)-1-i] = p
	}
	return out
}

type propertyPathIterator struct {
	boundVar pattern.Term
	values   map[string]struct{}
	keys     []string
	idx      int
	started  bool
	result   pattern.Binding
}

func (it *propertyPathIterator) Next() bool {
	if !it.started {
		it.keys = make([]string, 0, len(it.values))
		for k := range it.values {
			it.keys = append(it.keys, k)
		}
		it.started = true
	}
	for it.idx < len(it.keys) {
		val := it.keys[it.idx]
		it.idx++
		b := pattern.Binding{}
		if it.boundVar.IsVariable() {
			b[it.boundVar.Name] = tuple.String(val)
		} else if it.boundVar.Value.Kind != 0 && it.boundVar.Value.Str != val {
			continue
		}
		it.result = b
		return true
	}
	return false
}

func (it *propertyPathIterator) Binding() pattern.Binding { return it.result }
func (it *propertyPathIterator) Err() error               { return nil }
func (it *propertyPathIterator) Close() error              { return nil }
