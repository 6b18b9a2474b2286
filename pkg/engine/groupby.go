package engine

import (
	"fmt"

	"github.com/kvgraph/engine/pkg/expr"
	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
	"github.com/kvgraph/engine/pkg/tuple"
)

// createGroupByIterator groups Input's solutions by Keys, computes
// Aggregates per group, and filters groups through Having — a feature
// pkg/sparql's optimizer parses but never builds a plan node for;
// modeled on the same node/iterator shape as every other pattern.Node
// here rather than invented independently.
func (e *Engine) createGroupByIterator(n *pattern.GroupBy, txn kv.Transaction) (BindingIterator, error) {
	input, err := e.Execute(n.Input, txn)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	groups := make(map[string]*groupState)
	var order []string

	for input.Next() {
		b := input.Binding()
		key := groupKey(b, n.Keys)
		g, ok := groups[key]
		if !ok {
			g = newGroupState(b, n.Keys)
			g.ensureAccumulators(n.Aggregates)
			groups[key] = g
			order = append(order, key)
		}
		for i, agg := range n.Aggregates {
			v, ok := b.Lookup(agg.Variable)
			if agg.Variable == "" {
				v, ok = tuple.Int(1), true // COUNT(*): every solution counts
			}
			if ok {
				g.accumulators[i].add(v, agg)
			}
		}
	}
	if err := input.Err(); err != nil {
		return nil, fmt.Errorf("engine: group by: %w", err)
	}

	var results []pattern.Binding
	for _, key := range order {
		g := groups[key]
		solution := make(pattern.Binding, len(n.Keys)+len(n.Aggregates))
		for k, v := range g.keyValues {
			solution[k] = v
		}
		for i, agg := range n.Aggregates {
			solution[agg.As] = g.accumulators[i].result()
		}
		if n.Having != nil {
			v, err := n.Having.Eval(solution)
			if err != nil {
				continue
			}
			ebv, err := expr.EffectiveBooleanValue(v)
			if err != nil || !ebv {
				continue
			}
		}
		results = append(results, solution)
	}

	return &sliceIterator{values: results}, nil
}

func groupKey(b pattern.Binding, keys []string) string {
	var buf []byte
	for _, k := range keys {
		v, ok := b.Lookup(k)
		if ok {
			buf = append(buf, tuple.Pack(v)...)
		}
		buf = append(buf, 0x1F)
	}
	return string(buf)
}

type groupState struct {
	keyValues    pattern.Binding
	accumulators []*accumulator
}

func newGroupState(first pattern.Binding, keys []string) *groupState {
	kv := make(pattern.Binding, len(keys))
	for _, k := range keys {
		if v, ok := first.Lookup(k); ok {
			kv[k] = v
		}
	}
	return &groupState{keyValues: kv}
}

// accumulator folds values into one aggregate result. It is lazily
// sized per group inside createGroupByIterator via groupState, but
// allocated per aggregate definition the first time a group is seen.
type accumulator struct {
	fn       pattern.AggFunc
	distinct bool
	seen     map[string]struct{}
	count    int64
	numCount int64 // count of values that converted to numeric, for sum/avg
	sum      float64
	intSum   int64 // exact running sum of the KindInt values, returned by SUM when allInt
	allInt   bool  // true iff every numeric value folded into sum so far was KindInt
	min, max tuple.Element
	any      bool
}

func (g *groupState) ensureAccumulators(aggs []pattern.Aggregate) {
	if g.accumulators != nil {
		return
	}
	g.accumulators = make([]*accumulator, len(aggs))
	for i, a := range aggs {
		acc := &accumulator{fn: a.Func, distinct: a.Distinct, allInt: true}
		if a.Distinct {
			acc.seen = make(map[string]struct{})
		}
		g.accumulators[i] = acc
	}
}

func (a *accumulator) add(v tuple.Element, agg pattern.Aggregate) {
	if a.distinct {
		key := string(tuple.Pack(v))
		if _, dup := a.seen[key]; dup {
			return
		}
		a.seen[key] = struct{}{}
	}
	a.count++
	if f, ok := asNumeric(v); ok {
		a.sum += f
		a.numCount++
		if v.Kind != tuple.KindInt {
			a.allInt = false
		} else {
			a.intSum += v.Int
		}
	}
	if v.Kind == tuple.KindNull {
		return
	}
	if !a.any {
		a.min, a.max = v, v
		a.any = true
	} else {
		if less(v, a.min) {
			a.min = v
		}
		if less(a.max, v) {
			a.max = v
		}
	}
}

func (a *accumulator) result() tuple.Element {
	switch a.fn {
	case pattern.AggCount:
		return tuple.Int(a.count)
	case pattern.AggSum:
		if a.allInt {
			return tuple.Int(a.intSum)
		}
		return tuple.Double(a.sum)
	case pattern.AggAvg:
		if a.numCount == 0 {
			return tuple.Null()
		}
		return tuple.Double(a.sum / float64(a.numCount))
	case pattern.AggMin:
		return a.min
	case pattern.AggMax:
		return a.max
	default:
		return tuple.Null()
	}
}

func asNumeric(v tuple.Element) (float64, bool) {
	switch v.Kind {
	case tuple.KindInt:
		return float64(v.Int), true
	case tuple.KindDouble:
		return v.Double, true
	default:
		return 0, false
	}
}

// kindRank orders value kinds for MIN/MAX's total order: numeric <
// string lexicographic < bool < blank.
func kindRank(k tuple.Kind) int {
	switch k {
	case tuple.KindInt, tuple.KindDouble:
		return 0
	case tuple.KindString:
		return 1
	case tuple.KindBool:
		return 2
	case tuple.KindBytes:
		return 3
	default:
		return 4
	}
}

func less(a, b tuple.Element) bool {
	if af, aok := asNumeric(a); aok {
		if bf, bok := asNumeric(b); bok {
			return af < bf
		}
	}
	if a.Kind == tuple.KindString && b.Kind == tuple.KindString {
		return a.Str < b.Str
	}
	if a.Kind == tuple.KindBool && b.Kind == tuple.KindBool {
		return !a.Bool && b.Bool
	}
	if a.Kind != b.Kind {
		return kindRank(a.Kind) < kindRank(b.Kind)
	}
	return false
}

type sliceIterator struct {
	values []pattern.Binding
	idx    int
}

func (it *sliceIterator) Next() bool {
	if it.idx >= len(it.values) {
		return false
	}
	it.idx++
	return true
}

func (it *sliceIterator) Binding() pattern.Binding {
	return it.values[it.idx-1]
}
func (it *sliceIterator) Err() error   { return nil }
func (it *sliceIterator) Close() error { return nil }
