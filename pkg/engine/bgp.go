package engine

import (
	"sort"

	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/pattern"
)

// pushedFilterBonus is the score contribution of one stored-field
// equality filter already pushed down into a triple, relative to the
// weight given a bound structural slot.
const (
	boundStructuralWeight = 3
	pushedFilterBonus     = 1
)

// selectivityScore estimates how selective a Basic pattern is:
// 3 times its count of bound (non-variable) structural slots, plus a
// bonus for every stored-field equality Comparator already pushed down
// into it. A pattern with more bound slots or more equality pushdowns
// is assumed to match fewer records and should be scanned first in a
// left-deep join chain, since its output narrows what every later
// pattern needs to join against.
func selectivityScore(b *pattern.Basic, pushed []edgeindex.Comparator) int {
	score := 0
	for _, t := range []pattern.Term{b.Subject, b.Predicate, b.Object, b.Graph} {
		if !t.IsVariable() && t.Value.Kind != 0 {
			score += boundStructuralWeight
		}
	}
	for _, f := range pushed {
		if f.Op == edgeindex.OpEq {
			score += pushedFilterBonus
		}
	}
	return score
}

// PlanBGP reorders a basic graph pattern (a flat list of edge patterns
// implicitly joined together) by descending selectivity score and
// builds a left-deep *pattern.Join chain over the result. filters maps
// a Basic to the stored-field equality Comparators a caller has already
// arranged to push down into it (e.g. via createFilterIterator's
// pushdown); a nil filters or a Basic absent from it scores as having
// no pushed filters. Ties keep the caller's original relative order
// (stable sort), since the caller's order often already reflects a
// domain-specific preference.
func PlanBGP(basics []*pattern.Basic, filters map[*pattern.Basic][]edgeindex.Comparator) pattern.Node {
	if len(basics) == 0 {
		return nil
	}
	ordered := make([]*pattern.Basic, len(basics))
	copy(ordered, basics)
	sort.SliceStable(ordered, func(i, j int) bool {
		return selectivityScore(ordered[i], filters[ordered[i]]) > selectivityScore(ordered[j], filters[ordered[j]])
	})

	var tree pattern.Node = ordered[0]
	for _, b := range ordered[1:] {
		tree = &pattern.Join{Left: tree, Right: b}
	}
	return tree
}
