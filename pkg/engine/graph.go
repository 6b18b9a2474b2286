package engine

import (
	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/pattern"
)

// createGraphIterator implements the GRAPH decorator, the named-graph
// variant: every Basic leaf beneath Input is additionally constrained to
// GraphTerm before execution. PropertyPath leaves carry no graph term and
// pass through unconstrained.
func (e *Engine) createGraphIterator(n *pattern.Graph, txn kv.Transaction) (BindingIterator, error) {
	decorated := applyGraphTerm(n.Input, n.GraphTerm)
	return e.Execute(decorated, txn)
}

func applyGraphTerm(node pattern.Node, term pattern.Term) pattern.Node {
	switch n := node.(type) {
	case *pattern.Basic:
		return &pattern.Basic{Index: n.Index, Subject: n.Subject, Predicate: n.Predicate, Object: n.Object, Graph: term}
	case *pattern.PropertyPath:
		return &pattern.PropertyPath{Subject: n.Subject, Object: n.Object, Path: n.Path}
	case *pattern.Join:
		return &pattern.Join{Left: applyGraphTerm(n.Left, term), Right: applyGraphTerm(n.Right, term)}
	case *pattern.Optional:
		return &pattern.Optional{Left: applyGraphTerm(n.Left, term), Right: applyGraphTerm(n.Right, term)}
	case *pattern.Union:
		return &pattern.Union{Left: applyGraphTerm(n.Left, term), Right: applyGraphTerm(n.Right, term)}
	case *pattern.Minus:
		return &pattern.Minus{Left: applyGraphTerm(n.Left, term), Right: applyGraphTerm(n.Right, term)}
	case *pattern.Filter:
		return &pattern.Filter{Input: applyGraphTerm(n.Input, term), Expr: n.Expr}
	case *pattern.Bind:
		return &pattern.Bind{Input: applyGraphTerm(n.Input, term), Expr: n.Expr, Variable: n.Variable}
	case *pattern.GroupBy:
		return &pattern.GroupBy{Input: applyGraphTerm(n.Input, term), Keys: n.Keys, Aggregates: n.Aggregates, Having: n.Having}
	case *pattern.Graph:
		// A nested GRAPH decorator overrides the outer one for its subtree.
		return n
	default:
		return node
	}
}
