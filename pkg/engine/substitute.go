package engine

import "github.com/kvgraph/engine/pkg/pattern"

// substitute returns a copy of node with every variable Term bound in b
// replaced by a literal Term, so the copy can be re-executed with those
// values pushed into the underlying Scanner's bound prefix instead of
// filtered out after the fact.
func substitute(node pattern.Node, b pattern.Binding) pattern.Node {
	switch n := node.(type) {
	case *pattern.Basic:
		return &pattern.Basic{
			Index:     n.Index,
			Subject:   substituteTerm(n.Subject, b),
			Predicate: substituteTerm(n.Predicate, b),
			Object:    substituteTerm(n.Object, b),
			Graph:     substituteTerm(n.Graph, b),
		}
	case *pattern.Join:
		return &pattern.Join{Left: substitute(n.Left, b), Right: substitute(n.Right, b)}
	case *pattern.Optional:
		return &pattern.Optional{Left: substitute(n.Left, b), Right: substitute(n.Right, b)}
	case *pattern.Union:
		return &pattern.Union{Left: substitute(n.Left, b), Right: substitute(n.Right, b)}
	case *pattern.Minus:
		return &pattern.Minus{Left: substitute(n.Left, b), Right: substitute(n.Right, b)}
	case *pattern.Filter:
		return &pattern.Filter{Input: substitute(n.Input, b), Expr: n.Expr}
	case *pattern.Bind:
		return &pattern.Bind{Input: substitute(n.Input, b), Expr: n.Expr, Variable: n.Variable}
	case *pattern.GroupBy:
		return &pattern.GroupBy{Input: substitute(n.Input, b), Keys: n.Keys, Aggregates: n.Aggregates, Having: n.Having}
	case *pattern.PropertyPath:
		return &pattern.PropertyPath{Subject: substituteTerm(n.Subject, b), Object: substituteTerm(n.Object, b), Path: n.Path}
	case *pattern.Graph:
		return &pattern.Graph{Input: substitute(n.Input, b), GraphTerm: substituteTerm(n.GraphTerm, b)}
	default:
		return node
	}
}

func substituteTerm(t pattern.Term, b pattern.Binding) pattern.Term {
	if !t.IsVariable() {
		return t
	}
	if v, ok := b.Lookup(t.Name); ok {
		return pattern.Bound(v)
	}
	return t
}

// collectVariables gathers every variable name a node's structural
// slots reference (ignoring variables introduced only inside a Filter's
// or Bind's expression, which never constrain a join).
func collectVariables(node pattern.Node, into map[string]struct{}) {
	switch n := node.(type) {
	case *pattern.Basic:
		addVar(into, n.Subject)
		addVar(into, n.Predicate)
		addVar(into, n.Object)
		addVar(into, n.Graph)
	case *pattern.Join:
		collectVariables(n.Left, into)
		collectVariables(n.Right, into)
	case *pattern.Optional:
		collectVariables(n.Left, into)
		collectVariables(n.Right, into)
	case *pattern.Union:
		collectVariables(n.Left, into)
		collectVariables(n.Right, into)
	case *pattern.Minus:
		collectVariables(n.Left, into)
		collectVariables(n.Right, into)
	case *pattern.Filter:
		collectVariables(n.Input, into)
	case *pattern.Bind:
		collectVariables(n.Input, into)
		into[n.Variable] = struct{}{}
	case *pattern.GroupBy:
		collectVariables(n.Input, into)
	case *pattern.PropertyPath:
		addVar(into, n.Subject)
		addVar(into, n.Object)
	case *pattern.Graph:
		collectVariables(n.Input, into)
		addVar(into, n.GraphTerm)
	}
}

func addVar(into map[string]struct{}, t pattern.Term) {
	if t.IsVariable() {
		into[t.Name] = struct{}{}
	}
}

func sharedVariables(left, right pattern.Node) []string {
	leftVars := make(map[string]struct{})
	rightVars := make(map[string]struct{})
	collectVariables(left, leftVars)
	collectVariables(right, rightVars)

	var shared []string
	for v := range leftVars {
		if _, ok := rightVars[v]; ok {
			shared = append(shared, v)
		}
	}
	return shared
}
