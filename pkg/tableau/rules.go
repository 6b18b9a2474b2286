package tableau

import "github.com/kvgraph/engine/pkg/owl"

// clash reports whether n's concept set contains a class and its
// complement (n is clashed if its concept set contains both C and ¬C),
// or two classes the ontology declares disjoint.
func clash(g *Graph, hier *Hierarchy, n NodeID, disjoint map[string]map[string]struct{}) bool {
	gn := g.Node(n)
	for _, c := range gn.concepts {
		if c.Kind == owl.ExprComplement {
			if _, ok := gn.concepts[c.Operands[0].String()]; ok {
				return true
			}
		}
		if c.Kind == owl.ExprClass {
			for other := range disjoint[c.IRI] {
				if _, ok := gn.concepts[owl.NamedClass(other).String()]; ok {
					return true
				}
			}
		}
	}
	return false
}

func disjointIndex(o *owl.Ontology) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	add := func(a, b string) {
		if out[a] == nil {
			out[a] = make(map[string]struct{})
		}
		out[a][b] = struct{}{}
	}
	for _, a := range o.Axioms {
		if a.Kind == owl.AxiomDisjointClasses && a.Sub != nil && a.Super != nil &&
			a.Sub.Kind == owl.ExprClass && a.Super.Kind == owl.ExprClass {
			add(a.Sub.IRI, a.Super.IRI)
			add(a.Super.IRI, a.Sub.IRI)
		}
	}
	return out
}

// addConceptWithClosure asserts c at n and, if c names a known class,
// also asserts every superclass the precomputed Hierarchy gives it: the
// TBox closure is consulted on every addConcept to propagate supers.
// Returns true iff anything new was added.
func addConceptWithClosure(g *Graph, hier *Hierarchy, c *owl.ClassExpr, n NodeID) bool {
	changed := g.AddConcept(c, n)
	if c.Kind == owl.ExprClass {
		for super := range hier.Supers(c.IRI) {
			if super == c.IRI {
				continue
			}
			if g.AddConcept(owl.NamedClass(super), n) {
				changed = true
			}
		}
	}
	return changed
}

// expandRound applies every applicable non-choice expansion rule once
// across the whole graph (conjunction/existential/universal/
// min-cardinality rules, plus the role characteristics
// symmetric/transitive/inverse/property-chain). It returns changed=true
// if anything was added, and the first disjunction it found still
// unresolved (nil if none) for the caller to turn into a choice point.
func expandRound(g *Graph, hier *Hierarchy) (changed bool, pendingDisjunction *pendingChoice) {
	// iterate a stable snapshot of current node ids; new nodes created
	// during this round are picked up on the next round.
	var ids []NodeID
	for id, n := range g.nodes {
		if n.merged {
			continue
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		gn := g.Node(id)
		if gn.blocked {
			continue
		}
		var concepts []*owl.ClassExpr
		for _, c := range gn.concepts {
			concepts = append(concepts, c)
		}
		for _, c := range concepts {
			switch c.Kind {
			case owl.ExprIntersection:
				for _, op := range c.Operands {
					if addConceptWithClosure(g, hier, op, id) {
						changed = true
					}
				}
			case owl.ExprUnion:
				resolved := false
				for _, op := range c.Operands {
					if g.HasConcept(id, op) {
						resolved = true
						break
					}
				}
				if !resolved && pendingDisjunction == nil {
					pendingDisjunction = &pendingChoice{node: id, alternatives: c.Operands}
				}
			case owl.ExprSomeValuesFrom:
				if !hasSatisfyingSuccessor(g, id, c.Property, c.Filler) {
					child := g.CreateNode(id, true)
					g.AddEdge(id, c.Property, child)
					applyRoleCharacteristics(g, hier, id, c.Property, child)
					if addConceptWithClosure(g, hier, c.Filler, child) {
						changed = true
					}
					changed = true
				}
			case owl.ExprAllValuesFrom:
				for _, succ := range g.Successors(id, c.Property) {
					if addConceptWithClosure(g, hier, c.Filler, succ) {
						changed = true
					}
				}
				for sub := range hier.SubPropertiesOf(c.Property) {
					if sub == c.Property {
						continue
					}
					for _, succ := range g.Successors(id, sub) {
						if addConceptWithClosure(g, hier, c.Filler, succ) {
							changed = true
						}
					}
				}
			case owl.ExprMinCardinality:
				satisfying := countSatisfyingSuccessors(g, id, c.Property, c.Filler)
				for satisfying < c.Cardinality {
					child := g.CreateNode(id, true)
					g.AddEdge(id, c.Property, child)
					applyRoleCharacteristics(g, hier, id, c.Property, child)
					if c.Filler != nil {
						addConceptWithClosure(g, hier, c.Filler, child)
					}
					satisfying++
					changed = true
				}
			case owl.ExprMaxCardinality:
				if mergeExcessSuccessors(g, hier, id, c.Property, c.Filler, c.Cardinality) {
					changed = true
				}
			}
		}
	}
	for iri, p := range hier.properties {
		if p.Transitive && ExpandTransitiveRole(g, iri) {
			changed = true
		}
	}
	for _, pc := range hier.Chains() {
		if ApplyPropertyChain(g, pc.chain, pc.head) {
			changed = true
		}
	}
	return changed, pendingDisjunction
}

type pendingChoice struct {
	node         NodeID
	alternatives []*owl.ClassExpr
}

func hasSatisfyingSuccessor(g *Graph, n NodeID, role string, filler *owl.ClassExpr) bool {
	for _, s := range g.Successors(n, role) {
		if filler == nil || g.HasConcept(s, filler) {
			return true
		}
	}
	return false
}

func countSatisfyingSuccessors(g *Graph, n NodeID, role string, filler *owl.ClassExpr) int {
	count := 0
	seen := make(map[NodeID]bool)
	for _, s := range g.Successors(n, role) {
		if seen[s] {
			continue
		}
		seen[s] = true
		if filler == nil || g.HasConcept(s, filler) {
			count++
		}
	}
	return count
}

// mergeExcessSuccessors enforces ≤k r.filler by merging pairs of
// qualifying successors down to k of them. This package performs the
// merge greedily and relies on the reasoner's clash-then-backtrack loop
// to retry via a different expansion order if the merge itself clashes.
func mergeExcessSuccessors(g *Graph, hier *Hierarchy, n NodeID, role string, filler *owl.ClassExpr, k int) bool {
	var qualifying []NodeID
	seen := make(map[NodeID]bool)
	for _, s := range g.Successors(n, role) {
		if seen[s] {
			continue
		}
		seen[s] = true
		if filler == nil || g.HasConcept(s, filler) {
			qualifying = append(qualifying, s)
		}
	}
	changed := false
	for len(qualifying) > k {
		a, b := qualifying[0], qualifying[1]
		g.MergeNodes(a, b)
		qualifying = append([]NodeID{a}, qualifying[2:]...)
		changed = true
	}
	return changed
}

// applyRoleCharacteristics adds the derived edges a freshly created
// r-edge implies: the inverse edge if role has a declared inverse, and
// the reverse edge again if role is symmetric.
func applyRoleCharacteristics(g *Graph, hier *Hierarchy, from NodeID, role string, to NodeID) {
	if p := hier.Property(role); p != nil {
		if p.Inverse != "" {
			g.AddEdge(to, p.Inverse, from)
		}
		if p.Symmetric {
			g.AddEdge(to, role, from)
		}
	}
}

// ExpandTransitiveRole computes the one-pass closure of a transitive
// role: for every x -r-> y -r-> z, adds x -r-> z. Returns true iff any
// edge was added.
func ExpandTransitiveRole(g *Graph, role string) bool {
	changed := false
	var ids []NodeID
	for id, n := range g.nodes {
		if !n.merged {
			ids = append(ids, id)
		}
	}
	for _, x := range ids {
		for _, y := range g.Successors(x, role) {
			for _, z := range g.Successors(y, role) {
				if g.AddEdge(x, role, z) {
					changed = true
				}
			}
		}
	}
	return changed
}

// ApplyPropertyChain computes one pass of chain ⊑ head: for every path
// n0 -p1-> n1 -p2-> ... -pk-> nk along chain, adds n0 -head-> nk.
func ApplyPropertyChain(g *Graph, chain []string, head string) bool {
	if len(chain) == 0 {
		return false
	}
	changed := false
	var ids []NodeID
	for id, n := range g.nodes {
		if !n.merged {
			ids = append(ids, id)
		}
	}
	for _, start := range ids {
		ends := []NodeID{start}
		for _, role := range chain {
			var next []NodeID
			for _, cur := range ends {
				next = append(next, g.Successors(cur, role)...)
			}
			ends = next
			if len(ends) == 0 {
				break
			}
		}
		for _, end := range ends {
			if g.AddEdge(start, head, end) {
				changed = true
			}
		}
	}
	return changed
}
