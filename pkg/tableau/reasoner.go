package tableau

import (
	"fmt"

	"github.com/kvgraph/engine/pkg/owl"
)

// Thing is the implicit top concept every individual belongs to.
// types(of: iri) always includes owl:Thing.
const Thing = "http://www.w3.org/2002/07/owl#Thing"

// DefaultMaxBacktrackDepth bounds DRed-style cascading satisfiability
// checks: the max backtrack depth, default 100 for a DRed cascade and
// unbounded by default for satisfiability. Reasoner.CheckSatisfiability
// does not apply this bound itself (callers that need the DRed default
// pass it via MaxBacktrack); zero means unbounded.
const DefaultMaxBacktrackDepth = 100

// choicePoint is one disjunction awaiting resolution.
type choicePoint struct {
	node         NodeID
	alternatives []*owl.ClassExpr
	nextAlt      int
	checkpoint   int
}

// Reasoner drives expansion of a completion Graph against one ontology
// snapshot's precomputed Hierarchy.
type Reasoner struct {
	ontology     *owl.Ontology
	hier         *Hierarchy
	disjoint     map[string]map[string]struct{}
	MaxBacktrack int // 0 = unbounded
}

// NewReasoner builds a Reasoner over a frozen snapshot of o: the
// ontology is treated as an immutable snapshot during any one reasoning
// call.
func NewReasoner(o *owl.Ontology) *Reasoner {
	return &Reasoner{
		ontology: o,
		hier:     BuildHierarchy(o),
		disjoint: disjointIndex(o),
	}
}

// Hierarchy exposes the precomputed class/role index this reasoner was
// built with.
func (r *Reasoner) Hierarchy() *Hierarchy { return r.hier }

// CheckSatisfiability builds an initial graph with one root node
// containing expr and expands it until saturation (satisfiable) or
// every choice point is exhausted with a clash everywhere.
func (r *Reasoner) CheckSatisfiability(expr *owl.ClassExpr) (bool, *Graph) {
	g := NewGraph()
	root := g.CreateNode(0, false)
	addConceptWithClosure(g, r.hier, expr, root)
	return r.saturate(g, root), g
}

// saturate runs expansion rounds, turning disjunctions into choice
// points and backtracking on clash, until either no node clashes and no
// rule applies (satisfiable) or backtracking is exhausted
// (unsatisfiable). root is not consulted; satisfiability is a property
// of the whole graph.
func (r *Reasoner) saturate(g *Graph, root NodeID) bool {
	var choicePoints []*choicePoint
	depth := 0

	for {
		changed, pending := expandRound(g, r.hier)
		g.UpdateBlocking()

		if r.anyClash(g) {
			alt, ok := r.backtrack(g, &choicePoints)
			if !ok {
				return false
			}
			depth++
			if r.MaxBacktrack > 0 && depth > r.MaxBacktrack {
				return false
			}
			_ = alt
			continue
		}

		if pending != nil {
			checkpoint := g.TrailLength()
			cp := &choicePoint{node: pending.node, alternatives: pending.alternatives, checkpoint: checkpoint}
			addConceptWithClosure(g, r.hier, cp.alternatives[0], cp.node)
			cp.nextAlt = 1
			choicePoints = append(choicePoints, cp)
			continue
		}

		if !changed {
			return true
		}
	}
}

// anyClash reports whether any live node in g has a clash.
func (r *Reasoner) anyClash(g *Graph) bool {
	for id, n := range g.nodes {
		if n.merged {
			continue
		}
		if clash(g, r.hier, id, r.disjoint) {
			return true
		}
	}
	return false
}

// backtrack pops choice points off the stack until one has an
// unexplored alternative, rewinds the graph to its checkpoint, commits
// the next alternative, and reports ok=false only once every choice
// point is exhausted.
func (r *Reasoner) backtrack(g *Graph, stack *[]*choicePoint) (*owl.ClassExpr, bool) {
	for len(*stack) > 0 {
		top := (*stack)[len(*stack)-1]
		if top.nextAlt >= len(top.alternatives) {
			*stack = (*stack)[:len(*stack)-1]
			continue
		}
		g.Rewind(top.checkpoint)
		alt := top.alternatives[top.nextAlt]
		top.nextAlt++
		addConceptWithClosure(g, r.hier, alt, top.node)
		return alt, true
	}
	return nil, false
}

// Subsumes tests C ⊒ D by checking unsatisfiability of D ⊓ ¬C.
func (r *Reasoner) Subsumes(c, d *owl.ClassExpr) bool {
	sat, _ := r.CheckSatisfiability(owl.Intersection(d, owl.Complement(c)))
	return !sat
}

// Types returns the class IRIs individual is forced to belong to,
// always including Thing. It builds a completion
// graph rooted at the individual's nominal node, asserts every
// classAssertion axiom naming that individual, saturates, and reports
// every named class present in the root's (possibly merged) concept
// set.
func (r *Reasoner) Types(individualIRI string) []string {
	g := NewGraph()
	root := g.GetOrCreateNominal(individualIRI)

	for _, a := range r.ontology.Axioms {
		if a.Kind == owl.AxiomClassAssertion && a.Individual == individualIRI && a.Sub != nil {
			addConceptWithClosure(g, r.hier, a.Sub, root)
		}
	}
	r.applyPropertyAssertions(g, individualIRI)

	if !r.saturate(g, root) {
		return []string{} // inconsistent: no types are reported, not even Thing
	}

	seen := map[string]struct{}{Thing: {}}
	out := []string{Thing}
	for _, c := range g.Concepts(root) {
		if c.Kind == owl.ExprClass {
			if _, ok := seen[c.IRI]; !ok {
				seen[c.IRI] = struct{}{}
				out = append(out, c.IRI)
			}
		}
	}
	return out
}

// applyPropertyAssertions seeds role edges from propertyAssertion
// axioms that mention individualIRI as subject, so ∀/∃/cardinality
// restrictions on asserted properties are expanded against real
// successors rather than only freshly-created ones.
func (r *Reasoner) applyPropertyAssertions(g *Graph, individualIRI string) {
	root := g.GetOrCreateNominal(individualIRI)
	for _, a := range r.ontology.Axioms {
		if a.Kind != owl.AxiomPropertyAssertion || a.Individual != individualIRI {
			continue
		}
		if a.HasLiteral {
			continue // data property assertions carry no successor node to expand against
		}
		target := g.GetOrCreateNominal(a.Object)
		g.AddEdge(root, a.PropertyA, target)
		applyRoleCharacteristics(g, r.hier, root, a.PropertyA, target)
	}
}

// Instances returns every individual the ontology asserts (directly or
// by inference) to have classIRI among its Types.
func (r *Reasoner) Instances(classIRI string) []string {
	var out []string
	for _, iri := range r.individualIRIs() {
		for _, t := range r.Types(iri) {
			if t == classIRI {
				out = append(out, iri)
				break
			}
		}
	}
	return out
}

func (r *Reasoner) individualIRIs() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range r.ontology.Axioms {
		var iri string
		switch a.Kind {
		case owl.AxiomClassAssertion:
			iri = a.Individual
		case owl.AxiomPropertyAssertion:
			iri = a.Individual
		}
		if iri == "" {
			continue
		}
		if _, ok := seen[iri]; !ok {
			seen[iri] = struct{}{}
			out = append(out, iri)
		}
	}
	return out
}

// String implements fmt.Stringer for debugging completion graphs in
// test failure output.
func (g *Graph) String() string {
	return fmt.Sprintf("Graph{%d nodes}", len(g.nodes))
}
