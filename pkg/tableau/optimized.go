package tableau

import (
	"sync"

	"github.com/kvgraph/engine/pkg/owl"
)

// OptimizedReasoner is a faster companion to Reasoner: it caches
// types-of results keyed by individual IRI until the ontology is
// mutated, exploits the precomputed Hierarchy for the common purely
// structural case (an individual's classAssertion names a named class
// with no existential/cardinality content), and only defers to the full
// tableau for classes whose definition actually requires it.
type OptimizedReasoner struct {
	ontology *owl.Ontology
	inner    *Reasoner

	mu    sync.Mutex
	cache map[string][]string
}

// NewOptimizedReasoner wraps o and registers a cache invalidator with
// pkg/owl so that reloading this ontology through a Store drops the
// cache: mutating an ontology invalidates any optimized-reasoner cache
// whose ontology id matches.
func NewOptimizedReasoner(o *owl.Ontology) *OptimizedReasoner {
	or := &OptimizedReasoner{
		ontology: o,
		inner:    NewReasoner(o),
		cache:    make(map[string][]string),
	}
	owl.RegisterCacheInvalidator(o.IRI, or.invalidate)
	return or
}

func (or *OptimizedReasoner) invalidate() {
	or.mu.Lock()
	defer or.mu.Unlock()
	or.cache = make(map[string][]string)
	or.inner = NewReasoner(or.ontology)
}

// Types returns individualIRI's forced types, serving from cache when
// possible.
func (or *OptimizedReasoner) Types(individualIRI string) []string {
	or.mu.Lock()
	if cached, ok := or.cache[individualIRI]; ok {
		or.mu.Unlock()
		return cached
	}
	or.mu.Unlock()

	if fast, ok := or.structuralTypes(individualIRI); ok {
		or.mu.Lock()
		or.cache[individualIRI] = fast
		or.mu.Unlock()
		return fast
	}

	types := or.inner.Types(individualIRI)
	or.mu.Lock()
	or.cache[individualIRI] = types
	or.mu.Unlock()
	return types
}

// structuralTypes answers Types purely from the precomputed Hierarchy
// when every classAssertion naming individualIRI is a named class (no
// existential/universal/cardinality content that would require running
// the tableau): it exploits the precomputed hierarchy for the common
// purely-structural case and defers to the tableau only for defined
// classes (equivalent-class definitions requiring existential/value
// tests). ok is false when the fast path does not apply and the caller
// must fall back to the full tableau.
func (or *OptimizedReasoner) structuralTypes(individualIRI string) ([]string, bool) {
	hier := or.inner.Hierarchy()
	seen := map[string]struct{}{Thing: {}}
	out := []string{Thing}
	found := false

	for _, a := range or.ontology.Axioms {
		if a.Kind != owl.AxiomClassAssertion || a.Individual != individualIRI {
			continue
		}
		if a.Sub == nil || a.Sub.Kind != owl.ExprClass {
			return nil, false
		}
		found = true
		for super := range hier.Supers(a.Sub.IRI) {
			if _, ok := seen[super]; !ok {
				seen[super] = struct{}{}
				out = append(out, super)
			}
		}
	}
	if !found {
		return nil, false
	}
	// Equivalent-class definitions whose right-hand side is itself
	// non-structural (existential/cardinality) would add further forced
	// types beyond what Supers already captures; bail to the full
	// tableau whenever such a definition exists anywhere in scope, since
	// this fast path cannot evaluate it.
	for _, a := range or.ontology.Axioms {
		if a.Kind == owl.AxiomEquivalentClasses && a.Super != nil && a.Super.Kind != owl.ExprClass {
			return nil, false
		}
	}
	return out, true
}

// Instances returns every individual whose Types include classIRI.
func (or *OptimizedReasoner) Instances(classIRI string) []string {
	var out []string
	for _, iri := range or.inner.individualIRIs() {
		for _, t := range or.Types(iri) {
			if t == classIRI {
				out = append(out, iri)
				break
			}
		}
	}
	return out
}

// Subsumes defers to the underlying tableau: subsumption between
// arbitrary class expressions always needs a satisfiability check.
func (or *OptimizedReasoner) Subsumes(c, d *owl.ClassExpr) bool { return or.inner.Subsumes(c, d) }

// CheckSatisfiability defers to the underlying tableau.
func (or *OptimizedReasoner) CheckSatisfiability(expr *owl.ClassExpr) (bool, *Graph) {
	return or.inner.CheckSatisfiability(expr)
}
