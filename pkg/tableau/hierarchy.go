package tableau

import "github.com/kvgraph/engine/pkg/owl"

// Hierarchy is the precomputed class-subsumption and role-hierarchy
// index built once per ontology snapshot: class-hierarchy edges from
// subClassOf/equivalentClasses axioms are precomputed once
// (Floyd-Warshall-like) and consulted on every addConcept to propagate
// supers, so the hierarchy is traversed in O(ancestors) per assertion
// rather than re-running the tableau per class.
type Hierarchy struct {
	// supers[c] is every class directly or transitively implied by c
	// via subClassOf/equivalentClasses, including c itself.
	supers map[string]map[string]struct{}
	// propertyCharacteristics indexed by property IRI.
	properties map[string]*owl.Property
	// subPropertyOf[p] is every property p is (transitively) a
	// sub-property of, including p itself.
	subPropertyOf map[string]map[string]struct{}
	domain        map[string]string
	range_        map[string]string
	chains        []propertyChain
}

type propertyChain struct {
	chain []string
	head  string
}

// BuildHierarchy computes the transitive closure of the ontology's
// class and property axioms in one pass, using repeated relaxation over
// the direct-edge adjacency the way the Floyd-Warshall algorithm closes
// a distance matrix.
func BuildHierarchy(o *owl.Ontology) *Hierarchy {
	h := &Hierarchy{
		supers:        make(map[string]map[string]struct{}),
		properties:    make(map[string]*owl.Property),
		subPropertyOf: make(map[string]map[string]struct{}),
		domain:        make(map[string]string),
		range_:        make(map[string]string),
	}

	ensure := func(m map[string]map[string]struct{}, k string) map[string]struct{} {
		s, ok := m[k]
		if !ok {
			s = make(map[string]struct{})
			m[k] = s
		}
		s[k] = struct{}{}
		return s
	}

	for iri, p := range o.Properties {
		h.properties[iri] = p
		ensure(h.subPropertyOf, iri)
		if p.Domain != "" {
			h.domain[iri] = p.Domain
		}
		if p.Range != "" {
			h.range_[iri] = p.Range
		}
	}

	type directEdge struct{ from, to string }
	var classEdges []directEdge
	var propEdges []directEdge

	for _, a := range o.Axioms {
		switch a.Kind {
		case owl.AxiomSubClassOf:
			if a.Sub != nil && a.Super != nil && a.Sub.Kind == owl.ExprClass && a.Super.Kind == owl.ExprClass {
				classEdges = append(classEdges, directEdge{a.Sub.IRI, a.Super.IRI})
			}
		case owl.AxiomEquivalentClasses:
			if a.Sub != nil && a.Super != nil && a.Sub.Kind == owl.ExprClass && a.Super.Kind == owl.ExprClass {
				classEdges = append(classEdges, directEdge{a.Sub.IRI, a.Super.IRI})
				classEdges = append(classEdges, directEdge{a.Super.IRI, a.Sub.IRI})
			}
		case owl.AxiomSubPropertyOf:
			propEdges = append(propEdges, directEdge{a.PropertyA, a.PropertyB})
		case owl.AxiomDomain:
			if a.Sub != nil && a.Sub.Kind == owl.ExprClass {
				h.domain[a.PropertyA] = a.Sub.IRI
			}
		case owl.AxiomRange:
			if a.Sub != nil && a.Sub.Kind == owl.ExprClass {
				h.range_[a.PropertyA] = a.Sub.IRI
			}
		case owl.AxiomPropertyChain:
			h.chains = append(h.chains, propertyChain{chain: append([]string(nil), a.Chain...), head: a.PropertyA})
		}
	}

	for _, e := range classEdges {
		ensure(h.supers, e.from)
		ensure(h.supers, e.to)
	}
	for _, e := range propEdges {
		ensure(h.subPropertyOf, e.from)
		ensure(h.subPropertyOf, e.to)
	}

	// Relax repeatedly until no set grows — equivalent to
	// Floyd-Warshall's transitive closure for a sparse edge list.
	changed := true
	for changed {
		changed = false
		for _, e := range classEdges {
			before := len(h.supers[e.from])
			for s := range h.supers[e.to] {
				h.supers[e.from][s] = struct{}{}
			}
			if len(h.supers[e.from]) != before {
				changed = true
			}
		}
		for _, e := range propEdges {
			before := len(h.subPropertyOf[e.from])
			for s := range h.subPropertyOf[e.to] {
				h.subPropertyOf[e.from][s] = struct{}{}
			}
			if len(h.subPropertyOf[e.from]) != before {
				changed = true
			}
		}
	}

	return h
}

// Supers returns every class classIRI is a (transitive) subclass of,
// including classIRI itself.
func (h *Hierarchy) Supers(classIRI string) map[string]struct{} {
	if s, ok := h.supers[classIRI]; ok {
		return s
	}
	return map[string]struct{}{classIRI: {}}
}

// IsSubClassOf reports whether sub is a (transitive, reflexive) subclass
// of super.
func (h *Hierarchy) IsSubClassOf(sub, super string) bool {
	_, ok := h.Supers(sub)[super]
	return ok
}

// SubPropertiesOf returns every property that is a (transitive,
// reflexive) sub-property of propIRI — i.e. the set that, combined with
// prpSpo1, fires the sub-property rule.
func (h *Hierarchy) SubPropertiesOf(propIRI string) map[string]struct{} {
	out := make(map[string]struct{})
	for p, supers := range h.subPropertyOf {
		if _, ok := supers[propIRI]; ok {
			out[p] = struct{}{}
		}
	}
	out[propIRI] = struct{}{}
	return out
}

// Property returns the property metadata for iri, or nil.
func (h *Hierarchy) Property(iri string) *owl.Property { return h.properties[iri] }

// Domain returns the declared domain class IRI of propIRI, or "".
func (h *Hierarchy) Domain(propIRI string) string { return h.domain[propIRI] }

// Range returns the declared range class IRI of propIRI, or "".
func (h *Hierarchy) Range(propIRI string) string { return h.range_[propIRI] }

// Chains returns every declared property chain.
func (h *Hierarchy) Chains() []propertyChain { return h.chains }
