package incremental

import "github.com/kvgraph/engine/pkg/owl"

// derivation is one candidate consequence a rule produced: the fact
// itself, the rule's name, and the antecedent fact keys it consumed.
type derivation struct {
	fact        Fact
	rule        string
	antecedents []string
}

// schemaIndex is the static (axiom-backed) half of the rule premises:
// subclass/equivalent-class closure, property characteristics, and
// someValuesFrom restriction definitions. Unlike pkg/tableau's
// Hierarchy this only needs direct lookups, not a precomputed
// transitive closure, because cax-sco/cax-eqc fire repeatedly across
// the fixpoint loop and will walk one subClassOf edge per pass — the
// fixpoint itself performs the transitive closure one hop at a time,
// the way an OWL-RL forward-chaining engine is specified to behave.
type schemaIndex struct {
	subClassOf       []edge
	equivalentClass  []edge // both directions already duplicated in
	subPropertyOf    []edge
	domain           map[string]string
	range_           map[string]string
	inverseOf        []edge
	symmetric        map[string]bool
	transitive       map[string]bool
	someValuesFrom   []svfDef // named class <-> (property, filler class)
}

type edge struct{ from, to string }

type svfDef struct {
	class    string
	property string
	filler   string // "" means owl:Thing (cls-svf2)
}

func buildSchemaIndex(o *owl.Ontology) *schemaIndex {
	idx := &schemaIndex{
		domain:     make(map[string]string),
		range_:     make(map[string]string),
		symmetric:  make(map[string]bool),
		transitive: make(map[string]bool),
	}
	for iri, p := range o.Properties {
		if p.Domain != "" {
			idx.domain[iri] = p.Domain
		}
		if p.Range != "" {
			idx.range_[iri] = p.Range
		}
		if p.Inverse != "" {
			idx.inverseOf = append(idx.inverseOf, edge{iri, p.Inverse})
		}
		if p.Symmetric {
			idx.symmetric[iri] = true
		}
		if p.Transitive {
			idx.transitive[iri] = true
		}
	}
	for _, a := range o.Axioms {
		switch a.Kind {
		case owl.AxiomSubClassOf:
			if a.Sub != nil && a.Super != nil && a.Sub.Kind == owl.ExprClass && a.Super.Kind == owl.ExprClass {
				idx.subClassOf = append(idx.subClassOf, edge{a.Sub.IRI, a.Super.IRI})
			}
		case owl.AxiomEquivalentClasses:
			if a.Sub != nil && a.Super != nil && a.Sub.Kind == owl.ExprClass && a.Super.Kind == owl.ExprClass {
				idx.equivalentClass = append(idx.equivalentClass, edge{a.Sub.IRI, a.Super.IRI})
				idx.equivalentClass = append(idx.equivalentClass, edge{a.Super.IRI, a.Sub.IRI})
			}
			if a.Sub != nil && a.Super != nil && a.Sub.Kind == owl.ExprClass && a.Super.Kind == owl.ExprSomeValuesFrom {
				idx.someValuesFrom = append(idx.someValuesFrom, svfDefFrom(a.Sub.IRI, a.Super))
			}
			if a.Sub != nil && a.Super != nil && a.Super.Kind == owl.ExprClass && a.Sub.Kind == owl.ExprSomeValuesFrom {
				idx.someValuesFrom = append(idx.someValuesFrom, svfDefFrom(a.Super.IRI, a.Sub))
			}
		case owl.AxiomSubPropertyOf:
			idx.subPropertyOf = append(idx.subPropertyOf, edge{a.PropertyA, a.PropertyB})
		case owl.AxiomDomain:
			if a.Sub != nil && a.Sub.Kind == owl.ExprClass {
				idx.domain[a.PropertyA] = a.Sub.IRI
			}
		case owl.AxiomRange:
			if a.Sub != nil && a.Sub.Kind == owl.ExprClass {
				idx.range_[a.PropertyA] = a.Sub.IRI
			}
		case owl.AxiomSymmetric:
			idx.symmetric[a.PropertyA] = true
		case owl.AxiomTransitive:
			idx.transitive[a.PropertyA] = true
		case owl.AxiomInverseOf:
			idx.inverseOf = append(idx.inverseOf, edge{a.PropertyA, a.PropertyB})
		}
	}
	return idx
}

func svfDefFrom(classIRI string, restriction *owl.ClassExpr) svfDef {
	filler := ""
	if restriction.Filler != nil && restriction.Filler.Kind == owl.ExprClass {
		filler = restriction.Filler.IRI
	}
	return svfDef{class: classIRI, property: restriction.Property, filler: filler}
}

// applyRules runs every OWL-RL rule this package implements once over
// facts, returning every newly entailed consequence not already present
// in facts. Callers drive this to a fixpoint by re-invoking it until it
// returns nothing new.
func applyRules(facts map[string]*factRecord, schema *schemaIndex) []derivation {
	var out []derivation
	seen := func(f Fact) bool {
		_, ok := facts[f.Key()]
		return ok
	}
	emit := func(f Fact, rule string, antecedents ...string) {
		if !seen(f) {
			out = append(out, derivation{fact: f, rule: rule, antecedents: antecedents})
		}
	}

	for _, rec := range facts {
		f := rec.fact
		switch f.Kind {
		case FactClassAssertion:
			// cax-sco
			for _, e := range schema.subClassOf {
				if e.from == f.Class {
					emit(Fact{Kind: FactClassAssertion, Individual: f.Individual, Class: e.to}, "caxSco", f.Key())
				}
			}
			// cax-eqc1 / cax-eqc2 (both directions already duplicated in equivalentClass)
			for _, e := range schema.equivalentClass {
				if e.from == f.Class {
					emit(Fact{Kind: FactClassAssertion, Individual: f.Individual, Class: e.to}, "caxEqc", f.Key())
				}
			}

		case FactPropertyAssertion:
			// prp-dom
			if c, ok := schema.domain[f.Property]; ok {
				emit(Fact{Kind: FactClassAssertion, Individual: f.Individual, Class: c}, "prpDom", f.Key())
			}
			// prp-rng
			if c, ok := schema.range_[f.Property]; ok {
				emit(Fact{Kind: FactClassAssertion, Individual: f.Object, Class: c}, "prpRng", f.Key())
			}
			// prp-inv1 / prp-inv2
			for _, e := range schema.inverseOf {
				if e.from == f.Property {
					emit(Fact{Kind: FactPropertyAssertion, Individual: f.Object, Property: e.to, Object: f.Individual}, "prpInv1", f.Key())
				}
				if e.to == f.Property {
					emit(Fact{Kind: FactPropertyAssertion, Individual: f.Object, Property: e.from, Object: f.Individual}, "prpInv2", f.Key())
				}
			}
			// prp-spo1
			for _, e := range schema.subPropertyOf {
				if e.from == f.Property {
					emit(Fact{Kind: FactPropertyAssertion, Individual: f.Individual, Property: e.to, Object: f.Object}, "prpSpo1", f.Key())
				}
			}
			// prp-symp
			if schema.symmetric[f.Property] {
				emit(Fact{Kind: FactPropertyAssertion, Individual: f.Object, Property: f.Property, Object: f.Individual}, "prpSymp", f.Key())
			}
			// prp-trp
			if schema.transitive[f.Property] {
				for _, rec2 := range facts {
					g := rec2.fact
					if g.Kind == FactPropertyAssertion && g.Property == f.Property && g.Individual == f.Object {
						emit(Fact{Kind: FactPropertyAssertion, Individual: f.Individual, Property: f.Property, Object: g.Object}, "prpTrp", f.Key(), g.Key())
					}
				}
			}
			// cls-svf1 / cls-svf2
			for _, svf := range schema.someValuesFrom {
				if svf.property != f.Property {
					continue
				}
				if svf.filler == "" {
					emit(Fact{Kind: FactClassAssertion, Individual: f.Individual, Class: svf.class}, "clsSvf2", f.Key())
					continue
				}
				if objRec, ok := facts[(Fact{Kind: FactClassAssertion, Individual: f.Object, Class: svf.filler}).Key()]; ok {
					emit(Fact{Kind: FactClassAssertion, Individual: f.Individual, Class: svf.class}, "clsSvf1", f.Key(), objRec.fact.Key())
				}
			}
		}
	}
	return out
}
