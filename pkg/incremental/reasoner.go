package incremental

import (
	"time"

	"github.com/kvgraph/engine/pkg/owl"
)

// Stats reports the work one AddAxiom/DeleteAxiom call did: counts of
// facts added/removed, tentative facts successfully rederived, and
// wall-clock time.
type Stats struct {
	InferencesAdded   int
	InferencesRemoved int
	Rederivations     int
	CascadingChecks   int
	ProcessingTime    time.Duration
}

// Reasoner materializes the forward closure of an ontology's ground
// assertions under the OWL-RL rule subset in rules.go, incrementally:
// AddAxiom extends the closure without recomputing it from scratch, and
// DeleteAxiom retracts a fact and everything that transitively depended
// on it via the DRed algorithm, re-deriving anything that turns out to
// still be supported by another path before deleting it.
type Reasoner struct {
	ontology *owl.Ontology
	schema   *schemaIndex

	facts map[string]*factRecord

	// dependents[k] is the set of fact keys whose provenance lists k as
	// an antecedent — the reverse edges of the dependency graph, where
	// nodes are triples and edges point from a derived triple to each of
	// its antecedents. Reverse edges are what a delete needs to walk
	// outward from the retracted fact.
	dependents map[string]map[string]struct{}
}

// NewReasoner returns a Reasoner seeded from every ground assertion
// already present in o, forward-chained once to its initial fixpoint.
func NewReasoner(o *owl.Ontology) *Reasoner {
	r := &Reasoner{
		ontology:   o,
		schema:     buildSchemaIndex(o),
		facts:      make(map[string]*factRecord),
		dependents: make(map[string]map[string]struct{}),
	}
	for _, a := range o.Axioms {
		if f, ok := groundFact(a); ok {
			r.assertExplicit(f)
		}
	}
	r.saturate()
	return r
}

func groundFact(a *owl.Axiom) (Fact, bool) {
	switch a.Kind {
	case owl.AxiomClassAssertion:
		if a.Sub == nil || a.Sub.Kind != owl.ExprClass {
			return Fact{}, false
		}
		return Fact{Kind: FactClassAssertion, Individual: a.Individual, Class: a.Sub.IRI}, true
	case owl.AxiomPropertyAssertion:
		if a.HasLiteral {
			return Fact{}, false
		}
		return Fact{Kind: FactPropertyAssertion, Individual: a.Individual, Property: a.PropertyA, Object: a.Object}, true
	default:
		return Fact{}, false
	}
}

func (r *Reasoner) assertExplicit(f Fact) bool {
	if _, exists := r.facts[f.Key()]; exists {
		return false
	}
	r.facts[f.Key()] = &factRecord{fact: f, provenance: Provenance{Valid: true}}
	return true
}

func (r *Reasoner) addDerived(d derivation) bool {
	key := d.fact.Key()
	if _, exists := r.facts[key]; exists {
		return false
	}
	depth := 0
	for _, ant := range d.antecedents {
		if ar, ok := r.facts[ant]; ok && ar.provenance.Depth+1 > depth {
			depth = ar.provenance.Depth + 1
		}
	}
	r.facts[key] = &factRecord{
		fact: d.fact,
		provenance: Provenance{
			Rule:        d.rule,
			Antecedents: d.antecedents,
			Depth:       depth,
			Valid:       true,
		},
	}
	for _, ant := range d.antecedents {
		if r.dependents[ant] == nil {
			r.dependents[ant] = make(map[string]struct{})
		}
		r.dependents[ant][key] = struct{}{}
	}
	return true
}

// saturate runs applyRules to a fixpoint, adding every newly entailed
// fact as it's found.
func (r *Reasoner) saturate() int {
	added := 0
	for {
		derivations := applyRules(r.facts, r.schema)
		if len(derivations) == 0 {
			return added
		}
		progressed := false
		for _, d := range derivations {
			if r.addDerived(d) {
				added++
				progressed = true
			}
		}
		if !progressed {
			return added
		}
	}
}

// AddAxiom extends the ontology with a new axiom: ground assertions
// become new explicit facts and the rule set is forward-chained to the
// next fixpoint; schema axioms (subClassOf,
// domain/range, property characteristics, ...) update the static
// schema index and a full saturation pass picks up every newly-enabled
// consequence across all existing facts, since a single new schema
// edge can make many already-materialized facts fire new rules at
// once.
func (r *Reasoner) AddAxiom(a *owl.Axiom) Stats {
	start := time.Now()
	r.ontology.AddAxiom(a)

	var stats Stats
	if f, ok := groundFact(a); ok {
		if r.assertExplicit(f) {
			stats.InferencesAdded++
		}
	} else {
		r.schema = buildSchemaIndex(r.ontology)
	}
	stats.InferencesAdded += r.saturate()
	stats.ProcessingTime = time.Since(start)
	return stats
}

// getTransitiveDependents returns every fact key reachable by following
// dependents edges outward from root (root included), the DRed
// "overestimate" of what might need to be retracted. A visited set
// guards against the dependency graph's cycles (e.g. two
// symmetric-property facts that derived each other).
func (r *Reasoner) getTransitiveDependents(root string) []string {
	visited := map[string]struct{}{root: {}}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range r.dependents[cur] {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}
	out := make([]string, 0, len(visited))
	for k := range visited {
		out = append(out, k)
	}
	return out
}

// DeleteAxiom retracts a. For a ground assertion this runs the DRed
// two-phase delete: overestimate the transitive-dependents closure,
// tentatively mark every fact in it invalid, then repeatedly
// try to rederive each tentative fact from the rule set restricted to
// facts not themselves tentative — anything that rederives is restored
// with its new provenance, everything left tentative at the fixpoint is
// actually deleted.
//
// Schema axioms (subClassOf, domain/range, property characteristics,
// propertyChain, the someValuesFrom half of equivalentClasses) have no
// single dependency-graph node to overestimate from — many facts may
// depend on a schema edge without ever naming it as an antecedent, since
// the rule functions consult the schema index directly rather than
// materializing it as facts. Retracting one therefore falls back to a
// full recompute: drop every purely-derived fact, rebuild the schema
// index, and re-saturate from the surviving explicit facts. This is a
// deliberate simplification (not true incremental deletion) recorded as
// an Open Question decision in the design ledger.
func (r *Reasoner) DeleteAxiom(a *owl.Axiom) Stats {
	start := time.Now()

	f, isGround := groundFact(a)
	if !isGround {
		return r.deleteSchemaAxiom(a, start)
	}

	key := f.Key()
	if _, exists := r.facts[key]; !exists {
		return Stats{ProcessingTime: time.Since(start)}
	}

	affected := r.getTransitiveDependents(key)
	for _, k := range affected {
		if rec, ok := r.facts[k]; ok {
			rec.tentative = true
		}
	}
	delete(r.facts, key)
	r.removeFromDependentsIndex(key)

	var stats Stats
	stats.CascadingChecks = len(affected)

	// Repeatedly try to rederive each still-tentative fact from the
	// non-tentative subset until no more change, then delete whatever
	// remains tentative.
	for {
		progressed := false
		nonTentative := r.nonTentativeView()
		derivations := applyRules(nonTentative, r.schema)
		derived := make(map[string]derivation, len(derivations))
		for _, d := range derivations {
			derived[d.fact.Key()] = d
		}
		for _, k := range affected {
			rec, ok := r.facts[k]
			if !ok || !rec.tentative {
				continue
			}
			if d, ok := derived[k]; ok {
				rec.tentative = false
				rec.provenance = Provenance{Rule: d.rule, Antecedents: d.antecedents, Valid: true}
				for _, ant := range d.antecedents {
					if r.dependents[ant] == nil {
						r.dependents[ant] = make(map[string]struct{})
					}
					r.dependents[ant][k] = struct{}{}
				}
				stats.Rederivations++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	for _, k := range affected {
		rec, ok := r.facts[k]
		if ok && rec.tentative {
			delete(r.facts, k)
			r.removeFromDependentsIndex(k)
			stats.InferencesRemoved++
		}
	}

	r.saturate()
	stats.ProcessingTime = time.Since(start)
	return stats
}

func (r *Reasoner) deleteSchemaAxiom(a *owl.Axiom, start time.Time) Stats {
	var stats Stats
	kept := r.ontology.Axioms[:0:0]
	for _, existing := range r.ontology.Axioms {
		if existing != a {
			kept = append(kept, existing)
		}
	}
	r.ontology.Axioms = kept
	r.schema = buildSchemaIndex(r.ontology)

	for k, rec := range r.facts {
		if rec.provenance.Rule != "" {
			delete(r.facts, k)
			stats.InferencesRemoved++
		}
	}
	r.dependents = make(map[string]map[string]struct{})
	stats.InferencesAdded = r.saturate()
	stats.ProcessingTime = time.Since(start)
	return stats
}

// nonTentativeView returns the subset of facts not currently marked
// tentative, the premise set a rederivation attempt is allowed to use.
func (r *Reasoner) nonTentativeView() map[string]*factRecord {
	out := make(map[string]*factRecord, len(r.facts))
	for k, rec := range r.facts {
		if !rec.tentative {
			out[k] = rec
		}
	}
	return out
}

func (r *Reasoner) removeFromDependentsIndex(key string) {
	delete(r.dependents, key)
	for _, set := range r.dependents {
		delete(set, key)
	}
}

// Facts returns every currently valid materialized fact.
func (r *Reasoner) Facts() []Fact {
	out := make([]Fact, 0, len(r.facts))
	for _, rec := range r.facts {
		out = append(out, rec.fact)
	}
	return out
}

// Provenance returns the provenance recorded for f, if f is currently
// materialized.
func (r *Reasoner) Provenance(f Fact) (Provenance, bool) {
	rec, ok := r.facts[f.Key()]
	if !ok {
		return Provenance{}, false
	}
	return rec.provenance, true
}
