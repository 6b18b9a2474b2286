// Package incremental implements a DRed-style incremental reasoner:
// forward-chaining an OWL-RL rule subset to a fixpoint on axiom
// addition, and the two-phase delete+re-derive algorithm (overestimate
// the transitive-dependents closure, then re-derive or delete each
// tentative fact) on axiom deletion, all tracked through an explicit
// provenance dependency graph.
//
// The rule-dispatch shape here (match a triple pattern, produce a
// consequence, record which rule fired) is modeled on the reasoning
// handler in
// other_examples/48dd4054_Mimir-AIP-Mimir-AIP-Go__handlers_knowledge_graph_reasoning.go.go,
// whose InferredTriple/ReasoningResult struct fields this package's
// Fact/Stats types echo.
package incremental

import "fmt"

// FactKind distinguishes the two ground-assertion shapes the OWL-RL
// rule subset reasons over.
type FactKind byte

const (
	FactClassAssertion FactKind = iota + 1
	FactPropertyAssertion
)

// Fact is one ground triple in the materialized inference set M: the
// dependency graph's nodes are triples. ClassAssertion uses
// Individual+Class; PropertyAssertion uses Individual+Property+Object.
type Fact struct {
	Kind       FactKind
	Individual string
	Property   string
	Class      string
	Object     string
}

// Key returns a canonical string identity for the fact, used both as
// the dependency-graph node id and the materialized-set map key.
func (f Fact) Key() string {
	switch f.Kind {
	case FactClassAssertion:
		return fmt.Sprintf("C|%s|%s", f.Individual, f.Class)
	case FactPropertyAssertion:
		return fmt.Sprintf("P|%s|%s|%s", f.Individual, f.Property, f.Object)
	default:
		return ""
	}
}

// Provenance records how one inferred Fact was derived: the rule that
// produced it, the ordered list of antecedent triples, a depth, and a
// validity flag. An explicit (asserted) fact has an empty Rule, no
// Antecedents, and Depth 0.
type Provenance struct {
	Rule        string
	Antecedents []string // antecedent fact keys, in the order the rule consumed them
	Depth       int
	Valid       bool
}

// factRecord is one entry of the materialized set M, carrying both the
// fact and its current provenance plus DRed bookkeeping state.
type factRecord struct {
	fact       Fact
	provenance Provenance
	tentative  bool // set during a delete's overestimate phase
}
