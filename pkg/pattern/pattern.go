// Package pattern implements the pattern-tree query IR: the tree of
// basic/join/optional/union/minus/filter/bind/groupBy/propertyPath/graph
// nodes the Pattern Execution Engine (pkg/engine) walks with a
// Volcano-style iterator.
//
// Modeled on internal/sparql/optimizer.QueryPlan family (ScanPlan/
// JoinPlan/FilterPlan/BindPlan/OptionalPlan/UnionPlan/MinusPlan/
// GraphPlan — same unexported-marker-method interface shape) and
// pkg/store.Pattern/Variable (the bound-or-variable term shape).
// GroupBy and PropertyPath have no analogue there (that optimizer never
// builds a plan node for either) and are modeled after the same family
// instead of invented ad hoc.
package pattern

import (
	"github.com/kvgraph/engine/pkg/expr"
	"github.com/kvgraph/engine/pkg/tuple"
)

// Binding is a single candidate solution: a mapping from variable name
// to bound value, shared with pkg/expr so Filter/Bind nodes evaluate
// directly against it.
type Binding = expr.Binding

// Term is one structural slot of a Basic pattern: either a variable
// (Name non-empty) or a bound literal value.
type Term struct {
	Name  string
	Value tuple.Element
}

// Var constructs a variable term.
func Var(name string) Term { return Term{Name: name} }

// Bound constructs a bound-value term.
func Bound(v tuple.Element) Term { return Term{Value: v} }

// IsVariable reports whether t is a variable slot.
func (t Term) IsVariable() bool { return t.Name != "" }

// Node is one node of a pattern tree.
type Node interface {
	patternNode()
}

// Basic is a single edge pattern matched against one configured edge
// index by name — the index itself lives in pkg/edgeindex; this node
// only names it and the bound/variable terms to match.
type Basic struct {
	Index     string
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

func (*Basic) patternNode() {}

// Join is an inner join between two subtrees on their shared variables.
type Join struct {
	Left, Right Node
}

func (*Join) patternNode() {}

// Optional is a left outer join: every Left solution is preserved, with
// Right's variables bound onto it when Right matches and left unbound
// otherwise.
type Optional struct {
	Left, Right Node
}

func (*Optional) patternNode() {}

// Union is the union of solutions from Left and Right.
type Union struct {
	Left, Right Node
}

func (*Union) patternNode() {}

// Minus removes from Left every solution that is compatible with some
// solution of Right (SPARQL MINUS semantics: compatible, not merely
// joinable, and vacuously a no-op when the two share no variables).
type Minus struct {
	Left, Right Node
}

func (*Minus) patternNode() {}

// Filter keeps only Input solutions whose expression's effective
// boolean value is true; an error (unbound/type error) is treated as
// false by the engine's three-valued-logic policy.
type Filter struct {
	Input Node
	Expr  expr.Expr
}

func (*Filter) patternNode() {}

// Bind extends every Input solution with Variable bound to Expr's
// result; per SPARQL, an evaluation error leaves Variable unbound on
// that solution rather than discarding the solution.
type Bind struct {
	Input    Node
	Expr     expr.Expr
	Variable string
}

func (*Bind) patternNode() {}

// AggFunc names a GROUP BY aggregate function.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

// Aggregate computes one aggregate over Variable (or every solution, if
// Variable is "" and Func is AggCount — COUNT(*)), grouped by GroupBy's
// Keys, optionally deduplicating values first.
type Aggregate struct {
	Func     AggFunc
	Variable string
	As       string
	Distinct bool
}

// GroupBy groups Input's solutions by Keys and computes Aggregates per
// group, then filters groups by Having (nil means no HAVING clause).
// This node has no analogue in internal/sparql: that parser accepts
// GROUP BY but optimizeSelect never turns it into a plan node — a
// feature this package completes.
type GroupBy struct {
	Input      Node
	Keys       []string
	Aggregates []Aggregate
	Having     expr.Expr
}

func (*GroupBy) patternNode() {}

// PathOp is a property-path combinator (SPARQL 1.1 property paths).
type PathOp int

const (
	PathLink PathOp = iota
	PathInverse
	PathSequence
	PathAlternative
	PathZeroOrMore
	PathOneOrMore
	PathZeroOrOne
	PathNegatedSet
)

// Path is a property-path expression tree. A PathLink names one edge
// index to traverse directly; the combinators compose sub-paths.
type Path struct {
	Op       PathOp
	Index    string // meaningful when Op == PathLink or PathNegatedSet
	Sub      *Path  // meaningful for Inverse/ZeroOrMore/OneOrMore/ZeroOrOne
	Sequence []Path // meaningful for Sequence/Alternative
}

// PropertyPath matches Subject to Object by walking Path, an arbitrary
// number of edge hops determined by Path's combinators — no analogue in
// internal/sparql; modeled on the same Node family as the rest of this
// package.
type PropertyPath struct {
	Subject Term
	Object  Term
	Path    Path
}

func (*PropertyPath) patternNode() {}

// Graph decorates Input so every Basic leaf beneath it is additionally
// constrained to GraphTerm, the named-graph variant. PropertyPath leaves
// carry no graph term and are not constrained.
type Graph struct {
	Input     Node
	GraphTerm Term
}

func (*Graph) patternNode() {}
