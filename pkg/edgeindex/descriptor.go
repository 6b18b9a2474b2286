// Package edgeindex implements the edge-index physical layout, its
// maintenance protocol (Maintainer) and streamed ranged scans with
// property-field pushdown (Scanner).
//
// Modeled on pkg/store/storage.go's Table enum (the discriminator idea:
// each permutation gets a fixed numeric byte) and pkg/store/query.go's
// selectIndex/buildScanPrefix (choosing the permutation whose leading
// components are the maximal bound prefix). pkg/store/storage.go
// hard-codes RDF's 3-or-6-permutation scheme across fixed Table
// constants; this package generalizes it into a configurable
// descriptor, since the edge model here is a general typed record, not
// RDF-only.
package edgeindex

import (
	"errors"
	"fmt"

	"github.com/kvgraph/engine/pkg/tuple"
)

// Strategy selects which set of key permutations an index maintains.
type Strategy int

const (
	// StrategyAdjacency writes 2 permutations: outgoing and incoming.
	StrategyAdjacency Strategy = iota
	// StrategyTripleStore writes 3 permutations: SPO, POS, OSP.
	StrategyTripleStore
	// StrategyHexastore writes all 6 permutations.
	StrategyHexastore
)

// Position identifies one logical component of an edge record's key.
type Position int

const (
	PosFrom Position = iota
	PosEdge
	PosTo
	PosID
	PosGraph
)

func (p Position) String() string {
	switch p {
	case PosFrom:
		return "from"
	case PosEdge:
		return "edge"
	case PosTo:
		return "to"
	case PosID:
		return "id"
	case PosGraph:
		return "graph"
	default:
		return "unknown"
	}
}

// Permutation is one maintained key layout: a fixed discriminator byte
// followed by an ordered list of structural components, always ending
// in PosID (and, for the named-graph variant, PosGraph trails even
// that — see Descriptor.Permutations).
type Permutation struct {
	Discriminator byte
	Order         []Position
}

// Descriptor configures one edge index: which record type/index name it
// belongs to (resolved to Prefix by the external directory allocator),
// which strategy lays out its permutations, whether it carries a named
// graph component, and which stored property fields its payload tuple
// carries.
//
// StoredFieldNames is the sole source of truth for which fields are
// "stored" (pushdown-eligible); Validate rejects duplicate names in it at
// construction, and both Maintainer and Scanner read it from the same
// Descriptor so they share one idea of the schema.
type Descriptor struct {
	Name             string
	Prefix           []byte
	Strategy         Strategy
	WithGraph        bool
	StoredFieldNames []string
}

// IndexName returns the wire-contract index name, suffixed "_graph" for
// the named-graph variant.
func (d *Descriptor) IndexName() string {
	if d.WithGraph {
		return d.Name + "_graph"
	}
	return d.Name
}

var errConfigMismatch = errors.New("edgeindex: configuration mismatch between descriptor and caller")

// Validate asserts the descriptor is internally consistent. A
// configuration mismatch is a fatal contract violation: it is surfaced
// immediately and is not meant to be caught.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: index name is empty", errConfigMismatch)
	}
	if len(d.Prefix) == 0 {
		return fmt.Errorf("%w: index %q has no directory prefix", errConfigMismatch, d.Name)
	}
	seen := make(map[string]struct{}, len(d.StoredFieldNames))
	for _, f := range d.StoredFieldNames {
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: index %q declares duplicate stored field %q", errConfigMismatch, d.Name, f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// IsStoredField reports whether name is one of this descriptor's
// configured stored-property fields (the only fields eligible for
// Scanner pushdown).
func (d *Descriptor) IsStoredField(name string) bool {
	for _, f := range d.StoredFieldNames {
		if f == name {
			return true
		}
	}
	return false
}

// Permutations returns the full set of key permutations this
// descriptor maintains, one fixed on-disk discriminator byte per
// permutation.
func (d *Descriptor) Permutations() []Permutation {
	var perms []Permutation
	switch d.Strategy {
	case StrategyAdjacency:
		perms = []Permutation{
			{Discriminator: 0, Order: []Position{PosEdge, PosFrom, PosTo, PosID}},
			{Discriminator: 1, Order: []Position{PosEdge, PosTo, PosFrom, PosID}},
		}
	case StrategyTripleStore:
		perms = []Permutation{
			{Discriminator: 2, Order: []Position{PosFrom, PosEdge, PosTo, PosID}}, // SPO
			{Discriminator: 3, Order: []Position{PosEdge, PosTo, PosFrom, PosID}}, // POS
			{Discriminator: 4, Order: []Position{PosTo, PosFrom, PosEdge, PosID}}, // OSP
		}
	case StrategyHexastore:
		perms = []Permutation{
			{Discriminator: 2, Order: []Position{PosFrom, PosEdge, PosTo, PosID}}, // SPO
			{Discriminator: 3, Order: []Position{PosEdge, PosTo, PosFrom, PosID}}, // POS
			{Discriminator: 4, Order: []Position{PosTo, PosFrom, PosEdge, PosID}}, // OSP
			{Discriminator: 5, Order: []Position{PosFrom, PosTo, PosEdge, PosID}}, // SOP
			{Discriminator: 6, Order: []Position{PosEdge, PosFrom, PosTo, PosID}}, // PSO
			{Discriminator: 7, Order: []Position{PosTo, PosEdge, PosFrom, PosID}}, // OPS
		}
	}

	if !d.WithGraph {
		return perms
	}
	withGraph := make([]Permutation, len(perms))
	for i, p := range perms {
		order := append(append([]Position(nil), p.Order...), PosGraph)
		withGraph[i] = Permutation{Discriminator: p.Discriminator, Order: order}
	}
	return withGraph
}

// PermutationCount reports how many keys one record produces under this
// descriptor.
func (d *Descriptor) PermutationCount() int {
	return len(d.Permutations())
}

// prefixElements encodes the descriptor's byte prefix and a
// permutation's discriminator as leading tuple elements.
func (p Permutation) prefixElements(indexPrefix []byte) []tuple.Element {
	return []tuple.Element{tuple.Bytes(indexPrefix), tuple.Int(int64(p.Discriminator))}
}
