// Package record declares the typed edge-record contract. The
// persistable-record codec itself is an external collaborator; this
// package names the static interface the Maintainer and Scanner depend
// on, plus a minimal concrete Record good enough to exercise the rest of
// the module.
package record

import "github.com/kvgraph/engine/pkg/tuple"

// FieldValue is a typed stored-property value, restricted to the kinds
// the tuple codec can order-preservingly encode.
type FieldValue = tuple.Element

// Field is one named, typed value attached to a Record.
type Field struct {
	Name  string
	Value FieldValue
}

// Record is the static contract a Go type must satisfy to be indexed:
// it exposes its identity, endpoints, optional graph, and stored
// property fields by name, with no runtime reflection involved.
type Record interface {
	// ID returns the record's unique identity.
	ID() string

	// From returns the source endpoint.
	From() string

	// Edge returns the edge label.
	Edge() string

	// To returns the destination endpoint.
	To() string

	// Graph returns the named-graph identifier, or "" if this record
	// has no graph component configured.
	Graph() string

	// Fields returns the record's stored property fields, in a stable,
	// caller-independent order (typically declaration order).
	Fields() []Field

	// Field looks up a single stored property field by name. ok is
	// false if name is not one of this record's configured fields.
	Field(name string) (FieldValue, bool)
}

// StaticRecord is a minimal, struct-based Record implementation for
// tests and the demo CLI: a fixed identity/endpoint/edge/graph plus an
// ordered slice of fields, with no reflection.
type StaticRecord struct {
	IDValue    string
	FromValue  string
	EdgeValue  string
	ToValue    string
	GraphValue string
	FieldList  []Field
}

func (r *StaticRecord) ID() string    { return r.IDValue }
func (r *StaticRecord) From() string  { return r.FromValue }
func (r *StaticRecord) Edge() string  { return r.EdgeValue }
func (r *StaticRecord) To() string    { return r.ToValue }
func (r *StaticRecord) Graph() string { return r.GraphValue }

func (r *StaticRecord) Fields() []Field { return r.FieldList }

func (r *StaticRecord) Field(name string) (FieldValue, bool) {
	for _, f := range r.FieldList {
		if f.Name == name {
			return f.Value, true
		}
	}
	return FieldValue{}, false
}
