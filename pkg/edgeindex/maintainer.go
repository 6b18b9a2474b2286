package edgeindex

import (
	"bytes"
	"fmt"

	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/record"
	"github.com/kvgraph/engine/pkg/tuple"
)

// Maintainer writes and clears the configured key permutations for one
// edge-index descriptor, within a caller-supplied transaction. It never
// commits, never reads.
type Maintainer struct {
	desc *Descriptor
}

// NewMaintainer validates desc and returns a Maintainer bound to it. A
// configuration mismatch is fatal and is returned immediately rather
// than deferred to first use.
func NewMaintainer(desc *Descriptor) (*Maintainer, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &Maintainer{desc: desc}, nil
}

// Descriptor returns the index descriptor this Maintainer writes to.
func (m *Maintainer) Descriptor() *Descriptor { return m.desc }

func componentValue(r record.Record, pos Position) tuple.Element {
	switch pos {
	case PosFrom:
		return tuple.String(r.From())
	case PosEdge:
		return tuple.String(r.Edge())
	case PosTo:
		return tuple.String(r.To())
	case PosID:
		return tuple.String(r.ID())
	case PosGraph:
		return tuple.String(r.Graph())
	default:
		return tuple.Null()
	}
}

func (m *Maintainer) key(r record.Record, p Permutation) []byte {
	elems := p.prefixElements(m.desc.Prefix)
	for _, pos := range p.Order {
		elems = append(elems, componentValue(r, pos))
	}
	return tuple.Pack(elems...)
}

func (m *Maintainer) payload(r record.Record) []byte {
	elems := make([]tuple.Element, 0, len(m.desc.StoredFieldNames))
	for _, name := range m.desc.StoredFieldNames {
		v, ok := r.Field(name)
		if !ok {
			v = tuple.Null()
		}
		elems = append(elems, v)
	}
	return tuple.Pack(elems...)
}

// keySet holds every (key, payload) pair produced for a record, keyed by
// discriminator for cheap membership comparison during updates.
type keySet map[byte][]byte

func (m *Maintainer) keysFor(r record.Record) keySet {
	ks := make(keySet, len(m.desc.Permutations()))
	for _, p := range m.desc.Permutations() {
		ks[p.Discriminator] = m.key(r, p)
	}
	return ks
}

// UpdateIndex implements three transitions:
//
//	(nil, new): insert every permutation of new.
//	(old, nil): clear every permutation of old.
//	(old, new): clear-old ∪ set-new if any key component or the stored
//	            payload changed; no-op otherwise.
//
// All writes happen through txn; UpdateIndex issues no reads and never
// commits.
func (m *Maintainer) UpdateIndex(old, new record.Record, txn kv.Transaction) error {
	switch {
	case old == nil && new == nil:
		return nil
	case old == nil:
		return m.insert(new, txn)
	case new == nil:
		return m.clear(old, txn)
	default:
		if !m.unchanged(old, new) {
			if err := m.clear(old, txn); err != nil {
				return err
			}
			return m.insert(new, txn)
		}
		return nil
	}
}

func (m *Maintainer) unchanged(old, new record.Record) bool {
	if !bytes.Equal(m.payload(old), m.payload(new)) {
		return false
	}
	oldKeys := m.keysFor(old)
	newKeys := m.keysFor(new)
	if len(oldKeys) != len(newKeys) {
		return false
	}
	for disc, k := range oldKeys {
		if !bytes.Equal(k, newKeys[disc]) {
			return false
		}
	}
	return true
}

func (m *Maintainer) insert(r record.Record, txn kv.Transaction) error {
	payload := m.payload(r)
	for _, p := range m.desc.Permutations() {
		if err := txn.Set(m.key(r, p), payload); err != nil {
			return fmt.Errorf("edgeindex: set permutation %d: %w", p.Discriminator, err)
		}
	}
	return nil
}

func (m *Maintainer) clear(r record.Record, txn kv.Transaction) error {
	for _, p := range m.desc.Permutations() {
		if err := txn.Delete(m.key(r, p)); err != nil {
			return fmt.Errorf("edgeindex: clear permutation %d: %w", p.Discriminator, err)
		}
	}
	return nil
}
