package owl

import (
	"encoding/binary"
	"fmt"

	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/tuple"
	"github.com/zeebo/xxh3"
)

// Store persists ontologies under three byte-addressed subspaces rooted
// at a directory-allocated prefix per ontology IRI:
//
//	Classes/<classIRI>    -> class metadata payload
//	Properties/<propIRI>  -> property metadata payload
//	Axioms/<axiomHash>    -> serialized axiom
//
// Axiom keys are content hashes rather than IRIs since an axiom has no
// natural identity of its own; internal/encoding/encoder.go similarly
// hashes RDF term strings with xxh3.Hash128 for its own (non-ordered)
// key space, and this store reuses that same hash for the same reason:
// axiom lookups are point lookups, never range scans, so losing order
// costs nothing and xxh3 is fast and already in the dependency graph.
type Store struct {
	dir kv.Directory
}

// NewStore returns a Store that resolves ontology subspace prefixes
// through dir.
func NewStore(dir kv.Directory) *Store {
	return &Store{dir: dir}
}

const (
	subspaceClasses    = "Classes"
	subspaceProperties = "Properties"
	subspaceAxioms     = "Axioms"
)

func (s *Store) classesPrefix(ontologyIRI string) ([]byte, error) {
	return s.dir.Resolve(ontologyIRI, subspaceClasses)
}

func (s *Store) propertiesPrefix(ontologyIRI string) ([]byte, error) {
	return s.dir.Resolve(ontologyIRI, subspaceProperties)
}

func (s *Store) axiomsPrefix(ontologyIRI string) ([]byte, error) {
	return s.dir.Resolve(ontologyIRI, subspaceAxioms)
}

// axiomHash derives a stable content-hash key for an axiom so that
// `load` is idempotent under re-insertion of an identical axiom and
// repeated loads of the same ontology converge to the same key set.
func axiomHash(a *Axiom) []byte {
	payload := encodeAxiom(a)
	h := xxh3.Hash128(payload)
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], h.Hi)
	binary.BigEndian.PutUint64(buf[8:16], h.Lo)
	return buf
}

// Load is a transactional overwrite: compute the byte range
// for this ontology's three subspaces, clear them, then write every
// class, property, and axiom in o. All work happens in txn; the caller
// commits.
func (s *Store) Load(txn kv.Transaction, o *Ontology) error {
	classPrefix, err := s.classesPrefix(o.IRI)
	if err != nil {
		return fmt.Errorf("owl: resolve classes prefix: %w", err)
	}
	propPrefix, err := s.propertiesPrefix(o.IRI)
	if err != nil {
		return fmt.Errorf("owl: resolve properties prefix: %w", err)
	}
	axiomPrefix, err := s.axiomsPrefix(o.IRI)
	if err != nil {
		return fmt.Errorf("owl: resolve axioms prefix: %w", err)
	}

	if err := clearSubspace(txn, classPrefix); err != nil {
		return err
	}
	if err := clearSubspace(txn, propPrefix); err != nil {
		return err
	}
	if err := clearSubspace(txn, axiomPrefix); err != nil {
		return err
	}

	for _, c := range o.Classes {
		key := append(append([]byte(nil), classPrefix...), tuple.Pack(tuple.String(c.IRI))...)
		if err := txn.Set(key, encodeClass(c)); err != nil {
			return fmt.Errorf("owl: write class %s: %w", c.IRI, err)
		}
	}
	for _, p := range o.Properties {
		key := append(append([]byte(nil), propPrefix...), tuple.Pack(tuple.String(p.IRI))...)
		if err := txn.Set(key, encodeProperty(p)); err != nil {
			return fmt.Errorf("owl: write property %s: %w", p.IRI, err)
		}
	}
	for _, a := range o.Axioms {
		key := append(append([]byte(nil), axiomPrefix...), axiomHash(a)...)
		if err := txn.Set(key, encodeAxiom(a)); err != nil {
			return fmt.Errorf("owl: write axiom: %w", err)
		}
	}

	InvalidateCache(o.IRI)
	return nil
}

// clearSubspace clears every key currently under prefix by scanning its
// range and deleting each key found; badgerkv's Transaction has no
// clearRange primitive of its own (only Scan/Set/Delete), so the store
// performs the scan-then-delete itself within the caller's transaction.
func clearSubspace(txn kv.Transaction, prefix []byte) error {
	it, err := txn.Scan(prefix, prefixSuccessor(prefix))
	if err != nil {
		return fmt.Errorf("owl: scan subspace for clear: %w", err)
	}
	var keys [][]byte
	for it.Next() {
		keys = append(keys, append([]byte(nil), it.Key()...))
	}
	if err := it.Close(); err != nil {
		return err
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return fmt.Errorf("owl: clear subspace key: %w", err)
		}
	}
	return nil
}

// prefixSuccessor returns the lexicographically smallest byte string
// greater than every string starting with prefix, or nil if prefix is
// all 0xFF bytes (meaning "no successor" - the scan simply runs to the
// end of the keyspace).
func prefixSuccessor(prefix []byte) []byte {
	succ := append([]byte(nil), prefix...)
	for i := len(succ) - 1; i >= 0; i-- {
		if succ[i] != 0xFF {
			succ[i]++
			return succ[:i+1]
		}
	}
	return nil
}

// Get streams the three subspaces for ontologyIRI and reconstructs the
// ontology in memory.
func (s *Store) Get(txn kv.Transaction, ontologyIRI string) (*Ontology, error) {
	o := New(ontologyIRI)

	classPrefix, err := s.classesPrefix(ontologyIRI)
	if err != nil {
		return nil, err
	}
	if err := scanSubspace(txn, classPrefix, func(_, value []byte) error {
		c, err := decodeClass(value)
		if err != nil {
			return err
		}
		o.AddClass(c)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("owl: reconstruct classes: %w", err)
	}

	propPrefix, err := s.propertiesPrefix(ontologyIRI)
	if err != nil {
		return nil, err
	}
	if err := scanSubspace(txn, propPrefix, func(_, value []byte) error {
		p, err := decodeProperty(value)
		if err != nil {
			return err
		}
		o.AddProperty(p)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("owl: reconstruct properties: %w", err)
	}

	axiomPrefix, err := s.axiomsPrefix(ontologyIRI)
	if err != nil {
		return nil, err
	}
	if err := scanSubspace(txn, axiomPrefix, func(_, value []byte) error {
		a, err := decodeAxiom(value)
		if err != nil {
			return err
		}
		o.AddAxiom(a)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("owl: reconstruct axioms: %w", err)
	}

	return o, nil
}

func scanSubspace(txn kv.Transaction, prefix []byte, fn func(key, value []byte) error) error {
	it, err := txn.Scan(prefix, prefixSuccessor(prefix))
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		v, err := it.Value()
		if err != nil {
			return err
		}
		if err := fn(it.Key(), v); err != nil {
			return err
		}
	}
	return nil
}
