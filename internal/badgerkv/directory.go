package badgerkv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/kvgraph/engine/pkg/kv"
)

// Directory implements pkg/kv.Directory by persisting path -> prefix
// assignments in the same storage it namespaces, under a reserved
// metadata keyspace the rest of this module never writes to.
//
// pkg/store/storage.go has no dynamic directory layer at all: it
// namespaces every key with one of a small, fixed, hand-enumerated set of
// Table bytes (store.TablePrefix). This adapter generalizes that same
// "small fixed-width prefix in front of every key" idea into a layer that
// allocates prefixes on demand and remembers the assignment, since this
// module's edge indexes are dynamically configured rather than a fixed
// enum.
type Directory struct {
	storage kv.Storage
}

// NewDirectory returns a Directory backed by storage.
func NewDirectory(storage kv.Storage) *Directory {
	return &Directory{storage: storage}
}

var metaKeyPrefix = []byte{0xFF}
var counterKey = []byte{0xFF, 0xFF}

func directoryKey(path []string) []byte {
	var buf bytes.Buffer
	buf.Write(metaKeyPrefix)
	for i, p := range path {
		if i > 0 {
			buf.WriteByte(0x1F)
		}
		buf.WriteString(p)
	}
	return buf.Bytes()
}

// Resolve allocates (or returns the previously allocated) 4-byte prefix
// for path, assigning prefixes in increasing order starting at 1.
func (d *Directory) Resolve(path ...string) ([]byte, error) {
	if len(path) == 0 {
		return nil, errors.New("badgerkv: directory path must not be empty")
	}

	key := directoryKey(path)

	txn, err := d.storage.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("badgerkv: begin directory transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			txn.Rollback()
		}
	}()

	if existing, err := txn.Get(key); err == nil {
		txn.Rollback()
		committed = true
		return existing, nil
	} else if !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("badgerkv: directory lookup: %w", err)
	}

	next := uint32(1)
	if v, err := txn.Get(counterKey); err == nil {
		next = binary.BigEndian.Uint32(v) + 1
	} else if !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("badgerkv: directory counter: %w", err)
	}

	prefix := make([]byte, 4)
	binary.BigEndian.PutUint32(prefix, next)

	if err := txn.Set(counterKey, prefix); err != nil {
		return nil, fmt.Errorf("badgerkv: advance directory counter: %w", err)
	}
	if err := txn.Set(key, prefix); err != nil {
		return nil, fmt.Errorf("badgerkv: assign directory prefix: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("badgerkv: commit directory allocation: %w", err)
	}
	committed = true
	return prefix, nil
}
