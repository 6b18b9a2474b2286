// Package badgerkv implements pkg/kv.Storage/Transaction/Iterator on top
// of BadgerDB, the concrete external key/value store this module runs
// against.
//
// Modeled on internal/storage/badger.go. There, Transaction/Iterator are
// parameterized by a fixed Table enum and strip/re-add a per-table key
// prefix on every call; this adapter has no notion of tables at all:
// keys arriving here are already the module's fully-packed tuple keys
// (pkg/tuple), with any index namespacing already folded in by the
// caller (pkg/kv.Directory). So the prefix bookkeeping internal/storage/badger.go
// does in Scan/Key is dropped — it is the caller's directory prefix, not
// this package's concern.
package badgerkv

import (
	"bytes"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/kvgraph/engine/pkg/kv"
)

// Storage adapts a BadgerDB database to pkg/kv.Storage.
type Storage struct {
	db *badger.DB
}

// Open opens (creating if absent) a BadgerDB database rooted at dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerkv: open %q: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// Begin starts a new transaction.
func (s *Storage) Begin(writable bool) (kv.Transaction, error) {
	return &Transaction{txn: s.db.NewTransaction(writable), writable: writable}, nil
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Sync flushes the value log to disk.
func (s *Storage) Sync() error {
	return s.db.Sync()
}

// Transaction adapts a *badger.Txn to pkg/kv.Transaction.
type Transaction struct {
	txn      *badger.Txn
	writable bool
}

// Get retrieves the value stored at key.
func (t *Transaction) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("badgerkv: get: %w", err)
	}

	var value []byte
	err = item.Value(func(val []byte) error {
		value = append([]byte(nil), val...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerkv: copy value: %w", err)
	}
	return value, nil
}

// Set stores value at key.
func (t *Transaction) Set(key, value []byte) error {
	if !t.writable {
		return kv.ErrTransactionRO
	}
	return t.txn.Set(key, value)
}

// Delete removes key.
func (t *Transaction) Delete(key []byte) error {
	if !t.writable {
		return kv.ErrTransactionRO
	}
	return t.txn.Delete(key)
}

// Scan iterates the half-open range [begin, end).
func (t *Transaction) Scan(begin, end []byte) (kv.Iterator, error) {
	return t.scan(begin, end, badger.DefaultIteratorOptions.PrefetchSize)
}

// ScanBatch implements kv.BatchScanner: it tunes Badger's iterator
// prefetch size to batchSize, so a ranged scan issues roughly one
// underlying fetch per batch rather than Badger's unrelated default.
func (t *Transaction) ScanBatch(begin, end []byte, batchSize int) (kv.Iterator, error) {
	if batchSize <= 0 {
		batchSize = badger.DefaultIteratorOptions.PrefetchSize
	}
	return t.scan(begin, end, batchSize)
}

func (t *Transaction) scan(begin, end []byte, prefetchSize int) (kv.Iterator, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = prefetchSize
	it := t.txn.NewIterator(opts)
	return &Iterator{
		it:      it,
		seekKey: begin,
		endKey:  end,
	}, nil
}

// Commit finalizes the transaction's writes.
func (t *Transaction) Commit() error {
	if !t.writable {
		return nil
	}
	return t.txn.Commit()
}

// Rollback discards the transaction.
func (t *Transaction) Rollback() error {
	t.txn.Discard()
	return nil
}

// Iterator adapts a *badger.Iterator to pkg/kv.Iterator.
type Iterator struct {
	it       *badger.Iterator
	seekKey  []byte
	endKey   []byte
	started  bool
	hasValue bool
}

// Next advances to the next entry in range.
func (i *Iterator) Next() bool {
	if !i.started {
		if i.seekKey != nil {
			i.it.Seek(i.seekKey)
		} else {
			i.it.Rewind()
		}
		i.started = true
	} else {
		i.it.Next()
	}

	if !i.it.Valid() {
		i.hasValue = false
		return false
	}
	if i.endKey != nil && bytes.Compare(i.it.Item().Key(), i.endKey) >= 0 {
		i.hasValue = false
		return false
	}

	i.hasValue = true
	return true
}

// Key returns the current entry's key.
func (i *Iterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	return append([]byte(nil), i.it.Item().Key()...)
}

// Value returns the current entry's value.
func (i *Iterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, kv.ErrNotFound
	}
	var value []byte
	err := i.it.Item().Value(func(val []byte) error {
		value = append([]byte(nil), val...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerkv: copy value: %w", err)
	}
	return value, nil
}

// Close releases the iterator.
func (i *Iterator) Close() error {
	i.it.Close()
	return nil
}
