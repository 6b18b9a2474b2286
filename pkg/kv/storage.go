// Package kv declares the contract this module consumes from an ordered
// key/value store: transactional ranged scans over byte keys, snapshot
// reads, and atomic multi-key writes. The store itself is an external
// collaborator — this package only names the shape it must expose.
package kv

import "errors"

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("kv: key not found")

	// ErrTransactionRO is returned when a write is attempted against a
	// read-only transaction.
	ErrTransactionRO = errors.New("kv: transaction is read-only")

	// ErrCancelled is returned when a cooperative cancellation signal
	// fires at a suspension point.
	ErrCancelled = errors.New("kv: operation cancelled")
)

// Storage is the external ordered key/value store this module runs
// against. Implementations must support snapshot reads and atomic
// multi-key writes within a transaction.
type Storage interface {
	// Begin starts a new transaction. A writable transaction may Set and
	// Delete; a read-only transaction sees a consistent snapshot.
	Begin(writable bool) (Transaction, error)

	// Close releases the storage.
	Close() error

	// Sync flushes pending writes durably, to the extent the underlying
	// store supports it.
	Sync() error
}

// Transaction is a single logical unit of work against Storage. All
// mutations performed through one Transaction are atomic: either all are
// visible after Commit, or none are after Rollback.
type Transaction interface {
	// Get retrieves the value stored at key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Set stores value at key.
	Set(key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// Scan iterates the half-open range [begin, end) in key order. A nil
	// begin starts at the first key; a nil end runs to the last key.
	// Scan must not buffer more than one batch in memory at a time.
	Scan(begin, end []byte) (Iterator, error)

	// Commit finalizes the transaction's writes. Calling Commit on a
	// read-only transaction is a no-op that succeeds.
	Commit() error

	// Rollback discards the transaction's writes, if any.
	Rollback() error
}

// Iterator walks a key range produced by Transaction.Scan. It is
// single-shot: once exhausted or closed it cannot be restarted.
type Iterator interface {
	// Next advances to the next entry, returning false when the range is
	// exhausted.
	Next() bool

	// Key returns the current entry's key. Valid only after Next
	// returned true.
	Key() []byte

	// Value returns the current entry's value.
	Value() ([]byte, error)

	// Close releases the iterator and the transaction resources it holds.
	Close() error
}

// BatchScanner is an optional capability a Transaction implementation
// may expose alongside Scan, for callers that know how many entries
// they expect to consume per round trip and want the underlying store
// tuned accordingly (e.g. BadgerDB's iterator prefetch size). Callers
// type-assert for it and fall back to plain Scan when absent.
type BatchScanner interface {
	// ScanBatch behaves like Scan, but hints that the caller will
	// consume entries roughly batchSize at a time.
	ScanBatch(begin, end []byte, batchSize int) (Iterator, error)
}

// Directory resolves a logical path (e.g. "RecordType/IndexName") to a
// stable byte prefix. Implementations allocate the prefix once and
// return the same value on every subsequent call for the same path.
type Directory interface {
	// Resolve returns the byte prefix assigned to path, allocating one
	// if this is the first time path has been seen.
	Resolve(path ...string) ([]byte, error)
}
