package badgerkv

import (
	"bytes"
	"testing"

	"github.com/kvgraph/engine/pkg/kv"
)

func TestSetGetDelete(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer storage.Close()

	txn, err := storage.Begin(true)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := txn.Set([]byte("alice"), []byte("1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	txn2, err := storage.Begin(false)
	if err != nil {
		t.Fatalf("begin ro: %v", err)
	}
	defer txn2.Rollback()

	v, err := txn2.Get([]byte("alice"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(v, []byte("1")) {
		t.Errorf("got %q, want %q", v, "1")
	}

	if _, err := txn2.Get([]byte("missing")); err != kv.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReadOnlyTransactionRejectsWrites(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer storage.Close()

	txn, err := storage.Begin(false)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer txn.Rollback()

	if err := txn.Set([]byte("k"), []byte("v")); err != kv.ErrTransactionRO {
		t.Errorf("expected ErrTransactionRO, got %v", err)
	}
	if err := txn.Delete([]byte("k")); err != kv.ErrTransactionRO {
		t.Errorf("expected ErrTransactionRO, got %v", err)
	}
}

func TestScanRangeIsHalfOpen(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer storage.Close()

	txn, _ := storage.Begin(true)
	for _, k := range []string{"a", "b", "c", "d"} {
		if err := txn.Set([]byte(k), []byte(k)); err != nil {
			t.Fatal(err)
		}
	}
	if err := txn.Commit(); err != nil {
		t.Fatal(err)
	}

	ro, _ := storage.Begin(false)
	defer ro.Rollback()

	it, err := ro.Scan([]byte("b"), []byte("d"))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("got %v, want [b c]", got)
	}
}

func TestDirectoryResolveIsStableAndDistinct(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer storage.Close()

	dir := NewDirectory(storage)

	p1, err := dir.Resolve("edges", "spo")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	p2, err := dir.Resolve("edges", "pos")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if bytes.Equal(p1, p2) {
		t.Error("distinct paths must get distinct prefixes")
	}

	p1Again, err := dir.Resolve("edges", "spo")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !bytes.Equal(p1, p1Again) {
		t.Error("resolving the same path twice must return the same prefix")
	}
}
