package edgeindex

import (
	"bytes"
	"sort"
	"testing"

	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/record"
	"github.com/kvgraph/engine/pkg/tuple"
)

// memTxn is a minimal in-memory kv.Transaction good enough to exercise
// the Maintainer/Scanner pair without a real storage engine.
type memTxn struct {
	data map[string][]byte
}

func newMemTxn() *memTxn { return &memTxn{data: make(map[string][]byte)} }

func (t *memTxn) Get(key []byte) ([]byte, error) {
	v, ok := t.data[string(key)]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return v, nil
}

func (t *memTxn) Set(key, value []byte) error {
	cp := append([]byte(nil), value...)
	t.data[string(key)] = cp
	return nil
}

func (t *memTxn) Delete(key []byte) error {
	delete(t.data, string(key))
	return nil
}

func (t *memTxn) Scan(begin, end []byte) (kv.Iterator, error) {
	var keys []string
	for k := range t.data {
		if bytes.Compare([]byte(k), begin) < 0 {
			continue
		}
		if end != nil && bytes.Compare([]byte(k), end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &memIter{txn: t, keys: keys, pos: -1}, nil
}

func (t *memTxn) Commit() error   { return nil }
func (t *memTxn) Rollback() error { return nil }

type memIter struct {
	txn  *memTxn
	keys []string
	pos  int
}

func (it *memIter) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *memIter) Key() []byte { return []byte(it.keys[it.pos]) }

func (it *memIter) Value() ([]byte, error) {
	return it.txn.data[it.keys[it.pos]], nil
}

func (it *memIter) Close() error { return nil }

func tripleStoreDesc() *Descriptor {
	return &Descriptor{
		Name:             "edges",
		Prefix:           []byte{0x10},
		Strategy:         StrategyTripleStore,
		StoredFieldNames: []string{"weight"},
	}
}

func rec(id, from, edge, to string, weight int64) *record.StaticRecord {
	return &record.StaticRecord{
		IDValue:   id,
		FromValue: from,
		EdgeValue: edge,
		ToValue:   to,
		FieldList: []record.Field{{Name: "weight", Value: tuple.Int(weight)}},
	}
}

func TestScannerFindsInsertedRecordsBySubject(t *testing.T) {
	desc := tripleStoreDesc()
	m, err := NewMaintainer(desc)
	if err != nil {
		t.Fatal(err)
	}
	txn := newMemTxn()

	records := []*record.StaticRecord{
		rec("1", "alice", "follows", "bob", 1),
		rec("2", "alice", "follows", "carol", 2),
		rec("3", "dave", "follows", "alice", 3),
	}
	for _, r := range records {
		if err := m.UpdateIndex(nil, r, txn); err != nil {
			t.Fatal(err)
		}
	}

	sc, err := NewScanner(desc)
	if err != nil {
		t.Fatal(err)
	}
	subj := "alice"
	it, err := sc.Scan(txn, ScanPattern{Subject: &subj}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, it.Record().To)
	}
	if err := it.Err(); err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	want := []string{"bob", "carol"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestScannerAppliesPushdownFilter(t *testing.T) {
	desc := tripleStoreDesc()
	m, _ := NewMaintainer(desc)
	txn := newMemTxn()
	for _, r := range []*record.StaticRecord{
		rec("1", "alice", "follows", "bob", 1),
		rec("2", "alice", "follows", "carol", 5),
	} {
		if err := m.UpdateIndex(nil, r, txn); err != nil {
			t.Fatal(err)
		}
	}

	sc, _ := NewScanner(desc)
	subj := "alice"
	it, err := sc.Scan(txn, ScanPattern{Subject: &subj}, []Comparator{
		{Field: "weight", Op: OpGe, Value: tuple.Int(3)},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	count := 0
	for it.Next() {
		count++
		if it.Record().To != "carol" {
			t.Errorf("expected only carol to pass filter, got %s", it.Record().To)
		}
	}
	if count != 1 {
		t.Errorf("expected 1 match, got %d", count)
	}
}

func TestScannerRejectsNonStoredFieldFilter(t *testing.T) {
	desc := tripleStoreDesc()
	sc, _ := NewScanner(desc)
	txn := newMemTxn()

	_, err := sc.Scan(txn, ScanPattern{}, []Comparator{
		{Field: "unknown_field", Op: OpEq, Value: tuple.String("x")},
	})
	if err == nil {
		t.Fatal("expected ErrNotPushable")
	}
}

func TestScannerUpdateIndexRemovesStalePermutations(t *testing.T) {
	desc := tripleStoreDesc()
	m, _ := NewMaintainer(desc)
	txn := newMemTxn()

	r1 := rec("1", "alice", "follows", "bob", 1)
	if err := m.UpdateIndex(nil, r1, txn); err != nil {
		t.Fatal(err)
	}
	r2 := rec("1", "alice", "follows", "carol", 1)
	if err := m.UpdateIndex(r1, r2, txn); err != nil {
		t.Fatal(err)
	}

	sc, _ := NewScanner(desc)
	subj := "alice"
	it, _ := sc.Scan(txn, ScanPattern{Subject: &subj}, nil)
	defer it.Close()

	var tos []string
	for it.Next() {
		tos = append(tos, it.Record().To)
	}
	if len(tos) != 1 || tos[0] != "carol" {
		t.Errorf("expected only carol after update, got %v", tos)
	}
}
