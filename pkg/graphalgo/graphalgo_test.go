package graphalgo

import (
	"bytes"
	"sort"
	"testing"

	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/record"
)

// memTxn is a minimal in-memory kv.Transaction, the same shape used
// throughout this module's other package tests.
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
	t.data[string(key)] = append([]byte(nil), value...)
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
func (it *memIter) Key() []byte            { return []byte(it.keys[it.pos]) }
func (it *memIter) Value() ([]byte, error) { return it.txn.data[it.keys[it.pos]], nil }
func (it *memIter) Close() error           { return nil }

func edge(from, label, to string) *record.StaticRecord {
	return &record.StaticRecord{IDValue: from + "-" + label + "-" + to, FromValue: from, EdgeValue: label, ToValue: to}
}

func buildScanner(t *testing.T, records []*record.StaticRecord) (*edgeindex.Scanner, kv.Transaction) {
	t.Helper()
	desc := &edgeindex.Descriptor{Name: "edges", Prefix: []byte{0x10}, Strategy: edgeindex.StrategyTripleStore}
	m, err := edgeindex.NewMaintainer(desc)
	if err != nil {
		t.Fatal(err)
	}
	txn := newMemTxn()
	for _, r := range records {
		if err := m.UpdateIndex(nil, r, txn); err != nil {
			t.Fatal(err)
		}
	}
	sc, err := edgeindex.NewScanner(desc)
	if err != nil {
		t.Fatal(err)
	}
	return sc, txn
}

func TestShortestPathBidirectional(t *testing.T) {
	sc, txn := buildScanner(t, []*record.StaticRecord{
		edge("A", "to", "B"),
		edge("B", "to", "C"),
		edge("C", "to", "D"),
	})

	p, err := ShortestPath(sc, txn, "A", "D", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsConnected || p.Length != 3 {
		t.Fatalf("expected connected path of length 3, got %+v", p)
	}
	want := []string{"A", "B", "C", "D"}
	if len(p.Nodes) != len(want) {
		t.Fatalf("got nodes %v, want %v", p.Nodes, want)
	}
	for i := range want {
		if p.Nodes[i] != want[i] {
			t.Errorf("got nodes %v, want %v", p.Nodes, want)
		}
	}
}

func TestShortestPathDisconnected(t *testing.T) {
	sc, txn := buildScanner(t, []*record.StaticRecord{
		edge("A", "to", "B"),
		edge("B", "to", "C"),
		edge("E", "to", "F"), // disconnected component
	})

	p, err := ShortestPath(sc, txn, "A", "F", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if p.IsConnected {
		t.Errorf("expected no path, got %+v", p)
	}
}

func TestPageRankRanksHubHighest(t *testing.T) {
	sc, txn := buildScanner(t, []*record.StaticRecord{
		edge("A", "follows", "C"),
		edge("B", "likes", "C"),
		edge("D", "shares", "C"),
	})

	r, err := PageRank(sc, txn, PageRankOptions{MaxIterations: 50})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Scores) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(r.Scores))
	}
	top := r.TopK(1)
	if top[0] != "C" {
		t.Errorf("expected C to rank highest, got %v (scores=%v)", top, r.Scores)
	}
}

func TestPageRankRespectsEdgeLabelFilter(t *testing.T) {
	sc, txn := buildScanner(t, []*record.StaticRecord{
		edge("A", "follows", "C"),
		edge("B", "likes", "C"),
		edge("D", "shares", "C"),
	})

	label := "follows"
	r, err := PageRank(sc, txn, PageRankOptions{Label: &label, MaxIterations: 50})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Scores) != 2 {
		t.Errorf("expected only the 2 nodes touched by 'follows', got %d (%v)", len(r.Scores), r.Scores)
	}
}

func TestStronglyConnectedComponents(t *testing.T) {
	sc, txn := buildScanner(t, []*record.StaticRecord{
		edge("A", "to", "B"),
		edge("B", "to", "C"),
		edge("C", "to", "A"), // A-B-C form a cycle
		edge("C", "to", "D"), // D hangs off the cycle, not part of it
	})

	r, err := StronglyConnectedComponents(sc, txn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.ComponentOf["A"] != r.ComponentOf["B"] || r.ComponentOf["B"] != r.ComponentOf["C"] {
		t.Errorf("expected A, B, C in the same component, got %v", r.ComponentOf)
	}
	if r.ComponentOf["D"] == r.ComponentOf["A"] {
		t.Errorf("expected D in its own component")
	}
	if r.IsDAG {
		t.Errorf("expected IsDAG=false given the A-B-C cycle")
	}
}

func TestStronglyConnectedComponentsDAG(t *testing.T) {
	sc, txn := buildScanner(t, []*record.StaticRecord{
		edge("A", "to", "B"),
		edge("B", "to", "C"),
	})

	r, err := StronglyConnectedComponents(sc, txn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsDAG {
		t.Errorf("expected a simple chain to be a DAG")
	}
	for _, size := range r.ComponentSizes {
		if size != 1 {
			t.Errorf("expected every component to be a singleton, got size %d", size)
		}
	}
}

func TestDetectCommunitiesConvergesAndGroupsCliques(t *testing.T) {
	sc, txn := buildScanner(t, []*record.StaticRecord{
		edge("A", "knows", "B"),
		edge("B", "knows", "A"),
		edge("C", "knows", "D"),
		edge("D", "knows", "C"),
	})

	r, err := DetectCommunities(sc, txn, LabelPropagationOptions{MaxIterations: 20, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if r.Labels["A"] != r.Labels["B"] {
		t.Errorf("expected A and B in the same community, got %v", r.Labels)
	}
	if r.Labels["C"] != r.Labels["D"] {
		t.Errorf("expected C and D in the same community, got %v", r.Labels)
	}
	if r.Labels["A"] == r.Labels["C"] {
		t.Errorf("expected the two disjoint pairs in different communities")
	}
}

func TestDetectLocalCommunityStaysWithinMaxHops(t *testing.T) {
	sc, txn := buildScanner(t, []*record.StaticRecord{
		edge("A", "knows", "B"),
		edge("B", "knows", "C"),
		edge("C", "knows", "D"),
	})

	labels := map[string]string{"A": "g1", "B": "g1", "C": "g1", "D": "g1"}
	got, err := DetectLocalCommunity(sc, txn, labels, "A", 1)
	if err != nil {
		t.Fatal(err)
	}
	// within 1 hop of A: A itself and B, not C or D.
	want := []string{"A", "B"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestBatchScanAllOutgoingReturnsEmptySliceForIsolatedNode(t *testing.T) {
	sc, txn := buildScanner(t, []*record.StaticRecord{
		edge("A", "to", "B"),
	})

	out, err := BatchScanAllOutgoing(sc, txn, []string{"A", "isolated"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out["A"]) != 1 {
		t.Errorf("expected A to have 1 outgoing neighbor, got %v", out["A"])
	}
	neighbors, ok := out["isolated"]
	if !ok {
		t.Fatal("expected an entry for isolated even with no edges")
	}
	if len(neighbors) != 0 {
		t.Errorf("expected 0 neighbors for isolated, got %v", neighbors)
	}
}
