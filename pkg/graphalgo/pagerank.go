package graphalgo

import (
	"sort"

	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/kv"
)

// PageRankOptions configures one PageRank run.
type PageRankOptions struct {
	Label         *string // nil = all edge labels
	Damping       float64 // default 0.85
	Threshold     float64 // L1 delta convergence threshold, default 1e-6
	MaxIterations int
}

// DefaultDamping and DefaultThreshold are the documented PageRank
// defaults.
const (
	DefaultDamping   = 0.85
	DefaultThreshold = 1e-6
)

// PageRankResult is the outcome of one PageRank run.
type PageRankResult struct {
	Scores     map[string]float64
	Iterations int
	Delta      float64
	Truncated  bool
}

// TopK returns the k highest-scoring nodes, descending by score, ties
// broken by ascending node id for determinism.
func (r PageRankResult) TopK(k int) []string {
	nodes := make([]string, 0, len(r.Scores))
	for n := range r.Scores {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if r.Scores[nodes[i]] != r.Scores[nodes[j]] {
			return r.Scores[nodes[i]] > r.Scores[nodes[j]]
		}
		return nodes[i] < nodes[j]
	})
	if k > len(nodes) {
		k = len(nodes)
	}
	return nodes[:k]
}

// PageRank computes a damped PageRank over the edge index scanned
// through sc. It runs a one-pass discovery scan to enumerate every node
// and edge under opts.Label, then iterates over the in-memory edge list
// until convergence or MaxIterations.
func PageRank(sc *edgeindex.Scanner, txn kv.Transaction, opts PageRankOptions) (PageRankResult, error) {
	damping := opts.Damping
	if damping == 0 {
		damping = DefaultDamping
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	nodes, outDegree, edges, err := discoverGraph(sc, txn, opts.Label)
	if err != nil {
		return PageRankResult{}, err
	}
	n := len(nodes)
	if n == 0 {
		return PageRankResult{Scores: map[string]float64{}}, nil
	}

	scores := make(map[string]float64, n)
	for _, node := range nodes {
		scores[node] = 1.0 / float64(n)
	}

	base := (1 - damping) / float64(n)
	delta := 0.0
	iterations := 0
	truncated := true

	for iter := 0; iter < opts.MaxIterations; iter++ {
		iterations = iter + 1
		next := make(map[string]float64, n)
		for _, node := range nodes {
			next[node] = base
		}

		danglingMass := 0.0
		for _, node := range nodes {
			if outDegree[node] == 0 {
				danglingMass += scores[node]
			}
		}
		if danglingMass > 0 {
			share := damping * danglingMass / float64(n)
			for _, node := range nodes {
				next[node] += share
			}
		}

		for _, e := range edges {
			if outDegree[e.from] == 0 {
				continue
			}
			next[e.to] += damping * scores[e.from] / float64(outDegree[e.from])
		}

		delta = 0.0
		for _, node := range nodes {
			d := next[node] - scores[node]
			if d < 0 {
				d = -d
			}
			delta += d
		}
		scores = next

		if delta < threshold {
			truncated = false
			break
		}
	}

	return PageRankResult{Scores: scores, Iterations: iterations, Delta: delta, Truncated: truncated}, nil
}

type rawEdge struct {
	from, to string
}

// discoverGraph streams the whole edge index once (the discovery pass),
// enumerating every node reached as a source or target, its out-degree,
// and the full edge list — all kept in memory so the PageRank iteration
// loop never re-scans the store.
func discoverGraph(sc *edgeindex.Scanner, txn kv.Transaction, label *string) ([]string, map[string]int, []rawEdge, error) {
	it, err := sc.Scan(txn, edgeindex.ScanPattern{Predicate: label}, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	defer it.Close()

	seen := make(map[string]struct{})
	outDegree := make(map[string]int)
	var edges []rawEdge
	var nodes []string

	addNode := func(n string) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		nodes = append(nodes, n)
	}

	for it.Next() {
		rec := it.Record()
		addNode(rec.From)
		addNode(rec.To)
		outDegree[rec.From]++
		edges = append(edges, rawEdge{from: rec.From, to: rec.To})
	}
	if err := it.Err(); err != nil {
		return nil, nil, nil, err
	}
	return nodes, outDegree, edges, nil
}
