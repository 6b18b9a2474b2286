package graphalgo

import (
	"math/rand"
	"sort"

	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/kv"
)

// LabelPropagationOptions configures one community-detection run. Seed
// makes the per-iteration random node ordering reproducible for tests; a
// zero Seed still produces a valid (if less interesting) run rather than
// panicking.
type LabelPropagationOptions struct {
	Label         *string
	MaxIterations int
	Seed          int64
}

// CommunityResult is the outcome of one label-propagation run.
type CommunityResult struct {
	Labels     map[string]string // node -> community label (a node id)
	Iterations int
	Truncated  bool
}

// DetectCommunities runs asynchronous label propagation: every node
// starts as its own community; each iteration reassigns
// every node in place, visited in random order, to the most frequent label
// among its neighbors (ties broken by smallest label), until a pass
// produces no change or MaxIterations is reached.
func DetectCommunities(sc *edgeindex.Scanner, txn kv.Transaction, opts LabelPropagationOptions) (CommunityResult, error) {
	nodes, _, edges, err := discoverGraph(sc, txn, opts.Label)
	if err != nil {
		return CommunityResult{}, err
	}
	adjacency := undirectedAdjacency(nodes, edges)

	labels := make(map[string]string, len(nodes))
	for _, n := range nodes {
		labels[n] = n
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	order := append([]string(nil), nodes...)

	iterations := 0
	truncated := true
	for iter := 0; iter < opts.MaxIterations; iter++ {
		iterations = iter + 1
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		changed := false
		for _, node := range order {
			best := mostFrequentLabel(labels, adjacency[node], labels[node])
			if best != labels[node] {
				labels[node] = best
				changed = true
			}
		}
		if !changed {
			truncated = false
			break
		}
	}

	return CommunityResult{Labels: labels, Iterations: iterations, Truncated: truncated}, nil
}

// DetectLocalCommunity returns the set of nodes sharing seed's
// community label that are reachable from seed within maxHops.
func DetectLocalCommunity(sc *edgeindex.Scanner, txn kv.Transaction, labels map[string]string, seed string, maxHops int) ([]string, error) {
	seedLabel, ok := labels[seed]
	if !ok {
		return nil, nil
	}

	visited := map[string]struct{}{seed: {}}
	frontier := []string{seed}
	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		out, err := BatchScanAllOutgoing(sc, txn, frontier, nil)
		if err != nil {
			return nil, err
		}
		in, err := BatchScanAllIncoming(sc, txn, frontier, nil)
		if err != nil {
			return nil, err
		}
		var next []string
		for _, node := range frontier {
			for _, nb := range out[node] {
				if _, seen := visited[nb.Node]; !seen {
					visited[nb.Node] = struct{}{}
					next = append(next, nb.Node)
				}
			}
			for _, nb := range in[node] {
				if _, seen := visited[nb.Node]; !seen {
					visited[nb.Node] = struct{}{}
					next = append(next, nb.Node)
				}
			}
		}
		frontier = next
	}

	var out []string
	for node := range visited {
		if labels[node] == seedLabel {
			out = append(out, node)
		}
	}
	sort.Strings(out)
	return out, nil
}

func undirectedAdjacency(nodes []string, edges []rawEdge) map[string][]string {
	adj := make(map[string][]string, len(nodes))
	for _, e := range edges {
		adj[e.from] = append(adj[e.from], e.to)
		adj[e.to] = append(adj[e.to], e.from)
	}
	return adj
}

func mostFrequentLabel(labels map[string]string, neighbors []string, fallback string) string {
	if len(neighbors) == 0 {
		return fallback
	}
	counts := make(map[string]int, len(neighbors))
	for _, nb := range neighbors {
		counts[labels[nb]]++
	}

	var best string
	bestCount := -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic tie-break: smallest label wins
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
