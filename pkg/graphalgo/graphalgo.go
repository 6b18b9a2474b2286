// Package graphalgo implements classical graph algorithms — BFS shortest
// path (uni/bidirectional), PageRank, label-propagation community
// detection, and Tarjan strongly-connected components — by streaming a
// pkg/edgeindex Scanner. BFS looks up neighbors one frontier at a time;
// PageRank, community detection and SCC stream the index once to
// discover the graph and then run over node and edge lists held in
// memory.
//
// There is no graph-algorithms package in pkg/store; these types and
// the batch-neighbor contract are modeled on the streamed, batch-
// oriented scan shape `pkg/store/query.go`'s `quadIterator` already
// exposes, generalized into a neighbor lookup over a batch of nodes
// (`BatchScanAllOutgoing`/`BatchScanAllIncoming`) that runs one Scanner
// scan per node in the batch.
package graphalgo

import (
	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/kv"
)

// Neighbor is one edge reached from a batch-scanned node.
type Neighbor struct {
	Node string
	Edge string
}

// BatchScanAllOutgoing returns, for every node in nodes, the list of
// (neighbor, edge-label) pairs reachable by a single outgoing hop
// through sc, optionally restricted to label. A node with no outgoing
// edges still gets an entry (an empty slice), never a missing map key.
func BatchScanAllOutgoing(sc *edgeindex.Scanner, txn kv.Transaction, nodes []string, label *string) (map[string][]Neighbor, error) {
	return batchScan(sc, txn, nodes, label, false)
}

// BatchScanAllIncoming is BatchScanAllOutgoing's reverse-direction
// counterpart: for each node, the edges where that node is the object.
func BatchScanAllIncoming(sc *edgeindex.Scanner, txn kv.Transaction, nodes []string, label *string) (map[string][]Neighbor, error) {
	return batchScan(sc, txn, nodes, label, true)
}

func batchScan(sc *edgeindex.Scanner, txn kv.Transaction, nodes []string, label *string, incoming bool) (map[string][]Neighbor, error) {
	result := make(map[string][]Neighbor, len(nodes))
	for _, n := range nodes {
		node := n
		pattern := edgeindex.ScanPattern{Predicate: label}
		if incoming {
			pattern.Object = &node
		} else {
			pattern.Subject = &node
		}

		it, err := sc.Scan(txn, pattern, nil)
		if err != nil {
			return nil, err
		}
		neighbors := result[n]
		for it.Next() {
			rec := it.Record()
			if incoming {
				neighbors = append(neighbors, Neighbor{Node: rec.From, Edge: rec.Edge})
			} else {
				neighbors = append(neighbors, Neighbor{Node: rec.To, Edge: rec.Edge})
			}
		}
		if err := it.Err(); err != nil {
			it.Close()
			return nil, err
		}
		it.Close()
		if neighbors == nil {
			neighbors = []Neighbor{}
		}
		result[n] = neighbors
	}
	return result, nil
}
