package graphalgo

import (
	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/kv"
)

// Path is the result of a shortest-path search: the node list (source
// to target inclusive) and the edge label taken at each hop, or
// IsConnected=false if no path was found within MaxDepth.
type Path struct {
	Nodes       []string
	Edges       []string
	Length      int
	IsConnected bool
	Truncated   bool
}

// DefaultBatchSize is a batch size for batched neighbor expansion. No
// function in this package reads it: each BFS step passes the whole
// current frontier to one BatchScanAllOutgoing/BatchScanAllIncoming
// call, whatever its size.
const DefaultBatchSize = 64

// ShortestPath finds a shortest path from source to target by
// bidirectional BFS: frontiers expand simultaneously from both ends and
// the search stops the moment they meet. label restricts which edge
// label to traverse (nil = wildcard).
func ShortestPath(sc *edgeindex.Scanner, txn kv.Transaction, source, target string, label *string, maxDepth int) (Path, error) {
	if source == target {
		return Path{Nodes: []string{source}, Length: 0, IsConnected: true}, nil
	}

	fwd := newFrontier(source)
	bwd := newFrontier(target)

	for depth := 0; depth < maxDepth; depth++ {
		// Expand whichever frontier is smaller first — a standard
		// bidirectional-BFS balancing heuristic; only simultaneous
		// expansion is required, not which side goes first.
		var err error
		var meet string
		var found bool
		if fwd.size() <= bwd.size() {
			meet, found, err = expand(sc, txn, fwd, bwd, label, false)
		} else {
			meet, found, err = expand(sc, txn, bwd, fwd, label, true)
		}
		if err != nil {
			return Path{}, err
		}
		if found {
			return reconstructPath(fwd, bwd, meet), nil
		}
		if fwd.frontierEmpty() && bwd.frontierEmpty() {
			break
		}
	}
	return Path{IsConnected: false, Truncated: true}, nil
}

// ShortestPathUnidirectional performs a plain single-source BFS up to
// maxDepth.
func ShortestPathUnidirectional(sc *edgeindex.Scanner, txn kv.Transaction, source, target string, label *string, maxDepth int) (Path, error) {
	if source == target {
		return Path{Nodes: []string{source}, Length: 0, IsConnected: true}, nil
	}
	f := newFrontier(source)
	for depth := 0; depth < maxDepth; depth++ {
		current := f.currentFrontier()
		if len(current) == 0 {
			break
		}
		neighbors, err := BatchScanAllOutgoing(sc, txn, current, label)
		if err != nil {
			return Path{}, err
		}
		var next []string
		for _, node := range current {
			for _, nb := range neighbors[node] {
				if f.visit(nb.Node, node, nb.Edge) {
					next = append(next, nb.Node)
					if nb.Node == target {
						return reconstructUnidirectional(f, target), nil
					}
				}
			}
		}
		f.setFrontier(next)
	}
	return Path{IsConnected: false, Truncated: true}, nil
}

// frontier tracks one side of a bidirectional BFS: a visited set with
// parent pointers (for path reconstruction) and the current wave of
// nodes still to expand.
type frontier struct {
	visited  map[string]step
	frontier []string
}

type step struct {
	parent string
	edge   string
	has    bool
}

func newFrontier(start string) *frontier {
	f := &frontier{visited: map[string]step{start: {has: false}}, frontier: []string{start}}
	return f
}

func (f *frontier) size() int { return len(f.visited) }

func (f *frontier) frontierEmpty() bool { return len(f.frontier) == 0 }

func (f *frontier) currentFrontier() []string { return f.frontier }

func (f *frontier) setFrontier(next []string) { f.frontier = next }

// visit records node as reached from parent via edge, returning true
// iff this is the first time node was seen from this frontier.
func (f *frontier) visit(node, parent, edge string) bool {
	if _, seen := f.visited[node]; seen {
		return false
	}
	f.visited[node] = step{parent: parent, edge: edge, has: true}
	return true
}

func (f *frontier) has(node string) bool {
	_, ok := f.visited[node]
	return ok
}

// expand advances src's frontier by one hop, checking after each batch
// whether any newly reached node is already present in dst — the
// bidirectional meeting condition. reverse indicates src is searching
// backward from the target (so its edges are traversed incoming).
func expand(sc *edgeindex.Scanner, txn kv.Transaction, src, dst *frontier, label *string, reverse bool) (string, bool, error) {
	current := src.currentFrontier()
	if len(current) == 0 {
		return "", false, nil
	}

	var neighbors map[string][]Neighbor
	var err error
	if reverse {
		neighbors, err = BatchScanAllIncoming(sc, txn, current, label)
	} else {
		neighbors, err = BatchScanAllOutgoing(sc, txn, current, label)
	}
	if err != nil {
		return "", false, err
	}

	var next []string
	for _, node := range current {
		for _, nb := range neighbors[node] {
			if src.visit(nb.Node, node, nb.Edge) {
				next = append(next, nb.Node)
				if dst.has(nb.Node) {
					src.setFrontier(next)
					return nb.Node, true, nil
				}
			}
		}
	}
	src.setFrontier(next)
	return "", false, nil
}

func reconstructPath(fwd, bwd *frontier, meet string) Path {
	var fwdNodes, fwdEdges []string
	for n := meet; ; {
		fwdNodes = append([]string{n}, fwdNodes...)
		s := fwd.visited[n]
		if !s.has {
			break
		}
		fwdEdges = append([]string{s.edge}, fwdEdges...)
		n = s.parent
	}

	var bwdNodes, bwdEdges []string
	for n := meet; ; {
		s := bwd.visited[n]
		if !s.has {
			break
		}
		bwdNodes = append(bwdNodes, s.parent)
		bwdEdges = append(bwdEdges, s.edge)
		n = s.parent
	}

	nodes := append(fwdNodes, bwdNodes...)
	edges := append(fwdEdges, bwdEdges...)
	return Path{Nodes: nodes, Edges: edges, Length: len(edges), IsConnected: true}
}

func reconstructUnidirectional(f *frontier, target string) Path {
	var nodes, edges []string
	for n := target; ; {
		nodes = append([]string{n}, nodes...)
		s := f.visited[n]
		if !s.has {
			break
		}
		edges = append([]string{s.edge}, edges...)
		n = s.parent
	}
	return Path{Nodes: nodes, Edges: edges, Length: len(edges), IsConnected: true}
}
