package graphalgo

import (
	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/kv"
)

// SCCResult is the outcome of a strongly-connected-components run
// (Tarjan's algorithm).
type SCCResult struct {
	ComponentOf       map[string]int
	ComponentSizes    []int
	CondensationEdges int
	IsDAG             bool
}

// StronglyConnectedComponents computes Tarjan's SCC decomposition of
// the directed graph restricted to label (nil = all labels), using an
// explicit work stack rather than recursion so arbitrarily deep or
// cyclic graphs never overflow the call stack.
func StronglyConnectedComponents(sc *edgeindex.Scanner, txn kv.Transaction, label *string) (SCCResult, error) {
	nodes, _, edges, err := discoverGraph(sc, txn, label)
	if err != nil {
		return SCCResult{}, err
	}
	adj := make(map[string][]string, len(nodes))
	hasSelfLoop := false
	for _, e := range edges {
		adj[e.from] = append(adj[e.from], e.to)
		if e.from == e.to {
			hasSelfLoop = true
		}
	}

	t := &tarjanState{
		indices: make(map[string]int, len(nodes)),
		lowlink: make(map[string]int, len(nodes)),
		onStack: make(map[string]bool, len(nodes)),
		adj:     adj,
	}
	for _, n := range nodes {
		t.indices[n] = -1
	}

	var components [][]string
	for _, n := range nodes {
		if t.indices[n] != -1 {
			continue
		}
		components = append(components, t.run(n)...)
	}

	componentOf := make(map[string]int, len(nodes))
	sizes := make([]int, len(components))
	for i, comp := range components {
		sizes[i] = len(comp)
		for _, n := range comp {
			componentOf[n] = i
		}
	}

	condensationEdges := 0
	seenPair := make(map[[2]int]struct{})
	for _, e := range edges {
		cf, ct := componentOf[e.from], componentOf[e.to]
		if cf == ct {
			continue
		}
		key := [2]int{cf, ct}
		if _, dup := seenPair[key]; dup {
			continue
		}
		seenPair[key] = struct{}{}
		condensationEdges++
	}

	isDAG := !hasSelfLoop
	for _, size := range sizes {
		if size != 1 {
			isDAG = false
			break
		}
	}

	return SCCResult{
		ComponentOf:       componentOf,
		ComponentSizes:    sizes,
		CondensationEdges: condensationEdges,
		IsDAG:             isDAG,
	}, nil
}

// tarjanState holds the bookkeeping shared across the iterative
// Tarjan run: discovery indices, lowlinks, the auxiliary node stack,
// and an explicit call-frame stack standing in for recursion.
type tarjanState struct {
	indices map[string]int
	lowlink map[string]int
	onStack map[string]bool
	adj     map[string][]string
	stack   []string
	nextIdx int
}

type tarjanFrame struct {
	node        string
	neighborIdx int
}

// run executes Tarjan's algorithm starting from root using an explicit
// frame stack, returning every complete SCC popped off during this call
// (root's own component plus any fully resolved before it).
func (t *tarjanState) run(root string) [][]string {
	var components [][]string

	t.indices[root] = t.nextIdx
	t.lowlink[root] = t.nextIdx
	t.nextIdx++
	t.stack = append(t.stack, root)
	t.onStack[root] = true

	frames := []*tarjanFrame{{node: root}}
	for len(frames) > 0 {
		top := frames[len(frames)-1]
		neighbors := t.adj[top.node]

		if top.neighborIdx < len(neighbors) {
			w := neighbors[top.neighborIdx]
			top.neighborIdx++

			if t.indices[w] == -1 {
				t.indices[w] = t.nextIdx
				t.lowlink[w] = t.nextIdx
				t.nextIdx++
				t.stack = append(t.stack, w)
				t.onStack[w] = true
				frames = append(frames, &tarjanFrame{node: w})
			} else if t.onStack[w] {
				if t.indices[w] < t.lowlink[top.node] {
					t.lowlink[top.node] = t.indices[w]
				}
			}
			continue
		}

		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := frames[len(frames)-1]
			if t.lowlink[top.node] < t.lowlink[parent.node] {
				t.lowlink[parent.node] = t.lowlink[top.node]
			}
		}

		if t.lowlink[top.node] == t.indices[top.node] {
			var comp []string
			for {
				n := len(t.stack) - 1
				w := t.stack[n]
				t.stack = t.stack[:n]
				t.onStack[w] = false
				comp = append(comp, w)
				if w == top.node {
					break
				}
			}
			components = append(components, comp)
		}
	}
	return components
}
