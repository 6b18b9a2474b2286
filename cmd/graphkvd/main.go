// Command graphkvd is a demo CLI over the graph-KV engine, wiring
// BadgerDB storage, the directory allocator, the edge index, the
// pattern execution engine, the classical graph algorithms, and the OWL
// ontology store plus its tableau and incremental reasoners into one
// runnable program.
//
// Modeled on cmd/trigo/main.go: the same os.Args-command-switch shape
// (demo/query/serve became demo/path/rank/reason/incremental/query
// here), the same "open database, defer Close, print progress to
// stdout" style for the demo path.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kvgraph/engine/internal/badgerkv"
	"github.com/kvgraph/engine/pkg/edgeindex"
	"github.com/kvgraph/engine/pkg/engine"
	"github.com/kvgraph/engine/pkg/graphalgo"
	"github.com/kvgraph/engine/pkg/incremental"
	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/owl"
	"github.com/kvgraph/engine/pkg/pattern"
	"github.com/kvgraph/engine/pkg/record"
	"github.com/kvgraph/engine/pkg/tableau"
	"github.com/kvgraph/engine/pkg/tuple"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: graphkvd <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  demo             - load sample edges and run the graph algorithms over them")
		fmt.Println("  path <a> <b>     - shortest path between two nodes in the sample graph")
		fmt.Println("  rank             - PageRank over the sample graph")
		fmt.Println("  reason           - load a sample ontology and run the tableau reasoner")
		fmt.Println("  incremental      - add and retract axioms and watch the materialized facts change")
		fmt.Println("  query <a>        - pattern-match everyone <a> knows")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "demo":
		runDemo()
	case "path":
		if len(os.Args) < 4 {
			fmt.Println("Usage: graphkvd path <from> <to>")
			os.Exit(1)
		}
		runPath(os.Args[2], os.Args[3])
	case "rank":
		runRank()
	case "reason":
		runReason()
	case "incremental":
		runIncremental()
	case "query":
		if len(os.Args) < 3 {
			fmt.Println("Usage: graphkvd query <subject>")
			os.Exit(1)
		}
		runQuery(os.Args[2])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

const dbPath = "./graphkvd_data"

// sampleDescriptor returns the edge-index descriptor the demo/path/rank
// commands share: a triple-store-strategy index over a "knows" style
// social graph, with one stored "weight" property field.
func sampleDescriptor(dir kv.Directory) (*edgeindex.Descriptor, error) {
	prefix, err := dir.Resolve("Edges", "knows")
	if err != nil {
		return nil, fmt.Errorf("resolve index prefix: %w", err)
	}
	return &edgeindex.Descriptor{
		Name:             "knows",
		Prefix:           prefix,
		Strategy:         edgeindex.StrategyTripleStore,
		StoredFieldNames: []string{"weight"},
	}, nil
}

func sampleEdges() []*record.StaticRecord {
	edge := func(id, from, to string, weight int64) *record.StaticRecord {
		return &record.StaticRecord{
			IDValue:   id,
			FromValue: from,
			EdgeValue: "knows",
			ToValue:   to,
			FieldList: []record.Field{{Name: "weight", Value: tuple.Int(weight)}},
		}
	}
	return []*record.StaticRecord{
		edge("e1", "alice", "bob", 1),
		edge("e2", "bob", "carol", 1),
		edge("e3", "alice", "carol", 1),
		edge("e4", "carol", "dave", 1),
		edge("e5", "dave", "alice", 1),
	}
}

func openStorage() *badgerkv.Storage {
	storage, err := badgerkv.Open(dbPath)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	return storage
}

func loadSampleGraph(storage *badgerkv.Storage) (*edgeindex.Descriptor, error) {
	dir := badgerkv.NewDirectory(storage)
	desc, err := sampleDescriptor(dir)
	if err != nil {
		return nil, err
	}
	maintainer, err := edgeindex.NewMaintainer(desc)
	if err != nil {
		return nil, fmt.Errorf("new maintainer: %w", err)
	}

	txn, err := storage.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("begin write txn: %w", err)
	}
	for _, r := range sampleEdges() {
		if err := maintainer.UpdateIndex(nil, r, txn); err != nil {
			txn.Rollback()
			return nil, fmt.Errorf("index edge %s: %w", r.ID(), err)
		}
	}
	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return desc, nil
}

func runDemo() {
	fmt.Println("=== graphkvd demo ===")
	fmt.Printf("Opening database at: %s\n", dbPath)
	storage := openStorage()
	defer storage.Close()

	desc, err := loadSampleGraph(storage)
	if err != nil {
		log.Fatalf("load sample graph: %v", err)
	}
	fmt.Printf("Indexed %d edges under %q\n\n", len(sampleEdges()), desc.IndexName())

	scanner, err := edgeindex.NewScanner(desc)
	if err != nil {
		log.Fatalf("new scanner: %v", err)
	}

	txn, err := storage.Begin(false)
	if err != nil {
		log.Fatalf("begin read txn: %v", err)
	}
	defer txn.Rollback()

	path, err := graphalgo.ShortestPath(scanner, txn, "alice", "dave", nil, 10)
	if err != nil {
		log.Fatalf("shortest path: %v", err)
	}
	fmt.Printf("Shortest path alice -> dave: %v\n", path.Nodes)

	rank, err := graphalgo.PageRank(scanner, txn, graphalgo.PageRankOptions{MaxIterations: 100})
	if err != nil {
		log.Fatalf("pagerank: %v", err)
	}
	fmt.Printf("Top ranked node: %v\n", rank.TopK(1))

	scc, err := graphalgo.StronglyConnectedComponents(scanner, txn, nil)
	if err != nil {
		log.Fatalf("scc: %v", err)
	}
	fmt.Printf("Strongly connected component sizes: %v (DAG: %v)\n", scc.ComponentSizes, scc.IsDAG)
}

func runPath(from, to string) {
	storage := openStorage()
	defer storage.Close()

	desc, err := loadSampleGraph(storage)
	if err != nil {
		log.Fatalf("load sample graph: %v", err)
	}
	scanner, err := edgeindex.NewScanner(desc)
	if err != nil {
		log.Fatalf("new scanner: %v", err)
	}
	txn, err := storage.Begin(false)
	if err != nil {
		log.Fatalf("begin read txn: %v", err)
	}
	defer txn.Rollback()

	path, err := graphalgo.ShortestPath(scanner, txn, from, to, nil, 20)
	if err != nil {
		log.Fatalf("shortest path: %v", err)
	}
	if len(path.Nodes) == 0 {
		fmt.Printf("No path found from %s to %s\n", from, to)
		return
	}
	fmt.Printf("%v\n", path.Nodes)
}

func runRank() {
	storage := openStorage()
	defer storage.Close()

	desc, err := loadSampleGraph(storage)
	if err != nil {
		log.Fatalf("load sample graph: %v", err)
	}
	scanner, err := edgeindex.NewScanner(desc)
	if err != nil {
		log.Fatalf("new scanner: %v", err)
	}
	txn, err := storage.Begin(false)
	if err != nil {
		log.Fatalf("begin read txn: %v", err)
	}
	defer txn.Rollback()

	rank, err := graphalgo.PageRank(scanner, txn, graphalgo.PageRankOptions{MaxIterations: 100})
	if err != nil {
		log.Fatalf("pagerank: %v", err)
	}
	for _, node := range rank.TopK(10) {
		fmt.Printf("%-10s %.6f\n", node, rank.Scores[node])
	}
}

// runReason loads a small ontology, persists and reloads it through the
// Ontology Store, then exercises the tableau reasoner's Types/Subsumes
// queries over it.
func runReason() {
	fmt.Println("=== graphkvd reason ===")
	storage := openStorage()
	defer storage.Close()

	o := owl.New("http://example.org/demo")
	o.AddAxiom(&owl.Axiom{Kind: owl.AxiomSubClassOf, Sub: owl.NamedClass("http://example.org/Dog"), Super: owl.NamedClass("http://example.org/Animal")})
	o.AddAxiom(&owl.Axiom{Kind: owl.AxiomSubClassOf, Sub: owl.NamedClass("http://example.org/Animal"), Super: owl.NamedClass("http://example.org/LivingThing")})
	o.AddAxiom(&owl.Axiom{Kind: owl.AxiomClassAssertion, Individual: "http://example.org/rex", Sub: owl.NamedClass("http://example.org/Dog")})

	dir := badgerkv.NewDirectory(storage)
	store := owl.NewStore(dir)

	txn, err := storage.Begin(true)
	if err != nil {
		log.Fatalf("begin write txn: %v", err)
	}
	if err := store.Load(txn, o); err != nil {
		txn.Rollback()
		log.Fatalf("load ontology: %v", err)
	}
	if err := txn.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}

	readTxn, err := storage.Begin(false)
	if err != nil {
		log.Fatalf("begin read txn: %v", err)
	}
	defer readTxn.Rollback()

	reloaded, err := store.Get(readTxn, o.IRI)
	if err != nil {
		log.Fatalf("get ontology: %v", err)
	}

	reasoner := tableau.NewOptimizedReasoner(reloaded)
	types := reasoner.Types("http://example.org/rex")
	fmt.Printf("Types of rex: %v\n", types)

	subsumes := reasoner.Subsumes(owl.NamedClass("http://example.org/LivingThing"), owl.NamedClass("http://example.org/Dog"))
	fmt.Printf("LivingThing subsumes Dog: %v\n", subsumes)
}

// runQuery executes a single Basic pattern through the Pattern Execution
// Engine: "who does <subject> know?"
func runQuery(subject string) {
	storage := openStorage()
	defer storage.Close()

	desc, err := loadSampleGraph(storage)
	if err != nil {
		log.Fatalf("load sample graph: %v", err)
	}

	e, err := engine.New(map[string]*edgeindex.Descriptor{"knows": desc})
	if err != nil {
		log.Fatalf("new engine: %v", err)
	}

	txn, err := storage.Begin(false)
	if err != nil {
		log.Fatalf("begin read txn: %v", err)
	}
	defer txn.Rollback()

	node := &pattern.Basic{
		Index:     "knows",
		Subject:   pattern.Bound(tuple.String(subject)),
		Predicate: pattern.Bound(tuple.String("knows")),
		Object:    pattern.Var("friend"),
	}
	it, err := e.Execute(node, txn)
	if err != nil {
		log.Fatalf("execute: %v", err)
	}
	defer it.Close()

	for it.Next() {
		b := it.Binding()
		fmt.Printf("%s knows %v\n", subject, b["friend"])
	}
	if err := it.Err(); err != nil {
		log.Fatalf("iterate: %v", err)
	}
}

// runIncremental demonstrates the DRed-style incremental reasoner: seed
// a small ontology, add an axiom and show the new inferences, then
// retract one and show what got rederived versus what was actually
// removed.
func runIncremental() {
	fmt.Println("=== graphkvd incremental ===")
	o := owl.New("http://example.org/demo")
	dogSub := &owl.Axiom{Kind: owl.AxiomSubClassOf, Sub: owl.NamedClass("http://example.org/Dog"), Super: owl.NamedClass("http://example.org/Animal")}
	o.AddAxiom(dogSub)
	o.AddAxiom(&owl.Axiom{Kind: owl.AxiomSubClassOf, Sub: owl.NamedClass("http://example.org/Animal"), Super: owl.NamedClass("http://example.org/LivingThing")})
	rexDog := &owl.Axiom{Kind: owl.AxiomClassAssertion, Individual: "http://example.org/rex", Sub: owl.NamedClass("http://example.org/Dog")}
	o.AddAxiom(rexDog)

	r := incremental.NewReasoner(o)
	fmt.Printf("Initial materialized facts: %d\n", len(r.Facts()))

	addStats := r.AddAxiom(&owl.Axiom{
		Kind:       owl.AxiomClassAssertion,
		Individual: "http://example.org/fido",
		Sub:        owl.NamedClass("http://example.org/Dog"),
	})
	fmt.Printf("After adding fido: +%d inferences in %s\n", addStats.InferencesAdded, addStats.ProcessingTime)

	delStats := r.DeleteAxiom(rexDog)
	fmt.Printf("After retracting rex's Dog assertion: -%d inferences, %d rederivations, %d cascading checks, in %s\n",
		delStats.InferencesRemoved, delStats.Rederivations, delStats.CascadingChecks, delStats.ProcessingTime)
	fmt.Printf("Final materialized facts: %d\n", len(r.Facts()))
}
