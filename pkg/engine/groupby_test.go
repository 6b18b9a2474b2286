package engine

import (
	"testing"

	"github.com/kvgraph/engine/pkg/expr"
	"github.com/kvgraph/engine/pkg/pattern"
	"github.com/kvgraph/engine/pkg/tuple"
)

func newAccumulator(fn pattern.AggFunc) *accumulator {
	return &accumulator{fn: fn, allInt: true}
}

func TestAccumulatorSumAllIntIsExact(t *testing.T) {
	a := newAccumulator(pattern.AggSum)
	for _, v := range []tuple.Element{tuple.Int(1), tuple.Int(2), tuple.Int(3)} {
		a.add(v, pattern.Aggregate{Func: pattern.AggSum})
	}
	got := a.result()
	if got.Kind != tuple.KindInt || got.Int != 6 {
		t.Errorf("sum of all-int addends: got %v, want Int(6)", got)
	}
}

func TestAccumulatorSumWithAnyDoubleIsDouble(t *testing.T) {
	a := newAccumulator(pattern.AggSum)
	for _, v := range []tuple.Element{tuple.Int(1), tuple.Double(2.5)} {
		a.add(v, pattern.Aggregate{Func: pattern.AggSum})
	}
	got := a.result()
	if got.Kind != tuple.KindDouble || got.Double != 3.5 {
		t.Errorf("sum with a double addend: got %v, want Double(3.5)", got)
	}
}

func TestAccumulatorAvgEmptyGroupIsNull(t *testing.T) {
	a := newAccumulator(pattern.AggAvg)
	got := a.result()
	if got.Kind != tuple.KindNull {
		t.Errorf("avg of empty group: got %v, want Null", got)
	}
}

func TestAccumulatorAvgSkipsNonNumericFromDenominator(t *testing.T) {
	a := newAccumulator(pattern.AggAvg)
	for _, v := range []tuple.Element{tuple.Int(10), tuple.String("not a number"), tuple.Int(20)} {
		a.add(v, pattern.Aggregate{Func: pattern.AggAvg})
	}
	got := a.result()
	if got.Kind != tuple.KindDouble || got.Double != 15 {
		t.Errorf("avg skipping a non-numeric value: got %v, want Double(15) (= (10+20)/2, not /3)", got)
	}
}

func TestAccumulatorMinMaxBool(t *testing.T) {
	a := newAccumulator(pattern.AggMin)
	b := newAccumulator(pattern.AggMax)
	for _, v := range []tuple.Element{tuple.Bool(true), tuple.Bool(false), tuple.Bool(true)} {
		a.add(v, pattern.Aggregate{Func: pattern.AggMin})
		b.add(v, pattern.Aggregate{Func: pattern.AggMax})
	}
	if got := a.result(); got.Kind != tuple.KindBool || got.Bool != false {
		t.Errorf("min of bools: got %v, want Bool(false)", got)
	}
	if got := b.result(); got.Kind != tuple.KindBool || got.Bool != true {
		t.Errorf("max of bools: got %v, want Bool(true)", got)
	}
}

func TestAccumulatorMinMaxExcludesNull(t *testing.T) {
	a := newAccumulator(pattern.AggMin)
	for _, v := range []tuple.Element{tuple.Null(), tuple.Int(5), tuple.Null()} {
		a.add(v, pattern.Aggregate{Func: pattern.AggMin})
	}
	got := a.result()
	if got.Kind != tuple.KindInt || got.Int != 5 {
		t.Errorf("min excluding null: got %v, want Int(5)", got)
	}
}

func TestLessTotalOrderAcrossKinds(t *testing.T) {
	cases := []struct {
		a, b tuple.Element
		want bool
	}{
		{tuple.Int(1), tuple.String("a"), true},
		{tuple.String("a"), tuple.Bool(true), true},
		{tuple.Bool(true), tuple.Int(1), false},
		{tuple.String("a"), tuple.String("b"), true},
	}
	for _, c := range cases {
		if got := less(c.a, c.b); got != c.want {
			t.Errorf("less(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestEngineGroupBySumAvgMinMaxOverAges(t *testing.T) {
	e, txn := buildEngine(t)
	basic := &pattern.Basic{Index: "age", Subject: pattern.Var("person"), Object: pattern.Var("ignored")}
	g := &pattern.GroupBy{
		Input: basic,
		Aggregates: []pattern.Aggregate{
			{Func: pattern.AggSum, Variable: "value", As: "total"},
			{Func: pattern.AggAvg, Variable: "value", As: "mean"},
			{Func: pattern.AggMin, Variable: "value", As: "youngest"},
			{Func: pattern.AggMax, Variable: "value", As: "oldest"},
		},
	}

	it, err := e.Execute(g, txn)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	if !it.Next() {
		t.Fatal("expected one group (no GROUP BY keys)")
	}
	b := it.Binding()

	// ages: alice 30, bob 25, carol 40, dave 50 -- all ints, so SUM must
	// come back exact rather than promoted to double.
	total, _ := b.Lookup("total")
	if total.Kind != tuple.KindInt || total.Int != 145 {
		t.Errorf("sum of all-int ages: got %v, want Int(145)", total)
	}
	mean, _ := b.Lookup("mean")
	if mean.Kind != tuple.KindDouble || mean.Double != 36.25 {
		t.Errorf("avg of ages: got %v, want Double(36.25)", mean)
	}
	youngest, _ := b.Lookup("youngest")
	if youngest.Kind != tuple.KindInt || youngest.Int != 25 {
		t.Errorf("min age: got %v, want Int(25)", youngest)
	}
	oldest, _ := b.Lookup("oldest")
	if oldest.Kind != tuple.KindInt || oldest.Int != 50 {
		t.Errorf("max age: got %v, want Int(50)", oldest)
	}
	if it.Next() {
		t.Error("expected exactly one group")
	}
}

func TestEngineGroupByHavingFiltersGroups(t *testing.T) {
	e, txn := buildEngine(t)
	basic := &pattern.Basic{Index: "follows", Subject: pattern.Var("who"), Predicate: pattern.Bound(tuple.String("follows")), Object: pattern.Var("whom")}
	g := &pattern.GroupBy{
		Input: basic,
		Keys:  []string{"who"},
		Aggregates: []pattern.Aggregate{
			{Func: pattern.AggCount, Variable: "whom", As: "n"},
		},
		Having: &expr.Binary{Op: expr.OpGt, Left: &expr.VarRef{Name: "n"}, Right: &expr.Literal{Value: tuple.Int(1)}},
	}

	it, err := e.Execute(g, txn)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	got := drainValues(t, it, "who")
	if len(got) != 1 || got[0] != "alice" {
		t.Errorf("expected only alice (follows 2 people) to pass HAVING n > 1, got %v", got)
	}
}
