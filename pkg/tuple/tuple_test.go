package tuple

import (
	"bytes"
	"math"
	"math/rand"
	"sort"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]Element{
		{String("alice"), String("follows"), String("bob")},
		{Int(-1), Int(0), Int(1), Int(math.MaxInt64), Int(math.MinInt64)},
		{Double(-1.5), Double(0), Double(1.5), Double(math.Inf(1)), Double(math.Inf(-1))},
		{Bool(true), Bool(false)},
		{Null()},
		{Bytes([]byte{0x00, 0x01, 0xFF, 0x00})},
		{QuotedTriple(String("s"), String("p"), String("o"))},
		{QuotedTriple(QuotedTriple(QuotedTriple(String("s1"), String("p1"), String("o1")), String("p2"), String("o2")), String("p3"), String("o3"))},
	}

	for i, elems := range cases {
		packed := Pack(elems...)
		got, err := Unpack(packed)
		if err != nil {
			t.Fatalf("case %d: unpack error: %v", i, err)
		}
		if len(got) != len(elems) {
			t.Fatalf("case %d: got %d elements, want %d", i, len(got), len(elems))
		}
		for j := range elems {
			if !equalElement(got[j], elems[j]) {
				t.Errorf("case %d elem %d: got %+v, want %+v", i, j, got[j], elems[j])
			}
		}
	}
}

func equalElement(a, b Element) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindString:
		return a.Str == b.Str
	case KindBytes:
		return bytes.Equal(a.Bytes, b.Bytes)
	case KindInt:
		return a.Int == b.Int
	case KindDouble:
		return a.Double == b.Double || (math.IsInf(a.Double, 0) && a.Double == b.Double)
	case KindBool:
		return a.Bool == b.Bool
	case KindQuotedTriple:
		if len(a.Triple) != len(b.Triple) {
			return false
		}
		for i := range a.Triple {
			if !equalElement(a.Triple[i], b.Triple[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func TestIsQuotedTriple(t *testing.T) {
	qt := QuotedTriple(String("s"), String("p"), String("o"))
	if !IsQuotedTriple(qt) {
		t.Error("expected QuotedTriple element to report IsQuotedTriple")
	}
	if IsQuotedTriple(String("<< not a triple >>")) {
		t.Error("plain string must not be reported as quoted triple")
	}
}

func TestIntOrdering(t *testing.T) {
	values := []int64{math.MinInt64, -1000, -1, 0, 1, 1000, math.MaxInt64}
	shuffled := append([]int64(nil), values...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	packed := make([][]byte, len(shuffled))
	for i, v := range shuffled {
		packed[i] = Pack(Int(v))
	}
	sort.Slice(packed, func(i, j int) bool { return bytes.Compare(packed[i], packed[j]) < 0 })

	for i, p := range packed {
		els, err := Unpack(p)
		if err != nil {
			t.Fatal(err)
		}
		if els[0].Int != values[i] {
			t.Errorf("position %d: got %d, want %d", i, els[0].Int, values[i])
		}
	}
}

func TestDoubleOrdering(t *testing.T) {
	values := []float64{math.Inf(-1), -100.5, -0.001, 0, 0.001, 100.5, math.Inf(1)}
	var packed [][]byte
	for _, v := range values {
		packed = append(packed, Pack(Double(v)))
	}
	for i := 1; i < len(packed); i++ {
		if bytes.Compare(packed[i-1], packed[i]) >= 0 {
			t.Errorf("expected %v < %v in packed form", values[i-1], values[i])
		}
	}
}

func TestStringOrderingMatchesLexicographic(t *testing.T) {
	values := []string{"", "a", "aa", "ab", "b", "ba"}
	var packed [][]byte
	for _, v := range values {
		packed = append(packed, Pack(String(v)))
	}
	for i := 1; i < len(packed); i++ {
		if bytes.Compare(packed[i-1], packed[i]) >= 0 {
			t.Errorf("expected packed(%q) < packed(%q)", values[i-1], values[i])
		}
	}
}

func TestPrefixRangeCoversSharedPrefix(t *testing.T) {
	prefix := Pack(String("alice"), String("follows"))
	begin, end := Range(String("alice"), String("follows"))
	if !bytes.Equal(begin, prefix) {
		t.Fatalf("begin mismatch")
	}

	full := Pack(String("alice"), String("follows"), String("bob"))
	if bytes.Compare(full, begin) < 0 {
		t.Errorf("full key should sort at or after begin")
	}
	if end != nil && bytes.Compare(full, end) >= 0 {
		t.Errorf("full key should sort before end")
	}
}

func TestEscapingHandlesEmbeddedZeroBytes(t *testing.T) {
	a := Pack(String("a\x00b"), String("z"))
	b := Pack(String("a"), String("b\x00z"))
	if bytes.Equal(a, b) {
		t.Fatal("distinct tuples encoded identically due to unescaped terminator")
	}

	got, err := Unpack(a)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Str != "a\x00b" || got[1].Str != "z" {
		t.Fatalf("round trip mangled embedded zero byte: %+v", got)
	}
}
