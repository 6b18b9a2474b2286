package expr

import (
	"errors"
	"testing"

	"github.com/kvgraph/engine/pkg/tuple"
)

func TestLiteralAndVarRef(t *testing.T) {
	b := Binding{"x": tuple.Int(42)}

	lit := &Literal{Value: tuple.String("hi")}
	v, err := lit.Eval(b)
	if err != nil || v.Str != "hi" {
		t.Fatalf("literal eval: %v %v", v, err)
	}

	ref := &VarRef{Name: "x"}
	v, err = ref.Eval(b)
	if err != nil || v.Int != 42 {
		t.Fatalf("varref eval: %v %v", v, err)
	}

	missing := &VarRef{Name: "y"}
	_, err = missing.Eval(b)
	if !errors.Is(err, ErrUnbound) {
		t.Fatalf("expected ErrUnbound, got %v", err)
	}
}

func TestBoundNeverErrors(t *testing.T) {
	b := Binding{"x": tuple.Int(1)}
	bound := &Bound{Name: "x"}
	v, err := bound.Eval(b)
	if err != nil || !v.Bool {
		t.Errorf("expected bound(x)=true, got %v %v", v, err)
	}
	unbound := &Bound{Name: "y"}
	v, err = unbound.Eval(b)
	if err != nil || v.Bool {
		t.Errorf("expected bound(y)=false, got %v %v", v, err)
	}
}

func TestComparisonOperators(t *testing.T) {
	b := Binding{}
	cases := []struct {
		op   BinaryOp
		l, r tuple.Element
		want bool
	}{
		{OpLt, tuple.Int(1), tuple.Int(2), true},
		{OpGt, tuple.Int(2), tuple.Int(1), true},
		{OpEq, tuple.String("a"), tuple.String("a"), true},
		{OpEq, tuple.Int(1), tuple.Double(1.0), true},
		{OpNeq, tuple.Int(1), tuple.Int(2), true},
	}
	for _, c := range cases {
		bin := &Binary{Op: c.op, Left: &Literal{Value: c.l}, Right: &Literal{Value: c.r}}
		v, err := bin.Eval(b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Bool != c.want {
			t.Errorf("op %v on %v,%v: got %v, want %v", c.op, c.l, c.r, v.Bool, c.want)
		}
	}
}

func TestAndShortCircuitsOnFalseDespiteOtherOperandError(t *testing.T) {
	b := Binding{}
	expr := &Binary{
		Op:    OpAnd,
		Left:  &Literal{Value: tuple.Bool(false)},
		Right: &VarRef{Name: "missing"},
	}
	v, err := expr.Eval(b)
	if err != nil {
		t.Fatalf("expected AND(false, error) to be false, not error: %v", err)
	}
	if v.Bool {
		t.Error("expected false")
	}
}

func TestOrShortCircuitsOnTrueDespiteOtherOperandError(t *testing.T) {
	b := Binding{}
	expr := &Binary{
		Op:    OpOr,
		Left:  &Literal{Value: tuple.Bool(true)},
		Right: &VarRef{Name: "missing"},
	}
	v, err := expr.Eval(b)
	if err != nil {
		t.Fatalf("expected OR(true, error) to be true, not error: %v", err)
	}
	if !v.Bool {
		t.Error("expected true")
	}
}

func TestInTestSkipsErroringComparisons(t *testing.T) {
	b := Binding{}
	in := &InTest{
		Operand: &Literal{Value: tuple.Int(2)},
		Values: []Expr{
			&VarRef{Name: "missing"},
			&Literal{Value: tuple.Int(2)},
		},
	}
	v, err := in.Eval(b)
	if err != nil {
		t.Fatalf("expected match to suppress the earlier error: %v", err)
	}
	if !v.Bool {
		t.Error("expected true")
	}
}

func TestInTestNotFlag(t *testing.T) {
	b := Binding{}
	in := &InTest{
		Operand: &Literal{Value: tuple.Int(9)},
		Values:  []Expr{&Literal{Value: tuple.Int(1)}},
		Not:     true,
	}
	v, err := in.Eval(b)
	if err != nil || !v.Bool {
		t.Errorf("expected NOT IN to be true, got %v %v", v, err)
	}
}

func TestArithmetic(t *testing.T) {
	b := Binding{}
	add := &Binary{Op: OpAdd, Left: &Literal{Value: tuple.Int(2)}, Right: &Literal{Value: tuple.Int(3)}}
	v, err := add.Eval(b)
	if err != nil || v.Int != 5 {
		t.Errorf("2+3: got %v %v", v, err)
	}

	div := &Binary{Op: OpDiv, Left: &Literal{Value: tuple.Int(1)}, Right: &Literal{Value: tuple.Int(0)}}
	if _, err := div.Eval(b); !errors.Is(err, ErrType) {
		t.Errorf("expected division by zero to be a type error, got %v", err)
	}
}

func TestStringFunctions(t *testing.T) {
	b := Binding{}
	call := &FuncCall{Name: "UCASE", Args: []Expr{&Literal{Value: tuple.String("abc")}}}
	v, err := call.Eval(b)
	if err != nil || v.Str != "ABC" {
		t.Errorf("UCASE: got %v %v", v, err)
	}

	substr := &FuncCall{Name: "SUBSTR", Args: []Expr{
		&Literal{Value: tuple.String("hello world")},
		&Literal{Value: tuple.Int(7)},
	}}
	v, err = substr.Eval(b)
	if err != nil || v.Str != "world" {
		t.Errorf("SUBSTR: got %q %v", v.Str, err)
	}
}

func TestQuotedTripleConstructor(t *testing.T) {
	b := Binding{}
	ctor := &QuotedTripleCtor{
		Subject:   &Literal{Value: tuple.String("s")},
		Predicate: &Literal{Value: tuple.String("p")},
		Object:    &Literal{Value: tuple.String("o")},
	}
	v, err := ctor.Eval(b)
	if err != nil {
		t.Fatal(err)
	}
	if !tuple.IsQuotedTriple(v) {
		t.Error("expected a quoted-triple result")
	}
}

func TestEffectiveBooleanValueOfNullIsTypeError(t *testing.T) {
	_, err := EffectiveBooleanValue(tuple.Null())
	if !errors.Is(err, ErrType) {
		t.Errorf("expected type error, got %v", err)
	}
}
