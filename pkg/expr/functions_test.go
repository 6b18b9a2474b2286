package expr

import (
	"testing"

	"github.com/kvgraph/engine/pkg/tuple"
)

func TestRegexFunction(t *testing.T) {
	b := Binding{}
	cases := []struct {
		text, pattern, flags string
		want                 bool
	}{
		{"hello world", "wor", "", true},
		{"hello world", "^wor", "", false},
		{"Hello World", "hello", "", false},
		{"Hello World", "hello", "i", true},
	}
	for _, c := range cases {
		args := []Expr{&Literal{Value: tuple.String(c.text)}, &Literal{Value: tuple.String(c.pattern)}}
		if c.flags != "" {
			args = append(args, &Literal{Value: tuple.String(c.flags)})
		}
		call := &FuncCall{Name: "regex", Args: args}
		v, err := call.Eval(b)
		if err != nil {
			t.Fatalf("REGEX(%q, %q, %q): unexpected error: %v", c.text, c.pattern, c.flags, err)
		}
		if v.Bool != c.want {
			t.Errorf("REGEX(%q, %q, %q) = %v, want %v", c.text, c.pattern, c.flags, v.Bool, c.want)
		}
	}
}

func TestRegexRejectsNonStringArguments(t *testing.T) {
	b := Binding{}
	call := &FuncCall{Name: "REGEX", Args: []Expr{&Literal{Value: tuple.Int(1)}, &Literal{Value: tuple.String("x")}}}
	if _, err := call.Eval(b); err == nil {
		t.Error("expected a type error for a non-string text argument")
	}
}

func TestTripleAccessors(t *testing.T) {
	b := Binding{}
	ctor := &QuotedTripleCtor{
		Subject:   &Literal{Value: tuple.String("s")},
		Predicate: &Literal{Value: tuple.String("p")},
		Object:    &Literal{Value: tuple.String("o")},
	}

	isTriple := &FuncCall{Name: "ISTRIPLE", Args: []Expr{ctor}}
	v, err := isTriple.Eval(b)
	if err != nil || !v.Bool {
		t.Fatalf("ISTRIPLE(triple): got %v, %v", v, err)
	}

	notTriple := &FuncCall{Name: "ISTRIPLE", Args: []Expr{&Literal{Value: tuple.String("s")}}}
	v, err = notTriple.Eval(b)
	if err != nil || v.Bool {
		t.Fatalf("ISTRIPLE(string): got %v, %v", v, err)
	}

	subj := &FuncCall{Name: "SUBJECT", Args: []Expr{ctor}}
	v, err = subj.Eval(b)
	if err != nil || v.Str != "s" {
		t.Fatalf("SUBJECT(triple): got %v, %v", v, err)
	}

	pred := &FuncCall{Name: "PREDICATE", Args: []Expr{ctor}}
	v, err = pred.Eval(b)
	if err != nil || v.Str != "p" {
		t.Fatalf("PREDICATE(triple): got %v, %v", v, err)
	}

	obj := &FuncCall{Name: "OBJECT", Args: []Expr{ctor}}
	v, err = obj.Eval(b)
	if err != nil || v.Str != "o" {
		t.Fatalf("OBJECT(triple): got %v, %v", v, err)
	}
}

func TestTripleAccessorsRejectNonTripleInput(t *testing.T) {
	b := Binding{}
	for _, name := range []string{"SUBJECT", "PREDICATE", "OBJECT"} {
		call := &FuncCall{Name: name, Args: []Expr{&Literal{Value: tuple.String("not a triple")}}}
		if _, err := call.Eval(b); err == nil {
			t.Errorf("%s(non-triple): expected a type error", name)
		}
	}
}
