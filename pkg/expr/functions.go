package expr

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/kvgraph/engine/pkg/tuple"
)

// callFunction dispatches a built-in function call by name, evaluating
// its arguments against b first. Modeled on pkg/sparql's
// evaluateFunctionCall dispatch table, generalized to this module's
// value kinds (no IRI/literal/lang-tag distinctions to test).
func callFunction(name string, args []Expr, b Binding) (tuple.Element, error) {
	switch strings.ToUpper(name) {
	case "STRLEN":
		return fn1String(args, b, func(s string) (tuple.Element, error) {
			return tuple.Int(int64(len([]rune(s)))), nil
		})
	case "UCASE":
		return fn1String(args, b, func(s string) (tuple.Element, error) {
			return tuple.String(strings.ToUpper(s)), nil
		})
	case "LCASE":
		return fn1String(args, b, func(s string) (tuple.Element, error) {
			return tuple.String(strings.ToLower(s)), nil
		})
	case "CONTAINS":
		return fn2String(args, b, func(haystack, needle string) (tuple.Element, error) {
			return tuple.Bool(strings.Contains(haystack, needle)), nil
		})
	case "STRSTARTS":
		return fn2String(args, b, func(haystack, needle string) (tuple.Element, error) {
			return tuple.Bool(strings.HasPrefix(haystack, needle)), nil
		})
	case "STRENDS":
		return fn2String(args, b, func(haystack, needle string) (tuple.Element, error) {
			return tuple.Bool(strings.HasSuffix(haystack, needle)), nil
		})
	case "CONCAT":
		return evalConcat(args, b)
	case "SUBSTR":
		return evalSubstr(args, b)
	case "ABS":
		return fn1Numeric(args, b, math.Abs)
	case "CEIL":
		return fn1Numeric(args, b, math.Ceil)
	case "FLOOR":
		return fn1Numeric(args, b, math.Floor)
	case "ROUND":
		return fn1Numeric(args, b, math.Round)
	case "SAMETERM":
		return evalSameTerm(args, b)
	case "REGEX":
		return evalRegex(args, b)
	case "ISTRIPLE":
		return fn1(args, b, func(v tuple.Element) (tuple.Element, error) {
			return tuple.Bool(tuple.IsQuotedTriple(v)), nil
		})
	case "SUBJECT":
		return evalTriplePart(args, b, 0)
	case "PREDICATE":
		return evalTriplePart(args, b, 1)
	case "OBJECT":
		return evalTriplePart(args, b, 2)
	default:
		return tuple.Element{}, fmt.Errorf("%w: unknown function %q", ErrType, name)
	}
}

func fn1String(args []Expr, b Binding, f func(string) (tuple.Element, error)) (tuple.Element, error) {
	if len(args) != 1 {
		return tuple.Element{}, fmt.Errorf("%w: function expects 1 argument, got %d", ErrType, len(args))
	}
	v, err := args[0].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	if v.Kind != tuple.KindString {
		return tuple.Element{}, fmt.Errorf("%w: expected string argument", ErrType)
	}
	return f(v.Str)
}

func fn1(args []Expr, b Binding, f func(tuple.Element) (tuple.Element, error)) (tuple.Element, error) {
	if len(args) != 1 {
		return tuple.Element{}, fmt.Errorf("%w: function expects 1 argument, got %d", ErrType, len(args))
	}
	v, err := args[0].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	return f(v)
}

func fn2String(args []Expr, b Binding, f func(a, b string) (tuple.Element, error)) (tuple.Element, error) {
	if len(args) != 2 {
		return tuple.Element{}, fmt.Errorf("%w: function expects 2 arguments, got %d", ErrType, len(args))
	}
	a, err := args[0].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	c, err := args[1].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	if a.Kind != tuple.KindString || c.Kind != tuple.KindString {
		return tuple.Element{}, fmt.Errorf("%w: expected string arguments", ErrType)
	}
	return f(a.Str, c.Str)
}

func fn1Numeric(args []Expr, b Binding, f func(float64) float64) (tuple.Element, error) {
	if len(args) != 1 {
		return tuple.Element{}, fmt.Errorf("%w: function expects 1 argument, got %d", ErrType, len(args))
	}
	v, err := args[0].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	n, ok := asFloat(v)
	if !ok {
		return tuple.Element{}, fmt.Errorf("%w: expected numeric argument", ErrType)
	}
	result := f(n)
	if v.Kind == tuple.KindInt {
		return tuple.Int(int64(result)), nil
	}
	return tuple.Double(result), nil
}

func evalConcat(args []Expr, b Binding) (tuple.Element, error) {
	var sb strings.Builder
	for _, a := range args {
		v, err := a.Eval(b)
		if err != nil {
			return tuple.Element{}, err
		}
		if v.Kind != tuple.KindString {
			return tuple.Element{}, fmt.Errorf("%w: CONCAT expects string arguments", ErrType)
		}
		sb.WriteString(v.Str)
	}
	return tuple.String(sb.String()), nil
}

// evalSubstr implements SUBSTR(source, start[, length]) with SPARQL's
// 1-based, clamped-to-bounds indexing.
func evalSubstr(args []Expr, b Binding) (tuple.Element, error) {
	if len(args) != 2 && len(args) != 3 {
		return tuple.Element{}, fmt.Errorf("%w: SUBSTR expects 2 or 3 arguments", ErrType)
	}
	src, err := args[0].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	if src.Kind != tuple.KindString {
		return tuple.Element{}, fmt.Errorf("%w: SUBSTR expects a string source", ErrType)
	}
	startV, err := args[1].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	startF, ok := asFloat(startV)
	if !ok {
		return tuple.Element{}, fmt.Errorf("%w: SUBSTR expects a numeric start", ErrType)
	}

	runes := []rune(src.Str)
	start := int(startF) - 1
	length := len(runes) - start
	if len(args) == 3 {
		lenV, err := args[2].Eval(b)
		if err != nil {
			return tuple.Element{}, err
		}
		lenF, ok := asFloat(lenV)
		if !ok {
			return tuple.Element{}, fmt.Errorf("%w: SUBSTR expects a numeric length", ErrType)
		}
		length = int(lenF)
	}

	if start < 0 {
		length += start
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := start + length
	if end > len(runes) {
		end = len(runes)
	}
	if end < start {
		end = start
	}
	return tuple.String(string(runes[start:end])), nil
}

// evalRegex implements REGEX(text, pattern[, flags]). flags is an
// optional third string argument; only "i" (case-insensitivity, via
// Go's inline (?i) regexp flag) is recognized.
func evalRegex(args []Expr, b Binding) (tuple.Element, error) {
	if len(args) != 2 && len(args) != 3 {
		return tuple.Element{}, fmt.Errorf("%w: REGEX expects 2 or 3 arguments", ErrType)
	}
	text, err := args[0].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	pat, err := args[1].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	if text.Kind != tuple.KindString || pat.Kind != tuple.KindString {
		return tuple.Element{}, fmt.Errorf("%w: REGEX expects string arguments", ErrType)
	}
	expr := pat.Str
	if len(args) == 3 {
		flagsV, err := args[2].Eval(b)
		if err != nil {
			return tuple.Element{}, err
		}
		if flagsV.Kind != tuple.KindString {
			return tuple.Element{}, fmt.Errorf("%w: REGEX expects a string flags argument", ErrType)
		}
		if strings.Contains(flagsV.Str, "i") {
			expr = "(?i)" + expr
		}
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return tuple.Element{}, fmt.Errorf("%w: invalid REGEX pattern: %v", ErrType, err)
	}
	return tuple.Bool(re.MatchString(text.Str)), nil
}

// evalTriplePart implements SUBJECT/PREDICATE/OBJECT: index into a
// quoted triple's [s, p, o] slots, type-erroring on non-triple input.
func evalTriplePart(args []Expr, b Binding, slot int) (tuple.Element, error) {
	if len(args) != 1 {
		return tuple.Element{}, fmt.Errorf("%w: function expects 1 argument, got %d", ErrType, len(args))
	}
	v, err := args[0].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	if !tuple.IsQuotedTriple(v) {
		return tuple.Element{}, fmt.Errorf("%w: expected a quoted triple argument", ErrType)
	}
	return v.Triple[slot], nil
}

func evalSameTerm(args []Expr, b Binding) (tuple.Element, error) {
	if len(args) != 2 {
		return tuple.Element{}, fmt.Errorf("%w: sameTerm expects 2 arguments", ErrType)
	}
	a, err := args[0].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	c, err := args[1].Eval(b)
	if err != nil {
		return tuple.Element{}, err
	}
	return tuple.Bool(identical(a, c)), nil
}

// identical tests exact term identity (kind and value), unlike
// compareValues' numeric cross-kind promotion used by '='.
func identical(a, c tuple.Element) bool {
	if a.Kind != c.Kind {
		return false
	}
	switch a.Kind {
	case tuple.KindString:
		return a.Str == c.Str
	case tuple.KindInt:
		return a.Int == c.Int
	case tuple.KindDouble:
		return a.Double == c.Double
	case tuple.KindBool:
		return a.Bool == c.Bool
	case tuple.KindNull:
		return true
	default:
		return false
	}
}
