package expr

import (
	"fmt"

	"github.com/kvgraph/engine/pkg/tuple"
)

// evalAnd short-circuits per SPARQL's three-valued AND: a false operand
// wins even if the other operand errors, since false-AND-error is false.
func evalAnd(left, right Expr, b Binding) (tuple.Element, error) {
	lv, lerr := left.Eval(b)
	if lerr == nil {
		lebv, err := EffectiveBooleanValue(lv)
		if err == nil && !lebv {
			return tuple.Bool(false), nil
		}
	}

	rv, rerr := right.Eval(b)
	if rerr == nil {
		rebv, err := EffectiveBooleanValue(rv)
		if err == nil && !rebv {
			return tuple.Bool(false), nil
		}
	}

	if lerr != nil {
		return tuple.Element{}, lerr
	}
	if rerr != nil {
		return tuple.Element{}, rerr
	}

	lebv, err := EffectiveBooleanValue(lv)
	if err != nil {
		return tuple.Element{}, err
	}
	rebv, err := EffectiveBooleanValue(rv)
	if err != nil {
		return tuple.Element{}, err
	}
	return tuple.Bool(lebv && rebv), nil
}

// evalOr mirrors evalAnd: a true operand wins even if the other errors.
func evalOr(left, right Expr, b Binding) (tuple.Element, error) {
	lv, lerr := left.Eval(b)
	if lerr == nil {
		lebv, err := EffectiveBooleanValue(lv)
		if err == nil && lebv {
			return tuple.Bool(true), nil
		}
	}

	rv, rerr := right.Eval(b)
	if rerr == nil {
		rebv, err := EffectiveBooleanValue(rv)
		if err == nil && rebv {
			return tuple.Bool(true), nil
		}
	}

	if lerr != nil {
		return tuple.Element{}, lerr
	}
	if rerr != nil {
		return tuple.Element{}, rerr
	}

	lebv, err := EffectiveBooleanValue(lv)
	if err != nil {
		return tuple.Element{}, err
	}
	rebv, err := EffectiveBooleanValue(rv)
	if err != nil {
		return tuple.Element{}, err
	}
	return tuple.Bool(lebv || rebv), nil
}

// EffectiveBooleanValue computes a value's EBV per SPARQL's rules,
// generalized from rdf.Term to tuple.Element kinds.
func EffectiveBooleanValue(v tuple.Element) (bool, error) {
	switch v.Kind {
	case tuple.KindBool:
		return v.Bool, nil
	case tuple.KindString:
		return v.Str != "", nil
	case tuple.KindInt:
		return v.Int != 0, nil
	case tuple.KindDouble:
		return v.Double != 0, nil
	case tuple.KindNull:
		return false, fmt.Errorf("%w: cannot compute effective boolean value of null", ErrType)
	default:
		return false, fmt.Errorf("%w: cannot compute effective boolean value of %v", ErrType, v.Kind)
	}
}

func isNumeric(v tuple.Element) bool {
	return v.Kind == tuple.KindInt || v.Kind == tuple.KindDouble
}

func asFloat(v tuple.Element) (float64, bool) {
	switch v.Kind {
	case tuple.KindInt:
		return float64(v.Int), true
	case tuple.KindDouble:
		return v.Double, true
	default:
		return 0, false
	}
}

func negateNumeric(v tuple.Element) (tuple.Element, error) {
	switch v.Kind {
	case tuple.KindInt:
		return tuple.Int(-v.Int), nil
	case tuple.KindDouble:
		return tuple.Double(-v.Double), nil
	default:
		return tuple.Element{}, fmt.Errorf("%w: unary - on non-numeric value", ErrType)
	}
}

// compareOp orders two values and reports whether the ordering
// satisfies pred. String/Int/Double/Bool/Bytes are each ordered within
// their own kind; Int and Double are ordered against each other by
// numeric promotion. Any other combination is a type error.
func compareOp(left, right tuple.Element, pred func(c int) bool) (tuple.Element, error) {
	c, err := compareValues(left, right)
	if err != nil {
		return tuple.Element{}, err
	}
	return tuple.Bool(pred(c)), nil
}

func compareValues(left, right tuple.Element) (int, error) {
	if lf, lok := asFloat(left); lok {
		if rf, rok := asFloat(right); rok {
			return compareFloats(lf, rf), nil
		}
	}
	if left.Kind != right.Kind {
		return 0, fmt.Errorf("%w: cannot compare %v with %v", ErrType, left.Kind, right.Kind)
	}
	switch left.Kind {
	case tuple.KindString:
		return compareStrings(left.Str, right.Str), nil
	case tuple.KindBool:
		return compareBools(left.Bool, right.Bool), nil
	case tuple.KindBytes:
		return compareByteSlices(left.Bytes, right.Bytes), nil
	default:
		return 0, fmt.Errorf("%w: values of kind %v are not ordered", ErrType, left.Kind)
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBools(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareByteSlices(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func arith(left, right tuple.Element, fn func(a, b float64) float64) (tuple.Element, error) {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return tuple.Element{}, fmt.Errorf("%w: arithmetic on non-numeric value", ErrType)
	}
	result := fn(lf, rf)
	if left.Kind == tuple.KindInt && right.Kind == tuple.KindInt {
		return tuple.Int(int64(result)), nil
	}
	return tuple.Double(result), nil
}

func divide(left, right tuple.Element) (tuple.Element, error) {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return tuple.Element{}, fmt.Errorf("%w: division on non-numeric value", ErrType)
	}
	if rf == 0 {
		return tuple.Element{}, fmt.Errorf("%w: division by zero", ErrType)
	}
	return tuple.Double(lf / rf), nil
}
