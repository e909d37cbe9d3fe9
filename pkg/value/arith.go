package value

import (
	"errors"
	"fmt"
)

// ErrDivideByZero and ErrTypeMismatch are sentinels pkg/vm matches against
// (via errors.Is) to classify a failure into its runtime error kinds
// without pkg/value needing to know that enum.
var (
	ErrDivideByZero = errors.New("divide by zero")
	ErrTypeMismatch = errors.New("type mismatch")
)

func typeMismatch(op string, a, b Value) error {
	return fmt.Errorf("%w: %s does not support operands %s and %s", ErrTypeMismatch, op, a.TypeName(), b.TypeName())
}

func isNumber(v Value) bool { return v.Tag == TagInt || v.Tag == TagFloat }

func isString(v Value) bool { return v.Tag == TagObject && v.Obj != nil && v.Obj.Kind == KindString }

func asFloat(v Value) float64 {
	if v.Tag == TagInt {
		return float64(v.Int)
	}
	return v.Float
}

// Add implements +. Two numbers widen to float if either is a float; two
// strings concatenate, allocating a fresh String object.
func Add(a, b Value) (Value, error) {
	switch {
	case isString(a) && isString(b):
		return FromObject(NewString(a.Obj.Str + b.Obj.Str)), nil
	case a.Tag == TagInt && b.Tag == TagInt:
		return Int64(a.Int + b.Int), nil
	case isNumber(a) && isNumber(b):
		return Flt(asFloat(a) + asFloat(b)), nil
	default:
		return Value{}, typeMismatch("+", a, b)
	}
}

// Sub implements -.
func Sub(a, b Value) (Value, error) {
	if a.Tag == TagInt && b.Tag == TagInt {
		return Int64(a.Int - b.Int), nil
	}
	if isNumber(a) && isNumber(b) {
		return Flt(asFloat(a) - asFloat(b)), nil
	}
	return Value{}, typeMismatch("-", a, b)
}

// Mul implements *.
func Mul(a, b Value) (Value, error) {
	if a.Tag == TagInt && b.Tag == TagInt {
		return Int64(a.Int * b.Int), nil
	}
	if isNumber(a) && isNumber(b) {
		return Flt(asFloat(a) * asFloat(b)), nil
	}
	return Value{}, typeMismatch("*", a, b)
}

// Div implements /. Integer and float division by zero both raise
// ErrDivideByZero; NaN never escapes into a program.
func Div(a, b Value) (Value, error) {
	if !isNumber(a) || !isNumber(b) {
		return Value{}, typeMismatch("/", a, b)
	}
	if a.Tag == TagInt && b.Tag == TagInt {
		if b.Int == 0 {
			return Value{}, ErrDivideByZero
		}
		return Int64(a.Int / b.Int), nil
	}
	if asFloat(b) == 0 {
		return Value{}, ErrDivideByZero
	}
	return Flt(asFloat(a) / asFloat(b)), nil
}

func compareNumeric(a, b Value) (int, error) {
	if !isNumber(a) || !isNumber(b) {
		return 0, typeMismatch("comparison", a, b)
	}
	if a.Tag == TagInt && b.Tag == TagInt {
		switch {
		case a.Int < b.Int:
			return -1, nil
		case a.Int > b.Int:
			return 1, nil
		default:
			return 0, nil
		}
	}
	af, bf := asFloat(a), asFloat(b)
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	default:
		return 0, nil
	}
}

// GT, LT, GTE, LTE implement the four comparison opcodes.
func GT(a, b Value) (Value, error) {
	c, err := compareNumeric(a, b)
	return Boolean(c > 0), err
}

func LT(a, b Value) (Value, error) {
	c, err := compareNumeric(a, b)
	return Boolean(c < 0), err
}

func GTE(a, b Value) (Value, error) {
	c, err := compareNumeric(a, b)
	return Boolean(c >= 0), err
}

func LTE(a, b Value) (Value, error) {
	c, err := compareNumeric(a, b)
	return Boolean(c <= 0), err
}

// StructuralEqual implements the `equal?` builtin's deep-equality
// semantics, distinct from the VM's default pointer-identity comparison
// of heap objects.
func StructuralEqual(a, b Value) bool {
	if a.Tag != b.Tag {
		// An ObjectPtr and a Quote wrapping the same structure should
		// still compare equal structurally.
		if (a.Tag == TagObject || a.Tag == TagQuote) && (b.Tag == TagObject || b.Tag == TagQuote) {
			return objectsEqual(a.Obj, b.Obj)
		}
		return false
	}
	switch a.Tag {
	case TagInt:
		return a.Int == b.Int
	case TagFloat:
		return a.Float == b.Float
	case TagBool:
		return a.Bool == b.Bool
	case TagNil:
		return true
	case TagObject, TagQuote:
		return objectsEqual(a.Obj, b.Obj)
	default:
		return false
	}
}

func objectsEqual(a, b *Object) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindString, KindSymbol:
		return a.Str == b.Str
	case KindConsCell:
		return objectsEqual(a.Car, b.Car) && objectsEqual(a.Cdr, b.Cdr)
	case KindBoxed:
		return StructuralEqual(a.Boxed, b.Boxed)
	default:
		return a == b
	}
}
