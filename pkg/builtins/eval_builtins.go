package builtins

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"cinder/pkg/evaluator"
	"golang.org/x/text/number"
)

// EvalStandard mirrors Standard but targets evaluator.Value, the
// tree-walker's own representation (a plain Go slice for lists rather
// than cons cells). The cross-check suite runs the same source through
// both tables and compares Display output.
func EvalStandard() map[string]evaluator.BuiltinFunc {
	return map[string]evaluator.BuiltinFunc{
		"+":  evalWrapArith("+", evalAdd),
		"-":  evalWrapArith("-", evalSub),
		"*":  evalWrapArith("*", evalMul),
		"/":  evalWrapArith("/", evalDiv),
		">":  evalWrapCompare(">", func(a, b int64) bool { return a > b }, func(a, b float64) bool { return a > b }),
		"<":  evalWrapCompare("<", func(a, b int64) bool { return a < b }, func(a, b float64) bool { return a < b }),
		">=": evalWrapCompare(">=", func(a, b int64) bool { return a >= b }, func(a, b float64) bool { return a >= b }),
		"<=": evalWrapCompare("<=", func(a, b int64) bool { return a <= b }, func(a, b float64) bool { return a <= b }),

		"cons":  evalCons,
		"car":   evalCar,
		"cdr":   evalCdr,
		"pair?": evalPairP,
		"null?": evalNullP,
		"list?": evalListP,
		"list":  evalList,

		"number?":    evalNumberP,
		"string?":    evalStringP,
		"symbol?":    evalSymbolP,
		"procedure?": evalProcedureP,

		"inc": evalInc,
		"dec": evalDec,

		"equal?": evalEqual,

		"string-append":  evalStringAppend,
		"string-length":  evalStringLength,
		"number->string": evalNumberToString,
		"string->number": evalStringToNumber,

		"newline": evalNewline,
	}
}

func evalArityError(name string, want, got int) error {
	return fmt.Errorf("%s: expected %d argument(s), got %d", name, want, got)
}

func evalIsNumber(v evaluator.Value) bool {
	return v.Kind == evaluator.KindInt || v.Kind == evaluator.KindFloat
}

func evalAsFloat(v evaluator.Value) float64 {
	if v.Kind == evaluator.KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// evalAdd/Sub/Mul/Div duplicate pkg/value's arithmetic semantics (int
// widens to float when mixed with one, strings concatenate under +) over
// evaluator.Value instead, since the two engines deliberately keep
// separate value types.
func evalAdd(a, b evaluator.Value) (evaluator.Value, error) {
	switch {
	case a.Kind == evaluator.KindString && b.Kind == evaluator.KindString:
		return evaluator.String(a.Str + b.Str), nil
	case a.Kind == evaluator.KindInt && b.Kind == evaluator.KindInt:
		return evaluator.Int(a.Int + b.Int), nil
	case evalIsNumber(a) && evalIsNumber(b):
		return evaluator.Float(evalAsFloat(a) + evalAsFloat(b)), nil
	default:
		return evaluator.Value{}, fmt.Errorf("+: unsupported operand kinds")
	}
}

func evalSub(a, b evaluator.Value) (evaluator.Value, error) {
	if a.Kind == evaluator.KindInt && b.Kind == evaluator.KindInt {
		return evaluator.Int(a.Int - b.Int), nil
	}
	if evalIsNumber(a) && evalIsNumber(b) {
		return evaluator.Float(evalAsFloat(a) - evalAsFloat(b)), nil
	}
	return evaluator.Value{}, fmt.Errorf("-: unsupported operand kinds")
}

func evalMul(a, b evaluator.Value) (evaluator.Value, error) {
	if a.Kind == evaluator.KindInt && b.Kind == evaluator.KindInt {
		return evaluator.Int(a.Int * b.Int), nil
	}
	if evalIsNumber(a) && evalIsNumber(b) {
		return evaluator.Float(evalAsFloat(a) * evalAsFloat(b)), nil
	}
	return evaluator.Value{}, fmt.Errorf("*: unsupported operand kinds")
}

func evalDiv(a, b evaluator.Value) (evaluator.Value, error) {
	if !evalIsNumber(a) || !evalIsNumber(b) {
		return evaluator.Value{}, fmt.Errorf("/: unsupported operand kinds")
	}
	if a.Kind == evaluator.KindInt && b.Kind == evaluator.KindInt {
		if b.Int == 0 {
			return evaluator.Value{}, fmt.Errorf("/: divide by zero")
		}
		return evaluator.Int(a.Int / b.Int), nil
	}
	if evalAsFloat(b) == 0 {
		return evaluator.Value{}, fmt.Errorf("/: divide by zero")
	}
	return evaluator.Float(evalAsFloat(a) / evalAsFloat(b)), nil
}

func evalWrapArith(name string, fn func(a, b evaluator.Value) (evaluator.Value, error)) evaluator.BuiltinFunc {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if len(args) != 2 {
			return evaluator.Value{}, evalArityError(name, 2, len(args))
		}
		return fn(args[0], args[1])
	}
}

// evalWrapCompare builds a comparison builtin out of one int and one float
// predicate; a pure int pair never routes through float64, so comparisons
// stay exact past the 53-bit mantissa.
func evalWrapCompare(name string, cmpInt func(a, b int64) bool, cmpFloat func(a, b float64) bool) evaluator.BuiltinFunc {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if len(args) != 2 {
			return evaluator.Value{}, evalArityError(name, 2, len(args))
		}
		if !evalIsNumber(args[0]) || !evalIsNumber(args[1]) {
			return evaluator.Value{}, fmt.Errorf("%s: unsupported operand kinds", name)
		}
		if args[0].Kind == evaluator.KindInt && args[1].Kind == evaluator.KindInt {
			return evaluator.Bool(cmpInt(args[0].Int, args[1].Int)), nil
		}
		return evaluator.Bool(cmpFloat(evalAsFloat(args[0]), evalAsFloat(args[1]))), nil
	}
}

// evalCons/Car/Cdr build on evaluator.Value's KindList, a plain Go slice
// rather than a cons-cell chain, so cons prepends, car/cdr peel the front
// element off, and Display still renders the result in cons-chain form.
func evalCons(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 2 {
		return evaluator.Value{}, evalArityError("cons", 2, len(args))
	}
	items := append([]evaluator.Value{args[0]}, args[1].List...)
	return evaluator.List(items), nil
}

func evalCar(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("car", 1, len(args))
	}
	if args[0].Kind != evaluator.KindList || len(args[0].List) == 0 {
		return evaluator.Value{}, fmt.Errorf("car: expected a non-empty list")
	}
	return args[0].List[0], nil
}

func evalCdr(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("cdr", 1, len(args))
	}
	if args[0].Kind != evaluator.KindList || len(args[0].List) == 0 {
		return evaluator.Value{}, fmt.Errorf("cdr: expected a non-empty list")
	}
	return evaluator.List(args[0].List[1:]), nil
}

func evalPairP(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("pair?", 1, len(args))
	}
	return evaluator.Bool(args[0].Kind == evaluator.KindList && len(args[0].List) > 0), nil
}

func evalNullP(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("null?", 1, len(args))
	}
	v := args[0]
	return evaluator.Bool(v.Kind == evaluator.KindNil || (v.Kind == evaluator.KindList && len(v.List) == 0)), nil
}

func evalListP(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("list?", 1, len(args))
	}
	v := args[0]
	return evaluator.Bool(v.Kind == evaluator.KindNil || v.Kind == evaluator.KindList), nil
}

func evalList(args []evaluator.Value) (evaluator.Value, error) {
	items := make([]evaluator.Value, len(args))
	copy(items, args)
	return evaluator.List(items), nil
}

func evalNumberP(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("number?", 1, len(args))
	}
	return evaluator.Bool(evalIsNumber(args[0])), nil
}

func evalStringP(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("string?", 1, len(args))
	}
	return evaluator.Bool(args[0].Kind == evaluator.KindString), nil
}

func evalSymbolP(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("symbol?", 1, len(args))
	}
	return evaluator.Bool(args[0].Kind == evaluator.KindSymbol), nil
}

func evalProcedureP(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("procedure?", 1, len(args))
	}
	k := args[0].Kind
	return evaluator.Bool(k == evaluator.KindFunction || k == evaluator.KindBuiltin), nil
}

func evalInc(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("inc", 1, len(args))
	}
	return evalAdd(args[0], evaluator.Int(1))
}

func evalDec(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("dec", 1, len(args))
	}
	return evalSub(args[0], evaluator.Int(1))
}

// evalEqual implements deep equality over evaluator.Value directly; there
// is no separate StructuralEqual helper in this package since a list here
// is already a plain slice, not a pointer chain identity could diverge on.
func evalEqual(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 2 {
		return evaluator.Value{}, evalArityError("equal?", 2, len(args))
	}
	return evaluator.Bool(evalValuesEqual(args[0], args[1])), nil
}

func evalValuesEqual(a, b evaluator.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case evaluator.KindInt:
		return a.Int == b.Int
	case evaluator.KindFloat:
		return a.Float == b.Float
	case evaluator.KindBool:
		return a.Bool == b.Bool
	case evaluator.KindNil:
		return true
	case evaluator.KindString, evaluator.KindSymbol:
		return a.Str == b.Str
	case evaluator.KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !evalValuesEqual(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func evalAsString(name string, v evaluator.Value) (string, error) {
	if v.Kind != evaluator.KindString {
		return "", fmt.Errorf("%s: expected a string", name)
	}
	return v.Str, nil
}

func evalStringAppend(args []evaluator.Value) (evaluator.Value, error) {
	var b strings.Builder
	for _, a := range args {
		s, err := evalAsString("string-append", a)
		if err != nil {
			return evaluator.Value{}, err
		}
		b.WriteString(s)
	}
	return evaluator.String(b.String()), nil
}

func evalStringLength(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("string-length", 1, len(args))
	}
	s, err := evalAsString("string-length", args[0])
	if err != nil {
		return evaluator.Value{}, err
	}
	return evaluator.Int(int64(utf8.RuneCountInString(s))), nil
}

func evalNumberToString(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("number->string", 1, len(args))
	}
	v := args[0]
	switch v.Kind {
	case evaluator.KindInt:
		return evaluator.String(numberPrinter.Sprint(number.Decimal(v.Int))), nil
	case evaluator.KindFloat:
		return evaluator.String(numberPrinter.Sprint(number.Decimal(v.Float))), nil
	default:
		return evaluator.Value{}, fmt.Errorf("number->string: expected a number")
	}
}

func evalStringToNumber(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return evaluator.Value{}, evalArityError("string->number", 1, len(args))
	}
	s, err := evalAsString("string->number", args[0])
	if err != nil {
		return evaluator.Value{}, err
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return evaluator.Int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return evaluator.Value{}, fmt.Errorf("string->number: %q is not a number", s)
	}
	return evaluator.Float(f), nil
}

// evalNewline would ideally append to the evaluator's own Output() buffer,
// but that needs an *Evaluator handle this BuiltinFunc signature doesn't
// carry, so (like read-line's real stdin on the VM side) it falls back
// to the process's real stdout rather than the buffer print appends to.
func evalNewline(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 0 {
		return evaluator.Value{}, evalArityError("newline", 0, len(args))
	}
	fmt.Println()
	return evaluator.Nil(), nil
}
