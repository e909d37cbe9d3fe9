// Package builtins supplies the host-function table an embedder injects at
// VM construction: arithmetic/comparison operators as first-class values,
// list/pair operations, type predicates, and string/I/O helpers. pkg/vm
// and pkg/evaluator each define their own BuiltinFunc type (the VM's
// operates on heap-backed value.Value, the evaluator's on its own
// tree-walking Value), so this package exposes one table per engine,
// Standard for the VM and EvalStandard for the evaluator, built from the
// same behaviour so a program sees identical results whichever engine
// runs it.
package builtins

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"cinder/pkg/value"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Standard returns the builtin table installed by `vm.New(builtins.Standard())`.
func Standard() map[string]value.BuiltinFunc {
	return map[string]value.BuiltinFunc{
		"+":  wrapBinaryArith("+", value.Add),
		"-":  wrapBinaryArith("-", value.Sub),
		"*":  wrapBinaryArith("*", value.Mul),
		"/":  wrapBinaryArith("/", value.Div),
		">":  wrapBinaryArith(">", value.GT),
		"<":  wrapBinaryArith("<", value.LT),
		">=": wrapBinaryArith(">=", value.GTE),
		"<=": wrapBinaryArith("<=", value.LTE),

		"cons":  biCons,
		"car":   biCar,
		"cdr":   biCdr,
		"pair?": biPairP,
		"null?": biNullP,
		"list?": biListP,
		"list":  biList,

		"number?":    biNumberP,
		"string?":    biStringP,
		"symbol?":    biSymbolP,
		"procedure?": biProcedureP,

		"inc": biInc,
		"dec": biDec,

		"equal?": biEqual,

		"string-append":  biStringAppend,
		"string-length":  biStringLength,
		"number->string": biNumberToString,
		"string->number": biStringToNumber,

		"read-line": biReadLine,
		"newline":   biNewline,
	}
}

func arityError(name string, want, got int) error {
	return fmt.Errorf("%s: expected %d argument(s), got %d", name, want, got)
}

// wrapBinaryArith adapts one of pkg/value's two-Value arithmetic/comparison
// functions into a BuiltinFunc, so `+`, `*`, and the rest behave identically
// whether pkg/compiler inlined them to their dedicated opcode or a program
// took their value and called through it indirectly.
func wrapBinaryArith(name string, fn func(a, b value.Value) (value.Value, error)) value.BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return value.Value{}, arityError(name, 2, len(args))
		}
		return fn(args[0], args[1])
	}
}

// toSlot lifts a scalar Value onto the heap so it can sit uniformly as a
// cons cell's car/cdr, mirroring pkg/vm's boxIfScalar with two differences:
// nil becomes a nil *Object (the list terminator) rather than a boxed nil,
// and a builtin has no *value.Heap to register the allocation with. The
// latter is deliberate:
// the heap's intrusive list exists for introspection (Heap/Dump/Roots), not
// as the thing that actually keeps an Object alive, so a builtin-allocated
// cons cell is exactly as memory-safe as a heap-registered one and simply
// invisible to Heap().Walk().
func toSlot(v value.Value) *value.Object {
	if v.Tag == value.TagObject || v.Tag == value.TagQuote {
		return v.Obj
	}
	if v.Tag == value.TagNil {
		return nil
	}
	return value.NewBoxed(v)
}

func biCons(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, arityError("cons", 2, len(args))
	}
	return value.FromObject(value.NewCons(toSlot(args[0]), toSlot(args[1]))), nil
}

func asCons(name string, v value.Value) (*value.Object, error) {
	if v.Tag != value.TagObject || v.Obj == nil || v.Obj.Kind != value.KindConsCell {
		return nil, fmt.Errorf("%s: expected a pair, got %s", name, v.TypeName())
	}
	return v.Obj, nil
}

func biCar(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("car", 1, len(args))
	}
	cell, err := asCons("car", args[0])
	if err != nil {
		return value.Value{}, err
	}
	return cell.Car.AsValue(), nil
}

func biCdr(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("cdr", 1, len(args))
	}
	cell, err := asCons("cdr", args[0])
	if err != nil {
		return value.Value{}, err
	}
	return cell.Cdr.AsValue(), nil
}

func biPairP(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("pair?", 1, len(args))
	}
	v := args[0]
	return value.Boolean(v.Tag == value.TagObject && v.Obj != nil && v.Obj.Kind == value.KindConsCell), nil
}

func biNullP(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("null?", 1, len(args))
	}
	return value.Boolean(args[0].IsNil()), nil
}

func biListP(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("list?", 1, len(args))
	}
	v := args[0]
	isPair := v.Tag == value.TagObject && v.Obj != nil && v.Obj.Kind == value.KindConsCell
	return value.Boolean(v.IsNil() || isPair), nil
}

// biList builds a proper list right-to-left out of however many arguments
// it was called with, same layout pkg/vm's materializeList produces for a
// quoted literal: '(1 2) and (list 1 2) are structurally identical.
func biList(args []value.Value) (value.Value, error) {
	var tail *value.Object
	for i := len(args) - 1; i >= 0; i-- {
		tail = value.NewCons(toSlot(args[i]), tail)
	}
	if tail == nil {
		return value.Nil(), nil
	}
	return value.FromObject(tail), nil
}

func biNumberP(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("number?", 1, len(args))
	}
	v := args[0]
	return value.Boolean(v.Tag == value.TagInt || v.Tag == value.TagFloat), nil
}

func biStringP(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("string?", 1, len(args))
	}
	v := args[0]
	return value.Boolean(v.Tag == value.TagObject && v.Obj != nil && v.Obj.Kind == value.KindString), nil
}

func biSymbolP(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("symbol?", 1, len(args))
	}
	v := args[0]
	return value.Boolean(v.Tag == value.TagObject && v.Obj != nil && v.Obj.Kind == value.KindSymbol), nil
}

func biProcedureP(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("procedure?", 1, len(args))
	}
	v := args[0]
	if v.Tag != value.TagObject || v.Obj == nil {
		return value.Boolean(false), nil
	}
	return value.Boolean(v.Obj.Kind == value.KindClosure || v.Obj.Kind == value.KindBuiltin), nil
}

func biInc(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("inc", 1, len(args))
	}
	return value.Add(args[0], value.Int64(1))
}

func biDec(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("dec", 1, len(args))
	}
	return value.Sub(args[0], value.Int64(1))
}

func biEqual(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, arityError("equal?", 2, len(args))
	}
	return value.Boolean(value.StructuralEqual(args[0], args[1])), nil
}

func asString(name string, v value.Value) (string, error) {
	if v.Tag != value.TagObject || v.Obj == nil || v.Obj.Kind != value.KindString {
		return "", fmt.Errorf("%s: expected a string, got %s", name, v.TypeName())
	}
	return v.Obj.Str, nil
}

// biStringAppend concatenates every argument's string contents. Variadic
// builtins see the whole argument slice, not a fixed arity.
func biStringAppend(args []value.Value) (value.Value, error) {
	var b strings.Builder
	for _, a := range args {
		s, err := asString("string-append", a)
		if err != nil {
			return value.Value{}, err
		}
		b.WriteString(s)
	}
	return value.FromObject(value.NewString(b.String())), nil
}

func biStringLength(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("string-length", 1, len(args))
	}
	s, err := asString("string-length", args[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.Int64(int64(utf8.RuneCountInString(s))), nil
}

var numberPrinter = message.NewPrinter(language.English)

// biNumberToString renders a number through golang.org/x/text/number for
// locale-stable formatting rather than strconv.
func biNumberToString(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("number->string", 1, len(args))
	}
	v := args[0]
	var rendered string
	switch v.Tag {
	case value.TagInt:
		rendered = numberPrinter.Sprint(number.Decimal(v.Int))
	case value.TagFloat:
		rendered = numberPrinter.Sprint(number.Decimal(v.Float))
	default:
		return value.Value{}, fmt.Errorf("number->string: expected a number, got %s", v.TypeName())
	}
	return value.FromObject(value.NewString(rendered)), nil
}

func biStringToNumber(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, arityError("string->number", 1, len(args))
	}
	s, err := asString("string->number", args[0])
	if err != nil {
		return value.Value{}, err
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int64(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("string->number: %q is not a number", s)
	}
	return value.Flt(f), nil
}

var stdin = bufio.NewReader(os.Stdin)

// biReadLine reads one line from the process's real stdin. Unlike print
// (OP_PRINT writes through vm.stdout, which tests redirect), a builtin has
// no VM handle to redirect through, so read-line/newline always touch the
// real os.Stdin/os.Stdout rather than a buffer a test can swap out.
func biReadLine(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Value{}, arityError("read-line", 0, len(args))
	}
	line, err := stdin.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return value.Value{}, fmt.Errorf("read-line: %w", err)
	}
	return value.FromObject(value.NewString(line)), nil
}

func biNewline(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Value{}, arityError("newline", 0, len(args))
	}
	fmt.Println()
	return value.Nil(), nil
}
