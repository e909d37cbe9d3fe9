// Package evaluator is a tree-walking interpreter over reader.Datum,
// independent of pkg/compiler and pkg/vm. It exists to cross-check the
// bytecode engine: the same source text run through both should print
// the same thing, byte for byte.
package evaluator

import (
	"fmt"
	"strings"

	"cinder/pkg/reader"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindNil
	KindString
	KindSymbol
	KindList
	KindFunction
	KindBuiltin
)

// BuiltinFunc is a host function exposed to evaluated programs.
type BuiltinFunc func(args []Value) (Value, error)

// Value is the evaluator's own runtime representation, deliberately
// separate from pkg/value.Value: the two engines should agree on observable
// output, not share internals a bug could hide behind. A List here is a
// plain Go slice, not a cons-cell chain; Display renders it in cons-cell
// form regardless.
type Value struct {
	Kind Kind

	Int   int64
	Float float64
	Bool  bool
	Str   string // also used for KindSymbol

	List []Value // KindList

	Name    string         // KindFunction: defun name, or "lambda" for an anonymous function
	Params  []string       // KindFunction
	Body    []reader.Datum // KindFunction
	Closure *Scope         // KindFunction: the environment captured at creation

	BuiltinName string
	Builtin     BuiltinFunc // KindBuiltin
}

func Int(n int64) Value     { return Value{Kind: KindInt, Int: n} }
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func Bool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func Nil() Value            { return Value{Kind: KindNil} }
func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Symbol(s string) Value { return Value{Kind: KindSymbol, Str: s} }
func List(items []Value) Value {
	return Value{Kind: KindList, List: items}
}

// Truthy reports whether v counts as true in a conditional: everything is
// truthy except Bool(false) and Nil. In particular Int(0) is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.Bool
	default:
		return true
	}
}

// Display renders v in the same byte-for-byte format pkg/value.Display
// uses, so a program's output can be compared across both engines.
func Display(v Value) string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindNil:
		return "nil"
	case KindString:
		// Raw quotes, not %q: a string's contents display verbatim, the
		// same bytes pkg/value.Display writes for the VM.
		return "\"" + v.Str + "\""
	case KindSymbol:
		return v.Str
	case KindList:
		return displayConsChain(v.List)
	case KindFunction:
		return "closure " + v.Name
	case KindBuiltin:
		return "builtin " + v.BuiltinName
	default:
		return "<unknown value>"
	}
}

// displayConsChain renders a proper list the way a right-nested cons chain
// displays: (a . (b . (c . nil))).
func displayConsChain(items []Value) string {
	if len(items) == 0 {
		return "nil"
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString("(")
		b.WriteString(Display(it))
		b.WriteString(" . ")
	}
	b.WriteString("nil")
	for range items {
		b.WriteString(")")
	}
	return b.String()
}
