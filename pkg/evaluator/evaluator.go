package evaluator

import (
	"fmt"
	"strings"

	"cinder/pkg/reader"
)

// Evaluator runs a sequence of top-level forms against one global scope,
// writing Print output to out. It is the tree-walking counterpart to
// cinder's compile-then-run pipeline, used to cross-check it.
type Evaluator struct {
	global *Scope
	out    *strings.Builder
}

// New constructs an Evaluator with the given builtin table installed as
// globals, mirroring pkg/vm.New's convention that builtins live in the
// same namespace as user-defined globals.
func New(builtins map[string]BuiltinFunc) *Evaluator {
	return &Evaluator{global: NewGlobalScope(builtins), out: &strings.Builder{}}
}

// Output returns everything written by `print` so far.
func (e *Evaluator) Output() string { return e.out.String() }

// RunSource reads and evaluates every top-level form in src in order.
func (e *Evaluator) RunSource(src string) error {
	forms, err := reader.ReadAll(src)
	if err != nil {
		return err
	}
	for _, f := range forms {
		if _, err := e.eval(f, e.global); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) eval(d reader.Datum, scope *Scope) (Value, error) {
	switch d.Kind {
	case reader.DatumInt:
		return Int(d.Int), nil
	case reader.DatumFloat:
		return Float(d.Float), nil
	case reader.DatumBool:
		return Bool(d.Bool), nil
	case reader.DatumString:
		return String(d.Str), nil
	case reader.DatumNil:
		return Nil(), nil
	case reader.DatumSymbol:
		if v, ok := scope.lookup(d.Str); ok {
			return v, nil
		}
		return Value{}, fmt.Errorf("symbol %s not found in scope", d.Str)
	case reader.DatumPair:
		return e.evalList(d, scope)
	default:
		return Value{}, fmt.Errorf("cannot evaluate datum %s", d)
	}
}

func (e *Evaluator) evalList(d reader.Datum, scope *Scope) (Value, error) {
	items, ok := d.Items()
	if !ok {
		return Value{}, fmt.Errorf("cannot evaluate improper list %s", d)
	}
	if len(items) == 0 {
		return List(nil), nil
	}

	head := items[0]
	if head.Kind == reader.DatumSymbol {
		switch head.Str {
		case "quote":
			if len(items) != 2 {
				return Value{}, fmt.Errorf("quote must be called with one argument")
			}
			return datumToValue(items[1]), nil
		case "lambda":
			return e.evalLambda(items, scope)
		case "defun":
			return e.evalDefun(items, scope)
		case "define":
			return e.evalDefine(items, scope)
		case "set":
			return e.evalSet(items, scope)
		case "if":
			return e.evalIf(items, scope)
		case "let":
			return e.evalLet(items, scope)
		case "print":
			return e.evalPrint(items, scope)
		}
	}

	callee, err := e.eval(head, scope)
	if err != nil {
		return Value{}, err
	}
	args := make([]Value, len(items)-1)
	for i, a := range items[1:] {
		v, err := e.eval(a, scope)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return e.apply(callee, args)
}

func (e *Evaluator) apply(callee Value, args []Value) (Value, error) {
	switch callee.Kind {
	case KindFunction:
		if len(callee.Params) != len(args) {
			return Value{}, fmt.Errorf("function called with %d argument(s), expected %d", len(args), len(callee.Params))
		}
		callScope := callee.Closure.child()
		for i, p := range callee.Params {
			callScope.define(p, args[i])
		}
		return e.evalSequence(callee.Body, callScope)
	case KindBuiltin:
		return callee.Builtin(args)
	default:
		return Value{}, fmt.Errorf("value of kind %v is not callable", callee.Kind)
	}
}

func (e *Evaluator) evalSequence(body []reader.Datum, scope *Scope) (Value, error) {
	result := Nil()
	for _, form := range body {
		v, err := e.eval(form, scope)
		if err != nil {
			return Value{}, err
		}
		result = v
	}
	return result, nil
}

func (e *Evaluator) evalLambda(items []reader.Datum, scope *Scope) (Value, error) {
	if len(items) < 2 {
		return Value{}, fmt.Errorf("lambda: expected (lambda (params...) body...)")
	}
	params, err := parseParams(items[1])
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: KindFunction, Name: "lambda", Params: params, Body: items[2:], Closure: scope}, nil
}

func (e *Evaluator) evalDefun(items []reader.Datum, scope *Scope) (Value, error) {
	if len(items) < 2 {
		return Value{}, fmt.Errorf("defun: expected (defun (name params...) body...)")
	}
	header, ok := items[1].Items()
	if !ok || len(header) == 0 || header[0].Kind != reader.DatumSymbol {
		return Value{}, fmt.Errorf("defun: malformed name/parameter list %s", items[1])
	}
	name := header[0].Str
	params := make([]string, len(header)-1)
	for i, p := range header[1:] {
		if p.Kind != reader.DatumSymbol {
			return Value{}, fmt.Errorf("function arguments must be identifiers")
		}
		params[i] = p.Str
	}
	fn := Value{Kind: KindFunction, Name: name, Params: params, Body: items[2:], Closure: scope}
	scope.define(name, fn)
	return fn, nil
}

func (e *Evaluator) evalDefine(items []reader.Datum, scope *Scope) (Value, error) {
	if len(items) < 2 || items[1].Kind != reader.DatumSymbol {
		return Value{}, fmt.Errorf("define: expected (define name [expr])")
	}
	value := Nil()
	var err error
	if len(items) >= 3 {
		value, err = e.eval(items[2], scope)
		if err != nil {
			return Value{}, err
		}
	}
	scope.define(items[1].Str, value)
	return value, nil
}

func (e *Evaluator) evalSet(items []reader.Datum, scope *Scope) (Value, error) {
	if len(items) != 3 || items[1].Kind != reader.DatumSymbol {
		return Value{}, fmt.Errorf("set: expected (set name expr)")
	}
	v, err := e.eval(items[2], scope)
	if err != nil {
		return Value{}, err
	}
	scope.set(items[1].Str, v)
	return v, nil
}

func (e *Evaluator) evalIf(items []reader.Datum, scope *Scope) (Value, error) {
	if len(items) < 3 || len(items) > 4 {
		return Value{}, fmt.Errorf("if: expected (if cond then [else])")
	}
	cond, err := e.eval(items[1], scope)
	if err != nil {
		return Value{}, err
	}
	if cond.Truthy() {
		return e.eval(items[2], scope)
	}
	if len(items) == 4 {
		return e.eval(items[3], scope)
	}
	return Nil(), nil
}

func (e *Evaluator) evalLet(items []reader.Datum, scope *Scope) (Value, error) {
	if len(items) < 2 {
		return Value{}, fmt.Errorf("let: expected (let ((name expr)...) body...)")
	}
	bindings, ok := items[1].Items()
	if !ok {
		return Value{}, fmt.Errorf("let: malformed binding list %s", items[1])
	}
	letScope := scope.child()
	for _, b := range bindings {
		pair, ok := b.Items()
		if !ok || len(pair) != 2 || pair[0].Kind != reader.DatumSymbol {
			return Value{}, fmt.Errorf("let: malformed binding %s", b)
		}
		v, err := e.eval(pair[1], scope)
		if err != nil {
			return Value{}, err
		}
		letScope.define(pair[0].Str, v)
	}
	return e.evalSequence(items[2:], letScope)
}

func (e *Evaluator) evalPrint(items []reader.Datum, scope *Scope) (Value, error) {
	if len(items) != 2 {
		return Value{}, fmt.Errorf("print: expected (print expr)")
	}
	v, err := e.eval(items[1], scope)
	if err != nil {
		return Value{}, err
	}
	e.out.WriteString(Display(v))
	e.out.WriteByte('\n')
	return v, nil
}

func parseParams(d reader.Datum) ([]string, error) {
	items, ok := d.Items()
	if !ok {
		return nil, fmt.Errorf("parameter list must be a proper list, got %s", d)
	}
	params := make([]string, len(items))
	for i, it := range items {
		if it.Kind != reader.DatumSymbol {
			return nil, fmt.Errorf("function arguments must be identifiers")
		}
		params[i] = it.Str
	}
	return params, nil
}

// datumToValue converts unevaluated reader data into a Value, for quote.
func datumToValue(d reader.Datum) Value {
	switch d.Kind {
	case reader.DatumInt:
		return Int(d.Int)
	case reader.DatumFloat:
		return Float(d.Float)
	case reader.DatumBool:
		return Bool(d.Bool)
	case reader.DatumNil:
		return Nil()
	case reader.DatumString:
		return String(d.Str)
	case reader.DatumSymbol:
		return Symbol(d.Str)
	case reader.DatumPair:
		items, ok := d.Items()
		if !ok {
			return List([]Value{datumToValue(d.Pair.Car), datumToValue(d.Pair.Cdr)})
		}
		out := make([]Value, len(items))
		for i, it := range items {
			out[i] = datumToValue(it)
		}
		return List(out)
	default:
		return Nil()
	}
}
