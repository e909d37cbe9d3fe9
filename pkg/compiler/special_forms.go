package compiler

import (
	"fmt"

	"cinder/pkg/bytecode"
	"cinder/pkg/reader"
)

// compileDefine handles (define name expr). At top level it binds a
// global; inside a function body it introduces a new local slot. Either
// way the binding itself is net-zero on the stack.
func (c *Compiler) compileDefine(items []reader.Datum) (bool, error) {
	if len(items) < 2 || items[1].Kind != reader.DatumSymbol {
		return false, fmt.Errorf("define: expected (define name [expr]), got %s", reader.List(items...))
	}
	name := items[1].Str
	value := reader.Nil()
	if len(items) >= 3 {
		value = items[2]
	}
	if err := c.compileExpr(value); err != nil {
		return false, err
	}
	if c.isTopLevel {
		idx, err := c.chunk.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstSymbol, Str: name})
		if err != nil {
			return false, err
		}
		c.chunk.EmitByte(bytecode.OpDeclareGlobal, idx)
	} else {
		slot := c.addLocal(name)
		c.chunk.EmitByte(bytecode.OpDefine, byte(slot))
	}
	return true, nil
}

// compileSet handles (set name expr), rebinding an existing local,
// upvalue, or global. Net-zero on the stack, like define.
func (c *Compiler) compileSet(items []reader.Datum) (bool, error) {
	if len(items) != 3 || items[1].Kind != reader.DatumSymbol {
		return false, fmt.Errorf("set: expected (set name expr), got %s", reader.List(items...))
	}
	name := items[1].Str
	if err := c.compileExpr(items[2]); err != nil {
		return false, err
	}
	if slot, ok := c.resolveLocal(name); ok {
		c.chunk.EmitByte(bytecode.OpSetLocal, byte(slot))
		return true, nil
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		c.chunk.EmitByte(bytecode.OpSetUpvalue, byte(idx))
		return true, nil
	}
	idx, err := c.chunk.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstSymbol, Str: name})
	if err != nil {
		return false, err
	}
	c.chunk.EmitByte(bytecode.OpDeclareGlobal, idx)
	return true, nil
}

// compileIf lays out code as: eval cond, CondJump to the then-branch,
// [else code], Jump past then-branch, [then code]. A cond that comes up
// false falls straight through into the else code, matching how
// OP_COND_JUMP's false path is just ordinary fallthrough.
func (c *Compiler) compileIf(items []reader.Datum) error {
	if len(items) < 3 || len(items) > 4 {
		return fmt.Errorf("if: expected (if cond then [else]), got %s", reader.List(items...))
	}
	if err := c.compileExpr(items[1]); err != nil {
		return err
	}
	condJump := c.chunk.EmitJump(bytecode.OpCondJump)

	elseForm := reader.Nil()
	if len(items) == 4 {
		elseForm = items[3]
	}
	if err := c.compileExpr(elseForm); err != nil {
		return err
	}
	thenJump := c.chunk.EmitJump(bytecode.OpJump)

	if err := c.chunk.PatchJump(condJump, c.chunk.Here()); err != nil {
		return err
	}
	if err := c.compileExpr(items[2]); err != nil {
		return err
	}
	return c.chunk.PatchJump(thenJump, c.chunk.Here())
}

// lambdaParts splits (lambda (params...) body...) into its parameter
// names and body forms.
func lambdaParts(items []reader.Datum) ([]string, []reader.Datum) {
	paramItems, _ := items[1].Items()
	params := make([]string, len(paramItems))
	for i, p := range paramItems {
		params[i] = p.Str
	}
	return params, items[2:]
}

// compileLambda compiles params/body into a child Compiler of its own,
// then emits an OP_CLOSURE in the current chunk referencing the resulting
// FunctionTemplate constant, followed by one (captureType, index) byte
// pair per upvalue the body captured, the exact shape
// pkg/vm's handleClosure decodes.
func (c *Compiler) compileLambda(name string, params []string, body []reader.Datum) error {
	if len(params) > 255 {
		return fmt.Errorf("%s: %d parameters exceeds the 255 a 1-byte arity can encode", name, len(params))
	}
	nested := &Compiler{chunk: bytecode.NewChunk(), enclosing: c}
	for _, p := range params {
		nested.addLocal(p)
	}
	if err := nested.compileSequence(body, true); err != nil {
		return err
	}
	if len(nested.locals) > 256 {
		return fmt.Errorf("%s: %d locals exceeds the 256 slots a 1-byte operand can address", name, len(nested.locals))
	}
	nested.chunk.Emit(bytecode.OpReturn)

	template := &bytecode.FunctionTemplate{
		Name:            name,
		Arity:           len(params),
		NumLocals:       len(nested.locals),
		UpvalueCaptures: nested.upvalues,
		Chunk:           nested.chunk,
	}
	idx, err := c.chunk.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstClosure, Closure: template})
	if err != nil {
		return err
	}
	c.chunk.EmitByte(bytecode.OpClosure, idx)
	for _, uv := range nested.upvalues {
		capture := bytecode.CaptureUpvalue
		if uv.FromLocal {
			capture = bytecode.CaptureLocal
		}
		c.chunk.Code = append(c.chunk.Code, byte(capture), uv.Index)
	}
	return nil
}

// compileDefun sugars (defun (name params...) body...) into a define
// binding whose value is the equivalent lambda.
func (c *Compiler) compileDefun(items []reader.Datum) (bool, error) {
	if len(items) < 2 {
		return false, fmt.Errorf("defun: expected (defun (name params...) body...), got %s", reader.List(items...))
	}
	header, ok := items[1].Items()
	if !ok || len(header) == 0 || header[0].Kind != reader.DatumSymbol {
		return false, fmt.Errorf("defun: malformed name/parameter list %s", items[1])
	}
	name := header[0].Str
	params := make([]string, len(header)-1)
	for i, p := range header[1:] {
		params[i] = p.Str
	}

	// A local binding is reserved before the body compiles, not after, so
	// a self-recursive call inside the body resolves name as an upvalue
	// capture of this slot rather than an unbound global. Top-level names
	// need no such forward declaration: globals are looked up by name at
	// call time, long after this defun's OP_DECLARE_GLOBAL has run.
	var slot int
	if !c.isTopLevel {
		slot = c.addLocal(name)
	}
	if err := c.compileLambda(name, params, items[2:]); err != nil {
		return false, err
	}
	if c.isTopLevel {
		idx, err := c.chunk.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstSymbol, Str: name})
		if err != nil {
			return false, err
		}
		c.chunk.EmitByte(bytecode.OpDeclareGlobal, idx)
	} else {
		c.chunk.EmitByte(bytecode.OpDefine, byte(slot))
	}
	return true, nil
}

// compileLet desugars (let ((name expr)...) body...) into an immediately
// applied lambda: ((lambda (name...) body...) expr...).
func (c *Compiler) compileLet(items []reader.Datum) error {
	if len(items) < 2 {
		return fmt.Errorf("let: expected (let ((name expr)...) body...), got %s", reader.List(items...))
	}
	bindings, ok := items[1].Items()
	if !ok {
		return fmt.Errorf("let: malformed binding list %s", items[1])
	}
	names := make([]string, len(bindings))
	exprs := make([]reader.Datum, len(bindings))
	for i, b := range bindings {
		pair, ok := b.Items()
		if !ok || len(pair) != 2 || pair[0].Kind != reader.DatumSymbol {
			return fmt.Errorf("let: malformed binding %s", b)
		}
		names[i] = pair[0].Str
		exprs[i] = pair[1]
	}
	if err := c.compileLambda("let", names, items[2:]); err != nil {
		return err
	}
	for _, e := range exprs {
		if err := c.compileExpr(e); err != nil {
			return err
		}
	}
	c.chunk.EmitByte(bytecode.OpFuncCall, byte(len(exprs)))
	return nil
}

// compilePrint handles (print expr): push expr's value, then OP_PRINT pops
// and writes it, leaving the form net-zero on the stack.
func (c *Compiler) compilePrint(items []reader.Datum) error {
	if len(items) != 2 {
		return fmt.Errorf("print: expected (print expr), got %s", reader.List(items...))
	}
	if err := c.compileExpr(items[1]); err != nil {
		return err
	}
	c.chunk.Emit(bytecode.OpPrint)
	return nil
}

// compileQuote materializes (quote expr) as a single constant-pool entry
// holding the unevaluated structure of expr. A quoted list becomes a plain
// ConstList ('(1 2) prints as (1 . (2 . nil)), list structure with no
// quote marker) and a quoted self-evaluating literal is just that literal.
// Only a quoted symbol keeps the ConstQuote wrapper, which is what makes
// 'x an opaque datum instead of a variable reference.
func (c *Compiler) compileQuote(items []reader.Datum) error {
	if len(items) != 2 {
		return fmt.Errorf("quote: expected (quote expr), got %s", reader.List(items...))
	}
	inner := datumToConstant(items[1])
	if inner.Tag == bytecode.ConstSymbol {
		sym := inner
		inner = bytecode.ConstantValue{Tag: bytecode.ConstQuote, Quote: &sym}
	}
	idx, err := c.chunk.AddConstant(inner)
	if err != nil {
		return err
	}
	c.chunk.EmitByte(bytecode.OpConstant, idx)
	return nil
}

// datumToConstant converts read data into the constant-pool representation
// used for quoted structure. An improper (dotted) pair is represented as
// a two-element list of its car and cdr, since the constant pool has no
// separate dotted-pair tag.
func datumToConstant(d reader.Datum) bytecode.ConstantValue {
	switch d.Kind {
	case reader.DatumInt:
		return bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: d.Int}
	case reader.DatumFloat:
		return bytecode.ConstantValue{Tag: bytecode.ConstFloat, Float: d.Float}
	case reader.DatumBool:
		return bytecode.ConstantValue{Tag: bytecode.ConstBool, Bool: d.Bool}
	case reader.DatumNil:
		return bytecode.ConstantValue{Tag: bytecode.ConstNil}
	case reader.DatumString:
		return bytecode.ConstantValue{Tag: bytecode.ConstString, Str: d.Str}
	case reader.DatumSymbol:
		return bytecode.ConstantValue{Tag: bytecode.ConstSymbol, Str: d.Str}
	case reader.DatumPair:
		if items, ok := d.Items(); ok {
			list := make([]bytecode.ConstantValue, len(items))
			for i, it := range items {
				list[i] = datumToConstant(it)
			}
			return bytecode.ConstantValue{Tag: bytecode.ConstList, List: list}
		}
		return bytecode.ConstantValue{Tag: bytecode.ConstList, List: []bytecode.ConstantValue{
			datumToConstant(d.Pair.Car), datumToConstant(d.Pair.Cdr),
		}}
	default:
		return bytecode.ConstantValue{Tag: bytecode.ConstNil}
	}
}
