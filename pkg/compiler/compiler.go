// Package compiler walks reader.Datum forms and emits a bytecode.Chunk in
// a single emit-as-you-walk pass, resolving every variable reference to a
// local slot, an upvalue, or a global name at compile time. Closure
// captures resolve through a chain of enclosing compilers.
package compiler

import (
	"fmt"

	"cinder/pkg/bytecode"
	"cinder/pkg/reader"
)

var specialForms = map[string]bool{
	"defun": true, "define": true, "set": true, "if": true,
	"lambda": true, "let": true, "quote": true, "print": true,
}

// binaryOpcodes maps the arithmetic/comparison symbols to the dedicated
// opcode a direct two-argument call compiles to. Used any other way
// (stored in a variable, passed as an argument, selected by an if) these
// names still resolve as ordinary global bindings, because pkg/builtins
// also registers each of them as a BuiltinFunc performing the same
// operation.
var binaryOpcodes = map[string]bytecode.Opcode{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul, "/": bytecode.OpDiv,
	">": bytecode.OpGT, "<": bytecode.OpLT, ">=": bytecode.OpGTE, "<=": bytecode.OpLTE,
}

// localSlot is one compile-time local variable binding.
type localSlot struct {
	name string
	slot int
}

// Compiler compiles one function's (or the top-level program's) body into
// its own Chunk. Nested lambdas get their own Compiler linked via
// enclosing, which is how free-variable resolution walks outward.
type Compiler struct {
	chunk      *bytecode.Chunk
	enclosing  *Compiler
	locals     []localSlot
	upvalues   []bytecode.UpvalueCapture
	upvalNames []string
	isTopLevel bool
}

// Compile compiles a whole program's top-level forms into a runnable
// chunk, terminated by OP_DEBUG_END.
func Compile(forms []reader.Datum) (*bytecode.Chunk, error) {
	c := &Compiler{chunk: bytecode.NewChunk(), isTopLevel: true}
	if err := c.compileSequence(forms, false); err != nil {
		return nil, err
	}
	c.chunk.Emit(bytecode.OpDebugEnd)
	return c.chunk, nil
}

// CompileSource reads and compiles src in one step.
func CompileSource(src string) (*bytecode.Chunk, error) {
	forms, err := reader.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return Compile(forms)
}

// compileSequence compiles a run of statements. Every non-last statement
// that left a value on the stack (anything but define/set/print, which are
// net-zero) gets popped; the last statement's value is left in place only
// if needsTrailingValue asks for one (a function body needs a return
// value, a top-level program does not).
func (c *Compiler) compileSequence(forms []reader.Datum, needsTrailingValue bool) error {
	if len(forms) == 0 {
		if needsTrailingValue {
			return c.emitNilConstant()
		}
		return nil
	}
	for i, f := range forms {
		netZero, err := c.compileForm(f)
		if err != nil {
			return err
		}
		last := i == len(forms)-1
		if last {
			if netZero && needsTrailingValue {
				if err := c.emitNilConstant(); err != nil {
					return err
				}
			}
		} else if !netZero {
			c.chunk.Emit(bytecode.OpPop)
		}
	}
	return nil
}

// compileExpr compiles d so that exactly one value is left on the stack,
// regardless of whether d is itself a net-zero form like define/set.
func (c *Compiler) compileExpr(d reader.Datum) error {
	netZero, err := c.compileForm(d)
	if err != nil {
		return err
	}
	if netZero {
		return c.emitNilConstant()
	}
	return nil
}

// compileForm compiles one form and reports whether it was net-zero on
// the stack (define/set/print) or left exactly one value (everything else).
func (c *Compiler) compileForm(d reader.Datum) (bool, error) {
	if d.Kind != reader.DatumPair {
		return false, c.compileAtom(d)
	}
	items, ok := d.Items()
	if !ok {
		return false, fmt.Errorf("cannot compile improper list %s", d)
	}
	if len(items) == 0 {
		return false, c.emitNilConstant()
	}
	if items[0].Kind == reader.DatumSymbol && specialForms[items[0].Str] {
		switch items[0].Str {
		case "defun":
			return c.compileDefun(items)
		case "define":
			return c.compileDefine(items)
		case "set":
			return c.compileSet(items)
		case "if":
			return false, c.compileIf(items)
		case "lambda":
			params, body := lambdaParts(items)
			return false, c.compileLambda("lambda", params, body)
		case "let":
			return false, c.compileLet(items)
		case "quote":
			return false, c.compileQuote(items)
		case "print":
			return true, c.compilePrint(items)
		}
	}
	return false, c.compileCall(items)
}

func (c *Compiler) compileAtom(d reader.Datum) error {
	switch d.Kind {
	case reader.DatumInt:
		return c.emitConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: d.Int})
	case reader.DatumFloat:
		return c.emitConstant(bytecode.ConstantValue{Tag: bytecode.ConstFloat, Float: d.Float})
	case reader.DatumBool:
		return c.emitConstant(bytecode.ConstantValue{Tag: bytecode.ConstBool, Bool: d.Bool})
	case reader.DatumNil:
		return c.emitNilConstant()
	case reader.DatumString:
		return c.emitConstant(bytecode.ConstantValue{Tag: bytecode.ConstString, Str: d.Str})
	case reader.DatumSymbol:
		return c.compileVariableRef(d.Str)
	default:
		return fmt.Errorf("cannot compile atom %s", d)
	}
}

func (c *Compiler) compileCall(items []reader.Datum) error {
	args := items[1:]
	if items[0].Kind == reader.DatumSymbol && len(args) == 2 {
		if op, ok := binaryOpcodes[items[0].Str]; ok {
			if err := c.compileExpr(args[0]); err != nil {
				return err
			}
			if err := c.compileExpr(args[1]); err != nil {
				return err
			}
			c.chunk.Emit(op)
			return nil
		}
	}

	if err := c.compileExpr(items[0]); err != nil {
		return err
	}
	if len(args) > 255 {
		return fmt.Errorf("call has %d arguments, exceeding the 255 a 1-byte operand can encode", len(args))
	}
	for _, arg := range args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.chunk.EmitByte(bytecode.OpFuncCall, byte(len(args)))
	return nil
}

func (c *Compiler) emitConstant(cv bytecode.ConstantValue) error {
	idx, err := c.chunk.AddConstant(cv)
	if err != nil {
		return err
	}
	c.chunk.EmitByte(bytecode.OpConstant, idx)
	return nil
}

func (c *Compiler) emitNilConstant() error {
	return c.emitConstant(bytecode.ConstantValue{Tag: bytecode.ConstNil})
}

func (c *Compiler) compileVariableRef(name string) error {
	if slot, ok := c.resolveLocal(name); ok {
		c.chunk.EmitByte(bytecode.OpReferenceLocal, byte(slot))
		return nil
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		c.chunk.EmitByte(bytecode.OpReferenceUpvalue, byte(idx))
		return nil
	}
	idx, err := c.chunk.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstSymbol, Str: name})
	if err != nil {
		return err
	}
	c.chunk.EmitByte(bytecode.OpReferenceGlobal, idx)
	return nil
}

func (c *Compiler) addLocal(name string) int {
	slot := len(c.locals)
	c.locals = append(c.locals, localSlot{name: name, slot: slot})
	return slot
}

// resolveLocal searches from the most recently declared local backward,
// so an inner `define` shadows an outer one of the same name.
func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return c.locals[i].slot, true
		}
	}
	return 0, false
}

// resolveUpvalue resolves a free variable by walking the enclosing
// compilers outward: a hit in the immediately enclosing compiler's locals
// becomes a CaptureLocal descriptor; a hit further out is threaded
// through as a CaptureUpvalue descriptor referencing the enclosing
// closure's own upvalue slot, recursively.
func (c *Compiler) resolveUpvalue(name string) (int, bool) {
	if c.enclosing == nil {
		return 0, false
	}
	for i, n := range c.upvalNames {
		if n == name {
			return i, true
		}
	}
	if slot, ok := c.enclosing.resolveLocal(name); ok {
		return c.addUpvalue(name, true, byte(slot)), true
	}
	if idx, ok := c.enclosing.resolveUpvalue(name); ok {
		return c.addUpvalue(name, false, byte(idx)), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(name string, fromLocal bool, index byte) int {
	idx := len(c.upvalues)
	c.upvalues = append(c.upvalues, bytecode.UpvalueCapture{FromLocal: fromLocal, Index: index})
	c.upvalNames = append(c.upvalNames, name)
	return idx
}
