package vm

import (
	"bytes"
	"testing"

	"cinder/pkg/bytecode"
	"cinder/pkg/value"

	"github.com/stretchr/testify/require"
)

func runChunk(t *testing.T, chunk *bytecode.Chunk, builtins map[string]value.BuiltinFunc) (string, *VM) {
	t.Helper()
	machine := New(builtins)
	var out bytes.Buffer
	machine.SetStdout(&out)
	err := machine.Run(chunk)
	require.NoError(t, err)
	return out.String(), machine
}

func TestArithmeticAndPrint(t *testing.T) {
	c := bytecode.NewChunk()
	a, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 2})
	b, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 3})
	c.EmitByte(bytecode.OpConstant, a)
	c.EmitByte(bytecode.OpConstant, b)
	c.Emit(bytecode.OpAdd)
	c.Emit(bytecode.OpPrint)
	c.Emit(bytecode.OpDebugEnd)

	out, _ := runChunk(t, c, nil)
	require.Equal(t, "5\n", out)
}

func TestCondJumpTakesThenBranch(t *testing.T) {
	c := bytecode.NewChunk()
	condIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstBool, Bool: true})
	c.EmitByte(bytecode.OpConstant, condIdx)
	condJumpPos := c.EmitJump(bytecode.OpCondJump)

	zeroIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 0})
	c.EmitByte(bytecode.OpConstant, zeroIdx)
	jumpOverThen := c.EmitJump(bytecode.OpJump)

	require.NoError(t, c.PatchJump(condJumpPos, c.Here()))
	oneIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 1})
	c.EmitByte(bytecode.OpConstant, oneIdx)

	require.NoError(t, c.PatchJump(jumpOverThen, c.Here()))
	c.Emit(bytecode.OpPrint)
	c.Emit(bytecode.OpDebugEnd)

	out, _ := runChunk(t, c, nil)
	require.Equal(t, "1\n", out)
}

func TestCondJumpTakesElseBranch(t *testing.T) {
	c := bytecode.NewChunk()
	condIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstBool, Bool: false})
	c.EmitByte(bytecode.OpConstant, condIdx)
	condJumpPos := c.EmitJump(bytecode.OpCondJump)

	zeroIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 0})
	c.EmitByte(bytecode.OpConstant, zeroIdx)
	jumpOverThen := c.EmitJump(bytecode.OpJump)

	require.NoError(t, c.PatchJump(condJumpPos, c.Here()))
	oneIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 1})
	c.EmitByte(bytecode.OpConstant, oneIdx)

	require.NoError(t, c.PatchJump(jumpOverThen, c.Here()))
	c.Emit(bytecode.OpPrint)
	c.Emit(bytecode.OpDebugEnd)

	out, _ := runChunk(t, c, nil)
	require.Equal(t, "0\n", out)
}

func TestSimpleFunctionCall(t *testing.T) {
	inner := bytecode.NewChunk()
	inner.EmitByte(bytecode.OpReferenceLocal, 0)
	oneIdx, _ := inner.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 1})
	inner.EmitByte(bytecode.OpConstant, oneIdx)
	inner.Emit(bytecode.OpAdd)
	inner.Emit(bytecode.OpReturn)

	template := &bytecode.FunctionTemplate{Name: "add1", Arity: 1, NumLocals: 1, Chunk: inner}

	main := bytecode.NewChunk()
	closureIdx, _ := main.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstClosure, Closure: template})
	main.EmitByte(bytecode.OpClosure, closureIdx)
	argIdx, _ := main.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 5})
	main.EmitByte(bytecode.OpConstant, argIdx)
	main.EmitByte(bytecode.OpFuncCall, 1)
	main.Emit(bytecode.OpPrint)
	main.Emit(bytecode.OpDebugEnd)

	out, _ := runChunk(t, main, nil)
	require.Equal(t, "6\n", out)
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	inner := bytecode.NewChunk()
	inner.Emit(bytecode.OpReturn)
	template := &bytecode.FunctionTemplate{Name: "needsOne", Arity: 1, NumLocals: 1, Chunk: inner}

	main := bytecode.NewChunk()
	closureIdx, _ := main.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstClosure, Closure: template})
	main.EmitByte(bytecode.OpClosure, closureIdx)
	main.EmitByte(bytecode.OpFuncCall, 0)
	main.Emit(bytecode.OpDebugEnd)

	machine := New(nil)
	err := machine.Run(main)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, KindArityMismatch, rerr.Kind)
}

// TestCounterClosure builds, by hand, the make-counter scenario: a closure
// that captures a local of its enclosing, now-returned, call frame and
// mutates it across repeated calls, the single subtlest correctness
// requirement of the upvalue design.
func TestCounterClosure(t *testing.T) {
	incChunk := bytecode.NewChunk()
	incChunk.EmitByte(bytecode.OpReferenceUpvalue, 0)
	oneIdx, _ := incChunk.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 1})
	incChunk.EmitByte(bytecode.OpConstant, oneIdx)
	incChunk.Emit(bytecode.OpAdd)
	incChunk.EmitByte(bytecode.OpSetUpvalue, 0)
	incChunk.EmitByte(bytecode.OpReferenceUpvalue, 0)
	incChunk.Emit(bytecode.OpReturn)

	incTemplate := &bytecode.FunctionTemplate{
		Name:            "inc",
		Arity:           0,
		NumLocals:       0,
		UpvalueCaptures: []bytecode.UpvalueCapture{{FromLocal: true, Index: 0}},
		Chunk:           incChunk,
	}

	makeCounter := bytecode.NewChunk()
	zeroIdx, _ := makeCounter.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 0})
	makeCounter.EmitByte(bytecode.OpConstant, zeroIdx)
	makeCounter.EmitByte(bytecode.OpDefine, 0)
	incIdx, _ := makeCounter.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstClosure, Closure: incTemplate})
	makeCounter.EmitByte(bytecode.OpClosure, incIdx)
	makeCounter.Code = append(makeCounter.Code, byte(bytecode.CaptureLocal), 0)
	makeCounter.Emit(bytecode.OpReturn)

	makeCounterTemplate := &bytecode.FunctionTemplate{Name: "make_counter", Arity: 0, NumLocals: 1, Chunk: makeCounter}

	main := bytecode.NewChunk()
	mcIdx, _ := main.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstClosure, Closure: makeCounterTemplate})
	main.EmitByte(bytecode.OpClosure, mcIdx)
	main.EmitByte(bytecode.OpFuncCall, 0)
	nameIdx, _ := main.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstSymbol, Str: "counter"})
	main.EmitByte(bytecode.OpDeclareGlobal, nameIdx)

	main.EmitByte(bytecode.OpReferenceGlobal, nameIdx)
	main.EmitByte(bytecode.OpFuncCall, 0)
	main.Emit(bytecode.OpPrint)

	main.EmitByte(bytecode.OpReferenceGlobal, nameIdx)
	main.EmitByte(bytecode.OpFuncCall, 0)
	main.Emit(bytecode.OpPrint)

	main.Emit(bytecode.OpDebugEnd)

	out, _ := runChunk(t, main, nil)
	require.Equal(t, "1\n2\n", out, "repeated calls share and mutate the same closed-over upvalue")
}

func TestQuotedListDisplay(t *testing.T) {
	c := bytecode.NewChunk()
	listIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstList, List: []bytecode.ConstantValue{
		{Tag: bytecode.ConstInt, Int: 1},
		{Tag: bytecode.ConstInt, Int: 2},
	}})
	c.EmitByte(bytecode.OpConstant, listIdx)
	c.Emit(bytecode.OpPrint)
	c.Emit(bytecode.OpDebugEnd)

	out, _ := runChunk(t, c, nil)
	require.Equal(t, "(1 . (2 . nil))\n", out)
}

func TestQuotedSymbolDisplay(t *testing.T) {
	c := bytecode.NewChunk()
	sym := bytecode.ConstantValue{Tag: bytecode.ConstSymbol, Str: "x"}
	quoteIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstQuote, Quote: &sym})
	c.EmitByte(bytecode.OpConstant, quoteIdx)
	c.Emit(bytecode.OpPrint)
	c.Emit(bytecode.OpDebugEnd)

	out, _ := runChunk(t, c, nil)
	require.Equal(t, "'x\n", out)
}

// TestCallLeavesExactlyOneValue: after any well-typed call, the caller
// observes the call site replaced by exactly one value; the callable,
// arguments, and locals are all gone.
func TestCallLeavesExactlyOneValue(t *testing.T) {
	inner := bytecode.NewChunk()
	nilIdx, _ := inner.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstNil})
	inner.EmitByte(bytecode.OpConstant, nilIdx)
	inner.Emit(bytecode.OpReturn)
	template := &bytecode.FunctionTemplate{Name: "noop", Arity: 2, NumLocals: 3, Chunk: inner}

	main := bytecode.NewChunk()
	closureIdx, _ := main.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstClosure, Closure: template})
	argIdx, _ := main.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 7})
	main.EmitByte(bytecode.OpClosure, closureIdx)
	main.EmitByte(bytecode.OpConstant, argIdx)
	main.EmitByte(bytecode.OpConstant, argIdx)
	main.EmitByte(bytecode.OpFuncCall, 2)
	main.Emit(bytecode.OpDebugEnd)

	machine := New(nil)
	require.NoError(t, machine.Run(main))
	require.Equal(t, 1, machine.stack.Len(), "callable + 2 args + locals collapse to the single return value")
}

func TestDivideByZeroIsRuntimeError(t *testing.T) {
	c := bytecode.NewChunk()
	oneIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 1})
	zeroIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 0})
	c.EmitByte(bytecode.OpConstant, oneIdx)
	c.EmitByte(bytecode.OpConstant, zeroIdx)
	c.Emit(bytecode.OpDiv)
	c.Emit(bytecode.OpDebugEnd)

	machine := New(nil)
	err := machine.Run(c)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, KindDivideByZero, rerr.Kind)
}

func TestUnboundGlobalIsRuntimeError(t *testing.T) {
	c := bytecode.NewChunk()
	nameIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstSymbol, Str: "nope"})
	c.EmitByte(bytecode.OpReferenceGlobal, nameIdx)
	c.Emit(bytecode.OpDebugEnd)

	machine := New(nil)
	err := machine.Run(c)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, KindUnboundVariable, rerr.Kind)
}

func TestUnknownOpcodeIsMalformedBytecode(t *testing.T) {
	c := bytecode.NewChunk()
	c.Code = append(c.Code, 0xEE)

	machine := New(nil)
	err := machine.Run(c)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, KindMalformedBytecode, rerr.Kind)
}

func TestBuiltinCall(t *testing.T) {
	builtins := map[string]value.BuiltinFunc{
		"double": func(args []value.Value) (value.Value, error) {
			return value.Int64(args[0].Int * 2), nil
		},
	}

	c := bytecode.NewChunk()
	nameIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstSymbol, Str: "double"})
	c.EmitByte(bytecode.OpReferenceGlobal, nameIdx)
	argIdx, _ := c.AddConstant(bytecode.ConstantValue{Tag: bytecode.ConstInt, Int: 21})
	c.EmitByte(bytecode.OpConstant, argIdx)
	c.EmitByte(bytecode.OpFuncCall, 1)
	c.Emit(bytecode.OpPrint)
	c.Emit(bytecode.OpDebugEnd)

	out, _ := runChunk(t, c, builtins)
	require.Equal(t, "42\n", out)
}
