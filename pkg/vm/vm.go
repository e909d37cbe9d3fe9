// Package vm implements the fetch-decode-dispatch execution engine: the
// operand stack, call frames, global environment, upvalue machinery, and
// the main run loop that drives a compiled bytecode.Chunk to completion.
package vm

import (
	"errors"
	"io"
	"os"

	"cinder/pkg/bytecode"
	"cinder/pkg/stack"
	"cinder/pkg/value"
)

// VM is a single-threaded execution engine: one dispatch loop owns the
// entire runtime state, and builtins run synchronously on the same
// goroutine that calls Run.
type VM struct {
	stack        *stack.Stack[value.Value]
	globals      map[string]value.Value
	heap         value.Heap
	frames       []*CallFrame
	openUpvalues *value.Object
	stdout       io.Writer
}

// New constructs a VM with the given builtin table installed as globals,
// so `(car ...)` resolves the same way a user-defined global function
// would. Builtins have no separate namespace.
func New(builtins map[string]value.BuiltinFunc) *VM {
	vm := &VM{
		stack:   stack.New[value.Value](stack.DefaultCapacity),
		globals: make(map[string]value.Value, len(builtins)),
		stdout:  os.Stdout,
	}
	for name, fn := range builtins {
		obj := vm.heap.Alloc(value.NewBuiltin(name, fn))
		vm.globals[name] = value.FromObject(obj)
	}
	return vm
}

// SetStdout redirects OP_PRINT output; tests use this to capture output
// instead of writing to the real stdout.
func (vm *VM) SetStdout(w io.Writer) { vm.stdout = w }

// Global looks up a global binding.
func (vm *VM) Global(name string) (value.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// Heap exposes the heap for disassembly/debug tooling.
func (vm *VM) Heap() *value.Heap { return &vm.heap }

// Roots returns every Value currently reachable as a GC root: the live
// stack prefix, every global, every active frame's closure, and every open
// upvalue. No collector consumes this yet, but the shape is here so one
// could be added without touching the dispatch loop below.
func (vm *VM) Roots() []value.Value {
	var roots []value.Value
	for i := 0; i <= vm.stack.Ptr(); i++ {
		v, _ := vm.stack.At(i)
		roots = append(roots, v)
	}
	for _, g := range vm.globals {
		roots = append(roots, g)
	}
	for _, f := range vm.frames {
		if f.Closure != nil {
			roots = append(roots, value.FromObject(f.Closure))
		}
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.OpenNext {
		roots = append(roots, value.FromObject(uv))
	}
	return roots
}

// Run executes a top-level chunk to completion (OP_DEBUG_END) or until a
// runtime error is raised. Globals survive across calls (the REPL runs
// each input line as its own chunk on one VM) but the operand stack does
// not: a top-level statement may leave its value at the top when DEBUG_END
// halts, and without the reset those leftovers would pile up line by line.
func (vm *VM) Run(chunk *bytecode.Chunk) error {
	vm.stack.Reset()
	vm.frames = []*CallFrame{{Chunk: chunk, StartIdx: -1, Name: "<main>"}}

	for {
		frame := vm.frames[len(vm.frames)-1]
		if frame.IP >= len(frame.Chunk.Code) {
			return vm.runtimeError(KindMalformedBytecode, "instruction pointer %d ran off the end of %s", frame.IP, frame.Name)
		}
		op := bytecode.Opcode(frame.Chunk.Code[frame.IP])

		switch op {
		case bytecode.OpDebugEnd:
			return nil

		case bytecode.OpConstant:
			cv, err := vm.constantOperand(frame, frame.IP+1)
			if err != nil {
				return err
			}
			v, err := vm.materialize(cv)
			if err != nil {
				return err
			}
			if err := vm.push(v); err != nil {
				return err
			}
			frame.IP += 2

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv,
			bytecode.OpGT, bytecode.OpLT, bytecode.OpGTE, bytecode.OpLTE:
			if err := vm.binaryOp(op); err != nil {
				return err
			}
			frame.IP++

		case bytecode.OpJump:
			operandPos := frame.IP + 1
			offset := int(frame.Chunk.Code[operandPos])
			frame.IP = operandPos + offset

		case bytecode.OpCondJump:
			operandPos := frame.IP + 1
			offset := int(frame.Chunk.Code[operandPos])
			cond, err := vm.stack.Pop()
			if err != nil {
				return vm.runtimeError(KindStackFault, "%s", err)
			}
			if !cond.Truthy() {
				offset = 1
			}
			frame.IP = operandPos + offset

		case bytecode.OpFuncCall:
			arity := int(frame.Chunk.Code[frame.IP+1])
			frame.IP += 2
			if err := vm.call(arity); err != nil {
				return err
			}

		case bytecode.OpReturn:
			if err := vm.doReturn(); err != nil {
				return err
			}

		case bytecode.OpDeclareGlobal:
			cv, err := vm.constantOperand(frame, frame.IP+1)
			if err != nil {
				return err
			}
			v, err := vm.stack.Pop()
			if err != nil {
				return vm.runtimeError(KindStackFault, "%s", err)
			}
			vm.globals[cv.Str] = v
			frame.IP += 2

		case bytecode.OpReferenceGlobal:
			cv, err := vm.constantOperand(frame, frame.IP+1)
			if err != nil {
				return err
			}
			name := cv.Str
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError(KindUnboundVariable, "%s", name)
			}
			if err := vm.push(v); err != nil {
				return err
			}
			frame.IP += 2

		case bytecode.OpReferenceLocal:
			slot := int(frame.Chunk.Code[frame.IP+1])
			v, err := vm.stack.At(frame.localIndex(slot))
			if err != nil {
				return vm.runtimeError(KindStackFault, "%s", err)
			}
			if err := vm.push(v); err != nil {
				return err
			}
			frame.IP += 2

		case bytecode.OpSetLocal, bytecode.OpDefine:
			slot := int(frame.Chunk.Code[frame.IP+1])
			v, err := vm.stack.Pop()
			if err != nil {
				return vm.runtimeError(KindStackFault, "%s", err)
			}
			if err := vm.stack.SetMut(frame.localIndex(slot), v); err != nil {
				return vm.runtimeError(KindStackFault, "%s", err)
			}
			frame.IP += 2

		case bytecode.OpReferenceUpvalue:
			idx := int(frame.Chunk.Code[frame.IP+1])
			if err := vm.push(frame.Closure.Upvalues[idx].Get()); err != nil {
				return err
			}
			frame.IP += 2

		case bytecode.OpSetUpvalue:
			idx := int(frame.Chunk.Code[frame.IP+1])
			v, err := vm.stack.Pop()
			if err != nil {
				return vm.runtimeError(KindStackFault, "%s", err)
			}
			frame.Closure.Upvalues[idx].Set(v)
			frame.IP += 2

		case bytecode.OpClosure:
			next, err := vm.handleClosure(frame)
			if err != nil {
				return err
			}
			frame.IP = next

		case bytecode.OpPop:
			if _, err := vm.stack.Pop(); err != nil {
				return vm.runtimeError(KindStackFault, "%s", err)
			}
			frame.IP++

		case bytecode.OpPrint:
			v, err := vm.stack.Pop()
			if err != nil {
				return vm.runtimeError(KindStackFault, "%s", err)
			}
			_, _ = io.WriteString(vm.stdout, value.Display(v)+"\n")
			frame.IP++

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.stack.Ptr())
			frame.IP++

		default:
			return vm.runtimeError(KindMalformedBytecode, "unrecognised opcode %d", op)
		}
	}
}

// constantOperand is the one decode helper through which every opcode
// reaches the constant pool: it reads the 1-byte operand at operandPos and
// bounds-checks the index, so an implementation that outgrows 256 constants
// only has to widen here.
func (vm *VM) constantOperand(frame *CallFrame, operandPos int) (bytecode.ConstantValue, error) {
	idx := int(frame.Chunk.Code[operandPos])
	if idx >= len(frame.Chunk.Constants) {
		return bytecode.ConstantValue{}, vm.runtimeError(KindMalformedBytecode, "constant index %d out of range (pool holds %d)", idx, len(frame.Chunk.Constants))
	}
	return frame.Chunk.Constants[idx], nil
}

func (vm *VM) push(v value.Value) error {
	if err := vm.stack.Push(v); err != nil {
		return vm.runtimeError(KindStackFault, "%s", err)
	}
	return nil
}

func (vm *VM) binaryOp(op bytecode.Opcode) error {
	b, err := vm.stack.Pop()
	if err != nil {
		return vm.runtimeError(KindStackFault, "%s", err)
	}
	a, err := vm.stack.Pop()
	if err != nil {
		return vm.runtimeError(KindStackFault, "%s", err)
	}

	var res value.Value
	var opErr error
	switch op {
	case bytecode.OpAdd:
		res, opErr = value.Add(a, b)
	case bytecode.OpSub:
		res, opErr = value.Sub(a, b)
	case bytecode.OpMul:
		res, opErr = value.Mul(a, b)
	case bytecode.OpDiv:
		res, opErr = value.Div(a, b)
	case bytecode.OpGT:
		res, opErr = value.GT(a, b)
	case bytecode.OpLT:
		res, opErr = value.LT(a, b)
	case bytecode.OpGTE:
		res, opErr = value.GTE(a, b)
	case bytecode.OpLTE:
		res, opErr = value.LTE(a, b)
	}
	if opErr != nil {
		return vm.wrapArithError(opErr)
	}
	return vm.push(res)
}

func (vm *VM) wrapArithError(err error) error {
	switch {
	case errors.Is(err, value.ErrDivideByZero):
		return vm.runtimeError(KindDivideByZero, "%s", err)
	case errors.Is(err, value.ErrTypeMismatch):
		return vm.runtimeError(KindTypeMismatch, "%s", err)
	default:
		return vm.runtimeError(KindTypeMismatch, "%s", err)
	}
}
