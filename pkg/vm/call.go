package vm

import (
	"cinder/pkg/bytecode"
	"cinder/pkg/value"
)

// call invokes the callable sitting arity slots back on the stack. A
// closure pushes a new CallFrame and keeps executing; a builtin runs to
// completion immediately and leaves its result in the callee's former
// slot. Builtins never appear in a stack trace because they never push a
// frame.
func (vm *VM) call(arity int) error {
	calleeVal, err := vm.stack.PeekBack(arity)
	if err != nil {
		return vm.runtimeError(KindStackFault, "%s", err)
	}
	if calleeVal.Tag != value.TagObject || calleeVal.Obj == nil {
		return vm.runtimeError(KindNotCallable, "%s is not callable", calleeVal.TypeName())
	}

	obj := calleeVal.Obj
	switch obj.Kind {
	case value.KindClosure:
		tmpl := obj.Template
		if tmpl.Arity != arity {
			return vm.runtimeError(KindArityMismatch, "%s expects %d argument(s), got %d", tmpl.Name, tmpl.Arity, arity)
		}
		startIdx := vm.stack.Ptr() - arity
		if extra := tmpl.NumLocals - arity; extra > 0 {
			if err := vm.stack.Grow(extra); err != nil {
				return vm.runtimeError(KindStackFault, "%s", err)
			}
		}
		vm.frames = append(vm.frames, &CallFrame{
			Closure:  obj,
			Chunk:    tmpl.Chunk,
			StartIdx: startIdx,
			Name:     tmpl.Name,
		})
		return nil

	case value.KindBuiltin:
		args, err := vm.stack.PopN(arity)
		if err != nil {
			return vm.runtimeError(KindStackFault, "%s", err)
		}
		if _, err := vm.stack.Pop(); err != nil { // discard the callable itself
			return vm.runtimeError(KindStackFault, "%s", err)
		}
		result, err := obj.Builtin(args)
		if err != nil {
			return vm.runtimeError(KindBuiltinError, "%s", err)
		}
		return vm.push(result)

	default:
		return vm.runtimeError(KindNotCallable, "%s is not callable", obj.Kind)
	}
}

// doReturn pops the current frame: closes any upvalues still open over its
// locals, unwinds its callable/args/locals from the stack, and leaves the
// return value in the callable's former slot.
func (vm *VM) doReturn() error {
	frame := vm.frames[len(vm.frames)-1]
	retVal, err := vm.stack.Pop()
	if err != nil {
		return vm.runtimeError(KindStackFault, "%s", err)
	}
	vm.closeUpvalues(frame.StartIdx)
	vm.stack.Truncate(frame.StartIdx - 1)
	vm.frames = vm.frames[:len(vm.frames)-1]
	return vm.push(retVal)
}

// handleClosure executes OP_CLOSURE and returns the instruction pointer
// value the caller should resume at (OP_CLOSURE's length varies with its
// upvalue count, so it reports its own successor rather than a fixed
// increment). A CaptureLocal descriptor closes over the enclosing frame's
// own local slot; a CaptureUpvalue descriptor reuses an upvalue the
// enclosing frame's own closure already holds.
func (vm *VM) handleClosure(frame *CallFrame) (int, error) {
	constant, err := vm.constantOperand(frame, frame.IP+1)
	if err != nil {
		return 0, err
	}
	if constant.Tag != bytecode.ConstClosure {
		return 0, vm.runtimeError(KindMalformedBytecode, "OP_CLOSURE constant is not a closure template")
	}

	closureObj := vm.heap.Alloc(value.NewClosure(constant.Closure))
	pos := frame.IP + 2
	for i := range closureObj.Upvalues {
		captureType := bytecode.CaptureType(frame.Chunk.Code[pos])
		captureIndex := int(frame.Chunk.Code[pos+1])
		if captureType == bytecode.CaptureLocal {
			closureObj.Upvalues[i] = vm.captureUpvalue(frame.localIndex(captureIndex))
		} else {
			closureObj.Upvalues[i] = frame.Closure.Upvalues[captureIndex]
		}
		pos += 2
	}

	if err := vm.push(value.FromObject(closureObj)); err != nil {
		return 0, err
	}
	return pos, nil
}
