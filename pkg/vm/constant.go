package vm

import (
	"cinder/pkg/bytecode"
	"cinder/pkg/value"
)

// materialize turns a GC-free ConstantValue from a chunk's constant pool
// into a live, possibly heap-allocated Value: scalars come back directly,
// String/Symbol allocate a heap object, and List/Quote recurse, building
// cons cells right-to-left so the last element becomes the innermost cell.
func (vm *VM) materialize(cv bytecode.ConstantValue) (value.Value, error) {
	switch cv.Tag {
	case bytecode.ConstInt:
		return value.Int64(cv.Int), nil
	case bytecode.ConstFloat:
		return value.Flt(cv.Float), nil
	case bytecode.ConstBool:
		return value.Boolean(cv.Bool), nil
	case bytecode.ConstNil:
		return value.Nil(), nil
	case bytecode.ConstString:
		return value.FromObject(vm.heap.Alloc(value.NewString(cv.Str))), nil
	case bytecode.ConstSymbol:
		return value.FromObject(vm.heap.Alloc(value.NewSymbol(cv.Str))), nil
	case bytecode.ConstClosure:
		return value.FromObject(vm.heap.Alloc(value.NewClosure(cv.Closure))), nil
	case bytecode.ConstList:
		return vm.materializeList(cv.List)
	case bytecode.ConstQuote:
		inner, err := vm.materialize(*cv.Quote)
		if err != nil {
			return value.Value{}, err
		}
		return value.Quoted(vm.boxIfScalar(inner)), nil
	default:
		return value.Value{}, vm.runtimeError(KindMalformedBytecode, "unrecognised constant tag %d", cv.Tag)
	}
}

// materializeList builds a cons chain right-to-left: the last element
// becomes the final cell's car with a nil cdr, each earlier element is
// prepended as cons(box(item), previousCell). '(1 2) therefore displays as
// "(1 . (2 . nil))".
func (vm *VM) materializeList(items []bytecode.ConstantValue) (value.Value, error) {
	var tail *value.Object
	for i := len(items) - 1; i >= 0; i-- {
		v, err := vm.materialize(items[i])
		if err != nil {
			return value.Value{}, err
		}
		tail = vm.heap.Alloc(value.NewCons(vm.boxIfScalar(v), tail))
	}
	return value.FromObject(tail), nil
}

// boxIfScalar lifts an inline scalar (int/float/bool/nil) onto the heap so
// it can sit uniformly as a cons cell's car/cdr; object-tagged values pass
// through as the pointer they already are.
func (vm *VM) boxIfScalar(v value.Value) *value.Object {
	if v.Tag == value.TagObject || v.Tag == value.TagQuote {
		return v.Obj
	}
	return vm.heap.Alloc(value.NewBoxed(v))
}
