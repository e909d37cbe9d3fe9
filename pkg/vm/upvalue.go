package vm

import "cinder/pkg/value"

// captureUpvalue finds-or-creates the UpValue object for the live stack
// slot at the given absolute index. The open-upvalue list is kept ordered
// by descending StackIndex purely so the scan can stop early; sibling
// closures capturing the same still-open local get back the same
// *value.Object, which is exactly what makes shared mutable capture work.
func (vm *VM) captureUpvalue(index int) *value.Object {
	var prev *value.Object
	cur := vm.openUpvalues
	for cur != nil && cur.StackIndex > index {
		prev = cur
		cur = cur.OpenNext
	}
	if cur != nil && cur.StackIndex == index {
		return cur
	}
	fresh := vm.heap.Alloc(value.NewOpenUpvalue(vm.stack.AtPtr(index), index))
	fresh.OpenNext = cur
	if prev == nil {
		vm.openUpvalues = fresh
	} else {
		prev.OpenNext = fresh
	}
	return fresh
}

// closeUpvalues closes every open upvalue whose stack slot is at or above
// boundary, the one-way transition that must happen before a frame's
// locals are discarded on return.
func (vm *VM) closeUpvalues(boundary int) {
	for vm.openUpvalues != nil && vm.openUpvalues.StackIndex >= boundary {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.OpenNext
	}
}
