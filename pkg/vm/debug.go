package vm

import (
	"cinder/pkg/value"

	"github.com/kr/pretty"
)

// frameSnapshot is the pretty-printable projection of a CallFrame, leaving
// out the Chunk (too large to be useful in a dump).
type frameSnapshot struct {
	Name     string
	IP       int
	StartIdx int
}

// snapshot is what --trace renders on a runtime error: enough state to
// reconstruct what the VM was doing without a debugger attached.
type snapshot struct {
	Stack   []value.Value
	Globals map[string]value.Value
	Frames  []frameSnapshot
	HeapLen int
}

// Dump renders the VM's current state with kr/pretty rather than a
// hand-rolled %+v walk.
func (vm *VM) Dump() string {
	frames := make([]frameSnapshot, len(vm.frames))
	for i, f := range vm.frames {
		frames[i] = frameSnapshot{Name: f.Name, IP: f.IP, StartIdx: f.StartIdx}
	}
	s := snapshot{
		Stack:   vm.liveStack(),
		Globals: vm.globals,
		Frames:  frames,
		HeapLen: vm.heap.Count(),
	}
	return pretty.Sprint(s)
}

func (vm *VM) liveStack() []value.Value {
	out := make([]value.Value, 0, vm.stack.Len())
	for i := 0; i <= vm.stack.Ptr(); i++ {
		v, _ := vm.stack.At(i)
		out = append(out, v)
	}
	return out
}
