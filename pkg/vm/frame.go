package vm

import (
	"cinder/pkg/bytecode"
	"cinder/pkg/value"
)

// CallFrame is one activation record on the VM's call stack. StartIdx is
// the absolute stack index of the callable itself (closure or builtin),
// one below the first argument. Locals (args followed by true locals)
// occupy StartIdx+1 .. StartIdx+NumLocals, so a compiler-assigned local
// slot s (0-based, slot 0 is the first argument) is addressed at the
// absolute stack index StartIdx+1+s, the same convention OP_CLOSURE uses
// to capture an enclosing local.
type CallFrame struct {
	Closure  *value.Object // nil for the synthetic top-level frame
	Chunk    *bytecode.Chunk
	IP       int
	StartIdx int
	Name     string
}

func (f *CallFrame) localIndex(slot int) int {
	return f.StartIdx + 1 + slot
}
