package bytecode

import "fmt"

// ConstantTag discriminates the variants of ConstantValue.
type ConstantTag byte

const (
	ConstInt ConstantTag = iota
	ConstFloat
	ConstBool
	ConstNil
	ConstString
	ConstSymbol
	ConstClosure
	ConstList
	ConstQuote
)

// ConstantValue is a GC-free mirror of a runtime value that can live in a
// Chunk's constant pool. It never touches the heap: materializing one into
// a live value.Value (allocating String/Symbol/Closure/ConsCell heap
// objects as needed) is pkg/vm's job, not this package's. Keeping the
// constant pool heap-free means a Chunk is plain data: copyable, testable,
// and disassemblable without a running VM or heap.
type ConstantValue struct {
	Tag ConstantTag

	Int   int64
	Float float64
	Bool  bool
	Str   string // also used for ConstSymbol

	// Closure is populated when Tag == ConstClosure.
	Closure *FunctionTemplate

	// List holds element constants when Tag == ConstList.
	List []ConstantValue

	// Quote holds the quoted form when Tag == ConstQuote. The compiler
	// reserves this wrapper for quoted symbols: quoted lists compile to
	// a plain ConstList and quoted literals to themselves, so only a
	// symbol needs a marker distinguishing datum from variable reference.
	Quote *ConstantValue
}

func (c ConstantValue) String() string {
	switch c.Tag {
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("%g", c.Float)
	case ConstBool:
		return fmt.Sprintf("%t", c.Bool)
	case ConstNil:
		return "nil"
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	case ConstSymbol:
		return c.Str
	case ConstClosure:
		return fmt.Sprintf("closure %s", c.Closure.Name)
	case ConstList:
		return fmt.Sprintf("list[%d]", len(c.List))
	case ConstQuote:
		return "'" + c.Quote.String()
	default:
		return "<unknown constant>"
	}
}

// UpvalueCapture describes one slot of a closure template's upvalue list:
// where OP_CLOSURE should source its value from at closure-construction
// time.
type UpvalueCapture struct {
	// FromLocal is true for CaptureLocal (a slot of the frame currently
	// running the enclosing OP_CLOSURE), false for CaptureUpvalue (an
	// upvalue already held by that frame's own closure).
	FromLocal bool
	Index     byte
}

// FunctionTemplate is the compile-time description of a lambda: its own
// code chunk plus everything OP_CLOSURE needs to build a runtime closure
// from it. It is itself embedded in a ConstantValue (ConstClosure) so that
// nested lambdas travel through the constant pool of their enclosing chunk.
type FunctionTemplate struct {
	Name            string
	Arity           int
	NumLocals       int
	UpvalueCaptures []UpvalueCapture
	Chunk           *Chunk
}

// Chunk is a compiled unit of bytecode: a flat instruction stream plus the
// constant pool it indexes into. Top-level programs and every lambda body
// each get their own Chunk.
type Chunk struct {
	Code      []byte
	Constants []ConstantValue
}

// NewChunk returns an empty chunk ready for emission.
func NewChunk() *Chunk {
	return &Chunk{}
}

// AddConstant appends v to the constant pool and returns its index,
// enforcing the 256-constant ceiling a one-byte operand implies. A chunk
// that outgrows this would need the operand encoding widened to two
// bytes; nothing here does.
func (c *Chunk) AddConstant(v ConstantValue) (byte, error) {
	if len(c.Constants) >= 256 {
		return 0, fmt.Errorf("constant pool overflow: chunk already holds 256 constants")
	}
	c.Constants = append(c.Constants, v)
	return byte(len(c.Constants) - 1), nil
}

// Emit appends an opcode with no operand and returns the index of the
// opcode byte just written.
func (c *Chunk) Emit(op Opcode) int {
	pos := len(c.Code)
	c.Code = append(c.Code, byte(op))
	return pos
}

// EmitByte appends an opcode followed by a single operand byte and returns
// the index of the operand byte, the position callers patch for jumps.
func (c *Chunk) EmitByte(op Opcode, operand byte) int {
	c.Code = append(c.Code, byte(op), operand)
	return len(c.Code) - 1
}

// EmitJump appends a Jump or CondJump opcode with a placeholder operand
// byte and returns the operand byte's position, for a later PatchJump call.
func (c *Chunk) EmitJump(op Opcode) int {
	return c.EmitByte(op, 0xFF)
}

// PatchJump backfills the operand byte at operandPos so that the jump
// lands exactly on targetOpcodePos once executed.
//
// The offset convention: by the time a jump handler computes its
// destination, the instruction pointer has been advanced onto the operand
// byte itself (consuming it), not past it. So "ip += offset" lands at
// operandPos + offset, which must equal targetOpcodePos, giving
// offset = targetOpcodePos - operandPos.
func (c *Chunk) PatchJump(operandPos, targetOpcodePos int) error {
	offset := targetOpcodePos - operandPos
	if offset < 0 || offset > 0xFF {
		return fmt.Errorf("jump offset %d out of range for a 1-byte operand (from %d to %d)", offset, operandPos, targetOpcodePos)
	}
	c.Code[operandPos] = byte(offset)
	return nil
}

// Here returns the position the next-emitted opcode byte will occupy.
func (c *Chunk) Here() int {
	return len(c.Code)
}
