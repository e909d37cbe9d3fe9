package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders chunk as a human-readable instruction listing, one
// line per instruction: offset, mnemonic, decoded operand, and (for
// OpConstant) the constant's own String() form. Nested closure templates
// are disassembled recursively and indented under their OP_CLOSURE line.
func Disassemble(chunk *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&b, chunk, offset)
	}
	return b.String()
}

func disassembleInstruction(b *strings.Builder, chunk *Chunk, offset int) int {
	op := Opcode(chunk.Code[offset])
	switch op {
	case OpConstant, OpDeclareGlobal, OpReferenceGlobal:
		idx := chunk.Code[offset+1]
		fmt.Fprintf(b, "%04d %-18s %3d '%s'\n", offset, op, idx, chunk.Constants[idx])
		return offset + 2

	case OpJump, OpCondJump:
		operandPos := offset + 1
		rel := int(chunk.Code[operandPos])
		fmt.Fprintf(b, "%04d %-18s %3d -> %04d\n", offset, op, rel, operandPos+rel)
		return offset + 2

	case OpFuncCall, OpReferenceLocal, OpSetLocal, OpDefine, OpReferenceUpvalue, OpSetUpvalue:
		operand := chunk.Code[offset+1]
		fmt.Fprintf(b, "%04d %-18s %3d\n", offset, op, operand)
		return offset + 2

	case OpClosure:
		idx := chunk.Code[offset+1]
		constant := chunk.Constants[idx]
		fmt.Fprintf(b, "%04d %-18s %3d '%s'\n", offset, op, idx, constant)
		next := offset + 2
		if constant.Tag == ConstClosure {
			for i := 0; i < len(constant.Closure.UpvalueCaptures); i++ {
				capture := chunk.Code[next]
				index := chunk.Code[next+1]
				kind := "upvalue"
				if CaptureType(capture) == CaptureLocal {
					kind = "local"
				}
				fmt.Fprintf(b, "%04d      | %-12s %3d\n", next, kind, index)
				next += 2
			}
			fmt.Fprintf(b, "-- closure body: %s --\n", constant.Closure.Name)
			nested := Disassemble(constant.Closure.Chunk, constant.Closure.Name)
			for _, line := range strings.Split(strings.TrimRight(nested, "\n"), "\n")[1:] {
				fmt.Fprintf(b, "    %s\n", line)
			}
		}
		return next

	default:
		fmt.Fprintf(b, "%04d %-18s\n", offset, op)
		return offset + 1
	}
}
