package cpu

import "fmt"

// RegNames maps register numbers to their ABI names, used for disassembly
// and monitor output.
var RegNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// Disassemble renders one instruction word as assembly text. Words that do
// not decode to a known instruction render as a raw .word literal, which is
// also how interleaved data shows up.
func Disassemble(word uint32) string {
	opcode := word & 0x7F
	rd := (word >> 7) & 0x1F
	funct3 := (word >> 12) & 0x7
	rs1 := (word >> 15) & 0x1F
	rs2 := (word >> 20) & 0x1F
	funct7 := (word >> 25) & 0x7F

	switch opcode {
	case OpcodeLui:
		return fmt.Sprintf("lui %s, 0x%X", RegNames[rd], word>>12)
	case OpcodeOpImm:
		if funct3 == 0 {
			imm := int32(word) >> 20
			return fmt.Sprintf("addi %s, %s, %d", RegNames[rd], RegNames[rs1], imm)
		}
	case OpcodeOp:
		if funct3 == 0 {
			switch funct7 {
			case 0x00:
				return fmt.Sprintf("add %s, %s, %s", RegNames[rd], RegNames[rs1], RegNames[rs2])
			case 0x20:
				return fmt.Sprintf("sub %s, %s, %s", RegNames[rd], RegNames[rs1], RegNames[rs2])
			}
		}
	}
	return fmt.Sprintf(".word 0x%08X", word)
}
