// Package cpu executes flat RV32 machine code produced by pkg/asm: 4-byte
// little-endian words fetched at the program counter, decoded by
// opcode/funct3/funct7 fields.
package cpu

import "fmt"

// RISC-V base opcodes understood by the machine.
const (
	OpcodeLui   = 0b0110111
	OpcodeOpImm = 0b0010011
	OpcodeOp    = 0b0110011
)

// CPU is the machine state: program counter, 32 general-purpose registers
// (x0 hardwired to zero), and flat byte memory holding code and data.
type CPU struct {
	PC   uint32
	Regs [32]uint32
	Mem  []byte
}

// New builds a machine with the program loaded at address 0. Memory is
// grown to memSize when the program is smaller.
func New(program []byte, memSize int) *CPU {
	mem := make([]byte, max(len(program), memSize))
	copy(mem, program)
	return &CPU{Mem: mem}
}

// Fetch reads the 4-byte little-endian word at PC.
func (c *CPU) Fetch() (uint32, error) {
	i := int(c.PC)
	if i < 0 || i+4 > len(c.Mem) {
		return 0, fmt.Errorf("fetch at 0x%08X outside memory (size %d)", c.PC, len(c.Mem))
	}
	return uint32(c.Mem[i]) | uint32(c.Mem[i+1])<<8 | uint32(c.Mem[i+2])<<16 | uint32(c.Mem[i+3])<<24, nil
}

// Step fetches, advances PC by 4, and executes one instruction.
func (c *CPU) Step() error {
	word, err := c.Fetch()
	if err != nil {
		return err
	}
	c.PC += 4
	c.Regs[0] = 0
	if err := c.execute(word); err != nil {
		return err
	}
	c.Regs[0] = 0
	return nil
}

// Run steps until PC walks off the end of memory or maxSteps instructions
// have executed. maxSteps guards against runaway programs; <= 0 means no
// limit.
func (c *CPU) Run(maxSteps int) error {
	steps := 0
	for int(c.PC)+4 <= len(c.Mem) {
		if err := c.Step(); err != nil {
			return err
		}
		steps++
		if maxSteps > 0 && steps >= maxSteps {
			return fmt.Errorf("step limit %d reached at PC 0x%08X", maxSteps, c.PC)
		}
	}
	return nil
}

func (c *CPU) execute(word uint32) error {
	opcode := word & 0x7F
	rd := (word >> 7) & 0x1F
	funct3 := (word >> 12) & 0x7
	rs1 := (word >> 15) & 0x1F
	rs2 := (word >> 20) & 0x1F
	funct7 := (word >> 25) & 0x7F

	switch opcode {
	case OpcodeLui:
		c.Regs[rd] = word & 0xFFFFF000
	case OpcodeOpImm:
		if funct3 != 0 {
			return fmt.Errorf("unimplemented I-type funct3 %#x in word 0x%08X", funct3, word)
		}
		imm := uint32(int32(word) >> 20) // sign-extended 12-bit immediate
		c.Regs[rd] = c.Regs[rs1] + imm
	case OpcodeOp:
		switch funct3 {
		case 0x0:
			switch funct7 {
			case 0x00:
				c.Regs[rd] = c.Regs[rs1] + c.Regs[rs2]
			case 0x20:
				c.Regs[rd] = c.Regs[rs1] - c.Regs[rs2]
			default:
				return fmt.Errorf("unimplemented R-type funct7 %#x in word 0x%08X", funct7, word)
			}
		case 0x4:
			c.Regs[rd] = c.Regs[rs1] ^ c.Regs[rs2]
		case 0x6:
			c.Regs[rd] = c.Regs[rs1] | c.Regs[rs2]
		case 0x7:
			c.Regs[rd] = c.Regs[rs1] & c.Regs[rs2]
		default:
			return fmt.Errorf("unimplemented R-type funct3 %#x in word 0x%08X", funct3, word)
		}
	default:
		return fmt.Errorf("unknown opcode %#07b in word 0x%08X", opcode, word)
	}
	return nil
}
