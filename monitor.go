package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"rvasm/pkg/cpu"
)

// runMonitor single-steps the machine with the terminal in raw mode.
// Space or Enter executes the instruction at PC, 'r' dumps the registers,
// 'q' quits. Raw mode disables OS-level line buffering so each keypress
// acts immediately; output uses \r\n explicitly for the same reason.
func runMonitor(vm *cpu.CPU, programEnd uint32, sourceMap map[uint32]int) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	fmt.Print("monitor: space/enter = step, r = registers, q = quit\r\n")

	buf := make([]byte, 1)
	for vm.PC+4 <= programEnd {
		word, err := vm.Fetch()
		if err != nil {
			return err
		}
		line := ""
		if srcLine, ok := sourceMap[vm.PC]; ok {
			line = fmt.Sprintf("  (line %d)", srcLine)
		}
		fmt.Printf("0x%08X  %-28s%s\r\n", vm.PC, cpu.Disassemble(word), line)

		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}
		switch buf[0] {
		case 'q', 0x03: // q or Ctrl-C
			return nil
		case 'r':
			printRegisters(vm)
		default:
			if err := vm.Step(); err != nil {
				return err
			}
		}
	}
	fmt.Print("program complete\r\n")
	printRegisters(vm)
	return nil
}

func printRegisters(vm *cpu.CPU) {
	for i := 0; i < 32; i += 4 {
		fmt.Printf("%4s=0x%08X %4s=0x%08X %4s=0x%08X %4s=0x%08X\r\n",
			cpu.RegNames[i], vm.Regs[i],
			cpu.RegNames[i+1], vm.Regs[i+1],
			cpu.RegNames[i+2], vm.Regs[i+2],
			cpu.RegNames[i+3], vm.Regs[i+3])
	}
}
