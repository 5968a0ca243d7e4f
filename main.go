package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rvasm/pkg/asm"
	"rvasm/pkg/cpu"
)

func main() {
	inPath := flag.String("in", "", "input assembly file path")
	outPath := flag.String("out", "", "output binary file path (default: input with .bin extension)")
	runProgram := flag.Bool("run", false, "run the assembled binary on the virtual CPU")
	runBinPath := flag.String("run-bin", "", "run an existing binary file on the virtual CPU")
	stepProgram := flag.Bool("step", false, "single-step the program in the interactive monitor")
	memSize := flag.Int("mem", 64*1024, "machine memory size in bytes")
	maxSteps := flag.Int("steps", 1_000_000, "instruction limit when running (0 = unlimited)")
	flag.Parse()

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	assembledOutput := ""
	var sourceMap map[uint32]int
	if *inPath != "" {
		source, err := os.ReadFile(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
			os.Exit(1)
		}

		var code []byte
		code, sourceMap, err = asm.Assemble(string(source))
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembly failed: %v\n", err)
			os.Exit(1)
		}

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}

		if err := os.WriteFile(output, code, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write binary file %q: %v\n", output, err)
			os.Exit(1)
		}

		fmt.Printf("assembled %d bytes -> %s\n", len(code), output)
		assembledOutput = output
	}

	if *inPath == "" && *runBinPath == "" && !*runProgram && !*stepProgram {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble, -run/-step to execute assembled output, or -run-bin <file> to run an existing binary")
		flag.Usage()
		os.Exit(2)
	}

	runTarget := ""
	switch {
	case *runBinPath != "":
		runTarget = *runBinPath
	case *runProgram || *stepProgram:
		if assembledOutput == "" {
			fmt.Fprintln(os.Stderr, "-run and -step require -in, or use -run-bin <file>")
			os.Exit(2)
		}
		runTarget = assembledOutput
	default:
		return
	}

	program, err := os.ReadFile(runTarget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read binary %q: %v\n", runTarget, err)
		os.Exit(1)
	}

	vm := cpu.New(program, *memSize)
	if *stepProgram {
		if err := runMonitor(vm, uint32(len(program)), sourceMap); err != nil {
			fmt.Fprintf(os.Stderr, "monitor failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runToEnd(vm, uint32(len(program)), *maxSteps); err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", runTarget, err)
		os.Exit(1)
	}

	fmt.Printf("run complete (%s): PC=0x%08X a0=0x%08X a1=0x%08X t0=0x%08X t1=0x%08X\n",
		runTarget, vm.PC, vm.Regs[10], vm.Regs[11], vm.Regs[5], vm.Regs[6])
}

// runToEnd executes until PC walks past the loaded program, so trailing data
// sections are not fetched as instructions.
func runToEnd(vm *cpu.CPU, programEnd uint32, maxSteps int) error {
	steps := 0
	for vm.PC+4 <= programEnd {
		if err := vm.Step(); err != nil {
			return err
		}
		steps++
		if maxSteps > 0 && steps >= maxSteps {
			return fmt.Errorf("step limit %d reached at PC 0x%08X", maxSteps, vm.PC)
		}
	}
	return nil
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".bin"
	}
	return strings.TrimSuffix(inPath, ext) + ".bin"
}
