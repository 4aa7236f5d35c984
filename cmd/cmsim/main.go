// Command cmsim is the CLI entry point for the Cortex-M instruction set
// simulator: `run <ELF>` executes an image to completion, `devices` lists
// the built-in device profiles.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/arm-cm/cmsim/bus"
	"github.com/arm-cm/cmsim/config"
	"github.com/arm-cm/cmsim/debugger"
	"github.com/arm-cm/cmsim/loader"
	"github.com/arm-cm/cmsim/semihost"
	"github.com/arm-cm/cmsim/sim"
	"github.com/arm-cm/cmsim/trace"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runCommand(os.Args[2:]))
	case "devices":
		devicesCommand()
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "cmsim: unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage:
  cmsim run <executable.elf> [--device NAME] [--trace] [--max_instructions N] [--trace_start N] [--debug]
  cmsim devices`)
}

func devicesCommand() {
	fmt.Println("available devices:")
	fmt.Println("  cortex-m0   ARMv6-M, Thumb-only (default)")
	fmt.Println("  cortex-m4   ARMv7-M hooks, Thumb-2 (partial)")
}

func runCommand(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	device := fs.String("device", "cortex-m0", "device profile (see `cmsim devices`)")
	enableTrace := fs.Bool("trace", false, "print a trace line for every retired instruction")
	maxInstructions := fs.Uint64("max_instructions", 0, "instruction budget (0 = the configured default of 100,000,000)")
	traceStart := fs.Uint64("trace_start", 0, "first instruction count to start tracing at")
	fsRoot := fs.String("fsroot", "", "semihosting filesystem root (default: current directory)")
	debugMode := fs.Bool("debug", false, "start the interactive TUI debugger instead of running to completion")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		printUsage()
		return 1
	}
	elfPath := fs.Arg(0)

	cfg := config.DefaultConfig()
	cfg.Device.Name = *device
	if *maxInstructions != 0 {
		cfg.Execution.MaxInstructions = *maxInstructions
	}

	flash := bus.NewFlash(cfg.Device.FlashBase, make([]byte, cfg.Device.FlashSize))
	ram := bus.NewRAM(cfg.Device.RAMBase, cfg.Device.RAMSize)
	matrix := bus.NewMatrix(bus.Internal{}, flash, ram)

	image, err := loader.Load(elfPath, matrix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cmsim: %v\n", err)
		return 1
	}

	root := *fsRoot
	if root == "" {
		root, _ = os.Getwd()
	}
	handler := semihost.NewDefaultHandler(root)

	s := sim.New(matrix, handler)
	if err := s.Reset(); err != nil {
		fmt.Fprintf(os.Stderr, "cmsim: %v\n", err)
		return 1
	}

	if *debugMode {
		dbg := debugger.New(s)
		symbols := make(map[string]uint32, len(image.Symbols))
		for _, sym := range image.Symbols {
			symbols[sym.Name] = sym.Value
		}
		dbg.LoadSymbols(symbols)
		tui := debugger.NewTUI(dbg)
		if err := tui.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "cmsim: debugger error: %v\n", err)
			return 1
		}
		return 0
	}

	if *enableTrace {
		tw := trace.NewWriter(s.CPU, os.Stdout)
		tw.StartAt = *traceStart
		s.Sink = tw
		defer tw.Flush()
	}

	start := time.Now()
	result := s.Run(cfg.Execution.MaxInstructions)
	elapsed := time.Since(start)

	if result.Err != nil {
		fmt.Fprintf(os.Stderr, "cmsim: fault at PC=0x%08X: %v\n", s.CPU.RawPC(), result.Err)
		return 1
	}

	fmt.Printf("instructions retired: %d\n", result.Instructions)
	if result.Instructions > 0 {
		ips := float64(result.Instructions) / elapsed.Seconds()
		fmt.Printf("wall time: %v (%.0f instructions/sec)\n", elapsed, ips)
	}
	return int(result.ExitCode)
}
