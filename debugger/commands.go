package debugger

import (
	"fmt"
	"strconv"
	"strings"
)

// Execute parses and runs one debugger command line. The command surface
// is a small fixed set, so a single dispatcher beats per-verb handler
// registration.
func Execute(d *Debugger, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "step", "s":
		return d.StepOne()

	case "continue", "c":
		budget := uint64(0)
		if len(args) > 0 {
			if n, err := strconv.ParseUint(args[0], 10, 64); err == nil {
				budget = n
			}
		}
		return d.Continue(budget)

	case "break", "b":
		return cmdBreak(d, args)

	case "delete", "d":
		return cmdDelete(d, args)

	case "watch", "w":
		if len(args) == 0 {
			return "", fmt.Errorf("usage: watch <expr>")
		}
		wp := d.Watchpoints.Add(strings.Join(args, " "))
		return fmt.Sprintf("watchpoint #%d on %q", wp.ID, wp.Expression), nil

	case "info":
		return cmdInfo(d, args)

	case "print", "p":
		if len(args) == 0 {
			return "", fmt.Errorf("usage: print <expr>")
		}
		v, err := d.Eval.evaluateValue(strings.Join(args, " "), d.Sim.CPU)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("= 0x%08X (%d)", v, v), nil

	case "help", "?":
		return "commands: step, continue, break ADDR, delete ID, watch EXPR, info registers|breakpoints, print EXPR", nil

	default:
		return "", fmt.Errorf("unknown command %q (try 'help')", verb)
	}
}

func cmdBreak(d *Debugger, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: break <address|label>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return "", err
	}
	var condition string
	if len(args) > 2 && strings.ToLower(args[1]) == "if" {
		condition = strings.Join(args[2:], " ")
	}
	bp := d.Breakpoints.Add(addr, false, condition)
	return fmt.Sprintf("breakpoint #%d at 0x%08X", bp.ID, bp.Address), nil
}

func cmdDelete(d *Debugger, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: delete <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid breakpoint id %q", args[0])
	}
	if err := d.Breakpoints.Delete(id); err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted breakpoint #%d", id), nil
}

func cmdInfo(d *Debugger, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: info registers|breakpoints")
	}
	switch args[0] {
	case "registers", "reg":
		return strings.Join(d.RegisterDump(), "\n"), nil
	case "breakpoints", "break":
		var b strings.Builder
		for _, bp := range d.Breakpoints.All() {
			fmt.Fprintf(&b, "#%d 0x%08X hits=%d\n", bp.ID, bp.Address, bp.HitCount)
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("unknown info topic %q", args[0])
	}
}
