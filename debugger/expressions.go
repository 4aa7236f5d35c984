package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arm-cm/cmsim/cpu"
)

// regAliases maps the names a user types at the debugger prompt to Reg,
// accepting the r0..r15 forms alongside the architectural aliases.
var regAliases = map[string]cpu.Reg{
	"r0": cpu.R0, "r1": cpu.R1, "r2": cpu.R2, "r3": cpu.R3,
	"r4": cpu.R4, "r5": cpu.R5, "r6": cpu.R6, "r7": cpu.R7,
	"r8": cpu.R8, "r9": cpu.R9, "r10": cpu.R10, "r11": cpu.R11,
	"r12": cpu.R12, "r13": cpu.SP, "r14": cpu.LR, "r15": cpu.PC,
	"sp": cpu.SP, "lr": cpu.LR, "pc": cpu.PC,
}

// Evaluator resolves breakpoint/watchpoint condition expressions against
// live processor state: register names, hex/decimal immediates, and
// symbol names, combined with comparison and arithmetic operators. The
// grammar is a single binary operation, which is all a breakpoint or
// watchpoint condition needs.
type Evaluator struct {
	Symbols map[string]uint32
}

func NewEvaluator() *Evaluator {
	return &Evaluator{Symbols: make(map[string]uint32)}
}

var compareOps = []string{"==", "!=", ">=", "<=", ">", "<"}
var arithOps = []string{"+", "-", "&", "|", "^", "<<", ">>"}

// EvaluateBool evaluates a watchpoint/breakpoint condition expression
// ("r0 == 5", "sp < 0x20001000") against st, reporting whether the
// condition currently holds.
func (e *Evaluator) EvaluateBool(expr string, st *cpu.State) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}
	for _, op := range compareOps {
		if lhs, rhs, ok := splitOnce(expr, op); ok {
			l, err := e.evaluateValue(lhs, st)
			if err != nil {
				return false, err
			}
			r, err := e.evaluateValue(rhs, st)
			if err != nil {
				return false, err
			}
			return compare(op, l, r), nil
		}
	}
	v, err := e.evaluateValue(expr, st)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func compare(op string, l, r uint32) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case ">=":
		return l >= r
	case "<=":
		return l <= r
	case ">":
		return l > r
	default:
		return l < r
	}
}

func splitOnce(s, sep string) (string, string, bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+len(sep):], true
}

// evaluateValue resolves a single scalar term or a two-operand arithmetic
// expression to its 32-bit value.
func (e *Evaluator) evaluateValue(expr string, st *cpu.State) (uint32, error) {
	expr = strings.TrimSpace(expr)
	for _, op := range arithOps {
		if lhs, rhs, ok := splitOnce(expr, op); ok && lhs != "" {
			l, err := e.atom(strings.TrimSpace(lhs), st)
			if err != nil {
				continue
			}
			r, err := e.atom(strings.TrimSpace(rhs), st)
			if err != nil {
				continue
			}
			return arith(op, l, r), nil
		}
	}
	return e.atom(expr, st)
}

func arith(op string, l, r uint32) uint32 {
	switch op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "&":
		return l & r
	case "|":
		return l | r
	case "^":
		return l ^ r
	case "<<":
		return l << (r & 31)
	default:
		return l >> (r & 31)
	}
}

func (e *Evaluator) atom(tok string, st *cpu.State) (uint32, error) {
	tok = strings.ToLower(strings.TrimSpace(tok))
	if r, ok := regAliases[tok]; ok {
		return st.Get(r), nil
	}
	if addr, ok := e.Symbols[tok]; ok {
		return addr, nil
	}
	if strings.HasPrefix(tok, "0x") {
		v, err := strconv.ParseUint(tok[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid hex literal %q", tok)
		}
		return uint32(v), nil
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot evaluate %q", tok)
	}
	return uint32(v), nil
}
