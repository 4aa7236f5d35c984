package trace

import (
	"fmt"
	"strings"

	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/decoder"
)

var regNames = [...]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
}

func regName(r cpu.Reg) string {
	if int(r) >= 0 && int(r) < len(regNames) {
		return regNames[r]
	}
	return "?"
}

func dpMnemonic(op decoder.DPOp) string {
	switch op {
	case decoder.OpAND:
		return "and"
	case decoder.OpEOR:
		return "eor"
	case decoder.OpSUB:
		return "sub"
	case decoder.OpRSB:
		return "rsb"
	case decoder.OpADD:
		return "add"
	case decoder.OpADC:
		return "adc"
	case decoder.OpSBC:
		return "sbc"
	case decoder.OpORR:
		return "orr"
	case decoder.OpMOV:
		return "mov"
	case decoder.OpMVN:
		return "mvn"
	case decoder.OpBIC:
		return "bic"
	case decoder.OpTST:
		return "tst"
	case decoder.OpTEQ:
		return "teq"
	case decoder.OpCMP:
		return "cmp"
	case decoder.OpCMN:
		return "cmn"
	case decoder.OpLSL:
		return "lsl"
	case decoder.OpLSR:
		return "lsr"
	case decoder.OpASR:
		return "asr"
	case decoder.OpROR:
		return "ror"
	case decoder.OpORN:
		return "orn"
	}
	return "?"
}

func widthSuffix(w decoder.Width, signed bool) string {
	switch w {
	case decoder.WidthByte:
		if signed {
			return "sb"
		}
		return "b"
	case decoder.WidthHalf:
		if signed {
			return "sh"
		}
		return "h"
	default:
		return ""
	}
}

func regListString(l decoder.RegList) string {
	var names []string
	for i := 0; i < 16; i++ {
		if l.Has(cpu.Reg(i)) {
			names = append(names, regName(cpu.Reg(i)))
		}
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Disassemble renders a decoded instruction as Thumb assembly text. The
// decoder's tagged Instruction already carries every operand, so this is a
// plain type switch rather than a second operand-extraction pass.
func Disassemble(inst decoder.Instruction) string {
	switch in := inst.(type) {
	case decoder.UDF:
		return fmt.Sprintf("udf #0x%X", in.Opcode)

	case decoder.DPReg:
		mn := dpMnemonic(in.Op)
		switch in.Op {
		case decoder.OpMOV, decoder.OpMVN:
			return fmt.Sprintf("%s %s, %s", mn, regName(in.Rd), regName(in.Rm))
		case decoder.OpTST, decoder.OpTEQ, decoder.OpCMP, decoder.OpCMN:
			return fmt.Sprintf("%s %s, %s", mn, regName(in.Rn), regName(in.Rm))
		default:
			return fmt.Sprintf("%s %s, %s, %s", mn, regName(in.Rd), regName(in.Rn), regName(in.Rm))
		}

	case decoder.DPImm:
		imm, _ := in.Imm.Resolve(false)
		switch in.Op {
		case decoder.OpMOV, decoder.OpMVN:
			return fmt.Sprintf("%s %s, #%d", dpMnemonic(in.Op), regName(in.Rd), imm)
		case decoder.OpTST, decoder.OpTEQ, decoder.OpCMP, decoder.OpCMN:
			return fmt.Sprintf("%s %s, #%d", dpMnemonic(in.Op), regName(in.Rn), imm)
		default:
			return fmt.Sprintf("%s %s, %s, #%d", dpMnemonic(in.Op), regName(in.Rd), regName(in.Rn), imm)
		}

	case decoder.BCond:
		return fmt.Sprintf("b%s #%+d", strings.ToLower(in.Cond.String()), in.Imm32)
	case decoder.B:
		return fmt.Sprintf("b #%+d", in.Imm32)
	case decoder.BL:
		return fmt.Sprintf("bl #%+d", in.Imm32)
	case decoder.BX:
		if in.Link {
			return fmt.Sprintf("blx %s", regName(in.Rm))
		}
		return fmt.Sprintf("bx %s", regName(in.Rm))
	case decoder.CBZNZ:
		mn := "cbz"
		if in.Nonzero {
			mn = "cbnz"
		}
		return fmt.Sprintf("%s %s, #%d", mn, regName(in.Rn), in.Imm32)

	case decoder.LoadStoreImm:
		mn := "str" + widthSuffix(in.Width, in.Signed)
		if in.Load {
			mn = "ldr" + widthSuffix(in.Width, in.Signed)
		}
		return fmt.Sprintf("%s %s, [%s, #%d]", mn, regName(in.Rt), regName(in.Rn), in.Imm32)
	case decoder.LoadStoreReg:
		mn := "str" + widthSuffix(in.Width, in.Signed)
		if in.Load {
			mn = "ldr" + widthSuffix(in.Width, in.Signed)
		}
		return fmt.Sprintf("%s %s, [%s, %s]", mn, regName(in.Rt), regName(in.Rn), regName(in.Rm))
	case decoder.LDRLiteral:
		return fmt.Sprintf("ldr %s, [pc, #%d]", regName(in.Rt), in.Imm32)
	case decoder.LDMSTM:
		mn := "stm"
		if in.Load {
			mn = "ldm"
		}
		if in.Descending {
			mn += "db"
		}
		wb := ""
		if in.Wback {
			wb = "!"
		}
		return fmt.Sprintf("%s %s%s, %s", mn, regName(in.Rn), wb, regListString(in.Registers))

	case decoder.MUL:
		mn := "mul"
		if in.Subtract {
			mn = "mls"
		} else if in.Accumulate {
			mn = "mla"
		}
		if in.Accumulate || in.Subtract {
			return fmt.Sprintf("%s %s, %s, %s, %s", mn, regName(in.Rd), regName(in.Rn), regName(in.Rm), regName(in.Ra))
		}
		return fmt.Sprintf("%s %s, %s, %s", mn, regName(in.Rd), regName(in.Rn), regName(in.Rm))
	case decoder.LongMUL:
		mn := "umull"
		switch {
		case in.Signed && in.Accumulate:
			mn = "smlal"
		case in.Signed:
			mn = "smull"
		case in.Accumulate:
			mn = "umlal"
		}
		return fmt.Sprintf("%s %s, %s, %s, %s", mn, regName(in.RdLo), regName(in.RdHi), regName(in.Rn), regName(in.Rm))
	case decoder.Divide:
		mn := "udiv"
		if in.Signed {
			mn = "sdiv"
		}
		return fmt.Sprintf("%s %s, %s, %s", mn, regName(in.Rd), regName(in.Rn), regName(in.Rm))
	case decoder.CLZ:
		return fmt.Sprintf("clz %s, %s", regName(in.Rd), regName(in.Rm))

	case decoder.Bitfield:
		names := [...]string{"bfi", "bfc", "ubfx", "sbfx"}
		mn := names[in.Op]
		if in.Op == decoder.BFOpBFC {
			return fmt.Sprintf("%s %s, #%d, #%d", mn, regName(in.Rd), in.LSB, in.Width)
		}
		return fmt.Sprintf("%s %s, %s, #%d, #%d", mn, regName(in.Rd), regName(in.Rn), in.LSB, in.Width)
	case decoder.Extend:
		names := [...]string{"uxtb", "uxth", "sxtb", "sxth"}
		return fmt.Sprintf("%s %s, %s", names[in.Op], regName(in.Rd), regName(in.Rm))
	case decoder.Reverse:
		names := [...]string{"rev", "rev16", "revsh"}
		return fmt.Sprintf("%s %s, %s", names[in.Op], regName(in.Rd), regName(in.Rm))

	case decoder.IT:
		return "it"
	case decoder.Hint:
		names := [...]string{"nop", "yield", "wfe", "wfi", "sev", "dmb", "dsb", "isb"}
		return names[in.Op]

	case decoder.MOVT:
		return fmt.Sprintf("movt %s, #0x%04X", regName(in.Rd), in.Imm16)

	case decoder.MRS:
		return fmt.Sprintf("mrs %s, psr", regName(in.Rd))
	case decoder.MSR:
		return fmt.Sprintf("msr psr, %s", regName(in.Rn))

	case decoder.ADR:
		return fmt.Sprintf("adr %s, #%+d", regName(in.Rd), in.Imm32)

	case decoder.BKPT:
		return fmt.Sprintf("bkpt #0x%02X", in.Imm)
	case decoder.SVC:
		return fmt.Sprintf("svc #%d", in.Imm)

	default:
		return "???"
	}
}
