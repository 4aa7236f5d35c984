package executor

import (
	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/decoder"
)

// shiftOps maps the four ALU "shift by register" ops to their SRType, for
// the register-specified-amount form `LSLS Rdn, Rs` etc (decodeALUReg's
// ShiftReg case).
var shiftOps = map[decoder.DPOp]decoder.SRType{
	decoder.OpLSL: decoder.SRTypeLSL,
	decoder.OpLSR: decoder.SRTypeLSR,
	decoder.OpASR: decoder.SRTypeASR,
	decoder.OpROR: decoder.SRTypeROR,
}

func execDPReg(st *cpu.State, d decoder.DPReg, itActive bool) error {
	carryIn := st.PSR.C

	if d.ShiftReg {
		amount := uint8(st.Get(d.ShiftAmountReg))
		value, carryOut := ShiftC(st.Get(d.Rm), shiftOps[d.Op], amount, carryIn)
		st.Set(d.Rd, value)
		if d.SetFlags.Resolve(itActive) {
			st.PSR.UpdateNZ(value)
			st.PSR.C = carryOut
		}
		return nil
	}

	if _, isShiftMnemonic := shiftOps[d.Op]; isShiftMnemonic {
		value, carryOut := ShiftC(st.Get(d.Rm), shiftOps[d.Op], d.Shift.Amount, carryIn)
		st.Set(d.Rd, value)
		if d.SetFlags.Resolve(itActive) {
			st.PSR.UpdateNZ(value)
			st.PSR.C = carryOut
		}
		return nil
	}

	op2, shiftCarry := ShiftC(st.Get(d.Rm), d.Shift.Type, d.Shift.Amount, carryIn)
	applyDP(st, d.Op, d.Rd, d.Rn, op2, shiftCarry, d.SetFlags.Resolve(itActive))
	return nil
}

func execDPImm(st *cpu.State, d decoder.DPImm, itActive bool) error {
	op2, immCarry := d.Imm.Resolve(st.PSR.C)
	applyDP(st, d.Op, d.Rd, d.Rn, op2, immCarry, d.SetFlags.Resolve(itActive))
	return nil
}

// applyDP implements every data-processing mnemonic against a resolved
// second operand. opCarry is the carry the second operand's computation
// would contribute (from a barrel shift or ThumbExpandImm rotation); it
// feeds C only for the logical family, never the arithmetic family, which
// always derives C/V from AddWithCarry itself.
func applyDP(st *cpu.State, op decoder.DPOp, rd, rn cpu.Reg, op2 uint32, opCarry, setFlags bool) {
	rnVal := st.Get(rn)

	switch op {
	case decoder.OpAND, decoder.OpTST:
		result := rnVal & op2
		if op != decoder.OpTST {
			st.Set(rd, result)
		}
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C = opCarry
		}

	case decoder.OpEOR, decoder.OpTEQ:
		result := rnVal ^ op2
		if op != decoder.OpTEQ {
			st.Set(rd, result)
		}
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C = opCarry
		}

	case decoder.OpORR:
		result := rnVal | op2
		st.Set(rd, result)
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C = opCarry
		}

	case decoder.OpORN:
		result := rnVal | ^op2
		st.Set(rd, result)
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C = opCarry
		}

	case decoder.OpBIC:
		result := rnVal &^ op2
		st.Set(rd, result)
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C = opCarry
		}

	case decoder.OpMOV:
		st.Set(rd, op2)
		if setFlags {
			st.PSR.UpdateNZ(op2)
			st.PSR.C = opCarry
		}

	case decoder.OpMVN:
		result := ^op2
		st.Set(rd, result)
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C = opCarry
		}

	case decoder.OpADD:
		result, c, v := AddWithCarry(rnVal, op2, false)
		st.Set(rd, result)
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C, st.PSR.V = c, v
		}

	case decoder.OpADC:
		result, c, v := AddWithCarry(rnVal, op2, st.PSR.C)
		st.Set(rd, result)
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C, st.PSR.V = c, v
		}

	case decoder.OpSUB, decoder.OpCMP:
		result, c, v := Sub(rnVal, op2, true)
		if op != decoder.OpCMP {
			st.Set(rd, result)
		}
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C, st.PSR.V = c, v
		}

	case decoder.OpSBC:
		result, c, v := Sub(rnVal, op2, st.PSR.C)
		st.Set(rd, result)
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C, st.PSR.V = c, v
		}

	case decoder.OpRSB:
		result, c, v := AddWithCarry(^rnVal, op2, true)
		st.Set(rd, result)
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C, st.PSR.V = c, v
		}

	case decoder.OpCMN:
		result, c, v := AddWithCarry(rnVal, op2, false)
		if setFlags {
			st.PSR.UpdateNZ(result)
			st.PSR.C, st.PSR.V = c, v
		}
	}
}
