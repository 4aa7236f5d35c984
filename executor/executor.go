package executor

import (
	"math/bits"

	"github.com/arm-cm/cmsim/bus"
	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/decoder"
	"github.com/arm-cm/cmsim/semihost"
)

// SemihostTrapOpcode is the BKPT immediate the ARM semihosting ABI
// reserves: `BKPT 0xAB`.
const SemihostTrapOpcode = 0xAB

// Execute dispatches on the decoded instruction, mutating st and issuing bus
// transactions against mem. pc is the address the instruction was fetched
// from (not yet advanced). sh services semihosting traps; it may be nil if
// the guest is known never to invoke BKPT 0xAB.
//
// Execute does not advance PC by the instruction's size or advance IT
// state (it only installs a fresh one for IT itself). Those are the run
// loop's job; it compares st.RawPC() before and
// after this call to tell whether the instruction itself wrote PC (a
// branch) or left that to the normal size-based advance.
func Execute(st *cpu.State, mem bus.Bus, pc uint32, inst decoder.Instruction, sh semihost.Handler) error {
	cond := conditionFor(st, inst)
	if !st.PSR.Passed(cond) {
		return nil
	}

	itActive := st.PSR.IT().Active()

	switch in := inst.(type) {
	case decoder.UDF:
		return &UndefinedInstructionError{Opcode: in.Opcode, PC: pc}

	case decoder.DPReg:
		return execDPReg(st, in, itActive)
	case decoder.DPImm:
		return execDPImm(st, in, itActive)

	case decoder.BCond:
		st.Set(cpu.PC, uint32(int32(st.Get(cpu.PC))+in.Imm32))
		return nil
	case decoder.B:
		st.Set(cpu.PC, uint32(int32(st.Get(cpu.PC))+in.Imm32))
		return nil
	case decoder.BL:
		next := st.Get(cpu.PC)
		st.Set(cpu.LR, next|1)
		st.Set(cpu.PC, uint32(int32(next)+in.Imm32))
		return nil
	case decoder.BX:
		return execBX(st, pc, in)
	case decoder.CBZNZ:
		taken := in.Nonzero == (st.Get(in.Rn) != 0)
		if taken {
			st.Set(cpu.PC, st.Get(cpu.PC)+in.Imm32)
		}
		return nil

	case decoder.LoadStoreImm:
		return execLoadStoreImm(st, mem, in)
	case decoder.LoadStoreReg:
		return execLoadStoreReg(st, mem, in)
	case decoder.LDRLiteral:
		return execLDRLiteral(st, mem, in)
	case decoder.LDMSTM:
		return execLDMSTM(st, mem, in)

	case decoder.MUL:
		return execMUL(st, in, itActive)
	case decoder.LongMUL:
		return execLongMUL(st, in)
	case decoder.Divide:
		return execDivide(st, in)
	case decoder.CLZ:
		st.Set(in.Rd, uint32(bits.LeadingZeros32(st.Get(in.Rm))))
		return nil

	case decoder.Bitfield:
		return execBitfield(st, in)
	case decoder.Extend:
		return execExtend(st, in)
	case decoder.Reverse:
		return execReverse(st, in)

	case decoder.IT:
		st.PSR.SetIT(cpu.NewIT(in.FirstCond, in.Mask))
		return nil
	case decoder.Hint:
		return nil // barriers and WFE/WFI/SEV/NOP/YIELD are no-ops here

	case decoder.MOVT:
		st.Set(in.Rd, st.Get(in.Rd)&0xFFFF|uint32(in.Imm16)<<16)
		return nil

	case decoder.MRS:
		st.Set(in.Rd, st.PSR.ToXPSR())
		return nil
	case decoder.MSR:
		st.PSR.FromXPSR(st.Get(in.Rn))
		return nil

	case decoder.ADR:
		base := st.Get(cpu.PC) &^ 3
		if in.Add {
			st.Set(in.Rd, base+in.Imm32)
		} else {
			st.Set(in.Rd, base-in.Imm32)
		}
		return nil

	case decoder.BKPT:
		return execBKPT(st, mem, pc, in, sh)
	case decoder.SVC:
		return &UnhandledTrapError{Kind: "SVC", Imm: in.Imm, PC: pc}

	default:
		return &UndefinedInstructionError{PC: pc}
	}
}

// conditionFor resolves the condition applicable to inst: B<cond> always
// carries its own field regardless of IT state; every other instruction is
// conditional on the current IT state if one is active, and unconditional
// (AL) otherwise, including CBZ/CBNZ, whose own taken/not-taken decision
// is data-dependent rather than flag-dependent.
func conditionFor(st *cpu.State, inst decoder.Instruction) cpu.Condition {
	if b, ok := inst.(decoder.BCond); ok {
		return b.Cond
	}
	if st.PSR.IT().Active() {
		return st.PSR.IT().Condition()
	}
	return cpu.CondAL
}

func execBX(st *cpu.State, pc uint32, in decoder.BX) error {
	target := st.Get(in.Rm)
	if target&1 == 0 {
		return &UndefinedInstructionError{PC: pc}
	}
	next := pc + 2
	if in.Link {
		st.Set(cpu.LR, next|1)
	}
	st.Set(cpu.PC, target&^1)
	return nil
}

func execBKPT(st *cpu.State, mem bus.Bus, pc uint32, in decoder.BKPT, sh semihost.Handler) error {
	if in.Imm != SemihostTrapOpcode || sh == nil {
		return &UnhandledTrapError{Kind: "BKPT", Imm: in.Imm, PC: pc}
	}
	call := st.Get(cpu.R0)
	r1 := st.Get(cpu.R1)
	result, exit, err := semihost.Dispatch(sh, mem, call, r1)
	if err != nil {
		return &SemihostingCallFailedError{Err: err, PC: pc}
	}
	st.Set(cpu.R0, result)
	if exit {
		return ExitRequested{}
	}
	return nil
}
