package executor

import (
	"github.com/arm-cm/cmsim/bus"
	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/decoder"
)

// resolveAddr implements the common (index, add, wback) addressing triple
// shared by every load/store encoding: offset = rn +/-
// extra; if index the accessed address is the offset, else it is rn itself
// (post-indexed); if wback, rn is written back to the offset afterward.
func resolveAddr(st *cpu.State, rn cpu.Reg, extra uint32, mode decoder.AddrMode) (access, writeback uint32) {
	base := st.Get(rn)
	var offset uint32
	if mode.Add {
		offset = base + extra
	} else {
		offset = base - extra
	}
	if mode.Index {
		access = offset
	} else {
		access = base
	}
	return access, offset
}

func execLoadStoreImm(st *cpu.State, mem bus.Bus, l decoder.LoadStoreImm) error {
	addr, wb := resolveAddr(st, l.Rn, l.Imm32, l.Mode)
	if err := accessMemory(st, mem, addr, l.Rt, l.Load, l.Width, l.Signed); err != nil {
		return err
	}
	if l.Mode.Wback {
		st.Set(l.Rn, wb)
	}
	return nil
}

func execLoadStoreReg(st *cpu.State, mem bus.Bus, l decoder.LoadStoreReg) error {
	offset := Shift(st.Get(l.Rm), l.Shift.Type, l.Shift.Amount, st.PSR.C)
	addr := st.Get(l.Rn) + offset
	return accessMemory(st, mem, addr, l.Rt, l.Load, l.Width, l.Signed)
}

func execLDRLiteral(st *cpu.State, mem bus.Bus, l decoder.LDRLiteral) error {
	base := st.Get(cpu.PC) &^ 3
	var addr uint32
	if l.Add {
		addr = base + l.Imm32
	} else {
		addr = base - l.Imm32
	}
	v, err := mem.Read32(addr)
	if err != nil {
		return err
	}
	st.Set(l.Rt, v)
	return nil
}

func accessMemory(st *cpu.State, mem bus.Bus, addr uint32, rt cpu.Reg, load bool, width decoder.Width, signed bool) error {
	switch width {
	case decoder.WidthByte:
		if load {
			v, err := mem.Read8(addr)
			if err != nil {
				return err
			}
			val := uint32(v)
			if signed {
				val = SignExtendByte(v)
			}
			st.Set(rt, val)
		} else {
			return mem.Write8(addr, uint8(st.Get(rt)))
		}
	case decoder.WidthHalf:
		if load {
			v, err := mem.Read16(addr)
			if err != nil {
				return err
			}
			val := uint32(v)
			if signed {
				val = SignExtendHalf(v)
			}
			st.Set(rt, val)
		} else {
			return mem.Write16(addr, uint16(st.Get(rt)))
		}
	default: // WidthWord
		if load {
			v, err := mem.Read32(addr)
			if err != nil {
				return err
			}
			st.Set(rt, v)
		} else {
			return mem.Write32(addr, st.Get(rt))
		}
	}
	return nil
}

// regListInOrder returns the registers named in l, numerically ascending —
// the iteration order the ARM ARM mandates for LDM/STM/PUSH/POP.
func regListInOrder(l decoder.RegList) []cpu.Reg {
	regs := make([]cpu.Reg, 0, 16)
	for r := cpu.R0; r <= cpu.PC; r++ {
		if l.Has(r) {
			regs = append(regs, r)
		}
	}
	return regs
}

func execLDMSTM(st *cpu.State, mem bus.Bus, l decoder.LDMSTM) error {
	regs := regListInOrder(l.Registers)
	count := uint32(len(regs))
	base := st.Get(l.Rn)

	var addr uint32
	if l.Descending {
		addr = base - 4*count
	} else {
		addr = base
	}

	for _, r := range regs {
		if l.Load {
			v, err := mem.Read32(addr)
			if err != nil {
				return err
			}
			st.Set(r, v)
		} else {
			if err := mem.Write32(addr, st.Get(r)); err != nil {
				return err
			}
		}
		addr += 4
	}

	if l.Wback && !(l.Load && l.Registers.Has(l.Rn)) {
		if l.Descending {
			st.Set(l.Rn, base-4*count)
		} else {
			st.Set(l.Rn, base+4*count)
		}
	}
	return nil
}
