package executor

import (
	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/decoder"
)

// execMUL covers MUL/MLA/MLS: a 32x32-bit multiply truncated
// to 32 bits, with an optional accumulate or subtract term. Flags, when set,
// only ever reflect N/Z of the 32-bit result — the ARM ARM does not define a
// C/V update for any Thumb multiply.
func execMUL(st *cpu.State, m decoder.MUL, itActive bool) error {
	result := st.Get(m.Rn) * st.Get(m.Rm)
	if m.Accumulate {
		if m.Subtract {
			result = st.Get(m.Ra) - result
		} else {
			result = st.Get(m.Ra) + result
		}
	}
	st.Set(m.Rd, result)
	if m.SetFlags.Resolve(itActive) {
		st.PSR.UpdateNZ(result)
	}
	return nil
}

// execLongMUL covers UMULL/SMULL/UMLAL/SMLAL: a 32x32-bit multiply widened
// to 64 bits before any accumulate, split across RdHi:RdLo. Thumb's 64-bit
// multiply family never updates flags.
func execLongMUL(st *cpu.State, m decoder.LongMUL) error {
	var product uint64
	if m.Signed {
		product = uint64(int64(int32(st.Get(m.Rn))) * int64(int32(st.Get(m.Rm))))
	} else {
		product = uint64(st.Get(m.Rn)) * uint64(st.Get(m.Rm))
	}
	if m.Accumulate {
		acc := uint64(st.Get(m.RdHi))<<32 | uint64(st.Get(m.RdLo))
		product += acc
	}
	st.Set(m.RdLo, uint32(product))
	st.Set(m.RdHi, uint32(product>>32))
	return nil
}

// execDivide covers SDIV/UDIV. The ARM ARM defines division by zero as
// producing a result of 0 rather than trapping; Go's native
// '/' operator would panic on that case, so it is guarded explicitly. Go's
// '/' does not panic on MinInt32/-1 and already truncates toward zero like
// the ARM ARM requires, so the signed case needs no further guard.
func execDivide(st *cpu.State, d decoder.Divide) error {
	rn, rm := st.Get(d.Rn), st.Get(d.Rm)
	if rm == 0 {
		st.Set(d.Rd, 0)
		return nil
	}
	if d.Signed {
		st.Set(d.Rd, uint32(int32(rn)/int32(rm)))
	} else {
		st.Set(d.Rd, rn/rm)
	}
	return nil
}
