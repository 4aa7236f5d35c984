package cpu

// PSR models the combined Program Status Register: the APSR flags (NZCVQ),
// the EPSR (T bit plus IT/ICI state) and the IPSR exception number, kept
// as named fields rather than a packed word so flag updates read the way
// the ARM ARM pseudocode writes them.
type PSR struct {
	N, Z, C, V, Q bool
	t             bool    // Thumb bit (EPSR bit 24); always true in this simulator
	it            ITState // EPSR bits 26:25 and 15:10
	exception     uint32  // IPSR bits 8:0
}

// SetT sets the Thumb state bit. The reset invariant always leaves this
// true — the simulator never executes ARM-mode encodings.
func (p *PSR) SetT(v bool) { p.t = v }

// T reports the Thumb state bit.
func (p *PSR) T() bool { return p.t }

// IT returns the current IT-block state.
func (p *PSR) IT() ITState { return p.it }

// SetIT installs a new IT-block state (used by the IT instruction and by
// the per-instruction advance in the run loop).
func (p *PSR) SetIT(it ITState) { p.it = it }

// Exception returns the IPSR exception number (0 means Thread mode, no
// exception active; there is no NVIC model in this build).
func (p *PSR) Exception() uint32 { return p.exception }

// SetException sets the IPSR exception number.
func (p *PSR) SetException(n uint32) { p.exception = n & 0x1FF }

// UpdateNZ computes N and Z from a 32-bit result, per the ARM ARM's
// "N = result<31>, Z = IsZeroBit(result)". Carry and overflow are left to
// the caller because they arise from the specific operator, not the
// result alone.
func (p *PSR) UpdateNZ(result uint32) {
	p.N = result&0x8000_0000 != 0
	p.Z = result == 0
}

// ToAPSR packs N/Z/C/V/Q into the APSR bit layout (bits 31-27).
func (p *PSR) ToAPSR() uint32 {
	var v uint32
	if p.N {
		v |= 1 << 31
	}
	if p.Z {
		v |= 1 << 30
	}
	if p.C {
		v |= 1 << 29
	}
	if p.V {
		v |= 1 << 28
	}
	if p.Q {
		v |= 1 << 27
	}
	return v
}

// FromAPSR unpacks N/Z/C/V/Q from bits 31-27, leaving every other bit alone.
func (p *PSR) FromAPSR(v uint32) {
	p.N = v&(1<<31) != 0
	p.Z = v&(1<<30) != 0
	p.C = v&(1<<29) != 0
	p.V = v&(1<<28) != 0
	p.Q = v&(1<<27) != 0
}

// ToXPSR packs the full combined PSR (APSR | EPSR | IPSR) as MRS would read
// it for a "PSR" (as opposed to single "APSR"/"IPSR"/"EPSR") register. The
// 8-bit ITSTATE splits across bits [15:10] (ITSTATE<7:2>) and [26:25]
// (ITSTATE<1:0>), per the ARM ARM's EPSR layout.
func (p *PSR) ToXPSR() uint32 {
	v := p.ToAPSR()
	if p.t {
		v |= 1 << 24
	}
	itstate := uint32(p.it.Raw())
	v |= (itstate >> 2) << 10 // ITSTATE<7:2> into bits 15:10
	v |= (itstate & 0x3) << 25 // ITSTATE<1:0> into bits 26:25
	v |= p.exception & 0x1FF
	return v
}

// FromXPSR writes every field MSR is permitted to write: the APSR flags.
// Thumb/IT/exception-number bits are read-only to guest code in this
// simulator (no mode changes, matching the Non-goal that excludes NVIC and
// multi-mode support).
func (p *PSR) FromXPSR(v uint32) {
	p.FromAPSR(v)
}
