package executor

import (
	"math/bits"

	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/decoder"
)

// maskBits returns a mask of the low n bits; any n of 32 or more gives
// all ones.
func maskBits(n uint8) uint32 {
	if n >= 32 {
		return 0xFFFF_FFFF
	}
	return 1<<n - 1
}

// execBitfield covers BFI/BFC/UBFX/SBFX, all expressed over
// an inclusive (lsb, width) range.
func execBitfield(st *cpu.State, b decoder.Bitfield) error {
	mask := maskBits(b.Width)
	switch b.Op {
	case decoder.BFOpBFC:
		result := st.Get(b.Rd) &^ (mask << b.LSB)
		st.Set(b.Rd, result)

	case decoder.BFOpBFI:
		field := st.Get(b.Rn) & mask
		result := (st.Get(b.Rd) &^ (mask << b.LSB)) | (field << b.LSB)
		st.Set(b.Rd, result)

	case decoder.BFOpUBFX:
		field := (st.Get(b.Rn) >> b.LSB) & mask
		st.Set(b.Rd, field)

	case decoder.BFOpSBFX:
		field := (st.Get(b.Rn) >> b.LSB) & mask
		st.Set(b.Rd, SignExtend(field, uint(b.Width-1)))
	}
	return nil
}

func rotateRight32(v uint32, amount uint8) uint32 {
	if amount == 0 {
		return v
	}
	return bits.RotateLeft32(v, -int(amount))
}

// execExtend covers UXTB/UXTH/SXTB/SXTH: Rm is rotated right
// by Rotation (a multiple of 8 selecting which byte lane feeds the
// extension) before the byte or halfword is extracted and extended.
func execExtend(st *cpu.State, e decoder.Extend) error {
	rotated := rotateRight32(st.Get(e.Rm), e.Rotation)
	switch e.Op {
	case decoder.ExtUXTB:
		st.Set(e.Rd, rotated&0xFF)
	case decoder.ExtUXTH:
		st.Set(e.Rd, rotated&0xFFFF)
	case decoder.ExtSXTB:
		st.Set(e.Rd, SignExtendByte(uint8(rotated)))
	case decoder.ExtSXTH:
		st.Set(e.Rd, SignExtendHalf(uint16(rotated)))
	}
	return nil
}

// execReverse covers REV/REV16/REVSH.
func execReverse(st *cpu.State, r decoder.Reverse) error {
	v := st.Get(r.Rm)
	switch r.Op {
	case decoder.RevREV:
		st.Set(r.Rd, bits.ReverseBytes32(v))
	case decoder.RevREV16:
		lo := bits.ReverseBytes16(uint16(v))
		hi := bits.ReverseBytes16(uint16(v >> 16))
		st.Set(r.Rd, uint32(hi)<<16|uint32(lo))
	case decoder.RevREVSH:
		swapped := bits.ReverseBytes16(uint16(v))
		st.Set(r.Rd, SignExtendHalf(swapped))
	}
	return nil
}
