// Package executor implements the per-instruction semantics of the decoded
// Thumb/Thumb-2 instruction set: it mutates cpu.State and issues bus
// transactions, following the ARM ARM pseudocode at design level.
package executor

import (
	"github.com/arm-cm/cmsim/decoder"
)

// AddWithCarry computes the ARM ARM's AddWithCarry(x, y, carry_in) primitive:
// the 33-bit unsigned sum and 33-bit signed sum both decide carry_out and
// overflow independently of the 32-bit truncated result, exactly the way
// every flag-setting ADD/SUB/ADC/SBC/CMP/CMN arm needs it.
func AddWithCarry(x, y uint32, carryIn bool) (result uint32, carryOut, overflow bool) {
	var c uint64
	if carryIn {
		c = 1
	}
	unsignedSum := uint64(x) + uint64(y) + c
	signedSum := int64(int32(x)) + int64(int32(y)) + int64(c)
	result = uint32(unsignedSum)
	carryOut = unsignedSum != uint64(result)
	overflow = signedSum != int64(int32(result))
	return result, carryOut, overflow
}

// Sub is the AddWithCarry-based subtraction used throughout: x - y - !borrow,
// i.e. AddWithCarry(x, ^y, carryIn).
func Sub(x, y uint32, carryIn bool) (result uint32, carryOut, overflow bool) {
	return AddWithCarry(x, ^y, carryIn)
}

// ShiftC implements the ARM ARM's Shift_C(value, type, amount, carry_in)
// primitive. Amount 0 passes the value and carry through unchanged, except
// for RRX which is always a 1-bit rotate through carry.
func ShiftC(value uint32, typ decoder.SRType, amount uint8, carryIn bool) (uint32, bool) {
	if amount == 0 && typ != decoder.SRTypeRRX {
		return value, carryIn
	}
	switch typ {
	case decoder.SRTypeLSL:
		return lslC(value, amount)
	case decoder.SRTypeLSR:
		return lsrC(value, amount)
	case decoder.SRTypeASR:
		return asrC(value, amount)
	case decoder.SRTypeROR:
		return rorC(value, amount)
	case decoder.SRTypeRRX:
		out := value&1 != 0
		res := value >> 1
		if carryIn {
			res |= 0x8000_0000
		}
		return res, out
	}
	return value, carryIn
}

// Shift applies ShiftC but discards the carry, for contexts (most ALU
// register operands with an explicit shift) that do not feed flags.
func Shift(value uint32, typ decoder.SRType, amount uint8, carryIn bool) uint32 {
	v, _ := ShiftC(value, typ, amount, carryIn)
	return v
}

func lslC(value uint32, amount uint8) (uint32, bool) {
	if amount == 0 {
		return value, false
	}
	if amount > 32 {
		return 0, false
	}
	if amount == 32 {
		return 0, value&1 != 0
	}
	carry := value&(1<<(32-amount)) != 0
	return value << amount, carry
}

func lsrC(value uint32, amount uint8) (uint32, bool) {
	if amount == 0 || amount > 32 {
		return 0, false
	}
	if amount == 32 {
		return 0, value&0x8000_0000 != 0
	}
	carry := value&(1<<(amount-1)) != 0
	return value >> amount, carry
}

func asrC(value uint32, amount uint8) (uint32, bool) {
	sv := int32(value)
	if amount == 0 {
		amount = 32
	}
	if amount >= 32 {
		if sv < 0 {
			return 0xFFFF_FFFF, true
		}
		return 0, false
	}
	carry := value&(1<<(amount-1)) != 0
	return uint32(sv >> amount), carry
}

func rorC(value uint32, amount uint8) (uint32, bool) {
	amount %= 32
	if amount == 0 {
		return value, value&0x8000_0000 != 0
	}
	res := (value >> amount) | (value << (32 - amount))
	return res, res&0x8000_0000 != 0
}

// SignExtend replicates bit `topbit` of word up through bit 31, matching
// the ARM ARM's SignExtend primitive; SBFX uses it.
func SignExtend(word uint32, topbit uint) uint32 {
	if word&(1<<topbit) == 0 {
		return word
	}
	mask := ^uint32(0) << (topbit + 1)
	return word | mask
}

// SignExtendByte/Half/widen the natural load widths to 32 bits.
func SignExtendByte(v uint8) uint32 { return uint32(int32(int8(v))) }
func SignExtendHalf(v uint16) uint32 { return uint32(int32(int16(v))) }
