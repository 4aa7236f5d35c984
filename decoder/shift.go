package decoder

// DecodeImmShift maps a 2-bit shift-type field and a 5-bit immediate to a
// normalized (SRType, amount) pair, per the ARM ARM's DecodeImmShift
// pseudocode: an immediate amount of 0 means 32 for LSR/ASR, and type 11
// with amount 0 is RRX by one.
func DecodeImmShift(typeBits uint8, imm5 uint8) Shift {
	switch typeBits & 0x3 {
	case 0b00:
		return Shift{Type: SRTypeLSL, Amount: imm5}
	case 0b01:
		if imm5 == 0 {
			return Shift{Type: SRTypeLSR, Amount: 32}
		}
		return Shift{Type: SRTypeLSR, Amount: imm5}
	case 0b10:
		if imm5 == 0 {
			return Shift{Type: SRTypeASR, Amount: 32}
		}
		return Shift{Type: SRTypeASR, Amount: imm5}
	default: // 0b11
		if imm5 == 0 {
			return Shift{Type: SRTypeRRX, Amount: 1}
		}
		return Shift{Type: SRTypeROR, Amount: imm5}
	}
}

// ThumbExpandImm_C expands a 12-bit T32 modified immediate (i:imm3:a in the
// ARM ARM's encoding, packed here as the raw 12-bit field) into its 32-bit
// value and the carry it would produce, without yet knowing the incoming
// carry flag; the executor resolves the pair against the live C bit.
func ThumbExpandImm_C(imm12 uint16) Imm32Carry {
	if imm12&0xC00 == 0 {
		// imm12<11:10> == 00: imm12<9:8> select one of four fixed patterns
		// that do not rotate the low byte, so they cannot affect carry.
		b := uint32(imm12 & 0xFF)
		switch (imm12 >> 8) & 0x3 {
		case 0b00:
			return NoCarryImm32(b)
		case 0b01:
			return NoCarryImm32(b<<16 | b)
		case 0b10:
			return NoCarryImm32(b<<24 | b<<8)
		default:
			return NoCarryImm32(b<<24 | b<<16 | b<<8 | b)
		}
	}
	unrotated := uint32(imm12&0x7F) | 0x80
	rot := uint32(imm12 >> 7)
	imm32 := rotateRight32(unrotated, rot)
	carry := imm32&0x8000_0000 != 0
	return CarryImm32(imm32, carry, imm32, carry)
}

// ThumbExpandImm is the carry-independent convenience wrapper: it returns
// only the expanded value of ThumbExpandImm_C, discarding the carry.
func ThumbExpandImm(imm12 uint16) uint32 {
	v, _ := ThumbExpandImm_C(imm12).Resolve(false)
	return v
}

func rotateRight32(v, amount uint32) uint32 {
	amount &= 31
	if amount == 0 {
		return v
	}
	return (v >> amount) | (v << (32 - amount))
}
