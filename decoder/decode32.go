package decoder

import "github.com/arm-cm/cmsim/cpu"

// signExtend sign-extends the low (bits+1) bits of v.
func signExtend(v uint32, bits uint) int32 {
	shift := 31 - bits
	return int32(v<<shift) >> shift
}

// Decode32 decodes a 32-bit Thumb-2 instruction from its two halfwords.
// Coverage is the ARMv7-M baseline the executor implements; anything
// outside that subset decodes to a wide UDF carrying the raw opcode rather
// than guessing.
func Decode32(hw1, hw2 uint16) Instruction {
	wide := func() Instruction {
		return UDF{Opcode: uint32(hw1)<<16 | uint32(hw2), Wide: true}
	}

	switch {
	// Branches and miscellaneous control: 11110 prefix with hw2<15> set.
	case bits(hw1, 15, 11) == 0b11110 && bits(hw2, 15, 15) == 1:
		switch {
		case bits(hw2, 14, 14) == 1 && bits(hw2, 12, 12) == 1:
			return decodeBL(hw1, hw2)
		case bits(hw2, 14, 14) == 0 && bits(hw2, 12, 12) == 1:
			return decodeBUncond(hw1, hw2)
		case bits(hw2, 14, 14) == 0 && bits(hw2, 12, 12) == 0 && bits(hw1, 9, 6) < 0b1110:
			return decodeBCondWide(hw1, hw2)
		case bits(hw1, 15, 4) == 0xF3B && bits(hw2, 11, 8) == 0xF:
			return decodeBarrier(hw2)
		case bits(hw1, 15, 4) == 0xF3A && bits(hw2, 10, 8) == 0:
			return decodeHintWide(hw2)
		case bits(hw1, 15, 4) == 0xF3E && bits(hw2, 13, 13) == 0:
			return MRS{Rd: cpu.Reg(bits(hw2, 11, 8))}
		case bits(hw1, 15, 4) == 0xF38 && bits(hw2, 13, 13) == 0:
			return MSR{Rn: cpu.Reg(bits(hw1, 3, 0))}
		default:
			return wide()
		}

	// Data processing, modified immediate: 11110 i 0 op(4) S Rn, hw2<15>=0.
	case bits(hw1, 15, 11) == 0b11110 && bits(hw1, 9, 9) == 0 && bits(hw2, 15, 15) == 0:
		return decodeDPModImm(hw1, hw2)

	// Data processing, plain binary immediate: 11110 i 1 op(5) Rn, hw2<15>=0.
	case bits(hw1, 15, 11) == 0b11110 && bits(hw1, 9, 9) == 1 && bits(hw2, 15, 15) == 0:
		return decodeDPPlainImm(hw1, hw2)

	// Load/store multiple and dual/exclusive: 11101 00 prefix.
	case bits(hw1, 15, 9) == 0b1110100:
		if bits(hw1, 6, 6) != 0 {
			return wide() // dual/exclusive group, not implemented
		}
		return decodeLDMSTMWide(hw1, hw2)

	// Load/store single data item: 11111 00 prefix.
	case bits(hw1, 15, 9) == 0b1111100:
		return decodeLoadStoreSingleWide(hw1, hw2)

	// Data processing register and misc: 11111 010 ...
	case bits(hw1, 15, 4) == 0xFAB && bits(hw2, 15, 12) == 0xF && bits(hw2, 7, 4) == 0x8:
		return CLZ{Rd: cpu.Reg(bits(hw2, 11, 8)), Rm: cpu.Reg(bits(hw2, 3, 0))}

	// Multiply, multiply-accumulate: 11111 0110 op1(3) Rn.
	case bits(hw1, 15, 7) == 0b111110110 && bits(hw1, 6, 4) == 0:
		return decodeMulFamily(hw1, hw2)

	// Long multiply and divide: 11111 0111 op1(3) Rn.
	case bits(hw1, 15, 7) == 0b111110111:
		return decodeLongMulDiv(hw1, hw2)

	default:
		return wide()
	}
}

func decodeBL(hw1, hw2 uint16) Instruction {
	return BL{Imm32: branchImm24(hw1, hw2)}
}

func decodeBUncond(hw1, hw2 uint16) Instruction {
	return B{Imm32: branchImm24(hw1, hw2), Thumb32: true}
}

// branchImm24 assembles the S:I1:I2:imm10:imm11:'0' offset shared by BL and
// the T4 unconditional branch, where I1 = NOT(J1 EOR S), I2 = NOT(J2 EOR S).
func branchImm24(hw1, hw2 uint16) int32 {
	s := uint32(bits(hw1, 10, 10))
	imm10 := uint32(bits(hw1, 9, 0))
	j1 := uint32(bits(hw2, 13, 13))
	j2 := uint32(bits(hw2, 11, 11))
	imm11 := uint32(bits(hw2, 10, 0))
	i1 := 1 - (j1 ^ s)
	i2 := 1 - (j2 ^ s)
	raw := s<<24 | i1<<23 | i2<<22 | imm10<<12 | imm11<<1
	return signExtend(raw, 24)
}

func decodeBCondWide(hw1, hw2 uint16) Instruction {
	s := uint32(bits(hw1, 10, 10))
	cond := uint8(bits(hw1, 9, 6))
	imm6 := uint32(bits(hw1, 5, 0))
	j1 := uint32(bits(hw2, 13, 13))
	j2 := uint32(bits(hw2, 11, 11))
	imm11 := uint32(bits(hw2, 10, 0))
	raw := s<<20 | j2<<19 | j1<<18 | imm6<<12 | imm11<<1
	return BCond{Cond: cpu.Condition(cond), Imm32: signExtend(raw, 20), Thumb32: true}
}

func decodeBarrier(hw2 uint16) Instruction {
	switch bits(hw2, 7, 4) {
	case 0x4:
		return Hint{Op: HintDSB, Thumb32: true}
	case 0x5:
		return Hint{Op: HintDMB, Thumb32: true}
	case 0x6:
		return Hint{Op: HintISB, Thumb32: true}
	}
	return Hint{Op: HintNOP, Thumb32: true}
}

func decodeHintWide(hw2 uint16) Instruction {
	switch bits(hw2, 7, 0) {
	case 1:
		return Hint{Op: HintYIELD, Thumb32: true}
	case 2:
		return Hint{Op: HintWFE, Thumb32: true}
	case 3:
		return Hint{Op: HintWFI, Thumb32: true}
	case 4:
		return Hint{Op: HintSEV, Thumb32: true}
	}
	return Hint{Op: HintNOP, Thumb32: true}
}

// decodeDPModImm covers the modified-immediate data-processing group
// (A6.3.1): op(4) in hw1<8:5>, S in hw1<4>, with the TST/TEQ/CMN/CMP and
// MOV/MVN special forms selected by Rd or Rn being PC.
func decodeDPModImm(hw1, hw2 uint16) Instruction {
	opField := uint8(bits(hw1, 8, 5))
	s := bits(hw1, 4, 4) == 1
	rn := cpu.Reg(bits(hw1, 3, 0))
	rd := cpu.Reg(bits(hw2, 11, 8))
	i := uint16(bits(hw1, 10, 10))
	imm3 := uint16(bits(hw2, 14, 12))
	imm8 := uint16(bits(hw2, 7, 0))
	imm := ThumbExpandImm_C(i<<11 | imm3<<8 | imm8)

	setFlags := FlagsFalse
	if s {
		setFlags = FlagsTrue
	}

	switch opField {
	case 0b0000: // AND, or TST when Rd is PC
		if rd == 0b1111 && s {
			return DPImm{Op: OpTST, Rn: rn, Imm: imm, SetFlags: FlagsTrue, Thumb32: true}
		}
		return DPImm{Op: OpAND, Rd: rd, Rn: rn, Imm: imm, SetFlags: setFlags, Thumb32: true}
	case 0b0001:
		return DPImm{Op: OpBIC, Rd: rd, Rn: rn, Imm: imm, SetFlags: setFlags, Thumb32: true}
	case 0b0010: // ORR, or MOV when Rn is PC
		if rn == 0b1111 {
			return DPImm{Op: OpMOV, Rd: rd, Imm: imm, SetFlags: setFlags, Thumb32: true}
		}
		return DPImm{Op: OpORR, Rd: rd, Rn: rn, Imm: imm, SetFlags: setFlags, Thumb32: true}
	case 0b0011: // ORN, or MVN when Rn is PC
		if rn == 0b1111 {
			return DPImm{Op: OpMVN, Rd: rd, Imm: imm, SetFlags: setFlags, Thumb32: true}
		}
		return DPImm{Op: OpORN, Rd: rd, Rn: rn, Imm: imm, SetFlags: setFlags, Thumb32: true}
	case 0b0100: // EOR, or TEQ when Rd is PC
		if rd == 0b1111 && s {
			return DPImm{Op: OpTEQ, Rn: rn, Imm: imm, SetFlags: FlagsTrue, Thumb32: true}
		}
		return DPImm{Op: OpEOR, Rd: rd, Rn: rn, Imm: imm, SetFlags: setFlags, Thumb32: true}
	case 0b1000: // ADD, or CMN when Rd is PC
		if rd == 0b1111 && s {
			return DPImm{Op: OpCMN, Rn: rn, Imm: imm, SetFlags: FlagsTrue, Thumb32: true}
		}
		return DPImm{Op: OpADD, Rd: rd, Rn: rn, Imm: imm, SetFlags: setFlags, Thumb32: true}
	case 0b1010:
		return DPImm{Op: OpADC, Rd: rd, Rn: rn, Imm: imm, SetFlags: setFlags, Thumb32: true}
	case 0b1011:
		return DPImm{Op: OpSBC, Rd: rd, Rn: rn, Imm: imm, SetFlags: setFlags, Thumb32: true}
	case 0b1101: // SUB, or CMP when Rd is PC
		if rd == 0b1111 && s {
			return DPImm{Op: OpCMP, Rn: rn, Imm: imm, SetFlags: FlagsTrue, Thumb32: true}
		}
		return DPImm{Op: OpSUB, Rd: rd, Rn: rn, Imm: imm, SetFlags: setFlags, Thumb32: true}
	case 0b1110:
		return DPImm{Op: OpRSB, Rd: rd, Rn: rn, Imm: imm, SetFlags: setFlags, Thumb32: true}
	default:
		return UDF{Opcode: uint32(hw1)<<16 | uint32(hw2), Wide: true}
	}
}

// decodeDPPlainImm covers the plain-binary-immediate group (A6.3.3):
// ADDW/SUBW, MOVW/MOVT and the bitfield family, selected by hw1<8:4>.
func decodeDPPlainImm(hw1, hw2 uint16) Instruction {
	rn := cpu.Reg(bits(hw1, 3, 0))
	rd := cpu.Reg(bits(hw2, 11, 8))
	i := uint32(bits(hw1, 10, 10))
	imm3 := uint32(bits(hw2, 14, 12))
	imm8 := uint32(bits(hw2, 7, 0))
	imm12 := i<<11 | imm3<<8 | imm8

	switch bits(hw1, 8, 4) {
	case 0b00000: // ADDW: never sets flags
		if rn == 0b1111 {
			return ADR{Rd: rd, Imm32: imm12, Add: true, Thumb32: true}
		}
		return DPImm{Op: OpADD, Rd: rd, Rn: rn, Imm: NoCarryImm32(imm12), SetFlags: FlagsFalse, Thumb32: true}
	case 0b01010: // SUBW
		if rn == 0b1111 {
			return ADR{Rd: rd, Imm32: imm12, Add: false, Thumb32: true}
		}
		return DPImm{Op: OpSUB, Rd: rd, Rn: rn, Imm: NoCarryImm32(imm12), SetFlags: FlagsFalse, Thumb32: true}
	case 0b00100: // MOVW
		imm16 := uint32(bits(hw1, 3, 0))<<12 | imm12
		return DPImm{Op: OpMOV, Rd: rd, Imm: NoCarryImm32(imm16), SetFlags: FlagsFalse, Thumb32: true}
	case 0b01100: // MOVT
		imm16 := uint32(bits(hw1, 3, 0))<<12 | imm12
		return MOVT{Rd: rd, Imm16: uint16(imm16)}
	case 0b10100: // SBFX
		return decodeBFX(hw1, hw2, true)
	case 0b10110: // BFI, or BFC when Rn is PC
		return decodeBitfieldInsertClear(hw1, hw2)
	case 0b11100: // UBFX
		return decodeBFX(hw1, hw2, false)
	default:
		return UDF{Opcode: uint32(hw1)<<16 | uint32(hw2), Wide: true}
	}
}

func decodeMulFamily(hw1, hw2 uint16) Instruction {
	rn := cpu.Reg(bits(hw1, 3, 0))
	ra := cpu.Reg(bits(hw2, 15, 12))
	rd := cpu.Reg(bits(hw2, 11, 8))
	rm := cpu.Reg(bits(hw2, 3, 0))
	switch bits(hw2, 7, 4) {
	case 0b0000: // MUL (Ra is PC) or MLA
		if ra == 0b1111 {
			return MUL{Rd: rd, Rn: rn, Rm: rm, SetFlags: FlagsFalse, Thumb32: true}
		}
		return MUL{Rd: rd, Rn: rn, Rm: rm, Ra: ra, Accumulate: true, SetFlags: FlagsFalse, Thumb32: true}
	case 0b0001: // MLS
		return MUL{Rd: rd, Rn: rn, Rm: rm, Ra: ra, Accumulate: true, Subtract: true, SetFlags: FlagsFalse, Thumb32: true}
	default:
		return UDF{Opcode: uint32(hw1)<<16 | uint32(hw2), Wide: true}
	}
}

func decodeLongMulDiv(hw1, hw2 uint16) Instruction {
	rn := cpu.Reg(bits(hw1, 3, 0))
	rdlo := cpu.Reg(bits(hw2, 15, 12))
	rdhi := cpu.Reg(bits(hw2, 11, 8))
	rm := cpu.Reg(bits(hw2, 3, 0))
	switch bits(hw1, 6, 4) {
	case 0b000: // SMULL
		return LongMUL{RdLo: rdlo, RdHi: rdhi, Rn: rn, Rm: rm, Signed: true}
	case 0b010: // UMULL
		return LongMUL{RdLo: rdlo, RdHi: rdhi, Rn: rn, Rm: rm}
	case 0b100: // SMLAL
		return LongMUL{RdLo: rdlo, RdHi: rdhi, Rn: rn, Rm: rm, Signed: true, Accumulate: true}
	case 0b110: // UMLAL
		return LongMUL{RdLo: rdlo, RdHi: rdhi, Rn: rn, Rm: rm, Accumulate: true}
	case 0b001: // SDIV: Rd sits in hw2<11:8>, hw2<15:12> is all-ones
		return Divide{Rd: rdhi, Rn: rn, Rm: rm, Signed: true}
	case 0b011: // UDIV
		return Divide{Rd: rdhi, Rn: rn, Rm: rm}
	}
	return UDF{Opcode: uint32(hw1)<<16 | uint32(hw2), Wide: true}
}

func decodeBitfieldInsertClear(hw1, hw2 uint16) Instruction {
	rn := cpu.Reg(bits(hw1, 3, 0))
	rd := cpu.Reg(bits(hw2, 11, 8))
	imm3 := uint8(bits(hw2, 14, 12))
	imm2 := uint8(bits(hw2, 7, 6))
	msb := uint8(bits(hw2, 4, 0))
	lsb := imm3<<2 | imm2
	if msb < lsb {
		return UDF{Opcode: uint32(hw1)<<16 | uint32(hw2), Wide: true}
	}
	if rn == 0b1111 {
		return Bitfield{Op: BFOpBFC, Rd: rd, LSB: lsb, Width: msb - lsb + 1}
	}
	return Bitfield{Op: BFOpBFI, Rd: rd, Rn: rn, LSB: lsb, Width: msb - lsb + 1}
}

func decodeBFX(hw1, hw2 uint16, signed bool) Instruction {
	rn := cpu.Reg(bits(hw1, 3, 0))
	rd := cpu.Reg(bits(hw2, 11, 8))
	imm3 := uint8(bits(hw2, 14, 12))
	imm2 := uint8(bits(hw2, 7, 6))
	widthm1 := uint8(bits(hw2, 4, 0))
	lsb := imm3<<2 | imm2
	op := BFOpUBFX
	if signed {
		op = BFOpSBFX
	}
	return Bitfield{Op: op, Rd: rd, Rn: rn, LSB: lsb, Width: widthm1 + 1}
}

// decodeLDMSTMWide covers LDM.W/STM.W (increment-after, hw1<8:7> = 01) and
// LDMDB/STMDB (decrement-before, hw1<8:7> = 10), W in hw1<5>, L in hw1<4>.
func decodeLDMSTMWide(hw1, hw2 uint16) Instruction {
	l := bits(hw1, 4, 4) == 1
	w := bits(hw1, 5, 5) == 1
	rn := cpu.Reg(bits(hw1, 3, 0))
	reglist := RegList(hw2)
	descending := bits(hw1, 8, 8) == 1
	return LDMSTM{Load: l, Rn: rn, Registers: reglist, Wback: w, Descending: descending, Thumb32: true}
}

// decodeLoadStoreSingleWide handles the word/halfword/byte load/store group
// (A6.3.7-A6.3.10): hw1<8> = sign, hw1<7> = imm12-form selector, hw1<6:5> =
// size, hw1<4> = L.
func decodeLoadStoreSingleWide(hw1, hw2 uint16) Instruction {
	signed := bits(hw1, 8, 8) == 1
	imm12Form := bits(hw1, 7, 7) == 1
	size := bits(hw1, 6, 5)
	load := bits(hw1, 4, 4) == 1
	rn := cpu.Reg(bits(hw1, 3, 0))
	rt := cpu.Reg(bits(hw2, 15, 12))

	var width Width
	switch size {
	case 0b00:
		width = WidthByte
	case 0b01:
		width = WidthHalf
	case 0b10:
		width = WidthWord
	default:
		return UDF{Opcode: uint32(hw1)<<16 | uint32(hw2), Wide: true}
	}
	if width == WidthWord {
		signed = false // no signed word load exists in Thumb
	}

	if rn == 0b1111 {
		// literal form: LDR{B,H,SB,SH} Rt, [PC, #+/-imm12]; hw1<7> is U.
		if !load {
			return UDF{Opcode: uint32(hw1)<<16 | uint32(hw2), Wide: true}
		}
		return LDRLiteral{Rt: rt, Imm32: uint32(bits(hw2, 11, 0)), Add: imm12Form, Thumb32: true}
	}

	if imm12Form {
		return LoadStoreImm{
			Load: load, Width: width, Signed: signed, Rt: rt, Rn: rn,
			Imm32: uint32(bits(hw2, 11, 0)),
			Mode:  AddrMode{Index: true, Add: true, Wback: false}, Thumb32: true,
		}
	}
	if bits(hw2, 11, 11) == 1 {
		// imm8 with P/U/W addressing (pre/post-index, up/down, writeback).
		return LoadStoreImm{
			Load: load, Width: width, Signed: signed, Rt: rt, Rn: rn,
			Imm32: uint32(bits(hw2, 7, 0)),
			Mode: AddrMode{
				Index: bits(hw2, 10, 10) == 1,
				Add:   bits(hw2, 9, 9) == 1,
				Wback: bits(hw2, 8, 8) == 1,
			},
			Thumb32: true,
		}
	}
	if bits(hw2, 11, 6) == 0 {
		// register offset, shifted left by imm2.
		return LoadStoreReg{
			Load: load, Width: width, Signed: signed, Rt: rt, Rn: rn,
			Rm:    cpu.Reg(bits(hw2, 3, 0)),
			Shift: Shift{Type: SRTypeLSL, Amount: uint8(bits(hw2, 5, 4))}, Thumb32: true,
		}
	}
	return UDF{Opcode: uint32(hw1)<<16 | uint32(hw2), Wide: true}
}
