package decoder

import "github.com/arm-cm/cmsim/cpu"

func bits(v uint16, hi, lo int) uint16 {
	mask := uint16(1)<<uint(hi-lo+1) - 1
	return (v >> uint(lo)) & mask
}

func reg3(v uint16, lo int) cpu.Reg { return cpu.Reg(bits(v, lo+2, lo)) }

// IsWide reports whether a fetched halfword is the first half of a 32-bit
// Thumb-2 instruction: bits[15:11] of 0b11101, 0b11110 or 0b11111 (ARM ARM
// A5.1).
func IsWide(hw uint16) bool {
	top5 := bits(hw, 15, 11)
	return top5 == 0b11101 || top5 == 0b11110 || top5 == 0b11111
}

// Decode16 decodes a single 16-bit Thumb instruction. Encodings whose
// flag-setting depends on IT-block membership carry FlagsNotInITBlock; the
// executor resolves that against the live IT state at retirement.
func Decode16(op uint16) Instruction {
	top5 := bits(op, 15, 11)

	switch {
	case top5 == 0b00000, top5 == 0b00001, top5 == 0b00010:
		// Shift by immediate: 000 op(2) imm5 Rm Rd, excluding 00011xx (add/sub).
		return decodeShiftImm(op)
	case top5 == 0b00011:
		return decodeAddSubReg(op)
	case bits(op, 15, 13) == 0b001:
		return decodeMovCmpAddSubImm(op)
	case bits(op, 15, 10) == 0b010000:
		return decodeALUReg(op)
	case bits(op, 15, 10) == 0b010001:
		return decodeSpecialDP(op)
	case bits(op, 15, 11) == 0b01001:
		return decodeLDRLiteral(op)
	case bits(op, 15, 12) == 0b0101:
		return decodeLoadStoreReg(op)
	case bits(op, 15, 13) == 0b011:
		return decodeLoadStoreImmWB(op)
	case bits(op, 15, 12) == 0b1000:
		return decodeLoadStoreHalfImm(op)
	case bits(op, 15, 12) == 0b1001:
		return decodeLoadStoreSP(op)
	case bits(op, 15, 12) == 0b1010:
		return decodeAddr(op)
	case bits(op, 15, 8) == 0b10110000:
		return decodeAddSubSP(op)
	case bits(op, 15, 12) == 0b1011:
		return decodeMisc(op)
	case bits(op, 15, 12) == 0b1100:
		return decodeSTMLDM(op)
	case bits(op, 15, 12) == 0b1101:
		return decodeCondBranchOrTrap(op)
	case bits(op, 15, 11) == 0b11100:
		imm11 := int32(bits(op, 10, 0))
		if imm11&0x400 != 0 {
			imm11 |= ^int32(0x7FF)
		}
		return B{Imm32: imm11 * 2}
	default:
		return UDF{Opcode: uint32(op)}
	}
}

func decodeShiftImm(op uint16) Instruction {
	typeBits := uint8(bits(op, 12, 11))
	imm5 := uint8(bits(op, 10, 6))
	rm := reg3(op, 3)
	rd := reg3(op, 0)
	sh := DecodeImmShift(typeBits, imm5)
	dpOp := OpLSL
	switch sh.Type {
	case SRTypeLSL:
		dpOp = OpLSL
	case SRTypeLSR:
		dpOp = OpLSR
	case SRTypeASR:
		dpOp = OpASR
	}
	return DPReg{Op: dpOp, Rd: rd, Rm: rm, Shift: sh, SetFlags: FlagsNotInITBlock}
}

func decodeAddSubReg(op uint16) Instruction {
	isSub := bits(op, 9, 9) == 1
	isImm := bits(op, 10, 10) == 1
	rn := reg3(op, 3)
	rd := reg3(op, 0)
	o := OpADD
	if isSub {
		o = OpSUB
	}
	if isImm {
		imm3 := uint32(bits(op, 8, 6))
		return DPImm{Op: o, Rd: rd, Rn: rn, Imm: NoCarryImm32(imm3), SetFlags: FlagsNotInITBlock}
	}
	rm := reg3(op, 6)
	return DPReg{Op: o, Rd: rd, Rn: rn, Rm: rm, SetFlags: FlagsNotInITBlock}
}

func decodeMovCmpAddSubImm(op uint16) Instruction {
	sub := bits(op, 12, 11)
	rdn := reg3(op, 8)
	imm8 := uint32(bits(op, 7, 0))
	switch sub {
	case 0b00:
		return DPImm{Op: OpMOV, Rd: rdn, Imm: NoCarryImm32(imm8), SetFlags: FlagsNotInITBlock}
	case 0b01:
		return DPImm{Op: OpCMP, Rn: rdn, Imm: NoCarryImm32(imm8), SetFlags: FlagsTrue}
	case 0b10:
		return DPImm{Op: OpADD, Rd: rdn, Rn: rdn, Imm: NoCarryImm32(imm8), SetFlags: FlagsNotInITBlock}
	default:
		return DPImm{Op: OpSUB, Rd: rdn, Rn: rdn, Imm: NoCarryImm32(imm8), SetFlags: FlagsNotInITBlock}
	}
}

var aluOps = [16]DPOp{
	OpAND, OpEOR, OpLSL, OpLSR, OpASR, OpADC, OpSBC, OpROR,
	OpTST, OpRSB, OpCMP, OpCMN, OpORR, OpMOV /* MUL handled specially */, OpBIC, OpMVN,
}

func decodeALUReg(op uint16) Instruction {
	sub := uint8(bits(op, 9, 6))
	rm := reg3(op, 3)
	rdn := reg3(op, 0)
	if sub == 0b1101 { // MUL Rdn, Rm, Rdn
		return MUL{Rd: rdn, Rn: rm, Rm: rdn, SetFlags: FlagsNotInITBlock}
	}
	o := aluOps[sub]
	switch o {
	case OpLSL, OpLSR, OpASR, OpROR:
		return DPReg{Op: o, Rd: rdn, Rm: rdn, ShiftReg: true, ShiftAmountReg: rm, SetFlags: FlagsNotInITBlock}
	case OpTST, OpCMP, OpCMN:
		return DPReg{Op: o, Rn: rdn, Rm: rm, SetFlags: FlagsTrue}
	case OpRSB: // NEGS Rd, Rm == RSB Rd, Rm, #0
		return DPImm{Op: OpRSB, Rd: rdn, Rn: rm, Imm: NoCarryImm32(0), SetFlags: FlagsNotInITBlock}
	default:
		return DPReg{Op: o, Rd: rdn, Rn: rdn, Rm: rm, SetFlags: FlagsNotInITBlock}
	}
}

func decodeSpecialDP(op uint16) Instruction {
	opField := bits(op, 9, 8)
	dn := bits(op, 7, 7)
	rm := cpu.Reg(bits(op, 6, 3))
	rdn := cpu.Reg(dn<<3 | bits(op, 2, 0))
	switch opField {
	case 0b00:
		return DPReg{Op: OpADD, Rd: rdn, Rn: rdn, Rm: rm, SetFlags: FlagsFalse}
	case 0b01:
		return DPReg{Op: OpCMP, Rn: rdn, Rm: rm, SetFlags: FlagsTrue}
	case 0b10:
		return DPReg{Op: OpMOV, Rd: rdn, Rm: rm, SetFlags: FlagsFalse}
	default:
		link := bits(op, 7, 7) == 1
		return BX{Rm: rm, Link: link}
	}
}

func decodeLDRLiteral(op uint16) Instruction {
	rt := reg3(op, 8)
	imm8 := uint32(bits(op, 7, 0))
	return LDRLiteral{Rt: rt, Imm32: imm8 << 2, Add: true}
}

var loadStoreRegKinds = []struct {
	load, signed bool
	width        Width
}{
	{false, false, WidthWord}, // 000 STR
	{false, false, WidthHalf}, // 001 STRH
	{false, false, WidthByte}, // 010 STRB
	{true, true, WidthByte},   // 011 LDRSB
	{true, false, WidthWord},  // 100 LDR
	{true, false, WidthHalf},  // 101 LDRH
	{true, false, WidthByte},  // 110 LDRB
	{true, true, WidthHalf},   // 111 LDRSH
}

func decodeLoadStoreReg(op uint16) Instruction {
	k := loadStoreRegKinds[bits(op, 11, 9)]
	rm := reg3(op, 6)
	rn := reg3(op, 3)
	rt := reg3(op, 0)
	return LoadStoreReg{Load: k.load, Width: k.width, Signed: k.signed, Rt: rt, Rn: rn, Rm: rm}
}

func decodeLoadStoreImmWB(op uint16) Instruction {
	b := bits(op, 12, 12) == 1
	l := bits(op, 11, 11) == 1
	imm5 := uint32(bits(op, 10, 6))
	rn := reg3(op, 3)
	rt := reg3(op, 0)
	w := WidthWord
	shift := uint32(2)
	if b {
		w = WidthByte
		shift = 0
	}
	return LoadStoreImm{
		Load: l, Width: w, Rt: rt, Rn: rn, Imm32: imm5 << shift,
		Mode: AddrMode{Index: true, Add: true, Wback: false},
	}
}

func decodeLoadStoreHalfImm(op uint16) Instruction {
	l := bits(op, 11, 11) == 1
	imm5 := uint32(bits(op, 10, 6))
	rn := reg3(op, 3)
	rt := reg3(op, 0)
	return LoadStoreImm{
		Load: l, Width: WidthHalf, Rt: rt, Rn: rn, Imm32: imm5 << 1,
		Mode: AddrMode{Index: true, Add: true, Wback: false},
	}
}

func decodeLoadStoreSP(op uint16) Instruction {
	l := bits(op, 11, 11) == 1
	rt := reg3(op, 8)
	imm8 := uint32(bits(op, 7, 0))
	return LoadStoreImm{
		Load: l, Width: WidthWord, Rt: rt, Rn: cpu.SP, Imm32: imm8 << 2,
		Mode: AddrMode{Index: true, Add: true, Wback: false},
	}
}

func decodeAddr(op uint16) Instruction {
	sp := bits(op, 11, 11) == 1
	rd := reg3(op, 8)
	imm8 := uint32(bits(op, 7, 0))
	if sp {
		return DPImm{Op: OpADD, Rd: rd, Rn: cpu.SP, Imm: NoCarryImm32(imm8 << 2), SetFlags: FlagsFalse}
	}
	return ADR{Rd: rd, Imm32: imm8 << 2, Add: true}
}

func decodeAddSubSP(op uint16) Instruction {
	sub := bits(op, 7, 7) == 1
	imm7 := uint32(bits(op, 6, 0))
	o := OpADD
	if sub {
		o = OpSUB
	}
	return DPImm{Op: o, Rd: cpu.SP, Rn: cpu.SP, Imm: NoCarryImm32(imm7 << 2), SetFlags: FlagsFalse}
}

func decodeCBZ(op uint16) Instruction {
	nonzero := bits(op, 11, 11) == 1
	i := uint32(bits(op, 9, 9))
	imm5 := uint32(bits(op, 7, 3))
	rn := reg3(op, 0)
	return CBZNZ{Rn: rn, Imm32: (i<<6 | imm5<<1), Nonzero: nonzero}
}

func decodeSTMLDM(op uint16) Instruction {
	l := bits(op, 11, 11) == 1
	rn := reg3(op, 8)
	reglist := RegList(bits(op, 7, 0))
	return LDMSTM{Load: l, Rn: rn, Registers: reglist, Wback: true}
}

func decodeCondBranchOrTrap(op uint16) Instruction {
	condBits := uint8(bits(op, 11, 8))
	imm8 := int32(bits(op, 7, 0))
	if condBits == 0b1110 {
		return UDF{Opcode: uint32(op)}
	}
	if condBits == 0b1111 {
		return SVC{Imm: uint8(imm8)}
	}
	if imm8&0x80 != 0 {
		imm8 |= ^int32(0xFF)
	}
	return BCond{Cond: cpu.Condition(condBits), Imm32: imm8 * 2}
}

func decodeMisc(op uint16) Instruction {
	sub := bits(op, 11, 8)
	switch {
	case sub&0b0101 == 0b0001: // CBZ/CBNZ: bit10=0, bit8=1, op(bit11)/i(bit9) vary
		return decodeCBZ(op)
	case sub == 0b0010: // SXTH/SXTB/UXTH/UXTB, selector in bits[7:6]
		extOp := bits(op, 7, 6)
		rm := reg3(op, 3)
		rd := reg3(op, 0)
		ops := [4]ExtendOp{ExtSXTH, ExtSXTB, ExtUXTH, ExtUXTB}
		return Extend{Op: ops[extOp], Rd: rd, Rm: rm}
	case sub&0b1110 == 0b0100: // PUSH: 0100, 0101
		m := bits(op, 8, 8) == 1
		reglist := RegList(bits(op, 7, 0))
		if m {
			reglist |= 1 << uint(cpu.LR)
		}
		return LDMSTM{Load: false, Rn: cpu.SP, Registers: reglist, Wback: true, Descending: true}
	case sub&0b1110 == 0b1100: // POP: 1100, 1101
		m := bits(op, 8, 8) == 1
		reglist := RegList(bits(op, 7, 0))
		if m {
			reglist |= 1 << uint(cpu.PC)
		}
		return LDMSTM{Load: true, Rn: cpu.SP, Registers: reglist, Wback: true}
	case sub == 0b1010: // REV family
		revOp := bits(op, 7, 6)
		rm := reg3(op, 3)
		rd := reg3(op, 0)
		switch revOp {
		case 0b00:
			return Reverse{Op: RevREV, Rd: rd, Rm: rm}
		case 0b01:
			return Reverse{Op: RevREV16, Rd: rd, Rm: rm}
		case 0b11:
			return Reverse{Op: RevREVSH, Rd: rd, Rm: rm}
		default:
			return UDF{Opcode: uint32(op)}
		}
	case sub == 0b1110: // BKPT
		return BKPT{Imm: uint8(bits(op, 7, 0))}
	case sub == 0b1111: // IT / hints
		opA := uint8(bits(op, 7, 4))
		opB := uint8(bits(op, 3, 0))
		if opB != 0 {
			return IT{FirstCond: opA, Mask: opB}
		}
		switch opA {
		case 0:
			return Hint{Op: HintNOP}
		case 1:
			return Hint{Op: HintYIELD}
		case 2:
			return Hint{Op: HintWFE}
		case 3:
			return Hint{Op: HintWFI}
		case 4:
			return Hint{Op: HintSEV}
		default:
			return Hint{Op: HintNOP}
		}
	default:
		return UDF{Opcode: uint32(op)}
	}
}
