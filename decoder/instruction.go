// Package decoder turns a Thumb/Thumb-2 halfword stream into a tagged
// Instruction representation. Decode is a pure function of a PC-addressed
// bus view: it never mutates processor state.
package decoder

import "github.com/arm-cm/cmsim/cpu"

// SRType names the shift operator applied to a register operand.
type SRType int

const (
	SRTypeLSL SRType = iota
	SRTypeLSR
	SRTypeASR
	SRTypeROR
	SRTypeRRX
)

func (t SRType) String() string {
	switch t {
	case SRTypeLSL:
		return "LSL"
	case SRTypeLSR:
		return "LSR"
	case SRTypeASR:
		return "ASR"
	case SRTypeROR:
		return "ROR"
	case SRTypeRRX:
		return "RRX"
	}
	return "?"
}

// Shift is a decoded (type, amount) pair, with the 0-means-32 / RRX
// normalization already applied by DecodeImmShift.
type Shift struct {
	Type   SRType
	Amount uint8
}

// SetFlags is the tri-state flag-setting policy an encoding carries:
// always set flags, never, or only when outside an IT block (the behavior
// of most 16-bit encodings).
type SetFlags int

const (
	FlagsFalse SetFlags = iota
	FlagsTrue
	FlagsNotInITBlock
)

// Resolve decides whether flags should actually be written for this
// retirement, given whether an IT block is currently active.
func (s SetFlags) Resolve(itActive bool) bool {
	switch s {
	case FlagsTrue:
		return true
	case FlagsNotInITBlock:
		return !itActive
	default:
		return false
	}
}

// Imm32Carry holds the ARMv7-M ThumbExpandImm_C result. When the rotation
// that produced imm32 cannot affect the carry flag (i.e. the immediate was
// not actually rotated), a single imm32/carry-passthrough pair is stored
// (NoCarry); otherwise both possible input-carry outcomes are precomputed
// at decode time so the executor never needs to re-decode.
type Imm32Carry struct {
	hasCarry bool
	imm32    uint32
	c0Imm    uint32
	c0Carry  bool
	c1Imm    uint32
	c1Carry  bool
}

// NoCarryImm32 builds an Imm32Carry whose value does not depend on the
// incoming carry flag.
func NoCarryImm32(imm32 uint32) Imm32Carry {
	return Imm32Carry{imm32: imm32}
}

// CarryImm32 builds an Imm32Carry with precomputed carry-in=0/1 variants.
func CarryImm32(imm0 uint32, carry0 bool, imm1 uint32, carry1 bool) Imm32Carry {
	return Imm32Carry{hasCarry: true, c0Imm: imm0, c0Carry: carry0, c1Imm: imm1, c1Carry: carry1}
}

// Resolve selects the (imm32, carry_out) pair given the current carry flag.
func (i Imm32Carry) Resolve(carryIn bool) (uint32, bool) {
	if !i.hasCarry {
		return i.imm32, carryIn
	}
	if carryIn {
		return i.c1Imm, i.c1Carry
	}
	return i.c0Imm, i.c0Carry
}

// AddrMode is the common (index, add, wback) addressing-mode triple shared
// by every load/store encoding.
type AddrMode struct {
	Index bool // true: offset address is accessed; false: rn is accessed (post-index)
	Add   bool // true: offset = rn + extra; false: offset = rn - extra
	Wback bool // true: rn is written back to the computed offset address
}

// Instruction is the closed set of decoded Thumb/Thumb-2 instructions.
// Each concrete type carries exactly the operands its executor arm needs,
// so the executor's type switch plays the role of pattern matching over a
// tagged union.
type Instruction interface {
	// Size returns the instruction's encoded size in bytes (2 or 4).
	Size() int
}

type base16 struct{}

func (base16) Size() int { return 2 }

type base32 struct{}

func (base32) Size() int { return 4 }

// UDF marks an opcode the decoder could not classify, or an ARMv7-M
// encoding this build intentionally does not implement. The executor
// surfaces it as an undefined-instruction fault.
type UDF struct {
	base16
	Opcode uint32
	Wide   bool
}

func (u UDF) Size() int {
	if u.Wide {
		return 4
	}
	return 2
}

// --- Data processing -------------------------------------------------

// DPOp names the ARM ARM data-processing mnemonic for a decoded arm.
type DPOp int

const (
	OpAND DPOp = iota
	OpEOR
	OpSUB
	OpRSB
	OpADD
	OpADC
	OpSBC
	OpORR
	OpMOV
	OpMVN
	OpBIC
	OpTST
	OpTEQ
	OpCMP
	OpCMN
	OpLSL
	OpLSR
	OpASR
	OpROR
	OpORN
)

// DPReg is a register-register(-shift) data-processing arm: AND/EOR/ORR/
// BIC/ADD/SUB/ADC/SBC/RSB/TST/TEQ/CMP/CMN/MOV/MVN/LSL/LSR/ASR/ROR with a
// register or shifted-register second operand.
type DPReg struct {
	base16
	Op             DPOp
	Rd, Rn         cpu.Reg // Rn unused (zero) for single-operand ops (MOV/MVN)
	Rm             cpu.Reg
	Shift          Shift
	ShiftReg       bool // true: shift amount is the low byte of ShiftAmountReg
	ShiftAmountReg cpu.Reg
	SetFlags       SetFlags
	Thumb32        bool
}

func (d DPReg) Size() int {
	if d.Thumb32 {
		return 4
	}
	return 2
}

// DPImm is an immediate data-processing arm (MOV/CMP/ADD/SUB #imm8 16-bit,
// or the ARMv7-M ThumbExpandImm 32-bit family).
type DPImm struct {
	base16
	Op       DPOp
	Rd, Rn   cpu.Reg
	Imm      Imm32Carry
	SetFlags SetFlags
	Thumb32  bool
}

func (d DPImm) Size() int {
	if d.Thumb32 {
		return 4
	}
	return 2
}

// --- Branches ----------------------------------------------------------

// BCond is a conditional branch (16-bit T1, or 32-bit T3 when Thumb32).
type BCond struct {
	base16
	Cond    cpu.Condition
	Imm32   int32
	Thumb32 bool
}

func (b BCond) Size() int {
	if b.Thumb32 {
		return 4
	}
	return 2
}

// B is an unconditional branch (16-bit T2 or 32-bit T4).
type B struct {
	base16
	Imm32   int32
	Thumb32 bool
}

func (b B) Size() int {
	if b.Thumb32 {
		return 4
	}
	return 2
}

// BL is branch-with-link; always a 32-bit (two-halfword) encoding.
type BL struct {
	base32
	Imm32 int32
}

// BX/BLX (register): low bit of Rm selects Thumb state, which must be 1 on
// ARMv6-M or the instruction faults.
type BX struct {
	base16
	Rm   cpu.Reg
	Link bool
}

// CBZNZ is CBZ/CBNZ: a forward-only branch on Rn==0 (CBZ) or Rn!=0 (CBNZ),
// data-dependent rather than flag-dependent.
type CBZNZ struct {
	base16
	Rn      cpu.Reg
	Imm32   uint32
	Nonzero bool // true: CBNZ, false: CBZ
}

// --- Loads / stores -----------------------------------------------------

// Width names the access width of a load/store arm.
type Width int

const (
	WidthByte Width = iota
	WidthHalf
	WidthWord
)

// LoadStoreImm covers STR/STRB/STRH/LDR/LDRB/LDRH/LDRSB/LDRSH with an
// immediate offset (register + 5-/8-/12-bit immediate), including
// SP-relative forms (Rn == SP). PC-relative loads decode to LDRLiteral.
type LoadStoreImm struct {
	base16
	Load     bool
	Width    Width
	Signed   bool
	Rt, Rn   cpu.Reg
	Imm32    uint32
	Mode     AddrMode
	Thumb32  bool
}

func (l LoadStoreImm) Size() int {
	if l.Thumb32 {
		return 4
	}
	return 2
}

// LoadStoreReg covers STR/STRB/STRH/LDR/LDRB/LDRH/LDRSB/LDRSH with a
// (possibly shifted) register offset.
type LoadStoreReg struct {
	base16
	Load    bool
	Width   Width
	Signed  bool
	Rt, Rn  cpu.Reg
	Rm      cpu.Reg
	Shift   Shift
	Thumb32 bool
}

func (l LoadStoreReg) Size() int {
	if l.Thumb32 {
		return 4
	}
	return 2
}

// LDRLiteral is a PC-relative literal load.
type LDRLiteral struct {
	base16
	Rt      cpu.Reg
	Imm32   uint32
	Add     bool
	Thumb32 bool
}

func (l LDRLiteral) Size() int {
	if l.Thumb32 {
		return 4
	}
	return 2
}

// RegList is the bitmask of affected registers for LDM/STM/PUSH/POP
//, bit i set means Ri participates.
type RegList uint16

// Has reports whether register r is a member of the list.
func (l RegList) Has(r cpu.Reg) bool { return l&(1<<uint(r)) != 0 }

// Count returns the number of registers in the list.
func (l RegList) Count() int {
	n := 0
	for i := 0; i < 16; i++ {
		if l&(1<<uint(i)) != 0 {
			n++
		}
	}
	return n
}

// LDMSTM is LDM/STM/PUSH/POP/STMDB/LDMDB, all expressed as a register list
// walked in numerical order against a base register with optional
// writeback.
type LDMSTM struct {
	base16
	Load       bool
	Rn         cpu.Reg
	Registers  RegList
	Wback      bool
	Descending bool // true: STMDB/LDMDB (decrement-before); false: increment-after
	Thumb32    bool
}

func (l LDMSTM) Size() int {
	if l.Thumb32 {
		return 4
	}
	return 2
}

// --- Multiply / divide ---------------------------------------------------

// MUL is 32x32->32 multiply (MUL/MLA/MLS).
type MUL struct {
	base16
	Rd, Rn, Rm, Ra cpu.Reg
	Accumulate     bool
	Subtract       bool // MLS
	SetFlags       SetFlags
	Thumb32        bool
}

func (m MUL) Size() int {
	if m.Thumb32 {
		return 4
	}
	return 2
}

// LongMUL is the 64-bit widening family (UMULL/SMULL/UMLAL/SMLAL); always
// a 32-bit encoding.
type LongMUL struct {
	base32
	RdLo, RdHi, Rn, Rm cpu.Reg
	Signed             bool
	Accumulate         bool
}

// Divide is SDIV/UDIV; divide-by-zero returns 0 without fault.
type Divide struct {
	base32
	Rd, Rn, Rm cpu.Reg
	Signed     bool
}

// --- Bitfield / misc ------------------------------------------------------

// CLZ counts leading zeros.
type CLZ struct {
	base32
	Rd, Rm cpu.Reg
}

// Bitfield covers BFI/BFC/UBFX/SBFX with an inclusive (lsb, width) range.
type BitfieldOp int

const (
	BFOpBFI BitfieldOp = iota
	BFOpBFC
	BFOpUBFX
	BFOpSBFX
)

type Bitfield struct {
	base32
	Op         BitfieldOp
	Rd, Rn     cpu.Reg
	LSB, Width uint8
}

// Extend covers UXTB/UXTH/SXTB/SXTH with an optional pre-rotation.
type ExtendOp int

const (
	ExtUXTB ExtendOp = iota
	ExtUXTH
	ExtSXTB
	ExtSXTH
)

type Extend struct {
	base16
	Op       ExtendOp
	Rd, Rm   cpu.Reg
	Rotation uint8 // one of 0, 8, 16, 24
	Thumb32  bool
}

func (e Extend) Size() int {
	if e.Thumb32 {
		return 4
	}
	return 2
}

// ReverseOp names REV/REV16/REVSH byte-permutation variants.
type ReverseOp int

const (
	RevREV ReverseOp = iota
	RevREV16
	RevREVSH
)

type Reverse struct {
	base16
	Op     ReverseOp
	Rd, Rm cpu.Reg
}

// --- IT / hints / barriers ------------------------------------------------

// IT decodes the If-Then instruction's firstcond/mask fields directly; the
// executor installs them into the processor's IT state unmodified.
type IT struct {
	base16
	FirstCond uint8
	Mask      uint8
}

// HintOp names a no-architectural-effect hint/barrier instruction.
type HintOp int

const (
	HintNOP HintOp = iota
	HintYIELD
	HintWFE
	HintWFI
	HintSEV
	HintDMB
	HintDSB
	HintISB
)

type Hint struct {
	base16
	Op      HintOp
	Thumb32 bool
}

func (h Hint) Size() int {
	if h.Thumb32 {
		return 4
	}
	return 2
}

// MOVT writes Imm16 into the top half of Rd, leaving the low half intact.
type MOVT struct {
	base32
	Rd    cpu.Reg
	Imm16 uint16
}

// --- PSR transfer ----------------------------------------------------------

type MRS struct {
	base32
	Rd cpu.Reg
}

type MSR struct {
	base32
	Rn cpu.Reg
}

// --- Exception-generating --------------------------------------------------

type BKPT struct {
	base16
	Imm uint8
}

type SVC struct {
	base16
	Imm uint8
}

// ADR computes rd = Align(PC,4) + imm32 or - imm32.
type ADR struct {
	base16
	Rd      cpu.Reg
	Imm32   uint32
	Add     bool
	Thumb32 bool
}

func (a ADR) Size() int {
	if a.Thumb32 {
		return 4
	}
	return 2
}
