// Package bus implements the zero-copy address-decoding fabric that routes
// 8/16/32-bit reads and writes from the core to the region that backs a
// given physical address.
package bus

import "fmt"

// Op names a bus transaction for fault reporting.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// Fault reports an unmapped or misaligned bus access. It carries enough
// detail for the run loop to report a faulting instruction.
type Fault struct {
	Addr  uint32
	Width int // 1, 2, or 4
	Op    Op
	Msg   string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("bus fault: %s%d at 0x%08X: %s", f.Op, f.Width*8, f.Addr, f.Msg)
}

func faultf(addr uint32, width int, op Op, format string, args ...any) *Fault {
	return &Fault{Addr: addr, Width: width, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Bus is the contract every region and the matrix itself implement.
// Addresses are natural-aligned; all widths are little-endian.
//
// The external interface table in the simulator's design notes lists only
// Read8/16/32, Write8 and Write32 for the bus contract, but STRH requires an
// atomic halfword store, so Write16 is added here too.
type Bus interface {
	Read8(addr uint32) (uint8, error)
	Read16(addr uint32) (uint16, error)
	Read32(addr uint32) (uint32, error)
	Write8(addr uint32, v uint8) error
	Write16(addr uint32, v uint16) error
	Write32(addr uint32, v uint32) error
	InRange(addr uint32) bool
}

// Loader is implemented by buses that can accept a raw image load,
// bypassing the architectural write-protection that a flash Region
// enforces against guest stores: the ELF loader writes p_filesz bytes at
// p_paddr regardless of the target region's normal writability.
type Loader interface {
	LoadAt(addr uint32, data []byte) error
}

func checkAlign16(addr uint32) bool { return addr&0x1 == 0 }
func checkAlign32(addr uint32) bool { return addr&0x3 == 0 }
