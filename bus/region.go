package bus

// Region is a byte-buffer backed memory range mapped at [Base, Base+len(Data)).
// Flash and RAM differ only in whether writes are accepted.
type Region struct {
	Name     string
	Base     uint32
	Data     []byte
	Writable bool
}

// NewFlash creates a read-only region typically mapped at address 0.
func NewFlash(base uint32, data []byte) *Region {
	return &Region{Name: "flash", Base: base, Data: data, Writable: false}
}

// NewRAM creates a read/write region of the given size, typically mapped at
// 0x2000_0000.
func NewRAM(base uint32, size uint32) *Region {
	return &Region{Name: "sram", Base: base, Data: make([]byte, size), Writable: true}
}

func (r *Region) end() uint32 { return r.Base + uint32(len(r.Data)) }

// LoadAt copies data into the region starting at addr, bypassing the
// Writable check that guards guest-initiated stores. This is how the
// loader populates a read-only flash region with a program image before
// the simulator's first reset: the write-protection bus fault is an
// architectural property of guest code, not a restriction on the host
// that owns the backing buffer.
func (r *Region) LoadAt(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	last := addr + uint32(len(data)) - 1
	if !r.InRange(addr) || !r.InRange(last) {
		return faultf(addr, len(data), OpWrite, "image segment does not fit in %s", r.Name)
	}
	copy(r.Data[addr-r.Base:], data)
	return nil
}

// InRange reports whether addr falls inside the region's half-open interval.
func (r *Region) InRange(addr uint32) bool {
	return addr >= r.Base && addr < r.end()
}

func (r *Region) Read8(addr uint32) (uint8, error) {
	if !r.InRange(addr) {
		return 0, faultf(addr, 1, OpRead, "address not mapped in %s", r.Name)
	}
	return r.Data[addr-r.Base], nil
}

func (r *Region) Read16(addr uint32) (uint16, error) {
	if !checkAlign16(addr) {
		return 0, faultf(addr, 2, OpRead, "unaligned halfword access")
	}
	if !r.InRange(addr) || !r.InRange(addr+1) {
		return 0, faultf(addr, 2, OpRead, "address not mapped in %s", r.Name)
	}
	off := addr - r.Base
	return uint16(r.Data[off]) | uint16(r.Data[off+1])<<8, nil
}

func (r *Region) Read32(addr uint32) (uint32, error) {
	if !checkAlign32(addr) {
		return 0, faultf(addr, 4, OpRead, "unaligned word access")
	}
	if !r.InRange(addr) || !r.InRange(addr+3) {
		return 0, faultf(addr, 4, OpRead, "address not mapped in %s", r.Name)
	}
	off := addr - r.Base
	return uint32(r.Data[off]) | uint32(r.Data[off+1])<<8 |
		uint32(r.Data[off+2])<<16 | uint32(r.Data[off+3])<<24, nil
}

func (r *Region) Write8(addr uint32, v uint8) error {
	if !r.Writable {
		return faultf(addr, 1, OpWrite, "%s is not writable", r.Name)
	}
	if !r.InRange(addr) {
		return faultf(addr, 1, OpWrite, "address not mapped in %s", r.Name)
	}
	r.Data[addr-r.Base] = v
	return nil
}

func (r *Region) Write16(addr uint32, v uint16) error {
	if !r.Writable {
		return faultf(addr, 2, OpWrite, "%s is not writable", r.Name)
	}
	if !checkAlign16(addr) {
		return faultf(addr, 2, OpWrite, "unaligned halfword access")
	}
	if !r.InRange(addr) || !r.InRange(addr+1) {
		return faultf(addr, 2, OpWrite, "address not mapped in %s", r.Name)
	}
	off := addr - r.Base
	r.Data[off] = byte(v)
	r.Data[off+1] = byte(v >> 8)
	return nil
}

func (r *Region) Write32(addr uint32, v uint32) error {
	if !r.Writable {
		return faultf(addr, 4, OpWrite, "%s is not writable", r.Name)
	}
	if !checkAlign32(addr) {
		return faultf(addr, 4, OpWrite, "unaligned word access")
	}
	if !r.InRange(addr) || !r.InRange(addr+3) {
		return faultf(addr, 4, OpWrite, "address not mapped in %s", r.Name)
	}
	off := addr - r.Base
	r.Data[off] = byte(v)
	r.Data[off+1] = byte(v >> 8)
	r.Data[off+2] = byte(v >> 16)
	r.Data[off+3] = byte(v >> 24)
	return nil
}
