package bus

// Internal models the private peripheral bus at [0xE000_0000, 0xF000_0000).
// No RAM lives here; any access to a claimed address is a fault unless a
// peripheral model (NVIC, SysTick, ...) is plugged in. None is in this
// build, so every claimed access faults.
type Internal struct{}

const (
	internalStart = 0xE000_0000
	internalEnd   = 0xF000_0000
)

func (Internal) InRange(addr uint32) bool {
	return addr >= internalStart && addr < internalEnd
}

func (Internal) Read8(addr uint32) (uint8, error) {
	return 0, faultf(addr, 1, OpRead, "internal private bus has no mapped peripheral")
}

func (Internal) Read16(addr uint32) (uint16, error) {
	return 0, faultf(addr, 2, OpRead, "internal private bus has no mapped peripheral")
}

func (Internal) Read32(addr uint32) (uint32, error) {
	return 0, faultf(addr, 4, OpRead, "internal private bus has no mapped peripheral")
}

func (Internal) Write8(addr uint32, _ uint8) error {
	return faultf(addr, 1, OpWrite, "internal private bus has no mapped peripheral")
}

func (Internal) Write16(addr uint32, _ uint16) error {
	return faultf(addr, 2, OpWrite, "internal private bus has no mapped peripheral")
}

func (Internal) Write32(addr uint32, _ uint32) error {
	return faultf(addr, 4, OpWrite, "internal private bus has no mapped peripheral")
}
