package bus

// Matrix is the first-match address-decoding fabric described in the
// simulator's bus design: children are asked in a fixed order and the first
// one whose InRange predicate matches handles the access. This mirrors
// vm/memory.go's segment table, generalized to the AHB-lite/internal split
// named in the design (internal bus first, then flash/SRAM).
type Matrix struct {
	children []Bus
}

// NewMatrix builds a matrix over the given children, asked in order.
func NewMatrix(children ...Bus) *Matrix {
	return &Matrix{children: children}
}

func (m *Matrix) find(addr uint32) Bus {
	for _, c := range m.children {
		if c.InRange(addr) {
			return c
		}
	}
	return nil
}

func (m *Matrix) InRange(addr uint32) bool {
	return m.find(addr) != nil
}

func (m *Matrix) Read8(addr uint32) (uint8, error) {
	c := m.find(addr)
	if c == nil {
		return 0, faultf(addr, 1, OpRead, "no bus claims this address")
	}
	return c.Read8(addr)
}

func (m *Matrix) Read16(addr uint32) (uint16, error) {
	c := m.find(addr)
	if c == nil {
		return 0, faultf(addr, 2, OpRead, "no bus claims this address")
	}
	return c.Read16(addr)
}

func (m *Matrix) Read32(addr uint32) (uint32, error) {
	c := m.find(addr)
	if c == nil {
		return 0, faultf(addr, 4, OpRead, "no bus claims this address")
	}
	return c.Read32(addr)
}

func (m *Matrix) Write8(addr uint32, v uint8) error {
	c := m.find(addr)
	if c == nil {
		return faultf(addr, 1, OpWrite, "no bus claims this address")
	}
	return c.Write8(addr, v)
}

func (m *Matrix) Write16(addr uint32, v uint16) error {
	c := m.find(addr)
	if c == nil {
		return faultf(addr, 2, OpWrite, "no bus claims this address")
	}
	return c.Write16(addr, v)
}

func (m *Matrix) Write32(addr uint32, v uint32) error {
	c := m.find(addr)
	if c == nil {
		return faultf(addr, 4, OpWrite, "no bus claims this address")
	}
	return c.Write32(addr, v)
}

// LoadAt delegates to whichever child claims addr, provided it implements
// Loader (flash and RAM regions do; Internal does not, since it has no
// backing buffer to load into).
func (m *Matrix) LoadAt(addr uint32, data []byte) error {
	c := m.find(addr)
	if c == nil {
		return faultf(addr, len(data), OpWrite, "no bus claims this address")
	}
	l, ok := c.(Loader)
	if !ok {
		return faultf(addr, len(data), OpWrite, "claiming bus does not support image loading")
	}
	return l.LoadAt(addr, data)
}
