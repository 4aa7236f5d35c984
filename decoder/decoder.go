package decoder

import "github.com/arm-cm/cmsim/bus"

// Fetch reads one instruction from addr on b and decodes it, returning the
// decoded Instruction; its Size method gives the length in bytes (2 or 4).
// It never consults or mutates processor state: conditional execution and
// IT-state bookkeeping are left to the executor and the run loop.
func Fetch(b bus.Bus, addr uint32) (Instruction, error) {
	hw1, err := b.Read16(addr)
	if err != nil {
		return nil, err
	}
	if !IsWide(hw1) {
		return Decode16(hw1), nil
	}
	hw2, err := b.Read16(addr + 2)
	if err != nil {
		return nil, err
	}
	return Decode32(hw1, hw2), nil
}
