// Package loader copies an ELF image's loadable segments into simulator
// memory and indexes its symbol table for trace annotation and the
// debugger's breakpoint-by-name lookups.
package loader

import (
	"debug/elf"
	"fmt"
	"sort"

	"github.com/arm-cm/cmsim/bus"
)

// Symbol names an address in the loaded image, for trace annotation and
// debugger breakpoint-by-name lookups.
type Symbol struct {
	Name  string
	Value uint32
	Size  uint64
}

// Image is a loaded ELF file: its entry point and an address-sorted symbol
// table.
type Image struct {
	Entry   uint32
	Symbols []Symbol
}

// Load reads the ELF file at path, copies every PT_LOAD segment's file
// contents into mem at its physical address, and builds the symbol table.
// Segments must land entirely within a Bus region the caller has already
// mapped (flash or RAM); Load surfaces whatever Fault the bus returns if
// one doesn't.
func Load(path string, mem bus.Bus) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	if f.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("loader: %s is not an ARM ELF image (machine=%s)", path, f.Machine)
	}
	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("loader: %s is not a 32-bit ELF image", path)
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return nil, fmt.Errorf("loader: reading segment at %#x: %w", prog.Paddr, err)
		}
		loader, ok := mem.(bus.Loader)
		if !ok {
			return nil, fmt.Errorf("loader: bus does not support image loading")
		}
		if err := loader.LoadAt(uint32(prog.Paddr), data); err != nil {
			return nil, fmt.Errorf("loader: loading segment at %#x: %w", prog.Paddr, err)
		}
	}

	syms, err := f.Symbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, fmt.Errorf("loader: reading symbol table: %w", err)
	}
	symbols := make([]Symbol, 0, len(syms))
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC && elf.ST_TYPE(s.Info) != elf.STT_OBJECT {
			continue
		}
		symbols = append(symbols, Symbol{Name: s.Name, Value: uint32(s.Value), Size: s.Size})
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Value < symbols[j].Value })

	return &Image{Entry: uint32(f.Entry) &^ 1, Symbols: symbols}, nil
}

// Lookup returns the nearest symbol at or below addr, if any. A symbol with
// a nonzero Size matches only inside [Value, Value+Size); a zero-size symbol
// matches every address up to the next symbol.
func (img *Image) Lookup(addr uint32) (Symbol, bool) {
	idx := sort.Search(len(img.Symbols), func(i int) bool { return img.Symbols[i].Value > addr })
	if idx == 0 {
		return Symbol{}, false
	}
	s := img.Symbols[idx-1]
	if s.Size > 0 && uint64(addr) >= uint64(s.Value)+s.Size {
		return Symbol{}, false
	}
	return s, true
}
