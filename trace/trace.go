// Package trace implements the pretty-printing of retired instructions
// and register dumps: one column-aligned line per instruction (sequence,
// address, disassembly, flags), built on text/tabwriter.
package trace

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/arm-cm/cmsim/cpu"
	"github.com/arm-cm/cmsim/decoder"
)

// Writer is a sim.TraceSink that prints one column-aligned line per
// retired instruction, starting at StartAt (the `--trace_start` flag).
type Writer struct {
	st      *cpu.State
	out     *tabwriter.Writer
	StartAt uint64
}

// NewWriter builds a trace Writer over st (read after each instruction
// retires, for flag/PC reporting) writing tab-aligned columns to w.
func NewWriter(st *cpu.State, w io.Writer) *Writer {
	return &Writer{st: st, out: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
}

// Trace implements sim.TraceSink.
func (tw *Writer) Trace(count uint64, pc uint32, inst decoder.Instruction) error {
	if count < tw.StartAt {
		return nil
	}
	p := &tw.st.PSR
	flags := flagString(p)
	_, err := fmt.Fprintf(tw.out, "%06d\t0x%08X\t%s\t%s\n", count, pc, Disassemble(inst), flags)
	return err
}

// Flush flushes the underlying tabwriter; callers must call this once
// after a run to guarantee the final batch of columns is written.
func (tw *Writer) Flush() error { return tw.out.Flush() }

func flagString(p *cpu.PSR) string {
	b := [4]byte{'-', '-', '-', '-'}
	if p.N {
		b[0] = 'N'
	}
	if p.Z {
		b[1] = 'Z'
	}
	if p.C {
		b[2] = 'C'
	}
	if p.V {
		b[3] = 'V'
	}
	return string(b[:])
}

// DumpRegisters writes a column-aligned register dump (R0-R12, SP, LR,
// PC, APSR), for the end-of-run report.
func DumpRegisters(st *cpu.State, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	names := []string{"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8", "R9", "R10", "R11", "R12"}
	for i, name := range names {
		fmt.Fprintf(tw, "%s\t0x%08X\n", name, st.R[i])
	}
	fmt.Fprintf(tw, "SP\t0x%08X\n", st.GetSP())
	fmt.Fprintf(tw, "LR\t0x%08X\n", st.Get(cpu.LR))
	fmt.Fprintf(tw, "PC\t0x%08X\n", st.RawPC())
	fmt.Fprintf(tw, "APSR\t%s\n", flagString(&st.PSR))
	return tw.Flush()
}
