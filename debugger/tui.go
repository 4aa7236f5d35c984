package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the interactive debugger front end: disassembly on the left,
// registers and breakpoints on the right, both stacked above an output
// log and a command line. There is no source panel; the ELF-only input
// carries no listing to map addresses back to.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	DisassemblyView *tview.TextView
	RegisterView    *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField
}

// NewTUI builds a TUI over d, wiring the views, layout and key bindings.
func NewTUI(d *Debugger) *TUI {
	t := &TUI{Debugger: d, App: tview.NewApplication()}
	t.initViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initViews() {
	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("(cmsim) ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 17, 0, false).
		AddItem(t.BreakpointsView, 0, 1, false)

	content := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(t.DisassemblyView, 0, 2, false).
		AddItem(right, 0, 1, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(content, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 1, 0, true)

	t.App.SetRoot(layout, true).SetFocus(t.CommandInput)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyF5:
			t.execute("continue")
			return nil
		case tcell.KeyF10:
			t.execute("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.refresh()
			return nil
		}
		return ev
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd != "" {
		t.execute(cmd)
		t.CommandInput.SetText("")
	}
}

// execute runs one debugger command line (see commands.go for the
// recognized verbs) and refreshes every panel.
func (t *TUI) execute(cmd string) {
	out, err := Execute(t.Debugger, cmd)
	if err != nil {
		fmt.Fprintf(t.OutputView, "[red]error:[white] %v\n", err)
	}
	if out != "" {
		fmt.Fprintln(t.OutputView, out)
	}
	t.OutputView.ScrollToEnd()
	t.refresh()
}

func (t *TUI) refresh() {
	t.updateRegisters()
	t.updateBreakpoints()
	t.updateDisassembly()
}

func (t *TUI) updateRegisters() {
	t.RegisterView.Clear()
	fmt.Fprintln(t.RegisterView, strings.Join(t.Debugger.RegisterDump(), "\n"))
}

func (t *TUI) updateBreakpoints() {
	t.BreakpointsView.Clear()
	for _, bp := range t.Debugger.Breakpoints.All() {
		fmt.Fprintf(t.BreakpointsView, "#%d 0x%08X (hits=%d)\n", bp.ID, bp.Address, bp.HitCount)
	}
}

func (t *TUI) updateDisassembly() {
	t.DisassemblyView.Clear()
	pc := t.Debugger.Sim.CPU.RawPC()
	addr := pc
	for i := 0; i < 20; i++ {
		text, size, err := t.Debugger.Disassemble(addr)
		if err != nil {
			break
		}
		marker := "  "
		if addr == pc {
			marker = "->"
		}
		fmt.Fprintf(t.DisassemblyView, "%s 0x%08X: %s\n", marker, addr, text)
		addr += uint32(size)
	}
}

// Run starts the TUI event loop, blocking until the user quits.
func (t *TUI) Run() error {
	t.refresh()
	return t.App.Run()
}

// Stop ends the TUI event loop.
func (t *TUI) Stop() { t.App.Stop() }
