// Package inspect implements gbas-inspect: a read-only terminal browser
// over an already-assembled object (sections, symbols, ROM bytes). Unlike
// the teacher's interactive CPU debugger, there is nothing to step —
// assembly has already run to completion by the time this opens.
package inspect

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/ytausky/gbas/assembler"
	"github.com/ytausky/gbas/config"
	"github.com/ytausky/gbas/diagnostics"
	"github.com/ytausky/gbas/object"
)

// App is the gbas-inspect terminal UI.
type App struct {
	program *assembler.Program
	diags   *diagnostics.Collector
	cfg     *config.Config

	app   *tview.Application
	pages *tview.Pages

	sectionsView    *tview.List
	symbolsView     *tview.List
	hexView         *tview.TextView
	diagnosticsView *tview.TextView
	statusBar       *tview.TextView
}

// NewApp builds an App over an already-assembled program.
func NewApp(program *assembler.Program, diags *diagnostics.Collector, cfg *config.Config) *App {
	a := &App{
		program: program,
		diags:   diags,
		cfg:     cfg,
		app:     tview.NewApplication(),
	}
	a.initializeViews()
	a.buildLayout()
	a.populate()
	return a
}

func (a *App) initializeViews() {
	color := a.cfg.Inspector.ColorOutput

	a.sectionsView = tview.NewList().ShowSecondaryText(true)
	a.sectionsView.SetBorder(true).SetTitle(" Sections ")
	a.sectionsView.SetChangedFunc(func(i int, _, _ string, _ rune) {
		a.showSectionHex(i)
	})

	a.symbolsView = tview.NewList().ShowSecondaryText(true)
	a.symbolsView.SetBorder(true).SetTitle(" Symbols ")

	a.hexView = tview.NewTextView().SetDynamicColors(color).SetScrollable(true).SetWrap(false)
	a.hexView.SetBorder(true).SetTitle(" ROM bytes ")

	a.diagnosticsView = tview.NewTextView().SetDynamicColors(color).SetScrollable(true).SetWrap(true)
	a.diagnosticsView.SetBorder(true).SetTitle(" Diagnostics ")

	a.statusBar = tview.NewTextView().SetDynamicColors(color)
	if color {
		a.statusBar.SetText("[::b]tab[::-] switch panel   [::b]q / esc[::-] quit")
	} else {
		a.statusBar.SetText("tab switch panel   q / esc quit")
	}
}

func (a *App) buildLayout() {
	left := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.sectionsView, 0, 1, true).
		AddItem(a.symbolsView, 0, 1, false)

	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.hexView, 0, 2, false).
		AddItem(a.diagnosticsView, 0, 1, false)

	main := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(left, 0, 1, true).
		AddItem(right, 0, 2, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(main, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.pages = tview.NewPages().AddPage("main", root, true, true)

	focusables := []tview.Primitive{a.sectionsView, a.symbolsView, a.hexView, a.diagnosticsView}
	focusIdx := 0
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape || event.Rune() == 'q':
			a.app.Stop()
			return nil
		case event.Key() == tcell.KeyTab:
			focusIdx = (focusIdx + 1) % len(focusables)
			a.app.SetFocus(focusables[focusIdx])
			return nil
		}
		return event
	})
}

// formatAddr renders a resolved address/value per a.cfg.Inspector.NumberFormat.
func (a *App) formatAddr(v int64) string {
	if a.cfg.Inspector.NumberFormat == "dec" {
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("$%04X", v)
}

func (a *App) populate() {
	content := a.program.Content
	for _, sec := range content.Sections {
		var addrText string
		if addr, ok := content.Vars.Get(sec.AddrVar).Exact(); ok {
			addrText = a.formatAddr(addr)
		} else {
			addrText = "unresolved"
		}
		name := sec.Name
		if name == "" {
			name = "(default)"
		}
		a.sectionsView.AddItem(name, fmt.Sprintf("origin %s, %d fragment(s)", addrText, len(sec.Fragments)), 0, nil)
	}

	names := a.program.SymbolNames
	for id := 0; id < content.Symbols.Len(); id++ {
		sym := content.Symbols.Get(object.SymbolID(id))
		label := names[object.SymbolID(id)]
		if label == "" {
			label = fmt.Sprintf("<anon %d>", id)
		}
		val, ok := content.Symbols.Value(object.SymbolID(id), content.Vars).Exact()
		var desc string
		switch {
		case !sym.HasDef:
			desc = "undefined"
		case ok:
			desc = a.formatAddr(val)
		default:
			desc = "unresolved"
		}
		a.symbolsView.AddItem(label, desc, 0, nil)
	}

	var diagLines []string
	for _, d := range a.diags.Diagnostics {
		for _, c := range d.Clauses {
			diagLines = append(diagLines, fmt.Sprintf("%s: %s: %s", c.FileName, c.Tag, c.Message))
		}
	}
	if len(diagLines) == 0 {
		diagLines = append(diagLines, "(no diagnostics)")
	}
	a.diagnosticsView.SetText(strings.Join(diagLines, "\n"))

	if len(content.Sections) > 0 {
		a.showSectionHex(0)
	}
}

func (a *App) showSectionHex(i int) {
	if i < 0 || i >= len(a.program.Sections) {
		return
	}
	sec := a.program.Sections[i]
	a.hexView.SetText(hexDump(sec.Addr, sec.Data, a.cfg.Inspector.BytesPerLine, a.cfg.Inspector.NumberFormat))
}

// hexDump renders data starting at base, perLine bytes to a row. numberFormat
// selects the address/byte radix: "dec" renders decimal, anything else
// (including the default "hex") renders the traditional $-prefixed hex.
func hexDump(base uint32, data []byte, perLine int, numberFormat string) string {
	if perLine <= 0 {
		perLine = 16
	}
	decimal := numberFormat == "dec"

	var sb strings.Builder
	for off := 0; off < len(data); off += perLine {
		end := off + perLine
		if end > len(data) {
			end = len(data)
		}
		if decimal {
			fmt.Fprintf(&sb, "%06d  ", int(base)+off)
		} else {
			fmt.Fprintf(&sb, "$%04X  ", int(base)+off)
		}
		for _, b := range data[off:end] {
			if decimal {
				fmt.Fprintf(&sb, "%3d ", b)
			} else {
				fmt.Fprintf(&sb, "%02X ", b)
			}
		}
		sb.WriteByte('\n')
	}
	if len(data) == 0 {
		sb.WriteString("(empty)\n")
	}
	return sb.String()
}

// Run starts the terminal UI's event loop.
func (a *App) Run() error {
	a.app.SetRoot(a.pages, true)
	return a.app.Run()
}
