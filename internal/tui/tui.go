// Package tui is the terminal front-end: one form, a status line and the
// modal helpers shared with the rest of the screen.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"lfstool/internal/app"
	"lfstool/internal/compress"
	"lfstool/internal/invocation"
	"lfstool/internal/status"
	"lfstool/internal/supervisor"
)

const (
	labelMode       = "Mode"
	labelInput      = "Input"
	labelOutput     = "Output"
	labelBlockSize  = "Block size"
	labelBlockCount = "Block count"
	labelCompress   = "Compress image"
)

var modes = []invocation.Mode{invocation.ModeExtract, invocation.ModeCreate}

type view struct {
	core *app.App

	tv     *tview.Application
	pages  *tview.Pages
	header *tview.TextView
	form   *tview.Form
	status *tview.TextView
	footer *tview.TextView

	mode invocation.Mode
}

// Run blocks until the user quits.
func Run(core *app.App) error {
	v := &view{
		core:   core,
		tv:     tview.NewApplication(),
		pages:  tview.NewPages(),
		header: tview.NewTextView(),
		form:   tview.NewForm(),
		status: tview.NewTextView(),
		footer: tview.NewTextView(),
		mode:   invocation.ModeExtract,
	}
	v.style()
	v.buildForm()
	v.bindKeys()
	v.drawHeader()
	v.setStatus(status.Idle, status.Ready)

	grid := tview.NewGrid().SetRows(3, 0, 3, 2).SetColumns(0).SetBorders(false)
	grid.AddItem(v.header, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(v.form, 1, 0, 1, 1, 0, 0, true)
	grid.AddItem(v.status, 2, 0, 1, 1, 0, 0, false)
	grid.AddItem(v.footer, 3, 0, 1, 1, 0, 0, false)

	v.pages.AddAndSwitchToPage("main", grid, true)
	v.tv.SetRoot(v.pages, true)
	return v.tv.Run()
}

func (v *view) style() {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorNavy
	tview.Styles.ContrastBackgroundColor = tcell.ColorBlue
	tview.Styles.BorderColor = tcell.ColorSkyblue
	tview.Styles.PrimaryTextColor = tcell.ColorWhite

	v.header.SetBorder(true)
	v.header.SetDynamicColors(true)
	v.header.SetTitle(" LittleFS image tool ")
	v.header.SetTitleColor(tcell.ColorSkyblue)

	v.form.SetBorder(true)
	v.form.SetTitleAlign(tview.AlignLeft)
	v.form.SetFieldBackgroundColor(tcell.ColorBlue)
	v.form.SetButtonBackgroundColor(tcell.ColorTeal)

	// stderr text may contain brackets; keep tags off
	v.status.SetBorder(true)
	v.status.SetTitle(" status ")
	v.status.SetTitleAlign(tview.AlignLeft)
	v.status.SetDynamicColors(false)

	v.footer.SetDynamicColors(true)
	v.footer.SetText(footerText())
}

func footerText() string {
	lbl := func(fn, t string) string { return fmt.Sprintf("[black:white] %s [-:-:-] [yellow]%s[-]", fn, t) }
	return strings.Join([]string{
		lbl("Tab", "Next"),
		lbl("F2", "Mode"),
		lbl("F5", "Run"),
		lbl("F10", "Quit"),
	}, "  ")
}

func (v *view) drawHeader() {
	v.header.Clear()
	fmt.Fprintf(v.header, "[yellow]TOOL[-]: [white]%s[-]   [yellow]MODE[-]: [white]%s[-]",
		v.core.Tool, v.mode)
	v.form.SetTitle(fmt.Sprintf(" %s ", modeTitle(v.mode)))
}

func modeTitle(m invocation.Mode) string {
	if m == invocation.ModeCreate {
		return "Create image from directory"
	}
	return "Extract image to directory"
}

func (v *view) buildForm() {
	def := v.core.DefaultForm(v.mode)
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.String()
	}

	v.form.AddDropDown(labelMode, names, 0, func(_ string, i int) {
		if i >= 0 && i < len(modes) && modes[i] != v.mode {
			v.mode = modes[i]
			v.drawHeader()
		}
	})
	v.form.AddInputField(labelInput, "", 50, nil, nil)
	v.form.AddInputField(labelOutput, "", 50, nil, nil)
	v.form.AddInputField(labelBlockSize, def.BlockSize, 10, nil, nil)
	v.form.AddInputField(labelBlockCount, def.BlockCount, 10, nil, nil)

	codecs := compress.Names()
	initial := 0
	for i, c := range codecs {
		if c == def.Compression {
			initial = i
		}
	}
	v.form.AddDropDown(labelCompress, codecs, initial, nil)

	for _, label := range []string{labelInput, labelOutput} {
		if in, ok := v.form.GetFormItemByLabel(label).(*tview.InputField); ok {
			in.SetAutocompleteFunc(completePath)
		}
	}

	v.form.AddButton("Run", v.submit)
	v.form.AddButton("Quit", v.tv.Stop)
}

func (v *view) bindKeys() {
	v.tv.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyF2:
			if dd, ok := v.form.GetFormItemByLabel(labelMode).(*tview.DropDown); ok {
				cur, _ := dd.GetCurrentOption()
				dd.SetCurrentOption((cur + 1) % len(modes))
			}
			return nil
		case tcell.KeyF5:
			v.submit()
			return nil
		case tcell.KeyF10:
			v.tv.Stop()
			return nil
		}
		return ev
	})
}

func (v *view) text(label string) string {
	if in, ok := v.form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return strings.TrimSpace(in.GetText())
	}
	return ""
}

func (v *view) collect() app.Form {
	f := v.core.DefaultForm(v.mode)
	f.Input = v.text(labelInput)
	f.Output = v.text(labelOutput)
	f.BlockSize = v.text(labelBlockSize)
	f.BlockCount = v.text(labelBlockCount)
	if dd, ok := v.form.GetFormItemByLabel(labelCompress).(*tview.DropDown); ok {
		_, f.Compression = dd.GetCurrentOption()
	}
	return f
}

func (v *view) submit() {
	f := v.collect()
	switch {
	case f.Mode == invocation.ModeExtract && f.Output != "" && !exist(f.Output):
		v.confirm(fmt.Sprintf("Create output directory?\n%s", f.Output), func() {
			f.MakeDir = true
			v.start(f)
		})
	case f.Mode == invocation.ModeCreate && f.Output != "" && !f.Overwrite && exist(f.Output):
		v.confirm(fmt.Sprintf("Overwrite existing image?\n%s", f.Output), func() {
			f.Overwrite = true
			v.start(f)
		})
	default:
		v.start(f)
	}
}

func (v *view) start(f app.Form) {
	msgs := app.Messages(f.Mode)
	err := v.core.Start(f,
		func(p supervisor.Phase) {
			v.tv.QueueUpdateDraw(func() { v.setStatus(status.Busy, status.Progress(msgs.Busy, p)) })
		},
		func(o supervisor.Outcome) {
			v.tv.QueueUpdateDraw(func() { v.setStatus(status.Of(o), o.Message) })
		},
	)
	switch {
	case app.IsBusy(err):
		v.alert("An operation is already running.")
	case err != nil:
		v.alert(err.Error())
	default:
		v.setStatus(status.Busy, status.Progress(msgs.Busy, supervisor.Tick0))
	}
}

func (v *view) setStatus(c status.Class, text string) {
	v.status.SetTextColor(classColor(c))
	v.status.SetText(text)
}

func classColor(c status.Class) tcell.Color {
	switch c {
	case status.Busy:
		return tcell.ColorYellow
	case status.Success:
		return tcell.ColorGreen
	case status.Failure:
		return tcell.ColorRed
	default:
		return tcell.ColorWhite
	}
}

// helpers

func (v *view) alert(text string) {
	m := tview.NewModal().SetText(text).AddButtons([]string{"OK"})
	m.SetDoneFunc(func(_ int, _ string) {
		v.pages.RemovePage("modal")
		v.tv.SetFocus(v.form)
	})
	v.pages.AddPage("modal", m, true, true)
}

// confirm shows a Yes/No modal and calls yes on Yes. It never blocks the
// event loop.
func (v *view) confirm(text string, yes func()) {
	m := tview.NewModal().SetText(text).AddButtons([]string{"Yes", "No"})
	m.SetDoneFunc(func(i int, _ string) {
		v.pages.RemovePage("confirm")
		v.tv.SetFocus(v.form)
		if i == 0 {
			yes()
		}
	})
	v.pages.AddPage("confirm", m, true, true)
}

// completePath lists host entries starting with the typed prefix;
// directories get a trailing separator.
func completePath(text string) []string {
	if text == "" {
		return nil
	}
	dir, prefix := filepath.Split(text)
	lookup := dir
	if lookup == "" {
		lookup = "."
	}
	ents, err := os.ReadDir(lookup)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(ents))
	for _, de := range ents {
		name := de.Name()
		if !strings.HasPrefix(name, prefix) || (prefix == "" && strings.HasPrefix(name, ".")) {
			continue
		}
		full := dir + name
		if de.IsDir() {
			full += string(os.PathSeparator)
		}
		out = append(out, full)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

func exist(p string) bool { _, err := os.Lstat(p); return err == nil }
