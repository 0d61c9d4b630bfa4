// Package gui is the desktop front-end. It only renders what the supervisor
// publishes; every callback is marshalled onto the fyne thread with fyne.Do.
package gui

import (
	"os"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"lfstool/internal/app"
	"lfstool/internal/compress"
	"lfstool/internal/invocation"
	"lfstool/internal/status"
	"lfstool/internal/supervisor"
)

const appID = "io.github.lfstool"

type panel struct {
	mode       invocation.Mode
	input      *widget.Entry
	output     *widget.Entry
	blockSize  *widget.Entry
	blockCount *widget.Entry
	compress   *widget.Select
	run        *widget.Button

	// set when the output came from a save dialog that already asked
	confirmedOverwrite bool
}

type window struct {
	core   *app.App
	w      fyne.Window
	status *widget.Label
	panels []*panel
}

// Run opens the window and blocks until it is closed.
func Run(core *app.App) error {
	a := fyneapp.NewWithID(appID)
	w := a.NewWindow("LittleFS Image Tool")

	g := &window{core: core, w: w, status: widget.NewLabel(status.Ready)}
	g.status.Wrapping = fyne.TextWrapWord

	extract := g.newPanel(invocation.ModeExtract)
	create := g.newPanel(invocation.ModeCreate)
	g.panels = []*panel{extract, create}

	tabs := container.NewAppTabs(
		container.NewTabItem("Extract", g.layout(extract)),
		container.NewTabItem("Create", g.layout(create)),
	)
	w.SetContent(container.NewBorder(nil, g.status, nil, nil, tabs))
	w.Resize(fyne.NewSize(680, 340))
	w.ShowAndRun()
	return nil
}

func (g *window) newPanel(mode invocation.Mode) *panel {
	def := g.core.DefaultForm(mode)
	p := &panel{
		mode:       mode,
		input:      widget.NewEntry(),
		output:     widget.NewEntry(),
		blockSize:  widget.NewEntry(),
		blockCount: widget.NewEntry(),
	}
	p.blockSize.SetText(def.BlockSize)
	p.blockCount.SetText(def.BlockCount)
	p.output.OnChanged = func(string) { p.confirmedOverwrite = false }

	label := "Extract Files"
	if mode == invocation.ModeCreate {
		label = "Create Image"
		p.input.SetPlaceHolder("directory to pack")
		p.output.SetPlaceHolder("image file to write")
		p.compress = widget.NewSelect(compress.Names(), nil)
		p.compress.SetSelected(def.Compression)
	} else {
		p.input.SetPlaceHolder("LittleFS image (.bin, optionally compressed)")
		p.output.SetPlaceHolder("directory to extract into")
	}
	p.run = widget.NewButton(label, func() { g.submit(p) })
	return p
}

func (g *window) layout(p *panel) fyne.CanvasObject {
	var inBrowse, outBrowse *widget.Button
	if p.mode == invocation.ModeExtract {
		inBrowse = widget.NewButton("Browse", func() { g.pickFile(p.input) })
		outBrowse = widget.NewButton("Browse", func() { g.pickFolder(p.output) })
	} else {
		inBrowse = widget.NewButton("Browse", func() { g.pickFolder(p.input) })
		outBrowse = widget.NewButton("Browse", func() { g.pickSave(p) })
	}

	inLabel, outLabel := "LittleFS Image:", "Output Directory:"
	if p.mode == invocation.ModeCreate {
		inLabel, outLabel = "Input Directory:", "Output Image:"
	}
	items := []*widget.FormItem{
		widget.NewFormItem(inLabel, container.NewBorder(nil, nil, nil, inBrowse, p.input)),
		widget.NewFormItem(outLabel, container.NewBorder(nil, nil, nil, outBrowse, p.output)),
		widget.NewFormItem("Block Size:", p.blockSize),
		widget.NewFormItem("Block Count:", p.blockCount),
	}
	if p.compress != nil {
		items = append(items, widget.NewFormItem("Compression:", p.compress))
	}
	return container.NewVBox(widget.NewForm(items...), container.NewCenter(p.run))
}

func (g *window) pickFile(target *widget.Entry) {
	dialog.ShowFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			return
		}
		target.SetText(r.URI().Path())
		_ = r.Close()
	}, g.w)
}

func (g *window) pickFolder(target *widget.Entry) {
	dialog.ShowFolderOpen(func(l fyne.ListableURI, err error) {
		if err != nil || l == nil {
			return
		}
		target.SetText(l.Path())
	}, g.w)
}

func (g *window) pickSave(p *panel) {
	dialog.ShowFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		p.output.SetText(wc.URI().Path())
		_ = wc.Close()
		p.confirmedOverwrite = true
	}, g.w)
}

func (g *window) form(p *panel) app.Form {
	f := g.core.DefaultForm(p.mode)
	f.Input = p.input.Text
	f.Output = p.output.Text
	f.BlockSize = p.blockSize.Text
	f.BlockCount = p.blockCount.Text
	if p.compress != nil {
		f.Compression = p.compress.Selected
	}
	if p.confirmedOverwrite {
		f.Overwrite = true
	}
	return f
}

func (g *window) submit(p *panel) {
	f := g.form(p)
	switch {
	case f.Mode == invocation.ModeExtract && f.Output != "" && !exist(f.Output):
		dialog.ShowConfirm("Create directory", "Output directory does not exist. Create it?\n"+f.Output,
			func(ok bool) {
				if ok {
					f.MakeDir = true
					g.start(f)
				}
			}, g.w)
	case f.Mode == invocation.ModeCreate && f.Output != "" && !f.Overwrite && exist(f.Output):
		dialog.ShowConfirm("Overwrite image", "The output image already exists. Overwrite it?\n"+f.Output,
			func(ok bool) {
				if ok {
					f.Overwrite = true
					g.start(f)
				}
			}, g.w)
	default:
		g.start(f)
	}
}

func (g *window) start(f app.Form) {
	msgs := app.Messages(f.Mode)
	err := g.core.Start(f,
		func(ph supervisor.Phase) {
			fyne.Do(func() { g.setStatus(status.Busy, status.Progress(msgs.Busy, ph)) })
		},
		func(o supervisor.Outcome) {
			fyne.Do(func() {
				g.setStatus(status.Of(o), o.Message)
				g.setRunning(false)
			})
		},
	)
	switch {
	case app.IsBusy(err):
		dialog.ShowInformation("Busy", "An operation is already running.", g.w)
	case err != nil:
		dialog.ShowError(err, g.w)
	default:
		g.setRunning(true)
		g.setStatus(status.Busy, status.Progress(msgs.Busy, supervisor.Tick0))
	}
}

func (g *window) setRunning(running bool) {
	for _, p := range g.panels {
		if running {
			p.run.Disable()
		} else {
			p.run.Enable()
		}
	}
}

func (g *window) setStatus(c status.Class, text string) {
	g.status.Importance = importance(c)
	g.status.SetText(text)
}

func importance(c status.Class) widget.Importance {
	switch c {
	case status.Busy:
		return widget.WarningImportance
	case status.Success:
		return widget.SuccessImportance
	case status.Failure:
		return widget.DangerImportance
	default:
		return widget.MediumImportance
	}
}

func exist(p string) bool { _, err := os.Lstat(p); return err == nil }
