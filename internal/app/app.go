// Package app is the glue every front-end shares: it turns raw form values
// into a supervisor request and starts it.
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"lfstool/internal/config"
	"lfstool/internal/imagefile"
	"lfstool/internal/invocation"
	"lfstool/internal/status"
	"lfstool/internal/supervisor"
)

// Form is what a user typed or picked. Sizes stay strings until Request.
type Form struct {
	Mode       invocation.Mode
	Input      string
	Output     string
	BlockSize  string
	BlockCount string

	// MakeDir creates a missing extract output directory first.
	MakeDir bool
	// Overwrite allows create to replace an existing image.
	Overwrite   bool
	Compression string
}

type App struct {
	Cfg  *config.Config
	Tool string
	Sup  *supervisor.Supervisor
	Log  zerolog.Logger
}

// New wires a supervisor from cfg. tool is the resolved image tool path; an
// empty tool still builds requests, which then fail as a spawn error.
func New(cfg *config.Config, tool string, log zerolog.Logger) *App {
	sup := supervisor.New(
		supervisor.WithSpawner(supervisor.ProcessSpawner{SuppressConsoleWindow: cfg.Tool.SuppressConsoleWindow}),
		supervisor.WithInterval(cfg.Progress.Interval),
		supervisor.WithLogger(log),
	)
	if tool == "" {
		tool = invocation.ToolName
	}
	return &App{Cfg: cfg, Tool: tool, Sup: sup, Log: log}
}

// DefaultForm pre-fills the geometry from configuration.
func (a *App) DefaultForm(mode invocation.Mode) Form {
	return Form{
		Mode:        mode,
		BlockSize:   fmt.Sprint(a.Cfg.Image.BlockSize),
		BlockCount:  fmt.Sprint(a.Cfg.Image.BlockCount),
		Overwrite:   a.Cfg.Create.Overwrite,
		Compression: a.Cfg.Create.Compression,
	}
}

func Messages(mode invocation.Mode) status.Messages {
	if mode == invocation.ModeCreate {
		return status.CreateMessages
	}
	return status.ExtractMessages
}

// Request validates f and builds the supervisor request. Errors are safe to
// show to the user as they are.
func (a *App) Request(f Form) (supervisor.Request, error) {
	bs, err := imagefile.ParseSize(f.BlockSize)
	if err != nil {
		return supervisor.Request{}, fmt.Errorf("invalid block size %q: %w", f.BlockSize, err)
	}
	bc, err := imagefile.ParseCount(f.BlockCount)
	if err != nil {
		return supervisor.Request{}, fmt.Errorf("invalid block count %q: %w", f.BlockCount, err)
	}
	stage, err := imagefile.NewStaging(f.Compression)
	if err != nil {
		return supervisor.Request{}, err
	}

	var inv invocation.Invocation
	switch f.Mode {
	case invocation.ModeExtract:
		inv, err = invocation.BuildExtract(a.Tool, f.Input, f.Output, bs, bc)
		// the directory is only created once everything else checked out
		if f.MakeDir && f.Output != "" && invocation.KindOf(err) == invocation.MissingOutput {
			geo := invocation.Params{BlockSize: bs, BlockCount: bc}
			if _, gerr := geo.Size(); gerr != nil {
				return supervisor.Request{}, Describe(f.Mode, gerr)
			}
			if _, serr := os.Stat(f.Output); errors.Is(serr, fs.ErrNotExist) {
				if merr := os.MkdirAll(f.Output, 0o755); merr != nil {
					return supervisor.Request{}, merr
				}
				inv, err = invocation.BuildExtract(a.Tool, f.Input, f.Output, bs, bc)
			}
		}
	case invocation.ModeCreate:
		var opts []invocation.CreateOption
		if f.Overwrite {
			opts = append(opts, invocation.AllowOverwrite())
		}
		inv, err = invocation.BuildCreate(a.Tool, f.Input, f.Output, bs, bc, opts...)
	default:
		return supervisor.Request{}, fmt.Errorf("unknown mode %v", f.Mode)
	}
	if err != nil {
		return supervisor.Request{}, Describe(f.Mode, err)
	}

	msgs := Messages(f.Mode)
	return supervisor.Request{
		Invocation:  inv,
		Success:     msgs.Success,
		ErrorPrefix: msgs.ErrorPrefix,
		Stage:       stage,
	}, nil
}

// Start builds and launches f. Validation failures and a busy supervisor are
// returned synchronously; everything else arrives through onComplete.
func (a *App) Start(f Form, onProgress supervisor.ProgressFunc, onComplete supervisor.CompleteFunc) error {
	req, err := a.Request(f)
	if err != nil {
		a.Log.Debug().Err(err).Str("mode", f.Mode.String()).Msg("request rejected")
		return err
	}
	return a.Sup.Run(req, onProgress, onComplete)
}

// UserError is a validation failure phrased for a dialog.
type UserError struct {
	Text string
	Err  error
}

func (e *UserError) Error() string { return e.Text }
func (e *UserError) Unwrap() error { return e.Err }

// Describe phrases builder errors for the user.
func Describe(mode invocation.Mode, err error) error {
	var text string
	switch invocation.KindOf(err) {
	case invocation.MissingInput:
		text = "Invalid image file!"
		if mode == invocation.ModeCreate {
			text = "Invalid input directory!"
		}
	case invocation.MissingOutput:
		text = "Invalid output directory!"
		if mode == invocation.ModeCreate {
			text = "Choose an output image file!"
		}
	case invocation.SizeOverflow:
		text = "Block size × block count is too large!"
	case invocation.InvalidGeometry:
		text = "Block size and block count must be positive!"
	case invocation.OutputExists:
		text = "Output image already exists!"
	default:
		return err
	}
	return &UserError{Text: text, Err: err}
}

// IsBusy reports whether err is the supervisor's single-run rejection.
func IsBusy(err error) bool { return errors.Is(err, supervisor.ErrConcurrentInvocation) }
