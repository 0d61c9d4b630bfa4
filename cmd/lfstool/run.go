package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lfstool/internal/app"
	"lfstool/internal/invocation"
	"lfstool/internal/status"
	"lfstool/internal/supervisor"
)

// errFailed makes the process exit non-zero after the outcome was printed.
var errFailed = errors.New("operation failed")

type geometryFlags struct {
	blockSize  string
	blockCount string
}

func (g *geometryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&g.blockSize, "block-size", "b", "", "block size in bytes, K/M suffixes allowed (default from config)")
	cmd.Flags().StringVarP(&g.blockCount, "block-count", "n", "", "number of blocks (default from config)")
}

func (g *geometryFlags) apply(f *app.Form) {
	if g.blockSize != "" {
		f.BlockSize = g.blockSize
	}
	if g.blockCount != "" {
		f.BlockCount = g.blockCount
	}
}

func newExtractCmd(e *env) *cobra.Command {
	var (
		geo   geometryFlags
		mkdir bool
	)
	cmd := &cobra.Command{
		Use:   "extract IMAGE OUTDIR",
		Short: "Unpack a LittleFS image into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := e.core.DefaultForm(invocation.ModeExtract)
			f.Input, f.Output, f.MakeDir = args[0], args[1], mkdir
			geo.apply(&f)
			return runOnce(e.core, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	geo.register(cmd)
	cmd.Flags().BoolVar(&mkdir, "mkdir", false, "create OUTDIR if it does not exist")
	return cmd
}

func newCreateCmd(e *env) *cobra.Command {
	var (
		geo   geometryFlags
		force bool
		codec string
	)
	cmd := &cobra.Command{
		Use:   "create INDIR IMAGE",
		Short: "Pack a directory into a new LittleFS image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := e.core.DefaultForm(invocation.ModeCreate)
			f.Input, f.Output = args[0], args[1]
			f.Overwrite = f.Overwrite || force
			if cmd.Flags().Changed("compress") {
				f.Compression = codec
			}
			geo.apply(&f)
			return runOnce(e.core, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	geo.register(cmd)
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite IMAGE if it exists")
	cmd.Flags().StringVar(&codec, "compress", "", "compress the created image: none|gzip|zstd|lz4|bzip2")
	return cmd
}

// runOnce starts f, shows the spinner on a terminal and waits for the outcome.
func runOnce(core *app.App, f app.Form, stdout, stderr io.Writer) error {
	msgs := app.Messages(f.Mode)
	spin := false
	if file, ok := stderr.(*os.File); ok && isTerminal(file) {
		spin = true
	}

	done := make(chan supervisor.Outcome, 1)
	err := core.Start(f,
		func(p supervisor.Phase) {
			if spin {
				fmt.Fprintf(stderr, "\r%s", status.Console(status.Busy, status.Progress(msgs.Busy, p)))
			}
		},
		func(o supervisor.Outcome) { done <- o },
	)
	if err != nil {
		return err
	}
	out := <-done
	if spin {
		fmt.Fprint(stderr, "\r\033[K")
	}

	if out.Succeeded {
		fmt.Fprintln(stdout, status.Console(status.Success, out.Message))
		return nil
	}
	fmt.Fprintln(stderr, status.Console(status.Failure, out.Message))
	return errFailed
}
