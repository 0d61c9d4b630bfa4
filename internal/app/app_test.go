package app

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"lfstool/internal/config"
	"lfstool/internal/invocation"
	"lfstool/internal/status"
	"lfstool/internal/supervisor"
)

func newTestApp(t *testing.T, tool string) *App {
	t.Helper()
	cfg := config.Defaults()
	cfg.Progress.Interval = time.Millisecond
	return New(&cfg, tool, zerolog.Nop())
}

func stubTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub tool is a shell script")
	}
	p := filepath.Join(t.TempDir(), "mklittlefs")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return p
}

func TestDefaultForm(t *testing.T) {
	a := newTestApp(t, "")
	f := a.DefaultForm(invocation.ModeExtract)
	require.Equal(t, "4096", f.BlockSize)
	require.Equal(t, "1024", f.BlockCount)
	require.Equal(t, invocation.ToolName, a.Tool)
}

func TestRequest_ExtractMakesDirectory(t *testing.T) {
	root := t.TempDir()
	image := filepath.Join(root, "fs.bin")
	require.NoError(t, os.WriteFile(image, []byte{0xff}, 0o644))
	out := filepath.Join(root, "nested", "out")

	a := newTestApp(t, "/opt/mklittlefs")
	f := a.DefaultForm(invocation.ModeExtract)
	f.Input, f.Output = image, out

	_, err := a.Request(f)
	require.ErrorIs(t, err, invocation.ErrMissingOutput)
	require.Equal(t, "Invalid output directory!", err.Error())

	f.MakeDir = true
	req, err := a.Request(f)
	require.NoError(t, err)
	require.DirExists(t, out)
	require.Equal(t, []string{"-u", out, "-b", "4096", "-s", "4194304", image}, req.Invocation.Args())
	require.Equal(t, status.ExtractMessages.Success, req.Success)
	require.Equal(t, status.ExtractMessages.ErrorPrefix, req.ErrorPrefix)
	require.NotNil(t, req.Stage)
}

func TestRequest_RejectedExtractLeavesNoDirectory(t *testing.T) {
	root := t.TempDir()
	image := filepath.Join(root, "fs.bin")
	require.NoError(t, os.WriteFile(image, []byte{0xff}, 0o644))

	a := newTestApp(t, "/opt/mklittlefs")

	missing := a.DefaultForm(invocation.ModeExtract)
	missing.Input = filepath.Join(root, "missing.bin")
	missing.Output = filepath.Join(root, "out")
	missing.MakeDir = true
	_, err := a.Request(missing)
	require.ErrorIs(t, err, invocation.ErrMissingInput)
	require.NoDirExists(t, missing.Output)

	huge := a.DefaultForm(invocation.ModeExtract)
	huge.Input = image
	huge.Output = filepath.Join(root, "out2")
	huge.BlockSize = "1G"
	huge.BlockCount = "9223372036854775807"
	huge.MakeDir = true
	_, err = a.Request(huge)
	require.Error(t, err)
	require.NoDirExists(t, huge.Output)
}

func TestRequest_CreateOverwrite(t *testing.T) {
	root := t.TempDir()
	image := filepath.Join(root, "fs.bin")
	require.NoError(t, os.WriteFile(image, []byte{0xff}, 0o644))

	a := newTestApp(t, "/opt/mklittlefs")
	f := a.DefaultForm(invocation.ModeCreate)
	f.Input, f.Output, f.BlockSize, f.BlockCount = root, image, "4K", "16"

	_, err := a.Request(f)
	require.ErrorIs(t, err, invocation.ErrOutputExists)

	f.Overwrite = true
	req, err := a.Request(f)
	require.NoError(t, err)
	require.Equal(t, []string{"-c", root, "-b", "4096", "-s", "65536", image}, req.Invocation.Args())
	require.Equal(t, status.CreateMessages.Success, req.Success)
}

func TestRequest_RejectsBadFields(t *testing.T) {
	a := newTestApp(t, "")
	f := a.DefaultForm(invocation.ModeCreate)
	f.Input, f.Output = t.TempDir(), ""

	_, err := a.Request(f)
	require.Equal(t, "Choose an output image file!", err.Error())

	f.BlockSize = "big"
	_, err = a.Request(f)
	require.ErrorContains(t, err, "invalid block size")

	f.BlockSize, f.BlockCount = "4096", "0"
	_, err = a.Request(f)
	require.ErrorContains(t, err, "invalid block count")

	f.BlockCount, f.Compression = "1", "rar"
	_, err = a.Request(f)
	require.Error(t, err)
}

func TestStart_EndToEnd(t *testing.T) {
	tool := stubTool(t, `sleep 0.05; exit 0`)
	root := t.TempDir()
	image := filepath.Join(root, "fs.bin")
	require.NoError(t, os.WriteFile(image, []byte{0xff}, 0o644))

	a := newTestApp(t, tool)
	f := a.DefaultForm(invocation.ModeExtract)
	f.Input, f.Output = image, root

	done := make(chan supervisor.Outcome, 1)
	require.NoError(t, a.Start(f, nil, func(o supervisor.Outcome) { done <- o }))

	err := a.Start(f, nil, nil)
	require.True(t, IsBusy(err))

	select {
	case o := <-done:
		require.True(t, o.Succeeded)
		require.Equal(t, status.ExtractMessages.Success, o.Message)
	case <-time.After(5 * time.Second):
		t.Fatal("no outcome")
	}
}

func TestStart_ValidationSpawnsNothing(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	tool := stubTool(t, `touch "`+marker+`"`)

	a := newTestApp(t, tool)
	f := a.DefaultForm(invocation.ModeExtract)
	f.Input, f.Output = filepath.Join(t.TempDir(), "missing.bin"), t.TempDir()

	err := a.Start(f, nil, nil)
	require.ErrorIs(t, err, invocation.ErrMissingInput)
	require.False(t, a.Sup.Busy())
	a.Sup.Wait()
	require.NoFileExists(t, marker)
}

func TestDescribe_PassesThroughOtherErrors(t *testing.T) {
	err := os.ErrPermission
	require.Equal(t, err, Describe(invocation.ModeExtract, err))
}
