package imagefile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"lfstool/internal/compress"
	"lfstool/internal/invocation"
)

func writeCompressed(t *testing.T, path, codec string, payload []byte) {
	t.Helper()
	var buf bytes.Buffer
	w, err := compress.NewWriter(codec, &buf)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestStaging_UnpacksCompressedInput(t *testing.T) {
	root := t.TempDir()
	payload := bytes.Repeat([]byte{0xff}, 8192)
	image := filepath.Join(root, "fs.bin.gz")
	writeCompressed(t, image, compress.Gzip, payload)

	inv, err := invocation.BuildExtract(invocation.ToolName, image, root, 4096, 2)
	require.NoError(t, err)

	st, err := NewStaging("none")
	require.NoError(t, err)
	st.TempDir = t.TempDir()

	staged, err := st.Prepare(inv)
	require.NoError(t, err)
	require.NotEqual(t, image, staged.Image())
	require.Equal(t, "fs.bin", filepath.Base(staged.Image()))

	got, err := os.ReadFile(staged.Image())
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.Equal(t, inv.Args()[:6], staged.Args()[:6])

	st.Cleanup()
	_, err = os.Stat(staged.Image())
	require.True(t, os.IsNotExist(err))
}

func TestStaging_RawInputPassesThrough(t *testing.T) {
	root := t.TempDir()
	image := filepath.Join(root, "fs.bin")
	require.NoError(t, os.WriteFile(image, bytes.Repeat([]byte{0xff}, 64), 0o644))

	inv, err := invocation.BuildExtract(invocation.ToolName, image, root, 4096, 2)
	require.NoError(t, err)

	st := &Staging{}
	staged, err := st.Prepare(inv)
	require.NoError(t, err)
	require.Equal(t, inv.Args(), staged.Args())
	st.Cleanup()
}

func TestStaging_CompressesCreatedImage(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "fs.bin")
	payload := bytes.Repeat([]byte("block"), 1000)

	inv, err := invocation.BuildCreate(invocation.ToolName, root, out, 4096, 2)
	require.NoError(t, err)
	// stands in for the tool having written the image
	require.NoError(t, os.WriteFile(out, payload, 0o644))

	st, err := NewStaging("zst")
	require.NoError(t, err)
	require.NoError(t, st.Finish(inv))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	kind, r, err := compress.Sniff(f)
	require.NoError(t, err)
	require.Equal(t, compress.Zstd, kind)
	rc, err := compress.NewReader(kind, r)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	leftovers, err := filepath.Glob(filepath.Join(root, "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestStaging_NoCompressionLeavesImage(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "fs.bin")
	inv, err := invocation.BuildCreate(invocation.ToolName, root, out, 4096, 2)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(out, []byte("raw"), 0o644))

	st, err := NewStaging("")
	require.NoError(t, err)
	require.NoError(t, st.Finish(inv))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "raw", string(b))
}

func TestNewStaging_RejectsUnknownCodec(t *testing.T) {
	_, err := NewStaging("lzo")
	require.ErrorIs(t, err, compress.ErrUnsupported)
	_, err = NewStaging("xz")
	require.ErrorIs(t, err, compress.ErrUnsupported)
}

func TestRawName(t *testing.T) {
	require.Equal(t, "fs.bin", rawName("/a/fs.bin.GZ"))
	require.Equal(t, "fs.bin", rawName("/a/fs.bin"))
	require.Equal(t, "image.bin", rawName("/a/.xz"))
}

func TestCompressInPlace_KeepsMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	p := filepath.Join(t.TempDir(), "fs.bin")
	require.NoError(t, os.WriteFile(p, bytes.Repeat([]byte{0xff}, 4096), 0o644))
	require.NoError(t, os.Chmod(p, 0o644))

	require.NoError(t, CompressInPlace(p, compress.Gzip))

	st, err := os.Stat(p)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), st.Mode().Perm())

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	kind, _, err := compress.Sniff(f)
	require.NoError(t, err)
	require.Equal(t, compress.Gzip, kind)
}
