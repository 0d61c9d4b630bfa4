// Package imagefile handles the image files on either side of a tool run:
// compressed inputs are unpacked before extraction and created images can be
// compressed afterwards.
package imagefile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"lfstool/internal/compress"
	"lfstool/internal/invocation"
)

// Staging implements supervisor.Stage. Use one per request.
type Staging struct {
	// Compression applied to a created image; "none" leaves it raw.
	Compression string
	// TempDir overrides os.TempDir for unpacked inputs.
	TempDir string

	tmp string
}

// NewStaging validates the codec name up front so a bad name fails before
// any process is started.
func NewStaging(compression string) (*Staging, error) {
	name := compress.Normalize(compression)
	if !slices.Contains(compress.Names(), name) {
		return nil, fmt.Errorf("%w: %s", compress.ErrUnsupported, compression)
	}
	return &Staging{Compression: name}, nil
}

// Prepare unpacks a compressed extract input into a temp file and points the
// invocation at it. Raw images and create requests pass through untouched.
func (s *Staging) Prepare(inv invocation.Invocation) (invocation.Invocation, error) {
	if inv.Mode != invocation.ModeExtract {
		return inv, nil
	}
	f, err := os.Open(inv.Image())
	if err != nil {
		return inv, err
	}
	defer f.Close()

	kind, r, err := compress.Sniff(f)
	if err != nil {
		return inv, err
	}
	if kind == compress.None {
		return inv, nil
	}

	dir, err := os.MkdirTemp(s.TempDir, "lfstool-*")
	if err != nil {
		return inv, err
	}
	s.tmp = dir

	dst := filepath.Join(dir, rawName(inv.Image()))
	if err := decodeTo(dst, kind, r); err != nil {
		return inv, fmt.Errorf("unpack %s image: %w", kind, err)
	}
	return inv.WithImage(dst), nil
}

// Finish compresses a freshly created image in place.
func (s *Staging) Finish(inv invocation.Invocation) error {
	if inv.Mode != invocation.ModeCreate || compress.Normalize(s.Compression) == compress.None {
		return nil
	}
	return CompressInPlace(inv.Image(), s.Compression)
}

func (s *Staging) Cleanup() {
	if s.tmp != "" {
		_ = os.RemoveAll(s.tmp)
		s.tmp = ""
	}
}

func decodeTo(dst, kind string, r io.Reader) error {
	rc, err := compress.NewReader(kind, r)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// CompressInPlace rewrites path through the named codec; the original is only
// replaced once the compressed copy is complete and keeps its permissions.
func CompressInPlace(path, codec string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	st, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}

	w, err := compress.NewWriter(codec, tmp)
	if err != nil {
		return fail(err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fail(err)
	}
	if err := w.Close(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(st.Mode().Perm()); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := in.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// rawName strips a compression extension: fs.bin.gz -> fs.bin.
func rawName(p string) string {
	base := filepath.Base(p)
	for _, ext := range []string{".gz", ".zst", ".lz4", ".xz", ".bz2"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			base = base[:len(base)-len(ext)]
			break
		}
	}
	if base == "" {
		return "image.bin"
	}
	return base
}
