// Package compress wraps the codecs a LittleFS image may be shipped in.
// Read: gzip, zstd, lz4, xz, lzma, bzip2. Write: all of them except xz.
// Only the codecs Detect recognises are offered for new images.
package compress

import (
	"bufio"
	"errors"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

const (
	None  = "none"
	Gzip  = "gzip"
	Zstd  = "zstd"
	LZ4   = "lz4"
	XZ    = "xz"
	LZMA  = "lzma"
	Bzip2 = "bzip2"
)

var ErrUnsupported = errors.New("compression: unsupported codec")

// MagicLen is enough leading bytes for Detect.
const MagicLen = 6

// Normalize maps aliases (gz, zst, bz2, raw, "") to canonical names.
func Normalize(name string) string {
	switch name {
	case "", "none", "raw":
		return None
	case "gz":
		return Gzip
	case "zst":
		return Zstd
	case "bz2":
		return Bzip2
	default:
		return name
	}
}

// Names lists codecs offered for created images. lzma is writable through
// NewWriter but left out: an lzma image is never unpacked automatically.
func Names() []string {
	return []string{None, Gzip, Zstd, LZ4, Bzip2}
}

// Detect guesses the codec from leading magic bytes. lzma-alone has no
// reliable signature and is never detected.
func Detect(head []byte) string {
	switch {
	case len(head) >= 2 && head[0] == 0x1f && head[1] == 0x8b:
		return Gzip
	case len(head) >= 4 && head[0] == 0x28 && head[1] == 0xb5 && head[2] == 0x2f && head[3] == 0xfd:
		return Zstd
	case len(head) >= 4 && head[0] == 0x04 && head[1] == 0x22 && head[2] == 0x4d && head[3] == 0x18:
		return LZ4
	case len(head) >= 6 && head[0] == 0xfd && string(head[1:5]) == "7zXZ" && head[5] == 0x00:
		return XZ
	case len(head) >= 3 && string(head[:3]) == "BZh":
		return Bzip2
	}
	return None
}

// Sniff peeks at r and returns the detected codec with a reader that still
// yields every byte.
func Sniff(r io.Reader) (string, io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(MagicLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", nil, err
	}
	return Detect(head), br, nil
}

// NewReader decodes r with the named codec.
func NewReader(name string, r io.Reader) (io.ReadCloser, error) {
	switch Normalize(name) {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return gr, nil
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case LZMA:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(lr), nil
	case Bzip2:
		br, err := bzip2.NewReader(r, &bzip2.ReaderConfig{})
		if err != nil {
			return nil, err
		}
		return br, nil
	default:
		return nil, ErrUnsupported
	}
}

// NewWriter encodes into w with the named codec. Close flushes the trailer
// but does not close w.
func NewWriter(name string, w io.Writer) (io.WriteCloser, error) {
	switch Normalize(name) {
	case None:
		return nopWriteCloser{w}, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	}

	var (
		wc  io.WriteCloser
		err error
	)
	switch Normalize(name) {
	case Gzip:
		wc, err = gzip.NewWriterLevel(w, gzip.BestCompression)
	case Zstd:
		wc, err = zstd.NewWriter(w)
	case LZMA:
		wc, err = lzma.NewWriter(w)
	case Bzip2:
		wc, err = bzip2.NewWriter(w, &bzip2.WriterConfig{})
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	return wc, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
