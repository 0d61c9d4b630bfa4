// Package invocation turns user-supplied image parameters into the argument
// vector mklittlefs expects. Nothing here spawns processes or creates files.
package invocation

import (
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// Mode is the direction of an image operation.
type Mode int

const (
	ModeExtract Mode = iota + 1
	ModeCreate
)

func (m Mode) String() string {
	switch m {
	case ModeExtract:
		return "extract"
	case ModeCreate:
		return "create"
	default:
		return "none"
	}
}

// Params are the raw values taken from the user for one request.
type Params struct {
	Input      string
	Output     string
	BlockSize  int
	BlockCount int
}

// Size is the declared total image size, BlockSize*BlockCount.
func (p Params) Size() (int64, error) {
	if p.BlockSize <= 0 || p.BlockCount <= 0 {
		return 0, &ValidationError{Kind: InvalidGeometry}
	}
	bs, bc := int64(p.BlockSize), int64(p.BlockCount)
	if bs > math.MaxInt64/bc {
		return 0, &ValidationError{Kind: SizeOverflow}
	}
	return bs * bc, nil
}

// Invocation is one fully-formed call of the image tool.
type Invocation struct {
	ID         string
	Mode       Mode
	Executable string
	Params     Params

	args []string
}

// Args returns a copy of the argument vector.
func (inv Invocation) Args() []string {
	return append([]string(nil), inv.args...)
}

// Image is the image file path: the trailing positional argument.
func (inv Invocation) Image() string {
	if len(inv.args) == 0 {
		return ""
	}
	return inv.args[len(inv.args)-1]
}

// WithImage returns a copy whose image path is p.
func (inv Invocation) WithImage(p string) Invocation {
	out := inv
	out.args = inv.Args()
	if len(out.args) > 0 {
		out.args[len(out.args)-1] = p
	}
	return out
}

type createOptions struct {
	allowOverwrite bool
}

// CreateOption adjusts BuildCreate.
type CreateOption func(*createOptions)

// AllowOverwrite lets BuildCreate target an existing file.
func AllowOverwrite() CreateOption {
	return func(o *createOptions) { o.allowOverwrite = true }
}

// BuildExtract validates an extract request and returns
// `-u <outputDir> -b <blockSize> -s <size> <inputFile>`.
func BuildExtract(exe, inputFile, outputDir string, blockSize, blockCount int) (Invocation, error) {
	p := Params{Input: inputFile, Output: outputDir, BlockSize: blockSize, BlockCount: blockCount}

	st, err := os.Stat(inputFile)
	if err != nil || !st.Mode().IsRegular() {
		return Invocation{}, &ValidationError{Kind: MissingInput, Path: inputFile, Err: err}
	}
	st, err = os.Stat(outputDir)
	if err != nil || !st.IsDir() {
		return Invocation{}, &ValidationError{Kind: MissingOutput, Path: outputDir, Err: err}
	}
	size, err := p.Size()
	if err != nil {
		return Invocation{}, err
	}
	return newInvocation(ModeExtract, exe, p, "-u", outputDir, size, inputFile), nil
}

// BuildCreate validates a create request and returns
// `-c <inputDir> -b <blockSize> -s <size> <outputFile>` with both paths cleaned.
func BuildCreate(exe, inputDir, outputFile string, blockSize, blockCount int, opts ...CreateOption) (Invocation, error) {
	var o createOptions
	for _, fn := range opts {
		fn(&o)
	}

	st, err := os.Stat(inputDir)
	if err != nil || !st.IsDir() {
		return Invocation{}, &ValidationError{Kind: MissingInput, Path: inputDir, Err: err}
	}
	if outputFile == "" {
		return Invocation{}, &ValidationError{Kind: MissingOutput}
	}
	inputDir = filepath.Clean(inputDir)
	outputFile = filepath.Clean(outputFile)

	p := Params{Input: inputDir, Output: outputFile, BlockSize: blockSize, BlockCount: blockCount}
	size, err := p.Size()
	if err != nil {
		return Invocation{}, err
	}
	if !o.allowOverwrite {
		if _, err := os.Lstat(outputFile); err == nil {
			return Invocation{}, &ValidationError{Kind: OutputExists, Path: outputFile}
		}
	}
	return newInvocation(ModeCreate, exe, p, "-c", inputDir, size, outputFile), nil
}

func newInvocation(mode Mode, exe string, p Params, flag, dir string, size int64, image string) Invocation {
	return Invocation{
		ID:         uuid.NewString(),
		Mode:       mode,
		Executable: exe,
		Params:     p,
		args: []string{
			flag, dir,
			"-b", strconv.Itoa(p.BlockSize),
			"-s", strconv.FormatInt(size, 10),
			image,
		},
	}
}
