package invocation

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ToolName is the base name of the image tool executable.
const ToolName = "mklittlefs"

// ResourceDir is the bundled-resource directory looked up beside the binary.
const ResourceDir = "resources"

func toolFile() string {
	if runtime.GOOS == "windows" {
		return ToolName + ".exe"
	}
	return ToolName
}

// LocateTool finds the image tool. An explicit override wins; then the
// directory of the running executable, its resources/ directory, the working
// directory and finally PATH.
func LocateTool(override string) (string, error) {
	if override != "" {
		if isExecutableFile(override) {
			return filepath.Abs(override)
		}
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, override)
	}

	var dirs []string
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		dir := filepath.Dir(exe)
		dirs = append(dirs, dir, filepath.Join(dir, ResourceDir))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if p, ok := searchDirs(dirs); ok {
		return p, nil
	}
	if p, err := exec.LookPath(toolFile()); err == nil {
		return p, nil
	}
	return "", ErrToolNotFound
}

func searchDirs(dirs []string) (string, bool) {
	name := toolFile()
	for _, d := range dirs {
		p := filepath.Join(d, name)
		if isExecutableFile(p) {
			return p, true
		}
	}
	return "", false
}

func isExecutableFile(p string) bool {
	st, err := os.Stat(p)
	if err != nil || !st.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return st.Mode().Perm()&0o111 != 0
}
