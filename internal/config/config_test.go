package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// chdir moves into an empty directory so no stray config.yaml or .env is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), *cfg)
}

func TestLoad_File(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "lfs.yaml")
	content := `tool:
  path: /opt/esp/mklittlefs
image:
  block_size: 8192
  block_count: 256
progress:
  interval: 50ms
create:
  overwrite: true
  compression: gz
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)
	require.Equal(t, "/opt/esp/mklittlefs", cfg.Tool.Path)
	require.True(t, cfg.Tool.SuppressConsoleWindow)
	require.Equal(t, 8192, cfg.Image.BlockSize)
	require.Equal(t, 256, cfg.Image.BlockCount)
	require.Equal(t, 50*time.Millisecond, cfg.Progress.Interval)
	require.True(t, cfg.Create.Overwrite)
	require.Equal(t, "gzip", cfg.Create.Compression)
}

func TestLoad_DiscoversConfigInWorkingDir(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("image:\n  block_count: 64\n"), 0o644))

	l := NewLoader()
	cfg, err := l.Load("")
	require.NoError(t, err)
	require.Equal(t, 64, cfg.Image.BlockCount)
	require.Equal(t, 4096, cfg.Image.BlockSize)
	require.NotEmpty(t, l.Used())
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	dir := chdir(t)

	_, err := NewLoader().Load(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvAndDotEnv(t *testing.T) {
	dir := chdir(t)
	t.Setenv("LFSTOOL_IMAGE_BLOCK_SIZE", "512")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LFSTOOL_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LFSTOOL_LOG_LEVEL") })

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)
	require.Equal(t, 512, cfg.Image.BlockSize)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FlagOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("LFSTOOL_TOOL_PATH", "/from/env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("tool", "", "")
	require.NoError(t, fs.Parse([]string{"--tool", "/from/flag"}))

	l := NewLoader()
	require.NoError(t, l.BindFlag("tool.path", fs.Lookup("tool")))
	cfg, err := l.Load("")
	require.NoError(t, err)
	require.Equal(t, "/from/flag", cfg.Tool.Path)

	require.Error(t, l.BindFlag("log.level", fs.Lookup("missing")))
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Image.BlockSize = 0
	require.ErrorContains(t, cfg.Validate(), "block_size")

	cfg = Defaults()
	cfg.Progress.Interval = 0
	require.ErrorContains(t, cfg.Validate(), "interval")

	cfg = Defaults()
	cfg.Create.Compression = "lzo"
	require.ErrorContains(t, cfg.Validate(), "compression")
}

func TestYAML(t *testing.T) {
	cfg := Defaults()
	out, err := cfg.YAML()
	require.NoError(t, err)
	require.Contains(t, out, "interval: 200ms")

	var back map[string]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &back))
	require.Equal(t, 4096, back["image"]["block_size"])
	require.Equal(t, true, back["tool"]["suppress_console_window"])
}
