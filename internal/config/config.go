// Package config loads lfstool settings from defaults, an optional YAML file,
// a .env file and LFSTOOL_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"lfstool/internal/compress"
)

const EnvPrefix = "LFSTOOL"

type ToolConfig struct {
	Path                  string `mapstructure:"path" yaml:"path"`
	SuppressConsoleWindow bool   `mapstructure:"suppress_console_window" yaml:"suppress_console_window"`
}

// ImageConfig holds front-end defaults for the geometry fields.
type ImageConfig struct {
	BlockSize  int `mapstructure:"block_size" yaml:"block_size"`
	BlockCount int `mapstructure:"block_count" yaml:"block_count"`
}

type ProgressConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type CreateConfig struct {
	Overwrite   bool   `mapstructure:"overwrite" yaml:"overwrite"`
	Compression string `mapstructure:"compression" yaml:"compression"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

type Config struct {
	Tool     ToolConfig     `mapstructure:"tool" yaml:"tool"`
	Image    ImageConfig    `mapstructure:"image" yaml:"image"`
	Progress ProgressConfig `mapstructure:"progress" yaml:"progress"`
	Create   CreateConfig   `mapstructure:"create" yaml:"create"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

func Defaults() Config {
	return Config{
		Tool:     ToolConfig{SuppressConsoleWindow: true},
		Image:    ImageConfig{BlockSize: 4096, BlockCount: 1024},
		Progress: ProgressConfig{Interval: 200 * time.Millisecond},
		Create:   CreateConfig{Compression: compress.None},
		Log:      LogConfig{Level: "info"},
	}
}

// Loader wraps a private viper instance so flags can be bound before Load.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	d := Defaults()
	v.SetDefault("tool.path", d.Tool.Path)
	v.SetDefault("tool.suppress_console_window", d.Tool.SuppressConsoleWindow)
	v.SetDefault("image.block_size", d.Image.BlockSize)
	v.SetDefault("image.block_count", d.Image.BlockCount)
	v.SetDefault("progress.interval", d.Progress.Interval)
	v.SetDefault("create.overwrite", d.Create.Overwrite)
	v.SetDefault("create.compression", d.Create.Compression)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag lets a command-line flag override key when it was set.
func (l *Loader) BindFlag(key string, f *pflag.Flag) error {
	if f == nil {
		return fmt.Errorf("config: no flag for %s", key)
	}
	return l.v.BindPFlag(key, f)
}

// Load reads file (or the first config.yaml found in ./ and
// ~/.config/lfstool) plus ./.env. A missing file is not an error.
func (l *Loader) Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}

	if file != "" {
		l.v.SetConfigFile(file)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "lfstool"))
		}
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: failed to read %s: %w", l.v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Used is the config file that was read, if any.
func (l *Loader) Used() string { return l.v.ConfigFileUsed() }

func (c *Config) Validate() error {
	if c.Image.BlockSize <= 0 {
		return fmt.Errorf("config: image.block_size must be > 0, got %d", c.Image.BlockSize)
	}
	if c.Image.BlockCount <= 0 {
		return fmt.Errorf("config: image.block_count must be > 0, got %d", c.Image.BlockCount)
	}
	if c.Progress.Interval <= 0 {
		return fmt.Errorf("config: progress.interval must be > 0, got %s", c.Progress.Interval)
	}
	c.Create.Compression = compress.Normalize(c.Create.Compression)
	if !slices.Contains(compress.Names(), c.Create.Compression) {
		return fmt.Errorf("config: create.compression %q is not one of %s",
			c.Create.Compression, strings.Join(compress.Names(), ", "))
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MarshalYAML writes the interval as a duration string ("200ms").
func (p ProgressConfig) MarshalYAML() (any, error) {
	return map[string]string{"interval": p.Interval.String()}, nil
}
