// Package logging builds the zerolog logger shared by the commands and the
// supervisor.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "LFSTOOL_LOG_LEVEL"
	EnvLogNoColor = "LFSTOOL_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Options come from configuration; env variables override them.
type Options struct {
	Level   string
	File    string
	NoColor bool
}

func defaultOptions(profile Profile) Options {
	if profile == ProfileTest {
		return Options{Level: "debug", NoColor: true}
	}
	return Options{Level: "info"}
}

// New returns a logger writing to stderr, or to o.File when set. The returned
// closer releases the file.
func New(profile Profile, o Options) (zerolog.Logger, io.Closer, error) {
	d := defaultOptions(profile)
	if o.Level == "" {
		o.Level = d.Level
	}
	o.NoColor = o.NoColor || d.NoColor
	applyEnvOverrides(&o)

	lvl, err := ParseLevel(o.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if o.File != "" {
		f, err := os.OpenFile(o.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("logging: open %s: %w", o.File, err)
		}
		out, closer = f, f
		o.NoColor = true
	}

	w := zerolog.ConsoleWriter{Out: out, NoColor: o.NoColor, TimeFormat: time.TimeOnly}
	ctx := zerolog.New(w).Level(lvl).With()
	if profile == ProfileRuntime {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger(), closer, nil
}

// ParseLevel accepts zerolog level names plus "trace" and "off".
func ParseLevel(raw string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "off", "disabled":
		return zerolog.Disabled, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging: unknown level %q", raw)
	}
	return lvl, nil
}

func applyEnvOverrides(o *Options) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		o.Level = v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogNoColor))); err == nil {
		o.NoColor = v
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
