package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"lfstool/internal/app"
	"lfstool/internal/config"
	"lfstool/internal/invocation"
	"lfstool/internal/logging"
)

var version = "dev"

// env is what PersistentPreRunE prepares for every subcommand.
type env struct {
	cfgFile string
	loader  *config.Loader
	cfg     *config.Config
	core    *app.App
	closer  io.Closer
	bindErr error
}

// configFlags maps config keys to the persistent flags overriding them.
var configFlags = map[string]string{
	"tool.path": "tool",
	"log.level": "log-level",
	"log.file":  "log-file",
}

func bindFlags(l *config.Loader, fs *pflag.FlagSet) error {
	for key, name := range configFlags {
		if err := l.BindFlag(key, fs.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func newRootCmd() *cobra.Command {
	e := &env{loader: config.NewLoader()}

	root := &cobra.Command{
		Use:   "lfstool",
		Short: "Extract or create LittleFS images with mklittlefs",
		Long: `lfstool drives the mklittlefs image tool.

Without a subcommand it opens the desktop window. The tool is looked up
beside the lfstool binary, in its resources/ directory, in the working
directory and on PATH unless --tool or tool.path says otherwise.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if e.closer != nil {
				return e.closer.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(e)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&e.cfgFile, "config", "c", "", "config file (default: ./config.yaml or ~/.config/lfstool/config.yaml)")
	pf.String("tool", "", "path to the mklittlefs executable")
	pf.String("log-level", "", "log level: trace|debug|info|warn|error|off")
	pf.String("log-file", "", "write logs to this file instead of stderr")

	e.bindErr = bindFlags(e.loader, pf)

	root.AddCommand(
		newExtractCmd(e),
		newCreateCmd(e),
		newTUICmd(e),
		newGUICmd(e),
		newConfigCmd(e),
	)
	return root
}

func (e *env) setup(cmd *cobra.Command) error {
	if e.bindErr != nil {
		return e.bindErr
	}
	cfg, err := e.loader.Load(e.cfgFile)
	if err != nil {
		return err
	}
	e.cfg = cfg

	opts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File}
	if cmd.Name() == "tui" && opts.File == "" {
		// stderr belongs to the terminal UI
		opts.Level = "off"
	}
	log, closer, err := logging.New(logging.ProfileRuntime, opts)
	if err != nil {
		return err
	}
	e.closer = closer
	if used := e.loader.Used(); used != "" {
		log.Debug().Str("file", used).Msg("config loaded")
	}

	tool, err := invocation.LocateTool(cfg.Tool.Path)
	if err != nil {
		// keep going: the run reports the spawn failure to the user
		log.Warn().Err(err).Msg("image tool not located")
		tool = cfg.Tool.Path
	}
	e.core = app.New(cfg, tool, log)
	return nil
}
