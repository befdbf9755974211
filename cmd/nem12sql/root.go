package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nem12sql/internal/config"
	"github.com/JonMunkholm/nem12sql/internal/logging"
)

// Process exit codes. An invalid NEM12 file and a failed run both exit 1.
const (
	exitOK      = 0
	exitFailure = 1
	exitInvalid = 1
	exitUsage   = 2
)

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCodeOf(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

// app is the state shared by the subcommands once configuration is loaded.
type app struct {
	cfg *config.Config
}

type rootOptions struct {
	envFile   string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	a := &app{}

	cmd := &cobra.Command{
		Use:           "nem12sql",
		Short:         "Convert NEM12 interval meter data into SQL INSERT statements",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file (default: .env if present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (overrides LOG_FORMAT)")

	cmd.AddCommand(newConvertCmd(a), newServeCmd(a), newVersionCmd())
	return cmd
}

// load reads the env file and configuration, then sets up logging.
func (a *app) load(cmd *cobra.Command, opts rootOptions) error {
	envLoaded := false
	if opts.envFile != "" {
		// Overload: values in the file win over the inherited environment
		if err := godotenv.Overload(opts.envFile); err != nil {
			return withCode(exitUsage, fmt.Errorf("load env file: %w", err))
		}
		envLoaded = true
	} else if err := godotenv.Overload(); err == nil {
		envLoaded = true
	}

	cfg, err := config.Load()
	if err != nil {
		return withCode(exitUsage, err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return withCode(exitUsage, err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if envLoaded {
		slog.Debug("loaded env file (overwriting existing env vars)")
	}
	slog.Debug("configuration loaded", "config", cfg.String())

	a.cfg = cfg
	return nil
}
