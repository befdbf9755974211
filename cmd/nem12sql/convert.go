package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nem12sql/internal/config"
	"github.com/JonMunkholm/nem12sql/internal/core"
	"github.com/JonMunkholm/nem12sql/internal/logging"
)

// stdioPath selects stdin or stdout in place of a file.
const stdioPath = "-"

// outputBufferSize is the write buffer in front of the output file.
const outputBufferSize = 256 * 1024

type convertFlags struct {
	input        string
	output       string
	batchSize    int
	chunkSize    int
	table        string
	quoteMode    string
	invalidDates string
	encoding     string
}

func newConvertCmd(a *app) *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Convert a NEM12 file into a SQL script",
		Long: `Convert reads a NEM12 file line by line and writes multi-row INSERT
statements for the meter_readings table. Use "-" for stdin or stdout.

The command exits with status 1 when the file has no 100 header or no
900 footer record. Statements written before the problem was detected
stay in the output.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			applyConvertFlags(cmd, &cfg.Convert, f, args)
			if err := cfg.Validate(); err != nil {
				return withCode(exitUsage, err)
			}
			return runConvert(cmd.Context(), cfg.Convert, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "NEM12 input file (overrides CONVERT_INPUT)")
	flags.StringVarP(&f.output, "output", "o", "", "SQL output file (overrides CONVERT_OUTPUT)")
	flags.IntVar(&f.batchSize, "batch-size", 0, "Pending readings that trigger a flush (overrides CONVERT_BATCH_SIZE)")
	flags.IntVar(&f.chunkSize, "chunk-size", 0, "Maximum rows per INSERT statement (overrides CONVERT_CHUNK_SIZE)")
	flags.StringVar(&f.table, "table", "", "Destination table (overrides CONVERT_TABLE)")
	flags.StringVar(&f.quoteMode, "quote-mode", "", "String quoting: legacy or escaped (overrides CONVERT_QUOTE_MODE)")
	flags.StringVar(&f.invalidDates, "invalid-dates", "", "Readings with an invalid date: drop or emit (overrides CONVERT_INVALID_DATE_POLICY)")
	flags.StringVar(&f.encoding, "encoding", "", "Input encoding: utf-8, windows-1252 or iso-8859-1 (overrides CONVERT_INPUT_ENCODING)")

	return cmd
}

// applyConvertFlags overlays explicitly set flags and positional
// arguments on the loaded configuration.
func applyConvertFlags(cmd *cobra.Command, cfg *config.ConvertConfig, f convertFlags, args []string) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input = f.input
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if len(args) > 1 {
		cfg.Output = args[1]
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = f.batchSize
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = f.chunkSize
	}
	if flags.Changed("table") {
		cfg.Table = f.table
	}
	if flags.Changed("quote-mode") {
		cfg.QuoteMode = f.quoteMode
	}
	if flags.Changed("invalid-dates") {
		cfg.InvalidDatePolicy = f.invalidDates
	}
	if flags.Changed("encoding") {
		cfg.InputEncoding = f.encoding
	}
}

func runConvert(ctx context.Context, cfg config.ConvertConfig, stdin io.Reader, stdout io.Writer) error {
	runID := core.NewRunID()
	logger := logging.WithFields(logging.ContextWithRunID(ctx, runID), "output", cfg.Output)

	in, size, closeIn, err := openInput(cfg, stdin, logger)
	if err != nil {
		return withCode(exitFailure, err)
	}
	defer closeIn()

	out, closeOut, err := openOutput(cfg.Output, stdout)
	if err != nil {
		return withCode(exitFailure, err)
	}

	opts := core.OptionsFromConfig(cfg)
	opts.RunID = runID
	opts.Size = size
	opts.Logger = logger

	result, err := core.Convert(ctx, in, out, opts)
	if closeErr := closeOut(); err == nil && closeErr != nil {
		err = fmt.Errorf("close output: %w", closeErr)
	}
	if err != nil {
		return withCode(exitFailure, err)
	}
	if err := result.Err(); err != nil {
		return withCode(exitInvalid, fmt.Errorf("%s: %w", cfg.Input, err))
	}

	logger.Info("sql written",
		"statements", result.Statements,
		"readings", result.Readings,
	)
	return nil
}

// openInput opens the configured input and runs the advisory size check.
func openInput(cfg config.ConvertConfig, stdin io.Reader, logger *slog.Logger) (io.Reader, int64, func(), error) {
	if cfg.Input == stdioPath {
		return stdin, 0, func() {}, nil
	}

	report, err := core.CheckFileSize(logger, cfg.Input, cfg.MaxFileSizeBytes())
	if err != nil {
		return nil, 0, nil, err
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("open input: %w", err)
	}
	return f, report.Size, func() { f.Close() }, nil
}

// openOutput creates (or truncates) the output file behind a write buffer.
// The returned close func flushes the buffer and closes the file.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == stdioPath {
		bw := bufio.NewWriterSize(stdout, outputBufferSize)
		return bw, bw.Flush, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}

	bw := bufio.NewWriterSize(f, outputBufferSize)
	closeFn := func() error {
		if err := bw.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return bw, closeFn, nil
}
