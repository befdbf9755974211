// Command nem12sql converts NEM12 interval meter files into SQL INSERT
// scripts, either once from the command line or through an HTTP server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/nem12sql/internal/core"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("nem12sql failed", failureAttrs(err)...)
		return exitCodeOf(err)
	}
	return exitOK
}

// failureAttrs describes err for the final log line, adding the error
// code and user message when err is a known failure.
func failureAttrs(err error) []any {
	attrs := []any{"error", err}
	if core.IsUserFacing(err) {
		attrs = append(attrs, "code", core.MapError(err).Code, "hint", core.FormatUserError(err))
	}
	return attrs
}
