// Command speedbatch changes the playback speed of every audio file in a
// directory tree by running ffmpeg on each one in parallel.
//
// It resolves settings (defaults, config file, flags), checks that ffmpeg
// is available, takes a per-tree run lock, and hands the tree to the
// pipeline. `speedbatch scan` reports what a run would touch and `speedbatch
// check` diagnoses the ffmpeg install.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "0.3.0"
	commit  = "unknown"
)

// errReported marks failures the logger has already described.
var errReported = errors.New("reported")

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code: 0 on success, 1
// on a fatal error or any failed file, 130 when interrupted.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Cancel on SIGINT/SIGTERM so in-flight ffmpeg processes are killed
	// and their temp files removed.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, errReported):
		return 1
	default:
		fmt.Fprintf(stderr, "speedbatch: %v\n", err)
		return 1
	}
}
