package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/backmassage/speedbatch/internal/config"
	"github.com/backmassage/speedbatch/internal/planner"
)

// waitDelay bounds how long Execute waits for ffmpeg's pipes after the
// process is killed on cancellation.
const waitDelay = 5 * time.Second

// Result holds the outcome of a single ffmpeg invocation.
type Result struct {
	Stderr  string
	Err     error
	Elapsed time.Duration
}

// Execute builds and runs the ffmpeg command for a file. Stderr is captured
// for classification; stdout is discarded. Canceling ctx kills the process.
func Execute(ctx context.Context, cfg *config.Config, plan *planner.FilePlan) Result {
	args := Build(cfg, plan)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.WaitDelay = waitDelay

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	start := time.Now()
	err := cmd.Run()
	return Result{
		Stderr:  stderrBuf.String(),
		Err:     err,
		Elapsed: time.Since(start),
	}
}

// Executor runs plans with a fixed config. The pipeline depends on it
// through a one-method interface so tests can substitute a fake.
type Executor struct {
	cfg *config.Config
}

// NewExecutor returns an Executor bound to cfg.
func NewExecutor(cfg *config.Config) *Executor {
	return &Executor{cfg: cfg}
}

// Transcode runs ffmpeg for plan.
func (e *Executor) Transcode(ctx context.Context, plan *planner.FilePlan) Result {
	return Execute(ctx, e.cfg, plan)
}
