// Package ffmpeg builds and executes the transcoder command for one planned
// file and classifies how it failed.
//
// One invocation per file, no retries: a failure is reported with its
// stderr tail and the pipeline moves on.
//
//   - Build(cfg, plan) → []string (builder.go)
//   - Execute(ctx, cfg, plan) → Result; Executor wraps it for injection (executor.go)
//   - Classify(ctx, Result) → Failure, Hint(stderr), Tail(stderr, n) (errors.go)
package ffmpeg
