package ffmpeg

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"regexp"
	"strings"
)

// Failure classifies a finished invocation.
type Failure int

const (
	FailureNone     Failure = iota
	FailureNotFound         // The binary could not be started.
	FailureExit             // Exited non-zero.
	FailureIO               // Exited non-zero reporting a read/write problem.
	FailureTimeout          // Killed by the per-file deadline.
	FailureCanceled         // Killed because the run was canceled.
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureNotFound:
		return "tool not found"
	case FailureExit:
		return "tool exited non-zero"
	case FailureIO:
		return "i/o error"
	case FailureTimeout:
		return "timeout"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Pre-compiled regexes for classifying ffmpeg stderr output. Checked in
// order by [Hint]; the first match wins.
var (
	reIOIssue = regexp.MustCompile(
		`(?i)No space left on device|Permission denied|Read-only file system|` +
			`Input/output error|Disk quota exceeded|No such file or directory`)

	reEncoderMissing = regexp.MustCompile(
		`(?i)Unknown encoder|Encoder .* not found|Requested output format .* is not a suitable output format`)

	reFilterMissing = regexp.MustCompile(
		`(?i)No such filter: '?(atempo|asetrate|aresample)`)

	reCorruptInput = regexp.MustCompile(
		`(?i)Invalid data found when processing input|could not find codec parameters|` +
			`moov atom not found|Header missing`)
)

// Classify decides why res failed. ctx is the per-file context the command
// ran under: a passed deadline is a timeout, a canceled parent a cancel.
func Classify(ctx context.Context, res Result) Failure {
	if res.Err == nil {
		return FailureNone
	}
	if IsNotFound(res.Err) {
		return FailureNotFound
	}
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return FailureTimeout
	case context.Canceled:
		return FailureCanceled
	}
	if reIOIssue.MatchString(res.Stderr) {
		return FailureIO
	}
	return FailureExit
}

// IsNotFound reports whether err means the binary itself could not be run.
func IsNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false
	}
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}

// Hint returns a one-line explanation for well-known stderr patterns, or "".
func Hint(stderr string) string {
	switch {
	case reEncoderMissing.MatchString(stderr):
		return "ffmpeg build lacks the encoder or muxer for this format (see `speedbatch check`)"
	case reFilterMissing.MatchString(stderr):
		return "ffmpeg build lacks the speed filter (see `speedbatch check`)"
	case reCorruptInput.MatchString(stderr):
		return "input looks corrupt or truncated"
	case reIOIssue.MatchString(stderr):
		return "read/write problem at the source or destination"
	}
	return ""
}

// Tail returns the last n non-empty lines of stderr.
func Tail(stderr string, n int) []string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	out := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			out = append(out, l)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
