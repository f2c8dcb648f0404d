package pipeline

import (
	"sync"
	"time"

	"github.com/backmassage/speedbatch/internal/ffmpeg"
	"github.com/backmassage/speedbatch/internal/format"
)

// Task is one file accepted for dispatch.
type Task struct {
	Path      string
	Detection format.Detection
}

// Status is the final state of a dispatched file.
type Status int

const (
	StatusSucceeded Status = iota + 1
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Reason explains a failed or skipped Outcome.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonToolNotFound Reason = "tool-not-found"
	ReasonExit         Reason = "exit"
	ReasonIO           Reason = "io"
	ReasonTimeout      Reason = "timeout"
	ReasonCanceled     Reason = "canceled"
	ReasonPlan         Reason = "plan"
	ReasonExists       Reason = "exists"
	ReasonDryRun       Reason = "dry-run"
)

// reasonFor maps a transcoder failure class onto an outcome reason.
func reasonFor(f ffmpeg.Failure) Reason {
	switch f {
	case ffmpeg.FailureNotFound:
		return ReasonToolNotFound
	case ffmpeg.FailureIO:
		return ReasonIO
	case ffmpeg.FailureTimeout:
		return ReasonTimeout
	case ffmpeg.FailureCanceled:
		return ReasonCanceled
	case ffmpeg.FailureNone:
		return ReasonNone
	default:
		return ReasonExit
	}
}

// Outcome is the result of one Task.
type Outcome struct {
	Path     string
	Dest     string
	Format   format.Format
	Status   Status
	Reason   Reason
	Detail   string   // Error text or hint.
	Stderr   []string // Last transcoder lines on failure.
	InBytes  int64
	OutBytes int64
	Elapsed  time.Duration
}

// Summary aggregates a run. Its counts do not depend on completion order.
type Summary struct {
	Discovered int // Regular files walked.
	Ignored    int // No match, not selected, or a previous sibling output.
	Unreadable int // Could not be sniffed.
	Dispatched int
	Succeeded  int
	Failed     int
	Skipped    int

	InBytes  int64 // Sources of succeeded files.
	OutBytes int64 // Outputs of succeeded files.

	Failures []Outcome
}

// Completed returns the number of dispatched files that reached an outcome.
func (s *Summary) Completed() int { return s.Succeeded + s.Failed + s.Skipped }

// aggregator folds Outcomes from concurrent workers into a Summary.
type aggregator struct {
	mu  sync.Mutex
	sum Summary
}

func (a *aggregator) record(o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch o.Status {
	case StatusSucceeded:
		a.sum.Succeeded++
		a.sum.InBytes += o.InBytes
		a.sum.OutBytes += o.OutBytes
	case StatusFailed:
		a.sum.Failed++
		a.sum.Failures = append(a.sum.Failures, o)
	default:
		a.sum.Skipped++
	}
}

func (a *aggregator) snapshot() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.sum
	s.Failures = append([]Outcome(nil), a.sum.Failures...)
	return s
}
