package planner

import (
	"time"

	"github.com/backmassage/speedbatch/internal/probe"
)

// Estimate holds the projected result of a speed change for display.
type Estimate struct {
	Duration          time.Duration
	ProjectedDuration time.Duration
	ProjectedBytes    int64
	Known             bool
}

// EstimateOutput projects duration and size after a speed change. Playback
// time divides by the speed; size follows duration at the source bitrate,
// which holds for constant-bitrate and uncompressed sources and is close
// enough for the rest.
func EstimateOutput(pr *probe.ProbeResult, speed float64) Estimate {
	if pr == nil || speed <= 0 || pr.Format.Duration <= 0 {
		return Estimate{}
	}

	dur := secondsToDuration(pr.Format.Duration)
	projected := secondsToDuration(pr.Format.Duration / speed)

	var bytes int64
	switch {
	case pr.Format.Size > 0:
		bytes = int64(float64(pr.Format.Size) / speed)
	case pr.AudioBitRate() > 0:
		bytes = int64(float64(pr.AudioBitRate()) / 8 * pr.Format.Duration / speed)
	}

	return Estimate{
		Duration:          dur,
		ProjectedDuration: projected,
		ProjectedBytes:    bytes,
		Known:             true,
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Millisecond)
}
