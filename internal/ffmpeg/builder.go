package ffmpeg

import (
	"github.com/backmassage/speedbatch/internal/config"
	"github.com/backmassage/speedbatch/internal/planner"
)

// Build constructs the complete argument slice for a file, binary first.
// The write target (the plan's temp path) is always the last argument.
//
//	ffmpeg -hide_banner -nostdin -loglevel error -y -i <src> -vn
//	       -map_metadata 0 -filter:a <chain> -c:a <encoder> -f <muxer> <tmp>
func Build(cfg *config.Config, plan *planner.FilePlan) []string {
	args := make([]string, 0, 24)

	// --- Preamble ---
	args = append(args, cfg.FFmpegPath, "-hide_banner", "-nostdin")

	// Loglevel: warnings when verbose, otherwise errors only.
	if cfg.Verbose {
		args = append(args, "-loglevel", "warning")
	} else {
		args = append(args, "-loglevel", "error")
	}
	args = append(args, "-y")

	// --- Input ---
	args = append(args, "-i", plan.InputPath)

	// --- Streams: audio only, keep tags ---
	args = append(args, "-vn", "-map_metadata", "0")

	// --- Speed filter ---
	if plan.AudioFilter != "" {
		args = append(args, "-filter:a", plan.AudioFilter)
	}

	// --- Codec and container ---
	if plan.Encoder != "" {
		args = append(args, "-c:a", plan.Encoder)
	}
	if plan.Muxer != "" {
		args = append(args, "-f", plan.Muxer)
	}

	// --- Output ---
	args = append(args, plan.TempPath)

	return args
}
