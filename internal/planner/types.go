package planner

import (
	"github.com/backmassage/speedbatch/internal/config"
	"github.com/backmassage/speedbatch/internal/format"
	"github.com/backmassage/speedbatch/internal/probe"
)

// Input is what the pipeline knows about a file before planning.
type Input struct {
	Path      string
	Dest      string
	Detection format.Detection
	Probe     *probe.ProbeResult // Optional; required only for pitch shift.
}

// FilePlan holds the complete set of decisions for processing a single
// audio file. It is produced by BuildPlan and consumed by the ffmpeg
// package to construct command arguments.
type FilePlan struct {
	// Paths. The transcoder writes TempPath; the pipeline renames it to
	// OutputPath on success.
	InputPath  string
	OutputPath string
	TempPath   string

	// Source format and how it is rewritten.
	Format  format.Format
	Encoder string // e.g. "libvorbis"
	Muxer   string // ffmpeg -f value, e.g. "ogg", "ipod"

	// Speed change.
	Speed       float64
	Pitch       config.PitchMode
	SampleRate  int    // Probed source rate; 0 when unknown.
	AudioFilter string // comma-joined -filter:a chain

	// Note explains a deviation from the requested settings (e.g. pitch
	// shift falling back to atempo). Empty when none.
	Note string
}
