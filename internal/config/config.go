// Package config holds runtime configuration: defaults, the optional TOML
// config file, CLI flag binding, and validation.
package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/backmassage/speedbatch/internal/format"
)

// Sentinel errors for configuration that must be rejected before any file
// is walked.
var (
	ErrNonPositiveSpeed = errors.New("speed multiplier must be a positive number")
	ErrMissingInput     = errors.New("need exactly one input_dir")
	ErrMissingOutputDir = errors.New("mirror output needs --output-dir")
)

// --- Enum types for validated string fields ---

// OutputPolicy selects where sped-up files are written.
type OutputPolicy string

const (
	OutputSibling OutputPolicy = "sibling" // <stem>_<speed>x<ext> next to the source (default).
	OutputInPlace OutputPolicy = "inplace" // Atomically replace the source.
	OutputMirror  OutputPolicy = "mirror"  // Same relative path under OutputDir.
)

// PitchMode selects how the speed change treats pitch.
type PitchMode string

const (
	PitchPreserve PitchMode = "preserve" // atempo: tempo changes, pitch kept (default).
	PitchShift    PitchMode = "shift"    // asetrate: pitch follows speed (needs ffprobe).
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by the config file ([LoadFile]) and CLI flags ([Resolve]), and
// finally checked by [Config.Validate] before being passed (by pointer) to
// packages that need it.
type Config struct {
	// Paths (input from the positional arg).
	InputDir  string
	OutputDir string // Mirror policy only.

	// Speed change.
	Speed      float64   // Required, > 0.
	Pitch      PitchMode // Default: "preserve".
	FormatSpec string    // Raw --formats value. Default: "all".
	Formats    format.Set

	// Output.
	Output OutputPolicy // Default: "sibling".
	Suffix string       // Sibling suffix; empty derives "_<speed>x".
	Force  bool         // Overwrite existing sibling/mirror outputs.

	// Execution.
	Workers            int           // 0 = runtime.NumCPU().
	FileTimeout        time.Duration // 0 = no per-file limit.
	AbortOnMissingTool bool          // Default: true.
	DryRun             bool
	FFmpegPath         string // Default: "ffmpeg".
	FFprobePath        string // Default: "ffprobe".
	ProbeCodecs        bool   // Use ffprobe to tell AAC from ALAC in MP4 files.

	// Display and logging.
	Verbose       bool
	HideProgress  bool
	ColorMode     ColorMode // Default: "auto".
	LogFile       string    // Optional rotating log file.
	LogMaxSizeMB  int       // Default: 10.
	LogMaxBackups int       // Default: 3.

	// CheckOnly is set by the check subcommand; path requirements are skipped.
	CheckOnly bool

	// ConfigFile is the TOML file that was loaded, if any.
	ConfigFile string
}

// DefaultConfig returns a Config with every default applied. Speed has no
// default and must be supplied.
func DefaultConfig() Config {
	return Config{
		Pitch:              PitchPreserve,
		FormatSpec:         "all",
		Output:             OutputSibling,
		AbortOnMissingTool: true,
		FFmpegPath:         "ffmpeg",
		FFprobePath:        "ffprobe",
		ColorMode:          ColorAuto,
		LogMaxSizeMB:       10,
		LogMaxBackups:      3,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, the speed multiplier, and the format
// selection, and derives Formats from FormatSpec. When not in CheckOnly
// mode it also requires the input directory (and the output directory for
// the mirror policy).
func (c *Config) Validate() error {
	switch c.Output {
	case OutputSibling, OutputInPlace, OutputMirror:
		// valid
	default:
		return fmt.Errorf("invalid output policy %q (use 'sibling', 'inplace' or 'mirror')", c.Output)
	}

	switch c.Pitch {
	case PitchPreserve, PitchShift:
		// valid
	default:
		return fmt.Errorf("invalid pitch mode %q (use 'preserve' or 'shift')", c.Pitch)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative (got %d)", c.Workers)
	}
	if c.FileTimeout < 0 {
		return fmt.Errorf("timeout must not be negative (got %s)", c.FileTimeout)
	}
	if strings.TrimSpace(c.FFmpegPath) == "" {
		return errors.New("ffmpeg path must not be empty")
	}
	if strings.ContainsRune(c.Suffix, filepath.Separator) {
		return fmt.Errorf("suffix %q must not contain a path separator", c.Suffix)
	}

	if c.CheckOnly {
		return nil
	}

	if err := ValidateSpeed(c.Speed); err != nil {
		return err
	}

	formats, err := format.ParseSet(c.FormatSpec)
	if err != nil {
		return err
	}
	c.Formats = formats

	if c.InputDir == "" {
		return ErrMissingInput
	}
	if c.Output == OutputMirror && c.OutputDir == "" {
		return ErrMissingOutputDir
	}
	return nil
}

// ValidateSpeed rejects zero, negative, NaN and infinite multipliers.
func ValidateSpeed(speed float64) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("%w (got %v)", ErrNonPositiveSpeed, speed)
	}
	if speed <= 0 {
		return fmt.Errorf("%w (got %s)", ErrNonPositiveSpeed, FormatSpeed(speed))
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory. This prevents the pipeline from
// recursively discovering its own output files. Both arguments must be
// absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}

// EffectiveWorkers returns the worker count, resolving 0 to the CPU count.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// SiblingSuffix returns the stem suffix used by the sibling policy.
func (c *Config) SiblingSuffix() string {
	if c.Suffix != "" {
		return c.Suffix
	}
	return "_" + FormatSpeed(c.Speed) + "x"
}

// FormatSpeed renders a multiplier in its shortest form ("1.5", "2").
func FormatSpeed(speed float64) string {
	return strconv.FormatFloat(speed, 'f', -1, 64)
}
