package config

// This file binds CLI flags to Config. Flags are grouped into speed/format,
// output, execution, and display. The root command parses flags straight
// into a Config; Resolve then rebuilds it as defaults → config file →
// explicitly set flags, so a flag always beats the file.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// BindFlags registers every run flag on fs, bound to cfg. Defaults shown in
// help come from cfg, so call it with a DefaultConfig().
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	defineSpeedFlags(fs, cfg)
	defineOutputFlags(fs, cfg)
	defineExecutionFlags(fs, cfg)
	BindDisplayFlags(fs, cfg)
}

// defineSpeedFlags registers -s/--speed, -f/--formats, --pitch.
func defineSpeedFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.Float64VarP(&cfg.Speed, "speed", "s", cfg.Speed, "Speed multiplier, e.g. 1.5 (required, > 0)")
	fs.StringVarP(&cfg.FormatSpec, "formats", "f", cfg.FormatSpec,
		"Formats to process: all, or a comma list of ogg,mp3,wav,flac,aac,opus,alac,wma")
	fs.Var(&pitchValue{&cfg.Pitch}, "pitch", "Pitch handling: preserve | shift")
}

// defineOutputFlags registers --output, -o/--output-dir, --suffix, --force.
func defineOutputFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.Var(&outputValue{&cfg.Output}, "output", "Destination policy: sibling | inplace | mirror")
	fs.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Output root for --output mirror")
	fs.StringVar(&cfg.Suffix, "suffix", cfg.Suffix, `Sibling file suffix (default "_<speed>x")`)
	fs.BoolVar(&cfg.Force, "force", cfg.Force, "Overwrite existing output files")
}

// defineExecutionFlags registers workers, timeout, tool paths, dry-run.
func defineExecutionFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Parallel transcodes (0 = one per CPU)")
	fs.DurationVar(&cfg.FileTimeout, "timeout", cfg.FileTimeout, "Per-file time limit (0 = none)")
	fs.BoolVar(&cfg.AbortOnMissingTool, "abort-on-missing-tool", cfg.AbortOnMissingTool,
		"Stop the whole run if the transcoder disappears mid-run")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "d", cfg.DryRun, "Plan and log only; run no transcodes")
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "Transcoder binary")
	fs.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "Probe binary")
	fs.BoolVar(&cfg.ProbeCodecs, "probe", cfg.ProbeCodecs, "Use ffprobe to tell AAC from ALAC in MP4 files")
}

// BindDisplayFlags registers verbose, progress, color and log flags. The
// check subcommand uses it on its own.
func BindDisplayFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.HideProgress, "no-progress", cfg.HideProgress, "Hide the progress bar")
	fs.Var(&colorValue{&cfg.ColorMode}, "color", "Colored logs: auto | always | never")
	noColor := fs.VarPF(&colorSwitch{p: &cfg.ColorMode, mode: ColorNever}, "no-color", "", "Same as --color=never")
	noColor.NoOptDefVal = "true"
	fs.StringVarP(&cfg.LogFile, "log", "l", cfg.LogFile, "Append logs to a rotating file")
}

// Resolve rebuilds cfg as DefaultConfig() → config file at configPath →
// flags explicitly set on fs. Positional state (InputDir, CheckOnly) is
// carried over from cfg.
func Resolve(fs *pflag.FlagSet, cfg *Config, configPath string) error {
	merged := DefaultConfig()
	if _, err := LoadFile(&merged, configPath); err != nil {
		return err
	}

	replay := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	BindFlags(replay, &merged)

	var replayErr error
	fs.Visit(func(f *pflag.Flag) {
		if replayErr != nil || replay.Lookup(f.Name) == nil {
			return
		}
		if err := replay.Set(f.Name, f.Value.String()); err != nil {
			replayErr = fmt.Errorf("--%s: %w", f.Name, err)
		}
	})
	if replayErr != nil {
		return replayErr
	}

	merged.InputDir = cfg.InputDir
	merged.CheckOnly = cfg.CheckOnly
	merged.OutputDir = NormalizeDirArg(merged.OutputDir)
	*cfg = merged
	return nil
}

// pflag.Value adapters so we can use enum types with fs.Var.

type outputValue struct{ p *OutputPolicy }

func (o *outputValue) String() string { return string(*o.p) }
func (o *outputValue) Type() string   { return "policy" }
func (o *outputValue) Set(s string) error {
	switch v := OutputPolicy(strings.ToLower(s)); v {
	case OutputSibling, OutputInPlace, OutputMirror:
		*o.p = v
	default:
		return fmt.Errorf("invalid output policy %q (use 'sibling', 'inplace' or 'mirror')", s)
	}
	return nil
}

type pitchValue struct{ p *PitchMode }

func (v *pitchValue) String() string { return string(*v.p) }
func (v *pitchValue) Type() string   { return "mode" }
func (v *pitchValue) Set(s string) error {
	switch m := PitchMode(strings.ToLower(s)); m {
	case PitchPreserve, PitchShift:
		*v.p = m
	default:
		return fmt.Errorf("invalid pitch mode %q (use 'preserve' or 'shift')", s)
	}
	return nil
}

type colorValue struct{ p *ColorMode }

func (c *colorValue) String() string { return string(*c.p) }
func (c *colorValue) Type() string   { return "when" }
func (c *colorValue) Set(s string) error {
	switch m := ColorMode(strings.ToLower(s)); m {
	case ColorAuto, ColorAlways, ColorNever:
		*c.p = m
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
	}
	return nil
}

// colorSwitch is a boolean flag that forces one ColorMode when set.
type colorSwitch struct {
	p    *ColorMode
	mode ColorMode
}

func (c *colorSwitch) String() string { return strconv.FormatBool(c.p != nil && *c.p == c.mode) }
func (c *colorSwitch) Type() string   { return "bool" }
func (c *colorSwitch) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*c.p = c.mode
	}
	return nil
}
