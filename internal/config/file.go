package config

// This file implements the optional TOML config file. Values from the file
// sit between DefaultConfig() and CLI flags: flags always win.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig is the on-disk shape. Durations are strings ("90s", "5m").
type fileConfig struct {
	Speed              float64 `toml:"speed"`
	Formats            string  `toml:"formats"`
	Pitch              string  `toml:"pitch"`
	Output             string  `toml:"output"`
	OutputDir          string  `toml:"output_dir"`
	Suffix             string  `toml:"suffix"`
	Force              bool    `toml:"force"`
	Workers            int     `toml:"workers"`
	Timeout            string  `toml:"timeout"`
	AbortOnMissingTool bool    `toml:"abort_on_missing_tool"`
	FFmpeg             string  `toml:"ffmpeg"`
	FFprobe            string  `toml:"ffprobe"`
	ProbeCodecs        bool    `toml:"probe_codecs"`
	Verbose            bool    `toml:"verbose"`
	NoProgress         bool    `toml:"no_progress"`
	Color              string  `toml:"color"`
	LogFile            string  `toml:"log_file"`
	LogMaxSizeMB       int     `toml:"log_max_size_mb"`
	LogMaxBackups      int     `toml:"log_max_backups"`
}

func fileConfigFrom(c *Config) fileConfig {
	timeout := ""
	if c.FileTimeout > 0 {
		timeout = c.FileTimeout.String()
	}
	return fileConfig{
		Speed:              c.Speed,
		Formats:            c.FormatSpec,
		Pitch:              string(c.Pitch),
		Output:             string(c.Output),
		OutputDir:          c.OutputDir,
		Suffix:             c.Suffix,
		Force:              c.Force,
		Workers:            c.Workers,
		Timeout:            timeout,
		AbortOnMissingTool: c.AbortOnMissingTool,
		FFmpeg:             c.FFmpegPath,
		FFprobe:            c.FFprobePath,
		ProbeCodecs:        c.ProbeCodecs,
		Verbose:            c.Verbose,
		NoProgress:         c.HideProgress,
		Color:              string(c.ColorMode),
		LogFile:            c.LogFile,
		LogMaxSizeMB:       c.LogMaxSizeMB,
		LogMaxBackups:      c.LogMaxBackups,
	}
}

func (f *fileConfig) apply(c *Config) error {
	var timeout time.Duration
	if s := strings.TrimSpace(f.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", f.Timeout, err)
		}
		timeout = d
	}
	c.Speed = f.Speed
	c.FormatSpec = f.Formats
	c.Pitch = PitchMode(strings.ToLower(f.Pitch))
	c.Output = OutputPolicy(strings.ToLower(f.Output))
	c.OutputDir = NormalizeDirArg(expandHome(f.OutputDir))
	c.Suffix = f.Suffix
	c.Force = f.Force
	c.Workers = f.Workers
	c.FileTimeout = timeout
	c.AbortOnMissingTool = f.AbortOnMissingTool
	c.FFmpegPath = f.FFmpeg
	c.FFprobePath = f.FFprobe
	c.ProbeCodecs = f.ProbeCodecs
	c.Verbose = f.Verbose
	c.HideProgress = f.NoProgress
	c.ColorMode = ColorMode(strings.ToLower(f.Color))
	c.LogFile = expandHome(f.LogFile)
	c.LogMaxSizeMB = f.LogMaxSizeMB
	c.LogMaxBackups = f.LogMaxBackups
	return nil
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DefaultConfigPath returns ~/.config/speedbatch/config.toml (honoring
// XDG_CONFIG_HOME).
func DefaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "speedbatch", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "speedbatch", "config.toml"), nil
}

// LoadFile layers the TOML file at path over cfg. An explicit path that
// does not exist is an error; with an empty path the default location is
// tried and silently skipped when absent. It reports whether a file was
// read.
func LoadFile(cfg *Config, path string) (bool, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return false, nil
		}
		path = p
	}

	file, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	fc := fileConfigFrom(cfg)
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := fc.apply(cfg); err != nil {
		return false, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return true, nil
}

// SampleConfig is written by `speedbatch config init`.
const SampleConfig = `# speedbatch configuration. CLI flags override every value here.

# speed = 1.5
formats = "all"          # "all" or e.g. "ogg,mp3"
pitch = "preserve"       # preserve | shift
output = "sibling"       # sibling | inplace | mirror
# output_dir = "/srv/audio-fast"
# suffix = "_fast"
workers = 0              # 0 = one per CPU
# timeout = "10m"
abort_on_missing_tool = true
ffmpeg = "ffmpeg"
ffprobe = "ffprobe"
probe_codecs = false
color = "auto"           # auto | always | never
# log_file = "~/.local/state/speedbatch/speedbatch.log"
log_max_size_mb = 10
log_max_backups = 3
`

// WriteSample writes SampleConfig to path, creating parent directories. It
// refuses to overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(SampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
