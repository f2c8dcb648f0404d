// Package check provides system diagnostics (the check subcommand) and
// pre-pipeline dependency validation (CheckDeps) for ffmpeg, ffprobe, the
// speed filters, and the per-format encoders.
package check

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/backmassage/speedbatch/internal/config"
	"github.com/backmassage/speedbatch/internal/display"
	"github.com/backmassage/speedbatch/internal/format"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrTranscoderNotFound = errors.New("transcoder not found")
	ErrProberNotFound     = errors.New("ffprobe not found")
)

// toolTimeout bounds each diagnostic ffmpeg call.
const toolTimeout = 20 * time.Second

// speedFilters are the ffmpeg filters a run may insert.
var speedFilters = []string{"atempo", "asetrate", "aresample"}

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...any)
	Success(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
	Debug(string, ...any)
}

// CheckDeps is the pre-pipeline validation: the transcoder must resolve
// (on PATH or as a path), and ffprobe must too when pitch shift or codec
// probing needs it. Returns a wrapped sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrTranscoderNotFound, cfg.FFmpegPath)
	}
	if NeedsProber(cfg) {
		if err := CheckProber(cfg); err != nil {
			return fmt.Errorf("%w (needed for --pitch shift and --probe)", err)
		}
	}
	return nil
}

// CheckProber reports whether ffprobe resolves.
func CheckProber(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrProberNotFound, cfg.FFprobePath)
	}
	return nil
}

// NeedsProber reports whether the run settings require ffprobe.
func NeedsProber(cfg *config.Config) bool {
	return cfg.Pitch == config.PitchShift || cfg.ProbeCodecs
}

// RunCheck runs the interactive check flow: ffmpeg and ffprobe
// availability, the ffmpeg version line, the speed filters, and one row
// per format showing whether its encoder is built in. Tables go to w. It
// reports whether a speed change can run at all (ffmpeg and atempo).
func RunCheck(ctx context.Context, cfg *config.Config, log Logger, w io.Writer) bool {
	log.Info("=== System Check ===")

	ok := checkFfmpeg(ctx, cfg, log)
	checkFfprobe(cfg, log)
	if !ok {
		return false
	}

	filters, err := listNames(ctx, cfg.FFmpegPath, "-filters")
	if err != nil {
		log.Warn("Could not list filters: %v", err)
	}
	encoders, err := listNames(ctx, cfg.FFmpegPath, "-encoders")
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
	}

	var rows [][]string
	for _, f := range speedFilters {
		rows = append(rows, []string{"filter", f, yesNo(filters[f])})
	}
	for _, ft := range format.Formats() {
		rows = append(rows, []string{"encoder " + ft.String(), ft.Encoder(), yesNo(encoders[ft.Encoder()])})
	}
	fmt.Fprintln(w, display.RenderTable([]string{"Capability", "Name", "Available"}, rows, nil))

	if !filters["atempo"] {
		log.Error("ffmpeg lacks the atempo filter; speed changes cannot run")
		return false
	}
	if !filters["asetrate"] || !filters["aresample"] {
		log.Warn("asetrate/aresample missing; --pitch shift will fail")
	}
	var missing []string
	for _, ft := range format.Formats() {
		if !encoders[ft.Encoder()] {
			missing = append(missing, ft.String())
		}
	}
	if len(missing) > 0 {
		log.Warn("No encoder for: %s (those files will fail)", strings.Join(missing, ", "))
	} else {
		log.Success("All formats have an encoder")
	}
	return true
}

// checkFfmpeg verifies the transcoder resolves and logs its version string.
func checkFfmpeg(ctx context.Context, cfg *config.Config, log Logger) bool {
	path, err := exec.LookPath(cfg.FFmpegPath)
	if err != nil {
		log.Error("ffmpeg not found: %s", cfg.FFmpegPath)
		return false
	}
	log.Debug("ffmpeg resolved to %s", path)

	out, err := output(ctx, cfg.FFmpegPath, "-version")
	if err != nil {
		log.Warn("ffmpeg found but -version failed: %v", err)
		return true
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("ffmpeg: %s", firstLine)
	return true
}

// checkFfprobe reports ffprobe availability; it is optional.
func checkFfprobe(cfg *config.Config, log Logger) {
	if _, err := exec.LookPath(cfg.FFprobePath); err != nil {
		log.Warn("ffprobe not found: %s (only needed for --pitch shift, --probe and scan details)", cfg.FFprobePath)
		return
	}
	log.Success("ffprobe: %s", cfg.FFprobePath)
}

// listNames runs `ffmpeg -hide_banner <flag>` and collects the second
// column of every row, which is the filter or encoder name.
func listNames(ctx context.Context, bin, flag string) (map[string]bool, error) {
	out, err := output(ctx, bin, "-hide_banner", flag)
	if err != nil {
		return nil, err
	}
	return parseNames(out), nil
}

func parseNames(out []byte) map[string]bool {
	names := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 {
			names[fields[1]] = true
		}
	}
	return names
}

func output(ctx context.Context, bin string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()
	return exec.CommandContext(ctx, bin, args...).Output()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
