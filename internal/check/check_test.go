package check

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/speedbatch/internal/config"
)

// recordLogger captures log lines by level.
type recordLogger struct {
	lines map[string][]string
}

func newRecordLogger() *recordLogger { return &recordLogger{lines: make(map[string][]string)} }

func (r *recordLogger) add(level, f string, a ...any) {
	r.lines[level] = append(r.lines[level], fmt.Sprintf(f, a...))
}
func (r *recordLogger) Info(f string, a ...any)    { r.add("info", f, a...) }
func (r *recordLogger) Success(f string, a ...any) { r.add("success", f, a...) }
func (r *recordLogger) Warn(f string, a ...any)    { r.add("warn", f, a...) }
func (r *recordLogger) Error(f string, a ...any)   { r.add("error", f, a...) }
func (r *recordLogger) Debug(f string, a ...any)   { r.add("debug", f, a...) }

// fakeFfmpeg answers -version, -filters and -encoders like a real build
// with the given filter and encoder lists.
func fakeFfmpeg(t *testing.T, filters, encoders string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub needs a POSIX shell")
	}
	script := `#!/bin/sh
case "$*" in
  *-version*) echo "ffmpeg version 7.1 Copyright (c) 2000-2024"; echo "built with gcc";;
  *-filters*) echo "Filters:"; echo " ------"; for f in ` + filters + `; do echo " ... $f  A->A  desc"; done;;
  *-encoders*) echo "Encoders:"; echo " ------"; for e in ` + encoders + `; do echo " A..... $e  desc"; done;;
esac
`
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestCheckDeps(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FFmpegPath = filepath.Join(t.TempDir(), "missing-ffmpeg")
	assert.ErrorIs(t, CheckDeps(&cfg), ErrTranscoderNotFound)

	cfg.FFmpegPath = fakeFfmpeg(t, "atempo", "flac")
	cfg.FFprobePath = filepath.Join(t.TempDir(), "missing-ffprobe")
	assert.NoError(t, CheckDeps(&cfg), "ffprobe optional for preserve mode")

	cfg.Pitch = config.PitchShift
	assert.ErrorIs(t, CheckDeps(&cfg), ErrProberNotFound)

	cfg.Pitch = config.PitchPreserve
	cfg.ProbeCodecs = true
	assert.ErrorIs(t, CheckDeps(&cfg), ErrProberNotFound)
}

func TestCheckProber(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FFprobePath = filepath.Join(t.TempDir(), "missing-ffprobe")
	assert.ErrorIs(t, CheckProber(&cfg), ErrProberNotFound)

	cfg.FFprobePath = fakeFfmpeg(t, "", "")
	assert.NoError(t, CheckProber(&cfg))
}

func TestRunCheck_AllAvailable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FFmpegPath = fakeFfmpeg(t, "atempo asetrate aresample",
		"libvorbis libmp3lame pcm_s16le flac aac libopus alac wmav2")
	cfg.FFprobePath = cfg.FFmpegPath
	log := newRecordLogger()
	var out bytes.Buffer

	ok := RunCheck(context.Background(), &cfg, log, &out)
	assert.True(t, ok)
	assert.Contains(t, log.lines["success"], "ffmpeg: ffmpeg version 7.1 Copyright (c) 2000-2024")
	assert.Contains(t, log.lines["success"], "All formats have an encoder")
	assert.Contains(t, out.String(), "libopus")
	assert.NotContains(t, out.String(), " no ")
}

func TestRunCheck_MissingPieces(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FFmpegPath = fakeFfmpeg(t, "atempo", "flac aac")
	log := newRecordLogger()
	var out bytes.Buffer

	ok := RunCheck(context.Background(), &cfg, log, &out)
	assert.True(t, ok, "atempo is enough to run")
	require.NotEmpty(t, log.lines["warn"])
	joined := fmt.Sprint(log.lines["warn"])
	assert.Contains(t, joined, "asetrate")
	assert.Contains(t, joined, "ogg")
}

func TestRunCheck_NoAtempo(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FFmpegPath = fakeFfmpeg(t, "aresample", "flac")
	log := newRecordLogger()

	assert.False(t, RunCheck(context.Background(), &cfg, log, &bytes.Buffer{}))
	assert.NotEmpty(t, log.lines["error"])
}

func TestRunCheck_NoFfmpeg(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FFmpegPath = filepath.Join(t.TempDir(), "nope")
	log := newRecordLogger()

	assert.False(t, RunCheck(context.Background(), &cfg, log, &bytes.Buffer{}))
	assert.NotEmpty(t, log.lines["error"])
}

func TestParseNames(t *testing.T) {
	out := []byte("Encoders:\n V..... = Video\n ------\n A....D libvorbis  libvorbis\n A..... flac  FLAC\n")
	names := parseNames(out)
	assert.True(t, names["libvorbis"])
	assert.True(t, names["flac"])
	assert.False(t, names["aac"])
}
