package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oggData = append([]byte("OggS\x00\x02"), make([]byte, 40)...)

// isolate keeps a developer's own config file out of the run.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
}

func stubFfmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	isolate(t)
	code, out, _ := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, version)
}

func TestRun_RequiresInputDir(t *testing.T) {
	isolate(t)
	code, _, errOut := runCLI(t, "-s", "1.5")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "arg")
}

func TestRun_RejectsNonPositiveSpeed(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	src := filepath.Join(root, "a.ogg")
	require.NoError(t, os.WriteFile(src, oggData, 0o644))

	for _, speed := range []string{"0", "-2"} {
		code, _, errOut := runCLI(t, "--speed="+speed, root)
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "speed multiplier must be a positive number")
	}
	assert.NoFileExists(t, filepath.Join(root, "a_0x.ogg"))
}

func TestRun_UnknownFormat(t *testing.T) {
	isolate(t)
	code, _, errOut := runCLI(t, "-s", "2", "-f", "ogg,midi", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "midi")
}

func TestRun_EndToEndWithStub(t *testing.T) {
	isolate(t)
	bin := stubFfmpeg(t, `for last; do :; done; printf 'fast' > "$last"`)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ogg"), oggData, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	code, _, _ := runCLI(t, "-s", "2", "--ffmpeg", bin, "--no-progress", root)
	require.Equal(t, 0, code)

	data, err := os.ReadFile(filepath.Join(root, "a_2x.ogg"))
	require.NoError(t, err)
	assert.Equal(t, "fast", string(data))
	assert.NoFileExists(t, filepath.Join(root, "notes_2x.txt"))
}

func TestRun_FailedFileExitsOne(t *testing.T) {
	isolate(t)
	bin := stubFfmpeg(t, `echo "Conversion failed!" >&2; exit 1`)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ogg"), oggData, 0o644))

	code, _, _ := runCLI(t, "-s", "2", "--ffmpeg", bin, "--no-progress", root)
	assert.Equal(t, 1, code)
	assert.NoFileExists(t, filepath.Join(root, "a_2x.ogg"))
}

func TestRun_MissingTranscoder(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ogg"), oggData, 0o644))

	code, _, _ := runCLI(t, "-s", "2", "--ffmpeg", filepath.Join(t.TempDir(), "nope"), root)
	assert.Equal(t, 1, code)
}

func TestRun_MirrorInsideInputRejected(t *testing.T) {
	isolate(t)
	bin := stubFfmpeg(t, "exit 0")
	root := t.TempDir()

	code, _, _ := runCLI(t, "-s", "2", "--ffmpeg", bin, "--output", "mirror", "-o", filepath.Join(root, "out"), root)
	assert.Equal(t, 1, code)
}

func TestRun_ConfigFileSuppliesSpeed(t *testing.T) {
	isolate(t)
	bin := stubFfmpeg(t, `for last; do :; done; printf 'fast' > "$last"`)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ogg"), oggData, 0o644))
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("speed = 1.25\nno_progress = true\n"), 0o644))

	code, _, _ := runCLI(t, "-c", cfgPath, "--ffmpeg", bin, root)
	require.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(root, "a_1.25x.ogg"))
}

func TestConfigInit(t *testing.T) {
	isolate(t)
	target := filepath.Join(t.TempDir(), "speedbatch", "config.toml")

	code, out, _ := runCLI(t, "config", "init", "--path", target)
	require.Equal(t, 0, code)
	assert.Contains(t, out, target)
	assert.FileExists(t, target)

	code, _, errOut := runCLI(t, "config", "init", "--path", target)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "already exists")
}

func TestScan_FormatsOnly(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ogg"), oggData, 0o644))

	code, out, _ := runCLI(t, "scan", "--ffprobe", filepath.Join(t.TempDir(), "nope"), root)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "a.ogg")
}
