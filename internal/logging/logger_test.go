package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/backmassage/speedbatch/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(dir, "logs", "speedbatch.log")
	l, err := NewLogger(&cfg)
	require.NoError(t, err)

	l.Success("to file %d", 1)
	l.Debug("hidden")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"to file 1"`)
	assert.Contains(t, string(b), `"tag":"SUCCESS"`)
	assert.Contains(t, string(b), `"level":"info"`)
	assert.NotContains(t, string(b), "hidden", "debug is off without verbose")
}

func TestNewLogger_VerboseEnablesDebugInFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.Verbose = true
	cfg.LogFile = filepath.Join(t.TempDir(), "speedbatch.log")
	l, err := NewLogger(&cfg)
	require.NoError(t, err)

	l.Debug("shown")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "shown")
}

func TestLevelsAndTags(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	l := New(core)

	l.Info("info %s", "a")
	l.Success("done %d", 2)
	l.Warn("careful")
	l.Error("broken")
	l.Debug("detail")

	entries := observed.AllUntimed()
	require.Len(t, entries, 5)

	want := []struct {
		level zapcore.Level
		tag   string
		msg   string
	}{
		{zapcore.InfoLevel, "INFO", "info a"},
		{zapcore.InfoLevel, "SUCCESS", "done 2"},
		{zapcore.WarnLevel, "WARN", "careful"},
		{zapcore.ErrorLevel, "ERROR", "broken"},
		{zapcore.DebugLevel, "DEBUG", "detail"},
	}
	for i, w := range want {
		assert.Equal(t, w.level, entries[i].Level)
		assert.Equal(t, w.tag, entries[i].LoggerName)
		assert.Equal(t, w.msg, entries[i].Message)
	}
}

func TestWithAttachesFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	l := New(core).With(zap.String("file", "a.ogg"))

	l.Warn("slow")

	entries := observed.FilterField(zap.String("file", "a.ogg")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "slow", entries[0].Message)
}
