// Package logging provides the leveled console logger used across the run.
// It is a thin printf-style layer over zap: console lines are
// "<time> [LEVEL] text" (colored when term colors are on), errors go to
// stderr, and an optional rotating JSON file sink records everything.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/backmassage/speedbatch/internal/config"
	"github.com/backmassage/speedbatch/internal/term"
)

// Line tags. Each is a named child logger so the console shows SUCCESS
// while zap still files the entry at info level.
const (
	tagDebug   = "DEBUG"
	tagInfo    = "INFO"
	tagSuccess = "SUCCESS"
	tagWarn    = "WARN"
	tagError   = "ERROR"
)

// Logger provides leveled, optionally colored logging with an optional
// rotating file sink.
type Logger struct {
	base    *zap.Logger
	debug   *zap.SugaredLogger
	info    *zap.SugaredLogger
	success *zap.SugaredLogger
	warn    *zap.SugaredLogger
	err     *zap.SugaredLogger
	file    io.Closer
}

// NewLogger configures term colors from cfg, builds the console cores and,
// when cfg.LogFile is set, a lumberjack-rotated JSON file core. Debug lines
// are enabled only with cfg.Verbose. Call Close when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	minLevel := zapcore.InfoLevel
	if cfg.Verbose {
		minLevel = zapcore.DebugLevel
	}

	consoleEnc := zapcore.NewConsoleEncoder(consoleEncoderConfig())
	stdoutLevels := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= minLevel && l < zapcore.ErrorLevel })
	stderrLevels := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), stdoutLevels),
		zapcore.NewCore(consoleEnc.Clone(), zapcore.Lock(os.Stderr), stderrLevels),
	}

	var file io.Closer
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		sink := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig()),
			zapcore.AddSync(sink),
			minLevel,
		))
		file = sink
	}

	l := New(zapcore.NewTee(cores...))
	l.file = file
	return l, nil
}

// New wraps an existing core. Tests pass an observer core here.
func New(core zapcore.Core) *Logger {
	return fromZap(zap.New(core))
}

func fromZap(z *zap.Logger) *Logger {
	return &Logger{
		base:    z,
		debug:   z.Named(tagDebug).Sugar(),
		info:    z.Named(tagInfo).Sugar(),
		success: z.Named(tagSuccess).Sugar(),
		warn:    z.Named(tagWarn).Sugar(),
		err:     z.Named(tagError).Sugar(),
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		NameKey:          "tag",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       encodeTag,
		ConsoleSeparator: " ",
	}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "tag",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}

// encodeTag renders "[TAG]" in the tag's color.
func encodeTag(name string, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(tagColor(name) + "[" + name + "]" + term.NC)
}

func tagColor(name string) string {
	switch name {
	case tagDebug:
		return term.Cyan
	case tagInfo:
		return term.Blue
	case tagSuccess:
		return term.Green
	case tagWarn:
		return term.Yellow
	case tagError:
		return term.Red
	default:
		return term.Magenta
	}
}

// With returns a logger that attaches fields to every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := fromZap(l.base.With(fields...))
	child.file = nil
	return child
}

// Close flushes buffered entries and closes the log file if one was opened.
func (l *Logger) Close() error {
	// Syncing a terminal returns EINVAL on some platforms; ignore it.
	_ = l.base.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...any) { l.info.Infof(format, args...) }

// Success logs at SUCCESS level (green). Filed as info.
func (l *Logger) Success(format string, args ...any) { l.success.Infof(format, args...) }

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...any) { l.warn.Warnf(format, args...) }

// Error logs at ERROR level (red), to stderr.
func (l *Logger) Error(format string, args ...any) { l.err.Errorf(format, args...) }

// Debug logs at DEBUG level (cyan); dropped unless the logger was built
// verbose.
func (l *Logger) Debug(format string, args ...any) { l.debug.Debugf(format, args...) }
