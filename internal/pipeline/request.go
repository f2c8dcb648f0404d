package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/backmassage/speedbatch/internal/config"
	"github.com/backmassage/speedbatch/internal/format"
)

// ErrRootNotFound is returned when the input root is missing or not a
// directory.
var ErrRootNotFound = errors.New("input directory not found")

// Request is one validated invocation. It is built by NewRequest and never
// changes afterwards; workers read it concurrently.
type Request struct {
	root    string
	formats format.Set
	cfg     config.Config
}

// NewRequest validates cfg and freezes it into a Request. The speed,
// format selection and root are checked here, before anything is walked.
func NewRequest(cfg config.Config) (*Request, error) {
	if err := config.ValidateSpeed(cfg.Speed); err != nil {
		return nil, err
	}

	formats := cfg.Formats
	if formats.IsEmpty() {
		parsed, err := format.ParseSet(cfg.FormatSpec)
		if err != nil {
			return nil, err
		}
		formats = parsed
	}

	if cfg.Output == config.OutputMirror && cfg.OutputDir == "" {
		return nil, config.ErrMissingOutputDir
	}

	root, err := filepath.Abs(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootNotFound, cfg.InputDir, err)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, cfg.InputDir)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, cfg.InputDir)
	}
	// WalkDir does not descend into a root that is itself a symlink.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	cfg.InputDir = root
	cfg.Formats = formats
	return &Request{root: root, formats: formats, cfg: cfg}, nil
}

// Root returns the absolute input directory.
func (r *Request) Root() string { return r.root }

// Speed returns the speed multiplier.
func (r *Request) Speed() float64 { return r.cfg.Speed }

// Formats returns the selected format set.
func (r *Request) Formats() format.Set { return r.formats }

// Workers returns the worker pool size.
func (r *Request) Workers() int { return r.cfg.EffectiveWorkers() }

// Policy returns the destination policy.
func (r *Request) Policy() config.OutputPolicy { return r.cfg.Output }

// Pitch returns the pitch mode.
func (r *Request) Pitch() config.PitchMode { return r.cfg.Pitch }

// FileTimeout returns the per-file limit, 0 for none.
func (r *Request) FileTimeout() time.Duration { return r.cfg.FileTimeout }

// DryRun reports whether transcodes are only planned.
func (r *Request) DryRun() bool { return r.cfg.DryRun }

// Force reports whether existing destinations are overwritten.
func (r *Request) Force() bool { return r.cfg.Force }

// AbortOnMissingTool reports whether a missing transcoder stops the run.
func (r *Request) AbortOnMissingTool() bool { return r.cfg.AbortOnMissingTool }

// Config returns a copy of the settings the request was built from.
func (r *Request) Config() config.Config { return r.cfg }

// settings returns the request's own settings for packages that take a
// *config.Config. Callers must not modify it.
func (r *Request) settings() *config.Config { return &r.cfg }
