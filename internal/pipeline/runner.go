package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/backmassage/speedbatch/internal/check"
	"github.com/backmassage/speedbatch/internal/config"
	"github.com/backmassage/speedbatch/internal/display"
	"github.com/backmassage/speedbatch/internal/ffmpeg"
	"github.com/backmassage/speedbatch/internal/format"
	"github.com/backmassage/speedbatch/internal/logging"
	"github.com/backmassage/speedbatch/internal/naming"
	"github.com/backmassage/speedbatch/internal/planner"
	"github.com/backmassage/speedbatch/internal/probe"
)

// stderrTailLines is how much transcoder output a failure keeps.
const stderrTailLines = 8

// Transcoder runs one planned file. *ffmpeg.Executor implements it.
type Transcoder interface {
	Transcode(ctx context.Context, plan *planner.FilePlan) ffmpeg.Result
}

// Deps are the collaborators of a run.
type Deps struct {
	Transcoder Transcoder
	Log        *logging.Logger

	// Prober is optional. It supplies the sample rate for pitch shift and,
	// with ProbeCodecs set, tells AAC from ALAC in MP4 files.
	Prober *probe.Prober

	// Progress receives the progress bar. Nil hides it.
	Progress io.Writer
}

// runState is the only state workers share: the progress bar and the
// outcome aggregator. It is passed to each worker explicitly.
type runState struct {
	req      *Request
	deps     Deps
	log      *logging.Logger
	resolver *naming.CollisionResolver
	bar      *progressbar.ProgressBar
	agg      *aggregator
}

func (s *runState) finish(o Outcome) {
	s.agg.record(o)
	if s.bar != nil {
		_ = s.bar.Add(1)
	}
}

// Run walks req's root, selects the files in req's format set and speeds
// each one up in parallel. It blocks until every task has an outcome.
//
// Per-file failures are folded into the Summary. If the transcoder cannot
// be started and req.AbortOnMissingTool is set, the remaining tasks are
// canceled and check.ErrTranscoderNotFound is returned with the partial
// Summary. A canceled ctx returns ctx.Err().
func Run(ctx context.Context, req *Request, deps Deps) (Summary, error) {
	if deps.Transcoder == nil {
		return Summary{}, errors.New("pipeline: no transcoder")
	}
	log := deps.Log

	tasks, sum := collectTasks(ctx, req, deps)
	log.Info("Found %d file(s), %d selected (%s)", sum.Discovered, len(tasks), req.Formats())
	if sum.Unreadable > 0 {
		log.Warn("%d file(s) could not be read", sum.Unreadable)
	}
	if len(tasks) == 0 {
		return sum, ctx.Err()
	}

	state := &runState{
		req:      req,
		deps:     deps,
		log:      log,
		resolver: naming.NewCollisionResolver(),
		agg:      &aggregator{},
	}
	if deps.Progress != nil {
		state.bar = newProgressBar(deps.Progress, len(tasks))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Workers())
	for _, task := range tasks {
		g.Go(func() error {
			o, err := processTask(gctx, state, task)
			state.finish(o)
			return err
		})
	}
	runErr := g.Wait()

	if state.bar != nil {
		_ = state.bar.Finish()
		fmt.Fprintln(deps.Progress)
	}

	done := state.agg.snapshot()
	done.Discovered = sum.Discovered
	done.Ignored = sum.Ignored
	done.Unreadable = sum.Unreadable
	done.Dispatched = len(tasks)

	if runErr == nil {
		runErr = ctx.Err()
	}
	return done, runErr
}

// collectTasks walks the root and sniffs every file. Files that match no
// selected format, that cannot be read, or that are outputs of an earlier
// sibling run are counted but not returned.
func collectTasks(ctx context.Context, req *Request, deps Deps) ([]Task, Summary) {
	log := deps.Log
	cfg := req.settings()

	var sniffer format.Sniffer
	if cfg.ProbeCodecs && deps.Prober != nil {
		sniffer.Refine = deps.Prober.Refiner(ctx)
	}
	suffix := ""
	if req.Policy() == config.OutputSibling {
		suffix = cfg.SiblingSuffix()
	}

	var sum Summary
	var tasks []Task
	for path := range Walk(ctx, req.Root(), log) {
		sum.Discovered++

		if naming.IsSiblingOutput(path, suffix) {
			log.Debug("Ignoring earlier output: %s", path)
			sum.Ignored++
			continue
		}

		det, ok, err := sniffer.Detect(path)
		if err != nil {
			log.Warn("Unreadable, skipping: %v", err)
			sum.Unreadable++
			continue
		}
		if !ok {
			log.Debug("No audio format: %s", path)
			sum.Ignored++
			continue
		}
		if !req.Formats().Contains(det.Format) {
			log.Debug("Not selected (%s): %s", det.Format, path)
			sum.Ignored++
			continue
		}
		log.Debug("%s: %s by %s", path, det.Format, det.Method)
		tasks = append(tasks, Task{Path: path, Detection: det})
	}
	sum.Dispatched = len(tasks)
	return tasks, sum
}

func newProgressBar(w io.Writer, n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Speeding up"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

// processTask takes one file from plan to renamed output. The returned
// error is non-nil only when the whole run must stop.
func processTask(ctx context.Context, s *runState, task Task) (Outcome, error) {
	cfg := s.req.settings()
	log := s.log
	o := Outcome{Path: task.Path, Format: task.Detection.Format}

	if ctx.Err() != nil {
		o.Status, o.Reason = StatusSkipped, ReasonCanceled
		return o, nil
	}

	src, err := os.Stat(task.Path)
	if err != nil {
		return s.fail(o, ReasonIO, err.Error()), nil
	}
	o.InBytes = src.Size()

	// --- Destination ---
	dest, err := naming.OutputPath(cfg, s.req.Root(), task.Path)
	if err != nil {
		return s.fail(o, ReasonIO, err.Error()), nil
	}
	// An in-place destination is the source itself and never shared.
	if dest != task.Path {
		dest = s.resolver.Resolve(task.Path, dest)
	}
	o.Dest = dest

	if dest != task.Path && !s.req.Force() {
		if _, err := os.Stat(dest); err == nil {
			log.Warn("Skip (exists): %s", dest)
			o.Status, o.Reason = StatusSkipped, ReasonExists
			return o, nil
		}
	}

	// --- Plan ---
	in := planner.Input{Path: task.Path, Dest: dest, Detection: task.Detection}
	if s.req.Pitch() == config.PitchShift && s.deps.Prober != nil {
		pr, err := s.deps.Prober.Probe(ctx, task.Path)
		if err != nil {
			log.Warn("Cannot probe %s: %v", filepath.Base(task.Path), err)
		} else {
			in.Probe = pr
		}
	}
	plan, err := planner.BuildPlan(cfg, in)
	if err != nil {
		return s.fail(o, ReasonPlan, err.Error()), nil
	}
	if plan.Note != "" {
		log.Warn("%s: %s", filepath.Base(task.Path), plan.Note)
	}

	if s.req.DryRun() {
		log.Info("[DRY] %s -> %s (%s)", task.Path, dest, plan.AudioFilter)
		o.Status, o.Reason = StatusSkipped, ReasonDryRun
		return o, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return s.fail(o, ReasonIO, err.Error()), nil
	}

	// --- Transcode ---
	fctx := ctx
	if t := s.req.FileTimeout(); t > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	res := s.deps.Transcoder.Transcode(fctx, plan)
	o.Elapsed = res.Elapsed

	if failure := ffmpeg.Classify(fctx, res); failure != ffmpeg.FailureNone {
		removeTemp(plan.TempPath, log)
		o.Stderr = ffmpeg.Tail(res.Stderr, stderrTailLines)
		detail := ffmpeg.Hint(res.Stderr)
		if detail == "" {
			detail = res.Err.Error()
		}
		o = s.fail(o, reasonFor(failure), detail)
		if failure == ffmpeg.FailureNotFound && s.req.AbortOnMissingTool() {
			return o, fmt.Errorf("%w: %v", check.ErrTranscoderNotFound, res.Err)
		}
		return o, nil
	}

	// --- Commit ---
	out, err := os.Stat(plan.TempPath)
	if err != nil {
		return s.fail(o, ReasonIO, "transcoder produced no output: "+err.Error()), nil
	}
	_ = os.Chmod(plan.TempPath, src.Mode().Perm())
	if err := os.Rename(plan.TempPath, dest); err != nil {
		removeTemp(plan.TempPath, log)
		return s.fail(o, ReasonIO, err.Error()), nil
	}

	o.Status = StatusSucceeded
	o.OutBytes = out.Size()
	log.Success("%s -> %s (%s, %s)", filepath.Base(task.Path), filepath.Base(dest),
		display.FormatBytes(o.OutBytes), o.Elapsed.Round(time.Millisecond))
	return o, nil
}

// fail marks o failed and logs it.
func (s *runState) fail(o Outcome, reason Reason, detail string) Outcome {
	o.Status, o.Reason, o.Detail = StatusFailed, reason, detail
	if reason == ReasonCanceled {
		s.log.Warn("Canceled: %s", o.Path)
		return o
	}
	s.log.Error("Failed (%s): %s: %s", reason, o.Path, detail)
	for _, line := range o.Stderr {
		s.log.Debug("  %s", line)
	}
	return o
}

func removeTemp(path string, log *logging.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Cannot remove temp file %s: %v", path, err)
	}
}
