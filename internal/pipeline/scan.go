package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/backmassage/speedbatch/internal/display"
	"github.com/backmassage/speedbatch/internal/format"
	"github.com/backmassage/speedbatch/internal/logging"
	"github.com/backmassage/speedbatch/internal/planner"
	"github.com/backmassage/speedbatch/internal/probe"
	"github.com/backmassage/speedbatch/internal/term"
)

// ScanRow is one probed file in a scan report.
type ScanRow struct {
	Path     string
	Format   format.Format
	Method   format.Method
	Codec    string
	Kbps     int64
	Layout   string
	Estimate planner.Estimate
}

// ScanReport is the result of Scan.
type ScanReport struct {
	Rows      []ScanRow
	Summary   Summary
	Unprobed  int // Selected files ffprobe could not read.
	Duration  time.Duration
	Projected time.Duration
}

// Scan walks req's root like Run, then probes every selected file and
// projects its duration and size at req's speed. Nothing is written. A nil
// prober reports formats only.
func Scan(ctx context.Context, req *Request, prober *probe.Prober, log *logging.Logger) (ScanReport, error) {
	tasks, sum := collectTasks(ctx, req, Deps{Log: log, Prober: prober})
	report := ScanReport{Summary: sum}

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		row := ScanRow{Path: task.Path, Format: task.Detection.Format, Method: task.Detection.Method}
		if prober != nil {
			pr, err := prober.Probe(ctx, task.Path)
			if err != nil {
				report.Unprobed++
				log.Warn("Skip probe (failed): %s", filepath.Base(task.Path))
			} else {
				row.Codec = pr.Codec()
				row.Kbps = pr.AudioBitRate() / 1000
				row.Layout = pr.Layout()
				row.Estimate = planner.EstimateOutput(pr, req.Speed())
				report.Duration += row.Estimate.Duration
				report.Projected += row.Estimate.ProjectedDuration
			}
		}
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

// PrintScan renders the report as a table with bitrate outliers flagged,
// followed by a totals summary.
func PrintScan(w io.Writer, log *logging.Logger, report ScanReport, speed float64) {
	if len(report.Rows) == 0 {
		log.Warn("No matching audio files found")
		return
	}

	rows := append([]ScanRow(nil), report.Rows...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })

	var kbpsVals []float64
	for _, r := range rows {
		if r.Kbps > 0 {
			kbpsVals = append(kbpsVals, float64(r.Kbps))
		}
	}
	stats := computeStats(kbpsVals)

	cells := make([][]string, 0, len(rows))
	var outliers, extremes int
	for _, r := range rows {
		class := stats.classify(float64(r.Kbps))
		switch class {
		case "extreme":
			extremes++
		case "outlier":
			outliers++
		}
		codec := r.Codec
		if codec == "" {
			codec = "-"
		}
		dur, projected := "-", "-"
		if r.Estimate.Known {
			dur = display.FormatDuration(r.Estimate.Duration)
			projected = display.FormatDuration(r.Estimate.ProjectedDuration)
		}
		cells = append(cells, []string{
			filepath.Base(r.Path),
			r.Format.String(),
			r.Method.String(),
			codec,
			colorize(display.FormatBitrateLabel(r.Kbps), class),
			dur,
			projected,
			formatFlag(class),
		})
	}

	headers := []string{"File", "Format", "By", "Codec", "Bitrate", "Duration", fmt.Sprintf("At %gx", speed), ""}
	aligns := []display.Align{display.AlignLeft, display.AlignLeft, display.AlignLeft, display.AlignLeft,
		display.AlignRight, display.AlignRight, display.AlignRight}
	fmt.Fprintln(w, display.RenderTable(headers, cells, aligns))

	log.Info("Scanned %d file(s)", len(rows))
	if report.Unprobed > 0 {
		log.Warn("  %d file(s) could not be probed", report.Unprobed)
	}
	if report.Duration > 0 {
		log.Info("  Total duration: %s -> %s", display.FormatDuration(report.Duration),
			display.FormatDuration(report.Projected))
	}
	if stats.valid {
		log.Info("  Bitrate IQR: %.0f - %.0f kbps (outlier < %.0f or > %.0f)",
			stats.q1, stats.q3, stats.outlierLo, stats.outlierHi)
	}
	if outliers > 0 {
		log.Warn("  %d outlier(s) flagged [*]", outliers)
	}
	if extremes > 0 {
		log.Error("  %d extreme outlier(s) flagged [!]", extremes)
	}
}

// iqrBounds holds the IQR-based thresholds for outlier classification.
type iqrBounds struct {
	q1, q3    float64
	outlierLo float64 // Q1 - 1.5*IQR
	outlierHi float64 // Q3 + 1.5*IQR
	extremeLo float64 // Q1 - 3.0*IQR
	extremeHi float64 // Q3 + 3.0*IQR
	valid     bool
}

func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierLo: q1 - 1.5*iqr,
		outlierHi: q3 + 1.5*iqr,
		extremeLo: q1 - 3.0*iqr,
		extremeHi: q3 + 3.0*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "" (normal), "outlier", or "extreme" for a value.
func (b *iqrBounds) classify(v float64) string {
	if !b.valid || v <= 0 {
		return ""
	}
	if v < b.extremeLo || v > b.extremeHi {
		return "extreme"
	}
	if v < b.outlierLo || v > b.outlierHi {
		return "outlier"
	}
	return ""
}

func formatFlag(class string) string {
	switch class {
	case "extreme":
		return term.Red + "[!]" + term.NC
	case "outlier":
		return term.Yellow + "[*]" + term.NC
	default:
		return ""
	}
}

func colorize(s, class string) string {
	switch class {
	case "extreme":
		return term.Red + s + term.NC
	case "outlier":
		return term.Yellow + s + term.NC
	default:
		return s
	}
}

// percentile computes the p-th percentile using linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
