package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/backmassage/speedbatch/internal/display"
	"github.com/backmassage/speedbatch/internal/logging"
)

// maxFailureRows caps the failure table; the rest are counted.
const maxFailureRows = 20

// LogSummary writes the end-of-run report: a counts line, a byte total and,
// when files failed, a table of the failures.
func LogSummary(w io.Writer, log *logging.Logger, sum Summary, dryRun bool) {
	log.Info("==============================")
	log.Info("Done: %d succeeded, %d failed, %d skipped (of %d dispatched)",
		sum.Succeeded, sum.Failed, sum.Skipped, sum.Dispatched)
	log.Info("  Files walked: %d (ignored %d, unreadable %d)", sum.Discovered, sum.Ignored, sum.Unreadable)

	switch {
	case dryRun:
		log.Info("  Output size: n/a (dry run)")
	case sum.Succeeded > 0:
		delta := sum.InBytes - sum.OutBytes
		log.Info("  Output size: %s (input %s, change %s)",
			display.FormatBytes(sum.OutBytes), display.FormatBytes(sum.InBytes),
			display.FormatBytesWithSign(-delta))
	}

	if len(sum.Failures) == 0 {
		if sum.Failed == 0 && sum.Succeeded > 0 {
			log.Success("  All files processed")
		}
		return
	}
	fmt.Fprintln(w, FailureTable(sum.Failures, maxFailureRows))
}

// FailureTable renders failures sorted by path. At most limit rows are
// shown; 0 means no limit.
func FailureTable(failures []Outcome, limit int) string {
	sorted := slices.Clone(failures)
	slices.SortFunc(sorted, func(a, b Outcome) int { return strings.Compare(a.Path, b.Path) })

	hidden := 0
	if limit > 0 && len(sorted) > limit {
		hidden = len(sorted) - limit
		sorted = sorted[:limit]
	}

	rows := make([][]string, 0, len(sorted)+1)
	for _, o := range sorted {
		rows = append(rows, []string{filepath.Base(o.Path), o.Format.String(), string(o.Reason), truncate(o.Detail, 60)})
	}
	if hidden > 0 {
		rows = append(rows, []string{fmt.Sprintf("... %d more", hidden)})
	}
	return display.RenderTable([]string{"File", "Format", "Reason", "Detail"}, rows, nil)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
