// Package pipeline walks an input tree, sniffs each file's audio format and
// runs the speed change on every selected file in parallel.
//
// A run has three stages:
//
//   - Walk lazily yields regular files under the root. Symlinks are not
//     followed and unreadable directories are skipped with a warning.
//   - Candidates are sniffed and filtered against the requested format set;
//     the survivors become Tasks.
//   - Run dispatches Tasks to a bounded worker pool. Each worker plans the
//     file, has the transcoder write a temp file next to the destination,
//     and renames it into place only after the transcoder exits 0.
//
// Per-file problems never stop the run; they become Outcomes folded into
// the Summary. Only a missing transcoder (when the request says so) aborts
// the remaining work.
//
// Scan is the read-only variant used by `speedbatch scan`: it probes each
// match and reports projected durations without writing anything.
package pipeline
