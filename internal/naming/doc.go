// Package naming decides where each sped-up file is written.
//
// Three destination policies are supported: sibling (a suffixed copy next
// to the source, the default), inplace (atomic replacement of the source)
// and mirror (the same relative path under a separate output root). Work
// always lands in a hidden temp file in the destination directory first;
// the pipeline renames it over the destination only after the transcoder
// succeeds.
//
// Files are split as outputpath.go (policies, temp names) and collision.go
// (in-run duplicate destinations).
package naming
