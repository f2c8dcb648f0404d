package naming

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/backmassage/speedbatch/internal/config"
)

// TempPrefix starts the name of every in-flight output file. The walker
// never yields files carrying it.
const TempPrefix = ".speedbatch-"

// OutputPath builds the destination for src under cfg's output policy.
// inputRoot is the walked root; it is needed only for the mirror policy.
//
//	sibling: <dir>/<stem><suffix><ext>         (song.mp3 → song_1.5x.mp3)
//	inplace: src
//	mirror:  <outputDir>/<path relative to inputRoot>
func OutputPath(cfg *config.Config, inputRoot, src string) (string, error) {
	switch cfg.Output {
	case config.OutputInPlace:
		return src, nil
	case config.OutputMirror:
		return MirrorPath(inputRoot, cfg.OutputDir, src)
	default:
		return SiblingPath(src, cfg.SiblingSuffix()), nil
	}
}

// SiblingPath inserts suffix between the stem and extension of src.
func SiblingPath(src, suffix string) string {
	dir := filepath.Dir(src)
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+suffix+ext)
}

// IsSiblingOutput reports whether path already looks like a sibling output
// for suffix, so re-running over the same tree does not speed up the
// previous results again.
func IsSiblingOutput(path, suffix string) bool {
	if suffix == "" {
		return false
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return len(stem) > len(suffix) && strings.HasSuffix(stem, suffix)
}

// MirrorPath maps src from inputRoot onto outputRoot, keeping its relative
// path. src must live under inputRoot.
func MirrorPath(inputRoot, outputRoot, src string) (string, error) {
	rel, err := filepath.Rel(inputRoot, src)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", src, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", src, inputRoot)
	}
	return filepath.Join(outputRoot, rel), nil
}

// TempPath returns a unique hidden sibling of dest for the transcoder to
// write into: <dir>/.speedbatch-<uuid>-<base>. Keeping the destination's
// extension lets the muxer be inferred and keeps the rename on one
// filesystem.
func TempPath(dest string) string {
	dir := filepath.Dir(dest)
	return filepath.Join(dir, TempPrefix+uuid.NewString()+"-"+filepath.Base(dest))
}

// IsTempName reports whether a base name belongs to an in-flight output.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}
