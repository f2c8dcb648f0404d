package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/backmassage/speedbatch/internal/logging"
	"github.com/backmassage/speedbatch/internal/naming"
)

// errStopWalk ends WalkDir when the consumer stops pulling.
var errStopWalk = errors.New("walk stopped")

// Walk returns a lazy sequence of regular files under root, in the order
// the filesystem lists them. Directories that cannot be read are skipped
// with a warning. A symlinked root is followed; symlinks below it are
// not, so the walk always ends. In-flight temp files from a run are not
// yielded. Each call walks the tree again from the start; canceling ctx
// ends the sequence early.
func Walk(ctx context.Context, root string, log *logging.Logger) iter.Seq[string] {
	return func(yield func(string) bool) {
		root := resolveRoot(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if d == nil {
					// Root itself is gone.
					return err
				}
				log.Warn("Skipping %s: %v", path, err)
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				log.Debug("Skipping symlink: %s", path)
				return nil
			}
			if !d.Type().IsRegular() || naming.IsTempName(d.Name()) {
				return nil
			}
			if !yield(path) {
				return errStopWalk
			}
			return nil
		})
		switch {
		case err == nil, errors.Is(err, errStopWalk):
		case ctx.Err() != nil:
			log.Debug("Walk of %s canceled", root)
		default:
			log.Warn("Cannot walk %s: %v", root, err)
		}
	}
}

// resolveRoot follows root when it is itself a symlink. Links below the
// root are still skipped.
func resolveRoot(root string) string {
	fi, err := os.Lstat(root)
	if err != nil || fi.Mode()&fs.ModeSymlink == 0 {
		return root
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		return resolved
	}
	return root
}

// Discover collects Walk into a slice.
func Discover(ctx context.Context, root string, log *logging.Logger) []string {
	var files []string
	for path := range Walk(ctx, root, log) {
		files = append(files, path)
	}
	return files
}
