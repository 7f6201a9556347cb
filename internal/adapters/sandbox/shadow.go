package sandbox

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
)

// ErrShadowCancelled is returned when a shadow replication is cancelled via context.
var ErrShadowCancelled = zerr.New("shadow replication cancelled")

// Shadow recursively replicates the tree rooted at srcRoot into destDir,
// creating one relative symlink per leaf file and mirroring directory
// structure. It is used by the Shadow Prog step to expose a whole artifact
// tree at an arbitrary sandbox location, distinct from the flat per-path
// symlinking MaterializeInputs does for declared inputs.
func (m *Materializer) Shadow(ctx context.Context, srcRoot, destDir string) error {
	return filepath.Walk(srcRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to walk shadow source"), "path", path)
		}
		select {
		case <-ctx.Done():
			return zerr.Wrap(ErrShadowCancelled, ctx.Err().Error())
		default:
		}

		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to compute relative path"), "path", path)
		}
		dest := filepath.Join(destDir, rel)

		if info.IsDir() {
			// rel == "." for srcRoot itself: destDir is the caller-owned mount
			// point and is expected to already exist. Every other directory in
			// the tree is ours to create fresh; refuse to shadow over one that
			// already exists rather than silently merging into it.
			if rel != "." {
				if _, err := os.Lstat(dest); err == nil {
					return zerr.With(zerr.New("refusing to overwrite existing shadow destination"), "path", dest)
				}
			}
			return os.MkdirAll(dest, 0o750)
		}

		if _, err := os.Lstat(dest); err == nil {
			return zerr.With(zerr.New("refusing to overwrite existing shadow destination"), "path", dest)
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create parent directory"), "path", dest)
		}

		relSrc, err := filepath.Rel(filepath.Dir(dest), path)
		if err != nil {
			relSrc = path
		}

		return os.Symlink(relSrc, dest)
	})
}
