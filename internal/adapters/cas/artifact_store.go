package cas

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ArtifactStore = (*ArtifactStore)(nil)

// freezeMarkerSuffix names a sibling file written next to (not inside) a
// result directory once it has been fully populated and frozen,
// distinguishing a published artifact from a partially-materialized one left
// behind by a crashed build (Invariant 1: frozen/complete-or-absent result
// directories). Keeping it outside the result directory means it never shows
// up when the directory's own contents are enumerated (matchArtifactGlob,
// ReadArtifact), and it can be written after the directory is frozen
// read-only without needing write access to the directory itself.
const freezeMarkerSuffix = ".pier-frozen"

// stagingDirName is the sibling-of-every-hash directory staging results are
// built into before Publish moves them into place. It lives directly under
// root, alongside the `<hash>/` directories, rather than inside any of them,
// so it is never picked up by a hash-scoped glob or read.
const stagingDirName = ".tmp"

// ArtifactStore implements ports.ArtifactStore over a directory tree rooted
// at `_pier/artifact/`. Acquire hands back a fresh staging directory under
// `_pier/artifact/.tmp/` for each not-yet-published hash; Publish moves that
// staging directory into its final `<hash>/` location with a single rename.
type ArtifactStore struct {
	root        string // `_pier/artifact/`
	sharedCache string // optional read-through/populate-on-write cache, empty if unconfigured
}

// NewArtifactStore creates a store rooted at root, with an optional shared
// cache directory populated after every successful local build.
func NewArtifactStore(root, sharedCache string) (*ArtifactStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create artifact store root"), "path", root)
	}
	if err := os.MkdirAll(filepath.Join(root, stagingDirName), 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create artifact store staging directory"), "path", root)
	}
	return &ArtifactStore{root: filepath.Clean(root), sharedCache: sharedCache}, nil
}

func (s *ArtifactStore) resultDir(h domain.Hash) string {
	return filepath.Join(s.root, h.String())
}

// newStagingDir mints a fresh, uniquely-named staging directory for a build
// of h. Distinct calls always return distinct paths, even for the same hash,
// so two builders racing to fill the same not-yet-published hash never write
// into each other's tree.
func (s *ArtifactStore) newStagingDir(h domain.Hash) string {
	return filepath.Join(s.root, stagingDirName, "result-"+h.String()+"-"+uuid.NewString())
}

// freezeMarkerPath returns the sibling marker path for a result directory
// rooted at the given base directory, never itself inside that directory.
func freezeMarkerPath(base string, h domain.Hash) string {
	return filepath.Join(base, h.String()+freezeMarkerSuffix)
}

// Acquire returns a directory path for h and whether it is already published
// (frozen). If published, the path is the final, read-only result directory.
// If not, the path is a freshly minted staging directory the caller must
// populate and hand to Publish, which moves it into place atomically.
func (s *ArtifactStore) Acquire(h domain.Hash) (string, bool, error) {
	if h.IsZero() {
		return "", false, zerr.Wrap(domain.ErrInvalidPath, "hash is zero value")
	}
	dir := s.resultDir(h)
	if _, err := os.Stat(freezeMarkerPath(s.root, h)); err == nil {
		return dir, true, nil
	}
	if s.sharedCache != "" {
		if populated, err := s.populateFromSharedCache(h, dir); err != nil {
			return "", false, err
		} else if populated {
			return dir, true, nil
		}
	}
	return s.newStagingDir(h), false, nil
}

// Publish moves stagingDir (a path previously returned by Acquire) into place
// under the artifact hash h, freezes its permissions read-only, and drops the
// freeze marker. It then attempts to populate the shared cache, if one is
// configured, via hardlink falling back to copy.
func (s *ArtifactStore) Publish(ctx context.Context, h domain.Hash, stagingDir string) error {
	dest := s.resultDir(h)
	marker := freezeMarkerPath(s.root, h)
	if _, err := os.Stat(marker); err == nil {
		// Already published by a concurrent or prior build; discard the
		// staging directory, its contents are byte-identical by construction.
		return os.RemoveAll(stagingDir)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create artifact parent directory"), "path", dest)
	}
	// stagingDir and dest are both under root, so this is a same-filesystem
	// rename: atomic, and either lands dest fully populated or leaves it
	// entirely absent, never partial.
	if err := os.Rename(stagingDir, dest); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to move result directory into store"), "path", dest)
	}

	if err := freezeTree(dest); err != nil {
		return err
	}
	// The marker lives beside dest, not inside it, so it can be written
	// after dest has already lost its write bit and without polluting
	// dest's own content-addressed listing.
	if err := os.WriteFile(marker, nil, 0o444); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write freeze marker"), "path", marker)
	}

	if s.sharedCache != "" {
		if err := populateSharedCache(ctx, dest, filepath.Join(s.sharedCache, h.String())); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to populate shared cache"), "hash", h.String())
		}
		if err := os.WriteFile(freezeMarkerPath(s.sharedCache, h), nil, 0o444); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to write shared cache freeze marker"), "hash", h.String())
		}
	}

	return nil
}

// Unfreeze removes the published result directory for h, for intentional
// destructive use outside the memoizer.
func (s *ArtifactStore) Unfreeze(h domain.Hash) error {
	dir := s.resultDir(h)
	if err := unfreezeTree(dir); err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove artifact directory"), "path", dir)
	}
	if err := os.Remove(freezeMarkerPath(s.root, h)); err != nil && !os.IsNotExist(err) {
		return zerr.With(zerr.Wrap(err, "failed to remove freeze marker"), "hash", h.String())
	}
	return nil
}

func (s *ArtifactStore) populateFromSharedCache(h domain.Hash, dest string) (bool, error) {
	src := filepath.Join(s.sharedCache, h.String())
	if _, err := os.Stat(freezeMarkerPath(s.sharedCache, h)); err != nil {
		return false, nil
	}
	if err := copyTree(src, dest); err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to populate from shared cache"), "hash", h.String())
	}
	if err := freezeTree(dest); err != nil {
		return false, err
	}
	if err := os.WriteFile(freezeMarkerPath(s.root, h), nil, 0o444); err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to write freeze marker"), "hash", h.String())
	}
	return true, nil
}

func freezeTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return os.Chmod(path, 0o555)
		}
		return os.Chmod(path, 0o444)
	})
}

func unfreezeTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return os.Chmod(path, 0o755)
		}
		return os.Chmod(path, 0o644)
	})
}

// populateSharedCache copies src into dest via hardlink, falling back to a
// full copy when the two trees are not on the same filesystem.
func populateSharedCache(ctx context.Context, src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}
	if err := hardlinkTree(src, dest); err == nil {
		return nil
	}
	return copyTreeContext(ctx, src, dest)
}

func hardlinkTree(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		return os.Link(path, target)
	})
}

func copyTree(src, dest string) error {
	return copyTreeContext(context.Background(), src, dest)
}

func copyTreeContext(ctx context.Context, src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			linkDest, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(linkDest, target)
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dest string, mode os.FileMode) error {
	//nolint:gosec // path is derived from a walk of a trusted store tree
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}
	//nolint:gosec // path is derived from a walk of a trusted store tree
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
