package app

import (
	"os"
	"path/filepath"

	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/zerr"
)

// ReadArtifactBytes reads a's full contents. For External this is a direct
// filesystem read against the project root; for Built it reads the frozen
// result directory. This does not register a as a build dependency the way
// materializing it as a Command input would (see ports.Materializer); an
// External read here is invisible to the hash that gates cache invalidation,
// and the caller is responsible for any invalidation that implies.
func (a *App) ReadArtifactBytes(artifact domain.Artifact) ([]byte, error) {
	root, err := a.ArtifactRoot(artifact.Source)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(root, artifact.Subpath.String())
	data, err := os.ReadFile(path) //nolint:gosec // path is built from a validated RelPath under a resolved store root
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read artifact"), "path", path)
	}
	return data, nil
}

// ReadArtifact reads a's contents as text.
func (a *App) ReadArtifact(artifact domain.Artifact) (string, error) {
	data, err := a.ReadArtifactBytes(artifact)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DoesArtifactExist reports whether a's underlying path is present.
func (a *App) DoesArtifactExist(artifact domain.Artifact) (bool, error) {
	root, err := a.ArtifactRoot(artifact.Source)
	if err != nil {
		return false, err
	}
	path := filepath.Join(root, artifact.Subpath.String())
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to stat artifact"), "path", path)
	}
	return true, nil
}
