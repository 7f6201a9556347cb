package app

import (
	"path/filepath"

	"go.trai.ch/bob/internal/core/domain"
)

// MatchArtifactGlob lists the subpaths under a matching pattern, resolved
// against a's real root (the project root for External, the frozen result
// directory for Built). Results are returned relative to a itself, sorted
// and deduplicated by the underlying resolver.
func (a *App) MatchArtifactGlob(artifact domain.Artifact, pattern string) ([]string, error) {
	root, err := a.ArtifactRoot(artifact.Source)
	if err != nil {
		return nil, err
	}
	base := filepath.Join(root, artifact.Subpath.String())

	matches, err := a.resolver.ResolveInputs([]string{pattern}, base)
	if err != nil {
		return nil, err
	}

	rels := make([]string, len(matches))
	for i, m := range matches {
		rel, err := filepath.Rel(base, m)
		if err != nil {
			return nil, err
		}
		rels[i] = filepath.ToSlash(rel)
	}
	return rels, nil
}
