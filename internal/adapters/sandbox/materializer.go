// Package sandbox lays out a Command's inputs inside a per-build temp
// directory via symlinks, and replicates artifact trees for the Shadow step.
package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Materializer = (*Materializer)(nil)

// Materializer implements ports.Materializer using symlinks.
type Materializer struct{}

// NewMaterializer creates a new Materializer.
func NewMaterializer() *Materializer {
	return &Materializer{}
}

// MaterializeInputs lays every input artifact out under
// <sandboxDir>/artifact/... at its PathIn() location (§4.1, §4.8):
// External artifacts resolve through a single `artifact/external` symlink
// to externalRoot, materialized once per sandbox; Built artifacts each get
// their own symlink at `artifact/<hash>/<subpath>` pointing at the real
// result directory resolve returns. Inputs are first deduplicated and
// checked for distinct sandbox paths in domain.CommandQ's canonical sort
// order, so a collision is detected deterministically regardless of caller
// order.
func (m *Materializer) MaterializeInputs(
	ctx context.Context,
	sandboxDir, externalRoot string,
	inputs []domain.Artifact,
	resolve func(domain.Source) (string, error),
) error {
	deduped := domain.DedupArtifacts(inputs)
	if err := domain.CheckAllDistinctPaths(deduped); err != nil {
		return err
	}

	// Whenever externalRoot is set, the sandbox gets a single
	// artifact/external link to it, whether or not this particular command declares any
	// External inputs: Shadow steps and later ProgCall steps may still
	// reference it, and per §4.8 no External input ever needs its own
	// per-artifact symlink.
	if err := ensureExternalLink(sandboxDir, externalRoot); err != nil {
		return err
	}

	built := make([]domain.Artifact, 0, len(deduped))
	for _, a := range deduped {
		if a.IsExternal() {
			continue
		}
		built = append(built, a)
	}
	if err := verifyExternalSources(externalRoot, deduped); err != nil {
		return err
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, input := range built {
		input := input
		g.Go(func() error {
			return m.materializeBuilt(groupCtx, sandboxDir, input, resolve)
		})
	}

	return g.Wait()
}

// ensureExternalLink creates `<sandboxDir>/artifact/external` as a symlink
// to externalRoot, idempotently: relative External inputs then resolve
// naturally through it without any per-input symlink. An empty externalRoot
// names no project root, and no link is made.
func ensureExternalLink(sandboxDir, externalRoot string) error {
	if externalRoot == "" {
		return nil
	}
	artifactDir := filepath.Join(sandboxDir, "artifact")
	if err := os.MkdirAll(artifactDir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create sandbox artifact directory"), "path", artifactDir)
	}
	link := filepath.Join(artifactDir, "external")
	if _, err := os.Lstat(link); err == nil {
		return nil
	}
	if err := os.Symlink(externalRoot, link); err != nil && !os.IsExist(err) {
		return zerr.With(zerr.Wrap(err, "failed to link sandbox external root"), "path", link)
	}
	return nil
}

func verifyExternalSources(externalRoot string, inputs []domain.Artifact) error {
	for _, a := range inputs {
		if !a.IsExternal() {
			continue
		}
		src := filepath.Join(externalRoot, a.Subpath.String())
		if _, err := os.Lstat(src); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrMissingSource, "source does not exist"), "path", src)
		}
	}
	return nil
}

func (m *Materializer) materializeBuilt(
	_ context.Context,
	sandboxDir string,
	input domain.Artifact,
	resolve func(domain.Source) (string, error),
) error {
	srcRoot, err := resolve(input.Source)
	if err != nil {
		return err
	}

	src := filepath.Join(srcRoot, input.Subpath.String())
	dest := filepath.Join(sandboxDir, input.PathIn())

	if _, statErr := os.Lstat(src); statErr != nil {
		return zerr.With(zerr.Wrap(domain.ErrMissingSource, "source does not exist"), "path", src)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create parent directory"), "path", dest)
	}

	rel, err := filepath.Rel(filepath.Dir(dest), src)
	if err != nil {
		rel = src
	}

	if err := os.Symlink(rel, dest); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to symlink input"), "path", dest)
	}

	return nil
}
