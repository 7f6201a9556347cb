package app

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// CallArtifact executes bin with args outside the memoizer: a one-shot temp
// sandbox is populated with inputs (bin included), bin is invoked at its
// materialized sandbox path with cwd set to the sandbox root, and the
// sandbox is torn down on return per the configured temp retention policy.
// Unlike RunCommand, nothing here is cached or recorded in the rule store.
func (a *App) CallArtifact(ctx context.Context, bin domain.Artifact, inputs []domain.Artifact, args []string, stdout, stderr io.Writer) error {
	sandboxDir := filepath.Join(a.tempRoot, uuid.NewString())
	if err := os.MkdirAll(sandboxDir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create call sandbox"), "path", sandboxDir)
	}
	defer func() {
		if a.handleTemps == pipeline.DeleteTemps {
			_ = os.RemoveAll(sandboxDir)
		}
	}()

	all := make([]domain.Artifact, 0, len(inputs)+1)
	all = append(all, inputs...)
	all = append(all, bin)

	resolve := func(src domain.Source) (string, error) {
		if src.Kind() == domain.SourceExternal {
			return a.externalRoot, nil
		}
		dir, published, err := a.artifactStore.Acquire(src.Hash())
		if err != nil {
			return "", err
		}
		if !published {
			return "", zerr.With(domain.ErrMissingSource, "hash", src.Hash().String())
		}
		return dir, nil
	}

	if err := a.materializer.MaterializeInputs(ctx, sandboxDir, a.externalRoot, all, resolve); err != nil {
		return err
	}

	binPath := filepath.Join(sandboxDir, bin.PathIn())

	vertexCtx, vertex := a.telemetry.Record(ctx, "callArtifact: "+bin.Subpath.String())
	var runErr error
	defer func() { vertex.Complete(runErr) }()

	runErr = a.executor.Run(vertexCtx, binPath, args, sandboxDir, []string{"PATH=/usr/bin:/bin", "LANG=en_US.UTF-8"}, stdout, stderr)
	return runErr
}
