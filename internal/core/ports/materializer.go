package ports

import (
	"context"

	"go.trai.ch/bob/internal/core/domain"
)

// Materializer lays out a Command's inputs and shadow steps inside a sandbox
// directory as symlinks, and replicates artifact trees recursively.
//
// An External artifact declared as a Command input is registered as a build
// dependency through this path alone: it becomes part of the CommandQ that
// gets hashed, so a changed external file changes the hash and invalidates
// the cache. Reads that go around a Command — app.ReadArtifactBytes and
// app.DoesArtifactExist against an External artifact — have no equivalent
// registration; they read the project tree directly and leave any resulting
// invalidation to the caller.
//
//go:generate go run go.uber.org/mock/mockgen -source=materializer.go -destination=mocks/mock_materializer.go -package=mocks
type Materializer interface {
	// MaterializeInputs lays every input artifact out in sandboxDir at its
	// PathIn location: each Built artifact gets a symlink to the path resolve
	// returns for it, and External artifacts are reached through a single
	// artifact/external link to externalRoot. It returns
	// ErrInputCollision if two distinct artifacts claim the same path.
	MaterializeInputs(ctx context.Context, sandboxDir, externalRoot string, inputs []domain.Artifact, resolve func(domain.Source) (string, error)) error

	// Shadow recursively replicates the tree rooted at srcRoot into destDir
	// using relative symlinks for every leaf file, preserving directory
	// structure.
	Shadow(ctx context.Context, srcRoot, destDir string) error
}
