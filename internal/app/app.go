// Package app is the public facade of the artifact engine: RunCommand,
// WriteArtifact, CallArtifact, ReadArtifact, and matchArtifactGlob.
package app

import (
	"context"

	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/bob/internal/engine/pipeline"
	"go.trai.ch/bob/internal/engine/rules"
	"go.trai.ch/zerr"
)

// App wires together the rule registry and the adapters needed for the
// engine's one-shot operations (WriteArtifact, CallArtifact, ReadArtifact,
// matchArtifactGlob).
type App struct {
	registry      *rules.Registry
	artifactStore ports.ArtifactStore
	materializer  ports.Materializer
	executor      ports.Executor
	resolver      ports.InputResolver
	telemetry     ports.Telemetry

	externalRoot string
	tempRoot     string
	handleTemps  pipeline.TempPolicy
}

// New creates an App.
func New(
	registry *rules.Registry,
	artifactStore ports.ArtifactStore,
	materializer ports.Materializer,
	executor ports.Executor,
	resolver ports.InputResolver,
	telemetry ports.Telemetry,
	externalRoot, tempRoot string,
	handleTemps pipeline.TempPolicy,
) *App {
	return &App{
		registry:      registry,
		artifactStore: artifactStore,
		materializer:  materializer,
		executor:      executor,
		resolver:      resolver,
		telemetry:     telemetry,
		externalRoot:  externalRoot,
		tempRoot:      tempRoot,
		handleTemps:   handleTemps,
	}
}

// Close flushes the persistent rule cache and closes the telemetry
// recording session. Callers should defer this once, after the App is fully
// built, so the CBOR+LZ4 memoization cache and the progrock tape are both
// written out before the process exits.
func (a *App) Close() error {
	ruleErr := a.registry.Close()
	telemetryErr := a.telemetry.Close()
	if ruleErr != nil {
		return zerr.Wrap(ruleErr, "failed to close rule registry")
	}
	if telemetryErr != nil {
		return zerr.Wrap(telemetryErr, "failed to close telemetry")
	}
	return nil
}

// ArtifactRoot resolves the real filesystem directory an Artifact's source
// refers to: the project root for External, the frozen result directory for
// Built.
func (a *App) ArtifactRoot(source domain.Source) (string, error) {
	if source.Kind() == domain.SourceExternal {
		return a.externalRoot, nil
	}
	dir, published, err := a.artifactStore.Acquire(source.Hash())
	if err != nil {
		return "", err
	}
	if !published {
		return "", zerr.With(domain.ErrMissingSource, "hash", source.Hash().String())
	}
	return dir, nil
}

// RunCommand evaluates a Command against a declared Output, returning the
// reconstructed typed value. On cache hit, the registry's pipeline never
// runs. Go methods cannot carry their own type parameters, so this is a free
// function rather than a method on App.
func RunCommand[T any](ctx context.Context, a *App, cmd domain.Command, out domain.Output[T]) (T, error) {
	q := domain.NewCommandQ(cmd, out.Paths)
	hash, err := a.registry.Resolve(ctx, q)
	if err != nil {
		var zero T
		return zero, err
	}
	return out.Reconstruct(hash), nil
}
