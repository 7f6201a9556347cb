package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/adapters/cas"               //nolint:depguard // Wired in app layer
	"go.trai.ch/bob/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/bob/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/bob/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/bob/internal/adapters/sandbox"            //nolint:depguard // Wired in app layer, graft-registered
	"go.trai.ch/bob/internal/adapters/shell"              //nolint:depguard // Wired in app layer
	"go.trai.ch/bob/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/bob/internal/engine/pipeline"
	"go.trai.ch/bob/internal/engine/rules"
	"go.trai.ch/zerr"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// pierRoot resolves the `_pier/` directory the same way the cas adapter
// does: PIER_ROOT if set, otherwise `_pier` relative to the working directory.
func pierRoot() string {
	if root := os.Getenv("PIER_ROOT"); root != "" {
		return root
	}
	return "_pier"
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.HasherNodeID,
			fs.ResolverNodeID,
			cas.ArtifactStoreNodeID,
			cas.RuleStoreNodeID,
			shell.NodeID,
			progrock.NodeID,
			sandbox.NodeID,
		},
		Run: buildApp,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
		},
		Run: runComponentsNode,
	})
}

func buildApp(ctx context.Context) (*App, error) {
	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}
	artifactStore, err := graft.Dep[ports.ArtifactStore](ctx)
	if err != nil {
		return nil, err
	}
	ruleStore, err := graft.Dep[ports.RuleStore](ctx)
	if err != nil {
		return nil, err
	}
	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}
	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}
	materializer, err := graft.Dep[ports.Materializer](ctx)
	if err != nil {
		return nil, err
	}

	externalRoot, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve project root")
	}
	tempRoot := filepath.Join(pierRoot(), "tmp")
	if err := os.MkdirAll(tempRoot, 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create temp root"), "path", tempRoot)
	}

	verifier := fs.NewVerifier()

	artifactRoot := func(h domain.Hash) (string, error) {
		dir, published, err := artifactStore.Acquire(h)
		if err != nil {
			return "", err
		}
		if !published {
			return "", zerr.With(domain.ErrMissingSource, "hash", h.String())
		}
		return dir, nil
	}

	pl := pipeline.New(materializer, executor, verifier, telemetry, artifactRoot, externalRoot, tempRoot, pipeline.DeleteTemps)
	registry := rules.NewRegistry(hasher, artifactStore, ruleStore, externalRoot, pl.Run)

	return New(registry, artifactStore, materializer, executor, resolver, telemetry, externalRoot, tempRoot, pipeline.DeleteTemps), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	return NewComponents(a, log, loader), nil
}
