package cas

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/core/ports"
)

const (
	ArtifactStoreNodeID graft.ID = "adapter.cas.artifact_store"
	RuleStoreNodeID     graft.ID = "adapter.cas.rule_store"
)

// storeRoot resolves the `_pier/` directory: PIER_ROOT if set, otherwise
// `_pier` relative to the current working directory. Resolved once inside
// the node's Run closure, per call, rather than cached in a package-level
// variable.
func storeRoot() string {
	if root := os.Getenv("PIER_ROOT"); root != "" {
		return root
	}
	return "_pier"
}

func init() {
	graft.Register(graft.Node[ports.ArtifactStore]{
		ID:        ArtifactStoreNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ArtifactStore, error) {
			root := storeRoot()
			return NewArtifactStore(filepath.Join(root, "artifact"), os.Getenv("PIER_SHARED_CACHE"))
		},
	})

	graft.Register(graft.Node[ports.RuleStore]{
		ID:        RuleStoreNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RuleStore, error) {
			root := storeRoot()
			return NewRuleStore(filepath.Join(root, "cache", "rules.cbor.lz4"))
		},
	})
}
