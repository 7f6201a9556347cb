package sandbox

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/core/ports"
)

// NodeID is the unique identifier for the Materializer Graft node.
const NodeID graft.ID = "adapter.sandbox.materializer"

func init() {
	graft.Register(graft.Node[ports.Materializer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Materializer, error) {
			return NewMaterializer(), nil
		},
	})
}
