package manifest

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/qpm/internal/core/ports"
)

// NodeID is the unique identifier for the project store Graft node.
const NodeID graft.ID = "adapter.manifest"

func init() {
	graft.Register(graft.Node[ports.ProjectStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ProjectStore, error) {
			return NewStore(), nil
		},
	})
}
