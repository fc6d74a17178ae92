package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/qpm/internal/core/ports"
)

// NodeID is the unique identifier for the settings store Graft node.
const NodeID graft.ID = "adapter.config"

func init() {
	graft.Register(graft.Node[ports.SettingsStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SettingsStore, error) {
			path, err := DefaultPath()
			if err != nil {
				return nil, err
			}
			cacheBase, err := DefaultCacheBase()
			if err != nil {
				return nil, err
			}
			return NewStore(path, cacheBase), nil
		},
	})
}
