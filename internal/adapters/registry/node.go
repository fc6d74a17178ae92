package registry

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/qpm/internal/adapters/config"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
)

// NodeID is the unique identifier for the registry client Graft node.
const NodeID graft.ID = "adapter.registry"

func init() {
	graft.Register(graft.Node[ports.Registry]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.Registry, error) {
			store, err := graft.Dep[ports.SettingsStore](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := store.Load()
			if err != nil {
				return nil, err
			}
			return NewClient(settings.Registry,
				WithHTTPClient(&http.Client{Timeout: settings.HTTPTimeout}),
				WithMetadataCache(filepath.Join(settings.CacheDir, domain.MetadataDirName)),
			), nil
		},
	})
}
