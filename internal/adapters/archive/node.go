package archive

import (
	"context"
	"net/http"

	"github.com/grindlemire/graft"
	"go.trai.ch/qpm/internal/adapters/config"
	"go.trai.ch/qpm/internal/core/ports"
)

const (
	// FetcherNodeID is the unique identifier for the tarball fetcher Graft node.
	FetcherNodeID graft.ID = "adapter.archive.fetcher"
	// ExtractorNodeID is the unique identifier for the tarball extractor Graft node.
	ExtractorNodeID graft.ID = "adapter.archive.extractor"
)

func init() {
	graft.Register(graft.Node[ports.TarballFetcher]{
		ID:        FetcherNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.TarballFetcher, error) {
			store, err := graft.Dep[ports.SettingsStore](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := store.Load()
			if err != nil {
				return nil, err
			}
			return NewFetcher(&http.Client{Timeout: settings.HTTPTimeout}), nil
		},
	})

	graft.Register(graft.Node[ports.Extractor]{
		ID:        ExtractorNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Extractor, error) {
			return NewExtractor(), nil
		},
	})
}
