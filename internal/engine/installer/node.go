package installer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/qpm/internal/adapters/archive"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/qpm/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/qpm/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/qpm/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/qpm/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/qpm/internal/adapters/manifest"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/qpm/internal/adapters/metrics"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/qpm/internal/adapters/registry"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/qpm/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/qpm/internal/core/ports"
)

// NodeID is the unique identifier for the installer Graft node.
const NodeID graft.ID = "engine.installer"

func init() {
	graft.Register(graft.Node[*Installer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			registry.NodeID,
			archive.FetcherNodeID,
			archive.ExtractorNodeID,
			cas.NodeID,
			fs.LinkerNodeID,
			manifest.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
		},
		Run: func(ctx context.Context) (*Installer, error) {
			store, err := graft.Dep[ports.SettingsStore](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := store.Load()
			if err != nil {
				return nil, err
			}

			reg, err := graft.Dep[ports.Registry](ctx)
			if err != nil {
				return nil, err
			}

			fetcher, err := graft.Dep[ports.TarballFetcher](ctx)
			if err != nil {
				return nil, err
			}

			extractor, err := graft.Dep[ports.Extractor](ctx)
			if err != nil {
				return nil, err
			}

			cache, err := graft.Dep[ports.PackageCache](ctx)
			if err != nil {
				return nil, err
			}

			linker, err := graft.Dep[ports.Linker](ctx)
			if err != nil {
				return nil, err
			}

			projects, err := graft.Dep[ports.ProjectStore](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			recorder, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}

			return NewInstaller(
				reg,
				fetcher,
				extractor,
				cache,
				linker,
				projects,
				log,
				tracer,
				recorder,
				WithConcurrency(settings.Concurrency),
			), nil
		},
	})
}
