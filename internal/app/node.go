package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/qpm/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/qpm/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/qpm/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/qpm/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/qpm/internal/adapters/manifest"  //nolint:depguard // Wired in app layer
	"go.trai.ch/qpm/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/qpm/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/qpm/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/qpm/internal/engine/installer"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			installer.NodeID,
			manifest.NodeID,
			cas.NodeID,
			fs.LinkerNodeID,
			shell.NodeID,
			config.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewComponents(app, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	inst, err := graft.Dep[*installer.Installer](ctx)
	if err != nil {
		return nil, err
	}

	projects, err := graft.Dep[ports.ProjectStore](ctx)
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

	runner, err := graft.Dep[ports.ScriptRunner](ctx)
	if err != nil {
		return nil, err
	}

	settings, err := graft.Dep[ports.SettingsStore](ctx)
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

	return New(inst, projects, cache, linker, runner, settings, log, tracer, recorder), nil
}
