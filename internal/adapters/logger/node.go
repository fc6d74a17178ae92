package logger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/qpm/internal/adapters/config"
	"go.trai.ch/qpm/internal/core/ports"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.Logger, error) {
			store, err := graft.Dep[ports.SettingsStore](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := store.Load()
			if err != nil {
				return nil, err
			}
			return New(
				WithJSON(settings.LogFormat == "json"),
				WithLevel(settings.LogLevel),
			), nil
		},
	})
}
