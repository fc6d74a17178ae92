package shell

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/qpm/internal/adapters/logger"
	"go.trai.ch/qpm/internal/core/ports"
	"golang.org/x/term"
)

// NodeID is the unique identifier for the script runner Graft node.
const NodeID graft.ID = "adapter.script_runner"

func init() {
	graft.Register(graft.Node[ports.ScriptRunner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ScriptRunner, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewRunner(log, WithPTY(term.IsTerminal(int(os.Stdout.Fd())))), nil //nolint:gosec // fd fits in int
		},
	})
}
