package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=script.go -destination=mocks/mock_script.go -package=mocks

// ScriptRunner executes package.json scripts.
type ScriptRunner interface {
	// Run executes script in dir through the shell, appending args.
	Run(ctx context.Context, dir, script string, args []string, stdout, stderr io.Writer) error
}
