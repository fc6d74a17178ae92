// Package main is the entry point for the qpm package manager.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/qpm/cmd/qpm/commands"
	"go.trai.ch/qpm/internal/adapters/config"
	"go.trai.ch/qpm/internal/app"
	_ "go.trai.ch/qpm/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stderr io.Writer,
	provider ComponentProvider,
) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The settings node reads the config path from the environment, so the
	// flag has to be applied before the components are built.
	if path, ok := configFlag(args); ok {
		if err := os.Setenv(config.EnvConfigPath, path); err != nil {
			_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
			return 1
		}
	}

	// 1. Initialize application components
	components, cleanup, err := provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		// Write directly to stderr passed in
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	defer cleanup()

	// 2. Interface - CLI
	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	// 3. Execution
	runErr := cli.Execute(ctx)
	closeErr := components.App.Close(context.WithoutCancel(ctx))

	if err := errors.Join(runErr, closeErr); err != nil {
		components.Logger.Error(err)
		return 1
	}
	return 0
}

// configFlag finds --config in args without parsing the command tree.
// Arguments after "--" or after the run command's script belong to the script.
func configFlag(args []string) (string, bool) {
	flag := "--" + commands.ConfigFlag
	for i, arg := range args {
		if arg == "--" || arg == "run" {
			return "", false
		}
		if v, ok := strings.CutPrefix(arg, flag+"="); ok {
			return v, true
		}
		if arg == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}
