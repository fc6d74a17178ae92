// Package commands implements the CLI commands for the qpm package manager.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/qpm/internal/app"
	"go.trai.ch/qpm/internal/build"
	"go.trai.ch/qpm/internal/core/domain"
)

// ConfigFlag is the persistent flag naming an alternative config file.
const ConfigFlag = "config"

// CLI represents the command line interface for qpm.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Add(ctx context.Context, dir string, inputs []string) error
	Install(ctx context.Context, dir string) error
	Remove(ctx context.Context, dir string, names []string, opts app.RemoveOptions) error
	List(ctx context.Context, dir string) ([]domain.PackageStatus, error)
	CacheEntries(ctx context.Context) ([]string, error)
	Clean(ctx context.Context, opts app.CleanOptions) error
	Init(ctx context.Context, dir string, opts app.InitOptions) (string, error)
	RunScript(ctx context.Context, dir, name string, args []string, stdout, stderr io.Writer) error
	ConfigList() ([]app.Setting, error)
	ConfigGet(key string) (string, error)
	ConfigSet(key, value string) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "qpm",
		Short:         "A fast package manager for npm registries",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().String(ConfigFlag, "", "Path to the config file (default <user config dir>/qpm/config.yaml)")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newAddCmd())
	rootCmd.AddCommand(c.newInstallCmd())
	rootCmd.AddCommand(c.newRemoveCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newInitCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// SetInput sets the input stream read by interactive prompts. Used for testing.
func (c *CLI) SetInput(in io.Reader) {
	c.rootCmd.SetIn(in)
}
