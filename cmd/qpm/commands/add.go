package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <packages...>",
		Short: "Install packages and record them in package.json",
		Long: "Install packages and their dependencies into ./node_modules.\n" +
			"A package is given as name, name@version or @scope/name@version.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Add(cmd.Context(), ".", args)
		},
	}
}

func (c *CLI) newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "install",
		Aliases: []string{"i"},
		Short:   "Install every dependency declared in package.json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Install(cmd.Context(), ".")
		},
	}
}
