package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/qpm/internal/app"
)

func (c *CLI) newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <packages...>",
		Aliases: []string{"rm", "uninstall"},
		Short:   "Remove packages from node_modules, package.json and the lockfile",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			purge, _ := cmd.Flags().GetBool("purge")
			return c.app.Remove(cmd.Context(), ".", args, app.RemoveOptions{Purge: purge})
		},
	}
	cmd.Flags().BoolP("purge", "p", false, "Also delete the cached versions of the packages")
	return cmd
}
