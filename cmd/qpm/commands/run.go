package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script> [args...]",
		Short: "Run a script from package.json",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			return c.app.RunScript(cmd.Context(), ".", args[0], args[1:], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	// Flags after the script name belong to the script.
	cmd.Flags().SetInterspersed(false)
	return cmd
}
