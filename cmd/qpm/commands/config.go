package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/qpm/internal/ui/style"
)

func (c *CLI) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change qpm settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := c.app.ConfigList()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range settings {
				_, _ = fmt.Fprintf(out, "%s = %s\n", style.Name.Render(s.Key), s.Value)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.app.ConfigGet(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a setting to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.ConfigSet(args[0], args[1])
		},
	})

	return cmd
}
