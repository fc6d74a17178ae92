package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/ui/style"
)

func (c *CLI) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the install status of declared dependencies",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if cached, _ := cmd.Flags().GetBool("cache"); cached {
				entries, err := c.app.CacheEntries(cmd.Context())
				if err != nil {
					return err
				}
				renderCache(out, entries)
				return nil
			}

			statuses, err := c.app.List(cmd.Context(), ".")
			if err != nil {
				return err
			}
			renderStatuses(out, statuses)
			return nil
		},
	}
	cmd.Flags().BoolP("cache", "c", false, "List the packages in the shared cache instead")
	return cmd
}

func renderStatuses(w io.Writer, statuses []domain.PackageStatus) {
	if len(statuses) == 0 {
		_, _ = fmt.Fprintln(w, style.Muted.Render("no dependencies declared"))
		return
	}

	for _, s := range statuses {
		var icon string
		switch s.Status {
		case domain.StatusInstalled:
			icon = style.Success.Render(style.Check)
		case domain.StatusBroken:
			icon = style.Caution.Render(style.Warning)
		default:
			icon = style.Failure.Render(style.Cross)
		}

		version := s.Version
		if version == "" {
			version = s.Selector
		}
		_, _ = fmt.Fprintf(w, "%s %s %s %s\n",
			icon,
			style.Name.Render(s.Name),
			version,
			style.Muted.Render("("+s.Status.String()+")"),
		)
	}
}

func renderCache(w io.Writer, entries []string) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, style.Muted.Render("cache is empty"))
		return
	}
	for _, e := range entries {
		name, version := domain.SplitEntryName(e)
		_, _ = fmt.Fprintf(w, "%s %s %s\n", style.Muted.Render(style.Dot), style.Name.Render(name), version)
	}
}
