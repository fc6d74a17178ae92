package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/qpm/internal/app"
	"go.trai.ch/qpm/internal/ui/style"
)

func (c *CLI) newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a package.json in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := app.DefaultInitOptions(".")

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				var err error
				opts, err = promptInitOptions(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
				if err != nil {
					return err
				}
			}

			path, err := c.app.Init(cmd.Context(), ".", opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", style.Success.Render(style.Check), path)
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Accept every default without prompting")
	return cmd
}

// promptInitOptions asks for each field, keeping the default on an empty answer.
func promptInitOptions(in io.Reader, out io.Writer, defaults app.InitOptions) (app.InitOptions, error) {
	scanner := bufio.NewScanner(in)
	opts := defaults

	fields := []struct {
		label string
		value *string
	}{
		{"package name", &opts.Name},
		{"version", &opts.Version},
		{"description", &opts.Description},
		{"entry point", &opts.Main},
		{"author", &opts.Author},
		{"license", &opts.License},
	}

	for _, f := range fields {
		if *f.value != "" {
			_, _ = fmt.Fprintf(out, "%s %s ", f.label+":", style.Muted.Render("("+*f.value+")"))
		} else {
			_, _ = fmt.Fprintf(out, "%s ", f.label+":")
		}
		if !scanner.Scan() {
			break
		}
		if answer := strings.TrimSpace(scanner.Text()); answer != "" {
			*f.value = answer
		}
	}
	_, _ = fmt.Fprintln(out)

	return opts, scanner.Err()
}
