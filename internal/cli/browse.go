package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand(rootOpts *RootOptions) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through entries interactively",
		Long: `Page through entries interactively.

  <enter> or "more"   show more entries
  /text               search titles for text ("/" alone clears the search)
  q                   quit`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := rootOpts.app
			formatter := rootOpts.formatter(cmd)

			catalog.SetSearchQuery(search)

			for {
				list, err := visibleList(cmd.Context(), catalog)
				if err != nil {
					return err
				}

				if err := formatter.Entries(list); err != nil {
					return err
				}

				line, err := rootOpts.prompt(cmd, "> ")
				if errors.Is(err, ErrNoInput) {
					return nil
				}

				if err != nil {
					return err
				}

				switch line = strings.TrimSpace(line); {
				case line == "q" || line == "quit":
					return nil
				case line == "" || line == "more":
					catalog.OnMoreVisible()
				case strings.HasPrefix(line, "/"):
					catalog.SetSearchQuery(strings.TrimPrefix(line, "/"))
				default:
					fmt.Fprintf(cmd.ErrOrStderr(), "unknown input %q: <enter>, /text or q\n", line)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "initial search text")

	return cmd
}
