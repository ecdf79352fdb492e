package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkrupp/homecase-catalog/internal/domain"
)

// NewPosterCommand creates the poster command.
func NewPosterCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "poster <id> --out <file.png>",
		Short: "Render the thumbnail of an entry's poster",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseEntryID(args[0])
			if err != nil {
				return err
			}

			poster, err := rootOpts.app.Poster(cmd.Context(), id)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(poster.Data)

				return err
			}

			if err := os.WriteFile(out, poster.Data, 0o644); err != nil {
				return fmt.Errorf("write poster: %w", err)
			}

			return rootOpts.formatter(cmd).Message(
				fmt.Sprintf("Wrote %s (%dx%d).", out, poster.Width, poster.Height),
				map[string]any{
					"id":       id,
					"path":     out,
					"mimeType": poster.MIMEType,
					"width":    poster.Width,
					"height":   poster.Height,
				},
			)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", `output file ("-" for stdout)`)
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
