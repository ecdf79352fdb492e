package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkrupp/homecase-catalog/internal/app"
	"github.com/mkrupp/homecase-catalog/internal/domain"
)

// ErrConfirmationRequired is returned when a deletion cannot be confirmed interactively.
var ErrConfirmationRequired = errors.New("refusing to delete without --yes when input is not a terminal")

type draftFlag struct {
	name  string
	usage string
	field func(*domain.EntryDraft) *string
}

//nolint:gochecknoglobals
var draftFlags = []draftFlag{
	{"title", "title (required)", func(d *domain.EntryDraft) *string { return &d.Title }},
	{"director", "director", func(d *domain.EntryDraft) *string { return &d.Director }},
	{"budget", "budget", func(d *domain.EntryDraft) *string { return &d.Budget }},
	{"location", "location", func(d *domain.EntryDraft) *string { return &d.Location }},
	{"duration", "duration", func(d *domain.EntryDraft) *string { return &d.Duration }},
	{"year", "year", func(d *domain.EntryDraft) *string { return &d.Year }},
	{"image", "poster image: a file path, file:// or data: URI", func(d *domain.EntryDraft) *string { return &d.Image }},
}

// draftOptions binds one flag per draft field.
type draftOptions struct {
	values    map[string]*string
	entryType string
}

func bindDraftFlags(cmd *cobra.Command) *draftOptions {
	opts := &draftOptions{values: make(map[string]*string, len(draftFlags))}

	for _, flag := range draftFlags {
		opts.values[flag.name] = cmd.Flags().String(flag.name, "", flag.usage)
	}

	cmd.Flags().StringVarP(&opts.entryType, "type", "t", "", `entry type: "Movie" or "TV Show" (default "Movie")`)

	return opts
}

// apply copies the flags that were set on the command line into draft.
func (opts *draftOptions) apply(cmd *cobra.Command, draft *domain.EntryDraft) {
	for _, flag := range draftFlags {
		if cmd.Flags().Changed(flag.name) {
			*flag.field(draft) = *opts.values[flag.name]
		}
	}

	if cmd.Flags().Changed("type") {
		draft.Type = domain.EntryType(opts.entryType)
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var draftOpts *draftOptions

	cmd := &cobra.Command{
		Use:   "add --title <title> [field flags]",
		Short: "Add an entry to the catalog",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var draft domain.EntryDraft
			draftOpts.apply(cmd, &draft)

			entry, err := rootOpts.app.SubmitDraft(cmd.Context(), draft)
			if err != nil {
				return err
			}

			return rootOpts.formatter(cmd).Entry(entry)
		},
	}

	draftOpts = bindDraftFlags(cmd)

	return cmd
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	var draftOpts *draftOptions

	cmd := &cobra.Command{
		Use:   "edit <id> [field flags]",
		Short: "Change fields of an entry",
		Long: `Change fields of an entry. Only the given flags change; every other field
keeps its current value.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseEntryID(args[0])
			if err != nil {
				return err
			}

			draft, err := rootOpts.app.BeginEdit(cmd.Context(), id)
			if err != nil {
				return err
			}

			draftOpts.apply(cmd, &draft)

			entry, err := rootOpts.app.SubmitDraft(cmd.Context(), draft)
			if err != nil {
				return err
			}

			return rootOpts.formatter(cmd).Entry(entry)
		},
	}

	draftOpts = bindDraftFlags(cmd)

	return cmd
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an entry",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseEntryID(args[0])
			if err != nil {
				return err
			}

			if _, err := rootOpts.app.GetEntry(cmd.Context(), id); err != nil {
				return err
			}

			if !yes {
				confirmed, err := rootOpts.confirm(cmd, "Are you sure you want to delete this entry? [y/N] ")
				if err != nil {
					return err
				}

				if !confirmed {
					return rootOpts.formatter(cmd).Message("Cancelled.", map[string]any{"id": id, "deleted": false})
				}
			}

			found, err := rootOpts.app.DeleteEntry(cmd.Context(), id)
			if err != nil {
				return err
			}

			if !found {
				return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
			}

			return rootOpts.formatter(cmd).Message("Deleted entry "+id.String()+".", map[string]any{"id": id, "deleted": true})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")

	return cmd
}

func (opts *RootOptions) confirm(cmd *cobra.Command, question string) (bool, error) {
	if !opts.interactive() {
		return false, commandError(ErrConfirmationRequired)
	}

	answer, err := opts.prompt(cmd, question)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		search string
		more   int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List entries",
		Long: `List entries whose title contains the search text, ignoring case.
The first entries are shown; every --more reveals one more page.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if more < 0 {
				return commandError(fmt.Errorf("--more must not be negative: %d", more))
			}

			rootOpts.app.SetSearchQuery(search)

			for range more {
				rootOpts.app.OnMoreVisible()
			}

			list, err := visibleList(cmd.Context(), rootOpts.app)
			if err != nil {
				return err
			}

			return rootOpts.formatter(cmd).Entries(list)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "only titles containing this text")
	cmd.Flags().IntVarP(&more, "more", "m", 0, "number of additional pages to reveal")

	return cmd
}

func visibleList(ctx context.Context, catalog *app.App) (EntryList, error) {
	entries, err := catalog.ListVisibleEntries(ctx)
	if err != nil {
		return EntryList{}, err
	}

	total, err := catalog.FilteredCount(ctx)
	if err != nil {
		return EntryList{}, err
	}

	hasMore, err := catalog.HasMore(ctx)
	if err != nil {
		return EntryList{}, err
	}

	return EntryList{
		Entries:      entries,
		Query:        catalog.SearchQuery(),
		VisibleCount: catalog.VisibleCount(),
		Total:        total,
		HasMore:      hasMore,
	}, nil
}
