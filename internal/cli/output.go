package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/mkrupp/homecase-catalog/internal/domain"
)

// OutputFormatter renders command results as text, JSON or YAML.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// EntryList is the structured form of a listing.
type EntryList struct {
	Entries      []domain.Entry `json:"entries"      yaml:"entries"`
	Query        string         `json:"query"        yaml:"query"`
	VisibleCount int            `json:"visibleCount" yaml:"visibleCount"`
	Total        int            `json:"total"        yaml:"total"`
	HasMore      bool           `json:"hasMore"      yaml:"hasMore"`
}

// Message prints message in text mode, or data in structured modes.
func (f *OutputFormatter) Message(message string, data any) error {
	switch f.Format {
	case "json", "yaml":
		return f.encode(data)
	default:
		_, err := fmt.Fprintln(f.Writer, message)

		return err
	}
}

// Entry prints a single entry.
func (f *OutputFormatter) Entry(entry domain.Entry) error {
	switch f.Format {
	case "json", "yaml":
		return f.encode(entry)
	default:
		_, err := fmt.Fprintln(f.Writer, renderEntries([]domain.Entry{entry}))

		return err
	}
}

// Entries prints a listing with its disclosure state.
func (f *OutputFormatter) Entries(list EntryList) error {
	switch f.Format {
	case "json", "yaml":
		return f.encode(list)
	}

	if len(list.Entries) == 0 {
		_, err := fmt.Fprintln(f.Writer, "No entries.")

		return err
	}

	var out strings.Builder

	out.WriteString(renderEntries(list.Entries))
	out.WriteString("\n")
	fmt.Fprintf(&out, "Showing %d of %d", len(list.Entries), list.Total)

	if list.Query != "" {
		fmt.Fprintf(&out, " matching %q", list.Query)
	}

	if list.HasMore {
		out.WriteString(", more available")
	}

	_, err := fmt.Fprintln(f.Writer, out.String())

	return err
}

func (f *OutputFormatter) encode(data any) error {
	if f.Format == "yaml" {
		encoder := yaml.NewEncoder(f.Writer)
		encoder.SetIndent(2)

		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return encoder.Close()
	}

	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func renderEntries(entries []domain.Entry) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Title", "Type", "Director", "Budget", "Location", "Duration", "Year", "Poster"})

	for _, entry := range entries {
		poster := "N/A"
		if strings.TrimSpace(entry.Image) != "" {
			poster = "yes"
		}

		tw.AppendRow(table.Row{
			entry.ID.String(),
			entry.Title,
			entry.Type.String(),
			entry.Director,
			entry.Budget,
			entry.Location,
			entry.Duration,
			entry.Year,
			poster,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
