package logging

import "log/slog"

// NewNopLogger returns a logger that drops every record.
func NewNopLogger() Logger {
	return slog.New(slog.DiscardHandler)
}
