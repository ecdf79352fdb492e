package context

import (
	"context"
)

const contextKeyUsername = contextKey("username")

// UsernameFromContext extracts the session username from the context.
// Returns the username and true if present, or empty string and false if not present.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(contextKeyUsername).(string)

	return username, ok && username != ""
}

// WithUsername returns a context carrying the username of the active session.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextKeyUsername, username)
}
