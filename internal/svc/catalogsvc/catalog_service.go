package catalogsvc

import (
	"context"

	"github.com/mkrupp/homecase-catalog/internal/domain"
)

// CatalogService defines the interface for managing the ordered entry collection.
// Every mutation is written through to durable storage before it becomes visible.
type CatalogService interface {
	// Create validates draft, assigns a fresh id and appends the entry.
	// Returns an error wrapping domain.ErrValidation if the title is blank or the type unknown.
	Create(ctx context.Context, draft domain.EntryDraft) (domain.Entry, error)

	// Update replaces every field but the id of the matching entry, keeping its position.
	// Returns false and writes nothing if no entry has that id.
	Update(ctx context.Context, id domain.EntryID, draft domain.EntryDraft) (bool, error)

	// Delete removes the matching entry.
	// Returns false and writes nothing if no entry has that id.
	Delete(ctx context.Context, id domain.EntryID) (bool, error)

	// Get returns the entry with the given id, or domain.ErrEntryNotFound.
	Get(ctx context.Context, id domain.EntryID) (domain.Entry, error)

	// List returns a copy of the collection in insertion order.
	List(ctx context.Context) []domain.Entry
}
