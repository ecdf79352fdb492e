package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrValidation is returned when a draft or credential fails validation.
	ErrValidation = errors.New("validation error")
	// ErrTitleRequired is returned when an entry draft has a blank title.
	ErrTitleRequired = errors.New("title is required")
	// ErrEntryNotFound is returned when an entry lookup misses.
	ErrEntryNotFound = errors.New("entry not found")
)

// EntryID identifies an Entry. It is assigned once on create and never changes.
type EntryID int64

// String returns the decimal representation of the EntryID.
func (id EntryID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseEntryID parses a decimal entry id.
func ParseEntryID(s string) (EntryID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Join(ErrValidation, fmt.Errorf("parse entry id %q: %w", s, err))
	}

	return EntryID(id), nil
}

// EntryDraft carries every user-editable field of an Entry.
type EntryDraft struct {
	Title    string    `json:"title"    yaml:"title"`
	Type     EntryType `json:"type"     yaml:"type"`
	Director string    `json:"director" yaml:"director"`
	Budget   string    `json:"budget"   yaml:"budget"`
	Location string    `json:"location" yaml:"location"`
	Duration string    `json:"duration" yaml:"duration"`
	Year     string    `json:"year"     yaml:"year"`
	Image    string    `json:"image"    yaml:"image"` // Optional poster URI
}

// Entry is one catalog record.
type Entry struct {
	ID         EntryID `json:"id" yaml:"id"`
	EntryDraft `yaml:",inline"`
}

// NewEntry combines an id and a draft into an Entry.
func NewEntry(id EntryID, draft EntryDraft) Entry {
	return Entry{ID: id, EntryDraft: draft}
}

// Draft returns the editable fields of the entry.
func (e Entry) Draft() EntryDraft {
	return e.EntryDraft
}

// Normalize validates the draft and returns it with its type canonicalized.
// Text fields are kept as submitted; the title only has to contain something
// other than whitespace.
func (d EntryDraft) Normalize() (EntryDraft, error) {
	if strings.TrimSpace(d.Title) == "" {
		return EntryDraft{}, errors.Join(ErrValidation, ErrTitleRequired)
	}

	entryType, err := ParseEntryType(string(d.Type))
	if err != nil {
		return EntryDraft{}, err
	}

	d.Type = entryType

	return d, nil
}
