package domain

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// ErrUnknownEntryType is returned when an entry type is neither a movie nor a TV show.
var ErrUnknownEntryType = errors.New("unknown entry type")

// EntryType is the kind of catalog record.
type EntryType string

// Entry types, spelled the way they are persisted.
const (
	EntryTypeMovie  EntryType = "Movie"
	EntryTypeTVShow EntryType = "TV Show"
)

//nolint:gochecknoglobals
var entryTypeAliases = map[string]EntryType{
	"movie":   EntryTypeMovie,
	"film":    EntryTypeMovie,
	"tv show": EntryTypeTVShow,
	"tvshow":  EntryTypeTVShow,
	"tv-show": EntryTypeTVShow,
	"tv":      EntryTypeTVShow,
	"show":    EntryTypeTVShow,
}

// ParseEntryType maps user input to an EntryType. Matching ignores case and
// surrounding whitespace; an empty string selects EntryTypeMovie.
func ParseEntryType(s string) (EntryType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EntryTypeMovie, nil
	}

	entryType, ok := entryTypeAliases[cases.Fold().String(s)]
	if !ok {
		return "", errors.Join(ErrValidation, fmt.Errorf("%w: %q", ErrUnknownEntryType, s))
	}

	return entryType, nil
}

// String returns the persisted spelling of the EntryType.
func (t EntryType) String() string {
	return string(t)
}
