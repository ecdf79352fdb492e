package domain

import (
	"errors"
	"regexp"
)

var (
	// ErrInvalidSlotKey is returned when a slot key contains characters a backend cannot store.
	ErrInvalidSlotKey = errors.New("invalid slot key")
	// ErrStorageFull is returned when the durable store ran out of space.
	ErrStorageFull = errors.New("storage full")
)

// SlotKey names a durable storage slot.
type SlotKey string

// Well-known slots.
const (
	SlotSession SlotKey = "user"
	SlotUsers   SlotKey = "users"
	SlotEntries SlotKey = "entries"
)

var slotKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// String returns the string representation of the SlotKey.
func (key SlotKey) String() string {
	return string(key)
}

// Validate reports ErrInvalidSlotKey unless the key is a non-empty run of
// letters, digits, dots, dashes and underscores.
func (key SlotKey) Validate() error {
	if !slotKeyPattern.MatchString(string(key)) {
		return ErrInvalidSlotKey
	}

	return nil
}
