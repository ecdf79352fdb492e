package domain

import "errors"

var (
	// ErrNoPoster is returned when an entry has no image to render.
	ErrNoPoster = errors.New("entry has no poster")
	// ErrPosterSourceUnsupported is returned for image URIs that cannot be read locally.
	ErrPosterSourceUnsupported = errors.New("poster source not supported")
	// ErrPosterTypeNotSupported is returned when the image data is not a known format.
	ErrPosterTypeNotSupported = errors.New("poster type not supported")
	// ErrPosterTooLarge is returned when the poster source exceeds the configured limit.
	ErrPosterTooLarge = errors.New("poster too large")
)

// Poster is a rendered thumbnail of an entry's image.
type Poster struct {
	EntryID  EntryID
	MIMEType string
	Width    int
	Height   int
	Data     []byte
}
