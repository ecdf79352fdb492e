package postersvc

import (
	"context"

	"github.com/mkrupp/homecase-catalog/internal/domain"
)

// PosterService renders the thumbnails shown next to catalog entries.
type PosterService interface {
	// Thumbnail renders the entry's image as a cover-cropped PNG of the configured size.
	// Returns domain.ErrNoPoster if the entry has no image.
	Thumbnail(ctx context.Context, entry domain.Entry) (domain.Poster, error)
}
