package postersvc_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-catalog/internal/domain"
	"github.com/mkrupp/homecase-catalog/internal/repo/slot"
	"github.com/mkrupp/homecase-catalog/internal/svc/postersvc"
)

var defaultConfig = postersvc.PosterConfig{
	Width:        64,
	Height:       64,
	Interpolator: "catmullrom",
	MaxSize:      1 << 20,
	Cache:        true,
}

// testPNG returns a width x height PNG, left half red and right half blue.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := range height {
		for x := range width {
			c := color.RGBA{R: 255, A: 255}
			if x >= width/2 {
				c = color.RGBA{B: 255, A: 255}
			}

			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func dataURI(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

func TestThumbnail_Sources(t *testing.T) {
	t.Parallel()

	source := testPNG(t, 200, 100)
	dir := t.TempDir()
	path := filepath.Join(dir, "poster.png")
	require.NoError(t, os.WriteFile(path, source, 0o600))

	tests := []struct {
		name  string
		image string
	}{
		{name: "data uri", image: dataURI(source)},
		{name: "file uri", image: "file://" + filepath.ToSlash(path)},
		{name: "plain path", image: path},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, err := postersvc.NewSlotPosterService(slot.NewMemorySlotRepository(), defaultConfig)
			require.NoError(t, err)

			entry := domain.NewEntry(7, domain.EntryDraft{Title: "Dune", Image: tt.image})

			poster, err := svc.Thumbnail(context.Background(), entry)
			require.NoError(t, err)

			assert.Equal(t, domain.EntryID(7), poster.EntryID)
			assert.Equal(t, postersvc.MIMETypePNG, poster.MIMEType)

			decoded, err := png.Decode(bytes.NewReader(poster.Data))
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 64, 64), decoded.Bounds())

			// cover crop keeps the center, so both halves survive
			r, _, _, _ := decoded.At(4, 32).RGBA()
			_, _, b, _ := decoded.At(60, 32).RGBA()
			assert.Greater(t, r, uint32(0x8000))
			assert.Greater(t, b, uint32(0x8000))
		})
	}
}

func TestThumbnail_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		image   string
		wantErr error
	}{
		{name: "no image", image: "  ", wantErr: domain.ErrNoPoster},
		{name: "remote uri", image: "https://example.com/poster.jpg", wantErr: domain.ErrPosterSourceUnsupported},
		{name: "not an image", image: "data:text/plain,hello", wantErr: domain.ErrPosterTypeNotSupported},
		{name: "too large", image: dataURI(make([]byte, 2<<20)), wantErr: domain.ErrPosterTooLarge},
		{name: "missing file", image: filepath.Join(t.TempDir(), "nope.png"), wantErr: os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, err := postersvc.NewSlotPosterService(slot.NewMemorySlotRepository(), defaultConfig)
			require.NoError(t, err)

			_, err = svc.Thumbnail(context.Background(), domain.NewEntry(1, domain.EntryDraft{Title: "x", Image: tt.image}))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestThumbnail_Cache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := slot.NewMemorySlotRepository()

	svc, err := postersvc.NewSlotPosterService(store, defaultConfig)
	require.NoError(t, err)

	entry := domain.NewEntry(1, domain.EntryDraft{Title: "Dune", Image: dataURI(testPNG(t, 32, 48))})

	first, err := svc.Thumbnail(ctx, entry)
	require.NoError(t, err)

	var cacheKeys []domain.SlotKey

	for key := range store.Snapshot() {
		if strings.HasPrefix(string(key), "poster.") {
			cacheKeys = append(cacheKeys, key)
		}
	}

	require.Len(t, cacheKeys, 1)
	require.NoError(t, cacheKeys[0].Validate())

	second, err := svc.Thumbnail(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, store.Snapshot(), 1)
}

func TestNewSlotPosterService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     postersvc.PosterConfig
		wantErr error
	}{
		{name: "valid", cfg: defaultConfig},
		{
			name:    "unknown interpolator",
			cfg:     postersvc.PosterConfig{Width: 64, Height: 64, Interpolator: "lanczos"},
			wantErr: postersvc.ErrUnknownInterpolator,
		},
		{
			name:    "zero size",
			cfg:     postersvc.PosterConfig{Width: 0, Height: 64, Interpolator: "bilinear"},
			wantErr: postersvc.ErrInvalidSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := postersvc.NewSlotPosterService(nil, tt.cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}
}
