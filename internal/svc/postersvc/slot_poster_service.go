package postersvc

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/image/draw"

	"github.com/mkrupp/homecase-catalog/internal/domain"
	"github.com/mkrupp/homecase-catalog/internal/infra/logging"
	"github.com/mkrupp/homecase-catalog/internal/repo/slot"
	"github.com/mkrupp/homecase-catalog/internal/util/encoding"
)

const (
	cacheSlotPrefix = "poster."
	defaultMaxSize  = 20 << 20
)

// cachedPoster is the JSON form of a rendered thumbnail in the durable store.
type cachedPoster struct {
	MIMEType string `json:"mimeType"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Data     []byte `json:"data"`
}

// SlotPosterService implements PosterService and caches rendered thumbnails
// in the durable store, keyed by a digest of the source bytes and render settings.
type SlotPosterService struct {
	store    slot.Repository
	cfg      PosterConfig
	interpol draw.Interpolator
	log      logging.Logger
}

var _ PosterService = (*SlotPosterService)(nil)

// NewSlotPosterService validates cfg and returns the service. store may be nil
// when cfg.Cache is off.
func NewSlotPosterService(store slot.Repository, cfg PosterConfig) (*SlotPosterService, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, cfg.Width, cfg.Height)
	}

	interpol, err := getInterpolatorByName(cfg.Interpolator)
	if err != nil {
		return nil, fmt.Errorf("get interpolator: %w", err)
	}

	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxSize
	}

	if store == nil {
		cfg.Cache = false
	}

	return &SlotPosterService{
		store:    store,
		cfg:      cfg,
		interpol: interpol,
		log:      logging.GetLogger("svc.postersvc.slot_poster_service"),
	}, nil
}

// Thumbnail implements PosterService.Thumbnail.
func (s *SlotPosterService) Thumbnail(ctx context.Context, entry domain.Entry) (poster domain.Poster, err error) {
	log := s.log.With(logging.Group("poster",
		"entry", entry.ID,
		logging.Group("target", "width", s.cfg.Width, "height", s.cfg.Height),
	))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "poster render failed", "error", err)
		} else {
			log.DebugContext(ctx, "poster rendered", "size", len(poster.Data))
		}
	}()

	if strings.TrimSpace(entry.Image) == "" {
		return domain.Poster{}, domain.ErrNoPoster
	}

	data, err := readSource(entry.Image, s.cfg.MaxSize)
	if err != nil {
		return domain.Poster{}, fmt.Errorf("read source: %w", err)
	}

	key := s.cacheKey(data)

	if s.cfg.Cache {
		if cached, ok := s.loadCached(ctx, key); ok {
			log = log.With(logging.Group("poster", "cached", true))

			return toPoster(entry.ID, cached), nil
		}
	}

	mimeType, err := sniffMIMEType(data)
	if err != nil {
		return domain.Poster{}, fmt.Errorf("sniff type: %w", err)
	}

	rendered, err := renderThumbnail(data, mimeType, s.cfg.Width, s.cfg.Height, s.interpol)
	if err != nil {
		return domain.Poster{}, fmt.Errorf("render thumbnail: %w", err)
	}

	cached := cachedPoster{
		MIMEType: MIMETypePNG,
		Width:    s.cfg.Width,
		Height:   s.cfg.Height,
		Data:     rendered,
	}

	if s.cfg.Cache {
		s.storeCached(ctx, key, cached)
	}

	return toPoster(entry.ID, cached), nil
}

func (s *SlotPosterService) cacheKey(data []byte) domain.SlotKey {
	hash := sha256.New()
	hash.Write(data)
	fmt.Fprintf(hash, "\x00%dx%d\x00%s", s.cfg.Width, s.cfg.Height, strings.ToLower(s.cfg.Interpolator))

	return domain.SlotKey(cacheSlotPrefix + encoding.EncodeCrockfordB32LC(hash.Sum(nil)))
}

func (s *SlotPosterService) loadCached(ctx context.Context, key domain.SlotKey) (cachedPoster, bool) {
	text, ok, err := s.store.Load(ctx, key)
	if err != nil || !ok {
		return cachedPoster{}, false
	}

	var cached cachedPoster
	if err := json.Unmarshal([]byte(text), &cached); err != nil || len(cached.Data) == 0 {
		s.log.WarnContext(ctx, "ignoring unreadable poster cache", "key", key)

		return cachedPoster{}, false
	}

	return cached, true
}

// storeCached writes the cache entry; a failure only costs a re-render later.
func (s *SlotPosterService) storeCached(ctx context.Context, key domain.SlotKey, cached cachedPoster) {
	text, err := json.Marshal(cached)
	if err == nil {
		err = s.store.Save(ctx, key, string(text))
	}

	if err != nil {
		s.log.WarnContext(ctx, "poster cache store failed", "key", key, "error", err)
	}
}

func toPoster(id domain.EntryID, cached cachedPoster) domain.Poster {
	return domain.Poster{
		EntryID:  id,
		MIMEType: cached.MIMEType,
		Width:    cached.Width,
		Height:   cached.Height,
		Data:     cached.Data,
	}
}
