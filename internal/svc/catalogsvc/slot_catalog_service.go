package catalogsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mkrupp/homecase-catalog/internal/domain"
	"github.com/mkrupp/homecase-catalog/internal/infra/logging"
	"github.com/mkrupp/homecase-catalog/internal/repo/slot"
)

// ErrCorruptEntries is returned by a strict load when the entries slot holds invalid records.
var ErrCorruptEntries = errors.New("corrupt entries")

// Clock returns the current time. Entry ids are derived from it.
type Clock func() time.Time

// Option configures a SlotCatalogService.
type Option func(*SlotCatalogService)

// WithClock replaces the wall clock used for id assignment.
func WithClock(clock Clock) Option {
	return func(s *SlotCatalogService) {
		s.clock = clock
	}
}

// SlotCatalogService implements CatalogService on top of the entries slot.
// The slot is read once, when the service is created; afterwards the in-memory
// collection is authoritative and every mutation rewrites the whole slot.
type SlotCatalogService struct {
	store   slot.Repository
	cfg     CatalogConfig
	clock   Clock
	log     logging.Logger
	entries []domain.Entry
	m       sync.Mutex
}

var _ CatalogService = (*SlotCatalogService)(nil)

// NewSlotCatalogService loads the entries slot from store and returns the service.
// An absent slot yields an empty catalog.
func NewSlotCatalogService(
	ctx context.Context,
	store slot.Repository,
	cfg CatalogConfig,
	opts ...Option,
) (_ *SlotCatalogService, err error) {
	svc := &SlotCatalogService{
		store: store,
		cfg:   cfg,
		clock: time.Now,
		log:   logging.GetLogger("svc.catalogsvc.slot_catalog_service"),
	}

	for _, opt := range opts {
		opt(svc)
	}

	defer func() {
		if err != nil {
			svc.log.ErrorContext(ctx, "catalog load failed", "error", err)
		} else {
			svc.log.DebugContext(ctx, "catalog loaded", "count", len(svc.entries))
		}
	}()

	entries, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}

	svc.entries = entries

	return svc, nil
}

func (s *SlotCatalogService) load(ctx context.Context) ([]domain.Entry, error) {
	text, ok, err := s.store.Load(ctx, domain.SlotEntries)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	if !ok || strings.TrimSpace(text) == "" {
		return []domain.Entry{}, nil
	}

	var stored []domain.Entry
	if err := json.Unmarshal([]byte(text), &stored); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	entries := make([]domain.Entry, 0, len(stored))
	seen := make(map[domain.EntryID]struct{}, len(stored))

	for idx, entry := range stored {
		var reason string

		if strings.TrimSpace(entry.Title) == "" {
			reason = "blank title"
		} else if _, dup := seen[entry.ID]; dup {
			reason = "duplicate id"
		}

		if reason != "" {
			if s.cfg.StrictLoad {
				return nil, fmt.Errorf("%w: entry %d (id %s): %s", ErrCorruptEntries, idx, entry.ID, reason)
			}

			s.log.WarnContext(ctx, "skipping stored entry", "index", idx, "id", entry.ID, "reason", reason)

			continue
		}

		seen[entry.ID] = struct{}{}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Create implements CatalogService.Create.
func (s *SlotCatalogService) Create(ctx context.Context, draft domain.EntryDraft) (entry domain.Entry, err error) {
	defer func() {
		log := s.log.With(logging.Group("entry", "id", entry.ID, "title", draft.Title))
		if err != nil {
			log.ErrorContext(ctx, "entry create failed", "error", err)
		} else {
			log.DebugContext(ctx, "entry created")
		}
	}()

	draft, err = draft.Normalize()
	if err != nil {
		return domain.Entry{}, fmt.Errorf("normalize draft: %w", err)
	}

	s.m.Lock()
	defer s.m.Unlock()

	created := domain.NewEntry(s.nextID(), draft)

	candidate := make([]domain.Entry, 0, len(s.entries)+1)
	candidate = append(candidate, s.entries...)
	candidate = append(candidate, created)

	if err := s.persist(ctx, candidate); err != nil {
		return domain.Entry{}, err
	}

	s.entries = candidate

	return created, nil
}

// Update implements CatalogService.Update.
func (s *SlotCatalogService) Update(
	ctx context.Context,
	id domain.EntryID,
	draft domain.EntryDraft,
) (found bool, err error) {
	log := s.log.With(logging.Group("entry", "id", id, "title", draft.Title))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "entry update failed", "error", err)
		} else {
			log.DebugContext(ctx, "entry updated", "found", found)
		}
	}()

	draft, err = draft.Normalize()
	if err != nil {
		return false, fmt.Errorf("normalize draft: %w", err)
	}

	s.m.Lock()
	defer s.m.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	candidate := slices.Clone(s.entries)
	candidate[idx] = domain.NewEntry(id, draft)

	if err := s.persist(ctx, candidate); err != nil {
		return false, err
	}

	s.entries = candidate

	return true, nil
}

// Delete implements CatalogService.Delete.
func (s *SlotCatalogService) Delete(ctx context.Context, id domain.EntryID) (found bool, err error) {
	log := s.log.With(logging.Group("entry", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "entry delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "entry deleted", "found", found)
		}
	}()

	s.m.Lock()
	defer s.m.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	candidate := make([]domain.Entry, 0, len(s.entries)-1)
	candidate = append(candidate, s.entries[:idx]...)
	candidate = append(candidate, s.entries[idx+1:]...)

	if err := s.persist(ctx, candidate); err != nil {
		return false, err
	}

	s.entries = candidate

	return true, nil
}

// Get implements CatalogService.Get.
func (s *SlotCatalogService) Get(_ context.Context, id domain.EntryID) (domain.Entry, error) {
	s.m.Lock()
	defer s.m.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Entry{}, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
	}

	return s.entries[idx], nil
}

// List implements CatalogService.List.
func (s *SlotCatalogService) List(_ context.Context) []domain.Entry {
	s.m.Lock()
	defer s.m.Unlock()

	return slices.Clone(s.entries)
}

func (s *SlotCatalogService) indexOf(id domain.EntryID) int {
	return slices.IndexFunc(s.entries, func(e domain.Entry) bool { return e.ID == id })
}

// nextID returns the current time in milliseconds, bumped past the largest id in use.
func (s *SlotCatalogService) nextID() domain.EntryID {
	id := domain.EntryID(s.clock().UnixMilli())

	for _, entry := range s.entries {
		if entry.ID >= id {
			id = entry.ID + 1
		}
	}

	return id
}

func (s *SlotCatalogService) persist(ctx context.Context, entries []domain.Entry) error {
	text, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	if err := s.store.Save(ctx, domain.SlotEntries, string(text)); err != nil {
		return fmt.Errorf("save entries: %w", err)
	}

	return nil
}
