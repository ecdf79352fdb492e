package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/mkrupp/homecase-catalog/internal/domain"
	"github.com/mkrupp/homecase-catalog/internal/infra/logging"
	"github.com/mkrupp/homecase-catalog/internal/repo/slot"
	"github.com/mkrupp/homecase-catalog/internal/svc/authsvc"
	"github.com/mkrupp/homecase-catalog/internal/svc/catalogsvc"
	"github.com/mkrupp/homecase-catalog/internal/svc/disclosuresvc"
	"github.com/mkrupp/homecase-catalog/internal/svc/postersvc"
)

// Option configures an App.
type Option func(*options)

type options struct {
	catalogOpts []catalogsvc.Option
}

// WithClock sets the clock used to assign entry ids.
func WithClock(clock catalogsvc.Clock) Option {
	return func(o *options) {
		o.catalogOpts = append(o.catalogOpts, catalogsvc.WithClock(clock))
	}
}

// App is the command and query surface used by a presentation layer.
// It gates catalog access on the session and chains
// catalog, search filter and disclosure window for the visible result.
type App struct {
	auth       *authsvc.AuthService
	catalog    catalogsvc.CatalogService
	posters    postersvc.PosterService
	signal     *disclosuresvc.Broadcaster
	disclosure *disclosuresvc.Controller
	cfg        AppConfig
	log        logging.Logger

	query     string
	editingID domain.EntryID
	editing   bool
	m         sync.Mutex
}

// New builds the services on top of store, restores a persisted session and
// loads the catalog. The store stays owned by the caller.
func New(ctx context.Context, store slot.Repository, cfg AppConfig, opts ...Option) (_ *App, err error) {
	log := logging.GetLogger("app")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "app init failed", "error", err)
		} else {
			log.DebugContext(ctx, "app initialized")
		}
	}()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	auth, err := authsvc.NewAuthService(store, cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("new auth service: %w", err)
	}

	if _, _, err := auth.RestoreSession(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	catalog, err := catalogsvc.NewSlotCatalogService(ctx, store, cfg.Catalog, o.catalogOpts...)
	if err != nil {
		return nil, fmt.Errorf("new catalog service: %w", err)
	}

	posters, err := postersvc.NewSlotPosterService(store, cfg.Poster)
	if err != nil {
		return nil, fmt.Errorf("new poster service: %w", err)
	}

	signal := disclosuresvc.NewBroadcaster()

	disclosure, err := disclosuresvc.NewController(signal, cfg.Disclosure)
	if err != nil {
		return nil, fmt.Errorf("new disclosure controller: %w", err)
	}

	return &App{
		auth:       auth,
		catalog:    catalog,
		posters:    posters,
		signal:     signal,
		disclosure: disclosure,
		cfg:        cfg,
		log:        log,
	}, nil
}

// Close releases the disclosure subscription.
func (a *App) Close() error {
	a.disclosure.Close()

	return nil
}

// SignUp registers a user. The session is not changed.
func (a *App) SignUp(ctx context.Context, username, password string) error {
	if err := a.auth.SignUp(ctx, username, password); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}

	return nil
}

// LogIn starts a session.
func (a *App) LogIn(ctx context.Context, username, password string) error {
	if err := a.auth.LogIn(ctx, username, password); err != nil {
		return fmt.Errorf("log in: %w", err)
	}

	return nil
}

// LogOut ends the session and leaves edit mode.
func (a *App) LogOut(ctx context.Context) error {
	if err := a.auth.LogOut(ctx); err != nil {
		return fmt.Errorf("log out: %w", err)
	}

	a.CancelEdit()

	return nil
}

// CurrentSession returns the logged-in username.
func (a *App) CurrentSession() (string, bool) {
	return a.auth.CurrentSession()
}

func (a *App) requireSession() error {
	if _, ok := a.auth.CurrentSession(); !ok {
		return domain.ErrUnauthorized
	}

	return nil
}

// CreateEntry adds an entry to the catalog.
func (a *App) CreateEntry(ctx context.Context, draft domain.EntryDraft) (domain.Entry, error) {
	if err := a.requireSession(); err != nil {
		return domain.Entry{}, err
	}

	entry, err := a.catalog.Create(ctx, draft)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	return entry, nil
}

// UpdateEntry replaces the fields of entry id. Returns false if no such entry exists.
func (a *App) UpdateEntry(ctx context.Context, id domain.EntryID, draft domain.EntryDraft) (bool, error) {
	if err := a.requireSession(); err != nil {
		return false, err
	}

	found, err := a.catalog.Update(ctx, id, draft)
	if err != nil {
		return false, fmt.Errorf("update entry: %w", err)
	}

	return found, nil
}

// DeleteEntry removes entry id. Returns false if no such entry exists.
// Confirmation is up to the caller.
func (a *App) DeleteEntry(ctx context.Context, id domain.EntryID) (bool, error) {
	if err := a.requireSession(); err != nil {
		return false, err
	}

	found, err := a.catalog.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}

	a.m.Lock()
	if a.editing && a.editingID == id {
		a.editing = false
	}
	a.m.Unlock()

	return found, nil
}

// GetEntry returns entry id.
func (a *App) GetEntry(ctx context.Context, id domain.EntryID) (domain.Entry, error) {
	if err := a.requireSession(); err != nil {
		return domain.Entry{}, err
	}

	entry, err := a.catalog.Get(ctx, id)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("get entry: %w", err)
	}

	return entry, nil
}

// BeginEdit switches to edit mode for entry id and returns its current fields
// to prefill the form.
func (a *App) BeginEdit(ctx context.Context, id domain.EntryID) (domain.EntryDraft, error) {
	entry, err := a.GetEntry(ctx, id)
	if err != nil {
		return domain.EntryDraft{}, err
	}

	a.m.Lock()
	defer a.m.Unlock()

	a.editingID = id
	a.editing = true

	return entry.Draft(), nil
}

// CancelEdit leaves edit mode; the next SubmitDraft creates an entry.
func (a *App) CancelEdit() {
	a.m.Lock()
	defer a.m.Unlock()

	a.editing = false
}

// Editing returns the id of the entry being edited.
func (a *App) Editing() (domain.EntryID, bool) {
	a.m.Lock()
	defer a.m.Unlock()

	return a.editingID, a.editing
}

// SubmitDraft updates the entry in edit mode, or creates a new entry otherwise.
// A successful update leaves edit mode.
func (a *App) SubmitDraft(ctx context.Context, draft domain.EntryDraft) (domain.Entry, error) {
	id, editing := a.Editing()
	if !editing {
		return a.CreateEntry(ctx, draft)
	}

	found, err := a.UpdateEntry(ctx, id, draft)
	if err != nil {
		return domain.Entry{}, err
	}

	a.CancelEdit()

	if !found {
		return domain.Entry{}, fmt.Errorf("update entry: %w: %s", domain.ErrEntryNotFound, id)
	}

	return a.GetEntry(ctx, id)
}

// SetSearchQuery changes the title filter applied to the visible result.
func (a *App) SetSearchQuery(query string) {
	a.m.Lock()
	changed := a.query != query
	a.query = query
	a.m.Unlock()

	if changed && a.cfg.Disclosure.ResetOnQueryChange {
		a.disclosure.Reset()
	}
}

// SearchQuery returns the current title filter.
func (a *App) SearchQuery() string {
	a.m.Lock()
	defer a.m.Unlock()

	return a.query
}

// OnMoreVisible reports that the end of the visible list was reached.
func (a *App) OnMoreVisible() {
	a.signal.Notify()
}

// Signal returns the visibility signal the disclosure window listens to.
func (a *App) Signal() disclosuresvc.Signal {
	return a.signal
}

// VisibleCount returns the current size of the disclosure window.
func (a *App) VisibleCount() int {
	return a.disclosure.VisibleCount()
}

func (a *App) filtered(ctx context.Context) ([]domain.Entry, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}

	return catalogsvc.Filter(a.catalog.List(ctx), a.SearchQuery()), nil
}

// ListVisibleEntries returns the filtered entries inside the disclosure window.
func (a *App) ListVisibleEntries(ctx context.Context) ([]domain.Entry, error) {
	entries, err := a.filtered(ctx)
	if err != nil {
		return nil, err
	}

	return a.disclosure.VisibleSlice(entries), nil
}

// FilteredCount returns how many entries match the search query.
func (a *App) FilteredCount(ctx context.Context) (int, error) {
	entries, err := a.filtered(ctx)
	if err != nil {
		return 0, err
	}

	return len(entries), nil
}

// HasMore reports whether matching entries exist beyond the disclosure window.
func (a *App) HasMore(ctx context.Context) (bool, error) {
	count, err := a.FilteredCount(ctx)
	if err != nil {
		return false, err
	}

	return a.disclosure.HasMore(count), nil
}

// Poster renders the thumbnail of entry id.
func (a *App) Poster(ctx context.Context, id domain.EntryID) (domain.Poster, error) {
	entry, err := a.GetEntry(ctx, id)
	if err != nil {
		return domain.Poster{}, err
	}

	poster, err := a.posters.Thumbnail(ctx, entry)
	if err != nil {
		return domain.Poster{}, fmt.Errorf("thumbnail: %w", err)
	}

	return poster, nil
}
