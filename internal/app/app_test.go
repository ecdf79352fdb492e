package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-catalog/internal/app"
	"github.com/mkrupp/homecase-catalog/internal/domain"
	"github.com/mkrupp/homecase-catalog/internal/repo/slot"
	"github.com/mkrupp/homecase-catalog/internal/svc/authsvc"
	"github.com/mkrupp/homecase-catalog/internal/svc/disclosuresvc"
	"github.com/mkrupp/homecase-catalog/internal/svc/postersvc"
)

// 2026-01-01T00:00:00Z
const fixedMillis = 1767225600000

func testConfig() app.AppConfig {
	return app.AppConfig{
		Auth:       authsvc.AuthConfig{PasswordScheme: authsvc.PasswordSchemePlain},
		Disclosure: disclosuresvc.DisclosureConfig{InitialCount: 5, Step: 5},
		Poster: postersvc.PosterConfig{
			Width:        64,
			Height:       64,
			Interpolator: "catmullrom",
			MaxSize:      1 << 20,
		},
	}
}

func newTestApp(t *testing.T, store slot.Repository, cfg app.AppConfig) *app.App {
	t.Helper()

	a, err := app.New(context.Background(), store, cfg,
		app.WithClock(func() time.Time { return time.UnixMilli(fixedMillis) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return a
}

func loggedInApp(t *testing.T, store slot.Repository, cfg app.AppConfig) *app.App {
	t.Helper()

	ctx := context.Background()
	a := newTestApp(t, store, cfg)

	require.NoError(t, a.SignUp(ctx, "alice", "s3cret"))
	require.NoError(t, a.LogIn(ctx, "alice", "s3cret"))

	return a
}

// snapshot renders every slot as indented JSON, keys sorted.
func snapshot(t *testing.T, store *slot.MemorySlotRepository) []byte {
	t.Helper()

	slots := make(map[string]json.RawMessage)
	for key, text := range store.Snapshot() {
		slots[string(key)] = json.RawMessage(text)
	}

	data, err := json.MarshalIndent(slots, "", "  ")
	require.NoError(t, err)

	return append(data, '\n')
}

func TestScenario_PersistedSlots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := slot.NewMemorySlotRepository()
	a := loggedInApp(t, store, testConfig())

	dune, err := a.CreateEntry(ctx, domain.EntryDraft{Title: "Dune", Director: "Denis Villeneuve", Year: "2021"})
	require.NoError(t, err)
	office, err := a.CreateEntry(ctx, domain.EntryDraft{Title: "The Office", Type: "TV Show", Location: "Scranton"})
	require.NoError(t, err)
	heat, err := a.CreateEntry(ctx, domain.EntryDraft{Title: "Heat"})
	require.NoError(t, err)

	draft, err := a.BeginEdit(ctx, heat.ID)
	require.NoError(t, err)

	draft.Director = "Michael Mann"
	draft.Year = "1995"

	updated, err := a.SubmitDraft(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, heat.ID, updated.ID)

	_, editing := a.Editing()
	assert.False(t, editing, "successful submit leaves edit mode")

	found, err := a.DeleteEntry(ctx, office.ID)
	require.NoError(t, err)
	assert.True(t, found)

	visible, err := a.ListVisibleEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.EntryID{dune.ID, heat.ID}, []domain.EntryID{visible[0].ID, visible[1].ID})

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "scenario_slots", snapshot(t, store))
}

func TestScenario_SessionSurvivesRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := slot.NewMemorySlotRepository()

	first := loggedInApp(t, store, testConfig())

	_, err := first.CreateEntry(ctx, domain.EntryDraft{Title: "Dune"})
	require.NoError(t, err)

	second := newTestApp(t, store, testConfig())

	username, ok := second.CurrentSession()
	assert.True(t, ok)
	assert.Equal(t, "alice", username)

	entries, err := second.ListVisibleEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Dune", entries[0].Title)

	require.NoError(t, second.LogOut(ctx))

	third := newTestApp(t, store, testConfig())

	_, ok = third.CurrentSession()
	assert.False(t, ok)

	_, err = third.ListVisibleEntries(ctx)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCatalogRequiresSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := newTestApp(t, slot.NewMemorySlotRepository(), testConfig())

	_, err := a.CreateEntry(ctx, domain.EntryDraft{Title: "Dune"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = a.UpdateEntry(ctx, 1, domain.EntryDraft{Title: "Dune"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = a.DeleteEntry(ctx, 1)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = a.BeginEdit(ctx, 1)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = a.Poster(ctx, 1)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Equal(t, "Please login first!", domain.UserMessage(err))
}

func TestSearchAndDisclosure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := loggedInApp(t, slot.NewMemorySlotRepository(), testConfig())

	for i := range 12 {
		title := fmt.Sprintf("Movie %02d", i+1)
		if i%3 == 0 {
			title = fmt.Sprintf("Star Trek %02d", i+1)
		}

		_, err := a.CreateEntry(ctx, domain.EntryDraft{Title: title})
		require.NoError(t, err)
	}

	visible, err := a.ListVisibleEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, visible, 5)

	more, err := a.HasMore(ctx)
	require.NoError(t, err)
	assert.True(t, more)

	a.OnMoreVisible()
	a.OnMoreVisible()

	visible, err = a.ListVisibleEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, visible, 12)
	assert.Equal(t, 15, a.VisibleCount())

	more, err = a.HasMore(ctx)
	require.NoError(t, err)
	assert.False(t, more)

	a.SetSearchQuery("STAR")
	assert.Equal(t, "STAR", a.SearchQuery())

	count, err := a.FilteredCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	visible, err = a.ListVisibleEntries(ctx)
	require.NoError(t, err)
	require.Len(t, visible, 4)
	assert.Equal(t, "Star Trek 01", visible[0].Title)
	assert.Equal(t, "Star Trek 10", visible[3].Title)
	assert.Equal(t, 15, a.VisibleCount(), "window is not reset by a query change")
}

func TestSearchResetsWindowWhenConfigured(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Disclosure.ResetOnQueryChange = true

	a := loggedInApp(t, slot.NewMemorySlotRepository(), cfg)

	a.OnMoreVisible()
	assert.Equal(t, 10, a.VisibleCount())

	a.SetSearchQuery("x")
	assert.Equal(t, 5, a.VisibleCount())

	a.OnMoreVisible()
	a.SetSearchQuery("x")
	assert.Equal(t, 10, a.VisibleCount(), "same query keeps the window")
}

func TestNewRejectsNonGrowingDisclosure(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Disclosure.Step = 0

	_, err := app.New(context.Background(), slot.NewMemorySlotRepository(), cfg)
	require.ErrorIs(t, err, disclosuresvc.ErrInvalidConfig)
}

func TestEditMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := loggedInApp(t, slot.NewMemorySlotRepository(), testConfig())

	entry, err := a.CreateEntry(ctx, domain.EntryDraft{Title: "Alien"})
	require.NoError(t, err)

	_, err = a.BeginEdit(ctx, 999)
	require.ErrorIs(t, err, domain.ErrEntryNotFound)

	_, editing := a.Editing()
	assert.False(t, editing)

	_, err = a.BeginEdit(ctx, entry.ID)
	require.NoError(t, err)

	id, editing := a.Editing()
	assert.True(t, editing)
	assert.Equal(t, entry.ID, id)

	_, err = a.SubmitDraft(ctx, domain.EntryDraft{Title: " "})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, editing = a.Editing()
	assert.True(t, editing, "failed submit stays in edit mode")

	a.CancelEdit()

	created, err := a.SubmitDraft(ctx, domain.EntryDraft{Title: "Aliens"})
	require.NoError(t, err)
	assert.NotEqual(t, entry.ID, created.ID, "submit without edit mode creates")

	_, err = a.BeginEdit(ctx, created.ID)
	require.NoError(t, err)

	_, err = a.DeleteEntry(ctx, created.ID)
	require.NoError(t, err)

	_, editing = a.Editing()
	assert.False(t, editing, "deleting the edited entry leaves edit mode")
}

func TestPoster(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := loggedInApp(t, slot.NewMemorySlotRepository(), testConfig())

	entry, err := a.CreateEntry(ctx, domain.EntryDraft{Title: "Dune"})
	require.NoError(t, err)

	_, err = a.Poster(ctx, entry.ID)
	require.ErrorIs(t, err, domain.ErrNoPoster)
	assert.Equal(t, "N/A", domain.UserMessage(err))
}
