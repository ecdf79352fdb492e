package slot_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-catalog/internal/domain"

	. "github.com/mkrupp/homecase-catalog/internal/repo/slot"
)

type backend struct {
	name string
	open func(t *testing.T, dir string) Repository
}

func backends() []backend {
	return []backend{
		{
			name: DriverMemory,
			open: func(t *testing.T, _ string) Repository {
				t.Helper()

				return NewMemorySlotRepository()
			},
		},
		{
			name: DriverFileSystem,
			open: func(t *testing.T, dir string) Repository {
				t.Helper()

				repo, err := NewFileSystemSlotRepository(context.Background(), FileSystemSlotRepositoryConfig{
					Basedir:     dir,
					LockTimeout: 5,
				})
				require.NoError(t, err)

				return repo
			},
		},
		{
			name: DriverSQLite,
			open: func(t *testing.T, dir string) Repository {
				t.Helper()

				repo, err := NewSQLiteSlotRepository(context.Background(), SQLiteSlotRepositoryConfig{
					DatabasePath: filepath.Join(dir, "catalog.db"),
					BusyTimeout:  5000,
				})
				require.NoError(t, err)

				return repo
			},
		},
	}
}

func TestRepository_Contract(t *testing.T) {
	t.Parallel()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			repo := b.open(t, t.TempDir())
			t.Cleanup(func() { _ = repo.Close() })

			t.Run("absent slot", func(t *testing.T) {
				text, ok, err := repo.Load(ctx, "missing")
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Empty(t, text)
			})

			t.Run("save then load", func(t *testing.T) {
				require.NoError(t, repo.Save(ctx, domain.SlotEntries, `[{"id":1,"title":"Dune"}]`))

				text, ok, err := repo.Load(ctx, domain.SlotEntries)
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, `[{"id":1,"title":"Dune"}]`, text)
			})

			t.Run("save replaces whole value", func(t *testing.T) {
				require.NoError(t, repo.Save(ctx, domain.SlotUsers, `[{"username":"alice","password":"pw1"}]`))
				require.NoError(t, repo.Save(ctx, domain.SlotUsers, `[]`))

				text, ok, err := repo.Load(ctx, domain.SlotUsers)
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, `[]`, text)
			})

			t.Run("empty text is present", func(t *testing.T) {
				require.NoError(t, repo.Save(ctx, "empty", ""))

				text, ok, err := repo.Load(ctx, "empty")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Empty(t, text)
			})

			t.Run("remove is idempotent", func(t *testing.T) {
				require.NoError(t, repo.Save(ctx, domain.SlotSession, `"alice"`))
				require.NoError(t, repo.Remove(ctx, domain.SlotSession))
				require.NoError(t, repo.Remove(ctx, domain.SlotSession))

				_, ok, err := repo.Load(ctx, domain.SlotSession)
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("rejects invalid keys", func(t *testing.T) {
				for _, key := range []domain.SlotKey{"", "../escape", "a/b", "sp ace"} {
					_, _, err := repo.Load(ctx, key)
					require.ErrorIs(t, err, domain.ErrInvalidSlotKey, "load %q", key)
					require.ErrorIs(t, repo.Save(ctx, key, "x"), domain.ErrInvalidSlotKey, "save %q", key)
					require.ErrorIs(t, repo.Remove(ctx, key), domain.ErrInvalidSlotKey, "remove %q", key)
				}
			})
		})
	}
}

func TestRepository_ConcurrentSaves(t *testing.T) {
	t.Parallel()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			repo := b.open(t, t.TempDir())
			t.Cleanup(func() { _ = repo.Close() })

			values := []string{`"a"`, `"bb"`, `"ccc"`, `"dddd"`, `"eeeee"`}

			var wg sync.WaitGroup

			for _, v := range values {
				wg.Add(1)

				go func() {
					defer wg.Done()

					assert.NoError(t, repo.Save(ctx, "race", v))
				}()
			}

			wg.Wait()

			text, ok, err := repo.Load(ctx, "race")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Contains(t, values, text, "value must be one complete write")
		})
	}
}

func TestFileSystemSlotRepository_Layout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileSystemSlotRepository(ctx, FileSystemSlotRepositoryConfig{Basedir: dir})
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, domain.SlotEntries, `[]`))

	filename := repo.GetFilename(domain.SlotEntries)
	assert.Equal(t, filepath.Join(dir, "entries.json"), filename)

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(content))

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files must not be left behind")
}

func TestFileSystemSlotRepository_LockTimeoutDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	repo, err := NewFileSystemSlotRepository(ctx, FileSystemSlotRepositoryConfig{
		Basedir:     t.TempDir(),
		LockTimeout: 0,
	})
	require.NoError(t, err)

	held := flock.New(repo.GetFilename(domain.SlotEntries) + ".lock")
	require.NoError(t, held.Lock())
	t.Cleanup(func() { _ = held.Unlock() })

	start := time.Now()
	err = repo.Save(ctx, domain.SlotEntries, `[]`)

	require.ErrorIs(t, err, ErrLockTimeout)
	assert.Less(t, time.Since(start), 10*time.Second, "a zero timeout still bounds the wait")

	_, err = os.Stat(repo.GetFilename(domain.SlotEntries))
	assert.ErrorIs(t, err, os.ErrNotExist, "nothing is written without the lock")
}

func TestFileSystemSlotRepository_Reopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()
	cfg := FileSystemSlotRepositoryConfig{Basedir: dir}

	first, err := NewFileSystemSlotRepository(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, domain.SlotSession, `"alice"`))
	require.NoError(t, first.Close())

	second, err := NewFileSystemSlotRepository(ctx, cfg)
	require.NoError(t, err)

	text, ok, err := second.Load(ctx, domain.SlotSession)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"alice"`, text)
}

func TestSQLiteSlotRepository_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := SQLiteSlotRepositoryConfig{DatabasePath: filepath.Join(t.TempDir(), "nested", "catalog.db")}

	first, err := NewSQLiteSlotRepository(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, domain.SlotUsers, `[{"username":"bob","password":"x"}]`))
	require.NoError(t, first.Close())

	second, err := NewSQLiteSlotRepository(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	text, ok, err := second.Load(ctx, domain.SlotUsers)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"username":"bob","password":"x"}]`, text)
}

func TestNewRepository(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     RepositoryConfig
		want    any
		wantErr error
	}{
		{
			name: "memory",
			cfg:  RepositoryConfig{Driver: "memory"},
			want: &MemorySlotRepository{},
		},
		{
			name: "filesystem by default",
			cfg: RepositoryConfig{
				FileSystem: FileSystemSlotRepositoryConfig{Basedir: filepath.Join(dir, "fs")},
			},
			want: &FileSystemSlotRepository{},
		},
		{
			name: "sqlite",
			cfg: RepositoryConfig{
				Driver: "SQLite",
				SQLite: SQLiteSlotRepositoryConfig{DatabasePath: filepath.Join(dir, "db", "catalog.db")},
			},
			want: &SQLiteSlotRepository{},
		},
		{
			name:    "unknown driver",
			cfg:     RepositoryConfig{Driver: "postgres"},
			wantErr: ErrUnknownDriver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, err := RepositoryFactoryFor(tt.cfg)(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			t.Cleanup(func() { _ = repo.Close() })
			assert.IsType(t, tt.want, repo)
		})
	}
}
