package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/homecase-catalog/internal/domain"
	"github.com/mkrupp/homecase-catalog/internal/infra/logging"
)

// SQLiteSlotRepositoryConfig holds configuration for the SQLite slot repository.
type SQLiteSlotRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/catalog.db" toml:"database_path"`

	// BusyTimeout is how long, in milliseconds, a statement waits for a locked database
	BusyTimeout int64 `env:"BUSY_TIMEOUT" default:"5000" toml:"busy_timeout"`
}

// SQLiteSlotRepository implements Repository using a single SQLite table.
type SQLiteSlotRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteSlotRepository)(nil)

// SQLiteSlotRepositoryFactory creates a factory function that returns a new SQLiteSlotRepository.
func SQLiteSlotRepositoryFactory(cfg SQLiteSlotRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewSQLiteSlotRepository(ctx, cfg)
	}
}

// NewSQLiteSlotRepository opens the database, creating file and schema if needed.
func NewSQLiteSlotRepository(ctx context.Context, cfg SQLiteSlotRepositoryConfig) (*SQLiteSlotRepository, error) {
	log := logging.GetLogger("repo.slot.sqlite_slot_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("mkdir all: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initializeDB(ctx, db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	log.DebugContext(ctx, "db opened")

	return &SQLiteSlotRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

// sqliteDSN carries the busy timeout as a connection pragma, so every pooled
// connection applies it when opened.
func sqliteDSN(cfg SQLiteSlotRepositoryConfig) string {
	query := url.Values{}
	query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout))

	return "file:" + cfg.DatabasePath + "?" + query.Encode()
}

func initializeDB(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS slots (
			key        TEXT    PRIMARY KEY,
			value      TEXT    NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Load implements Repository.Load using SQLite.
func (r *SQLiteSlotRepository) Load(ctx context.Context, key domain.SlotKey) (text string, ok bool, err error) {
	defer func() {
		log := r.log.With(logging.Group("slot", "key", key))
		if err != nil {
			log.ErrorContext(ctx, "slot load failed", "error", err)
		} else {
			log.DebugContext(ctx, "slot loaded", "found", ok, "size", len(text))
		}
	}()

	if err := key.Validate(); err != nil {
		return "", false, fmt.Errorf("%w: %q", err, key)
	}

	err = r.db.QueryRowContext(ctx, "SELECT value FROM slots WHERE key = ?", string(key)).Scan(&text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("query slot: %w", mapSQLiteError(err))
	}

	return text, true, nil
}

// Save implements Repository.Save using SQLite. The upsert is a single statement,
// so the previous value stays intact if it fails.
func (r *SQLiteSlotRepository) Save(ctx context.Context, key domain.SlotKey, text string) (err error) {
	defer func() {
		log := r.log.With(logging.Group("slot", "key", key))
		if err != nil {
			log.ErrorContext(ctx, "slot save failed", "error", err)
		} else {
			log.DebugContext(ctx, "slot saved", "size", len(text))
		}
	}()

	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(key),
		text,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert slot: %w", mapSQLiteError(err))
	}

	return nil
}

// Remove implements Repository.Remove using SQLite.
func (r *SQLiteSlotRepository) Remove(ctx context.Context, key domain.SlotKey) (err error) {
	defer func() {
		log := r.log.With(logging.Group("slot", "key", key))
		if err != nil {
			log.ErrorContext(ctx, "slot remove failed", "error", err)
		} else {
			log.DebugContext(ctx, "slot removed")
		}
	}()

	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM slots WHERE key = ?", string(key)); err != nil {
		return fmt.Errorf("delete slot: %w", mapSQLiteError(err))
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteSlotRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func mapSQLiteError(err error) error {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return err
	}

	// primary result code lives in the low byte of extended codes
	switch liteErr.Code() & 0xff {
	case sqlite3.SQLITE_FULL:
		return errors.Join(domain.ErrStorageFull, err)
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return errors.Join(ErrLockTimeout, err)
	default:
		return err
	}
}
