package slot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/mkrupp/homecase-catalog/internal/domain"
	"github.com/mkrupp/homecase-catalog/internal/infra/logging"
)

// ErrLockTimeout is returned when a slot lock could not be acquired in time.
var ErrLockTimeout = errors.New("slot lock timeout")

const (
	slotFileExt       = ".json"
	lockFileExt       = ".lock"
	lockRetryInterval = 10 * time.Millisecond

	defaultLockTimeout = 5 * time.Second
)

// FileSystemSlotRepositoryConfig holds configuration for the filesystem-based slot repository.
type FileSystemSlotRepositoryConfig struct {
	// Basedir is the directory holding one file per slot
	Basedir string `env:"BASEDIR" default:"var/storage/catalog" toml:"basedir"`

	// LockTimeout bounds, in seconds, how long an operation waits for a slot lock.
	// Zero or less means the default of 5 seconds.
	LockTimeout int64 `env:"LOCK_TIMEOUT" default:"5" toml:"lock_timeout"`
}

// FileSystemSlotRepository stores each slot as <basedir>/<key>.json.
// Writes go to a temp file that is synced and renamed over the slot file, so a slot
// is never observed half-written. Every operation holds an advisory lock on
// <key>.json.lock, shared for reads and exclusive for writes, which keeps separate
// processes sharing a basedir from interleaving.
type FileSystemSlotRepository struct {
	cfg FileSystemSlotRepositoryConfig
	log logging.Logger
}

var _ Repository = (*FileSystemSlotRepository)(nil)

// FileSystemSlotRepositoryFactory creates a factory function that returns a new FileSystemSlotRepository.
func FileSystemSlotRepositoryFactory(cfg FileSystemSlotRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewFileSystemSlotRepository(ctx, cfg)
	}
}

// NewFileSystemSlotRepository creates the base directory if needed and returns the repository.
func NewFileSystemSlotRepository(
	ctx context.Context,
	cfg FileSystemSlotRepositoryConfig,
) (_ *FileSystemSlotRepository, err error) {
	log := logging.GetLogger("repo.slot.filesystem_slot_repository").With(
		logging.Group("repo", "basedir", cfg.Basedir),
	)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "init storage failed", "error", err)
		} else {
			log.DebugContext(ctx, "init storage")
		}
	}()

	if err := os.MkdirAll(cfg.Basedir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	return &FileSystemSlotRepository{
		cfg: cfg,
		log: log,
	}, nil
}

// GetFilename returns the full filesystem path of the slot.
func (r *FileSystemSlotRepository) GetFilename(key domain.SlotKey) string {
	return filepath.Join(r.cfg.Basedir, string(key)+slotFileExt)
}

// Load implements Repository.Load.
func (r *FileSystemSlotRepository) Load(ctx context.Context, key domain.SlotKey) (text string, ok bool, err error) {
	filename := r.GetFilename(key)

	defer func() {
		log := r.log.With(logging.Group("slot", "key", key, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "slot load failed", "error", err)
		} else {
			log.DebugContext(ctx, "slot loaded", "found", ok, "size", len(text))
		}
	}()

	if err := key.Validate(); err != nil {
		return "", false, fmt.Errorf("%w: %q", err, key)
	}

	unlock, err := r.lock(ctx, filename, false)
	if err != nil {
		return "", false, err
	}
	defer unlock()

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("read: %w", err)
	}

	return string(data), true, nil
}

// Save implements Repository.Save.
func (r *FileSystemSlotRepository) Save(ctx context.Context, key domain.SlotKey, text string) (err error) {
	filename := r.GetFilename(key)

	defer func() {
		log := r.log.With(logging.Group("slot", "key", key, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "slot save failed", "error", err)
		} else {
			log.DebugContext(ctx, "slot saved", "size", len(text))
		}
	}()

	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	unlock, err := r.lock(ctx, filename, true)
	if err != nil {
		return err
	}
	defer unlock()

	if err := writeFileAtomic(filename, []byte(text)); err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			err = errors.Join(domain.ErrStorageFull, err)
		}

		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// Remove implements Repository.Remove.
func (r *FileSystemSlotRepository) Remove(ctx context.Context, key domain.SlotKey) (err error) {
	filename := r.GetFilename(key)

	defer func() {
		log := r.log.With(logging.Group("slot", "key", key, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "slot remove failed", "error", err)
		} else {
			log.DebugContext(ctx, "slot removed")
		}
	}()

	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	unlock, err := r.lock(ctx, filename, true)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}

// Close implements Repository.Close.
func (r *FileSystemSlotRepository) Close() error {
	return nil
}

func (r *FileSystemSlotRepository) lock(ctx context.Context, filename string, exclusive bool) (func(), error) {
	lockfile := filename + lockFileExt
	fileLock := flock.New(lockfile)

	timeout := time.Duration(r.cfg.LockTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		locked bool
		err    error
	)

	if exclusive {
		locked, err = fileLock.TryLockContext(ctx, lockRetryInterval)
	} else {
		locked, err = fileLock.TryRLockContext(ctx, lockRetryInterval)
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(ErrLockTimeout, err)
		}

		return nil, fmt.Errorf("flock %s: %w", lockfile, err)
	}

	if !locked {
		return nil, fmt.Errorf("flock %s: %w", lockfile, ErrLockTimeout)
	}

	return func() {
		_ = fileLock.Unlock()
	}, nil
}

func writeFileAtomic(filename string, data []byte) error {
	file, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	tmpName := file.Name()

	defer func() {
		_ = os.Remove(tmpName) // no-op once renamed
	}()

	if _, err := file.Write(data); err != nil {
		_ = file.Close()

		return fmt.Errorf("write temp: %w", err)
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()

		return fmt.Errorf("sync temp: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("rename temp: %w", err)
	}

	return nil
}
