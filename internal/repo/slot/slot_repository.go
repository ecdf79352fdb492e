package slot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkrupp/homecase-catalog/internal/domain"
)

// ErrUnknownDriver is returned when the configured storage driver does not exist.
var ErrUnknownDriver = errors.New("unknown slot repository driver")

// Storage drivers.
const (
	DriverFileSystem = "filesystem"
	DriverSQLite     = "sqlite"
	DriverMemory     = "memory"
)

// Repository is the durable key-value store every other component writes through.
// Values are opaque text; the repository never inspects or transforms them.
type Repository interface {
	// Load returns the text stored under key.
	// Returns ok=false, without error, if the slot is absent.
	Load(ctx context.Context, key domain.SlotKey) (text string, ok bool, err error)

	// Save replaces the text stored under key as a single atomic step.
	Save(ctx context.Context, key domain.SlotKey, text string) error

	// Remove deletes the slot. Removing an absent slot is not an error.
	Remove(ctx context.Context, key domain.SlotKey) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func(ctx context.Context) (Repository, error)

// RepositoryConfig selects and configures the storage backend.
type RepositoryConfig struct {
	// Driver is one of "filesystem", "sqlite" or "memory"
	Driver string `env:"DRIVER" default:"filesystem" toml:"driver"`

	FileSystem FileSystemSlotRepositoryConfig `envPrefix:"FS_" toml:"filesystem"`
	SQLite     SQLiteSlotRepositoryConfig     `envPrefix:"SQLITE_" toml:"sqlite"`
}

// RepositoryFactoryFor returns a factory for the backend named by cfg.Driver.
func RepositoryFactoryFor(cfg RepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewRepository(ctx, cfg)
	}
}

// NewRepository opens the backend named by cfg.Driver.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverFileSystem, "fs", "":
		return NewFileSystemSlotRepository(ctx, cfg.FileSystem)
	case DriverSQLite:
		return NewSQLiteSlotRepository(ctx, cfg.SQLite)
	case DriverMemory:
		return NewMemorySlotRepository(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
