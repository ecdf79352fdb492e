package slot

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/mkrupp/homecase-catalog/internal/domain"
)

// MemorySlotRepository keeps slots in process memory. Nothing survives Close.
type MemorySlotRepository struct {
	slots map[domain.SlotKey]string
	m     sync.RWMutex
}

var _ Repository = (*MemorySlotRepository)(nil)

// NewMemorySlotRepository creates an empty in-memory repository.
func NewMemorySlotRepository() *MemorySlotRepository {
	return &MemorySlotRepository{
		slots: make(map[domain.SlotKey]string),
	}
}

// Load implements Repository.Load.
func (r *MemorySlotRepository) Load(_ context.Context, key domain.SlotKey) (string, bool, error) {
	if err := key.Validate(); err != nil {
		return "", false, fmt.Errorf("%w: %q", err, key)
	}

	r.m.RLock()
	defer r.m.RUnlock()

	text, ok := r.slots[key]

	return text, ok, nil
}

// Save implements Repository.Save.
func (r *MemorySlotRepository) Save(_ context.Context, key domain.SlotKey, text string) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	r.m.Lock()
	defer r.m.Unlock()

	r.slots[key] = text

	return nil
}

// Remove implements Repository.Remove.
func (r *MemorySlotRepository) Remove(_ context.Context, key domain.SlotKey) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	r.m.Lock()
	defer r.m.Unlock()

	delete(r.slots, key)

	return nil
}

// Snapshot returns a copy of every stored slot.
func (r *MemorySlotRepository) Snapshot() map[domain.SlotKey]string {
	r.m.RLock()
	defer r.m.RUnlock()

	return maps.Clone(r.slots)
}

// Close implements Repository.Close.
func (r *MemorySlotRepository) Close() error {
	return nil
}
