package memory

import (
	"context"
	"sync"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
)

// MemoryRepository is a process-local slot storage; nothing survives a restart.
type MemoryRepository struct {
	mu    sync.Mutex
	slots map[string]string
}

var _ ports.SlotStorage = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{slots: make(map[string]string)}
}

func (r *MemoryRepository) Load(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.slots[key]
	if !ok {
		return "", ports.ErrSlotEmpty
	}
	return v, nil
}

func (r *MemoryRepository) Save(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[key] = value
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, key)
	return nil
}

func (r *MemoryRepository) Close() error { return nil }
