package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/fxlens/fx-engine/internal/model"
	"github.com/fxlens/fx-engine/internal/quarter"
)

// MemoryStore implements Store with an in-memory map. Used for testing
// and seed-only deployments (no persistence across restarts).
type MemoryStore struct {
	mu      sync.RWMutex
	bundles map[quarter.Label]*model.QuarterBundle
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bundles: make(map[quarter.Label]*model.QuarterBundle),
	}
}

func (s *MemoryStore) SaveBundle(_ context.Context, b *model.QuarterBundle) error {
	c, err := cloneBundle(b)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[b.BaseQuarter] = c
	return nil
}

func (s *MemoryStore) GetBundle(_ context.Context, base quarter.Label) (*model.QuarterBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bundles[base]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBundle(b)
}

// cloneBundle deep-copies a bundle through a JSON round trip so the slices
// and maps inside a stored or returned bundle never alias another copy.
func cloneBundle(b *model.QuarterBundle) (*model.QuarterBundle, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	var c model.QuarterBundle
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MemoryStore) ListQuarters(_ context.Context) ([]quarter.Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]quarter.Label, 0, len(s.bundles))
	for l := range s.bundles {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Less(labels[j]) })
	return labels, nil
}

func (s *MemoryStore) LatestQuarter(ctx context.Context) (quarter.Label, error) {
	labels, err := s.ListQuarters(ctx)
	if err != nil {
		return "", err
	}
	if len(labels) == 0 {
		return "", ErrNotFound
	}
	return labels[len(labels)-1], nil
}
