package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fxlens/fx-engine/internal/model"
	"github.com/fxlens/fx-engine/internal/quarter"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Saves go to the primary store and invalidate the cached bundle and
// quarter list; reads check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration

	// onHit and onMiss are optional observation hooks for cache metrics.
	onHit  func()
	onMiss func()
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// ObserveCache installs cache hit/miss callbacks.
func (s *CachedStore) ObserveCache(onHit, onMiss func()) {
	s.onHit = onHit
	s.onMiss = onMiss
}

func (s *CachedStore) SaveBundle(ctx context.Context, b *model.QuarterBundle) error {
	if err := s.primary.SaveBundle(ctx, b); err != nil {
		return err
	}
	// Invalidate rather than write-through: the next read re-populates
	// from the source of truth.
	s.rdb.Del(ctx, bundleKey(b.BaseQuarter), quartersKey())
	return nil
}

func (s *CachedStore) GetBundle(ctx context.Context, base quarter.Label) (*model.QuarterBundle, error) {
	data, err := s.rdb.Get(ctx, bundleKey(base)).Bytes()
	if err == nil {
		var b model.QuarterBundle
		if json.Unmarshal(data, &b) == nil {
			s.hit()
			return &b, nil
		}
	}
	s.miss()

	b, err := s.primary.GetBundle(ctx, base)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(b); err == nil {
		s.rdb.Set(ctx, bundleKey(base), data, s.ttl)
	}
	return b, nil
}

func (s *CachedStore) ListQuarters(ctx context.Context) ([]quarter.Label, error) {
	data, err := s.rdb.Get(ctx, quartersKey()).Bytes()
	if err == nil {
		var labels []quarter.Label
		if json.Unmarshal(data, &labels) == nil {
			s.hit()
			return labels, nil
		}
	}
	s.miss()

	labels, err := s.primary.ListQuarters(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(labels); err == nil {
		s.rdb.Set(ctx, quartersKey(), data, s.ttl)
	}
	return labels, nil
}

func (s *CachedStore) LatestQuarter(ctx context.Context) (quarter.Label, error) {
	labels, err := s.ListQuarters(ctx)
	if err != nil {
		return "", err
	}
	if len(labels) == 0 {
		return "", ErrNotFound
	}
	return labels[len(labels)-1], nil
}

func (s *CachedStore) hit() {
	if s.onHit != nil {
		s.onHit()
	}
}

func (s *CachedStore) miss() {
	if s.onMiss != nil {
		s.onMiss()
	}
}

func bundleKey(base quarter.Label) string { return fmt.Sprintf("bundle:%s", base) }
func quartersKey() string                 { return "bundle:quarters" }
