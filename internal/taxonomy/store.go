package taxonomy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/relaw/case-intake/internal/database"
)

const snapshotKey = "taxonomy:snapshot"

// SnapshotProvider supplies the catalog snapshot a pipeline run resolves
// against. Tests inject a FixedProvider for deterministic resolution.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

type StoreStats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	LastRefresh time.Time `json:"last_refresh"`
}

// Store reads the issue catalog from the relational store and caches the
// snapshot for the configured TTL. Explicit invalidation drops the cached
// snapshot immediately.
type Store struct {
	db    *gorm.DB
	cache *cache.Cache
	group singleflight.Group

	mu    sync.Mutex
	stats StoreStats
}

func NewStore(db *gorm.DB, ttl time.Duration) *Store {
	return &Store{
		db:    db,
		cache: cache.New(ttl, ttl*2),
	}
}

// Snapshot returns the cached catalog snapshot, loading it on miss.
// Concurrent misses share a single database load.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	if cached, found := s.cache.Get(snapshotKey); found {
		s.mu.Lock()
		s.stats.Hits++
		s.mu.Unlock()
		return cached.(*Snapshot), nil
	}

	s.mu.Lock()
	s.stats.Misses++
	s.mu.Unlock()

	value, err, _ := s.group.Do(snapshotKey, func() (interface{}, error) {
		snap, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(snapshotKey, snap, cache.DefaultExpiration)
		s.mu.Lock()
		s.stats.LastRefresh = time.Now()
		s.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}

	return value.(*Snapshot), nil
}

// Invalidate drops the cached snapshot; the next Snapshot call reloads.
func (s *Store) Invalidate() {
	s.cache.Delete(snapshotKey)
}

func (s *Store) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Store) load(ctx context.Context) (*Snapshot, error) {
	var categories []database.IssueCategory
	err := s.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, code ASC")
		}).
		Order("display_order ASC, code ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load issue catalog: %w", err)
	}

	return NewSnapshot(categories), nil
}

// FixedProvider always returns the same snapshot. Used in tests and for
// replaying a pipeline run against a historical catalog.
type FixedProvider struct {
	Snap *Snapshot
}

func (p *FixedProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	return p.Snap, nil
}
