package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/finsight/insights-service/internal/models"
)

// ComputeFunc performs one full insights computation for a user.
type ComputeFunc func(ctx context.Context) (*models.ComprehensiveInsights, error)

// Entry is one user's cached insights bundle. Entries are written whole:
// a computation either replaces the entire entry or leaves it untouched.
type Entry struct {
	UserID     string
	Insights   *models.ComprehensiveInsights
	ComputedAt time.Time
}

// Cache is a process-resident per-user store of computed insights. It
// guarantees at most one in-flight full recomputation per user: concurrent
// refreshes for the same user are coalesced onto a single computation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	group   singleflight.Group
	log     *logrus.Logger
}

// New creates a cache whose entries stay fresh for ttl.
func New(ttl time.Duration, log *logrus.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		log:     log,
	}
}

// fresh reports whether an entry is still within its freshness window.
func (c *Cache) fresh(e *Entry) bool {
	return time.Since(e.ComputedAt) < c.ttl
}

// Get returns the user's cached entry if present and fresh.
func (c *Cache) Get(userID string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[userID]
	if !ok || !c.fresh(entry) {
		return nil, false
	}
	return entry, true
}

// GetOrCompute returns the cached entry when fresh, otherwise computes it.
// Concurrent callers for the same user share one computation.
func (c *Cache) GetOrCompute(ctx context.Context, userID string, compute ComputeFunc) (*Entry, error) {
	if entry, ok := c.Get(userID); ok {
		return entry, nil
	}
	return c.recompute(ctx, userID, compute)
}

// Refresh forces a recomputation, still coalescing concurrent callers onto
// one underlying computation.
func (c *Cache) Refresh(ctx context.Context, userID string, compute ComputeFunc) (*Entry, error) {
	return c.recompute(ctx, userID, compute)
}

func (c *Cache) recompute(ctx context.Context, userID string, compute ComputeFunc) (*Entry, error) {
	result, err, shared := c.group.Do(userID, func() (interface{}, error) {
		insights, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		entry := &Entry{
			UserID:     userID,
			Insights:   insights,
			ComputedAt: time.Now().UTC(),
		}
		c.mu.Lock()
		c.entries[userID] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debugf("insights recomputation for user %s coalesced", userID)
	}
	return result.(*Entry), nil
}

// Evict removes a user's entry, e.g. on logout.
func (c *Cache) Evict(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Sweep drops every stale entry. Intended to run on a schedule.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for userID, entry := range c.entries {
		if !c.fresh(entry) {
			delete(c.entries, userID)
			removed++
		}
	}
	if removed > 0 {
		c.log.Infof("cache sweep removed %d stale entries", removed)
	}
}

// Len returns the number of resident entries, stale included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
