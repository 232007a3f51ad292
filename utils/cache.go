package utils

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"ccasino/models"
)

// CacheEntry represents a cached player record
type CacheEntry struct {
	Player    *models.Player
	ExpiresAt time.Time
}

// CachedLedger is a read-through TTL cache in front of another ledger.
// Writes go straight through and drop the entry; a read only fills the
// cache if no write for that player finished while it was in flight.
type CachedLedger struct {
	inner    Ledger
	data     map[int64]*CacheEntry
	versions map[int64]uint64
	mutex    sync.RWMutex
	ttl      time.Duration
	clock    quartz.Clock
	logger   *log.Logger
	cancel   context.CancelFunc
}

var _ Ledger = (*CachedLedger)(nil)

// CacheStats returns cache statistics
type CacheStats struct {
	Size int           `json:"size"`
	TTL  time.Duration `json:"ttl"`
}

// NewCachedLedger wraps inner and starts the periodic cleanup
func NewCachedLedger(inner Ledger, ttl time.Duration, clock quartz.Clock, logger *log.Logger) *CachedLedger {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &CachedLedger{
		inner:    inner,
		data:     make(map[int64]*CacheEntry),
		versions: make(map[int64]uint64),
		ttl:      ttl,
		clock:    clock,
		logger:   logger.WithPrefix("cache"),
		cancel:   cancel,
	}

	// Start cleanup routine every 5 minutes
	clock.TickerFunc(ctx, 5*time.Minute, func() error {
		c.cleanup()
		return nil
	}, "cache", "cleanup")
	return c
}

// Get retrieves a player from cache
func (c *CachedLedger) Get(id int64) (*models.Player, bool) {
	c.mutex.RLock()
	entry, exists := c.data[id]
	c.mutex.RUnlock()

	if !exists || !c.clock.Now().Before(entry.ExpiresAt) {
		return nil, false
	}

	// Return a copy to prevent external modifications
	p := *entry.Player
	return &p, true
}

// Set stores a player in cache
func (c *CachedLedger) Set(p *models.Player) {
	c.mutex.Lock()
	c.storeLocked(p)
	c.mutex.Unlock()
}

func (c *CachedLedger) storeLocked(p *models.Player) {
	cp := *p
	c.data[p.ID] = &CacheEntry{
		Player:    &cp,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	}
}

// Delete removes a player from cache
func (c *CachedLedger) Delete(id int64) {
	c.mutex.Lock()
	delete(c.data, id)
	c.mutex.Unlock()
}

// Stats returns current cache statistics
func (c *CachedLedger) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return CacheStats{Size: len(c.data), TTL: c.ttl}
}

func (c *CachedLedger) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	if p, ok := c.Get(id); ok {
		return p, nil
	}
	c.mutex.RLock()
	version := c.versions[id]
	c.mutex.RUnlock()

	p, err := c.inner.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	if c.versions[id] == version {
		c.storeLocked(p)
	}
	c.mutex.Unlock()
	return p, nil
}

func (c *CachedLedger) UpdatePlayer(ctx context.Context, id int64, upd models.PlayerUpdate) (*models.Player, error) {
	p, err := c.inner.UpdatePlayer(ctx, id, upd)

	c.mutex.Lock()
	c.versions[id]++
	delete(c.data, id)
	c.mutex.Unlock()

	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *CachedLedger) TopPlayers(ctx context.Context, limit int) ([]*models.Player, error) {
	return c.inner.TopPlayers(ctx, limit)
}

// Close stops the cleanup routine and closes the wrapped ledger
func (c *CachedLedger) Close() error {
	c.cancel()
	return c.inner.Close()
}

// cleanup removes expired entries
func (c *CachedLedger) cleanup() {
	now := c.clock.Now()

	c.mutex.Lock()
	expired := 0
	for id, entry := range c.data {
		if !now.Before(entry.ExpiresAt) {
			delete(c.data, id)
			expired++
		}
	}
	size := len(c.data)
	c.mutex.Unlock()

	if expired > 0 {
		c.logger.Debug("cleaned up expired cache entries", "expired", expired, "size", size)
	}
}
