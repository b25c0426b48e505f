package planning

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// PlanCache stores validated recommendation plans keyed by model
// identity. Lookups hit an in-memory map first; entries are also
// persisted to cache.db so plans survive restarts. All entries expire
// after the configured TTL.
type PlanCache struct {
	db      *sql.DB // cache.db, optional - nil disables persistence
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
	log     zerolog.Logger
}

type cacheEntry struct {
	plan      Plan
	expiresAt time.Time
}

// NewPlanCache creates a plan cache. db may be nil, in which case the
// cache is purely in-memory.
func NewPlanCache(db *sql.DB, ttl time.Duration, log zerolog.Logger) *PlanCache {
	return &PlanCache{
		db:      db,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		log:     log.With().Str("repo", "plan_cache").Logger(),
	}
}

// InitSchema creates the recommendation_plans table if it does not exist.
func (c *PlanCache) InitSchema() error {
	if c.db == nil {
		return nil
	}
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS recommendation_plans (
			model_key TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create recommendation_plans table: %w", err)
	}
	return nil
}

// Get returns a copy of the fresh cached plan for the key, if any.
func (c *PlanCache) Get(key string) (*Plan, bool) {
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && now.Before(entry.expiresAt) {
		plan := entry.plan
		return &plan, true
	}

	// Memory miss - try the persistent store (fresh rows only).
	if c.db == nil {
		return nil, false
	}

	var data []byte
	var expiresMs int64
	err := c.db.QueryRow(`
		SELECT data, expires_at FROM recommendation_plans
		WHERE model_key = ? AND expires_at > ?
	`, key, now.UnixMilli()).Scan(&data, &expiresMs)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("model_key", key).Msg("Plan cache read failed")
		return nil, false
	}

	var plan Plan
	if err := msgpack.Unmarshal(data, &plan); err != nil {
		c.log.Warn().Err(err).Str("model_key", key).Msg("Failed to decode cached plan")
		return nil, false
	}

	// Rehydrate the memory index, keeping the stored expiry so the
	// entry does not outlive its original TTL.
	c.mu.Lock()
	c.entries[key] = cacheEntry{plan: plan, expiresAt: time.UnixMilli(expiresMs)}
	c.mu.Unlock()

	return &plan, true
}

// Put stores a validated plan, replacing any prior entry for the key.
func (c *PlanCache) Put(key string, plan *Plan) error {
	expiresAt := time.Now().Add(c.ttl)

	c.mu.Lock()
	c.entries[key] = cacheEntry{plan: *plan, expiresAt: expiresAt}
	c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	data, err := msgpack.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO recommendation_plans (model_key, data, expires_at)
		VALUES (?, ?, ?)
	`, key, data, expiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store plan: %w", err)
	}

	c.log.Debug().Str("model_key", key).Time("expires_at", expiresAt).Msg("Plan cached")
	return nil
}

// Invalidate removes the entry for a key from memory and disk.
func (c *PlanCache) Invalidate(key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	if _, err := c.db.Exec("DELETE FROM recommendation_plans WHERE model_key = ?", key); err != nil {
		return fmt.Errorf("failed to invalidate plan: %w", err)
	}
	return nil
}

// SweepExpired removes expired entries from memory and disk, returning
// the number of persistent rows deleted.
func (c *PlanCache) SweepExpired() (int, error) {
	now := time.Now()

	c.mu.Lock()
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	if c.db == nil {
		return 0, nil
	}

	result, err := c.db.Exec("DELETE FROM recommendation_plans WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired plans: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
