package policy

import (
	"context"
	"log/slog"
	"sync"
)

// NameCache is the process-wide set of policy names currently believed
// valid. It answers fast membership checks for callers that need to decide
// whether a directory-native policy exists without touching the store.
//
// The set is loaded in full exactly once, at construction, and is mutated
// only by Add and Remove calls made after the corresponding store write
// succeeded. It is never rebuilt automatically and does not observe changes
// made to the store by other processes.
//
// All methods are safe for concurrent use; reads and writes share one
// sync.RWMutex so a membership check never observes a mid-mutation set.
type NameCache struct {
	mu     sync.RWMutex
	names  map[string]struct{}
	loaded bool
	logger *slog.Logger
}

// NewNameCache builds the cache from one full listing of the store.
//
// A load failure is the one swallowed error in this package: it is logged
// and the cache starts empty rather than blocking startup on store
// availability. Loaded reports whether the initial listing succeeded.
func NewNameCache(ctx context.Context, store Store, logger *slog.Logger) *NameCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &NameCache{
		names:  make(map[string]struct{}),
		logger: logger.With("component", "policy.namecache"),
	}

	names, err := store.PolicyNames(ctx)
	if err != nil {
		c.logger.Warn("initial policy name load failed, starting with empty cache", "error", err)
		return c
	}

	for _, name := range names {
		c.names[CanonicalName(name)] = struct{}{}
	}
	c.loaded = true
	c.logger.Info("policy name cache loaded", "count", len(c.names))
	return c
}

// Contains reports whether name is a currently valid policy name. The
// lookup is case-insensitive.
func (c *NameCache) Contains(name string) bool {
	key := CanonicalName(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.names[key]
	return ok
}

// Add records a name as valid. Adding a name that is already present is a
// no-op.
func (c *NameCache) Add(name string) {
	key := CanonicalName(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[key] = struct{}{}
}

// Remove forgets a name. Removing an absent name is a no-op.
func (c *NameCache) Remove(name string) {
	key := CanonicalName(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.names, key)
}

// Len returns the number of cached names.
func (c *NameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Loaded reports whether the initial full listing succeeded. A cold cache
// still serves membership checks (everything is reported invalid) and is
// updated incrementally by subsequent mutations.
func (c *NameCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
