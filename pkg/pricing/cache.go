package pricing

import (
	"sync"
	"time"
)

// Cache keeps loaded price tables around between runs so daemon mode does
// not re-read and re-index the table on every scheduled scan.
type Cache struct {
	data  map[string]*cacheEntry
	ttl   time.Duration
	mutex sync.RWMutex
}

type cacheEntry struct {
	table     *Table
	expiresAt time.Time
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
}

// Get returns the cached table for the key, or nil when absent or expired.
func (c *Cache) Get(key string) *Table {
	c.mutex.RLock()
	entry, exists := c.data[key]
	c.mutex.RUnlock()

	if !exists {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.data, key)
		c.mutex.Unlock()
		return nil
	}
	return entry.table
}

// Set stores a table under the key.
func (c *Cache) Set(key string, table *Table) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = &cacheEntry{
		table:     table,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// LoadCached returns the cached table for path, loading and caching it on a
// miss.
func (c *Cache) LoadCached(path string) (*Table, error) {
	if table := c.Get(path); table != nil {
		return table, nil
	}

	table, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	c.Set(path, table)
	return table, nil
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]*cacheEntry)
}
