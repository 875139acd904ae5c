package symgroup

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoises catalogs by stage. Concurrent requests for the same stage
// share a single build. Failed builds are not cached.
type Cache struct {
	opts Options

	mu      sync.RWMutex
	entries map[int]*Entry
	group   singleflight.Group
}

// NewCache creates a Cache that builds entries with opts.
func NewCache(opts Options) *Cache {
	return &Cache{
		opts:    opts.withDefaults(),
		entries: make(map[int]*Entry),
	}
}

// Get returns the catalog for stage, building it on first use.
func (c *Cache) Get(stage int) (*Entry, error) {
	c.mu.RLock()
	e, ok := c.entries[stage]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(stage), func() (interface{}, error) {
		e, err := Build(stage, c.opts)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[stage] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Len returns the number of cached stages.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Options returns the effective build options.
func (c *Cache) Options() Options {
	return c.opts
}
