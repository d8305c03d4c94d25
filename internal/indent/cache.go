package indent

import (
	"context"
	"sync"
)

// MasterFetcher is anything that can load the dropdown document.
type MasterFetcher interface {
	FetchMasters(ctx context.Context) (*MasterData, error)
}

// MasterCache shares one dropdown document between every form that holds a
// reference. The document is dropped when the last reference is released or
// on Refresh.
type MasterCache struct {
	fetcher MasterFetcher

	mu   sync.Mutex
	data *MasterData
	refs int
}

// NewMasterCache creates a cache in front of fetcher
func NewMasterCache(fetcher MasterFetcher) *MasterCache {
	return &MasterCache{fetcher: fetcher}
}

// Acquire returns the cached document, fetching it on a miss, and takes a
// reference. No reference is taken when an error is returned.
func (c *MasterCache) Acquire(ctx context.Context) (*MasterData, error) {
	c.mu.Lock()
	if c.data != nil {
		c.refs++
		data := c.data
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	data, err := c.fetcher.FetchMasters(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another form may have filled the cache while we were fetching.
	if c.data == nil {
		c.data = data
	}
	c.refs++
	return c.data, nil
}

// Release drops one reference.
func (c *MasterCache) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs > 0 {
		c.refs--
	}
	if c.refs == 0 {
		c.data = nil
	}
}

// Refresh invalidates the cached document; the next Acquire fetches again.
func (c *MasterCache) Refresh() {
	c.mu.Lock()
	c.data = nil
	c.mu.Unlock()
}

// Refs returns the number of live references.
func (c *MasterCache) Refs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}
