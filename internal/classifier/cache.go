package classifier

import (
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// LoaderFunc produces a fresh Artifacts value.
type LoaderFunc func() (*Artifacts, error)

// Cache loads artifacts at most once and shares them between callers.
// Concurrent first calls collapse into a single load; a failed load is not
// cached, so the next Get retries.
type Cache struct {
	load  LoaderFunc
	group singleflight.Group
	ptr   atomic.Pointer[Artifacts]
	loads atomic.Int64
}

// NewCache creates a cache around load.
func NewCache(load LoaderFunc) *Cache {
	return &Cache{load: load}
}

// NewDirCache creates a cache that loads from an artifact directory.
func NewDirCache(dir string, deltaWeight float64) *Cache {
	return NewCache(func() (*Artifacts, error) {
		return LoadDir(dir, deltaWeight)
	})
}

// Static returns a cache already holding a.
func Static(a *Artifacts) *Cache {
	c := &Cache{load: func() (*Artifacts, error) { return a, nil }}
	c.ptr.Store(a)
	return c
}

// Get returns the cached artifacts, loading them on first use.
func (c *Cache) Get() (*Artifacts, error) {
	if a := c.ptr.Load(); a != nil {
		return a, nil
	}

	v, err, _ := c.group.Do("artifacts", func() (interface{}, error) {
		if a := c.ptr.Load(); a != nil {
			return a, nil
		}
		c.loads.Add(1)
		a, err := c.load()
		if err != nil {
			return nil, err
		}
		c.ptr.Store(a)
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Artifacts), nil
}

// Loaded reports whether artifacts are currently cached.
func (c *Cache) Loaded() bool {
	return c.ptr.Load() != nil
}

// Loads returns how many times the loader has been invoked.
func (c *Cache) Loads() int64 {
	return c.loads.Load()
}

// Invalidate drops the cached artifacts; the next Get reloads them.
// Holders of the previous value keep using it unchanged.
func (c *Cache) Invalidate() {
	c.ptr.Store(nil)
}
