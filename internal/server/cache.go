package server

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/san-kum/pidtune/internal/linsys"
	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/process"
)

// simCache memoizes closed-loop comparisons; every entry costs 1.
type simCache struct {
	cache *ristretto.Cache
}

func newSimCache(entries int64) (*simCache, error) {
	if entries <= 0 {
		return &simCache{}, nil
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: entries * 10,
		MaxCost:     entries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &simCache{cache: c}, nil
}

func simKey(m process.FOPDT, lambda, simTime float64, numPoints int, opts linsys.Options) string {
	return fmt.Sprintf("%g|%g|%g|%g|%g|%d|%d|%s",
		m.Gain, m.TimeConstant, m.DeadTime, lambda, simTime, numPoints, opts.PadeOrder, opts.Method)
}

func (c *simCache) get(key string) ([]pipeline.Outcome, bool) {
	if c.cache == nil {
		return nil, false
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]pipeline.Outcome), true
}

func (c *simCache) set(key string, outcomes []pipeline.Outcome) {
	if c.cache == nil {
		return
	}
	c.cache.Set(key, outcomes, 1)
}

// wait blocks until buffered writes are applied.
func (c *simCache) wait() {
	if c.cache != nil {
		c.cache.Wait()
	}
}

func (c *simCache) close() {
	if c.cache != nil {
		c.cache.Close()
	}
}
