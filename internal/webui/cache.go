package webui

import (
	"sync"

	"variantgen/internal/pipeline"
)

// runCache keeps the most recent runs, evicting the oldest first.
type runCache struct {
	mu    sync.Mutex
	limit int
	order []string
	runs  map[string]*pipeline.Result
}

func newRunCache(limit int) *runCache {
	return &runCache{limit: limit, runs: make(map[string]*pipeline.Result, limit)}
}

func (c *runCache) put(res *pipeline.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.runs[res.RunID]; !ok {
		c.order = append(c.order, res.RunID)
	}
	c.runs[res.RunID] = res
	for len(c.order) > c.limit {
		delete(c.runs, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *runCache) get(id string) (*pipeline.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.runs[id]
	return res, ok
}

func (c *runCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.runs)
}
