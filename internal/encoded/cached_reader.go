package encoded

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/harshithgowdakt/orcsarg/internal/stats"
)

// DefaultCacheSize is the number of row groups a CachedReader keeps.
const DefaultCacheSize = 4096

// CachedReader keeps recently used statistics of an underlying StatsReader
// in memory. Concurrent misses on the same key load it once.
type CachedReader struct {
	next    StatsReader
	stats   *lru.Cache[BatchKey, stats.RowGroup]
	layouts *lru.Cache[int64, []int]
	group   singleflight.Group
	logger  log.Logger
	metrics *Metrics
}

// CacheOption configures a CachedReader.
type CacheOption func(*CachedReader)

// WithCacheLogger sets the logger used for load events.
func WithCacheLogger(logger log.Logger) CacheOption {
	return func(c *CachedReader) { c.logger = logger }
}

// WithCacheMetrics records hits, misses and loads.
func WithCacheMetrics(m *Metrics) CacheOption {
	return func(c *CachedReader) { c.metrics = m }
}

// NewCachedReader wraps next with an LRU cache of size row groups. A size of
// zero or less selects DefaultCacheSize.
func NewCachedReader(next StatsReader, size int, opts ...CacheOption) (*CachedReader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	statsCache, err := lru.New[BatchKey, stats.RowGroup](size)
	if err != nil {
		return nil, errors.Wrap(err, "create statistics cache")
	}
	layouts, err := lru.New[int64, []int](size)
	if err != nil {
		return nil, errors.Wrap(err, "create layout cache")
	}
	c := &CachedReader{
		next:    next,
		stats:   statsCache,
		layouts: layouts,
		logger:  log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *CachedReader) observe(hit bool) {
	if c.metrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.metrics.CacheRequests.WithLabelValues(result).Inc()
}

func (c *CachedReader) loaded(err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.Loads.Inc()
	if err != nil {
		c.metrics.LoadFailures.Inc()
	}
}

func (c *CachedReader) Layout(ctx context.Context, fileID int64) ([]int, error) {
	if layout, ok := c.layouts.Get(fileID); ok {
		c.observe(true)
		return layout, nil
	}
	c.observe(false)
	v, err, _ := c.group.Do("layout/"+strconv.FormatInt(fileID, 10), func() (interface{}, error) {
		if layout, ok := c.layouts.Peek(fileID); ok {
			return layout, nil
		}
		layout, err := c.next.Layout(ctx, fileID)
		c.loaded(err)
		if err != nil {
			return nil, err
		}
		c.layouts.Add(fileID, layout)
		return layout, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]int), nil
}

func (c *CachedReader) RowGroupStatistics(ctx context.Context, key BatchKey) (stats.RowGroup, error) {
	if rg, ok := c.stats.Get(key); ok {
		c.observe(true)
		return rg, nil
	}
	c.observe(false)
	v, err, shared := c.group.Do(key.String(), func() (interface{}, error) {
		// A load that finished between Get and Do already filled the cache.
		if rg, ok := c.stats.Peek(key); ok {
			return rg, nil
		}
		rg, err := c.next.RowGroupStatistics(ctx, key)
		c.loaded(err)
		if err != nil {
			return nil, err
		}
		c.stats.Add(key, rg)
		return rg, nil
	})
	if err != nil {
		level.Debug(c.logger).Log("msg", "failed to load statistics", "key", key, "err", err)
		return nil, err
	}
	if shared {
		level.Debug(c.logger).Log("msg", "shared statistics load", "key", key)
	}
	return v.(stats.RowGroup), nil
}

// Len returns the number of cached row groups.
func (c *CachedReader) Len() int { return c.stats.Len() }

// Purge drops every cached entry.
func (c *CachedReader) Purge() {
	c.stats.Purge()
	c.layouts.Purge()
}
