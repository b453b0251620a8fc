// Package weathercache memoizes weather snapshots per city and coalesces
// concurrent lookups for the same city into a single upstream call.
package weathercache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/metrics"
	"github.com/d-kovalchuk/weather-notify-api/internal/models"
)

type weatherGetter interface {
	GetByCity(ctx context.Context, city string) (models.WeatherData, error)
}

// entry is either a settled snapshot (fetchedAt set) or an in-flight fetch
// whose waiters block on done. data and err must only be read after done is
// closed.
type entry struct {
	done      chan struct{}
	data      models.WeatherData
	err       error
	fetchedAt time.Time
}

// Cache is the resolution layer the dispatch scheduler reads weather
// through. Freshness and in-flight registration are checked under one
// mutex so concurrent cycles cannot race a second fetch past an
// about-to-expire entry. The upstream call itself runs outside the lock.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*entry

	source       weatherGetter
	ttl          time.Duration
	fetchTimeout time.Duration
	log          *zap.Logger
	m            *metrics.Metrics
}

func New(
	source weatherGetter,
	ttl, fetchTimeout time.Duration,
	log *zap.Logger,
	m *metrics.Metrics,
) *Cache {
	return &Cache{
		entries:      make(map[string]*entry),
		inflight:     make(map[string]*entry),
		source:       source,
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		log:          log.With(zap.String("component", "WeatherCache")),
		m:            m,
	}
}

// GetByCity returns a fresh cached snapshot, attaches to an in-flight fetch,
// or issues a single upstream call. Failed fetches are propagated to every
// waiter and never cached.
func (c *Cache) GetByCity(ctx context.Context, city string) (models.WeatherData, error) {
	c.mu.Lock()
	if e, ok := c.entries[city]; ok {
		if time.Since(e.fetchedAt) < c.ttl {
			data := e.data
			c.mu.Unlock()
			c.m.CacheHits.Inc()
			return data, nil
		}
		delete(c.entries, city)
	}

	if f, ok := c.inflight[city]; ok {
		c.mu.Unlock()
		c.m.CacheCoalesced.Inc()
		select {
		case <-f.done:
			return f.data, f.err
		case <-ctx.Done():
			return models.WeatherData{}, ctx.Err()
		}
	}

	f := &entry{done: make(chan struct{})}
	c.inflight[city] = f
	c.mu.Unlock()

	c.m.CacheMisses.Inc()

	// The fetch is bounded and detached from the caller's context: a
	// canceled waiter must not fail the call for everyone attached to it.
	fetchCtx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	data, err := c.source.GetByCity(fetchCtx, city)

	c.mu.Lock()
	delete(c.inflight, city)
	f.data = data
	f.err = err
	if err == nil {
		f.fetchedAt = time.Now()
		c.entries[city] = f
	}
	c.mu.Unlock()
	close(f.done)

	if err != nil {
		c.log.Warn("weather resolution failed", zap.String("city", city), zap.Error(err))
		return models.WeatherData{}, err
	}
	return data, nil
}
