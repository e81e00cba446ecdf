package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// QueryCache stores encoded query results over a CacheInterface backend.
// Values are kept as JSON bytes so a snapshot taken before an optimistic
// mutation can be put back byte for byte on either backend.
//
// Every key carries a generation counter. Cancel and Invalidate bump it, and
// a fetch that started under an older generation does not write its result,
// which is how in-flight refetches are cancelled.
type QueryCache struct {
	store      CacheInterface
	defaultTTL time.Duration
	metrics    *metrics.MetricsRegistry

	flight singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
	ttls map[string]time.Duration
}

func NewQueryCache(store CacheInterface, defaultTTL time.Duration, m *metrics.MetricsRegistry) *QueryCache {
	return &QueryCache{
		store:      store,
		defaultTTL: defaultTTL,
		metrics:    m,
		gens:       make(map[string]uint64),
		ttls:       make(map[string]time.Duration),
	}
}

// Snapshot holds the raw bytes of a set of keys; a nil entry means the key
// was absent.
type Snapshot map[string][]byte

// Fetch returns the cached value for key or loads it. Concurrent fetches of
// the same key share one load.
func Fetch[T any](ctx context.Context, q *QueryCache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	pattern := keyPattern(key)

	if raw, ok := q.GetData(key); ok {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			q.metrics.CacheHit(pattern)
			return out, nil
		}
		logging.Warn("Dropping undecodable cache entry", "key", key)
		q.store.Delete(key)
	}
	q.metrics.CacheMiss(pattern)

	gen := q.generation(key)
	v, err, _ := q.flight.Do(flightKey(key, gen), func() (interface{}, error) {
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		if q.generation(key) == gen {
			q.setRaw(key, raw, ttl)
		} else {
			logging.Debug("Discarding cancelled refetch", "key", key)
		}
		return raw, nil
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(v.([]byte), &out); err != nil {
		return zero, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// Update applies fn to the cached value of key. A missing key is left
// missing.
func Update[T any](q *QueryCache, key string, fn func(T) T) error {
	raw, ok := q.GetData(key)
	if !ok {
		return nil
	}
	var cur T
	if err := json.Unmarshal(raw, &cur); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	next, err := json.Marshal(fn(cur))
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	q.setRaw(key, next, q.ttlFor(key))
	return nil
}

// GetData returns the raw bytes stored under key.
func (q *QueryCache) GetData(key string) ([]byte, bool) {
	v, ok := q.store.Get(key)
	if !ok {
		return nil, false
	}
	switch raw := v.(type) {
	case []byte:
		return raw, true
	case string:
		return []byte(raw), true
	}
	return nil, false
}

// SetData stores raw bytes under key and supersedes any in-flight fetch.
func (q *QueryCache) SetData(key string, raw []byte, ttl time.Duration) {
	q.bump(key)
	q.setRaw(key, raw, ttl)
}

// Cancel stops in-flight fetches of keys from writing their results.
func (q *QueryCache) Cancel(keys ...string) {
	for _, k := range keys {
		q.bump(k)
	}
}

// Invalidate drops every entry whose key starts with one of prefixes and
// cancels their in-flight fetches. An exact key is its own prefix.
func (q *QueryCache) Invalidate(prefixes ...string) {
	for _, p := range prefixes {
		q.mu.Lock()
		for k := range q.gens {
			if strings.HasPrefix(k, p) {
				q.gens[k]++
			}
		}
		q.mu.Unlock()

		n := q.store.DeleteByPrefix(p)
		logging.Debug("Invalidated cache prefix", "prefix", p, "removed", n)
	}
}

// Snapshot copies the current bytes of keys.
func (q *QueryCache) Snapshot(keys ...string) Snapshot {
	snap := make(Snapshot, len(keys))
	for _, k := range keys {
		if raw, ok := q.GetData(k); ok {
			cp := make([]byte, len(raw))
			copy(cp, raw)
			snap[k] = cp
		} else {
			snap[k] = nil
		}
	}
	return snap
}

// Restore puts a snapshot back verbatim, deleting keys that were absent.
func (q *QueryCache) Restore(snap Snapshot) {
	for k, raw := range snap {
		q.bump(k)
		if raw == nil {
			q.store.Delete(k)
			continue
		}
		q.setRaw(k, raw, q.ttlFor(k))
	}
}

func (q *QueryCache) setRaw(key string, raw []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = q.defaultTTL
	}
	q.mu.Lock()
	q.ttls[key] = ttl
	q.mu.Unlock()
	q.store.Set(key, raw, ttl)
}

func (q *QueryCache) ttlFor(key string) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	if ttl, ok := q.ttls[key]; ok {
		return ttl
	}
	return q.defaultTTL
}

func (q *QueryCache) generation(key string) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	g, ok := q.gens[key]
	if !ok {
		q.gens[key] = 0
	}
	return g
}

func (q *QueryCache) bump(key string) {
	q.mu.Lock()
	q.gens[key]++
	q.mu.Unlock()
}

func flightKey(key string, gen uint64) string {
	return fmt.Sprintf("%s#%d", key, gen)
}

// keyPattern maps a key to its cache prefix for metric labels.
func keyPattern(key string) string {
	best := ""
	for _, p := range constants.CachePrefixes {
		if strings.HasPrefix(key, string(p)) && len(p) > len(best) {
			best = string(p)
		}
	}
	if best == "" {
		return "other"
	}
	return best
}
