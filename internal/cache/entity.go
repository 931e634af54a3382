// Package cache provides a read-through, invalidate-on-write cache for
// remote-backed entities, scoped to the current session identity.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/caffeinepub/calorie-burn-tracker/internal/observability"
	"github.com/caffeinepub/calorie-burn-tracker/internal/session"
)

// Entity caches one remote-backed value. Reads never return an error: an
// unauthenticated session or a failed fetch yields the declared empty value.
// Stored values are tagged with the session epoch and an invalidation
// generation; a fetch completing after either has moved on is discarded.
type Entity[V any] struct {
	name  string
	gate  *session.Gate
	fetch func(ctx context.Context) (V, error)
	empty func() V
	ttl   time.Duration
	log   *zap.Logger

	group singleflight.Group

	mu        sync.Mutex
	val       V
	has       bool
	fetchedAt time.Time
	epoch     uint64
	gen       uint64
}

// NewEntity builds a cache for one key. empty is called whenever the key's
// declared empty value is needed; ttl zero means values never go stale by
// time alone.
func NewEntity[V any](name string, gate *session.Gate, fetch func(ctx context.Context) (V, error), empty func() V, ttl time.Duration, log *zap.Logger) *Entity[V] {
	return &Entity[V]{
		name:  name,
		gate:  gate,
		fetch: fetch,
		empty: empty,
		ttl:   ttl,
		log:   log,
	}
}

// Read returns the cached value, fetching through to the remote when the
// entry is absent, invalidated, or expired. Concurrent readers of a cold key
// share one outstanding fetch.
func (e *Entity[V]) Read(ctx context.Context) V {
	if !e.gate.Authenticated() {
		observability.RecordCacheBypass(e.name)
		return e.empty()
	}

	if v, ok := e.cached(); ok {
		observability.RecordCacheRead(e.name, true)
		return v
	}
	observability.RecordCacheRead(e.name, false)

	result, _, _ := e.group.Do(e.name, func() (interface{}, error) {
		epoch := e.gate.Epoch()
		e.mu.Lock()
		gen := e.gen
		e.mu.Unlock()

		val, err := e.fetch(ctx)
		if err != nil {
			e.log.Warn("entity fetch failed, serving empty value",
				zap.String("entity", e.name),
				zap.Error(err))
			val = e.empty()
		}

		if epoch != e.gate.Epoch() {
			// The session changed while the fetch was in flight; the
			// result belongs to the previous identity.
			return e.empty(), nil
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.gen {
			// Invalidated mid-flight. Hand the value to the readers that
			// joined this fetch but do not store a pre-invalidation
			// snapshot.
			return val, nil
		}
		e.val = val
		e.has = true
		e.fetchedAt = time.Now()
		e.epoch = epoch
		return val, nil
	})
	return result.(V)
}

// cached returns the stored value when it is still usable.
func (e *Entity[V]) cached() (V, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var zero V
	if !e.has {
		return zero, false
	}
	if e.epoch != e.gate.Epoch() {
		return zero, false
	}
	if e.ttl > 0 && time.Since(e.fetchedAt) >= e.ttl {
		return zero, false
	}
	return e.val, true
}

// Invalidate drops the entry so the next Read re-fetches. A fetch already in
// flight is detached: its result is returned to its own callers but never
// stored, so reads issued after this call observe only post-invalidation
// state.
func (e *Entity[V]) Invalidate() {
	e.mu.Lock()
	var zero V
	e.val = zero
	e.has = false
	e.gen++
	e.mu.Unlock()
	e.group.Forget(e.name)
	observability.RecordCacheInvalidation(e.name)
}

// Clear is invalidation on session transitions.
func (e *Entity[V]) Clear() {
	e.Invalidate()
}

// Name identifies the entity in logs and metrics.
func (e *Entity[V]) Name() string { return e.name }
