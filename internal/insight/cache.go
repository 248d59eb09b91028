package insight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FloatinggOnion/vogu-health-be/internal"
)

type entryState int

const (
	statePending entryState = iota
	stateReady
	stateFailed
)

// cacheEntry is the per-fingerprint state machine: pending → ready | failed.
// done is closed exactly once, when the entry leaves pending.
type cacheEntry struct {
	state     entryState
	insight   *internal.Insight
	err       error
	done      chan struct{}
	readyAt   time.Time
	expiresAt time.Time
}

// Cache maps fingerprints to generated insights and guarantees at most one
// in-flight generation per fingerprint. Failed entries are not memoized: the
// next request for the same fingerprint re-attempts. Ready entries live for
// the configured TTL, bounded by maxSize (oldest ready entries evicted first;
// pending entries are never evicted).
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	maxSize int
	logger  internal.Logger
	now     func() time.Time
}

func NewCache(ttl time.Duration, maxSize int, logger internal.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		logger:  logger,
		now:     time.Now,
	}
}

// Lease authorizes its holder to run the external generation for one
// fingerprint and publish the result. Exactly one of Complete or Fail must
// be called, once.
type Lease struct {
	cache       *Cache
	fingerprint string
	entry       *cacheEntry
}

// ReserveResult is the outcome of ReserveOrGet. Exactly one of the three
// cases holds: Insight non-nil (hit), Lease non-nil (caller generates), or
// neither (another caller is generating; use Wait).
type ReserveResult struct {
	Insight *internal.Insight
	Lease   *Lease
	entry   *cacheEntry
}

// ReserveOrGet returns a cached insight, grants a generation lease, or hands
// back a wait handle for an in-flight generation.
func (c *Cache) ReserveOrGet(fingerprint string) ReserveResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()

	if e, ok := c.entries[fingerprint]; ok {
		switch e.state {
		case stateReady:
			if c.now().Before(e.expiresAt) {
				return ReserveResult{Insight: e.insight}
			}
			// expired; fall through to re-reserve
		case statePending:
			return ReserveResult{entry: e}
		case stateFailed:
			// re-attempt below
		default:
			c.logger.Errorf("%v: fingerprint %s state %d, dropping entry",
				internal.ErrCacheCorruption, fingerprint, e.state)
		}
	}

	e := &cacheEntry{state: statePending, done: make(chan struct{})}
	c.entries[fingerprint] = e
	return ReserveResult{
		Lease: &Lease{cache: c, fingerprint: fingerprint, entry: e},
		entry: e,
	}
}

// Wait blocks until the entry resolves or ctx expires. A wait timeout fails
// only this caller; the underlying generation keeps running and its eventual
// result still lands in the cache.
func (r ReserveResult) Wait(ctx context.Context) (*internal.Insight, error) {
	if r.Insight != nil {
		return r.Insight, nil
	}
	if r.entry == nil {
		return nil, fmt.Errorf("%w: wait on empty reservation", internal.ErrCacheCorruption)
	}
	select {
	case <-r.entry.done:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: gave up waiting for insight generation", internal.ErrTimeout)
	}
	if r.entry.state == stateReady {
		return r.entry.insight, nil
	}
	return nil, r.entry.err
}

// Complete publishes a generated insight and wakes all waiters.
func (l *Lease) Complete(ins *internal.Insight) {
	l.cache.mu.Lock()
	defer l.cache.mu.Unlock()
	if l.entry.state != statePending {
		l.cache.logger.Errorf("%v: completing fingerprint %s twice",
			internal.ErrCacheCorruption, l.fingerprint)
		return
	}
	now := l.cache.now()
	l.entry.state = stateReady
	l.entry.insight = ins
	l.entry.readyAt = now
	l.entry.expiresAt = now.Add(l.cache.ttl)
	close(l.entry.done)
}

// Fail publishes a generation failure. All current waiters receive err; the
// entry is forgotten so the next request retries.
func (l *Lease) Fail(err error) {
	l.cache.mu.Lock()
	defer l.cache.mu.Unlock()
	if l.entry.state != statePending {
		l.cache.logger.Errorf("%v: failing fingerprint %s twice",
			internal.ErrCacheCorruption, l.fingerprint)
		return
	}
	l.entry.state = stateFailed
	l.entry.err = err
	close(l.entry.done)
	if cur, ok := l.cache.entries[l.fingerprint]; ok && cur == l.entry {
		delete(l.cache.entries, l.fingerprint)
	}
}

// sweepLocked drops expired entries and enforces the size bound.
func (c *Cache) sweepLocked() {
	now := c.now()
	for fp, e := range c.entries {
		if e.state == stateReady && !now.Before(e.expiresAt) {
			delete(c.entries, fp)
		}
	}
	for len(c.entries) > c.maxSize {
		oldestFP := ""
		var oldest time.Time
		for fp, e := range c.entries {
			if e.state != stateReady {
				continue
			}
			if oldestFP == "" || e.readyAt.Before(oldest) {
				oldestFP, oldest = fp, e.readyAt
			}
		}
		if oldestFP == "" {
			return // nothing evictable; only pending entries remain
		}
		delete(c.entries, oldestFP)
	}
}

// Clear drops every entry. Pending waiters are unaffected: their entries
// resolve through the lease they were created with.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
