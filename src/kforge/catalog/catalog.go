// Package catalog lists the kernel releases a plan can target. Listings
// come from a Source (normally kernel.org), are kept in an on-disk snapshot
// for a TTL, and degrade to a stale snapshot or a built-in list when the
// source fails. Listing never returns an error.
package catalog

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/bitswalk/kforge/src/common/logs"
	"golang.org/x/sync/singleflight"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the catalog package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// DefaultTTL is how long a snapshot is served without asking the source
const DefaultTTL = 24 * time.Hour

// Catalog serves kernel version listings
type Catalog struct {
	source Source
	cache  *Cache
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group
}

// Option configures a Catalog
type Option func(*Catalog)

// WithCache enables snapshot persistence
func WithCache(c *Cache) Option {
	return func(cat *Catalog) {
		cat.cache = c
	}
}

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(cat *Catalog) {
		if ttl > 0 {
			cat.ttl = ttl
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(cat *Catalog) {
		if now != nil {
			cat.now = now
		}
	}
}

// New creates a catalog backed by source
func New(source Source, opts ...Option) *Catalog {
	c := &Catalog{
		source: source,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the snapshot freshness window
func (c *Catalog) TTL() time.Duration {
	return c.ttl
}

// List returns the known kernel versions. Unless force is set, a fresh
// snapshot is served without contacting the source.
func (c *Catalog) List(ctx context.Context, force bool) []KernelVersion {
	return c.Resolve(ctx, force).Versions
}

// ListAsync runs List in a goroutine. The channel yields exactly one
// listing and is then closed.
func (c *Catalog) ListAsync(ctx context.Context, force bool) <-chan []KernelVersion {
	ch := make(chan []KernelVersion, 1)
	go func() {
		defer close(ch)
		ch <- c.List(ctx, force)
	}()
	return ch
}

// Resolve is List with provenance
func (c *Catalog) Resolve(ctx context.Context, force bool) Result {
	cached := c.loadCache()

	if !force && cached != nil && c.fresh(cached.CachedAt) && len(cached.Versions) > 0 {
		log.Debug("Serving cached kernel catalog", "age", c.now().Sub(cached.CachedAt).Round(time.Second), "count", len(cached.Versions))
		return Result{Versions: cloneVersions(cached.Versions), CachedAt: cached.CachedAt, Origin: OriginCache}
	}

	// Concurrent refreshes share one fetch. It outlives the caller that
	// started it; the HTTP client timeout bounds it.
	v, _, _ := c.group.Do("refresh", func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx), cached), nil
	})
	res := v.(Result)
	res.Versions = cloneVersions(res.Versions)
	return res
}

func (c *Catalog) refresh(ctx context.Context, cached *Snapshot) Result {
	fetched, err := c.fetch(ctx)
	if err == nil {
		snap := Snapshot{Versions: fetched, CachedAt: c.now().UTC()}
		c.storeCache(snap)
		return Result{Versions: snap.Versions, CachedAt: snap.CachedAt, Origin: OriginRemote}
	}

	if cached != nil && len(cached.Versions) > 0 {
		log.Warn("Kernel catalog refresh failed, serving stale cache", "error", err, "cached_at", cached.CachedAt)
		return Result{Versions: cached.Versions, CachedAt: cached.CachedAt, Origin: OriginStaleCache}
	}

	log.Warn("Kernel catalog refresh failed, serving built-in list", "error", err)
	return Result{Versions: Fallback(), Origin: OriginFallback}
}

func (c *Catalog) fetch(ctx context.Context) ([]KernelVersion, error) {
	if c.source == nil {
		return nil, errors.New("no catalog source configured")
	}
	versions, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	versions = normalizeEntries(versions)
	if len(versions) == 0 {
		return nil, errors.New("catalog source returned no usable versions")
	}
	return versions, nil
}

// fresh reports whether a snapshot taken at t is inside the TTL. A
// timestamp in the future means the clock moved and counts as stale.
func (c *Catalog) fresh(t time.Time) bool {
	age := c.now().Sub(t)
	return age >= 0 && age < c.ttl
}

func (c *Catalog) loadCache() *Snapshot {
	if c.cache == nil {
		return nil
	}
	snap, err := c.cache.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Debug("Ignoring unreadable kernel catalog cache", "path", c.cache.Path(), "error", err)
		}
		return nil
	}
	return snap
}

func (c *Catalog) storeCache(snap Snapshot) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Store(snap); err != nil {
		log.Warn("Failed to persist kernel catalog cache", "path", c.cache.Path(), "error", err)
	}
}
