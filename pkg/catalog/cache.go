package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// cachedCatalog is a read-through Redis cache in front of another
// Catalog, typically a database-backed one. Cache failures are not
// fatal: lookups fall back to the wrapped catalog, so a degraded Redis
// only costs latency, never correctness.
type cachedCatalog struct {
	client redis.UniversalClient
	next   Catalog
	ttl    time.Duration
	prefix string
}

// CacheOption configures a cached catalog.
type CacheOption func(*cachedCatalog)

// WithKeyPrefix overrides the cache key prefix. Default "catalog:".
func WithKeyPrefix(prefix string) CacheOption {
	return func(c *cachedCatalog) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// NewCachedCatalog wraps next with a read-through Redis cache. Entries
// expire after ttl; a non-positive ttl defaults to five minutes.
func NewCachedCatalog(client redis.UniversalClient, next Catalog, ttl time.Duration, opts ...CacheOption) Catalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &cachedCatalog{
		client: client,
		next:   next,
		ttl:    ttl,
		prefix: "catalog:",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *cachedCatalog) ResolveFeature(ctx context.Context, ref FeatureRef) (*Feature, error) {
	if f, ok := ref.Resolved(); ok {
		return &f, nil
	}
	if ref.IsZero() {
		return nil, ErrEmptyRef
	}

	key := c.featureKey(ref)
	if f := lookup[Feature](ctx, c.client, key); f != nil {
		return f, nil
	}

	f, err := c.next.ResolveFeature(ctx, ref)
	if err != nil {
		return nil, err
	}

	c.put(ctx, key, f)
	return f, nil
}

func (c *cachedCatalog) ResolvePlan(ctx context.Context, ref PlanRef) (*Plan, error) {
	if p, ok := ref.Resolved(); ok {
		return &p, nil
	}
	if ref.IsZero() {
		return nil, ErrEmptyRef
	}

	key := c.planKey(ref)
	if p := lookup[Plan](ctx, c.client, key); p != nil {
		return p, nil
	}

	p, err := c.next.ResolvePlan(ctx, ref)
	if err != nil {
		return nil, err
	}

	c.put(ctx, key, p)
	return p, nil
}

func (c *cachedCatalog) featureKey(ref FeatureRef) string {
	if id, ok := ref.ID(); ok {
		return c.prefix + "feature:id:" + id.String()
	}
	slug, _ := ref.Slug()
	return c.prefix + "feature:slug:" + slug
}

func (c *cachedCatalog) planKey(ref PlanRef) string {
	if id, ok := ref.ID(); ok {
		return c.prefix + "plan:id:" + id.String()
	}
	slug, _ := ref.Slug()
	return c.prefix + "plan:slug:" + slug
}

func (c *cachedCatalog) put(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Best effort: a failed SET leaves the next lookup to miss again.
	_ = c.client.Set(ctx, key, data, c.ttl).Err()
}

func lookup[T any](ctx context.Context, client redis.UniversalClient, key string) *T {
	// Both a true miss and an infrastructure error read as a miss; the
	// caller falls back to the wrapped catalog either way.
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return &v
}
