package pagecraft

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eringen/pagecraft/builder"
)

const redisKeyPrefix = "pagecraft:page:"

// PublicResolver looks up the active document for a slug.
type PublicResolver interface {
	ResolvePublic(ctx context.Context, slug string) (*builder.Document, error)
}

type cachedPage struct {
	doc     *builder.Document
	fetched time.Time
}

// PageCache is an in-memory TTL cache of public documents keyed by slug,
// with an optional Redis level shared between instances. Misses are not
// cached, so a page goes live as soon as the save that activates it
// invalidates the slug.
type PageCache struct {
	mu    sync.RWMutex
	pages map[string]cachedPage
	ttl   time.Duration
	store PublicResolver
	redis *redis.Client
	log   *zap.Logger
	now   func() time.Time
}

// NewPageCache creates a PageCache backed by store.
func NewPageCache(store PublicResolver, ttl time.Duration, log *zap.Logger) *PageCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageCache{
		pages: make(map[string]cachedPage),
		ttl:   ttl,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// UseRedis adds a Redis level parsed from url and checks it responds.
func (c *PageCache) UseRedis(ctx context.Context, url string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return err
	}
	c.redis = client
	return nil
}

// Close releases the Redis connection, if any.
func (c *PageCache) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// Get returns a copy of the public document for slug.
func (c *PageCache) Get(ctx context.Context, slug string) (*builder.Document, error) {
	c.mu.RLock()
	p, ok := c.pages[slug]
	c.mu.RUnlock()
	if ok && c.now().Sub(p.fetched) < c.ttl {
		return p.doc.Clone(), nil
	}

	if doc := c.fromRedis(ctx, slug); doc != nil {
		c.put(slug, doc)
		return doc.Clone(), nil
	}

	doc, err := c.store.ResolvePublic(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.put(slug, doc)
	c.toRedis(ctx, slug, doc)
	return doc.Clone(), nil
}

func (c *PageCache) put(slug string, doc *builder.Document) {
	c.mu.Lock()
	c.pages[slug] = cachedPage{doc: doc, fetched: c.now()}
	c.mu.Unlock()
}

func (c *PageCache) fromRedis(ctx context.Context, slug string) *builder.Document {
	if c.redis == nil {
		return nil
	}
	data, err := c.redis.Get(ctx, redisKeyPrefix+slug).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("page cache: redis get", zap.String("slug", slug), zap.Error(err))
		}
		return nil
	}
	var doc builder.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.log.Warn("page cache: decode", zap.String("slug", slug), zap.Error(err))
		return nil
	}
	return &doc
}

func (c *PageCache) toRedis(ctx context.Context, slug string, doc *builder.Document) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, redisKeyPrefix+slug, data, c.ttl).Err(); err != nil {
		c.log.Warn("page cache: redis set", zap.String("slug", slug), zap.Error(err))
	}
}

// Invalidate drops the given slugs from both levels.
func (c *PageCache) Invalidate(ctx context.Context, slugs ...string) {
	c.mu.Lock()
	for _, s := range slugs {
		delete(c.pages, s)
	}
	c.mu.Unlock()
	if c.redis == nil || len(slugs) == 0 {
		return
	}
	keys := make([]string, len(slugs))
	for i, s := range slugs {
		keys[i] = redisKeyPrefix + s
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("page cache: redis del", zap.Strings("slugs", slugs), zap.Error(err))
	}
}

// Len reports the number of in-memory entries, fresh or stale.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}
