package server

import (
	"strconv"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	fibercache "github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/redis/go-redis/v9"
)

// PageCache memoizes whole rendered pages for a fixed window. Entries are
// keyed by the full URL and the viewer, and are never invalidated by writes:
// they only expire or get dropped by Reset.
type PageCache struct {
	store *cache.PageStore
	ttl   time.Duration
}

func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	return &PageCache{store: cache.NewPageStore(rdb), ttl: ttl}
}

// Handler caches GET responses of the route it is mounted on.
func (p *PageCache) Handler() fiber.Handler {
	if p.ttl <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	mw := fibercache.New(fibercache.Config{
		Expiration:   p.ttl,
		Storage:      p.store,
		CacheHeader:  "X-Cache",
		KeyGenerator: pageKey,
	})

	return func(c *fiber.Ctx) error {
		err := mw(c)
		switch result := strings.ToLower(c.GetRespHeader("X-Cache")); result {
		case "hit", "miss", "unreachable":
			observability.PageCacheRequests.WithLabelValues(result).Inc()
		}
		return err
	}
}

// Reset drops every cached page.
func (p *PageCache) Reset() error {
	return p.store.Reset()
}

func (p *PageCache) Backend() string {
	return p.store.Backend()
}

func pageKey(c *fiber.Ctx) string {
	return c.OriginalURL() + "|u" + strconv.FormatUint(uint64(middleware.CurrentUserID(c)), 10)
}
