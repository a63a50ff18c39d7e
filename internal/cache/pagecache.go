package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/puzpuzpuz/xsync"
	"github.com/redis/go-redis/v9"
)

// PageStore is the fiber.Storage behind the whole-page cache. It keeps
// entries in Redis under PageKeyPrefix when a client is available and in a
// process-local map otherwise.
type PageStore struct {
	rdb   *redis.Client
	local *xsync.MapOf[string, pageEntry]
}

type pageEntry struct {
	val       []byte
	expiresAt time.Time
}

var _ fiber.Storage = (*PageStore)(nil)

// NewPageStore returns a store using rdb, or an in-process map when rdb is nil.
func NewPageStore(rdb *redis.Client) *PageStore {
	return &PageStore{
		rdb:   rdb,
		local: xsync.NewMapOf[pageEntry](),
	}
}

// Backend names the active backend for logs.
func (s *PageStore) Backend() string {
	if s.rdb != nil {
		return "redis"
	}
	return "memory"
}

func (s *PageStore) Get(key string) ([]byte, error) {
	if s.rdb != nil {
		val, err := s.rdb.Get(context.Background(), PageKeyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return val, err
	}

	e, ok := s.local.Load(key)
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.local.Delete(key)
		return nil, nil
	}
	return e.val, nil
}

func (s *PageStore) Set(key string, val []byte, exp time.Duration) error {
	if len(key) == 0 || len(val) == 0 {
		return nil
	}
	if s.rdb != nil {
		return s.rdb.Set(context.Background(), PageKeyPrefix+key, val, exp).Err()
	}

	e := pageEntry{val: append([]byte(nil), val...)}
	if exp > 0 {
		e.expiresAt = time.Now().Add(exp)
	}
	s.local.Store(key, e)
	return nil
}

func (s *PageStore) Delete(key string) error {
	if s.rdb != nil {
		return s.rdb.Del(context.Background(), PageKeyPrefix+key).Err()
	}
	s.local.Delete(key)
	return nil
}

// Reset drops every cached page.
func (s *PageStore) Reset() error {
	if s.rdb != nil {
		ctx := context.Background()
		iter := s.rdb.Scan(ctx, 0, PageKeyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		return iter.Err()
	}

	s.local.Range(func(key string, _ pageEntry) bool {
		s.local.Delete(key)
		return true
	})
	return nil
}

// Close is a no-op: the Redis client is owned by the package.
func (s *PageStore) Close() error {
	return nil
}
