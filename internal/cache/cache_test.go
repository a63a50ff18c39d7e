package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestAside(t *testing.T) {
	mr, _ := setupMiniredis(t)
	ctx := context.Background()

	type group struct {
		Slug  string
		Title string
	}

	calls := 0
	fetch := func(dest *group) func() error {
		return func() error {
			calls++
			*dest = group{Slug: "cats", Title: "Cats"}
			return nil
		}
	}

	var first group
	require.NoError(t, Aside(ctx, GroupKey("cats"), &first, GroupTTL, fetch(&first)))
	assert.Equal(t, "Cats", first.Title)
	assert.True(t, mr.Exists(GroupKey("cats")))

	var second group
	require.NoError(t, Aside(ctx, GroupKey("cats"), &second, GroupTTL, fetch(&second)))
	assert.Equal(t, "Cats", second.Title)
	assert.Equal(t, 1, calls)

	InvalidateGroup(ctx, "cats")
	assert.False(t, mr.Exists(GroupKey("cats")))
}

func TestAsidePropagatesFetchError(t *testing.T) {
	setupMiniredis(t)
	var dest string
	err := Aside(context.Background(), "k", &dest, time.Minute, func() error {
		return errors.New("not found")
	})
	assert.EqualError(t, err, "not found")
}

func TestAsideWithoutRedis(t *testing.T) {
	SetClient(nil)
	var dest int
	require.NoError(t, Aside(context.Background(), "k", &dest, time.Minute, func() error {
		dest = 5
		return nil
	}))
	assert.Equal(t, 5, dest)
}

func TestPageStoreRedis(t *testing.T) {
	mr, rdb := setupMiniredis(t)
	store := NewPageStore(rdb)
	assert.Equal(t, "redis", store.Backend())

	require.NoError(t, store.Set("/?page=1", []byte("<html>"), 20*time.Second))
	assert.True(t, mr.Exists(PageKeyPrefix+"/?page=1"))

	got, err := store.Get("/?page=1")
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>"), got)

	missing, err := store.Get("/?page=2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, rdb.Set(context.Background(), "unrelated", "v", 0).Err())
	require.NoError(t, store.Reset())
	assert.False(t, mr.Exists(PageKeyPrefix+"/?page=1"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestPageStoreMemory(t *testing.T) {
	store := NewPageStore(nil)
	assert.Equal(t, "memory", store.Backend())

	require.NoError(t, store.Set("a", []byte("1"), time.Minute))
	require.NoError(t, store.Set("b", []byte("2"), time.Nanosecond))
	time.Sleep(time.Millisecond)

	got, err := store.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	expired, err := store.Get("b")
	require.NoError(t, err)
	assert.Nil(t, expired)

	require.NoError(t, store.Delete("a"))
	got, _ = store.Get("a")
	assert.Nil(t, got)

	require.NoError(t, store.Set("c", []byte("3"), 0))
	require.NoError(t, store.Reset())
	got, _ = store.Get("c")
	assert.Nil(t, got)
}
