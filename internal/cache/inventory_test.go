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

type profile struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestAside(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) (profile, error) {
		calls++
		return profile{ID: 1, Name: "ada"}, nil
	}

	got, err := Aside(ctx, rdb, UserKey(1), UserTTL, fetch)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Name)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("user:1"))
	assert.Equal(t, UserTTL, mr.TTL("user:1"))

	got, err = Aside(ctx, rdb, UserKey(1), UserTTL, fetch)
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.ID)
	assert.Equal(t, 1, calls, "second read is served from cache")

	InvalidateUsers(ctx, rdb, 1)
	assert.False(t, mr.Exists("user:1"))

	_, err = Aside(ctx, rdb, UserKey(1), UserTTL, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	_, err := Aside(context.Background(), rdb, "user:9", time.Minute, func(context.Context) (profile, error) {
		return profile{}, errors.New("db down")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists("user:9"))
}

func TestAside_NilClient(t *testing.T) {
	got, err := Aside(context.Background(), nil, "user:1", time.Minute, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	Invalidate(context.Background(), nil, "user:1")
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	_ = rdb.Close()

	rdb, err = NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = rdb.Close()

	_, err = NewClient(context.Background(), "redis://:bad url")
	assert.Error(t, err)
}
