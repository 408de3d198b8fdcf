package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feeds/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix        = "user:%d"
	SessionKeyPrefix     = "session:%s"
	UserSessionKeyPrefix = "user_session:%d"
)

const (
	UserTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func SessionKey(token string) string {
	return fmt.Sprintf(SessionKeyPrefix, token)
}

// UserSessionKey holds the token a user's SessionKey entries must match.
func UserSessionKey(userID uint) string {
	return fmt.Sprintf(UserSessionKeyPrefix, userID)
}

// Aside returns the cached value at key, or calls fetch and stores its result
// for ttl. A nil rdb or any Redis failure falls through to fetch.
func Aside[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if rdb == nil {
		return fetch(ctx)
	}

	raw, err := rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err.Error())
	}

	value, err := fetch(ctx)
	if err != nil {
		return value, err
	}

	if encoded, jsonErr := json.Marshal(value); jsonErr == nil {
		if setErr := rdb.Set(ctx, key, encoded, ttl).Err(); setErr != nil {
			middleware.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", setErr.Error())
		}
	}
	return value, nil
}

// Invalidate deletes keys, ignoring a nil client.
func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", "keys", keys, "error", err.Error())
	}
}

// InvalidateUsers drops cached profiles for every id.
func InvalidateUsers(ctx context.Context, rdb *redis.Client, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, UserKey(id))
	}
	Invalidate(ctx, rdb, keys...)
}
