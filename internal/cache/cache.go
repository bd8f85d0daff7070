// Package cache keeps hot friend-id lists in Redis so the feed ranker does
// not hit the document store for every request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/memoriesapp/memories-service/internal/storage"
)

const (
	friendsKey = "user:friends:%s"

	// Friend lists change only on accepts, which invalidate explicitly;
	// the TTL just bounds staleness if an invalidation is lost.
	friendsCacheDuration = 5 * time.Minute
)

// FriendCache caches friend-id lists with read-through loading.
type FriendCache struct {
	storage storage.Storage
	redis   *redis.Client
}

func NewFriendCache(st storage.Storage, redisClient *redis.Client) *FriendCache {
	return &FriendCache{storage: st, redis: redisClient}
}

// FriendIDs returns the cached friend ids for a user, loading and caching
// them from storage on a miss.
func (c *FriendCache) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	key := fmt.Sprintf(friendsKey, userID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var friends []string
		if err := json.Unmarshal([]byte(cached), &friends); err == nil {
			return friends, nil
		}
	}

	user, err := c.storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(user.Friends)
	c.redis.Set(ctx, key, data, friendsCacheDuration)

	return user.Friends, nil
}

// Invalidate drops a user's cached friend list; called after a friend
// accept touches the user document.
func (c *FriendCache) Invalidate(ctx context.Context, userIDs ...string) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, fmt.Sprintf(friendsKey, id))
	}
	c.redis.Del(ctx, keys...)
}
