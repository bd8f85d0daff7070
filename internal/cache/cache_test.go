package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriesapp/memories-service/internal/storage/memory"
	"github.com/memoriesapp/memories-service/internal/types/users"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFriendIDsReadThrough(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cache := NewFriendCache(store, setupTestRedis(t))

	aID, err := store.CreateUser(ctx, &users.User{FirstName: "A", LastName: "A", Email: "a@x.com"})
	require.NoError(t, err)
	bID, err := store.CreateUser(ctx, &users.User{FirstName: "B", LastName: "B", Email: "b@x.com"})
	require.NoError(t, err)
	require.NoError(t, store.AddFriend(ctx, aID, bID))

	friends, err := cache.FriendIDs(ctx, aID)
	require.NoError(t, err)
	assert.Equal(t, []string{bID}, friends)

	// stale until invalidated: a direct store write is not observed
	cID, err := store.CreateUser(ctx, &users.User{FirstName: "C", LastName: "C", Email: "c@x.com"})
	require.NoError(t, err)
	require.NoError(t, store.AddFriend(ctx, aID, cID))

	friends, err = cache.FriendIDs(ctx, aID)
	require.NoError(t, err)
	assert.Equal(t, []string{bID}, friends)

	cache.Invalidate(ctx, aID)
	friends, err = cache.FriendIDs(ctx, aID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{bID, cID}, friends)
}

func TestFriendIDsUnknownUser(t *testing.T) {
	cache := NewFriendCache(memory.New(), setupTestRedis(t))

	_, err := cache.FriendIDs(context.Background(), "missing")
	assert.Error(t, err)
}
