package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCacheInvalidation(t *testing.T) {
	require.NoError(t, InitCache())
	t.Cleanup(func() { Cache.Close(); Cache = nil })

	alice, bob := uuid.New(), uuid.New()
	aliceKey := UserCacheKey(alice, "dashboard:summary")
	bobKey := UserCacheKey(bob, "dashboard:summary")

	SetUserCache(alice, aliceKey, 1500, time.Minute)
	SetUserCache(bob, bobKey, 200, time.Minute)
	Cache.Wait()

	v, ok := GetCache(aliceKey)
	require.True(t, ok)
	assert.Equal(t, 1500, v)

	UserCacheInvalidator{}.InvalidateUser(alice)

	_, ok = GetCache(aliceKey)
	assert.False(t, ok)
	v, ok = GetCache(bobKey)
	require.True(t, ok)
	assert.Equal(t, 200, v)
}

func TestCacheHelpersAreNoopsWithoutCache(t *testing.T) {
	Cache = nil
	userID := uuid.New()

	SetUserCache(userID, "k", "v", time.Minute)
	SetSharedCache("categories", "v", time.Minute)
	ClearUserCaches(userID)
	ClearAllCaches()

	_, ok := GetCache("k")
	assert.False(t, ok)
}
