package db

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
)

// Cache keys are tracked per user so a ledger write can drop everything that
// was derived from that user's balances. Shared keys hold data that is the
// same for every user (the category list).
var (
	Cache         *ristretto.Cache
	UserCacheKeys = struct {
		sync.RWMutex
		m map[uuid.UUID]map[string]struct{}
	}{m: make(map[uuid.UUID]map[string]struct{})}
	SharedCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
)

func InitCache() error {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	return err
}

func UserCacheKey(userID uuid.UUID, name string) string {
	return name + ":" + userID.String()
}

func GetCache(cacheKey string) (interface{}, bool) {
	if Cache == nil {
		return nil, false
	}
	return Cache.Get(cacheKey)
}

// User Cache Functions
func SetUserCache(userID uuid.UUID, cacheKey string, value interface{}, ttl time.Duration) {
	if Cache == nil {
		return
	}
	UserCacheKeys.Lock()
	keys, ok := UserCacheKeys.m[userID]
	if !ok {
		keys = make(map[string]struct{})
		UserCacheKeys.m[userID] = keys
	}
	keys[cacheKey] = struct{}{}
	UserCacheKeys.Unlock()
	Cache.SetWithTTL(cacheKey, value, 1, ttl)
}

func ClearUserCaches(userID uuid.UUID) {
	if Cache == nil {
		return
	}
	UserCacheKeys.Lock()
	for key := range UserCacheKeys.m[userID] {
		Cache.Del(key)
	}
	delete(UserCacheKeys.m, userID)
	UserCacheKeys.Unlock()
}

// Shared Cache Functions
func SetSharedCache(cacheKey string, value interface{}, ttl time.Duration) {
	if Cache == nil {
		return
	}
	SharedCacheKeys.Lock()
	SharedCacheKeys.m[cacheKey] = struct{}{}
	SharedCacheKeys.Unlock()
	Cache.SetWithTTL(cacheKey, value, 1, ttl)
}

func ClearSharedCaches() {
	if Cache == nil {
		return
	}
	SharedCacheKeys.Lock()
	for key := range SharedCacheKeys.m {
		Cache.Del(key)
	}
	SharedCacheKeys.m = make(map[string]struct{})
	SharedCacheKeys.Unlock()
}

func ClearAllCaches() {
	if Cache == nil {
		return
	}
	UserCacheKeys.Lock()
	UserCacheKeys.m = make(map[uuid.UUID]map[string]struct{})
	UserCacheKeys.Unlock()
	ClearSharedCaches()
	Cache.Clear()
}

// UserCacheInvalidator drops a user's cached views after their ledger changes.
type UserCacheInvalidator struct{}

func (UserCacheInvalidator) InvalidateUser(userID uuid.UUID) {
	ClearUserCaches(userID)
}
