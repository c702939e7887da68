package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/neurodash/neurodash/internal/database"
)

// SettingsCachePrefix is the key prefix of cached user settings.
const SettingsCachePrefix = "user-settings-"

// SettingsCache caches stored user settings by user ID.
// Cache failures are logged and treated as misses.
type SettingsCache struct {
	cache *PrefixedCache[database.UserSettings]
}

// NewSettingsCache creates a settings cache on top of store.
func NewSettingsCache(store *cache.Cache[any], ttl time.Duration) *SettingsCache {
	return &SettingsCache{
		cache: NewPrefixedCache[database.UserSettings](store, SettingsCachePrefix, ttl),
	}
}

// Get returns the cached settings of a user.
func (s *SettingsCache) Get(ctx context.Context, userID uint) (*database.UserSettings, bool) {
	settings, err := s.cache.Get(ctx, userID)
	if err != nil {
		return nil, false
	}
	return &settings, true
}

// Set caches the settings of a user.
func (s *SettingsCache) Set(ctx context.Context, settings *database.UserSettings) {
	if settings == nil {
		return
	}
	if err := s.cache.Set(ctx, settings.UserID, *settings); err != nil {
		log.Warn("failed to cache user settings", "user_id", settings.UserID, "error", err)
	}
}

// Invalidate drops the cached settings of a user.
func (s *SettingsCache) Invalidate(ctx context.Context, userID uint) {
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Debug("failed to invalidate cached user settings", "user_id", userID, "error", err)
	}
}

// Stats returns hit and miss counters.
func (s *SettingsCache) Stats() *codec.Stats {
	return s.cache.GetStats()
}
