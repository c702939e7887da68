package engine

import (
	"context"
	"sync"

	"github.com/neurodash/neurodash/internal/database"
)

// lockSettings serializes cache fills and updates of one user's settings,
// so a fill can never overwrite the entry of a newer update.
func (e *Engine) lockSettings(userID uint) func() {
	v, _ := e.settingsLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// GetSettings returns the stored settings of a user, or nil if the user never saved any.
func (e *Engine) GetSettings(ctx context.Context, userID uint) (*database.UserSettings, error) {
	if cached, ok := e.settings.Get(ctx, userID); ok {
		return cached, nil
	}

	unlock := e.lockSettings(userID)
	defer unlock()

	// an update may have filled the cache while we waited
	if cached, ok := e.settings.Get(ctx, userID); ok {
		return cached, nil
	}

	settings, err := e.db.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		e.settings.Set(ctx, settings)
	}
	return settings, nil
}

// UpdateSettings merges patch into the settings of a user and returns the result.
func (e *Engine) UpdateSettings(ctx context.Context, userID uint, patch database.SettingsPatch) (*database.UserSettings, error) {
	unlock := e.lockSettings(userID)
	defer unlock()

	// a failed upsert must not leave a stale entry behind
	e.settings.Invalidate(ctx, userID)

	settings, err := e.db.UpsertSettings(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	e.settings.Set(ctx, settings)
	return settings, nil
}

// EffectiveSettings returns the stored settings or the defaults.
func (e *Engine) EffectiveSettings(ctx context.Context, userID uint) (*database.UserSettings, error) {
	settings, err := e.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		defaults := database.DefaultSettings()
		defaults.UserID = userID
		return &defaults, nil
	}
	return settings, nil
}
