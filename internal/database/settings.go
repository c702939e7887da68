package database

import (
	"context"
	"errors"
	"maps"

	"github.com/charmbracelet/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserSettings holds the dashboard preferences of a user. There is at most one row per user.
type UserSettings struct {
	ID                uint                                   `gorm:"primaryKey"`
	UserID            uint                                   `gorm:"uniqueIndex;not null"`
	Theme             string                                 `gorm:"not null"`
	ElectrodeCount    int                                    `gorm:"not null"`
	SamplingRate      int                                    `gorm:"not null"`
	AlertThresholds   datatypes.JSONType[map[string]float64] `gorm:"not null"`
	AnimationsEnabled bool                                   `gorm:"not null"`
}

// SettingsPatch is a partial settings update. Nil fields are left untouched.
type SettingsPatch struct {
	Theme             *string
	ElectrodeCount    *int
	SamplingRate      *int
	AlertThresholds   map[string]float64
	AnimationsEnabled *bool
}

// Thresholds returns a copy of the alert thresholds, never nil.
func (s *UserSettings) Thresholds() map[string]float64 {
	out := make(map[string]float64)
	maps.Copy(out, s.AlertThresholds.Data())
	return out
}

// DefaultSettings returns the built-in settings used for fields never set by the user.
func DefaultSettings() UserSettings {
	return UserSettings{
		Theme:             "dark",
		ElectrodeCount:    64,
		SamplingRate:      500,
		AlertThresholds:   datatypes.NewJSONType(map[string]float64{}),
		AnimationsEnabled: true,
	}
}

// MergeSettings resolves every field with the precedence patch > existing > defaults.
// existing may be nil. Identity fields are taken from existing when present.
// AlertThresholds is replaced as a whole when the patch carries it.
func MergeSettings(defaults UserSettings, existing *UserSettings, patch SettingsPatch) UserSettings {
	merged := defaults
	merged.AlertThresholds = datatypes.NewJSONType(defaults.Thresholds())
	if existing != nil {
		merged = *existing
		merged.AlertThresholds = datatypes.NewJSONType(existing.Thresholds())
	}

	if patch.Theme != nil {
		merged.Theme = *patch.Theme
	}
	if patch.ElectrodeCount != nil {
		merged.ElectrodeCount = *patch.ElectrodeCount
	}
	if patch.SamplingRate != nil {
		merged.SamplingRate = *patch.SamplingRate
	}
	if patch.AlertThresholds != nil {
		thresholds := make(map[string]float64, len(patch.AlertThresholds))
		maps.Copy(thresholds, patch.AlertThresholds)
		merged.AlertThresholds = datatypes.NewJSONType(thresholds)
	}
	if patch.AnimationsEnabled != nil {
		merged.AnimationsEnabled = *patch.AnimationsEnabled
	}
	return merged
}

func (c *Client) UpsertSettings(ctx context.Context, userID uint, patch SettingsPatch) (*UserSettings, error) {
	var merged UserSettings
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findExisting := func(dest *UserSettings) error {
			query := tx.Where("user_id = ?", userID)
			if tx.Dialector.Name() == "postgres" {
				query = query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
			}
			return query.First(dest).Error
		}

		var existing UserSettings
		err := findExisting(&existing)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			merged = MergeSettings(DefaultSettings(), nil, patch)
			merged.ID = 0
			merged.UserID = userID
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoNothing: true,
			}).Create(&merged)
			if res.Error != nil || res.RowsAffected > 0 {
				return res.Error
			}
			// a concurrent first upsert won, merge over its row
			if err := findExisting(&existing); err != nil {
				return err
			}
			merged = MergeSettings(DefaultSettings(), &existing, patch)
			return tx.Save(&merged).Error
		case err != nil:
			return err
		default:
			merged = MergeSettings(DefaultSettings(), &existing, patch)
			return tx.Save(&merged).Error
		}
	})
	if err != nil {
		log.Error("failed to upsert user settings", "user_id", userID, "error", err)
		return nil, storageErr(err)
	}
	return &merged, nil
}

func (c *Client) GetSettings(ctx context.Context, userID uint) (*UserSettings, error) {
	var settings UserSettings
	if err := c.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Error("failed to get user settings", "user_id", userID, "error", err)
		return nil, storageErr(err)
	}
	return &settings, nil
}
