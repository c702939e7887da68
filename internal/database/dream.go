package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/datatypes"
)

// Emotion is a named emotion with an intensity between 0 and 10.
type Emotion struct {
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

// DreamRecord is a dream journal entry together with its interpretation.
type DreamRecord struct {
	ID           uint                         `gorm:"primaryKey"`
	UserID       uint                         `gorm:"index:idx_dream_user_time,priority:1;not null"`
	Timestamp    time.Time                    `gorm:"index:idx_dream_user_time,priority:2;not null"`
	DreamText    string                       `gorm:"type:text;not null"`
	Symbols      datatypes.JSONSlice[string]  `gorm:"not null"`
	Emotions     datatypes.JSONSlice[Emotion] `gorm:"not null"`
	AnalysisText *string                      `gorm:"type:text"`
}

func (c *Client) CreateDreamRecord(ctx context.Context, userID uint, dream DreamRecord) (*DreamRecord, error) {
	dream.ID = 0
	dream.UserID = userID
	dream.Timestamp = c.clock.Next()
	normalizeDream(&dream)
	if err := c.db.WithContext(ctx).Create(&dream).Error; err != nil {
		log.Error("failed to create dream record", "user_id", userID, "error", err)
		return nil, storageErr(err)
	}
	return &dream, nil
}

func (c *Client) ListDreamRecords(ctx context.Context, userID uint, limit int) ([]DreamRecord, error) {
	dreams := []DreamRecord{}
	if err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(normalizeLimit(limit, DefaultDreamLimit)).
		Find(&dreams).Error; err != nil {
		log.Error("failed to list dream records", "user_id", userID, "error", err)
		return nil, storageErr(err)
	}
	return dreams, nil
}

// normalizeDream replaces nil collections with empty ones so they are stored as [].
func normalizeDream(d *DreamRecord) {
	if d.Symbols == nil {
		d.Symbols = datatypes.JSONSlice[string]{}
	}
	if d.Emotions == nil {
		d.Emotions = datatypes.JSONSlice[Emotion]{}
	}
}
