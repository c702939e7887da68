package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// MetricSample is a single health metrics reading. Samples are append-only.
type MetricSample struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         uint      `gorm:"index:idx_metric_user_time,priority:1;not null"`
	Timestamp      time.Time `gorm:"index:idx_metric_user_time,priority:2;not null"`
	HeartRate      float64   `gorm:"not null"`
	StressLevel    float64   `gorm:"not null"`
	SleepQuality   float64   `gorm:"not null"`
	NeuralActivity float64   `gorm:"not null"`
	DailySteps     *int64
	SleepDuration  *float64
}

func (c *Client) CreateMetricSample(ctx context.Context, userID uint, sample MetricSample) (*MetricSample, error) {
	sample.ID = 0
	sample.UserID = userID
	sample.Timestamp = c.clock.Next()
	if err := c.db.WithContext(ctx).Create(&sample).Error; err != nil {
		log.Error("failed to create metric sample", "user_id", userID, "error", err)
		return nil, storageErr(err)
	}
	return &sample, nil
}

func (c *Client) ListMetricSamples(ctx context.Context, userID uint, limit int) ([]MetricSample, error) {
	samples := []MetricSample{}
	if err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(normalizeLimit(limit, DefaultMetricLimit)).
		Find(&samples).Error; err != nil {
		log.Error("failed to list metric samples", "user_id", userID, "error", err)
		return nil, storageErr(err)
	}
	return samples, nil
}
