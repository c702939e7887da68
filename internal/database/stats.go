package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// RecordCounts summarizes the records stored for a user.
type RecordCounts struct {
	MetricSamples int64
	DreamRecords  int64
	ChatMessages  int64
	HasSettings   bool
	// LastSampleAt is nil if the user has no metric samples.
	LastSampleAt *time.Time
}

func (c *Client) CountRecords(ctx context.Context, userID uint) (*RecordCounts, error) {
	var counts RecordCounts
	var settings int64

	g, gctx := errgroup.WithContext(ctx)
	count := func(model any, dst *int64) func() error {
		return func() error {
			return c.db.WithContext(gctx).Model(model).Where("user_id = ?", userID).Count(dst).Error
		}
	}
	g.Go(count(&MetricSample{}, &counts.MetricSamples))
	g.Go(count(&DreamRecord{}, &counts.DreamRecords))
	g.Go(count(&ChatMessage{}, &counts.ChatMessages))
	g.Go(count(&UserSettings{}, &settings))
	g.Go(func() error {
		var latest []MetricSample
		if err := c.db.WithContext(gctx).
			Where("user_id = ?", userID).
			Order("timestamp DESC").
			Limit(1).
			Find(&latest).Error; err != nil {
			return err
		}
		if len(latest) == 1 {
			counts.LastSampleAt = &latest[0].Timestamp
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("failed to count records", "user_id", userID, "error", err)
		return nil, storageErr(err)
	}
	counts.HasSettings = settings > 0
	return &counts, nil
}
