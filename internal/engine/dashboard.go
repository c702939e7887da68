package engine

import (
	"context"

	"github.com/neurodash/neurodash/internal/database"
	"github.com/neurodash/neurodash/internal/generator"
	"golang.org/x/sync/errgroup"
)

// DashboardDreamLimit is the number of recent dreams in a dashboard summary.
const DashboardDreamLimit = 5

// Dashboard summarizes the state of a user.
type Dashboard struct {
	// LatestMetric is nil if the user has no samples.
	LatestMetric *database.MetricSample
	Settings     *database.UserSettings
	RecentDreams []database.DreamRecord
	Counts       *database.RecordCounts
	Signals      *generator.Snapshot
}

// Dashboard loads the dashboard summary of a user concurrently.
func (e *Engine) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	d := &Dashboard{Signals: e.generator.Snapshot()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		samples, err := e.db.ListMetricSamples(gctx, userID, 1)
		if err != nil {
			return err
		}
		if len(samples) > 0 {
			d.LatestMetric = &samples[0]
		}
		return nil
	})
	g.Go(func() error {
		settings, err := e.EffectiveSettings(gctx, userID)
		d.Settings = settings
		return err
	})
	g.Go(func() error {
		dreams, err := e.db.ListDreamRecords(gctx, userID, DashboardDreamLimit)
		d.RecentDreams = dreams
		return err
	})
	g.Go(func() error {
		counts, err := e.db.CountRecords(gctx, userID)
		d.Counts = counts
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
