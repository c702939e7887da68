package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neurodash/neurodash/internal/generator"
	"github.com/neurodash/neurodash/internal/metrics"
	"github.com/neurodash/neurodash/internal/scheduler"
)

// Job IDs of the generator jobs.
const (
	MetricsJobID  = "generator-metrics"
	WaveformJobID = "generator-waveform"
)

// GetScheduler returns the scheduler instance for API access.
func (e *Engine) GetScheduler() *scheduler.Scheduler {
	return e.scheduler
}

// Run starts the background jobs and blocks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e.scheduler.Start()

	<-ctx.Done()
	return nil
}

// Close stops the engine and cleans up resources.
func (e *Engine) Close() error {
	return e.scheduler.Stop()
}

// Signals returns the latest generator snapshot.
func (e *Engine) Signals() *generator.Snapshot {
	return e.generator.Snapshot()
}

func (e *Engine) setupJobs() error {
	if err := e.scheduler.AddIntervalJob(
		MetricsJobID,
		"Metrics Generator",
		"Advances the simulated health metrics",
		e.cfg.Generator.MetricsInterval,
		e.tickMetrics,
	); err != nil {
		return fmt.Errorf("failed to add metrics job: %w", err)
	}

	if err := e.scheduler.AddIntervalJob(
		WaveformJobID,
		"Waveform Generator",
		"Appends a point to every waveform band",
		e.cfg.Generator.WaveformInterval,
		e.tickWaveforms,
	); err != nil {
		return fmt.Errorf("failed to add waveform job: %w", err)
	}

	log.Debug("Scheduled jobs configured successfully")
	return nil
}

func (e *Engine) tickMetrics(_ context.Context) error {
	e.generator.TickMetrics()
	metrics.GeneratorTick("metrics")

	m := e.generator.Snapshot().Metrics
	metrics.SetGeneratorValue("heart_rate", m.HeartRate)
	metrics.SetGeneratorValue("stress_level", m.StressLevel)
	metrics.SetGeneratorValue("sleep_quality", m.SleepQuality)
	metrics.SetGeneratorValue("neural_activity", m.NeuralActivity)
	metrics.SetGeneratorValue("daily_steps", m.DailySteps)
	return nil
}

func (e *Engine) tickWaveforms(_ context.Context) error {
	e.generator.TickWaveforms()
	metrics.GeneratorTick("waveform")
	return nil
}
