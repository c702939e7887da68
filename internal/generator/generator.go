// Package generator produces the synthetic health metrics and EEG-like waveforms shown on the dashboard.
//
// Scalar metrics follow a bounded random walk. Waveforms are fixed length buffers
// fed with a noisy sine per band. Readers never see partially updated state:
// every tick publishes a new immutable Snapshot.
package generator

import (
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
)

// DefaultBufferSize is the number of points kept per waveform band.
const DefaultBufferSize = 50

// Metrics is the current value of every simulated metric.
type Metrics struct {
	HeartRate      float64 `json:"heartRate"`
	StressLevel    float64 `json:"stressLevel"`
	SleepQuality   float64 `json:"sleepQuality"`
	NeuralActivity float64 `json:"neuralActivity"`
	DailySteps     float64 `json:"dailySteps"`
	SleepDuration  float64 `json:"sleepDuration"`
}

// Snapshot is an immutable view of the generator state.
type Snapshot struct {
	Metrics   Metrics   `json:"metrics"`
	Alpha     []float64 `json:"alpha"`
	Beta      []float64 `json:"beta"`
	Tick      uint64    `json:"tick"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// walk describes the bounded random walk of one metric.
type walk struct {
	delta    float64
	min, max float64
}

// step moves v by a uniform amount in [-delta, +delta] and clamps the result.
func (w walk) step(r *rand.Rand, v float64) float64 {
	return lo.Clamp(v+(r.Float64()*2-1)*w.delta, w.min, w.max)
}

var (
	heartRateWalk      = walk{delta: 3, min: 60, max: 100}
	stressLevelWalk    = walk{delta: 5, min: 0, max: 100}
	sleepQualityWalk   = walk{delta: 3, min: 0, max: 100}
	neuralActivityWalk = walk{delta: 4, min: 0, max: 100}
)

// maxStepsPerTick bounds the daily steps increment.
const maxStepsPerTick = 50

// InitialMetrics are the values a new generator starts from.
var InitialMetrics = Metrics{
	HeartRate:      72,
	StressLevel:    35,
	SleepQuality:   80,
	NeuralActivity: 60,
	DailySteps:     0,
	SleepDuration:  7.5,
}

// Generator owns the simulation state. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	rand    *rand.Rand
	metrics Metrics
	alpha   *band
	beta    *band
	tick    uint64
	now     func() time.Time

	snapshot atomic.Pointer[Snapshot]
}

type Option func(*Generator)

// WithRand sets the random source. Tests use it to get reproducible walks.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rand = r
	}
}

// WithBufferSize sets the waveform buffer length.
func WithBufferSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.alpha = newBand(alphaBand, n)
			g.beta = newBand(betaBand, n)
		}
	}
}

// WithInitialMetrics overrides the starting values.
func WithInitialMetrics(m Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		rand:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec
		metrics: InitialMetrics,
		alpha:   newBand(alphaBand, DefaultBufferSize),
		beta:    newBand(betaBand, DefaultBufferSize),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.metrics = clampMetrics(g.metrics)

	g.mu.Lock()
	g.publish()
	g.mu.Unlock()
	return g
}

// Snapshot returns the latest published state. The returned value must not be modified.
func (g *Generator) Snapshot() *Snapshot {
	return g.snapshot.Load()
}

// TickMetrics advances the scalar metrics by one step.
func (g *Generator) TickMetrics() {
	g.mu.Lock()
	defer g.mu.Unlock()

	m := g.metrics
	m.HeartRate = heartRateWalk.step(g.rand, m.HeartRate)
	m.StressLevel = stressLevelWalk.step(g.rand, m.StressLevel)
	m.SleepQuality = sleepQualityWalk.step(g.rand, m.SleepQuality)
	m.NeuralActivity = neuralActivityWalk.step(g.rand, m.NeuralActivity)
	m.DailySteps += math.Floor(g.rand.Float64() * (maxStepsPerTick + 1))
	g.metrics = m

	g.publish()
}

// TickWaveforms appends one point to every waveform band.
func (g *Generator) TickWaveforms() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.alpha.advance(g.rand)
	g.beta.advance(g.rand)

	g.publish()
}

// publish stores a fresh snapshot. Callers must hold g.mu.
func (g *Generator) publish() {
	g.tick++
	g.snapshot.Store(&Snapshot{
		Metrics:   g.metrics,
		Alpha:     g.alpha.values(),
		Beta:      g.beta.values(),
		Tick:      g.tick,
		UpdatedAt: g.now().UTC(),
	})
}

func clampMetrics(m Metrics) Metrics {
	m.HeartRate = lo.Clamp(m.HeartRate, heartRateWalk.min, heartRateWalk.max)
	m.StressLevel = lo.Clamp(m.StressLevel, stressLevelWalk.min, stressLevelWalk.max)
	m.SleepQuality = lo.Clamp(m.SleepQuality, sleepQualityWalk.min, sleepQualityWalk.max)
	m.NeuralActivity = lo.Clamp(m.NeuralActivity, neuralActivityWalk.min, neuralActivityWalk.max)
	m.DailySteps = max(m.DailySteps, 0)
	return m
}
