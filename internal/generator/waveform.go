package generator

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
)

// WaveformLimit bounds every waveform sample to [-WaveformLimit, WaveformLimit].
const WaveformLimit = 100

// bandSpec describes one frequency band of the simulated EEG.
type bandSpec struct {
	// phaseStep is the phase advance per tick in radians.
	phaseStep float64
	amplitude float64
	noise     float64
}

var (
	// alpha (8-12Hz) is the slow, low amplitude band.
	alphaBand = bandSpec{phaseStep: 0.35, amplitude: 30, noise: 5}
	// beta (13-30Hz) advances faster and swings wider.
	betaBand = bandSpec{phaseStep: 0.9, amplitude: 55, noise: 10}
)

// band is a fixed length buffer of waveform samples, oldest first.
type band struct {
	spec  bandSpec
	phase float64
	buf   []float64
}

func newBand(spec bandSpec, size int) *band {
	return &band{
		spec: spec,
		buf:  make([]float64, size),
	}
}

// advance drops the oldest point and appends sin(phase)*amplitude plus noise.
func (b *band) advance(r *rand.Rand) {
	b.phase = math.Mod(b.phase+b.spec.phaseStep, 2*math.Pi)
	noise := (r.Float64()*2 - 1) * b.spec.noise
	v := lo.Clamp(math.Sin(b.phase)*b.spec.amplitude+noise, -WaveformLimit, WaveformLimit)

	copy(b.buf, b.buf[1:])
	b.buf[len(b.buf)-1] = v
}

func (b *band) values() []float64 {
	return slices.Clone(b.buf)
}
