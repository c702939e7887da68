// Package analysistest provides an in-process analysis.Interpreter for tests.
package analysistest

import (
	"context"
	"sync"

	"github.com/neurodash/neurodash/internal/analysis"
)

var _ analysis.Interpreter = (*Fake)(nil)

// Fake returns canned results. Set Err to make every call fail.
type Fake struct {
	mu sync.Mutex

	Err   error
	Dream *analysis.DreamInterpretation
	Reply string
	Mood  *analysis.Mood

	lastHistory []analysis.Turn
	calls       int
}

// New returns a Fake with plausible results.
func New() *Fake {
	return &Fake{
		Dream: &analysis.DreamInterpretation{
			Symbols:  []string{"water", "door"},
			Emotions: []analysis.Emotion{{Emotion: "fear", Intensity: 6}},
			Text:     "A change is coming.",
		},
		Reply: "Hello!",
		Mood: &analysis.Mood{
			PrimaryMood: "calm",
			Intensity:   0.4,
			Emotions:    map[string]float64{"calm": 0.8},
		},
	}
}

// SetErr makes every following call fail with err.
func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// LastHistory returns the history passed to the last Respond call.
func (f *Fake) LastHistory() []analysis.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastHistory
}

// Calls returns the number of calls made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) InterpretDream(_ context.Context, _ string) (*analysis.DreamInterpretation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}
	out := *f.Dream
	return &out, nil
}

func (f *Fake) Respond(_ context.Context, history []analysis.Turn, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastHistory = history
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

func (f *Fake) AnalyzeMood(_ context.Context, _ string) (*analysis.Mood, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}
	out := *f.Mood
	return &out, nil
}
