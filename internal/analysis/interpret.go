package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// HistoryTurns is the number of previous chat turns sent as context.
const HistoryTurns = 10

const (
	dreamPrompt = `You interpret dreams. Reply with a JSON object with the keys ` +
		`"symbols" (array of short strings), "emotions" (array of objects with "emotion" and ` +
		`"intensity" from 0 to 10) and "interpretation" (a few sentences).`
	chatPrompt = `You are a friendly assistant inside a brain and health monitoring dashboard. ` +
		`Answer briefly and never give medical diagnoses.`
	moodPrompt = `You classify the mood of a text. Reply with a JSON object with the keys ` +
		`"primaryMood" (one word), "intensity" (0 to 1) and "emotions" (object of emotion to score 0 to 1).`
)

// Emotion is a named emotion with an intensity between 0 and 10.
type Emotion struct {
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

// DreamInterpretation is the structured result of interpreting a dream.
type DreamInterpretation struct {
	Symbols  []string  `json:"symbols"`
	Emotions []Emotion `json:"emotions"`
	Text     string    `json:"interpretation"`
}

// Mood is the result of a mood analysis.
type Mood struct {
	PrimaryMood string             `json:"primaryMood"`
	Intensity   float64            `json:"intensity"`
	Emotions    map[string]float64 `json:"emotions"`
}

// Turn is one message of a conversation.
type Turn struct {
	Text       string
	IsFromUser bool
}

// InterpretDream extracts symbols and emotions from a dream and writes an interpretation.
func (c *Client) InterpretDream(ctx context.Context, dreamText string) (*DreamInterpretation, error) {
	content, err := c.complete(ctx, "interpret_dream", []chatMessage{
		{Role: "system", Content: dreamPrompt},
		{Role: "user", Content: dreamText},
	}, true)
	if err != nil {
		return nil, err
	}
	return parseDreamInterpretation(content)
}

// Respond answers message, using the last HistoryTurns turns of history as context.
// history must be in conversation order.
func (c *Client) Respond(ctx context.Context, history []Turn, message string) (string, error) {
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}

	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: chatPrompt})
	for _, turn := range history {
		role := "assistant"
		if turn.IsFromUser {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, chatMessage{Role: "user", Content: message})

	content, err := c.complete(ctx, "respond", messages, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// AnalyzeMood classifies the mood of text.
func (c *Client) AnalyzeMood(ctx context.Context, text string) (*Mood, error) {
	content, err := c.complete(ctx, "analyze_mood", []chatMessage{
		{Role: "system", Content: moodPrompt},
		{Role: "user", Content: text},
	}, true)
	if err != nil {
		return nil, err
	}
	return parseMood(content)
}

func parseDreamInterpretation(content string) (*DreamInterpretation, error) {
	var out DreamInterpretation
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("%w: malformed interpretation: %w", ErrUpstream, err)
	}

	out.Symbols = lo.Filter(lo.Map(out.Symbols, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}), func(s string, _ int) bool {
		return s != ""
	})
	out.Emotions = lo.FilterMap(out.Emotions, func(e Emotion, _ int) (Emotion, bool) {
		e.Emotion = strings.TrimSpace(e.Emotion)
		e.Intensity = lo.Clamp(e.Intensity, 0, 10)
		return e, e.Emotion != ""
	})
	if out.Symbols == nil {
		out.Symbols = []string{}
	}
	if out.Emotions == nil {
		out.Emotions = []Emotion{}
	}
	out.Text = strings.TrimSpace(out.Text)
	return &out, nil
}

func parseMood(content string) (*Mood, error) {
	var out Mood
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("%w: malformed mood analysis: %w", ErrUpstream, err)
	}
	out.PrimaryMood = strings.TrimSpace(out.PrimaryMood)
	if out.PrimaryMood == "" {
		return nil, fmt.Errorf("%w: mood analysis without primary mood", ErrUpstream)
	}
	out.Intensity = lo.Clamp(out.Intensity, 0, 1)
	if out.Emotions == nil {
		out.Emotions = map[string]float64{}
	}
	for k, v := range out.Emotions {
		out.Emotions[k] = lo.Clamp(v, 0, 1)
	}
	return &out, nil
}
