package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/neurodash/neurodash/internal/analysis"
	"github.com/neurodash/neurodash/internal/database"
	"github.com/neurodash/neurodash/internal/metrics"
	"github.com/samber/lo"
	"gorm.io/datatypes"
)

// ListMetrics returns the newest metric samples of a user.
func (e *Engine) ListMetrics(ctx context.Context, userID uint, limit int) ([]database.MetricSample, error) {
	return e.db.ListMetricSamples(ctx, userID, limit)
}

// RecordMetric stores a metric sample.
func (e *Engine) RecordMetric(ctx context.Context, userID uint, sample database.MetricSample) (*database.MetricSample, error) {
	created, err := e.db.CreateMetricSample(ctx, userID, sample)
	if err != nil {
		return nil, err
	}
	metrics.RecordCreated("metric_sample")
	return created, nil
}

// ListDreams returns the newest dream records of a user.
func (e *Engine) ListDreams(ctx context.Context, userID uint, limit int) ([]database.DreamRecord, error) {
	return e.db.ListDreamRecords(ctx, userID, limit)
}

// RecordDream interprets a dream and stores it together with the interpretation.
// Nothing is stored if the interpretation fails.
func (e *Engine) RecordDream(ctx context.Context, userID uint, dreamText string) (*database.DreamRecord, error) {
	dreamText = strings.TrimSpace(dreamText)
	if dreamText == "" {
		return nil, fmt.Errorf("%w: dream text is required", ErrInvalidInput)
	}

	interpretation, err := e.analysis.InterpretDream(ctx, dreamText)
	if err != nil {
		log.Error("failed to interpret dream", "user_id", userID, "error", err)
		return nil, err
	}

	dream := database.DreamRecord{
		DreamText: dreamText,
		Symbols:   datatypes.JSONSlice[string](interpretation.Symbols),
		Emotions: lo.Map(interpretation.Emotions, func(em analysis.Emotion, _ int) database.Emotion {
			return database.Emotion{Emotion: em.Emotion, Intensity: em.Intensity}
		}),
	}
	if interpretation.Text != "" {
		dream.AnalysisText = lo.ToPtr(interpretation.Text)
	}

	created, err := e.db.CreateDreamRecord(ctx, userID, dream)
	if err != nil {
		return nil, err
	}
	metrics.RecordCreated("dream_record")
	return created, nil
}

// ListChat returns the tail of the conversation of a user in conversational order.
func (e *Engine) ListChat(ctx context.Context, userID uint, limit int) ([]database.ChatMessage, error) {
	return e.db.ListChatMessages(ctx, userID, limit)
}

// SendChat asks the assistant for a reply to message and stores both messages.
// Nothing is stored if the assistant fails to answer. The stored reply is returned.
func (e *Engine) SendChat(ctx context.Context, userID uint, message string) (*database.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	history, err := e.db.ListChatMessages(ctx, userID, analysis.HistoryTurns)
	if err != nil {
		return nil, err
	}
	turns := lo.Map(history, func(m database.ChatMessage, _ int) analysis.Turn {
		return analysis.Turn{Text: m.Text, IsFromUser: m.IsFromUser}
	})

	reply, err := e.analysis.Respond(ctx, turns, message)
	if err != nil {
		log.Error("failed to get chat reply", "user_id", userID, "error", err)
		return nil, err
	}

	_, assistant, err := e.db.CreateChatExchange(ctx, userID, message, reply)
	if err != nil {
		return nil, err
	}
	metrics.RecordsCreated("chat_message", 2)
	return assistant, nil
}

// AnalyzeMood classifies the mood of text. The result is not stored.
func (e *Engine) AnalyzeMood(ctx context.Context, text string) (*analysis.Mood, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	return e.analysis.AnalyzeMood(ctx, text)
}
