package models

import (
	"github.com/neurodash/neurodash/internal/analysis"
	"github.com/neurodash/neurodash/internal/database"
	"github.com/neurodash/neurodash/internal/engine"
	"github.com/samber/lo"
)

// ToUser converts a database.User to its wire form.
func ToUser(u *database.User) User {
	return User{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// ToMetricSample converts a database.MetricSample to its wire form.
func ToMetricSample(m database.MetricSample) MetricSample {
	return MetricSample{
		ID:             m.ID,
		UserID:         m.UserID,
		Timestamp:      m.Timestamp,
		HeartRate:      m.HeartRate,
		StressLevel:    m.StressLevel,
		SleepQuality:   m.SleepQuality,
		NeuralActivity: m.NeuralActivity,
		DailySteps:     m.DailySteps,
		SleepDuration:  m.SleepDuration,
	}
}

// ToMetricSamples converts a slice of samples. The result is never nil.
func ToMetricSamples(samples []database.MetricSample) []MetricSample {
	return lo.Map(samples, func(m database.MetricSample, _ int) MetricSample {
		return ToMetricSample(m)
	})
}

// ToDreamRecord converts a database.DreamRecord to its wire form.
func ToDreamRecord(d database.DreamRecord) DreamRecord {
	symbols := []string(d.Symbols)
	if symbols == nil {
		symbols = []string{}
	}
	return DreamRecord{
		ID:        d.ID,
		UserID:    d.UserID,
		Timestamp: d.Timestamp,
		DreamText: d.DreamText,
		Symbols:   symbols,
		Emotions: lo.Map(d.Emotions, func(e database.Emotion, _ int) Emotion {
			return Emotion{Emotion: e.Emotion, Intensity: e.Intensity}
		}),
		AnalysisText: d.AnalysisText,
	}
}

// ToDreamRecords converts a slice of dream records. The result is never nil.
func ToDreamRecords(dreams []database.DreamRecord) []DreamRecord {
	return lo.Map(dreams, func(d database.DreamRecord, _ int) DreamRecord {
		return ToDreamRecord(d)
	})
}

// ToChatMessage converts a database.ChatMessage to its wire form.
func ToChatMessage(m database.ChatMessage) ChatMessage {
	return ChatMessage{
		ID:         m.ID,
		UserID:     m.UserID,
		Timestamp:  m.Timestamp,
		Text:       m.Text,
		IsFromUser: m.IsFromUser,
	}
}

// ToChatMessages converts a slice of chat messages. The result is never nil.
func ToChatMessages(msgs []database.ChatMessage) []ChatMessage {
	return lo.Map(msgs, func(m database.ChatMessage, _ int) ChatMessage {
		return ToChatMessage(m)
	})
}

// ToUserSettings converts stored settings. nil stays nil.
func ToUserSettings(s *database.UserSettings) *UserSettings {
	if s == nil {
		return nil
	}
	return &UserSettings{
		ID:                s.ID,
		UserID:            s.UserID,
		Theme:             s.Theme,
		ElectrodeCount:    s.ElectrodeCount,
		SamplingRate:      s.SamplingRate,
		AlertThresholds:   s.Thresholds(),
		AnimationsEnabled: s.AnimationsEnabled,
	}
}

// ToSettingsPatch converts a settings request into a store patch.
func ToSettingsPatch(r SettingsRequest) database.SettingsPatch {
	return database.SettingsPatch{
		Theme:             r.Theme,
		ElectrodeCount:    r.ElectrodeCount,
		SamplingRate:      r.SamplingRate,
		AlertThresholds:   r.AlertThresholds,
		AnimationsEnabled: r.AnimationsEnabled,
	}
}

// ToRecordCounts converts record counts. nil stays nil.
func ToRecordCounts(c *database.RecordCounts) *RecordCounts {
	if c == nil {
		return nil
	}
	return &RecordCounts{
		MetricSamples: c.MetricSamples,
		DreamRecords:  c.DreamRecords,
		ChatMessages:  c.ChatMessages,
		HasSettings:   c.HasSettings,
		LastSampleAt:  c.LastSampleAt,
	}
}

// ToDashboard converts an engine dashboard to its wire form.
func ToDashboard(d *engine.Dashboard) Dashboard {
	out := Dashboard{
		Settings:     ToUserSettings(d.Settings),
		RecentDreams: ToDreamRecords(d.RecentDreams),
		Counts:       ToRecordCounts(d.Counts),
		Signals:      d.Signals,
	}
	if d.LatestMetric != nil {
		out.LatestMetric = lo.ToPtr(ToMetricSample(*d.LatestMetric))
	}
	return out
}

// ToMood converts a mood analysis result.
func ToMood(m *analysis.Mood) Mood {
	return Mood{
		PrimaryMood: m.PrimaryMood,
		Intensity:   m.Intensity,
		Emotions:    m.Emotions,
	}
}
