// Package models holds the JSON wire types of the HTTP API.
package models

import (
	"time"

	"github.com/neurodash/neurodash/internal/generator"
)

// User is the public view of a user.
type User struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// MetricSample is a stored health metrics reading.
type MetricSample struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"userId"`
	Timestamp      time.Time `json:"timestamp"`
	HeartRate      float64   `json:"heartRate"`
	StressLevel    float64   `json:"stressLevel"`
	SleepQuality   float64   `json:"sleepQuality"`
	NeuralActivity float64   `json:"neuralActivity"`
	DailySteps     *int64    `json:"dailySteps"`
	SleepDuration  *float64  `json:"sleepDuration"`
}

// Emotion is a named emotion with an intensity between 0 and 10.
type Emotion struct {
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

// DreamRecord is a stored dream together with its interpretation.
type DreamRecord struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"userId"`
	Timestamp    time.Time `json:"timestamp"`
	DreamText    string    `json:"dreamText"`
	Symbols      []string  `json:"symbols"`
	Emotions     []Emotion `json:"emotions"`
	AnalysisText *string   `json:"analysisText"`
}

// ChatMessage is one stored chat message.
type ChatMessage struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"userId"`
	Timestamp  time.Time `json:"timestamp"`
	Text       string    `json:"text"`
	IsFromUser bool      `json:"isFromUser"`
}

// UserSettings are the dashboard preferences of a user.
type UserSettings struct {
	ID                uint               `json:"id"`
	UserID            uint               `json:"userId"`
	Theme             string             `json:"theme"`
	ElectrodeCount    int                `json:"electrodeCount"`
	SamplingRate      int                `json:"samplingRate"`
	AlertThresholds   map[string]float64 `json:"alertThresholds"`
	AnimationsEnabled bool               `json:"animationsEnabled"`
}

// RecordCounts is the number of stored records per kind.
type RecordCounts struct {
	MetricSamples int64      `json:"metricSamples"`
	DreamRecords  int64      `json:"dreamRecords"`
	ChatMessages  int64      `json:"chatMessages"`
	HasSettings   bool       `json:"hasSettings"`
	LastSampleAt  *time.Time `json:"lastSampleAt"`
}

// Dashboard is the summary shown on the dashboard page.
type Dashboard struct {
	LatestMetric *MetricSample       `json:"latestMetric"`
	Settings     *UserSettings       `json:"settings"`
	RecentDreams []DreamRecord       `json:"recentDreams"`
	Counts       *RecordCounts       `json:"counts"`
	Signals      *generator.Snapshot `json:"signals"`
}

// Mood is the result of a mood analysis.
type Mood struct {
	PrimaryMood string             `json:"primaryMood"`
	Intensity   float64            `json:"intensity"`
	Emotions    map[string]float64 `json:"emotions"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// Requests

// LoginRequest starts a session for a user, creating the user on first login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
}

// CreateMetricRequest is the body of POST /api/health-metrics.
// UserID defaults to the authenticated user.
type CreateMetricRequest struct {
	UserID         *uint    `json:"userId"`
	HeartRate      *float64 `json:"heartRate" binding:"required"`
	StressLevel    *float64 `json:"stressLevel" binding:"required"`
	SleepQuality   *float64 `json:"sleepQuality" binding:"required"`
	NeuralActivity *float64 `json:"neuralActivity" binding:"required"`
	DailySteps     *int64   `json:"dailySteps"`
	SleepDuration  *float64 `json:"sleepDuration"`
}

// CreateDreamRequest is the body of POST /api/dream-analysis.
type CreateDreamRequest struct {
	UserID    *uint  `json:"userId"`
	DreamText string `json:"dreamText" binding:"required,max=10000"`
}

// ChatRequest is the body of POST /api/ai-chat.
type ChatRequest struct {
	UserID  *uint  `json:"userId"`
	Message string `json:"message" binding:"required,max=4000"`
}

// MoodRequest is the body of POST /api/mood-analysis.
type MoodRequest struct {
	Text string `json:"text" binding:"required,max=10000"`
}

// SettingsRequest is a partial settings update. Absent fields keep their stored value.
type SettingsRequest struct {
	Theme             *string            `json:"theme" binding:"omitempty,oneof=dark light system"`
	ElectrodeCount    *int               `json:"electrodeCount" binding:"omitempty,gte=1,lte=512"`
	SamplingRate      *int               `json:"samplingRate" binding:"omitempty,gte=1,lte=20000"`
	AlertThresholds   map[string]float64 `json:"alertThresholds"`
	AnimationsEnabled *bool              `json:"animationsEnabled"`
}
