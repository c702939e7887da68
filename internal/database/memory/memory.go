// Package memory is an in-memory implementation of database.DB.
// It keeps the same contract as the gorm backed store and backs the engine and API tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/neurodash/neurodash/internal/database"
	"gorm.io/datatypes"
)

var _ database.DB = (*Store)(nil)

// collection holds one record kind, indexed by user. Records of a user are kept in insertion order.
type collection[T any] struct {
	mu     sync.RWMutex
	byUser map[uint][]T
	nextID uint
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{
		byUser: make(map[uint][]T),
		nextID: 1,
	}
}

// add runs build under the writer lock with the next ID and appends the result.
func (c *collection[T]) add(userID uint, build func(id uint) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := build(c.nextID)
	c.nextID++
	c.byUser[userID] = append(c.byUser[userID], rec)
	return rec
}

// addAll appends one record per build function under a single writer lock.
func (c *collection[T]) addAll(userID uint, builds ...func(id uint) T) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	recs := make([]T, 0, len(builds))
	for _, build := range builds {
		recs = append(recs, build(c.nextID))
		c.nextID++
	}
	c.byUser[userID] = append(c.byUser[userID], recs...)
	return recs
}

// newest returns up to limit records, newest first.
func (c *collection[T]) newest(userID uint, limit int, clone func(T) T) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	recs := c.byUser[userID]
	n := min(limit, len(recs))
	out := make([]T, 0, n)
	for i := len(recs) - 1; i >= len(recs)-n; i-- {
		out = append(out, clone(recs[i]))
	}
	return out
}

// tail returns the last limit records in insertion order.
func (c *collection[T]) tail(userID uint, limit int, clone func(T) T) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	recs := c.byUser[userID]
	start := max(0, len(recs)-limit)
	out := make([]T, 0, len(recs)-start)
	for _, r := range recs[start:] {
		out = append(out, clone(r))
	}
	return out
}

func (c *collection[T]) count(userID uint) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.byUser[userID]))
}

// Store is an in-memory record store.
type Store struct {
	clock *database.Clock

	usersMu    sync.RWMutex
	users      map[uint]*database.User
	byUsername map[string]uint
	nextUserID uint

	metrics *collection[database.MetricSample]
	dreams  *collection[database.DreamRecord]
	chat    *collection[database.ChatMessage]

	settingsMu sync.RWMutex
	settings   map[uint]*database.UserSettings
	nextSetID  uint

	// Error simulation
	CreateMetricSampleError error
	ListMetricSamplesError  error
	CreateDreamRecordError  error
	ListDreamRecordsError   error
	CreateChatMessageError  error
	ListChatMessagesError   error
	UpsertSettingsError     error
	GetSettingsError        error
	CreateUserError         error
}

// New creates an empty Store.
func New() *Store {
	return NewWithClock(database.NewClock())
}

// NewWithClock creates an empty Store that stamps records with clock.
func NewWithClock(clock *database.Clock) *Store {
	return &Store{
		clock:      clock,
		users:      make(map[uint]*database.User),
		byUsername: make(map[string]uint),
		nextUserID: 1,
		metrics:    newCollection[database.MetricSample](),
		dreams:     newCollection[database.DreamRecord](),
		chat:       newCollection[database.ChatMessage](),
		settings:   make(map[uint]*database.UserSettings),
		nextSetID:  1,
	}
}

func (s *Store) Close() error {
	return nil
}

// User operations

func (s *Store) CreateUser(_ context.Context, username string) (*database.User, error) {
	if s.CreateUserError != nil {
		return nil, s.CreateUserError
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if _, ok := s.byUsername[username]; ok {
		return nil, database.ErrUsernameTaken
	}
	user := &database.User{
		ID:        s.nextUserID,
		Username:  username,
		CreatedAt: s.clock.Next(),
	}
	s.nextUserID++
	s.users[user.ID] = user
	s.byUsername[username] = user.ID

	u := *user
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id uint) (*database.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	s.usersMu.RLock()
	id, ok := s.byUsername[username]
	s.usersMu.RUnlock()
	if !ok {
		return nil, database.ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) GetOrCreateUser(ctx context.Context, username string) (*database.User, error) {
	user, err := s.CreateUser(ctx, username)
	if err == database.ErrUsernameTaken {
		return s.GetUserByUsername(ctx, username)
	}
	return user, err
}

// Metric operations

func (s *Store) CreateMetricSample(_ context.Context, userID uint, sample database.MetricSample) (*database.MetricSample, error) {
	if s.CreateMetricSampleError != nil {
		return nil, s.CreateMetricSampleError
	}

	rec := s.metrics.add(userID, func(id uint) database.MetricSample {
		sample.ID = id
		sample.UserID = userID
		sample.Timestamp = s.clock.Next()
		return cloneMetric(sample)
	})
	rec = cloneMetric(rec)
	return &rec, nil
}

func (s *Store) ListMetricSamples(_ context.Context, userID uint, limit int) ([]database.MetricSample, error) {
	if s.ListMetricSamplesError != nil {
		return nil, s.ListMetricSamplesError
	}
	return s.metrics.newest(userID, limitOr(limit, database.DefaultMetricLimit), cloneMetric), nil
}

// Dream operations

func (s *Store) CreateDreamRecord(_ context.Context, userID uint, dream database.DreamRecord) (*database.DreamRecord, error) {
	if s.CreateDreamRecordError != nil {
		return nil, s.CreateDreamRecordError
	}

	rec := s.dreams.add(userID, func(id uint) database.DreamRecord {
		dream.ID = id
		dream.UserID = userID
		dream.Timestamp = s.clock.Next()
		return cloneDream(dream)
	})
	rec = cloneDream(rec)
	return &rec, nil
}

func (s *Store) ListDreamRecords(_ context.Context, userID uint, limit int) ([]database.DreamRecord, error) {
	if s.ListDreamRecordsError != nil {
		return nil, s.ListDreamRecordsError
	}
	return s.dreams.newest(userID, limitOr(limit, database.DefaultDreamLimit), cloneDream), nil
}

// Chat operations

func (s *Store) CreateChatMessage(_ context.Context, userID uint, text string, isFromUser bool) (*database.ChatMessage, error) {
	if s.CreateChatMessageError != nil {
		return nil, s.CreateChatMessageError
	}

	rec := s.chat.add(userID, func(id uint) database.ChatMessage {
		return database.ChatMessage{
			ID:         id,
			UserID:     userID,
			Timestamp:  s.clock.Next(),
			Text:       text,
			IsFromUser: isFromUser,
		}
	})
	return &rec, nil
}

func (s *Store) CreateChatExchange(_ context.Context, userID uint, message, reply string) (*database.ChatMessage, *database.ChatMessage, error) {
	if s.CreateChatMessageError != nil {
		return nil, nil, s.CreateChatMessageError
	}

	build := func(text string, isFromUser bool) func(id uint) database.ChatMessage {
		return func(id uint) database.ChatMessage {
			return database.ChatMessage{
				ID:         id,
				UserID:     userID,
				Timestamp:  s.clock.Next(),
				Text:       text,
				IsFromUser: isFromUser,
			}
		}
	}
	recs := s.chat.addAll(userID, build(message, true), build(reply, false))
	return &recs[0], &recs[1], nil
}

func (s *Store) ListChatMessages(_ context.Context, userID uint, limit int) ([]database.ChatMessage, error) {
	if s.ListChatMessagesError != nil {
		return nil, s.ListChatMessagesError
	}
	return s.chat.tail(userID, limitOr(limit, database.DefaultChatLimit), func(m database.ChatMessage) database.ChatMessage {
		return m
	}), nil
}

// Settings operations

func (s *Store) UpsertSettings(_ context.Context, userID uint, patch database.SettingsPatch) (*database.UserSettings, error) {
	if s.UpsertSettingsError != nil {
		return nil, s.UpsertSettingsError
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	existing := s.settings[userID]
	merged := database.MergeSettings(database.DefaultSettings(), existing, patch)
	merged.UserID = userID
	if existing == nil {
		merged.ID = s.nextSetID
		s.nextSetID++
	}
	s.settings[userID] = &merged

	out := cloneSettings(merged)
	return &out, nil
}

func (s *Store) GetSettings(_ context.Context, userID uint) (*database.UserSettings, error) {
	if s.GetSettingsError != nil {
		return nil, s.GetSettingsError
	}

	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()

	settings, ok := s.settings[userID]
	if !ok {
		return nil, nil
	}
	out := cloneSettings(*settings)
	return &out, nil
}

func (s *Store) CountRecords(_ context.Context, userID uint) (*database.RecordCounts, error) {
	counts := &database.RecordCounts{
		MetricSamples: s.metrics.count(userID),
		DreamRecords:  s.dreams.count(userID),
		ChatMessages:  s.chat.count(userID),
	}
	if latest := s.metrics.newest(userID, 1, cloneMetric); len(latest) == 1 {
		ts := latest[0].Timestamp
		counts.LastSampleAt = &ts
	}

	s.settingsMu.RLock()
	_, counts.HasSettings = s.settings[userID]
	s.settingsMu.RUnlock()

	return counts, nil
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func cloneMetric(m database.MetricSample) database.MetricSample {
	if m.DailySteps != nil {
		v := *m.DailySteps
		m.DailySteps = &v
	}
	if m.SleepDuration != nil {
		v := *m.SleepDuration
		m.SleepDuration = &v
	}
	return m
}

func cloneDream(d database.DreamRecord) database.DreamRecord {
	d.Symbols = datatypes.JSONSlice[string](slices.Clone([]string(d.Symbols)))
	if d.Symbols == nil {
		d.Symbols = datatypes.JSONSlice[string]{}
	}
	d.Emotions = datatypes.JSONSlice[database.Emotion](slices.Clone([]database.Emotion(d.Emotions)))
	if d.Emotions == nil {
		d.Emotions = datatypes.JSONSlice[database.Emotion]{}
	}
	if d.AnalysisText != nil {
		v := *d.AnalysisText
		d.AnalysisText = &v
	}
	return d
}

func cloneSettings(s database.UserSettings) database.UserSettings {
	s.AlertThresholds = datatypes.NewJSONType(s.Thresholds())
	return s
}

// Reset clears all data and errors from the store.
func (s *Store) Reset() {
	s.usersMu.Lock()
	s.users = make(map[uint]*database.User)
	s.byUsername = make(map[string]uint)
	s.nextUserID = 1
	s.usersMu.Unlock()

	s.metrics = newCollection[database.MetricSample]()
	s.dreams = newCollection[database.DreamRecord]()
	s.chat = newCollection[database.ChatMessage]()

	s.settingsMu.Lock()
	s.settings = make(map[uint]*database.UserSettings)
	s.nextSetID = 1
	s.settingsMu.Unlock()

	s.CreateMetricSampleError = nil
	s.ListMetricSamplesError = nil
	s.CreateDreamRecordError = nil
	s.ListDreamRecordsError = nil
	s.CreateChatMessageError = nil
	s.ListChatMessagesError = nil
	s.UpsertSettingsError = nil
	s.GetSettingsError = nil
	s.CreateUserError = nil
}

