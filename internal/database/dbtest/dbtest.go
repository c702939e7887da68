// Package dbtest holds the contract tests every database.DB implementation must pass.
package dbtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/neurodash/neurodash/internal/database"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

// Suite runs the record store contract against the DB returned by NewDB.
// NewDB is called before every test and must return an empty store.
type Suite struct {
	suite.Suite
	NewDB func() database.DB

	db  database.DB
	ctx context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.db = s.NewDB()
}

func (s *Suite) TearDownTest() {
	if s.db != nil {
		s.NoError(s.db.Close())
	}
}

func (s *Suite) sample(heartRate float64) database.MetricSample {
	return database.MetricSample{
		HeartRate:      heartRate,
		StressLevel:    30,
		SleepQuality:   80,
		NeuralActivity: 55,
	}
}

func (s *Suite) TestUsers() {
	user, err := s.db.GetOrCreateUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.NotZero(user.ID)

	again, err := s.db.GetOrCreateUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(user.ID, again.ID)

	_, err = s.db.CreateUser(s.ctx, "alice")
	s.ErrorIs(err, database.ErrUsernameTaken)

	_, err = s.db.GetUserByID(s.ctx, user.ID+100)
	s.ErrorIs(err, database.ErrNotFound)

	byName, err := s.db.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(user.ID, byName.ID)
}

func (s *Suite) TestMetricSamples_NewestFirst() {
	for i := range 60 {
		_, err := s.db.CreateMetricSample(s.ctx, 1, s.sample(float64(60+i%40)))
		s.Require().NoError(err)
	}

	samples, err := s.db.ListMetricSamples(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Len(samples, database.DefaultMetricLimit)
	for i := 1; i < len(samples); i++ {
		s.True(samples[i-1].Timestamp.After(samples[i].Timestamp), "samples must be strictly descending")
	}

	few, err := s.db.ListMetricSamples(s.ctx, 1, 5)
	s.Require().NoError(err)
	s.Len(few, 5)
	s.Equal(samples[0].ID, few[0].ID)
}

func (s *Suite) TestMetricSamples_OptionalFields() {
	steps := int64(4200)
	sample := s.sample(70)
	sample.DailySteps = &steps

	created, err := s.db.CreateMetricSample(s.ctx, 1, sample)
	s.Require().NoError(err)
	s.Equal(uint(1), created.UserID)
	s.False(created.Timestamp.IsZero())

	samples, err := s.db.ListMetricSamples(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(samples, 1)
	s.Require().NotNil(samples[0].DailySteps)
	s.Equal(int64(4200), *samples[0].DailySteps)
	s.Nil(samples[0].SleepDuration)
}

func (s *Suite) TestUnknownUser_Empty() {
	samples, err := s.db.ListMetricSamples(s.ctx, 999, 10)
	s.Require().NoError(err)
	s.NotNil(samples)
	s.Empty(samples)

	dreams, err := s.db.ListDreamRecords(s.ctx, 999, 10)
	s.Require().NoError(err)
	s.Empty(dreams)

	messages, err := s.db.ListChatMessages(s.ctx, 999, 10)
	s.Require().NoError(err)
	s.Empty(messages)

	settings, err := s.db.GetSettings(s.ctx, 999)
	s.Require().NoError(err)
	s.Nil(settings)
}

func (s *Suite) TestDreamRecords() {
	created, err := s.db.CreateDreamRecord(s.ctx, 1, database.DreamRecord{DreamText: "falling"})
	s.Require().NoError(err)
	s.NotNil(created.Symbols)
	s.Empty(created.Symbols)
	s.Empty(created.Emotions)
	s.Nil(created.AnalysisText)

	_, err = s.db.CreateDreamRecord(s.ctx, 1, database.DreamRecord{
		DreamText:    "flying over water",
		Symbols:      []string{"water", "flight"},
		Emotions:     []database.Emotion{{Emotion: "joy", Intensity: 8}},
		AnalysisText: lo.ToPtr("freedom"),
	})
	s.Require().NoError(err)

	for range 25 {
		_, err = s.db.CreateDreamRecord(s.ctx, 2, database.DreamRecord{DreamText: "other"})
		s.Require().NoError(err)
	}

	dreams, err := s.db.ListDreamRecords(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Require().Len(dreams, 2)
	s.Equal("flying over water", dreams[0].DreamText)
	s.Equal([]string{"water", "flight"}, []string(dreams[0].Symbols))
	s.Equal([]database.Emotion{{Emotion: "joy", Intensity: 8}}, []database.Emotion(dreams[0].Emotions))
	s.Require().NotNil(dreams[0].AnalysisText)
	s.Equal("freedom", *dreams[0].AnalysisText)

	other, err := s.db.ListDreamRecords(s.ctx, 2, 0)
	s.Require().NoError(err)
	s.Len(other, database.DefaultDreamLimit)
}

func (s *Suite) TestChatMessages_TailInConversationOrder() {
	for i := range 60 {
		_, err := s.db.CreateChatMessage(s.ctx, 1, fmt.Sprintf("msg-%d", i), i%2 == 0)
		s.Require().NoError(err)
	}

	messages, err := s.db.ListChatMessages(s.ctx, 1, 50)
	s.Require().NoError(err)
	s.Require().Len(messages, 50)
	s.Equal("msg-10", messages[0].Text)
	s.Equal("msg-59", messages[49].Text)
	for i := 1; i < len(messages); i++ {
		s.True(messages[i].Timestamp.After(messages[i-1].Timestamp), "messages must be ascending")
	}
	s.True(messages[0].IsFromUser)
	s.False(messages[1].IsFromUser)
}

func (s *Suite) TestChatExchange() {
	_, err := s.db.CreateChatMessage(s.ctx, 1, "earlier", true)
	s.Require().NoError(err)

	userMsg, reply, err := s.db.CreateChatExchange(s.ctx, 1, "how did I sleep?", "Quite well.")
	s.Require().NoError(err)
	s.True(userMsg.IsFromUser)
	s.False(reply.IsFromUser)
	s.True(reply.Timestamp.After(userMsg.Timestamp))
	s.NotEqual(userMsg.ID, reply.ID)

	messages, err := s.db.ListChatMessages(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Equal([]string{"earlier", "how did I sleep?", "Quite well."}, lo.Map(messages, func(m database.ChatMessage, _ int) string {
		return m.Text
	}))
}

func (s *Suite) TestSettings_MergePrecedence() {
	settings, err := s.db.GetSettings(s.ctx, 1)
	s.Require().NoError(err)
	s.Nil(settings)

	first, err := s.db.UpsertSettings(s.ctx, 1, database.SettingsPatch{Theme: lo.ToPtr("light")})
	s.Require().NoError(err)
	s.Equal("light", first.Theme)
	s.Equal(64, first.ElectrodeCount)
	s.Equal(500, first.SamplingRate)
	s.True(first.AnimationsEnabled)
	s.Empty(first.Thresholds())

	second, err := s.db.UpsertSettings(s.ctx, 1, database.SettingsPatch{
		SamplingRate:      lo.ToPtr(1000),
		AnimationsEnabled: lo.ToPtr(false),
		AlertThresholds:   map[string]float64{"heartRate": 120},
	})
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal("light", second.Theme)
	s.Equal(1000, second.SamplingRate)
	s.False(second.AnimationsEnabled)
	s.Equal(map[string]float64{"heartRate": 120}, second.Thresholds())

	stored, err := s.db.GetSettings(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(second.Theme, stored.Theme)
	s.Equal(second.SamplingRate, stored.SamplingRate)
	s.Equal(second.AnimationsEnabled, stored.AnimationsEnabled)
	s.Equal(second.Thresholds(), stored.Thresholds())
}

func (s *Suite) TestCrossUserIsolation() {
	_, err := s.db.CreateMetricSample(s.ctx, 1, s.sample(70))
	s.Require().NoError(err)
	_, err = s.db.CreateChatMessage(s.ctx, 1, "hello", true)
	s.Require().NoError(err)
	_, err = s.db.UpsertSettings(s.ctx, 1, database.SettingsPatch{Theme: lo.ToPtr("light")})
	s.Require().NoError(err)

	samples, err := s.db.ListMetricSamples(s.ctx, 2, 50)
	s.Require().NoError(err)
	s.Empty(samples)

	messages, err := s.db.ListChatMessages(s.ctx, 2, 50)
	s.Require().NoError(err)
	s.Empty(messages)

	settings, err := s.db.GetSettings(s.ctx, 2)
	s.Require().NoError(err)
	s.Nil(settings)
}

func (s *Suite) TestCountRecords() {
	counts, err := s.db.CountRecords(s.ctx, 1)
	s.Require().NoError(err)
	s.Zero(counts.MetricSamples)
	s.Nil(counts.LastSampleAt)
	s.False(counts.HasSettings)

	for range 3 {
		_, err = s.db.CreateMetricSample(s.ctx, 1, s.sample(70))
		s.Require().NoError(err)
	}
	last, err := s.db.CreateMetricSample(s.ctx, 1, s.sample(71))
	s.Require().NoError(err)
	_, err = s.db.CreateDreamRecord(s.ctx, 1, database.DreamRecord{DreamText: "x"})
	s.Require().NoError(err)
	_, err = s.db.UpsertSettings(s.ctx, 1, database.SettingsPatch{})
	s.Require().NoError(err)

	counts, err = s.db.CountRecords(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(int64(4), counts.MetricSamples)
	s.Equal(int64(1), counts.DreamRecords)
	s.Zero(counts.ChatMessages)
	s.True(counts.HasSettings)
	s.Require().NotNil(counts.LastSampleAt)
	s.True(last.Timestamp.Equal(*counts.LastSampleAt))
}

func (s *Suite) TestConcurrentWrites() {
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			for range 10 {
				_, err := s.db.CreateChatMessage(s.ctx, userID, "hi", true)
				s.NoError(err)
			}
		}(uint(i%2 + 1))
	}
	wg.Wait()

	for _, userID := range []uint{1, 2} {
		messages, err := s.db.ListChatMessages(s.ctx, userID, 100)
		s.Require().NoError(err)
		s.Len(messages, 40)
	}
}
