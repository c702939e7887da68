package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/neurodash/neurodash/internal/analysis"
	"github.com/neurodash/neurodash/internal/analysis/analysistest"
	"github.com/neurodash/neurodash/internal/cache"
	"github.com/neurodash/neurodash/internal/config"
	"github.com/neurodash/neurodash/internal/database"
	"github.com/neurodash/neurodash/internal/database/memory"
	"github.com/neurodash/neurodash/internal/generator"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

func testConfig() *config.Config {
	return &config.Config{
		Generator: &config.GeneratorConfig{
			MetricsInterval:  10 * time.Millisecond,
			WaveformInterval: 10 * time.Millisecond,
			BufferSize:       20,
		},
		Cache: &config.CacheConfig{Type: config.CacheTypeMemory, TTL: time.Minute},
	}
}

type EngineTestSuite struct {
	suite.Suite
	ctx         context.Context
	db          *memory.Store
	interpreter *analysistest.Fake
	engine      *Engine
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = memory.New()
	s.interpreter = analysistest.New()

	store, err := cache.NewStore(testConfig().Cache)
	s.Require().NoError(err)

	s.engine, err = New(testConfig(), s.db, s.interpreter, cache.NewSettingsCache(store, time.Minute))
	s.Require().NoError(err)
}

func (s *EngineTestSuite) TearDownTest() {
	s.NoError(s.engine.Close())
}

func (s *EngineTestSuite) TestRecordDream() {
	dream, err := s.engine.RecordDream(s.ctx, 1, "  I was swimming towards a door  ")
	s.Require().NoError(err)

	s.Equal("I was swimming towards a door", dream.DreamText)
	s.Equal([]string{"water", "door"}, []string(dream.Symbols))
	s.Equal([]database.Emotion{{Emotion: "fear", Intensity: 6}}, []database.Emotion(dream.Emotions))
	s.Require().NotNil(dream.AnalysisText)
	s.Equal("A change is coming.", *dream.AnalysisText)

	dreams, err := s.engine.ListDreams(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Len(dreams, 1)
}

func (s *EngineTestSuite) TestRecordDream_UpstreamFailureStoresNothing() {
	s.interpreter.SetErr(fmt.Errorf("%w: boom", analysis.ErrUpstream))

	_, err := s.engine.RecordDream(s.ctx, 1, "a dream")
	s.ErrorIs(err, analysis.ErrUpstream)

	dreams, err := s.engine.ListDreams(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Empty(dreams)
}

func (s *EngineTestSuite) TestRecordDream_EmptyText() {
	_, err := s.engine.RecordDream(s.ctx, 1, "   ")
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *EngineTestSuite) TestSendChat() {
	reply, err := s.engine.SendChat(s.ctx, 1, "hi")
	s.Require().NoError(err)
	s.Equal("Hello!", reply.Text)
	s.False(reply.IsFromUser)

	msgs, err := s.engine.ListChat(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Require().Len(msgs, 2)
	s.Equal("hi", msgs[0].Text)
	s.True(msgs[0].IsFromUser)
	s.Equal("Hello!", msgs[1].Text)

	_, err = s.engine.SendChat(s.ctx, 1, "again")
	s.Require().NoError(err)
	s.Equal([]analysis.Turn{{Text: "hi", IsFromUser: true}, {Text: "Hello!", IsFromUser: false}}, s.interpreter.LastHistory())
}

func (s *EngineTestSuite) TestSendChat_HistoryIsBounded() {
	for i := range 30 {
		_, err := s.db.CreateChatMessage(s.ctx, 1, fmt.Sprintf("msg-%d", i), i%2 == 0)
		s.Require().NoError(err)
	}

	_, err := s.engine.SendChat(s.ctx, 1, "latest")
	s.Require().NoError(err)
	s.Len(s.interpreter.LastHistory(), analysis.HistoryTurns)
	s.Equal("msg-29", s.interpreter.LastHistory()[analysis.HistoryTurns-1].Text)
}

func (s *EngineTestSuite) TestSendChat_UpstreamFailureStoresNothing() {
	s.interpreter.SetErr(analysis.ErrNotConfigured)

	_, err := s.engine.SendChat(s.ctx, 1, "hi")
	s.ErrorIs(err, analysis.ErrUpstream)

	msgs, err := s.engine.ListChat(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Empty(msgs)
}

func (s *EngineTestSuite) TestSendChat_StorageErrorStoresNothing() {
	s.db.CreateChatMessageError = fmt.Errorf("%w: disk full", database.ErrStorage)

	_, err := s.engine.SendChat(s.ctx, 1, "hi")
	s.ErrorIs(err, database.ErrStorage)

	s.db.CreateChatMessageError = nil
	msgs, err := s.engine.ListChat(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Empty(msgs)
}

func (s *EngineTestSuite) TestRecordMetric_StorageError() {
	s.db.CreateMetricSampleError = fmt.Errorf("%w: disk full", database.ErrStorage)

	_, err := s.engine.RecordMetric(s.ctx, 1, database.MetricSample{HeartRate: 70})
	s.ErrorIs(err, database.ErrStorage)
}

func (s *EngineTestSuite) TestSettings_Cached() {
	settings, err := s.engine.GetSettings(s.ctx, 1)
	s.Require().NoError(err)
	s.Nil(settings)

	updated, err := s.engine.UpdateSettings(s.ctx, 1, database.SettingsPatch{Theme: lo.ToPtr("light")})
	s.Require().NoError(err)
	s.Equal("light", updated.Theme)
	s.Equal(64, updated.ElectrodeCount)

	// served from the cache even when the store fails
	s.db.GetSettingsError = errors.New("store down")
	cached, err := s.engine.GetSettings(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("light", cached.Theme)
}

func (s *EngineTestSuite) TestSettings_FailedUpdateInvalidates() {
	_, err := s.engine.UpdateSettings(s.ctx, 1, database.SettingsPatch{Theme: lo.ToPtr("light")})
	s.Require().NoError(err)

	s.db.UpsertSettingsError = fmt.Errorf("%w: locked", database.ErrStorage)
	_, err = s.engine.UpdateSettings(s.ctx, 1, database.SettingsPatch{Theme: lo.ToPtr("blue")})
	s.ErrorIs(err, database.ErrStorage)

	s.db.GetSettingsError = errors.New("store down")
	_, err = s.engine.GetSettings(s.ctx, 1)
	s.Error(err)
}

// stallingStore blocks the first GetSettings after it has read the row.
type stallingStore struct {
	*memory.Store
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (s *stallingStore) GetSettings(ctx context.Context, userID uint) (*database.UserSettings, error) {
	settings, err := s.Store.GetSettings(ctx, userID)
	s.once.Do(func() {
		close(s.read)
		<-s.release
	})
	return settings, err
}

func (s *EngineTestSuite) TestSettings_FillDoesNotOverwriteNewerUpdate() {
	_, err := s.db.UpsertSettings(s.ctx, 1, database.SettingsPatch{Theme: lo.ToPtr("light")})
	s.Require().NoError(err)

	db := &stallingStore{Store: s.db, read: make(chan struct{}), release: make(chan struct{})}
	store, err := cache.NewStore(testConfig().Cache)
	s.Require().NoError(err)
	e, err := New(testConfig(), db, s.interpreter, cache.NewSettingsCache(store, time.Minute))
	s.Require().NoError(err)
	defer e.Close()

	getDone := make(chan struct{})
	go func() {
		defer close(getDone)
		settings, err := e.GetSettings(s.ctx, 1)
		s.NoError(err)
		s.Equal("light", settings.Theme)
	}()
	<-db.read

	updateDone := make(chan struct{})
	go func() {
		defer close(updateDone)
		_, err := e.UpdateSettings(s.ctx, 1, database.SettingsPatch{Theme: lo.ToPtr("system")})
		s.NoError(err)
	}()

	select {
	case <-updateDone:
	case <-time.After(50 * time.Millisecond):
	}
	close(db.release)
	<-getDone
	<-updateDone

	settings, err := e.GetSettings(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("system", settings.Theme)
}

func (s *EngineTestSuite) TestEffectiveSettings_Defaults() {
	settings, err := s.engine.EffectiveSettings(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal("dark", settings.Theme)
	s.Equal(uint(3), settings.UserID)
	s.True(settings.AnimationsEnabled)
}

func (s *EngineTestSuite) TestDashboard() {
	for range 7 {
		_, err := s.engine.RecordDream(s.ctx, 1, "a dream")
		s.Require().NoError(err)
	}
	_, err := s.engine.RecordMetric(s.ctx, 1, database.MetricSample{HeartRate: 65})
	s.Require().NoError(err)
	latest, err := s.engine.RecordMetric(s.ctx, 1, database.MetricSample{HeartRate: 80})
	s.Require().NoError(err)

	d, err := s.engine.Dashboard(s.ctx, 1)
	s.Require().NoError(err)

	s.Require().NotNil(d.LatestMetric)
	s.Equal(latest.ID, d.LatestMetric.ID)
	s.Len(d.RecentDreams, DashboardDreamLimit)
	s.Equal(int64(7), d.Counts.DreamRecords)
	s.Equal(int64(2), d.Counts.MetricSamples)
	s.Equal("dark", d.Settings.Theme)
	s.NotNil(d.Signals)
}

func (s *EngineTestSuite) TestDashboard_Empty() {
	d, err := s.engine.Dashboard(s.ctx, 9)
	s.Require().NoError(err)
	s.Nil(d.LatestMetric)
	s.Empty(d.RecentDreams)
	s.Zero(d.Counts.MetricSamples)
}

func (s *EngineTestSuite) TestDashboard_StorageError() {
	s.db.ListDreamRecordsError = fmt.Errorf("%w: boom", database.ErrStorage)
	_, err := s.engine.Dashboard(s.ctx, 1)
	s.ErrorIs(err, database.ErrStorage)
}

func (s *EngineTestSuite) TestAnalyzeMood() {
	mood, err := s.engine.AnalyzeMood(s.ctx, "fine")
	s.Require().NoError(err)
	s.Equal("calm", mood.PrimaryMood)

	_, err = s.engine.AnalyzeMood(s.ctx, "")
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *EngineTestSuite) TestLogin() {
	first, err := s.engine.Login(s.ctx, "alice")
	s.Require().NoError(err)
	second, err := s.engine.Login(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	_, err = s.engine.Login(s.ctx, "")
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *EngineTestSuite) TestGeneratorJobs() {
	s.ElementsMatch([]string{MetricsJobID, WaveformJobID}, s.engine.GetScheduler().JobIDs())

	start := s.engine.Signals().Tick

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.NoError(s.engine.Run(ctx))
	}()

	s.Eventually(func() bool {
		return s.engine.Signals().Tick > start+4
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func (s *EngineTestSuite) TestWithGenerator() {
	g := generator.New(generator.WithInitialMetrics(generator.Metrics{HeartRate: 90}))
	e, err := New(testConfig(), s.db, s.interpreter, nil, WithGenerator(g))
	s.Require().NoError(err)
	defer e.Close()

	s.Equal(90.0, e.Signals().Metrics.HeartRate)
	s.Require().NoError(e.tickMetrics(s.ctx))
	s.Greater(e.Signals().Tick, uint64(1))
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
