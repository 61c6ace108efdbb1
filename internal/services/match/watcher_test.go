package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	clockMocks "github.com/kdurkin/digitduel/internal/common/clock/mocks"
	uuidMocks "github.com/kdurkin/digitduel/internal/common/uuid/mocks"
	identityMocks "github.com/kdurkin/digitduel/internal/identity/mocks"
	"github.com/kdurkin/digitduel/internal/models"
	sessionRepo "github.com/kdurkin/digitduel/internal/repositories/session"
	sessionMocks "github.com/kdurkin/digitduel/internal/repositories/session/mocks"
	secretMocks "github.com/kdurkin/digitduel/internal/secret/mocks"
)

// captureSink records results delivered by watchers
type captureSink struct {
	mu      sync.Mutex
	results []*models.GameResult
}

func (c *captureSink) RecordResult(_ context.Context, result *models.GameResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

func (c *captureSink) all() []*models.GameResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*models.GameResult(nil), c.results...)
}

type WatcherTestSuite struct {
	suite.Suite
	ctx          context.Context
	ctrl         *gomock.Controller
	mockRepo     *sessionMocks.MockRepository
	mockIdentity *identityMocks.MockProvider
	mockClock    *clockMocks.MockClock
	sink         *captureSink
	service      *service
	fixedTime    time.Time
	self         *models.Identity
	events       chan *sessionRepo.Snapshot
}

func (s *WatcherTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.mockRepo = sessionMocks.NewMockRepository(s.ctrl)
	s.mockIdentity = identityMocks.NewMockProvider(s.ctrl)
	s.mockClock = clockMocks.NewMockClock(s.ctrl)
	s.sink = &captureSink{}

	s.fixedTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s.self = &models.Identity{ID: "player-1", DisplayName: "alice"}
	s.events = make(chan *sessionRepo.Snapshot, 16)

	svc, err := New(&Config{
		SessionRepo:   s.mockRepo,
		Identity:      s.mockIdentity,
		SecretGen:     secretMocks.NewMockGenerator(s.ctrl),
		ResultSink:    s.sink,
		Clock:         s.mockClock,
		UUIDGenerator: uuidMocks.NewMockUUID(s.ctrl),
		Logger:        zerolog.Nop(),
	})
	s.Require().NoError(err)
	s.service = svc

	s.mockIdentity.EXPECT().Current(gomock.Any()).Return(s.self, nil).AnyTimes()
	s.mockClock.EXPECT().Now().Return(s.fixedTime).AnyTimes()
}

func (s *WatcherTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *WatcherTestSuite) expectSubscribe() {
	s.mockRepo.EXPECT().
		Subscribe(gomock.Any(), &sessionRepo.SubscribeInput{SessionID: "sess-1"}).
		Return(sessionRepo.NewSubscription(s.events, func() {}), nil)
}

func (s *WatcherTestSuite) watch(events WatcherEvents) *Watcher {
	s.expectSubscribe()
	out, err := s.service.WatchSession(s.ctx, &WatchSessionInput{SessionID: "sess-1", Events: events})
	s.Require().NoError(err)
	return out.Watcher
}

func (s *WatcherTestSuite) waitDone(w *Watcher) {
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		s.FailNow("watcher did not finish in time")
	}
}

func (s *WatcherTestSuite) snapshot(phase models.Phase) *sessionRepo.Snapshot {
	return &sessionRepo.Snapshot{Session: &models.Session{
		ID:               "sess-1",
		DigitLength:      4,
		TimeLimitSeconds: 30,
		Phase:            phase,
		Initiator: &models.Slot{
			PlayerID:     "player-1",
			PlayerName:   "alice",
			SecretNumber: "1111",
			Ready:        true,
		},
		Joiner: &models.Slot{
			PlayerID:     "player-2",
			PlayerName:   "bob",
			SecretNumber: "1234",
			Ready:        true,
		},
		CreatedAt: s.fixedTime.Add(-time.Minute),
	}}
}

func (s *WatcherTestSuite) TestPhaseNeverRegresses() {
	var mu sync.Mutex
	var phases []models.Phase

	w := s.watch(WatcherEvents{
		OnPhase: func(phase models.Phase, _ *models.Session) {
			mu.Lock()
			phases = append(phases, phase)
			mu.Unlock()
		},
	})

	started := s.fixedTime.Add(-time.Second)
	active := s.snapshot(models.PhaseActive)
	active.Session.StartedAt = &started

	// A later snapshot carrying an older phase must not regress the view
	stale := s.snapshot(models.PhaseAwaitingJoin)
	stale.Session.Joiner = &models.Slot{}
	stale.Session.Initiator.Ready = false

	s.events <- active
	s.events <- stale
	close(s.events)
	s.waitDone(w)

	s.Equal([]models.Phase{models.PhaseActive}, phases)
	s.Equal(models.PhaseActive, w.Phase())
}

func (s *WatcherTestSuite) TestActivatesOnceWhenBothReady() {
	activated := make(chan struct{})

	s.mockRepo.EXPECT().
		UpdateFields(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *sessionRepo.UpdateFieldsInput) error {
			defer close(activated)
			s.Equal("sess-1", input.SessionID)
			byPath := map[string]sessionRepo.FieldUpdate{}
			for _, f := range input.Fields {
				byPath[f.Path] = f
			}
			s.Equal(string(models.PhaseActive), byPath["phase"].Value)
			s.True(byPath["startedAt"].SetOnce)
			return nil
		})

	w := s.watch(WatcherEvents{})

	ready := s.snapshot(models.PhaseAwaitingSecrets)
	s.events <- ready
	// A duplicate readiness snapshot must not trigger a second write
	s.events <- s.snapshot(models.PhaseAwaitingSecrets)
	close(s.events)
	s.waitDone(w)

	select {
	case <-activated:
	default:
		s.FailNow("activation write never happened")
	}
}

func (s *WatcherTestSuite) TestOpponentGuessesDeliveredOnce() {
	var mu sync.Mutex
	var seen []string

	w := s.watch(WatcherEvents{
		OnOpponentGuess: func(record *models.GuessRecord) {
			mu.Lock()
			seen = append(seen, record.Value)
			mu.Unlock()
		},
	})

	started := s.fixedTime.Add(-time.Second)

	first := s.snapshot(models.PhaseActive)
	first.Session.StartedAt = &started
	first.Session.Joiner.Guesses = []*models.GuessRecord{{Value: "0000"}}

	second := s.snapshot(models.PhaseActive)
	second.Session.StartedAt = &started
	second.Session.Joiner.Guesses = []*models.GuessRecord{
		{Value: "0000"}, {Value: "1100"}, {Value: "1110"},
	}

	s.events <- first
	s.events <- second
	// Re-delivery of the same state must not repeat guesses
	s.events <- second
	close(s.events)
	s.waitDone(w)

	s.Equal([]string{"0000", "1100", "1110"}, seen)
}

func (s *WatcherTestSuite) TestReplacedOpponentGuessesDeliveredFromStart() {
	var mu sync.Mutex
	var seen []string

	w := s.watch(WatcherEvents{
		OnOpponentGuess: func(record *models.GuessRecord) {
			mu.Lock()
			seen = append(seen, record.Value)
			mu.Unlock()
		},
	})

	started := s.fixedTime.Add(-time.Second)

	first := s.snapshot(models.PhaseActive)
	first.Session.StartedAt = &started
	first.Session.Joiner.Guesses = []*models.GuessRecord{{Value: "0000"}, {Value: "1100"}}

	// The joiner vacates the slot
	vacated := s.snapshot(models.PhaseActive)
	vacated.Session.StartedAt = &started
	vacated.Session.Joiner = &models.Slot{}

	// A different player takes the slot with a shorter guess log
	replaced := s.snapshot(models.PhaseActive)
	replaced.Session.StartedAt = &started
	replaced.Session.Joiner = &models.Slot{
		PlayerID:     "player-3",
		PlayerName:   "carol",
		SecretNumber: "9999",
		Ready:        true,
		Guesses:      []*models.GuessRecord{{Value: "4321"}},
	}

	s.events <- first
	s.events <- vacated
	s.events <- replaced
	close(s.events)
	s.waitDone(w)

	s.Equal([]string{"0000", "1100", "4321"}, seen)
}

func (s *WatcherTestSuite) TestCompletionDeliversResultOnce() {
	var mu sync.Mutex
	var results []*models.GameResult

	w := s.watch(WatcherEvents{
		OnResult: func(result *models.GameResult) {
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		},
	})

	done := s.snapshot(models.PhaseCompleted)
	done.Session.Winner = "player-1"
	done.Session.Initiator.Guesses = []*models.GuessRecord{
		{Value: "1230"}, {Value: "1234", IsWinning: true},
	}

	s.events <- done
	s.events <- done
	close(s.events)
	s.waitDone(w)

	s.Require().Len(results, 1)
	s.Equal(models.OutcomeWin, results[0].Outcome)
	s.Equal(2, results[0].GuessCount)
	s.Require().Len(s.sink.all(), 1)
}

func (s *WatcherTestSuite) TestCompletionLossForOpponentWin() {
	var mu sync.Mutex
	var results []*models.GameResult

	w := s.watch(WatcherEvents{
		OnResult: func(result *models.GameResult) {
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		},
	})

	done := s.snapshot(models.PhaseCompleted)
	done.Session.Winner = "player-2"

	s.events <- done
	close(s.events)
	s.waitDone(w)

	s.Require().Len(results, 1)
	s.Equal(models.OutcomeLoss, results[0].Outcome)
}

func (s *WatcherTestSuite) TestDeletionEndsWatcher() {
	deleted := make(chan struct{})

	w := s.watch(WatcherEvents{
		OnDeleted: func() { close(deleted) },
	})

	s.events <- s.snapshot(models.PhaseAwaitingJoin)
	s.events <- &sessionRepo.Snapshot{Deleted: true}
	s.waitDone(w)

	select {
	case <-deleted:
	default:
		s.FailNow("deletion callback never fired")
	}
}

func (s *WatcherTestSuite) TestTimeoutCompletesAsLoss() {
	resultCh := make(chan *models.GameResult, 1)
	wrote := make(chan *sessionRepo.UpdateFieldsInput, 1)

	s.mockRepo.EXPECT().
		UpdateFields(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *sessionRepo.UpdateFieldsInput) error {
			wrote <- input
			return nil
		})

	w := s.watch(WatcherEvents{
		OnResult: func(result *models.GameResult) { resultCh <- result },
	})

	// The shared start timestamp is already past the time limit, so the
	// timer fires as soon as it is armed
	started := s.fixedTime.Add(-60 * time.Second)
	expired := s.snapshot(models.PhaseActive)
	expired.Session.StartedAt = &started

	s.events <- expired

	select {
	case result := <-resultCh:
		s.Equal(models.OutcomeLoss, result.Outcome)
	case <-time.After(2 * time.Second):
		s.FailNow("timeout result never delivered")
	}

	select {
	case input := <-wrote:
		byPath := map[string]sessionRepo.FieldUpdate{}
		for _, f := range input.Fields {
			byPath[f.Path] = f
		}
		s.Equal(string(models.PhaseCompleted), byPath["phase"].Value)
		s.Equal("player-2", byPath["winner"].Value)
		s.True(byPath["winner"].SetOnce)
	case <-time.After(2 * time.Second):
		s.FailNow("timeout loss never written")
	}

	s.Equal(models.PhaseCompleted, w.Phase())

	w.Stop()
}

func (s *WatcherTestSuite) TestRemainingDerivedFromWallClock() {
	w := s.watch(WatcherEvents{})

	started := s.fixedTime.Add(-10 * time.Second)
	active := s.snapshot(models.PhaseActive)
	active.Session.StartedAt = &started

	s.events <- active

	s.Eventually(func() bool {
		return w.Snapshot() != nil
	}, 2*time.Second, 10*time.Millisecond)

	s.Equal(20*time.Second, w.Remaining())

	close(s.events)
	s.waitDone(w)
}

func TestWatcherSuite(t *testing.T) {
	suite.Run(t, new(WatcherTestSuite))
}
