package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kdurkin/digitduel/internal/models"
	sessionRepo "github.com/kdurkin/digitduel/internal/repositories/session"
)

// WatcherEvents are the callbacks a watcher invokes as the remote
// document evolves. All fields are optional. Callbacks run on the
// watcher's goroutine, one at a time, never concurrently.
type WatcherEvents struct {
	// OnPhase fires when the locally merged phase advances
	OnPhase func(phase models.Phase, snapshot *models.Session)

	// OnOpponentGuess fires once per newly observed opponent guess
	OnOpponentGuess func(record *models.GuessRecord)

	// OnResult fires exactly once when the session completes
	OnResult func(result *models.GameResult)

	// OnDeleted fires when the remote document disappears; the session
	// is over regardless of phase
	OnDeleted func()
}

// Watcher reacts to remote snapshots of one session. Every snapshot is
// processed atomically on a single goroutine, so two snapshots never
// interleave. The merged local phase only moves forward: duplicate or
// out-of-order snapshots carrying an older phase cannot regress it.
type Watcher struct {
	svc       *service
	sessionID string
	selfID    string
	events    WatcherEvents

	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	phase      models.Phase
	snap       *models.Session
	role       models.Role
	oppID      string
	oppSeen    int
	activated  bool
	timerArmed bool
	timerFired bool
	resultSent bool
	timer      *time.Timer
}

// WatchSession subscribes to a session document and starts a watcher.
// Watching a session that does not exist yet is allowed; the watcher
// wakes up when the document is created.
func (s *service) WatchSession(ctx context.Context, input *WatchSessionInput) (*WatchSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	self, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	wctx, cancel := context.WithCancel(ctx)

	sub, err := s.sessionRepo.Subscribe(wctx, &sessionRepo.SubscribeInput{SessionID: input.SessionID})
	if err != nil {
		cancel()
		return nil, storeError(err)
	}

	w := &Watcher{
		svc:       s,
		sessionID: input.SessionID,
		selfID:    self.ID,
		events:    input.Events,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go w.run(wctx, sub)

	return &WatchSessionOutput{Watcher: w}, nil
}

// Stop cancels the subscription and the turn timer and waits for the
// watcher goroutine to exit
func (w *Watcher) Stop() {
	w.cancel()
	<-w.done
}

// Done is closed when the watcher goroutine has exited
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Phase returns the merged local phase
func (w *Watcher) Phase() models.Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Snapshot returns the last observed session state, nil before the
// first snapshot
func (w *Watcher) Snapshot() *models.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}

// Remaining reports the time left on the turn timer, derived from the
// shared start timestamp and the wall clock rather than a local
// countdown, so a suspended client reports correctly on resume
func (w *Watcher) Remaining() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.snap == nil {
		return 0
	}

	limit := time.Duration(w.snap.TimeLimitSeconds) * time.Second
	if w.snap.StartedAt == nil {
		return limit
	}

	remaining := w.snap.StartedAt.Add(limit).Sub(w.svc.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (w *Watcher) run(ctx context.Context, sub *sessionRepo.Subscription) {
	defer close(w.done)
	defer sub.Close()
	defer func() {
		w.mu.Lock()
		w.stopTimerLocked()
		w.mu.Unlock()
	}()

	for {
		w.mu.Lock()
		var timerC <-chan time.Time
		if w.timer != nil {
			timerC = w.timer.C
		}
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.Events:
			if !ok {
				return
			}
			if terminal := w.handleSnapshot(ctx, snap); terminal {
				return
			}
		case <-timerC:
			w.handleTimeout(ctx)
		}
	}
}

// handleSnapshot merges one remote snapshot into the local view and
// performs the phase-gated side effects. Returns true when the watcher
// should stop.
func (w *Watcher) handleSnapshot(ctx context.Context, snap *sessionRepo.Snapshot) bool {
	if snap.Deleted {
		w.mu.Lock()
		w.stopTimerLocked()
		w.mu.Unlock()

		if w.events.OnDeleted != nil {
			w.events.OnDeleted()
		}
		return true
	}

	sess := snap.Session

	w.mu.Lock()
	w.snap = sess

	if w.role == "" {
		if _, role, ok := sess.SlotFor(w.selfID); ok {
			w.role = role
		}
	}
	role := w.role

	// Monotonic merge: a snapshot carrying an older phase refreshes
	// data but never regresses phase-gated logic
	prevPhase := w.phase
	if sess.Phase.Order() > prevPhase.Order() {
		w.phase = sess.Phase
	}
	phase := w.phase

	var newGuesses []*models.GuessRecord
	if role != "" {
		opp := sess.SlotByRole(role.Opponent())

		// A vacated or reoccupied slot starts a fresh guess log
		if opp.PlayerID != w.oppID {
			w.oppID = opp.PlayerID
			w.oppSeen = 0
		}

		if n := len(opp.Guesses); n > w.oppSeen {
			newGuesses = opp.Guesses[w.oppSeen:]
			w.oppSeen = n
		}
	}

	needActivate := phase == models.PhaseAwaitingSecrets && sess.BothReady() && !w.activated
	if needActivate {
		w.activated = true
	}

	if phase.Order() >= models.PhaseActive.Order() && !w.timerArmed && sess.StartedAt != nil {
		w.timerArmed = true
		deadline := sess.StartedAt.Add(time.Duration(sess.TimeLimitSeconds) * time.Second)
		w.startTimerLocked(deadline)
	}

	var result *models.GameResult
	if phase == models.PhaseCompleted && !w.resultSent && role != "" {
		w.resultSent = true
		w.stopTimerLocked()
		result = buildResult(sess, role, w.selfID)
	}
	w.mu.Unlock()

	// Side effects run outside the lock, still on this goroutine
	if phase != prevPhase && w.events.OnPhase != nil {
		w.events.OnPhase(phase, sess)
	}

	if w.events.OnOpponentGuess != nil {
		for _, g := range newGuesses {
			w.events.OnOpponentGuess(g)
		}
	}

	if needActivate {
		w.activate(ctx)
	}

	if result != nil {
		w.svc.sink.RecordResult(ctx, result)
		if w.events.OnResult != nil {
			w.events.OnResult(result)
		}
	}

	return false
}

// activate advances the session to active play. Both clients may
// observe readiness and race to perform this write; the phase write is
// idempotent and startedAt keeps its first value, so the race is
// harmless.
func (w *Watcher) activate(ctx context.Context) {
	err := w.svc.sessionRepo.UpdateFields(ctx, &sessionRepo.UpdateFieldsInput{
		SessionID: w.sessionID,
		Fields: []sessionRepo.FieldUpdate{
			sessionRepo.PhaseUpdate(models.PhaseActive),
			sessionRepo.StartedAtUpdate(w.svc.clock.Now()),
		},
	})
	if err != nil {
		w.svc.log.Warn().Err(err).
			Str("session_id", w.sessionID).
			Msg("failed to activate session")
	}
}

// handleTimeout fires at most once: the local player loses by timeout.
// The local view completes immediately so the client is never stuck on
// a failed remote write.
func (w *Watcher) handleTimeout(ctx context.Context) {
	w.mu.Lock()
	w.timer = nil

	if w.timerFired || w.phase == models.PhaseCompleted {
		w.mu.Unlock()
		return
	}
	w.timerFired = true

	sess := w.snap
	role := w.role
	prevPhase := w.phase
	w.phase = models.PhaseCompleted

	var opponentID string
	var result *models.GameResult
	if sess != nil && role != "" {
		opponentID = sess.SlotByRole(role.Opponent()).PlayerID
		if !w.resultSent {
			w.resultSent = true
			result = &models.GameResult{
				SessionID:   w.sessionID,
				Outcome:     models.OutcomeLoss,
				DigitLength: sess.DigitLength,
				GuessCount:  len(sess.SlotByRole(role).Guesses),
			}
		}
	}
	w.mu.Unlock()

	// Winner is set-once: if the opponent completed the game while this
	// write is in flight, their value stands and this one is ignored
	if opponentID != "" {
		err := w.svc.sessionRepo.UpdateFields(ctx, &sessionRepo.UpdateFieldsInput{
			SessionID: w.sessionID,
			Fields: []sessionRepo.FieldUpdate{
				sessionRepo.PhaseUpdate(models.PhaseCompleted),
				sessionRepo.WinnerUpdate(opponentID),
			},
		})
		if err != nil {
			w.svc.log.Warn().Err(err).
				Str("session_id", w.sessionID).
				Msg("failed to record timeout loss")
		}
	}

	if prevPhase != models.PhaseCompleted && w.events.OnPhase != nil {
		w.events.OnPhase(models.PhaseCompleted, sess)
	}

	if result != nil {
		w.svc.sink.RecordResult(ctx, result)
		if w.events.OnResult != nil {
			w.events.OnResult(result)
		}
	}
}

// startTimerLocked arms the turn timer against the wall clock. A
// deadline already in the past fires immediately.
func (w *Watcher) startTimerLocked(deadline time.Time) {
	remaining := deadline.Sub(w.svc.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	w.timer = time.NewTimer(remaining)
}

func (w *Watcher) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func buildResult(sess *models.Session, role models.Role, selfID string) *models.GameResult {
	outcome := models.OutcomeLoss
	switch sess.Winner {
	case selfID:
		outcome = models.OutcomeWin
	case models.WinnerTie:
		outcome = models.OutcomeTie
	}

	return &models.GameResult{
		SessionID:   sess.ID,
		Outcome:     outcome,
		DigitLength: sess.DigitLength,
		GuessCount:  len(sess.SlotByRole(role).Guesses),
	}
}
