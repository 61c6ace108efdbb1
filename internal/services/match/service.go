package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kdurkin/digitduel/internal/common/clock"
	"github.com/kdurkin/digitduel/internal/common/uuid"
	"github.com/kdurkin/digitduel/internal/feedback"
	"github.com/kdurkin/digitduel/internal/identity"
	"github.com/kdurkin/digitduel/internal/models"
	sessionRepo "github.com/kdurkin/digitduel/internal/repositories/session"
	"github.com/kdurkin/digitduel/internal/secret"
)

const defaultStaleAfter = 24 * time.Hour

// service implements the Service interface
type service struct {
	sessionRepo sessionRepo.Repository
	identity    identity.Provider
	secretGen   secret.Generator
	sink        ResultSink
	clock       clock.Clock
	uuider      uuid.UUID
	log         zerolog.Logger
	staleAfter  time.Duration
}

// New creates a new match service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.SessionRepo == nil {
		return nil, ErrNilSessionRepo
	}

	if cfg.Identity == nil {
		return nil, ErrNilIdentity
	}

	if cfg.SecretGen == nil {
		return nil, ErrNilSecretGen
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	if cfg.UUIDGenerator == nil {
		return nil, ErrNilUUIDGenerator
	}

	sink := cfg.ResultSink
	if sink == nil {
		sink = &logSink{log: cfg.Logger}
	}

	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}

	return &service{
		sessionRepo: cfg.SessionRepo,
		identity:    cfg.Identity,
		secretGen:   cfg.SecretGen,
		sink:        sink,
		clock:       cfg.Clock,
		uuider:      cfg.UUIDGenerator,
		log:         cfg.Logger,
		staleAfter:  staleAfter,
	}, nil
}

// currentIdentity resolves the signed-in user, a hard precondition for
// every session operation
func (s *service) currentIdentity(ctx context.Context) (*models.Identity, error) {
	id, err := s.identity.Current(ctx)
	if err != nil || id == nil || id.ID == "" {
		return nil, ErrNotAuthenticated
	}
	return id, nil
}

// storeError converts a raw repository failure into the protocol's
// error taxonomy; transport errors never reach the caller as-is
func storeError(err error) error {
	if errors.Is(err, sessionRepo.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func validDigitLength(digits int) bool {
	return digits == 3 || digits == 4 || digits == 5
}

func isDigitString(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CreateSession writes a new session document with the caller as
// initiator and an empty joiner slot
func (s *service) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	self, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	if !validDigitLength(input.DigitLength) {
		return nil, ErrInvalidDigitLength
	}

	sess := &models.Session{
		ID:               s.uuider.NewUUID(),
		DigitLength:      input.DigitLength,
		TimeLimitSeconds: models.TimeLimitForDigits(input.DigitLength),
		Phase:            models.PhaseAwaitingJoin,
		Initiator: &models.Slot{
			PlayerID:   self.ID,
			PlayerName: self.DisplayName,
		},
		Joiner:    &models.Slot{},
		CreatedAt: s.clock.Now(),
	}

	if err := s.sessionRepo.CreateSession(ctx, &sessionRepo.CreateSessionInput{Session: sess}); err != nil {
		return nil, storeError(err)
	}

	s.log.Info().
		Str("session_id", sess.ID).
		Int("digits", sess.DigitLength).
		Msg("session created")

	return &CreateSessionOutput{SessionID: sess.ID}, nil
}

// JoinSession writes the caller into the joiner slot and advances the
// session to awaiting_secrets
func (s *service) JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	self, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{SessionID: input.SessionID})
	if err != nil {
		return nil, storeError(err)
	}

	// Re-joining a session the caller already holds a slot in is a no-op
	if slot, role, ok := sess.SlotFor(self.ID); ok && slot != nil {
		return &JoinSessionOutput{Session: sess, Role: role}, nil
	}

	if sess.Joiner.Occupied() {
		return nil, ErrSessionFull
	}

	fields := sessionRepo.OccupySlotUpdates(models.RoleJoiner, self)
	fields = append(fields, sessionRepo.PhaseUpdate(models.PhaseAwaitingSecrets))

	if err := s.sessionRepo.UpdateFields(ctx, &sessionRepo.UpdateFieldsInput{
		SessionID: input.SessionID,
		Fields:    fields,
	}); err != nil {
		return nil, storeError(err)
	}

	sess.Joiner = &models.Slot{PlayerID: self.ID, PlayerName: self.DisplayName}
	sess.Phase = models.PhaseAwaitingSecrets

	s.log.Info().
		Str("session_id", sess.ID).
		Msg("joined session")

	return &JoinSessionOutput{Session: sess, Role: models.RoleJoiner}, nil
}

// SetSecret commits the caller's secret number, generating one when the
// input does not carry one, and marks the caller ready
func (s *service) SetSecret(ctx context.Context, input *SetSecretInput) (*SetSecretOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	self, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{SessionID: input.SessionID})
	if err != nil {
		return nil, storeError(err)
	}

	slot, role, ok := sess.SlotFor(self.ID)
	if !ok {
		return nil, ErrNotInSession
	}

	// A committed secret is immutable for the session's lifetime
	if slot.SecretNumber != "" {
		return nil, ErrSecretAlreadySet
	}

	if sess.Phase == models.PhaseActive || sess.Phase == models.PhaseCompleted {
		return nil, ErrInvalidSecret
	}

	secretNumber := input.SecretNumber
	if secretNumber == "" {
		secretNumber, err = s.secretGen.Generate(sess.DigitLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate secret: %w", err)
		}
	}

	if !isDigitString(secretNumber, sess.DigitLength) {
		return nil, ErrInvalidSecret
	}

	if err := s.sessionRepo.UpdateFields(ctx, &sessionRepo.UpdateFieldsInput{
		SessionID: input.SessionID,
		Fields: []sessionRepo.FieldUpdate{
			sessionRepo.SecretUpdate(role, secretNumber),
			sessionRepo.ReadyUpdate(role, true),
		},
	}); err != nil {
		return nil, storeError(err)
	}

	s.log.Info().
		Str("session_id", sess.ID).
		Str("role", string(role)).
		Msg("secret committed")

	return &SetSecretOutput{SecretNumber: secretNumber}, nil
}

// SubmitGuess scores a guess against the opponent's secret as known
// from the latest snapshot and appends the record to the caller's own
// guess log. An exact match completes the session in the caller's
// favor.
func (s *service) SubmitGuess(ctx context.Context, input *SubmitGuessInput) (*SubmitGuessOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	self, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{SessionID: input.SessionID})
	if err != nil {
		return nil, storeError(err)
	}

	slot, role, ok := sess.SlotFor(self.ID)
	if !ok {
		return nil, ErrNotInSession
	}

	// Once completed, no further guesses are accepted
	if sess.Phase != models.PhaseActive {
		return nil, ErrSessionNotActive
	}

	if !isDigitString(input.Guess, sess.DigitLength) {
		return nil, ErrInvalidGuess
	}

	opponent := sess.SlotByRole(role.Opponent())
	if !opponent.Occupied() || opponent.SecretNumber == "" {
		return nil, ErrOpponentNotReady
	}

	codes, err := feedback.Compute(input.Guess, opponent.SecretNumber)
	if err != nil {
		return nil, ErrInvalidGuess
	}

	record := &models.GuessRecord{
		Value:       input.Guess,
		Feedback:    codes,
		IsWinning:   feedback.AllExact(codes),
		SubmittedAt: s.clock.Now(),
	}

	guessesField, err := sessionRepo.GuessesUpdate(role, append(slot.Guesses, record))
	if err != nil {
		return nil, err
	}

	fields := []sessionRepo.FieldUpdate{guessesField}
	if record.IsWinning {
		// Winner is a set-once field: if the opponent completed first,
		// their write stands and ours is ignored
		fields = append(fields,
			sessionRepo.PhaseUpdate(models.PhaseCompleted),
			sessionRepo.WinnerUpdate(self.ID),
		)
	}

	if err := s.sessionRepo.UpdateFields(ctx, &sessionRepo.UpdateFieldsInput{
		SessionID: input.SessionID,
		Fields:    fields,
	}); err != nil {
		return nil, storeError(err)
	}

	s.log.Debug().
		Str("session_id", sess.ID).
		Str("guess", input.Guess).
		Bool("winning", record.IsWinning).
		Msg("guess submitted")

	return &SubmitGuessOutput{Record: record, Winning: record.IsWinning}, nil
}

// LeaveSession tears the session down from the caller's side. The
// initiator deletes the document; a joiner vacates its slot. The local
// view always transitions to "no session" even when the remote write
// fails.
func (s *service) LeaveSession(ctx context.Context, input *LeaveSessionInput) (*LeaveSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	self, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{SessionID: input.SessionID})
	if err != nil {
		// Already gone is a clean departure
		return &LeaveSessionOutput{Deleted: errors.Is(err, sessionRepo.ErrSessionNotFound)}, nil
	}

	_, role, ok := sess.SlotFor(self.ID)
	if !ok {
		return &LeaveSessionOutput{}, nil
	}

	if role == models.RoleInitiator {
		// The session has no meaning without its origin
		if err := s.sessionRepo.DeleteSession(ctx, &sessionRepo.DeleteSessionInput{SessionID: input.SessionID}); err != nil {
			s.log.Warn().Err(err).
				Str("session_id", input.SessionID).
				Msg("failed to delete session on leave")
			return &LeaveSessionOutput{}, nil
		}
		return &LeaveSessionOutput{Deleted: true}, nil
	}

	if err := s.sessionRepo.UpdateFields(ctx, &sessionRepo.UpdateFieldsInput{
		SessionID: input.SessionID,
		Fields:    sessionRepo.ClearSlotUpdates(models.RoleJoiner),
	}); err != nil {
		s.log.Warn().Err(err).
			Str("session_id", input.SessionID).
			Msg("failed to vacate slot on leave")
	}

	return &LeaveSessionOutput{}, nil
}

// logSink is the default ResultSink: completed sessions only show up in
// the logs
type logSink struct {
	log zerolog.Logger
}

func (l *logSink) RecordResult(_ context.Context, result *models.GameResult) {
	l.log.Info().
		Str("session_id", result.SessionID).
		Str("outcome", string(result.Outcome)).
		Int("digits", result.DigitLength).
		Int("guesses", result.GuessCount).
		Msg("session result")
}
