package match

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kdurkin/digitduel/internal/common/clock"
	"github.com/kdurkin/digitduel/internal/common/uuid"
	"github.com/kdurkin/digitduel/internal/identity"
	"github.com/kdurkin/digitduel/internal/models"
	sessionRepo "github.com/kdurkin/digitduel/internal/repositories/session"
	"github.com/kdurkin/digitduel/internal/secret"
)

// ResultSink receives the outcome of a completed session. Delivery is
// fire-and-forget; the protocol does not retry.
type ResultSink interface {
	RecordResult(ctx context.Context, result *models.GameResult)
}

// Config holds configuration for the match service
type Config struct {
	// SessionRepo is the shared session document store
	SessionRepo sessionRepo.Repository

	// Identity supplies the signed-in user
	Identity identity.Provider

	// SecretGen produces secrets when the player does not supply one
	SecretGen secret.Generator

	// ResultSink receives completed-session outcomes. Optional; defaults
	// to a log-only sink.
	ResultSink ResultSink

	// StaleAfter is the default age bound for CleanupStale when the
	// input does not carry one
	StaleAfter time.Duration

	// Service dependencies
	Clock         clock.Clock
	UUIDGenerator uuid.UUID
	Logger        zerolog.Logger
}

// CreateSessionInput contains parameters for creating a new session
type CreateSessionInput struct {
	// DigitLength is the secret length, one of 3, 4, 5
	DigitLength int
}

// CreateSessionOutput contains the result of creating a session
type CreateSessionOutput struct {
	// SessionID is the unique identifier for the created session
	SessionID string
}

// JoinSessionInput contains parameters for joining an existing session
type JoinSessionInput struct {
	SessionID string
}

// JoinSessionOutput contains the result of joining a session
type JoinSessionOutput struct {
	// Session is the document state as of the join
	Session *models.Session

	// Role is the slot the caller occupies
	Role models.Role
}

// SetSecretInput contains parameters for committing a secret number
type SetSecretInput struct {
	SessionID string

	// SecretNumber is the digit string to commit. Empty means generate
	// one.
	SecretNumber string
}

// SetSecretOutput contains the committed secret
type SetSecretOutput struct {
	SecretNumber string
}

// SubmitGuessInput contains parameters for guessing the opponent's
// secret
type SubmitGuessInput struct {
	SessionID string
	Guess     string
}

// SubmitGuessOutput contains the scored guess
type SubmitGuessOutput struct {
	// Record is the guess as appended to the caller's log
	Record *models.GuessRecord

	// Winning indicates the guess matched exactly and the session was
	// completed in the caller's favor
	Winning bool
}

// LeaveSessionInput contains parameters for leaving a session
type LeaveSessionInput struct {
	SessionID string
}

// LeaveSessionOutput contains the result of leaving. Leaving always
// succeeds locally; Deleted reports whether the remote document was
// removed as part of it.
type LeaveSessionOutput struct {
	Deleted bool
}

// WatchSessionInput contains parameters for watching a session
type WatchSessionInput struct {
	SessionID string

	// Events are the callbacks invoked by the watcher. All fields are
	// optional.
	Events WatcherEvents
}

// WatchSessionOutput contains the running watcher
type WatchSessionOutput struct {
	Watcher *Watcher
}

// CleanupStaleInput contains parameters for the orphaned-session sweep
type CleanupStaleInput struct {
	// OlderThan overrides the configured age bound when non-zero
	OlderThan time.Duration
}

// CleanupStaleOutput reports what the sweep removed
type CleanupStaleOutput struct {
	SessionsRemoved int
}
