package match

import "context"

// Service owns a session's lifecycle: it is the only component that
// decides phase transitions and mediates session mutation. All
// operations act as the currently signed-in user.
type Service interface {
	// CreateSession writes a new session awaiting a second player
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)

	// JoinSession writes the caller into the joiner slot
	JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error)

	// SetSecret commits the caller's secret number and marks the caller
	// ready
	SetSecret(ctx context.Context, input *SetSecretInput) (*SetSecretOutput, error)

	// SubmitGuess scores a guess against the opponent's secret and
	// appends it to the caller's guess log
	SubmitGuess(ctx context.Context, input *SubmitGuessInput) (*SubmitGuessOutput, error)

	// LeaveSession tears the session down from the caller's side
	LeaveSession(ctx context.Context, input *LeaveSessionInput) (*LeaveSessionOutput, error)

	// WatchSession starts a watcher that reacts to remote snapshots
	WatchSession(ctx context.Context, input *WatchSessionInput) (*WatchSessionOutput, error)

	// CleanupStale removes completed and abandoned sessions
	CleanupStale(ctx context.Context, input *CleanupStaleInput) (*CleanupStaleOutput, error)
}
