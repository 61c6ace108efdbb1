package match

// MatchError is a custom error type for session protocol errors
type MatchError string

// Error implements the error interface
func (e MatchError) Error() string {
	return string(e)
}

// Define errors
const (
	// ErrStoreUnavailable means the shared store cannot be reached or is
	// not provisioned. Surfaced to the caller as a setup problem, never
	// retried silently.
	ErrStoreUnavailable MatchError = "session store unavailable"

	ErrSessionNotFound    MatchError = "session not found"
	ErrSessionFull        MatchError = "session already has two players"
	ErrInvalidDigitLength MatchError = "digit length must be 3, 4 or 5"
	ErrInvalidSecret      MatchError = "secret number has the wrong format"
	ErrSecretAlreadySet   MatchError = "secret number is already set"
	ErrInvalidGuess       MatchError = "guess has the wrong format"
	ErrSessionNotActive   MatchError = "session is not in active play"
	ErrOpponentNotReady   MatchError = "opponent has not committed a secret yet"
	ErrNotAuthenticated   MatchError = "not signed in"
	ErrNotInSession       MatchError = "player is not part of this session"

	ErrNilConfig        MatchError = "config cannot be nil"
	ErrNilSessionRepo   MatchError = "session repository cannot be nil"
	ErrNilIdentity      MatchError = "identity provider cannot be nil"
	ErrNilSecretGen     MatchError = "secret generator cannot be nil"
	ErrNilClock         MatchError = "clock cannot be nil"
	ErrNilUUIDGenerator MatchError = "UUID generator cannot be nil"
)
