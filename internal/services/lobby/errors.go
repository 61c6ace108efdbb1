package lobby

// LobbyError is a custom error type for matchmaking errors
type LobbyError string

// Error implements the error interface
func (e LobbyError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrStoreUnavailable   LobbyError = "matchmaking store unavailable"
	ErrInvitationNotFound LobbyError = "invitation not found"
	ErrInvitationResolved LobbyError = "invitation was already resolved"
	ErrNotAddressee       LobbyError = "invitation is addressed to someone else"
	ErrInvalidDigitLength LobbyError = "digit length must be 3, 4 or 5"
	ErrNotAuthenticated   LobbyError = "not signed in"

	ErrNilConfig         LobbyError = "config cannot be nil"
	ErrNilInvitationRepo LobbyError = "invitation repository cannot be nil"
	ErrNilSessionRepo    LobbyError = "session repository cannot be nil"
	ErrNilIdentity       LobbyError = "identity provider cannot be nil"
	ErrNilClock          LobbyError = "clock cannot be nil"
	ErrNilUUIDGenerator  LobbyError = "UUID generator cannot be nil"
)
