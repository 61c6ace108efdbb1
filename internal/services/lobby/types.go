package lobby

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/kdurkin/digitduel/internal/common/clock"
	"github.com/kdurkin/digitduel/internal/common/uuid"
	"github.com/kdurkin/digitduel/internal/identity"
	"github.com/kdurkin/digitduel/internal/models"
	invitationRepo "github.com/kdurkin/digitduel/internal/repositories/invitation"
	sessionRepo "github.com/kdurkin/digitduel/internal/repositories/session"
)

// Config holds configuration for the lobby service
type Config struct {
	// InvitationRepo is the matchmaking channel store
	InvitationRepo invitationRepo.Repository

	// SessionRepo is the shared session document store; accepting an
	// invitation creates the session document
	SessionRepo sessionRepo.Repository

	// Identity supplies the signed-in user
	Identity identity.Provider

	// StaleAfter is the default age bound for CleanupStale when the
	// input does not carry one
	StaleAfter time.Duration

	// Service dependencies
	Clock         clock.Clock
	UUIDGenerator uuid.UUID
	Logger        zerolog.Logger
}

// SendInvitationInput contains parameters for proposing a session to a
// named peer
type SendInvitationInput struct {
	// ToDisplayName addresses the invitation. A name nobody listens on
	// never resolves; the invitation stays pending until swept.
	ToDisplayName string

	// DigitLength is the proposed secret length
	DigitLength int
}

// SendInvitationOutput contains the created invitation
type SendInvitationOutput struct {
	InvitationID string
}

// InvitationUpdate is one observed change to an invitation
type InvitationUpdate struct {
	Invitation *models.Invitation
	Deleted    bool
}

// WatchIncomingInput contains parameters for listening for invitations
// addressed to the signed-in user
type WatchIncomingInput struct {
}

// WatchIncomingOutput carries the incoming invitation feed
type WatchIncomingOutput struct {
	// Invitations delivers pending invitations; closed when the watch
	// ends
	Invitations <-chan *models.Invitation

	// Close ends the watch
	Close func()
}

// WatchInvitationInput contains parameters for observing one
// invitation's lifecycle; the sender uses this to notice acceptance
type WatchInvitationInput struct {
	InvitationID string
}

// WatchInvitationOutput carries the invitation lifecycle feed
type WatchInvitationOutput struct {
	// Updates delivers lifecycle changes; closed when the watch ends
	Updates <-chan *InvitationUpdate

	// Close ends the watch
	Close func()
}

// AcceptInvitationInput contains parameters for accepting
type AcceptInvitationInput struct {
	InvitationID string
}

// AcceptInvitationOutput contains the session created by the accept
type AcceptInvitationOutput struct {
	// SessionID of the created session; reuses the invitation id
	SessionID string
}

// DeclineInvitationInput contains parameters for declining
type DeclineInvitationInput struct {
	InvitationID string
}

// DeclineInvitationOutput contains the result of declining
type DeclineInvitationOutput struct {
}

// CleanupStaleInput contains parameters for the invitation sweep
type CleanupStaleInput struct {
	// OlderThan overrides the configured age bound when non-zero
	OlderThan time.Duration
}

// CleanupStaleOutput reports what the sweep removed
type CleanupStaleOutput struct {
	InvitationsRemoved int
}
