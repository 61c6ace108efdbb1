package lobby

import "context"

// Service is the invitation handshake in front of the session
// protocol: a session proposed to a named peer must be accepted before
// either side touches a session document. All operations act as the
// currently signed-in user.
type Service interface {
	// SendInvitation proposes a session to a named peer
	SendInvitation(ctx context.Context, input *SendInvitationInput) (*SendInvitationOutput, error)

	// WatchIncoming delivers pending invitations addressed to the caller
	WatchIncoming(ctx context.Context, input *WatchIncomingInput) (*WatchIncomingOutput, error)

	// WatchInvitation delivers lifecycle changes of a sent invitation
	WatchInvitation(ctx context.Context, input *WatchInvitationInput) (*WatchInvitationOutput, error)

	// AcceptInvitation accepts and creates the session document
	AcceptInvitation(ctx context.Context, input *AcceptInvitationInput) (*AcceptInvitationOutput, error)

	// DeclineInvitation declines an invitation
	DeclineInvitation(ctx context.Context, input *DeclineInvitationInput) (*DeclineInvitationOutput, error)

	// CleanupStale removes resolved and aged invitations
	CleanupStale(ctx context.Context, input *CleanupStaleInput) (*CleanupStaleOutput, error)
}
