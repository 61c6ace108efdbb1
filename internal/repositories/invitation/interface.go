package invitation

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/kdurkin/digitduel/internal/repositories/invitation Repository

import (
	"context"

	"github.com/kdurkin/digitduel/internal/models"
)

// Repository stores pre-session invitations addressed to display names
type Repository interface {
	// CreateInvitation writes a new pending invitation
	CreateInvitation(ctx context.Context, input *CreateInvitationInput) error

	// GetInvitation reads an invitation by id
	GetInvitation(ctx context.Context, input *GetInvitationInput) (*models.Invitation, error)

	// UpdateStatus moves an invitation through its lifecycle
	UpdateStatus(ctx context.Context, input *UpdateStatusInput) error

	// DeleteInvitation removes an invitation
	DeleteInvitation(ctx context.Context, input *DeleteInvitationInput) error

	// ListInvitationIDs returns all known invitation ids
	ListInvitationIDs(ctx context.Context, input *ListInvitationIDsInput) (*ListInvitationIDsOutput, error)

	// SubscribeIncoming delivers pending invitations addressed to a
	// display name, including ones already waiting at subscribe time
	SubscribeIncoming(ctx context.Context, input *SubscribeIncomingInput) (*Subscription, error)

	// SubscribeInvitation delivers lifecycle changes of one invitation;
	// the sender uses this to observe acceptance
	SubscribeInvitation(ctx context.Context, input *SubscribeInvitationInput) (*Subscription, error)
}
