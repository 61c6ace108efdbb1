package invitation

import "github.com/kdurkin/digitduel/internal/models"

// Event is one observed change to an invitation. Deleted events carry
// only the id.
type Event struct {
	Invitation *models.Invitation
	ID         string
	Deleted    bool
}

// Subscription is a live feed of invitation events
type Subscription struct {
	// Events is closed when the subscription ends
	Events <-chan *Event

	closeFn func()
}

// NewSubscription wraps an event channel; tests use this to fabricate
// subscription feeds
func NewSubscription(events <-chan *Event, closeFn func()) *Subscription {
	return &Subscription{Events: events, closeFn: closeFn}
}

// Close ends the subscription
func (s *Subscription) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

type CreateInvitationInput struct {
	Invitation *models.Invitation
}

type GetInvitationInput struct {
	InvitationID string
}

type UpdateStatusInput struct {
	InvitationID string
	Status       models.InvitationStatus
}

type DeleteInvitationInput struct {
	InvitationID string
}

type ListInvitationIDsInput struct {
}

type ListInvitationIDsOutput struct {
	InvitationIDs []string
}

type SubscribeIncomingInput struct {
	DisplayName string
}

type SubscribeInvitationInput struct {
	InvitationID string
}
