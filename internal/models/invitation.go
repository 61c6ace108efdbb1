package models

import "time"

// InvitationStatus represents the lifecycle of an invitation
type InvitationStatus string

const (
	// InvitationStatusPending indicates the invitation awaits a response
	InvitationStatusPending InvitationStatus = "pending"

	// InvitationStatusAccepted indicates the recipient accepted
	InvitationStatusAccepted InvitationStatus = "accepted"

	// InvitationStatusDeclined indicates the recipient declined
	InvitationStatusDeclined InvitationStatus = "declined"
)

// Invitation proposes a session to a named peer before any session
// document exists. Short-lived; deleted after resolution or cleanup.
type Invitation struct {
	// ID is the unique identifier for the invitation. An accepted
	// invitation's session reuses this id.
	ID string

	// FromID is the sender's user id
	FromID string

	// FromName is the sender's display name
	FromName string

	// ToName is the display name the invitation is addressed to. An
	// invitation addressed to a name nobody listens on never resolves.
	ToName string

	// DigitLength is the proposed secret length
	DigitLength int

	// TimeLimitSeconds is the proposed time budget
	TimeLimitSeconds int

	// Status is the current lifecycle stage
	Status InvitationStatus

	// CreatedAt is when the invitation was sent
	CreatedAt time.Time
}
