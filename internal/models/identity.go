package models

// Identity is the signed-in user as seen by the session protocol
type Identity struct {
	// ID is the stable user id
	ID string

	// DisplayName is the name shown to opponents and used to address
	// invitations
	DisplayName string
}
