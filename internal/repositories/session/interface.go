package session

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/kdurkin/digitduel/internal/repositories/session Repository

import (
	"context"

	"github.com/kdurkin/digitduel/internal/models"
)

// Repository abstracts the shared mutable session document. Updates
// target individual field paths, never the whole document, so that two
// clients writing disjoint fields cannot clobber each other.
type Repository interface {
	// CreateSession writes a new session document
	CreateSession(ctx context.Context, input *CreateSessionInput) error

	// GetSession reads the full session document
	GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error)

	// UpdateFields applies partial field updates to an existing document
	UpdateFields(ctx context.Context, input *UpdateFieldsInput) error

	// DeleteSession removes a session document
	DeleteSession(ctx context.Context, input *DeleteSessionInput) error

	// ListSessionIDs returns all known session ids
	ListSessionIDs(ctx context.Context, input *ListSessionIDsInput) (*ListSessionIDsOutput, error)

	// Subscribe delivers a snapshot whenever the document changes.
	// The subscription ends when ctx is cancelled or Close is called.
	Subscribe(ctx context.Context, input *SubscribeInput) (*Subscription, error)
}
