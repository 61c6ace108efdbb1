package identity

import (
	"context"
	"errors"

	"github.com/kdurkin/digitduel/internal/models"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_provider.go github.com/kdurkin/digitduel/internal/identity Provider

// ErrNotAuthenticated is returned when no user is signed in
var ErrNotAuthenticated = errors.New("not authenticated")

// Provider supplies the signed-in user's identity. Every session
// operation requires one; absence is a hard precondition failure.
type Provider interface {
	Current(ctx context.Context) (*models.Identity, error)
}

// Static is a Provider backed by a fixed identity, used by the CLI
// where the identity comes from the environment
type Static struct {
	identity *models.Identity
}

// NewStatic creates a provider for a fixed user
func NewStatic(id, displayName string) (*Static, error) {
	if id == "" || displayName == "" {
		return nil, errors.New("id and display name cannot be empty")
	}

	return &Static{
		identity: &models.Identity{
			ID:          id,
			DisplayName: displayName,
		},
	}, nil
}

// Current returns the fixed identity
func (s *Static) Current(_ context.Context) (*models.Identity, error) {
	if s.identity == nil {
		return nil, ErrNotAuthenticated
	}
	return s.identity, nil
}
