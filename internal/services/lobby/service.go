package lobby

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kdurkin/digitduel/internal/common/clock"
	"github.com/kdurkin/digitduel/internal/common/uuid"
	"github.com/kdurkin/digitduel/internal/identity"
	"github.com/kdurkin/digitduel/internal/models"
	invitationRepo "github.com/kdurkin/digitduel/internal/repositories/invitation"
	sessionRepo "github.com/kdurkin/digitduel/internal/repositories/session"
)

const defaultStaleAfter = time.Hour

// service implements the Service interface
type service struct {
	invitationRepo invitationRepo.Repository
	sessionRepo    sessionRepo.Repository
	identity       identity.Provider
	clock          clock.Clock
	uuider         uuid.UUID
	log            zerolog.Logger
	staleAfter     time.Duration
}

// New creates a new lobby service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.InvitationRepo == nil {
		return nil, ErrNilInvitationRepo
	}

	if cfg.SessionRepo == nil {
		return nil, ErrNilSessionRepo
	}

	if cfg.Identity == nil {
		return nil, ErrNilIdentity
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	if cfg.UUIDGenerator == nil {
		return nil, ErrNilUUIDGenerator
	}

	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}

	return &service{
		invitationRepo: cfg.InvitationRepo,
		sessionRepo:    cfg.SessionRepo,
		identity:       cfg.Identity,
		clock:          cfg.Clock,
		uuider:         cfg.UUIDGenerator,
		log:            cfg.Logger,
		staleAfter:     staleAfter,
	}, nil
}

func (s *service) currentIdentity(ctx context.Context) (*models.Identity, error) {
	id, err := s.identity.Current(ctx)
	if err != nil || id == nil || id.ID == "" {
		return nil, ErrNotAuthenticated
	}
	return id, nil
}

func storeError(err error) error {
	if errors.Is(err, invitationRepo.ErrInvitationNotFound) {
		return ErrInvitationNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// SendInvitation proposes a session to a named peer. Whether anyone
// listens on that name is unknowable here: an invitation to an unknown
// name stays pending until swept.
func (s *service) SendInvitation(ctx context.Context, input *SendInvitationInput) (*SendInvitationOutput, error) {
	if input == nil || input.ToDisplayName == "" {
		return nil, errors.New("input and target display name cannot be empty")
	}

	self, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	if input.DigitLength != 3 && input.DigitLength != 4 && input.DigitLength != 5 {
		return nil, ErrInvalidDigitLength
	}

	inv := &models.Invitation{
		ID:               s.uuider.NewUUID(),
		FromID:           self.ID,
		FromName:         self.DisplayName,
		ToName:           input.ToDisplayName,
		DigitLength:      input.DigitLength,
		TimeLimitSeconds: models.TimeLimitForDigits(input.DigitLength),
		Status:           models.InvitationStatusPending,
		CreatedAt:        s.clock.Now(),
	}

	if err := s.invitationRepo.CreateInvitation(ctx, &invitationRepo.CreateInvitationInput{Invitation: inv}); err != nil {
		return nil, storeError(err)
	}

	s.log.Info().
		Str("invitation_id", inv.ID).
		Str("to", inv.ToName).
		Msg("invitation sent")

	return &SendInvitationOutput{InvitationID: inv.ID}, nil
}

// WatchIncoming delivers pending invitations addressed to the caller's
// display name
func (s *service) WatchIncoming(ctx context.Context, _ *WatchIncomingInput) (*WatchIncomingOutput, error) {
	self, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.invitationRepo.SubscribeIncoming(ctx, &invitationRepo.SubscribeIncomingInput{
		DisplayName: self.DisplayName,
	})
	if err != nil {
		return nil, storeError(err)
	}

	out := make(chan *models.Invitation, 8)
	go func() {
		defer close(out)
		for ev := range sub.Events {
			if ev.Invitation == nil {
				continue
			}
			select {
			case out <- ev.Invitation:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &WatchIncomingOutput{
		Invitations: out,
		Close:       sub.Close,
	}, nil
}

// WatchInvitation delivers lifecycle changes of one invitation. The
// sender watches its own invitation to observe acceptance and then
// adopts the created session as initiator.
func (s *service) WatchInvitation(ctx context.Context, input *WatchInvitationInput) (*WatchInvitationOutput, error) {
	if input == nil || input.InvitationID == "" {
		return nil, errors.New("input and invitation ID cannot be empty")
	}

	if _, err := s.currentIdentity(ctx); err != nil {
		return nil, err
	}

	sub, err := s.invitationRepo.SubscribeInvitation(ctx, &invitationRepo.SubscribeInvitationInput{
		InvitationID: input.InvitationID,
	})
	if err != nil {
		return nil, storeError(err)
	}

	out := make(chan *InvitationUpdate, 8)
	go func() {
		defer close(out)
		for ev := range sub.Events {
			update := &InvitationUpdate{Invitation: ev.Invitation, Deleted: ev.Deleted}
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &WatchInvitationOutput{
		Updates: out,
		Close:   sub.Close,
	}, nil
}

// AcceptInvitation accepts a pending invitation addressed to the
// caller. The accepting side creates the session document (initiator =
// sender, joiner = self) before flipping the invitation to accepted,
// so the sender finds the session when it observes the acceptance;
// the sender must still tolerate a not-yet-visible document and wait
// for its next snapshot.
func (s *service) AcceptInvitation(ctx context.Context, input *AcceptInvitationInput) (*AcceptInvitationOutput, error) {
	if input == nil || input.InvitationID == "" {
		return nil, errors.New("input and invitation ID cannot be empty")
	}

	self, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.invitationRepo.GetInvitation(ctx, &invitationRepo.GetInvitationInput{
		InvitationID: input.InvitationID,
	})
	if err != nil {
		return nil, storeError(err)
	}

	if inv.ToName != self.DisplayName {
		return nil, ErrNotAddressee
	}

	if inv.Status != models.InvitationStatusPending {
		return nil, ErrInvitationResolved
	}

	// The session reuses the invitation id, which also makes a repeated
	// accept converge on the same document
	sess := &models.Session{
		ID:               inv.ID,
		DigitLength:      inv.DigitLength,
		TimeLimitSeconds: inv.TimeLimitSeconds,
		Phase:            models.PhaseAwaitingSecrets,
		Initiator: &models.Slot{
			PlayerID:   inv.FromID,
			PlayerName: inv.FromName,
		},
		Joiner: &models.Slot{
			PlayerID:   self.ID,
			PlayerName: self.DisplayName,
		},
		CreatedAt: s.clock.Now(),
	}

	if err := s.sessionRepo.CreateSession(ctx, &sessionRepo.CreateSessionInput{Session: sess}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.invitationRepo.UpdateStatus(ctx, &invitationRepo.UpdateStatusInput{
		InvitationID: inv.ID,
		Status:       models.InvitationStatusAccepted,
	}); err != nil {
		return nil, storeError(err)
	}

	s.log.Info().
		Str("invitation_id", inv.ID).
		Str("from", inv.FromName).
		Msg("invitation accepted")

	return &AcceptInvitationOutput{SessionID: sess.ID}, nil
}

// DeclineInvitation declines a pending invitation addressed to the
// caller
func (s *service) DeclineInvitation(ctx context.Context, input *DeclineInvitationInput) (*DeclineInvitationOutput, error) {
	if input == nil || input.InvitationID == "" {
		return nil, errors.New("input and invitation ID cannot be empty")
	}

	self, err := s.currentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.invitationRepo.GetInvitation(ctx, &invitationRepo.GetInvitationInput{
		InvitationID: input.InvitationID,
	})
	if err != nil {
		return nil, storeError(err)
	}

	if inv.ToName != self.DisplayName {
		return nil, ErrNotAddressee
	}

	if inv.Status != models.InvitationStatusPending {
		return nil, ErrInvitationResolved
	}

	if err := s.invitationRepo.UpdateStatus(ctx, &invitationRepo.UpdateStatusInput{
		InvitationID: inv.ID,
		Status:       models.InvitationStatusDeclined,
	}); err != nil {
		return nil, storeError(err)
	}

	return &DeclineInvitationOutput{}, nil
}

// CleanupStale removes resolved invitations and pending ones that aged
// past the bound, which is how invitations to unknown names eventually
// disappear
func (s *service) CleanupStale(ctx context.Context, input *CleanupStaleInput) (*CleanupStaleOutput, error) {
	if input == nil {
		input = &CleanupStaleInput{}
	}

	olderThan := input.OlderThan
	if olderThan <= 0 {
		olderThan = s.staleAfter
	}

	listed, err := s.invitationRepo.ListInvitationIDs(ctx, &invitationRepo.ListInvitationIDsInput{})
	if err != nil {
		return nil, storeError(err)
	}

	cutoff := s.clock.Now().Add(-olderThan)
	removed := 0

	for _, id := range listed.InvitationIDs {
		inv, err := s.invitationRepo.GetInvitation(ctx, &invitationRepo.GetInvitationInput{InvitationID: id})
		if err != nil {
			if errors.Is(err, invitationRepo.ErrInvitationNotFound) {
				continue
			}
			return nil, storeError(err)
		}

		if inv.Status == models.InvitationStatusPending && !inv.CreatedAt.Before(cutoff) {
			continue
		}

		if err := s.invitationRepo.DeleteInvitation(ctx, &invitationRepo.DeleteInvitationInput{InvitationID: id}); err != nil {
			s.log.Warn().Err(err).
				Str("invitation_id", id).
				Msg("failed to delete stale invitation")
			continue
		}
		removed++
	}

	return &CleanupStaleOutput{InvitationsRemoved: removed}, nil
}
