package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	clockMocks "github.com/kdurkin/digitduel/internal/common/clock/mocks"
	uuidMocks "github.com/kdurkin/digitduel/internal/common/uuid/mocks"
	identityMocks "github.com/kdurkin/digitduel/internal/identity/mocks"
	"github.com/kdurkin/digitduel/internal/models"
	invitationRepo "github.com/kdurkin/digitduel/internal/repositories/invitation"
	invitationMocks "github.com/kdurkin/digitduel/internal/repositories/invitation/mocks"
	sessionRepo "github.com/kdurkin/digitduel/internal/repositories/session"
	sessionMocks "github.com/kdurkin/digitduel/internal/repositories/session/mocks"
)

type LobbyServiceTestSuite struct {
	suite.Suite
	ctx            context.Context
	ctrl           *gomock.Controller
	mockInvRepo    *invitationMocks.MockRepository
	mockSessRepo   *sessionMocks.MockRepository
	mockIdentity   *identityMocks.MockProvider
	mockClock      *clockMocks.MockClock
	mockUUID       *uuidMocks.MockUUID
	service        *service
	fixedTime      time.Time
	self           *models.Identity
	testInvitation *models.Invitation
}

func (s *LobbyServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.mockInvRepo = invitationMocks.NewMockRepository(s.ctrl)
	s.mockSessRepo = sessionMocks.NewMockRepository(s.ctrl)
	s.mockIdentity = identityMocks.NewMockProvider(s.ctrl)
	s.mockClock = clockMocks.NewMockClock(s.ctrl)
	s.mockUUID = uuidMocks.NewMockUUID(s.ctrl)

	s.fixedTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s.self = &models.Identity{ID: "player-2", DisplayName: "bob"}
	s.testInvitation = &models.Invitation{
		ID:               "inv-1",
		FromID:           "player-1",
		FromName:         "alice",
		ToName:           "bob",
		DigitLength:      4,
		TimeLimitSeconds: 30,
		Status:           models.InvitationStatusPending,
		CreatedAt:        s.fixedTime.Add(-time.Minute),
	}

	svc, err := New(&Config{
		InvitationRepo: s.mockInvRepo,
		SessionRepo:    s.mockSessRepo,
		Identity:       s.mockIdentity,
		Clock:          s.mockClock,
		UUIDGenerator:  s.mockUUID,
		Logger:         zerolog.Nop(),
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *LobbyServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LobbyServiceTestSuite) expectIdentity() {
	s.mockIdentity.EXPECT().Current(gomock.Any()).Return(s.self, nil)
}

func (s *LobbyServiceTestSuite) TestNewValidation() {
	_, err := New(nil)
	s.Equal(ErrNilConfig, err)

	_, err = New(&Config{})
	s.Equal(ErrNilInvitationRepo, err)

	_, err = New(&Config{InvitationRepo: s.mockInvRepo})
	s.Equal(ErrNilSessionRepo, err)

	_, err = New(&Config{InvitationRepo: s.mockInvRepo, SessionRepo: s.mockSessRepo})
	s.Equal(ErrNilIdentity, err)

	_, err = New(&Config{InvitationRepo: s.mockInvRepo, SessionRepo: s.mockSessRepo, Identity: s.mockIdentity})
	s.Equal(ErrNilClock, err)

	_, err = New(&Config{InvitationRepo: s.mockInvRepo, SessionRepo: s.mockSessRepo, Identity: s.mockIdentity, Clock: s.mockClock})
	s.Equal(ErrNilUUIDGenerator, err)
}

func (s *LobbyServiceTestSuite) TestSendInvitation() {
	s.expectIdentity()
	s.mockClock.EXPECT().Now().Return(s.fixedTime)
	s.mockUUID.EXPECT().NewUUID().Return("inv-new")

	s.mockInvRepo.EXPECT().
		CreateInvitation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *invitationRepo.CreateInvitationInput) error {
			s.Equal("inv-new", input.Invitation.ID)
			s.Equal("player-2", input.Invitation.FromID)
			s.Equal("bob", input.Invitation.FromName)
			s.Equal("alice", input.Invitation.ToName)
			s.Equal(3, input.Invitation.DigitLength)
			s.Equal(20, input.Invitation.TimeLimitSeconds)
			s.Equal(models.InvitationStatusPending, input.Invitation.Status)
			s.Equal(s.fixedTime, input.Invitation.CreatedAt)
			return nil
		})

	out, err := s.service.SendInvitation(s.ctx, &SendInvitationInput{
		ToDisplayName: "alice",
		DigitLength:   3,
	})
	s.Require().NoError(err)
	s.Equal("inv-new", out.InvitationID)
}

func (s *LobbyServiceTestSuite) TestSendInvitationInvalidDigitLength() {
	s.expectIdentity()

	_, err := s.service.SendInvitation(s.ctx, &SendInvitationInput{
		ToDisplayName: "alice",
		DigitLength:   6,
	})
	s.Equal(ErrInvalidDigitLength, err)
}

func (s *LobbyServiceTestSuite) TestSendInvitationNotAuthenticated() {
	s.mockIdentity.EXPECT().Current(gomock.Any()).Return(nil, ErrNotAuthenticated)

	_, err := s.service.SendInvitation(s.ctx, &SendInvitationInput{
		ToDisplayName: "alice",
		DigitLength:   4,
	})
	s.Equal(ErrNotAuthenticated, err)
}

func (s *LobbyServiceTestSuite) TestAcceptInvitation() {
	s.expectIdentity()
	s.mockClock.EXPECT().Now().Return(s.fixedTime)

	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), &invitationRepo.GetInvitationInput{InvitationID: "inv-1"}).
		Return(s.testInvitation, nil)

	s.mockSessRepo.EXPECT().
		CreateSession(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *sessionRepo.CreateSessionInput) error {
			sess := input.Session
			s.Equal("inv-1", sess.ID)
			s.Equal(4, sess.DigitLength)
			s.Equal(30, sess.TimeLimitSeconds)
			s.Equal(models.PhaseAwaitingSecrets, sess.Phase)
			s.Require().NotNil(sess.Initiator)
			s.Equal("player-1", sess.Initiator.PlayerID)
			s.Equal("alice", sess.Initiator.PlayerName)
			s.Require().NotNil(sess.Joiner)
			s.Equal("player-2", sess.Joiner.PlayerID)
			s.Equal("bob", sess.Joiner.PlayerName)
			return nil
		})

	s.mockInvRepo.EXPECT().
		UpdateStatus(gomock.Any(), &invitationRepo.UpdateStatusInput{
			InvitationID: "inv-1",
			Status:       models.InvitationStatusAccepted,
		}).
		Return(nil)

	out, err := s.service.AcceptInvitation(s.ctx, &AcceptInvitationInput{InvitationID: "inv-1"})
	s.Require().NoError(err)
	s.Equal("inv-1", out.SessionID)
}

func (s *LobbyServiceTestSuite) TestAcceptInvitationNotAddressee() {
	s.expectIdentity()

	other := *s.testInvitation
	other.ToName = "carol"

	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), gomock.Any()).
		Return(&other, nil)

	_, err := s.service.AcceptInvitation(s.ctx, &AcceptInvitationInput{InvitationID: "inv-1"})
	s.Equal(ErrNotAddressee, err)
}

func (s *LobbyServiceTestSuite) TestAcceptInvitationAlreadyResolved() {
	s.expectIdentity()

	resolved := *s.testInvitation
	resolved.Status = models.InvitationStatusDeclined

	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), gomock.Any()).
		Return(&resolved, nil)

	_, err := s.service.AcceptInvitation(s.ctx, &AcceptInvitationInput{InvitationID: "inv-1"})
	s.Equal(ErrInvitationResolved, err)
}

func (s *LobbyServiceTestSuite) TestAcceptInvitationNotFound() {
	s.expectIdentity()

	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), gomock.Any()).
		Return(nil, invitationRepo.ErrInvitationNotFound)

	_, err := s.service.AcceptInvitation(s.ctx, &AcceptInvitationInput{InvitationID: "inv-1"})
	s.Equal(ErrInvitationNotFound, err)
}

func (s *LobbyServiceTestSuite) TestDeclineInvitation() {
	s.expectIdentity()

	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), &invitationRepo.GetInvitationInput{InvitationID: "inv-1"}).
		Return(s.testInvitation, nil)

	s.mockInvRepo.EXPECT().
		UpdateStatus(gomock.Any(), &invitationRepo.UpdateStatusInput{
			InvitationID: "inv-1",
			Status:       models.InvitationStatusDeclined,
		}).
		Return(nil)

	_, err := s.service.DeclineInvitation(s.ctx, &DeclineInvitationInput{InvitationID: "inv-1"})
	s.NoError(err)
}

func (s *LobbyServiceTestSuite) TestDeclineInvitationAlreadyResolved() {
	s.expectIdentity()

	// An accepted invitation already has a session behind it; declining
	// it afterwards must not flip the status back
	accepted := *s.testInvitation
	accepted.Status = models.InvitationStatusAccepted

	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), gomock.Any()).
		Return(&accepted, nil)

	_, err := s.service.DeclineInvitation(s.ctx, &DeclineInvitationInput{InvitationID: "inv-1"})
	s.Equal(ErrInvitationResolved, err)
}

func (s *LobbyServiceTestSuite) TestDeclineInvitationNotAddressee() {
	s.expectIdentity()

	other := *s.testInvitation
	other.ToName = "carol"

	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), gomock.Any()).
		Return(&other, nil)

	_, err := s.service.DeclineInvitation(s.ctx, &DeclineInvitationInput{InvitationID: "inv-1"})
	s.Equal(ErrNotAddressee, err)
}

func (s *LobbyServiceTestSuite) TestWatchIncomingForwardsPending() {
	s.expectIdentity()

	events := make(chan *invitationRepo.Event, 2)
	events <- &invitationRepo.Event{Invitation: s.testInvitation, ID: s.testInvitation.ID}
	close(events)

	s.mockInvRepo.EXPECT().
		SubscribeIncoming(gomock.Any(), &invitationRepo.SubscribeIncomingInput{DisplayName: "bob"}).
		Return(invitationRepo.NewSubscription(events, func() {}), nil)

	out, err := s.service.WatchIncoming(s.ctx, &WatchIncomingInput{})
	s.Require().NoError(err)
	defer out.Close()

	got, ok := <-out.Invitations
	s.Require().True(ok)
	s.Equal("inv-1", got.ID)

	_, ok = <-out.Invitations
	s.False(ok)
}

func (s *LobbyServiceTestSuite) TestWatchInvitationForwardsLifecycle() {
	s.expectIdentity()

	accepted := *s.testInvitation
	accepted.Status = models.InvitationStatusAccepted

	events := make(chan *invitationRepo.Event, 2)
	events <- &invitationRepo.Event{Invitation: &accepted, ID: accepted.ID}
	events <- &invitationRepo.Event{ID: accepted.ID, Deleted: true}
	close(events)

	s.mockInvRepo.EXPECT().
		SubscribeInvitation(gomock.Any(), &invitationRepo.SubscribeInvitationInput{InvitationID: "inv-1"}).
		Return(invitationRepo.NewSubscription(events, func() {}), nil)

	out, err := s.service.WatchInvitation(s.ctx, &WatchInvitationInput{InvitationID: "inv-1"})
	s.Require().NoError(err)
	defer out.Close()

	first, ok := <-out.Updates
	s.Require().True(ok)
	s.Require().NotNil(first.Invitation)
	s.Equal(models.InvitationStatusAccepted, first.Invitation.Status)
	s.False(first.Deleted)

	second, ok := <-out.Updates
	s.Require().True(ok)
	s.True(second.Deleted)
}

func (s *LobbyServiceTestSuite) TestCleanupStale() {
	fresh := &models.Invitation{
		ID:        "inv-fresh",
		ToName:    "bob",
		Status:    models.InvitationStatusPending,
		CreatedAt: s.fixedTime.Add(-time.Minute),
	}
	aged := &models.Invitation{
		ID:        "inv-aged",
		ToName:    "nobody",
		Status:    models.InvitationStatusPending,
		CreatedAt: s.fixedTime.Add(-2 * time.Hour),
	}
	resolved := &models.Invitation{
		ID:        "inv-done",
		ToName:    "bob",
		Status:    models.InvitationStatusAccepted,
		CreatedAt: s.fixedTime.Add(-time.Minute),
	}

	s.mockClock.EXPECT().Now().Return(s.fixedTime)
	s.mockInvRepo.EXPECT().
		ListInvitationIDs(gomock.Any(), gomock.Any()).
		Return(&invitationRepo.ListInvitationIDsOutput{
			InvitationIDs: []string{"inv-fresh", "inv-aged", "inv-done", "inv-gone"},
		}, nil)

	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), &invitationRepo.GetInvitationInput{InvitationID: "inv-fresh"}).
		Return(fresh, nil)
	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), &invitationRepo.GetInvitationInput{InvitationID: "inv-aged"}).
		Return(aged, nil)
	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), &invitationRepo.GetInvitationInput{InvitationID: "inv-done"}).
		Return(resolved, nil)
	s.mockInvRepo.EXPECT().
		GetInvitation(gomock.Any(), &invitationRepo.GetInvitationInput{InvitationID: "inv-gone"}).
		Return(nil, invitationRepo.ErrInvitationNotFound)

	s.mockInvRepo.EXPECT().
		DeleteInvitation(gomock.Any(), &invitationRepo.DeleteInvitationInput{InvitationID: "inv-aged"}).
		Return(nil)
	s.mockInvRepo.EXPECT().
		DeleteInvitation(gomock.Any(), &invitationRepo.DeleteInvitationInput{InvitationID: "inv-done"}).
		Return(nil)

	out, err := s.service.CleanupStale(s.ctx, &CleanupStaleInput{OlderThan: time.Hour})
	s.Require().NoError(err)
	s.Equal(2, out.InvitationsRemoved)
}

func TestLobbyServiceSuite(t *testing.T) {
	suite.Run(t, new(LobbyServiceTestSuite))
}
