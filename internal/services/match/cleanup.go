package match

import (
	"context"
	"errors"

	"github.com/kdurkin/digitduel/internal/models"
	sessionRepo "github.com/kdurkin/digitduel/internal/repositories/session"
)

// CleanupStale removes completed sessions and sessions that aged past
// the bound without completing. The sweep is idempotent: sessions that
// vanish mid-sweep are skipped, and deleting an already-deleted session
// is not an error. It runs only when invoked; whether to run it on a
// schedule is the caller's policy.
func (s *service) CleanupStale(ctx context.Context, input *CleanupStaleInput) (*CleanupStaleOutput, error) {
	if input == nil {
		input = &CleanupStaleInput{}
	}

	olderThan := input.OlderThan
	if olderThan <= 0 {
		olderThan = s.staleAfter
	}

	listed, err := s.sessionRepo.ListSessionIDs(ctx, &sessionRepo.ListSessionIDsInput{})
	if err != nil {
		return nil, storeError(err)
	}

	cutoff := s.clock.Now().Add(-olderThan)
	removed := 0

	for _, id := range listed.SessionIDs {
		sess, err := s.sessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{SessionID: id})
		if err != nil {
			if errors.Is(err, sessionRepo.ErrSessionNotFound) {
				continue
			}
			return nil, storeError(err)
		}

		stale := sess.Phase == models.PhaseCompleted || sess.CreatedAt.Before(cutoff)
		if sess.StartedAt != nil && sess.StartedAt.Before(cutoff) {
			stale = true
		}

		if !stale {
			continue
		}

		if err := s.sessionRepo.DeleteSession(ctx, &sessionRepo.DeleteSessionInput{SessionID: id}); err != nil {
			s.log.Warn().Err(err).
				Str("session_id", id).
				Msg("failed to delete stale session")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("stale sessions swept")
	}

	return &CleanupStaleOutput{SessionsRemoved: removed}, nil
}
