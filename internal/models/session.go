package models

import (
	"time"

	"github.com/kdurkin/digitduel/internal/feedback"
)

// Phase represents the coarse lifecycle stage of a session
type Phase string

const (
	// PhaseAwaitingJoin indicates the session is waiting for a second player
	PhaseAwaitingJoin Phase = "awaiting_join"

	// PhaseAwaitingSecrets indicates both players joined but not everyone is ready
	PhaseAwaitingSecrets Phase = "awaiting_secrets"

	// PhaseActive indicates the session is in progress
	PhaseActive Phase = "active"

	// PhaseCompleted indicates the session has ended
	PhaseCompleted Phase = "completed"
)

// Order maps a phase to its position in the forward-only lifecycle.
// Unknown phases order before awaiting_join so they never win a merge.
func (p Phase) Order() int {
	switch p {
	case PhaseAwaitingJoin:
		return 0
	case PhaseAwaitingSecrets:
		return 1
	case PhaseActive:
		return 2
	case PhaseCompleted:
		return 3
	default:
		return -1
	}
}

// Role identifies which participant slot a player occupies
type Role string

const (
	// RoleInitiator is the player who created the session
	RoleInitiator Role = "initiator"

	// RoleJoiner is the player who joined an existing session
	RoleJoiner Role = "joiner"
)

// Opponent returns the other role
func (r Role) Opponent() Role {
	if r == RoleInitiator {
		return RoleJoiner
	}
	return RoleInitiator
}

// WinnerTie is the winner value recorded when neither player wins outright
const WinnerTie = "tie"

// GuessRecord is one guess made by a participant, append-only per slot
type GuessRecord struct {
	// Value is the guessed digit string
	Value string `json:"value"`

	// Feedback is the per-position scoring of the guess
	Feedback []feedback.Code `json:"feedback"`

	// IsWinning indicates the guess matched the opponent's secret exactly
	IsWinning bool `json:"isWinning"`

	// SubmittedAt is when the guess was made
	SubmittedAt time.Time `json:"submittedAt"`
}

// Slot is one participant's sub-record within a session. Each client
// writes only to its own slot; the opponent's slot is read-only.
type Slot struct {
	// PlayerID is the stable user id occupying the slot, empty if vacant
	PlayerID string

	// PlayerName is the display name of the player
	PlayerName string

	// SecretNumber is the digit string the opponent must guess.
	// Immutable once set.
	SecretNumber string

	// Guesses is the ordered, append-only guess log for this slot
	Guesses []*GuessRecord

	// Ready indicates the player has committed a secret and is ready to play
	Ready bool
}

// Occupied reports whether a player holds this slot
func (s *Slot) Occupied() bool {
	return s != nil && s.PlayerID != ""
}

// Session represents one 1v1 duel coordinated through the shared store
type Session struct {
	// ID is the unique identifier for the session
	ID string

	// DigitLength is the secret length for the session, one of 3, 4, 5
	DigitLength int

	// TimeLimitSeconds is the per-player time budget once play starts
	TimeLimitSeconds int

	// Phase is the current lifecycle stage
	Phase Phase

	// Initiator is the slot of the player who created the session
	Initiator *Slot

	// Joiner is the slot of the player who joined
	Joiner *Slot

	// StartedAt is set when the session enters the active phase. Both
	// clients derive remaining time from this shared value.
	StartedAt *time.Time

	// Winner is the winning player's id, or WinnerTie. Set at most once.
	Winner string

	// CreatedAt is when the session document was created
	CreatedAt time.Time
}

// SlotFor returns the slot and role held by the given player id
func (g *Session) SlotFor(playerID string) (*Slot, Role, bool) {
	if g.Initiator.Occupied() && g.Initiator.PlayerID == playerID {
		return g.Initiator, RoleInitiator, true
	}
	if g.Joiner.Occupied() && g.Joiner.PlayerID == playerID {
		return g.Joiner, RoleJoiner, true
	}
	return nil, "", false
}

// SlotByRole returns the slot for a role, never nil on a decoded session
func (g *Session) SlotByRole(role Role) *Slot {
	if role == RoleInitiator {
		return g.Initiator
	}
	return g.Joiner
}

// BothReady reports whether both slots are occupied and ready
func (g *Session) BothReady() bool {
	return g.Initiator.Occupied() && g.Initiator.Ready &&
		g.Joiner.Occupied() && g.Joiner.Ready
}

// TimeLimitForDigits returns the per-session time budget for a digit
// length: 3 digits get 20s, 4 get 30s, 5 get 40s.
func TimeLimitForDigits(digits int) int {
	switch digits {
	case 3:
		return 20
	case 5:
		return 40
	default:
		return 30
	}
}
