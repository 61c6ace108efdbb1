package models

// Outcome classifies a completed session from one player's perspective
type Outcome string

const (
	// OutcomeWin indicates the player won the session
	OutcomeWin Outcome = "win"

	// OutcomeLoss indicates the player lost, by guess or by timeout
	OutcomeLoss Outcome = "loss"

	// OutcomeTie indicates neither player won outright
	OutcomeTie Outcome = "tie"
)

// GameResult is reported to the stats/achievement collaborator when a
// session completes
type GameResult struct {
	// SessionID identifies the completed session
	SessionID string

	// Outcome is the result from the reporting player's perspective
	Outcome Outcome

	// DigitLength is the secret length the session was played at
	DigitLength int

	// GuessCount is how many guesses the reporting player made
	GuessCount int
}
